// Package control wires the shelter service together: storage, external
// service clients, caching and the API server.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/catshelter/internal/core/config"
	"github.com/vietddude/catshelter/internal/core/domain"
	redisclient "github.com/vietddude/catshelter/internal/infra/redis"
	"github.com/vietddude/catshelter/internal/infra/services"
	"github.com/vietddude/catshelter/internal/infra/services/rest"
	"github.com/vietddude/catshelter/internal/infra/storage"
	"github.com/vietddude/catshelter/internal/infra/storage/memory"
	"github.com/vietddude/catshelter/internal/infra/storage/postgres"
	"github.com/vietddude/catshelter/internal/shelter"
	"github.com/vietddude/catshelter/internal/shelter/api"
)

// App holds the assembled service and its closable resources.
type App struct {
	api *api.Server
	db  *postgres.DB
	rdb *redisclient.Client
}

// NewApp builds the application from config.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	app := &App{}

	// Storage: postgres when configured, memory otherwise.
	var cats storage.Collection[*domain.StoredCat]
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(cfg.Shelter.MigrationsDir); err != nil {
			_ = db.Close()
			return nil, err
		}
		app.db = db
		cats = postgres.NewCatRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		cats = memory.NewCollection[*domain.StoredCat]()
		slog.Info("Using memory storage")
	}

	clients := rest.NewClients(cfg.Services)
	var catalog services.Catalog = clients.Catalog
	var exchange services.Exchange = clients.Exchange

	if cfg.Redis.URL != "" {
		rdb, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, breed caches disabled", "error", err)
		} else {
			app.rdb = rdb
			catalog = redisclient.NewCachedCatalog(catalog, rdb, cfg.Shelter.CacheTTL)
			exchange = redisclient.NewCachedExchange(exchange, rdb, cfg.Shelter.CacheTTL)
			slog.Info("Breed caches enabled", "ttl", cfg.Shelter.CacheTTL)
		}
	}

	var opts []shelter.Option
	if cfg.Shelter.DefaultPrice > 0 {
		opts = append(opts, shelter.WithDefaultPrice(cfg.Shelter.DefaultPrice))
	}
	svc := shelter.New(cats, clients.Authorization, clients.Billing, catalog, exchange,
		slog.Default(), opts...)

	app.api = api.NewServer(svc, cfg.Server.Port)
	return app, nil
}

// Start starts the API server and blocks until it stops.
func (a *App) Start() error {
	if err := a.api.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the API server and closes storage connections.
func (a *App) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var errs []error
	if err := a.api.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
