package config

import (
	"time"

	redisclient "github.com/vietddude/catshelter/internal/infra/redis"
	"github.com/vietddude/catshelter/internal/infra/services/rest"
	"github.com/vietddude/catshelter/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Services rest.Config        `yaml:"services"`
	Shelter  ShelterConfig      `yaml:"shelter"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ShelterConfig holds orchestrator settings.
type ShelterConfig struct {
	// DefaultPrice overrides the price for cats whose breed has no price
	// history; 0 keeps the built-in default.
	DefaultPrice int64 `yaml:"default_price"`
	// CacheTTL bounds the redis breed caches.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// MigrationsDir is where goose migrations live.
	MigrationsDir string `yaml:"migrations_dir"`
}
