// Package shelter implements the orchestration layer of the cat shelter:
// it authorizes callers, lists cats for sale, maintains per-user favorites,
// executes purchases against billing and registers new cats.
package shelter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
	"github.com/vietddude/catshelter/internal/infra/services"
	"github.com/vietddude/catshelter/internal/infra/storage"
	"github.com/vietddude/catshelter/internal/shelter/metrics"
)

// DefaultPrice is assigned to a cat whose breed has no recorded price history.
const DefaultPrice int64 = 1000

// Service orchestrates the shelter operations across the external services
// and the cat collection. Every operation authorizes the session first and
// then runs its steps strictly sequentially; ordering between concurrent
// invocations for the same cat is left to the collection's last-write-wins
// upsert semantics.
type Service struct {
	cats     storage.Collection[*domain.StoredCat]
	auth     services.Authorization
	billing  services.Billing
	catalog  services.Catalog
	exchange services.Exchange

	defaultPrice int64
	log          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultPrice overrides the price assigned when a breed has no price
// history.
func WithDefaultPrice(price int64) Option {
	return func(s *Service) {
		if price > 0 {
			s.defaultPrice = price
		}
	}
}

// New creates the shelter service.
func New(
	cats storage.Collection[*domain.StoredCat],
	auth services.Authorization,
	billing services.Billing,
	catalog services.Catalog,
	exchange services.Exchange,
	log *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		cats:         cats,
		auth:         auth,
		billing:      billing,
		catalog:      catalog,
		exchange:     exchange,
		defaultPrice: DefaultPrice,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// authorize resolves the session into an identity. A rejected session maps
// to ErrUnauthorized; an unreachable authorization service maps to
// ErrInternal via the retry policy.
func (s *Service) authorize(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	res, err := callWithRetry(ctx, "authorization", "authorize", func() (*domain.AuthResult, error) {
		return s.auth.Authorize(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, domain.ErrUnauthorized
	}
	return res, nil
}

// ListCats returns one billing page of cats for sale, in billing's order.
// Products with no matching cat record are silently omitted; billing and
// the collection are allowed to disagree.
func (s *Service) ListCats(
	ctx context.Context,
	sessionID string,
	skip, limit int,
) ([]domain.Cat, error) {
	metrics.Operations.WithLabelValues("list_cats").Inc()
	if _, err := s.authorize(ctx, sessionID); err != nil {
		return nil, err
	}

	products, err := callWithRetry(ctx, "billing", "list_products", func() ([]domain.Product, error) {
		return s.billing.ListProducts(ctx, skip, limit)
	})
	if err != nil {
		return nil, err
	}

	cats := make([]domain.Cat, 0, len(products))
	for _, p := range products {
		rec, err := s.cats.Find(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		cats = append(cats, rec.Public())
	}
	return cats, nil
}

// AddToFavorites marks the cat as a favorite of the caller. Favoriting a
// cat with no record keeps a placeholder record so the membership survives;
// its descriptive fields stay empty and its price is zero.
func (s *Service) AddToFavorites(ctx context.Context, sessionID string, catID uuid.UUID) error {
	metrics.Operations.WithLabelValues("add_to_favorites").Inc()
	res, err := s.authorize(ctx, sessionID)
	if err != nil {
		return err
	}

	rec, err := s.cats.Find(ctx, catID)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &domain.StoredCat{
			Cat:         domain.Cat{ID: catID},
			FavoritedBy: domain.NewUserSet(),
			AddedAt:     time.Now(),
		}
	}
	if rec.FavoritedBy == nil {
		rec.FavoritedBy = domain.NewUserSet()
	}
	rec.FavoritedBy.Add(res.UserID)
	return s.cats.Write(ctx, rec)
}

// ListFavorites returns the caller's favorite cats that billing still lists
// for sale. A favorite billing no longer knows was sold elsewhere: its
// record is deleted on the spot (lazy cleanup) and excluded from the result,
// so staleness is bounded by time between reads.
func (s *Service) ListFavorites(ctx context.Context, sessionID string) ([]domain.Cat, error) {
	metrics.Operations.WithLabelValues("list_favorites").Inc()
	res, err := s.authorize(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	recs, err := s.cats.FindWhere(ctx, func(c *domain.StoredCat) bool {
		return c.FavoritedBy.Contains(res.UserID)
	})
	if err != nil {
		return nil, err
	}

	cats := make([]domain.Cat, 0, len(recs))
	for _, rec := range recs {
		product, err := s.billing.GetProduct(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			if err := s.cats.Delete(ctx, rec.ID); err != nil {
				return nil, err
			}
			metrics.FavoriteCleanups.Inc()
			s.log.Debug("removed sold cat from collection", "cat_id", rec.ID)
			continue
		}
		cats = append(cats, rec.Public())
	}
	return cats, nil
}

// RemoveFromFavorites removes the caller from the cat's favorites. Unknown
// cats and non-member removals are no-ops; the record itself is never
// deleted here.
func (s *Service) RemoveFromFavorites(ctx context.Context, sessionID string, catID uuid.UUID) error {
	metrics.Operations.WithLabelValues("remove_from_favorites").Inc()
	res, err := s.authorize(ctx, sessionID)
	if err != nil {
		return err
	}

	rec, err := s.cats.Find(ctx, catID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	rec.FavoritedBy.Remove(res.UserID)
	return s.cats.Write(ctx, rec)
}

// BuyCat sells the cat at its locally stored price, which is authoritative
// for the sale amount. A product billing no longer lists is an invalid
// request; a product with no cat record degrades to an empty bill rather
// than failing.
func (s *Service) BuyCat(ctx context.Context, sessionID string, catID uuid.UUID) (*domain.Bill, error) {
	metrics.Operations.WithLabelValues("buy_cat").Inc()
	if _, err := s.authorize(ctx, sessionID); err != nil {
		return nil, err
	}

	product, err := callWithRetry(ctx, "billing", "get_product", func() (*domain.Product, error) {
		return s.billing.GetProduct(ctx, catID)
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("buy cat %s: product not listed: %w", catID, domain.ErrInvalidRequest)
	}

	rec, err := callWithRetry(ctx, "collection", "find", func() (*domain.StoredCat, error) {
		return s.cats.Find(ctx, catID)
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &domain.Bill{}, nil
	}

	return callWithRetry(ctx, "billing", "sell_product", func() (*domain.Bill, error) {
		return s.billing.SellProduct(ctx, catID, rec.Price)
	})
}

// AddCat registers a new cat: breed metadata comes from the catalog, the
// initial price from the latest exchange price point (or the default when
// the history is empty), and the id is registered as a sellable product in
// billing. Returns the new cat's id.
func (s *Service) AddCat(
	ctx context.Context,
	sessionID string,
	req domain.AddCatRequest,
) (uuid.UUID, error) {
	metrics.Operations.WithLabelValues("add_cat").Inc()
	res, err := s.authorize(ctx, sessionID)
	if err != nil {
		return uuid.Nil, err
	}
	if req.Name == "" || req.Breed == "" {
		return uuid.Nil, fmt.Errorf("add cat: name and breed are required: %w", domain.ErrInvalidRequest)
	}

	breed, err := callWithRetry(ctx, "catalog", "find_breed", func() (*domain.BreedInfo, error) {
		return s.catalog.FindBreedByName(ctx, req.Breed)
	})
	if err != nil {
		return uuid.Nil, err
	}
	if breed == nil {
		return uuid.Nil, fmt.Errorf("add cat: unknown breed %q: %w", req.Breed, domain.ErrInvalidRequest)
	}

	id := uuid.New()

	// Best-effort product registration: the result is not awaited, a
	// failure leaves a cat record billing never lists.
	go func() {
		_, err := callWithRetry(ctx, "billing", "add_product", func() (struct{}, error) {
			return struct{}{}, s.billing.AddProduct(ctx, domain.Product{ID: id, BreedID: breed.BreedID})
		})
		if err != nil {
			s.log.Warn("product registration failed", "cat_id", id, "error", err)
		}
	}()

	history, err := callWithRetry(ctx, "exchange", "get_price_history", func() ([]domain.PricePoint, error) {
		return s.exchange.GetPriceHistory(ctx, breed.BreedID)
	})
	if err != nil {
		return uuid.Nil, err
	}
	domain.SortPriceHistory(history)

	price := s.defaultPrice
	if len(history) > 0 {
		price = history[len(history)-1].Price
	}

	rec := &domain.StoredCat{
		Cat: domain.Cat{
			ID:           id,
			Name:         req.Name,
			BreedName:    breed.BreedName,
			BreedID:      breed.BreedID,
			BreedPhoto:   breed.Photo,
			CatPhoto:     req.Photo,
			AddedBy:      res.UserID,
			Price:        price,
			PriceHistory: history,
		},
		FavoritedBy: domain.NewUserSet(),
		AddedAt:     time.Now(),
	}
	if err := s.cats.Write(ctx, rec); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
