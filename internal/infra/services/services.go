// Package services defines the boundary contracts of the external systems
// the shelter orchestrates: authorization, billing, catalog and exchange.
// Implementations wrap connectivity failures with domain.ErrConnection so
// the retry policy can tell them apart from terminal errors.
package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// Authorization validates session tokens. An invalid session is reported
// through AuthResult.Success, not through the error; errors mean the
// service was unreachable.
type Authorization interface {
	Authorize(ctx context.Context, sessionID string) (*domain.AuthResult, error)
}

// Billing manages sellable products and executes sales.
type Billing interface {
	// ListProducts returns one page of products, in billing's order.
	ListProducts(ctx context.Context, skip, limit int) ([]domain.Product, error)

	// GetProduct returns nil when billing no longer lists the product.
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// AddProduct registers a product. Callers treat it as best-effort:
	// a retried transient failure can register the same id twice, and
	// billing is expected to deduplicate by id.
	AddProduct(ctx context.Context, p domain.Product) error

	// SellProduct completes a sale at the given price and returns the bill.
	SellProduct(ctx context.Context, id uuid.UUID, price int64) (*domain.Bill, error)
}

// Catalog looks up breed metadata.
type Catalog interface {
	// FindBreedByName returns nil when no breed matches the name.
	FindBreedByName(ctx context.Context, name string) (*domain.BreedInfo, error)
}

// Exchange serves breed price history.
type Exchange interface {
	// GetPriceHistory returns the breed's price points in no particular
	// order; callers sort as needed.
	GetPriceHistory(ctx context.Context, breedID uuid.UUID) ([]domain.PricePoint, error)
}
