package rest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// BillingClient implements services.Billing over HTTP.
type BillingClient struct {
	client
}

// ListProducts returns one page of products in billing's order.
func (c *BillingClient) ListProducts(ctx context.Context, skip, limit int) ([]domain.Product, error) {
	var products []domain.Product
	path := fmt.Sprintf("/products?skip=%d&limit=%d", skip, limit)
	if _, err := c.get(ctx, path, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns nil when billing no longer lists the product.
func (c *BillingClient) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	found, err := c.get(ctx, "/products/"+id.String(), &product)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &product, nil
}

// AddProduct registers a product; billing deduplicates by id.
func (c *BillingClient) AddProduct(ctx context.Context, p domain.Product) error {
	return c.post(ctx, "/products", p, nil)
}

type sellRequest struct {
	Price int64 `json:"price"`
}

// SellProduct completes a sale and returns the bill.
func (c *BillingClient) SellProduct(
	ctx context.Context,
	id uuid.UUID,
	price int64,
) (*domain.Bill, error) {
	var bill domain.Bill
	path := "/products/" + id.String() + "/sell"
	if err := c.post(ctx, path, sellRequest{Price: price}, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}
