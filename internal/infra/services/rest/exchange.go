package rest

import (
	"context"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// ExchangeClient implements services.Exchange over HTTP.
type ExchangeClient struct {
	client
}

// GetPriceHistory returns the breed's price points as delivered by the
// exchange, unordered.
func (c *ExchangeClient) GetPriceHistory(
	ctx context.Context,
	breedID uuid.UUID,
) ([]domain.PricePoint, error) {
	var points []domain.PricePoint
	if _, err := c.get(ctx, "/breeds/"+breedID.String()+"/prices", &points); err != nil {
		return nil, err
	}
	return points, nil
}
