package rest

import (
	"context"
	"net/url"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// CatalogClient implements services.Catalog over HTTP.
type CatalogClient struct {
	client
}

// FindBreedByName returns nil when the catalog has no breed with that name.
func (c *CatalogClient) FindBreedByName(
	ctx context.Context,
	name string,
) (*domain.BreedInfo, error) {
	var breed domain.BreedInfo
	found, err := c.get(ctx, "/breeds?name="+url.QueryEscape(name), &breed)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &breed, nil
}
