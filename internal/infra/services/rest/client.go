// Package rest implements the external service contracts as JSON-over-HTTP
// clients.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/catshelter/internal/core/domain"
)

// Config holds the base URLs of the external services.
type Config struct {
	AuthorizationURL string        `yaml:"authorization_url"`
	BillingURL       string        `yaml:"billing_url"`
	CatalogURL       string        `yaml:"catalog_url"`
	ExchangeURL      string        `yaml:"exchange_url"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Clients bundles one client per external service, sharing a pooled
// http.Client.
type Clients struct {
	Authorization *AuthorizationClient
	Billing       *BillingClient
	Catalog       *CatalogClient
	Exchange      *ExchangeClient
}

// NewClients creates clients for all four external services.
func NewClients(cfg Config) *Clients {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Clients{
		Authorization: &AuthorizationClient{client{cfg.AuthorizationURL, httpClient}},
		Billing:       &BillingClient{client{cfg.BillingURL, httpClient}},
		Catalog:       &CatalogClient{client{cfg.CatalogURL, httpClient}},
		Exchange:      &ExchangeClient{client{cfg.ExchangeURL, httpClient}},
	}
}

type client struct {
	base string
	http *http.Client
}

// get performs a GET and decodes the body into out. A 404 response reports
// found=false with no error.
func (c client) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out, true)
}

// post performs a POST with a JSON body, decoding the response into out
// when out is non-nil.
func (c client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, out, false)
	return err
}

func (c client) do(req *http.Request, out any, allowNotFound bool) (bool, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w: %v", req.Method, req.URL.Path, domain.ErrConnection, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound && allowNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%s %s: %w: status %d",
			req.Method, req.URL.Path, domain.ErrConnection, resp.StatusCode)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return false, fmt.Errorf("%s %s: unexpected status %d",
			req.Method, req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return true, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return true, nil
}
