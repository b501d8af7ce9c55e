package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
)

func newTestClients(t *testing.T, handler http.Handler) (*Clients, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClients(Config{
		AuthorizationURL: srv.URL,
		BillingURL:       srv.URL,
		CatalogURL:       srv.URL,
		ExchangeURL:      srv.URL,
	}), srv
}

func TestGetProductNotFoundReturnsNil(t *testing.T) {
	clients, _ := newTestClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	product, err := clients.Billing.GetProduct(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if product != nil {
		t.Errorf("GetProduct = %+v, want nil for 404", product)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	clients, _ := newTestClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := clients.Billing.GetProduct(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("GetProduct succeeded, want error for 500")
	}
	if !domain.IsTransient(err) {
		t.Errorf("IsTransient(%v) = false, want true for 500", err)
	}
}

func TestUnreachableServerIsTransient(t *testing.T) {
	clients, srv := newTestClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := clients.Catalog.FindBreedByName(context.Background(), "russian")
	if err == nil {
		t.Fatal("FindBreedByName succeeded against closed server")
	}
	if !domain.IsTransient(err) {
		t.Errorf("IsTransient(%v) = false, want true for refused connection", err)
	}
}

func TestAuthorizeDecodesVerdict(t *testing.T) {
	user := uuid.New()
	clients, _ := newTestClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/authorize" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req authorizeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.SessionID != "session-1" {
			t.Errorf("session_id = %q, want session-1", req.SessionID)
		}
		_ = json.NewEncoder(w).Encode(authorizeResponse{Success: true, UserID: user})
	}))

	res, err := clients.Authorization.Authorize(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if !res.Success || res.UserID != user {
		t.Errorf("Authorize = %+v, want success for %s", res, user)
	}
}

func TestSellProductPostsPrice(t *testing.T) {
	id := uuid.New()
	clients, _ := newTestClients(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/"+id.String()+"/sell" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req sellRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(domain.Bill{ProductID: id, Amount: req.Price})
	}))

	bill, err := clients.Billing.SellProduct(context.Background(), id, 950)
	if err != nil {
		t.Fatalf("SellProduct failed: %v", err)
	}
	if bill.ProductID != id || bill.Amount != 950 {
		t.Errorf("SellProduct = %+v, want bill for %s at 950", bill, id)
	}
}
