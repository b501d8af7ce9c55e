package shelter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/catshelter/internal/core/domain"
	"github.com/vietddude/catshelter/internal/infra/storage/memory"
)

var errConn = fmt.Errorf("dial tcp: %w", domain.ErrConnection)

type mockAuth struct {
	result *domain.AuthResult
	errs   []error
	calls  int
}

func (m *mockAuth) Authorize(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.result, nil
}

type sellCall struct {
	id    uuid.UUID
	price int64
}

type mockBilling struct {
	mu sync.Mutex

	page      []domain.Product
	listSkip  int
	listLimit int
	listCalls int

	known    map[uuid.UUID]*domain.Product
	getErrs  []error
	getCalls int

	added   []domain.Product
	addedCh chan domain.Product
	addErrs []error

	sells    []sellCall
	sellErrs []error
}

func (m *mockBilling) ListProducts(ctx context.Context, skip, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	m.listSkip, m.listLimit = skip, limit
	return m.page, nil
}

func (m *mockBilling) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if len(m.getErrs) > 0 {
		err := m.getErrs[0]
		m.getErrs = m.getErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.known[id], nil
}

func (m *mockBilling) AddProduct(ctx context.Context, p domain.Product) error {
	m.mu.Lock()
	if len(m.addErrs) > 0 {
		err := m.addErrs[0]
		m.addErrs = m.addErrs[1:]
		if err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.added = append(m.added, p)
	ch := m.addedCh
	m.mu.Unlock()
	if ch != nil {
		ch <- p
	}
	return nil
}

func (m *mockBilling) SellProduct(ctx context.Context, id uuid.UUID, price int64) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sellErrs) > 0 {
		err := m.sellErrs[0]
		m.sellErrs = m.sellErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	m.sells = append(m.sells, sellCall{id: id, price: price})
	return &domain.Bill{ProductID: id, Amount: price}, nil
}

type mockCatalog struct {
	breeds map[string]*domain.BreedInfo
	errs   []error
	calls  int
}

func (m *mockCatalog) FindBreedByName(ctx context.Context, name string) (*domain.BreedInfo, error) {
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.breeds[name], nil
}

type mockExchange struct {
	history []domain.PricePoint
	errs    []error
	calls   int
}

func (m *mockExchange) GetPriceHistory(ctx context.Context, breedID uuid.UUID) ([]domain.PricePoint, error) {
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.history, nil
}

type fixture struct {
	user     uuid.UUID
	auth     *mockAuth
	billing  *mockBilling
	catalog  *mockCatalog
	exchange *mockExchange
	cats     *memory.Collection[*domain.StoredCat]
	svc      *Service
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		user:     uuid.New(),
		billing:  &mockBilling{known: make(map[uuid.UUID]*domain.Product)},
		catalog:  &mockCatalog{breeds: make(map[string]*domain.BreedInfo)},
		exchange: &mockExchange{},
		cats:     memory.NewCollection[*domain.StoredCat](),
	}
	f.auth = &mockAuth{result: &domain.AuthResult{Success: true, UserID: f.user}}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = New(f.cats, f.auth, f.billing, f.catalog, f.exchange, log, opts...)
	return f
}

func (f *fixture) storeCat(id uuid.UUID, price int64, favoritedBy ...uuid.UUID) *domain.StoredCat {
	rec := &domain.StoredCat{
		Cat:         domain.Cat{ID: id, Name: "cat-" + id.String()[:8], Price: price},
		FavoritedBy: domain.NewUserSet(favoritedBy...),
		AddedAt:     time.Now(),
	}
	_ = f.cats.Write(context.Background(), rec)
	return rec
}

func TestRejectedSessionAbortsEveryOperation(t *testing.T) {
	ctx := context.Background()
	catID := uuid.New()

	ops := map[string]func(f *fixture) error{
		"list_cats": func(f *fixture) error {
			_, err := f.svc.ListCats(ctx, "bad", 0, 10)
			return err
		},
		"add_to_favorites": func(f *fixture) error {
			return f.svc.AddToFavorites(ctx, "bad", catID)
		},
		"list_favorites": func(f *fixture) error {
			_, err := f.svc.ListFavorites(ctx, "bad")
			return err
		},
		"remove_from_favorites": func(f *fixture) error {
			return f.svc.RemoveFromFavorites(ctx, "bad", catID)
		},
		"buy_cat": func(f *fixture) error {
			_, err := f.svc.BuyCat(ctx, "bad", catID)
			return err
		},
		"add_cat": func(f *fixture) error {
			_, err := f.svc.AddCat(ctx, "bad", domain.AddCatRequest{Name: "n", Breed: "b"})
			return err
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.auth.result = &domain.AuthResult{Success: false}

			if err := op(f); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("err = %v, want ErrUnauthorized", err)
			}
			if f.billing.listCalls != 0 || f.billing.getCalls != 0 || len(f.billing.added) != 0 {
				t.Error("billing was called after rejected session")
			}
			if f.cats.Len() != 0 {
				t.Error("collection was mutated after rejected session")
			}
		})
	}
}

func TestUnreachableAuthorization(t *testing.T) {
	ctx := context.Background()

	f := newFixture()
	f.auth.errs = []error{errConn, errConn}
	if _, err := f.svc.ListCats(ctx, "s", 0, 10); !errors.Is(err, domain.ErrInternal) {
		t.Errorf("err = %v after two transient auth failures, want ErrInternal", err)
	}

	f = newFixture()
	f.auth.errs = []error{errConn, nil}
	if _, err := f.svc.ListCats(ctx, "s", 0, 10); err != nil {
		t.Errorf("ListCats failed after single transient auth failure: %v", err)
	}
	if f.auth.calls != 2 {
		t.Errorf("auth calls = %d, want 2", f.auth.calls)
	}
}

func TestListCatsSkipsProductsWithoutRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()
	f.billing.page = []domain.Product{{ID: p1}, {ID: p2}, {ID: p3}}
	first := f.storeCat(p1, 100)
	third := f.storeCat(p3, 300)

	cats, err := f.svc.ListCats(ctx, "s", 1, 2)
	if err != nil {
		t.Fatalf("ListCats failed: %v", err)
	}
	if f.billing.listSkip != 1 || f.billing.listLimit != 2 {
		t.Errorf("billing page args = (%d, %d), want (1, 2)", f.billing.listSkip, f.billing.listLimit)
	}
	if len(cats) != 2 || cats[0].ID != first.ID || cats[1].ID != third.ID {
		t.Errorf("ListCats = %v, want [%s %s] in billing order", cats, first.ID, third.ID)
	}
}

func TestAddToFavoritesIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	catID := uuid.New()
	f.storeCat(catID, 100)

	for range 2 {
		if err := f.svc.AddToFavorites(ctx, "s", catID); err != nil {
			t.Fatalf("AddToFavorites failed: %v", err)
		}
	}

	rec, _ := f.cats.Find(ctx, catID)
	if rec.FavoritedBy.Len() != 1 || !rec.FavoritedBy.Contains(f.user) {
		t.Errorf("FavoritedBy = %v after double favorite, want exactly {%s}", rec.FavoritedBy, f.user)
	}
}

func TestAddToFavoritesCreatesPlaceholder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	catID := uuid.New()

	if err := f.svc.AddToFavorites(ctx, "s", catID); err != nil {
		t.Fatalf("AddToFavorites failed: %v", err)
	}

	rec, _ := f.cats.Find(ctx, catID)
	if rec == nil {
		t.Fatal("no placeholder record was created")
	}
	if rec.Name != "" || rec.Price != 0 {
		t.Errorf("placeholder = %+v, want empty descriptive fields and zero price", rec.Cat)
	}
	if !rec.FavoritedBy.Contains(f.user) || rec.FavoritedBy.Len() != 1 {
		t.Errorf("placeholder FavoritedBy = %v, want {%s}", rec.FavoritedBy, f.user)
	}
}

func TestListFavoritesCleansUpSoldCats(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	other := uuid.New()

	forSale := f.storeCat(uuid.New(), 100, f.user)
	sold := f.storeCat(uuid.New(), 200, f.user)
	foreign := f.storeCat(uuid.New(), 300, other)
	f.billing.known[forSale.ID] = &domain.Product{ID: forSale.ID}
	f.billing.known[foreign.ID] = &domain.Product{ID: foreign.ID}

	cats, err := f.svc.ListFavorites(ctx, "s")
	if err != nil {
		t.Fatalf("ListFavorites failed: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != forSale.ID {
		t.Errorf("ListFavorites = %v, want only %s", cats, forSale.ID)
	}

	if rec, _ := f.cats.Find(ctx, sold.ID); rec != nil {
		t.Error("sold cat survived lazy cleanup")
	}
	if rec, _ := f.cats.Find(ctx, foreign.ID); rec == nil {
		t.Error("another user's favorite was deleted")
	}
}

func TestRemoveFromFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if err := f.svc.RemoveFromFavorites(ctx, "s", uuid.New()); err != nil {
		t.Errorf("removing favorite of unknown cat = %v, want no-op", err)
	}

	other := uuid.New()
	rec := f.storeCat(uuid.New(), 100, f.user, other)

	if err := f.svc.RemoveFromFavorites(ctx, "s", rec.ID); err != nil {
		t.Fatalf("RemoveFromFavorites failed: %v", err)
	}
	got, _ := f.cats.Find(ctx, rec.ID)
	if got.FavoritedBy.Contains(f.user) || !got.FavoritedBy.Contains(other) {
		t.Errorf("FavoritedBy = %v, want only %s left", got.FavoritedBy, other)
	}

	// The record survives even when the last favorite is removed.
	if err := f.svc.RemoveFromFavorites(ctx, "s", rec.ID); err != nil {
		t.Fatalf("RemoveFromFavorites failed: %v", err)
	}
	if got, _ = f.cats.Find(ctx, rec.ID); got == nil {
		t.Error("record was deleted by unfavorite")
	} else if got.FavoritedBy.Len() != 0 {
		t.Errorf("FavoritedBy = %v, want empty", got.FavoritedBy)
	}
}

func TestBuyCatUnknownProductIsInvalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	catID := uuid.New()
	f.storeCat(catID, 950)

	_, err := f.svc.BuyCat(ctx, "s", catID)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v for product billing does not list, want ErrInvalidRequest", err)
	}
	if len(f.billing.sells) != 0 {
		t.Error("SellProduct was called for an unlisted product")
	}
}

func TestBuyCatMissingRecordReturnsEmptyBill(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	catID := uuid.New()
	f.billing.known[catID] = &domain.Product{ID: catID}

	bill, err := f.svc.BuyCat(ctx, "s", catID)
	if err != nil {
		t.Fatalf("BuyCat failed: %v", err)
	}
	if *bill != (domain.Bill{}) {
		t.Errorf("bill = %+v, want empty bill", bill)
	}
	if len(f.billing.sells) != 0 {
		t.Error("SellProduct was called despite missing record")
	}
}

func TestBuyCatSellsAtStoredPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	catID := uuid.New()
	f.billing.known[catID] = &domain.Product{ID: catID}
	f.storeCat(catID, 950)

	bill, err := f.svc.BuyCat(ctx, "s", catID)
	if err != nil {
		t.Fatalf("BuyCat failed: %v", err)
	}
	if bill.Amount != 950 || bill.ProductID != catID {
		t.Errorf("bill = %+v, want %s at 950", bill, catID)
	}
	if len(f.billing.sells) != 1 || f.billing.sells[0].price != 950 {
		t.Errorf("sells = %v, want one sale at the stored price", f.billing.sells)
	}
}

func TestAddCatValidatesInput(t *testing.T) {
	ctx := context.Background()
	for _, req := range []domain.AddCatRequest{
		{Name: "", Breed: "russian"},
		{Name: "Murka", Breed: ""},
	} {
		f := newFixture()
		_, err := f.svc.AddCat(ctx, "s", req)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("AddCat(%+v) err = %v, want ErrInvalidRequest", req, err)
		}
		if f.catalog.calls != 0 || f.exchange.calls != 0 {
			t.Errorf("AddCat(%+v) called dependencies despite invalid input", req)
		}
	}
}

func TestAddCatUnknownBreedIsInvalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.AddCat(ctx, "s", domain.AddCatRequest{Name: "Murka", Breed: "sphinx"})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("err = %v for unknown breed, want ErrInvalidRequest", err)
	}
}

func TestAddCatPriceFromLatestHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	breedID := uuid.New()
	f.catalog.breeds["russian"] = &domain.BreedInfo{
		BreedID:   breedID,
		BreedName: "russian",
		Photo:     "breed.jpg",
	}
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	f.exchange.history = []domain.PricePoint{{Date: feb, Price: 950}, {Date: jan, Price: 900}}
	f.billing.addedCh = make(chan domain.Product, 1)

	id, err := f.svc.AddCat(ctx, "s", domain.AddCatRequest{
		Name:  "Murka",
		Breed: "russian",
		Photo: "cat.jpg",
	})
	if err != nil {
		t.Fatalf("AddCat failed: %v", err)
	}

	rec, _ := f.cats.Find(ctx, id)
	if rec == nil {
		t.Fatal("no record was written")
	}
	if rec.Price != 950 {
		t.Errorf("Price = %d, want 950 (latest history entry)", rec.Price)
	}
	if len(rec.PriceHistory) != 2 || !rec.PriceHistory[0].Date.Equal(jan) {
		t.Errorf("PriceHistory = %v, want sorted ascending by date", rec.PriceHistory)
	}
	if rec.BreedName != "russian" || rec.BreedID != breedID || rec.BreedPhoto != "breed.jpg" {
		t.Errorf("breed fields = %+v, want catalog metadata", rec.Cat)
	}
	if rec.AddedBy != f.user || rec.CatPhoto != "cat.jpg" {
		t.Errorf("record = %+v, want caller identity and request photo", rec.Cat)
	}

	select {
	case p := <-f.billing.addedCh:
		if p.ID != id || p.BreedID != breedID {
			t.Errorf("registered product = %+v, want {%s %s}", p, id, breedID)
		}
	case <-time.After(time.Second):
		t.Error("product was never registered in billing")
	}
}

func TestAddCatEmptyHistoryUsesDefaultPrice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.catalog.breeds["russian"] = &domain.BreedInfo{BreedID: uuid.New(), BreedName: "russian"}

	id, err := f.svc.AddCat(ctx, "s", domain.AddCatRequest{Name: "Murka", Breed: "russian"})
	if err != nil {
		t.Fatalf("AddCat failed: %v", err)
	}
	rec, _ := f.cats.Find(ctx, id)
	if rec.Price != DefaultPrice {
		t.Errorf("Price = %d, want default %d", rec.Price, DefaultPrice)
	}
}

func TestAddCatDefaultPriceOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(WithDefaultPrice(1500))
	f.catalog.breeds["russian"] = &domain.BreedInfo{BreedID: uuid.New(), BreedName: "russian"}

	id, err := f.svc.AddCat(ctx, "s", domain.AddCatRequest{Name: "Murka", Breed: "russian"})
	if err != nil {
		t.Fatalf("AddCat failed: %v", err)
	}
	rec, _ := f.cats.Find(ctx, id)
	if rec.Price != 1500 {
		t.Errorf("Price = %d, want configured 1500", rec.Price)
	}
}

func TestAddCatTransientExchangeFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.catalog.breeds["russian"] = &domain.BreedInfo{BreedID: uuid.New(), BreedName: "russian"}
	f.exchange.errs = []error{errConn, errConn}

	_, err := f.svc.AddCat(ctx, "s", domain.AddCatRequest{Name: "Murka", Breed: "russian"})
	if !errors.Is(err, domain.ErrInternal) {
		t.Errorf("err = %v after two transient exchange failures, want ErrInternal", err)
	}
	if f.cats.Len() != 0 {
		t.Error("record was written despite failed price lookup")
	}
}
