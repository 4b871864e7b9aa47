package chi

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/repository/history"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/storefront/internal/usecase/health"
)

// --- Mocks ---

type mockGateway struct {
	mu          sync.Mutex
	searchFn    func(index string, p catalog.Params) (catalog.Response, error)
	getObjectFn func(index, objectID string) (catalog.Hit, error)
	queries     []string
}

func (m *mockGateway) Search(_ context.Context, index string, p catalog.Params) (catalog.Response, error) {
	m.mu.Lock()
	m.queries = append(m.queries, index+":"+p.Query)
	m.mu.Unlock()
	if m.searchFn == nil {
		return catalog.Response{}, nil
	}
	return m.searchFn(index, p)
}

func (m *mockGateway) GetObject(_ context.Context, index, objectID string) (catalog.Hit, error) {
	if m.getObjectFn == nil {
		return nil, domain.ErrProductNotFound
	}
	return m.getObjectFn(index, objectID)
}

// storefrontGateway answers like a small demo catalog.
func storefrontGateway() *mockGateway {
	return &mockGateway{
		searchFn: func(index string, p catalog.Params) (catalog.Response, error) {
			switch index {
			case "products":
				return catalog.Response{
					Hits:    []catalog.Hit{{"objectID": "42", "name": "Tent", "price": 120.0}},
					NbHits:  1,
					NbPages: 1,
				}, nil
			case "merch":
				return catalog.Response{Hits: []catalog.Hit{{"objectID": "m1", "name": "Featured lamp"}}}, nil
			default:
				return catalog.Response{}, nil
			}
		},
		getObjectFn: func(_, id string) (catalog.Hit, error) {
			if id == "42" {
				return catalog.Hit{"objectID": "42", "name": "Tent"}, nil
			}
			return nil, domain.ErrProductNotFound
		},
	}
}

func testCatalog() domain.CatalogConfig {
	cfg := domain.DefaultCatalogConfig()
	cfg.ProductsIndex = "products"
	cfg.SuggestionsIndex = "suggestions"
	cfg.MerchIndex = "merch"
	cfg.MerchQuery = "featured"
	return cfg
}

func newTestServer(t *testing.T, gw *mockGateway) *httptest.Server {
	t.Helper()
	return newTestServerWithHistory(t, gw, history.NewMemory(domain.HistoryLimit, 0))
}

func newTestServerWithHistory(t *testing.T, gw *mockGateway, hist *history.Memory) *httptest.Server {
	t.Helper()
	agg, err := autocomplete.New(gw, hist, testCatalog(), autocomplete.WithPoolSize(8))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	t.Cleanup(agg.Close)

	srv := NewServer(
		cataloguc.New(gw, testCatalog()),
		agg,
		hist,
		healthuc.New(nil, healthuc.CheckFunc(func(context.Context) error { return nil })),
		SessionConfig{Debounce: 20 * time.Millisecond},
		zap.NewNop(),
	)
	r := chi.NewRouter()
	srv.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}
