package autocomplete

import (
	"context"
	"sync"
	"testing"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
)

// --- Mocks ---

type searchCall struct {
	index  string
	params catalog.Params
}

// mockGateway answers per index and records every call.
type mockGateway struct {
	mu      sync.Mutex
	calls   []searchCall
	results map[string]catalog.Response
	errs    map[string]error
	block   map[string]chan struct{}
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		results: make(map[string]catalog.Response),
		errs:    make(map[string]error),
		block:   make(map[string]chan struct{}),
	}
}

func (m *mockGateway) Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, searchCall{index: index, params: p})
	res, err, ch := m.results[index], m.errs[index], m.block[index]
	m.mu.Unlock()

	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return catalog.Response{}, ctx.Err()
		}
	}
	return res, err
}

func (m *mockGateway) callsTo(index string) []searchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []searchCall
	for _, c := range m.calls {
		if c.index == index {
			out = append(out, c)
		}
	}
	return out
}

type mockHistory struct {
	items []suggestion.RecentSearch
	err   error
}

func (m *mockHistory) Recent(_ context.Context, _ string) ([]suggestion.RecentSearch, error) {
	return m.items, m.err
}

func testCatalog() domain.CatalogConfig {
	return domain.CatalogConfig{
		ProductsIndex:     "products",
		SuggestionsIndex:  "suggestions",
		MerchIndex:        "merch",
		MerchQuery:        "featured",
		CategoryAttribute: "hierarchicalCategories.lvl0",
	}
}

const categoryAttr = "products.facets.exact_matches.hierarchicalCategories.lvl0.value"

func newTestAggregator(t *testing.T, gw *mockGateway, hist History) *Aggregator {
	t.Helper()
	a, err := New(gw, hist, testCatalog(), WithPoolSize(16))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func emissionFor(t *testing.T, ems []Emission, id suggestion.SourceID) Emission {
	t.Helper()
	for _, e := range ems {
		if e.Source == id {
			return e
		}
	}
	t.Fatalf("no emission for %s", id)
	return Emission{}
}
