package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/repository/history"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
)

// --- Mocks ---

type mockGateway struct{}

func (mockGateway) Search(_ context.Context, index string, p catalog.Params) (catalog.Response, error) {
	switch index {
	case "products":
		if p.Page > 0 {
			return catalog.Response{
				Hits:    []catalog.Hit{{"objectID": "43", "name": "Tarp", "price": 30.0}},
				NbHits:  2,
				NbPages: 2,
			}, nil
		}
		return catalog.Response{
			Hits:    []catalog.Hit{{"objectID": "42", "name": "Tent", "price": 120.0}},
			NbHits:  2,
			NbPages: 2,
			Facets: map[string]map[string]int{
				"hierarchicalCategories.lvl0": {"Outdoor": 2, "Kitchen": 1},
			},
		}, nil
	case "merch":
		return catalog.Response{Hits: []catalog.Hit{{"objectID": "m1", "name": "Featured lamp"}}}, nil
	default:
		return catalog.Response{}, nil
	}
}

func (mockGateway) GetObject(_ context.Context, _, id string) (catalog.Hit, error) {
	if id == "42" {
		return catalog.Hit{"objectID": "42", "name": "Tent", "brand": "Acme", "price": 120.0}, nil
	}
	return nil, domain.ErrProductNotFound
}

// --- Helpers ---

type fixture struct {
	m    *Model
	hist *history.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := domain.DefaultCatalogConfig()
	cat.ProductsIndex = "products"
	cat.SuggestionsIndex = "suggestions"
	cat.MerchIndex = "merch"

	hist := history.NewMemory(domain.HistoryLimit, 0)
	agg, err := autocomplete.New(mockGateway{}, hist, cat, autocomplete.WithPoolSize(8))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	t.Cleanup(agg.Close)

	m := New(agg, cataloguc.New(mockGateway{}, cat), hist, Config{
		Scope:             "tui",
		Debounce:          time.Hour,
		CategoryAttribute: cat.CategoryAttribute,
	})
	t.Cleanup(m.Close)
	return &fixture{m: m, hist: hist}
}

// receive runs the bridge listener once.
func (f *fixture) receive(t *testing.T) tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 1)
	go func() { ch <- f.m.bridge.listen()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for panel message")
		return nil
	}
}

// pump feeds bridge messages to Update until done accepts the model.
func (f *fixture) pump(t *testing.T, what string, done func(*Model) bool) {
	t.Helper()
	for i := 0; i < 50; i++ {
		if done(f.m) {
			return
		}
		f.m.Update(f.receive(t))
	}
	t.Fatalf("model never reached: %s", what)
}

// settle applies search results for the committed state.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	f.m.Update(f.m.search(f.m.committed)())
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func sectionLen(m *Model, left bool, header string) int {
	region := m.view.Panel.Right
	if left {
		region = m.view.Panel.Left
	}
	for _, s := range region {
		if s.Header == header {
			return len(s.Items)
		}
	}
	return 0
}
