package panel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	"github.com/kailas-cloud/storefront/internal/repository/history"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
	"github.com/kailas-cloud/storefront/internal/usecase/querystate"
)

// --- Mocks ---

// mockGateway answers with respond and optionally holds a call until its channel closes.
type mockGateway struct {
	respond func(index string, p catalog.Params) catalog.Response
	hold    func(index string, p catalog.Params) <-chan struct{}
}

func (m *mockGateway) Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error) {
	if m.hold != nil {
		if ch := m.hold(index, p); ch != nil {
			select {
			case <-ch:
			case <-ctx.Done():
				return catalog.Response{}, ctx.Err()
			}
		}
	}
	if m.respond == nil {
		return catalog.Response{}, nil
	}
	return m.respond(index, p), nil
}

// recordingState counts commits on top of a real store.
type recordingState struct {
	*querystate.Store
	mu      sync.Mutex
	commits []query.Commit
}

func (r *recordingState) Commit(c query.Commit) (query.State, bool) {
	r.mu.Lock()
	r.commits = append(r.commits, c)
	r.mu.Unlock()
	return r.Store.Commit(c)
}

func (r *recordingState) committed() []query.Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]query.Commit(nil), r.commits...)
}

type recordingSink struct {
	mu        sync.Mutex
	views     []View
	navigated []string
}

func (s *recordingSink) Render(v View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, v)
}

func (s *recordingSink) Navigate(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navigated = append(s.navigated, url)
}

func (s *recordingSink) renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

func (s *recordingSink) navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

// --- Helpers ---

const testDebounce = 60 * time.Millisecond

func testCatalog() domain.CatalogConfig {
	return domain.CatalogConfig{
		ProductsIndex:     "products",
		SuggestionsIndex:  "suggestions",
		MerchIndex:        "merch",
		MerchQuery:        "featured",
		CategoryAttribute: "hierarchicalCategories.lvl0",
	}
}

type fixture struct {
	ctrl    *Controller
	state   *recordingState
	sink    *recordingSink
	history *history.Memory
}

func newFixture(t *testing.T, gw *mockGateway, initial query.State) *fixture {
	t.Helper()
	hist := history.NewMemory(domain.HistoryLimit, 0)
	agg, err := autocomplete.New(gw, hist, testCatalog(), autocomplete.WithPoolSize(16))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	t.Cleanup(agg.Close)

	f := &fixture{
		state:   &recordingState{Store: querystate.New(initial)},
		sink:    &recordingSink{},
		history: hist,
	}
	f.ctrl = New(agg, f.state, hist, f.sink, Config{Scope: "test", Debounce: testDebounce})
	t.Cleanup(f.ctrl.Unmount)
	return f
}

// eventually polls cond until it holds or a second passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func (f *fixture) view(t *testing.T) View {
	t.Helper()
	v, err := f.ctrl.View()
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return v
}

// section returns the rendered section of id, if present.
func section(v View, id suggestion.SourceID) (suggestion.Section, bool) {
	for _, region := range [][]suggestion.Section{v.Panel.Left, v.Panel.Right} {
		for _, s := range region {
			if s.Source == id {
				return s, true
			}
		}
	}
	return suggestion.Section{}, false
}

func labels(s suggestion.Section) []string {
	out := make([]string, len(s.Items))
	for i, it := range s.Items {
		out[i] = it.Label
	}
	return out
}
