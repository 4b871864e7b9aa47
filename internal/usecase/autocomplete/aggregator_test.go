package autocomplete

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
)

func TestCollect_EmptyDraft_QueriesMerchNotHits(t *testing.T) {
	gw := newMockGateway()
	gw.results["merch"] = catalog.Response{Hits: []catalog.Hit{
		{"objectID": "m1", "name": "Featured lamp"},
	}}
	a := newTestAggregator(t, gw, &mockHistory{})

	ems := a.Collect(context.Background(), a.Sources("s", ""), "")

	if len(gw.callsTo("products")) != 0 {
		t.Errorf("expected no item hit query for empty draft, got %d", len(gw.callsTo("products")))
	}
	if n := len(emissionFor(t, ems, suggestion.Hits).Items); n != 0 {
		t.Errorf("expected no item hits, got %d", n)
	}

	merch := gw.callsTo("merch")
	if len(merch) != 1 {
		t.Fatalf("expected 1 merch query, got %d", len(merch))
	}
	if merch[0].params.Query != "featured" || merch[0].params.HitsPerPage != 3 {
		t.Errorf("unexpected merch params %+v", merch[0].params)
	}
	if n := len(emissionFor(t, ems, suggestion.Merch).Items); n != 1 {
		t.Errorf("expected 1 merch item, got %d", n)
	}
}

func TestCollect_NonEmptyDraft_QueriesHitsNotMerch(t *testing.T) {
	gw := newMockGateway()
	gw.results["products"] = catalog.Response{Hits: []catalog.Hit{
		{"objectID": "1", "name": "Running shoe"},
	}}
	a := newTestAggregator(t, gw, &mockHistory{})

	ems := a.Collect(context.Background(), a.Sources("s", ""), "shoe")

	hits := gw.callsTo("products")
	if len(hits) != 1 {
		t.Fatalf("expected 1 item hit query, got %d", len(hits))
	}
	p := hits[0].params
	if p.Query != "shoe" || p.HitsPerPage != 5 {
		t.Errorf("expected query=shoe hitsPerPage=5, got %+v", p)
	}
	if strings.Join(p.AttributesToSnippet, ",") != "name:10,description:15" || p.SnippetEllipsisText != "…" {
		t.Errorf("unexpected snippet params %+v", p)
	}

	if len(gw.callsTo("merch")) != 0 {
		t.Error("expected merch source not to query for non-empty draft")
	}
	if n := len(emissionFor(t, ems, suggestion.Merch).Items); n != 0 {
		t.Errorf("expected no merch items, got %d", n)
	}
	if n := len(emissionFor(t, ems, suggestion.Hits).Items); n != 1 {
		t.Errorf("expected 1 item hit, got %d", n)
	}
}

func TestCollect_CategoryFilters(t *testing.T) {
	gw := newMockGateway()
	a := newTestAggregator(t, gw, &mockHistory{})

	a.Collect(context.Background(), a.Sources("s", "Outdoor"), "")

	calls := gw.callsTo("suggestions")
	if len(calls) != 2 {
		t.Fatalf("expected 2 suggestion queries, got %d", len(calls))
	}
	var in, out *catalog.Params
	for i := range calls {
		p := calls[i].params
		switch p.Filters {
		case categoryAttr + `:"Outdoor"`:
			in = &p
		case `NOT ` + categoryAttr + `:"Outdoor"`:
			out = &p
		default:
			t.Errorf("unexpected filters %q", p.Filters)
		}
	}
	if in == nil || in.HitsPerPage != 3 {
		t.Errorf("expected in-category query with 3 hits, got %+v", in)
	}
	if out == nil || out.HitsPerPage != 3 {
		t.Errorf("expected cross-category query with 3 hits, got %+v", out)
	}
	if len(gw.callsTo("merch")) != 1 {
		t.Error("expected merch query for empty draft")
	}
}

func TestCollect_NoCategory(t *testing.T) {
	gw := newMockGateway()
	a := newTestAggregator(t, gw, &mockHistory{})

	ems := a.Collect(context.Background(), a.Sources("s", ""), "tent")

	calls := gw.callsTo("suggestions")
	if len(calls) != 1 {
		t.Fatalf("expected only the cross-category query, got %d", len(calls))
	}
	if calls[0].params.Filters != "" || calls[0].params.HitsPerPage != 6 {
		t.Errorf("expected unrestricted query with 6 hits, got %+v", calls[0].params)
	}
	if n := len(emissionFor(t, ems, suggestion.QuerySuggestionsInCategory).Items); n != 0 {
		t.Errorf("expected empty in-category source, got %d", n)
	}
}

func TestCollect_FailureIsolation(t *testing.T) {
	gw := newMockGateway()
	gw.errs["suggestions"] = errors.New("503 from search service")
	gw.results["products"] = catalog.Response{Hits: []catalog.Hit{{"objectID": "1"}}}
	a := newTestAggregator(t, gw, &mockHistory{items: []suggestion.RecentSearch{{Query: "tent"}}})

	ems := a.Collect(context.Background(), a.Sources("s", "Outdoor"), "tent")

	for _, id := range []suggestion.SourceID{suggestion.QuerySuggestionsInCategory, suggestion.QuerySuggestions} {
		e := emissionFor(t, ems, id)
		if e.Err == nil {
			t.Errorf("%s: expected error", id)
		}
		if e.Items == nil || len(e.Items) != 0 {
			t.Errorf("%s: expected empty non-nil items, got %v", id, e.Items)
		}
	}
	if n := len(emissionFor(t, ems, suggestion.Hits).Items); n != 1 {
		t.Errorf("expected item hits unaffected, got %d", n)
	}
	if n := len(emissionFor(t, ems, suggestion.RecentSearches).Items); n != 1 {
		t.Errorf("expected recent searches unaffected, got %d", n)
	}
}

func TestCollect_FailureLogOmitsDraftAtWarn(t *testing.T) {
	gw := newMockGateway()
	gw.errs["products"] = errors.New("503 from search service")
	core, logs := observer.New(zapcore.DebugLevel)
	a, err := New(gw, &mockHistory{}, testCatalog(), WithPoolSize(4), WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	t.Cleanup(a.Close)

	a.Collect(context.Background(), a.Sources("s", ""), "private draft")

	warns := logs.FilterMessage("suggestion source failed").All()
	if len(warns) != 1 {
		t.Fatalf("expected 1 warn entry, got %d", len(warns))
	}
	if warns[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %s", warns[0].Level)
	}
	if _, ok := warns[0].ContextMap()["draft"]; ok {
		t.Error("expected warn entry without draft")
	}
	debug := logs.FilterMessage("suggestion source failed for draft").All()
	if len(debug) != 1 || debug[0].Level != zapcore.DebugLevel {
		t.Fatalf("expected 1 debug entry, got %d", len(debug))
	}
	if got := debug[0].ContextMap()["draft"]; got != "private draft" {
		t.Errorf("expected %q, got %q", "private draft", got)
	}
}

func TestCollect_HistoryFailureIsolated(t *testing.T) {
	gw := newMockGateway()
	gw.results["suggestions"] = catalog.Response{Hits: []catalog.Hit{{"objectID": "lamp", "query": "lamp"}}}
	a := newTestAggregator(t, gw, &mockHistory{err: errors.New("redis down")})

	ems := a.Collect(context.Background(), a.Sources("s", ""), "")

	if emissionFor(t, ems, suggestion.RecentSearches).Err == nil {
		t.Error("expected recent searches error")
	}
	if n := len(emissionFor(t, ems, suggestion.QuerySuggestions).Items); n != 1 {
		t.Errorf("expected suggestions unaffected, got %d", n)
	}
}

func TestRecent_SubstringMatchAndLimit(t *testing.T) {
	hist := &mockHistory{items: []suggestion.RecentSearch{
		{Query: "Tent"}, {Query: "lamp"}, {Query: "tent poles"}, {Query: "big tent"}, {Query: "tentacle"},
	}}
	a := newTestAggregator(t, newMockGateway(), hist)

	ems := a.Collect(context.Background(), a.Sources("s", ""), "TENT")

	items := emissionFor(t, ems, suggestion.RecentSearches).Items
	want := []string{"Tent", "tent poles", "big tent"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].Label() != w {
			t.Errorf("item %d: expected %q, got %q", i, w, items[i].Label())
		}
	}
}

func TestRecent_AnonymousScopeReadsNoHistory(t *testing.T) {
	hist := &mockHistory{items: []suggestion.RecentSearch{{Query: "tent"}}}
	a := newTestAggregator(t, newMockGateway(), hist)

	ems := a.Collect(context.Background(), a.Sources("", ""), "")

	e := emissionFor(t, ems, suggestion.RecentSearches)
	if e.Err != nil {
		t.Fatalf("unexpected error: %v", e.Err)
	}
	if len(e.Items) != 0 {
		t.Errorf("expected no recent searches for an anonymous scope, got %d", len(e.Items))
	}
}

func TestSuggestions_ExcludeRecentSearches(t *testing.T) {
	gw := newMockGateway()
	hist := &mockHistory{items: []suggestion.RecentSearch{{Query: "tent"}, {Query: "tarp"}}}
	a := newTestAggregator(t, gw, hist)

	a.Collect(context.Background(), a.Sources("s", ""), "t")

	calls := gw.callsTo("suggestions")
	if len(calls) != 1 {
		t.Fatalf("expected 1 suggestion query, got %d", len(calls))
	}
	p := calls[0].params
	if p.HitsPerPage != 4 {
		t.Errorf("expected 6-2=4 hits, got %d", p.HitsPerPage)
	}
	want := `NOT objectID:"tent" AND NOT objectID:"tarp"`
	if p.Filters != want {
		t.Errorf("expected filters %q, got %q", want, p.Filters)
	}
}

func TestSuggestions_CategoryOfCrossItems(t *testing.T) {
	gw := newMockGateway()
	gw.results["suggestions"] = catalog.Response{Hits: []catalog.Hit{
		{
			"objectID": "lamp",
			"query":    "lamp",
			"_highlightResult": map[string]any{
				"query": map[string]any{"value": "<mark>la</mark>mp"},
			},
			"products": map[string]any{
				"facets": map[string]any{
					"exact_matches": map[string]any{
						"hierarchicalCategories.lvl0": []any{
							map[string]any{"value": "Lighting", "count": float64(4)},
						},
					},
				},
			},
		},
	}}
	a := newTestAggregator(t, gw, &mockHistory{})
	set := a.Sources("s", "Outdoor")

	ems := a.Collect(context.Background(), set, "la")

	cross := emissionFor(t, ems, suggestion.QuerySuggestions).Items
	if len(cross) != 1 {
		t.Fatalf("expected 1 cross-category item, got %d", len(cross))
	}
	c, ok := cross[0].QueryCommit()
	if !ok || c.Query != "lamp" || c.Category != "Lighting" {
		t.Errorf("unexpected commit %+v", c)
	}

	in := emissionFor(t, ems, suggestion.QuerySuggestionsInCategory).Items
	if len(in) != 1 {
		t.Fatalf("expected 1 in-category item, got %d", len(in))
	}
	if c, _ := in[0].QueryCommit(); c.Category != "Outdoor" {
		t.Errorf("expected in-category commit to carry %q, got %q", "Outdoor", c.Category)
	}

	src, _ := set.Get(suggestion.QuerySuggestions)
	if v := src.RenderItem(cross[0]); v.Highlighted != "<mark>la</mark>mp" {
		t.Errorf("unexpected highlight %q", v.Highlighted)
	}
}

func TestHeaders(t *testing.T) {
	a := newTestAggregator(t, newMockGateway(), &mockHistory{})
	one := []suggestion.Item{suggestion.QuerySuggestion{Query: "x"}}

	scoped := a.Sources("s", "Outdoor")
	unscoped := a.Sources("s", "")

	tests := []struct {
		set   *SourceSet
		id    suggestion.SourceID
		items []suggestion.Item
		want  string
	}{
		{scoped, suggestion.RecentSearches, []suggestion.Item{suggestion.RecentSearch{Query: "x"}}, ""},
		{scoped, suggestion.QuerySuggestionsInCategory, one, "In Outdoor"},
		{scoped, suggestion.QuerySuggestionsInCategory, nil, ""},
		{scoped, suggestion.QuerySuggestions, one, "In other categories"},
		{scoped, suggestion.QuerySuggestions, nil, ""},
		{unscoped, suggestion.QuerySuggestions, one, ""},
		{scoped, suggestion.Hits, one, "Items"},
		{scoped, suggestion.Hits, nil, ""},
		{scoped, suggestion.Merch, one, "Merchandise"},
		{scoped, suggestion.Merch, nil, ""},
	}
	for _, tc := range tests {
		src, ok := tc.set.Get(tc.id)
		if !ok {
			t.Fatalf("missing source %s", tc.id)
		}
		if got := src.Header(tc.items); got != tc.want {
			t.Errorf("%s (category %q, %d items): expected %q, got %q",
				tc.id, tc.set.Category(), len(tc.items), tc.want, got)
		}
	}
}

func TestSources_OrderAndGeneration(t *testing.T) {
	a := newTestAggregator(t, newMockGateway(), &mockHistory{})
	set := a.Sources("s", "")

	want := []suggestion.SourceID{
		suggestion.RecentSearches,
		suggestion.QuerySuggestionsInCategory,
		suggestion.QuerySuggestions,
		suggestion.Hits,
		suggestion.Merch,
	}
	if len(set.Sources()) != len(want) {
		t.Fatalf("expected %d sources, got %d", len(want), len(set.Sources()))
	}
	gen := set.Sources()[0].Generation()
	for i, src := range set.Sources() {
		if src.ID() != want[i] {
			t.Errorf("source %d: expected %q, got %q", i, want[i], src.ID())
		}
		if src.Generation() != gen {
			t.Errorf("source %d: expected generation %d, got %d", i, gen, src.Generation())
		}
	}
	if next := a.Sources("s", ""); next.Sources()[0].Generation() <= gen {
		t.Error("expected a fresh generation per build")
	}
}

func TestRegenerate_OnlyCategorySources(t *testing.T) {
	a := newTestAggregator(t, newMockGateway(), &mockHistory{})
	prev := a.Sources("s", "")
	next := a.Regenerate(prev, "Outdoor")

	if next.Category() != "Outdoor" || next.scope != "s" {
		t.Errorf("unexpected set category=%q scope=%q", next.Category(), next.scope)
	}
	for i, src := range next.Sources() {
		old := prev.Sources()[i]
		switch src.ID() {
		case suggestion.QuerySuggestionsInCategory, suggestion.QuerySuggestions:
			if src == old {
				t.Errorf("%s: expected a new source", src.ID())
			}
			if src.Generation() <= old.Generation() {
				t.Errorf("%s: expected newer generation", src.ID())
			}
		default:
			if src != old {
				t.Errorf("%s: expected identity to be preserved", src.ID())
			}
		}
	}
}

func TestFetch_EmitsWithoutBarrier(t *testing.T) {
	gw := newMockGateway()
	release := make(chan struct{})
	gw.block["suggestions"] = release
	a := newTestAggregator(t, gw, &mockHistory{})

	got := make(chan Emission, 5)
	a.Fetch(context.Background(), a.Sources("s", ""), "tent", func(e Emission) { got <- e })

	seen := make(map[suggestion.SourceID]bool)
	timeout := time.After(2 * time.Second)
	for len(seen) < 4 {
		select {
		case e := <-got:
			if e.Source == suggestion.QuerySuggestions {
				t.Fatal("blocked source emitted before release")
			}
			seen[e.Source] = true
		case <-timeout:
			t.Fatalf("expected 4 emissions before release, got %d", len(seen))
		}
	}

	close(release)
	select {
	case e := <-got:
		if e.Source != suggestion.QuerySuggestions {
			t.Errorf("expected the released source, got %s", e.Source)
		}
	case <-timeout:
		t.Fatal("released source never emitted")
	}
}

func TestFetch_NoEmissionAfterCancel(t *testing.T) {
	gw := newMockGateway()
	release := make(chan struct{})
	gw.block["products"] = release
	gw.block["suggestions"] = release
	a := newTestAggregator(t, gw, &mockHistory{})

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Emission, 5)
	a.Fetch(ctx, a.Sources("s", ""), "tent", func(e Emission) {
		// Sources that resolve without a query may emit before cancel.
		if e.Source == suggestion.Hits || e.Source == suggestion.QuerySuggestions {
			got <- e
		}
	})

	cancel()
	close(release)

	select {
	case e := <-got:
		t.Fatalf("unexpected emission after cancel: %s", e.Source)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCollect_CancelledContext(t *testing.T) {
	a := newTestAggregator(t, newMockGateway(), &mockHistory{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ems := a.Collect(ctx, a.Sources("s", ""), "tent")
	if len(ems) != 5 {
		t.Fatalf("expected 5 emissions, got %d", len(ems))
	}
	for _, e := range ems {
		if len(e.Items) != 0 || !errors.Is(e.Err, context.Canceled) {
			t.Errorf("%s: expected cancelled empty emission, got %+v", e.Source, e)
		}
	}
}

func TestPanel_SkipsOtherGeneration(t *testing.T) {
	a := newTestAggregator(t, newMockGateway(), &mockHistory{})
	set := a.Sources("s", "Outdoor")
	src, _ := set.Get(suggestion.QuerySuggestionsInCategory)

	p := Panel(set, []Emission{
		{Source: suggestion.QuerySuggestionsInCategory, Generation: src.Generation() + 100,
			Items: []suggestion.Item{suggestion.QuerySuggestion{Query: "stale"}}},
		{Source: suggestion.Hits, Generation: src.Generation(),
			Items: []suggestion.Item{suggestion.CatalogHit{Hit: catalog.Hit{"objectID": "1", "name": "Tent"}}}},
	})

	if len(p.Left) != 0 {
		t.Errorf("expected stale section dropped, got %+v", p.Left)
	}
	if len(p.Right) != 1 || p.Right[0].Header != "Items" || p.Right[0].Items[0].URL != "/product/1" {
		t.Errorf("unexpected right region %+v", p.Right)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(newMockGateway(), nil, testCatalog(), WithPoolSize(0)); err == nil {
		t.Error("expected error for zero pool size")
	}
	if _, err := New(newMockGateway(), nil, testCatalog(), WithPool(nil)); err == nil {
		t.Error("expected error for nil pool")
	}
	if _, err := New(newMockGateway(), nil, testCatalog(), WithHistorySize(-1)); err == nil {
		t.Error("expected error for negative history size")
	}
}
