package autocomplete

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
)

// Fetch sizes per source.
const (
	hitsPerPageItems             = 5
	hitsPerPageMerch             = 3
	hitsPerPageSuggestions       = 6
	hitsPerPageSuggestionsScoped = 3
	snippetEllipsis              = "…"
)

// Source is a named provider of panel items. Sources are immutable: a change
// of category produces new Source values with a new generation.
type Source interface {
	ID() suggestion.SourceID
	Generation() uint64
	Fetch(ctx context.Context, draft string) ([]suggestion.Item, error)
	Header(items []suggestion.Item) string
	RenderItem(item suggestion.Item) suggestion.ItemView
}

// Render converts fetched items into the source's panel section.
func Render(src Source, items []suggestion.Item) suggestion.Section {
	views := make([]suggestion.ItemView, len(items))
	for i, it := range items {
		views[i] = src.RenderItem(it)
	}
	return suggestion.Section{
		Source: src.ID(),
		Header: src.Header(items),
		Items:  views,
	}
}

// Panel renders the emissions that belong to set into the two-region layout.
// Emissions from another generation are skipped.
func Panel(set *SourceSet, ems []Emission) suggestion.Panel {
	sections := make([]suggestion.Section, 0, len(ems))
	for _, e := range ems {
		src, ok := set.Get(e.Source)
		if !ok || src.Generation() != e.Generation {
			continue
		}
		sections = append(sections, Render(src, e.Items))
	}
	return suggestion.BuildPanel(sections)
}

type base struct {
	id  suggestion.SourceID
	gen uint64
}

func (b base) ID() suggestion.SourceID { return b.id }
func (b base) Generation() uint64 { return b.gen }

// recentLookup returns the recent searches matching a draft.
type recentLookup func(ctx context.Context, draft string) ([]suggestion.RecentSearch, error)

// matchRecent keeps the entries whose label contains draft, case-insensitively, up to limit.
func matchRecent(all []suggestion.RecentSearch, draft string, limit int) []suggestion.RecentSearch {
	needle := strings.ToLower(strings.TrimSpace(draft))
	out := make([]suggestion.RecentSearch, 0, min(len(all), limit))
	for _, r := range all {
		if len(out) == limit {
			break
		}
		if needle == "" || strings.Contains(strings.ToLower(r.Query), needle) {
			out = append(out, r)
		}
	}
	return out
}

// --- recentSearchesPlugin ---

type recentSource struct {
	base
	recent recentLookup
}

func (s *recentSource) Fetch(ctx context.Context, draft string) ([]suggestion.Item, error) {
	matches, err := s.recent(ctx, draft)
	if err != nil {
		return nil, err
	}
	items := make([]suggestion.Item, len(matches))
	for i, m := range matches {
		items[i] = m
	}
	return items, nil
}

func (s *recentSource) Header([]suggestion.Item) string { return "" }

func (s *recentSource) RenderItem(item suggestion.Item) suggestion.ItemView {
	v := suggestion.ItemView{Kind: item.Kind(), Label: item.Label()}
	if r, ok := item.(suggestion.RecentSearch); ok {
		v.Category = r.Category
	}
	return v
}

// --- querySuggestionsInCategoryPlugin / querySuggestionsPlugin ---

type suggestionSource struct {
	base
	gateway    Gateway
	catalog    domain.CatalogConfig
	category   string
	inCategory bool // restrict to category; otherwise exclude it when set
	recent     recentLookup
}

func (s *suggestionSource) Fetch(ctx context.Context, draft string) ([]suggestion.Item, error) {
	if s.inCategory && s.category == "" {
		return []suggestion.Item{}, nil
	}

	size := hitsPerPageSuggestions
	if s.category != "" {
		size = hitsPerPageSuggestionsScoped
	}

	attr := s.catalog.SuggestionCategoryAttribute()
	clauses := make([]string, 0, 4)
	switch {
	case s.inCategory:
		clauses = append(clauses, catalog.FacetFilter(attr, s.category))
	case s.category != "":
		clauses = append(clauses, catalog.NotFacetFilter(attr, s.category))
	}

	// Suggestions already shown as recent searches are dropped and leave their slot to them.
	if s.recent != nil {
		if recents, err := s.recent(ctx, draft); err == nil {
			size = max(1, size-len(recents))
			for _, r := range recents {
				clauses = append(clauses, catalog.NotFacetFilter("objectID", r.Query))
			}
		}
	}

	res, err := s.gateway.Search(ctx, s.catalog.SuggestionsIndex, catalog.Params{
		Query:       draft,
		HitsPerPage: size,
		Filters:     catalog.And(clauses...),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.id, err)
	}

	items := make([]suggestion.Item, 0, len(res.Hits))
	for _, h := range res.Hits {
		q := h.String("query")
		if q == "" {
			continue
		}
		cat := s.category
		if !s.inCategory {
			cat = h.Path(s.catalog.ProductsIndex, "facets", "exact_matches", s.catalog.CategoryAttribute, "value")
		}
		items = append(items, suggestion.QuerySuggestion{
			Query:       q,
			Highlighted: h.Highlight("query"),
			Category:    cat,
		})
	}
	return items, nil
}

func (s *suggestionSource) Header(items []suggestion.Item) string {
	if len(items) == 0 || s.category == "" {
		return ""
	}
	if s.inCategory {
		return "In " + s.category
	}
	return "In other categories"
}

func (s *suggestionSource) RenderItem(item suggestion.Item) suggestion.ItemView {
	v := suggestion.ItemView{Kind: item.Kind(), Label: item.Label()}
	if qs, ok := item.(suggestion.QuerySuggestion); ok {
		v.Highlighted = qs.Highlighted
		v.Category = qs.Category
	}
	return v
}

// --- hitPlugin ---

type hitSource struct {
	base
	gateway Gateway
	index   string
}

func (s *hitSource) Fetch(ctx context.Context, draft string) ([]suggestion.Item, error) {
	if draft == "" {
		return []suggestion.Item{}, nil
	}
	res, err := s.gateway.Search(ctx, s.index, catalog.Params{
		Query:               draft,
		HitsPerPage:         hitsPerPageItems,
		AttributesToSnippet: []string{"name:10", "description:15"},
		SnippetEllipsisText: snippetEllipsis,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.id, err)
	}
	items := make([]suggestion.Item, len(res.Hits))
	for i, h := range res.Hits {
		items[i] = suggestion.CatalogHit{Hit: h}
	}
	return items, nil
}

func (s *hitSource) Header(items []suggestion.Item) string {
	if len(items) == 0 {
		return ""
	}
	return "Items"
}

func (s *hitSource) RenderItem(item suggestion.Item) suggestion.ItemView {
	v := suggestion.ItemView{Kind: item.Kind(), Label: item.Label()}
	if h, ok := item.(suggestion.CatalogHit); ok {
		v.Highlighted = h.Hit.Snippet("name")
		v.Description = h.Hit.Snippet("description")
		v.Image = h.Hit.Image()
		v.Price = h.Hit.Float("price")
		v.URL = h.Hit.URL()
		if cats := h.Hit.Strings("categories"); len(cats) > 0 {
			v.Category = cats[0]
		}
	}
	return v
}

// --- merchPlugin ---

type merchSource struct {
	base
	gateway Gateway
	index   string
	query   string
}

func (s *merchSource) Fetch(ctx context.Context, draft string) ([]suggestion.Item, error) {
	if draft != "" {
		return []suggestion.Item{}, nil
	}
	res, err := s.gateway.Search(ctx, s.index, catalog.Params{
		Query:       s.query,
		HitsPerPage: hitsPerPageMerch,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.id, err)
	}
	items := make([]suggestion.Item, len(res.Hits))
	for i, h := range res.Hits {
		items[i] = suggestion.MerchHit{Hit: h}
	}
	return items, nil
}

func (s *merchSource) Header(items []suggestion.Item) string {
	if len(items) == 0 {
		return ""
	}
	return "Merchandise"
}

func (s *merchSource) RenderItem(item suggestion.Item) suggestion.ItemView {
	v := suggestion.ItemView{Kind: item.Kind(), Label: item.Label()}
	if h, ok := item.(suggestion.MerchHit); ok {
		v.Description = h.Hit.String("description")
		v.Image = h.Hit.Image()
		v.Price = h.Hit.Float("price")
		v.URL = h.Hit.URL()
		if cats := h.Hit.Strings("categories"); len(cats) > 0 {
			v.Category = cats[0]
		}
	}
	return v
}
