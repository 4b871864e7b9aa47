// Package suggestion models the items shown in the autocomplete panel and the
// two-region layout they are rendered into.
package suggestion

import (
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
)

// SourceID identifies a registered suggestion source.
type SourceID string

// Registered suggestion sources.
const (
	RecentSearches             SourceID = "recentSearchesPlugin"
	QuerySuggestionsInCategory SourceID = "querySuggestionsInCategoryPlugin"
	QuerySuggestions           SourceID = "querySuggestionsPlugin"
	Hits                       SourceID = "hitPlugin"
	Merch                      SourceID = "merchPlugin"
)

// Kind tags an Item variant.
type Kind string

// Item kinds.
const (
	KindRecentSearch    Kind = "recent_search"
	KindQuerySuggestion Kind = "query_suggestion"
	KindCatalogHit      Kind = "catalog_hit"
	KindMerchHit        Kind = "merch_hit"
)

// Item is a selectable panel entry. Selecting it either commits a query or
// navigates, never both.
type Item interface {
	Kind() Kind
	Label() string
	QueryCommit() (query.Commit, bool)
	NavigationTarget() (string, bool)
}

// RecentSearch is an entry of the local search history.
type RecentSearch struct {
	Query    string `json:"label"`
	Category string `json:"category,omitempty"`
}

func (RecentSearch) Kind() Kind { return KindRecentSearch }
func (r RecentSearch) Label() string { return r.Query }
func (RecentSearch) NavigationTarget() (string, bool) { return "", false }

func (r RecentSearch) QueryCommit() (query.Commit, bool) {
	return query.Commit{Query: r.Query, Category: r.Category}, true
}

// QuerySuggestion is a popular query, optionally scoped to the category it was found in.
type QuerySuggestion struct {
	Query       string
	Highlighted string
	Category    string
}

func (QuerySuggestion) Kind() Kind { return KindQuerySuggestion }
func (s QuerySuggestion) Label() string { return s.Query }
func (QuerySuggestion) NavigationTarget() (string, bool) { return "", false }

func (s QuerySuggestion) QueryCommit() (query.Commit, bool) {
	return query.Commit{Query: s.Query, Category: s.Category}, true
}

// CatalogHit is a product matching the draft text.
type CatalogHit struct {
	Hit catalog.Hit
}

func (CatalogHit) Kind() Kind { return KindCatalogHit }
func (h CatalogHit) Label() string { return h.Hit.Title() }
func (CatalogHit) QueryCommit() (query.Commit, bool) { return query.Commit{}, false }
func (h CatalogHit) NavigationTarget() (string, bool) { return h.Hit.URL(), true }

// MerchHit is an editorially promoted product.
type MerchHit struct {
	Hit catalog.Hit
}

func (MerchHit) Kind() Kind { return KindMerchHit }
func (h MerchHit) Label() string { return h.Hit.Title() }
func (MerchHit) QueryCommit() (query.Commit, bool) { return query.Commit{}, false }
func (h MerchHit) NavigationTarget() (string, bool) { return h.Hit.URL(), true }
