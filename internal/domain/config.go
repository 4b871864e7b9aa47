package domain

// KeyPrefix namespaces every key this service writes to the key-value store.
const KeyPrefix = "storefront:"

// Recent search history defaults.
const (
	HistoryKey   = "instantsearch"
	HistoryLimit = 3
)

// CatalogConfig describes how the hosted indices are laid out.
type CatalogConfig struct {
	ProductsIndex     string
	SuggestionsIndex  string
	MerchIndex        string
	MerchQuery        string
	CategoryAttribute string
	Facets            []string
	HitsPerPage       int
}

// DefaultCatalogConfig returns the layout used by the demo storefront indices.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		ProductsIndex:     "instant_search",
		SuggestionsIndex:  "instant_search_demo_query_suggestions",
		MerchIndex:        "instant_search",
		CategoryAttribute: "hierarchicalCategories.lvl0",
		Facets:            []string{"categories", "brand", "price"},
		HitsPerPage:       9,
	}
}

// SuggestionCategoryAttribute is the attribute of the query suggestions index
// that stores the category values a suggestion matched in.
func (c CatalogConfig) SuggestionCategoryAttribute() string {
	return c.ProductsIndex + ".facets.exact_matches." + c.CategoryAttribute + ".value"
}
