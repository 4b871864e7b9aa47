package catalog

import (
	"fmt"
	"strings"
)

// Params is a search request against one index.
type Params struct {
	Query               string
	HitsPerPage         int
	Page                int
	Filters             string
	Facets              []string
	AttributesToSnippet []string
	SnippetEllipsisText string
}

// Response is the subset of a search result the storefront consumes.
type Response struct {
	Hits    []Hit                     `json:"hits"`
	Facets  map[string]map[string]int `json:"facets,omitempty"`
	NbHits  int                       `json:"nbHits"`
	NbPages int                       `json:"nbPages"`
	Page    int                       `json:"page"`
}

// FacetFilter matches records whose attr equals value.
func FacetFilter(attr, value string) string {
	return fmt.Sprintf("%s:%s", attr, quote(value))
}

// NotFacetFilter excludes records whose attr equals value.
func NotFacetFilter(attr, value string) string {
	return "NOT " + FacetFilter(attr, value)
}

// And joins non-empty filter clauses.
func And(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " AND ")
}

func quote(v string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(v, `\`, `\\`), `"`, `\"`) + `"`
}
