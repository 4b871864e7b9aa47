// Package catalog serves the main result list and product detail pages.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/storefront/internal/domain"
	domcat "github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
)

// MaxQueryLength bounds the accepted query text.
const MaxQueryLength = 512

// FacetValue is one refinement option of a facet.
type FacetValue struct {
	Value   string `json:"value"`
	Count   int    `json:"count"`
	Refined bool   `json:"refined"`
}

// Facet is a refinement list.
type Facet struct {
	Attribute string       `json:"attribute"`
	Values    []FacetValue `json:"values"`
}

// Results is one page of the main result list.
type Results struct {
	State      query.State       `json:"state"`
	Hits       []domcat.Product  `json:"hits"`
	NbHits     int               `json:"nbHits"`
	Facets     []Facet           `json:"facets"`
	Pagination domcat.Pagination `json:"pagination"`
}

// Service queries the products index for committed search states.
type Service struct {
	gateway Gateway
	catalog domain.CatalogConfig
}

// New creates a catalog service.
func New(gw Gateway, cat domain.CatalogConfig) *Service {
	if cat.HitsPerPage <= 0 {
		cat.HitsPerPage = domain.DefaultCatalogConfig().HitsPerPage
	}
	return &Service{gateway: gw, catalog: cat}
}

// Search runs the committed state against the products index.
func (s *Service) Search(ctx context.Context, st query.State) (Results, error) {
	if len(st.Text) > MaxQueryLength {
		return Results{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidQuery, MaxQueryLength)
	}
	if st.Page < 0 {
		return Results{}, fmt.Errorf("%w: page must be >= 0", domain.ErrInvalidQuery)
	}

	params := domcat.Params{
		Query:       st.Text,
		HitsPerPage: s.catalog.HitsPerPage,
		Page:        st.Page,
		Facets:      s.facets(),
	}
	if st.Category != "" {
		params.Filters = domcat.FacetFilter(s.catalog.CategoryAttribute, st.Category)
	}

	res, err := s.gateway.Search(ctx, s.catalog.ProductsIndex, params)
	if err != nil {
		return Results{}, fmt.Errorf("search products: %w", err)
	}

	hits := make([]domcat.Product, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = domcat.ProductFromHit(h)
	}

	return Results{
		State:      st,
		Hits:       hits,
		NbHits:     res.NbHits,
		Facets:     s.buildFacets(res.Facets, st.Category),
		Pagination: domcat.NewPagination(st.Page, res.NbPages, domcat.DefaultPadding),
	}, nil
}

// Product fetches the detail record of id.
func (s *Service) Product(ctx context.Context, id string) (domcat.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domcat.Product{}, domain.ErrProductNotFound
	}
	h, err := s.gateway.GetObject(ctx, s.catalog.ProductsIndex, id)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return domcat.Product{}, err
		}
		return domcat.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return domcat.ProductFromHit(h), nil
}

// facets lists the configured facets plus the category attribute.
func (s *Service) facets() []string {
	out := slices.Clone(s.catalog.Facets)
	if s.catalog.CategoryAttribute != "" && !slices.Contains(out, s.catalog.CategoryAttribute) {
		out = append(out, s.catalog.CategoryAttribute)
	}
	return out
}

// buildFacets orders facets as requested and their values by count, then value.
func (s *Service) buildFacets(raw map[string]map[string]int, category string) []Facet {
	out := make([]Facet, 0, len(raw))
	for _, attr := range s.facets() {
		counts, ok := raw[attr]
		if !ok {
			continue
		}
		values := make([]FacetValue, 0, len(counts))
		for v, n := range counts {
			values = append(values, FacetValue{
				Value:   v,
				Count:   n,
				Refined: attr == s.catalog.CategoryAttribute && v == category,
			})
		}
		slices.SortFunc(values, func(a, b FacetValue) int {
			if a.Count != b.Count {
				return b.Count - a.Count
			}
			return strings.Compare(a.Value, b.Value)
		})
		out = append(out, Facet{Attribute: attr, Values: values})
	}
	return out
}
