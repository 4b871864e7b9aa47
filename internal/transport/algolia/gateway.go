// Package algolia adapts the Algolia search API to the storefront's search gateway.
package algolia

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/algolia/algoliasearch-client-go/v4/algolia/search"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/metrics"
)

// Gateway runs searches and object lookups against hosted indices.
type Gateway struct {
	client  *search.APIClient
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the Algolia application settings.
type Config struct {
	AppID   string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewGateway creates an Algolia-backed gateway.
func NewGateway(cfg *Config) (*Gateway, error) {
	client, err := search.NewClient(cfg.AppID, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("algolia client: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{client: client, timeout: cfg.Timeout, logger: logger}, nil
}

// Search queries one index.
func (g *Gateway) Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	req := g.client.NewApiSearchSingleIndexRequest(index).
		WithSearchParams(search.SearchParamsObjectAsSearchParams(toSearchParams(p)))

	start := time.Now()
	res, err := g.client.SearchSingleIndex(req, search.WithContext(ctx))
	metrics.GatewayRequestDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(index, "search", "error").Inc()
		g.logger.Debug("algolia search failed",
			zap.String("index", index),
			zap.String("query", p.Query),
			zap.Error(err),
		)
		return catalog.Response{}, fmt.Errorf("search %s: %w: %w", index, domain.ErrGatewayError, err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(index, "search", "ok").Inc()

	out, err := decodeResponse(res)
	if err != nil {
		return catalog.Response{}, fmt.Errorf("search %s: %w: %w", index, domain.ErrGatewayError, err)
	}
	return out, nil
}

// GetObject fetches one record by objectID. Missing records yield ErrProductNotFound.
// The lookup is an objectID-filtered search so a miss is an empty result rather
// than a transport error.
func (g *Gateway) GetObject(ctx context.Context, index, objectID string) (catalog.Hit, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	p := catalog.Params{
		HitsPerPage: 1,
		Filters:     catalog.FacetFilter("objectID", objectID),
	}
	req := g.client.NewApiSearchSingleIndexRequest(index).
		WithSearchParams(search.SearchParamsObjectAsSearchParams(toSearchParams(p)))

	start := time.Now()
	res, err := g.client.SearchSingleIndex(req, search.WithContext(ctx))
	metrics.GatewayRequestDuration.WithLabelValues("get_object").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(index, "get_object", "error").Inc()
		return nil, fmt.Errorf("get object %s/%s: %w: %w", index, objectID, domain.ErrGatewayError, err)
	}
	metrics.GatewayRequestsTotal.WithLabelValues(index, "get_object", "ok").Inc()

	out, err := decodeResponse(res)
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w: %w", index, objectID, domain.ErrGatewayError, err)
	}
	for _, h := range out.Hits {
		if h.ObjectID() == objectID {
			return h, nil
		}
	}
	return nil, fmt.Errorf("object %s: %w", objectID, domain.ErrProductNotFound)
}

// HealthCheck runs an empty search against index.
func (g *Gateway) HealthCheck(ctx context.Context, index string) error {
	if _, err := g.Search(ctx, index, catalog.Params{HitsPerPage: 0}); err != nil {
		return fmt.Errorf("algolia health check: %w", err)
	}
	return nil
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func toSearchParams(p catalog.Params) *search.SearchParamsObject {
	q := p.Query
	hpp := int32(p.HitsPerPage) //nolint:gosec // bounded by config
	page := int32(p.Page)       //nolint:gosec // bounded by pagination

	obj := &search.SearchParamsObject{
		Query:       &q,
		HitsPerPage: &hpp,
		Page:        &page,
	}
	if p.Filters != "" {
		f := p.Filters
		obj.Filters = &f
	}
	if len(p.Facets) > 0 {
		obj.Facets = p.Facets
	}
	if len(p.AttributesToSnippet) > 0 {
		obj.AttributesToSnippet = p.AttributesToSnippet
	}
	if p.SnippetEllipsisText != "" {
		e := p.SnippetEllipsisText
		obj.SnippetEllipsisText = &e
	}
	return obj
}

// wireResponse is the subset of the search response JSON the storefront reads.
type wireResponse struct {
	Hits    []catalog.Hit             `json:"hits"`
	Facets  map[string]map[string]int `json:"facets"`
	NbHits  int                       `json:"nbHits"`
	NbPages int                       `json:"nbPages"`
	Page    int                       `json:"page"`
}

// decodeResponse re-reads a client response through its JSON form, which keeps
// record attributes untyped and independent of the client's model structs.
func decodeResponse(res any) (catalog.Response, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return catalog.Response{}, fmt.Errorf("encode response: %w", err)
	}
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return catalog.Response{}, fmt.Errorf("decode response: %w", err)
	}
	if w.Hits == nil {
		w.Hits = []catalog.Hit{}
	}
	return catalog.Response{
		Hits:    w.Hits,
		Facets:  w.Facets,
		NbHits:  w.NbHits,
		NbPages: w.NbPages,
		Page:    w.Page,
	}, nil
}
