// Package searchcache caches hosted search responses in a key-value store.
package searchcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/db"
	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
)

var cacheKeyPrefix = domain.KeyPrefix + "search_cache:"

// gateway is the decorated search gateway.
type gateway interface {
	Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error)
	GetObject(ctx context.Context, index, objectID string) (catalog.Hit, error)
}

// store is the consumer interface for the search cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedGateway serves repeated searches from the store.
type CachedGateway struct {
	inner      gateway
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner gateway,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedGateway {
	return &CachedGateway{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Search returns a cached response or queries the inner gateway.
func (c *CachedGateway) Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error) {
	key := c.searchKey(index, p)

	var cached catalog.Response
	if c.getFromCache(ctx, key, &cached) {
		c.incCache("hit")
		return cached, nil
	}
	c.incCache("miss")

	res, err := c.inner.Search(ctx, index, p)
	if err != nil {
		return catalog.Response{}, fmt.Errorf("cached search: %w", err)
	}

	c.putToCache(ctx, key, res)
	return res, nil
}

// GetObject returns a cached record or fetches it. Misses are not cached.
func (c *CachedGateway) GetObject(ctx context.Context, index, objectID string) (catalog.Hit, error) {
	key := cacheKeyPrefix + "object:" + index + ":" + objectID

	var cached catalog.Hit
	if c.getFromCache(ctx, key, &cached) {
		c.incCache("hit")
		return cached, nil
	}
	c.incCache("miss")

	hit, err := c.inner.GetObject(ctx, index, objectID)
	if err != nil {
		return nil, fmt.Errorf("cached get object: %w", err)
	}

	c.putToCache(ctx, key, hit)
	return hit, nil
}

func (c *CachedGateway) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedGateway) searchKey(index string, p catalog.Params) string {
	data, _ := json.Marshal(p) //nolint:errchkjson // plain struct of strings and ints
	h := sha256.New()
	h.Write([]byte(index))
	h.Write([]byte{0})
	h.Write(data)
	return cacheKeyPrefix + "search:" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedGateway) getFromCache(ctx context.Context, key string, out any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached search response", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("Failed to parse cached search response", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedGateway) putToCache(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode search response", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search response", zap.String("key", key), zap.Error(err))
	}
}
