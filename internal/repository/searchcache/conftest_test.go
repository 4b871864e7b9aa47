package searchcache

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/db"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
)

type mockGateway struct {
	searchRes   catalog.Response
	searchErr   error
	searchCalls int
	hit         catalog.Hit
	hitErr      error
	hitCalls    int
}

func (m *mockGateway) Search(_ context.Context, _ string, _ catalog.Params) (catalog.Response, error) {
	m.searchCalls++
	return m.searchRes, m.searchErr
}

func (m *mockGateway) GetObject(_ context.Context, _, _ string) (catalog.Hit, error) {
	m.hitCalls++
	return m.hit, m.hitErr
}

// mockKVStore is an in-memory implementation of the consumer interface.
type mockKVStore struct {
	data   map[string][]byte
	getErr error
	ttl    time.Duration
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttl = ttl
	return nil
}

func newTestCachedGateway(t *testing.T, inner *mockGateway) (*CachedGateway, *mockKVStore, *prometheus.CounterVec) {
	t.Helper()
	ms := &mockKVStore{data: make(map[string][]byte)}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_search_cache_total"}, []string{"result"})
	return New(inner, ms, time.Minute, counter, zap.NewNop()), ms, counter
}
