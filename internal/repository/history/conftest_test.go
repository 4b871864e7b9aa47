package history

import (
	"context"
	"time"
)

// mockListStore implements the consumer interface for tests.
type mockListStore struct {
	lrangeFn func(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	pushFn   func(ctx context.Context, key string, value []byte, limit int64, remove ...[]byte) error
	expireFn func(ctx context.Context, key string, ttl time.Duration) error
}

func (m *mockListStore) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	if m.lrangeFn != nil {
		return m.lrangeFn(ctx, key, start, stop)
	}
	return [][]byte{}, nil
}

func (m *mockListStore) LPushCapped(ctx context.Context, key string, value []byte, limit int64, remove ...[]byte) error {
	if m.pushFn != nil {
		return m.pushFn(ctx, key, value, limit, remove...)
	}
	return nil
}

func (m *mockListStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl)
	}
	return nil
}
