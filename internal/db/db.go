package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// ListStore provides capped list operations, newest element first.
type ListStore interface {
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	// LPushCapped removes every element equal to one of remove, pushes value to
	// the head and trims the list to limit elements, in one round-trip.
	LPushCapped(ctx context.Context, key string, value []byte, limit int64, remove ...[]byte) error
}
