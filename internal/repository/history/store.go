// Package history persists the recent searches shown in the autocomplete panel.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
)

// store is the consumer interface for the history repository (ISP).
type store interface {
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	LPushCapped(ctx context.Context, key string, value []byte, limit int64, remove ...[]byte) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

type entry struct {
	Label    string `json:"label"`
	Category string `json:"category,omitempty"`
}

// Store keeps one capped, most-recent-first list per scope in Redis.
type Store struct {
	store store
	key   string
	limit int
	ttl   time.Duration
}

// New creates a Redis-backed history. key is the fixed storage key shared by
// all scopes, limit caps each list, ttl (0 = none) expires idle lists.
func New(s store, key string, limit int, ttl time.Duration) *Store {
	if key == "" {
		key = domain.HistoryKey
	}
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	return &Store{store: s, key: key, limit: limit, ttl: ttl}
}

// Recent returns the stored searches of a scope, newest first.
func (s *Store) Recent(ctx context.Context, scope string) ([]suggestion.RecentSearch, error) {
	raw, err := s.store.LRange(ctx, s.listKey(scope), 0, int64(s.limit-1))
	if err != nil {
		return nil, fmt.Errorf("history LRANGE %s: %w", scope, err)
	}

	out := make([]suggestion.RecentSearch, 0, len(raw))
	for _, b := range raw {
		var e entry
		if err := json.Unmarshal(b, &e); err != nil || e.Label == "" {
			continue
		}
		out = append(out, suggestion.RecentSearch{Query: e.Label, Category: e.Category})
	}
	return out, nil
}

// Add records a search at the head of the scope's list. An existing entry with
// the same label is replaced, so labels stay unique.
func (s *Store) Add(ctx context.Context, scope string, item suggestion.RecentSearch) error {
	if item.Query == "" {
		return nil
	}
	key := s.listKey(scope)

	existing, err := s.store.LRange(ctx, key, 0, -1)
	if err != nil {
		return fmt.Errorf("history LRANGE %s: %w", scope, err)
	}
	var stale [][]byte
	for _, b := range existing {
		var e entry
		if json.Unmarshal(b, &e) == nil && e.Label == item.Query {
			stale = append(stale, b)
		}
	}

	data, err := json.Marshal(entry{Label: item.Query, Category: item.Category})
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	if err := s.store.LPushCapped(ctx, key, data, int64(s.limit), stale...); err != nil {
		return fmt.Errorf("history LPUSH %s: %w", scope, err)
	}

	if s.ttl > 0 {
		if err := s.store.Expire(ctx, key, s.ttl); err != nil {
			return fmt.Errorf("history EXPIRE %s: %w", scope, err)
		}
	}
	return nil
}

func (s *Store) listKey(scope string) string {
	if scope == "" {
		scope = "default"
	}
	return domain.KeyPrefix + "recent:" + scope + ":" + s.key
}
