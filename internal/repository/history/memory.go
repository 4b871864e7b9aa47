package history

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
)

// maxMemoryScopes caps the number of scopes Memory keeps. The least recently
// written scope is evicted first.
const maxMemoryScopes = 10000

// Memory is an in-process history. Like Store, a scope expires ttl after its
// last write; ttl <= 0 keeps scopes until they are pushed out by newer ones.
type Memory struct {
	mu     sync.Mutex
	limit  int
	scopes *expirable.LRU[string, []suggestion.RecentSearch]
}

// NewMemory creates an in-process history capped at limit entries per scope.
func NewMemory(limit int, ttl time.Duration) *Memory {
	return newMemory(limit, ttl, maxMemoryScopes)
}

func newMemory(limit int, ttl time.Duration, maxScopes int) *Memory {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}
	return &Memory{
		limit:  limit,
		scopes: expirable.NewLRU[string, []suggestion.RecentSearch](maxScopes, nil, ttl),
	}
}

// Recent returns a copy of the scope's searches, newest first.
func (m *Memory) Recent(_ context.Context, scope string) ([]suggestion.RecentSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list, _ := m.scopes.Peek(scope)
	out := make([]suggestion.RecentSearch, len(list))
	copy(out, list)
	return out, nil
}

// Add records a search at the head of the scope's list, replacing an entry
// with the same label, and restarts the scope's expiry.
func (m *Memory) Add(_ context.Context, scope string, item suggestion.RecentSearch) error {
	if item.Query == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, _ := m.scopes.Peek(scope)
	list := make([]suggestion.RecentSearch, 0, m.limit)
	list = append(list, item)
	for _, e := range prev {
		if len(list) == m.limit {
			break
		}
		if e.Query != item.Query {
			list = append(list, e)
		}
	}
	m.scopes.Add(scope, list)
	return nil
}
