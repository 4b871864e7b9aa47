// Package autocomplete builds the five suggestion sources of the autocomplete
// panel and fans their fetches out over a shared worker pool.
package autocomplete

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	"github.com/kailas-cloud/storefront/internal/metrics"
)

// Emission is the resolved result of one source fetch.
type Emission struct {
	Source     suggestion.SourceID
	Generation uint64
	Items      []suggestion.Item
	Err        error // already logged; Items is empty when set
}

// SourceSet is the ordered collection of the five registered sources for one category.
type SourceSet struct {
	scope    string
	category string
	sources  []Source
}

// Sources returns the sources in registration order.
func (s *SourceSet) Sources() []Source { return s.sources }

// Category returns the category the set was built for.
func (s *SourceSet) Category() string { return s.category }

// Get returns the source registered under id.
func (s *SourceSet) Get(id suggestion.SourceID) (Source, bool) {
	for _, src := range s.sources {
		if src.ID() == id {
			return src, true
		}
	}
	return nil, false
}

// Aggregator constructs sources and runs their fetches.
type Aggregator struct {
	gateway     Gateway
	history     History
	catalog     domain.CatalogConfig
	historySize int
	pool        *ants.Pool
	ownsPool    bool
	logger      *zap.Logger
	generation  atomic.Uint64
}

// Option configures an Aggregator.
type Option func(*Aggregator) error

// WithPool shares an existing worker pool. The caller releases it.
func WithPool(p *ants.Pool) Option {
	return func(a *Aggregator) error {
		if p == nil {
			return errors.New("pool must not be nil")
		}
		a.pool = p
		a.ownsPool = false
		return nil
	}
}

// WithPoolSize sizes the aggregator's own worker pool.
func WithPoolSize(n int) Option {
	return func(a *Aggregator) error {
		if n <= 0 {
			return fmt.Errorf("pool size must be positive, got %d", n)
		}
		p, err := newPool(n, a)
		if err != nil {
			return err
		}
		a.pool = p
		a.ownsPool = true
		return nil
	}
}

// WithHistorySize caps the number of recent searches shown.
func WithHistorySize(n int) Option {
	return func(a *Aggregator) error {
		if n <= 0 {
			return fmt.Errorf("history size must be positive, got %d", n)
		}
		a.historySize = n
		return nil
	}
}

// WithLogger sets the logger used for swallowed source failures.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) error {
		a.logger = l
		return nil
	}
}

// New creates an Aggregator. Without a pool option it owns a pool of 256 workers.
func New(gw Gateway, history History, cat domain.CatalogConfig, opts ...Option) (*Aggregator, error) {
	a := &Aggregator{
		gateway:     gw,
		history:     history,
		catalog:     cat,
		historySize: domain.HistoryLimit,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			a.Close()
			return nil, err
		}
	}
	if a.pool == nil {
		p, err := newPool(256, a)
		if err != nil {
			return nil, err
		}
		a.pool = p
		a.ownsPool = true
	}
	return a, nil
}

func newPool(size int, a *Aggregator) (*ants.Pool, error) {
	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(v any) {
			a.logger.Error("suggestion fetch panicked", zap.Any("panic", v))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create fetch pool: %w", err)
	}
	return p, nil
}

// Close releases the worker pool if the aggregator owns it.
func (a *Aggregator) Close() {
	if a.ownsPool && a.pool != nil {
		a.pool.Release()
	}
}

// Sources builds all five sources for category under a fresh generation.
// An empty scope is anonymous and reads no history.
func (a *Aggregator) Sources(scope, category string) *SourceSet {
	gen := a.generation.Add(1)
	recent := a.recentLookup(scope)
	return &SourceSet{
		scope:    scope,
		category: category,
		sources: []Source{
			&recentSource{base: base{id: suggestion.RecentSearches, gen: gen}, recent: recent},
			a.inCategory(category, gen, recent),
			a.crossCategory(category, gen, recent),
			&hitSource{
				base:    base{id: suggestion.Hits, gen: gen},
				gateway: a.gateway,
				index:   a.catalog.ProductsIndex,
			},
			&merchSource{
				base:    base{id: suggestion.Merch, gen: gen},
				gateway: a.gateway,
				index:   a.catalog.MerchIndex,
				query:   a.catalog.MerchQuery,
			},
		},
	}
}

// Regenerate returns a set for a new category. Only the two category-dependent
// sources are rebuilt, under a fresh generation; the other three are carried
// over unchanged so their in-flight fetches stay valid.
func (a *Aggregator) Regenerate(prev *SourceSet, category string) *SourceSet {
	if prev == nil {
		return a.Sources("", category)
	}
	gen := a.generation.Add(1)
	recent := a.recentLookup(prev.scope)

	next := &SourceSet{scope: prev.scope, category: category, sources: make([]Source, len(prev.sources))}
	for i, src := range prev.sources {
		switch src.ID() {
		case suggestion.QuerySuggestionsInCategory:
			next.sources[i] = a.inCategory(category, gen, recent)
		case suggestion.QuerySuggestions:
			next.sources[i] = a.crossCategory(category, gen, recent)
		default:
			next.sources[i] = src
		}
	}
	return next
}

func (a *Aggregator) inCategory(category string, gen uint64, recent recentLookup) Source {
	return &suggestionSource{
		base:       base{id: suggestion.QuerySuggestionsInCategory, gen: gen},
		gateway:    a.gateway,
		catalog:    a.catalog,
		category:   category,
		inCategory: true,
		recent:     recent,
	}
}

func (a *Aggregator) crossCategory(category string, gen uint64, recent recentLookup) Source {
	return &suggestionSource{
		base:     base{id: suggestion.QuerySuggestions, gen: gen},
		gateway:  a.gateway,
		catalog:  a.catalog,
		category: category,
		recent:   recent,
	}
}

func (a *Aggregator) recentLookup(scope string) recentLookup {
	return func(ctx context.Context, draft string) ([]suggestion.RecentSearch, error) {
		if a.history == nil || scope == "" {
			return []suggestion.RecentSearch{}, nil
		}
		all, err := a.history.Recent(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("recent searches: %w", err)
		}
		return matchRecent(all, draft, a.historySize), nil
	}
}

// Fetch queries every source of set concurrently and calls emit once per
// source as each resolves, in any order. A failing source is logged and
// emitted empty. Nothing is emitted for fetches that resolve after ctx is done.
func (a *Aggregator) Fetch(ctx context.Context, set *SourceSet, draft string, emit func(Emission)) {
	for _, src := range set.sources {
		a.submit(ctx, src, draft, emit)
	}
}

// Collect fetches every source and waits for all of them. Results are in
// registration order.
func (a *Aggregator) Collect(ctx context.Context, set *SourceSet, draft string) []Emission {
	out := make([]Emission, len(set.sources))
	var wg sync.WaitGroup
	for i, src := range set.sources {
		wg.Add(1)
		a.submit(ctx, src, draft, func(e Emission) {
			out[i] = e
		}, wg.Done)
	}
	wg.Wait()
	for i, e := range out {
		if e.Source == "" {
			src := set.sources[i]
			out[i] = Emission{
				Source:     src.ID(),
				Generation: src.Generation(),
				Items:      []suggestion.Item{},
				Err:        ctx.Err(),
			}
		}
	}
	return out
}

func (a *Aggregator) submit(ctx context.Context, src Source, draft string, emit func(Emission), done ...func()) {
	task := func() {
		for _, d := range done {
			defer d()
		}
		if ctx.Err() != nil {
			return
		}
		e := a.run(ctx, src, draft)
		if ctx.Err() != nil {
			return
		}
		emit(e)
	}

	if err := a.pool.Submit(task); err != nil {
		metrics.SourceFetchTotal.WithLabelValues(string(src.ID()), "overloaded").Inc()
		a.logger.Warn("suggestion fetch rejected",
			zap.String("source", string(src.ID())),
			zap.Error(err),
		)
		for _, d := range done {
			defer d()
		}
		if ctx.Err() != nil {
			return
		}
		emit(Emission{
			Source:     src.ID(),
			Generation: src.Generation(),
			Items:      []suggestion.Item{},
			Err:        fmt.Errorf("%s: %w: %w", src.ID(), domain.ErrPoolOverloaded, err),
		})
	}
}

// run executes one fetch with failure isolation.
func (a *Aggregator) run(ctx context.Context, src Source, draft string) (e Emission) {
	e = Emission{Source: src.ID(), Generation: src.Generation()}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.Err = fmt.Errorf("%s: panic: %v", src.ID(), r)
			e.Items = []suggestion.Item{}
		}
		metrics.SourceFetchDuration.WithLabelValues(string(src.ID())).Observe(time.Since(start).Seconds())
		status := "ok"
		if e.Err != nil {
			status = "error"
			if ctx.Err() == nil {
				a.logger.Warn("suggestion source failed",
					zap.String("source", string(src.ID())),
					zap.Uint64("generation", src.Generation()),
					zap.Error(e.Err),
				)
				a.logger.Debug("suggestion source failed for draft",
					zap.String("source", string(src.ID())),
					zap.String("draft", draft),
				)
			}
		}
		metrics.SourceFetchTotal.WithLabelValues(string(src.ID()), status).Inc()
	}()

	items, err := src.Fetch(ctx, draft)
	if err != nil {
		e.Err = err
		e.Items = []suggestion.Item{}
		return e
	}
	if items == nil {
		items = []suggestion.Item{}
	}
	e.Items = items
	return e
}
