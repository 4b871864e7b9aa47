// Package panel drives one mounted autocomplete panel: it owns the draft text,
// debounces commits into the shared query state and merges source emissions
// into the rendered panel.
package panel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	"github.com/kailas-cloud/storefront/internal/metrics"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
)

// DefaultDebounce is the quiet period after the last keystroke before the draft is committed.
const DefaultDebounce = 500 * time.Millisecond

// Commit triggers.
const (
	TriggerDebounce = "debounce"
	TriggerSubmit   = "submit"
	TriggerSelect   = "select"
)

// View is the latest renderable state of the panel.
type View struct {
	Open     bool             `json:"open"`
	Draft    string           `json:"draft"`
	Category string           `json:"category,omitempty"`
	Panel    suggestion.Panel `json:"panel"`
}

// Config holds per-mount settings.
type Config struct {
	Scope    string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Controller is one mount of the autocomplete panel. All state lives on a
// single event loop goroutine; exported methods post events to it and wait
// until they are applied.
type Controller struct {
	agg     Aggregator
	state   QueryState
	history HistoryWriter
	sink    Sink
	scope   string
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan func()
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once

	debouncer *Debouncer

	// Owned by the event loop.
	open      bool
	draft     string
	set       *autocomplete.SourceSet
	seq       uint64
	applied   map[suggestion.SourceID]uint64
	latest    map[suggestion.SourceID]autocomplete.Emission
	pending   uint64
	commitSeq uint64
}

// New mounts a controller. history may be nil. The draft starts from the
// committed text of state.
func New(agg Aggregator, state QueryState, history HistoryWriter, sink Sink, cfg Config) *Controller {
	delay := cfg.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cur := state.Get()
	c := &Controller{
		agg:       agg,
		state:     state,
		history:   history,
		sink:      sink,
		scope:     cfg.Scope,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		events:    make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		debouncer: NewDebouncer(delay),
		draft:     cur.Text,
		set:       agg.Sources(cfg.Scope, cur.Category),
		applied:   make(map[suggestion.SourceID]uint64),
		latest:    make(map[suggestion.SourceID]autocomplete.Emission),
	}

	metrics.PanelSessions.Inc()
	go c.loop()
	return c
}

func (c *Controller) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.quit:
			return
		case ev := <-c.events:
			select {
			case <-c.quit:
				return
			default:
			}
			ev()
		}
	}
}

// do runs fn on the event loop and returns its error.
func (c *Controller) do(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case c.events <- func() { reply <- fn() }:
	case <-c.quit:
		return domain.ErrControllerClosed
	}
	select {
	case err := <-reply:
		return err
	case <-c.done:
		select {
		case err := <-reply:
			return err
		default:
			return domain.ErrControllerClosed
		}
	}
}

// post queues fn without waiting. Dropped once the controller is unmounted.
func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.quit:
	}
}

// Focus opens the panel and fetches suggestions for the current draft, even when empty.
func (c *Controller) Focus() error {
	return c.do(func() error {
		c.open = true
		c.render()
		c.refetch()
		return nil
	})
}

// Blur closes the panel. The draft is kept.
func (c *Controller) Blur() error {
	return c.do(func() error {
		c.open = false
		c.render()
		return nil
	})
}

// Input replaces the draft, refetches and re-arms the debounced commit.
func (c *Controller) Input(text string) error {
	return c.do(func() error {
		c.open = true
		c.draft = text
		c.render()
		c.refetch()

		c.commitSeq++
		token := c.commitSeq
		c.pending = token
		c.debouncer.Trigger(func() {
			c.post(func() { c.debounced(token) })
		})
		return nil
	})
}

// Submit commits the draft immediately.
func (c *Controller) Submit() error {
	return c.do(func() error {
		c.commit(query.Commit{Query: c.draft}, TriggerSubmit)
		return nil
	})
}

// Select acts on the index-th item last rendered for source: query items are
// committed, hits navigate.
func (c *Controller) Select(source suggestion.SourceID, index int) error {
	return c.do(func() error {
		src, ok := c.set.Get(source)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownSource, source)
		}
		e, ok := c.latest[source]
		if !ok || e.Generation != src.Generation() || index < 0 || index >= len(e.Items) {
			return fmt.Errorf("%w: no item %d in %s", domain.ErrInvalidQuery, index, source)
		}

		item := e.Items[index]
		if url, ok := item.NavigationTarget(); ok {
			c.sink.Navigate(url)
			return nil
		}
		if qc, ok := item.QueryCommit(); ok {
			c.commit(qc, TriggerSelect)
		}
		return nil
	})
}

// Reset clears the draft without committing. The category and any committed
// text are kept; a pending debounced commit is dropped.
func (c *Controller) Reset() error {
	return c.do(func() error {
		c.cancelPending()
		c.draft = ""
		c.render()
		if c.open {
			c.refetch()
		}
		return nil
	})
}

// Refine sets the category facet. "" clears it.
func (c *Controller) Refine(category string) error {
	return c.do(func() error {
		prev := c.state.Get().Category
		st, _ := c.state.Refine(category)
		c.categoryChanged(prev, st.Category)
		c.render()
		if c.open {
			c.refetch()
		}
		return nil
	})
}

// SetPage moves the result list to page n.
func (c *Controller) SetPage(n int) error {
	return c.do(func() error {
		if _, _, err := c.state.SetPage(n); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		return nil
	})
}

// View returns the current view.
func (c *Controller) View() (View, error) {
	var v View
	err := c.do(func() error {
		v = c.view()
		return nil
	})
	return v, err
}

// Unmount cancels the pending commit and every in-flight fetch, then stops the
// event loop. No sink method runs after Unmount returns. It is safe to call
// more than once.
func (c *Controller) Unmount() {
	c.once.Do(func() {
		c.debouncer.Stop()
		c.cancel()
		close(c.quit)
		<-c.done
		metrics.PanelSessions.Dec()
	})
}

func (c *Controller) debounced(token uint64) {
	if token != c.pending {
		return
	}
	c.commit(query.Commit{Query: c.draft}, TriggerDebounce)
}

func (c *Controller) cancelPending() {
	c.pending = 0
	c.debouncer.Cancel()
}

// commit writes qc to the query state and syncs the draft to the committed text.
func (c *Controller) commit(qc query.Commit, trigger string) {
	c.cancelPending()

	prev := c.state.Get().Category
	st, _ := c.state.Commit(qc)
	metrics.CommitsTotal.WithLabelValues(trigger).Inc()

	if trigger != TriggerDebounce && st.Text != "" {
		c.remember(suggestion.RecentSearch{Query: st.Text, Category: qc.Category})
	}

	changed := c.categoryChanged(prev, st.Category)
	textChanged := c.draft != st.Text
	c.draft = st.Text
	c.render()
	if c.open && (changed || textChanged) {
		c.refetch()
	}
}

func (c *Controller) remember(item suggestion.RecentSearch) {
	if c.history == nil {
		return
	}
	if err := c.history.Add(c.ctx, c.scope, item); err != nil {
		c.logger.Warn("recent search not saved",
			zap.String("scope", c.scope),
			zap.Error(err),
		)
	}
}

// categoryChanged swaps in the regenerated category sources when the category moved.
func (c *Controller) categoryChanged(prev, next string) bool {
	if prev == next {
		return false
	}
	c.set = c.agg.Regenerate(c.set, next)
	return true
}

// refetch issues one fetch round for the current draft under a new sequence number.
// Emissions delivered while Fetch is still submitting (a rejected task is
// emitted inline) are applied after it returns instead of being posted to the
// loop that is running this call.
func (c *Controller) refetch() {
	c.seq++
	seq := c.seq

	var mu sync.Mutex
	submitting := true
	var early []autocomplete.Emission

	c.agg.Fetch(c.ctx, c.set, c.draft, func(e autocomplete.Emission) {
		mu.Lock()
		if submitting {
			early = append(early, e)
			mu.Unlock()
			return
		}
		mu.Unlock()
		c.post(func() { c.apply(e, seq) })
	})

	mu.Lock()
	submitting = false
	queued := early
	mu.Unlock()
	for _, e := range queued {
		c.apply(e, seq)
	}
}

// apply installs an emission unless a newer generation or round superseded it.
func (c *Controller) apply(e autocomplete.Emission, seq uint64) {
	src, ok := c.set.Get(e.Source)
	if !ok || src.Generation() != e.Generation || seq <= c.applied[e.Source] {
		metrics.StaleResultsTotal.WithLabelValues(string(e.Source)).Inc()
		return
	}
	c.applied[e.Source] = seq
	c.latest[e.Source] = e
	c.render()
}

func (c *Controller) view() View {
	ems := make([]autocomplete.Emission, 0, len(c.latest))
	for _, src := range c.set.Sources() {
		if e, ok := c.latest[src.ID()]; ok {
			ems = append(ems, e)
		}
	}
	return View{
		Open:     c.open,
		Draft:    c.draft,
		Category: c.set.Category(),
		Panel:    autocomplete.Panel(c.set, ems),
	}
}

func (c *Controller) render() {
	c.sink.Render(c.view())
}
