// Package tui is the terminal host of the autocomplete panel. It mounts one
// panel controller and renders its view next to the result list.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	domcat "github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	"github.com/kailas-cloud/storefront/internal/usecase/panel"
	"github.com/kailas-cloud/storefront/internal/usecase/querystate"
)

const (
	requestTimeout = 10 * time.Second
	defaultColumn  = 36
)

// Catalog runs result list searches and product lookups.
type Catalog interface {
	Search(ctx context.Context, st query.State) (cataloguc.Results, error)
	Product(ctx context.Context, id string) (domcat.Product, error)
}

// Config holds terminal session settings.
type Config struct {
	Scope             string
	Debounce          time.Duration
	CategoryAttribute string
	Initial           query.State
	Logger            *zap.Logger
}

// target addresses one rendered panel item.
type target struct {
	source suggestion.SourceID
	index  int
}

// Model is the root bubbletea model.
type Model struct {
	ctrl         *panel.Controller
	catalog      Catalog
	bridge       *bridge
	unsubscribe  func()
	categoryAttr string
	logger       *zap.Logger

	input     textinput.Model
	view      panel.View
	committed query.State
	results   *cataloguc.Results
	product   *domcat.Product
	cursor    int // -1 = search box
	status    string
	err       error
	width     int
	closed    bool
}

// New mounts a panel controller for a terminal session. history may be nil.
func New(agg panel.Aggregator, cat Catalog, history panel.HistoryWriter, cfg Config) *Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "search products..."
	ti.CharLimit = cataloguc.MaxQueryLength
	ti.Width = 40
	ti.SetValue(cfg.Initial.Text)
	ti.Focus()

	b := newBridge()
	store := querystate.New(cfg.Initial)

	m := &Model{
		catalog:      cat,
		bridge:       b,
		categoryAttr: cfg.CategoryAttribute,
		logger:       logger,
		input:        ti,
		committed:    store.Get(),
		cursor:       -1,
	}
	m.unsubscribe = store.Subscribe(b.stateChanged)
	m.ctrl = panel.New(agg, store, history, b, panel.Config{
		Scope:    cfg.Scope,
		Debounce: cfg.Debounce,
		Logger:   logger,
	})
	return m
}

// Init starts listening to the panel and loads the initial result list.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bridge.listen(), m.search(m.committed))
}

// Close unmounts the panel. Safe to call more than once.
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.ctrl.Unmount()
	m.unsubscribe()
	m.bridge.close()
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case panelMsg:
		m.view = panel.View(msg)
		m.clampCursor()
		return m, m.bridge.listen()

	case stateMsg:
		m.committed = query.State(msg)
		m.product = nil
		return m, tea.Batch(m.bridge.listen(), m.search(m.committed))

	case navigateMsg:
		m.status = "open " + string(msg)
		return m, tea.Batch(m.bridge.listen(), m.openProduct(string(msg)))

	case resultsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if msg.results.State != m.committed {
			return m, nil
		}
		m.results = &msg.results
		return m, nil

	case productMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.product = &msg.product
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.Close()
		return m, tea.Quit
	case "tab":
		m.run(m.ctrl.Focus())
	case "esc":
		m.cursor = -1
		m.run(m.ctrl.Blur())
	case "ctrl+u":
		m.cursor = -1
		m.run(m.ctrl.Reset())
		m.syncDraft()
	case "ctrl+r":
		m.run(m.ctrl.Refine(m.nextCategory()))
	case "up":
		m.move(-1)
	case "down":
		m.move(1)
	case "pgdown":
		if m.results != nil && !m.results.Pagination.IsLast {
			m.run(m.ctrl.SetPage(m.committed.Page + 1))
		}
	case "pgup":
		if m.committed.Page > 0 {
			m.run(m.ctrl.SetPage(m.committed.Page - 1))
		}
	case "enter":
		m.enter()
	default:
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != before {
			m.cursor = -1
			m.run(m.ctrl.Input(v))
		}
		return m, cmd
	}
	return m, nil
}

// enter selects the highlighted item, or submits the draft when nothing is highlighted.
func (m *Model) enter() {
	if t, ok := m.highlighted(); ok && m.view.Open {
		m.run(m.ctrl.Select(t.source, t.index))
	} else {
		m.run(m.ctrl.Submit())
	}
	m.cursor = -1
	m.syncDraft()
}

func (m *Model) run(err error) {
	if err != nil {
		m.logger.Debug("panel event rejected", zap.Error(err))
	}
	m.err = err
}

// syncDraft copies the controller's draft into the search box after an event
// that may have replaced it.
func (m *Model) syncDraft() {
	v, err := m.ctrl.View()
	if err != nil {
		return
	}
	m.view = v
	if v.Draft != m.input.Value() {
		m.input.SetValue(v.Draft)
		m.input.CursorEnd()
	}
}

func (m *Model) targets() []target {
	var out []target
	for _, region := range [][]suggestion.Section{m.view.Panel.Left, m.view.Panel.Right} {
		for _, s := range region {
			for i := range s.Items {
				out = append(out, target{source: s.Source, index: i})
			}
		}
	}
	return out
}

func (m *Model) highlighted() (target, bool) {
	ts := m.targets()
	if m.cursor < 0 || m.cursor >= len(ts) {
		return target{}, false
	}
	return ts[m.cursor], true
}

func (m *Model) move(delta int) {
	if !m.view.Open {
		return
	}
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.targets())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < -1 {
		m.cursor = -1
	}
}

// nextCategory cycles through the category facet values of the current
// results, then back to no category.
func (m *Model) nextCategory() string {
	if m.results == nil {
		return ""
	}
	for _, f := range m.results.Facets {
		if f.Attribute != m.categoryAttr || len(f.Values) == 0 {
			continue
		}
		if m.committed.Category == "" {
			return f.Values[0].Value
		}
		for i, v := range f.Values {
			if v.Value == m.committed.Category && i+1 < len(f.Values) {
				return f.Values[i+1].Value
			}
		}
	}
	return ""
}

func (m *Model) search(st query.State) tea.Cmd {
	cat := m.catalog
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := cat.Search(ctx, st)
		return resultsMsg{results: res, err: err}
	}
}

// openProduct loads the detail of a product path. Other targets only show in the status line.
func (m *Model) openProduct(url string) tea.Cmd {
	id, ok := strings.CutPrefix(url, domcat.ProductPath)
	if !ok || id == "" {
		return nil
	}
	cat := m.catalog
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := cat.Product(ctx, id)
		return productMsg{product: p, err: err}
	}
}

// View renders the UI.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("storefront"))
	if m.committed.Category != "" {
		b.WriteString(mutedStyle.Render("  in " + m.committed.Category))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.view.Open {
		b.WriteString(m.renderPanel())
		b.WriteString("\n")
	}

	if m.product != nil {
		b.WriteString(renderProduct(*m.product))
		b.WriteString("\n")
	}
	if m.results != nil {
		b.WriteString(renderResults(*m.results))
	}

	if m.status != "" {
		b.WriteString(mutedStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(mutedStyle.Render(
		"enter select/submit · tab open · esc close · ctrl+u clear · ctrl+r category · pgup/pgdn page · ctrl+c quit"))
	return b.String()
}

func (m *Model) renderPanel() string {
	if m.view.Panel.Empty() {
		return mutedStyle.Render("no suggestions")
	}
	width := defaultColumn
	if m.width > 0 {
		width = max((m.width-6)/2, 20)
	}
	left, next := m.renderRegion(m.view.Panel.Left, 0)
	right, _ := m.renderRegion(m.view.Panel.Right, next)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		columnStyle.Width(width).Render(left),
		columnStyle.Width(width).Render(right),
	)
}

// renderRegion renders sections with flat item indexes starting at start.
func (m *Model) renderRegion(sections []suggestion.Section, start int) (string, int) {
	var lines []string
	idx := start
	for _, s := range sections {
		if len(s.Items) == 0 {
			continue
		}
		if s.Header != "" {
			lines = append(lines, headerStyle.Render(s.Header))
		}
		for _, it := range s.Items {
			line := itemLine(it)
			if idx == m.cursor {
				line = selectedStyle.Render(line)
			}
			lines = append(lines, line)
			idx++
		}
	}
	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("no suggestions"))
	}
	return strings.Join(lines, "\n"), idx
}

func itemLine(it suggestion.ItemView) string {
	switch it.Kind {
	case suggestion.KindRecentSearch:
		return "↺ " + it.Label
	case suggestion.KindQuerySuggestion:
		if it.Category != "" {
			return "⌕ " + it.Label + mutedStyle.Render(" in "+it.Category)
		}
		return "⌕ " + it.Label
	default:
		if it.Price > 0 {
			return fmt.Sprintf("%s  $%.2f", it.Label, it.Price)
		}
		return it.Label
	}
}

func renderResults(res cataloguc.Results) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d results\n", res.NbHits)
	for _, p := range res.Hits {
		fmt.Fprintf(&b, "• %s  $%.2f\n", p.Name, p.Price)
	}
	if res.Pagination.NbPages > 1 {
		pages := make([]string, len(res.Pagination.Pages))
		for i, n := range res.Pagination.Pages {
			if n == res.Pagination.Current {
				pages[i] = fmt.Sprintf("[%d]", n+1)
			} else {
				pages[i] = fmt.Sprintf("%d", n+1)
			}
		}
		footer := strings.Join(pages, " ")
		if res.Pagination.Ellipsis {
			footer += " …"
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("page %d/%d  %s",
			res.Pagination.Current+1, res.Pagination.NbPages, footer)))
		b.WriteString("\n")
	}
	return b.String()
}

func renderProduct(p domcat.Product) string {
	lines := []string{headerStyle.Render(p.Name)}
	if p.Brand != "" {
		lines = append(lines, "brand: "+p.Brand)
	}
	lines = append(lines, fmt.Sprintf("price: $%.2f", p.Price))
	if p.Description != "" {
		lines = append(lines, p.Description)
	}
	return columnStyle.Render(strings.Join(lines, "\n"))
}
