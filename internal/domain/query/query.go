// Package query holds the shared search state of one storefront session.
package query

import "fmt"

// State is the committed search state: query text, refined category and page.
// An empty Category means no category is refined.
type State struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Page     int    `json:"page"`
}

// Commit is a state update produced by a debounce timeout, a submit or a selection.
// An empty Category leaves the refined category untouched.
type Commit struct {
	Query    string `json:"query"`
	Category string `json:"category,omitempty"`
}

// Apply returns the state after the commit. Page always resets to 0.
// Applying the same commit twice yields the same state as applying it once.
func (s State) Apply(c Commit) State {
	next := State{Text: c.Query, Category: s.Category}
	if c.Category != "" {
		next.Category = c.Category
	}
	return next
}

// Refine returns the state with the category replaced. "" clears it.
func (s State) Refine(category string) State {
	return State{Text: s.Text, Category: category}
}

// WithPage returns the state positioned on page n.
func (s State) WithPage(n int) (State, error) {
	if n < 0 {
		return s, fmt.Errorf("page must be >= 0, got %d", n)
	}
	s.Page = n
	return s, nil
}
