package panel

import (
	"context"

	"github.com/kailas-cloud/storefront/internal/domain/query"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
)

// Aggregator builds suggestion sources and runs their fetches.
type Aggregator interface {
	Sources(scope, category string) *autocomplete.SourceSet
	Regenerate(prev *autocomplete.SourceSet, category string) *autocomplete.SourceSet
	Fetch(ctx context.Context, set *autocomplete.SourceSet, draft string, emit func(autocomplete.Emission))
}

// QueryState is the shared search state the controller writes to.
type QueryState interface {
	Get() query.State
	Commit(c query.Commit) (query.State, bool)
	Refine(category string) (query.State, bool)
	SetPage(n int) (query.State, bool, error)
}

// HistoryWriter records selected and submitted queries.
type HistoryWriter interface {
	Add(ctx context.Context, scope string, item suggestion.RecentSearch) error
}

// Sink receives the controller's output. Methods are called from the
// controller's event loop and must not call back into the controller.
type Sink interface {
	Render(v View)
	Navigate(url string)
}
