package autocomplete

import (
	"context"

	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
)

// Gateway runs searches against the hosted search service.
type Gateway interface {
	Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error)
}

// History reads the recent searches of a scope, newest first.
type History interface {
	Recent(ctx context.Context, scope string) ([]suggestion.RecentSearch, error)
}
