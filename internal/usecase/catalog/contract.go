package catalog

import (
	"context"

	domcat "github.com/kailas-cloud/storefront/internal/domain/catalog"
)

// Gateway runs searches and object lookups against the hosted search service.
type Gateway interface {
	Search(ctx context.Context, index string, p domcat.Params) (domcat.Response, error)
	GetObject(ctx context.Context, index, objectID string) (domcat.Hit, error)
}
