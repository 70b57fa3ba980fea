package catalog

import (
	"context"

	"github.com/termstudio/taxon/pkg/pagination"
)

// Refresher rebuilds derived catalog state after a load. The vector index
// builder satisfies this from the composition layer.
type Refresher interface {
	Rebuild(ctx context.Context) error
}

// System defines the public contract for catalog domain operations.
type System interface {
	Handler(maxUploadSize int64, refresher Refresher) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Term], error)

	Find(ctx context.Context, id string) (*Term, error)
	All(ctx context.Context) ([]Term, error)
	Statistics(ctx context.Context) (*Statistics, error)
	Load(ctx context.Context, data []byte, filename string) (*LoadResult, error)
	UpdateSynonyms(ctx context.Context, id string, synonyms []string) error
}
