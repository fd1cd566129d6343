package content

import (
	"context"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/projection"
	"github.com/kailas-cloud/tourdex/internal/query"
)

// Repository defines the storage contract for entity documents.
type Repository interface {
	List(ctx context.Context, table string, pred query.Predicate) ([]domain.Document, error)
	Get(ctx context.Context, table, id string) (domain.Document, error)
	Upsert(ctx context.Context, table string, doc domain.Document) (created bool, err error)
	Delete(ctx context.Context, table, id string) error
}

// AreaResolver expands hierarchical location tokens into area id sets.
type AreaResolver interface {
	ResolveAreaTokens(ctx context.Context, tokens []string) ([]string, error)
}

// Projector shapes documents for output.
type Projector interface {
	Project(doc domain.Document, pctx *projection.Context) (map[string]any, bool)
}
