// Package content orchestrates one request end to end: area resolution,
// predicate compilation, ordering, pagination and projection.
package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/filter"
	"github.com/kailas-cloud/tourdex/internal/domain/page"
	"github.com/kailas-cloud/tourdex/internal/projection"
	"github.com/kailas-cloud/tourdex/internal/query"
)

// Service implements the read and write operations over entity documents.
type Service struct {
	repo      Repository
	resolver  AreaResolver
	projector Projector
	now       func() time.Time
}

// New creates a content service.
func New(repo Repository, resolver AreaResolver, projector Projector) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		projector: projector,
		now:       time.Now,
	}
}

// List executes a filtered, ordered, paginated query. Totals describe the
// full match set; navigation links are the transport's concern.
func (s *Service) List(ctx context.Context, spec *filter.Spec, pctx *projection.Context) (page.Page, error) {
	t := spec.EntityType()

	var areaIDs []string
	if t.HasLocation && len(spec.AreaTokens()) > 0 {
		ids, err := s.resolver.ResolveAreaTokens(ctx, spec.AreaTokens())
		if err != nil {
			return page.Page{}, fmt.Errorf("resolve area tokens: %w", err)
		}
		areaIDs = ids
	}

	pred := query.Compile(spec, areaIDs)
	docs, err := s.repo.List(ctx, t.Table, pred)
	if err != nil {
		return page.Page{}, fmt.Errorf("list %s: %w", t.Name, err)
	}

	ordering := query.NewOrdering(spec)
	ordering.Sort(docs)

	total := len(docs)
	slice := page.Slice(docs, spec.PageNumber(), spec.PageSize())

	items := make([]map[string]any, 0, len(slice))
	for _, doc := range slice {
		if out, ok := s.projector.Project(doc, pctx); ok {
			items = append(items, out)
		}
	}
	return page.New(items, spec.PageNumber(), spec.PageSize(), total, ordering.Seed()), nil
}

// Get fetches and projects a single document. A document the projection
// suppresses for this caller surfaces as not found.
func (s *Service) Get(ctx context.Context, t *entity.Type, id string, pctx *projection.Context) (map[string]any, error) {
	doc, err := s.repo.Get(ctx, t.Table, t.NormalizeID(id))
	if err != nil {
		return nil, err
	}
	out, ok := s.projector.Project(doc, pctx)
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return out, nil
}

// Upsert stores a full replacement document. An empty id is generated; the
// stored id always follows the entity casing rule. Returns the stored id
// and whether the document was created.
func (s *Service) Upsert(ctx context.Context, t *entity.Type, id string, data map[string]any) (string, bool, error) {
	if id == "" {
		id = uuid.NewString()
	}
	id = t.NormalizeID(id)

	if data == nil {
		data = make(map[string]any)
	}
	data["Id"] = id
	stamp := s.now().UTC().Format(time.RFC3339)
	data["LastChange"] = stamp
	data["_Meta"] = map[string]any{
		"Type":       t.Name,
		"LastUpdate": stamp,
	}

	created, err := s.repo.Upsert(ctx, t.Table, domain.Document{ID: id, Data: data})
	if err != nil {
		return "", false, fmt.Errorf("upsert %s %s: %w", t.Name, id, err)
	}
	return id, created, nil
}

// Delete removes a document by id.
func (s *Service) Delete(ctx context.Context, t *entity.Type, id string) error {
	id = t.NormalizeID(id)
	if err := s.repo.Delete(ctx, t.Table, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", t.Name, id, err)
	}
	return nil
}
