// Package location expands hierarchical location tokens into concrete
// area id sets.
package location

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/theory/jsonpath"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/jsonval"
)

// Token prefixes selecting the resolution strategy.
const (
	prefixRegion             = "reg"
	prefixTourismAssociation = "tvs"
	prefixSkiRegion          = "skr"
	prefixSkiArea            = "ska"
	prefixArea               = "are"
)

// Tables holding the secondary location collections.
const (
	areasTable    = "areas"
	skiAreasTable = "skiareas"
)

// Parent-id fields scanned during resolution.
var (
	pathRegionParent             = jsonpath.MustParse("$.RegionId")
	pathTourismAssociationParent = jsonpath.MustParse("$.TourismvereinId")
	pathSkiRegionParent          = jsonpath.MustParse("$.SkiRegionId")
	pathAreaIDs                  = jsonpath.MustParse("$.AreaIds")
)

// Reader looks up documents in a location collection.
type Reader interface {
	FindByField(ctx context.Context, table string, field *jsonpath.Path, value string) ([]domain.Document, error)
	Get(ctx context.Context, table, id string) (domain.Document, error)
}

// Resolver expands area tokens against the secondary location collections.
// It holds no state across calls; caching is the caller's concern.
type Resolver struct {
	reader Reader
}

// NewResolver returns a resolver over the given reader.
func NewResolver(reader Reader) *Resolver {
	return &Resolver{reader: reader}
}

// ResolveAreaTokens expands each token per its 3-letter prefix and returns
// the deduplicated union, uppercase, in stable order. Tokens with unknown
// prefixes are ignored; a parent that does not exist contributes the empty
// set rather than an error. Lookups for independent tokens run
// concurrently.
func (r *Resolver) ResolveAreaTokens(ctx context.Context, tokens []string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	results := make([][]string, len(tokens))
	g, ctx := errgroup.WithContext(ctx)
	for i, token := range tokens {
		g.Go(func() error {
			ids, err := r.resolveToken(ctx, token)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var union []string
	for _, ids := range results {
		for _, id := range ids {
			id = strings.ToUpper(id)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	sort.Strings(union)
	return union, nil
}

func (r *Resolver) resolveToken(ctx context.Context, token string) ([]string, error) {
	if len(token) <= 3 {
		return nil, nil
	}
	id := strings.ToUpper(token[3:])

	switch strings.ToLower(token[:3]) {
	case prefixArea:
		return []string{id}, nil
	case prefixRegion:
		return r.areaIDsByParent(ctx, pathRegionParent, id)
	case prefixTourismAssociation:
		return r.areaIDsByParent(ctx, pathTourismAssociationParent, id)
	case prefixSkiRegion:
		return r.skiAreaUnion(ctx, pathSkiRegionParent, id)
	case prefixSkiArea:
		return r.skiAreaByID(ctx, id)
	default:
		return nil, nil
	}
}

// areaIDsByParent collects the ids of all areas under one parent.
func (r *Resolver) areaIDsByParent(ctx context.Context, parent *jsonpath.Path, id string) ([]string, error) {
	docs, err := r.reader.FindByField(ctx, areasTable, parent, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// skiAreaUnion collects the embedded area id arrays of all ski areas under
// one ski region.
func (r *Resolver) skiAreaUnion(ctx context.Context, parent *jsonpath.Path, id string) ([]string, error) {
	docs, err := r.reader.FindByField(ctx, skiAreasTable, parent, id)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, doc := range docs {
		ids = append(ids, jsonval.Strings(pathAreaIDs, doc.Data)...)
	}
	return ids, nil
}

// skiAreaByID resolves a single ski area's embedded area ids. A missing
// ski area contributes the empty set.
func (r *Resolver) skiAreaByID(ctx context.Context, id string) ([]string, error) {
	doc, err := r.reader.Get(ctx, skiAreasTable, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return jsonval.Strings(pathAreaIDs, doc.Data), nil
}
