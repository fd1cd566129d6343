// Package location reads the secondary area and ski-area collections for
// the location resolver.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/theory/jsonpath"

	"github.com/kailas-cloud/tourdex/internal/db"
	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/jsonval"
)

// store is the consumer interface for location lookups (ISP).
type store interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements location.Reader over the JSON store.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a location repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// FindByField returns all documents of a table whose field equals value,
// compared case-insensitively.
func (r *Repo) FindByField(ctx context.Context, table string, field *jsonpath.Path, value string) ([]domain.Document, error) {
	prefix := r.keyPrefix + table + ":"
	keys, err := r.store.Scan(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", table, err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	raws, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", table, err)
	}

	var docs []domain.Document
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		v, ok := jsonval.First(field, data)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.EqualFold(s, value) {
			docs = append(docs, domain.Document{
				ID:   strings.TrimPrefix(keys[i], prefix),
				Data: data,
			})
		}
	}
	return docs, nil
}

// Get returns one document of a table by id.
func (r *Repo) Get(ctx context.Context, table, id string) (domain.Document, error) {
	key := r.keyPrefix + table + ":" + id
	raw, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.Document{}, fmt.Errorf("decode %s: %w", key, err)
	}
	return domain.Document{ID: id, Data: data}, nil
}
