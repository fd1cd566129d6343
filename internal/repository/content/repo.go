// Package content persists entity documents as one JSON value per id.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/db"
	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/query"
)

// store is the consumer interface for content documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/content.Repository over the JSON store.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a content repository. keyPrefix namespaces every key.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// List returns every document of a table matching the predicate, in key
// order. Matching happens here so that totals and page slices downstream
// always describe the same set.
func (r *Repo) List(ctx context.Context, table string, pred query.Predicate) ([]domain.Document, error) {
	keys, err := r.store.Scan(ctx, r.tablePattern(table))
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
		doc, err := decodeDoc(r.idFromKey(table, keys[i]), raw)
		if err != nil {
			return nil, err
		}
		if pred.Eval(doc) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Get returns one document by id.
func (r *Repo) Get(ctx context.Context, table, id string) (domain.Document, error) {
	key := r.docKey(table, id)
	raw, err := r.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return decodeDoc(id, raw)
}

// Upsert stores a full replacement document. Returns true if created.
func (r *Repo) Upsert(ctx context.Context, table string, doc domain.Document) (bool, error) {
	key := r.docKey(table, doc.ID)
	data, err := json.Marshal(doc.Data)
	if err != nil {
		return false, fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	return !exists, nil
}

// Delete removes a document. A missing id is ErrDocumentNotFound.
func (r *Repo) Delete(ctx context.Context, table, id string) error {
	key := r.docKey(table, id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) docKey(table, id string) string {
	return r.keyPrefix + table + ":" + id
}

func (r *Repo) tablePattern(table string) string {
	return r.keyPrefix + table + ":*"
}

func (r *Repo) idFromKey(table, key string) string {
	return strings.TrimPrefix(key, r.keyPrefix+table+":")
}

func decodeDoc(id string, raw []byte) (domain.Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return domain.Document{ID: id, Data: data}, nil
}
