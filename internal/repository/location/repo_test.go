package location

import (
	"context"
	"errors"
	"testing"

	"github.com/theory/jsonpath"

	"github.com/kailas-cloud/tourdex/internal/db"
	"github.com/kailas-cloud/tourdex/internal/domain"
)

type mockStore struct {
	jsonGetFn      func(ctx context.Context, key string, paths ...string) ([]byte, error)
	jsonGetMultiFn func(ctx context.Context, keys []string) ([][]byte, error)
	scanFn         func(ctx context.Context, pattern string) ([]string, error)
}

func (m *mockStore) JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error) {
	return m.jsonGetFn(ctx, key, paths...)
}

func (m *mockStore) JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	return m.jsonGetMultiFn(ctx, keys)
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	return m.scanFn(ctx, pattern)
}

func mustPath(t *testing.T, expr string) *jsonpath.Path {
	t.Helper()
	p, err := jsonpath.Parse(expr)
	if err != nil {
		t.Fatalf("parse path %q: %v", expr, err)
	}
	return p
}

func TestFindByField(t *testing.T) {
	store := &mockStore{
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			if pattern != "tourdex:areas:*" {
				t.Errorf("pattern = %q, want tourdex:areas:*", pattern)
			}
			return []string{"tourdex:areas:AREA2", "tourdex:areas:AREA1", "tourdex:areas:AREA3"}, nil
		},
		jsonGetMultiFn: func(_ context.Context, keys []string) ([][]byte, error) {
			return [][]byte{
				[]byte(`{"Id":"AREA1","RegionId":"REG1"}`),
				[]byte(`{"Id":"AREA2","RegionId":"reg1"}`),
				nil,
			}, nil
		},
	}
	repo := New(store, "tourdex:")

	docs, err := repo.FindByField(context.Background(), "areas", mustPath(t, "$.RegionId"), "REG1")
	if err != nil {
		t.Fatalf("FindByField() error = %v", err)
	}
	// Keys are sorted before fetching; the lowercase RegionId still matches.
	if len(docs) != 2 || docs[0].ID != "AREA1" || docs[1].ID != "AREA2" {
		t.Errorf("docs = %v, want AREA1 and AREA2", docs)
	}
}

func TestFindByFieldEmptyTable(t *testing.T) {
	store := &mockStore{
		scanFn: func(context.Context, string) ([]string, error) { return nil, nil },
	}
	repo := New(store, "tourdex:")

	docs, err := repo.FindByField(context.Background(), "areas", mustPath(t, "$.RegionId"), "REG1")
	if err != nil {
		t.Fatalf("FindByField() error = %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("docs = %v, want empty", docs)
	}
}

func TestGet(t *testing.T) {
	store := &mockStore{
		jsonGetFn: func(_ context.Context, key string, _ ...string) ([]byte, error) {
			if key != "tourdex:skiareas:SKI1" {
				t.Errorf("key = %q, want tourdex:skiareas:SKI1", key)
			}
			return []byte(`{"Id":"SKI1","AreaIds":["AREA4"]}`), nil
		},
	}
	repo := New(store, "tourdex:")

	doc, err := repo.Get(context.Background(), "skiareas", "SKI1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if doc.ID != "SKI1" {
		t.Errorf("ID = %q, want SKI1", doc.ID)
	}
}

func TestGetNotFound(t *testing.T) {
	store := &mockStore{
		jsonGetFn: func(context.Context, string, ...string) ([]byte, error) {
			return nil, db.ErrKeyNotFound
		},
	}
	repo := New(store, "tourdex:")

	_, err := repo.Get(context.Background(), "skiareas", "NOPE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
