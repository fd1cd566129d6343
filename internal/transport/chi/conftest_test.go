package chi

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/projection"
	"github.com/kailas-cloud/tourdex/internal/query"
	contentuc "github.com/kailas-cloud/tourdex/internal/usecase/content"
	healthuc "github.com/kailas-cloud/tourdex/internal/usecase/health"
)

type mockRepo struct {
	listFn   func(ctx context.Context, table string, pred query.Predicate) ([]domain.Document, error)
	getFn    func(ctx context.Context, table, id string) (domain.Document, error)
	upsertFn func(ctx context.Context, table string, doc domain.Document) (bool, error)
	deleteFn func(ctx context.Context, table, id string) error
}

func (m *mockRepo) List(ctx context.Context, table string, pred query.Predicate) ([]domain.Document, error) {
	return m.listFn(ctx, table, pred)
}

func (m *mockRepo) Get(ctx context.Context, table, id string) (domain.Document, error) {
	return m.getFn(ctx, table, id)
}

func (m *mockRepo) Upsert(ctx context.Context, table string, doc domain.Document) (bool, error) {
	return m.upsertFn(ctx, table, doc)
}

func (m *mockRepo) Delete(ctx context.Context, table, id string) error {
	return m.deleteFn(ctx, table, id)
}

type mockResolver struct {
	resolveFn func(ctx context.Context, tokens []string) ([]string, error)
}

func (m *mockResolver) ResolveAreaTokens(ctx context.Context, tokens []string) ([]string, error) {
	if m.resolveFn == nil {
		return nil, nil
	}
	return m.resolveFn(ctx, tokens)
}

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn == nil {
		return nil
	}
	return m.pingFn(ctx)
}

func newTestServer(t *testing.T, repo *mockRepo) *httptest.Server {
	return newTestServerWithResolver(t, repo, &mockResolver{})
}

func newTestServerWithResolver(t *testing.T, repo *mockRepo, resolver *mockResolver) *httptest.Server {
	t.Helper()

	content := contentuc.New(repo, resolver, projection.NewProjector())
	health := healthuc.New(&mockPinger{})
	srv := NewServer(content, health, zap.NewNop(), 25, 1024)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}
