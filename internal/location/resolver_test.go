package location

import (
	"context"
	"errors"
	"testing"

	"github.com/theory/jsonpath"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/jsonval"
)

type fakeReader struct {
	areas    []domain.Document
	skiAreas []domain.Document
	err      error
}

func (f *fakeReader) FindByField(_ context.Context, table string, field *jsonpath.Path, value string) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	docs := f.areas
	if table == skiAreasTable {
		docs = f.skiAreas
	}
	var out []domain.Document
	for _, doc := range docs {
		if v, ok := jsonval.First(field, doc.Data); ok {
			if s, ok := v.(string); ok && s == value {
				out = append(out, doc)
			}
		}
	}
	return out, nil
}

func (f *fakeReader) Get(_ context.Context, table, id string) (domain.Document, error) {
	if f.err != nil {
		return domain.Document{}, f.err
	}
	docs := f.areas
	if table == skiAreasTable {
		docs = f.skiAreas
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return domain.Document{}, domain.ErrNotFound
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		areas: []domain.Document{
			{ID: "AREA1", Data: map[string]any{"RegionId": "REG1"}},
			{ID: "AREA2", Data: map[string]any{"RegionId": "REG1"}},
			{ID: "AREA3", Data: map[string]any{"TourismvereinId": "TV1"}},
		},
		skiAreas: []domain.Document{
			{ID: "SKI1", Data: map[string]any{
				"SkiRegionId": "SKR1",
				"AreaIds":     []any{"AREA4", "AREA5"},
			}},
			{ID: "SKI2", Data: map[string]any{
				"SkiRegionId": "SKR1",
				"AreaIds":     []any{"AREA5", "AREA6"},
			}},
		},
	}
}

func TestResolveAreaTokens(t *testing.T) {
	r := NewResolver(newFakeReader())
	ctx := context.Background()

	cases := []struct {
		name   string
		tokens []string
		want   []string
	}{
		{"literal", []string{"areAREA9"}, []string{"AREA9"}},
		{"region", []string{"regREG1"}, []string{"AREA1", "AREA2"}},
		{"tourism association", []string{"tvsTV1"}, []string{"AREA3"}},
		{"ski region unions embedded areas", []string{"skrSKR1"}, []string{"AREA4", "AREA5", "AREA6"}},
		{"single ski area", []string{"skaSKI2"}, []string{"AREA5", "AREA6"}},
		{"union dedup", []string{"regREG1", "areAREA2"}, []string{"AREA1", "AREA2"}},
		{"lowercase literal uppercased", []string{"arearea9"}, []string{"AREA9"}},
		{"unknown prefix ignored", []string{"xyz99", "areAREA1"}, []string{"AREA1"}},
		{"unknown parent resolves empty", []string{"regNOPE", "areAREA9"}, []string{"AREA9"}},
		{"missing ski area resolves empty", []string{"skaNOPE"}, nil},
		{"no tokens", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.ResolveAreaTokens(ctx, tc.tokens)
			if err != nil {
				t.Fatalf("ResolveAreaTokens: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("got %v, want %v", got, tc.want)
					break
				}
			}
		})
	}
}

func TestResolveAreaTokensPropagatesStoreError(t *testing.T) {
	wantErr := errors.New("scan failed")
	r := NewResolver(&fakeReader{err: wantErr})

	_, err := r.ResolveAreaTokens(context.Background(), []string{"regREG1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}
