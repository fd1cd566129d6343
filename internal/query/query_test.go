package query

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/filter"
)

func activityType(t *testing.T) *entity.Type {
	t.Helper()
	et, ok := entity.Lookup("activity")
	if !ok {
		t.Fatal("activity type not registered")
	}
	return et
}

func activitySpec(t *testing.T, p filter.Params) filter.Spec {
	t.Helper()
	s, err := filter.NewSpec(activityType(t), p, 25, 1024)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	return s
}

func doc(t *testing.T, id, raw string) domain.Document {
	t.Helper()
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("unmarshal %s: %v", id, err)
	}
	return domain.Document{ID: id, Data: data}
}

func fixtureDocs(t *testing.T) []domain.Document {
	t.Helper()
	return []domain.Document{
		doc(t, "ACT1", `{
			"Id": "ACT1", "Active": true, "TypeBitmask": 1,
			"AltitudeDifference": 800,
			"Detail": {"de": {"Title": "Bergtour Rosengarten"}},
			"LocationInfo": {"RegionInfo": {"Id": "REG1"}},
			"AreaIds": ["AREA1"],
			"GpsInfo": [{"Latitude": 46.49, "Longitude": 11.35}],
			"LastChange": "2024-06-01T10:00:00Z"
		}`),
		doc(t, "ACT2", `{
			"Id": "ACT2", "Active": true, "TypeBitmask": 2,
			"AltitudeDifference": 300,
			"Detail": {"de": {"Title": "Radweg Etschtal"}},
			"LocationInfo": {"TvInfo": {"Id": "TV1"}},
			"GpsInfo": [{"Latitude": 46.67, "Longitude": 11.16}],
			"LastChange": "2023-01-15T08:30:00Z"
		}`),
		doc(t, "ACT3", `{
			"Id": "ACT3", "Active": false, "TypeBitmask": 16,
			"Detail": {"de": {"Title": "Wanderung Seiser Alm"}, "en": {"Title": "Alpe di Siusi hike"}},
			"AreaIds": ["AREA2"],
			"LicenseInfo": {"ClosedData": true},
			"GpsInfo": [{"Latitude": 46.54, "Longitude": 11.56}]
		}`),
	}
}

func matchIDs(p Predicate, docs []domain.Document) []string {
	var ids []string
	for _, d := range docs {
		if p.Eval(d) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

func TestCompileEmptySpecMatchesAll(t *testing.T) {
	spec := activitySpec(t, filter.Params{})
	p := Compile(&spec, nil)

	if len(p.Fragments()) != 0 {
		t.Errorf("empty spec compiled %d fragments", len(p.Fragments()))
	}
	docs := fixtureDocs(t)
	if got := matchIDs(p, docs); len(got) != len(docs) {
		t.Errorf("matched %v, want all", got)
	}
}

func TestCompileClosedDataAlwaysLast(t *testing.T) {
	spec := activitySpec(t, filter.Params{
		IDList:           "ACT1,ACT3",
		FilterClosedData: true,
	})
	p := Compile(&spec, nil)

	frags := p.Fragments()
	if len(frags) == 0 || frags[len(frags)-1].Name() != "closeddata" {
		t.Fatalf("fragments = %v, want closeddata last", names(frags))
	}
	if got := matchIDs(p, fixtureDocs(t)); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("matched %v, want [ACT1]", got)
	}
}

func names(frags []Fragment) []string {
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.Name()
	}
	return out
}

func TestCompileIDFilterCasing(t *testing.T) {
	spec := activitySpec(t, filter.Params{IDList: "act1"})
	p := Compile(&spec, nil)
	if got := matchIDs(p, fixtureDocs(t)); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("matched %v, want [ACT1]", got)
	}
}

func TestCompileBitmaskMonotonic(t *testing.T) {
	docs := fixtureDocs(t)

	one := activitySpec(t, filter.Params{Bitmask: map[string]string{"activitytype": "berg"}})
	both := activitySpec(t, filter.Params{Bitmask: map[string]string{"activitytype": "berg,radfahren"}})

	pOne := Compile(&one, nil)
	pBoth := Compile(&both, nil)

	gotOne := matchIDs(pOne, docs)
	gotBoth := matchIDs(pBoth, docs)
	if len(gotBoth) < len(gotOne) {
		t.Errorf("union matched %v, subset matched %v", gotBoth, gotOne)
	}
	for _, id := range gotOne {
		found := false
		for _, other := range gotBoth {
			if id == other {
				found = true
			}
		}
		if !found {
			t.Errorf("id %s matched by subset but not by union", id)
		}
	}
}

func TestCompileLocationLevels(t *testing.T) {
	docs := fixtureDocs(t)

	spec := activitySpec(t, filter.Params{LocFilter: "regREG1,tvsTV1"})
	p := Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 2 {
		t.Errorf("matched %v, want ACT1 and ACT2", got)
	}

	spec = activitySpec(t, filter.Params{AreaFilter: "areAREA2"})
	p = Compile(&spec, []string{"AREA2"})
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT3" {
		t.Errorf("matched %v, want [ACT3]", got)
	}
}

func TestCompileRangeAndFlag(t *testing.T) {
	docs := fixtureDocs(t)

	spec := activitySpec(t, filter.Params{
		Ranges: map[string]filter.RangeParams{
			"altitude": {Enabled: "true", Min: "500", Max: "1000"},
		},
	})
	p := Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("range matched %v, want [ACT1]", got)
	}

	spec = activitySpec(t, filter.Params{Flags: map[string]string{"active": "false"}})
	p = Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT3" {
		t.Errorf("flag matched %v, want [ACT3]", got)
	}
}

func TestCompileSearch(t *testing.T) {
	docs := fixtureDocs(t)

	spec := activitySpec(t, filter.Params{Search: "rosengarten", Language: "de"})
	p := Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("matched %v, want [ACT1]", got)
	}

	// Without a language every supported language's title is searched.
	spec = activitySpec(t, filter.Params{Search: "siusi"})
	p = Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT3" {
		t.Errorf("matched %v, want [ACT3]", got)
	}
}

func TestCompileChangedSince(t *testing.T) {
	docs := fixtureDocs(t)
	spec := activitySpec(t, filter.Params{UpdateFrom: "2024-01-01"})
	p := Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("matched %v, want [ACT1]", got)
	}
}

func TestCompileGeoRadius(t *testing.T) {
	docs := fixtureDocs(t)
	// Bolzano with a 5 km radius reaches ACT1 only.
	spec := activitySpec(t, filter.Params{Latitude: "46.49", Longitude: "11.35", Radius: "5"})
	p := Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("matched %v, want [ACT1]", got)
	}
}

func TestCompileRawFilter(t *testing.T) {
	docs := fixtureDocs(t)
	spec := activitySpec(t, filter.Params{RawFilter: "gt(AltitudeDifference, 500)"})
	p := Compile(&spec, nil)
	if got := matchIDs(p, docs); len(got) != 1 || got[0] != "ACT1" {
		t.Errorf("matched %v, want [ACT1]", got)
	}
}

func TestOrderingSeededReproducible(t *testing.T) {
	var docsA, docsB []domain.Document
	for i := 0; i < 20; i++ {
		d := doc(t, fmt.Sprintf("ID%02d", i), `{}`)
		docsA = append(docsA, d)
		docsB = append(docsB, d)
	}

	spec := activitySpec(t, filter.Params{Seed: "7"})
	o := NewOrdering(&spec)
	if o.Mode() != SeededRandom || o.Seed() != "7" {
		t.Fatalf("mode = %v seed = %q", o.Mode(), o.Seed())
	}

	o.Sort(docsA)
	NewOrdering(&spec).Sort(docsB)
	for i := range docsA {
		if docsA[i].ID != docsB[i].ID {
			t.Fatalf("seeded order not reproducible at %d: %s vs %s", i, docsA[i].ID, docsB[i].ID)
		}
	}

	natural := true
	for i := 1; i < len(docsA); i++ {
		if docsA[i-1].ID > docsA[i].ID {
			natural = false
		}
	}
	if natural {
		t.Error("seeded order equals natural order, hash not applied")
	}
}

func TestOrderingFreshSeed(t *testing.T) {
	spec := activitySpec(t, filter.Params{Seed: "0"})
	o := NewOrdering(&spec)
	if o.Mode() != SeededRandom {
		t.Fatalf("mode = %v", o.Mode())
	}
	if o.Seed() == "" || o.Seed() == "0" {
		t.Errorf("fresh seed not generated, got %q", o.Seed())
	}

	// The reported seed must reproduce the ordering when pinned.
	pinned := activitySpec(t, filter.Params{Seed: o.Seed()})
	docsA := []domain.Document{doc(t, "A", `{}`), doc(t, "B", `{}`), doc(t, "C", `{}`), doc(t, "D", `{}`)}
	docsB := append([]domain.Document(nil), docsA...)
	o.Sort(docsA)
	NewOrdering(&pinned).Sort(docsB)
	for i := range docsA {
		if docsA[i].ID != docsB[i].ID {
			t.Fatalf("fresh seed not reusable at %d", i)
		}
	}
}

func TestOrderingGeoBeatsSeed(t *testing.T) {
	spec := activitySpec(t, filter.Params{
		Seed: "5", Latitude: "46.49", Longitude: "11.35", Radius: "100",
	})
	o := NewOrdering(&spec)
	if o.Mode() != GeoDistance {
		t.Errorf("mode = %v, want GeoDistance", o.Mode())
	}
	if o.Seed() != "" {
		t.Errorf("seed = %q, want empty under geo ordering", o.Seed())
	}

	docs := fixtureDocs(t)
	o.Sort(docs)
	if docs[0].ID != "ACT1" {
		t.Errorf("nearest first = %s, want ACT1", docs[0].ID)
	}
}

func TestOrderingRawSortReplacesAll(t *testing.T) {
	spec := activitySpec(t, filter.Params{
		RawSort: "-AltitudeDifference",
		Seed:    "3",
	})
	o := NewOrdering(&spec)
	if o.Mode() != RawSort {
		t.Fatalf("mode = %v, want RawSort", o.Mode())
	}

	docs := fixtureDocs(t)
	o.Sort(docs)
	if docs[0].ID != "ACT1" || docs[1].ID != "ACT2" {
		t.Errorf("order = %v", []string{docs[0].ID, docs[1].ID, docs[2].ID})
	}
}

func TestOrderingNatural(t *testing.T) {
	spec := activitySpec(t, filter.Params{})
	o := NewOrdering(&spec)
	if o.Mode() != Natural {
		t.Fatalf("mode = %v, want Natural", o.Mode())
	}
	docs := []domain.Document{doc(t, "B", `{}`), doc(t, "A", `{}`)}
	o.Sort(docs)
	if docs[0].ID != "A" {
		t.Errorf("order = %v", []string{docs[0].ID, docs[1].ID})
	}
}
