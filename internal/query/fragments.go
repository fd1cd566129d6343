package query

import (
	"strings"
	"time"

	"github.com/theory/jsonpath"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/filter"
	geodist "github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/jsonval"
	"github.com/kailas-cloud/tourdex/internal/rawquery"
)

// Layouts accepted for the stored last-change timestamp.
var lastChangeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// IDs restricts to an id set. Both sides are already normalized to the
// entity casing rule, so comparison is exact.
func IDs(ids []string) Fragment {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return NewFragment("ids", func(doc domain.Document) bool {
		_, ok := set[doc.ID]
		return ok
	})
}

// Bitmask matches documents whose packed category field shares at least one
// bit with the requested union.
func Bitmask(name string, path *jsonpath.Path, union int64) Fragment {
	return NewFragment("bitmask:"+name, func(doc domain.Document) bool {
		n, ok := jsonval.Number(path, doc.Data)
		if !ok {
			return false
		}
		return int64(n)&union != 0
	})
}

// List matches when the document field (scalar or string array) contains any
// of the tokens, case-insensitively.
func List(name string, path *jsonpath.Path, tokens []string) Fragment {
	want := make([]string, len(tokens))
	for i, tok := range tokens {
		want[i] = strings.ToLower(tok)
	}
	return NewFragment("list:"+name, func(doc domain.Document) bool {
		for _, have := range jsonval.Strings(path, doc.Data) {
			have = strings.ToLower(have)
			for _, w := range want {
				if have == w {
					return true
				}
			}
		}
		return false
	})
}

// Range matches min <= field <= max over a numeric document field.
func Range(name string, path *jsonpath.Path, r filter.Range) Fragment {
	return NewFragment("range:"+name, func(doc domain.Document) bool {
		n, ok := jsonval.Number(path, doc.Data)
		if !ok {
			return false
		}
		return n >= r.Min && n <= r.Max
	})
}

// Flag matches an exact boolean field value.
func Flag(name string, path *jsonpath.Path, want bool) Fragment {
	return NewFragment("flag:"+name, func(doc domain.Document) bool {
		v, ok := jsonval.Bool(path, doc.Data)
		return ok && v == want
	})
}

// Location matches documents tagged at any of the requested administrative
// levels or belonging to any of the resolved areas. A document matches when
// at least one provided level matches, since a document is tagged at one
// level only.
func Location(regions, tvs, municipalities, districts, areaIDs []string) Fragment {
	areaSet := make(map[string]struct{}, len(areaIDs))
	for _, id := range areaIDs {
		areaSet[strings.ToUpper(id)] = struct{}{}
	}
	matchLevel := func(doc domain.Document, path *jsonpath.Path, ids []string) bool {
		if len(ids) == 0 {
			return false
		}
		have, ok := jsonval.First(path, doc.Data)
		if !ok {
			return false
		}
		s, ok := have.(string)
		if !ok {
			return false
		}
		s = strings.ToUpper(s)
		for _, id := range ids {
			if s == id {
				return true
			}
		}
		return false
	}
	return NewFragment("location", func(doc domain.Document) bool {
		if matchLevel(doc, entity.PathRegion, regions) ||
			matchLevel(doc, entity.PathTourismAssociation, tvs) ||
			matchLevel(doc, entity.PathMunicipality, municipalities) ||
			matchLevel(doc, entity.PathDistrict, districts) {
			return true
		}
		if len(areaSet) == 0 {
			return false
		}
		for _, id := range jsonval.Strings(entity.PathAreaIDs, doc.Data) {
			if _, ok := areaSet[strings.ToUpper(id)]; ok {
				return true
			}
		}
		return false
	})
}

// Search matches a case-insensitive substring against the per-language
// title paths, OR'd across the paths.
func Search(paths []*jsonpath.Path, term string) Fragment {
	needle := strings.ToLower(term)
	return NewFragment("search", func(doc domain.Document) bool {
		for _, p := range paths {
			title, ok := jsonval.String(p, doc.Data)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(title), needle) {
				return true
			}
		}
		return false
	})
}

// ChangedSince matches documents whose last-change timestamp is strictly
// after the watermark. Documents without a parseable timestamp do not match.
func ChangedSince(since time.Time) Fragment {
	return NewFragment("changedsince", func(doc domain.Document) bool {
		raw, ok := jsonval.String(entity.PathLastChange, doc.Data)
		if !ok {
			return false
		}
		for _, layout := range lastChangeLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return ts.After(since)
			}
		}
		return false
	})
}

// ClosedData excludes documents whose license marks them as closed.
func ClosedData() Fragment {
	return NewFragment("closeddata", func(doc domain.Document) bool {
		closed, ok := jsonval.Bool(entity.PathClosedData, doc.Data)
		return !ok || !closed
	})
}

// GeoRadius restricts to documents with stored coordinates within the
// radius. The restriction is part of the predicate so that totals reflect
// it; ordering by distance is the ordering engine's concern.
func GeoRadius(g filter.GeoQuery) Fragment {
	return NewFragment("georadius", func(doc domain.Document) bool {
		lat, okLat := jsonval.Number(entity.PathLatitude, doc.Data)
		lon, okLon := jsonval.Number(entity.PathLongitude, doc.Data)
		if !okLat || !okLon {
			return false
		}
		return geodist.Haversine(g.Latitude, g.Longitude, lat, lon) <= g.RadiusKm
	})
}

// Raw wraps a validated raw filter.
func Raw(f *rawquery.Filter) Fragment {
	return NewFragment("rawfilter", func(doc domain.Document) bool {
		return f.Eval(doc.Data)
	})
}

// Compile assembles the predicate for a parsed filter.Spec. areaIDs is the
// resolver's expansion of the area tokens. The closed-data rule is
// appended last, unconditionally, whenever the caller may not see closed
// data.
func Compile(spec *filter.Spec, areaIDs []string) Predicate {
	t := spec.EntityType()
	var b Builder

	if ids := spec.IDs(); len(ids) > 0 {
		b.Add(IDs(ids))
	}
	for param, union := range spec.Bitmasks() {
		if field, ok := t.Bitmask[param]; ok {
			b.Add(Bitmask(param, field.Path, union))
		}
	}
	for param, tokens := range spec.Lists() {
		if path, ok := t.Lists[param]; ok {
			b.Add(List(param, path, tokens))
		}
	}
	for param, r := range spec.Ranges() {
		if path, ok := t.Ranges[param]; ok {
			b.Add(Range(param, path, r))
		}
	}
	for param, want := range spec.Flags() {
		if path, ok := t.Flags[param]; ok {
			b.Add(Flag(param, path, want))
		}
	}
	if t.HasLocation && (len(spec.Regions()) > 0 || len(spec.TourismAssociations()) > 0 ||
		len(spec.Municipalities()) > 0 || len(spec.Districts()) > 0 || len(areaIDs) > 0) {
		b.Add(Location(spec.Regions(), spec.TourismAssociations(), spec.Municipalities(), spec.Districts(), areaIDs))
	}
	if term := spec.Search(); term != "" {
		b.Add(Search(t.TitlePaths(spec.Language()), term))
	}
	if since, ok := spec.UpdatedFrom(); ok {
		b.Add(ChangedSince(since))
	}
	if g := spec.Geo(); g != nil && t.HasGeo {
		b.Add(GeoRadius(*g))
	}
	if raw := spec.RawFilter(); raw != nil {
		b.Add(Raw(raw))
	}
	if spec.FilterClosedData() {
		b.Add(ClosedData())
	}
	return b.Compile()
}
