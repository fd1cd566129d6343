package query

import (
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/filter"
	geodist "github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/jsonval"
	"github.com/kailas-cloud/tourdex/internal/rawquery"
)

// Mode selects the ordering strategy. At most one mode is active per
// request.
type Mode int

const (
	// Natural orders by id ascending.
	Natural Mode = iota
	// SeededRandom orders by a stable seed-keyed hash of the id.
	SeededRandom
	// RawSort orders by a caller-supplied validated sort expression.
	RawSort
	// GeoDistance orders by ascending distance from the query point.
	GeoDistance
)

// Ordering describes how a match set is sorted before slicing.
type Ordering struct {
	mode Mode
	seed string
	raw  *rawquery.Sort
	geo  *filter.GeoQuery
}

// NewOrdering derives the active ordering from a filter.Spec. A raw sort
// replaces every other mode; geo search disables seeded random regardless
// of a supplied seed; seed "0" is replaced by a freshly generated value so
// the caller can reproduce the order.
func NewOrdering(spec *filter.Spec) Ordering {
	if raw := spec.RawSort(); raw != nil {
		return Ordering{mode: RawSort, raw: raw}
	}
	if g := spec.Geo(); g != nil && spec.EntityType().HasGeo {
		return Ordering{mode: GeoDistance, geo: g}
	}
	if seed := spec.Seed(); seed != "" {
		if seed == filter.SeedFresh {
			seed = strconv.Itoa(rand.Intn(filter.SeedMax-filter.SeedMin+1) + filter.SeedMin)
		}
		return Ordering{mode: SeededRandom, seed: seed}
	}
	return Ordering{mode: Natural}
}

// Mode returns the active strategy.
func (o Ordering) Mode() Mode { return o.mode }

// Seed returns the seed in effect, "" when randomization is off. A fresh
// seed generated for "0" is reported here for the result envelope.
func (o Ordering) Seed() string { return o.seed }

// Sort orders docs in place according to the active mode. Ties fall back
// to id order so the result is deterministic.
func (o Ordering) Sort(docs []domain.Document) {
	switch o.mode {
	case SeededRandom:
		keys := make(map[string]uint64, len(docs))
		for _, d := range docs {
			keys[d.ID] = seededKey(o.seed, d.ID)
		}
		sort.Slice(docs, func(i, j int) bool {
			ki, kj := keys[docs[i].ID], keys[docs[j].ID]
			if ki != kj {
				return ki < kj
			}
			return docs[i].ID < docs[j].ID
		})
	case RawSort:
		sort.Slice(docs, func(i, j int) bool {
			if cmp := o.raw.Compare(docs[i].Data, docs[j].Data); cmp != 0 {
				return cmp < 0
			}
			return docs[i].ID < docs[j].ID
		})
	case GeoDistance:
		dist := make(map[string]float64, len(docs))
		for _, d := range docs {
			dist[d.ID] = o.distance(d)
		}
		sort.Slice(docs, func(i, j int) bool {
			di, dj := dist[docs[i].ID], dist[docs[j].ID]
			if di != dj {
				return di < dj
			}
			return docs[i].ID < docs[j].ID
		})
	default:
		sort.Slice(docs, func(i, j int) bool {
			return docs[i].ID < docs[j].ID
		})
	}
}

func (o Ordering) distance(doc domain.Document) float64 {
	lat, okLat := jsonval.Number(entity.PathLatitude, doc.Data)
	lon, okLon := jsonval.Number(entity.PathLongitude, doc.Data)
	if !okLat || !okLon {
		// The radius predicate keeps coordinate-less documents out of geo
		// results; anything that slips through sorts last.
		return geodist.EarthRadiusKm * 10
	}
	return geodist.Haversine(o.geo.Latitude, o.geo.Longitude, lat, lon)
}

// seededKey is a stable hash of seed and id. The same seed yields the same
// relative order for an unchanged dataset across calls and processes.
func seededKey(seed, id string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(seed))
	h.Write([]byte{0})
	h.Write([]byte(id))
	return h.Sum64()
}
