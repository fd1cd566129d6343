// Package filter turns raw query parameters into a validated, immutable
// description of one list request. All parsing and validation happens here,
// once per request; downstream layers consume typed getters only.
package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/rawquery"
)

// Seed values outside these bounds are rejected. "0" asks for a freshly
// generated seed, echoed back in the result envelope.
const (
	SeedFresh = "0"
	SeedMin   = 1
	SeedMax   = 10
)

// Location token prefixes for the locfilter parameter.
const (
	prefixRegion             = "reg"
	prefixTourismAssociation = "tvs"
	prefixMunicipality       = "mun"
	prefixDistrict           = "fra"
)

// RangeParams is the raw form of one numeric range filter: an explicit
// enabled flag plus min/max values. Min and max are ignored unless enabled.
type RangeParams struct {
	Enabled string
	Min     string
	Max     string
}

// Params carries the raw, untyped query parameters of one list request.
// Bitmask, List, Range and Flag entries are keyed by the parameter names the
// entity registry declares for the requested type.
type Params struct {
	IDList           string
	Bitmask          map[string]string
	Lists            map[string]string
	Ranges           map[string]RangeParams
	Flags            map[string]string
	LocFilter        string
	AreaFilter       string
	Search           string
	Language         string
	UpdateFrom       string
	Seed             string
	Latitude         string
	Longitude        string
	Radius           string
	RawFilter        string
	RawSort          string
	Fields           string
	RemoveNullValues string
	PageNumber       string
	PageSize         string

	// FilterClosedData is derived from the caller's roles by the transport,
	// not from the query string.
	FilterClosedData bool
}

// Range is an enabled numeric range restriction over one document field.
type Range struct {
	Min float64
	Max float64
}

// GeoQuery restricts and orders results around a point.
type GeoQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Spec is a fully parsed list request for one entity type. Built once by
// NewSpec and immutable thereafter.
type Spec struct {
	entityType *entity.Type

	ids       []string
	bitmasks  map[string]int64
	lists     map[string][]string
	ranges    map[string]Range
	flags     map[string]bool

	regions             []string
	tourismAssociations []string
	municipalities      []string
	districts           []string
	areaTokens          []string

	search      string
	language    string
	updatedFrom time.Time
	hasUpdated  bool

	seed     string
	geoQuery *GeoQuery

	rawFilter *rawquery.Filter
	rawSort   *rawquery.Sort

	fields           []string
	removeNullValues bool
	filterClosedData bool

	pageNumber int
	pageSize   int
}

// NewSpec parses and validates params for the given entity type. Any
// malformed value is a validation error naming the offending parameter.
func NewSpec(t *entity.Type, p Params, defaultPageSize, maxPageSize int) (Spec, error) {
	s := Spec{
		entityType:       t,
		filterClosedData: p.FilterClosedData,
	}

	for _, id := range splitList(p.IDList) {
		s.ids = append(s.ids, t.NormalizeID(id))
	}

	s.parseBitmasks(t, p.Bitmask)
	s.parseLists(p.Lists)
	if err := s.parseRanges(p.Ranges); err != nil {
		return Spec{}, err
	}
	if err := s.parseFlags(p.Flags); err != nil {
		return Spec{}, err
	}
	s.parseLocFilter(p.LocFilter)
	s.areaTokens = splitList(p.AreaFilter)

	s.search = strings.TrimSpace(p.Search)

	if p.Language != "" {
		lang := strings.ToLower(p.Language)
		if !entity.IsSupportedLanguage(lang) {
			return Spec{}, domain.Invalidf("language", "unsupported language %q", p.Language)
		}
		s.language = lang
	}

	if p.UpdateFrom != "" {
		ts, err := time.Parse("2006-01-02", p.UpdateFrom)
		if err != nil {
			return Spec{}, domain.Invalidf("updatefrom", "expected yyyy-MM-dd, got %q", p.UpdateFrom)
		}
		s.updatedFrom = ts
		s.hasUpdated = true
	}

	if err := s.parseSeed(p.Seed); err != nil {
		return Spec{}, err
	}
	if err := s.parseGeo(p.Latitude, p.Longitude, p.Radius); err != nil {
		return Spec{}, err
	}

	if p.RawFilter != "" {
		f, err := rawquery.ParseFilter(p.RawFilter)
		if err != nil {
			return Spec{}, domain.Invalidf("rawfilter", "%v", err)
		}
		s.rawFilter = f
	}
	if p.RawSort != "" {
		srt, err := rawquery.ParseSort(p.RawSort)
		if err != nil {
			return Spec{}, domain.Invalidf("rawsort", "%v", err)
		}
		s.rawSort = srt
	}

	s.fields = splitList(p.Fields)
	if p.RemoveNullValues != "" {
		v, err := strconv.ParseBool(p.RemoveNullValues)
		if err != nil {
			return Spec{}, domain.Invalidf("removenullvalues", "expected boolean, got %q", p.RemoveNullValues)
		}
		s.removeNullValues = v
	}

	if err := s.parsePaging(p.PageNumber, p.PageSize, defaultPageSize, maxPageSize); err != nil {
		return Spec{}, err
	}

	return s, nil
}

// parseBitmasks unions the bit values of the named aliases and numeric
// tokens of each bitmask parameter. Unknown aliases contribute nothing, so
// a parameter made up entirely of unknown tokens compiles to no bitmask
// restriction at all, not to an empty match.
func (s *Spec) parseBitmasks(t *entity.Type, raw map[string]string) {
	for param, value := range raw {
		field, ok := t.Bitmask[param]
		if !ok {
			continue
		}
		tokens := splitList(value)
		if len(tokens) == 0 {
			continue
		}
		var union int64
		for _, tok := range tokens {
			if bits, ok := field.Aliases[strings.ToLower(tok)]; ok {
				union |= bits
				continue
			}
			n, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				// Unknown aliases contribute nothing rather than failing
				// the whole request.
				continue
			}
			union |= n
		}
		if union == 0 {
			continue
		}
		if s.bitmasks == nil {
			s.bitmasks = make(map[string]int64)
		}
		s.bitmasks[param] = union
	}
}

func (s *Spec) parseLists(raw map[string]string) {
	for param, value := range raw {
		tokens := splitList(value)
		if len(tokens) == 0 {
			continue
		}
		if s.lists == nil {
			s.lists = make(map[string][]string)
		}
		s.lists[param] = tokens
	}
}

func (s *Spec) parseRanges(raw map[string]RangeParams) error {
	for param, rp := range raw {
		if rp.Enabled == "" {
			continue
		}
		enabled, err := strconv.ParseBool(rp.Enabled)
		if err != nil {
			return domain.Invalidf(param, "expected boolean enable flag, got %q", rp.Enabled)
		}
		if !enabled {
			continue
		}
		min, err := strconv.ParseFloat(rp.Min, 64)
		if err != nil {
			return domain.Invalidf(param, "expected numeric minimum, got %q", rp.Min)
		}
		max, err := strconv.ParseFloat(rp.Max, 64)
		if err != nil {
			return domain.Invalidf(param, "expected numeric maximum, got %q", rp.Max)
		}
		if s.ranges == nil {
			s.ranges = make(map[string]Range)
		}
		s.ranges[param] = Range{Min: min, Max: max}
	}
	return nil
}

func (s *Spec) parseFlags(raw map[string]string) error {
	for param, value := range raw {
		if value == "" {
			continue
		}
		v, err := strconv.ParseBool(value)
		if err != nil {
			return domain.Invalidf(param, "expected boolean, got %q", value)
		}
		if s.flags == nil {
			s.flags = make(map[string]bool)
		}
		s.flags[param] = v
	}
	return nil
}

// parseLocFilter splits locfilter tokens into the four administrative
// levels. Tokens with unknown prefixes are ignored.
func (s *Spec) parseLocFilter(raw string) {
	for _, tok := range splitList(raw) {
		if len(tok) <= 3 {
			continue
		}
		id := strings.ToUpper(tok[3:])
		switch strings.ToLower(tok[:3]) {
		case prefixRegion:
			s.regions = append(s.regions, id)
		case prefixTourismAssociation:
			s.tourismAssociations = append(s.tourismAssociations, id)
		case prefixMunicipality:
			s.municipalities = append(s.municipalities, id)
		case prefixDistrict:
			s.districts = append(s.districts, id)
		}
	}
}

func (s *Spec) parseSeed(raw string) error {
	if raw == "" {
		return nil
	}
	if raw == SeedFresh {
		s.seed = SeedFresh
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < SeedMin || n > SeedMax {
		return domain.Invalidf("seed", "expected 0-%d, got %q", SeedMax, raw)
	}
	s.seed = raw
	return nil
}

func (s *Spec) parseGeo(lat, lon, radius string) error {
	if lat == "" && lon == "" && radius == "" {
		return nil
	}
	if lat == "" || lon == "" || radius == "" {
		return domain.Invalidf("latitude", "latitude, longitude and radius must be supplied together")
	}
	latV, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return domain.Invalidf("latitude", "expected number, got %q", lat)
	}
	lonV, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return domain.Invalidf("longitude", "expected number, got %q", lon)
	}
	radV, err := strconv.ParseFloat(radius, 64)
	if err != nil {
		return domain.Invalidf("radius", "expected number, got %q", radius)
	}
	if !geo.ValidCoordinates(latV, lonV) {
		return domain.Invalidf("latitude", "coordinates out of range")
	}
	if radV <= 0 {
		return domain.Invalidf("radius", "radius must be positive")
	}
	s.geoQuery = &GeoQuery{Latitude: latV, Longitude: lonV, RadiusKm: radV}
	return nil
}

func (s *Spec) parsePaging(pageNumber, pageSize string, def, max int) error {
	s.pageNumber = 1
	s.pageSize = def
	if pageNumber != "" {
		n, err := strconv.Atoi(pageNumber)
		if err != nil || n < 1 {
			return domain.Invalidf("pagenumber", "expected positive integer, got %q", pageNumber)
		}
		s.pageNumber = n
	}
	if pageSize != "" {
		n, err := strconv.Atoi(pageSize)
		if err != nil || n < 1 {
			return domain.Invalidf("pagesize", "expected positive integer, got %q", pageSize)
		}
		if n > max {
			return domain.Invalidf("pagesize", "page size %d exceeds maximum %d", n, max)
		}
		s.pageSize = n
	}
	return nil
}

// splitList splits a comma-separated parameter. Tokens are trimmed, empty
// tokens dropped, so a trailing comma or an all-empty list reads as absent.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// EntityType returns the registry record the request targets.
func (s *Spec) EntityType() *entity.Type { return s.entityType }

// IDs returns the case-normalized id restriction, nil when absent.
func (s *Spec) IDs() []string { return s.ids }

// Bitmasks returns the union bit value per bitmask parameter. A parameter
// whose tokens were all unknown aliases is absent from the map and places
// no restriction on the result set.
func (s *Spec) Bitmasks() map[string]int64 { return s.bitmasks }

// Lists returns the token lists per list parameter.
func (s *Spec) Lists() map[string][]string { return s.lists }

// Ranges returns the enabled numeric ranges per range parameter.
func (s *Spec) Ranges() map[string]Range { return s.ranges }

// Flags returns the tri-state booleans that were explicitly set.
func (s *Spec) Flags() map[string]bool { return s.flags }

// Regions returns region ids from locfilter.
func (s *Spec) Regions() []string { return s.regions }

// TourismAssociations returns tourism association ids from locfilter.
func (s *Spec) TourismAssociations() []string { return s.tourismAssociations }

// Municipalities returns municipality ids from locfilter.
func (s *Spec) Municipalities() []string { return s.municipalities }

// Districts returns district ids from locfilter.
func (s *Spec) Districts() []string { return s.districts }

// AreaTokens returns the unresolved areafilter tokens.
func (s *Spec) AreaTokens() []string { return s.areaTokens }

// Search returns the free-text search term, "" when absent.
func (s *Spec) Search() string { return s.search }

// Language returns the selected language, "" meaning all languages.
func (s *Spec) Language() string { return s.language }

// UpdatedFrom returns the changed-since watermark and whether one was set.
func (s *Spec) UpdatedFrom() (time.Time, bool) { return s.updatedFrom, s.hasUpdated }

// Seed returns the validated seed parameter: "" off, "0" fresh, "1".."10"
// pinned.
func (s *Spec) Seed() string { return s.seed }

// Geo returns the geo restriction, nil when inactive.
func (s *Spec) Geo() *GeoQuery { return s.geoQuery }

// RawFilter returns the compiled raw filter, nil when absent.
func (s *Spec) RawFilter() *rawquery.Filter { return s.rawFilter }

// RawSort returns the compiled raw sort, nil when absent.
func (s *Spec) RawSort() *rawquery.Sort { return s.rawSort }

// Fields returns the projection field list, nil meaning all fields.
func (s *Spec) Fields() []string { return s.fields }

// RemoveNullValues reports whether null stripping was requested.
func (s *Spec) RemoveNullValues() bool { return s.removeNullValues }

// FilterClosedData reports whether closed data must be excluded for this
// caller.
func (s *Spec) FilterClosedData() bool { return s.filterClosedData }

// PageNumber returns the 1-based page number.
func (s *Spec) PageNumber() int { return s.pageNumber }

// PageSize returns the validated page size.
func (s *Spec) PageSize() int { return s.pageSize }
