// Package entity holds the static registry of queryable entity types.
//
// Every type is persisted the same way (one JSON document per id inside a
// per-type table); what differs is the id casing rule, which bitmask alias
// tables apply, and where the filterable fields live inside the document.
// The registry is resolved once at process start and never mutated, so
// concurrent reads need no synchronization.
package entity

import (
	"strings"

	"github.com/theory/jsonpath"
)

// IDStyle is the fixed id casing rule of an entity type.
type IDStyle int

const (
	// Uppercase ids are stored and matched upper-cased.
	Uppercase IDStyle = iota
	// Lowercase ids are stored and matched lower-cased.
	Lowercase
)

// Apply normalizes an id to the style's casing.
func (s IDStyle) Apply(id string) string {
	if s == Lowercase {
		return strings.ToLower(id)
	}
	return strings.ToUpper(id)
}

// Languages is the fixed set of supported content languages.
var Languages = []string{"de", "it", "en"}

// IsSupportedLanguage reports whether lang is a member of Languages.
func IsSupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// BitmaskField describes one packed category field: where the stored integer
// lives and which named aliases map to which bit values.
type BitmaskField struct {
	Path    *jsonpath.Path
	Aliases map[string]int64
}

// Type is the immutable per-entity record driving the generic query engine.
type Type struct {
	Name    string
	Table   string
	IDStyle IDStyle

	// Bitmask maps a query parameter name to its packed category field.
	Bitmask map[string]BitmaskField
	// Ranges maps a range parameter name to the numeric document field.
	Ranges map[string]*jsonpath.Path
	// Flags maps a tri-state boolean parameter name to the document field.
	Flags map[string]*jsonpath.Path
	// Lists maps a membership-list parameter name to the document field
	// (scalar or string array).
	Lists map[string]*jsonpath.Path

	// HasLocation enables the hierarchical location filter.
	HasLocation bool
	// HasGeo enables geo-distance search over the shared GPS paths.
	HasGeo bool

	titlePaths map[string]*jsonpath.Path
}

// TitlePaths returns the per-language title paths searched by the free-text
// filter. With a language it returns just that language's path; with an
// empty language all supported languages are returned.
func (t *Type) TitlePaths(lang string) []*jsonpath.Path {
	if lang != "" {
		if p, ok := t.titlePaths[lang]; ok {
			return []*jsonpath.Path{p}
		}
		return nil
	}
	paths := make([]*jsonpath.Path, 0, len(Languages))
	for _, l := range Languages {
		if p, ok := t.titlePaths[l]; ok {
			paths = append(paths, p)
		}
	}
	return paths
}

// NormalizeID applies the type's fixed casing rule to a caller-supplied id.
func (t *Type) NormalizeID(id string) string {
	return t.IDStyle.Apply(id)
}

// Shared document paths used by every entity type.
var (
	PathLastChange         = jsonpath.MustParse("$.LastChange")
	PathClosedData         = jsonpath.MustParse("$.LicenseInfo.ClosedData")
	PathAreaIDs            = jsonpath.MustParse("$.AreaIds")
	PathDistrict           = jsonpath.MustParse("$.LocationInfo.DistrictInfo.Id")
	PathMunicipality       = jsonpath.MustParse("$.LocationInfo.MunicipalityInfo.Id")
	PathTourismAssociation = jsonpath.MustParse("$.LocationInfo.TvInfo.Id")
	PathRegion             = jsonpath.MustParse("$.LocationInfo.RegionInfo.Id")
	PathLatitude           = jsonpath.MustParse("$.GpsInfo[0].Latitude")
	PathLongitude          = jsonpath.MustParse("$.GpsInfo[0].Longitude")
)

func titlePaths(detailField, titleField string) map[string]*jsonpath.Path {
	m := make(map[string]*jsonpath.Path, len(Languages))
	for _, lang := range Languages {
		m[lang] = jsonpath.MustParse("$." + detailField + "." + lang + "." + titleField)
	}
	return m
}

// langKeyedPaths covers fields that are a plain language map of strings
// (e.g. TagName.de) rather than a nested detail object.
func langKeyedPaths(field string) map[string]*jsonpath.Path {
	m := make(map[string]*jsonpath.Path, len(Languages))
	for _, lang := range Languages {
		m[lang] = jsonpath.MustParse("$." + field + "." + lang)
	}
	return m
}

var registry = buildRegistry()

func buildRegistry() map[string]*Type {
	types := []*Type{
		{
			Name:    "activity",
			Table:   "activities",
			IDStyle: Uppercase,
			Bitmask: map[string]BitmaskField{
				"activitytype": {
					Path: jsonpath.MustParse("$.TypeBitmask"),
					Aliases: map[string]int64{
						"berg": 1, "radfahren": 2, "stadtrundgang": 4,
						"pferdesport": 8, "wandern": 16, "laufen": 32,
						"loipen": 64, "rodelbahnen": 128, "piste": 256,
						"aufstiegsanlagen": 512,
					},
				},
			},
			Ranges: map[string]*jsonpath.Path{
				"distance": jsonpath.MustParse("$.DistanceLength"),
				"duration": jsonpath.MustParse("$.DistanceDuration"),
				"altitude": jsonpath.MustParse("$.AltitudeDifference"),
			},
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
				"highlight": jsonpath.MustParse("$.Highlight"),
			},
			Lists: map[string]*jsonpath.Path{
				"difficulty":   jsonpath.MustParse("$.Difficulty"),
				"odhtagfilter": jsonpath.MustParse("$.SmgTags"),
				"source":       jsonpath.MustParse("$.Source"),
			},
			HasLocation: true,
			HasGeo:      true,
			titlePaths:  titlePaths("Detail", "Title"),
		},
		{
			Name:    "accommodation",
			Table:   "accommodations",
			IDStyle: Uppercase,
			Bitmask: map[string]BitmaskField{
				"typefilter": {
					Path: jsonpath.MustParse("$.TypeBitmask"),
					Aliases: map[string]int64{
						"hotelpension": 1, "bedbreakfast": 2, "farm": 4,
						"camping": 8, "youth": 16, "mountain": 32,
						"apartment": 64, "notdefined": 128,
					},
				},
				"categoryfilter": {
					Path: jsonpath.MustParse("$.CategoryBitmask"),
					Aliases: map[string]int64{
						"notcategorized": 1, "1star": 2, "2stars": 4,
						"3stars": 8, "4stars": 16, "4sstars": 32, "5stars": 64,
					},
				},
				"featurefilter": {
					Path: jsonpath.MustParse("$.FeatureBitmask"),
					Aliases: map[string]int64{
						"dogs": 1, "wellness": 2, "pool": 4, "bike": 8,
						"childcare": 16, "guestcard": 32,
					},
				},
			},
			Ranges: map[string]*jsonpath.Path{
				"altitude": jsonpath.MustParse("$.Altitude"),
			},
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
				"apartment": jsonpath.MustParse("$.HasApartment"),
				"bookable":  jsonpath.MustParse("$.IsBookable"),
			},
			Lists: map[string]*jsonpath.Path{
				"boardfilter":  jsonpath.MustParse("$.BoardIds"),
				"badgefilter":  jsonpath.MustParse("$.BadgeIds"),
				"odhtagfilter": jsonpath.MustParse("$.SmgTags"),
			},
			HasLocation: true,
			HasGeo:      true,
			titlePaths:  titlePaths("AccoDetail", "Name"),
		},
		{
			Name:    "event",
			Table:   "events",
			IDStyle: Uppercase,
			Bitmask: map[string]BitmaskField{
				"topicfilter": {
					Path: jsonpath.MustParse("$.TopicBitmask"),
					Aliases: map[string]int64{
						"tanz": 1, "musik": 2, "sport": 4, "kultur": 8,
						"volksfest": 16, "wanderung": 32, "messe": 64,
						"kulinarik": 128,
					},
				},
			},
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
			},
			Lists: map[string]*jsonpath.Path{
				"orgfilter":    jsonpath.MustParse("$.OrgRID"),
				"rancfilter":   jsonpath.MustParse("$.Ranc"),
				"odhtagfilter": jsonpath.MustParse("$.SmgTags"),
				"source":       jsonpath.MustParse("$.Source"),
			},
			HasLocation: true,
			HasGeo:      true,
			titlePaths:  titlePaths("Detail", "Title"),
		},
		{
			Name:    "venue",
			Table:   "venues",
			IDStyle: Uppercase,
			Bitmask: map[string]BitmaskField{
				"categoryfilter": {
					Path: jsonpath.MustParse("$.CategoryBitmask"),
					Aliases: map[string]int64{
						"congress": 1, "seminar": 2, "concert": 4,
						"banquet": 8, "exhibition": 16, "openair": 32,
					},
				},
				"featurefilter": {
					Path: jsonpath.MustParse("$.FeatureBitmask"),
					Aliases: map[string]int64{
						"stage": 1, "catering": 2, "projector": 4,
						"soundsystem": 8, "accessible": 16, "parking": 32,
					},
				},
			},
			Ranges: map[string]*jsonpath.Path{
				"capacity":  jsonpath.MustParse("$.Capacity"),
				"roomcount": jsonpath.MustParse("$.RoomCount"),
			},
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
			},
			Lists: map[string]*jsonpath.Path{
				"odhtagfilter": jsonpath.MustParse("$.SmgTags"),
				"source":       jsonpath.MustParse("$.Source"),
			},
			HasLocation: true,
			HasGeo:      true,
			titlePaths:  titlePaths("Detail", "Title"),
		},
		{
			Name:    "article",
			Table:   "articles",
			IDStyle: Uppercase,
			Bitmask: map[string]BitmaskField{
				"articletype": {
					Path: jsonpath.MustParse("$.TypeBitmask"),
					Aliases: map[string]int64{
						"basisartikel": 1, "buchtipp": 2, "contentartikel": 4,
						"veranstaltungsartikel": 8, "presseartikel": 16,
						"rezept": 32, "b2bartikel": 64,
					},
				},
			},
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
				"highlight": jsonpath.MustParse("$.Highlight"),
			},
			Lists: map[string]*jsonpath.Path{
				"odhtagfilter": jsonpath.MustParse("$.SmgTags"),
				"source":       jsonpath.MustParse("$.Source"),
			},
			titlePaths: titlePaths("Detail", "Title"),
		},
		{
			Name:    "odhactivitypoi",
			Table:   "smgpois",
			IDStyle: Lowercase,
			Bitmask: map[string]BitmaskField{
				"type": {
					Path: jsonpath.MustParse("$.TypeBitmask"),
					Aliases: map[string]int64{
						"wellness": 1, "winter": 2, "sommer": 4, "kultur": 8,
						"gastronomie": 16, "mobilitaet": 32, "shops": 64,
						"anderes": 128,
					},
				},
			},
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
				"highlight": jsonpath.MustParse("$.Highlight"),
			},
			Lists: map[string]*jsonpath.Path{
				"odhtagfilter": jsonpath.MustParse("$.SmgTags"),
				"source":       jsonpath.MustParse("$.Source"),
			},
			HasLocation: true,
			HasGeo:      true,
			titlePaths:  titlePaths("Detail", "Title"),
		},
		{
			Name:    "webcam",
			Table:   "webcams",
			IDStyle: Uppercase,
			Flags: map[string]*jsonpath.Path{
				"active":    jsonpath.MustParse("$.Active"),
				"odhactive": jsonpath.MustParse("$.SmgActive"),
			},
			Lists: map[string]*jsonpath.Path{
				"source": jsonpath.MustParse("$.Source"),
			},
			HasGeo:     true,
			titlePaths: titlePaths("Detail", "Title"),
		},
		{
			Name:    "tag",
			Table:   "tags",
			IDStyle: Lowercase,
			Lists: map[string]*jsonpath.Path{
				"validforentity": jsonpath.MustParse("$.ValidForEntity"),
				"source":         jsonpath.MustParse("$.Source"),
			},
			titlePaths: langKeyedPaths("TagName"),
		},
	}
	m := make(map[string]*Type, len(types))
	for _, t := range types {
		m[t.Name] = t
	}
	return m
}

// Lookup returns the registered entity type by name.
func Lookup(name string) (*Type, bool) {
	t, ok := registry[strings.ToLower(name)]
	return t, ok
}

// Names returns the registered type names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	return names
}
