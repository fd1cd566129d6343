package chi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/domain/filter"
	"github.com/kailas-cloud/tourdex/internal/domain/page"
	"github.com/kailas-cloud/tourdex/internal/projection"
)

// Identity headers set by the gateway. Authentication itself happens
// upstream; the transport only maps headers onto domain inputs.
const (
	headerRoles       = "X-Roles"
	headerLicenseTier = "X-License-Tier"
)

// identity is the caller's pre-authorized role and license set.
type identity struct {
	roles       []string
	licenseTier string
}

func identityFromRequest(r *http.Request) identity {
	id := identity{licenseTier: domain.LicenseTierOpen}
	if tier := r.Header.Get(headerLicenseTier); tier != "" {
		id.licenseTier = strings.ToLower(tier)
	}
	for _, role := range strings.Split(r.Header.Get(headerRoles), ",") {
		if role = strings.TrimSpace(role); role != "" {
			id.roles = append(id.roles, role)
		}
	}
	return id
}

func (id identity) hasRole(role string) bool {
	for _, r := range id.roles {
		if r == role {
			return true
		}
	}
	return false
}

// filterParamsFromRequest maps the query string onto raw filter params. The
// bitmask, list, range and flag parameter names come from the entity
// registry, so unknown parameters are simply not read.
func filterParamsFromRequest(r *http.Request, t *entity.Type, id identity) filter.Params {
	q := r.URL.Query()

	p := filter.Params{
		IDList:           q.Get("idlist"),
		LocFilter:        q.Get("locfilter"),
		AreaFilter:       q.Get("areafilter"),
		Search:           q.Get("searchfilter"),
		Language:         q.Get("language"),
		UpdateFrom:       q.Get("updatefrom"),
		Seed:             q.Get("seed"),
		Latitude:         q.Get("latitude"),
		Longitude:        q.Get("longitude"),
		Radius:           q.Get("radius"),
		RawFilter:        q.Get("rawfilter"),
		RawSort:          q.Get("rawsort"),
		Fields:           q.Get("fields"),
		RemoveNullValues: q.Get("removenullvalues"),
		PageNumber:       q.Get("pagenumber"),
		PageSize:         q.Get("pagesize"),
		FilterClosedData: !id.hasRole(domain.RoleClosedData),
	}

	for param := range t.Bitmask {
		if v := q.Get(param); v != "" {
			if p.Bitmask == nil {
				p.Bitmask = make(map[string]string)
			}
			p.Bitmask[param] = v
		}
	}
	for param := range t.Lists {
		if v := q.Get(param); v != "" {
			if p.Lists == nil {
				p.Lists = make(map[string]string)
			}
			p.Lists[param] = v
		}
	}
	for param := range t.Ranges {
		rp := filter.RangeParams{
			Enabled: q.Get(param + "filter"),
			Min:     q.Get(param + "min"),
			Max:     q.Get(param + "max"),
		}
		if rp.Enabled != "" {
			if p.Ranges == nil {
				p.Ranges = make(map[string]filter.RangeParams)
			}
			p.Ranges[param] = rp
		}
	}
	for param := range t.Flags {
		if v := q.Get(param); v != "" {
			if p.Flags == nil {
				p.Flags = make(map[string]string)
			}
			p.Flags[param] = v
		}
	}
	return p
}

// projectionContextFromSpec assembles the per-request projection inputs.
func projectionContextFromSpec(r *http.Request, spec *filter.Spec, id identity) *projection.Context {
	return &projection.Context{
		Language:         spec.Language(),
		Fields:           spec.Fields(),
		Roles:            id.roles,
		LicenseTier:      id.licenseTier,
		BaseURL:          baseURL(r),
		RemoveNullValues: spec.RemoveNullValues(),
	}
}

// baseURL reconstructs the request's external scheme and host, honoring the
// gateway's forwarding headers.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

// pageLinks builds the navigation links for a result page from the current
// request URL, varying only the pagenumber parameter.
func pageLinks(r *http.Request, pageNumber, totalPages int) page.Links {
	withPage := func(n int) string {
		u := *r.URL
		q := u.Query()
		q.Set("pagenumber", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return baseURL(r) + u.RequestURI()
	}

	links := page.Links{
		Self:  baseURL(r) + r.URL.RequestURI(),
		First: withPage(1),
	}
	if totalPages > 0 {
		links.Last = withPage(totalPages)
	}
	if pageNumber > 1 && totalPages > 0 {
		prev := pageNumber - 1
		if prev > totalPages {
			prev = totalPages
		}
		links.Prev = withPage(prev)
	}
	if pageNumber < totalPages {
		links.Next = withPage(pageNumber + 1)
	}
	return links
}

