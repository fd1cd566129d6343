// Package projection transforms stored documents into caller-facing output:
// localization, field selection, license redaction, URL rewriting and
// optional null stripping. Stored documents are never mutated; every
// transform works on a copy.
package projection

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/entity"
	"github.com/kailas-cloud/tourdex/internal/jsonval"
)

// Context carries the per-request projection inputs. It is built by the
// transport from query parameters and gateway headers and never persisted.
type Context struct {
	Language    string
	Fields      []string
	Roles       []string
	LicenseTier string
	// BaseURL is the request's scheme and host, used to absolutize
	// relative media URLs.
	BaseURL          string
	RemoveNullValues bool
}

// HasRole reports whether the caller carries the named role.
func (c *Context) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Projector applies the output transforms in a fixed order.
type Projector struct{}

// NewProjector returns a stateless projector shared across requests.
func NewProjector() *Projector {
	return &Projector{}
}

// Project transforms one document. The second return is false when the
// document is suppressed entirely for this caller; list results omit it
// silently and single fetches surface it as not found.
//
// Language collapse runs before field selection, so with a language set,
// field paths address the collapsed shape: Detail.Title, not
// Detail.de.Title.
func (p *Projector) Project(doc domain.Document, pctx *Context) (map[string]any, bool) {
	if suppressed(doc, pctx) {
		return nil, false
	}

	out := copyMap(doc.Data)
	if pctx.Language != "" {
		out = collapseLanguages(out, pctx.Language).(map[string]any)
	}
	if len(pctx.Fields) > 0 {
		out = selectFields(out, pctx.Fields)
	}
	if !pctx.HasRole(domain.RoleLicensedData) && pctx.LicenseTier != domain.LicenseTierFull {
		redactImageGallery(out)
	}
	if pctx.BaseURL != "" {
		rewriteURLs(out, pctx.BaseURL)
	}
	if pctx.RemoveNullValues {
		stripNulls(out)
	}
	return out, true
}

// suppressed implements document-level license redaction: closed data is
// invisible without the closed-data role.
func suppressed(doc domain.Document, pctx *Context) bool {
	closed, ok := jsonval.Bool(entity.PathClosedData, doc.Data)
	if !ok || !closed {
		return false
	}
	return !pctx.HasRole(domain.RoleClosedData)
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return copyMap(vv)
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// collapseLanguages replaces per-language maps with the selected language's
// value. A map counts as per-language when every key is a supported
// language code.
func collapseLanguages(v any, lang string) any {
	switch vv := v.(type) {
	case map[string]any:
		if isLanguageMap(vv) {
			return collapseLanguages(vv[lang], lang)
		}
		for k, e := range vv {
			vv[k] = collapseLanguages(e, lang)
		}
		return vv
	case []any:
		for i, e := range vv {
			vv[i] = collapseLanguages(e, lang)
		}
		return vv
	default:
		return v
	}
}

func isLanguageMap(m map[string]any) bool {
	if len(m) == 0 {
		return false
	}
	for k := range m {
		if !entity.IsSupportedLanguage(k) {
			return false
		}
	}
	return true
}

// selectFields retains only the requested dot paths, matched
// case-insensitively against the document's actual keys. Bracket indexes
// select single array elements.
func selectFields(doc map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, field := range fields {
		copyPath(doc, out, splitFieldPath(field))
	}
	return out
}

// splitFieldPath splits "Detail.de.Title" or "ImageGallery[0].ImageUrl"
// into traversal steps.
func splitFieldPath(field string) []string {
	var steps []string
	for _, part := range strings.Split(field, ".") {
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				if part != "" {
					steps = append(steps, part)
				}
				break
			}
			if open > 0 {
				steps = append(steps, part[:open])
			}
			closeIdx := strings.IndexByte(part, ']')
			if closeIdx < 0 {
				steps = append(steps, part[open:])
				break
			}
			steps = append(steps, part[open:closeIdx+1])
			part = part[closeIdx+1:]
		}
	}
	return steps
}

// copyPath copies the value at steps from src into dst, preserving the
// document's own key casing along the way.
func copyPath(src, dst map[string]any, steps []string) {
	if len(steps) == 0 {
		return
	}
	key, val, ok := lookupKey(src, steps[0])
	if !ok {
		return
	}
	if len(steps) == 1 {
		dst[key] = val
		return
	}

	next := steps[1]
	if strings.HasPrefix(next, "[") {
		arr, ok := val.([]any)
		if !ok {
			return
		}
		idx, err := strconv.Atoi(strings.Trim(next, "[]"))
		if err != nil || idx < 0 || idx >= len(arr) {
			return
		}
		if len(steps) == 2 {
			dst[key] = []any{arr[idx]}
			return
		}
		inner, ok := arr[idx].(map[string]any)
		if !ok {
			return
		}
		elem := make(map[string]any)
		copyPath(inner, elem, steps[2:])
		dst[key] = []any{elem}
		return
	}

	inner, ok := val.(map[string]any)
	if !ok {
		return
	}
	copyPath(inner, childMap(dst, key), steps[1:])
}

func childMap(dst map[string]any, key string) map[string]any {
	if m, ok := dst[key].(map[string]any); ok {
		return m
	}
	m := make(map[string]any)
	dst[key] = m
	return m
}

// lookupKey finds a key case-insensitively, returning the document's own
// casing.
func lookupKey(m map[string]any, key string) (string, any, bool) {
	if v, ok := m[key]; ok {
		return key, v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return k, v, true
		}
	}
	return "", nil, false
}

// redactImageGallery removes gallery entries whose license is not open.
func redactImageGallery(doc map[string]any) {
	_, val, ok := lookupKey(doc, "ImageGallery")
	if !ok {
		return
	}
	arr, ok := val.([]any)
	if !ok {
		return
	}
	kept := make([]any, 0, len(arr))
	for _, e := range arr {
		entry, ok := e.(map[string]any)
		if !ok {
			kept = append(kept, e)
			continue
		}
		_, lic, ok := lookupKey(entry, "License")
		if !ok {
			kept = append(kept, e)
			continue
		}
		if s, ok := lic.(string); ok && strings.EqualFold(s, domain.LicenseTierOpen) {
			kept = append(kept, e)
		}
	}
	key, _, _ := lookupKey(doc, "ImageGallery")
	doc[key] = kept
}

// rewriteURLs absolutizes relative Self and *Url string values.
func rewriteURLs(v any, baseURL string) {
	switch vv := v.(type) {
	case map[string]any:
		for k, e := range vv {
			if s, ok := e.(string); ok && isURLKey(k) && isRelativeURL(s) {
				vv[k] = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(s, "/")
				continue
			}
			rewriteURLs(e, baseURL)
		}
	case []any:
		for _, e := range vv {
			rewriteURLs(e, baseURL)
		}
	}
}

func isURLKey(key string) bool {
	return strings.EqualFold(key, "Self") || strings.HasSuffix(strings.ToLower(key), "url")
}

func isRelativeURL(s string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	return !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://")
}

// stripNulls removes keys whose value is strictly JSON null. False, zero
// and empty-string values stay.
func stripNulls(v any) {
	switch vv := v.(type) {
	case map[string]any:
		for k, e := range vv {
			if e == nil {
				delete(vv, k)
				continue
			}
			stripNulls(e)
		}
	case []any:
		for _, e := range vv {
			stripNulls(e)
		}
	}
}
