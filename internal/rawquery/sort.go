package rawquery

import (
	"strings"

	"github.com/theory/jsonpath"

	"github.com/kailas-cloud/tourdex/internal/jsonval"
)

// Sort is a validated raw sort specification: one or more JSON paths, each
// ascending or descending, applied in order.
type Sort struct {
	keys []sortKey
}

type sortKey struct {
	path *jsonpath.Path
	desc bool
}

// ParseSort parses a comma-separated list of sort terms. Each term is a
// dotted JSON path, optionally prefixed with "-" for descending order.
func ParseSort(input string) (*Sort, error) {
	var keys []sortKey
	offset := 0
	for _, term := range strings.Split(input, ",") {
		pos := offset
		offset += len(term) + 1

		term = strings.TrimSpace(term)
		if term == "" {
			return nil, parseErrorf(pos, "empty sort term")
		}
		desc := false
		if strings.HasPrefix(term, "-") {
			desc = true
			term = term[1:]
		}
		if term == "" {
			return nil, parseErrorf(pos, "empty sort term")
		}
		path, err := compilePath(term, pos)
		if err != nil {
			return nil, err
		}
		keys = append(keys, sortKey{path: path, desc: desc})
	}
	return &Sort{keys: keys}, nil
}

// Compare orders two documents according to the sort keys. The first key
// that distinguishes the documents decides; equal on all keys returns 0.
func (s *Sort) Compare(a, b map[string]any) int {
	for _, key := range s.keys {
		av, _ := jsonval.First(key.path, a)
		bv, _ := jsonval.First(key.path, b)
		cmp := jsonval.Compare(av, bv)
		if cmp == 0 {
			continue
		}
		if key.desc {
			return -cmp
		}
		return cmp
	}
	return 0
}
