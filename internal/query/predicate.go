// Package query compiles a parsed filter spec into an executable predicate
// and an ordering descriptor. Compilation is pure and deterministic; the
// store layer evaluates the result against decoded documents.
package query

import (
	"github.com/kailas-cloud/tourdex/internal/domain"
)

// Fragment is one independent filter rule. Fragments are combined by
// logical AND and, except for the closed-data rule, commutative.
type Fragment struct {
	name string
	eval func(doc domain.Document) bool
}

// NewFragment wraps an evaluation function under a diagnostic name.
func NewFragment(name string, eval func(doc domain.Document) bool) Fragment {
	return Fragment{name: name, eval: eval}
}

// Name identifies the filter rule that produced the fragment.
func (f Fragment) Name() string { return f.name }

// Match evaluates the fragment against one document.
func (f Fragment) Match(doc domain.Document) bool { return f.eval(doc) }

// Predicate is an ordered conjunction of fragments. The zero value matches
// every document.
type Predicate struct {
	fragments []Fragment
}

// Eval reports whether doc satisfies every fragment.
func (p Predicate) Eval(doc domain.Document) bool {
	for _, f := range p.fragments {
		if !f.eval(doc) {
			return false
		}
	}
	return true
}

// Fragments exposes the compiled rules for inspection in tests and logs.
func (p Predicate) Fragments() []Fragment { return p.fragments }

// Builder accumulates fragments and folds them into a Predicate.
type Builder struct {
	fragments []Fragment
}

// Add appends a fragment. Nil-safe no-op evaluation is not supported;
// callers skip inactive rules instead of adding empty fragments.
func (b *Builder) Add(f Fragment) *Builder {
	b.fragments = append(b.fragments, f)
	return b
}

// Compile folds the accumulated fragments into a predicate. An empty
// builder compiles to match-all.
func (b *Builder) Compile() Predicate {
	return Predicate{fragments: b.fragments}
}
