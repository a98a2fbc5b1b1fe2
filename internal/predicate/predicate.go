// Package predicate implements the dynamic predicate metadata table:
// symmetry, transitivity, and generalization are never hardcoded on a
// type hierarchy, only consulted through this table, so that a new
// predicate can be added with a single registration call.
package predicate

import (
	"sync"

	"github.com/biopragmatics/semra-go/internal/reference"
)

// Well-known predicates recognized by the core.
var (
	ExactMatch     = reference.New("semapv", "exactMatch")
	BroadMatch     = reference.New("semapv", "broadMatch")
	NarrowMatch    = reference.New("semapv", "narrowMatch")
	CloseMatch     = reference.New("semapv", "closeMatch")
	RelatedMatch   = reference.New("semapv", "relatedMatch")
	EquivalentTo   = reference.New("owl", "equivalentClass")
	ReplacedBy     = reference.New("iao", "replacedBy")
	DbXref         = reference.New("oboInOwl", "hasDbXref")
)

// Metadata describes the logical properties of a predicate.
type Metadata struct {
	Symmetric     bool
	Transitive    bool
	Inverse       reference.Reference // zero value if none
	GeneralizesTo reference.Reference // zero value if none
}

func (m Metadata) hasInverse() bool       { return !m.Inverse.IsZero() }
func (m Metadata) hasGeneralization() bool { return !m.GeneralizesTo.IsZero() }

// opaque is the default for any predicate with no table entry: none of
// symmetric, transitive, inverse, or generalizes-to apply. An unknown
// predicate is always treated as opaque.
var opaque = Metadata{}

// Registry holds the table mapping predicates to their metadata. The zero
// Registry is not usable; construct one with NewRegistry or Default.
type Registry struct {
	mu    sync.RWMutex
	table map[reference.Reference]Metadata
}

// NewRegistry creates an empty registry. Every predicate not explicitly
// registered behaves as opaque.
func NewRegistry() *Registry {
	return &Registry{table: make(map[reference.Reference]Metadata)}
}

// Default returns a registry preloaded with the core vocabulary from
// its predicate table.
func Default() *Registry {
	r := NewRegistry()

	r.Register(ExactMatch, Metadata{Symmetric: true, Transitive: true})
	r.Register(BroadMatch, Metadata{Inverse: NarrowMatch, GeneralizesTo: RelatedMatch})
	r.Register(NarrowMatch, Metadata{Inverse: BroadMatch, GeneralizesTo: RelatedMatch})
	r.Register(CloseMatch, Metadata{Symmetric: true, GeneralizesTo: RelatedMatch})
	r.Register(RelatedMatch, Metadata{Symmetric: true})
	r.Register(EquivalentTo, Metadata{Symmetric: true, Transitive: true, GeneralizesTo: ExactMatch})
	r.Register(ReplacedBy, Metadata{Transitive: true})
	// dbXref is undirected in practice: symmetric for inversion but never
	// transitive, since a cross-reference chain doesn't imply equivalence.
	r.Register(DbXref, Metadata{Symmetric: true})

	return r
}

// Register adds or replaces a predicate's metadata. Adding a new predicate
// requires only this call.
func (r *Registry) Register(p reference.Reference, m Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table[p] = m
}

// Lookup returns the metadata for p, or the opaque default if p was never
// registered.
func (r *Registry) Lookup(p reference.Reference) Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if m, ok := r.table[p]; ok {
		return m
	}
	return opaque
}

// IsSymmetric reports whether p is its own inverse.
func (r *Registry) IsSymmetric(p reference.Reference) bool {
	return r.Lookup(p).Symmetric
}

// IsTransitive reports whether p may be chained.
func (r *Registry) IsTransitive(p reference.Reference) bool {
	return r.Lookup(p).Transitive
}

// Inverse returns p's inverse predicate and whether one is defined. A
// symmetric predicate is its own inverse.
func (r *Registry) Inverse(p reference.Reference) (reference.Reference, bool) {
	m := r.Lookup(p)
	if m.Symmetric {
		return p, true
	}
	if m.hasInverse() {
		return m.Inverse, true
	}
	return reference.Reference{}, false
}

// GeneralizesTo returns the more general predicate p generalizes to, if any.
func (r *Registry) GeneralizesTo(p reference.Reference) (reference.Reference, bool) {
	m := r.Lookup(p)
	if m.hasGeneralization() {
		return m.GeneralizesTo, true
	}
	return reference.Reference{}, false
}

// Known reports whether p has an explicit table entry.
func (r *Registry) Known(p reference.Reference) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.table[p]
	return ok
}
