package mapping

import (
	"github.com/biopragmatics/semra-go/internal/confidence"
	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// subjectPredicateKey indexes mappings by (subject, predicate) for
// transitive chaining lookups.
type subjectPredicateKey struct {
	subject   reference.Reference
	predicate reference.Reference
}

// Index maintains the lookups the inference engine and graph core need
// over a mapping collection: triple key -> mapping (deduplicating by
// identity), plus subject/object/subject-predicate fan-out indexes. All
// indexes are rebuilt from a []Mapping on construction; callers never
// mutate them directly.
type Index struct {
	byTriple          map[evidence.Triple]*Mapping
	bySubject         map[reference.Reference][]*Mapping
	byObject          map[reference.Reference][]*Mapping
	bySubjectPredicate map[subjectPredicateKey][]*Mapping
}

// NewIndex builds an Index over mappings, deduplicating by triple identity
// and unioning evidence sets for any duplicates encountered.
func NewIndex(mappings []*Mapping) *Index {
	idx := &Index{
		byTriple:           make(map[evidence.Triple]*Mapping, len(mappings)),
		bySubject:          make(map[reference.Reference][]*Mapping),
		byObject:           make(map[reference.Reference][]*Mapping),
		bySubjectPredicate: make(map[subjectPredicateKey][]*Mapping),
	}

	for _, m := range mappings {
		idx.insert(m)
	}
	idx.rebuildFanOut()
	return idx
}

func (idx *Index) insert(m *Mapping) {
	key := m.Triple()
	if existing, ok := idx.byTriple[key]; ok {
		idx.byTriple[key] = existing.Union(m)
		return
	}
	idx.byTriple[key] = m
}

func (idx *Index) rebuildFanOut() {
	idx.bySubject = make(map[reference.Reference][]*Mapping, len(idx.byTriple))
	idx.byObject = make(map[reference.Reference][]*Mapping, len(idx.byTriple))
	idx.bySubjectPredicate = make(map[subjectPredicateKey][]*Mapping, len(idx.byTriple))

	for _, m := range idx.byTriple {
		idx.bySubject[m.Subject] = append(idx.bySubject[m.Subject], m)
		idx.byObject[m.Object] = append(idx.byObject[m.Object], m)
		spk := subjectPredicateKey{subject: m.Subject, predicate: m.Predicate}
		idx.bySubjectPredicate[spk] = append(idx.bySubjectPredicate[spk], m)
	}
}

// Get returns the mapping for a triple, if present.
func (idx *Index) Get(t evidence.Triple) (*Mapping, bool) {
	m, ok := idx.byTriple[t]
	return m, ok
}

// BySubject returns every mapping with the given subject.
func (idx *Index) BySubject(r reference.Reference) []*Mapping {
	return idx.bySubject[r]
}

// ByObject returns every mapping with the given object.
func (idx *Index) ByObject(r reference.Reference) []*Mapping {
	return idx.byObject[r]
}

// BySubjectPredicate returns every mapping with the given subject and
// predicate, used by transitive chaining to find (b, p, c) given (a, p, b).
func (idx *Index) BySubjectPredicate(subject, predicate reference.Reference) []*Mapping {
	return idx.bySubjectPredicate[subjectPredicateKey{subject: subject, predicate: predicate}]
}

// Len returns the number of distinct mappings in the index.
func (idx *Index) Len() int { return len(idx.byTriple) }

// Slice returns all mappings in the index, in no particular order.
func (idx *Index) Slice() []*Mapping {
	out := make([]*Mapping, 0, len(idx.byTriple))
	for _, m := range idx.byTriple {
		out = append(out, m)
	}
	return out
}

// AggregateConfidence implements confidence.Resolver by looking up t's
// mapping and aggregating its evidence set, recursing through idx for any
// reasoned evidence's own parents.
func (idx *Index) AggregateConfidence(t evidence.Triple) (float64, bool) {
	m, ok := idx.byTriple[t]
	if !ok {
		return 0, false
	}
	c, err := confidence.Aggregate(m.Evidences.Slice(), idx)
	if err != nil {
		return 0, false
	}
	return c, true
}

var _ confidence.Resolver = (*Index)(nil)
