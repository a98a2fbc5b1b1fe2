// Package mapping implements the mapping data model: the (subject,
// predicate, object) triple with its evidence set, and the
// in-memory indexes a mapping collection needs for the inference engine,
// confidence model, and graph core to operate at scale.
package mapping

import (
	"fmt"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// Mapping is a (subject, predicate, object) triple plus a non-empty set of
// evidences. Its identity is the triple, not any particular
// evidence: two mappings with the same triple are the same mapping, and
// constructing one via Union produces a new value with evidence sets
// merged by hash.
type Mapping struct {
	Subject   reference.Reference
	Predicate reference.Reference
	Object    reference.Reference
	Evidences *evidence.Set
}

// New constructs a Mapping, enforcing its invariants: subject and
// object must differ, and the evidence set must be non-empty.
func New(subject, predicate, object reference.Reference, evidences *evidence.Set) (*Mapping, error) {
	if subject.Equal(object) {
		return nil, fmt.Errorf("refusing self-mapping %s", subject.Curie())
	}
	if evidences == nil || evidences.IsEmpty() {
		return nil, fmt.Errorf("mapping %s %s %s has no evidence", subject.Curie(), predicate.Curie(), object.Curie())
	}
	return &Mapping{Subject: subject, Predicate: predicate, Object: object, Evidences: evidences}, nil
}

// Triple returns m's (subject, predicate, object) identity, the form
// evidence.ReasonedEvidence uses to name parent mappings.
func (m *Mapping) Triple() evidence.Triple {
	return evidence.Triple{Subject: m.Subject, Predicate: m.Predicate, Object: m.Object}
}

// Union returns a new Mapping with the same triple and the union of m's and
// other's evidence sets. Panics if other's triple differs from m's — that
// is a caller bug, not a runtime condition (two mappings are only unioned
// because they were already matched by triple identity).
func (m *Mapping) Union(other *Mapping) *Mapping {
	if m.Triple() != other.Triple() {
		panic(fmt.Sprintf("cannot union mappings with different triples: %s vs %s", m.Triple(), other.Triple()))
	}
	return &Mapping{
		Subject:   m.Subject,
		Predicate: m.Predicate,
		Object:    m.Object,
		Evidences: m.Evidences.Union(other.Evidences),
	}
}

func (m *Mapping) String() string {
	return fmt.Sprintf("%s %s %s", m.Subject.Curie(), m.Predicate.Curie(), m.Object.Curie())
}
