// Package evidence implements Evidence: the justification for a single
// mapping, either curated ("simple") or derived by the inference engine
// ("reasoned"), each with a stable content-addressed identifier.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"

	"github.com/biopragmatics/semra-go/internal/reference"
)

// Triple is the (subject, predicate, object) identity of a mapping. It is
// how a ReasonedEvidence names its parent mappings, as triple hashes
// rather than object references, without the evidence package depending
// on the mapping package.
type Triple struct {
	Subject   reference.Reference
	Predicate reference.Reference
	Object    reference.Reference
}

func (t Triple) String() string {
	return t.Subject.Curie() + " " + t.Predicate.Curie() + " " + t.Object.Curie()
}

// MappingSet describes the curated collection a simple evidence came from.
type MappingSet struct {
	Name          string
	Version       string
	License       string
	Confidence    float64 // set-level confidence in [0,1], meaningful only if HasConfidence
	HasConfidence bool
}

// Evidence is satisfied by SimpleEvidence and ReasonedEvidence. Hash is the
// stable content-addressed identifier used for deduplication and for
// equality across re-runs.
type Evidence interface {
	Justification() reference.Reference
	Hash() string
	isEvidence()
}

// SimpleEvidence is a curated justification: a match-type justification, a
// base confidence, and optional author/mapping-set provenance.
type SimpleEvidence struct {
	JustificationRef reference.Reference
	Confidence       float64
	Author           reference.Reference // zero value if absent
	Set              *MappingSet         // nil if absent
}

func (e *SimpleEvidence) isEvidence() {}

func (e *SimpleEvidence) Justification() reference.Reference { return e.JustificationRef }

func (e *SimpleEvidence) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "simple\n%s\n%s\n", e.JustificationRef.Curie(), formatFloat(e.Confidence))
	fmt.Fprintf(h, "author:%s\n", e.Author.Curie())
	if e.Set != nil {
		fmt.Fprintf(h, "set:%s|%s|%s|%s\n", e.Set.Name, e.Set.Version, e.Set.License, formatFloat(e.Set.Confidence))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ReasonedEvidence is a derived justification produced by the inference
// engine: a rule name, a derived confidence, and a non-empty ordered list
// of parent mappings it was reasoned from.
type ReasonedEvidence struct {
	JustificationRef reference.Reference
	Confidence       float64
	Parents          []Triple
}

func (e *ReasonedEvidence) isEvidence() {}

func (e *ReasonedEvidence) Justification() reference.Reference { return e.JustificationRef }

func (e *ReasonedEvidence) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "reasoned\n%s\n%s\n", e.JustificationRef.Curie(), formatFloat(e.Confidence))
	for _, p := range e.Parents {
		fmt.Fprintf(h, "parent:%s\n", p.String())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Well-known reasoning justifications.
var (
	JustificationInversion      = reference.New("semra", "inversion")
	JustificationChaining       = reference.New("semra", "chaining")
	JustificationGeneralization = reference.New("semra", "generalization")
	JustificationMutation       = reference.New("semra", "mutation")
	JustificationLexicalMatch   = reference.New("semapv", "LexicalMatchingProcess")
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Set is a deduplicating collection of Evidence keyed by content hash,
// matching its "evidences: non-empty set of Evidence" and the
// deduplication rule "unioned by hash".
type Set struct {
	byHash map[string]Evidence
}

// NewSet creates an empty evidence set.
func NewSet() *Set {
	return &Set{byHash: make(map[string]Evidence)}
}

// NewSetOf creates a set containing the given evidences.
func NewSetOf(evidences ...Evidence) *Set {
	s := NewSet()
	for _, e := range evidences {
		s.Add(e)
	}
	return s
}

// Add inserts e, deduplicating by Hash.
func (s *Set) Add(e Evidence) {
	s.byHash[e.Hash()] = e
}

// Union returns a new set containing every evidence from s and other,
// deduplicated by hash.
func (s *Set) Union(other *Set) *Set {
	merged := NewSet()
	for _, e := range s.byHash {
		merged.Add(e)
	}
	if other != nil {
		for _, e := range other.byHash {
			merged.Add(e)
		}
	}
	return merged
}

// Slice returns the set's evidences in a deterministic order (sorted by
// hash), so callers that iterate get reproducible output.
func (s *Set) Slice() []Evidence {
	hashes := make([]string, 0, len(s.byHash))
	for h := range s.byHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	out := make([]Evidence, len(hashes))
	for i, h := range hashes {
		out[i] = s.byHash[h]
	}
	return out
}

// Len returns the number of distinct evidences in the set.
func (s *Set) Len() int { return len(s.byHash) }

// IsEmpty reports whether the set has no evidences. A mapping's evidence
// set is non-empty at all times; this helper is how callers assert that
// before constructing a Mapping.
func (s *Set) IsEmpty() bool { return len(s.byHash) == 0 }

