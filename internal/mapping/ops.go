package mapping

import (
	"github.com/biopragmatics/semra-go/internal/confidence"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// Deduplicate collapses mappings with identical triples, unioning evidence
// sets by hash. It is idempotent and commutative over
// concatenation.
func Deduplicate(mappings []*Mapping) []*Mapping {
	return NewIndex(mappings).Slice()
}

// FilterPredicates keeps mappings whose predicate is in allowed.
func FilterPredicates(mappings []*Mapping, allowed []reference.Reference) []*Mapping {
	set := make(map[reference.Reference]struct{}, len(allowed))
	for _, p := range allowed {
		set[p] = struct{}{}
	}

	out := make([]*Mapping, 0, len(mappings))
	for _, m := range mappings {
		if _, ok := set[m.Predicate]; ok {
			out = append(out, m)
		}
	}
	return out
}

// PrefixFilter configures FilterPrefixes. Keep and Remove
// are composable: Keep is applied first (if non-empty, acts as an
// allowlist), then Remove drops any remaining matches (a denylist).
// Side (PrefixSource, PrefixTarget, or PrefixEither) selects whether the
// prefix test applies to the subject, the object, or either.
type PrefixFilter struct {
	Keep   []string
	Remove []string
	Side   PrefixSide
}

// PrefixSide selects which end of a mapping a PrefixFilter inspects.
type PrefixSide int

const (
	// PrefixEither matches if either the subject or the object has the prefix.
	PrefixEither PrefixSide = iota
	// PrefixSource matches only the subject's prefix.
	PrefixSource
	// PrefixTarget matches only the object's prefix.
	PrefixTarget
)

func (f PrefixFilter) matchesSide(m *Mapping, prefixes map[string]struct{}) bool {
	_, subjectMatch := prefixes[m.Subject.Prefix]
	_, objectMatch := prefixes[m.Object.Prefix]

	switch f.Side {
	case PrefixSource:
		return subjectMatch
	case PrefixTarget:
		return objectMatch
	default:
		return subjectMatch || objectMatch
	}
}

// FilterPrefixes keeps/removes mappings by subject or object prefix.
func FilterPrefixes(mappings []*Mapping, f PrefixFilter) []*Mapping {
	keep := toSet(f.Keep)
	remove := toSet(f.Remove)

	out := make([]*Mapping, 0, len(mappings))
	for _, m := range mappings {
		if len(keep) > 0 && !f.matchesSide(m, keep) {
			continue
		}
		if len(remove) > 0 && f.matchesSide(m, remove) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func toSet(prefixes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		set[p] = struct{}{}
	}
	return set
}

// FilterSelfMappings drops subject==object mappings. New already refuses to
// construct these, so this is a defensive pass over mappings from sources
// that may not go through New.
func FilterSelfMappings(mappings []*Mapping) []*Mapping {
	out := make([]*Mapping, 0, len(mappings))
	for _, m := range mappings {
		if !m.Subject.Equal(m.Object) {
			out = append(out, m)
		}
	}
	return out
}

// FilterMinConfidence drops mappings whose aggregate confidence, computed
// via resolver, is below tau. Mappings whose confidence cannot be computed
// (e.g. a reasoned evidence with an unresolvable parent) are dropped. An
// *Index satisfies confidence.Resolver, so callers typically pass idx for
// both the mapping collection and the resolver.
func FilterMinConfidence(mappings []*Mapping, resolver confidence.Resolver, tau float64) []*Mapping {
	out := make([]*Mapping, 0, len(mappings))
	for _, m := range mappings {
		c, ok := resolver.AggregateConfidence(m.Triple())
		if !ok {
			continue
		}
		if c >= tau {
			out = append(out, m)
		}
	}
	return out
}

// Project returns mappings whose subject has sourcePrefix and object has
// targetPrefix. If reg is non-nil, it also considers the inverse of any
// mapping running the opposite direction (object has sourcePrefix, subject
// has targetPrefix) through an invertible predicate — "applying
// infer_reversible" — without requiring the inference
// engine to have already materialized that inverse mapping in idx.
func Project(idx *Index, sourcePrefix, targetPrefix string, reg *predicate.Registry) []*Mapping {
	out := make([]*Mapping, 0)
	seen := make(map[[3]string]struct{})

	add := func(m *Mapping) {
		key := [3]string{m.Subject.Curie(), m.Predicate.Curie(), m.Object.Curie()}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}

	for _, m := range idx.Slice() {
		if m.Subject.Prefix == sourcePrefix && m.Object.Prefix == targetPrefix {
			add(m)
			continue
		}
		if reg == nil {
			continue
		}
		if m.Subject.Prefix == targetPrefix && m.Object.Prefix == sourcePrefix {
			if inv, ok := reg.Inverse(m.Predicate); ok {
				reversed, err := New(m.Object, inv, m.Subject, m.Evidences)
				if err == nil {
					add(reversed)
				}
			}
		}
	}
	return out
}
