// Package prioritizer implements the prioritizer: given
// an equivalence graph and a priority list of prefixes, it reduces every
// connected component to a star rooted at its canonical member, producing
// a functional mapping collection suitable as a lookup table.
package prioritizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/graphcore"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// PriorityList ranks prefixes; earlier entries are higher priority.
type PriorityList []string

// score returns prefix's index in the list, or +Inf if absent.
func (p PriorityList) score(prefix string) float64 {
	for i, listed := range p {
		if listed == prefix {
			return float64(i)
		}
	}
	return math.Inf(1)
}

// canonical picks the lowest-scoring member of members, breaking ties by
// ascending CURIE. members must be non-empty.
func (p PriorityList) canonical(members []reference.Reference) reference.Reference {
	best := members[0]
	bestScore := p.score(best.Prefix)
	for _, r := range members[1:] {
		s := p.score(r.Prefix)
		if s < bestScore || (s == bestScore && r.Curie() < best.Curie()) {
			best, bestScore = r, s
		}
	}
	return best
}

// Run reduces every component of core to a star graph centered on its
// priority-list canonical member, using idx to resolve the aggregate
// confidence of edges along each path. The result has the star-graph
// property: every reference is the subject of at most one
// output mapping.
func Run(core *graphcore.Core, idx *mapping.Index, priority PriorityList) ([]*mapping.Mapping, error) {
	var out []*mapping.Mapping

	for _, component := range core.Components() {
		if len(component) < 2 {
			continue
		}
		canonical := priority.canonical(component)

		for _, r := range component {
			if r.Equal(canonical) {
				continue
			}

			path, err := core.Path(r, canonical)
			if err != nil {
				return nil, fmt.Errorf("prioritizer: %w", err)
			}

			c, parents, err := summarizePath(path, idx)
			if err != nil {
				return nil, fmt.Errorf("prioritizer: %w", err)
			}

			reasoned := evidence.NewSetOf(&evidence.ReasonedEvidence{
				JustificationRef: evidence.JustificationChaining,
				Confidence:       c,
				Parents:          parents,
			})
			m, err := mapping.New(r, predicate.ExactMatch, canonical, reasoned)
			if err != nil {
				return nil, fmt.Errorf("prioritizer: %w", err)
			}
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Subject.Curie() < out[j].Subject.Curie() })
	return out, nil
}

// summarizePath aggregates path's edges by taking the minimum aggregate
// confidence along it, rather than storing the full path as evidence, and
// collects the actual edge triples as reasoned-evidence parents so a
// caller holding idx can still resolve them.
func summarizePath(path []reference.Reference, idx *mapping.Index) (float64, []evidence.Triple, error) {
	min := 1.0
	parents := make([]evidence.Triple, 0, len(path)-1)

	for i := 0; i+1 < len(path); i++ {
		t, c, ok := edgeTriple(path[i], path[i+1], idx)
		if !ok {
			return 0, nil, fmt.Errorf("no resolvable edge between %s and %s", path[i].Curie(), path[i+1].Curie())
		}
		if c < min {
			min = c
		}
		parents = append(parents, t)
	}
	return min, parents, nil
}

// edgeTriple finds which directional, equivalence-predicate triple between
// a and b is actually present in idx, since the graph is undirected but
// mappings are directional.
func edgeTriple(a, b reference.Reference, idx *mapping.Index) (evidence.Triple, float64, bool) {
	for _, p := range graphcore.DefaultEquivalencePredicates {
		if t, c, ok := aggregateIfPresent(idx, a, p, b); ok {
			return t, c, true
		}
		if t, c, ok := aggregateIfPresent(idx, b, p, a); ok {
			return t, c, true
		}
	}
	return evidence.Triple{}, 0, false
}

func aggregateIfPresent(idx *mapping.Index, s, p, o reference.Reference) (evidence.Triple, float64, bool) {
	t := evidence.Triple{Subject: s, Predicate: p, Object: o}
	if _, ok := idx.Get(t); !ok {
		return evidence.Triple{}, 0, false
	}
	c, ok := idx.AggregateConfidence(t)
	return t, c, ok
}
