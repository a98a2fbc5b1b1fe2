// Package landscape implements the landscape analyzer:
// pairwise overlap between vocabularies, the gain mapping contributes over
// a raw baseline, and a unique-entity estimate across a fixed prefix set.
package landscape

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/biopragmatics/semra-go/internal/graphcore"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// Matrix is a prefix x prefix value table, indexed [subjectPrefix][objectPrefix].
type Matrix map[string]map[string]float64

func newMatrix(prefixes []string) Matrix {
	m := make(Matrix, len(prefixes))
	for _, p := range prefixes {
		m[p] = make(map[string]float64, len(prefixes))
	}
	return m
}

// Get returns m[p][q], defaulting to 0 if either prefix is absent.
func (m Matrix) Get(p, q string) float64 {
	row, ok := m[p]
	if !ok {
		return 0
	}
	return row[q]
}

// Overlap computes the pairwise overlap matrix O[p][q]: the count of
// distinct subjects with prefix p that have at least one exactMatch
// mapping to an object with prefix q, for p, q in prefixes. The diagonal
// is set to termCounts[p].
func Overlap(mappings []*mapping.Mapping, prefixes []string, termCounts map[string]int) Matrix {
	O := newMatrix(prefixes)
	allowed := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		allowed[p] = struct{}{}
	}

	seen := make(map[[2]string]map[string]struct{}) // (subjectPrefix, objectPrefix) -> distinct subject CURIEs
	for _, m := range mappings {
		if m.Predicate != predicate.ExactMatch {
			continue
		}
		sp, op := m.Subject.Prefix, m.Object.Prefix
		if _, ok := allowed[sp]; !ok {
			continue
		}
		if _, ok := allowed[op]; !ok {
			continue
		}
		key := [2]string{sp, op}
		if seen[key] == nil {
			seen[key] = make(map[string]struct{})
		}
		seen[key][m.Subject.Curie()] = struct{}{}
	}

	for key, subjects := range seen {
		O[key[0]][key[1]] = float64(len(subjects))
	}
	for _, p := range prefixes {
		O[p][p] = float64(termCounts[p])
	}
	return O
}

// Gains computes processed - raw, element-wise, over the same prefix set.
func Gains(processed, raw Matrix, prefixes []string) Matrix {
	g := newMatrix(prefixes)
	for _, p := range prefixes {
		for _, q := range prefixes {
			g[p][q] = processed.Get(p, q) - raw.Get(p, q)
		}
	}
	return g
}

// PercentGains computes 100*gains/raw, with +Inf for a 0 -> nonzero
// transition and NaN for 0 -> 0.
func PercentGains(gains, raw Matrix, prefixes []string) Matrix {
	pg := newMatrix(prefixes)
	for _, p := range prefixes {
		for _, q := range prefixes {
			r := raw.Get(p, q)
			g := gains.Get(p, q)
			switch {
			case r == 0 && g == 0:
				pg[p][q] = math.NaN()
			case r == 0:
				pg[p][q] = math.Inf(1)
			default:
				pg[p][q] = 100 * g / r
			}
		}
	}
	return pg
}

// UniqueEntities is the unique-entity estimate and its supporting figures.
type UniqueEntities struct {
	// Count is the total unique-entity estimate: connected components
	// restricted to prefixes, plus singletons per prefix never touched by
	// an equivalence mapping.
	Count int
	// Singletons maps a prefix to the count of its terms never reached by
	// any equivalence-predicate mapping.
	Singletons map[string]int
	// ReductionRatio is (total_terms - Count) / total_terms.
	ReductionRatio float64
}

// EstimateUniqueEntities restricts core's components to nodes whose prefix
// is in prefixes, counts them, and adds per-prefix singletons: terms never
// entering the equivalence graph at all (termCounts[p] minus the number of
// distinct prefix-p nodes seen in any restricted component).
func EstimateUniqueEntities(core *graphcore.Core, prefixes []string, termCounts map[string]int) UniqueEntities {
	allowed := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		allowed[p] = struct{}{}
	}

	touchedByPrefix := make(map[string]int, len(prefixes))
	components := 0

	for _, component := range core.Components() {
		restricted := filterByPrefix(component, allowed)
		if len(restricted) == 0 {
			continue
		}
		components++
		for _, r := range restricted {
			touchedByPrefix[r.Prefix]++
		}
	}

	singletons := make(map[string]int, len(prefixes))
	totalTerms := 0
	for _, p := range prefixes {
		total := termCounts[p]
		totalTerms += total
		singletons[p] = total - touchedByPrefix[p]
	}

	count := components
	for _, p := range prefixes {
		count += singletons[p]
	}

	ratio := 0.0
	if totalTerms > 0 {
		ratio = float64(totalTerms-count) / float64(totalTerms)
	}

	return UniqueEntities{Count: count, Singletons: singletons, ReductionRatio: ratio}
}

func filterByPrefix(refs []reference.Reference, allowed map[string]struct{}) []reference.Reference {
	out := make([]reference.Reference, 0, len(refs))
	for _, r := range refs {
		if _, ok := allowed[r.Prefix]; ok {
			out = append(out, r)
		}
	}
	return out
}

// CombinationCounts maps a combination key (prefixes sorted and joined by
// "|") to the number of equivalence components whose exact set of present
// prefixes equals that combination, restricted to the given prefix set.
func CombinationCounts(core *graphcore.Core, prefixes []string) map[string]int {
	allowed := make(map[string]struct{}, len(prefixes))
	for _, p := range prefixes {
		allowed[p] = struct{}{}
	}

	counts := make(map[string]int)
	for _, component := range core.Components() {
		present := make(map[string]struct{})
		for _, r := range component {
			if _, ok := allowed[r.Prefix]; ok {
				present[r.Prefix] = struct{}{}
			}
		}
		if len(present) == 0 {
			continue
		}
		counts[combinationKey(present)]++
	}
	return counts
}

func combinationKey(present map[string]struct{}) string {
	parts := make([]string, 0, len(present))
	for p := range present {
		parts = append(parts, p)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// Summary bundles every landscape figure for a fixed prefix set, suitable
// for handing to a serializer.
type Summary struct {
	Overlap          Matrix
	Gains            Matrix
	PercentGains     Matrix
	UniqueEntities   UniqueEntities
	CombinationCounts map[string]int
}

// Analyze computes the full landscape summary: overlap and gains between
// the raw and processed collections, the unique-entity estimate, and
// combination counts, all restricted to prefixes.
func Analyze(rawMappings, processedMappings []*mapping.Mapping, core *graphcore.Core, prefixes []string, termCounts map[string]int) (Summary, error) {
	for _, p := range prefixes {
		if _, ok := termCounts[p]; !ok {
			return Summary{}, fmt.Errorf("landscape: no term count provided for prefix %q", p)
		}
	}

	raw := Overlap(rawMappings, prefixes, termCounts)
	processed := Overlap(processedMappings, prefixes, termCounts)
	gains := Gains(processed, raw, prefixes)
	percentGains := PercentGains(gains, raw, prefixes)
	unique := EstimateUniqueEntities(core, prefixes, termCounts)
	combos := CombinationCounts(core, prefixes)

	return Summary{
		Overlap:           processed,
		Gains:             gains,
		PercentGains:      percentGains,
		UniqueEntities:    unique,
		CombinationCounts: combos,
	}, nil
}
