package prioritizer

import (
	"testing"

	"github.com/biopragmatics/semra-go/internal/confidence"
	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/graphcore"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manualCuration = reference.New("semapv", "ManualMappingCuration")

func mustMapping(t *testing.T, s, p, o reference.Reference, c float64) *mapping.Mapping {
	t.Helper()
	set := evidence.NewSetOf(&evidence.SimpleEvidence{JustificationRef: manualCuration, Confidence: c})
	m, err := mapping.New(s, p, o, set)
	require.NoError(t, err)
	return m
}

func TestPriorityList_Canonical(t *testing.T) {
	priority := PriorityList{"mesh", "doid"}
	members := []reference.Reference{
		reference.New("doid", "1"),
		reference.New("mesh", "2"),
		reference.New("hp", "3"), // unlisted, scores +Inf
	}
	assert.Equal(t, reference.New("mesh", "2"), priority.canonical(members))
}

func TestPriorityList_Canonical_TiesBrokenByCurie(t *testing.T) {
	priority := PriorityList{} // both unlisted -> both +Inf
	members := []reference.Reference{
		reference.New("mesh", "2"),
		reference.New("doid", "1"),
	}
	assert.Equal(t, reference.New("doid", "1"), priority.canonical(members))
}

func TestRun_ProducesStarGraph(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")
	hp3 := reference.New("hp", "3")

	mappings := []*mapping.Mapping{
		mustMapping(t, doid1, predicate.ExactMatch, mesh2, 0.9),
		mustMapping(t, mesh2, predicate.ExactMatch, hp3, 0.8),
	}
	idx := mapping.NewIndex(mappings)
	core, err := graphcore.Build(mappings, graphcore.DefaultEquivalencePredicates)
	require.NoError(t, err)

	out, err := Run(core, idx, PriorityList{"mesh"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	subjects := map[string]bool{}
	for _, m := range out {
		assert.Equal(t, mesh2, m.Object, "every star edge should point at the canonical node")
		assert.False(t, subjects[m.Subject.Curie()], "every subject appears at most once")
		subjects[m.Subject.Curie()] = true
	}
}

func TestRun_MinConfidenceAlongPath(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")
	hp3 := reference.New("hp", "3")

	mappings := []*mapping.Mapping{
		mustMapping(t, doid1, predicate.ExactMatch, mesh2, 0.9),
		mustMapping(t, mesh2, predicate.ExactMatch, hp3, 0.3),
	}
	idx := mapping.NewIndex(mappings)
	core, err := graphcore.Build(mappings, graphcore.DefaultEquivalencePredicates)
	require.NoError(t, err)

	out, err := Run(core, idx, PriorityList{"hp"})
	require.NoError(t, err)

	outIdx := mapping.NewIndex(out)
	m, ok := outIdx.Get(evidence.Triple{Subject: doid1, Predicate: predicate.ExactMatch, Object: hp3})
	require.True(t, ok)
	c, err := confidence.Aggregate(m.Evidences.Slice(), idx)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, c, 1e-9)
}
