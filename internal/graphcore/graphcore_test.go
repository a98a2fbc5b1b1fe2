package graphcore

import (
	"testing"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manualCuration = reference.New("semapv", "ManualMappingCuration")

func mustMapping(t *testing.T, s, p, o reference.Reference) *mapping.Mapping {
	t.Helper()
	set := evidence.NewSetOf(&evidence.SimpleEvidence{JustificationRef: manualCuration, Confidence: 0.9})
	m, err := mapping.New(s, p, o, set)
	require.NoError(t, err)
	return m
}

func TestBuild_ConnectedComponents(t *testing.T) {
	a := reference.New("doid", "1")
	b := reference.New("mesh", "2")
	c := reference.New("hp", "3")
	d := reference.New("doid", "9") // isolated, not an equivalence mapping participant

	mappings := []*mapping.Mapping{
		mustMapping(t, a, predicate.ExactMatch, b),
		mustMapping(t, b, predicate.ExactMatch, c),
		mustMapping(t, d, predicate.BroadMatch, a), // non-equivalence predicate, ignored
	}

	core, err := Build(mappings, DefaultEquivalencePredicates)
	require.NoError(t, err)

	comp, ok := core.Component(a)
	require.True(t, ok)
	assert.Len(t, comp, 3)
	assert.True(t, core.SameComponent(a, c))

	_, ok = core.Component(d)
	assert.False(t, ok, "d never participates in an equivalence-predicate mapping")
}

func TestBuild_SeparateComponentsStayDisjoint(t *testing.T) {
	a := reference.New("doid", "1")
	b := reference.New("mesh", "2")
	x := reference.New("hp", "10")
	y := reference.New("hp", "11")

	mappings := []*mapping.Mapping{
		mustMapping(t, a, predicate.ExactMatch, b),
		mustMapping(t, x, predicate.ExactMatch, y),
	}

	core, err := Build(mappings, DefaultEquivalencePredicates)
	require.NoError(t, err)
	assert.False(t, core.SameComponent(a, x))
}

func TestComponents_DeterministicOrdering(t *testing.T) {
	a := reference.New("doid", "1")
	b := reference.New("mesh", "2")
	x := reference.New("hp", "10")
	y := reference.New("hp", "11")

	mappings := []*mapping.Mapping{
		mustMapping(t, x, predicate.ExactMatch, y),
		mustMapping(t, a, predicate.ExactMatch, b),
	}

	core1, err := Build(mappings, DefaultEquivalencePredicates)
	require.NoError(t, err)
	core2, err := Build(mappings, DefaultEquivalencePredicates)
	require.NoError(t, err)

	assert.Equal(t, core1.Components(), core2.Components())
}

func TestPath_ReturnsShortestRoute(t *testing.T) {
	a := reference.New("doid", "1")
	b := reference.New("mesh", "2")
	c := reference.New("hp", "3")

	mappings := []*mapping.Mapping{
		mustMapping(t, a, predicate.ExactMatch, b),
		mustMapping(t, b, predicate.ExactMatch, c),
	}
	core, err := Build(mappings, DefaultEquivalencePredicates)
	require.NoError(t, err)

	path, err := core.Path(a, c)
	require.NoError(t, err)
	assert.Equal(t, []reference.Reference{a, b, c}, path)
}

func TestBuild_DuplicateEdgeIgnored(t *testing.T) {
	a := reference.New("doid", "1")
	b := reference.New("mesh", "2")

	mappings := []*mapping.Mapping{
		mustMapping(t, a, predicate.ExactMatch, b),
		mustMapping(t, b, predicate.ExactMatch, a), // reverse direction, same undirected edge
	}
	core, err := Build(mappings, DefaultEquivalencePredicates)
	require.NoError(t, err)
	assert.Equal(t, 2, core.NodeCount())
}
