package mapping

import (
	"testing"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manualCuration = reference.New("semapv", "ManualMappingCuration")

func simpleEvidenceSet(c float64) *evidence.Set {
	return evidence.NewSetOf(&evidence.SimpleEvidence{
		JustificationRef: manualCuration,
		Confidence:       c,
	})
}

func TestNew_RejectsSelfMapping(t *testing.T) {
	doid1 := reference.New("doid", "1")
	_, err := New(doid1, predicate.ExactMatch, doid1, simpleEvidenceSet(0.9))
	assert.Error(t, err)
}

func TestNew_RejectsEmptyEvidence(t *testing.T) {
	_, err := New(reference.New("doid", "1"), predicate.ExactMatch, reference.New("mesh", "2"), evidence.NewSet())
	assert.Error(t, err)
}

func TestUnion_MergesEvidence(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")

	a, err := New(doid1, predicate.ExactMatch, mesh2, simpleEvidenceSet(0.8))
	require.NoError(t, err)
	b, err := New(doid1, predicate.ExactMatch, mesh2, simpleEvidenceSet(0.5))
	require.NoError(t, err)

	merged := a.Union(b)
	assert.Equal(t, 2, merged.Evidences.Len())
}

func TestUnion_PanicsOnMismatchedTriple(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")
	mesh3 := reference.New("mesh", "3")

	a, err := New(doid1, predicate.ExactMatch, mesh2, simpleEvidenceSet(0.8))
	require.NoError(t, err)
	b, err := New(doid1, predicate.ExactMatch, mesh3, simpleEvidenceSet(0.5))
	require.NoError(t, err)

	assert.Panics(t, func() { a.Union(b) })
}
