package interchange

import (
	"bytes"
	"testing"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manualCuration = reference.New("semapv", "ManualMappingCuration")

func TestTabular_RoundTrip(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")
	set := evidence.NewSetOf(&evidence.SimpleEvidence{
		JustificationRef: manualCuration,
		Confidence:       0.8,
		Set:              &evidence.MappingSet{Name: "test-set"},
	})
	m, err := mapping.New(doid1, predicate.ExactMatch, mesh2, set)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTabular(&buf, []*mapping.Mapping{m}))

	out, err := ReadTabular(&buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, doid1, out[0].Subject)
	assert.Equal(t, mesh2, out[0].Object)
	assert.Equal(t, predicate.ExactMatch, out[0].Predicate)
}

func TestTabular_DeduplicatesByTriple(t *testing.T) {
	data := "subject_id,predicate_id,object_id,mapping_justification,confidence\n" +
		"doid:1,semapv:exactMatch,mesh:2,semapv:ManualMappingCuration,0.5\n" +
		"doid:1,semapv:exactMatch,mesh:2,semapv:ManualMappingCuration,0.8\n"

	out, err := ReadTabular(bytes.NewBufferString(data))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Evidences.Len())
}

func TestTabular_MissingRequiredColumnErrors(t *testing.T) {
	data := "subject_id,object_id\ndoid:1,mesh:2\n"
	_, err := ReadTabular(bytes.NewBufferString(data))
	assert.Error(t, err)
}

func TestTabular_SkipsReasonedEvidence(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")
	parent := evidence.Triple{Subject: doid1, Predicate: predicate.ExactMatch, Object: mesh2}
	set := evidence.NewSetOf(&evidence.ReasonedEvidence{
		JustificationRef: evidence.JustificationInversion,
		Confidence:       0.7,
		Parents:          []evidence.Triple{parent},
	})
	hp3 := reference.New("hp", "3")
	m, err := mapping.New(mesh2, predicate.ExactMatch, hp3, set)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTabular(&buf, []*mapping.Mapping{m}))

	out, err := ReadTabular(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, out, "reasoned evidence has no tabular row, so nothing should round-trip")
}
