package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/biopragmatics/semra-go/internal/store"
)

func testRunner(t *testing.T) *runner {
	t.Helper()
	set := evidence.NewSetOf(&evidence.SimpleEvidence{
		JustificationRef: reference.New("semapv", "ManualMappingCuration"),
		Confidence:       0.9,
	})
	processedMapping, err := mapping.New(reference.New("doid", "1"), predicate.ExactMatch, reference.New("mesh", "1"), set)
	require.NoError(t, err)

	starSet := evidence.NewSetOf(&evidence.ReasonedEvidence{
		JustificationRef: evidence.JustificationChaining,
		Confidence:       0.9,
		Parents:          []evidence.Triple{processedMapping.Triple()},
	})
	priorityMapping, err := mapping.New(reference.New("mesh", "1"), predicate.ExactMatch, reference.New("doid", "1"), starSet)
	require.NoError(t, err)

	st := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.SaveCollection(ctx, "run-1", store.StageProcessed, []*mapping.Mapping{processedMapping}))
	require.NoError(t, st.SaveCollection(ctx, "run-1", store.StagePriority, []*mapping.Mapping{priorityMapping}))

	r, err := loadRunner(ctx, st, "run-1")
	require.NoError(t, err)
	return r
}

func TestHandleLookupMappings_FindsBySubjectAndObject(t *testing.T) {
	r := testRunner(t)

	_, resp, err := r.handleLookupMappings(context.Background(), nil, LookupMappingsRequest{Curie: "doid:1"})
	require.NoError(t, err)
	require.Len(t, resp.Mappings, 1)
	assert.Equal(t, "doid:1", resp.Mappings[0].Subject)
	assert.Equal(t, "mesh:1", resp.Mappings[0].Object)
}

func TestHandleLookupMappings_InvalidCurieErrors(t *testing.T) {
	r := testRunner(t)
	_, _, err := r.handleLookupMappings(context.Background(), nil, LookupMappingsRequest{Curie: "not a curie"})
	assert.Error(t, err)
}

func TestHandleLookupCanonical_ResolvesStarEdge(t *testing.T) {
	r := testRunner(t)

	_, resp, err := r.handleLookupCanonical(context.Background(), nil, LookupCanonicalRequest{Curie: "mesh:1"})
	require.NoError(t, err)
	assert.True(t, resp.Found)
	assert.Equal(t, "doid:1", resp.Canonical)
}

func TestHandleLookupCanonical_UnresolvedCurieIsNotFound(t *testing.T) {
	r := testRunner(t)

	_, resp, err := r.handleLookupCanonical(context.Background(), nil, LookupCanonicalRequest{Curie: "hp:1"})
	require.NoError(t, err)
	assert.False(t, resp.Found)
}

func TestHandleRunSummary_ReportsCounts(t *testing.T) {
	r := testRunner(t)

	_, resp, err := r.handleRunSummary(context.Background(), nil, EmptyRequest{})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 1, resp.ProcessedMappings)
	assert.Equal(t, 1, resp.PriorityMappings)
}
