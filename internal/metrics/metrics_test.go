package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncMappingsIngested_AccumulatesPerSourceKind(t *testing.T) {
	IncMappingsIngested("obo-xref", 3)
	IncMappingsIngested("obo-xref", 2)

	got := testutil.ToFloat64(mappingsIngested.WithLabelValues("obo-xref"))
	assert.GreaterOrEqual(t, got, 5.0)
}

func TestSetMappingsAtStage_RecordsGaugeValue(t *testing.T) {
	SetMappingsAtStage("raw", 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(mappingsAtStage.WithLabelValues("raw")))
}

func TestObserveStageDuration_NoPanic(t *testing.T) {
	assert.NotPanics(t, func() { ObserveStageDuration("processed", 250*time.Millisecond) })
}

func TestIncCycleBudgetExhausted_Increments(t *testing.T) {
	before := testutil.ToFloat64(inferenceCycleBudgetExhausted)
	IncCycleBudgetExhausted()
	after := testutil.ToFloat64(inferenceCycleBudgetExhausted)
	assert.Equal(t, before+1, after)
}

func TestIncSourceFetchError_LabelsByKindAndClass(t *testing.T) {
	IncSourceFetchError("umls", "unavailable")
	got := testutil.ToFloat64(sourceFetchErrors.WithLabelValues("umls", "unavailable"))
	assert.GreaterOrEqual(t, got, 1.0)
}

func TestSetConnectedComponents_RecordsGaugeValue(t *testing.T) {
	SetConnectedComponents(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(connectedComponents))
}

func TestAllCollectors_AreRegisteredOnDefaultRegistry(t *testing.T) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["semra_pipeline_mappings_ingested_total"])
	assert.True(t, names["semra_inference_rounds"])
}
