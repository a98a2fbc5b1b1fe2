package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: disease mappings
key: disease-mappings
description: test config
inputs:
  - kind: obo-xref
    prefix: doid
priority:
  - mondo
  - doid
mutations:
  - source_prefix: doid
    target_prefix: mesh
    old_predicate: "semapv:closeMatch"
    new_predicate: "semapv:exactMatch"
    confidence: 0.8
keep_prefixes: [doid, mesh]
remove_prefixes: [umls]
remove_imprecise: true
outputs:
  raw: out/raw.tsv
  processed: out/processed.tsv
  priority: out/priority.tsv
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad_ParsesAllFields(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "disease mappings", cfg.Name)
	assert.Equal(t, "disease-mappings", cfg.Key)
	require.Len(t, cfg.Inputs, 1)
	assert.Equal(t, "obo-xref", cfg.Inputs[0].Kind)
	assert.Equal(t, []string{"mondo", "doid"}, cfg.Priority)
	assert.True(t, cfg.RemoveImprecise)
	assert.Equal(t, "out/raw.tsv", cfg.Outputs.Raw)
}

func TestLoad_RejectsMissingName(t *testing.T) {
	_, err := Load(writeTempConfig(t, "key: x\ninputs:\n  - kind: a\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyInputs(t *testing.T) {
	_, err := Load(writeTempConfig(t, "name: x\nkey: x\ninputs: []\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsMalformedMutationPredicate(t *testing.T) {
	bad := `
name: x
key: x
inputs:
  - kind: a
mutations:
  - source_prefix: a
    target_prefix: b
    old_predicate: "not a curie"
    new_predicate: "semapv:exactMatch"
    confidence: 0.5
`
	_, err := Load(writeTempConfig(t, bad))
	assert.Error(t, err)
}

func TestMutationRules_ResolvesPredicateReferences(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleYAML))
	require.NoError(t, err)

	rules, err := cfg.MutationRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, predicate.CloseMatch, rules[0].OldPredicate)
	assert.Equal(t, predicate.ExactMatch, rules[0].NewPredicate)
}

func mustMapping(t *testing.T, subject, object reference.Reference, pred reference.Reference) *mapping.Mapping {
	t.Helper()
	set := evidence.NewSetOf(&evidence.SimpleEvidence{JustificationRef: reference.New("semapv", "ManualMappingCuration"), Confidence: 0.9})
	m, err := mapping.New(subject, pred, object, set)
	require.NoError(t, err)
	return m
}

func TestPreFilter_AppliesKeepAndRemovePrefixes(t *testing.T) {
	cfg := &Configuration{KeepPrefixes: []string{"doid", "mesh"}, RemovePrefixes: []string{"umls"}}

	keep := mustMapping(t, reference.New("doid", "1"), reference.New("mesh", "2"), predicate.ExactMatch)
	dropByKeep := mustMapping(t, reference.New("hp", "1"), reference.New("mesh", "2"), predicate.ExactMatch)
	dropByRemove := mustMapping(t, reference.New("doid", "1"), reference.New("umls", "2"), predicate.ExactMatch)

	out := cfg.PreFilter([]*mapping.Mapping{keep, dropByKeep, dropByRemove})
	require.Len(t, out, 1)
	assert.Equal(t, keep.Triple(), out[0].Triple())
}

func TestPostFilter_RemovesImpreciseDbXref(t *testing.T) {
	cfg := &Configuration{RemoveImprecise: true}

	exact := mustMapping(t, reference.New("doid", "1"), reference.New("mesh", "2"), predicate.ExactMatch)
	xref := mustMapping(t, reference.New("doid", "1"), reference.New("mesh", "3"), predicate.DbXref)

	out := cfg.PostFilter([]*mapping.Mapping{exact, xref})
	require.Len(t, out, 1)
	assert.Equal(t, predicate.ExactMatch, out[0].Predicate)
}

func TestPreFilter_SubsetsRestrictByExactRootMembership(t *testing.T) {
	cfg := &Configuration{Subsets: map[string][]string{"doid": {"doid:1"}}}

	inSubset := mustMapping(t, reference.New("doid", "1"), reference.New("mesh", "2"), predicate.ExactMatch)
	outOfSubset := mustMapping(t, reference.New("doid", "2"), reference.New("mesh", "3"), predicate.ExactMatch)

	out := cfg.PreFilter([]*mapping.Mapping{inSubset, outOfSubset})
	require.Len(t, out, 1)
	assert.Equal(t, inSubset.Triple(), out[0].Triple())
}

func TestPreFilter_NoSubsetsIsNoOp(t *testing.T) {
	cfg := &Configuration{}
	m := mustMapping(t, reference.New("doid", "1"), reference.New("mesh", "2"), predicate.ExactMatch)
	out := cfg.PreFilter([]*mapping.Mapping{m})
	require.Len(t, out, 1)
}
