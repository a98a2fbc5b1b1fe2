package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMapping(t *testing.T) *mapping.Mapping {
	t.Helper()
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")
	set := evidence.NewSetOf(&evidence.SimpleEvidence{
		JustificationRef: reference.New("semapv", "ManualMappingCuration"),
		Confidence:       0.9,
		Author:           reference.New("orcid", "0000-0000-0000-0001"),
		Set:              &evidence.MappingSet{Name: "test-set", Version: "1.0"},
	})
	m, err := mapping.New(doid1, predicate.ExactMatch, mesh2, set)
	require.NoError(t, err)
	return m
}

func TestBuild_ConceptsCoverSubjectPredicateObjectAndJustification(t *testing.T) {
	tables := Build([]*mapping.Mapping{mustMapping(t)})

	ids := make(map[string]bool)
	for _, row := range tables.Concepts {
		ids[row[0]] = true
	}
	assert.True(t, ids["doid:1"])
	assert.True(t, ids["mesh:2"])
	assert.True(t, ids[predicate.ExactMatch.Curie()])
	assert.True(t, ids["semapv:ManualMappingCuration"])
	assert.True(t, ids["orcid:0000-0000-0000-0001"])
}

func TestBuild_MappingRowAndEdgesReferenceSameID(t *testing.T) {
	m := mustMapping(t)
	tables := Build([]*mapping.Mapping{m})

	require.Len(t, tables.Mappings, 1)
	mappingID := tables.Mappings[0][0]
	assert.Equal(t, MappingID(m), mappingID)

	roles := make(map[string]string)
	for _, edge := range tables.MappingEdges {
		if edge[0] == mappingID {
			roles[edge[1]] = edge[2]
		}
	}
	assert.Equal(t, "doid:1", roles["subject"])
	assert.Equal(t, "mesh:2", roles["object"])
}

func TestBuild_EvidenceEdgesLinkToMappingSetAndAuthor(t *testing.T) {
	m := mustMapping(t)
	tables := Build([]*mapping.Mapping{m})

	require.Len(t, tables.Evidences, 1)
	evidenceID := tables.Evidences[0][0]

	var sawSet, sawAuthor, sawMapping bool
	for _, edge := range tables.EvidenceEdges {
		if edge[0] != evidenceID {
			continue
		}
		switch edge[1] {
		case "mapping_set":
			sawSet = true
			assert.Equal(t, MappingSetID(&evidence.MappingSet{Name: "test-set"}), edge[2])
		case "author":
			sawAuthor = true
			assert.Equal(t, "orcid:0000-0000-0000-0001", edge[2])
		case "mapping":
			sawMapping = true
		}
	}
	assert.True(t, sawSet)
	assert.True(t, sawAuthor)
	assert.True(t, sawMapping)
}

func TestBuild_DeduplicatesRepeatedConceptsAndSets(t *testing.T) {
	a := mustMapping(t)
	bSet := evidence.NewSetOf(&evidence.SimpleEvidence{
		JustificationRef: reference.New("semapv", "ManualMappingCuration"),
		Confidence:       0.5,
		Set:              &evidence.MappingSet{Name: "test-set", Version: "1.0"},
	})
	hp3 := reference.New("hp", "3")
	b, err := mapping.New(reference.New("doid", "1"), predicate.ExactMatch, hp3, bSet)
	require.NoError(t, err)

	tables := Build([]*mapping.Mapping{a, b})

	doidCount := 0
	for _, row := range tables.Concepts {
		if row[0] == "doid:1" {
			doidCount++
		}
	}
	assert.Equal(t, 1, doidCount, "doid:1 appears in both mappings but should be one concept row")

	setCount := 0
	for _, row := range tables.MappingSets {
		if row[1] == "test-set" {
			setCount++
		}
	}
	assert.Equal(t, 1, setCount)
}

func TestWriteCSVSet_WritesHeaderAndRows(t *testing.T) {
	tables := Build([]*mapping.Mapping{mustMapping(t)})

	var concepts, mappings bytes.Buffer
	err := WriteCSVSet(CSVSet{Concepts: &concepts, Mappings: &mappings}, tables)
	require.NoError(t, err)

	r := csv.NewReader(&concepts)
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, conceptHeader, records[0])

	r2 := csv.NewReader(&mappings)
	records2, err := r2.ReadAll()
	require.NoError(t, err)
	require.Len(t, records2, 2) // header + one mapping
	assert.Equal(t, mappingHeader, records2[0])
}

func TestWriteCSVSet_SkipsNilWriters(t *testing.T) {
	tables := Build([]*mapping.Mapping{mustMapping(t)})
	err := WriteCSVSet(CSVSet{}, tables)
	assert.NoError(t, err)
}

func TestMappingID_StableAcrossEvidenceChanges(t *testing.T) {
	doid1 := reference.New("doid", "1")
	mesh2 := reference.New("mesh", "2")

	setA := evidence.NewSetOf(&evidence.SimpleEvidence{JustificationRef: reference.New("semapv", "ManualMappingCuration"), Confidence: 0.5})
	setB := evidence.NewSetOf(&evidence.SimpleEvidence{JustificationRef: reference.New("semapv", "ManualMappingCuration"), Confidence: 0.9})

	mA, err := mapping.New(doid1, predicate.ExactMatch, mesh2, setA)
	require.NoError(t, err)
	mB, err := mapping.New(doid1, predicate.ExactMatch, mesh2, setB)
	require.NoError(t, err)

	assert.Equal(t, MappingID(mA), MappingID(mB), "mapping identity is the triple, not its evidence")
}
