// Package export implements the property-graph export:
// four node tables (concept, mapping, evidence, mapping set) and two edge
// tables (mapping's subject/predicate/object edges; mapping -> evidence ->
// mapping set/author), either as flat CSV files or written directly into a
// Neo4j database.
package export

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// MappingID returns the stable hash-derived identifier for m. It depends
// only on m's triple, so the same mapping gets the same ID across
// re-runs regardless of which evidences are attached.
func MappingID(m *mapping.Mapping) string {
	h := sha256.New()
	fmt.Fprintf(h, "mapping\n%s\n", m.Triple().String())
	return hex.EncodeToString(h.Sum(nil))
}

// MappingSetID returns a stable identifier for a mapping set, natural
// (name-derived) rather than content-hashed, since a
// mapping set is identified by its curated name, not by its contents.
func MappingSetID(s *evidence.MappingSet) string {
	if s == nil {
		return ""
	}
	return "mappingset:" + s.Name
}

// Tables is the complete in-memory form of a property-graph export: four
// node tables and two edge tables, each a header row followed by data rows,
// ready to be written as CSV or loaded into Neo4j.
type Tables struct {
	Concepts    [][]string // reference_id, prefix, identifier, name
	Mappings    [][]string // mapping_id, subject_id, predicate_id, object_id
	Evidences   [][]string // evidence_id, kind, justification_id, confidence
	MappingSets [][]string // mapping_set_id, name, version, license

	MappingEdges  [][]string // mapping_id, role (subject|predicate|object), reference_id
	EvidenceEdges [][]string // evidence_id, role (mapping|mapping_set|author|parent), target_id
}

var (
	conceptHeader      = []string{"reference_id", "prefix", "identifier", "name"}
	mappingHeader      = []string{"mapping_id", "subject_id", "predicate_id", "object_id"}
	evidenceHeader     = []string{"evidence_id", "kind", "justification_id", "confidence"}
	mappingSetHeader   = []string{"mapping_set_id", "name", "version", "license"}
	mappingEdgeHeader  = []string{"mapping_id", "role", "reference_id"}
	evidenceEdgeHeader = []string{"evidence_id", "role", "target_id"}
)

// Build assembles the node and edge tables for a mapping collection. Node
// rows are deduplicated by their identifier: a reference or mapping set
// touched by many mappings appears exactly once in its table.
func Build(mappings []*mapping.Mapping) Tables {
	concepts := make(map[string][]string)
	evidences := make(map[string][]string)
	mappingSets := make(map[string][]string)

	var mappingRows, mappingEdges, evidenceEdges [][]string

	addConcept := func(r reference.Reference) {
		id := r.Curie()
		if _, ok := concepts[id]; !ok {
			concepts[id] = []string{id, r.Prefix, r.Identifier, r.Name}
		}
	}

	for _, m := range mappings {
		mappingID := MappingID(m)
		addConcept(m.Subject)
		addConcept(m.Predicate)
		addConcept(m.Object)

		mappingRows = append(mappingRows, []string{mappingID, m.Subject.Curie(), m.Predicate.Curie(), m.Object.Curie()})
		mappingEdges = append(mappingEdges,
			[]string{mappingID, "subject", m.Subject.Curie()},
			[]string{mappingID, "predicate", m.Predicate.Curie()},
			[]string{mappingID, "object", m.Object.Curie()},
		)

		for _, e := range m.Evidences.Slice() {
			evidenceID := e.Hash()
			addConcept(e.Justification())
			evidenceEdges = append(evidenceEdges, []string{evidenceID, "mapping", mappingID})

			switch ev := e.(type) {
			case *evidence.SimpleEvidence:
				if _, ok := evidences[evidenceID]; !ok {
					evidences[evidenceID] = []string{evidenceID, "simple", ev.JustificationRef.Curie(), formatConfidence(ev.Confidence)}
				}
				if !ev.Author.IsZero() {
					addConcept(ev.Author)
					evidenceEdges = append(evidenceEdges, []string{evidenceID, "author", ev.Author.Curie()})
				}
				if ev.Set != nil {
					setID := MappingSetID(ev.Set)
					if _, ok := mappingSets[setID]; !ok {
						mappingSets[setID] = []string{setID, ev.Set.Name, ev.Set.Version, ev.Set.License}
					}
					evidenceEdges = append(evidenceEdges, []string{evidenceID, "mapping_set", setID})
				}
			case *evidence.ReasonedEvidence:
				if _, ok := evidences[evidenceID]; !ok {
					evidences[evidenceID] = []string{evidenceID, "reasoned", ev.JustificationRef.Curie(), formatConfidence(ev.Confidence)}
				}
				for _, parent := range ev.Parents {
					evidenceEdges = append(evidenceEdges, []string{evidenceID, "parent", parent.String()})
				}
			}
		}
	}

	return Tables{
		Concepts:      sortedValues(concepts),
		Mappings:      mappingRows,
		Evidences:     sortedValues(evidences),
		MappingSets:   sortedValues(mappingSets),
		MappingEdges:  mappingEdges,
		EvidenceEdges: evidenceEdges,
	}
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}

func sortedValues(m map[string][]string) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// WriteCSVSet writes the six tables of t into the given writers, in the
// node/edge table layout describes. Any writer may be nil, in
// which case that table is skipped.
type CSVSet struct {
	Concepts      io.Writer
	Mappings      io.Writer
	Evidences     io.Writer
	MappingSets   io.Writer
	MappingEdges  io.Writer
	EvidenceEdges io.Writer
}

func WriteCSVSet(dst CSVSet, t Tables) error {
	tables := []struct {
		w      io.Writer
		header []string
		rows   [][]string
		name   string
	}{
		{dst.Concepts, conceptHeader, t.Concepts, "concepts"},
		{dst.Mappings, mappingHeader, t.Mappings, "mappings"},
		{dst.Evidences, evidenceHeader, t.Evidences, "evidences"},
		{dst.MappingSets, mappingSetHeader, t.MappingSets, "mapping_sets"},
		{dst.MappingEdges, mappingEdgeHeader, t.MappingEdges, "mapping_edges"},
		{dst.EvidenceEdges, evidenceEdgeHeader, t.EvidenceEdges, "evidence_edges"},
	}

	for _, tbl := range tables {
		if tbl.w == nil {
			continue
		}
		if err := writeCSVTable(tbl.w, tbl.header, tbl.rows); err != nil {
			return fmt.Errorf("export: writing %s table: %w", tbl.name, err)
		}
	}
	return nil
}

func writeCSVTable(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
