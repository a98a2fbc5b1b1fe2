// Package interchange implements the tabular and line-delimited archive
// serialization formats mapping collections move through at pipeline
// boundaries.
package interchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// tabularColumns is the required column set, followed by
// the optional provenance columns this writer always emits for round-trip
// fidelity.
var tabularColumns = []string{
	"subject_id", "predicate_id", "object_id", "mapping_justification",
	"confidence", "author_id", "mapping_set",
}

// WriteTabular writes one row per evidence across every mapping: multiple
// evidences for the same triple produce multiple rows.
// Reasoned evidence is skipped: the tabular format carries curated
// provenance only, matching its column set, which has no field for a
// parent-triple list.
func WriteTabular(w io.Writer, mappings []*mapping.Mapping) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tabularColumns); err != nil {
		return fmt.Errorf("interchange: writing tabular header: %w", err)
	}

	for _, m := range mappings {
		for _, e := range m.Evidences.Slice() {
			simple, ok := e.(*evidence.SimpleEvidence)
			if !ok {
				continue
			}
			row := []string{
				m.Subject.Curie(),
				m.Predicate.Curie(),
				m.Object.Curie(),
				simple.JustificationRef.Curie(),
				strconv.FormatFloat(simple.Confidence, 'g', -1, 64),
				simple.Author.Curie(),
				mappingSetName(simple.Set),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("interchange: writing tabular row for %s: %w", m.String(), err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

func mappingSetName(s *evidence.MappingSet) string {
	if s == nil {
		return ""
	}
	return s.Name
}

// ReadTabular parses rows in the tabular format, deduplicating by triple:
// rows sharing (subject_id, predicate_id, object_id) contribute separate
// evidences to the same mapping, their evidence sets unioned.
func ReadTabular(r io.Reader) ([]*mapping.Mapping, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("interchange: reading tabular header: %w", err)
	}
	col, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	byTriple := make(map[evidence.Triple]*mapping.Mapping)
	order := make([]evidence.Triple, 0)

	for rowNum := 2; ; rowNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("interchange: reading tabular row %d: %w", rowNum, err)
		}

		m, err := parseTabularRow(record, col)
		if err != nil {
			return nil, fmt.Errorf("interchange: row %d: %w", rowNum, err)
		}

		t := m.Triple()
		if existing, ok := byTriple[t]; ok {
			byTriple[t] = existing.Union(m)
		} else {
			byTriple[t] = m
			order = append(order, t)
		}
	}

	out := make([]*mapping.Mapping, len(order))
	for i, t := range order {
		out[i] = byTriple[t]
	}
	return out, nil
}

func columnIndex(header []string) (map[string]int, error) {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"subject_id", "predicate_id", "object_id", "mapping_justification"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("interchange: tabular header missing required column %q", required)
		}
	}
	return col, nil
}

func parseTabularRow(record []string, col map[string]int) (*mapping.Mapping, error) {
	field := func(name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	subject, err := reference.Parse(field("subject_id"))
	if err != nil {
		return nil, fmt.Errorf("subject_id: %w", err)
	}
	predicateRef, err := reference.Parse(field("predicate_id"))
	if err != nil {
		return nil, fmt.Errorf("predicate_id: %w", err)
	}
	object, err := reference.Parse(field("object_id"))
	if err != nil {
		return nil, fmt.Errorf("object_id: %w", err)
	}
	justification, err := reference.Parse(field("mapping_justification"))
	if err != nil {
		return nil, fmt.Errorf("mapping_justification: %w", err)
	}

	confidence := 1.0
	if raw := field("confidence"); raw != "" {
		confidence, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("confidence: %w", err)
		}
	}

	simple := &evidence.SimpleEvidence{JustificationRef: justification, Confidence: confidence}
	if raw := field("author_id"); raw != "" {
		author, err := reference.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("author_id: %w", err)
		}
		simple.Author = author
	}
	if name := field("mapping_set"); name != "" {
		simple.Set = &evidence.MappingSet{Name: name}
	}

	return mapping.New(subject, predicateRef, object, evidence.NewSetOf(simple))
}
