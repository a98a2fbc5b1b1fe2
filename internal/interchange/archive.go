package interchange

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// archiveRecord is one line of the line-delimited archive: the full
// serialization of a single mapping, every evidence, and (for reasoned
// evidence) its parents written inline as triple strings.
type archiveRecord struct {
	Subject   string              `json:"subject"`
	Predicate string              `json:"predicate"`
	Object    string              `json:"object"`
	Evidences []archiveEvidence   `json:"evidences"`
}

type archiveEvidence struct {
	Hash          string   `json:"hash"`
	Kind          string   `json:"kind"` // "simple" | "reasoned"
	Justification string   `json:"justification"`
	Confidence    float64  `json:"confidence"`
	Author        string   `json:"author,omitempty"`
	Set           *setInfo `json:"mapping_set,omitempty"`
	Parents       []string `json:"parents,omitempty"` // triple strings, see evidence.Triple.String
}

type setInfo struct {
	Name          string  `json:"name"`
	Version       string  `json:"version,omitempty"`
	License       string  `json:"license,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	HasConfidence bool    `json:"has_confidence,omitempty"`
}

// WriteArchive streams mappings to w as one JSON object per line. The
// format is restartable: each line is independently parseable, so a writer
// may resume after a partial write by appending.
func WriteArchive(w io.Writer, mappings []*mapping.Mapping) error {
	enc := json.NewEncoder(w)
	for _, m := range mappings {
		rec := archiveRecord{
			Subject:   m.Subject.Curie(),
			Predicate: m.Predicate.Curie(),
			Object:    m.Object.Curie(),
		}
		for _, e := range m.Evidences.Slice() {
			rec.Evidences = append(rec.Evidences, toArchiveEvidence(e))
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("interchange: encoding archive record for %s: %w", m.String(), err)
		}
	}
	return nil
}

func toArchiveEvidence(e evidence.Evidence) archiveEvidence {
	switch ev := e.(type) {
	case *evidence.SimpleEvidence:
		ae := archiveEvidence{
			Hash:          ev.Hash(),
			Kind:          "simple",
			Justification: ev.JustificationRef.Curie(),
			Confidence:    ev.Confidence,
		}
		if !ev.Author.IsZero() {
			ae.Author = ev.Author.Curie()
		}
		if ev.Set != nil {
			ae.Set = &setInfo{
				Name: ev.Set.Name, Version: ev.Set.Version, License: ev.Set.License,
				Confidence: ev.Set.Confidence, HasConfidence: ev.Set.HasConfidence,
			}
		}
		return ae
	case *evidence.ReasonedEvidence:
		ae := archiveEvidence{
			Hash:          ev.Hash(),
			Kind:          "reasoned",
			Justification: ev.JustificationRef.Curie(),
			Confidence:    ev.Confidence,
		}
		for _, p := range ev.Parents {
			ae.Parents = append(ae.Parents, p.String())
		}
		return ae
	default:
		return archiveEvidence{Kind: "unknown"}
	}
}

// ReadArchive parses a line-delimited archive stream back into mappings, one per line.
// Readers deduplicate by triple, the same rule the tabular reader applies.
func ReadArchive(r io.Reader) ([]*mapping.Mapping, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	byTriple := make(map[evidence.Triple]*mapping.Mapping)
	order := make([]evidence.Triple, 0)

	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec archiveRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("interchange: parsing archive line %d: %w", lineNum, err)
		}

		m, err := fromArchiveRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("interchange: archive line %d: %w", lineNum, err)
		}

		t := m.Triple()
		if existing, ok := byTriple[t]; ok {
			byTriple[t] = existing.Union(m)
		} else {
			byTriple[t] = m
			order = append(order, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("interchange: scanning archive: %w", err)
	}

	out := make([]*mapping.Mapping, len(order))
	for i, t := range order {
		out[i] = byTriple[t]
	}
	return out, nil
}

func fromArchiveRecord(rec archiveRecord) (*mapping.Mapping, error) {
	subject, err := reference.Parse(rec.Subject)
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	predicateRef, err := reference.Parse(rec.Predicate)
	if err != nil {
		return nil, fmt.Errorf("predicate: %w", err)
	}
	object, err := reference.Parse(rec.Object)
	if err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}

	set := evidence.NewSet()
	for _, ae := range rec.Evidences {
		e, err := fromArchiveEvidence(ae)
		if err != nil {
			return nil, err
		}
		set.Add(e)
	}

	return mapping.New(subject, predicateRef, object, set)
}

func fromArchiveEvidence(ae archiveEvidence) (evidence.Evidence, error) {
	justification, err := reference.Parse(ae.Justification)
	if err != nil {
		return nil, fmt.Errorf("evidence justification: %w", err)
	}

	switch ae.Kind {
	case "simple":
		simple := &evidence.SimpleEvidence{JustificationRef: justification, Confidence: ae.Confidence}
		if ae.Author != "" {
			author, err := reference.Parse(ae.Author)
			if err != nil {
				return nil, fmt.Errorf("evidence author: %w", err)
			}
			simple.Author = author
		}
		if ae.Set != nil {
			simple.Set = &evidence.MappingSet{
				Name: ae.Set.Name, Version: ae.Set.Version, License: ae.Set.License,
				Confidence: ae.Set.Confidence, HasConfidence: ae.Set.HasConfidence,
			}
		}
		return simple, nil

	case "reasoned":
		parents := make([]evidence.Triple, 0, len(ae.Parents))
		for _, p := range ae.Parents {
			t, err := parseTripleString(p)
			if err != nil {
				return nil, fmt.Errorf("evidence parent: %w", err)
			}
			parents = append(parents, t)
		}
		return &evidence.ReasonedEvidence{JustificationRef: justification, Confidence: ae.Confidence, Parents: parents}, nil

	default:
		return nil, fmt.Errorf("unknown evidence kind %q", ae.Kind)
	}
}

// parseTripleString parses the "subject predicate object" form produced by
// evidence.Triple.String, the form reasoned evidence's parents are
// serialized as.
func parseTripleString(s string) (evidence.Triple, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return evidence.Triple{}, fmt.Errorf("malformed triple %q", s)
	}
	subject, err := reference.Parse(parts[0])
	if err != nil {
		return evidence.Triple{}, fmt.Errorf("triple subject: %w", err)
	}
	predicateRef, err := reference.Parse(parts[1])
	if err != nil {
		return evidence.Triple{}, fmt.Errorf("triple predicate: %w", err)
	}
	object, err := reference.Parse(parts[2])
	if err != nil {
		return evidence.Triple{}, fmt.Errorf("triple object: %w", err)
	}
	return evidence.Triple{Subject: subject, Predicate: predicateRef, Object: object}, nil
}
