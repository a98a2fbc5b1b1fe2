// Package source defines the source-adapter contract: the
// core consumes a finite sequence of mappings from an adapter function, and
// never talks to external systems directly. Concrete adapters (OBO
// ontologies, UMLS, NCBI, etc.) are out of scope for the core and are not
// implemented here.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/biopragmatics/semra-go/internal/mapping"
)

// Descriptor identifies a source to fetch mappings from.
type Descriptor struct {
	Kind       string // e.g. "obo-xref", "umls", "custom"
	Prefix     string // the vocabulary prefix this source primarily concerns, if any
	Confidence float64
	Extras     map[string]string
}

// Adapter is a function from a source descriptor to a finite sequence of
// mappings, each carrying at least one simple evidence with a mapping set
// identifier.
type Adapter func(ctx context.Context, d Descriptor) ([]*mapping.Mapping, error)

// Unavailable reports a transient adapter failure. The driver may skip the
// source and continue if configured leniently.
type Unavailable struct {
	Source Descriptor
	Cause  error
}

func (e *Unavailable) Error() string {
	return fmt.Sprintf("source %s (%s) unavailable: %v", e.Source.Kind, e.Source.Prefix, e.Cause)
}

func (e *Unavailable) Unwrap() error { return e.Cause }

// Malformed reports that an adapter produced ill-formed data. Always fatal.
type Malformed struct {
	Source Descriptor
	Cause  error
}

func (e *Malformed) Error() string {
	return fmt.Sprintf("source %s (%s) produced malformed data: %v", e.Source.Kind, e.Source.Prefix, e.Cause)
}

func (e *Malformed) Unwrap() error { return e.Cause }

// FetchAll invokes adapter for each descriptor and concatenates the
// results. A descriptor whose adapter returns an *Unavailable error is
// skipped when lenient is true; any other error (including *Malformed) is
// always fatal.
func FetchAll(ctx context.Context, adapter Adapter, descriptors []Descriptor, lenient bool) ([]*mapping.Mapping, error) {
	var all []*mapping.Mapping

	for _, d := range descriptors {
		mappings, err := adapter(ctx, d)
		if err != nil {
			var unavailable *Unavailable
			if lenient && errors.As(err, &unavailable) {
				continue
			}
			return nil, err
		}
		all = append(all, mappings...)
	}
	return all, nil
}
