package main

import (
	"context"
	"fmt"
	"os"

	"github.com/biopragmatics/semra-go/internal/interchange"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/source"
)

// tabularAdapter reads a source.Descriptor's "path" extra as a tabular
// mapping file and returns its rows. A missing or unreadable
// file is reported as *source.Unavailable so a lenient run can skip it
// instead of failing outright; a file that fails to parse as tabular is
// *source.Malformed, which is always fatal.
func tabularAdapter(ctx context.Context, d source.Descriptor) ([]*mapping.Mapping, error) {
	path, ok := d.Extras["path"]
	if !ok || path == "" {
		return nil, &source.Unavailable{Source: d, Cause: fmt.Errorf("no path configured")}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &source.Unavailable{Source: d, Cause: err}
	}
	defer f.Close()

	mappings, err := interchange.ReadTabular(f)
	if err != nil {
		return nil, &source.Malformed{Source: d, Cause: err}
	}
	return mappings, nil
}
