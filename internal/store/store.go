// Package store persists the mapping collections a pipeline run produces
// (raw input, processed, priority/star-graph output), keyed by run ID, so
// they can be read back after the run (cmd/mappingmcp serves queries from
// them). The pipeline driver only writes these collections; it does not
// read them back to skip stages on a later run. It exposes
// a Config, a factory picking between backends, and a write-through
// memory cache in front of SQLite.
package store

import (
	"context"

	"github.com/biopragmatics/semra-go/internal/mapping"
)

// Stage names a point in the pipeline driver whose output is
// worth persisting independently.
type Stage string

const (
	StageRaw       Stage = "raw"
	StageProcessed Stage = "processed"
	StagePriority  Stage = "priority"
)

// Store persists and retrieves the mapping collection for a given pipeline
// run and stage. Implementations must tolerate repeated SaveCollection
// calls for the same (runID, stage) pair: the pipeline driver overwrites
// rather than appends when a stage reruns.
type Store interface {
	SaveCollection(ctx context.Context, runID string, stage Stage, mappings []*mapping.Mapping) error
	LoadCollection(ctx context.Context, runID string, stage Stage) ([]*mapping.Mapping, error)
	ListRuns(ctx context.Context) ([]string, error)
	Close() error
}
