// Package pipeline implements the declarative pipeline driver: it takes a
// config.Configuration and runs the fixed stage sequence — fetch,
// pre-filter, inference, post-filter, graph core, prioritization,
// landscape — materializing the raw/processed/priority artifacts at stage
// boundaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/biopragmatics/semra-go/internal/config"
	"github.com/biopragmatics/semra-go/internal/graphcore"
	"github.com/biopragmatics/semra-go/internal/inference"
	"github.com/biopragmatics/semra-go/internal/interchange"
	"github.com/biopragmatics/semra-go/internal/landscape"
	"github.com/biopragmatics/semra-go/internal/lexical"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/metrics"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/prioritizer"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/biopragmatics/semra-go/internal/source"
	"github.com/biopragmatics/semra-go/internal/store"
)

// Result bundles a run's per-stage outputs, timing, and terminal status:
// a status string, a total duration, and (on failure) the error that
// stopped execution.
type Result struct {
	RunID  string
	Status string // "success" or "failed"

	Raw       []*mapping.Mapping
	Processed []*mapping.Mapping
	Priority  []*mapping.Mapping
	Landscape *landscape.Summary

	StageDurations map[string]time.Duration
	Duration       time.Duration
	ErrorMessage   string
}

// Driver executes pipeline runs against a fixed predicate registry and
// source adapter set. A Driver is safe for concurrent Run calls; each Run
// builds and discards its own mapping indexes within a stage, so no
// state leaks between concurrent runs.
type Driver struct {
	Registry *predicate.Registry
	Adapters map[string]source.Adapter
	Store    store.Store // nil disables artifact persistence
	Lenient  bool        // skip sources that return *source.Unavailable
}

// NewDriver builds a Driver. registry may be nil, in which case
// predicate.Default() is used.
func NewDriver(registry *predicate.Registry, adapters map[string]source.Adapter, st store.Store) *Driver {
	if registry == nil {
		registry = predicate.Default()
	}
	return &Driver{Registry: registry, Adapters: adapters, Store: st}
}

// Run executes every stage of cfg's pipeline in sequence, returning a
// Result whether or not a stage failed. The returned error is non-nil
// exactly when Result.Status == "failed".
func (d *Driver) Run(ctx context.Context, runID string, cfg *config.Configuration) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: runID, StageDurations: map[string]time.Duration{}}

	raw, err := d.stage(ctx, result, "fetch", func(ctx context.Context) ([]*mapping.Mapping, error) {
		return d.fetch(ctx, cfg)
	})
	if err != nil {
		return d.fail(result, start, "fetch", err)
	}
	result.Raw = raw
	metrics.SetMappingsAtStage("raw", len(raw))
	if err := d.persist(ctx, runID, store.StageRaw, raw); err != nil {
		return d.fail(result, start, "persist-raw", err)
	}

	preFiltered, err := d.stage(ctx, result, "pre-filter", func(context.Context) ([]*mapping.Mapping, error) {
		return cfg.PreFilter(raw), nil
	})
	if err != nil {
		return d.fail(result, start, "pre-filter", err)
	}

	inferred, err := d.stage(ctx, result, "inference", func(ctx context.Context) ([]*mapping.Mapping, error) {
		return d.infer(ctx, cfg, preFiltered)
	})
	var budgetExhausted *inference.CycleBudgetExhausted
	if err != nil && !errors.As(err, &budgetExhausted) {
		return d.fail(result, start, "inference", err)
	}

	processed, err := d.stage(ctx, result, "post-filter", func(context.Context) ([]*mapping.Mapping, error) {
		return d.postFilter(cfg, inferred), nil
	})
	if err != nil {
		return d.fail(result, start, "post-filter", err)
	}
	result.Processed = processed
	metrics.SetMappingsAtStage("processed", len(processed))
	if err := d.persist(ctx, runID, store.StageProcessed, processed); err != nil {
		return d.fail(result, start, "persist-processed", err)
	}

	var core *graphcore.Core
	_, err = d.stage(ctx, result, "graph-core", func(context.Context) ([]*mapping.Mapping, error) {
		var buildErr error
		core, buildErr = graphcore.Build(processed, graphcore.DefaultEquivalencePredicates)
		return nil, buildErr
	})
	if err != nil {
		return d.fail(result, start, "graph-core", err)
	}
	metrics.SetConnectedComponents(len(core.Components()))

	priority, err := d.stage(ctx, result, "prioritize", func(context.Context) ([]*mapping.Mapping, error) {
		return prioritizer.Run(core, mapping.NewIndex(processed), prioritizer.PriorityList(cfg.Priority))
	})
	if err != nil {
		return d.fail(result, start, "prioritize", err)
	}
	result.Priority = priority
	metrics.SetMappingsAtStage("priority", len(priority))
	if err := d.persist(ctx, runID, store.StagePriority, priority); err != nil {
		return d.fail(result, start, "persist-priority", err)
	}

	if len(cfg.TermCounts) > 0 {
		_, err = d.stage(ctx, result, "landscape", func(context.Context) ([]*mapping.Mapping, error) {
			summary, analyzeErr := landscape.Analyze(raw, processed, core, landscapePrefixes(cfg), cfg.TermCounts)
			if analyzeErr != nil {
				return nil, analyzeErr
			}
			result.Landscape = &summary
			return nil, nil
		})
		if err != nil {
			return d.fail(result, start, "landscape", err)
		}
	}

	if err := d.serialize(cfg, result); err != nil {
		return d.fail(result, start, "serialize", err)
	}

	result.Status = "success"
	result.Duration = time.Since(start)
	return result, nil
}

// landscapePrefixes derives the fixed prefix set the landscape stage
// compares, from the term counts the caller configured.
func landscapePrefixes(cfg *config.Configuration) []string {
	prefixes := make([]string, 0, len(cfg.TermCounts))
	for p := range cfg.TermCounts {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

// stage runs fn, recording its duration and observing it via metrics
// regardless of outcome.
func (d *Driver) stage(ctx context.Context, result *Result, name string, fn func(context.Context) ([]*mapping.Mapping, error)) ([]*mapping.Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	began := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(began)
	result.StageDurations[name] = elapsed
	metrics.ObserveStageDuration(name, elapsed)
	if err != nil {
		return out, fmt.Errorf("stage %s failed: %w", name, err)
	}
	return out, nil
}

func (d *Driver) fail(result *Result, start time.Time, stage string, err error) (*Result, error) {
	result.Status = "failed"
	result.ErrorMessage = err.Error()
	result.Duration = time.Since(start)
	return result, err
}

// fetch dispatches each configured input to its registered adapter,
// skipping unavailable sources when d.Lenient, concatenates the results,
// and, if cfg.Lexical is set, runs the lexical candidate-mapping stage over
// the fetched collection before deduplicating.
func (d *Driver) fetch(ctx context.Context, cfg *config.Configuration) ([]*mapping.Mapping, error) {
	var all []*mapping.Mapping
	for _, desc := range cfg.Descriptors() {
		adapter, ok := d.Adapters[desc.Kind]
		if !ok {
			return nil, fmt.Errorf("pipeline: no adapter registered for source kind %q", desc.Kind)
		}

		fetched, err := source.FetchAll(ctx, adapter, []source.Descriptor{desc}, d.Lenient)
		if err != nil {
			metrics.IncSourceFetchError(desc.Kind, errorClass(err))
			return nil, err
		}
		metrics.IncMappingsIngested(desc.Kind, len(fetched))
		all = append(all, fetched...)
	}

	if cfg.Lexical != nil {
		candidates, err := d.lexicalCandidates(ctx, cfg.Lexical, all)
		if err != nil {
			return nil, fmt.Errorf("pipeline: lexical candidate stage: %w", err)
		}
		metrics.IncMappingsIngested("lexical", len(candidates))
		all = append(all, candidates...)
	}

	return mapping.Deduplicate(all), nil
}

// lexicalCandidates builds a lexical.Index from every distinct named
// reference under cfg.TargetPrefix already present in fetched, then
// generates candidate mappings from every distinct named reference under
// cfg.SourcePrefix against that index. It runs entirely over references
// other adapters already surfaced this fetch: it proposes mappings, it
// never reaches out to an external system of its own.
func (d *Driver) lexicalCandidates(ctx context.Context, cfg *config.Lexical, fetched []*mapping.Mapping) ([]*mapping.Mapping, error) {
	targets := distinctNamedReferences(fetched, cfg.TargetPrefix)
	if len(targets) == 0 {
		return nil, nil
	}

	idx, err := lexical.NewIndex(cfg.PersistPath)
	if err != nil {
		return nil, err
	}
	if err := idx.AddAll(ctx, targets); err != nil {
		return nil, err
	}

	sources := distinctNamedReferences(fetched, cfg.SourcePrefix)
	return idx.GenerateMappings(ctx, sources, cfg.TargetPrefix, cfg.MinSimilarity, cfg.Limit)
}

// distinctNamedReferences collects every distinct, displayably-named
// reference with the given prefix appearing as a subject or object in
// mappings.
func distinctNamedReferences(mappings []*mapping.Mapping, prefix string) []reference.Reference {
	seen := make(map[string]struct{})
	var out []reference.Reference
	collect := func(r reference.Reference) {
		if r.Prefix != prefix || r.Name == "" {
			return
		}
		curie := r.Curie()
		if _, ok := seen[curie]; ok {
			return
		}
		seen[curie] = struct{}{}
		out = append(out, r)
	}
	for _, m := range mappings {
		collect(m.Subject)
		collect(m.Object)
	}
	return out
}

func errorClass(err error) string {
	var malformed *source.Malformed
	if errors.As(err, &malformed) {
		return "malformed"
	}
	var unavailable *source.Unavailable
	if errors.As(err, &unavailable) {
		return "unavailable"
	}
	return "unknown"
}

// infer runs the configured inference engine over mappings. A
// *inference.CycleBudgetExhausted error is surfaced to the caller but is
// not fatal: Run returns the partial closure alongside it.
func (d *Driver) infer(ctx context.Context, cfg *config.Configuration, mappings []*mapping.Mapping) ([]*mapping.Mapping, error) {
	rules, err := cfg.MutationRules()
	if err != nil {
		return nil, err
	}

	engine := inference.New(d.Registry, inference.WithMutations(rules))
	out, err := engine.Run(ctx, mappings)

	var budgetExhausted *inference.CycleBudgetExhausted
	if errors.As(err, &budgetExhausted) {
		metrics.ObserveInferenceRounds(budgetExhausted.RoundsRun)
		metrics.IncCycleBudgetExhausted()
		return out, err
	}
	return out, err
}

// postFilter applies cfg's post-inference filters, including min_confidence,
// which the driver applies directly because it requires a confidence.Resolver
// built from the post-filtered collection, something config.Configuration
// deliberately doesn't rebuild itself (see Configuration.PostFilter's doc
// comment).
func (d *Driver) postFilter(cfg *config.Configuration, mappings []*mapping.Mapping) []*mapping.Mapping {
	out := cfg.PostFilter(mappings)
	if cfg.MinConfidence <= 0 {
		return out
	}
	idx := mapping.NewIndex(out)
	for _, m := range out {
		if c, ok := idx.AggregateConfidence(m.Triple()); ok {
			metrics.ObserveConfidence(c)
		}
	}
	return mapping.FilterMinConfidence(out, idx, cfg.MinConfidence)
}

// persist saves a stage's collection to d.Store, if configured. A nil
// Store disables artifact persistence entirely, for one-shot callers that
// only want the in-memory Result.
func (d *Driver) persist(ctx context.Context, runID string, stage store.Stage, mappings []*mapping.Mapping) error {
	if d.Store == nil {
		return nil
	}
	return d.Store.SaveCollection(ctx, runID, stage, mappings)
}

// serialize writes the raw, processed, and priority collections to their
// configured tabular output paths, skipping any
// stage whose path is empty.
func (d *Driver) serialize(cfg *config.Configuration, result *Result) error {
	writes := []struct {
		path     string
		mappings []*mapping.Mapping
	}{
		{cfg.Outputs.Raw, result.Raw},
		{cfg.Outputs.Processed, result.Processed},
		{cfg.Outputs.Priority, result.Priority},
	}
	for _, w := range writes {
		if w.path == "" {
			continue
		}
		if err := writeTabularFile(w.path, w.mappings); err != nil {
			return err
		}
	}
	return nil
}

func writeTabularFile(path string, mappings []*mapping.Mapping) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pipeline: opening %s: %w", path, err)
	}
	defer f.Close()
	if err := interchange.WriteTabular(f, mappings); err != nil {
		return fmt.Errorf("pipeline: writing %s: %w", path, err)
	}
	return nil
}
