// Package inference implements the inference engine:
// inversion, transitive chaining, generalization, and predicate mutation,
// applied in rounds until a fixed point or an iteration budget is
// exhausted.
package inference

import (
	"context"
	"fmt"
	"log"

	"github.com/biopragmatics/semra-go/internal/confidence"
	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// cancellationChunk is how many candidate mappings a rule processes
// between context.Context checks, so a cancelled run notices quickly
// even mid-round on a large collection.
const cancellationChunk = 10_000

// DefaultMaxRounds bounds the transitive-chaining fixed-point iteration
// when the caller doesn't configure one.
const DefaultMaxRounds = 5

// MutationRule is a predicate-mutation rule supplied by the caller.
type MutationRule struct {
	SourcePrefix string
	TargetPrefix string // empty means "any prefix"
	OldPredicate reference.Reference
	NewPredicate reference.Reference
	Confidence   float64
}

func (r MutationRule) matchesTarget(prefix string) bool {
	return r.TargetPrefix == "" || r.TargetPrefix == prefix
}

// CycleBudgetExhausted reports that transitive chaining did not reach a
// fixed point within the round budget. It is non-fatal: downstream stages
// see the partial closure produced so far.
type CycleBudgetExhausted struct {
	RoundsRun      int
	LastRoundGains int
}

func (e *CycleBudgetExhausted) Error() string {
	return fmt.Sprintf("inference did not reach a fixed point after %d rounds (last round produced %d new mappings)", e.RoundsRun, e.LastRoundGains)
}

// Engine applies inversion, chaining, generalization, and predicate
// mutation over a mapping collection.
type Engine struct {
	predicates *predicate.Registry
	mutations  []MutationRule
	maxRounds  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMutations sets the predicate-mutation rules the engine applies each round.
func WithMutations(rules []MutationRule) Option {
	return func(e *Engine) { e.mutations = rules }
}

// WithMaxRounds overrides DefaultMaxRounds.
func WithMaxRounds(n int) Option {
	return func(e *Engine) { e.maxRounds = n }
}

// New builds an Engine consulting registry for predicate metadata.
func New(registry *predicate.Registry, opts ...Option) *Engine {
	e := &Engine{predicates: registry, maxRounds: DefaultMaxRounds}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run expands mappings by repeatedly applying inversion, mutation,
// generalization, and chaining, in that order, until no round produces a
// new mapping or the round budget is exhausted. The
// returned slice is deduplicated. A *CycleBudgetExhausted error is returned
// alongside the partial closure when the budget runs out first; callers
// may treat it as non-fatal.
func (e *Engine) Run(ctx context.Context, mappings []*mapping.Mapping) ([]*mapping.Mapping, error) {
	idx := mapping.NewIndex(mappings)

	for round := 1; round <= e.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return idx.Slice(), err
		}

		before := idx.Len()

		produced, err := e.applyRound(ctx, idx)
		if err != nil {
			return idx.Slice(), err
		}

		all := append(idx.Slice(), produced...)
		idx = mapping.NewIndex(all)

		gained := idx.Len() - before
		if gained == 0 {
			return idx.Slice(), nil
		}
		if round == e.maxRounds {
			log.Printf("inference: round budget (%d) exhausted with %d new mappings in the final round", e.maxRounds, gained)
			return idx.Slice(), &CycleBudgetExhausted{RoundsRun: round, LastRoundGains: gained}
		}
	}
	return idx.Slice(), nil
}

// applyRound runs inversion, mutation, generalization, and chaining in
// order against a single consistent snapshot (idx), returning every newly
// produced mapping. Rules never see each other's output mid-round: each
// reads only from idx. All four rules share one confidence.Memo over idx
// for the round: they repeatedly ask the same resolvability question
// about the same parent triples (inversion and generalization re-derive
// the same mapping's aggregate confidence that mutation and chaining
// already looked up, and chaining re-resolves the same ab leg once per
// bc candidate), so caching idx's resolved triples for the round avoids
// redoing that recursive aggregation work.
func (e *Engine) applyRound(ctx context.Context, idx *mapping.Index) ([]*mapping.Mapping, error) {
	var produced []*mapping.Mapping
	resolver := confidence.NewMemo(idx, 0)

	steps := []func(context.Context, *mapping.Index, confidence.Resolver) ([]*mapping.Mapping, error){
		e.inversion,
		e.mutation,
		e.generalization,
		e.chaining,
	}
	for _, step := range steps {
		out, err := step(ctx, idx, resolver)
		if err != nil {
			return nil, err
		}
		produced = append(produced, out...)
	}
	return produced, nil
}

// checkCancellation is called every cancellationChunk candidates processed
// within a rule, so a long-running rule still notices ctx cancellation
// between chunks.
func checkCancellation(ctx context.Context, processed int) error {
	if processed%cancellationChunk != 0 {
		return nil
	}
	return ctx.Err()
}

// inversion: for (s, p, o) with p symmetric or invertible, produce
// (o, p^-1, s) if absent, with a single reasoned evidence whose confidence
// is the original's aggregate.
func (e *Engine) inversion(ctx context.Context, idx *mapping.Index, resolver confidence.Resolver) ([]*mapping.Mapping, error) {
	var out []*mapping.Mapping

	for i, m := range idx.Slice() {
		if err := checkCancellation(ctx, i+1); err != nil {
			return nil, err
		}

		inv, ok := e.predicates.Inverse(m.Predicate)
		if !ok {
			continue
		}
		if _, exists := idx.Get(evidence.Triple{Subject: m.Object, Predicate: inv, Object: m.Subject}); exists {
			continue
		}

		c, err := confidence.Aggregate(m.Evidences.Slice(), resolver)
		if err != nil {
			continue
		}

		reasoned := evidence.NewSetOf(&evidence.ReasonedEvidence{
			JustificationRef: evidence.JustificationInversion,
			Confidence:       c,
			Parents:          []evidence.Triple{m.Triple()},
		})
		derived, err := mapping.New(m.Object, inv, m.Subject, reasoned)
		if err != nil {
			continue
		}
		out = append(out, derived)
	}
	return out, nil
}

// generalization: for every mapping whose predicate generalizes to a
// broader predicate, produce the same triple under that predicate.
func (e *Engine) generalization(ctx context.Context, idx *mapping.Index, resolver confidence.Resolver) ([]*mapping.Mapping, error) {
	var out []*mapping.Mapping

	for i, m := range idx.Slice() {
		if err := checkCancellation(ctx, i+1); err != nil {
			return nil, err
		}

		general, ok := e.predicates.GeneralizesTo(m.Predicate)
		if !ok {
			continue
		}
		if _, exists := idx.Get(evidence.Triple{Subject: m.Subject, Predicate: general, Object: m.Object}); exists {
			continue
		}

		c, err := confidence.Aggregate(m.Evidences.Slice(), resolver)
		if err != nil {
			continue
		}

		reasoned := evidence.NewSetOf(&evidence.ReasonedEvidence{
			JustificationRef: evidence.JustificationGeneralization,
			Confidence:       c,
			Parents:          []evidence.Triple{m.Triple()},
		})
		derived, err := mapping.New(m.Subject, general, m.Object, reasoned)
		if err != nil {
			continue
		}
		out = append(out, derived)
	}
	return out, nil
}

// mutation: caller-supplied rules promoting a predicate on matching
// (subject prefix, object prefix) pairs to a new predicate.
func (e *Engine) mutation(ctx context.Context, idx *mapping.Index, resolver confidence.Resolver) ([]*mapping.Mapping, error) {
	if len(e.mutations) == 0 {
		return nil, nil
	}

	var out []*mapping.Mapping
	for i, m := range idx.Slice() {
		if err := checkCancellation(ctx, i+1); err != nil {
			return nil, err
		}

		for _, rule := range e.mutations {
			if m.Subject.Prefix != rule.SourcePrefix || m.Predicate != rule.OldPredicate {
				continue
			}
			if !rule.matchesTarget(m.Object.Prefix) {
				continue
			}
			if _, exists := idx.Get(evidence.Triple{Subject: m.Subject, Predicate: rule.NewPredicate, Object: m.Object}); exists {
				continue
			}

			c, err := confidence.Aggregate(m.Evidences.Slice(), resolver)
			if err != nil {
				continue
			}

			reasoned := evidence.NewSetOf(&evidence.ReasonedEvidence{
				JustificationRef: evidence.JustificationMutation,
				Confidence:       c * rule.Confidence,
				Parents:          []evidence.Triple{m.Triple()},
			})
			derived, err := mapping.New(m.Subject, rule.NewPredicate, m.Object, reasoned)
			if err != nil {
				continue
			}
			out = append(out, derived)
		}
	}
	return out, nil
}

// chaining: for transitive predicates, given (a, p, b) and (b, p, c)
// with a != c, produce (a, p, c). This implements length-2 chaining per
// round; Run's outer loop iterates rounds to reach longer chains.
func (e *Engine) chaining(ctx context.Context, idx *mapping.Index, resolver confidence.Resolver) ([]*mapping.Mapping, error) {
	var out []*mapping.Mapping

	mappings := idx.Slice()
	for i, ab := range mappings {
		if err := checkCancellation(ctx, i+1); err != nil {
			return nil, err
		}
		if !e.predicates.IsTransitive(ab.Predicate) {
			continue
		}

		for _, bc := range idx.BySubjectPredicate(ab.Object, ab.Predicate) {
			if ab.Subject.Equal(bc.Object) {
				// edge case (ii): a chain producing a -> a is dropped.
				continue
			}
			if _, exists := idx.Get(evidence.Triple{Subject: ab.Subject, Predicate: ab.Predicate, Object: bc.Object}); exists {
				continue
			}

			cAB, err := confidence.Aggregate(ab.Evidences.Slice(), resolver)
			if err != nil {
				continue
			}
			cBC, err := confidence.Aggregate(bc.Evidences.Slice(), resolver)
			if err != nil {
				continue
			}

			reasoned := evidence.NewSetOf(&evidence.ReasonedEvidence{
				JustificationRef: evidence.JustificationChaining,
				Confidence:       cAB * cBC,
				Parents:          []evidence.Triple{ab.Triple(), bc.Triple()},
			})
			derived, err := mapping.New(ab.Subject, ab.Predicate, bc.Object, reasoned)
			if err != nil {
				continue
			}
			out = append(out, derived)
		}
	}
	return out, nil
}
