// Package confidence implements the confidence model:
// per-evidence confidence and noisy-or aggregation across a mapping's
// evidence set. Aggregate confidence is always derived from the evidence
// set, never stored independently, so this package exposes
// pure functions plus an optional memoizing resolver for the inference
// engine's repeated parent-confidence lookups during chaining.
package confidence

import (
	"fmt"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/pkg/cache"
)

// Resolver looks up the current aggregate confidence of a mapping by its
// triple identity. ReasonedEvidence only stores parent triples, so
// computing a reasoned evidence's per-evidence confidence requires
// resolving those triples back to mappings and recursing into their own
// aggregate confidence.
type Resolver interface {
	AggregateConfidence(t evidence.Triple) (float64, bool)
}

// PerEvidence returns e's own contribution to a mapping's confidence,
// before noisy-or combination with sibling evidences.
func PerEvidence(e evidence.Evidence, resolver Resolver) (float64, error) {
	switch ev := e.(type) {
	case *evidence.SimpleEvidence:
		c := ev.Confidence
		if ev.Set != nil && ev.Set.HasConfidence {
			c *= ev.Set.Confidence
		}
		return clamp(c), nil

	case *evidence.ReasonedEvidence:
		// The rule-specific factor is already folded into ev.Confidence by
		// the inference engine at creation time: confidence is the product
		// of the parents' aggregate confidences, multiplied by a
		// rule-specific factor. Re-deriving from parents here would
		// double-count the factor, so we trust the stored value but still
		// require the parents to be resolvable, guarding against
		// evidence that references mappings no longer in the collection.
		if len(ev.Parents) == 0 {
			return 0, fmt.Errorf("reasoned evidence %s has no parents", ev.Hash())
		}
		if resolver != nil {
			for _, p := range ev.Parents {
				if _, ok := resolver.AggregateConfidence(p); !ok {
					return 0, fmt.Errorf("reasoned evidence %s: parent %s not resolvable", ev.Hash(), p)
				}
			}
		}
		return clamp(ev.Confidence), nil

	default:
		return 0, fmt.Errorf("unknown evidence type %T", e)
	}
}

// Aggregate combines a mapping's evidence set into a single score via the
// noisy-or rule: 1 - prod(1 - c_e). This is monotone and associative over
// evidence union.
func Aggregate(evidences []evidence.Evidence, resolver Resolver) (float64, error) {
	if len(evidences) == 0 {
		return 0, fmt.Errorf("cannot aggregate an empty evidence set")
	}

	product := 1.0
	for _, e := range evidences {
		c, err := PerEvidence(e, resolver)
		if err != nil {
			return 0, err
		}
		product *= 1 - c
	}
	return clamp(1 - product), nil
}

func clamp(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Memo wraps a Resolver with an LRU cache keyed by mapping triple, per
// its "Implementations MAY memoize with invalidation on
// evidence union" — callers must call Invalidate whenever a mapping's
// evidence set changes (deduplication's union step).
type Memo struct {
	inner Resolver
	cache *cache.LRU[evidence.Triple, float64]
}

// NewMemo wraps resolver with a cache holding up to maxEntries triples.
// maxEntries <= 0 means unlimited.
func NewMemo(resolver Resolver, maxEntries int) *Memo {
	return &Memo{
		inner: resolver,
		cache: cache.New[evidence.Triple, float64](&cache.Config{MaxEntries: maxEntries}),
	}
}

// AggregateConfidence implements Resolver, checking the cache before
// delegating to the wrapped resolver.
func (m *Memo) AggregateConfidence(t evidence.Triple) (float64, bool) {
	if c, ok := m.cache.Get(t); ok {
		return c, true
	}
	c, ok := m.inner.AggregateConfidence(t)
	if ok {
		m.cache.Set(t, c)
	}
	return c, ok
}

// Invalidate drops t's cached confidence, e.g. after its evidence set was
// unioned with another mapping's during deduplication.
func (m *Memo) Invalidate(t evidence.Triple) {
	m.cache.Delete(t)
}
