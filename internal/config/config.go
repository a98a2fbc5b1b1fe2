// Package config implements the declarative pipeline configuration: the
// document a pipeline run is driven from, parsed from YAML and validated.
// Values come from the file alone: no defaults or environment overrides
// are applied.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/biopragmatics/semra-go/internal/inference"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/reference"
	"github.com/biopragmatics/semra-go/internal/source"
)

// Input describes one source to fetch mappings from.
type Input struct {
	Kind       string            `yaml:"kind"`
	Prefix     string            `yaml:"prefix,omitempty"`
	Confidence float64           `yaml:"confidence,omitempty"`
	Extras     map[string]string `yaml:"extras,omitempty"`
}

func (in Input) toDescriptor() source.Descriptor {
	return source.Descriptor{Kind: in.Kind, Prefix: in.Prefix, Confidence: in.Confidence, Extras: in.Extras}
}

// Mutation is the YAML form of an inference.MutationRule: predicates are
// written as CURIEs and resolved at load time.
type Mutation struct {
	SourcePrefix string  `yaml:"source_prefix"`
	TargetPrefix string  `yaml:"target_prefix"`
	OldPredicate string  `yaml:"old_predicate"`
	NewPredicate string  `yaml:"new_predicate"`
	Confidence   float64 `yaml:"confidence"`
}

func (m Mutation) toRule() (inference.MutationRule, error) {
	oldPredicate, err := reference.Parse(m.OldPredicate)
	if err != nil {
		return inference.MutationRule{}, fmt.Errorf("mutation old_predicate: %w", err)
	}
	newPredicate, err := reference.Parse(m.NewPredicate)
	if err != nil {
		return inference.MutationRule{}, fmt.Errorf("mutation new_predicate: %w", err)
	}
	return inference.MutationRule{
		SourcePrefix: m.SourcePrefix,
		TargetPrefix: m.TargetPrefix,
		OldPredicate: oldPredicate,
		NewPredicate: newPredicate,
		Confidence:   m.Confidence,
	}, nil
}

// Outputs names the filesystem paths a pipeline run writes its artifacts
// to, one per stage: raw, processed, and priority.
type Outputs struct {
	Raw       string `yaml:"raw"`
	Processed string `yaml:"processed"`
	Priority  string `yaml:"priority"`
}

// Lexical configures the optional candidate-mapping lexical-matching stage:
// propose exactMatch candidates between references harvested from
// SourcePrefix and TargetPrefix during fetch, lexically rather than from a
// curated source. Nil disables the stage.
type Lexical struct {
	SourcePrefix  string  `yaml:"source_prefix"`
	TargetPrefix  string  `yaml:"target_prefix"`
	MinSimilarity float32 `yaml:"min_similarity"`
	Limit         int     `yaml:"limit,omitempty"`
	PersistPath   string  `yaml:"persist_path,omitempty"`
}

// Configuration is a complete pipeline run specification.
type Configuration struct {
	Name        string   `yaml:"name"`
	Key         string   `yaml:"key"`
	Description string   `yaml:"description,omitempty"`
	Creators    []string `yaml:"creators,omitempty"`

	Inputs    []Input    `yaml:"inputs"`
	Priority  []string   `yaml:"priority"`
	Mutations []Mutation `yaml:"mutations,omitempty"`

	// Subsets restricts each source vocabulary (by prefix) to the
	// sub-hierarchy under the given CURIE roots. This implementation
	// checks root membership by exact reference match rather than
	// transitive closure under is-a, since no ontology hierarchy is
	// modeled in this repo; hierarchy traversal belongs to source
	// adapters, which are out of scope for the core.
	Subsets map[string][]string `yaml:"subsets,omitempty"`

	KeepPrefixes       []string `yaml:"keep_prefixes,omitempty"`
	RemovePrefixes     []string `yaml:"remove_prefixes,omitempty"`
	PostKeepPrefixes   []string `yaml:"post_keep_prefixes,omitempty"`
	PostRemovePrefixes []string `yaml:"post_remove_prefixes,omitempty"`

	// MinConfidence drops mappings whose aggregated confidence falls below
	// it, applied alongside the post-filters.
	MinConfidence float64 `yaml:"min_confidence,omitempty"`

	RemoveImprecise bool `yaml:"remove_imprecise,omitempty"`

	// TermCounts gives the landscape analyzer each prefix's total term
	// count. There is no live source for this in a running pipeline, so
	// the driver accepts it here rather than inventing an
	// ontology-metadata source adapter.
	TermCounts map[string]int `yaml:"term_counts,omitempty"`

	Lexical *Lexical `yaml:"lexical,omitempty"`

	Outputs Outputs `yaml:"outputs"`
}

// InvalidConfiguration reports a structural problem found by Validate:
// a missing required field or a malformed mutation/subset reference.
type InvalidConfiguration struct {
	Field string
	Cause error
}

func (e *InvalidConfiguration) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("config: %s", e.Field)
	}
	return fmt.Sprintf("config: %s: %v", e.Field, e.Cause)
}

func (e *InvalidConfiguration) Unwrap() error { return e.Cause }

// Load parses a Configuration from a YAML file and validates it.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Configuration
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the structural invariants a well-formed configuration
// must satisfy: a non-empty name/key, at least one input, and well-formed
// mutation/subset references.
func (c *Configuration) Validate() error {
	if c.Name == "" {
		return &InvalidConfiguration{Field: "name cannot be empty"}
	}
	if c.Key == "" {
		return &InvalidConfiguration{Field: "key cannot be empty"}
	}
	if len(c.Inputs) == 0 {
		return &InvalidConfiguration{Field: "inputs cannot be empty"}
	}
	for i, m := range c.Mutations {
		if _, err := m.toRule(); err != nil {
			return &InvalidConfiguration{Field: fmt.Sprintf("mutations[%d]", i), Cause: err}
		}
	}
	for prefix, roots := range c.Subsets {
		for _, root := range roots {
			if _, err := reference.Parse(root); err != nil {
				return &InvalidConfiguration{Field: fmt.Sprintf("subsets[%s]", prefix), Cause: err}
			}
		}
	}
	return nil
}

// Descriptors returns the source descriptors for c.Inputs, ready to pass to
// source.FetchAll.
func (c *Configuration) Descriptors() []source.Descriptor {
	out := make([]source.Descriptor, len(c.Inputs))
	for i, in := range c.Inputs {
		out[i] = in.toDescriptor()
	}
	return out
}

// MutationRules resolves c.Mutations into inference.MutationRule values.
func (c *Configuration) MutationRules() ([]inference.MutationRule, error) {
	rules := make([]inference.MutationRule, len(c.Mutations))
	for i, m := range c.Mutations {
		rule, err := m.toRule()
		if err != nil {
			return nil, fmt.Errorf("mutations[%d]: %w", i, err)
		}
		rules[i] = rule
	}
	return rules, nil
}

// PreFilter applies c's subset, keep_prefixes, and remove_prefixes
// restrictions, the filters that apply before inference.
func (c *Configuration) PreFilter(mappings []*mapping.Mapping) []*mapping.Mapping {
	out := c.applySubsets(mappings)
	out = applyKeepRemove(out, c.KeepPrefixes, c.RemovePrefixes)
	return out
}

// PostFilter applies c's post_keep_prefixes, post_remove_prefixes, and
// (if set) remove_imprecise restrictions, applied after inference.
// MinConfidence is applied separately by the pipeline driver, which has
// the confidence.Resolver this filter would otherwise need to rebuild.
func (c *Configuration) PostFilter(mappings []*mapping.Mapping) []*mapping.Mapping {
	out := applyKeepRemove(mappings, c.PostKeepPrefixes, c.PostRemovePrefixes)
	if c.RemoveImprecise {
		out = removeDbXref(out)
	}
	return out
}

func applyKeepRemove(mappings []*mapping.Mapping, keep, remove []string) []*mapping.Mapping {
	if len(keep) == 0 && len(remove) == 0 {
		return mappings
	}
	out := mappings
	if len(keep) > 0 {
		// keep retains a mapping only when both its subject and its object
		// have a kept prefix.
		out = mapping.FilterPrefixes(out, mapping.PrefixFilter{Keep: keep, Side: mapping.PrefixSource})
		out = mapping.FilterPrefixes(out, mapping.PrefixFilter{Keep: keep, Side: mapping.PrefixTarget})
	}
	return mapping.FilterPrefixes(out, mapping.PrefixFilter{Remove: remove, Side: mapping.PrefixEither})
}

func removeDbXref(mappings []*mapping.Mapping) []*mapping.Mapping {
	dbXref := reference.New("oboInOwl", "hasDbXref")
	kept := make([]*mapping.Mapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Predicate.Equal(dbXref) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

func (c *Configuration) applySubsets(mappings []*mapping.Mapping) []*mapping.Mapping {
	if len(c.Subsets) == 0 {
		return mappings
	}

	roots := make(map[string]map[reference.Reference]bool, len(c.Subsets))
	for prefix, curies := range c.Subsets {
		set := make(map[reference.Reference]bool, len(curies))
		for _, curie := range curies {
			if r, err := reference.Parse(curie); err == nil {
				set[r] = true
			}
		}
		roots[prefix] = set
	}

	kept := make([]*mapping.Mapping, 0, len(mappings))
	for _, m := range mappings {
		if !inSubset(m.Subject, roots) || !inSubset(m.Object, roots) {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}

// inSubset reports whether r passes its prefix's subset restriction: either
// the prefix has no restriction, or r is literally one of the configured
// roots.
func inSubset(r reference.Reference, roots map[string]map[reference.Reference]bool) bool {
	set, restricted := roots[r.Prefix]
	if !restricted {
		return true
	}
	return set[r]
}
