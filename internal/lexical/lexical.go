// Package lexical implements the candidate-mapping lexical index: an
// optional stage that proposes candidate mappings from similarity between
// reference display names (synonyms are not indexed), ahead of the pipeline's main
// inference pass. It is not part of the curated source-adapter contract in
// internal/source; it is its own kind of source, backed by a local
// nearest-neighbor embedding index rather than a curated mapping set.
package lexical

import (
	"context"
	"fmt"
	"sort"

	chromem "github.com/philippgille/chromem-go"

	"github.com/biopragmatics/semra-go/internal/evidence"
	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
)

const collectionName = "references"

// JustificationLexicalMatch is the evidence justification lexical.Index
// attaches to every candidate mapping it produces.
var JustificationLexicalMatch = evidence.JustificationLexicalMatch

// Index embeds reference display names and serves nearest-neighbor lookups
// for candidate mapping generation. Index embeds locally and
// deterministically, with no call to a remote embedding API: lexical
// matching here is a character-n-gram bag, not a semantic model, which
// keeps the index reproducible and offline.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	refByCurie map[string]reference.Reference
}

// NewIndex creates an in-memory lexical index. persistPath, if non-empty,
// makes the index durable across pipeline runs.
func NewIndex(persistPath string) (*Index, error) {
	var db *chromem.DB
	var err error
	if persistPath != "" {
		db, err = chromem.NewPersistentDB(persistPath, false)
	} else {
		db = chromem.NewDB()
	}
	if err != nil {
		return nil, fmt.Errorf("lexical: creating vector db: %w", err)
	}

	collection, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("lexical: creating collection: %w", err)
	}

	return &Index{db: db, collection: collection, refByCurie: make(map[string]reference.Reference)}, nil
}

// Add embeds r's display name and adds it to the index. References with no
// display name carry no lexical signal and are skipped.
func (idx *Index) Add(ctx context.Context, r reference.Reference) error {
	if r.Name == "" {
		return nil
	}
	curie := r.Curie()
	idx.refByCurie[curie] = r

	err := idx.collection.AddDocument(ctx, chromem.Document{
		ID:        curie,
		Content:   r.Name,
		Metadata:  map[string]string{"prefix": r.Prefix},
		Embedding: embed(r.Name),
	})
	if err != nil {
		return fmt.Errorf("lexical: indexing %s: %w", curie, err)
	}
	return nil
}

// AddAll indexes every reference in refs.
func (idx *Index) AddAll(ctx context.Context, refs []reference.Reference) error {
	for _, r := range refs {
		if err := idx.Add(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Candidate is a nearest-neighbor hit: a reference and its similarity to
// the query, in [0,1] (cosine similarity of the n-gram embeddings).
type Candidate struct {
	Reference  reference.Reference
	Similarity float32
}

// Nearest returns up to limit references whose display name is lexically
// closest to name, restricted to targetPrefix if non-empty.
func (idx *Index) Nearest(ctx context.Context, name, targetPrefix string, limit int) ([]Candidate, error) {
	if limit <= 0 {
		limit = 10
	}
	var filter map[string]string
	if targetPrefix != "" {
		filter = map[string]string{"prefix": targetPrefix}
	}

	n := limit
	if size := idx.collection.Count(); size < n {
		n = size
	}
	if n == 0 {
		return nil, nil
	}

	results, err := idx.collection.QueryEmbedding(ctx, embed(name), n, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("lexical: querying %q: %w", name, err)
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		r, ok := idx.refByCurie[res.ID]
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Reference: r, Similarity: res.Similarity})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Similarity > candidates[j].Similarity })
	return candidates, nil
}

// GenerateMappings builds candidate mappings between every reference in
// sources and its nearest neighbors restricted to targetPrefix, keeping
// only candidates at or above minSimilarity. Each mapping carries a single
// simple evidence with justification=lexical match and confidence equal to
// the similarity score, so predicate mutation and noisy-or confidence
// aggregation both treat it like any other curated evidence.
func (idx *Index) GenerateMappings(ctx context.Context, sources []reference.Reference, targetPrefix string, minSimilarity float32, limit int) ([]*mapping.Mapping, error) {
	var out []*mapping.Mapping
	for _, src := range sources {
		if src.Name == "" {
			continue
		}
		candidates, err := idx.Nearest(ctx, src.Name, targetPrefix, limit)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if c.Reference.Equal(src) || c.Similarity < minSimilarity {
				continue
			}
			set := evidence.NewSetOf(&evidence.SimpleEvidence{
				JustificationRef: JustificationLexicalMatch,
				Confidence:       float64(c.Similarity),
			})
			m, err := mapping.New(src, predicate.ExactMatch, c.Reference, set)
			if err != nil {
				continue // self-mapping guard in mapping.New; skip rather than fail the batch
			}
			out = append(out, m)
		}
	}
	return out, nil
}
