// Package graphcore implements the graph core: the
// undirected equivalence graph over references connected by exactMatch or
// equivalentTo mappings, its connected components, and path lookups the
// prioritizer uses to summarize how two references in the same component
// are related.
package graphcore

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/biopragmatics/semra-go/internal/mapping"
	"github.com/biopragmatics/semra-go/internal/predicate"
	"github.com/biopragmatics/semra-go/internal/reference"
)

// DefaultEquivalencePredicates is the equivalence set names:
// exactMatch and equivalentTo. Callers may configure a different set on
// Build to widen or narrow what counts as an equivalence edge.
var DefaultEquivalencePredicates = []reference.Reference{
	predicate.ExactMatch,
	predicate.EquivalentTo,
}

// Core is the undirected equivalence graph plus its connected-component
// index. Build it from a mapping collection and an equivalence predicate
// set; it is read-only once constructed.
type Core struct {
	g          graph.Graph[string, reference.Reference]
	uf         *unionFind
	indexOf    map[string]int
	refOf      []reference.Reference
	components map[int][]reference.Reference // keyed by a component's union-find root index
}

func curieHash(r reference.Reference) string { return r.Curie() }

// Build constructs the equivalence graph over every mapping whose predicate
// is in equivalencePredicates, plus its connected components via union-find
// with path compression and union by rank.
func Build(mappings []*mapping.Mapping, equivalencePredicates []reference.Reference) (*Core, error) {
	allowed := make(map[reference.Reference]struct{}, len(equivalencePredicates))
	for _, p := range equivalencePredicates {
		allowed[p] = struct{}{}
	}

	c := &Core{
		g:       graph.New(curieHash, graph.Weighted()),
		indexOf: make(map[string]int),
	}

	nodeIndex := func(r reference.Reference) int {
		key := r.Curie()
		if i, ok := c.indexOf[key]; ok {
			return i
		}
		i := len(c.refOf)
		c.indexOf[key] = i
		c.refOf = append(c.refOf, r)
		if err := c.g.AddVertex(r); err != nil && err != graph.ErrVertexAlreadyExists {
			// AddVertex only errors on hash collision with a distinct value,
			// which can't happen here since the hash is the CURIE itself.
			panic(fmt.Sprintf("graphcore: unexpected AddVertex error for %s: %v", key, err))
		}
		return i
	}

	var edges [][2]int
	for _, m := range mappings {
		if _, ok := allowed[m.Predicate]; !ok {
			continue
		}
		si := nodeIndex(m.Subject)
		oi := nodeIndex(m.Object)
		if err := c.g.AddEdge(m.Subject.Curie(), m.Object.Curie(), graph.EdgeWeight(1)); err != nil && err != graph.ErrEdgeAlreadyExists {
			return nil, fmt.Errorf("graphcore: adding edge %s-%s: %w", m.Subject.Curie(), m.Object.Curie(), err)
		}
		edges = append(edges, [2]int{si, oi})
	}

	c.uf = newUnionFind(len(c.refOf))
	for _, e := range edges {
		c.uf.union(e[0], e[1])
	}

	c.components = make(map[int][]reference.Reference)
	for i, r := range c.refOf {
		root := c.uf.find(i)
		c.components[root] = append(c.components[root], r)
	}

	return c, nil
}

// Components returns every connected component with more than zero nodes,
// each sorted by CURIE, with components themselves ordered by their
// lexicographically smallest member so output is stable across runs.
func (c *Core) Components() [][]reference.Reference {
	out := make([][]reference.Reference, 0, len(c.components))
	for _, members := range c.components {
		sorted := append([]reference.Reference(nil), members...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Curie() < sorted[j].Curie() })
		out = append(out, sorted)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0].Curie() < out[j][0].Curie() })
	return out
}

// Component returns the connected component containing r, or false if r
// was never added to the graph (no equivalence-predicate mapping touches
// it).
func (c *Core) Component(r reference.Reference) ([]reference.Reference, bool) {
	i, ok := c.indexOf[r.Curie()]
	if !ok {
		return nil, false
	}
	root := c.uf.find(i)
	members := c.components[root]
	sorted := append([]reference.Reference(nil), members...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Curie() < sorted[j].Curie() })
	return sorted, true
}

// SameComponent reports whether a and b are connected by equivalence
// mappings.
func (c *Core) SameComponent(a, b reference.Reference) bool {
	ai, aok := c.indexOf[a.Curie()]
	bi, bok := c.indexOf[b.Curie()]
	if !aok || !bok {
		return false
	}
	return c.uf.find(ai) == c.uf.find(bi)
}

// Path returns a shortest path between a and b through equivalence edges,
// used by the prioritizer to summarize how a non-canonical node relates to
// its component's canonical member.
func (c *Core) Path(a, b reference.Reference) ([]reference.Reference, error) {
	hashes, err := graph.ShortestPath(c.g, a.Curie(), b.Curie())
	if err != nil {
		return nil, fmt.Errorf("graphcore: no path from %s to %s: %w", a.Curie(), b.Curie(), err)
	}
	path := make([]reference.Reference, len(hashes))
	for i, h := range hashes {
		path[i] = c.refOf[c.indexOf[h]]
	}
	return path, nil
}

// NodeCount returns the number of distinct references in the graph.
func (c *Core) NodeCount() int { return len(c.refOf) }
