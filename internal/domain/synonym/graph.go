// Package synonym defines the synonymy relation and the graph contract the
// propagation engine traverses.  Edges are undirected and may form cycles;
// traversal safety is the propagation engine's concern.
package synonym

import (
	"context"
	"strings"

	"github.com/tupiana/lexipipe/internal/domain/morphology"
	"github.com/tupiana/lexipipe/pkg/errors"
)

// Edge is an undirected synonymy relation between two words.  WordA/WordB
// are stored normalized; Normalize orders them lexically so the same edge
// always persists under one identity regardless of input order.
type Edge struct {
	WordA  string `json:"word_a"`
	WordB  string `json:"word_b"`
	Source string `json:"source,omitempty"`
}

// Normalize canonicalizes both endpoints and orders them lexically.
func (e *Edge) Normalize() {
	e.WordA = morphology.Normalize(e.WordA)
	e.WordB = morphology.Normalize(e.WordB)
	if e.WordA > e.WordB {
		e.WordA, e.WordB = e.WordB, e.WordA
	}
}

// Validate rejects degenerate edges.
func (e *Edge) Validate() error {
	if strings.TrimSpace(e.WordA) == "" || strings.TrimSpace(e.WordB) == "" {
		return errors.New(errors.ErrCodeValidation, "synonym edge has an empty endpoint")
	}
	if e.WordA == e.WordB {
		return errors.Newf(errors.ErrCodeValidation, "synonym edge is a self-loop on %q", e.WordA)
	}
	return nil
}

// GraphRepository is the persistence contract for the synonym graph, backed
// by Neo4j in production.
type GraphRepository interface {
	// Neighbors returns the normalized words adjacent to word.  An unknown
	// word yields an empty slice, not an error.
	Neighbors(ctx context.Context, word string) ([]string, error)

	// NeighborsBatch returns adjacency for many words keyed by word.
	NeighborsBatch(ctx context.Context, words []string) (map[string][]string, error)

	// AddEdge persists the normalized edge, idempotent on (word_a, word_b).
	AddEdge(ctx context.Context, edge *Edge) error
}

// MemoryGraph is an in-memory GraphRepository for tests and small fixtures.
type MemoryGraph struct {
	adj map[string]map[string]bool
}

// NewMemoryGraph builds an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{adj: make(map[string]map[string]bool)}
}

// AddEdge implements GraphRepository.
func (g *MemoryGraph) AddEdge(_ context.Context, edge *Edge) error {
	e := *edge
	e.Normalize()
	if err := e.Validate(); err != nil {
		return err
	}
	g.link(e.WordA, e.WordB)
	g.link(e.WordB, e.WordA)
	return nil
}

func (g *MemoryGraph) link(from, to string) {
	if g.adj[from] == nil {
		g.adj[from] = make(map[string]bool)
	}
	g.adj[from][to] = true
}

// Neighbors implements GraphRepository.
func (g *MemoryGraph) Neighbors(_ context.Context, word string) ([]string, error) {
	out := make([]string, 0, len(g.adj[morphology.Normalize(word)]))
	for w := range g.adj[morphology.Normalize(word)] {
		out = append(out, w)
	}
	return out, nil
}

// NeighborsBatch implements GraphRepository.
func (g *MemoryGraph) NeighborsBatch(ctx context.Context, words []string) (map[string][]string, error) {
	out := make(map[string][]string, len(words))
	for _, w := range words {
		ns, err := g.Neighbors(ctx, w)
		if err != nil {
			return nil, err
		}
		if len(ns) > 0 {
			out[morphology.Normalize(w)] = ns
		}
	}
	return out, nil
}
