// Package tagset implements the hierarchical semantic-domain taxonomy: the
// tree of domain codes that every classification in the platform resolves
// against.  Structural invariants (depth bounds, parent linkage) are enforced
// at ingestion; a node that violates them is a data-integrity error and is
// rejected with a count, never coerced into a guess.
package tagset

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tupiana/lexipipe/pkg/errors"
)

// Depth bounds of the taxonomy tree.  Depth 1 nodes are top-level domains
// ("nature", "emotion"); depth 4 is the finest subdivision the platform uses.
const (
	MinDepth = 1
	MaxDepth = 4
)

// NoDomainCode is the fixed code assigned to closed-class function words by
// the stopword level of the semantic classifier.  It is a real taxonomy
// member so downstream joins never dangle.
const NoDomainCode = "ND"

// NotClassifiedCode marks a word that fell through every classification
// level.  Distinct from NoDomainCode: ND means "known: carries no domain",
// NC means "unknown".
const NotClassifiedCode = "NC"

// Node is a single taxonomy entry.
type Node struct {
	// Code is the unique domain code, e.g. "AL" (alimentação) or "AL.BE"
	// (bebidas).
	Code string `json:"code"`

	// ParentCode is empty for depth-1 nodes and required for all others.
	ParentCode string `json:"parent_code,omitempty"`

	// Depth is the node's level in the tree, 1..4.
	Depth int `json:"depth"`

	// Label is the human-readable Portuguese name of the domain.
	Label string `json:"label"`
}

// Validate checks the node's intrinsic invariants, without reference to the
// rest of the tree.
func (n *Node) Validate() error {
	if strings.TrimSpace(n.Code) == "" {
		return errors.New(errors.ErrCodeValidation, "tagset node has empty code")
	}
	if n.Depth < MinDepth || n.Depth > MaxDepth {
		return errors.Newf(errors.ErrCodeTagsetDepthInvalid,
			"tagset node %q has depth %d outside [%d, %d]", n.Code, n.Depth, MinDepth, MaxDepth)
	}
	if n.Depth == MinDepth && n.ParentCode != "" {
		return errors.Newf(errors.ErrCodeValidation,
			"depth-1 tagset node %q must not have a parent (got %q)", n.Code, n.ParentCode)
	}
	if n.Depth > MinDepth && n.ParentCode == "" {
		return errors.Newf(errors.ErrCodeTagsetOrphanNode,
			"tagset node %q at depth %d has no parent", n.Code, n.Depth)
	}
	return nil
}

// LoadReport summarizes a taxonomy build: how many nodes were accepted and,
// per rejected node, why.
type LoadReport struct {
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Reasons  map[string]int `json:"reasons,omitempty"` // reason → count
}

func (r *LoadReport) reject(reason string) {
	r.Rejected++
	if r.Reasons == nil {
		r.Reasons = make(map[string]int)
	}
	r.Reasons[reason]++
}

// Taxonomy is an immutable, fully-linked view of the semantic tagset.
// Build it with New; lookups are safe for concurrent use.
type Taxonomy struct {
	nodes map[string]*Node
}

// New builds a Taxonomy from nodes, enforcing structural invariants.  Nodes
// failing intrinsic validation, duplicating a code, or referencing a parent
// absent from the input set are rejected and counted in the returned
// LoadReport; the surviving nodes form the taxonomy.  The sentinel codes ND
// and NC are always present regardless of input.
func New(nodes []Node) (*Taxonomy, *LoadReport) {
	report := &LoadReport{}
	t := &Taxonomy{nodes: make(map[string]*Node, len(nodes)+2)}

	// First pass: intrinsic validation and dedup.
	accepted := make([]Node, 0, len(nodes))
	codes := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		n := n
		if err := n.Validate(); err != nil {
			report.reject(errors.GetCode(err).String())
			continue
		}
		if codes[n.Code] {
			report.reject("duplicate_code")
			continue
		}
		codes[n.Code] = true
		accepted = append(accepted, n)
	}

	// Second pass: parent linkage.  A depth>1 node whose parent did not
	// survive the first pass is an orphan.
	for _, n := range accepted {
		n := n
		if n.Depth > MinDepth && !codes[n.ParentCode] {
			report.reject(errors.ErrCodeTagsetOrphanNode.String())
			continue
		}
		t.nodes[n.Code] = &n
		report.Accepted++
	}

	// Sentinels live at depth 1 with no parent.
	for _, code := range []string{NoDomainCode, NotClassifiedCode} {
		if _, ok := t.nodes[code]; !ok {
			t.nodes[code] = &Node{Code: code, Depth: MinDepth, Label: code}
		}
	}

	return t, report
}

// Resolve returns the node for code, or a not-found error.
func (t *Taxonomy) Resolve(code string) (*Node, error) {
	n, ok := t.nodes[code]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeTagsetNodeNotFound, "tagset node %q not found", code)
	}
	return n, nil
}

// Contains reports whether code is a member of the taxonomy.
func (t *Taxonomy) Contains(code string) bool {
	_, ok := t.nodes[code]
	return ok
}

// PathToRoot returns the chain of codes from code up to its depth-1 ancestor,
// inclusive, ordered leaf-first.
func (t *Taxonomy) PathToRoot(code string) ([]string, error) {
	path := make([]string, 0, MaxDepth)
	cur := code
	for {
		n, err := t.Resolve(cur)
		if err != nil {
			return nil, err
		}
		path = append(path, n.Code)
		if n.ParentCode == "" {
			return path, nil
		}
		if len(path) > MaxDepth {
			// Cannot happen with a validated tree; guards against a
			// corrupted store producing a parent cycle.
			return nil, errors.Newf(errors.ErrCodeTagsetCycleDetected,
				"tagset parent chain for %q exceeds max depth", code)
		}
		cur = n.ParentCode
	}
}

// Codes returns all member codes in lexical order.  Intended for diagnostics
// and the CLI, not hot paths.
func (t *Taxonomy) Codes() []string {
	out := make([]string, 0, len(t.nodes))
	for c := range t.nodes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of nodes, sentinels included.
func (t *Taxonomy) Len() int { return len(t.nodes) }

// String implements fmt.Stringer for log output.
func (t *Taxonomy) String() string {
	return fmt.Sprintf("Taxonomy(%d nodes)", len(t.nodes))
}

// Repository loads taxonomy nodes from the backing store.
type Repository interface {
	// ListNodes returns every persisted tagset node.
	ListNodes(ctx context.Context) ([]Node, error)
}

// Load fetches all nodes from repo and builds the taxonomy.
func Load(ctx context.Context, repo Repository) (*Taxonomy, *LoadReport, error) {
	nodes, err := repo.ListNodes(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load tagset nodes")
	}
	t, report := New(nodes)
	return t, report, nil
}
