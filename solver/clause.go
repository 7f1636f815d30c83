package solver

import (
	"slices"

	"github.com/albertocavalcante/go-depsolve/graph"
)

// lit is a literal over candidate variables: 2*id for "id selected",
// 2*id+1 for "id not selected".
type lit int32

const noLit lit = -1

func pos(id graph.CandidateID) lit { return lit(id) << 1 }
func neg(id graph.CandidateID) lit { return lit(id)<<1 | 1 }

func (l lit) id() graph.CandidateID { return graph.CandidateID(l >> 1) }
func (l lit) negated() bool         { return l&1 == 1 }
func (l lit) not() lit              { return l ^ 1 }

type clauseKind uint8

const (
	// ¬src ∨ c1 ∨ … ∨ ck over the candidates allowed by an edge.
	kindRequirement clauseKind = iota
	// ¬src ∨ ¬d for a candidate d rejected by an edge.
	kindExclusion
	// ¬a ∨ ¬b for two candidates of one package.
	kindAtMostOne
	kindLearned
)

type clauseRef int32

const noReason clauseRef = -1

type clause struct {
	lits []lit
	kind clauseKind
	// edge is the origin of requirement and exclusion clauses.
	edge graph.EdgeID
	// origins are the edges a learned clause was derived from, sorted.
	origins []graph.EdgeID
}

func (c *clause) originEdges() []graph.EdgeID {
	switch c.kind {
	case kindRequirement, kindExclusion:
		return []graph.EdgeID{c.edge}
	case kindLearned:
		return c.origins
	default:
		return nil
	}
}

// edgeSet accumulates edge ids.
type edgeSet map[graph.EdgeID]struct{}

func (s edgeSet) add(ids ...graph.EdgeID) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s edgeSet) sorted() []graph.EdgeID {
	out := make([]graph.EdgeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
