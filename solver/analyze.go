package solver

import "github.com/albertocavalcante/go-depsolve/graph"

// handleConflict resolves a falsified clause. It returns the unsatisfiable
// core and true when the conflict does not depend on any decision.
func (s *state) handleConflict(ref clauseRef) ([]graph.EdgeID, bool) {
	s.stats.Conflicts++
	s.stall++
	if !s.chrono && s.stall >= s.cfg.ceiling() {
		s.chrono = true
		s.stats.Fallback = true
		s.log.Debug("switching to chronological backtracking",
			"conflicts", s.stats.Conflicts, "learned", s.stats.LearnedClauses)
		s.emit(Event{Kind: EventFallback, Level: s.decisionLevel()})
	}
	s.emit(Event{Kind: EventConflict, Level: s.decisionLevel()})

	m := s.maxLevel(s.clauses[ref].lits)
	if m == 0 {
		return s.rootCore(ref), true
	}

	if s.chrono {
		// Undo exactly the decision responsible and exclude its candidate.
		f := s.frames[m-1]
		s.backtrack(m - 1)
		s.assign(neg(f.cand), noReason)
		s.stats.Backtracks++
		s.log.Debug("backtrack", "excluded", s.g.Label(f.cand), "level", s.decisionLevel())
		return nil, false
	}

	s.backtrack(m)
	learned, origins := s.analyze(ref)
	back := 0
	for _, l := range learned[1:] {
		back = max(back, s.level[l.id()])
	}
	s.backtrack(back)
	lr := s.addClause(clause{kind: kindLearned, lits: learned, origins: origins})
	s.assign(learned[0], lr)

	s.stats.LearnedClauses++
	s.stats.Backjumps++
	s.log.Debug("backjump", "from", m, "to", back, "learned", len(learned), "asserting", s.describe(learned[0]))
	s.emit(Event{Kind: EventBackjump, Level: back})
	return nil, false
}

func (s *state) maxLevel(lits []lit) int {
	m := 0
	for _, l := range lits {
		m = max(m, s.level[l.id()])
	}
	return m
}

// analyze derives the first-UIP clause from a clause falsified at the
// current level. The asserting literal comes first. The returned origins are
// every edge whose clauses took part in the derivation, including those
// behind level 0 literals dropped from the result.
func (s *state) analyze(ref clauseRef) ([]lit, []graph.EdgeID) {
	m := s.decisionLevel()
	seen := make(map[graph.CandidateID]bool)
	origins := make(edgeSet)
	learned := []lit{noLit}

	pending := 0
	p := noLit
	idx := len(s.trail) - 1
	for {
		c := &s.clauses[ref]
		origins.add(c.originEdges()...)
		for _, q := range c.lits {
			id := q.id()
			if (p != noLit && id == p.id()) || seen[id] {
				continue
			}
			seen[id] = true
			switch lv := s.level[id]; {
			case lv == m:
				pending++
			case lv > 0:
				learned = append(learned, q)
			default:
				edges, _ := s.level0(id)
				origins.add(edges...)
			}
		}

		for !seen[s.trail[idx].id()] {
			idx--
		}
		p = s.trail[idx]
		idx--
		pending--
		if pending <= 0 {
			break
		}
		ref = s.reason[p.id()]
		if ref == noReason {
			break
		}
	}

	learned[0] = p.not()
	return learned, origins.sorted()
}

// level0 returns the edges behind a level 0 assignment. The second result is
// false when the assignment, or one it depends on, was made without a
// reason clause by chronological backtracking.
func (s *state) level0(id graph.CandidateID) ([]graph.EdgeID, bool) {
	if edges, ok := s.l0Origins[id]; ok {
		return edges, edges != nil
	}
	ref := s.reason[id]
	if ref == noReason {
		s.l0Origins[id] = nil
		return nil, false
	}

	c := &s.clauses[ref]
	set := make(edgeSet)
	set.add(c.originEdges()...)
	for _, l := range c.lits {
		if l.id() == id {
			continue
		}
		edges, ok := s.level0(l.id())
		if !ok {
			s.l0Origins[id] = nil
			return nil, false
		}
		set.add(edges...)
	}
	edges := set.sorted()
	s.l0Origins[id] = edges
	return edges, true
}

// rootCore returns the edges behind a clause falsified at level 0. When the
// refutation passes through an assignment made by chronological
// backtracking, every encoded edge is returned instead.
func (s *state) rootCore(ref clauseRef) []graph.EdgeID {
	c := &s.clauses[ref]
	set := make(edgeSet)
	set.add(c.originEdges()...)
	for _, l := range c.lits {
		edges, ok := s.level0(l.id())
		if !ok {
			all := make(edgeSet)
			all.add(s.edges...)
			return all.sorted()
		}
		set.add(edges...)
	}
	return set.sorted()
}

func (s *state) describe(l lit) string {
	if l.negated() {
		return "not " + s.g.Label(l.id())
	}
	return s.g.Label(l.id())
}
