package solver

import "github.com/albertocavalcante/go-depsolve/graph"

// frame is one decision: the package decided, the candidate tried and the
// trail length before the decision was assigned.
type frame struct {
	pkg  string
	cand graph.CandidateID
	mark int
}

const (
	unassigned int8 = 0
	vTrue      int8 = 1
	vFalse     int8 = -1
)

// ensureVars grows the per-candidate tables after the builder has added
// candidates.
func (s *state) ensureVars() {
	n := s.g.NumCandidates()
	for len(s.value) < n {
		s.value = append(s.value, unassigned)
		s.level = append(s.level, 0)
		s.reason = append(s.reason, noReason)
		s.encoded = append(s.encoded, false)
		s.occ = append(s.occ, nil, nil)
	}
}

func (s *state) decisionLevel() int { return len(s.frames) }

func (s *state) litValue(l lit) int8 {
	v := s.value[l.id()]
	if l.negated() {
		return -v
	}
	return v
}

func (s *state) assign(l lit, reason clauseRef) {
	id := l.id()
	if l.negated() {
		s.value[id] = vFalse
	} else {
		s.value[id] = vTrue
		s.numTrue++
	}
	s.level[id] = s.decisionLevel()
	s.reason[id] = reason
	s.trail = append(s.trail, l)
}

// backtrack undoes every assignment above level.
func (s *state) backtrack(level int) {
	if level >= s.decisionLevel() {
		return
	}
	mark := s.frames[level].mark
	for i := len(s.trail) - 1; i >= mark; i-- {
		id := s.trail[i].id()
		if s.value[id] == vTrue {
			s.numTrue--
		}
		s.value[id] = unassigned
		s.reason[id] = noReason
		s.level[id] = 0
	}
	s.trail = s.trail[:mark]
	s.frames = s.frames[:level]
	s.qhead = len(s.trail)
	// Clauses added above level may have become unit again.
	s.rescan = true
}

// decide opens a new level with cand selected.
func (s *state) decide(pkg string, cand graph.CandidateID) {
	s.frames = append(s.frames, frame{pkg: pkg, cand: cand, mark: len(s.trail)})
	s.assign(pos(cand), noReason)
}
