package solver

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// DefaultIterationCeiling is the number of conflicts without progress after
// which the solver switches to chronological backtracking.
const DefaultIterationCeiling = 1000

// Config tunes one solve.
type Config struct {
	// IterationCeiling is the number of consecutive conflicts that may pass
	// without a new high-water mark of decided packages before clause
	// learning is abandoned. Zero means DefaultIterationCeiling.
	IterationCeiling int

	// Minimize reduces an unsatisfiable core to a minimal one.
	Minimize bool

	Logger *slog.Logger

	// Progress, if set, receives search events synchronously.
	Progress func(Event)
}

func (c Config) ceiling() int {
	if c.IterationCeiling > 0 {
		return c.IterationCeiling
	}
	return DefaultIterationCeiling
}

// EventKind classifies a progress event.
type EventKind string

const (
	EventDecision EventKind = "decision"
	EventConflict EventKind = "conflict"
	EventBackjump EventKind = "backjump"
	EventFallback EventKind = "fallback"
	EventMinimize EventKind = "minimize"
)

// Event reports search progress.
type Event struct {
	Kind EventKind
	// Candidate is "name@version" for decisions.
	Candidate string
	Level     int
	Conflicts int
}

// Stats counts search work.
type Stats struct {
	Decisions      int
	Propagations   int
	Conflicts      int
	LearnedClauses int
	Backjumps      int
	Backtracks     int
	Expansions     int
	// Fallback is set once the solver switched to chronological
	// backtracking.
	Fallback       bool
	MinimizeSolves int
}

// Result is the outcome of Solve.
type Result struct {
	// Selected holds one candidate per reachable package, sorted by
	// package name. Empty when Unsat is set.
	Selected []graph.CandidateID

	Unsat bool

	// Core lists the root and transitive requirement edges that cannot be
	// satisfied together, sorted by edge id.
	Core []graph.EdgeID

	// Minimal reports whether Core was reduced to a minimal subset.
	Minimal bool

	Stats Stats
}

type state struct {
	b   *graph.Builder
	g   *graph.DependencyGraph
	cfg Config
	log *slog.Logger

	// allowed restricts the edges taken into account. Nil allows all.
	allowed map[graph.EdgeID]bool

	value   []int8
	level   []int
	reason  []clauseRef
	encoded []bool
	occ     [][]clauseRef

	clauses []clause
	amo     map[[2]graph.CandidateID]clauseRef

	trail   []lit
	qhead   int
	frames  []frame
	rescan  bool
	numTrue int

	chrono    bool
	stall     int
	highWater int

	edges     []graph.EdgeID
	l0Origins map[graph.CandidateID][]graph.EdgeID

	stats Stats
}

func newState(b *graph.Builder, cfg Config, allowed map[graph.EdgeID]bool) *state {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &state{
		b:         b,
		g:         b.Graph(),
		cfg:       cfg,
		log:       log,
		allowed:   allowed,
		amo:       make(map[[2]graph.CandidateID]clauseRef),
		l0Origins: make(map[graph.CandidateID][]graph.EdgeID),
	}
}

// Solve searches for one candidate per reachable package satisfying every
// root edge already added to b and every requirement of the selected
// candidates. The graph grows as candidates are selected.
//
// An unsatisfiable problem is not an error: the Result has Unsat set and a
// Core. Errors are oracle failures or context errors; the returned Result
// then carries only Stats.
func Solve(ctx context.Context, b *graph.Builder, cfg Config) (*Result, error) {
	s := newState(b, cfg, nil)
	res, err := s.run(ctx)
	if err != nil || !res.Unsat || !cfg.Minimize {
		return res, err
	}

	core, minimal, solves, err := minimize(ctx, b, cfg, res.Core)
	res.Stats.MinimizeSolves = solves
	if err != nil {
		return &Result{Stats: res.Stats}, err
	}
	s.log.Debug("minimized core", "before", len(res.Core), "after", len(core), "solves", solves, "minimal", minimal)
	res.Core = core
	res.Minimal = minimal
	return res, nil
}

func (s *state) isAllowed(eid graph.EdgeID) bool {
	return s.allowed == nil || s.allowed[eid]
}

func (s *state) run(ctx context.Context) (*Result, error) {
	for _, eid := range s.g.Roots() {
		if !s.isAllowed(eid) {
			continue
		}
		if err := s.b.Expand(ctx, s.g.Edge(eid).Package); err != nil {
			return &Result{Stats: s.stats}, err
		}
	}
	s.ensureVars()
	for _, eid := range s.g.Roots() {
		if s.isAllowed(eid) {
			s.encodeEdge(eid)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return &Result{Stats: s.stats}, err
		}

		if conflict := s.propagate(); conflict != noReason {
			if core, unsat := s.handleConflict(conflict); unsat {
				s.log.Debug("unsatisfiable", "core", len(core), "conflicts", s.stats.Conflicts)
				return &Result{Unsat: true, Core: core, Stats: s.stats}, nil
			}
			continue
		}

		expanded, err := s.expandSelected(ctx)
		if err != nil {
			return &Result{Stats: s.stats}, err
		}
		if expanded {
			continue
		}

		if s.numTrue > s.highWater {
			s.highWater = s.numTrue
			s.stall = 0
		}

		pkg, ok := s.pickPackage()
		if !ok {
			return &Result{Selected: s.selected(), Stats: s.stats}, nil
		}
		if err := s.decidePackage(pkg); err != nil {
			return &Result{Stats: s.stats}, err
		}
	}
}

// encodeEdge adds the requirement clause and the exclusion clauses of an
// edge whose target package has been listed.
func (s *state) encodeEdge(eid graph.EdgeID) {
	e := s.g.Edge(eid)
	node := s.g.Package(e.Package)
	s.edges = append(s.edges, eid)

	req := clause{kind: kindRequirement, edge: eid}
	if e.From != graph.RootID {
		req.lits = append(req.lits, neg(e.From))
	}
	for _, id := range node.Candidates {
		if e.Constraint.Satisfies(s.g.Candidate(id).Version) {
			req.lits = append(req.lits, pos(id))
			continue
		}
		ex := clause{kind: kindExclusion, edge: eid, lits: []lit{neg(id)}}
		if e.From != graph.RootID {
			ex.lits = []lit{neg(e.From), neg(id)}
		}
		s.addClause(ex)
	}
	s.addClause(req)
}

func (s *state) addClause(c clause) clauseRef {
	ref := clauseRef(len(s.clauses))
	s.clauses = append(s.clauses, c)
	for _, l := range c.lits {
		s.occ[l] = append(s.occ[l], ref)
	}
	s.rescan = true
	return ref
}

// amoClause returns the binary clause forbidding a and b together,
// creating it on first use.
func (s *state) amoClause(a, b graph.CandidateID) clauseRef {
	key := [2]graph.CandidateID{min(a, b), max(a, b)}
	if ref, ok := s.amo[key]; ok {
		return ref
	}
	ref := clauseRef(len(s.clauses))
	s.clauses = append(s.clauses, clause{kind: kindAtMostOne, lits: []lit{neg(a), neg(b)}})
	s.amo[key] = ref
	return ref
}

// propagate runs unit propagation to a fixed point and returns a falsified
// clause, or noReason.
func (s *state) propagate() clauseRef {
	for {
		for s.qhead < len(s.trail) {
			p := s.trail[s.qhead]
			s.qhead++
			s.stats.Propagations++
			if !p.negated() {
				if c := s.atMostOne(p.id()); c != noReason {
					return c
				}
			}
			for _, ref := range s.occ[p.not()] {
				if c := s.check(ref); c != noReason {
					return c
				}
			}
		}
		if !s.rescan {
			return noReason
		}
		s.rescan = false
		for ref := range s.clauses {
			if c := s.check(clauseRef(ref)); c != noReason {
				return c
			}
		}
	}
}

// check assigns the last open literal of a unit clause and reports a
// falsified clause.
func (s *state) check(ref clauseRef) clauseRef {
	open, last := 0, noLit
	for _, l := range s.clauses[ref].lits {
		switch s.litValue(l) {
		case vTrue:
			return noReason
		case unassigned:
			open++
			last = l
		}
	}
	switch open {
	case 0:
		return ref
	case 1:
		s.assign(last, ref)
	}
	return noReason
}

// atMostOne deselects every other candidate of id's package.
func (s *state) atMostOne(id graph.CandidateID) clauseRef {
	for _, other := range s.g.Package(s.g.Candidate(id).Package).Candidates {
		if other == id {
			continue
		}
		switch s.value[other] {
		case vTrue:
			return s.amoClause(id, other)
		case unassigned:
			s.assign(neg(other), s.amoClause(id, other))
		}
	}
	return noReason
}

// expandSelected loads the requirements of every selected candidate not yet
// encoded and adds their clauses. It reports whether anything was added.
func (s *state) expandSelected(ctx context.Context) (bool, error) {
	changed := false
	for i := 0; i < len(s.trail); i++ {
		l := s.trail[i]
		if l.negated() || s.encoded[l.id()] {
			continue
		}
		id := l.id()
		if err := s.b.ExpandCandidate(ctx, id); err != nil {
			return false, err
		}
		s.ensureVars()
		for _, eid := range s.g.Outgoing(id) {
			if s.isAllowed(eid) {
				s.encodeEdge(eid)
			}
		}
		s.encoded[id] = true
		s.stats.Expansions++
		changed = true
	}
	return changed, nil
}

// active reports whether some allowed edge into node comes from the root or
// from a selected candidate.
func (s *state) active(node *graph.PackageNode) bool {
	for _, eid := range node.Incoming {
		if !s.isAllowed(eid) {
			continue
		}
		from := s.g.Edge(eid).From
		if from == graph.RootID || (s.value[from] == vTrue && s.encoded[from]) {
			return true
		}
	}
	return false
}

func (s *state) activeConstraints(node *graph.PackageNode) []version.Constraint {
	var out []version.Constraint
	for _, eid := range node.Incoming {
		if !s.isAllowed(eid) {
			continue
		}
		e := s.g.Edge(eid)
		if e.From == graph.RootID || s.value[e.From] == vTrue {
			out = append(out, e.Constraint)
		}
	}
	return out
}

func (s *state) pickPackage() (string, bool) {
	var states []selection.PackageState
	for _, name := range s.g.PackageNames() {
		node := s.g.Package(name)
		if !s.active(node) {
			continue
		}
		feasible, decided := 0, false
		for _, id := range node.Candidates {
			switch s.value[id] {
			case vTrue:
				decided = true
			case unassigned:
				feasible++
			}
		}
		if !decided {
			states = append(states, selection.PackageState{Name: name, Feasible: feasible})
		}
	}
	return selection.PickPackage(states)
}

func (s *state) decidePackage(pkg string) error {
	node := s.g.Package(pkg)
	var open []graph.CandidateID
	for _, id := range node.Candidates {
		if s.value[id] == unassigned {
			open = append(open, id)
		}
	}
	allowPre := selection.PrereleaseRequested(s.activeConstraints(node)...)
	cand, ok := selection.Best(s.g, open, allowPre)
	if !ok {
		return fmt.Errorf("solver: active package %s has no feasible candidate", pkg)
	}

	s.decide(pkg, cand)
	s.stats.Decisions++
	s.log.Debug("decision", "candidate", s.g.Label(cand), "level", s.decisionLevel())
	s.emit(Event{Kind: EventDecision, Candidate: s.g.Label(cand), Level: s.decisionLevel()})
	return nil
}

// selected returns the selected candidates reachable from the root through
// allowed edges, sorted by package name. Unreachable selections can be
// forced by learned clauses and are dropped.
func (s *state) selected() []graph.CandidateID {
	byPkg := make(map[string]graph.CandidateID)
	for _, l := range s.trail {
		if !l.negated() {
			byPkg[s.g.Candidate(l.id()).Package] = l.id()
		}
	}

	reached := make(map[string]bool)
	var queue []graph.EdgeID
	for _, eid := range s.g.Roots() {
		if s.isAllowed(eid) {
			queue = append(queue, eid)
		}
	}
	var out []graph.CandidateID
	for len(queue) > 0 {
		e := s.g.Edge(queue[0])
		queue = queue[1:]
		if reached[e.Package] {
			continue
		}
		reached[e.Package] = true
		id, ok := byPkg[e.Package]
		if !ok {
			continue
		}
		out = append(out, id)
		for _, eid := range s.g.Outgoing(id) {
			if s.isAllowed(eid) {
				queue = append(queue, eid)
			}
		}
	}
	slices.SortFunc(out, func(a, b graph.CandidateID) int {
		return cmp.Compare(s.g.Candidate(a).Package, s.g.Candidate(b).Package)
	})
	return out
}

func (s *state) emit(ev Event) {
	if s.cfg.Progress != nil {
		ev.Conflicts = s.stats.Conflicts
		s.cfg.Progress(ev)
	}
}
