package depsolve

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection"
	"github.com/albertocavalcante/go-depsolve/selection/version"
	"github.com/albertocavalcante/go-depsolve/solver"
)

// resolver runs one resolution attempt. It owns the graph builder and the
// solver state for the attempt and is discarded afterwards.
//
// The attempt proceeds in four phases:
//  1. Root check: root requirements on the same package are intersected and
//     an empty intersection is reported before the oracle is consulted.
//  2. Search: the solver grows the dependency graph lazily from the root
//     edges, learning clauses from conflicts.
//  3. Confirmation: the assignment is rechecked and held-back packages are
//     collected.
//  4. Assembly: the resolved graph and the Resolution are built.
type resolver struct {
	oracle Oracle
	cfg    *resolverConfig
	log    *slog.Logger
	start  time.Time
}

func newResolver(oracle Oracle, cfg *resolverConfig) *resolver {
	return &resolver{
		oracle: oracle,
		cfg:    cfg,
		log:    cfg.log().With("attempt", uuid.NewString()),
	}
}

func (r *resolver) resolve(ctx context.Context, roots []Requirement) (*Resolution, error) {
	r.start = time.Now()
	r.log.Debug("resolve started", "roots", len(roots))

	if report := intersectRoots(roots); report != nil {
		r.log.Debug("root requirements are disjoint", "package", report.Conflicts[0].Requirement.Package)
		return nil, &UnsatisfiableError{Report: report}
	}

	ctx, cancel := r.cfg.withDeadline(ctx)
	defer cancel()

	b := graph.NewBuilder(r.oracle,
		graph.WithLogger(r.log),
		graph.WithPrefetchLimit(r.cfg.prefetch),
	)
	for _, req := range roots {
		b.AddRoot(req)
	}

	if r.cfg.prefetch > 0 {
		if err := b.PrefetchAll(ctx, rootPackages(roots)); err != nil {
			return nil, r.fail(err, Stats{})
		}
	}

	res, err := solver.Solve(ctx, b, solver.Config{
		IterationCeiling: r.cfg.iterationCeiling,
		Minimize:         r.cfg.minimize,
		Logger:           r.log,
		Progress:         r.cfg.onProgress,
	})
	var stats Stats
	if res != nil {
		stats = r.stats(b, res.Stats)
	}
	if err != nil {
		return nil, r.fail(err, stats)
	}

	dg := b.Graph()
	if res.Unsat {
		report := conflictReport(dg, res.Core, res.Minimal)
		r.log.Debug("resolution unsatisfiable", "conflicts", len(report.Conflicts), "minimal", report.Minimal)
		return nil, &UnsatisfiableError{Report: report}
	}

	confirmed, err := selection.Confirm(dg, res.Selected)
	if err != nil {
		return nil, fmt.Errorf("confirm assignment: %w", err)
	}
	resolved, err := graph.FromAssignment(dg, graph.Key{Name: r.rootName()}, res.Selected)
	if err != nil {
		return nil, fmt.Errorf("build resolved graph: %w", err)
	}

	out := &Resolution{
		Packages: r.packages(resolved),
		Stats:    stats,
		graph:    resolved,
	}
	out.Diagnostics = r.diagnostics(confirmed, out.Packages)

	r.log.Debug("resolve finished",
		"packages", len(out.Packages),
		"decisions", stats.Decisions,
		"conflicts", stats.Conflicts,
		"elapsed", stats.Elapsed)
	return out, nil
}

func (r *resolver) rootName() string {
	if r.cfg.rootName != "" {
		return r.cfg.rootName
	}
	return RootRequirer
}

// fail maps a search error onto the public taxonomy. Oracle errors pass
// through unchanged.
func (r *resolver) fail(err error, stats Stats) error {
	if errors.Is(err, context.DeadlineExceeded) {
		elapsed := time.Since(r.start)
		r.log.Debug("resolve timed out", "elapsed", elapsed, "decisions", stats.Decisions)
		return &TimeoutError{Elapsed: elapsed, Stats: stats}
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("resolve: %w", err)
	}
	return err
}

func (r *resolver) stats(b *graph.Builder, s solver.Stats) Stats {
	dg := b.Graph()
	bs := b.Stats()
	return Stats{
		Decisions:            s.Decisions,
		Propagations:         s.Propagations,
		Conflicts:            s.Conflicts,
		LearnedClauses:       s.LearnedClauses,
		Backjumps:            s.Backjumps,
		Backtracks:           s.Backtracks,
		Fallback:             s.Fallback,
		MinimizeSolves:       s.MinimizeSolves,
		Packages:             len(dg.PackageNames()),
		Candidates:           dg.NumCandidates(),
		Edges:                dg.NumEdges(),
		ListVersionsCalls:    bs.ListVersionsCalls,
		GetRequirementsCalls: bs.GetRequirementsCalls,
		CacheHits:            bs.CacheHits,
		Elapsed:              time.Since(r.start),
	}
}

func (r *resolver) packages(g *graph.Graph) []ResolvedPackage {
	root := g.Nodes[g.Root]
	out := make([]ResolvedPackage, 0, len(g.Nodes)-1)
	for _, key := range g.Keys() {
		if key == g.Root {
			continue
		}
		node := g.Nodes[key]
		v, err := version.Parse(key.Version)
		if err != nil {
			// Keys come from parsed candidate versions.
			panic(fmt.Sprintf("resolved version %q: %v", key.Version, err))
		}
		p := ResolvedPackage{
			Name:    key.Name,
			Version: v,
			Direct:  slices.Contains(root.Dependencies, key),
		}
		for _, dep := range node.Dependencies {
			p.Dependencies = append(p.Dependencies, dep.Name)
		}
		for _, from := range node.Dependents {
			if from == g.Root {
				p.RequiredBy = append(p.RequiredBy, RootRequirer)
			} else {
				p.RequiredBy = append(p.RequiredBy, from.String())
			}
		}
		slices.Sort(p.RequiredBy)
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b ResolvedPackage) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// annotator is implemented by oracles that know about yanked and deprecated
// releases. The registry oracle implements it.
type annotator interface {
	Yanked(pkg string, v version.Version) (string, bool)
	Deprecated(pkg string) (string, bool)
}

func (r *resolver) diagnostics(confirmed *selection.Report, pkgs []ResolvedPackage) Diagnostics {
	var d Diagnostics
	for _, hb := range confirmed.HeldBack {
		out := HeldBack{Package: hb.Package, Selected: hb.Selected, Preferred: hb.Preferred}
		for _, e := range hb.Blocking {
			out.Blocking = append(out.Blocking, Conflict{
				Requirer:    hb.Package + "@" + hb.Preferred.String(),
				Requirement: e.Requirement,
			})
		}
		d.HeldBack = append(d.HeldBack, out)
	}

	ann, ok := r.oracle.(annotator)
	if !ok {
		return d
	}
	for _, p := range pkgs {
		if reason, yanked := ann.Yanked(p.Name, p.Version); yanked {
			d.Warnings = append(d.Warnings, fmt.Sprintf("%s@%s is yanked: %s", p.Name, p.Version, reason))
		}
		if reason, deprecated := ann.Deprecated(p.Name); deprecated {
			d.Warnings = append(d.Warnings, fmt.Sprintf("%s is deprecated: %s", p.Name, reason))
		}
	}
	slices.Sort(d.Warnings)
	return d
}

// intersectRoots intersects root requirements per package in input order.
// It returns nil when every package's intersection is satisfiable.
// rootPackages returns the distinct packages named by roots, sorted.
func rootPackages(roots []Requirement) []string {
	names := make([]string, 0, len(roots))
	for _, req := range roots {
		names = append(names, req.Package)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

func intersectRoots(roots []Requirement) *ConflictReport {
	byPkg := make(map[string][]Requirement)
	var order []string
	for _, req := range roots {
		if _, ok := byPkg[req.Package]; !ok {
			order = append(order, req.Package)
		}
		byPkg[req.Package] = append(byPkg[req.Package], req)
	}

	for _, pkg := range order {
		reqs := byPkg[pkg]
		acc := version.Any()
		for n, req := range reqs {
			acc = acc.Intersect(req.Constraint)
			if !acc.IsUnsatisfiable() {
				continue
			}
			seen := reqs[:n+1]
			for i := range seen {
				for j := i + 1; j < len(seen); j++ {
					if seen[i].Constraint.Intersect(seen[j].Constraint).IsUnsatisfiable() {
						return &ConflictReport{
							Conflicts: []Conflict{
								{Requirer: RootRequirer, Requirement: seen[i]},
								{Requirer: RootRequirer, Requirement: seen[j]},
							},
							Minimal: true,
						}
					}
				}
			}
			report := &ConflictReport{}
			for _, req := range seen {
				report.Conflicts = append(report.Conflicts, Conflict{Requirer: RootRequirer, Requirement: req})
			}
			return report
		}
	}
	return nil
}

// conflictReport turns an unsatisfiable core into a report ordered root
// requirements first, then by requirer and package.
func conflictReport(dg *graph.DependencyGraph, core []graph.EdgeID, minimal bool) *ConflictReport {
	type item struct {
		root bool
		eid  graph.EdgeID
		c    Conflict
	}
	items := make([]item, 0, len(core))
	for _, eid := range core {
		e := dg.Edge(eid)
		items = append(items, item{
			root: e.From == graph.RootID,
			eid:  eid,
			c:    Conflict{Requirer: dg.Label(e.From), Requirement: e.Requirement},
		})
	}
	slices.SortFunc(items, func(a, b item) int {
		if a.root != b.root {
			if a.root {
				return -1
			}
			return 1
		}
		if a.root {
			return cmp.Compare(a.eid, b.eid)
		}
		if c := strings.Compare(a.c.Requirer, b.c.Requirer); c != 0 {
			return c
		}
		if c := strings.Compare(a.c.Requirement.Package, b.c.Requirement.Package); c != 0 {
			return c
		}
		return cmp.Compare(a.eid, b.eid)
	})

	report := &ConflictReport{Minimal: minimal}
	for _, it := range items {
		report.Conflicts = append(report.Conflicts, it.c)
	}
	return report
}
