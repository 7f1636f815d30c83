package selection

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// Compare orders two candidates by preference; a negative result means a is
// preferred over b. Stable releases come first unless allowPrerelease is
// set, then higher versions, then package name, then the version text so
// that build metadata variants still order deterministically.
func Compare(a, b graph.Candidate, allowPrerelease bool) int {
	if !allowPrerelease {
		if ap, bp := a.Version.IsPrerelease(), b.Version.IsPrerelease(); ap != bp {
			if ap {
				return 1
			}
			return -1
		}
	}
	if c := b.Version.Compare(a.Version); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Package, b.Package); c != 0 {
		return c
	}
	return cmp.Compare(a.Version.String(), b.Version.String())
}

// Rank returns cands sorted best first. The input is not modified.
func Rank(cands []graph.Candidate, allowPrerelease bool) []graph.Candidate {
	ranked := slices.Clone(cands)
	slices.SortStableFunc(ranked, func(a, b graph.Candidate) int {
		return Compare(a, b, allowPrerelease)
	})
	return ranked
}

// Best returns the best-ranked candidate among ids, or false if ids is empty.
func Best(dg *graph.DependencyGraph, ids []graph.CandidateID, allowPrerelease bool) (graph.CandidateID, bool) {
	if len(ids) == 0 {
		return 0, false
	}
	best := ids[0]
	for _, id := range ids[1:] {
		if Compare(dg.Candidate(id), dg.Candidate(best), allowPrerelease) < 0 {
			best = id
		}
	}
	return best, true
}

// PrereleaseRequested reports whether any constraint names a pre-release,
// which lifts the stable-first preference for that package.
func PrereleaseRequested(constraints ...version.Constraint) bool {
	return slices.ContainsFunc(constraints, version.Constraint.AllowsPrerelease)
}

// PickPackage returns the package to decide next: the one with the fewest
// feasible candidates, ties broken by name.
func PickPackage(states []PackageState) (string, bool) {
	if len(states) == 0 {
		return "", false
	}
	best := slices.MinFunc(states, func(a, b PackageState) int {
		if c := cmp.Compare(a.Feasible, b.Feasible); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return best.Name, true
}

// Confirm rechecks a finished assignment without modifying anything: each
// package has one version, every selected candidate is reachable from the
// root, and every requirement declared by the root or a selected candidate
// is satisfied. It also reports packages held back below the best candidate
// their requirers allow.
func Confirm(dg *graph.DependencyGraph, assignment []graph.CandidateID) (*Report, error) {
	byPkg := make(map[string]graph.CandidateID, len(assignment))
	for _, id := range assignment {
		c := dg.Candidate(id)
		if prev, ok := byPkg[c.Package]; ok && prev != id {
			return nil, &ViolationError{
				Package: c.Package,
				Reason:  fmt.Sprintf("selected twice (%s and %s)", dg.Candidate(prev).Version, c.Version),
			}
		}
		if !dg.IsExpanded(id) {
			return nil, &ViolationError{Package: c.Package, Reason: "requirements of " + c.String() + " never loaded"}
		}
		byPkg[c.Package] = id
	}

	selected := func(src graph.CandidateID) bool {
		return src == graph.RootID || byPkg[dg.Candidate(src).Package] == src
	}

	reached := make(map[string]bool, len(byPkg))
	check := func(eid graph.EdgeID) ([]string, error) {
		e := dg.Edge(eid)
		target, ok := byPkg[e.Package]
		if !ok {
			return nil, &ViolationError{
				Package: e.Package,
				Reason:  fmt.Sprintf("required by %s (%s) but not selected", dg.Label(e.From), e.Constraint),
			}
		}
		if v := dg.Candidate(target).Version; !e.Constraint.Satisfies(v) {
			return nil, &ViolationError{
				Package: e.Package,
				Reason:  fmt.Sprintf("%s does not satisfy %s required by %s", v, e.Constraint, dg.Label(e.From)),
			}
		}
		if reached[e.Package] {
			return nil, nil
		}
		reached[e.Package] = true
		return []string{e.Package}, nil
	}

	var queue []string
	for _, eid := range dg.Roots() {
		next, err := check(eid)
		if err != nil {
			return nil, err
		}
		queue = append(queue, next...)
	}
	for len(queue) > 0 {
		pkg := queue[0]
		queue = queue[1:]
		for _, eid := range dg.Outgoing(byPkg[pkg]) {
			next, err := check(eid)
			if err != nil {
				return nil, err
			}
			queue = append(queue, next...)
		}
	}

	report := &Report{Packages: make(map[string]version.Version, len(byPkg))}
	names := make([]string, 0, len(byPkg))
	for pkg := range byPkg {
		if !reached[pkg] {
			return nil, &ViolationError{Package: pkg, Reason: "selected but not reachable from the root"}
		}
		names = append(names, pkg)
	}
	slices.Sort(names)

	for _, pkg := range names {
		id := byPkg[pkg]
		report.Packages[pkg] = dg.Candidate(id).Version
		if hb, ok := heldBack(dg, pkg, id, byPkg, selected); ok {
			report.HeldBack = append(report.HeldBack, hb)
		}
	}
	return report, nil
}

func heldBack(dg *graph.DependencyGraph, pkg string, chosen graph.CandidateID,
	byPkg map[string]graph.CandidateID, selected func(graph.CandidateID) bool,
) (HeldBack, bool) {
	node := dg.Package(pkg)
	var constraints []version.Constraint
	for _, eid := range node.Incoming {
		if e := dg.Edge(eid); selected(e.From) {
			constraints = append(constraints, e.Constraint)
		}
	}

	allowed := slices.DeleteFunc(slices.Clone(node.Candidates), func(id graph.CandidateID) bool {
		v := dg.Candidate(id).Version
		return slices.ContainsFunc(constraints, func(c version.Constraint) bool { return !c.Satisfies(v) })
	})
	preferred, ok := Best(dg, allowed, PrereleaseRequested(constraints...))
	if !ok || preferred == chosen {
		return HeldBack{}, false
	}

	hb := HeldBack{
		Package:   pkg,
		Selected:  dg.Candidate(chosen).Version,
		Preferred: dg.Candidate(preferred).Version,
	}
	for _, eid := range dg.Outgoing(preferred) {
		e := dg.Edge(eid)
		target, ok := byPkg[e.Package]
		if !ok || !e.Constraint.Satisfies(dg.Candidate(target).Version) {
			hb.Blocking = append(hb.Blocking, e)
		}
	}
	return hb, true
}
