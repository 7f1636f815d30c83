package graph

import (
	"fmt"
	"slices"
	"strings"
)

// FromAssignment builds the resolved view of dg for the selected candidates.
// Edges whose source is neither the root nor a selected candidate are
// ignored. Every requirement of a selected source must target a selected
// package; otherwise an error is returned.
func FromAssignment(dg *DependencyGraph, root Key, selected []CandidateID) (*Graph, error) {
	g := &Graph{Root: root, Nodes: make(map[Key]*Node, len(selected)+1)}
	g.Nodes[root] = &Node{Key: root, IsRoot: true, Requested: map[Key]string{}}

	byPkg := make(map[string]CandidateID, len(selected))
	for _, id := range selected {
		c := dg.Candidate(id)
		if prev, ok := byPkg[c.Package]; ok && prev != id {
			return nil, fmt.Errorf("package %s selected twice: %s and %s",
				c.Package, dg.Candidate(prev).Version, c.Version)
		}
		byPkg[c.Package] = id
		g.Nodes[c.Key()] = &Node{Key: c.Key(), Requested: map[Key]string{}}
	}

	link := func(from Key, e Edge) error {
		target, ok := byPkg[e.Package]
		if !ok {
			return fmt.Errorf("%s requires %s but no version was selected", from, e.Requirement)
		}
		tk := dg.Candidate(target).Key()
		src, dst := g.Nodes[from], g.Nodes[tk]
		if !slices.Contains(src.Dependencies, tk) {
			src.Dependencies = append(src.Dependencies, tk)
			dst.Dependents = append(dst.Dependents, from)
		}
		if prev, ok := dst.Requested[from]; ok {
			dst.Requested[from] = prev + ", " + e.Constraint.String()
		} else {
			dst.Requested[from] = e.Constraint.String()
		}
		return nil
	}

	for _, eid := range dg.Roots() {
		if err := link(root, dg.Edge(eid)); err != nil {
			return nil, err
		}
	}
	for _, id := range selected {
		from := dg.Candidate(id).Key()
		for _, eid := range dg.Outgoing(id) {
			if err := link(from, dg.Edge(eid)); err != nil {
				return nil, err
			}
		}
	}

	active := func(src CandidateID) bool {
		if src == RootID {
			return true
		}
		return byPkg[dg.Candidate(src).Package] == src
	}
	for _, node := range g.Nodes {
		slices.SortFunc(node.Dependencies, Key.Compare)
		slices.SortFunc(node.Dependents, Key.Compare)
		if node.IsRoot {
			continue
		}
		node.Selection = selectionInfo(dg, root, byPkg[node.Key.Name], active)
	}
	return g, nil
}

func selectionInfo(dg *DependencyGraph, root Key, chosen CandidateID, active func(CandidateID) bool) *SelectionInfo {
	sel := dg.Candidate(chosen)
	pkg := dg.Package(sel.Package)
	info := &SelectionInfo{SelectedVersion: sel.Version.String()}

	sourceKey := func(src CandidateID) Key {
		if src == RootID {
			return root
		}
		return dg.Candidate(src).Key()
	}

	var newerAllowed []string
	for i := len(pkg.Candidates) - 1; i >= 0; i-- {
		d := dg.Candidate(pkg.Candidates[i])
		vc := VersionCandidate{Version: d.Version.String(), Selected: d.ID == chosen}

		var reasons []string
		for _, eid := range pkg.Incoming {
			e := dg.Edge(eid)
			if !active(e.From) || e.Constraint.Satisfies(d.Version) {
				continue
			}
			k := sourceKey(e.From)
			if !slices.Contains(vc.ExcludedBy, k) {
				vc.ExcludedBy = append(vc.ExcludedBy, k)
			}
			reasons = append(reasons, fmt.Sprintf("%s requires %s", k, e.Constraint))
		}
		slices.SortFunc(vc.ExcludedBy, Key.Compare)
		slices.Sort(reasons)

		switch {
		case vc.Selected:
		case len(reasons) > 0:
			vc.RejectionReason = strings.Join(reasons, "; ")
		case d.Version.Compare(sel.Version) > 0:
			if !d.Version.IsPrerelease() || sel.Version.IsPrerelease() {
				newerAllowed = append(newerAllowed, vc.Version)
			}
			vc.RejectionReason = "conflicts with other selections"
		default:
			vc.RejectionReason = "older than selected version"
		}
		info.Candidates = append(info.Candidates, vc)
	}

	switch {
	case len(newerAllowed) > 0:
		info.Strategy = StrategyHeldBack
		info.DecidingFactor = fmt.Sprintf("newer %s allowed by every requirer but ruled out by other selections",
			strings.Join(newerAllowed, ", "))
	case sel.Version.IsPrerelease():
		info.Strategy = StrategyPrerelease
		info.DecidingFactor = "a requirer asked for a pre-release"
	default:
		info.Strategy = StrategyHighest
		info.DecidingFactor = "newest version allowed by every requirer"
	}
	return info
}
