package selection

import (
	"fmt"
	"strings"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// PackageState is the solver's view of one undecided package at a decision
// point.
type PackageState struct {
	Name string

	// Feasible is the number of candidates not yet ruled out.
	Feasible int
}

// Report is the outcome of Confirm.
type Report struct {
	// Packages maps each selected package to its version.
	Packages map[string]version.Version

	// HeldBack lists packages that did not get their best individually
	// allowed candidate, sorted by package name.
	HeldBack []HeldBack
}

// HeldBack describes a package resolved below the best candidate its
// requirers allow.
type HeldBack struct {
	Package   string
	Selected  version.Version
	Preferred version.Version

	// Blocking are the requirements of Preferred that the final assignment
	// does not satisfy. Empty when Preferred was never expanded, in which
	// case it was ruled out before its requirements were needed.
	Blocking []graph.Edge
}

func (h HeldBack) String() string {
	if len(h.Blocking) == 0 {
		return fmt.Sprintf("%s held back at %s (preferred %s)", h.Package, h.Selected, h.Preferred)
	}
	reqs := make([]string, len(h.Blocking))
	for i, e := range h.Blocking {
		reqs[i] = e.Requirement.String()
	}
	return fmt.Sprintf("%s held back at %s: %s@%s requires %s",
		h.Package, h.Selected, h.Package, h.Preferred, strings.Join(reqs, ", "))
}

// ViolationError is returned by Confirm when an assignment breaks the
// resolution invariants. It always indicates a solver bug.
type ViolationError struct {
	Package string
	Reason  string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("invalid assignment for %s: %s", e.Package, e.Reason)
}
