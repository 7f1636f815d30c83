package depsolve

import (
	"iter"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection/version"
	"github.com/albertocavalcante/go-depsolve/solver"
)

// Requirement is a (package, constraint) pair declared by the root or by a
// package version.
type Requirement = graph.Requirement

// Oracle supplies available versions and declared requirements. The
// resolver performs no I/O of its own; every lookup goes through an Oracle.
type Oracle = graph.Oracle

// ProgressEvent reports search progress to a WithProgress callback.
type ProgressEvent = solver.Event

// RootRequirer names the root in RequiredBy lists and conflict reports.
const RootRequirer = "root"

// Resolution is the result of a successful resolution: exactly one version
// per reachable package. A Resolution is never modified after Resolve
// returns it.
type Resolution struct {
	// Packages holds the selected packages sorted by name.
	Packages []ResolvedPackage `json:"packages"`

	// Stats describes the search that produced the resolution.
	Stats Stats `json:"stats"`

	// Diagnostics lists non-fatal findings.
	Diagnostics Diagnostics `json:"diagnostics"`

	graph *graph.Graph
}

// ResolvedPackage is one selected package.
type ResolvedPackage struct {
	// Name is the package name.
	Name string `json:"name"`

	// Version is the selected version.
	Version version.Version `json:"version"`

	// Dependencies lists the names of the packages this version requires,
	// sorted.
	Dependencies []string `json:"dependencies,omitempty"`

	// RequiredBy lists the requirers of this package: RootRequirer or
	// "name@version", sorted.
	RequiredBy []string `json:"required_by"`

	// Direct reports whether the root requires this package.
	Direct bool `json:"direct"`
}

// Stats counts the work done by one resolution attempt.
type Stats struct {
	Decisions      int  `json:"decisions"`
	Propagations   int  `json:"propagations"`
	Conflicts      int  `json:"conflicts"`
	LearnedClauses int  `json:"learned_clauses"`
	Backjumps      int  `json:"backjumps"`
	Backtracks     int  `json:"backtracks"`
	Fallback       bool `json:"fallback"`
	MinimizeSolves int  `json:"minimize_solves,omitempty"`

	// Packages, Candidates and Edges describe the explored graph.
	Packages   int `json:"packages"`
	Candidates int `json:"candidates"`
	Edges      int `json:"edges"`

	ListVersionsCalls    int64 `json:"list_versions_calls"`
	GetRequirementsCalls int64 `json:"get_requirements_calls"`
	CacheHits            int64 `json:"cache_hits"`

	Elapsed time.Duration `json:"elapsed_ns"`
}

// Diagnostics holds non-fatal findings about a Resolution.
type Diagnostics struct {
	// HeldBack lists packages selected below the best version their
	// requirers allow.
	HeldBack []HeldBack `json:"held_back,omitempty"`

	// Warnings holds yanked and deprecation notices, sorted.
	Warnings []string `json:"warnings,omitempty"`
}

// HeldBack explains why a package is not at its preferred version.
type HeldBack struct {
	Package   string          `json:"package"`
	Selected  version.Version `json:"selected"`
	Preferred version.Version `json:"preferred"`

	// Blocking are requirements of the preferred version that the rest of
	// the resolution does not satisfy.
	Blocking []Conflict `json:"blocking"`
}

func (h HeldBack) String() string {
	var b strings.Builder
	b.WriteString(h.Package + " held back at " + h.Selected.String() + " (prefers " + h.Preferred.String() + ")")
	for i, c := range h.Blocking {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// All iterates over (package, version) pairs in package name order.
func (r *Resolution) All() iter.Seq2[string, version.Version] {
	return func(yield func(string, version.Version) bool) {
		for _, p := range r.Packages {
			if !yield(p.Name, p.Version) {
				return
			}
		}
	}
}

// Get returns the version selected for name.
func (r *Resolution) Get(name string) (version.Version, bool) {
	i, ok := slices.BinarySearchFunc(r.Packages, name, func(p ResolvedPackage, name string) int {
		return strings.Compare(p.Name, name)
	})
	if !ok {
		return version.Version{}, false
	}
	return r.Packages[i].Version, true
}

// Len returns the number of selected packages.
func (r *Resolution) Len() int { return len(r.Packages) }

// Digest returns a fingerprint of the selected (package, version) pairs.
// Identical resolutions have identical digests; stats and diagnostics do
// not take part.
func (r *Resolution) Digest() string {
	h := xxhash.New()
	for name, v := range r.All() {
		_, _ = h.WriteString(name)
		_, _ = h.WriteString("@")
		_, _ = h.WriteString(v.String())
		_, _ = h.WriteString("\n")
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Graph returns the resolved dependency graph for queries such as Path,
// Explain and TopologicalOrder.
func (r *Resolution) Graph() *graph.Graph { return r.graph }

// Conflict is one requirement taking part in an unsatisfiable set.
type Conflict struct {
	// Requirer is RootRequirer or "name@version".
	Requirer    string      `json:"requirer"`
	Requirement Requirement `json:"requirement"`
}

// String returns "requirer requires package constraint".
func (c Conflict) String() string {
	return c.Requirer + " requires " + c.Requirement.String()
}

// ConflictReport lists requirements that cannot be satisfied together.
type ConflictReport struct {
	// Conflicts are ordered root requirements first, then by requirer and
	// package.
	Conflicts []Conflict `json:"conflicts"`

	// Minimal reports whether dropping any single conflict would make the
	// rest satisfiable. It is false when minimization was disabled or cut
	// short by the deadline.
	Minimal bool `json:"minimal"`
}

func (r *ConflictReport) String() string {
	var b strings.Builder
	for i, c := range r.Conflicts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  ")
		b.WriteString(c.String())
	}
	return b.String()
}

// Suggestions lists one edit per conflict that would remove it, in
// conflict order. For a minimal report each edit alone breaks the conflict.
func (r *ConflictReport) Suggestions() []string {
	var out []string
	for _, c := range r.Conflicts {
		if c.Requirer == RootRequirer {
			out = append(out, "relax the root requirement "+c.Requirement.String())
			continue
		}
		name, v := c.Requirer, ""
		if i := strings.LastIndexByte(c.Requirer, '@'); i > 0 {
			name, v = c.Requirer[:i], c.Requirer[i+1:]
		}
		out = append(out, "use a version of "+name+" other than "+v+", which requires "+c.Requirement.String())
	}
	return slices.Compact(out)
}

// Packages returns the distinct packages named by the conflicts, sorted.
func (r *ConflictReport) Packages() []string {
	var names []string
	for _, c := range r.Conflicts {
		names = append(names, c.Requirement.Package)
	}
	slices.Sort(names)
	return slices.Compact(names)
}
