package graph

import (
	"fmt"
	"strings"
)

// Key identifies a resolved package version.
type Key struct {
	Name    string
	Version string
}

// String returns "name@version", or just the name when Version is empty.
func (k Key) String() string {
	if k.Version == "" {
		return k.Name
	}
	return k.Name + "@" + k.Version
}

// Compare orders keys by name, then version text.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(k.Name, o.Name); c != 0 {
		return c
	}
	return strings.Compare(k.Version, o.Version)
}

// Graph is the resolved dependency graph: one node per selected package plus
// the root. It supports traversal in both directions and explains why each
// version was chosen.
type Graph struct {
	// Root is the synthetic node holding the root requirements.
	Root Key

	// Nodes contains every node in the graph, keyed by Key.
	Nodes map[Key]*Node
}

// Node is one package in the resolved graph.
type Node struct {
	Key Key

	// Dependencies are the selected targets of this node's requirements,
	// sorted by Key.
	Dependencies []Key

	// Dependents are the nodes that require this one, sorted by Key.
	Dependents []Key

	// Requested maps each requirer to the constraint text it declared.
	Requested map[Key]string

	// Selection explains how the version was chosen. Nil for the root.
	Selection *SelectionInfo

	IsRoot bool
}

// SelectionInfo explains why a particular version was selected.
type SelectionInfo struct {
	Strategy SelectionStrategy

	SelectedVersion string

	// Candidates are every known version of the package, newest first.
	Candidates []VersionCandidate

	// DecidingFactor is a one-line explanation of the outcome.
	DecidingFactor string
}

// SelectionStrategy classifies a selection.
type SelectionStrategy string

const (
	// StrategyHighest means the newest version allowed by every requirer
	// was picked.
	StrategyHighest SelectionStrategy = "highest"

	// StrategyHeldBack means a newer version satisfied the direct
	// requirers but was ruled out elsewhere in the graph.
	StrategyHeldBack SelectionStrategy = "held_back"

	// StrategyPrerelease means a pre-release was picked because a
	// requirer asked for one.
	StrategyPrerelease SelectionStrategy = "prerelease"

	// StrategyRoot marks the root node.
	StrategyRoot SelectionStrategy = "root"
)

// VersionCandidate is one version considered for a package.
type VersionCandidate struct {
	Version string

	// ExcludedBy lists the requirers whose constraint rejects this version.
	ExcludedBy []Key

	Selected bool

	// RejectionReason is set for versions that were not selected.
	RejectionReason string
}

// Explanation describes why a package is at its current version.
type Explanation struct {
	Package   Key
	Selection *SelectionInfo

	// DependencyChains are every acyclic path from the root to Package.
	DependencyChains []DependencyChain

	RequestSummary string
}

// DependencyChain is a path of dependencies from the root to a package.
type DependencyChain struct {
	Path []Key

	// Constraint is the requirement declared by the last hop.
	Constraint string
}

// String renders the chain as "a -> b -> c (requested ^1.0.0)".
func (c DependencyChain) String() string {
	if len(c.Path) == 0 {
		return ""
	}
	parts := make([]string, len(c.Path))
	for i, k := range c.Path {
		parts[i] = k.String()
	}
	result := strings.Join(parts, " -> ")
	if c.Constraint != "" {
		result += fmt.Sprintf(" (requested %s)", c.Constraint)
	}
	return result
}

// GraphStats summarises the shape of a resolved graph.
type GraphStats struct {
	// TotalPackages excludes the root.
	TotalPackages          int
	DirectDependencies     int
	TransitiveDependencies int
	MaxDepth               int
	Cycles                 int
}
