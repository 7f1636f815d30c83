package graph

import (
	"slices"
	"strings"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

// CandidateID is the arena index of a Candidate.
type CandidateID int

// RootID is the source of root requirements.
const RootID CandidateID = -1

// EdgeID is the arena index of an Edge.
type EdgeID int

// Candidate is one concrete (package, version) choice.
type Candidate struct {
	ID      CandidateID
	Package string
	Version version.Version
}

// Key returns the candidate as a "name@version" key.
func (c Candidate) Key() Key {
	return Key{Name: c.Package, Version: c.Version.String()}
}

func (c Candidate) String() string {
	return c.Package + "@" + c.Version.String()
}

// Edge is a Requirement declared by From, which is RootID for root
// requirements.
type Edge struct {
	ID   EdgeID
	From CandidateID
	Requirement
}

// PackageNode groups the candidates of one package.
type PackageNode struct {
	Name string
	// Candidates in ascending version order.
	Candidates []CandidateID
	// Incoming edges targeting this package.
	Incoming []EdgeID
	listed   bool
}

type candidateKey struct {
	pkg string
	v   version.Version
}

// DependencyGraph is the append-only arena the solver works on. Candidates
// and edges are never removed; infeasibility is tracked by the solver.
//
// A DependencyGraph is not safe for concurrent mutation. Only the goroutine
// driving the Builder writes to it.
type DependencyGraph struct {
	candidates []Candidate
	expanded   []bool
	outgoing   [][]EdgeID
	byKey      map[candidateKey]CandidateID
	packages   map[string]*PackageNode
	edges      []Edge
	roots      []EdgeID
}

// NewDependencyGraph returns an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		byKey:    make(map[candidateKey]CandidateID),
		packages: make(map[string]*PackageNode),
	}
}

func (g *DependencyGraph) ensurePackage(name string) *PackageNode {
	node, ok := g.packages[name]
	if !ok {
		node = &PackageNode{Name: name}
		g.packages[name] = node
	}
	return node
}

// addCandidate inserts (pkg, v) unless already present and returns its id.
func (g *DependencyGraph) addCandidate(pkg string, v version.Version) (CandidateID, bool) {
	key := candidateKey{pkg: pkg, v: v}
	if id, ok := g.byKey[key]; ok {
		return id, false
	}
	id := CandidateID(len(g.candidates))
	g.candidates = append(g.candidates, Candidate{ID: id, Package: pkg, Version: v})
	g.expanded = append(g.expanded, false)
	g.outgoing = append(g.outgoing, nil)
	g.byKey[key] = id

	node := g.ensurePackage(pkg)
	node.Candidates = append(node.Candidates, id)
	return id, true
}

func (g *DependencyGraph) sortCandidates(node *PackageNode) {
	slices.SortFunc(node.Candidates, func(a, b CandidateID) int {
		va, vb := g.candidates[a].Version, g.candidates[b].Version
		if c := va.Compare(vb); c != 0 {
			return c
		}
		return strings.Compare(va.String(), vb.String())
	})
}

func (g *DependencyGraph) addEdge(from CandidateID, req Requirement) EdgeID {
	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{ID: id, From: from, Requirement: req})
	if from == RootID {
		g.roots = append(g.roots, id)
	} else {
		g.outgoing[from] = append(g.outgoing[from], id)
	}
	node := g.ensurePackage(req.Package)
	node.Incoming = append(node.Incoming, id)
	return id
}

// NumCandidates returns the number of candidates in the arena.
func (g *DependencyGraph) NumCandidates() int { return len(g.candidates) }

// NumEdges returns the number of edges in the arena.
func (g *DependencyGraph) NumEdges() int { return len(g.edges) }

// Candidate returns the candidate with the given id.
func (g *DependencyGraph) Candidate(id CandidateID) Candidate { return g.candidates[id] }

// Lookup returns the id of (pkg, v) if it has been discovered.
func (g *DependencyGraph) Lookup(pkg string, v version.Version) (CandidateID, bool) {
	id, ok := g.byKey[candidateKey{pkg: pkg, v: v}]
	return id, ok
}

// Edge returns the edge with the given id.
func (g *DependencyGraph) Edge(id EdgeID) Edge { return g.edges[id] }

// Roots returns the root edges in insertion order.
func (g *DependencyGraph) Roots() []EdgeID { return g.roots }

// Outgoing returns the edges declared by a candidate. Empty until the
// candidate has been expanded.
func (g *DependencyGraph) Outgoing(id CandidateID) []EdgeID { return g.outgoing[id] }

// IsExpanded reports whether the candidate's requirements have been loaded.
func (g *DependencyGraph) IsExpanded(id CandidateID) bool { return g.expanded[id] }

// Package returns the node for name, or nil if name was never referenced.
func (g *DependencyGraph) Package(name string) *PackageNode { return g.packages[name] }

// IsListed reports whether the versions of name have been loaded.
func (g *DependencyGraph) IsListed(name string) bool {
	node := g.packages[name]
	return node != nil && node.listed
}

// PackageNames returns every referenced package name in lexical order.
func (g *DependencyGraph) PackageNames() []string {
	names := make([]string, 0, len(g.packages))
	for name := range g.packages {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Label describes an edge source: "root" or "name@version".
func (g *DependencyGraph) Label(id CandidateID) string {
	if id == RootID {
		return "root"
	}
	return g.candidates[id].String()
}
