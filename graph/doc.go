// Package graph holds the two graph views used by the resolver.
//
// The first is the DependencyGraph arena the solver works on. It is grown
// lazily by a Builder that queries an Oracle: a package's versions are
// listed the first time the package is referenced, and a candidate's
// requirements are loaded only once the solver selects it. Candidates and
// edges are addressed by index and never removed.
//
//	b := graph.NewBuilder(oracle, graph.WithPrefetchLimit(8))
//	b.AddRoot(graph.Requirement{Package: "http", Constraint: c})
//	if err := b.Expand(ctx, "http"); err != nil {
//		return err
//	}
//
// The second is the resolved Graph, built from a finished assignment with
// FromAssignment. It supports the queries a user asks after resolution:
//
//	// Why is this version here?
//	explanation, _ := g.Explain("json")
//
//	// Shortest path from the root
//	path := g.Path(g.Root, key)
//
//	// Install order
//	order := g.TopologicalOrder()
//
// # Output Formats
//
// A resolved Graph can be rendered as nested JSON (ToJSON), Graphviz DOT
// (ToDOT) or a text tree (ToText).
package graph
