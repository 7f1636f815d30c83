// Package solver finds one candidate per reachable package such that every
// requirement of the root and of the selected candidates is satisfied.
//
// # Encoding
//
// Each candidate in the graph arena is a boolean variable. An edge from a
// source candidate s to package p with constraint c becomes:
//
//   - a requirement clause  ¬s ∨ p@v1 ∨ … ∨ p@vk  over the candidates of p
//     that satisfy c
//   - an exclusion clause  ¬s ∨ ¬p@w  for every candidate w that does not
//
// Root edges drop the ¬s literal. At most one candidate per package may be
// selected; this is propagated directly and materialized as binary clauses
// only when it takes part in a conflict.
//
// # Search
//
// Solve alternates unit propagation, expansion of newly selected candidates
// (the graph grows lazily through graph.Builder) and decisions made by the
// selection package. A conflict is analyzed to its first unique implication
// point; the learned clause is recorded and the search backjumps to the
// second highest level it mentions.
//
// When Config.IterationCeiling conflicts pass without the number of selected
// candidates reaching a new high, the solver stops learning and backtracks
// chronologically for the rest of the attempt: it undoes the most recent
// decision responsible for the conflict and excludes its candidate. Clauses
// learned before the switch stay in force.
//
// # Unsatisfiable Cores
//
// Every clause remembers the edges it was derived from. A conflict that
// depends on no decision proves the problem unsatisfiable, and the edges
// behind it form the Core of the Result. Minimize reduces a core to a
// minimal one by re-solving with each edge left out in turn.
package solver
