package solver_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-depsolve/graph"
	"github.com/albertocavalcante/go-depsolve/selection"
	"github.com/albertocavalcante/go-depsolve/selection/version"
	"github.com/albertocavalcante/go-depsolve/solver"
)

// universe is a static oracle: "name@version" -> requirements.
type universe map[string][]graph.Requirement

func (u universe) ListVersions(_ context.Context, pkg string) ([]version.Version, error) {
	var out []version.Version
	for key := range u {
		name, v, _ := strings.Cut(key, "@")
		if name == pkg {
			out = append(out, version.MustParse(v))
		}
	}
	if out == nil {
		return nil, fmt.Errorf("package %s not found", pkg)
	}
	return out, nil
}

func (u universe) GetRequirements(_ context.Context, pkg string, v version.Version) ([]graph.Requirement, error) {
	return u[pkg+"@"+v.String()], nil
}

func req(pkg, constraint string) graph.Requirement {
	return graph.Requirement{Package: pkg, Constraint: version.MustParseConstraint(constraint)}
}

func solve(t *testing.T, u universe, cfg solver.Config, roots ...graph.Requirement) (*graph.Builder, *solver.Result) {
	t.Helper()
	b := graph.NewBuilder(u)
	for _, r := range roots {
		b.AddRoot(r)
	}
	res, err := solver.Solve(context.Background(), b, cfg)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	return b, res
}

func labels(g *graph.DependencyGraph, ids []graph.CandidateID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.Label(id)
	}
	return out
}

func edges(g *graph.DependencyGraph, ids []graph.EdgeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		e := g.Edge(id)
		out[i] = g.Label(e.From) + " -> " + e.Requirement.String()
	}
	return out
}

func TestSolve(t *testing.T) {
	tests := []struct {
		name     string
		universe universe
		roots    []graph.Requirement
		want     []string
		wantCore []string
	}{
		{
			name: "highest compatible version",
			universe: universe{
				"a@1.0.0": nil,
				"a@1.2.0": nil,
				"a@2.0.0": nil,
			},
			roots: []graph.Requirement{req("a", "^1.0.0")},
			want:  []string{"a@1.2.0"},
		},
		{
			name: "transitive constraint narrows a root requirement",
			universe: universe{
				"a@1.0.0": nil,
				"a@1.1.5": nil,
				"a@1.2.0": nil,
				"b@1.0.0": {req("a", "~1.1.0")},
			},
			roots: []graph.Requirement{req("a", "^1.0.0"), req("b", "^1.0.0")},
			want:  []string{"a@1.1.5", "b@1.0.0"},
		},
		{
			name: "disjoint root requirements",
			universe: universe{
				"a@1.0.0": nil,
				"a@2.0.0": nil,
			},
			roots:    []graph.Requirement{req("a", "^1.0.0"), req("a", "^2.0.0")},
			wantCore: []string{"root -> a ^1.0.0", "root -> a ^2.0.0"},
		},
		{
			name: "unbreakable cycle",
			universe: universe{
				"a@1.0.0": {req("b", "^1.0.0")},
				"a@2.0.0": nil,
				"b@1.0.0": {req("a", "^2.0.0")},
			},
			roots: []graph.Requirement{req("a", "^1.0.0")},
			wantCore: []string{
				"root -> a ^1.0.0",
				"a@1.0.0 -> b ^1.0.0",
				"b@1.0.0 -> a ^2.0.0",
			},
		},
		{
			name: "alternate version breaks the cycle",
			universe: universe{
				"a@1.0.0": {req("b", "^1.0.0")},
				"a@2.0.0": nil,
				"b@1.0.0": nil,
				"b@1.1.0": {req("a", "^2.0.0")},
			},
			roots: []graph.Requirement{req("a", "^1.0.0")},
			want:  []string{"a@1.0.0", "b@1.0.0"},
		},
		{
			name: "satisfiable cycle",
			universe: universe{
				"a@1.0.0": {req("b", "^1.0.0")},
				"b@1.0.0": {req("a", "^1.0.0")},
			},
			roots: []graph.Requirement{req("a", "*")},
			want:  []string{"a@1.0.0", "b@1.0.0"},
		},
		{
			name: "backjump past an unrelated decision",
			universe: universe{
				"a@1.0.0": nil,
				"a@1.1.0": nil,
				"b@1.0.0": nil,
				"b@1.1.0": {req("a", "=1.0.0")},
			},
			roots: []graph.Requirement{req("a", "^1.0.0"), req("b", "^1.0.0")},
			want:  []string{"a@1.1.0", "b@1.0.0"},
		},
		{
			name: "stable release preferred over newer pre-release",
			universe: universe{
				"a@1.0.0":        nil,
				"a@1.1.0-beta.1": nil,
			},
			roots: []graph.Requirement{req("a", "^1.0.0")},
			want:  []string{"a@1.0.0"},
		},
		{
			name: "pre-release requested explicitly",
			universe: universe{
				"a@1.0.0":        nil,
				"a@1.1.0-beta.1": nil,
			},
			roots: []graph.Requirement{req("a", ">=1.1.0-0")},
			want:  []string{"a@1.1.0-beta.1"},
		},
		{
			name: "unselected candidates are not expanded",
			universe: universe{
				"a@1.0.0": {req("missing", "^1.0.0")},
				"a@2.0.0": {req("c", "^1.0.0")},
				"c@1.0.0": nil,
			},
			roots: []graph.Requirement{req("a", "*")},
			want:  []string{"a@2.0.0", "c@1.0.0"},
		},
		{
			name: "no versions at all",
			universe: universe{
				"a@1.0.0": nil,
			},
			roots:    []graph.Requirement{req("a", "^3.0.0")},
			wantCore: []string{"root -> a ^3.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, res := solve(t, tt.universe, solver.Config{Minimize: true}, tt.roots...)
			g := b.Graph()

			if tt.wantCore != nil {
				if !res.Unsat {
					t.Fatalf("Solve() = %v, want unsatisfiable", labels(g, res.Selected))
				}
				if diff := cmp.Diff(tt.wantCore, edges(g, res.Core)); diff != "" {
					t.Errorf("Core mismatch (-want +got):\n%s", diff)
				}
				if !res.Minimal {
					t.Error("Minimal = false, want true")
				}
				return
			}

			if res.Unsat {
				t.Fatalf("Solve() unsatisfiable, core = %v", edges(g, res.Core))
			}
			if diff := cmp.Diff(tt.want, labels(g, res.Selected)); diff != "" {
				t.Errorf("Selected mismatch (-want +got):\n%s", diff)
			}
			if _, err := selection.Confirm(g, res.Selected); err != nil {
				t.Errorf("Confirm() error = %v", err)
			}
		})
	}
}

func TestSolve_Backjump(t *testing.T) {
	u := universe{
		"a@1.0.0": nil,
		"a@1.1.0": nil,
		"b@1.0.0": nil,
		"b@1.1.0": {req("a", "=1.0.0")},
	}
	_, res := solve(t, u, solver.Config{}, req("a", "^1.0.0"), req("b", "^1.0.0"))

	if res.Stats.Conflicts != 1 {
		t.Errorf("Conflicts = %d, want 1", res.Stats.Conflicts)
	}
	if res.Stats.Backjumps != 1 || res.Stats.LearnedClauses != 1 {
		t.Errorf("Backjumps = %d, LearnedClauses = %d, want 1 and 1",
			res.Stats.Backjumps, res.Stats.LearnedClauses)
	}
	if res.Stats.Fallback {
		t.Error("Fallback = true, want false")
	}
}

func TestSolve_ChronologicalFallback(t *testing.T) {
	sat := universe{
		"a@1.0.0": {req("b", "^1.0.0")},
		"a@2.0.0": {req("b", "^2.0.0")},
		"b@1.0.0": nil,
	}
	unsat := universe{
		"a@1.0.0": {req("b", "^2.0.0")},
		"a@2.0.0": {req("b", "^2.0.0")},
		"b@1.0.0": nil,
	}

	t.Run("same resolution", func(t *testing.T) {
		b, learned := solve(t, sat, solver.Config{}, req("a", "*"))
		want := labels(b.Graph(), learned.Selected)

		b, chrono := solve(t, sat, solver.Config{IterationCeiling: 1}, req("a", "*"))
		if diff := cmp.Diff(want, labels(b.Graph(), chrono.Selected)); diff != "" {
			t.Errorf("Selected mismatch (-learned +chronological):\n%s", diff)
		}
		if !chrono.Stats.Fallback {
			t.Error("Fallback = false, want true")
		}
		if chrono.Stats.Backtracks == 0 {
			t.Error("Backtracks = 0, want > 0")
		}
	})

	t.Run("unsatisfiable", func(t *testing.T) {
		b, res := solve(t, unsat, solver.Config{IterationCeiling: 1, Minimize: true}, req("a", "*"))
		if !res.Unsat {
			t.Fatalf("Solve() = %v, want unsatisfiable", labels(b.Graph(), res.Selected))
		}
		want := []string{
			"root -> a *",
			"a@2.0.0 -> b ^2.0.0",
			"a@1.0.0 -> b ^2.0.0",
		}
		if diff := cmp.Diff(want, edges(b.Graph(), res.Core)); diff != "" {
			t.Errorf("Core mismatch (-want +got):\n%s", diff)
		}
		if !res.Minimal {
			t.Error("Minimal = false, want true")
		}
	})
}

func TestSolve_OracleError(t *testing.T) {
	u := universe{
		"a@1.0.0": {req("b", "^1.0.0")},
	}
	b := graph.NewBuilder(u)
	b.AddRoot(req("a", "^1.0.0"))

	res, err := solver.Solve(context.Background(), b, solver.Config{})
	var oerr *graph.OracleError
	if !errors.As(err, &oerr) {
		t.Fatalf("Solve() error = %v, want *graph.OracleError", err)
	}
	if oerr.Package != "b" || oerr.Op != "list_versions" {
		t.Errorf("OracleError = %+v, want list_versions of b", oerr)
	}
	if len(res.Selected) != 0 || res.Unsat {
		t.Errorf("Result = %+v, want stats only", res)
	}
}

func TestSolve_Deadline(t *testing.T) {
	u := universe{"a@1.0.0": nil}
	b := graph.NewBuilder(u)
	b.AddRoot(req("a", "*"))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if _, err := solver.Solve(ctx, b, solver.Config{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Solve() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestSolve_Deterministic(t *testing.T) {
	u := universe{
		"app@1.0.0":  {req("log", "^1.0.0"), req("http", "^2.0.0")},
		"http@2.0.0": {req("log", "~1.1.0"), req("tls", "*")},
		"http@2.1.0": {req("log", "^1.2.0"), req("tls", ">=1.1.0")},
		"log@1.0.0":  nil,
		"log@1.1.3":  nil,
		"log@1.2.0":  nil,
		"tls@1.0.0":  nil,
		"tls@1.1.0":  {req("log", "<1.2.0")},
	}

	var first []string
	for i := range 5 {
		b, res := solve(t, u, solver.Config{}, req("app", "^1.0.0"))
		if res.Unsat {
			t.Fatalf("Solve() unsatisfiable, core = %v", edges(b.Graph(), res.Core))
		}
		got := labels(b.Graph(), res.Selected)
		if _, err := selection.Confirm(b.Graph(), res.Selected); err != nil {
			t.Fatalf("Confirm() error = %v", err)
		}
		if i == 0 {
			first = got
			continue
		}
		if diff := cmp.Diff(first, got); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
	want := []string{"app@1.0.0", "http@2.0.0", "log@1.1.3", "tls@1.1.0"}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("Selected mismatch (-want +got):\n%s", diff)
	}
}

func TestSolve_Progress(t *testing.T) {
	u := universe{
		"a@1.0.0": nil,
		"a@1.1.0": nil,
		"b@1.0.0": nil,
		"b@1.1.0": {req("a", "=1.0.0")},
	}
	var kinds []solver.EventKind
	cfg := solver.Config{Progress: func(ev solver.Event) { kinds = append(kinds, ev.Kind) }}
	solve(t, u, cfg, req("a", "^1.0.0"), req("b", "^1.0.0"))

	want := []solver.EventKind{
		solver.EventDecision,
		solver.EventDecision,
		solver.EventConflict,
		solver.EventBackjump,
	}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}
