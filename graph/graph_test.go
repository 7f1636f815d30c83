package graph

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/albertocavalcante/go-depsolve/selection/version"
)

var testRoot = Key{Name: "app"}

type testArena struct {
	g *DependencyGraph
}

func newTestArena() *testArena { return &testArena{g: NewDependencyGraph()} }

func (a *testArena) pkg(name string, vs ...string) {
	node := a.g.ensurePackage(name)
	for _, v := range vs {
		a.g.addCandidate(name, version.MustParse(v))
	}
	a.g.sortCandidates(node)
	node.listed = true
}

func (a *testArena) id(name, v string) CandidateID {
	id, ok := a.g.Lookup(name, version.MustParse(v))
	if !ok {
		panic("unknown candidate " + name + "@" + v)
	}
	return id
}

func (a *testArena) root(pkg, constraint string) {
	a.g.addEdge(RootID, Requirement{Package: pkg, Constraint: version.MustParseConstraint(constraint)})
}

func (a *testArena) dep(from, fromVersion, pkg, constraint string) {
	id := a.id(from, fromVersion)
	a.g.addEdge(id, Requirement{Package: pkg, Constraint: version.MustParseConstraint(constraint)})
	a.g.expanded[id] = true
}

// createTestGraph resolves:
//
//	app
//	├── a@1.0.0
//	│   └── c@2.0.0
//	└── b@1.0.0
//	    └── c@2.0.0 (shared)
func createTestGraph(t *testing.T) *Graph {
	t.Helper()
	a := newTestArena()
	a.pkg("a", "1.0.0")
	a.pkg("b", "1.0.0")
	a.pkg("c", "1.0.0", "2.0.0", "2.1.0", "3.0.0")
	a.root("a", "^1.0.0")
	a.root("b", "^1.0.0")
	a.dep("a", "1.0.0", "c", "^2.0.0")
	a.dep("b", "1.0.0", "c", ">=2.0.0")

	g, err := FromAssignment(a.g, testRoot, []CandidateID{
		a.id("a", "1.0.0"), a.id("b", "1.0.0"), a.id("c", "2.0.0"),
	})
	if err != nil {
		t.Fatalf("FromAssignment() error = %v", err)
	}
	return g
}

func createCyclicGraph(t *testing.T) *Graph {
	t.Helper()
	a := newTestArena()
	a.pkg("a", "1.0.0")
	a.pkg("b", "1.0.0")
	a.pkg("z", "1.0.0")
	a.root("a", "*")
	a.dep("a", "1.0.0", "b", "*")
	a.dep("b", "1.0.0", "a", "*")
	a.dep("b", "1.0.0", "z", "*")

	g, err := FromAssignment(a.g, testRoot, []CandidateID{
		a.id("a", "1.0.0"), a.id("b", "1.0.0"), a.id("z", "1.0.0"),
	})
	if err != nil {
		t.Fatalf("FromAssignment() error = %v", err)
	}
	return g
}

func TestKey_String(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{Name: "foo", Version: "1.0.0"}, "foo@1.0.0"},
		{Key{Name: "app"}, "app"},
		{Key{Name: "baz", Version: "2.0.0-rc.1"}, "baz@2.0.0-rc.1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromAssignment(t *testing.T) {
	g := createTestGraph(t)

	if len(g.Nodes) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(g.Nodes))
	}
	root := g.Nodes[g.Root]
	if root == nil || !root.IsRoot {
		t.Fatal("root node missing")
	}
	want := []Key{{"a", "1.0.0"}, {"b", "1.0.0"}}
	if diff := cmp.Diff(want, root.Dependencies); diff != "" {
		t.Errorf("root dependencies mismatch (-want +got):\n%s", diff)
	}

	c := g.Nodes[Key{"c", "2.0.0"}]
	if c == nil {
		t.Fatal("c node not found")
	}
	wantReq := map[Key]string{{"a", "1.0.0"}: "^2.0.0", {"b", "1.0.0"}: ">=2.0.0"}
	if diff := cmp.Diff(wantReq, c.Requested); diff != "" {
		t.Errorf("c requested mismatch (-want +got):\n%s", diff)
	}
}

func TestFromAssignment_Errors(t *testing.T) {
	a := newTestArena()
	a.pkg("a", "1.0.0", "2.0.0")
	a.pkg("b", "1.0.0")
	a.root("a", "*")
	a.dep("a", "1.0.0", "b", "*")

	if _, err := FromAssignment(a.g, testRoot, []CandidateID{a.id("a", "1.0.0"), a.id("a", "2.0.0")}); err == nil {
		t.Error("two versions of one package should be rejected")
	}
	if _, err := FromAssignment(a.g, testRoot, []CandidateID{a.id("a", "1.0.0")}); err == nil {
		t.Error("an unselected requirement target should be rejected")
	}
}

func TestFromAssignment_SelectionInfo(t *testing.T) {
	g := createTestGraph(t)

	info := g.Get(Key{"c", "2.0.0"}).Selection
	if info == nil {
		t.Fatal("missing selection info")
	}
	// 2.1.0 satisfies both requirers but was not picked.
	if info.Strategy != StrategyHeldBack {
		t.Errorf("Strategy = %s, want %s", info.Strategy, StrategyHeldBack)
	}

	var got []string
	for _, c := range info.Candidates {
		got = append(got, c.Version)
	}
	if diff := cmp.Diff([]string{"3.0.0", "2.1.0", "2.0.0", "1.0.0"}, got); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}

	three := info.Candidates[0]
	if diff := cmp.Diff([]Key{{"a", "1.0.0"}}, three.ExcludedBy); diff != "" {
		t.Errorf("3.0.0 ExcludedBy mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(three.RejectionReason, "a@1.0.0 requires ^2.0.0") {
		t.Errorf("3.0.0 RejectionReason = %q", three.RejectionReason)
	}
	if !info.Candidates[2].Selected {
		t.Error("2.0.0 should be marked selected")
	}

	if a := g.Get(Key{"a", "1.0.0"}).Selection; a.Strategy != StrategyHighest {
		t.Errorf("a Strategy = %s, want %s", a.Strategy, StrategyHighest)
	}
}

func TestGraph_Get(t *testing.T) {
	g := createTestGraph(t)

	if node := g.Get(Key{Name: "a", Version: "1.0.0"}); node == nil {
		t.Error("Get() returned nil for existing package")
	}
	if node := g.Get(Key{Name: "x", Version: "1.0.0"}); node != nil {
		t.Error("Get() should return nil for missing package")
	}
	if node := g.GetByName("a"); node == nil {
		t.Error("GetByName() returned nil for existing package")
	}
	if node := g.GetByName("app"); node != nil {
		t.Error("GetByName() should not return the root")
	}
	if !g.Contains(Key{"b", "1.0.0"}) || g.ContainsName("x") {
		t.Error("Contains/ContainsName mismatch")
	}
}

func TestGraph_DirectDeps(t *testing.T) {
	g := createTestGraph(t)

	if got := g.DirectDeps(Key{"a", "1.0.0"}); len(got) != 1 || got[0].Name != "c" {
		t.Errorf("DirectDeps(a) = %v", got)
	}
	dependents := g.DirectDependents(Key{"c", "2.0.0"})
	if diff := cmp.Diff([]Key{{"a", "1.0.0"}, {"b", "1.0.0"}}, dependents); diff != "" {
		t.Errorf("DirectDependents(c) mismatch (-want +got):\n%s", diff)
	}
	if g.DirectDeps(Key{"x", "1"}) != nil {
		t.Error("DirectDeps of a missing key should be nil")
	}
}

func TestGraph_Transitive(t *testing.T) {
	g := createTestGraph(t)

	if got := g.TransitiveDeps(g.Root); len(got) != 3 {
		t.Errorf("TransitiveDeps(root) = %v, want 3 keys", got)
	}
	got := g.TransitiveDependents(Key{"c", "2.0.0"})
	if len(got) != 3 {
		t.Errorf("TransitiveDependents(c) = %v, want a, b and the root", got)
	}
}

func TestGraph_Path(t *testing.T) {
	g := createTestGraph(t)

	path := g.Path(g.Root, Key{"c", "2.0.0"})
	if len(path) != 3 || path[0] != g.Root || path[2].Name != "c" {
		t.Errorf("Path(root, c) = %v", path)
	}
	if p := g.Path(Key{"c", "2.0.0"}, g.Root); p != nil {
		t.Errorf("Path(c, root) = %v, want nil", p)
	}
	if p := g.Path(g.Root, g.Root); len(p) != 1 {
		t.Errorf("Path(root, root) = %v", p)
	}

	paths := g.AllPaths(g.Root, Key{"c", "2.0.0"})
	if len(paths) != 2 {
		t.Errorf("AllPaths(root, c) = %d paths, want 2", len(paths))
	}
}

func TestGraph_Stats(t *testing.T) {
	g := createTestGraph(t)

	want := GraphStats{TotalPackages: 3, DirectDependencies: 2, TransitiveDependencies: 1, MaxDepth: 2}
	if diff := cmp.Diff(want, g.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_Leaves(t *testing.T) {
	g := createTestGraph(t)

	leaves := g.Leaves()
	if len(leaves) != 1 || leaves[0].Name != "c" {
		t.Errorf("Leaves() = %v, want [c@2.0.0]", leaves)
	}
}

func TestGraph_Cycles(t *testing.T) {
	if g := createTestGraph(t); g.HasCycles() {
		t.Error("test graph should not have cycles")
	}

	g := createCyclicGraph(t)
	if !g.HasCycles() {
		t.Fatal("cyclic graph should have cycles")
	}
	cycles := g.FindCycles()
	if len(cycles) != 1 || len(cycles[0]) != 2 {
		t.Errorf("FindCycles() = %v, want one two-node cycle", cycles)
	}
	if g.Stats().Cycles != 1 {
		t.Errorf("Stats().Cycles = %d, want 1", g.Stats().Cycles)
	}
}

func TestGraph_TopologicalOrder(t *testing.T) {
	order := createTestGraph(t).TopologicalOrder()
	want := []Key{{"c", "2.0.0"}, {"a", "1.0.0"}, {"b", "1.0.0"}}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("TopologicalOrder() mismatch (-want +got):\n%s", diff)
	}

	cyclic := createCyclicGraph(t).TopologicalOrder()
	want = []Key{{"z", "1.0.0"}, {"a", "1.0.0"}, {"b", "1.0.0"}}
	if diff := cmp.Diff(want, cyclic); diff != "" {
		t.Errorf("cyclic TopologicalOrder() mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_Explain(t *testing.T) {
	g := createTestGraph(t)

	explanation, err := g.Explain("c")
	if err != nil {
		t.Fatalf("Explain() error: %v", err)
	}
	if explanation.Package.Name != "c" {
		t.Errorf("expected package 'c', got '%s'", explanation.Package.Name)
	}
	if len(explanation.DependencyChains) != 2 {
		t.Errorf("expected 2 dependency chains, got %d", len(explanation.DependencyChains))
	}
	if !strings.Contains(explanation.RequestSummary, "a@1.0.0 requires ^2.0.0") {
		t.Errorf("RequestSummary = %q", explanation.RequestSummary)
	}

	if _, err := g.Explain("nonexistent"); err == nil {
		t.Error("Explain() should return error for missing package")
	}
}

func TestGraph_WhyIncluded(t *testing.T) {
	g := createTestGraph(t)

	chains, err := g.WhyIncluded("c")
	if err != nil {
		t.Fatalf("WhyIncluded() error: %v", err)
	}
	var got []string
	for _, c := range chains {
		got = append(got, c.String())
	}
	slices.Sort(got)
	want := []string{
		"app -> a@1.0.0 -> c@2.0.0 (requested ^2.0.0)",
		"app -> b@1.0.0 -> c@2.0.0 (requested >=2.0.0)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WhyIncluded(c) mismatch (-want +got):\n%s", diff)
	}

	if _, err := g.WhyIncluded("nonexistent"); err == nil {
		t.Error("WhyIncluded() should return error for missing package")
	}
}

func TestGraph_ToJSON(t *testing.T) {
	g := createTestGraph(t)

	data, err := g.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}
	var result JSONGraph
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Key != "app" || !result.Root {
		t.Errorf("unexpected root: %+v", result)
	}
	if len(result.Dependencies) != 2 {
		t.Fatalf("expected 2 root dependencies, got %d", len(result.Dependencies))
	}
	// c is printed under a, then marked unexpanded under b.
	if !result.Dependencies[1].Dependencies[0].Unexpanded {
		t.Error("second visit of c should be unexpanded")
	}

	cyclic, err := createCyclicGraph(t).ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(cyclic), `"cycle": true`) {
		t.Error("cyclic graph JSON should flag the back edge")
	}
}

func TestGraph_ToDOT(t *testing.T) {
	dot := createTestGraph(t).ToDOT()

	for _, want := range []string{
		"digraph dependencies",
		"rankdir=LR",
		`"app" [label="app", style=bold]`,
		`"a@1.0.0" -> "c@2.0.0" [label="^2.0.0"]`,
		"style=dashed",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestGraph_ToText(t *testing.T) {
	text := createTestGraph(t).ToText()

	for _, want := range []string{"Dependency Graph (root: app)", "Total packages: 3", "Dependency Tree", "└── c@2.0.0"} {
		if !strings.Contains(text, want) {
			t.Errorf("text output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(createCyclicGraph(t).ToText(), "(circular)") {
		t.Error("cyclic text output should mark the back edge")
	}
}

func TestGraph_ToExplainText(t *testing.T) {
	g := createTestGraph(t)

	text, err := g.ToExplainText("c")
	if err != nil {
		t.Fatalf("ToExplainText() error: %v", err)
	}
	for _, want := range []string{"Explanation for: c@2.0.0", "✓ 2.0.0", "Reason not selected", "Dependency Chains"} {
		if !strings.Contains(text, want) {
			t.Errorf("explain output missing %q", want)
		}
	}
	if _, err := g.ToExplainText("nonexistent"); err == nil {
		t.Error("ToExplainText() should return error for missing package")
	}
}

func TestGraph_ToPackageList(t *testing.T) {
	packages := createTestGraph(t).ToPackageList()

	want := []PackageInfo{
		{Name: "a", Version: "1.0.0", RequiredBy: []string{"app"}},
		{Name: "b", Version: "1.0.0", RequiredBy: []string{"app"}},
		{Name: "c", Version: "2.0.0", RequiredBy: []string{"a@1.0.0", "b@1.0.0"}},
	}
	if diff := cmp.Diff(want, packages); diff != "" {
		t.Errorf("ToPackageList() mismatch (-want +got):\n%s", diff)
	}
}

func TestDependencyChain_String(t *testing.T) {
	chain := DependencyChain{
		Path:       []Key{{Name: "app"}, {Name: "a", Version: "1.0.0"}, {Name: "b", Version: "2.0.0"}},
		Constraint: "^2.0.0",
	}
	if got, want := chain.String(), "app -> a@1.0.0 -> b@2.0.0 (requested ^2.0.0)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if (DependencyChain{}).String() != "" {
		t.Error("empty chain should return empty string")
	}
}

func TestGraph_EmptyGraph(t *testing.T) {
	g, err := FromAssignment(NewDependencyGraph(), testRoot, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats := g.Stats(); stats.TotalPackages != 0 {
		t.Errorf("expected 0 packages, got %d", stats.TotalPackages)
	}
	if _, err := g.ToJSON(); err != nil {
		t.Fatalf("ToJSON() error on empty graph: %v", err)
	}
	if order := g.TopologicalOrder(); len(order) != 0 {
		t.Errorf("TopologicalOrder() = %v, want empty", order)
	}
}

func TestNewBuilder_Logger(t *testing.T) {
	if h := NewBuilder(nil).logger.Handler(); h != slog.DiscardHandler {
		t.Errorf("default handler = %T, want slog.DiscardHandler", h)
	}
	if h := NewBuilder(nil, WithLogger(nil)).logger.Handler(); h != slog.DiscardHandler {
		t.Errorf("WithLogger(nil) handler = %T, want slog.DiscardHandler", h)
	}
	l := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	if NewBuilder(nil, WithLogger(l)).logger != l {
		t.Error("WithLogger() logger not used")
	}
}
