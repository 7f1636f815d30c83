package graph

import (
	"fmt"
	"slices"
	"strings"
)

// Get returns the node for key, or nil if not found.
func (g *Graph) Get(key Key) *Node {
	return g.Nodes[key]
}

// GetByName returns the node of a package by name, or nil.
func (g *Graph) GetByName(name string) *Node {
	for key, node := range g.Nodes {
		if key.Name == name && !node.IsRoot {
			return node
		}
	}
	return nil
}

// Contains reports whether key is in the graph.
func (g *Graph) Contains(key Key) bool {
	_, ok := g.Nodes[key]
	return ok
}

// ContainsName reports whether a package named name was selected.
func (g *Graph) ContainsName(name string) bool {
	return g.GetByName(name) != nil
}

// Keys returns every non-root key in sorted order.
func (g *Graph) Keys() []Key {
	keys := make([]Key, 0, len(g.Nodes))
	for key, node := range g.Nodes {
		if !node.IsRoot {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// DirectDeps returns the direct dependencies of key.
func (g *Graph) DirectDeps(key Key) []Key {
	if node := g.Nodes[key]; node != nil {
		return node.Dependencies
	}
	return nil
}

// DirectDependents returns the nodes that directly require key.
func (g *Graph) DirectDependents(key Key) []Key {
	if node := g.Nodes[key]; node != nil {
		return node.Dependents
	}
	return nil
}

// TransitiveDeps returns every package reachable from key, breadth first.
func (g *Graph) TransitiveDeps(key Key) []Key {
	return g.walk(key, func(n *Node) []Key { return n.Dependencies })
}

// TransitiveDependents returns every node that reaches key, closest first.
func (g *Graph) TransitiveDependents(key Key) []Key {
	return g.walk(key, func(n *Node) []Key { return n.Dependents })
}

func (g *Graph) walk(start Key, next func(*Node) []Key) []Key {
	result := make([]Key, 0)
	visited := map[Key]bool{start: true}
	queue := []Key{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current]
		if node == nil {
			continue
		}
		for _, k := range next(node) {
			if !visited[k] {
				visited[k] = true
				result = append(result, k)
				queue = append(queue, k)
			}
		}
	}
	return result
}

// Path returns the shortest dependency path from one node to another, or nil.
func (g *Graph) Path(from, to Key) []Key {
	if from == to {
		return []Key{from}
	}

	type queueItem struct {
		key  Key
		path []Key
	}

	visited := map[Key]bool{from: true}
	queue := []queueItem{{key: from, path: []Key{from}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node := g.Nodes[current.key]
		if node == nil {
			continue
		}
		for _, dep := range node.Dependencies {
			if dep == to {
				return append(slices.Clone(current.path), dep)
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, queueItem{key: dep, path: append(slices.Clone(current.path), dep)})
			}
		}
	}
	return nil
}

// AllPaths returns every acyclic path from one node to another. This can be
// expensive on graphs with many diamonds.
func (g *Graph) AllPaths(from, to Key) [][]Key {
	var result [][]Key
	g.findAllPaths(from, to, []Key{from}, make(map[Key]bool), &result)
	return result
}

func (g *Graph) findAllPaths(current, target Key, path []Key, visited map[Key]bool, result *[][]Key) {
	if current == target {
		*result = append(*result, slices.Clone(path))
		return
	}

	visited[current] = true
	defer func() { visited[current] = false }()

	node := g.Nodes[current]
	if node == nil {
		return
	}
	for _, dep := range node.Dependencies {
		if !visited[dep] {
			g.findAllPaths(dep, target, append(path, dep), visited, result)
		}
	}
}

// Explain describes why the named package is at its selected version.
func (g *Graph) Explain(name string) (*Explanation, error) {
	node := g.GetByName(name)
	if node == nil {
		return nil, fmt.Errorf("package %q not found in graph", name)
	}

	explanation := &Explanation{
		Package:   node.Key,
		Selection: node.Selection,
	}
	for _, path := range g.AllPaths(g.Root, node.Key) {
		chain := DependencyChain{Path: path}
		if len(path) >= 2 {
			chain.Constraint = node.Requested[path[len(path)-2]]
		}
		explanation.DependencyChains = append(explanation.DependencyChains, chain)
	}
	explanation.RequestSummary = g.requestSummary(node)
	return explanation, nil
}

func (g *Graph) requestSummary(node *Node) string {
	if len(node.Requested) == 0 {
		return fmt.Sprintf("%s is at version %s", node.Key.Name, node.Key.Version)
	}

	requirers := make([]Key, 0, len(node.Requested))
	for k := range node.Requested {
		requirers = append(requirers, k)
	}
	slices.SortFunc(requirers, Key.Compare)

	parts := make([]string, len(requirers))
	for i, k := range requirers {
		parts[i] = fmt.Sprintf("  %s requires %s", k, node.Requested[k])
	}
	summary := fmt.Sprintf("%s requirements:\n%s", node.Key.Name, strings.Join(parts, "\n"))
	if node.Selection != nil {
		summary += fmt.Sprintf("\nSelected %s (%s: %s)",
			node.Selection.SelectedVersion, node.Selection.Strategy, node.Selection.DecidingFactor)
	}
	return summary
}

// WhyIncluded returns every dependency chain that pulls the named package in.
func (g *Graph) WhyIncluded(name string) ([]DependencyChain, error) {
	node := g.GetByName(name)
	if node == nil {
		return nil, fmt.Errorf("package %q not found in graph", name)
	}

	paths := g.AllPaths(g.Root, node.Key)
	chains := make([]DependencyChain, len(paths))
	for i, path := range paths {
		chains[i] = DependencyChain{Path: path}
		if len(path) >= 2 {
			chains[i].Constraint = node.Requested[path[len(path)-2]]
		}
	}
	return chains, nil
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() GraphStats {
	stats := GraphStats{TotalPackages: len(g.Nodes)}
	if root := g.Nodes[g.Root]; root != nil {
		stats.TotalPackages--
		stats.DirectDependencies = len(root.Dependencies)
	}
	stats.TransitiveDependencies = max(stats.TotalPackages-stats.DirectDependencies, 0)
	stats.MaxDepth = g.maxDepth()
	stats.Cycles = len(g.FindCycles())
	return stats
}

func (g *Graph) maxDepth() int {
	depths := make(map[Key]int)
	onPath := make(map[Key]bool)
	var deepest int

	var dfs func(key Key, depth int)
	dfs = func(key Key, depth int) {
		// A node already on the current path closes a cycle.
		if onPath[key] {
			return
		}
		if d, ok := depths[key]; ok && d >= depth {
			return
		}
		depths[key] = depth
		deepest = max(deepest, depth)

		node := g.Nodes[key]
		if node == nil {
			return
		}
		onPath[key] = true
		for _, dep := range node.Dependencies {
			dfs(dep, depth+1)
		}
		delete(onPath, key)
	}

	dfs(g.Root, 0)
	return deepest
}

// Leaves returns the selected packages with no dependencies, sorted.
func (g *Graph) Leaves() []Key {
	var leaves []Key
	for _, key := range g.Keys() {
		if len(g.Nodes[key].Dependencies) == 0 {
			leaves = append(leaves, key)
		}
	}
	return leaves
}

// HasCycles reports whether the graph contains a cycle.
func (g *Graph) HasCycles() bool {
	return len(g.FindCycles()) > 0
}

// FindCycles returns one cycle per back edge found by a depth-first walk
// from the root, visiting dependencies in key order.
func (g *Graph) FindCycles() [][]Key {
	var cycles [][]Key
	visited := make(map[Key]bool)
	onStack := make(map[Key]bool)
	path := make([]Key, 0)

	var visit func(key Key)
	visit = func(key Key) {
		visited[key] = true
		onStack[key] = true
		path = append(path, key)

		if node := g.Nodes[key]; node != nil {
			for _, dep := range node.Dependencies {
				if !visited[dep] {
					visit(dep)
					continue
				}
				if onStack[dep] {
					start := slices.Index(path, dep)
					cycles = append(cycles, slices.Clone(path[start:]))
				}
			}
		}

		path = path[:len(path)-1]
		onStack[key] = false
	}

	if _, ok := g.Nodes[g.Root]; ok {
		visit(g.Root)
	}
	for _, key := range g.Keys() {
		if !visited[key] {
			visit(key)
		}
	}
	return cycles
}

// TopologicalOrder returns the selected packages with every dependency
// before its dependents, which is a valid install order. When only cycles
// remain, the smallest pending cycle is released in key order.
func (g *Graph) TopologicalOrder() []Key {
	keys := g.Keys()
	indegree := make(map[Key]int, len(keys))
	for _, k := range keys {
		for _, dep := range g.Nodes[k].Dependencies {
			if dep != k {
				indegree[k]++
			}
		}
	}

	order := make([]Key, 0, len(keys))
	done := make(map[Key]bool, len(keys))
	emit := func(k Key) {
		done[k] = true
		order = append(order, k)
		for _, parent := range g.Nodes[k].Dependents {
			if parent != k && !g.Nodes[parent].IsRoot {
				indegree[parent]--
			}
		}
	}

	for len(order) < len(keys) {
		progressed := false
		for _, k := range keys {
			if !done[k] && indegree[k] == 0 {
				emit(k)
				progressed = true
			}
		}
		if progressed {
			continue
		}
		// Only cycles remain: release the smallest one.
		cycle := g.smallestBlockedCycle(done)
		for _, k := range cycle {
			if !done[k] {
				emit(k)
			}
		}
	}
	return order
}

func (g *Graph) smallestBlockedCycle(done map[Key]bool) []Key {
	var best []Key
	for _, cycle := range g.FindCycles() {
		pending := slices.DeleteFunc(slices.Clone(cycle), func(k Key) bool {
			return done[k] || g.Nodes[k].IsRoot
		})
		if len(pending) == 0 {
			continue
		}
		slices.SortFunc(pending, Key.Compare)
		if best == nil || len(pending) < len(best) ||
			(len(pending) == len(best) && pending[0].Compare(best[0]) < 0) {
			best = pending
		}
	}
	if best == nil {
		for _, k := range g.Keys() {
			if !done[k] {
				return []Key{k}
			}
		}
	}
	return best
}
