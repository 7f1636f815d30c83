package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const separatorWidth = 60 // Width of separator lines in text output

// JSONGraph is the nested JSON rendering of a resolved graph.
type JSONGraph struct {
	Key          string           `json:"key"`
	Root         bool             `json:"root,omitempty"`
	Dependencies []JSONDependency `json:"dependencies,omitempty"`
}

// JSONDependency is one edge in the nested JSON rendering. A node that was
// already printed earlier in the walk is emitted with Unexpanded set and no
// children; a dependency that closes a cycle is emitted with Cycle set.
type JSONDependency struct {
	Key          string           `json:"key"`
	Constraint   string           `json:"constraint,omitempty"`
	Dependencies []JSONDependency `json:"dependencies,omitempty"`
	Unexpanded   bool             `json:"unexpanded,omitempty"`
	Cycle        bool             `json:"cycle,omitempty"`
}

// ToJSON renders the graph as nested JSON starting at the root.
func (g *Graph) ToJSON() ([]byte, error) {
	out := &JSONGraph{Key: g.Root.String(), Root: true}
	if root := g.Nodes[g.Root]; root != nil {
		visited := map[Key]bool{g.Root: true}
		onPath := map[Key]bool{g.Root: true}
		out.Dependencies = g.jsonDeps(root, visited, onPath)
	}
	return json.MarshalIndent(out, "", "  ")
}

func (g *Graph) jsonDeps(node *Node, visited, onPath map[Key]bool) []JSONDependency {
	deps := make([]JSONDependency, 0, len(node.Dependencies))
	for _, depKey := range node.Dependencies {
		dep := JSONDependency{Key: depKey.String()}
		child := g.Nodes[depKey]
		if child != nil {
			dep.Constraint = child.Requested[node.Key]
		}

		switch {
		case onPath[depKey]:
			dep.Cycle = true
		case visited[depKey]:
			dep.Unexpanded = true
		case child != nil:
			visited[depKey] = true
			onPath[depKey] = true
			dep.Dependencies = g.jsonDeps(child, visited, onPath)
			delete(onPath, depKey)
		}
		deps = append(deps, dep)
	}
	return deps
}

// ToDOT renders the graph in Graphviz DOT format. Edges are labelled with
// the declared constraint.
func (g *Graph) ToDOT() string {
	var buf bytes.Buffer

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box];\n\n")

	keys := append([]Key{g.Root}, g.Keys()...)
	for _, key := range keys {
		node := g.Nodes[key]
		if node == nil {
			continue
		}
		label := key.Name
		if key.Version != "" {
			label += "\\n" + key.Version
		}
		attrs := fmt.Sprintf(`label="%s"`, label) //nolint:gocritic // DOT format requires this quote style
		if node.IsRoot {
			attrs += ", style=bold"
		} else if node.Selection != nil && node.Selection.Strategy == StrategyHeldBack {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", key.String(), attrs)
	}

	buf.WriteString("\n")

	for _, key := range keys {
		node := g.Nodes[key]
		if node == nil {
			continue
		}
		for _, dep := range node.Dependencies {
			constraint := g.Nodes[dep].Requested[key]
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", key.String(), dep.String(), constraint)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ToText renders a human-readable summary and dependency tree.
func (g *Graph) ToText() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Dependency Graph (root: %s)\n", g.Root.String())
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	stats := g.Stats()
	fmt.Fprintf(&buf, "Total packages: %d\n", stats.TotalPackages)
	fmt.Fprintf(&buf, "Direct dependencies: %d\n", stats.DirectDependencies)
	fmt.Fprintf(&buf, "Transitive dependencies: %d\n", stats.TransitiveDependencies)
	fmt.Fprintf(&buf, "Max depth: %d\n", stats.MaxDepth)
	if stats.Cycles > 0 {
		fmt.Fprintf(&buf, "Cycles: %d\n", stats.Cycles)
	}
	buf.WriteString("\n")

	buf.WriteString("Dependency Tree:\n")
	g.printTree(&buf, g.Root, "", true, make(map[Key]bool))

	return buf.String()
}

func (g *Graph) printTree(buf *bytes.Buffer, key Key, prefix string, isLast bool, visited map[Key]bool) {
	connector := "├── "
	if isLast {
		connector = "└── "
	}
	if key == g.Root {
		buf.WriteString(key.String())
	} else {
		buf.WriteString(prefix + connector + key.String())
	}

	if visited[key] {
		buf.WriteString(" (circular)\n")
		return
	}
	buf.WriteString("\n")

	visited[key] = true
	defer func() { visited[key] = false }()

	node := g.Nodes[key]
	if node == nil {
		return
	}

	for i, dep := range node.Dependencies {
		childPrefix := prefix
		if key != g.Root {
			if isLast {
				childPrefix += "    "
			} else {
				childPrefix += "│   "
			}
		}
		g.printTree(buf, dep, childPrefix, i == len(node.Dependencies)-1, visited)
	}
}

// ToExplainText renders Explain(name) for humans.
func (g *Graph) ToExplainText(name string) (string, error) {
	explanation, err := g.Explain(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Explanation for: %s\n", explanation.Package.String())
	buf.WriteString(strings.Repeat("=", separatorWidth) + "\n\n")

	if sel := explanation.Selection; sel != nil {
		buf.WriteString("Version Selection:\n")
		fmt.Fprintf(&buf, "  Selected version: %s\n", sel.SelectedVersion)
		fmt.Fprintf(&buf, "  Strategy: %s\n", sel.Strategy)
		fmt.Fprintf(&buf, "  Deciding factor: %s\n", sel.DecidingFactor)

		if len(sel.Candidates) > 0 {
			buf.WriteString("\n  Candidates considered:\n")
			for _, c := range sel.Candidates {
				status := "  "
				if c.Selected {
					status = "✓ "
				}
				fmt.Fprintf(&buf, "    %s%s\n", status, c.Version)
				if !c.Selected && c.RejectionReason != "" {
					fmt.Fprintf(&buf, "      Reason not selected: %s\n", c.RejectionReason)
				}
			}
		}
	}

	if len(explanation.DependencyChains) > 0 {
		buf.WriteString("\nDependency Chains (paths from root):\n")
		for i, chain := range explanation.DependencyChains {
			fmt.Fprintf(&buf, "  %d. %s\n", i+1, chain.String())
		}
	}

	return buf.String(), nil
}

// PackageInfo is one entry of ToPackageList.
type PackageInfo struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	RequiredBy []string `json:"required_by,omitempty"`
}

// ToPackageList returns a flat list of selected packages sorted by name.
func (g *Graph) ToPackageList() []PackageInfo {
	keys := g.Keys()
	packages := make([]PackageInfo, 0, len(keys))
	for _, key := range keys {
		node := g.Nodes[key]
		requiredBy := make([]string, len(node.Dependents))
		for i, dep := range node.Dependents {
			requiredBy[i] = dep.String()
		}
		packages = append(packages, PackageInfo{
			Name:       key.Name,
			Version:    key.Version,
			RequiredBy: requiredBy,
		})
	}
	return packages
}
