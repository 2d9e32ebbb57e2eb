// Package depgraph builds an import graph between the modules of an
// analyzed repository. Imports that do not resolve to a module in the
// repository are attributed to a single external node per target.
package depgraph

import (
	"path"
	"sort"
	"strings"
)

// External prefixes a graph node for an import that lives outside the
// repository, such as a standard library or third-party module.
const External = "external:"

// Graph is a directed import graph. Nodes are dotted module paths.
type Graph struct {
	edges    map[string]map[string]struct{}
	reverse  map[string]map[string]struct{}
	internal map[string]struct{}
}

// ModuleID converts a repository-relative file path into a dotted
// module path. Package initializers name their package: a/b/__init__.py
// is module a.b. Non-module files yield an empty id.
func ModuleID(filePath string) string {
	if !strings.HasSuffix(filePath, ".py") {
		return ""
	}
	trimmed := strings.TrimSuffix(path.Clean(filePath), ".py")
	parts := strings.Split(trimmed, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ".")
}

// Build constructs the graph from a map of repository-relative file
// paths to the module paths each file imports.
func Build(importsByFile map[string][]string) *Graph {
	g := &Graph{
		edges:    make(map[string]map[string]struct{}),
		reverse:  make(map[string]map[string]struct{}),
		internal: make(map[string]struct{}),
	}

	for filePath := range importsByFile {
		if id := ModuleID(filePath); id != "" {
			g.internal[id] = struct{}{}
		}
	}

	for filePath, imports := range importsByFile {
		from := ModuleID(filePath)
		if from == "" {
			continue
		}
		fromPkg := strings.HasSuffix(filePath, "/__init__.py") || filePath == "__init__.py"
		for _, imp := range imports {
			target := g.resolve(from, fromPkg, imp)
			if target == "" || target == from {
				continue
			}
			g.addEdge(from, target)
		}
	}

	return g
}

func (g *Graph) addEdge(from, to string) {
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]struct{})
	}
	g.edges[from][to] = struct{}{}
	if g.reverse[to] == nil {
		g.reverse[to] = make(map[string]struct{})
	}
	g.reverse[to][from] = struct{}{}
}

// resolve maps an import string to a graph node. Relative imports are
// resolved against the importing module's package; absolute imports
// match the longest known module prefix, falling back to an external
// node keyed by the import's top-level package.
func (g *Graph) resolve(from string, fromPkg bool, imp string) string {
	if strings.HasPrefix(imp, ".") {
		return g.resolveRelative(from, fromPkg, imp)
	}

	parts := strings.Split(imp, ".")
	for i := len(parts); i > 0; i-- {
		candidate := strings.Join(parts[:i], ".")
		if _, ok := g.internal[candidate]; ok {
			return candidate
		}
	}
	return External + parts[0]
}

func (g *Graph) resolveRelative(from string, fromPkg bool, imp string) string {
	dots := 0
	for dots < len(imp) && imp[dots] == '.' {
		dots++
	}
	rest := imp[dots:]

	// A plain module's id ends in the module name, so one dot drops it
	// to reach the enclosing package. A package initializer's id is the
	// package itself, so the first dot points at it and drops nothing.
	drop := dots
	if fromPkg {
		drop--
	}

	base := strings.Split(from, ".")
	var candidate string
	if drop <= len(base) {
		base = base[:len(base)-drop]
		switch {
		case rest != "" && len(base) > 0:
			candidate = strings.Join(base, ".") + "." + rest
		case rest != "":
			candidate = rest
		default:
			candidate = strings.Join(base, ".")
		}
	}

	if candidate != "" {
		parts := strings.Split(candidate, ".")
		for i := len(parts); i > 0; i-- {
			prefix := strings.Join(parts[:i], ".")
			if _, ok := g.internal[prefix]; ok {
				return prefix
			}
		}
	}

	// An unresolved relative import still gets a node, keyed by the
	// path it named, so fan-out counts stay meaningful.
	if candidate == "" {
		candidate = rest
	}
	if candidate == "" {
		candidate = imp
	}
	return External + candidate
}

// Modules returns all internal modules, sorted.
func (g *Graph) Modules() []string {
	out := make([]string, 0, len(g.internal))
	for id := range g.internal {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FanOut returns the modules a module imports, sorted.
func (g *Graph) FanOut(module string) []string {
	return sortedKeys(g.edges[module])
}

// FanIn returns the modules importing a module, sorted.
func (g *Graph) FanIn(module string) []string {
	return sortedKeys(g.reverse[module])
}

// ReachableFrom returns every node reachable through import edges from
// the given module, excluding the module itself. Cycles terminate via
// the visited set.
func (g *Graph) ReachableFrom(module string) []string {
	visited := map[string]struct{}{module: {}}
	stack := []string{module}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.edges[current] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}

	delete(visited, module)
	return sortedKeys(visited)
}

// ExternalImports returns the external packages the repository depends
// on, without the external prefix, sorted.
func (g *Graph) ExternalImports() []string {
	seen := make(map[string]struct{})
	for _, targets := range g.edges {
		for target := range targets {
			if strings.HasPrefix(target, External) {
				seen[strings.TrimPrefix(target, External)] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

// EdgeCount returns the number of distinct import edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, targets := range g.edges {
		n += len(targets)
	}
	return n
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
