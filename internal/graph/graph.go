// Package graph implements the in-memory module dependency graph held by
// the analyzer process: modules as nodes, import edges kept symmetric in
// both directions, per-target signatures, trigger subscriptions, and file
// identity metadata for cache validation.
package graph

import (
	"fmt"
)

// SymbolKind classifies entries of a module's symbol table.
type SymbolKind int

const (
	SymbolGlobal SymbolKind = iota
	SymbolLocal
	SymbolMember
)

// Symbol is one resolved name in a module.
type Symbol struct {
	Name string
	Kind SymbolKind
	// Def names the resolved definition (fully qualified).
	Def string
}

// CacheMeta is the file identity triple used for cache validation. A cache
// hit requires all three fields to match and every imported module to be a
// transitive hit as well.
type CacheMeta struct {
	MTime int64  `json:"mtime"`
	Size  int64  `json:"size"`
	Hash  string `json:"hash"`
}

// Node is one module in the graph.
type Node struct {
	ID string
	// Path is empty for built-in or virtual modules.
	Path string

	// OptionsSnapshot records the parse-time options the module was
	// analyzed under.
	OptionsSnapshot string

	Symbols map[string]Symbol

	// Importers and Imports are the direct graph edges. For every edge
	// a -> b, b is in a.Imports exactly when a is in b.Importers.
	Importers map[string]bool
	Imports   map[string]bool

	// TargetSigs maps target full names to their current output signature
	// digests.
	TargetSigs map[string]string

	// FiredTriggers is the set of triggers this module fired last pass.
	FiredTriggers map[string]bool

	// DepTriggers is the set of triggers targets of this module currently
	// depend on.
	DepTriggers map[string]bool

	// Meta holds the module's cache identity record. Cache validation
	// (Validate) works on the loaded ModuleCache entries and does not fill
	// it in, so it is nil unless assigned directly.
	Meta *CacheMeta

	fresh bool
}

func newNode(id, path string) *Node {
	return &Node{
		ID:            id,
		Path:          path,
		Symbols:       make(map[string]Symbol),
		Importers:     make(map[string]bool),
		Imports:       make(map[string]bool),
		TargetSigs:    make(map[string]string),
		FiredTriggers: make(map[string]bool),
		DepTriggers:   make(map[string]bool),
	}
}

// Graph holds the module nodes in insertion order.
type Graph struct {
	order []string
	nodes map[string]*Node
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddModule inserts a module node, or returns the existing one with its
// path refreshed.
func (g *Graph) AddModule(id, path string) *Node {
	if node, ok := g.nodes[id]; ok {
		node.Path = path
		return node
	}
	node := newNode(id, path)
	g.nodes[id] = node
	g.order = append(g.order, id)
	return node
}

// Get returns the node for a module id.
func (g *Graph) Get(id string) (*Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.order)
}

// Modules returns module ids in insertion order.
func (g *Graph) Modules() []string {
	return append([]string(nil), g.order...)
}

// AddImport records the edge from -> to, keeping both directions in sync.
func (g *Graph) AddImport(from, to string) error {
	a, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("unknown module %q", from)
	}
	b, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("unknown module %q", to)
	}
	a.Imports[to] = true
	b.Importers[from] = true
	return nil
}

// RemoveImport drops the edge from -> to from both sides.
func (g *Graph) RemoveImport(from, to string) {
	if a, ok := g.nodes[from]; ok {
		delete(a.Imports, to)
	}
	if b, ok := g.nodes[to]; ok {
		delete(b.Importers, from)
	}
}

// RemoveModule removes all of the module's edges, then the node itself.
func (g *Graph) RemoveModule(id string) {
	node, ok := g.nodes[id]
	if !ok {
		return
	}
	for imp := range node.Imports {
		if other, ok := g.nodes[imp]; ok {
			delete(other.Importers, id)
		}
	}
	for imp := range node.Importers {
		if other, ok := g.nodes[imp]; ok {
			delete(other.Imports, id)
		}
	}
	delete(g.nodes, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Neighbors returns the direct importers and imports of a module, in
// deterministic order.
func (g *Graph) Neighbors(id string) (importers, imports []string) {
	node, ok := g.nodes[id]
	if !ok {
		return nil, nil
	}
	// Walk the insertion order so results are stable.
	for _, oid := range g.order {
		if node.Importers[oid] {
			importers = append(importers, oid)
		}
		if node.Imports[oid] {
			imports = append(imports, oid)
		}
	}
	return importers, imports
}

// MarkFresh marks a module's cached signatures as matching its current
// source. It is idempotent and only legal when no outstanding triggers
// depend on the module.
func (g *Graph) MarkFresh(id string) error {
	node, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("unknown module %q", id)
	}
	if len(node.FiredTriggers) > 0 {
		return fmt.Errorf("module %q has outstanding triggers", id)
	}
	node.fresh = true
	return nil
}

// MarkStale clears a module's freshness.
func (g *Graph) MarkStale(id string) {
	if node, ok := g.nodes[id]; ok {
		node.fresh = false
	}
}

// IsFresh reports whether the module and all of its imports are
// transitively fresh.
func (g *Graph) IsFresh(id string) bool {
	return g.isFresh(id, make(map[string]bool))
}

func (g *Graph) isFresh(id string, visiting map[string]bool) bool {
	node, ok := g.nodes[id]
	if !ok || !node.fresh {
		return false
	}
	if visiting[id] {
		return true
	}
	visiting[id] = true
	for imp := range node.Imports {
		if !g.isFresh(imp, visiting) {
			return false
		}
	}
	return true
}

// CheckEdgeInvariant verifies that every edge is recorded symmetrically,
// returning the first violation found.
func (g *Graph) CheckEdgeInvariant() error {
	for id, node := range g.nodes {
		for imp := range node.Imports {
			other, ok := g.nodes[imp]
			if !ok || !other.Importers[id] {
				return fmt.Errorf("edge %s -> %s missing reverse record", id, imp)
			}
		}
		for imp := range node.Importers {
			other, ok := g.nodes[imp]
			if !ok || !other.Imports[id] {
				return fmt.Errorf("edge %s -> %s missing forward record", imp, id)
			}
		}
	}
	return nil
}
