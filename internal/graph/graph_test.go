package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEdgeSymmetry(t *testing.T) {
	g := New()
	g.AddModule("a", "a.py")
	g.AddModule("b", "b.py")
	if err := g.AddImport("a", "b"); err != nil {
		t.Fatal(err)
	}

	a, _ := g.Get("a")
	b, _ := g.Get("b")
	if !a.Imports["b"] || !b.Importers["a"] {
		t.Error("edge must be recorded on both sides")
	}
	if err := g.CheckEdgeInvariant(); err != nil {
		t.Errorf("invariant violated: %v", err)
	}
}

func TestRemoveModuleRemovesEdges(t *testing.T) {
	g := New()
	g.AddModule("a", "a.py")
	g.AddModule("b", "b.py")
	g.AddModule("c", "c.py")
	g.AddImport("a", "b")
	g.AddImport("b", "c")

	g.RemoveModule("b")

	if _, ok := g.Get("b"); ok {
		t.Fatal("b should be gone")
	}
	a, _ := g.Get("a")
	c, _ := g.Get("c")
	if a.Imports["b"] {
		t.Error("a still imports the removed module")
	}
	if c.Importers["b"] {
		t.Error("c still lists the removed module as importer")
	}
	if err := g.CheckEdgeInvariant(); err != nil {
		t.Errorf("invariant violated after removal: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "c"}, g.Modules()); diff != "" {
		t.Errorf("module order mismatch:\n%s", diff)
	}
}

func TestNeighborsAreOrdered(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddModule(id, id+".py")
	}
	g.AddImport("d", "b")
	g.AddImport("d", "a")
	g.AddImport("c", "d")

	importers, imports := g.Neighbors("d")
	if diff := cmp.Diff([]string{"c"}, importers); diff != "" {
		t.Errorf("importers mismatch:\n%s", diff)
	}
	// Insertion order of the graph, not of edge creation.
	if diff := cmp.Diff([]string{"a", "b"}, imports); diff != "" {
		t.Errorf("imports mismatch:\n%s", diff)
	}
}

func TestAddModuleIsIdempotent(t *testing.T) {
	g := New()
	n1 := g.AddModule("a", "a.py")
	n2 := g.AddModule("a", "moved/a.py")
	if n1 != n2 {
		t.Error("re-adding must return the same node")
	}
	if n1.Path != "moved/a.py" {
		t.Error("re-adding refreshes the path")
	}
	if g.Len() != 1 {
		t.Errorf("Len = %d, want 1", g.Len())
	}
}

func TestFreshness(t *testing.T) {
	g := New()
	g.AddModule("a", "a.py")
	g.AddModule("b", "b.py")
	g.AddImport("a", "b")

	if g.IsFresh("a") {
		t.Error("modules start stale")
	}
	if err := g.MarkFresh("a"); err != nil {
		t.Fatal(err)
	}
	if g.IsFresh("a") {
		t.Error("a cannot be fresh while its import b is stale")
	}
	if err := g.MarkFresh("b"); err != nil {
		t.Fatal(err)
	}
	if !g.IsFresh("a") {
		t.Error("a and all imports fresh -> a fresh")
	}

	// MarkFresh is idempotent.
	if err := g.MarkFresh("a"); err != nil {
		t.Errorf("second MarkFresh failed: %v", err)
	}

	g.MarkStale("b")
	if g.IsFresh("a") {
		t.Error("staleness propagates through imports")
	}
}

func TestMarkFreshRejectsOutstandingTriggers(t *testing.T) {
	g := New()
	node := g.AddModule("a", "a.py")
	node.FiredTriggers["<a.X>"] = true
	if err := g.MarkFresh("a"); err == nil {
		t.Error("MarkFresh must fail with outstanding triggers")
	}
}

func TestCacheValidate(t *testing.T) {
	entries := map[string]*ModuleCache{
		"a": {ID: "a", Path: "a.py", Meta: CacheMeta{MTime: 1, Size: 10, Hash: "h1"}, Imports: []string{"b"}},
		"b": {ID: "b", Path: "b.py", Meta: CacheMeta{MTime: 2, Size: 20, Hash: "h2"}},
		"c": {ID: "c", Path: "c.py", Meta: CacheMeta{MTime: 3, Size: 30, Hash: "h3"}, Imports: []string{"missing"}},
	}
	current := func(path string) (CacheMeta, bool) {
		switch path {
		case "a.py":
			return CacheMeta{MTime: 1, Size: 10, Hash: "h1"}, true
		case "b.py":
			return CacheMeta{MTime: 2, Size: 20, Hash: "h2"}, true
		case "c.py":
			return CacheMeta{MTime: 3, Size: 30, Hash: "h3"}, true
		}
		return CacheMeta{}, false
	}

	fresh := Validate(entries, current)
	if !fresh["a"] || !fresh["b"] {
		t.Errorf("a and b should hit: %v", fresh)
	}
	if fresh["c"] {
		t.Error("c imports an uncached module and must miss")
	}

	// A hash mismatch anywhere invalidates the chain through it.
	entries["b"].Meta.Hash = "stale"
	fresh = Validate(entries, current)
	if fresh["a"] || fresh["b"] {
		t.Errorf("hash mismatch must invalidate b and its importer a: %v", fresh)
	}
}
