package server

import (
	"github.com/lucalysoft/mypy/internal/analyzer"
	"github.com/lucalysoft/mypy/internal/fswatcher"
	"github.com/lucalysoft/mypy/internal/graph"
)

// seedFromCache loads the persisted per-module entries for the given
// sources, installs the saved file identities into the watcher, and
// returns which modules are transitive cache hits.
func (s *Server) seedFromCache(sources []analyzer.BuildSource) map[string]bool {
	store := graph.NewCacheStore(s.options.CacheDir)
	entries := make(map[string]*graph.ModuleCache)
	for _, src := range sources {
		mc, err := store.Load(src.Module)
		if err != nil {
			s.log.Printf("cache load failed for %s: %v", src.Module, err)
			continue
		}
		if mc != nil {
			entries[mc.ID] = mc
		}
	}

	// Current identities, computed once per path.
	snapshots := make(map[string]*graph.CacheMeta)
	current := func(path string) (graph.CacheMeta, bool) {
		if meta, ok := snapshots[path]; ok {
			if meta == nil {
				return graph.CacheMeta{}, false
			}
			return *meta, true
		}
		probe := fswatcher.New()
		probe.AddWatchedPaths([]string{path})
		data, ok := probe.DumpFileData()[path]
		if !ok || data == (fswatcher.FileData{}) {
			snapshots[path] = nil
			return graph.CacheMeta{}, false
		}
		meta := &graph.CacheMeta{MTime: data.MTime, Size: data.Size, Hash: data.Hash}
		snapshots[path] = meta
		return *meta, true
	}
	fresh := graph.Validate(entries, current)

	for id, ok := range fresh {
		if !ok {
			continue
		}
		mc := entries[id]
		s.watcher.SetFileData(mc.Path, fswatcher.FileData{
			MTime: mc.Meta.MTime,
			Size:  mc.Meta.Size,
			Hash:  mc.Meta.Hash,
		})
	}
	return fresh
}

// saveCache writes the current graph state back to the cache directory.
func (s *Server) saveCache() {
	if s.options.CacheDir == "" || s.engine == nil {
		return
	}
	store := graph.NewCacheStore(s.options.CacheDir)
	files := s.watcher.DumpFileData()
	for _, id := range s.engine.Graph.Modules() {
		node, ok := s.engine.Graph.Get(id)
		if !ok || node.Path == "" {
			continue
		}
		data, ok := files[node.Path]
		if !ok || data == (fswatcher.FileData{}) {
			continue
		}
		_, imports := s.engine.Graph.Neighbors(id)
		mc := &graph.ModuleCache{
			ID:         id,
			Path:       node.Path,
			Meta:       graph.CacheMeta{MTime: data.MTime, Size: data.Size, Hash: data.Hash},
			Imports:    imports,
			TargetSigs: node.TargetSigs,
		}
		if err := store.Save(mc); err != nil {
			s.log.Printf("cache save failed for %s: %v", id, err)
		}
	}
}
