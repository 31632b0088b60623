package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModuleCache is the persisted fine-grained state of one module: its file
// identity triple and the per-target signature digests from the last clean
// pass.
type ModuleCache struct {
	ID         string            `json:"id"`
	Path       string            `json:"path"`
	Meta       CacheMeta         `json:"meta"`
	Imports    []string          `json:"imports"`
	TargetSigs map[string]string `json:"target_sigs"`
}

// CacheStore reads and writes module caches under a directory, one JSON
// file per module.
type CacheStore struct {
	Dir string
}

// NewCacheStore returns a store rooted at dir.
func NewCacheStore(dir string) *CacheStore {
	return &CacheStore{Dir: dir}
}

func (s *CacheStore) pathFor(id string) string {
	return filepath.Join(s.Dir, strings.ReplaceAll(id, ".", string(filepath.Separator))+".meta.json")
}

// Save writes one module's cache entry.
func (s *CacheStore) Save(mc *ModuleCache) error {
	path := s.pathFor(mc.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(mc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads one module's cache entry; nil without error when absent.
func (s *CacheStore) Load(id string) (*ModuleCache, error) {
	data, err := os.ReadFile(s.pathFor(id))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var mc ModuleCache
	if err := json.Unmarshal(data, &mc); err != nil {
		return nil, fmt.Errorf("corrupt cache entry for %s: %w", id, err)
	}
	return &mc, nil
}

// Validate decides cache hits for a set of modules. A module hits only
// when its identity triple matches the current file and every import is
// transitively a hit; everything else is stale.
func Validate(entries map[string]*ModuleCache, current func(path string) (CacheMeta, bool)) map[string]bool {
	fresh := make(map[string]bool)
	state := make(map[string]int) // 0 unknown, 1 checking, 2 done
	var check func(id string) bool
	check = func(id string) bool {
		switch state[id] {
		case 1:
			// Import cycles cannot occur at load time; treat a revisit as
			// provisionally fresh and let the identity checks decide.
			return true
		case 2:
			return fresh[id]
		}
		state[id] = 1
		defer func() { state[id] = 2 }()

		mc, ok := entries[id]
		if !ok {
			fresh[id] = false
			return false
		}
		cur, ok := current(mc.Path)
		if !ok || cur != mc.Meta {
			fresh[id] = false
			return false
		}
		for _, imp := range mc.Imports {
			if !check(imp) {
				fresh[id] = false
				return false
			}
		}
		fresh[id] = true
		return true
	}
	for id := range entries {
		check(id)
	}
	return fresh
}
