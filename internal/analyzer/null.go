package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NullAnalyzer is the stand-in wiring point for the upstream semantic
// analyzer. It enumerates one top-level target per module and reports a
// diagnostic only when the module's source cannot be read. The daemon runs
// against it until a real front end is plugged in; tests substitute richer
// fakes.
type NullAnalyzer struct {
	paths map[string]string
}

// NewNullAnalyzer creates an analyzer with no modules registered.
func NewNullAnalyzer() *NullAnalyzer {
	return &NullAnalyzer{paths: make(map[string]string)}
}

// RegisterModule associates a module id with its source path.
func (a *NullAnalyzer) RegisterModule(id, path string) {
	a.paths[id] = path
}

func (a *NullAnalyzer) AnalyzeTarget(target *Target) (*Result, error) {
	path := a.paths[target.Module]
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("Cannot find implementation or library stub for module named %q", target.Module)
		}
	}
	return &Result{Outputs: map[string]string{target.FullName: ""}}, nil
}

func (a *NullAnalyzer) ModuleTargets(moduleID string) ([]*Target, error) {
	return []*Target{{
		FullName: moduleID,
		Module:   moduleID,
		Kind:     TargetModuleTop,
	}}, nil
}

func (a *NullAnalyzer) ModuleImports(moduleID string) []string {
	return nil
}

// ListSources is the default source discovery: every argument must be an
// existing file; the module id is derived from the relative path with
// separators turned into dots.
func ListSources(files []string) ([]BuildSource, error) {
	var sources []BuildSource
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("can't find source file %q", file)
		}
		sources = append(sources, BuildSource{Module: ModuleIDForPath(file), Path: file})
	}
	return sources, nil
}

// ModuleIDForPath derives a dotted module id from a source path.
func ModuleIDForPath(path string) string {
	id := strings.TrimSuffix(filepath.ToSlash(path), ".py")
	id = strings.TrimSuffix(id, "/__init__")
	id = strings.TrimPrefix(id, "./")
	return strings.ReplaceAll(id, "/", ".")
}
