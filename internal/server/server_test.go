package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rogpeppe/go-internal/txtar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucalysoft/mypy/internal/analyzer"
)

// checkerModule is one scripted module of the test front end.
type checkerModule struct {
	defs map[string]string
	uses []string
}

// scriptedAnalyzer is a small semantic-analyzer stand-in that reads module
// definitions and uses from source files of the form:
//
//	def NAME: TYPE
//	use MODULE.NAME: TYPE
//
// A use whose declared type does not match the definition produces an
// incompatible-type diagnostic, which is enough to drive the daemon end to
// end.
type scriptedAnalyzer struct {
	dir   string
	paths map[string]string
}

func newScriptedAnalyzer(dir string) *scriptedAnalyzer {
	return &scriptedAnalyzer{dir: dir, paths: make(map[string]string)}
}

func (a *scriptedAnalyzer) parse(moduleID string) (*checkerModule, error) {
	path, ok := a.paths[moduleID]
	if !ok {
		return nil, fmt.Errorf("Cannot find implementation or library stub for module named %q", moduleID)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Cannot find implementation or library stub for module named %q", moduleID)
	}
	mod := &checkerModule{defs: make(map[string]string)}
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "def "):
			name, typ, _ := strings.Cut(strings.TrimPrefix(line, "def "), ": ")
			mod.defs[name] = typ
		case strings.HasPrefix(line, "use "):
			mod.uses = append(mod.uses, strings.TrimPrefix(line, "use "))
		}
	}
	return mod, nil
}

func (a *scriptedAnalyzer) AnalyzeTarget(target *analyzer.Target) (*analyzer.Result, error) {
	mod, err := a.parse(target.Module)
	if err != nil {
		return nil, err
	}
	res := &analyzer.Result{Outputs: make(map[string]string), Deps: target.Deps}
	for name, typ := range mod.defs {
		res.Outputs[target.Module+"."+name] = typ
	}
	path := a.paths[target.Module]
	for i, use := range mod.uses {
		ref, wantType, _ := strings.Cut(use, ": ")
		depMod, depName, _ := strings.Cut(ref, ".")
		dep, err := a.parse(depMod)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, analyzer.Diagnostic{
				Path: path, Line: i + 1, Severity: analyzer.SeverityError,
				Message: fmt.Sprintf("Cannot find implementation or library stub for module named %q", depMod),
			})
			continue
		}
		gotType, ok := dep.defs[depName]
		if !ok {
			res.Diagnostics = append(res.Diagnostics, analyzer.Diagnostic{
				Path: path, Line: i + 1, Severity: analyzer.SeverityError,
				Message: fmt.Sprintf("Name %q is not defined", ref),
			})
			continue
		}
		if wantType != "" && gotType != wantType {
			res.Diagnostics = append(res.Diagnostics, analyzer.Diagnostic{
				Path: path, Line: i + 1, Severity: analyzer.SeverityError,
				Message: fmt.Sprintf("Argument 1 to %q has incompatible type %q; expected %q", ref, gotType, wantType),
			})
		}
	}
	return res, nil
}

func (a *scriptedAnalyzer) ModuleTargets(moduleID string) ([]*analyzer.Target, error) {
	mod, err := a.parse(moduleID)
	if err != nil {
		return nil, err
	}
	var deps []string
	for _, use := range mod.uses {
		ref, _, _ := strings.Cut(use, ": ")
		deps = append(deps, "<"+ref+">")
		depMod, _, _ := strings.Cut(ref, ".")
		deps = append(deps, "<"+depMod+">")
	}
	return []*analyzer.Target{{
		FullName: moduleID,
		Module:   moduleID,
		Kind:     analyzer.TargetModuleTop,
		Deps:     deps,
	}}, nil
}

func (a *scriptedAnalyzer) ModuleImports(moduleID string) []string {
	mod, err := a.parse(moduleID)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var imports []string
	for _, use := range mod.uses {
		ref, _, _ := strings.Cut(use, ": ")
		depMod, _, _ := strings.Cut(ref, ".")
		if !seen[depMod] && depMod != moduleID {
			seen[depMod] = true
			imports = append(imports, depMod)
		}
	}
	return imports
}

// newTestServer builds a server over the scripted analyzer with summaries
// off, so out contains bare diagnostics.
func newTestServer(t *testing.T, dir string) (*Server, *scriptedAnalyzer) {
	t.Helper()
	sema := newScriptedAnalyzer(dir)
	opts := DefaultOptions()
	opts.ErrorSummary = false
	opts.ColorOutput = false
	srv := New(Config{
		Options:    opts,
		StatusFile: filepath.Join(dir, ".status.json"),
		Log:        log.New(os.Stderr, "test: ", 0),
		Analyzer:   sema,
		Sources: func(files []string, _ Options) ([]analyzer.BuildSource, error) {
			var sources []analyzer.BuildSource
			for _, file := range files {
				if _, err := os.Stat(file); err != nil {
					return nil, &InvalidSourceList{Reason: fmt.Sprintf("can't find source file %q", file)}
				}
				id := strings.TrimSuffix(filepath.Base(file), ".py")
				sema.paths[id] = file
				sources = append(sources, analyzer.BuildSource{Module: id, Path: file})
			}
			return sources, nil
		},
	})
	return srv, sema
}

// extract unpacks a txtar archive into dir and returns the file paths.
func extract(t *testing.T, dir string, archive string) []string {
	t.Helper()
	ar := txtar.Parse([]byte(archive))
	var paths []string
	for _, f := range ar.Files {
		path := filepath.Join(dir, f.Name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestRecheckBeforeCheckIsRejected(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := srv.dispatch("recheck", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Command 'recheck' is only valid after a 'check' command", resp["error"])
}

func TestSuggestAndInspectBeforeCheckAreRejected(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := srv.dispatch("suggest", map[string]interface{}{"function": "m.f"})
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "only valid after a 'check' command")

	resp, err = srv.dispatch("inspect", map[string]interface{}{"location": "m.py:1"})
	require.NoError(t, err)
	assert.Contains(t, resp["error"], "only valid after a 'check' command")
}

func TestUnrecognizedCommand(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := srv.dispatch("frobnicate", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Unrecognized command 'frobnicate'", resp["error"])
}

func TestCheckCleanSources(t *testing.T) {
	dir := t.TempDir()
	paths := extract(t, dir, `
-- a.py --
def X: int
-- b.py --
use a.X: int
`)
	srv, _ := newTestServer(t, dir)
	resp, err := srv.dispatch("check", map[string]interface{}{
		"files": toIfaceList(paths),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp["status"])
	assert.Equal(t, "", resp["out"])
	assert.NotNil(t, resp["stats"])
}

func TestCheckSourceDiscoveryFailure(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := srv.dispatch("check", map[string]interface{}{
		"files": []interface{}{"no/such/file.py"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp["status"])
	assert.Contains(t, resp["err"], "can't find source file")
}

func TestRecheckAfterEdit(t *testing.T) {
	dir := t.TempDir()
	paths := extract(t, dir, `
-- a.py --
def f: float
-- b.py --
use a.f: float
`)
	srv, _ := newTestServer(t, dir)
	resp, err := srv.dispatch("check", map[string]interface{}{"files": toIfaceList(paths)})
	require.NoError(t, err)
	require.Equal(t, 0, resp["status"])

	// Change the signature; only the caller needs re-analysis.
	require.NoError(t, os.WriteFile(paths[0], []byte("def f: bool\n"), 0o644))
	resp, err = srv.dispatch("recheck", map[string]interface{}{
		"update": []interface{}{paths[0]},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp["status"])
	assert.Contains(t, resp["out"],
		`Argument 1 to "a.f" has incompatible type "bool"; expected "float"`)
}

func TestRecheckWithRemove(t *testing.T) {
	dir := t.TempDir()
	paths := extract(t, dir, `
-- a.py --
def X: int
-- b.py --
use a.X: int
`)
	srv, _ := newTestServer(t, dir)
	resp, err := srv.dispatch("check", map[string]interface{}{"files": toIfaceList(paths)})
	require.NoError(t, err)
	require.Equal(t, 0, resp["status"])

	require.NoError(t, os.Remove(paths[0]))
	resp, err = srv.dispatch("recheck", map[string]interface{}{
		"remove": []interface{}{paths[0]},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp["status"])
	assert.Contains(t, resp["out"],
		`Cannot find implementation or library stub for module named "a"`)
}

func TestRecheckWithNoDiffsIsStable(t *testing.T) {
	dir := t.TempDir()
	paths := extract(t, dir, `
-- a.py --
def X: int
-- b.py --
use a.X: str
`)
	srv, _ := newTestServer(t, dir)
	resp, err := srv.dispatch("check", map[string]interface{}{"files": toIfaceList(paths)})
	require.NoError(t, err)
	require.Equal(t, 1, resp["status"])
	firstOut := resp["out"]

	// recheck with neither remove nor update stats the files; nothing
	// changed, so the diagnostics are identical.
	resp, err = srv.dispatch("recheck", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp["status"])
	assert.Equal(t, firstOut, resp["out"])
}

func TestRunRestartsOnVersionChange(t *testing.T) {
	dir := t.TempDir()
	paths := extract(t, dir, "-- a.py --\ndef X: int\n")
	srv, _ := newTestServer(t, dir)

	resp, err := srv.dispatch("run", map[string]interface{}{
		"version": "0.000",
		"args":    toIfaceList(paths),
	})
	require.NoError(t, err)
	assert.Equal(t, "mypy version changed", resp["restart"])

	resp, err = srv.dispatch("run", map[string]interface{}{
		"version": Version,
		"args":    toIfaceList(paths),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp["status"])
}

func TestRunRejectsBadFlags(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := srv.dispatch("run", map[string]interface{}{
		"version": Version,
		"args":    []interface{}{"--no-such-flag"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp["status"])
	assert.Contains(t, resp["err"], "unrecognized flag")
}

func TestCrashIsReportedAndPropagated(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	srv.cfg.Sources = func([]string, Options) ([]analyzer.BuildSource, error) {
		panic("boom")
	}
	resp, err := srv.dispatch("check", map[string]interface{}{"files": []interface{}{"x.py"}})
	require.Error(t, err)
	errMsg, _ := resp["error"].(string)
	assert.True(t, strings.HasPrefix(errMsg, "Daemon crashed!\n"), "got %q", errMsg)
	assert.Contains(t, errMsg, "boom")
}

func TestStatusReportsMemory(t *testing.T) {
	srv, _ := newTestServer(t, t.TempDir())
	resp, err := srv.dispatch("status", map[string]interface{}{})
	require.NoError(t, err)
	if _, ok := resp["memory_rss_mib"]; !ok {
		t.Skip("memory info unavailable on this platform")
	}
	assert.IsType(t, float64(0), resp["memory_rss_mib"])
}

func toIfaceList(items []string) []interface{} {
	out := make([]interface{}, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
