// Package analyzer defines the boundary contract between the fine-grained
// incremental engine and the upstream semantic analyzer. The engine never
// parses or resolves sources itself: it hands targets to an Analyzer and
// consumes diagnostics and output signatures.
package analyzer

import (
	"fmt"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityNote  Severity = "note"
)

// Diagnostic is one analysis finding attributed to a source position.
type Diagnostic struct {
	Path     string
	Line     int
	Column   int
	Severity Severity
	Message  string
}

// Render formats the diagnostic the way it appears in command output.
// Diagnostics without a file render under the "mypy: " prefix and sort
// after all file-scoped output.
func (d Diagnostic) Render() string {
	if d.Path == "" {
		return fmt.Sprintf("mypy: %s", d.Message)
	}
	if d.Column > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Path, d.Line, d.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %s", d.Path, d.Line, d.Severity, d.Message)
}

// TargetKind classifies the units of re-analysis.
type TargetKind int

const (
	// TargetFunc is a module-level function or method.
	TargetFunc TargetKind = iota
	// TargetClass is a class body.
	TargetClass
	// TargetModuleTop is the top-level statements of a module.
	TargetModuleTop
)

// Target is the smallest unit of incremental re-analysis, identified by its
// fully-qualified name. Deps holds the interned trigger names the target
// subscribes to.
type Target struct {
	FullName string
	Module   string
	Kind     TargetKind
	Deps     []string
}

// Result is what re-analyzing one target produces: its diagnostics, the
// output signatures other targets may depend on (name to signature digest),
// and the refreshed trigger subscriptions.
type Result struct {
	Diagnostics []Diagnostic
	Outputs     map[string]string
	Deps        []string
}

// Analyzer re-checks a single target against current sources. A returned
// error means the target failed to analyze: the engine reports the error as
// a diagnostic on the originating file and keeps the target's previous
// outputs.
type Analyzer interface {
	AnalyzeTarget(target *Target) (*Result, error)
	// ModuleTargets enumerates the targets of a module in definition
	// order, re-reading the module's current source.
	ModuleTargets(moduleID string) ([]*Target, error)
	// ModuleImports returns the resolved direct imports of a module.
	ModuleImports(moduleID string) []string
}

// BuildSource pairs a module id with its source path. Virtual or builtin
// modules have an empty path.
type BuildSource struct {
	Module string
	Path   string
}
