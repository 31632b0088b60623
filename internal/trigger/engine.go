// Package trigger turns sets of changed and removed modules into ordered
// re-analysis work by propagating triggers along the module graph, and
// merges fresh diagnostics with surviving ones in a stable order.
package trigger

import (
	"sort"

	"github.com/lucalysoft/mypy/internal/analyzer"
	"github.com/lucalysoft/mypy/internal/graph"
)

// Make interns the trigger name for a fully-qualified entity.
func Make(name string) string {
	return "<" + name + ">"
}

// ModulePath pairs a module id with its source path.
type ModulePath struct {
	ID   string
	Path string
}

// maxTargetPasses bounds how often one target is re-analyzed within a
// single update while target-level cycles iterate to a fixpoint.
const maxTargetPasses = 10

// Engine owns trigger subscriptions and per-target state on top of the
// module graph.
type Engine struct {
	Graph    *graph.Graph
	Analyzer analyzer.Analyzer

	// subscriptions maps a trigger to the targets that re-run when it
	// fires.
	subscriptions map[string]map[string]bool

	targets       map[string]*analyzer.Target
	outputs       map[string]map[string]string
	diags         map[string][]analyzer.Diagnostic
	moduleTargets map[string][]string

	prevMessages []string
}

// NewEngine creates an engine over an empty graph.
func NewEngine(a analyzer.Analyzer) *Engine {
	return &Engine{
		Graph:         graph.New(),
		Analyzer:      a,
		subscriptions: make(map[string]map[string]bool),
		targets:       make(map[string]*analyzer.Target),
		outputs:       make(map[string]map[string]string),
		diags:         make(map[string][]analyzer.Diagnostic),
		moduleTargets: make(map[string][]string),
	}
}

// Messages returns the diagnostics of the last pass.
func (e *Engine) Messages() []string {
	return append([]string(nil), e.prevMessages...)
}

// Update re-analyzes everything affected by the changed and removed
// modules and returns the full surviving diagnostic list in stable order.
func (e *Engine) Update(changed, removed []ModulePath) ([]string, error) {
	fired := make(map[string]bool)
	var pending []string
	pendingSet := make(map[string]bool)
	passes := make(map[string]int)

	enqueue := func(name string) {
		if !pendingSet[name] {
			pendingSet[name] = true
			pending = append(pending, name)
		}
	}

	fire := func(trig string) {
		if fired[trig] {
			return
		}
		fired[trig] = true
		subs := make([]string, 0, len(e.subscriptions[trig]))
		for name := range e.subscriptions[trig] {
			subs = append(subs, name)
		}
		sort.Strings(subs)
		for _, name := range subs {
			enqueue(name)
		}
	}

	for _, mod := range removed {
		e.removeModule(mod.ID, fire)
	}
	for _, mod := range changed {
		if err := e.refreshModule(mod, enqueue, fire); err != nil {
			return nil, err
		}
	}

	// Iterate to a fixpoint: re-analysis can change output signatures,
	// which fires downstream triggers enqueueing further targets.
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		delete(pendingSet, name)
		// Allow re-firing onto this target later in the pass.
		for trig := range fired {
			if e.subscriptions[trig][name] {
				delete(fired, trig)
			}
		}

		target, ok := e.targets[name]
		if !ok {
			continue
		}
		if passes[name] >= maxTargetPasses {
			continue
		}
		passes[name]++
		e.analyzeTarget(target, fire)
	}

	messages := e.collectMessages()
	messages = SortMessagesPreservingFileOrder(messages, e.prevMessages)
	e.prevMessages = messages
	return append([]string(nil), messages...), nil
}

// analyzeTarget re-runs one target. A failed target keeps its previous
// outputs and fires nothing; its failure surfaces as a diagnostic on the
// originating file.
func (e *Engine) analyzeTarget(target *analyzer.Target, fire func(string)) {
	res, err := e.Analyzer.AnalyzeTarget(target)
	if err != nil {
		node, _ := e.Graph.Get(target.Module)
		path := ""
		if node != nil {
			path = node.Path
		}
		e.diags[target.FullName] = []analyzer.Diagnostic{{
			Path:     path,
			Line:     1,
			Severity: analyzer.SeverityError,
			Message:  err.Error(),
		}}
		return
	}

	e.diags[target.FullName] = res.Diagnostics
	e.resubscribe(target, res.Deps)

	// Output signature differences fire the triggers of the names that
	// changed.
	old := e.outputs[target.FullName]
	for name, sig := range res.Outputs {
		if prev, ok := old[name]; !ok || prev != sig {
			fire(Make(name))
		}
	}
	for name := range old {
		if _, ok := res.Outputs[name]; !ok {
			fire(Make(name))
		}
	}
	e.outputs[target.FullName] = res.Outputs

	if node, ok := e.Graph.Get(target.Module); ok {
		for name, sig := range res.Outputs {
			node.TargetSigs[name] = sig
		}
	}
}

// refreshModule re-enumerates a changed module's targets, enqueues them and
// drops the ones that no longer exist.
func (e *Engine) refreshModule(mod ModulePath, enqueue func(string), fire func(string)) error {
	_, known := e.moduleTargets[mod.ID]
	node := e.Graph.AddModule(mod.ID, mod.Path)
	e.Graph.MarkStale(mod.ID)

	targets, err := e.Analyzer.ModuleTargets(mod.ID)
	if err != nil {
		// The module no longer enumerates (e.g. unreadable); treat like a
		// removal but keep the node so dependents still resolve its path.
		for _, name := range e.moduleTargets[mod.ID] {
			e.dropTarget(name, fire)
		}
		e.moduleTargets[mod.ID] = nil
		e.diags[mod.ID] = []analyzer.Diagnostic{{
			Path:     mod.Path,
			Line:     1,
			Severity: analyzer.SeverityError,
			Message:  err.Error(),
		}}
		return nil
	}
	delete(e.diags, mod.ID)

	seen := make(map[string]bool)
	var order []string
	for _, target := range targets {
		seen[target.FullName] = true
		order = append(order, target.FullName)
		e.targets[target.FullName] = target
		e.resubscribe(target, target.Deps)
		enqueue(target.FullName)
	}
	for _, name := range e.moduleTargets[mod.ID] {
		if !seen[name] {
			e.dropTarget(name, fire)
		}
	}
	e.moduleTargets[mod.ID] = order

	// Refresh import edges from the semantic analyzer's resolution.
	for imp := range node.Imports {
		e.Graph.RemoveImport(mod.ID, imp)
	}
	for _, imp := range e.Analyzer.ModuleImports(mod.ID) {
		e.Graph.AddModule(imp, e.pathOf(imp))
		if err := e.Graph.AddImport(mod.ID, imp); err != nil {
			return err
		}
	}

	// A module appearing for the first time resolves previously missing
	// imports; its own edits only fire through output signature diffs.
	if !known {
		fire(Make(mod.ID))
	}
	return nil
}

// removeModule drops a module's targets and diagnostics and fires the
// triggers of everything it used to define.
func (e *Engine) removeModule(id string, fire func(string)) {
	for _, name := range e.moduleTargets[id] {
		e.dropTarget(name, fire)
	}
	delete(e.moduleTargets, id)
	delete(e.diags, id)
	e.Graph.RemoveModule(id)
	fire(Make(id))
}

// dropTarget forgets a target and fires the triggers of its outputs so
// consumers notice the definitions are gone.
func (e *Engine) dropTarget(name string, fire func(string)) {
	for out := range e.outputs[name] {
		fire(Make(out))
	}
	if target, ok := e.targets[name]; ok {
		e.resubscribe(target, nil)
	}
	delete(e.targets, name)
	delete(e.outputs, name)
	delete(e.diags, name)
	fire(Make(name))
}

// resubscribe replaces a target's trigger subscriptions.
func (e *Engine) resubscribe(target *analyzer.Target, deps []string) {
	for trig, subs := range e.subscriptions {
		if subs[target.FullName] {
			delete(subs, target.FullName)
			if len(subs) == 0 {
				delete(e.subscriptions, trig)
			}
		}
	}
	for _, trig := range deps {
		if e.subscriptions[trig] == nil {
			e.subscriptions[trig] = make(map[string]bool)
		}
		e.subscriptions[trig][target.FullName] = true
	}
	target.Deps = deps
	if node, ok := e.Graph.Get(target.Module); ok {
		for trig := range node.DepTriggers {
			delete(node.DepTriggers, trig)
		}
		for _, name := range e.moduleTargets[target.Module] {
			if t, ok := e.targets[name]; ok {
				for _, trig := range t.Deps {
					node.DepTriggers[trig] = true
				}
			}
		}
	}
}

// collectMessages renders all surviving diagnostics, module by module in
// graph insertion order, targets in definition order.
func (e *Engine) collectMessages() []string {
	var messages []string
	emitted := make(map[string]bool)
	emit := func(key string) {
		if emitted[key] {
			return
		}
		emitted[key] = true
		for _, d := range e.diags[key] {
			messages = append(messages, d.Render())
		}
	}
	for _, id := range e.Graph.Modules() {
		emit(id)
		for _, name := range e.moduleTargets[id] {
			emit(name)
		}
	}
	return messages
}

func (e *Engine) pathOf(id string) string {
	if node, ok := e.Graph.Get(id); ok {
		return node.Path
	}
	return ""
}

// Stats summarizes engine state for the server's stats map.
func (e *Engine) Stats() map[string]interface{} {
	return map[string]interface{}{
		"modules": e.Graph.Len(),
		"targets": len(e.targets),
	}
}
