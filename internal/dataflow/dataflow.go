// Package dataflow implements a generic set-based fixed-point analysis
// framework over IR basic blocks, plus the concrete analyses used by the
// reference-counting pass: liveness, maybe/must-defined, borrowed arguments
// and undefinedness.
package dataflow

import (
	"github.com/lucalysoft/mypy/internal/ir"
)

// CFG is the control-flow graph of a function. Block 0 is assumed to be the
// entry point; there must be a non-empty set of exits.
type CFG struct {
	Succ  map[int][]int
	Pred  map[int][]int
	Exits map[int]bool
}

// GetCFG calculates the basic block control-flow graph. Blocks must be
// numbered; a block's label is assumed to match its index.
func GetCFG(blocks []*ir.BasicBlock) *CFG {
	cfg := &CFG{
		Succ:  make(map[int][]int),
		Pred:  make(map[int][]int),
		Exits: make(map[int]bool),
	}
	for _, block := range blocks {
		label := block.Label
		var succ []int
		switch last := block.Ops[len(block.Ops)-1].(type) {
		case *ir.Branch:
			succ = []int{last.True.Label, last.False.Label}
		case *ir.Goto:
			succ = []int{last.Target.Label}
		default:
			cfg.Exits[label] = true
		}
		cfg.Succ[label] = succ
		if _, ok := cfg.Pred[label]; !ok {
			cfg.Pred[label] = nil
		}
	}
	for prev, next := range cfg.Succ {
		for _, label := range next {
			cfg.Pred[label] = append(cfg.Pred[label], prev)
		}
	}
	if len(cfg.Exits) == 0 {
		panic("control-flow graph has no exits")
	}
	return cfg
}

// ValueSet is a set of IR values.
type ValueSet map[ir.Value]bool

// Copy returns an independent copy of the set.
func (s ValueSet) Copy() ValueSet {
	out := make(ValueSet, len(s))
	for v := range s {
		out[v] = true
	}
	return out
}

// Equal reports whether two sets hold the same values.
func (s ValueSet) Equal(other ValueSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other[v] {
			return false
		}
	}
	return true
}

func (s ValueSet) union(other ValueSet) {
	for v := range other {
		s[v] = true
	}
}

func (s ValueSet) intersect(other ValueSet) {
	for v := range s {
		if !other[v] {
			delete(s, v)
		}
	}
}

// Kind selects the lattice join of an analysis.
type Kind int

const (
	// Maybe joins by union and starts iteration from the empty set.
	Maybe Kind = iota
	// Must joins by intersection and starts iteration from the universe.
	Must
)

// GenKill computes the per-op gen and kill sets of an analysis.
type GenKill func(op ir.Op) (gen, kill ValueSet)

// OpID addresses one op inside a function: block label plus op index.
type OpID struct {
	Block int
	Index int
}

// Result maps each op to the analysis set holding immediately before and
// after it.
type Result struct {
	Before map[OpID]ValueSet
	After  map[OpID]ValueSet
}

// Run performs a general set-based dataflow analysis.
//
// initial is the value for the entry point (forward) or the exit points
// (backward). For a must analysis, universe is the set of all possible
// values: the work list starts from it and narrows down to a fixed point.
// A maybe analysis always starts from the empty set and ignores universe.
func Run(blocks []*ir.BasicBlock, cfg *CFG, genKill GenKill, initial ValueSet,
	kind Kind, backward bool, universe ValueSet) *Result {
	if kind == Must && universe == nil {
		panic("universe must be defined for a must analysis")
	}

	// Fold per-op gen/kill into whole-block summaries.
	blockGen := make(map[int]ValueSet)
	blockKill := make(map[int]ValueSet)
	for _, block := range blocks {
		gen := make(ValueSet)
		kill := make(ValueSet)
		ops := block.Ops
		for i := range ops {
			op := ops[i]
			if backward {
				op = ops[len(ops)-1-i]
			}
			opGen, opKill := genKill(op)
			for v := range opKill {
				delete(gen, v)
			}
			gen.union(opGen)
			for v := range opGen {
				delete(kill, v)
			}
			kill.union(opKill)
		}
		blockGen[block.Label] = gen
		blockKill[block.Label] = kill
	}

	// Work list, LIFO. Seeding in reverse program order for a forward
	// analysis converges a little faster.
	worklist := make([]int, 0, len(blocks))
	for _, block := range blocks {
		worklist = append(worklist, block.Label)
	}
	if !backward {
		for i, j := 0, len(worklist)-1; i < j; i, j = i+1, j-1 {
			worklist[i], worklist[j] = worklist[j], worklist[i]
		}
	}
	workset := make(map[int]bool, len(worklist))
	for _, label := range worklist {
		workset[label] = true
	}

	before := make(map[int]ValueSet)
	after := make(map[int]ValueSet)
	for _, block := range blocks {
		if kind == Maybe {
			before[block.Label] = make(ValueSet)
			after[block.Label] = make(ValueSet)
		} else {
			before[block.Label] = universe.Copy()
			after[block.Label] = universe.Copy()
		}
	}

	predMap, succMap := cfg.Pred, cfg.Succ
	if backward {
		predMap, succMap = cfg.Succ, cfg.Pred
	}

	for len(worklist) > 0 {
		label := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		delete(workset, label)

		var newBefore ValueSet
		if preds := predMap[label]; len(preds) > 0 {
			for _, pred := range preds {
				if newBefore == nil {
					newBefore = after[pred].Copy()
				} else if kind == Maybe {
					newBefore.union(after[pred])
				} else {
					newBefore.intersect(after[pred])
				}
			}
		} else {
			newBefore = initial.Copy()
		}
		before[label] = newBefore

		newAfter := newBefore.Copy()
		newAfter.union(blockGen[label])
		for v := range blockKill[label] {
			delete(newAfter, v)
		}
		if !newAfter.Equal(after[label]) {
			for _, succ := range succMap[label] {
				if !workset[succ] {
					worklist = append(worklist, succ)
					workset[succ] = true
				}
			}
		}
		after[label] = newAfter
	}

	// Re-sweep each block to produce per-op sets.
	result := &Result{
		Before: make(map[OpID]ValueSet),
		After:  make(map[OpID]ValueSet),
	}
	for _, block := range blocks {
		label := block.Label
		cur := before[label]
		for i := range block.Ops {
			idx := i
			if backward {
				idx = len(block.Ops) - 1 - i
			}
			op := block.Ops[idx]
			result.Before[OpID{label, idx}] = cur
			opGen, opKill := genKill(op)
			next := cur.Copy()
			for v := range opKill {
				delete(next, v)
			}
			next.union(opGen)
			result.After[OpID{label, idx}] = next
			cur = next
		}
	}
	if backward {
		result.Before, result.After = result.After, result.Before
	}
	return result
}
