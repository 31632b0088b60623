// Package refcount inserts reference-count bookkeeping into function IR.
//
// The pass consumes liveness, must-defined and borrowed-argument analyses
// and rewrites the blocks in place so that every refcounted value produced
// by a non-stealing op has exactly one owning drop along every exit path,
// borrowed values are read without increfs, and stolen sources are never
// dec-ref'd after the op that stole them. Values that may be undefined at a
// drop site use the null-tolerant xdec form.
package refcount

import (
	"github.com/lucalysoft/mypy/internal/dataflow"
	"github.com/lucalysoft/mypy/internal/ir"
)

// InsertRefCountOps rewrites f.Blocks in place, adding IncRef and DecRef
// ops and splicing edge blocks where successors disagree about which owned
// values are still live.
func InsertRefCountOps(f *ir.FuncIR) {
	ir.NumberBlocks(f.Blocks)
	cfg := dataflow.GetCFG(f.Blocks)

	args := make(dataflow.ValueSet)
	universe := make(dataflow.ValueSet)
	for _, v := range f.Env.Regs() {
		universe[v] = true
		if reg, ok := v.(*ir.Register); ok && reg.IsArg {
			args[v] = true
		}
	}

	live := dataflow.AnalyzeLiveRegs(f.Blocks, cfg)
	borrowed := dataflow.AnalyzeBorrowedArguments(f.Blocks, cfg, args)
	defined := dataflow.AnalyzeMaybeDefined(f.Blocks, cfg, args.Copy())
	mustDefined := dataflow.AnalyzeMustDefined(f.Blocks, cfg, args.Copy(), universe)

	p := &pass{
		fn:          f,
		live:        live,
		borrowed:    borrowed,
		defined:     defined,
		mustDefined: mustDefined,
		alias:       make(dataflow.ValueSet),
		termIndex:   make(map[int]dataflow.OpID),
	}
	for _, block := range f.Blocks {
		p.termIndex[block.Label] = dataflow.OpID{Block: block.Label, Index: len(block.Ops) - 1}
	}

	for _, block := range f.Blocks {
		p.transformBlock(block)
	}
	p.reconcileEdges()

	f.Blocks = append(f.Blocks, p.edgeBlocks...)
	ir.NumberBlocks(f.Blocks)
}

type pass struct {
	fn          *ir.FuncIR
	live        *dataflow.Result
	borrowed    *dataflow.Result
	defined     *dataflow.Result
	mustDefined *dataflow.Result

	// alias holds registers that alias a borrowed value through a plain
	// assignment; they stay borrowed and never acquire ownership.
	alias dataflow.ValueSet

	// termIndex records each block's original terminator position, since
	// the analyses were computed before any ops were inserted.
	termIndex map[int]dataflow.OpID

	edgeBlocks []*ir.BasicBlock
}

// isBorrowed reports whether v is borrowed at the given point: flagged on
// the value itself, a still-borrowed argument, or a borrow-propagating
// alias.
func (p *pass) isBorrowed(v ir.Value, at dataflow.OpID) bool {
	if p.alias[v] {
		return true
	}
	if reg, ok := v.(*ir.Register); ok && reg.IsArg {
		return p.borrowed.Before[at][v]
	}
	return v.IsBorrowed()
}

func (p *pass) transformBlock(block *ir.BasicBlock) {
	var out []ir.Op
	for i, op := range block.Ops {
		at := dataflow.OpID{Block: block.Label, Index: i}

		// Assigning a borrowed value to a register propagates the borrow
		// instead of acquiring a new reference.
		if assign, ok := op.(*ir.Assign); ok && p.isBorrowed(assign.Src, at) {
			p.alias[assign.DestReg] = true
		}

		// Incref stolen sources the op does not actually own: a borrowed
		// value, or one that stays live past the steal.
		for _, src := range stolenUnique(op) {
			if !src.Type().IsRefcounted() {
				continue
			}
			if p.alias[op.Dest()] {
				// Borrow-propagating assignment; no reference moves.
				continue
			}
			if p.isBorrowed(src, at) || p.live.After[at][src] {
				out = append(out, ir.NewIncRef(src, op.Line()))
			}
		}

		var drops []ir.Op
		// Drop sources that die at this op and were not stolen by it.
		for _, src := range ir.UniqueSources(op) {
			if !src.Type().IsRefcounted() || isStolenBy(op, src) {
				continue
			}
			if p.isBorrowed(src, at) {
				continue
			}
			if p.live.Before[at][src] && !p.live.After[at][src] {
				drops = append(drops, ir.NewDecRef(src, !p.mustDefined.Before[at][src], op.Line()))
			}
		}
		// Drop a result that is born dead.
		if dest := op.Dest(); dest != nil && dest.Type().IsRefcounted() &&
			!op.IsBorrowed() && !p.alias[dest] && !p.live.After[at][dest] {
			drops = append(drops, ir.NewDecRef(dest, false, op.Line()))
		}

		if ir.IsControlOp(op) {
			out = append(out, drops...)
			out = append(out, op)
		} else {
			out = append(out, op)
			out = append(out, drops...)
		}
	}
	block.Ops = out
}

// reconcileEdges drops values that are live into one successor of a branch
// but dead into another: the dead side gets a spliced block holding the
// decrefs.
func (p *pass) reconcileEdges() {
	for _, block := range p.fn.Blocks {
		if len(block.Ops) == 0 {
			continue
		}
		atEnd := p.termIndex[block.Label]
		switch term := block.Ops[len(block.Ops)-1].(type) {
		case *ir.Branch:
			term.True = p.edgeFor(block, term.True, atEnd)
			term.False = p.edgeFor(block, term.False, atEnd)
		case *ir.Goto:
			term.Target = p.edgeFor(block, term.Target, atEnd)
		}
	}
}

// edgeFor splices a decref block on the edge block -> target when owned
// values are live out of block but dead into target. Returns the (possibly
// new) edge target.
func (p *pass) edgeFor(block *ir.BasicBlock, target *ir.BasicBlock, atEnd dataflow.OpID) *ir.BasicBlock {
	liveOut := p.live.After[atEnd]
	liveIn := p.live.Before[dataflow.OpID{Block: target.Label, Index: 0}]

	var dying []ir.Value
	for _, v := range p.fn.Env.Regs() {
		if !v.Type().IsRefcounted() || p.alias[v] {
			continue
		}
		if reg, ok := v.(*ir.Register); ok && reg.IsArg && p.borrowed.After[atEnd][v] {
			continue
		}
		if !liveOut[v] || liveIn[v] {
			continue
		}
		if !p.defined.After[atEnd][v] {
			continue
		}
		dying = append(dying, v)
	}
	if len(dying) == 0 {
		return target
	}
	edge := ir.NewBasicBlock()
	for _, v := range dying {
		edge.Push(ir.NewDecRef(v, !p.mustDefined.After[atEnd][v], v.Line()))
	}
	edge.Push(ir.NewGoto(target, ir.NoTracebackLineNo))
	p.edgeBlocks = append(p.edgeBlocks, edge)
	return edge
}

func stolenUnique(op ir.Op) []ir.Value {
	var result []ir.Value
	for _, src := range op.Stolen() {
		seen := false
		for _, prev := range result {
			if prev == src {
				seen = true
				break
			}
		}
		if !seen {
			result = append(result, src)
		}
	}
	return result
}

func isStolenBy(op ir.Op, v ir.Value) bool {
	for _, s := range op.Stolen() {
		if s == v {
			return true
		}
	}
	return false
}
