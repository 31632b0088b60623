package dataflow

import (
	"github.com/lucalysoft/mypy/internal/ir"
)

func singleton(v ir.Value) ValueSet {
	if v == nil {
		return nil
	}
	return ValueSet{v: true}
}

// AnalyzeMaybeDefined calculates the potentially defined registers at each
// location: those holding a value along some path from the entry.
func AnalyzeMaybeDefined(blocks []*ir.BasicBlock, cfg *CFG, initialDefined ValueSet) *Result {
	genKill := func(op ir.Op) (ValueSet, ValueSet) {
		return singleton(op.Dest()), nil
	}
	return Run(blocks, cfg, genKill, initialDefined, Maybe, false, nil)
}

// AnalyzeMustDefined calculates the registers defined along all paths from
// the entry. universe must hold every register of the function.
func AnalyzeMustDefined(blocks []*ir.BasicBlock, cfg *CFG, initialDefined, universe ValueSet) *Result {
	genKill := func(op ir.Op) (ValueSet, ValueSet) {
		return singleton(op.Dest()), nil
	}
	return Run(blocks, cfg, genKill, initialDefined, Must, false, universe)
}

// AnalyzeBorrowedArguments calculates the arguments that can keep using
// references borrowed from the caller. Assigning to an argument ends the
// borrow.
func AnalyzeBorrowedArguments(blocks []*ir.BasicBlock, cfg *CFG, args ValueSet) *Result {
	genKill := func(op ir.Op) (ValueSet, ValueSet) {
		if dest := op.Dest(); dest != nil && args[dest] {
			return nil, singleton(dest)
		}
		return nil, nil
	}
	return Run(blocks, cfg, genKill, args, Must, false, args)
}

// AnalyzeUndefined calculates the registers that may hold an undefined
// value along some path from the entry. LoadErrorValue ops with the
// Undefines flag re-undefine their destination.
func AnalyzeUndefined(blocks []*ir.BasicBlock, cfg *CFG, env *ir.Environment, initialDefined ValueSet) *Result {
	initialUndefined := make(ValueSet)
	for _, reg := range env.Regs() {
		if !initialDefined[reg] {
			initialUndefined[reg] = true
		}
	}
	genKill := func(op ir.Op) (ValueSet, ValueSet) {
		if lev, ok := op.(*ir.LoadErrorValue); ok && lev.Undefines {
			return singleton(op.Dest()), nil
		}
		return nil, singleton(op.Dest())
	}
	return Run(blocks, cfg, genKill, initialUndefined, Maybe, false, nil)
}

// AnalyzeLiveRegs calculates the registers live at each location: those
// that can be read along some path starting there.
func AnalyzeLiveRegs(blocks []*ir.BasicBlock, cfg *CFG) *Result {
	genKill := func(op ir.Op) (ValueSet, ValueSet) {
		gen := make(ValueSet)
		for _, src := range op.Sources() {
			gen[src] = true
		}
		return gen, singleton(op.Dest())
	}
	return Run(blocks, cfg, genKill, make(ValueSet), Maybe, true, nil)
}
