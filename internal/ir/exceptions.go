package ir

// Exception splitting.
//
// IR building leaves error conditions unchecked: a raising op may sit in the
// middle of a block. This pass inserts an explicit branch after every op
// that can raise, targeting the block's error handler (or a fresh
// error-exit block when there is none), and splits blocks so a control-flow
// op only ever appears last. Inserting these checks during lowering by hand
// would be error-prone.

// InsertExceptionHandling rewrites f.Blocks in place and renumbers them.
// The returned error-exit block (shared by all handler-less blocks) returns
// the error sentinel of the function's return type.
func InsertExceptionHandling(f *FuncIR) *BasicBlock {
	var errorBlock *BasicBlock
	// The shared error exit is materialized lazily; a function whose ops
	// never raise keeps its block list unchanged.
	ensureErrorBlock := func() *BasicBlock {
		if errorBlock == nil {
			errorBlock = NewBasicBlock()
			ret := NewLoadErrorValue(f.RetType(), false, false, NoTracebackLineNo)
			f.Env.AddOp(ret)
			errorBlock.Push(ret)
			errorBlock.Push(NewReturn(ret, NoTracebackLineNo))
		}
		return errorBlock
	}

	var result []*BasicBlock
	for _, block := range f.Blocks {
		result = append(result, block)
		splitBlockOnErrors(f, block, ensureErrorBlock, &result)
	}
	if errorBlock != nil {
		result = append(result, errorBlock)
	}
	f.Blocks = result
	NumberBlocks(f.Blocks)
	return errorBlock
}

// splitBlockOnErrors walks one original block. After each raising op it
// terminates the current block with a Branch on the error condition and
// continues in a fresh block. The fresh blocks are appended to out directly
// so their order follows the ops they came from.
func splitBlockOnErrors(f *FuncIR, block *BasicBlock, ensureErrorBlock func() *BasicBlock, out *[]*BasicBlock) {
	ops := block.Ops
	block.Ops = nil
	cur := block
	for _, op := range ops {
		cur.Push(op)
		if !op.CanRaise() {
			continue
		}
		target := block.ErrorHandler
		if target == nil {
			target = ensureErrorBlock()
		}
		next := NewBasicBlock()
		next.ErrorHandler = block.ErrorHandler
		branch := NewBranch(op, target, next, BranchIsError, op.Line())
		if op.Line() != NoTracebackLineNo {
			branch.Traceback = &TracebackEntry{FuncName: f.Name(), Line: op.Line()}
		}
		cur.Push(branch)
		*out = append(*out, next)
		cur = next
	}
	if !cur.Terminated() {
		cur.Push(NewUnreachable(NoTracebackLineNo))
	}
}
