package dataflow

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lucalysoft/mypy/internal/ir"
)

// straightLine builds: a = 1; b = a + 1 (modelled as a primitive op);
// return b.
func straightLine() (*ir.FuncIR, *ir.Register, *ir.Register, ir.Op, ir.Op, ir.Op) {
	env := ir.NewEnvironment("f")
	a := env.AddLocal("a", ir.ShortIntRPrimitive, false)
	b := env.AddLocal("b", ir.ShortIntRPrimitive, false)

	block := ir.NewBasicBlock()
	load := ir.NewLoadInt(1, 1)
	env.AddOp(load)
	block.Push(load)
	assignA := ir.NewAssign(a, load, 1)
	block.Push(assignA)

	addDesc := &ir.OpDescription{
		OpName:     "int_add",
		ArgTypes:   []ir.RType{ir.ShortIntRPrimitive, ir.ShortIntRPrimitive},
		ResultType: ir.ShortIntRPrimitive,
		ErrKind:    ir.ErrNever,
		FormatStr:  "add {args}",
	}
	one := ir.NewLoadInt(1, 2)
	env.AddOp(one)
	block.Push(one)
	add := ir.NewPrimitiveOp([]ir.Value{a, one}, addDesc, 2)
	env.AddOp(add)
	block.Push(add)
	assignB := ir.NewAssign(b, add, 2)
	block.Push(assignB)
	ret := ir.NewReturn(b, 3)
	block.Push(ret)

	decl := ir.NewFuncDecl("f", "", "m", &ir.FuncSignature{RetType: ir.ShortIntRPrimitive}, ir.FuncNormal)
	fn := ir.NewFuncIR(decl, []*ir.BasicBlock{block}, env, 1, "")
	ir.NumberBlocks(fn.Blocks)
	return fn, a, b, assignA, add, ret
}

func TestLivenessStraightLine(t *testing.T) {
	fn, a, b, assignA, _, _ := straightLine()
	cfg := GetCFG(fn.Blocks)
	live := AnalyzeLiveRegs(fn.Blocks, cfg)

	// After the first assignment a is live (read by the add); after the
	// second assignment b is live and a is not.
	idxOf := func(op ir.Op) OpID {
		for i, o := range fn.Blocks[0].Ops {
			if o == op {
				return OpID{Block: 0, Index: i}
			}
		}
		t.Fatalf("op not found")
		return OpID{}
	}
	afterA := live.After[idxOf(assignA)]
	if !afterA[a] {
		t.Error("a must be live after its assignment")
	}

	var assignB ir.Op
	for _, op := range fn.Blocks[0].Ops {
		if as, ok := op.(*ir.Assign); ok && as.DestReg == b {
			assignB = op
		}
	}
	afterB := live.After[idxOf(assignB)]
	if !afterB[b] {
		t.Error("b must be live after its assignment")
	}
	if afterB[a] {
		t.Error("a must be dead after b's assignment")
	}
}

func TestDataflowIsIdempotent(t *testing.T) {
	fn, _, _, _, _, _ := straightLine()
	cfg := GetCFG(fn.Blocks)

	first := AnalyzeLiveRegs(fn.Blocks, cfg)
	second := AnalyzeLiveRegs(fn.Blocks, cfg)

	if diff := cmp.Diff(setsOf(first.Before), setsOf(second.Before)); diff != "" {
		t.Errorf("before sets differ between runs:\n%s", diff)
	}
	if diff := cmp.Diff(setsOf(first.After), setsOf(second.After)); diff != "" {
		t.Errorf("after sets differ between runs:\n%s", diff)
	}
}

// setsOf projects results onto comparable sizes per op for diffing; the
// value identity of registers is not printable.
func setsOf(m map[OpID]ValueSet) map[OpID]int {
	out := make(map[OpID]int, len(m))
	for k, v := range m {
		out[k] = len(v)
	}
	return out
}

// branchy builds a two-armed CFG:
//
//	L0: branch c -> L1 else L2
//	L1: x = 1; goto L3
//	L2: (no assignment) goto L3
//	L3: return c
func branchy() (*ir.FuncIR, *ir.Register, *ir.Register) {
	env := ir.NewEnvironment("g")
	c := env.AddLocal("c", ir.BoolRPrimitive, true)
	x := env.AddLocal("x", ir.ShortIntRPrimitive, false)

	l1, l2, l3 := ir.NewBasicBlock(), ir.NewBasicBlock(), ir.NewBasicBlock()
	l0 := ir.NewBasicBlock()
	l0.Push(ir.NewBranch(c, l1, l2, ir.BranchBool, 1))

	load := ir.NewLoadInt(1, 2)
	env.AddOp(load)
	l1.Push(load)
	l1.Push(ir.NewAssign(x, load, 2))
	l1.Push(ir.NewGoto(l3, 2))

	l2.Push(ir.NewGoto(l3, 3))

	l3.Push(ir.NewReturn(c, 4))

	decl := ir.NewFuncDecl("g", "", "m", &ir.FuncSignature{
		Args:    []ir.RuntimeArg{{Name: "c", Type: ir.BoolRPrimitive, Kind: ir.ArgPos}},
		RetType: ir.BoolRPrimitive,
	}, ir.FuncNormal)
	fn := ir.NewFuncIR(decl, []*ir.BasicBlock{l0, l1, l2, l3}, env, 1, "")
	ir.NumberBlocks(fn.Blocks)
	return fn, c, x
}

func TestMaybeVersusMustDefined(t *testing.T) {
	fn, c, x := branchy()
	cfg := GetCFG(fn.Blocks)

	args := ValueSet{c: true}
	universe := make(ValueSet)
	for _, v := range fn.Env.Regs() {
		universe[v] = true
	}

	maybe := AnalyzeMaybeDefined(fn.Blocks, cfg, args.Copy())
	must := AnalyzeMustDefined(fn.Blocks, cfg, args.Copy(), universe)

	entry := OpID{Block: 3, Index: 0}
	if !maybe.Before[entry][x] {
		t.Error("x is maybe-defined at the join (assigned on one path)")
	}
	if must.Before[entry][x] {
		t.Error("x is not must-defined at the join (skipped on one path)")
	}
	if !must.Before[entry][c] {
		t.Error("arguments are must-defined everywhere")
	}
}

func TestUndefinedAnalysis(t *testing.T) {
	fn, c, x := branchy()
	cfg := GetCFG(fn.Blocks)

	undef := AnalyzeUndefined(fn.Blocks, cfg, fn.Env, ValueSet{c: true})
	entry := OpID{Block: 3, Index: 0}
	if !undef.Before[entry][x] {
		t.Error("x may be undefined at the join")
	}
	if undef.Before[entry][c] {
		t.Error("arguments are never undefined")
	}
}

func TestBorrowedArguments(t *testing.T) {
	env := ir.NewEnvironment("h")
	arg := env.AddLocal("arg", ir.ListRPrimitive, true)

	block := ir.NewBasicBlock()
	load := ir.NewLoadErrorValue(ir.ListRPrimitive, false, false, 1)
	env.AddOp(load)
	block.Push(load)
	assign := ir.NewAssign(arg, load, 1)
	block.Push(assign)
	block.Push(ir.NewReturn(load, 2))

	decl := ir.NewFuncDecl("h", "", "m", &ir.FuncSignature{
		Args:    []ir.RuntimeArg{{Name: "arg", Type: ir.ListRPrimitive, Kind: ir.ArgPos}},
		RetType: ir.ListRPrimitive,
	}, ir.FuncNormal)
	fn := ir.NewFuncIR(decl, []*ir.BasicBlock{block}, env, 1, "")
	ir.NumberBlocks(fn.Blocks)
	cfg := GetCFG(fn.Blocks)

	borrowed := AnalyzeBorrowedArguments(fn.Blocks, cfg, ValueSet{arg: true})
	if !borrowed.Before[OpID{Block: 0, Index: 1}][arg] {
		t.Error("arg is still borrowed before its reassignment")
	}
	if borrowed.After[OpID{Block: 0, Index: 1}][arg] {
		t.Error("assigning to an argument ends the borrow")
	}
}

func TestCFGShape(t *testing.T) {
	fn, _, _ := branchy()
	cfg := GetCFG(fn.Blocks)

	if diff := cmp.Diff([]int{1, 2}, cfg.Succ[0]); diff != "" {
		t.Errorf("succ(0) mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]int{3}, cfg.Succ[1]); diff != "" {
		t.Errorf("succ(1) mismatch:\n%s", diff)
	}
	if len(cfg.Pred[3]) != 2 {
		t.Errorf("pred(3) = %v", cfg.Pred[3])
	}
	if !cfg.Exits[3] {
		t.Errorf("exit set = %v", cfg.Exits)
	}
}
