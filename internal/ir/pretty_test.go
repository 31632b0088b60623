package ir

import (
	"strings"
	"testing"
)

func TestEnvironmentNaming(t *testing.T) {
	env := NewEnvironment("f")
	x := env.AddLocal("x", IntRPrimitive, true)
	if x.Name() != "x" {
		t.Errorf("name = %q", x.Name())
	}
	// Re-declaring the same name uniquifies.
	x2 := env.AddLocal("x", IntRPrimitive, false)
	if x2.Name() != "x1" {
		t.Errorf("second x = %q", x2.Name())
	}
	r0 := env.AddTemp(BoolRPrimitive)
	r1 := env.AddTemp(BoolRPrimitive)
	if r0.Name() != "r0" || r1.Name() != "r1" {
		t.Errorf("temps = %q, %q", r0.Name(), r1.Name())
	}
	if env.NumRegs() != 4 {
		t.Errorf("NumRegs = %d", env.NumRegs())
	}
	if got, ok := env.Lookup("x"); !ok || got != x2 {
		t.Errorf("Lookup(x) should return the latest declaration")
	}
}

func TestEnvironmentToLinesGroupsTypes(t *testing.T) {
	env := NewEnvironment("f")
	env.AddLocal("a", IntRPrimitive, false)
	env.AddLocal("b", IntRPrimitive, false)
	env.AddLocal("c", BoolRPrimitive, false)

	lines := env.ToLines()
	want := []string{"a, b :: int", "c :: bool"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatHidesFallthroughGoto(t *testing.T) {
	env := NewEnvironment("f")
	b2 := NewBasicBlock()
	load := NewLoadInt(1, 1)
	env.AddOp(load)
	b2.Push(load)
	b2.Push(NewReturn(load, 1))

	b1 := NewBasicBlock()
	b1.Push(NewGoto(b2, 1))

	lines := FormatBlocks([]*BasicBlock{b1, b2}, env)
	for _, line := range lines {
		if strings.Contains(line, "goto") {
			t.Errorf("fall-through goto should be hidden: %q", line)
		}
	}
}

func TestFormatMarksMissingExit(t *testing.T) {
	env := NewEnvironment("f")
	block := NewBasicBlock()
	load := NewLoadInt(1, 1)
	env.AddOp(load)
	block.Push(load)

	lines := FormatBlocks([]*BasicBlock{block}, env)
	found := false
	for _, line := range lines {
		if strings.Contains(line, "[MISSING BLOCK EXIT OPCODE]") {
			found = true
		}
	}
	if !found {
		t.Error("unterminated block must be flagged")
	}
}

func TestFormatFuncHeader(t *testing.T) {
	env := NewEnvironment("m")
	self := env.AddLocal("self", ObjectRPrimitive, true)

	block := NewBasicBlock()
	block.Push(NewReturn(self, 1))

	sig := &FuncSignature{
		Args:    []RuntimeArg{{Name: "self", Type: ObjectRPrimitive, Kind: ArgPos}},
		RetType: ObjectRPrimitive,
	}
	decl := NewFuncDecl("m", "C", "mod", sig, FuncNormal)
	fn := NewFuncIR(decl, []*BasicBlock{block}, env, 1, "")

	out := FormatFunc(fn)
	if !strings.HasPrefix(out, "def C.m(self):") {
		t.Errorf("header = %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, "return self") {
		t.Errorf("body missing return: %s", out)
	}
}

func TestIncDecRefPrinting(t *testing.T) {
	env := NewEnvironment("f")
	x := env.AddLocal("x", IntRPrimitive, false)
	y := env.AddLocal("y", ListRPrimitive, false)

	if got := NewIncRef(x, 1).ToStr(env); got != "inc_ref x :: int" {
		t.Errorf("ToStr = %q", got)
	}
	if got := NewDecRef(y, false, 1).ToStr(env); got != "dec_ref y" {
		t.Errorf("ToStr = %q", got)
	}
	if got := NewDecRef(y, true, 1).ToStr(env); got != "xdec_ref y" {
		t.Errorf("ToStr = %q", got)
	}
}

func TestBoxedSingletonsAreBorrowed(t *testing.T) {
	env := NewEnvironment("f")
	b := env.AddLocal("b", BoolRPrimitive, false)
	n := env.AddLocal("n", NoneRPrimitive, false)
	i := env.AddLocal("i", IntRPrimitive, false)

	if !NewBox(b, 1).IsBorrowed() {
		t.Error("boxing a bool yields a borrowed reference")
	}
	if !NewBox(n, 1).IsBorrowed() {
		t.Error("boxing None yields a borrowed reference")
	}
	if NewBox(i, 1).IsBorrowed() {
		t.Error("boxing an int yields an owned reference")
	}
}
