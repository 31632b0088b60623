package ir

import (
	"fmt"
	"strings"
)

// ErrorKind classifies how an op signals a runtime failure.
type ErrorKind int

const (
	// ErrNever means the op cannot raise.
	ErrNever ErrorKind = iota
	// ErrMagic means failure produces a magic sentinel in the result,
	// chosen based on the result RType.
	ErrMagic
	// ErrFalse means failure produces a boolean false result.
	ErrFalse
)

// NoTracebackLineNo suppresses an op in tracebacks.
const NoTracebackLineNo = -10000

// Value is anything that can be read by an op: a Register or the result of
// a value-producing Op.
type Value interface {
	Name() string
	Type() RType
	Line() int
	// IsBorrowed reports whether the value is held without owning a
	// reference. A borrowed value is safe only while the true owner is
	// guaranteed live.
	IsBorrowed() bool

	setName(name string)
}

// valueBase carries the fields shared by registers and ops.
type valueBase struct {
	name     string
	line     int
	borrowed bool
}

func (v *valueBase) Name() string        { return v.name }
func (v *valueBase) Line() int           { return v.line }
func (v *valueBase) IsBorrowed() bool    { return v.borrowed }
func (v *valueBase) setName(name string) { v.name = name }

// Register holds a local variable, argument or temporary.
type Register struct {
	valueBase
	typ   RType
	IsArg bool
}

// NewRegister creates a register of the given type. Argument registers
// start out borrowed: they hold references owned by the caller.
func NewRegister(typ RType, line int, isArg bool) *Register {
	r := &Register{typ: typ, IsArg: isArg}
	r.line = line
	r.borrowed = isArg
	return r
}

func (r *Register) Type() RType { return r.typ }

// Op is a single IR operation. Value-producing ops are themselves the
// value they produce; Dest returns the produced value (which may be an
// explicit register for Assign) or nil for void ops.
type Op interface {
	Value

	// Sources returns the values read by the op.
	Sources() []Value
	// Stolen returns the sources whose reference is consumed by the op.
	Stolen() []Value
	// Dest returns the value defined by this op, or nil.
	Dest() Value
	// ErrorKind reports how runtime failure is signalled.
	ErrorKind() ErrorKind
	// CanRaise reports whether the op can fail at runtime.
	CanRaise() bool
	// ToStr renders the op using the names in env.
	ToStr(env *Environment) string
}

// opBase provides the common implementation for ops. The concrete op embeds
// it and sets typ and errKind at construction.
type opBase struct {
	valueBase
	typ     RType
	errKind ErrorKind
}

func (o *opBase) Type() RType          { return o.typ }
func (o *opBase) ErrorKind() ErrorKind { return o.errKind }
func (o *opBase) CanRaise() bool       { return o.errKind != ErrNever }
func (o *opBase) Stolen() []Value      { return nil }

// UniqueSources returns an op's sources with duplicates removed, preserving
// order.
func UniqueSources(op Op) []Value {
	var result []Value
	for _, src := range op.Sources() {
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

// IsControlOp reports whether op terminates a basic block.
func IsControlOp(op Op) bool {
	switch op.(type) {
	case *Goto, *Branch, *Return, *Unreachable:
		return true
	}
	return false
}

func fmtDest(op Op, env *Environment, s string) string {
	if IsVoidRType(op.Type()) {
		return s
	}
	return fmt.Sprintf("%s = %s", op.Name(), s)
}

// Goto is an unconditional jump.
type Goto struct {
	opBase
	Target *BasicBlock
}

func NewGoto(target *BasicBlock, line int) *Goto {
	op := &Goto{Target: target}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *Goto) Sources() []Value { return nil }
func (op *Goto) Dest() Value      { return nil }

func (op *Goto) ToStr(env *Environment) string {
	return fmt.Sprintf("goto L%d", op.Target.Label)
}

// Branch op kinds.
const (
	// BranchBool branches on a bool value.
	BranchBool = 100
	// BranchIsError branches on whether the value is the error sentinel of
	// its type.
	BranchIsError = 101
)

// Branch is a conditional jump: if [not] left goto true else goto false.
// Branch ops must not raise; a raising comparison splits into two ops of
// which only the first may fail.
type Branch struct {
	opBase
	Left    Value
	True    *BasicBlock
	False   *BasicBlock
	OpKind  int
	Negated bool
	// Traceback, when set, makes the true label generate a traceback entry
	// (function name, line number).
	Traceback *TracebackEntry
	Rare      bool
}

// TracebackEntry names the function and line reported when an error branch
// is taken.
type TracebackEntry struct {
	FuncName string
	Line     int
}

func NewBranch(left Value, trueBlock, falseBlock *BasicBlock, kind int, line int) *Branch {
	op := &Branch{Left: left, True: trueBlock, False: falseBlock, OpKind: kind}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *Branch) Sources() []Value { return []Value{op.Left} }
func (op *Branch) Dest() Value      { return nil }

// Invert flips the branch condition.
func (op *Branch) Invert() {
	op.Negated = !op.Negated
}

func (op *Branch) ToStr(env *Environment) string {
	var cond, suffix string
	switch op.OpKind {
	case BranchBool:
		cond = op.Left.Name()
		suffix = " :: bool"
	case BranchIsError:
		cond = fmt.Sprintf("is_error(%s)", op.Left.Name())
	}
	if op.Negated {
		cond = "not " + cond
	}
	tb := ""
	if op.Traceback != nil {
		tb = fmt.Sprintf(" (error at %s:%d)", op.Traceback.FuncName, op.Traceback.Line)
	}
	return fmt.Sprintf("if %s goto L%d%s else goto L%d%s",
		cond, op.True.Label, tb, op.False.Label, suffix)
}

// Return exits the function, stealing the returned reference.
type Return struct {
	opBase
	Reg Value
}

func NewReturn(reg Value, line int) *Return {
	op := &Return{Reg: reg}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *Return) Sources() []Value { return []Value{op.Reg} }
func (op *Return) Stolen() []Value  { return []Value{op.Reg} }
func (op *Return) Dest() Value      { return nil }

func (op *Return) ToStr(env *Environment) string {
	return fmt.Sprintf("return %s", op.Reg.Name())
}

// Unreachable terminates blocks that cannot fall through, such as the end
// of a function that always returns earlier. It keeps every block
// explicitly terminated.
type Unreachable struct {
	opBase
}

func NewUnreachable(line int) *Unreachable {
	op := &Unreachable{}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *Unreachable) Sources() []Value { return nil }
func (op *Unreachable) Dest() Value      { return nil }

func (op *Unreachable) ToStr(env *Environment) string {
	return "unreachable"
}

// IncRef increments the reference count of a value.
type IncRef struct {
	opBase
	Src Value
}

func NewIncRef(src Value, line int) *IncRef {
	if !src.Type().IsRefcounted() {
		panic("IncRef of non-refcounted value")
	}
	op := &IncRef{Src: src}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *IncRef) Sources() []Value { return []Value{op.Src} }
func (op *IncRef) Dest() Value      { return nil }

func (op *IncRef) ToStr(env *Environment) string {
	s := fmt.Sprintf("inc_ref %s", op.Src.Name())
	if IsBoolRPrimitive(op.Src.Type()) || IsIntRPrimitive(op.Src.Type()) {
		s += " :: " + ShortName(op.Src.Type().Name())
	}
	return s
}

// DecRef decrements the reference count of a value. IsXDec selects the
// null-tolerant form for values that may be undefined.
type DecRef struct {
	opBase
	Src    Value
	IsXDec bool
}

func NewDecRef(src Value, isXDec bool, line int) *DecRef {
	if !src.Type().IsRefcounted() {
		panic("DecRef of non-refcounted value")
	}
	op := &DecRef{Src: src, IsXDec: isXDec}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *DecRef) Sources() []Value { return []Value{op.Src} }
func (op *DecRef) Dest() Value      { return nil }

func (op *DecRef) ToStr(env *Environment) string {
	x := ""
	if op.IsXDec {
		x = "x"
	}
	s := fmt.Sprintf("%sdec_ref %s", x, op.Src.Name())
	if IsBoolRPrimitive(op.Src.Type()) || IsIntRPrimitive(op.Src.Type()) {
		s += " :: " + ShortName(op.Src.Type().Name())
	}
	return s
}

// Call is a native call to a module-level function or a class constructor.
type Call struct {
	opBase
	Fn   *FuncDecl
	Args []Value
}

func NewCall(fn *FuncDecl, args []Value, line int) *Call {
	op := &Call{Fn: fn, Args: args}
	op.line = line
	op.typ = fn.Sig.RetType
	op.errKind = ErrMagic
	return op
}

func (op *Call) Sources() []Value { return append([]Value(nil), op.Args...) }
func (op *Call) Dest() Value      { return opDest(op) }

func (op *Call) ToStr(env *Environment) string {
	return fmtDest(op, env, fmt.Sprintf("%s(%s)", op.Fn.ShortName(), joinNames(op.Args)))
}

// MethodCall is a native method call obj.m(arg, ...).
type MethodCall struct {
	opBase
	Obj    Value
	Method string
	Args   []Value
	// Receiver is the instance type the method is resolved against.
	Receiver *RInstance
}

func NewMethodCall(obj Value, method string, args []Value, line int) *MethodCall {
	recv, ok := obj.Type().(*RInstance)
	if !ok {
		panic(fmt.Sprintf("methods can only be called on instances, not %s", obj.Type()))
	}
	sig := recv.Class.MethodSig(method)
	if sig == nil {
		panic(fmt.Sprintf("%s has no method %q", recv.Name(), method))
	}
	op := &MethodCall{Obj: obj, Method: method, Args: args, Receiver: recv}
	op.line = line
	op.typ = sig.RetType
	op.errKind = ErrMagic
	return op
}

func (op *MethodCall) Sources() []Value {
	return append(append([]Value(nil), op.Args...), op.Obj)
}

func (op *MethodCall) Dest() Value { return opDest(op) }

func (op *MethodCall) ToStr(env *Environment) string {
	return fmtDest(op, env, fmt.Sprintf("%s.%s(%s)", op.Obj.Name(), op.Method, joinNames(op.Args)))
}

// StealsDescription says which arguments of a primitive op have their
// reference stolen: all of them, none, or the positions set to true.
type StealsDescription struct {
	All       bool
	Positions []bool
}

// OpDescription defines a primitive operation. The modules registering
// primitives define the supported operations; lowering looks up suitable
// descriptions by name and operand types. Highest priority wins when
// several candidates match.
type OpDescription struct {
	OpName     string
	ArgTypes   []RType
	ResultType RType
	IsVarArg   bool
	ErrKind    ErrorKind
	FormatStr  string
	Steals     StealsDescription
	Borrows    bool
	Priority   int
}

// PrimitiveOp is a register-based primitive operation on specific operand
// types, defined by its description.
type PrimitiveOp struct {
	opBase
	Args []Value
	Desc *OpDescription
}

func NewPrimitiveOp(args []Value, desc *OpDescription, line int) *PrimitiveOp {
	if !desc.IsVarArg && len(args) != len(desc.ArgTypes) {
		panic(fmt.Sprintf("primitive %s: got %d args, want %d", desc.OpName, len(args), len(desc.ArgTypes)))
	}
	op := &PrimitiveOp{Args: args, Desc: desc}
	op.line = line
	op.errKind = desc.ErrKind
	if desc.ResultType == nil {
		if desc.ErrKind != ErrFalse {
			panic("primitive op with no result must use ErrFalse")
		}
		op.typ = BoolRPrimitive
	} else {
		op.typ = desc.ResultType
	}
	op.borrowed = desc.Borrows
	return op
}

func (op *PrimitiveOp) Sources() []Value { return append([]Value(nil), op.Args...) }

func (op *PrimitiveOp) Stolen() []Value {
	if op.Desc.Steals.All {
		return op.Sources()
	}
	if op.Desc.Steals.Positions == nil {
		return nil
	}
	if len(op.Desc.Steals.Positions) != len(op.Args) {
		panic("steals positions do not match args")
	}
	var stolen []Value
	for i, steal := range op.Desc.Steals.Positions {
		if steal {
			stolen = append(stolen, op.Args[i])
		}
	}
	return stolen
}

func (op *PrimitiveOp) Dest() Value { return opDest(op) }

func (op *PrimitiveOp) ToStr(env *Environment) string {
	args := joinNames(op.Args)
	s := op.Desc.FormatStr
	if s == "" {
		s = fmt.Sprintf("%s %s", op.Desc.OpName, args)
	} else {
		s = strings.ReplaceAll(s, "{args}", args)
	}
	return fmtDest(op, env, s)
}

// Assign copies src into an explicit destination register, stealing the
// source reference.
type Assign struct {
	opBase
	DestReg *Register
	Src     Value
}

func NewAssign(dest *Register, src Value, line int) *Assign {
	op := &Assign{DestReg: dest, Src: src}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *Assign) Sources() []Value { return []Value{op.Src} }
func (op *Assign) Stolen() []Value  { return []Value{op.Src} }
func (op *Assign) Dest() Value      { return op.DestReg }

func (op *Assign) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = %s", op.DestReg.Name(), op.Src.Name())
}

// LoadInt loads an integer literal.
type LoadInt struct {
	opBase
	Value int64
}

func NewLoadInt(value int64, line int) *LoadInt {
	op := &LoadInt{Value: value}
	op.line = line
	op.typ = ShortIntRPrimitive
	op.errKind = ErrNever
	return op
}

func (op *LoadInt) Sources() []Value { return nil }
func (op *LoadInt) Dest() Value      { return opDest(op) }

func (op *LoadInt) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = %d", op.Name(), op.Value)
}

// LoadErrorValue loads the error sentinel of a type.
type LoadErrorValue struct {
	opBase
	// Undefines makes the definedness analysis treat the assigned register
	// as undefined, so uses get checked.
	Undefines bool
}

func NewLoadErrorValue(typ RType, isBorrowed, undefines bool, line int) *LoadErrorValue {
	op := &LoadErrorValue{Undefines: undefines}
	op.line = line
	op.typ = typ
	op.errKind = ErrNever
	op.borrowed = isBorrowed
	return op
}

func (op *LoadErrorValue) Sources() []Value { return nil }
func (op *LoadErrorValue) Dest() Value      { return opDest(op) }

func (op *LoadErrorValue) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = <error> :: %s", op.Name(), op.typ)
}

// GetAttr reads an attribute of a native object.
type GetAttr struct {
	opBase
	Obj  Value
	Attr string
}

func NewGetAttr(obj Value, attr string, line int) *GetAttr {
	inst, ok := obj.Type().(*RInstance)
	if !ok {
		panic(fmt.Sprintf("attribute access not supported: %s", obj.Type()))
	}
	op := &GetAttr{Obj: obj, Attr: attr}
	op.line = line
	op.typ = inst.AttrType(attr)
	op.errKind = ErrMagic
	return op
}

func (op *GetAttr) Sources() []Value { return []Value{op.Obj} }
func (op *GetAttr) Dest() Value      { return opDest(op) }

func (op *GetAttr) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = %s.%s", op.Name(), op.Obj.Name(), op.Attr)
}

// SetAttr writes an attribute of a native object, stealing the reference to
// src.
type SetAttr struct {
	opBase
	Obj  Value
	Attr string
	Src  Value
}

func NewSetAttr(obj Value, attr string, src Value, line int) *SetAttr {
	if _, ok := obj.Type().(*RInstance); !ok {
		panic(fmt.Sprintf("attribute access not supported: %s", obj.Type()))
	}
	op := &SetAttr{Obj: obj, Attr: attr, Src: src}
	op.line = line
	op.typ = BoolRPrimitive
	op.errKind = ErrFalse
	return op
}

func (op *SetAttr) Sources() []Value { return []Value{op.Obj, op.Src} }
func (op *SetAttr) Stolen() []Value  { return []Value{op.Src} }
func (op *SetAttr) Dest() Value      { return opDest(op) }

func (op *SetAttr) ToStr(env *Environment) string {
	return fmt.Sprintf("%s.%s = %s; %s = is_error", op.Obj.Name(), op.Attr, op.Src.Name(), op.Name())
}

// Static namespaces. Statics in a compilation group share one namespace;
// the optional module name and namespace identifier avoid collisions.
const (
	NamespaceStatic = "static"
	NamespaceType   = "type"
	NamespaceModule = "module"
)

// LoadStatic loads a static variable or pointer. The result is borrowed:
// the static itself keeps the owning reference.
type LoadStatic struct {
	opBase
	Identifier string
	ModuleName string
	Namespace  string
	// Ann is an arbitrary object to pretty print with the load.
	Ann interface{}
}

func NewLoadStatic(typ RType, identifier, moduleName, namespace string, line int, ann interface{}) *LoadStatic {
	if namespace == "" {
		namespace = NamespaceStatic
	}
	op := &LoadStatic{Identifier: identifier, ModuleName: moduleName, Namespace: namespace, Ann: ann}
	op.line = line
	op.typ = typ
	op.errKind = ErrNever
	op.borrowed = true
	return op
}

func (op *LoadStatic) Sources() []Value { return nil }
func (op *LoadStatic) Dest() Value      { return opDest(op) }

func (op *LoadStatic) ToStr(env *Environment) string {
	name := op.Identifier
	if op.ModuleName != "" {
		name = op.ModuleName + "." + name
	}
	ann := ""
	if op.Ann != nil {
		ann = fmt.Sprintf("  (%v)", op.Ann)
	}
	return fmt.Sprintf("%s = %s :: %s%s", op.Name(), name, op.Namespace, ann)
}

// InitStatic initializes a static variable or pointer.
type InitStatic struct {
	opBase
	Src        Value
	Identifier string
	ModuleName string
	Namespace  string
}

func NewInitStatic(src Value, identifier, moduleName, namespace string, line int) *InitStatic {
	if namespace == "" {
		namespace = NamespaceStatic
	}
	op := &InitStatic{Src: src, Identifier: identifier, ModuleName: moduleName, Namespace: namespace}
	op.line = line
	op.typ = VoidRType
	op.errKind = ErrNever
	return op
}

func (op *InitStatic) Sources() []Value { return []Value{op.Src} }
func (op *InitStatic) Dest() Value      { return nil }

func (op *InitStatic) ToStr(env *Environment) string {
	name := op.Identifier
	if op.ModuleName != "" {
		name = op.ModuleName + "." + name
	}
	return fmt.Sprintf("%s = %s :: %s", name, op.Src.Name(), op.Namespace)
}

// TupleSet builds a fixed-length tuple from its items.
type TupleSet struct {
	opBase
	Items []Value
}

func NewTupleSet(items []Value, line int) *TupleSet {
	// A short int stops being short once stored in a tuple; runtime
	// subtyping for tuples is not tracked.
	types := make([]RType, len(items))
	for i, item := range items {
		if IsShortIntRPrimitive(item.Type()) {
			types[i] = IntRPrimitive
		} else {
			types[i] = item.Type()
		}
	}
	op := &TupleSet{Items: items}
	op.line = line
	op.typ = NewRTuple(types)
	op.errKind = ErrNever
	return op
}

func (op *TupleSet) Sources() []Value { return append([]Value(nil), op.Items...) }
func (op *TupleSet) Dest() Value      { return opDest(op) }

func (op *TupleSet) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = (%s)", op.Name(), joinNames(op.Items))
}

// TupleGet reads element n of a fixed-length tuple.
type TupleGet struct {
	opBase
	Src   Value
	Index int
}

func NewTupleGet(src Value, index, line int) *TupleGet {
	tup, ok := src.Type().(*RTuple)
	if !ok {
		panic("TupleGet only operates on tuples")
	}
	op := &TupleGet{Src: src, Index: index}
	op.line = line
	op.typ = tup.Types[index]
	op.errKind = ErrNever
	return op
}

func (op *TupleGet) Sources() []Value { return []Value{op.Src} }
func (op *TupleGet) Dest() Value      { return opDest(op) }

func (op *TupleGet) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = %s[%d]", op.Name(), op.Src.Name(), op.Index)
}

// Cast performs a runtime type check without changing representation. It
// does not touch reference counts; the source reference transfers to the
// result.
type Cast struct {
	opBase
	Src Value
}

func NewCast(src Value, typ RType, line int) *Cast {
	op := &Cast{Src: src}
	op.line = line
	op.typ = typ
	op.errKind = ErrMagic
	return op
}

func (op *Cast) Sources() []Value { return []Value{op.Src} }
func (op *Cast) Stolen() []Value  { return []Value{op.Src} }
func (op *Cast) Dest() Value      { return opDest(op) }

func (op *Cast) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = cast(%s, %s)", op.Name(), op.typ, op.Src.Name())
}

// Box converts an unboxed value to the boxed object representation. Boxing
// a value whose unboxed form is a fixed singleton (none, bool) yields a
// borrowed reference.
type Box struct {
	opBase
	Src Value
}

func NewBox(src Value, line int) *Box {
	op := &Box{Src: src}
	op.line = line
	op.typ = ObjectRPrimitive
	op.errKind = ErrNever
	if IsNoneRPrimitive(src.Type()) || IsBoolRPrimitive(src.Type()) {
		op.borrowed = true
	}
	return op
}

func (op *Box) Sources() []Value { return []Value{op.Src} }
func (op *Box) Stolen() []Value  { return []Value{op.Src} }
func (op *Box) Dest() Value      { return opDest(op) }

func (op *Box) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = box(%s, %s)", op.Name(), op.Src.Type(), op.Src.Name())
}

// Unbox converts a boxed value to an unboxed representation, checking the
// runtime type like a cast.
type Unbox struct {
	opBase
	Src Value
}

func NewUnbox(src Value, typ RType, line int) *Unbox {
	op := &Unbox{Src: src}
	op.line = line
	op.typ = typ
	op.errKind = ErrMagic
	return op
}

func (op *Unbox) Sources() []Value { return []Value{op.Src} }
func (op *Unbox) Dest() Value      { return opDest(op) }

func (op *Unbox) ToStr(env *Environment) string {
	return fmt.Sprintf("%s = unbox(%s, %s)", op.Name(), op.typ, op.Src.Name())
}

// Standard exception class names for RaiseStandardError.
const (
	ValueError        = "ValueError"
	AssertionError    = "AssertionError"
	StopIteration     = "StopIteration"
	UnboundLocalError = "UnboundLocalError"
	RuntimeError      = "RuntimeError"
)

// RaiseStandardError raises a built-in exception with an optional error
// string or value argument.
type RaiseStandardError struct {
	opBase
	ClassName string
	// StrValue and ValValue are mutually exclusive; both may be empty/nil
	// for a bare raise.
	StrValue string
	ValValue Value
}

func NewRaiseStandardError(className, strValue string, valValue Value, line int) *RaiseStandardError {
	op := &RaiseStandardError{ClassName: className, StrValue: strValue, ValValue: valValue}
	op.line = line
	op.typ = BoolRPrimitive
	op.errKind = ErrFalse
	return op
}

func (op *RaiseStandardError) Sources() []Value { return nil }
func (op *RaiseStandardError) Dest() Value      { return opDest(op) }

func (op *RaiseStandardError) ToStr(env *Environment) string {
	switch {
	case op.ValValue != nil:
		return fmt.Sprintf("raise %s(%s)", op.ClassName, op.ValValue.Name())
	case op.StrValue != "":
		return fmt.Sprintf("raise %s(%q)", op.ClassName, op.StrValue)
	default:
		return fmt.Sprintf("raise %s", op.ClassName)
	}
}

// opDest returns op itself for value-producing ops and nil for void ops.
func opDest(op Op) Value {
	if IsVoidRType(op.Type()) {
		return nil
	}
	return op
}

func joinNames(values []Value) string {
	names := make([]string, len(values))
	for i, v := range values {
		names[i] = v.Name()
	}
	return strings.Join(names, ", ")
}
