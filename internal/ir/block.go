package ir

// BasicBlock is an ordered sequence of ops ending in a jump, branch or
// return.
//
// While building the IR, ops that raise exceptions may appear in the middle
// of a block with the error conditions unchecked. The exception-splitting
// pass afterwards inserts explicit checks and splits blocks so that a
// control-flow op only ever appears as the final op. ErrorHandler determines
// where to jump if an error occurs; if nil, an error propagates out of the
// function. It is a back reference for lookup, never ownership.
//
// Labels are used for pretty printing and code emission and get filled in by
// numbering passes. Ops that may terminate the whole program are not treated
// as exits.
type BasicBlock struct {
	Label        int
	Ops          []Op
	ErrorHandler *BasicBlock
}

// NewBasicBlock returns an empty block with an unassigned label.
func NewBasicBlock() *BasicBlock {
	return &BasicBlock{Label: -1}
}

// Push appends an op.
func (b *BasicBlock) Push(op Op) {
	b.Ops = append(b.Ops, op)
}

// Terminated reports whether the block ends in a control-flow op.
func (b *BasicBlock) Terminated() bool {
	return len(b.Ops) > 0 && IsControlOp(b.Ops[len(b.Ops)-1])
}

// NumberBlocks assigns each block its index as label.
func NumberBlocks(blocks []*BasicBlock) {
	for i, b := range blocks {
		b.Label = i
	}
}

// FuncSignature is the runtime signature of a function.
type FuncSignature struct {
	Args    []RuntimeArg
	RetType RType
}

// Argument kinds, mirroring how the front end classifies parameters.
const (
	ArgPos = iota
	ArgOpt
	ArgStar
	ArgNamed
	ArgStarStar
	ArgNamedOpt
)

// RuntimeArg describes one function parameter at runtime.
type RuntimeArg struct {
	Name string
	Type RType
	Kind int
}

// Optional reports whether the argument may be omitted by the caller.
func (a RuntimeArg) Optional() bool {
	return a.Kind == ArgOpt || a.Kind == ArgNamedOpt
}

// Function kinds.
const (
	FuncNormal = iota
	FuncStaticMethod
	FuncClassMethod
)

// FuncDecl declares a function: its name, home module, optional class, and
// signature.
type FuncDecl struct {
	Name         string
	ClassName    string
	ModuleName   string
	Sig          *FuncSignature
	Kind         int
	IsPropSetter bool
	IsPropGetter bool

	// BoundSig drops the receiver for methods that are not static.
	BoundSig *FuncSignature
}

// NewFuncDecl builds a declaration, computing the bound signature for
// methods.
func NewFuncDecl(name, className, moduleName string, sig *FuncSignature, kind int) *FuncDecl {
	d := &FuncDecl{
		Name:       name,
		ClassName:  className,
		ModuleName: moduleName,
		Sig:        sig,
		Kind:       kind,
	}
	if className != "" {
		if kind == FuncStaticMethod {
			d.BoundSig = sig
		} else {
			d.BoundSig = &FuncSignature{Args: sig.Args[1:], RetType: sig.RetType}
		}
	}
	return d
}

// ShortName is "Class.name" for methods, "name" otherwise.
func (d *FuncDecl) ShortName() string {
	if d.ClassName != "" {
		return d.ClassName + "." + d.Name
	}
	return d.Name
}

// FullName is the module-qualified short name.
func (d *FuncDecl) FullName() string {
	return d.ModuleName + "." + d.ShortName()
}

// FuncIR is the intermediate representation of a function together with its
// blocks and environment. A FuncIR exclusively owns its Environment and
// BasicBlocks.
type FuncIR struct {
	Decl   *FuncDecl
	Blocks []*BasicBlock
	Env    *Environment
	Line   int
	// TracebackName is displayed for tracebacks that include this
	// function; the function is omitted from tracebacks if empty.
	TracebackName string
}

// NewFuncIR assembles a function IR.
func NewFuncIR(decl *FuncDecl, blocks []*BasicBlock, env *Environment, line int, tracebackName string) *FuncIR {
	return &FuncIR{Decl: decl, Blocks: blocks, Env: env, Line: line, TracebackName: tracebackName}
}

// Args returns the runtime arguments of the function.
func (f *FuncIR) Args() []RuntimeArg { return f.Decl.Sig.Args }

// RetType returns the declared return type.
func (f *FuncIR) RetType() RType { return f.Decl.Sig.RetType }

// Name returns the unqualified function name.
func (f *FuncIR) Name() string { return f.Decl.Name }

// FullName returns the module-qualified name.
func (f *FuncIR) FullName() string { return f.Decl.FullName() }

// ArgRegs returns the registers flagged as arguments, in environment
// order.
func (f *FuncIR) ArgRegs() []*Register {
	var args []*Register
	for _, v := range f.Env.Regs() {
		if reg, ok := v.(*Register); ok && reg.IsArg {
			args = append(args, reg)
		}
	}
	return args
}

func (f *FuncIR) String() string {
	return FormatFunc(f)
}
