package ir

import (
	"fmt"
	"strings"
)

// Environment maintains the register symbol table of a single function and
// manages temp generation. It is created when lowering of a function begins
// and stays attached to the FuncIR for the life of the function.
type Environment struct {
	FuncName string

	// indexes assigns a dense index to every value in insertion order.
	order   []Value
	indexes map[Value]int

	// symtable maps resolved symbol names to their assignment targets.
	symtable map[string]*Register

	tempIndex int

	// names ensures uniqueness of register names. Comprehension-style
	// scopes can introduce the same variable name twice.
	names map[string]int

	// VarsNeedingInit holds registers that must be explicitly initialized
	// to an error value on entry.
	VarsNeedingInit map[Value]bool
}

// NewEnvironment creates an empty environment.
func NewEnvironment(funcName string) *Environment {
	return &Environment{
		FuncName:        funcName,
		indexes:         make(map[Value]int),
		symtable:        make(map[string]*Register),
		names:           make(map[string]int),
		VarsNeedingInit: make(map[Value]bool),
	}
}

// Regs returns all tracked values in insertion order.
func (e *Environment) Regs() []Value {
	return e.order
}

// NumRegs returns the number of tracked values.
func (e *Environment) NumRegs() int {
	return len(e.order)
}

// Index returns the dense index of a tracked value.
func (e *Environment) Index(v Value) (int, bool) {
	i, ok := e.indexes[v]
	return i, ok
}

// Add registers a value under the given name, uniquifying the name if it is
// already taken.
func (e *Environment) Add(v Value, name string) {
	unique := name
	for {
		if _, taken := e.names[unique]; !taken {
			break
		}
		e.names[name]++
		unique = fmt.Sprintf("%s%d", name, e.names[name])
	}
	if _, seeded := e.names[unique]; !seeded {
		e.names[unique] = 0
	}
	v.setName(unique)
	e.indexes[v] = len(e.order)
	e.order = append(e.order, v)
}

// AddLocal introduces a named local register.
func (e *Environment) AddLocal(name string, typ RType, isArg bool) *Register {
	reg := NewRegister(typ, -1, isArg)
	e.symtable[name] = reg
	e.Add(reg, name)
	return reg
}

// Lookup resolves a symbol name to its register.
func (e *Environment) Lookup(name string) (*Register, bool) {
	reg, ok := e.symtable[name]
	return reg, ok
}

// AddTemp introduces a fresh unnamed register.
func (e *Environment) AddTemp(typ RType) *Register {
	reg := NewRegister(typ, -1, false)
	e.Add(reg, fmt.Sprintf("r%d", e.tempIndex))
	e.tempIndex++
	return reg
}

// AddOp tracks the result of a value-producing op. Void ops are not
// tracked.
func (e *Environment) AddOp(op Op) {
	if IsVoidRType(op.Type()) {
		return
	}
	e.Add(op, fmt.Sprintf("r%d", e.tempIndex))
	e.tempIndex++
}

// ToLines renders the register declarations, grouping adjacent registers of
// the same type.
func (e *Environment) ToLines() []string {
	var result []string
	regs := e.order
	i := 0
	for i < len(regs) {
		first := i
		group := []string{regs[first].Name()}
		for i+1 < len(regs) && RTypesEqual(regs[i+1].Type(), regs[first].Type()) {
			i++
			group = append(group, regs[i].Name())
		}
		i++
		result = append(result, fmt.Sprintf("%s :: %s", strings.Join(group, ", "), regs[first].Type()))
	}
	return result
}
