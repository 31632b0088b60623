// Package types defines the checker-level type representation shared by
// the fine-grained analyzer and the IR builder: a tagged Type variant with
// structural equality, class metadata with C3-linearized MROs, and the
// promotion table feeding ad-hoc subtype edges.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Pos is the source position a type was written at, kept for diagnostics.
type Pos struct {
	Line   int
	Column int
}

// Type is a type in the checked language. Equality is structural; unions
// are order-insensitive.
type Type interface {
	String() string
	Equals(Type) bool
	// Key returns a stable structural key used for hashing and for
	// order-insensitive union comparison.
	Key() string
	// Position returns where the type was written; the zero Pos for
	// synthesized types.
	Position() Pos
}

// typePos is embedded by every variant.
type typePos struct {
	Pos Pos
}

func (t typePos) Position() Pos { return t.Pos }

// Instance is a (possibly generic) instance of a named class.
type Instance struct {
	typePos
	Info *TypeInfo
	Args []Type
}

func NewInstance(info *TypeInfo, args []Type) *Instance {
	return &Instance{Info: info, Args: args}
}

func (t *Instance) String() string {
	name := ShortName(t.Info.FullName)
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", name, strings.Join(args, ", "))
}

func (t *Instance) Equals(other Type) bool { return keysEqual(t, other) }

func (t *Instance) Key() string {
	if len(t.Args) == 0 {
		return t.Info.FullName
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Key()
	}
	return fmt.Sprintf("%s[%s]", t.Info.FullName, strings.Join(args, ","))
}

// TupleType is a fixed-length tuple.
type TupleType struct {
	typePos
	Items []Type
}

func NewTuple(items ...Type) *TupleType {
	return &TupleType{Items: items}
}

func (t *TupleType) String() string {
	items := make([]string, len(t.Items))
	for i, item := range t.Items {
		items[i] = item.String()
	}
	return fmt.Sprintf("Tuple[%s]", strings.Join(items, ", "))
}

func (t *TupleType) Equals(other Type) bool { return keysEqual(t, other) }

func (t *TupleType) Key() string {
	items := make([]string, len(t.Items))
	for i, item := range t.Items {
		items[i] = item.Key()
	}
	return fmt.Sprintf("tuple(%s)", strings.Join(items, ","))
}

// UnionType is a union of alternatives. Item order is not significant:
// equality and hashing use the frozen item set.
type UnionType struct {
	typePos
	Items []Type
}

func NewUnion(items ...Type) *UnionType {
	return &UnionType{Items: items}
}

// NewOptional builds the canonical 2-item union {typ, None}.
func NewOptional(typ Type) *UnionType {
	return NewUnion(typ, NewNone())
}

func (t *UnionType) String() string {
	// Optional[T] is detected and printed as such rather than as its
	// underlying 2-item union.
	if inner := OptionalValue(t); inner != nil {
		return fmt.Sprintf("Optional[%s]", inner)
	}
	items := make([]string, len(t.Items))
	for i, item := range t.Items {
		items[i] = item.String()
	}
	return fmt.Sprintf("Union[%s]", strings.Join(items, ", "))
}

func (t *UnionType) Equals(other Type) bool { return keysEqual(t, other) }

func (t *UnionType) Key() string {
	keys := make([]string, len(t.Items))
	for i, item := range t.Items {
		keys[i] = item.Key()
	}
	sort.Strings(keys)
	// Duplicates collapse in the frozen set.
	dedup := keys[:0]
	for i, k := range keys {
		if i == 0 || keys[i-1] != k {
			dedup = append(dedup, k)
		}
	}
	return fmt.Sprintf("union{%s}", strings.Join(dedup, ","))
}

// OptionalValue returns T when t is the canonical Optional[T] union, nil
// otherwise.
func OptionalValue(t Type) Type {
	u, ok := t.(*UnionType)
	if !ok || len(u.Items) != 2 {
		return nil
	}
	if _, ok := u.Items[0].(*NoneType); ok {
		return u.Items[1]
	}
	if _, ok := u.Items[1].(*NoneType); ok {
		return u.Items[0]
	}
	return nil
}

// CallableType is a function type.
type CallableType struct {
	typePos
	Params []Type
	Ret    Type
}

func NewCallable(params []Type, ret Type) *CallableType {
	return &CallableType{Params: params, Ret: ret}
}

func (t *CallableType) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("Callable[[%s], %s]", strings.Join(params, ", "), t.Ret)
}

func (t *CallableType) Equals(other Type) bool { return keysEqual(t, other) }

func (t *CallableType) Key() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.Key()
	}
	return fmt.Sprintf("callable(%s)->%s", strings.Join(params, ","), t.Ret.Key())
}

// AnyType is the dynamic type: it is compatible in both directions with
// everything.
type AnyType struct {
	typePos
}

func NewAny() *AnyType { return &AnyType{} }

func (t *AnyType) String() string { return "Any" }

func (t *AnyType) Equals(other Type) bool { return keysEqual(t, other) }
func (t *AnyType) Key() string            { return "any" }

// NoneType is the type of None.
type NoneType struct {
	typePos
}

func NewNone() *NoneType { return &NoneType{} }

func (t *NoneType) String() string         { return "None" }
func (t *NoneType) Equals(other Type) bool { return keysEqual(t, other) }
func (t *NoneType) Key() string            { return "none" }

// TypeVarType is a type variable, optionally bounded.
type TypeVarType struct {
	typePos
	VarName string
	Bound   Type
}

func NewTypeVar(name string, bound Type) *TypeVarType {
	return &TypeVarType{VarName: name, Bound: bound}
}

func (t *TypeVarType) String() string { return t.VarName }

func (t *TypeVarType) Equals(other Type) bool { return keysEqual(t, other) }

func (t *TypeVarType) Key() string {
	if t.Bound != nil {
		return fmt.Sprintf("tvar(%s<:%s)", t.VarName, t.Bound.Key())
	}
	return "tvar(" + t.VarName + ")"
}

// LiteralType is a literal value typed against its base type.
type LiteralType struct {
	typePos
	Value interface{}
	Base  Type
}

func NewLiteral(value interface{}, base Type) *LiteralType {
	return &LiteralType{Value: value, Base: base}
}

func (t *LiteralType) String() string {
	if s, ok := t.Value.(string); ok {
		return fmt.Sprintf("Literal['%s']", s)
	}
	return fmt.Sprintf("Literal[%v]", t.Value)
}

func (t *LiteralType) Equals(other Type) bool { return keysEqual(t, other) }

func (t *LiteralType) Key() string {
	return fmt.Sprintf("literal(%v:%s)", t.Value, t.Base.Key())
}

// ErasedType marks a type deliberately removed from consideration during
// inference.
type ErasedType struct {
	typePos
}

func NewErased() *ErasedType { return &ErasedType{} }

func (t *ErasedType) String() string         { return "<Erased>" }
func (t *ErasedType) Equals(other Type) bool { return keysEqual(t, other) }
func (t *ErasedType) Key() string            { return "erased" }

func keysEqual(a Type, b Type) bool {
	return b != nil && a.Key() == b.Key()
}

// ShortName strips the "builtins." prefix for display.
func ShortName(name string) string {
	return strings.TrimPrefix(name, "builtins.")
}

// Quoted renders a type the way diagnostics cite it.
func Quoted(t Type) string {
	return `"` + t.String() + `"`
}
