// Package ir defines the typed register-based intermediate representation
// produced by lowering type-checked modules, together with its runtime type
// model, basic blocks, environments and JSON serialization.
//
// Opcodes operate on abstract registers in a register machine. Each register
// has a type and a name, tracked by an Environment. A register can hold local
// variables, intermediate values of expressions, condition flags and
// literals.
package ir

import (
	"fmt"
	"sort"
	"strings"
)

// RType is the runtime representation of a value. Runtime types are erased
// and concrete; there are no generics at this level.
type RType interface {
	// Name is the full name of the type (e.g. "builtins.int").
	Name() string
	// IsUnboxed reports whether values use a machine-native representation.
	IsUnboxed() bool
	// IsRefcounted reports whether values participate in reference counting.
	IsRefcounted() bool
	// CType is the C-level representation used by the emitter.
	CType() string
	String() string
}

// ShortName strips the "builtins." prefix for display.
func ShortName(name string) string {
	return strings.TrimPrefix(name, "builtins.")
}

// RVoid is the type of ops that produce no value.
type RVoid struct{}

func (t *RVoid) Name() string       { return "void" }
func (t *RVoid) IsUnboxed() bool    { return false }
func (t *RVoid) IsRefcounted() bool { return false }
func (t *RVoid) CType() string      { return "void" }
func (t *RVoid) String() string     { return "void" }

// VoidRType is the canonical void instance.
var VoidRType = &RVoid{}

// IsVoidRType reports whether t is the void type.
func IsVoidRType(t RType) bool {
	_, ok := t.(*RVoid)
	return ok
}

// RPrimitive is a primitive type such as "builtins.object" or
// "builtins.int". Primitives often have custom ops associated with them.
// Primitive identity is by instance; use the registry to intern them.
type RPrimitive struct {
	TypeName   string
	Unboxed    bool
	Refcounted bool
	CRepr      string
	CUndefined string
}

func newRPrimitive(name string, unboxed, refcounted bool, crepr string) *RPrimitive {
	p := &RPrimitive{
		TypeName:   name,
		Unboxed:    unboxed,
		Refcounted: refcounted,
		CRepr:      crepr,
	}
	switch crepr {
	case "CPyTagged":
		p.CUndefined = "CPY_INT_TAG"
	case "PyObject *":
		p.CUndefined = "NULL"
	case "char":
		p.CUndefined = "2"
	default:
		panic(fmt.Sprintf("unrecognized c representation: %q", crepr))
	}
	return p
}

func (t *RPrimitive) Name() string       { return t.TypeName }
func (t *RPrimitive) IsUnboxed() bool    { return t.Unboxed }
func (t *RPrimitive) IsRefcounted() bool { return t.Refcounted }
func (t *RPrimitive) CType() string      { return t.CRepr }
func (t *RPrimitive) String() string     { return ShortName(t.TypeName) }

// The process-wide primitive instances. They are constructed once at
// startup and thereafter read-only; PrimitiveRegistry gives components an
// explicit handle for lookup by name during deserialization.
var (
	// ObjectRPrimitive represents arbitrary objects and dynamically typed
	// values.
	ObjectRPrimitive = newRPrimitive("builtins.object", false, true, "PyObject *")

	IntRPrimitive      = newRPrimitive("builtins.int", true, true, "CPyTagged")
	ShortIntRPrimitive = newRPrimitive("short_int", true, false, "CPyTagged")
	FloatRPrimitive    = newRPrimitive("builtins.float", false, true, "PyObject *")
	BoolRPrimitive     = newRPrimitive("builtins.bool", true, false, "char")
	NoneRPrimitive     = newRPrimitive("builtins.None", true, false, "char")
	ListRPrimitive     = newRPrimitive("builtins.list", false, true, "PyObject *")
	DictRPrimitive     = newRPrimitive("builtins.dict", false, true, "PyObject *")
	SetRPrimitive      = newRPrimitive("builtins.set", false, true, "PyObject *")
	StrRPrimitive      = newRPrimitive("builtins.str", false, true, "PyObject *")

	// TupleRPrimitive is a tuple of arbitrary length, as opposed to the
	// fixed-length unboxed RTuple.
	TupleRPrimitive = newRPrimitive("builtins.tuple", false, true, "PyObject *")
)

// PrimitiveRegistry maps primitive names to interned instances. It is built
// once during startup and passed explicitly to consumers that resolve names
// (deserialization in particular) rather than kept as a hidden singleton.
type PrimitiveRegistry struct {
	byName map[string]*RPrimitive
}

// NewPrimitiveRegistry returns a registry seeded with the built-in
// primitives.
func NewPrimitiveRegistry() *PrimitiveRegistry {
	r := &PrimitiveRegistry{byName: make(map[string]*RPrimitive)}
	for _, p := range []*RPrimitive{
		ObjectRPrimitive, IntRPrimitive, ShortIntRPrimitive, FloatRPrimitive,
		BoolRPrimitive, NoneRPrimitive, ListRPrimitive, DictRPrimitive,
		SetRPrimitive, StrRPrimitive, TupleRPrimitive,
	} {
		r.byName[p.TypeName] = p
	}
	return r
}

// Lookup returns the primitive registered under name.
func (r *PrimitiveRegistry) Lookup(name string) (*RPrimitive, bool) {
	p, ok := r.byName[name]
	return p, ok
}

func IsIntRPrimitive(t RType) bool      { return t == RType(IntRPrimitive) }
func IsShortIntRPrimitive(t RType) bool { return t == RType(ShortIntRPrimitive) }
func IsBoolRPrimitive(t RType) bool     { return t == RType(BoolRPrimitive) }
func IsNoneRPrimitive(t RType) bool     { return t == RType(NoneRPrimitive) }
func IsObjectRPrimitive(t RType) bool   { return t == RType(ObjectRPrimitive) }
func IsTupleRPrimitive(t RType) bool    { return t == RType(TupleRPrimitive) }

func IsFloatRPrimitive(t RType) bool {
	p, ok := t.(*RPrimitive)
	return ok && p.TypeName == "builtins.float"
}

func IsListRPrimitive(t RType) bool {
	p, ok := t.(*RPrimitive)
	return ok && p.TypeName == "builtins.list"
}

func IsStrRPrimitive(t RType) bool {
	p, ok := t.(*RPrimitive)
	return ok && p.TypeName == "builtins.str"
}

// RTuple is a fixed-length unboxed tuple, represented as a C struct. It is
// reference counted iff any element is.
type RTuple struct {
	Types []RType

	refcounted bool
	uniqueID   string
}

// NewRTuple builds a tuple type over the given element types.
func NewRTuple(types []RType) *RTuple {
	t := &RTuple{Types: types}
	for _, e := range types {
		if e.IsRefcounted() {
			t.refcounted = true
			break
		}
	}
	// A unique id derived from the concrete representations of the element
	// types names the generated C struct. C has no anonymous structural type
	// equivalence, so tuple[int, bool] must map to one struct name wherever
	// it appears.
	t.uniqueID = tupleUniqueID(t)
	return t
}

func tupleUniqueID(t RType) string {
	switch t := t.(type) {
	case *RTuple:
		var sb strings.Builder
		fmt.Fprintf(&sb, "T%d", len(t.Types))
		for _, e := range t.Types {
			sb.WriteString(tupleUniqueID(e))
		}
		return sb.String()
	case *RPrimitive:
		switch t.CRepr {
		case "CPyTagged":
			return "I"
		case "char":
			return "C"
		}
		return "O"
	default:
		return "O"
	}
}

func (t *RTuple) Name() string       { return "tuple" }
func (t *RTuple) IsUnboxed() bool    { return true }
func (t *RTuple) IsRefcounted() bool { return t.refcounted }

// UniqueID is a derived string id over the component type tags, depth first.
func (t *RTuple) UniqueID() string { return t.uniqueID }

// StructName names the generated C struct for this tuple shape.
func (t *RTuple) StructName() string { return "tuple_" + t.uniqueID }

func (t *RTuple) CType() string { return t.StructName() }

func (t *RTuple) String() string {
	items := make([]string, len(t.Types))
	for i, e := range t.Types {
		items[i] = e.String()
	}
	return fmt.Sprintf("tuple[%s]", strings.Join(items, ", "))
}

// RInstance is an instance of a user-defined class, compiled to a native
// object layout.
type RInstance struct {
	Class *ClassIR
}

func NewRInstance(class *ClassIR) *RInstance {
	return &RInstance{Class: class}
}

func (t *RInstance) Name() string       { return t.Class.FullName }
func (t *RInstance) IsUnboxed() bool    { return false }
func (t *RInstance) IsRefcounted() bool { return true }
func (t *RInstance) CType() string      { return "PyObject *" }
func (t *RInstance) String() string     { return ShortName(t.Class.FullName) }

// AttrType returns the declared type of an attribute.
func (t *RInstance) AttrType(name string) RType {
	return t.Class.AttrType(name)
}

// RUnion is union[x, ..., y]. Order of items is insignificant for equality.
type RUnion struct {
	Items []RType
}

func NewRUnion(items []RType) *RUnion {
	return &RUnion{Items: items}
}

func (t *RUnion) Name() string       { return "union" }
func (t *RUnion) IsUnboxed() bool    { return false }
func (t *RUnion) IsRefcounted() bool { return true }
func (t *RUnion) CType() string      { return "PyObject *" }

func (t *RUnion) String() string {
	items := make([]string, len(t.Items))
	for i, e := range t.Items {
		items[i] = e.String()
	}
	return fmt.Sprintf("union[%s]", strings.Join(items, ", "))
}

// itemKeySet returns the frozen multiset-insensitive key of a union's items.
func (t *RUnion) itemKeySet() map[string]bool {
	keys := make(map[string]bool, len(t.Items))
	for _, item := range t.Items {
		keys[TypeKey(item)] = true
	}
	return keys
}

// TypeKey returns a structural key for an RType, suitable for hashing and
// order-insensitive union comparison.
func TypeKey(t RType) string {
	switch t := t.(type) {
	case *RVoid:
		return "void"
	case *RPrimitive:
		return t.TypeName
	case *RInstance:
		return "instance:" + t.Class.FullName
	case *RTuple:
		parts := make([]string, len(t.Types))
		for i, e := range t.Types {
			parts[i] = TypeKey(e)
		}
		return "tuple(" + strings.Join(parts, ",") + ")"
	case *RUnion:
		keys := make([]string, 0, len(t.Items))
		for k := range t.itemKeySet() {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "union{" + strings.Join(keys, ",") + "}"
	default:
		panic(fmt.Sprintf("unknown RType %T", t))
	}
}

// RTypesEqual compares two runtime types structurally. Unions compare by
// their frozen item sets.
func RTypesEqual(a, b RType) bool {
	return TypeKey(a) == TypeKey(b)
}

// OptionalValueType returns the non-None item of a 2-item optional union,
// or nil if rtype is not an optional.
func OptionalValueType(rtype RType) RType {
	u, ok := rtype.(*RUnion)
	if !ok || len(u.Items) != 2 {
		return nil
	}
	if IsNoneRPrimitive(u.Items[0]) {
		return u.Items[1]
	}
	if IsNoneRPrimitive(u.Items[1]) {
		return u.Items[0]
	}
	return nil
}

// IsOptionalType reports whether rtype is a 2-item union with None.
func IsOptionalType(rtype RType) bool {
	return OptionalValueType(rtype) != nil
}
