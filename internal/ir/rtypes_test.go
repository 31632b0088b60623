package ir

import (
	"testing"
)

func TestTupleRefcounting(t *testing.T) {
	tests := []struct {
		name  string
		tuple *RTuple
		want  bool
	}{
		{"all unboxed non-refcounted", NewRTuple([]RType{BoolRPrimitive, NoneRPrimitive}), false},
		{"int element is refcounted", NewRTuple([]RType{IntRPrimitive, BoolRPrimitive}), true},
		{"object element is refcounted", NewRTuple([]RType{ObjectRPrimitive, BoolRPrimitive}), true},
		{"nested refcounted tuple", NewRTuple([]RType{NewRTuple([]RType{IntRPrimitive}), BoolRPrimitive}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tuple.IsRefcounted(); got != tt.want {
				t.Errorf("IsRefcounted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTupleUniqueID(t *testing.T) {
	tup := NewRTuple([]RType{IntRPrimitive, BoolRPrimitive})
	if got := tup.UniqueID(); got != "T2IC" {
		t.Errorf("UniqueID() = %q, want %q", got, "T2IC")
	}
	nested := NewRTuple([]RType{tup, ObjectRPrimitive})
	if got := nested.UniqueID(); got != "T2T2ICO" {
		t.Errorf("UniqueID() = %q, want %q", got, "T2T2ICO")
	}
	if got := nested.StructName(); got != "tuple_T2T2ICO" {
		t.Errorf("StructName() = %q", got)
	}

	// Same shape, same id: the generated struct is shared.
	other := NewRTuple([]RType{IntRPrimitive, BoolRPrimitive})
	if other.UniqueID() != tup.UniqueID() {
		t.Error("identical shapes must produce identical ids")
	}
}

func TestUnionEqualityUsesFrozenSet(t *testing.T) {
	u1 := NewRUnion([]RType{IntRPrimitive, StrRPrimitive})
	u2 := NewRUnion([]RType{StrRPrimitive, IntRPrimitive})
	if !RTypesEqual(u1, u2) {
		t.Errorf("%s and %s must compare equal", u1, u2)
	}
	if TypeKey(u1) != TypeKey(u2) {
		t.Errorf("keys differ: %q vs %q", TypeKey(u1), TypeKey(u2))
	}
	u3 := NewRUnion([]RType{IntRPrimitive, NoneRPrimitive})
	if RTypesEqual(u1, u3) {
		t.Errorf("%s and %s must differ", u1, u3)
	}
}

func TestOptionalValueType(t *testing.T) {
	opt := NewRUnion([]RType{NoneRPrimitive, ListRPrimitive})
	if got := OptionalValueType(opt); got != RType(ListRPrimitive) {
		t.Errorf("OptionalValueType = %v, want list", got)
	}
	if !IsOptionalType(opt) {
		t.Error("union with None should be optional")
	}
	if IsOptionalType(NewRUnion([]RType{IntRPrimitive, StrRPrimitive})) {
		t.Error("union without None is not optional")
	}
	if IsOptionalType(NewRUnion([]RType{NoneRPrimitive, IntRPrimitive, StrRPrimitive})) {
		t.Error("3-item unions are not the canonical optional")
	}
}

func TestPrimitiveRegistry(t *testing.T) {
	r := NewPrimitiveRegistry()
	p, ok := r.Lookup("builtins.int")
	if !ok || p != IntRPrimitive {
		t.Errorf("Lookup(builtins.int) = %v, %v", p, ok)
	}
	if _, ok := r.Lookup("builtins.unknown"); ok {
		t.Error("unknown primitive should not resolve")
	}
}

func TestShortName(t *testing.T) {
	if got := ShortName("builtins.int"); got != "int" {
		t.Errorf("ShortName = %q", got)
	}
	if got := ShortName("m.C"); got != "m.C" {
		t.Errorf("ShortName = %q", got)
	}
}

func TestClassIRAttrLookupThroughMRO(t *testing.T) {
	base := NewClassIR("Base", "m")
	base.AddAttribute("x", IntRPrimitive)
	sub := NewClassIR("Sub", "m")
	sub.MRO = []*ClassIR{sub, base}

	if !sub.HasAttr("x") {
		t.Error("attribute should resolve through the MRO")
	}
	if got := sub.AttrType("x"); got != RType(IntRPrimitive) {
		t.Errorf("AttrType = %v", got)
	}
	if sub.HasAttr("y") {
		t.Error("undeclared attribute should not resolve")
	}
}
