package ir

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// throughJSON round-trips a serialized value through encoding/json so the
// decoded shapes match what deserialization sees in practice.
func throughJSON(t *testing.T, v interface{}) interface{} {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSerializeTypeForms(t *testing.T) {
	class := NewClassIR("C", "m")
	tests := []struct {
		typ  RType
		want interface{}
	}{
		{IntRPrimitive, "builtins.int"},
		{VoidRType, "void"},
		{NewRInstance(class), "m.C"},
	}
	for _, tt := range tests {
		if got := SerializeType(tt.typ); got != tt.want {
			t.Errorf("SerializeType(%s) = %v, want %v", tt.typ, got, tt.want)
		}
	}

	tup := SerializeType(NewRTuple([]RType{IntRPrimitive, BoolRPrimitive}))
	dict, ok := tup.(JSONDict)
	if !ok || dict[".class"] != "RTuple" {
		t.Fatalf("tuple serialization = %v", tup)
	}
}

func TestDeserializeTypeRoundTrip(t *testing.T) {
	ctx := NewDeserMaps()
	class := NewClassIR("C", "m")
	ctx.Classes["m.C"] = class

	tests := []RType{
		IntRPrimitive,
		VoidRType,
		NewRInstance(class),
		NewRTuple([]RType{IntRPrimitive, NewRUnion([]RType{StrRPrimitive, NoneRPrimitive})}),
		NewRUnion([]RType{IntRPrimitive, StrRPrimitive}),
	}
	for _, typ := range tests {
		decoded := throughJSON(t, SerializeType(typ))
		got, err := DeserializeType(decoded, ctx)
		if err != nil {
			t.Fatalf("DeserializeType(%s): %v", typ, err)
		}
		if !RTypesEqual(got, typ) {
			t.Errorf("round trip of %s produced %s", typ, got)
		}
	}
}

func TestDeserializeTypeErrors(t *testing.T) {
	ctx := NewDeserMaps()

	if _, err := DeserializeType("m.Missing", ctx); err == nil {
		t.Error("unknown name must fail")
	}
	bad := throughJSON(t, JSONDict{".class": "RBogus", "types": []interface{}{}})
	_, err := DeserializeType(bad, ctx)
	if err == nil {
		t.Fatal("unknown .class must fail")
	}
	if want := "unexpected .class RBogus"; err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}

func TestThreePassDeserialization(t *testing.T) {
	// A class whose method signature mentions the class itself: pass one
	// creates the shell, pass two the functions, pass three the body.
	class := NewClassIR("Node", "m")
	class.AddAttribute("next", NewRInstance(class))
	sig := &FuncSignature{
		Args:    []RuntimeArg{{Name: "self", Type: NewRInstance(class), Kind: ArgPos}},
		RetType: NewRInstance(class),
	}
	decl := NewFuncDecl("clone", "Node", "m", sig, FuncNormal)
	fn := NewFuncIR(decl, nil, NewEnvironment("clone"), 3, "m.Node.clone")
	class.AddMethod(decl)

	classData := throughJSON(t, SerializeClassIR(class)).(map[string]interface{})
	funcData := throughJSON(t, SerializeFuncIR(fn)).(map[string]interface{})

	// Pass 1: empty shells.
	ctx := NewDeserMaps()
	ctx.Classes["m.Node"] = NewClassIR("Node", "m")

	// Pass 2: functions, which may reference classes.
	declDict := funcData["decl"].(map[string]interface{})
	name := FuncDeclNameFromJSON(declDict)
	if name != "m.Node.clone" {
		t.Fatalf("FuncDeclNameFromJSON = %q", name)
	}
	gotFn, err := DeserializeFuncIR(funcData, ctx)
	if err != nil {
		t.Fatalf("DeserializeFuncIR: %v", err)
	}
	ctx.Functions[name] = gotFn

	// Pass 3: class bodies, which reference the functions.
	gotClass, err := DeserializeClassIR(classData, ctx)
	if err != nil {
		t.Fatalf("DeserializeClassIR: %v", err)
	}

	if gotClass.FullName != "m.Node" {
		t.Errorf("FullName = %q", gotClass.FullName)
	}
	if !RTypesEqual(gotClass.AttrType("next"), NewRInstance(gotClass)) {
		t.Errorf("attribute type should point back at the class")
	}
	if gotFn.Line != 3 || gotFn.TracebackName != "m.Node.clone" {
		t.Errorf("function metadata lost: %+v", gotFn)
	}
	if gotFn.Decl.BoundSig == nil || len(gotFn.Decl.BoundSig.Args) != 0 {
		t.Errorf("bound signature should drop the receiver")
	}
	if diff := cmp.Diff([]string{"clone"}, gotClass.MethodNames); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}
	if len(gotClass.MRO) != 1 || gotClass.MRO[0] != gotClass {
		t.Errorf("MRO should be restored to the class itself")
	}
}

func TestRuntimeArgOptional(t *testing.T) {
	if (RuntimeArg{Kind: ArgPos}).Optional() {
		t.Error("positional args are required")
	}
	if !(RuntimeArg{Kind: ArgOpt}).Optional() {
		t.Error("opt args are optional")
	}
	if !(RuntimeArg{Kind: ArgNamedOpt}).Optional() {
		t.Error("named opt args are optional")
	}
}
