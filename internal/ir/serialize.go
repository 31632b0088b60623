package ir

import (
	"fmt"
)

// JSON serialization of IR declarations.
//
// Deserialization resolves name references with a three-pass scheme:
//
//  1. Create an empty ClassIR shell for each class in the group.
//  2. Deserialize the function declarations and signatures, which may
//     reference classes in their types.
//  3. Deserialize the class bodies, which reference the functions they
//     contain (and other classes).
//
// The maps needed for that are carried in a DeserMaps, passed to every
// deserialization function.

// JSONDict is the generic decoded form of a serialized object.
type JSONDict = map[string]interface{}

// DeserMaps tracks the named objects reachable during deserialization.
type DeserMaps struct {
	Classes    map[string]*ClassIR
	Functions  map[string]*FuncIR
	Primitives *PrimitiveRegistry
}

// NewDeserMaps returns empty maps over the default primitive registry.
func NewDeserMaps() *DeserMaps {
	return &DeserMaps{
		Classes:    make(map[string]*ClassIR),
		Functions:  make(map[string]*FuncIR),
		Primitives: NewPrimitiveRegistry(),
	}
}

// SerializeType encodes an RType. Primitives serialize as their bare name,
// void as "void", instances as the class's full name; tuples and unions as
// objects with a ".class" discriminator.
func SerializeType(t RType) interface{} {
	switch t := t.(type) {
	case *RVoid:
		return "void"
	case *RPrimitive:
		return t.TypeName
	case *RInstance:
		return t.Class.FullName
	case *RTuple:
		types := make([]interface{}, len(t.Types))
		for i, e := range t.Types {
			types[i] = SerializeType(e)
		}
		return JSONDict{".class": "RTuple", "types": types}
	case *RUnion:
		types := make([]interface{}, len(t.Items))
		for i, e := range t.Items {
			types[i] = SerializeType(e)
		}
		return JSONDict{".class": "RUnion", "types": types}
	default:
		panic(fmt.Sprintf("cannot serialize %T instance", t))
	}
}

// DeserializeType decodes the result of SerializeType.
func DeserializeType(data interface{}, ctx *DeserMaps) (RType, error) {
	switch data := data.(type) {
	case string:
		if class, ok := ctx.Classes[data]; ok {
			return NewRInstance(class), nil
		}
		if prim, ok := ctx.Primitives.Lookup(data); ok {
			return prim, nil
		}
		if data == "void" {
			return VoidRType, nil
		}
		return nil, fmt.Errorf("can't find class %s", data)
	case JSONDict:
		class, _ := data[".class"].(string)
		switch class {
		case "RTuple":
			types, err := deserializeTypeList(data["types"], ctx)
			if err != nil {
				return nil, err
			}
			return NewRTuple(types), nil
		case "RUnion":
			types, err := deserializeTypeList(data["types"], ctx)
			if err != nil {
				return nil, err
			}
			return NewRUnion(types), nil
		}
		return nil, fmt.Errorf("unexpected .class %v", data[".class"])
	}
	return nil, fmt.Errorf("unexpected serialized type %T", data)
}

func deserializeTypeList(data interface{}, ctx *DeserMaps) ([]RType, error) {
	items, ok := data.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a type list, got %T", data)
	}
	types := make([]RType, len(items))
	for i, item := range items {
		t, err := DeserializeType(item, ctx)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}

// SerializeRuntimeArg encodes one parameter.
func SerializeRuntimeArg(a RuntimeArg) JSONDict {
	return JSONDict{"name": a.Name, "type": SerializeType(a.Type), "kind": a.Kind}
}

// DeserializeRuntimeArg decodes one parameter.
func DeserializeRuntimeArg(data JSONDict, ctx *DeserMaps) (RuntimeArg, error) {
	typ, err := DeserializeType(data["type"], ctx)
	if err != nil {
		return RuntimeArg{}, err
	}
	return RuntimeArg{
		Name: stringField(data, "name"),
		Type: typ,
		Kind: intField(data, "kind"),
	}, nil
}

// SerializeFuncSignature encodes a signature.
func SerializeFuncSignature(sig *FuncSignature) JSONDict {
	args := make([]interface{}, len(sig.Args))
	for i, a := range sig.Args {
		args[i] = SerializeRuntimeArg(a)
	}
	return JSONDict{"args": args, "ret_type": SerializeType(sig.RetType)}
}

// DeserializeFuncSignature decodes a signature.
func DeserializeFuncSignature(data JSONDict, ctx *DeserMaps) (*FuncSignature, error) {
	rawArgs, ok := data["args"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an argument list, got %T", data["args"])
	}
	args := make([]RuntimeArg, len(rawArgs))
	for i, raw := range rawArgs {
		dict, ok := raw.(JSONDict)
		if !ok {
			return nil, fmt.Errorf("expected an argument object, got %T", raw)
		}
		arg, err := DeserializeRuntimeArg(dict, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	ret, err := DeserializeType(data["ret_type"], ctx)
	if err != nil {
		return nil, err
	}
	return &FuncSignature{Args: args, RetType: ret}, nil
}

// SerializeFuncDecl encodes a declaration.
func SerializeFuncDecl(d *FuncDecl) JSONDict {
	return JSONDict{
		"name":           d.Name,
		"class_name":     d.ClassName,
		"module_name":    d.ModuleName,
		"sig":            SerializeFuncSignature(d.Sig),
		"kind":           d.Kind,
		"is_prop_setter": d.IsPropSetter,
		"is_prop_getter": d.IsPropGetter,
	}
}

// FuncDeclNameFromJSON recovers a declaration's full name without fully
// decoding it, for building the function map ahead of pass three.
func FuncDeclNameFromJSON(data JSONDict) string {
	name := stringField(data, "name")
	if class := stringField(data, "class_name"); class != "" {
		name = class + "." + name
	}
	return stringField(data, "module_name") + "." + name
}

// DeserializeFuncDecl decodes a declaration.
func DeserializeFuncDecl(data JSONDict, ctx *DeserMaps) (*FuncDecl, error) {
	sigDict, ok := data["sig"].(JSONDict)
	if !ok {
		return nil, fmt.Errorf("expected a signature object, got %T", data["sig"])
	}
	sig, err := DeserializeFuncSignature(sigDict, ctx)
	if err != nil {
		return nil, err
	}
	d := NewFuncDecl(
		stringField(data, "name"),
		stringField(data, "class_name"),
		stringField(data, "module_name"),
		sig,
		intField(data, "kind"),
	)
	d.IsPropSetter = boolField(data, "is_prop_setter")
	d.IsPropGetter = boolField(data, "is_prop_getter")
	return d, nil
}

// SerializeFuncIR encodes a function. Blocks and environment are not
// included; they are rebuilt by lowering when needed.
func SerializeFuncIR(f *FuncIR) JSONDict {
	return JSONDict{
		"decl":           SerializeFuncDecl(f.Decl),
		"line":           f.Line,
		"traceback_name": f.TracebackName,
	}
}

// DeserializeFuncIR decodes a function shell.
func DeserializeFuncIR(data JSONDict, ctx *DeserMaps) (*FuncIR, error) {
	declDict, ok := data["decl"].(JSONDict)
	if !ok {
		return nil, fmt.Errorf("expected a decl object, got %T", data["decl"])
	}
	decl, err := DeserializeFuncDecl(declDict, ctx)
	if err != nil {
		return nil, err
	}
	return NewFuncIR(
		decl,
		nil,
		NewEnvironment(decl.Name),
		intField(data, "line"),
		stringField(data, "traceback_name"),
	), nil
}

// SerializeClassIR encodes a class body: attribute and method tables plus
// the MRO as a name list.
func SerializeClassIR(c *ClassIR) JSONDict {
	attrs := make([]interface{}, 0, len(c.AttrNames))
	for _, name := range c.AttrNames {
		attrs = append(attrs, JSONDict{"name": name, "type": SerializeType(c.Attributes[name])})
	}
	methods := make([]interface{}, 0, len(c.MethodNames))
	for _, name := range c.MethodNames {
		methods = append(methods, c.Methods[name].FullName())
	}
	mro := make([]interface{}, len(c.MRO))
	for i, base := range c.MRO {
		mro[i] = base.FullName
	}
	return JSONDict{
		"name":        c.Name,
		"module":      c.Module,
		"attributes":  attrs,
		"methods":     methods,
		"mro":         mro,
		"is_trait":    c.IsTrait,
		"is_abstract": c.IsAbstract,
		"is_final":    c.IsFinal,
	}
}

// DeserializeClassIR fills in the body of the already-created shell for
// this class (pass three).
func DeserializeClassIR(data JSONDict, ctx *DeserMaps) (*ClassIR, error) {
	fullName := stringField(data, "module") + "." + stringField(data, "name")
	c, ok := ctx.Classes[fullName]
	if !ok {
		return nil, fmt.Errorf("can't find class %s", fullName)
	}
	if attrs, ok := data["attributes"].([]interface{}); ok {
		for _, raw := range attrs {
			dict, ok := raw.(JSONDict)
			if !ok {
				return nil, fmt.Errorf("expected an attribute object, got %T", raw)
			}
			typ, err := DeserializeType(dict["type"], ctx)
			if err != nil {
				return nil, err
			}
			c.AddAttribute(stringField(dict, "name"), typ)
		}
	}
	if methods, ok := data["methods"].([]interface{}); ok {
		for _, raw := range methods {
			name, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("expected a method name, got %T", raw)
			}
			fn, ok := ctx.Functions[name]
			if !ok {
				return nil, fmt.Errorf("can't find function %s", name)
			}
			c.AddMethod(fn.Decl)
		}
	}
	if mro, ok := data["mro"].([]interface{}); ok {
		c.MRO = c.MRO[:0]
		for _, raw := range mro {
			name, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("expected a class name, got %T", raw)
			}
			base, ok := ctx.Classes[name]
			if !ok {
				return nil, fmt.Errorf("can't find class %s", name)
			}
			c.MRO = append(c.MRO, base)
		}
	}
	c.IsTrait = boolField(data, "is_trait")
	c.IsAbstract = boolField(data, "is_abstract")
	c.IsFinal = boolField(data, "is_final")
	return c, nil
}

func stringField(data JSONDict, key string) string {
	s, _ := data[key].(string)
	return s
}

func intField(data JSONDict, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func boolField(data JSONDict, key string) bool {
	b, _ := data[key].(bool)
	return b
}
