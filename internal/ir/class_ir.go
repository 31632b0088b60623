package ir

import (
	"fmt"
)

// ClassIR holds the IR-level metadata of a user-defined class: its layout,
// method table and linearized MRO. ClassIR values are plain records shared
// by name across modules; cross references are resolved through DeserMaps
// during deserialization rather than owned.
type ClassIR struct {
	Name     string
	Module   string
	FullName string

	// MRO is the C3 linearization of the class and its bases. The first
	// entry is always the class itself.
	MRO []*ClassIR

	// AttrNames keeps attribute declaration order; Attributes maps each
	// name to its declared runtime type.
	AttrNames  []string
	Attributes map[string]RType

	// Methods maps method names to their declarations.
	MethodNames []string
	Methods     map[string]*FuncDecl

	IsTrait    bool
	IsAbstract bool
	IsFinal    bool
}

// NewClassIR returns an empty class record with MRO seeded to itself.
func NewClassIR(name, module string) *ClassIR {
	c := &ClassIR{
		Name:       name,
		Module:     module,
		FullName:   module + "." + name,
		Attributes: make(map[string]RType),
		Methods:    make(map[string]*FuncDecl),
	}
	c.MRO = []*ClassIR{c}
	return c
}

// AddAttribute declares an attribute with the given type.
func (c *ClassIR) AddAttribute(name string, typ RType) {
	if _, ok := c.Attributes[name]; !ok {
		c.AttrNames = append(c.AttrNames, name)
	}
	c.Attributes[name] = typ
}

// AddMethod registers a method declaration.
func (c *ClassIR) AddMethod(decl *FuncDecl) {
	if _, ok := c.Methods[decl.Name]; !ok {
		c.MethodNames = append(c.MethodNames, decl.Name)
	}
	c.Methods[decl.Name] = decl
}

// HasAttr reports whether the attribute is declared on the class or any
// class in its MRO.
func (c *ClassIR) HasAttr(name string) bool {
	for _, base := range c.MRO {
		if _, ok := base.Attributes[name]; ok {
			return true
		}
	}
	return false
}

// AttrType looks up an attribute's type through the MRO.
func (c *ClassIR) AttrType(name string) RType {
	for _, base := range c.MRO {
		if typ, ok := base.Attributes[name]; ok {
			return typ
		}
	}
	panic(fmt.Sprintf("%s has no attribute %q", c.FullName, name))
}

// MethodSig looks up a method signature through the MRO; nil if absent.
func (c *ClassIR) MethodSig(name string) *FuncSignature {
	for _, base := range c.MRO {
		if decl, ok := base.Methods[name]; ok {
			return decl.Sig
		}
	}
	return nil
}

// HasInMRO reports whether other appears in the class's MRO.
func (c *ClassIR) HasInMRO(other *ClassIR) bool {
	for _, base := range c.MRO {
		if base == other {
			return true
		}
	}
	return false
}
