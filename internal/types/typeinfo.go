package types

import (
	"fmt"
)

// TypeInfo is the checker's class metadata: declared bases, linearized MRO,
// attribute and method tables and classification flags. TypeInfo values are
// plain records; inheritance is modelled through the MRO list, never
// through embedding.
type TypeInfo struct {
	FullName string
	Bases    []*TypeInfo
	// MRO is the C3 linearization. MRO[0] is the class itself unless the
	// class is ill-formed.
	MRO []*TypeInfo

	AttrNames  []string
	Attributes map[string]Type
	Methods    map[string]*CallableType

	IsProtocol        bool
	IsAbstract        bool
	IsFinal           bool
	IsNewType         bool
	DeclaredMetaclass string
	TypedDictType     bool

	// IllFormed is set when no valid C3 linearization exists.
	IllFormed bool
}

// NewTypeInfo creates class metadata and computes the MRO from the declared
// bases. A class whose bases cannot be linearized is marked ill-formed with
// an MRO of just itself.
func NewTypeInfo(fullName string, bases ...*TypeInfo) *TypeInfo {
	info := &TypeInfo{
		FullName:   fullName,
		Bases:      bases,
		Attributes: make(map[string]Type),
		Methods:    make(map[string]*CallableType),
	}
	mro, err := linearize(info)
	if err != nil {
		info.IllFormed = true
		info.MRO = []*TypeInfo{info}
	} else {
		info.MRO = mro
	}
	return info
}

// AddAttr declares an attribute.
func (info *TypeInfo) AddAttr(name string, typ Type) {
	if _, ok := info.Attributes[name]; !ok {
		info.AttrNames = append(info.AttrNames, name)
	}
	info.Attributes[name] = typ
}

// AddMethod declares a method.
func (info *TypeInfo) AddMethod(name string, sig *CallableType) {
	info.Methods[name] = sig
}

// HasBase reports whether other appears in the MRO.
func (info *TypeInfo) HasBase(other *TypeInfo) bool {
	for _, base := range info.MRO {
		if base == other {
			return true
		}
	}
	return false
}

// MemberType resolves an attribute or method through the MRO.
func (info *TypeInfo) MemberType(name string) (Type, bool) {
	for _, base := range info.MRO {
		if typ, ok := base.Attributes[name]; ok {
			return typ, true
		}
		if sig, ok := base.Methods[name]; ok {
			return sig, true
		}
	}
	return nil, false
}

// MemberNames collects all attribute and method names reachable through the
// MRO, nearest definition first.
func (info *TypeInfo) MemberNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, base := range info.MRO {
		for _, name := range base.AttrNames {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		for name := range base.Methods {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// ImplementsProtocol checks structurally whether every member the protocol
// declares is reachable through the class's MRO.
func (info *TypeInfo) ImplementsProtocol(protocol *TypeInfo) bool {
	if !protocol.IsProtocol {
		return false
	}
	for _, name := range protocol.MemberNames() {
		if _, ok := info.MemberType(name); !ok {
			return false
		}
	}
	return true
}

// linearize computes the C3 linearization of a class from its bases' MROs.
func linearize(info *TypeInfo) ([]*TypeInfo, error) {
	seqs := [][]*TypeInfo{{info}}
	for _, base := range info.Bases {
		if base.IllFormed {
			return nil, fmt.Errorf("base class %s is ill-formed", base.FullName)
		}
		seqs = append(seqs, append([]*TypeInfo(nil), base.MRO...))
	}
	if len(info.Bases) > 0 {
		seqs = append(seqs, append([]*TypeInfo(nil), info.Bases...))
	}

	var result []*TypeInfo
	for {
		nonEmpty := seqs[:0]
		for _, seq := range seqs {
			if len(seq) > 0 {
				nonEmpty = append(nonEmpty, seq)
			}
		}
		seqs = nonEmpty
		if len(seqs) == 0 {
			return result, nil
		}
		// Pick the first head that appears in no other sequence's tail.
		var next *TypeInfo
		for _, seq := range seqs {
			head := seq[0]
			inTail := false
			for _, other := range seqs {
				for _, t := range other[1:] {
					if t == head {
						inTail = true
						break
					}
				}
				if inTail {
					break
				}
			}
			if !inTail {
				next = head
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("cannot linearize bases of %s", info.FullName)
		}
		result = append(result, next)
		for i, seq := range seqs {
			if len(seq) > 0 && seq[0] == next {
				seqs[i] = seq[1:]
			}
		}
	}
}
