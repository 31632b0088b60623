package types

// Builtins bundles the TypeInfos of the built-in classes together with the
// promotion table. The analyzer constructs one per process at startup and
// threads it through; tests build their own.
type Builtins struct {
	Object    *TypeInfo
	Int       *TypeInfo
	Bool      *TypeInfo
	Float     *TypeInfo
	Complex   *TypeInfo
	Str       *TypeInfo
	Bytes     *TypeInfo
	ByteArray *TypeInfo
	Tuple     *TypeInfo
	List      *TypeInfo
	Dict      *TypeInfo
	Set       *TypeInfo

	Promotions *PromotionTable
}

// NewBuiltins constructs the standard class hierarchy. bool subclasses int,
// as in the source language; the numeric tower is connected by promotions
// rather than inheritance.
func NewBuiltins() *Builtins {
	object := NewTypeInfo("builtins.object")
	intInfo := NewTypeInfo("builtins.int", object)
	b := &Builtins{
		Object:     object,
		Int:        intInfo,
		Bool:       NewTypeInfo("builtins.bool", intInfo),
		Float:      NewTypeInfo("builtins.float", object),
		Complex:    NewTypeInfo("builtins.complex", object),
		Str:        NewTypeInfo("builtins.str", object),
		Bytes:      NewTypeInfo("builtins.bytes", object),
		ByteArray:  NewTypeInfo("builtins.bytearray", object),
		Tuple:      NewTypeInfo("builtins.tuple", object),
		List:       NewTypeInfo("builtins.list", object),
		Dict:       NewTypeInfo("builtins.dict", object),
		Set:        NewTypeInfo("builtins.set", object),
		Promotions: NewPromotionTable(),
	}
	return b
}

// IntType returns a fresh int instance.
func (b *Builtins) IntType() *Instance { return NewInstance(b.Int, nil) }

// BoolType returns a fresh bool instance.
func (b *Builtins) BoolType() *Instance { return NewInstance(b.Bool, nil) }

// FloatType returns a fresh float instance.
func (b *Builtins) FloatType() *Instance { return NewInstance(b.Float, nil) }

// StrType returns a fresh str instance.
func (b *Builtins) StrType() *Instance { return NewInstance(b.Str, nil) }

// ObjectType returns a fresh object instance.
func (b *Builtins) ObjectType() *Instance { return NewInstance(b.Object, nil) }
