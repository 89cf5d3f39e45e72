package types

import (
	"fmt"

	"fortio.org/safecast"

	"keel/internal/source"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Int64   TypeID
	Float   TypeID
	String  TypeID
	Self    TypeID
}

// Interner provides stable TypeIDs. Nominal descriptors are keyed by
// (kind, module, name); structural ones by their element IDs. The interner
// is filled during the construction phase and read-only afterwards.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	strings  *source.Interner

	structs []StructInfo
	enums   []EnumInfo
	traits  []TraitInfo
	tuples  []TupleInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
// Names are interned through strings so diagnostics can render them.
func NewInterner(strings *source.Interner) *Interner {
	in := &Interner{
		index:   make(map[typeKey]TypeID, 64),
		strings: strings,
	}
	// index 0 of every side table is the invalid sentinel
	in.structs = append(in.structs, StructInfo{})
	in.enums = append(in.enums, EnumInfo{})
	in.traits = append(in.traits, TraitInfo{})
	in.tuples = append(in.tuples, TupleInfo{})

	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.builtin("unit")
	in.builtins.Bool = in.builtin("bool")
	in.builtins.Int = in.builtin("int")
	in.builtins.Int64 = in.builtin("int64")
	in.builtins.Float = in.builtin("float")
	in.builtins.String = in.builtin("string")
	in.builtins.Self = in.internRaw(Type{Kind: KindSelf, Name: strings.Intern("Self")})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Strings exposes the shared name interner.
func (in *Interner) Strings() *source.Interner {
	return in.strings
}

func (in *Interner) builtin(name string) TypeID {
	return in.internRaw(Type{Kind: KindBuiltin, Name: in.strings.Intern(name)})
}

func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[keyOf(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return t
}

func (in *Interner) Len() int {
	return len(in.types)
}

// NewStruct interns a nominal struct type with its canonical field list.
func (in *Interner) NewStruct(module, name source.StringID, fields []Field, opaque bool) TypeID {
	payload := uint32(len(in.structs))
	in.structs = append(in.structs, StructInfo{Fields: fields})
	return in.internNominal(Type{
		Kind:    KindStruct,
		Name:    name,
		Module:  module,
		Opaque:  opaque,
		Payload: payload,
	})
}

// NewEnum interns a nominal enum type with its ordered variant list.
func (in *Interner) NewEnum(module, name source.StringID, variants []Variant, opaque bool) TypeID {
	payload := uint32(len(in.enums))
	in.enums = append(in.enums, EnumInfo{Variants: variants})
	return in.internNominal(Type{
		Kind:    KindEnum,
		Name:    name,
		Module:  module,
		Opaque:  opaque,
		Payload: payload,
	})
}

// NewTrait interns a trait declaration with its ordered method signatures.
func (in *Interner) NewTrait(module, name source.StringID, methods []MethodSig) TypeID {
	payload := uint32(len(in.traits))
	in.traits = append(in.traits, TraitInfo{Methods: methods})
	return in.internNominal(Type{
		Kind:    KindTrait,
		Name:    name,
		Module:  module,
		Payload: payload,
	})
}

// NewTypeParam interns a fresh generic-parameter placeholder. Type params are
// never deduplicated: two parameters with the same name in different lists
// are distinct types.
func (in *Interner) NewTypeParam(name source.StringID) TypeID {
	return in.internRaw(Type{Kind: KindTypeParam, Name: name, Payload: uint32(len(in.types))})
}

// Tuple interns the structural tuple of elems.
func (in *Interner) Tuple(elems []TypeID) TypeID {
	t := Type{Kind: KindTuple}
	key := keyOf(t)
	key.Elems = tupleKey(elems)
	if id, ok := in.index[key]; ok {
		return id
	}
	t.Payload = uint32(len(in.tuples))
	in.tuples = append(in.tuples, TupleInfo{Elems: elems})
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

// Option interns the option wrapper over elem.
func (in *Interner) Option(elem TypeID) TypeID {
	return in.wrapper(KindOption, elem)
}

// Result interns the result wrapper over elem.
func (in *Interner) Result(elem TypeID) TypeID {
	return in.wrapper(KindResult, elem)
}

func (in *Interner) wrapper(kind Kind, elem TypeID) TypeID {
	t := Type{Kind: kind, Payload: uint32(elem)}
	if id, ok := in.index[keyOf(t)]; ok {
		return id
	}
	return in.internRaw(t)
}

func (in *Interner) internNominal(t Type) TypeID {
	key := keyOf(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// StructOf returns the field list for a struct TypeID.
func (in *Interner) StructOf(id TypeID) (*StructInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindStruct {
		return nil, false
	}
	return &in.structs[t.Payload], true
}

// EnumOf returns the variant list for an enum TypeID.
func (in *Interner) EnumOf(id TypeID) (*EnumInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindEnum {
		return nil, false
	}
	return &in.enums[t.Payload], true
}

// TraitOf returns the method signatures for a trait TypeID.
func (in *Interner) TraitOf(id TypeID) (*TraitInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTrait {
		return nil, false
	}
	return &in.traits[t.Payload], true
}

// TupleOf returns the element list for a tuple TypeID.
func (in *Interner) TupleOf(id TypeID) (*TupleInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTuple {
		return nil, false
	}
	return &in.tuples[t.Payload], true
}

// Elem returns the element type of an option/result wrapper.
func (in *Interner) Elem(id TypeID) (TypeID, bool) {
	t, ok := in.Lookup(id)
	if !ok || (t.Kind != KindOption && t.Kind != KindResult) {
		return NoTypeID, false
	}
	return TypeID(t.Payload), true
}

// Fallible reports whether id is an error-union/optional kind. Implicit
// conversion functions must not return a fallible type.
func (in *Interner) Fallible(id TypeID) bool {
	t, ok := in.Lookup(id)
	return ok && (t.Kind == KindOption || t.Kind == KindResult)
}

type typeKey struct {
	Kind    Kind
	Name    source.StringID
	Module  source.StringID
	Payload uint32
	Elems   string
}

func keyOf(t Type) typeKey {
	k := typeKey{Kind: t.Kind, Name: t.Name, Module: t.Module}
	switch t.Kind {
	case KindOption, KindResult, KindTypeParam:
		// wrappers key on the element; type params key on their slot,
		// which keeps every NewTypeParam call distinct
		k.Payload = t.Payload
	default:
	}
	return k
}

func tupleKey(elems []TypeID) string {
	b := make([]byte, 0, len(elems)*4)
	for _, e := range elems {
		b = append(b, byte(e), byte(e>>8), byte(e>>16), byte(e>>24))
	}
	return string(b)
}
