package types

import (
	"keel/internal/source"
)

// TypeID identifies an interned type descriptor. ID 0 is the invalid sentinel.
type TypeID uint32

const NoTypeID TypeID = 0

// Kind classifies a type descriptor.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindBuiltin covers primitives seeded by the interner (bool, int, ...).
	KindBuiltin
	// KindStruct is a nominal record with an ordered field list.
	KindStruct
	// KindEnum is a sum type with an ordered variant list.
	KindEnum
	// KindTrait names a set of method signatures types may implement.
	KindTrait
	// KindTypeParam is an unresolved generic parameter.
	KindTypeParam
	// KindSelf is the placeholder for the implementing type inside trait
	// method signatures; substituted at impl registration and dispatch time.
	KindSelf
	// KindTuple is an anonymous positional product.
	KindTuple
	// KindOption wraps an element type with an absent alternative.
	KindOption
	// KindResult wraps an element type with an error alternative.
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindTypeParam:
		return "type-param"
	case KindSelf:
		return "Self"
	case KindTuple:
		return "tuple"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	}
	return "invalid"
}

// Type is the interned descriptor. Nominal kinds key on (Module, Name);
// structural kinds (tuple, option, result) key on their element IDs.
type Type struct {
	Kind   Kind
	Name   source.StringID
	Module source.StringID
	// Opaque limits construction, matching and field access to Module.
	Opaque bool
	// Payload indexes a side table for struct/enum/trait kinds, holds the
	// element TypeID for option/result, and the tuple table index for tuples.
	Payload uint32
}

// Field is one named struct field.
type Field struct {
	Name source.StringID
	Type TypeID
}

// StructInfo is the canonical constructor shape of a struct: its ordered
// field list. The same shape serves construction and pattern matching.
type StructInfo struct {
	Fields []Field
}

// Variant is one enum alternative with an ordered payload.
type Variant struct {
	Name   source.StringID
	Fields []TypeID
}

// EnumInfo lists an enum's variants in declaration order.
type EnumInfo struct {
	Variants []Variant
}

// TupleInfo stores the element list of a tuple type.
type TupleInfo struct {
	Elems []TypeID
}

// MethodSig is one trait method signature. Params may mention KindSelf and
// the method's own generic parameters.
type MethodSig struct {
	Name     source.StringID
	Params   []TypeID
	Result   TypeID
	Generics *GenericParamList // nil when the method is not generic
}

// TraitInfo holds a trait's ordered method signatures.
type TraitInfo struct {
	Methods []MethodSig
}

// Method returns the signature named name, if declared.
func (ti *TraitInfo) Method(name source.StringID) (MethodSig, bool) {
	for _, m := range ti.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSig{}, false
}
