package patmat

import (
	"fmt"

	"keel/internal/ast"
	"keel/internal/registry"
	"keel/internal/source"
	"keel/internal/types"
)

// CtorKind tags the constructor tests a switch can perform.
type CtorKind uint8

const (
	// CtorVariant is one enum alternative.
	CtorVariant CtorKind = iota
	// CtorStruct is a struct's single canonical shape.
	CtorStruct
	// CtorTuple is a tuple's single shape.
	CtorTuple
	// CtorBool is a boolean literal.
	CtorBool
	// CtorInt is an exact integer literal.
	CtorInt
	// CtorString is an exact string literal.
	CtorString
)

// Ctor identifies one constructor of a scrutinee type, with its arity.
type Ctor struct {
	Kind    CtorKind
	Variant int
	Bool    bool
	Int     int64
	Str     source.StringID
	Arity   int
}

func (c Ctor) same(o Ctor) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case CtorVariant:
		return c.Variant == o.Variant
	case CtorBool:
		return c.Bool == o.Bool
	case CtorInt:
		return c.Int == o.Int
	case CtorString:
		return c.Str == o.Str
	default:
		return true
	}
}

// signature describes a type's constructor space: the full set when it is
// finite, or open when only a wildcard can complete it (int and string
// literals).
type signature struct {
	open  bool
	ctors []Ctor
}

// signatureOf derives the constructor space of t from the registry's shape
// information.
func signatureOf(reg *registry.Registry, t types.TypeID) signature {
	tn := reg.Types()
	desc, ok := tn.Lookup(t)
	if !ok {
		return signature{open: true}
	}
	switch desc.Kind {
	case types.KindEnum:
		info, _ := tn.EnumOf(t)
		sig := signature{ctors: make([]Ctor, len(info.Variants))}
		for i, v := range info.Variants {
			sig.ctors[i] = Ctor{Kind: CtorVariant, Variant: i, Arity: len(v.Fields)}
		}
		return sig
	case types.KindStruct:
		info, _ := tn.StructOf(t)
		return signature{ctors: []Ctor{{Kind: CtorStruct, Arity: len(info.Fields)}}}
	case types.KindTuple:
		info, _ := tn.TupleOf(t)
		return signature{ctors: []Ctor{{Kind: CtorTuple, Arity: len(info.Elems)}}}
	case types.KindBuiltin:
		if t == tn.Builtins().Bool {
			return signature{ctors: []Ctor{
				{Kind: CtorBool, Bool: false},
				{Kind: CtorBool, Bool: true},
			}}
		}
		return signature{open: true}
	default:
		return signature{open: true}
	}
}

// fieldTypes returns the sub-value types exposed by matching ctor against a
// value of type t.
func fieldTypes(reg *registry.Registry, t types.TypeID, c Ctor) []types.TypeID {
	tn := reg.Types()
	switch c.Kind {
	case CtorVariant:
		info, ok := tn.EnumOf(t)
		if !ok || c.Variant >= len(info.Variants) {
			return nil
		}
		return info.Variants[c.Variant].Fields
	case CtorStruct:
		info, ok := tn.StructOf(t)
		if !ok {
			return nil
		}
		out := make([]types.TypeID, len(info.Fields))
		for i, f := range info.Fields {
			out[i] = f.Type
		}
		return out
	case CtorTuple:
		info, ok := tn.TupleOf(t)
		if !ok {
			return nil
		}
		return info.Elems
	default:
		return nil
	}
}

// ctorOf maps a refutable pattern head to its constructor, using the column
// type for shape information.
func ctorOf(reg *registry.Registry, t types.TypeID, p ast.Pattern) (Ctor, bool) {
	tn := reg.Types()
	switch p.Kind {
	case ast.PatConstructor:
		desc, ok := tn.Lookup(t)
		if !ok {
			return Ctor{}, false
		}
		if desc.Kind == types.KindEnum {
			return Ctor{Kind: CtorVariant, Variant: p.Variant, Arity: len(p.Subs)}, true
		}
		return Ctor{Kind: CtorStruct, Arity: len(p.Subs)}, true
	case ast.PatTuple:
		return Ctor{Kind: CtorTuple, Arity: len(p.Subs)}, true
	case ast.PatLiteral:
		switch p.Lit.Kind {
		case ast.LitBool:
			return Ctor{Kind: CtorBool, Bool: p.Lit.Bool}, true
		case ast.LitInt:
			return Ctor{Kind: CtorInt, Int: p.Lit.Int}, true
		default:
			return Ctor{Kind: CtorString, Str: p.Lit.Str}, true
		}
	default:
		return Ctor{}, false
	}
}

// render formats a constructor for NonExhaustiveMatch witnesses.
func (c Ctor) render(reg *registry.Registry, t types.TypeID) string {
	tn := reg.Types()
	switch c.Kind {
	case CtorVariant:
		info, ok := tn.EnumOf(t)
		if !ok || c.Variant >= len(info.Variants) {
			return fmt.Sprintf("<variant %d>", c.Variant)
		}
		name, _ := reg.Strings().Lookup(info.Variants[c.Variant].Name)
		if c.Arity > 0 {
			return name + "(..)"
		}
		return name
	case CtorStruct:
		return tn.Render(t) + "{..}"
	case CtorTuple:
		return "(..)"
	case CtorBool:
		if c.Bool {
			return "true"
		}
		return "false"
	case CtorInt:
		return fmt.Sprintf("%d", c.Int)
	case CtorString:
		s, _ := reg.Strings().Lookup(c.Str)
		return fmt.Sprintf("%q", s)
	}
	return "_"
}
