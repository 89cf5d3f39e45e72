package ast

import (
	"keel/internal/source"
)

// PatternKind tags the pattern variants.
type PatternKind uint8

const (
	// PatWildcard matches anything and binds nothing.
	PatWildcard PatternKind = iota
	// PatBinding matches anything and binds the value to Name.
	PatBinding
	// PatLiteral matches one exact value.
	PatLiteral
	// PatConstructor matches one enum variant (or the single struct shape)
	// and destructures its fields.
	PatConstructor
	// PatTuple destructures a tuple positionally.
	PatTuple
)

// LitKind tags literal pattern payloads.
type LitKind uint8

const (
	LitBool LitKind = iota
	LitInt
	LitString
)

// Literal is an exact-value test. Only one of the payload fields is
// meaningful, per Kind.
type Literal struct {
	Kind LitKind
	Bool bool
	Int  int64
	Str  source.StringID
}

// Pattern is one node of a match arm's pattern tree. Each struct and enum
// variant has exactly one canonical constructor shape derived from its field
// list; the same shape serves construction and matching.
type Pattern struct {
	Kind PatternKind
	At   source.Span
	// Name is the bound variable for PatBinding.
	Name source.StringID
	// Lit is the value for PatLiteral.
	Lit Literal
	// Variant is the 0-based variant index for enum constructors; structs
	// use 0.
	Variant int
	// Subs are the ordered sub-patterns of constructors and tuples.
	Subs []Pattern
}

// Arm is one match arm: one pattern per scrutinee, an optional guard, and
// the arm's result (identified by source order; the core never evaluates
// results).
type Arm struct {
	At   source.Span
	Pats []Pattern
	// Guarded marks an arm with a boolean guard. Guarded arms never count
	// toward exhaustiveness: the guard may evaluate false at run time.
	Guarded bool
}

// Wildcard is a convenience constructor.
func Wildcard(at source.Span) Pattern {
	return Pattern{Kind: PatWildcard, At: at}
}

// Bind is a convenience constructor for binding patterns.
func Bind(name source.StringID, at source.Span) Pattern {
	return Pattern{Kind: PatBinding, At: at, Name: name}
}

// BoolLit is a convenience constructor for boolean literal patterns.
func BoolLit(v bool, at source.Span) Pattern {
	return Pattern{Kind: PatLiteral, At: at, Lit: Literal{Kind: LitBool, Bool: v}}
}

// IntLit is a convenience constructor for integer literal patterns.
func IntLit(v int64, at source.Span) Pattern {
	return Pattern{Kind: PatLiteral, At: at, Lit: Literal{Kind: LitInt, Int: v}}
}

// Ctor is a convenience constructor for variant patterns.
func Ctor(variant int, at source.Span, subs ...Pattern) Pattern {
	return Pattern{Kind: PatConstructor, At: at, Variant: variant, Subs: subs}
}

// TuplePat is a convenience constructor for tuple patterns.
func TuplePat(at source.Span, subs ...Pattern) Pattern {
	return Pattern{Kind: PatTuple, At: at, Subs: subs}
}

// IsIrrefutable reports whether the pattern matches every value of its type
// without testing anything.
func (p Pattern) IsIrrefutable() bool {
	return p.Kind == PatWildcard || p.Kind == PatBinding
}
