package types

import (
	"keel/internal/source"
)

// Bound is one trait constraint on a generic parameter. Args carry the
// bound's own type arguments (e.g. AddAssign[V]); satisfaction is checked
// against the (trait, type) impl set, with Args substituted for rendering.
type Bound struct {
	Trait TypeID
	Args  []TypeID
}

// DefaultKind tags what a generic parameter's default refers to.
type DefaultKind uint8

const (
	DefaultNone DefaultKind = iota
	// DefaultType is a concrete type.
	DefaultType
	// DefaultParam refers to an earlier parameter in the same list.
	DefaultParam
)

// Default is a generic parameter's fallback. A DefaultParam default may only
// reference parameters declared before its owner, which fixes a single
// deterministic evaluation order.
type Default struct {
	Kind  DefaultKind
	Type  TypeID
	Param int // absolute position across Inferred ++ Explicit
}

// GenericParam is one parameter with its bounds and optional default.
// Binding is the KindTypeParam TypeID standing for the parameter inside
// declared signatures.
type GenericParam struct {
	Name    source.StringID
	Binding TypeID
	Bounds  []Bound
	Default Default
}

// GenericParamList models the separator-based parameter list as two ordered
// lists rather than per-element flags: the prefix is inferred from the call
// site, the suffix must be supplied explicitly (or defaulted).
type GenericParamList struct {
	Inferred []GenericParam
	Explicit []GenericParam
}

func (l *GenericParamList) Len() int {
	return len(l.Inferred) + len(l.Explicit)
}

// At returns the parameter at absolute position i (prefix first).
func (l *GenericParamList) At(i int) GenericParam {
	if i < len(l.Inferred) {
		return l.Inferred[i]
	}
	return l.Explicit[i-len(l.Inferred)]
}

// PositionOf returns the absolute position of the parameter bound to id,
// or -1 when id does not belong to this list.
func (l *GenericParamList) PositionOf(id TypeID) int {
	for i := 0; i < l.Len(); i++ {
		if l.At(i).Binding == id {
			return i
		}
	}
	return -1
}
