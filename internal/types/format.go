package types

import (
	"strings"
)

// Render returns a human-readable name for id, used in diagnostics.
func (in *Interner) Render(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindBuiltin, KindStruct, KindEnum, KindTrait, KindTypeParam, KindSelf:
		name, _ := in.strings.Lookup(t.Name)
		if name == "" {
			return "<anon>"
		}
		return name
	case KindTuple:
		info := in.tuples[t.Payload]
		parts := make([]string, len(info.Elems))
		for i, e := range info.Elems {
			parts[i] = in.Render(e)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindOption:
		return in.Render(TypeID(t.Payload)) + "?"
	case KindResult:
		return in.Render(TypeID(t.Payload)) + "!"
	}
	return "<invalid>"
}

// RenderBound formats a trait bound with its type arguments.
func (in *Interner) RenderBound(b Bound) string {
	s := in.Render(b.Trait)
	if len(b.Args) == 0 {
		return s
	}
	parts := make([]string, len(b.Args))
	for i, a := range b.Args {
		parts[i] = in.Render(a)
	}
	return s + "[" + strings.Join(parts, ", ") + "]"
}
