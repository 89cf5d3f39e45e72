package types

import (
	"keel/internal/source"
)

// State is the raw interner contents, exported for registry snapshots.
// StringID fields refer to the companion string table saved alongside.
type State struct {
	Types   []Type
	Structs []StructInfo
	Enums   []EnumInfo
	Traits  []TraitInfo
	Tuples  []TupleInfo
}

// State exports the interner's raw tables.
func (in *Interner) State() State {
	return State{
		Types:   in.types,
		Structs: in.structs,
		Enums:   in.enums,
		Traits:  in.traits,
		Tuples:  in.tuples,
	}
}

// RestoreInterner rebuilds an interner from exported state. The builtins
// occupy the same leading slots NewInterner seeds, so Builtins() stays valid.
func RestoreInterner(strings *source.Interner, st State) *Interner {
	in := NewInterner(strings)
	if len(st.Types) < in.Len() {
		// snapshot predates even the builtin seed; treat as empty
		return in
	}
	in.types = st.Types
	in.structs = st.Structs
	in.enums = st.Enums
	in.traits = st.Traits
	in.tuples = st.Tuples
	in.index = make(map[typeKey]TypeID, len(st.Types))
	for i, t := range st.Types {
		key := keyOf(t)
		if t.Kind == KindTuple {
			key.Elems = tupleKey(in.tuples[t.Payload].Elems)
		}
		in.index[key] = TypeID(i)
	}
	return in
}
