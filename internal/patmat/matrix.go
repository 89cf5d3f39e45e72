package patmat

import (
	"strings"

	"keel/internal/ast"
	"keel/internal/registry"
	"keel/internal/types"
)

// The exhaustiveness and reachability checks below are the classic pattern
// matrix recursion: specialize the matrix by a head constructor, or drop to
// the default matrix when the head row is irrefutable. The recursion is
// bounded by the finite pattern trees in the source, so no cycle handling
// is needed.

// specializeRow rewrites pats for the branch where the first column holds
// ctor c: a matching head is replaced by its sub-patterns, an irrefutable
// head by c.Arity wildcards, anything else drops the row.
func specializeRow(reg *registry.Registry, colType types.TypeID, pats []ast.Pattern, c Ctor) ([]ast.Pattern, bool) {
	head := pats[0]
	if head.IsIrrefutable() {
		out := make([]ast.Pattern, 0, c.Arity+len(pats)-1)
		for i := 0; i < c.Arity; i++ {
			out = append(out, ast.Wildcard(head.At))
		}
		return append(out, pats[1:]...), true
	}
	hc, ok := ctorOf(reg, colType, head)
	if !ok || !hc.same(c) {
		return nil, false
	}
	out := make([]ast.Pattern, 0, len(head.Subs)+len(pats)-1)
	out = append(out, head.Subs...)
	return append(out, pats[1:]...), true
}

// defaultRow keeps only rows whose head is irrefutable, dropping the head.
func defaultRow(pats []ast.Pattern) ([]ast.Pattern, bool) {
	if !pats[0].IsIrrefutable() {
		return nil, false
	}
	return pats[1:], true
}

// specializeTypes prepends the constructor's field types to the remaining
// column types.
func specializeTypes(reg *registry.Registry, colTypes []types.TypeID, c Ctor) []types.TypeID {
	fields := fieldTypes(reg, colTypes[0], c)
	out := make([]types.TypeID, 0, len(fields)+len(colTypes)-1)
	out = append(out, fields...)
	return append(out, colTypes[1:]...)
}

// headCtors collects the distinct constructors appearing at the first
// column of rows.
func headCtors(reg *registry.Registry, colType types.TypeID, rows [][]ast.Pattern) []Ctor {
	var out []Ctor
	for _, r := range rows {
		c, ok := ctorOf(reg, colType, r[0])
		if !ok {
			continue
		}
		dup := false
		for _, seen := range out {
			if seen.same(c) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// useful reports whether vector q can match a value no row of rows matches.
// Reachability of arm i is usefulness of its vector against the guard-free
// arms before it; exhaustiveness is usefulness of the all-wildcard vector.
func useful(reg *registry.Registry, colTypes []types.TypeID, rows [][]ast.Pattern, q []ast.Pattern) bool {
	if len(colTypes) == 0 || len(q) == 0 {
		return len(rows) == 0
	}
	head := q[0]
	if c, ok := ctorOf(reg, colTypes[0], head); ok {
		subTypes := specializeTypes(reg, colTypes, c)
		var subRows [][]ast.Pattern
		for _, r := range rows {
			if sr, keep := specializeRow(reg, colTypes[0], r, c); keep {
				subRows = append(subRows, sr)
			}
		}
		sq, _ := specializeRow(reg, colTypes[0], q, c)
		return useful(reg, subTypes, subRows, sq)
	}

	sig := signatureOf(reg, colTypes[0])
	heads := headCtors(reg, colTypes[0], rows)
	if !sig.open && len(heads) == len(sig.ctors) && len(sig.ctors) > 0 {
		// complete signature: q must be useful under some constructor
		for _, c := range sig.ctors {
			subTypes := specializeTypes(reg, colTypes, c)
			var subRows [][]ast.Pattern
			for _, r := range rows {
				if sr, keep := specializeRow(reg, colTypes[0], r, c); keep {
					subRows = append(subRows, sr)
				}
			}
			sq, _ := specializeRow(reg, colTypes[0], q, c)
			if useful(reg, subTypes, subRows, sq) {
				return true
			}
		}
		return false
	}

	var defRows [][]ast.Pattern
	for _, r := range rows {
		if dr, keep := defaultRow(r); keep {
			defRows = append(defRows, dr)
		}
	}
	return useful(reg, colTypes[1:], defRows, q[1:])
}

// witness is one constructor-combination example a match fails to cover.
// A nil Ctor renders as a wildcard.
type witness struct {
	ctor *Ctor
	typ  types.TypeID
	subs []witness
}

func (w witness) render(reg *registry.Registry) string {
	if w.ctor == nil {
		return "_"
	}
	base := w.ctor.render(reg, w.typ)
	if w.ctor.Arity == 0 || len(w.subs) == 0 {
		return base
	}
	parts := make([]string, len(w.subs))
	for i, s := range w.subs {
		parts[i] = s.render(reg)
	}
	inner := "(" + strings.Join(parts, ", ") + ")"
	switch w.ctor.Kind {
	case CtorTuple:
		return inner
	case CtorStruct:
		return reg.Types().Render(w.typ) + inner
	default:
		info, ok := reg.Types().EnumOf(w.typ)
		if !ok || w.ctor.Variant >= len(info.Variants) {
			return base
		}
		name, _ := reg.Strings().Lookup(info.Variants[w.ctor.Variant].Name)
		return name + inner
	}
}

// renderVector formats a multi-column witness the way arms are written.
func renderVector(reg *registry.Registry, ws []witness) string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.render(reg)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// findMissing returns up to limit constructor combinations rows fail to
// cover. An empty result means the rows are exhaustive.
func findMissing(reg *registry.Registry, colTypes []types.TypeID, rows [][]ast.Pattern, limit int) [][]witness {
	if limit <= 0 {
		return nil
	}
	if len(colTypes) == 0 {
		if len(rows) == 0 {
			return [][]witness{{}}
		}
		return nil
	}

	sig := signatureOf(reg, colTypes[0])
	heads := headCtors(reg, colTypes[0], rows)

	if !sig.open && len(heads) == len(sig.ctors) && len(sig.ctors) > 0 {
		var out [][]witness
		for i := range sig.ctors {
			c := sig.ctors[i]
			subTypes := specializeTypes(reg, colTypes, c)
			var subRows [][]ast.Pattern
			for _, r := range rows {
				if sr, keep := specializeRow(reg, colTypes[0], r, c); keep {
					subRows = append(subRows, sr)
				}
			}
			for _, sub := range findMissing(reg, subTypes, subRows, limit-len(out)) {
				w := witness{ctor: &sig.ctors[i], typ: colTypes[0], subs: sub[:c.Arity]}
				vec := append([]witness{w}, sub[c.Arity:]...)
				out = append(out, vec)
				if len(out) >= limit {
					return out
				}
			}
		}
		return out
	}

	var defRows [][]ast.Pattern
	for _, r := range rows {
		if dr, keep := defaultRow(r); keep {
			defRows = append(defRows, dr)
		}
	}
	subs := findMissing(reg, colTypes[1:], defRows, limit)
	if len(subs) == 0 {
		return nil
	}

	var out [][]witness
	if sig.open || len(sig.ctors) == 0 {
		// open space: a wildcard head is the representative example
		for _, sub := range subs {
			out = append(out, append([]witness{{typ: colTypes[0]}}, sub...))
			if len(out) >= limit {
				return out
			}
		}
		return out
	}
	// closed but incomplete: name each missing constructor explicitly
	for i := range sig.ctors {
		c := sig.ctors[i]
		covered := false
		for _, h := range heads {
			if h.same(c) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		for _, sub := range subs {
			ws := make([]witness, c.Arity)
			for k := range ws {
				fields := fieldTypes(reg, colTypes[0], c)
				ws[k] = witness{typ: fields[k]}
			}
			w := witness{ctor: &sig.ctors[i], typ: colTypes[0], subs: ws}
			out = append(out, append([]witness{w}, sub...))
			if len(out) >= limit {
				return out
			}
		}
	}
	return out
}
