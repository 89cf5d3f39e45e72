package registry

import (
	"fmt"
	"sort"

	"keel/internal/diag"
	"keel/internal/types"
)

// ConversionEdge is one implicit, infallible conversion From -> To, backed
// by the implicit-constructor method Method of impl Impl.
type ConversionEdge struct {
	From   types.TypeID
	To     types.TypeID
	Impl   ImplID
	Method int // index into the impl's method table
}

type convKey struct {
	from types.TypeID
	to   types.TypeID
}

// ConversionTable is the direct-edge lookup for implicit conversions.
// Lookups never chain; the table exists so a call site pays for at most one
// conversion per argument and the cost stays predictable.
type ConversionTable struct {
	edges map[convKey]ConversionEdge
}

// Find returns the edge from -> to, if registered.
func (ct *ConversionTable) Find(from, to types.TypeID) (ConversionEdge, bool) {
	e, ok := ct.edges[convKey{from: from, to: to}]
	return e, ok
}

func (ct *ConversionTable) Len() int {
	return len(ct.edges)
}

// Edges returns all edges sorted by (from, to) for deterministic output.
func (ct *ConversionTable) Edges() []ConversionEdge {
	out := make([]ConversionEdge, 0, len(ct.edges))
	for _, e := range ct.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// build scans every impl for implicit-constructor methods and records the
// edges. Direct, non-chaining lookups make cycles structurally harmless, but
// the acyclicity invariant is still enforced so a second conversion source
// added later cannot silently break termination guarantees.
func (ct *ConversionTable) build(r *Registry) error {
	ct.edges = make(map[convKey]ConversionEdge)
	for i := range r.impls {
		im := &r.impls[i]
		for mi, m := range im.Methods {
			if !m.Implicit {
				continue
			}
			if len(m.Params) != 1 {
				continue // implicit constructors are single-argument by definition
			}
			from, to := m.Params[0], im.Type
			if r.interner.Fallible(m.Result) {
				return &Error{
					Code: diag.RegFallibleEdge,
					Msg: fmt.Sprintf("implicit conversion %s -> %s returns a fallible type",
						r.interner.Render(from), r.interner.Render(to)),
					Span: im.Span,
				}
			}
			if from == to {
				return &Error{
					Code: diag.RegConversionCycle,
					Msg: fmt.Sprintf("reflexive implicit conversion on %s",
						r.interner.Render(to)),
					Span: im.Span,
				}
			}
			key := convKey{from: from, to: to}
			if _, dup := ct.edges[key]; dup {
				return &Error{
					Code: diag.RegDuplicateEdge,
					Msg: fmt.Sprintf("duplicate implicit conversion %s -> %s",
						r.interner.Render(from), r.interner.Render(to)),
					Span: im.Span,
				}
			}
			ct.edges[key] = ConversionEdge{From: from, To: to, Impl: im.ID, Method: mi}
		}
	}
	if cycle := ct.findCycle(); cycle != types.NoTypeID {
		return &Error{
			Code: diag.RegConversionCycle,
			Msg: fmt.Sprintf("implicit conversions form a cycle through %s",
				r.interner.Render(cycle)),
		}
	}
	return nil
}

// findCycle runs a three-color DFS over the edge graph and returns a type
// on a cycle, or NoTypeID.
func (ct *ConversionTable) findCycle() types.TypeID {
	succ := make(map[types.TypeID][]types.TypeID)
	for k := range ct.edges {
		succ[k.from] = append(succ[k.from], k.to)
	}
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[types.TypeID]int, len(succ))
	roots := make([]types.TypeID, 0, len(succ))
	for from := range succ {
		roots = append(roots, from)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	var visit func(n types.TypeID) types.TypeID
	visit = func(n types.TypeID) types.TypeID {
		color[n] = gray
		for _, next := range succ[n] {
			switch color[next] {
			case gray:
				return next
			case white:
				if c := visit(next); c != types.NoTypeID {
					return c
				}
			}
		}
		color[n] = black
		return types.NoTypeID
	}
	for _, root := range roots {
		if color[root] == white {
			if c := visit(root); c != types.NoTypeID {
				return c
			}
		}
	}
	return types.NoTypeID
}
