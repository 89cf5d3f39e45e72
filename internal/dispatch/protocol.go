package dispatch

import (
	"keel/internal/diag"
	"keel/internal/types"
)

// CompareOp selects between equality and ordering resolution.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpCmp
)

// Well-known comparison method names. Total contexts (the == and < operator
// families) resolve only the total methods; an explicit partial-comparison
// call resolves the try_ variants.
const (
	MethodEq     = "eq"
	MethodCmp    = "cmp"
	MethodTryEq  = "try_eq"
	MethodTryCmp = "try_cmp"
)

// CompareMethod returns the method name a comparison context resolves.
func CompareMethod(op CompareOp, total bool) string {
	switch {
	case op == OpEq && total:
		return MethodEq
	case op == OpEq:
		return MethodTryEq
	case total:
		return MethodCmp
	default:
		return MethodTryCmp
	}
}

// ResolveCompare resolves a comparison against trait. Total and partial
// comparison live on distinct traits, so a type with only the partial trait
// is simply absent from the total trait's impl set and yields
// NoApplicableImpl there; no extra filtering is needed.
func (rv *Resolver) ResolveCompare(trait types.TypeID, op CompareOp, total bool, args []types.TypeID, depth int) (ResolvedCall, error) {
	name, ok := rv.Reg.Strings().ID(CompareMethod(op, total))
	if !ok {
		// the method name was never declared anywhere, so no impl can match
		return ResolvedCall{}, &Error{
			Code: diag.DisNoApplicableImpl,
			Msg: "no impl of " + rv.Reg.Types().Render(trait) + "." +
				CompareMethod(op, total) + " applies",
		}
	}
	return rv.Resolve(Request{
		Trait:  trait,
		Method: name,
		Args:   args,
		Depth:  depth,
	})
}
