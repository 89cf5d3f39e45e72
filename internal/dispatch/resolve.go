// Package dispatch implements restricted multiple dispatch: compile-time
// selection of exactly one impl method of a named trait, scored by the joint
// static types of all arguments. There is no runtime tag; the winner is baked
// into the annotated call.
package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"keel/internal/diag"
	"keel/internal/generics"
	"keel/internal/registry"
	"keel/internal/source"
	"keel/internal/types"
)

// MatchKind ranks how one argument matched one declared parameter.
// Higher is tighter; the ordering drives the specificity tie-break.
type MatchKind uint8

const (
	MatchNone MatchKind = iota
	// MatchConverted required one implicit conversion edge.
	MatchConverted
	// MatchBound matched through a generic parameter's bound satisfaction.
	MatchBound
	// MatchExact is type identity.
	MatchExact
)

// ArgConversion is a conversion node the resolver materializes around one
// mismatched argument of the winning call.
type ArgConversion struct {
	Index int
	Edge  registry.ConversionEdge
}

// ResolvedCall is the annotation handed to code generation: the unique
// winning impl, the conversions to insert, and the generic binding.
type ResolvedCall struct {
	Impl        registry.ImplID
	Type        types.TypeID
	Method      source.StringID
	Conversions []ArgConversion
	Binding     generics.Binding
	Result      types.TypeID
}

// CandidateRef names one impl in ambiguity diagnostics.
type CandidateRef struct {
	Impl registry.ImplID
	Type types.TypeID
}

// Error is a resolution failure. Candidates is populated for ambiguity so
// the user can see the tied set without re-deriving it.
type Error struct {
	Code       diag.Code
	Msg        string
	Candidates []CandidateRef
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Resolver selects impl methods against a sealed registry. It is a pure
// function of its inputs and safe for concurrent use.
type Resolver struct {
	Reg    *registry.Registry
	Binder *generics.Binder
}

func NewResolver(reg *registry.Registry, binder *generics.Binder) *Resolver {
	return &Resolver{Reg: reg, Binder: binder}
}

// Request is one call to resolve.
type Request struct {
	Trait  types.TypeID
	Method source.StringID
	// Args are the static argument types at the call site.
	Args []types.TypeID
	// Explicit are explicit generic arguments, if the call carries any.
	Explicit []types.TypeID
	// Expected is the context's expected result type, NoTypeID when free.
	Expected types.TypeID
	// Depth is the current generic instantiation depth.
	Depth int
}

type candidate struct {
	impl        *registry.Impl
	method      registry.MethodImpl
	kinds       []MatchKind
	exact       int
	conversions []ArgConversion
	binding     generics.Binding
	result      types.TypeID
}

// Resolve finds the single best-matching impl method for req.
//
// Candidate set: every impl of req.Trait whose method table has req.Method.
// Each declared parameter is matched against the corresponding argument
// (exact / converted / eliminated); survivors are scored by exact-match
// count, ties broken by pointwise specificity, anything still tied is
// ambiguous.
func (rv *Resolver) Resolve(req Request) (ResolvedCall, error) {
	traitInfo, ok := rv.Reg.Types().TraitOf(req.Trait)
	if !ok {
		return ResolvedCall{}, &Error{
			Code: diag.DisNoApplicableImpl,
			Msg:  fmt.Sprintf("%s is not a trait", rv.Reg.Types().Render(req.Trait)),
		}
	}
	if _, declared := traitInfo.Method(req.Method); !declared {
		return ResolvedCall{}, &Error{
			Code: diag.DisUnknownMethod,
			Msg: fmt.Sprintf("trait %s declares no method %s",
				rv.Reg.Types().Render(req.Trait), rv.methodName(req.Method)),
		}
	}

	var survivors []candidate
	var firstBindErr error
	for _, implID := range rv.Reg.TraitImpls(req.Trait) {
		im, _ := rv.Reg.Impl(implID)
		m, ok := im.Method(req.Method)
		if !ok {
			continue
		}
		if len(m.Params) != len(req.Args) {
			continue
		}
		cand, err := rv.score(im, m, req)
		if err != nil {
			var bindErr *generics.Error
			if errors.As(err, &bindErr) && bindErr.Code == diag.GenRecursionLimitExceeded {
				// fatal for the enclosing instantiation, not just this candidate
				return ResolvedCall{}, err
			}
			if firstBindErr == nil {
				firstBindErr = err
			}
			continue
		}
		if cand != nil {
			survivors = append(survivors, *cand)
		}
	}

	if len(survivors) == 0 {
		if firstBindErr != nil {
			return ResolvedCall{}, firstBindErr
		}
		return ResolvedCall{}, &Error{
			Code: diag.DisNoApplicableImpl,
			Msg: fmt.Sprintf("no impl of %s.%s applies to (%s)",
				rv.Reg.Types().Render(req.Trait), rv.methodName(req.Method),
				rv.renderArgs(req.Args)),
		}
	}

	winner, tied := pickWinner(survivors)
	if winner == nil {
		refs := make([]CandidateRef, len(tied))
		names := make([]string, len(tied))
		for i, c := range tied {
			refs[i] = CandidateRef{Impl: c.impl.ID, Type: c.impl.Type}
			names[i] = rv.Reg.Types().Render(c.impl.Type)
		}
		return ResolvedCall{}, &Error{
			Code: diag.DisAmbiguous,
			Msg: fmt.Sprintf("ambiguous dispatch of %s.%s: candidates %s",
				rv.Reg.Types().Render(req.Trait), rv.methodName(req.Method),
				strings.Join(names, ", ")),
			Candidates: refs,
		}
	}

	return ResolvedCall{
		Impl:        winner.impl.ID,
		Type:        winner.impl.Type,
		Method:      req.Method,
		Conversions: winner.conversions,
		Binding:     winner.binding,
		Result:      winner.result,
	}, nil
}

// score matches one candidate method against the request. A nil candidate
// with nil error means eliminated; a non-nil error is a binder failure worth
// surfacing when nothing else survives.
func (rv *Resolver) score(im *registry.Impl, m registry.MethodImpl, req Request) (*candidate, error) {
	var binding generics.Binding
	params := m.Params
	result := m.Result
	generic := make([]bool, len(m.Params))

	if m.Generics != nil && m.Generics.Len() > 0 {
		var err error
		binding, err = rv.Binder.Bind(m.Generics, req.Explicit, generics.CallSite{
			Params:   m.Params,
			Args:     req.Args,
			Result:   m.Result,
			Expected: req.Expected,
		}, req.Depth+1)
		if err != nil {
			return nil, err
		}
		substituted := make([]types.TypeID, len(m.Params))
		for i, p := range m.Params {
			substituted[i] = rv.Binder.Substitute(m.Generics, binding, p)
			generic[i] = substituted[i] != p
		}
		params = substituted
		result = rv.Binder.Substitute(m.Generics, binding, m.Result)
	} else if len(req.Explicit) > 0 {
		return nil, nil // explicit type args eliminate non-generic candidates
	}

	cand := candidate{
		impl:    im,
		method:  m,
		kinds:   make([]MatchKind, len(params)),
		binding: binding,
		result:  result,
	}
	for i, declared := range params {
		arg := req.Args[i]
		switch {
		case declared == arg && generic[i]:
			// matched through the generic binding, not by identity
			cand.kinds[i] = MatchBound
		case declared == arg:
			cand.kinds[i] = MatchExact
			cand.exact++
		default:
			edge, ok := rv.Reg.FindConversion(arg, declared)
			if !ok {
				return nil, nil
			}
			cand.kinds[i] = MatchConverted
			cand.conversions = append(cand.conversions, ArgConversion{Index: i, Edge: edge})
		}
	}
	return &cand, nil
}

// pickWinner returns the unique best candidate, or nil plus the tied set.
// Primary score is exact-match count; remaining ties use the conservative
// subset-specificity rule: a candidate wins only if it matches at least as
// tightly at every position and strictly tighter at one.
func pickWinner(cands []candidate) (*candidate, []candidate) {
	best := 0
	for _, c := range cands {
		if c.exact > best {
			best = c.exact
		}
	}
	top := cands[:0:0]
	for _, c := range cands {
		if c.exact == best {
			top = append(top, c)
		}
	}
	if len(top) == 1 {
		return &top[0], nil
	}

	maximal := top[:0:0]
	for i := range top {
		dominated := false
		for j := range top {
			if i != j && moreSpecific(top[j].kinds, top[i].kinds) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, top[i])
		}
	}
	if len(maximal) == 1 {
		return &maximal[0], nil
	}
	return nil, maximal
}

// moreSpecific reports whether a is pointwise at least as tight as b and
// strictly tighter somewhere.
func moreSpecific(a, b []MatchKind) bool {
	strict := false
	for i := range a {
		if a[i] < b[i] {
			return false
		}
		if a[i] > b[i] {
			strict = true
		}
	}
	return strict
}

func (rv *Resolver) methodName(id source.StringID) string {
	s, _ := rv.Reg.Strings().Lookup(id)
	return s
}

func (rv *Resolver) renderArgs(args []types.TypeID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = rv.Reg.Types().Render(a)
	}
	return strings.Join(parts, ", ")
}
