// Package generics resolves separator-based generic parameter lists: the
// inferred-preferred prefix unifies against call-site types, the
// explicit-required suffix is matched positionally, defaults fill the rest,
// and trait bounds are checked against the sealed registry.
package generics

import (
	"fmt"

	"keel/internal/diag"
	"keel/internal/registry"
	"keel/internal/source"
	"keel/internal/types"
)

// Binding maps a parameter list's absolute positions to concrete types.
type Binding struct {
	Args []types.TypeID
}

// Empty reports whether the binding carries no arguments.
func (b Binding) Empty() bool {
	return len(b.Args) == 0
}

// Of returns the concrete type bound to the parameter whose placeholder is
// id, or NoTypeID when id is not a parameter of list.
func (b Binding) Of(list *types.GenericParamList, id types.TypeID) types.TypeID {
	pos := list.PositionOf(id)
	if pos < 0 || pos >= len(b.Args) {
		return types.NoTypeID
	}
	return b.Args[pos]
}

// Error is a binding failure.
type Error struct {
	Code  diag.Code
	Msg   string
	Param source.StringID // offending parameter, when applicable
	Trait types.TypeID    // missing bound, for ConstraintNotSatisfied
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// CallSite carries the statically known types the prefix unifies against.
type CallSite struct {
	// Params are the callee's declared parameter types; they may mention the
	// list's placeholders.
	Params []types.TypeID
	// Args are the static types of the supplied arguments, one per Param.
	Args []types.TypeID
	// Result is the declared result type, NoTypeID when none.
	Result types.TypeID
	// Expected is the type the surrounding context wants, NoTypeID when the
	// context imposes nothing.
	Expected types.TypeID
}

// Binder resolves parameter lists against a sealed registry. MaxDepth guards
// against unbounded recursive instantiation chains.
type Binder struct {
	Reg      *registry.Registry
	MaxDepth int
}

// DefaultMaxDepth bounds instantiation chains when no limit is configured.
const DefaultMaxDepth = 128

// Bind resolves list against explicit type arguments and the call site.
// depth is the current instantiation depth; callers thread it through
// nested resolutions.
func (b *Binder) Bind(list *types.GenericParamList, explicit []types.TypeID, site CallSite, depth int) (Binding, error) {
	limit := b.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if depth > limit {
		return Binding{}, &Error{
			Code: diag.GenRecursionLimitExceeded,
			Msg:  fmt.Sprintf("generic instantiation exceeds depth limit %d", limit),
		}
	}
	if list == nil || list.Len() == 0 {
		if len(explicit) > 0 {
			return Binding{}, &Error{
				Code: diag.GenTooManyExplicitArguments,
				Msg:  "type arguments supplied to a non-generic target",
			}
		}
		return Binding{}, nil
	}

	total := list.Len()
	prefix := len(list.Inferred)
	bound := make([]types.TypeID, total)

	// Explicit args match the suffix right-to-left, one-to-one.
	if len(explicit) > len(list.Explicit) {
		return Binding{}, &Error{
			Code: diag.GenTooManyExplicitArguments,
			Msg: fmt.Sprintf("%d explicit type arguments for %d explicit parameters",
				len(explicit), len(list.Explicit)),
		}
	}
	unmatched := len(list.Explicit) - len(explicit)
	for i, arg := range explicit {
		bound[prefix+unmatched+i] = arg
	}
	for i := 0; i < unmatched; i++ {
		p := list.Explicit[i]
		if p.Default.Kind == types.DefaultNone {
			return Binding{}, &Error{
				Code:  diag.GenMissingExplicitTypeArgument,
				Msg:   fmt.Sprintf("missing explicit type argument for %s", b.render(p.Name)),
				Param: p.Name,
			}
		}
	}

	// Prefix params unify against the statically known call-site types.
	subst := substitution{list: list, bound: bound}
	for i := 0; i < len(site.Params) && i < len(site.Args); i++ {
		if err := b.unify(&subst, site.Params[i], site.Args[i]); err != nil {
			return Binding{}, err
		}
	}
	if site.Result != types.NoTypeID && site.Expected != types.NoTypeID {
		if err := b.unify(&subst, site.Result, site.Expected); err != nil {
			return Binding{}, err
		}
	}

	// Defaults run left-to-right; a default may only reference parameters
	// declared before its owner, which makes this single pass sufficient.
	for i := 0; i < total; i++ {
		if bound[i] != types.NoTypeID {
			continue
		}
		p := list.At(i)
		switch p.Default.Kind {
		case types.DefaultType:
			bound[i] = p.Default.Type
		case types.DefaultParam:
			ref := p.Default.Param
			if ref >= i || ref < 0 || bound[ref] == types.NoTypeID {
				return Binding{}, &Error{
					Code:  diag.GenDefaultOrderViolation,
					Msg:   fmt.Sprintf("default of %s references an unresolved later parameter", b.render(p.Name)),
					Param: p.Name,
				}
			}
			bound[i] = bound[ref]
		}
	}

	for i := 0; i < total; i++ {
		if bound[i] != types.NoTypeID {
			continue
		}
		p := list.At(i)
		if i >= prefix {
			return Binding{}, &Error{
				Code:  diag.GenMissingExplicitTypeArgument,
				Msg:   fmt.Sprintf("missing explicit type argument for %s", b.render(p.Name)),
				Param: p.Name,
			}
		}
		return Binding{}, &Error{
			Code:  diag.GenInferenceFailed,
			Msg:   fmt.Sprintf("cannot infer type for %s", b.render(p.Name)),
			Param: p.Name,
		}
	}

	binding := Binding{Args: bound}
	if err := b.checkBounds(list, binding); err != nil {
		return Binding{}, err
	}
	return binding, nil
}

// checkBounds verifies every parameter's trait bounds via the registry's
// impl set.
func (b *Binder) checkBounds(list *types.GenericParamList, binding Binding) error {
	for i := 0; i < list.Len(); i++ {
		p := list.At(i)
		concrete := binding.Args[i]
		for _, bd := range p.Bounds {
			if b.Reg.HasImpl(bd.Trait, concrete) {
				continue
			}
			tn := b.Reg.Types()
			return &Error{
				Code: diag.GenConstraintNotSatisfied,
				Msg: fmt.Sprintf("%s (bound to %s) does not satisfy %s",
					b.render(p.Name), tn.Render(concrete), tn.RenderBound(bd)),
				Param: p.Name,
				Trait: bd.Trait,
			}
		}
	}
	return nil
}

// Substitute rewrites declared, replacing the list's placeholders with their
// bound types. Structure (tuples, wrappers) is rebuilt as needed.
func (b *Binder) Substitute(list *types.GenericParamList, binding Binding, declared types.TypeID) types.TypeID {
	if list == nil || binding.Empty() {
		return declared
	}
	tn := b.Reg.Types()
	t, ok := tn.Lookup(declared)
	if !ok {
		return declared
	}
	switch t.Kind {
	case types.KindTypeParam:
		if concrete := binding.Of(list, declared); concrete != types.NoTypeID {
			return concrete
		}
		return declared
	case types.KindTuple:
		info, _ := tn.TupleOf(declared)
		elems := make([]types.TypeID, len(info.Elems))
		changed := false
		for i, e := range info.Elems {
			elems[i] = b.Substitute(list, binding, e)
			changed = changed || elems[i] != e
		}
		if !changed {
			return declared
		}
		return tn.Tuple(elems)
	case types.KindOption:
		elem, _ := tn.Elem(declared)
		if sub := b.Substitute(list, binding, elem); sub != elem {
			return tn.Option(sub)
		}
		return declared
	case types.KindResult:
		elem, _ := tn.Elem(declared)
		if sub := b.Substitute(list, binding, elem); sub != elem {
			return tn.Result(sub)
		}
		return declared
	default:
		return declared
	}
}

type substitution struct {
	list  *types.GenericParamList
	bound []types.TypeID
}

// unify walks declared against actual, binding the list's placeholders.
// Non-placeholder mismatches are left to the dispatch scorer (a conversion
// may still apply at the top level), so unify only errors on conflicting
// placeholder bindings.
func (b *Binder) unify(s *substitution, declared, actual types.TypeID) error {
	if declared == types.NoTypeID || actual == types.NoTypeID {
		return nil
	}
	tn := b.Reg.Types()
	t, ok := tn.Lookup(declared)
	if !ok {
		return nil
	}
	switch t.Kind {
	case types.KindTypeParam:
		pos := s.list.PositionOf(declared)
		if pos < 0 {
			return nil // belongs to an enclosing list
		}
		if s.bound[pos] == types.NoTypeID {
			s.bound[pos] = actual
			return nil
		}
		if s.bound[pos] != actual {
			p := s.list.At(pos)
			return &Error{
				Code: diag.GenInferenceFailed,
				Msg: fmt.Sprintf("conflicting inference for %s: %s vs %s",
					b.render(p.Name), tn.Render(s.bound[pos]), tn.Render(actual)),
				Param: p.Name,
			}
		}
		return nil
	case types.KindTuple:
		ai, aok := tn.TupleOf(actual)
		di, _ := tn.TupleOf(declared)
		if !aok || len(ai.Elems) != len(di.Elems) {
			return nil
		}
		for i := range di.Elems {
			if err := b.unify(s, di.Elems[i], ai.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	case types.KindOption, types.KindResult:
		at, aok := tn.Lookup(actual)
		if !aok || at.Kind != t.Kind {
			return nil
		}
		de, _ := tn.Elem(declared)
		ae, _ := tn.Elem(actual)
		return b.unify(s, de, ae)
	default:
		return nil
	}
}

func (b *Binder) render(name source.StringID) string {
	s, _ := b.Reg.Strings().Lookup(name)
	if s == "" {
		return "_"
	}
	return s
}
