// Package sema is the façade the type-checking pass invokes once per call or
// match expression: it sequences the generic binder, the dispatch resolver
// and the pattern compiler, annotates nodes, and poisons the ones that fail
// so the rest of the unit keeps checking.
package sema

import (
	"errors"
	"fmt"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/dispatch"
	"keel/internal/generics"
	"keel/internal/patmat"
	"keel/internal/registry"
	"keel/internal/types"
)

// Options configure a resolution pass over a unit.
type Options struct {
	Reporter diag.Reporter
	Registry *registry.Registry
	// MaxDepth bounds generic instantiation chains; 0 uses the default.
	MaxDepth int
}

// Result stores the annotations produced for one unit. Poisoned nodes carry
// no annotation; downstream phases must skip them.
type Result struct {
	Calls    map[ast.ExprID]dispatch.ResolvedCall
	Matches  map[ast.ExprID]*patmat.Decision
	Tests    map[ast.ExprID]*patmat.Decision
	Poisoned map[ast.ExprID]bool
}

// IsPoisoned reports whether the node failed resolution.
func (r *Result) IsPoisoned(id ast.ExprID) bool {
	return r.Poisoned[id]
}

// Check resolves every call and match expression of unit. Diagnostics are
// collected rather than stopping at the first failure: each failing node is
// poisoned and its siblings keep checking, so a single invocation reports
// every independent error. The registry must be sealed.
func Check(unit *ast.Unit, opts Options) Result {
	res := Result{
		Calls:    make(map[ast.ExprID]dispatch.ResolvedCall),
		Matches:  make(map[ast.ExprID]*patmat.Decision),
		Tests:    make(map[ast.ExprID]*patmat.Decision),
		Poisoned: make(map[ast.ExprID]bool),
	}
	if unit == nil || opts.Registry == nil {
		return res
	}
	if !opts.Registry.Sealed() {
		panic("sema: Check on unsealed registry")
	}

	binder := &generics.Binder{Reg: opts.Registry, MaxDepth: opts.MaxDepth}
	ck := checker{
		opts:     opts,
		resolver: dispatch.NewResolver(opts.Registry, binder),
		patterns: &patmat.Compiler{
			Reg:      opts.Registry,
			Reporter: opts.Reporter,
			Module:   unit.Module,
		},
		result: &res,
	}
	for fi := range unit.Funcs {
		for _, expr := range unit.Funcs[fi].Exprs {
			ck.expr(expr)
		}
	}
	return res
}

type checker struct {
	opts     Options
	resolver *dispatch.Resolver
	patterns *patmat.Compiler
	result   *Result
}

func (ck *checker) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.CallExpr:
		ck.call(n)
	case *ast.MatchExpr:
		ck.match(n)
	case *ast.IfLetExpr:
		ck.ifLet(n)
	default:
		// other expression kinds are fully typed upstream; nothing to do
	}
}

func (ck *checker) call(n *ast.CallExpr) {
	resolved, err := ck.resolver.Resolve(dispatch.Request{
		Trait:    n.Trait,
		Method:   n.Method,
		Args:     argTypesOf(n),
		Explicit: n.Generics,
		Expected: n.Expected,
	})
	if err != nil {
		ck.poison(n.ID)
		ck.reportResolveError(n, err)
		return
	}
	ck.result.Calls[n.ID] = resolved
}

func (ck *checker) match(n *ast.MatchExpr) {
	tree, ok := ck.patterns.Compile(scrutineeTypesOf(n), n.Arms, n.At)
	if !ok {
		ck.poison(n.ID)
		return
	}
	ck.result.Matches[n.ID] = tree
}

func (ck *checker) ifLet(n *ast.IfLetExpr) {
	tree, ok := ck.patterns.CompileTest(n.Scrutinee.Type, n.Pattern)
	if !ok {
		ck.poison(n.ID)
		return
	}
	ck.result.Tests[n.ID] = tree
}

func argTypesOf(n *ast.CallExpr) []types.TypeID {
	out := make([]types.TypeID, len(n.Args))
	for i, a := range n.Args {
		out[i] = a.Type
	}
	return out
}

func scrutineeTypesOf(n *ast.MatchExpr) []types.TypeID {
	out := make([]types.TypeID, len(n.Scrutinees))
	for i, s := range n.Scrutinees {
		out[i] = s.Type
	}
	return out
}

func (ck *checker) poison(id ast.ExprID) {
	ck.result.Poisoned[id] = true
}

// reportResolveError maps resolver and binder failures onto diagnostics at
// the call's span. Ambiguity keeps its candidate list as notes so the user
// does not have to re-derive the tied set.
func (ck *checker) reportResolveError(n *ast.CallExpr, err error) {
	if ck.opts.Reporter == nil {
		return
	}
	var de *dispatch.Error
	if errors.As(err, &de) {
		d := diag.NewError(de.Code, n.At, de.Msg)
		for _, cand := range de.Candidates {
			if im, ok := ck.opts.Registry.Impl(cand.Impl); ok {
				d = d.WithNote(im.Span, fmt.Sprintf("candidate impl for %s",
					ck.opts.Registry.Types().Render(cand.Type)))
			}
		}
		ck.opts.Reporter.Report(d)
		return
	}
	var ge *generics.Error
	if errors.As(err, &ge) {
		sev := diag.SevError
		if ge.Code == diag.GenRecursionLimitExceeded {
			// fatal for the enclosing instantiation only, not the unit
			sev = diag.SevFatal
		}
		ck.opts.Reporter.Report(diag.New(sev, ge.Code, n.At, ge.Msg))
		return
	}
	ck.opts.Reporter.Report(diag.NewError(diag.UnknownCode, n.At, err.Error()))
}
