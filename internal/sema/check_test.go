package sema

import (
	"testing"

	"keel/internal/ast"
	"keel/internal/diag"
	"keel/internal/registry"
	"keel/internal/source"
	"keel/internal/types"
)

type fixture struct {
	strings *source.Interner
	reg     *registry.Registry
	mod     source.StringID
	span    source.Span
	bag     *diag.Bag

	add  types.TypeID
	addM source.StringID
	foo  types.TypeID // enum Foo { Bar(int), Baz }
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	strs := source.NewInterner()
	reg := registry.New(strs)
	tn := reg.Types()
	f := &fixture{
		strings: strs,
		reg:     reg,
		mod:     strs.Intern("main"),
		span:    source.Span{Start: 1, End: 2},
		bag:     diag.NewBag(100),
	}
	f.addM = strs.Intern("add")
	f.add = tn.NewTrait(f.mod, strs.Intern("Add"), []types.MethodSig{{
		Name:   f.addM,
		Params: []types.TypeID{tn.Builtins().Self, tn.Builtins().Self},
		Result: tn.Builtins().Self,
	}})
	if _, err := reg.RegisterImpl(f.add, tn.Builtins().Int, f.mod, f.span, []registry.MethodImpl{{
		Name:   f.addM,
		Params: []types.TypeID{tn.Builtins().Int, tn.Builtins().Int},
		Result: tn.Builtins().Int,
	}}); err != nil {
		t.Fatal(err)
	}
	f.foo = tn.NewEnum(f.mod, strs.Intern("Foo"), []types.Variant{
		{Name: strs.Intern("Bar"), Fields: []types.TypeID{tn.Builtins().Int}},
		{Name: strs.Intern("Baz")},
	}, false)
	if err := reg.Seal(); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) check(unit *ast.Unit) Result {
	return Check(unit, Options{
		Reporter: diag.BagReporter{Bag: f.bag},
		Registry: f.reg,
	})
}

func (f *fixture) call(id ast.ExprID, args ...types.TypeID) *ast.CallExpr {
	typed := make([]ast.TypedExpr, len(args))
	for i, a := range args {
		typed[i] = ast.TypedExpr{At: f.span, Type: a}
	}
	return &ast.CallExpr{ID: id, At: f.span, Trait: f.add, Method: f.addM, Args: typed}
}

func TestCheckAnnotatesCalls(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	unit := &ast.Unit{Module: f.mod, Funcs: []ast.Func{{
		Name:  f.strings.Intern("main"),
		At:    f.span,
		Exprs: []ast.Expr{f.call(1, tn.Builtins().Int, tn.Builtins().Int)},
	}}}
	res := f.check(unit)
	if f.bag.Len() != 0 {
		t.Fatalf("diagnostics: %+v", f.bag.Items())
	}
	call, ok := res.Calls[1]
	if !ok {
		t.Fatal("call 1 must be annotated")
	}
	if call.Result != tn.Builtins().Int {
		t.Fatalf("result = %s", tn.Render(call.Result))
	}
	if res.IsPoisoned(1) {
		t.Fatal("successful call must not be poisoned")
	}
}

func TestFailingNodeIsPoisonedSiblingsSurvive(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	unit := &ast.Unit{Module: f.mod, Funcs: []ast.Func{{
		Name: f.strings.Intern("main"),
		At:   f.span,
		Exprs: []ast.Expr{
			f.call(1, tn.Builtins().String, tn.Builtins().String), // нет импла
			f.call(2, tn.Builtins().Int, tn.Builtins().Int),
		},
	}}}
	res := f.check(unit)
	if !res.IsPoisoned(1) {
		t.Fatal("failing call must be poisoned")
	}
	if _, ok := res.Calls[1]; ok {
		t.Fatal("poisoned node must carry no annotation")
	}
	if res.IsPoisoned(2) {
		t.Fatal("sibling must keep checking")
	}
	if _, ok := res.Calls[2]; !ok {
		t.Fatal("sibling must be annotated")
	}
	if !f.bag.HasErrors() {
		t.Fatal("failure must be reported")
	}
}

func TestEveryIndependentErrorIsReported(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	unit := &ast.Unit{Module: f.mod, Funcs: []ast.Func{{
		Name: f.strings.Intern("main"),
		At:   f.span,
		Exprs: []ast.Expr{
			f.call(1, tn.Builtins().String, tn.Builtins().String),
			f.call(2, tn.Builtins().Bool, tn.Builtins().Bool),
			f.call(3, tn.Builtins().Int, tn.Builtins().Int),
		},
	}}}
	res := f.check(unit)
	errs := 0
	for _, d := range f.bag.Items() {
		if d.Severity >= diag.SevError {
			errs++
		}
	}
	if errs != 2 {
		t.Fatalf("want 2 independent errors, got %d: %+v", errs, f.bag.Items())
	}
	if res.IsPoisoned(3) {
		t.Fatal("the good call must survive")
	}
}

func TestMatchAnnotationAndPoisoning(t *testing.T) {
	f := newFixture(t)
	good := &ast.MatchExpr{
		ID:         10,
		At:         f.span,
		Scrutinees: []ast.TypedExpr{{At: f.span, Type: f.foo}},
		Arms: []ast.Arm{
			{At: f.span, Pats: []ast.Pattern{ast.Ctor(0, f.span, ast.Wildcard(f.span))}},
			{At: f.span, Pats: []ast.Pattern{ast.Ctor(1, f.span)}},
		},
	}
	bad := &ast.MatchExpr{
		ID:         11,
		At:         f.span,
		Scrutinees: []ast.TypedExpr{{At: f.span, Type: f.foo}},
		Arms: []ast.Arm{
			{At: f.span, Pats: []ast.Pattern{ast.Ctor(0, f.span, ast.Wildcard(f.span))}},
		},
	}
	unit := &ast.Unit{Module: f.mod, Funcs: []ast.Func{{
		Name:  f.strings.Intern("main"),
		At:    f.span,
		Exprs: []ast.Expr{good, bad},
	}}}
	res := f.check(unit)
	if _, ok := res.Matches[10]; !ok {
		t.Fatal("exhaustive match must be annotated")
	}
	if !res.IsPoisoned(11) {
		t.Fatal("non-exhaustive match must be poisoned")
	}
	if !f.bag.HasErrors() {
		t.Fatal("non-exhaustiveness must be reported")
	}
}

func TestIfLetCompilesWithoutExhaustiveness(t *testing.T) {
	f := newFixture(t)
	n := &ast.IfLetExpr{
		ID:        20,
		At:        f.span,
		Scrutinee: ast.TypedExpr{At: f.span, Type: f.foo},
		Pattern:   ast.Ctor(0, f.span, ast.Bind(f.strings.Intern("x"), f.span)),
	}
	unit := &ast.Unit{Module: f.mod, Funcs: []ast.Func{{
		Name:  f.strings.Intern("main"),
		At:    f.span,
		Exprs: []ast.Expr{n},
	}}}
	res := f.check(unit)
	if f.bag.Len() != 0 {
		t.Fatalf("diagnostics: %+v", f.bag.Items())
	}
	tree, ok := res.Tests[20]
	if !ok {
		t.Fatal("if-let must be annotated")
	}
	if !tree.HasFail() {
		t.Fatal("if-let keeps its not-matched branch")
	}
}

func TestAmbiguityNotesNameCandidates(t *testing.T) {
	f := newFixture(t)

	// отдельный реестр: два равнозначных кандидата с конверсией из int в каждый
	strs2 := source.NewInterner()
	reg2 := registry.New(strs2)
	tn2 := reg2.Types()
	mod := strs2.Intern("main")
	addM := strs2.Intern("add")
	add := tn2.NewTrait(mod, strs2.Intern("Add"), []types.MethodSig{{
		Name:   addM,
		Params: []types.TypeID{tn2.Builtins().Self, tn2.Builtins().Self},
		Result: tn2.Builtins().Self,
	}})
	left := tn2.NewStruct(mod, strs2.Intern("Left"), nil, false)
	right := tn2.NewStruct(mod, strs2.Intern("Right"), nil, false)
	for _, typ := range []types.TypeID{left, right} {
		if _, err := reg2.RegisterImpl(add, typ, mod, f.span, []registry.MethodImpl{{
			Name:   addM,
			Params: []types.TypeID{typ, typ},
			Result: typ,
		}}); err != nil {
			t.Fatal(err)
		}
		from := tn2.NewTrait(mod, strs2.Intern("From_int_"+tn2.Render(typ)), []types.MethodSig{{
			Name:   strs2.Intern("from"),
			Params: []types.TypeID{tn2.Builtins().Int},
			Result: tn2.Builtins().Self,
		}})
		if _, err := reg2.RegisterImpl(from, typ, mod, f.span, []registry.MethodImpl{{
			Name:     strs2.Intern("from"),
			Params:   []types.TypeID{tn2.Builtins().Int},
			Result:   typ,
			Implicit: true,
		}}); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg2.Seal(); err != nil {
		t.Fatal(err)
	}

	bag := diag.NewBag(100)
	call := &ast.CallExpr{
		ID: 1, At: f.span, Trait: add, Method: addM,
		Args: []ast.TypedExpr{
			{At: f.span, Type: tn2.Builtins().Int},
			{At: f.span, Type: tn2.Builtins().Int},
		},
	}
	unit := &ast.Unit{Module: mod, Funcs: []ast.Func{{Name: strs2.Intern("main"), At: f.span, Exprs: []ast.Expr{call}}}}
	res := Check(unit, Options{Reporter: diag.BagReporter{Bag: bag}, Registry: reg2})
	if !res.IsPoisoned(1) {
		t.Fatal("ambiguous call must be poisoned")
	}
	var found bool
	for _, d := range bag.Items() {
		if d.Code == diag.DisAmbiguous {
			found = true
			if len(d.Notes) != 2 {
				t.Fatalf("want one note per tied candidate, got %+v", d.Notes)
			}
		}
	}
	if !found {
		t.Fatalf("no ambiguity diagnostic: %+v", bag.Items())
	}
}

func TestCheckPanicsOnUnsealedRegistry(t *testing.T) {
	strs := source.NewInterner()
	reg := registry.New(strs)
	defer func() {
		if recover() == nil {
			t.Fatal("Check must panic on an unsealed registry")
		}
	}()
	Check(&ast.Unit{Module: strs.Intern("m")}, Options{Registry: reg})
}
