package patmat

import (
	"strings"
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

	foo types.TypeID // enum Foo { Bar(int), Baz }
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	strs := source.NewInterner()
	reg := registry.New(strs)
	tn := reg.Types()
	f := &fixture{
		strings: strs,
		reg:     reg,
		mod:     strs.Intern("shapes"),
		span:    source.Span{Start: 1, End: 2},
		bag:     diag.NewBag(100),
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

func (f *fixture) compiler() *Compiler {
	return &Compiler{
		Reg:      f.reg,
		Reporter: diag.BagReporter{Bag: f.bag},
		Module:   f.mod,
	}
}

func (f *fixture) firstMessage(t *testing.T, code diag.Code) string {
	t.Helper()
	for _, d := range f.bag.Items() {
		if d.Code == code {
			return d.Message
		}
	}
	t.Fatalf("no %s diagnostic; bag = %+v", code, f.bag.Items())
	return ""
}

func (f *fixture) arm(pats ...ast.Pattern) ast.Arm {
	return ast.Arm{At: f.span, Pats: pats}
}

func TestExhaustiveEnumMatch(t *testing.T) {
	f := newFixture(t)
	dec, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{
		f.arm(ast.Ctor(0, f.span, ast.Wildcard(f.span))),
		f.arm(ast.Ctor(1, f.span)),
	}, f.span)
	if !ok {
		t.Fatalf("should compile, bag = %+v", f.bag.Items())
	}
	if f.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", f.bag.Items())
	}
	if dec.Kind != DecSwitch || len(dec.Cases) != 2 {
		t.Fatalf("decision = %+v", dec)
	}
	if dec.HasFail() {
		t.Fatal("exhaustive match must compile without a fail branch")
	}
}

func TestMissingVariantIsNamed(t *testing.T) {
	f := newFixture(t)
	_, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{
		f.arm(ast.Ctor(0, f.span, ast.Wildcard(f.span))),
	}, f.span)
	if ok {
		t.Fatal("missing Baz must fail compilation")
	}
	msg := f.firstMessage(t, diag.MatNonExhaustive)
	if !strings.Contains(msg, "Baz") {
		t.Fatalf("witness should name Baz: %q", msg)
	}
}

func TestTwoScrutineeBoolWitness(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	b := tn.Builtins().Bool
	// (true, _) и (_, true) не покрывают (false, false)
	_, ok := f.compiler().Compile([]types.TypeID{b, b}, []ast.Arm{
		f.arm(ast.BoolLit(true, f.span), ast.Wildcard(f.span)),
		f.arm(ast.Wildcard(f.span), ast.BoolLit(true, f.span)),
	}, f.span)
	if ok {
		t.Fatal("must be non-exhaustive")
	}
	msg := f.firstMessage(t, diag.MatNonExhaustive)
	if !strings.Contains(msg, "false") {
		t.Fatalf("witness should mention false: %q", msg)
	}
}

func TestWildcardAloneIsExhaustive(t *testing.T) {
	f := newFixture(t)
	dec, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{
		f.arm(ast.Wildcard(f.span)),
	}, f.span)
	if !ok || f.bag.Len() != 0 {
		t.Fatalf("ok=%v bag=%+v", ok, f.bag.Items())
	}
	if dec.Kind != DecLeaf || dec.Arm != 0 {
		t.Fatalf("decision = %+v", dec)
	}
}

func TestGuardedArmDoesNotCover(t *testing.T) {
	f := newFixture(t)
	guarded := ast.Arm{At: f.span, Pats: []ast.Pattern{ast.Wildcard(f.span)}, Guarded: true}
	_, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{guarded}, f.span)
	if ok {
		t.Fatal("a guarded wildcard alone must not be exhaustive")
	}
	f.firstMessage(t, diag.MatNonExhaustive)
}

func TestGuardedThenWildcardCompiles(t *testing.T) {
	f := newFixture(t)
	guarded := ast.Arm{At: f.span, Pats: []ast.Pattern{ast.Wildcard(f.span)}, Guarded: true}
	dec, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{
		guarded,
		f.arm(ast.Wildcard(f.span)),
	}, f.span)
	if !ok || f.bag.Len() != 0 {
		t.Fatalf("ok=%v bag=%+v", ok, f.bag.Items())
	}
	if dec.Kind != DecGuard || dec.Else == nil || dec.Else.Kind != DecLeaf {
		t.Fatalf("decision = %+v", dec)
	}
}

func TestUnreachableArmWarns(t *testing.T) {
	f := newFixture(t)
	dec, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{
		f.arm(ast.Wildcard(f.span)),
		f.arm(ast.Ctor(1, f.span)),
	}, f.span)
	if !ok || dec == nil {
		t.Fatalf("warnings must not block compilation, bag = %+v", f.bag.Items())
	}
	if !f.bag.HasWarnings() {
		t.Fatal("expected an unreachable-arm warning")
	}
	msg := f.firstMessage(t, diag.MatUnreachableArm)
	if !strings.Contains(msg, "2") {
		t.Fatalf("warning should point at arm 2: %q", msg)
	}
}

func TestArityMismatch(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	_, ok := f.compiler().Compile([]types.TypeID{f.foo, tn.Builtins().Bool}, []ast.Arm{
		f.arm(ast.Wildcard(f.span)), // одна колонка вместо двух
	}, f.span)
	if ok {
		t.Fatal("arity mismatch must fail")
	}
	f.firstMessage(t, diag.MatArityMismatch)
}

func TestUnknownVariantIndex(t *testing.T) {
	f := newFixture(t)
	_, ok := f.compiler().Compile([]types.TypeID{f.foo}, []ast.Arm{
		f.arm(ast.Ctor(5, f.span)),
	}, f.span)
	if ok {
		t.Fatal("variant out of range must fail")
	}
	f.firstMessage(t, diag.MatUnknownVariant)
}

func TestOpaqueScrutinyOutsideModule(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	hidden := tn.NewEnum(f.strings.Intern("vault"), f.strings.Intern("Secret"), []types.Variant{
		{Name: f.strings.Intern("One")},
	}, true)

	c := f.compiler() // Module = "shapes", не "vault"
	_, ok := c.Compile([]types.TypeID{hidden}, []ast.Arm{
		f.arm(ast.Ctor(0, f.span)),
	}, f.span)
	if ok {
		t.Fatal("opaque enum must not be matched outside its module")
	}
	f.firstMessage(t, diag.MatOpaqueScrutiny)

	// wildcard не вскрывает представление и остаётся законным
	f.bag = diag.NewBag(100)
	if _, ok := f.compiler().Compile([]types.TypeID{hidden}, []ast.Arm{
		f.arm(ast.Wildcard(f.span)),
	}, f.span); !ok {
		t.Fatalf("wildcard over opaque must compile, bag = %+v", f.bag.Items())
	}
}

func TestWitnessListIsCapped(t *testing.T) {
	f := newFixture(t)
	tn := f.reg.Types()
	variants := make([]types.Variant, 6)
	for i, name := range []string{"A", "B", "C", "D", "E", "F"} {
		variants[i] = types.Variant{Name: f.strings.Intern(name)}
	}
	wide := tn.NewEnum(f.mod, f.strings.Intern("Wide"), variants, false)

	_, ok := f.compiler().Compile([]types.TypeID{wide}, []ast.Arm{
		f.arm(ast.Ctor(0, f.span)),
	}, f.span)
	if ok {
		t.Fatal("five variants are uncovered")
	}
	msg := f.firstMessage(t, diag.MatNonExhaustive)
	if !strings.Contains(msg, "and possibly more") {
		t.Fatalf("witness list should be capped: %q", msg)
	}
}

func TestCompileTestBuildsBinaryTree(t *testing.T) {
	f := newFixture(t)
	x := f.strings.Intern("x")
	dec, ok := f.compiler().CompileTest(f.foo, ast.Ctor(0, f.span, ast.Bind(x, f.span)))
	if !ok {
		t.Fatalf("bag = %+v", f.bag.Items())
	}
	if dec.Kind != DecSwitch {
		t.Fatalf("decision = %+v", dec)
	}
	if dec.CountLeaves() != 1 {
		t.Fatalf("leaves = %d", dec.CountLeaves())
	}
	if !dec.HasFail() {
		t.Fatal("the unmatched variant must reach a fail node")
	}

	// ветка Bar должна нести привязку x к полю 0
	var leaf *Decision
	for _, cs := range dec.Cases {
		if cs.Next.Kind == DecLeaf {
			leaf = cs.Next
		}
	}
	if leaf == nil || len(leaf.Bindings) != 1 || leaf.Bindings[0].Name != x {
		t.Fatalf("leaf = %+v", leaf)
	}
	if len(leaf.Bindings[0].Path.Steps) != 1 || leaf.Bindings[0].Path.Steps[0] != 0 {
		t.Fatalf("binding path = %+v", leaf.Bindings[0].Path)
	}
}
