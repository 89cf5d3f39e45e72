package types

import (
	"testing"

	"keel/internal/source"
)

func newTestInterner() (*Interner, *source.Interner) {
	strings := source.NewInterner()
	return NewInterner(strings), strings
}

func TestInternerBuiltins(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	if b.Bool == NoTypeID || b.Int == NoTypeID || b.String == NoTypeID {
		t.Fatal("builtins must be seeded")
	}
	bt := in.MustLookup(b.Bool)
	if bt.Kind != KindBuiltin {
		t.Fatalf("bool kind = %v", bt.Kind)
	}
	if in.Render(b.Bool) != "bool" {
		t.Fatalf("Render(bool) = %q", in.Render(b.Bool))
	}
}

func TestNominalTypesDeduplicate(t *testing.T) {
	in, strings := newTestInterner()
	mod := strings.Intern("core")
	name := strings.Intern("Point")
	fields := []Field{{Name: strings.Intern("x"), Type: in.Builtins().Int}}

	a := in.NewStruct(mod, name, fields, false)
	bID := in.NewStruct(mod, name, fields, false)
	if a != bID {
		t.Fatalf("same (module, name) must intern to one TypeID: %d != %d", a, bID)
	}

	other := in.NewStruct(strings.Intern("ext"), name, fields, false)
	if other == a {
		t.Fatal("same name in another module must be a distinct type")
	}
}

func TestTypeParamsNeverDeduplicate(t *testing.T) {
	in, strings := newTestInterner()
	name := strings.Intern("T")
	a := in.NewTypeParam(name)
	b := in.NewTypeParam(name)
	if a == b {
		t.Fatal("two type params with one name must stay distinct")
	}
}

func TestStructuralInterning(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()

	t1 := in.Tuple([]TypeID{b.Bool, b.Int})
	t2 := in.Tuple([]TypeID{b.Bool, b.Int})
	if t1 != t2 {
		t.Fatal("equal tuples must intern to one ID")
	}
	if t3 := in.Tuple([]TypeID{b.Int, b.Bool}); t3 == t1 {
		t.Fatal("element order matters for tuples")
	}

	o1 := in.Option(b.Int)
	if o2 := in.Option(b.Int); o1 != o2 {
		t.Fatal("equal options must intern to one ID")
	}
	if !in.Fallible(o1) {
		t.Fatal("option must be fallible")
	}
	if !in.Fallible(in.Result(b.Int)) {
		t.Fatal("result must be fallible")
	}
	if in.Fallible(b.Int) {
		t.Fatal("int must not be fallible")
	}
}

func TestEnumShape(t *testing.T) {
	in, strings := newTestInterner()
	b := in.Builtins()
	id := in.NewEnum(strings.Intern("core"), strings.Intern("Foo"), []Variant{
		{Name: strings.Intern("Bar"), Fields: []TypeID{b.Int}},
		{Name: strings.Intern("Baz"), Fields: []TypeID{b.Int, b.Int}},
	}, false)

	info, ok := in.EnumOf(id)
	if !ok || len(info.Variants) != 2 {
		t.Fatalf("EnumOf failed: ok=%v", ok)
	}
	if len(info.Variants[1].Fields) != 2 {
		t.Fatalf("Baz arity = %d", len(info.Variants[1].Fields))
	}
}

func TestStateRoundtrip(t *testing.T) {
	in, strings := newTestInterner()
	b := in.Builtins()
	mod := strings.Intern("core")
	st := in.NewStruct(mod, strings.Intern("MyInt"), []Field{{Name: strings.Intern("v"), Type: b.Int}}, true)
	tup := in.Tuple([]TypeID{b.Bool, st})

	restored := RestoreInterner(strings, in.State())
	if restored.Render(st) != "MyInt" {
		t.Fatalf("restored Render = %q", restored.Render(st))
	}
	if got := restored.Tuple([]TypeID{b.Bool, st}); got != tup {
		t.Fatalf("restored tuple index lost: %d != %d", got, tup)
	}
	rt, _ := restored.Lookup(st)
	if !rt.Opaque {
		t.Fatal("opaque flag lost in roundtrip")
	}
}
