package registry

import (
	"errors"
	"testing"

	"keel/internal/diag"
	"keel/internal/types"
)

// convTrait declares from(X) -> Self as an implicit constructor, which is
// what the conversion table harvests at Seal time.
func (f *fixture) convImpl(t *testing.T, from, to types.TypeID) {
	t.Helper()
	tn := f.reg.Types()
	trait := tn.NewTrait(f.mod, f.strings.Intern("From_"+tn.Render(from)+"_"+tn.Render(to)),
		[]types.MethodSig{{
			Name:   f.strings.Intern("from"),
			Params: []types.TypeID{from},
			Result: tn.Builtins().Self,
		}})
	if _, err := f.reg.RegisterImpl(trait, to, f.mod, f.span, []MethodImpl{{
		Name:     f.strings.Intern("from"),
		Params:   []types.TypeID{from},
		Result:   to,
		Implicit: true,
	}}); err != nil {
		t.Fatal(err)
	}
}

func TestFindConversionDirectOnly(t *testing.T) {
	f := newFixture()
	tn := f.reg.Types()
	myInt := f.myInt()
	myWide := tn.NewStruct(f.mod, f.strings.Intern("MyWide"), nil, false)

	f.convImpl(t, tn.Builtins().Int, myInt)
	f.convImpl(t, myInt, myWide)
	if err := f.reg.Seal(); err != nil {
		t.Fatal(err)
	}

	if _, ok := f.reg.FindConversion(tn.Builtins().Int, myInt); !ok {
		t.Fatal("direct edge int -> MyInt must be found")
	}
	if _, ok := f.reg.FindConversion(myInt, myWide); !ok {
		t.Fatal("direct edge MyInt -> MyWide must be found")
	}
	// конверсии не сцепляются: int -> MyInt -> MyWide не даёт int -> MyWide
	if _, ok := f.reg.FindConversion(tn.Builtins().Int, myWide); ok {
		t.Fatal("conversions must not chain")
	}
}

func TestDuplicateEdgeRejected(t *testing.T) {
	f := newFixture()
	tn := f.reg.Types()
	myInt := f.myInt()
	f.convImpl(t, tn.Builtins().Int, myInt)

	// вторая implicit-конверсия на ту же пару через другой трейт
	trait := tn.NewTrait(f.mod, f.strings.Intern("AlsoFrom"), []types.MethodSig{{
		Name:   f.strings.Intern("from"),
		Params: []types.TypeID{tn.Builtins().Int},
		Result: tn.Builtins().Self,
	}})
	if _, err := f.reg.RegisterImpl(trait, myInt, f.mod, f.span, []MethodImpl{{
		Name:     f.strings.Intern("from"),
		Params:   []types.TypeID{tn.Builtins().Int},
		Result:   myInt,
		Implicit: true,
	}}); err != nil {
		t.Fatal(err)
	}

	err := f.reg.Seal()
	var re *Error
	if !errors.As(err, &re) || re.Code != diag.RegDuplicateEdge {
		t.Fatalf("want RegDuplicateEdge, got %v", err)
	}
}

func TestConversionCycleRejected(t *testing.T) {
	f := newFixture()
	tn := f.reg.Types()
	a := tn.NewStruct(f.mod, f.strings.Intern("A"), nil, false)
	b := tn.NewStruct(f.mod, f.strings.Intern("B"), nil, false)
	f.convImpl(t, a, b)
	f.convImpl(t, b, a)

	err := f.reg.Seal()
	var re *Error
	if !errors.As(err, &re) || re.Code != diag.RegConversionCycle {
		t.Fatalf("want RegConversionCycle, got %v", err)
	}
}

func TestFallibleConversionRejected(t *testing.T) {
	f := newFixture()
	tn := f.reg.Types()
	myInt := f.myInt()
	trait := tn.NewTrait(f.mod, f.strings.Intern("TryFrom"), []types.MethodSig{{
		Name:   f.strings.Intern("from"),
		Params: []types.TypeID{tn.Builtins().Int},
		Result: tn.Option(tn.Builtins().Self),
	}})
	if _, err := f.reg.RegisterImpl(trait, myInt, f.mod, f.span, []MethodImpl{{
		Name:     f.strings.Intern("from"),
		Params:   []types.TypeID{tn.Builtins().Int},
		Result:   tn.Option(myInt),
		Implicit: true,
	}}); err != nil {
		t.Fatal(err)
	}

	err := f.reg.Seal()
	var re *Error
	if !errors.As(err, &re) || re.Code != diag.RegFallibleEdge {
		t.Fatalf("want RegFallibleEdge, got %v", err)
	}
}
