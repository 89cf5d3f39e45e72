// Package registry holds the per-compilation catalog of types, traits and
// impls plus the implicit conversion table. It is built single-threaded,
// sealed, and then queried concurrently by resolution phases without locks.
package registry

import (
	"fmt"

	"keel/internal/diag"
	"keel/internal/source"
	"keel/internal/types"
)

// ImplID identifies a registered impl.
type ImplID uint32

const NoImplID ImplID = ^ImplID(0)

// MethodImpl is one concrete method of an impl. Params are fully concrete:
// Self is already substituted with the implementing type.
type MethodImpl struct {
	Name   source.StringID
	Params []types.TypeID
	Result types.TypeID
	// Implicit marks an implicit-constructor conversion; such methods feed
	// the conversion table at Seal time.
	Implicit bool
	Generics *types.GenericParamList
}

// Impl binds one (trait, type) pair to one method table.
type Impl struct {
	ID      ImplID
	Trait   types.TypeID
	Type    types.TypeID
	Module  source.StringID
	Span    source.Span
	Methods []MethodImpl
}

// Method returns the impl's method named name.
func (im *Impl) Method(name source.StringID) (MethodImpl, bool) {
	for _, m := range im.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodImpl{}, false
}

// Error is a registry-construction failure. Construction errors are fatal to
// the compilation unit: nothing downstream is trustworthy without a sound
// registry.
type Error struct {
	Code diag.Code
	Msg  string
	Span source.Span
	Prev source.Span // earlier conflicting declaration, when applicable
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Diagnostic converts the error to a fatal diagnostic.
func (e *Error) Diagnostic() diag.Diagnostic {
	d := diag.NewFatal(e.Code, e.Span, e.Msg)
	if e.Prev != (source.Span{}) {
		d = d.WithNote(e.Prev, "previous declaration here")
	}
	return d
}

type pairKey struct {
	trait types.TypeID
	typ   types.TypeID
}

// Registry is the shared, immutable-after-Seal impl catalog. It is passed by
// reference to every later phase; there is deliberately no ambient global.
type Registry struct {
	interner *types.Interner
	strings  *source.Interner

	impls   []Impl
	byPair  map[pairKey]ImplID
	byTrait map[types.TypeID][]ImplID
	byType  map[types.TypeID][]types.TypeID

	conv   ConversionTable
	sealed bool
}

func New(strings *source.Interner) *Registry {
	return &Registry{
		interner: types.NewInterner(strings),
		strings:  strings,
		byPair:   make(map[pairKey]ImplID),
		byTrait:  make(map[types.TypeID][]ImplID),
		byType:   make(map[types.TypeID][]types.TypeID),
	}
}

// Types exposes the type interner. Registration of new types after Seal is
// a programming error; queries are always fine.
func (r *Registry) Types() *types.Interner {
	return r.interner
}

// Strings exposes the shared name interner.
func (r *Registry) Strings() *source.Interner {
	return r.strings
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

// RegisterImpl records one (trait, type) impl. Coherence: a second impl for
// the same pair is a hard error, never a merge. The method table must cover
// every method the trait declares, with matching arity.
func (r *Registry) RegisterImpl(trait, typ types.TypeID, module source.StringID, span source.Span, methods []MethodImpl) (ImplID, error) {
	if r.sealed {
		return NoImplID, &Error{
			Code: diag.RegSealedMutation,
			Msg:  "impl registered after registry was sealed",
			Span: span,
		}
	}
	traitInfo, ok := r.interner.TraitOf(trait)
	if !ok {
		return NoImplID, &Error{
			Code: diag.RegUnknownTrait,
			Msg:  fmt.Sprintf("impl target %s is not a trait", r.interner.Render(trait)),
			Span: span,
		}
	}
	if _, ok := r.interner.Lookup(typ); !ok {
		return NoImplID, &Error{
			Code: diag.RegUnknownType,
			Msg:  "impl for unknown type",
			Span: span,
		}
	}
	key := pairKey{trait: trait, typ: typ}
	if prev, dup := r.byPair[key]; dup {
		return NoImplID, &Error{
			Code: diag.RegDuplicateImpl,
			Msg: fmt.Sprintf("duplicate impl of %s for %s",
				r.interner.Render(trait), r.interner.Render(typ)),
			Span: span,
			Prev: r.impls[prev].Span,
		}
	}
	if err := r.checkMethodTable(traitInfo, typ, span, methods); err != nil {
		return NoImplID, err
	}

	id := ImplID(len(r.impls))
	r.impls = append(r.impls, Impl{
		ID:      id,
		Trait:   trait,
		Type:    typ,
		Module:  module,
		Span:    span,
		Methods: methods,
	})
	r.byPair[key] = id
	r.byTrait[trait] = append(r.byTrait[trait], id)
	r.byType[typ] = append(r.byType[typ], trait)
	return id, nil
}

// checkMethodTable verifies every declared trait method is implemented with
// the declared arity. Missing methods are reported one at a time; the first
// mismatch aborts registration.
func (r *Registry) checkMethodTable(traitInfo *types.TraitInfo, typ types.TypeID, span source.Span, methods []MethodImpl) error {
	for _, sig := range traitInfo.Methods {
		found := false
		for _, m := range methods {
			if m.Name != sig.Name {
				continue
			}
			found = true
			if len(m.Params) != len(sig.Params) {
				name, _ := r.strings.Lookup(sig.Name)
				return &Error{
					Code: diag.RegMethodMismatch,
					Msg: fmt.Sprintf("method %s takes %d parameters, trait declares %d",
						name, len(m.Params), len(sig.Params)),
					Span: span,
				}
			}
			break
		}
		if !found {
			name, _ := r.strings.Lookup(sig.Name)
			return &Error{
				Code: diag.RegMethodMismatch,
				Msg: fmt.Sprintf("impl for %s is missing method %s",
					r.interner.Render(typ), name),
				Span: span,
			}
		}
	}
	return nil
}

// Seal freezes the registry and builds the conversion table from implicit
// constructor methods. After Seal every query is pure and safe for
// concurrent readers.
func (r *Registry) Seal() error {
	if r.sealed {
		return nil
	}
	if err := r.conv.build(r); err != nil {
		return err
	}
	r.sealed = true
	return nil
}

// ImplsOf returns the traits typ implements, in registration order.
// This is the capability-set membership query duck typing compiles down to.
func (r *Registry) ImplsOf(typ types.TypeID) []types.TypeID {
	return r.byType[typ]
}

// HasImpl reports whether typ implements trait.
func (r *Registry) HasImpl(trait, typ types.TypeID) bool {
	_, ok := r.byPair[pairKey{trait: trait, typ: typ}]
	return ok
}

// ImplFor returns the unique impl of trait for typ.
func (r *Registry) ImplFor(trait, typ types.TypeID) (*Impl, bool) {
	id, ok := r.byPair[pairKey{trait: trait, typ: typ}]
	if !ok {
		return nil, false
	}
	return &r.impls[id], true
}

// Impl returns the impl with the given ID.
func (r *Registry) Impl(id ImplID) (*Impl, bool) {
	if int(id) >= len(r.impls) {
		return nil, false
	}
	return &r.impls[id], true
}

// TraitImpls returns every impl of trait, in registration order. The slice
// is shared; callers must not mutate it.
func (r *Registry) TraitImpls(trait types.TypeID) []ImplID {
	return r.byTrait[trait]
}

// MethodsOf returns the method table of trait for typ.
func (r *Registry) MethodsOf(trait, typ types.TypeID) ([]MethodImpl, bool) {
	im, ok := r.ImplFor(trait, typ)
	if !ok {
		return nil, false
	}
	return im.Methods, true
}

// IsOpaqueVisible reports whether typ's construction, matching and field
// access are visible from module.
func (r *Registry) IsOpaqueVisible(typ types.TypeID, module source.StringID) bool {
	t, ok := r.interner.Lookup(typ)
	if !ok {
		return false
	}
	if !t.Opaque {
		return true
	}
	return t.Module == module
}

// FindConversion returns the single implicit edge from -> to, if any.
// Conversions never chain: at most one edge is consulted per argument.
func (r *Registry) FindConversion(from, to types.TypeID) (ConversionEdge, bool) {
	return r.conv.Find(from, to)
}

// Conversions exposes the sealed table (CLI inspection, snapshots).
func (r *Registry) Conversions() *ConversionTable {
	return &r.conv
}

// ImplCount returns the number of registered impls.
func (r *Registry) ImplCount() int {
	return len(r.impls)
}
