package registry

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"keel/internal/source"
	"keel/internal/types"
)

// Current schema version - increment when Payload format changes.
const snapshotSchemaVersion uint16 = 1

// Payload is the on-disk form of a sealed registry. Repeated compiler
// invocations (and the CLI) reuse a built registry instead of replaying
// declarations.
type Payload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Strings []string
	Types   types.State
	Impls   []Impl
	Edges   []ConversionEdge
}

// Snapshot serializes a sealed registry with msgpack.
func (r *Registry) Snapshot() ([]byte, error) {
	if !r.sealed {
		return nil, fmt.Errorf("registry: snapshot of unsealed registry")
	}
	payload := Payload{
		Schema:  snapshotSchemaVersion,
		Strings: r.strings.Export(),
		Types:   r.interner.State(),
		Impls:   r.impls,
		Edges:   r.conv.Edges(),
	}
	return msgpack.Marshal(&payload)
}

// FromSnapshot rebuilds a sealed registry from Snapshot output. A schema
// mismatch or decode failure is reported, never silently tolerated: a stale
// cache must not leak into resolution.
func FromSnapshot(data []byte) (*Registry, error) {
	var payload Payload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("registry: corrupt snapshot: %w", err)
	}
	if payload.Schema != snapshotSchemaVersion {
		return nil, fmt.Errorf("registry: snapshot schema %d, want %d",
			payload.Schema, snapshotSchemaVersion)
	}
	strings := source.RestoreInterner(payload.Strings)
	r := &Registry{
		interner: types.RestoreInterner(strings, payload.Types),
		strings:  strings,
		impls:    payload.Impls,
		byPair:   make(map[pairKey]ImplID, len(payload.Impls)),
		byTrait:  make(map[types.TypeID][]ImplID),
		byType:   make(map[types.TypeID][]types.TypeID),
	}
	for i := range r.impls {
		im := &r.impls[i]
		key := pairKey{trait: im.Trait, typ: im.Type}
		if _, dup := r.byPair[key]; dup {
			return nil, fmt.Errorf("registry: snapshot violates coherence for (%s, %s)",
				r.interner.Render(im.Trait), r.interner.Render(im.Type))
		}
		r.byPair[key] = im.ID
		r.byTrait[im.Trait] = append(r.byTrait[im.Trait], im.ID)
		r.byType[im.Type] = append(r.byType[im.Type], im.Trait)
	}
	r.conv.edges = make(map[convKey]ConversionEdge, len(payload.Edges))
	for _, e := range payload.Edges {
		r.conv.edges[convKey{from: e.From, to: e.To}] = e
	}
	r.sealed = true
	return r, nil
}
