package source

// StringID is a stable handle for an interned string.
type StringID uint32

const NoStringID StringID = 0

// Interner deduplicates strings (type, trait and method names mostly).
// ID 0 is reserved for the empty string.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the ID for s, allocating one on first sight.
func (in *Interner) Intern(s string) StringID {
	if id, ok := in.index[s]; ok {
		return id
	}
	// собственная копия строки, чтобы не держать чужой буфер
	cpy := string([]byte(s))
	id := StringID(len(in.byID))
	in.byID = append(in.byID, cpy)
	in.index[cpy] = id
	return id
}

// ID returns the existing ID for s without interning. Safe for concurrent
// readers once construction is done.
func (in *Interner) ID(s string) (StringID, bool) {
	id, ok := in.index[s]
	return id, ok
}

// Lookup returns the string for id and whether id is valid.
func (in *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// MustLookup panics on an invalid id.
func (in *Interner) MustLookup(id StringID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic("source: invalid StringID")
	}
	return s
}

func (in *Interner) Len() int {
	return len(in.byID)
}

// Export returns a copy of the string table, ordered by ID. Used by registry
// snapshots; replaying the slice through RestoreInterner reproduces IDs.
func (in *Interner) Export() []string {
	out := make([]string, len(in.byID))
	copy(out, in.byID)
	return out
}

// RestoreInterner rebuilds an interner from an exported table.
func RestoreInterner(table []string) *Interner {
	in := NewInterner()
	for _, s := range table {
		in.Intern(s)
	}
	return in
}
