package source

// FileID identifies a file inside a FileSet.
type FileID uint32

// NoFileID is the zero sentinel for "no file".
const NoFileID FileID = ^FileID(0)

// File stores a loaded source file together with its line index.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx[i] is the byte offset of the first byte of line i (0-based).
	LineIdx []uint32
	Virtual bool
}

// Position is a resolved human-readable location (1-based line and column).
type Position struct {
	Path string
	Line uint32
	Col  uint32
}
