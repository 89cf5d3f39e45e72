package source

import (
	"fmt"
	"os"
	"sort"

	"fortio.org/safecast"
)

// FileSet manages loaded source files and resolves spans to positions.
// It is populated during the construction phase and read-only afterwards,
// so concurrent readers need no locking.
type FileSet struct {
	files []File
	index map[string]FileID // path -> последняя версия файла
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores normalized content under path, builds the line index and returns
// a fresh FileID. A file added twice gets a new ID; the index keeps the last.
func (fs *FileSet) Add(path string, content []byte) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    path,
		Content: content,
		LineIdx: buildLineIndex(content),
	})
	fs.index[path] = id
	return id
}

// AddVirtual adds an in-memory file (tests, generated input).
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	id := fs.Add(name, content)
	fs.files[id].Virtual = true
	return id
}

// Load reads path from disk and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return NoFileID, err
	}
	return fs.Add(path, content), nil
}

// Get returns the file for id, or nil when id is unknown.
func (fs *FileSet) Get(id FileID) *File {
	if id == NoFileID || int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the last FileID registered for path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fs.index[path]
	return id, ok
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

// Position resolves the start of a span to a 1-based line/column pair.
// Unknown files yield a zero Position so diagnostics stay printable.
func (fs *FileSet) Position(sp Span) Position {
	f := fs.Get(sp.File)
	if f == nil {
		return Position{}
	}
	line := sort.Search(len(f.LineIdx), func(i int) bool {
		return f.LineIdx[i] > sp.Start
	})
	// line is 1-based already: LineIdx[0] == 0 is always <= Start.
	col := sp.Start
	if line > 0 {
		col = sp.Start - f.LineIdx[line-1]
	}
	return Position{
		Path: f.Path,
		Line: uint32(line),
		Col:  col + 1,
	}
}

// LineContent returns the text of a 1-based line without the trailing newline.
func (fs *FileSet) LineContent(id FileID, line uint32) []byte {
	f := fs.Get(id)
	if f == nil || line == 0 || int(line) > len(f.LineIdx) {
		return nil
	}
	start := f.LineIdx[line-1]
	end := uint32(len(f.Content))
	if int(line) < len(f.LineIdx) {
		end = f.LineIdx[line]
	}
	for end > start && (f.Content[end-1] == '\n' || f.Content[end-1] == '\r') {
		end--
	}
	return f.Content[start:end]
}

func buildLineIndex(content []byte) []uint32 {
	idx := make([]uint32, 1, 16)
	idx[0] = 0
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i+1))
		}
	}
	return idx
}
