// Package source provides the random-access byte sources the amrx demux
// core reads from.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// A Source supplies random-access reads over a fixed-length byte stream. The
// length must not change underneath an open extractor. Extractors borrow a
// Source by reference and never close it; whoever opened it owns its
// lifetime.
type Source interface {
	io.ReaderAt
	Size() int64
}

// File is a Source backed by an open file descriptor.
type File struct {
	f    *os.File
	size int64
}

// OpenFile opens path for random-access reading. The caller must Close the
// returned File after every extractor borrowing it is done.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: stat %q: %w", path, err)
	}
	return &File{f: f, size: fi.Size()}, nil
}

// ReadAt implements io.ReaderAt.
func (s *File) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }

// Size reports the file length observed at open time.
func (s *File) Size() int64 { return s.size }

// Close releases the underlying file.
func (s *File) Close() error { return s.f.Close() }

// Mem is an in-memory Source used by tests, tooling, and buffered inputs.
type Mem struct {
	r *bytes.Reader
}

// NewMem wraps b as a Source without copying it.
func NewMem(b []byte) *Mem { return &Mem{r: bytes.NewReader(b)} }

// ReadAt implements io.ReaderAt.
func (s *Mem) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }

// Size reports the wrapped slice's length.
func (s *Mem) Size() int64 { return s.r.Size() }
