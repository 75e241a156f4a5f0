// Package region implements the owned, resizable byte buffer that backs an
// ELF file image. Sections, program headers and chains all vend chunk.Chunk
// views that alias into a Region; see package chunk for the view type.
package region

import (
	"fmt"
	"io"
	"os"

	"github.com/aeondave/elfchain/chunk"
	"github.com/aeondave/elfchain/elferr"
)

// Region is an owned, mutable byte buffer with a stable identity while live.
// The zero value is an empty, valid region.
type Region struct {
	data []byte
}

// Load reads the entire contents of path into a new Region.
func Load(path string) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("region: %s: %w", path, elferr.ErrNotFound)
		}
		return nil, fmt.Errorf("region: open %s: %w: %v", path, elferr.ErrIoError, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("region: stat %s: %w: %v", path, elferr.ErrIoError, err)
	}

	data := make([]byte, info.Size())
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, fmt.Errorf("region: read %s: %w: %v", path, elferr.ErrIoError, err)
	}
	return &Region{data: data}, nil
}

// New creates a zero-filled Region of the given size.
func New(size int) *Region {
	return &Region{data: make([]byte, size)}
}

// FromBytes wraps an existing byte slice as a Region, taking ownership of it.
func FromBytes(data []byte) *Region {
	return &Region{data: data}
}

// Len returns the current size of the region in bytes.
func (r *Region) Len() int {
	return len(r.data)
}

// Whole returns a chunk covering the entire region.
func (r *Region) Whole() chunk.Chunk {
	return chunk.New(r.data)
}

// ChunkAt returns a chunk over [offset, offset+length) of the region,
// failing with ErrOutOfRange if the range doesn't fit.
func (r *Region) ChunkAt(offset, length uint64) (chunk.Chunk, error) {
	if length == 0 {
		return chunk.Empty(), nil
	}
	if offset > uint64(len(r.data)) || length > uint64(len(r.data))-offset {
		return chunk.Chunk{}, fmt.Errorf("region: range [%d:%d+%d] out of bounds (len %d): %w",
			offset, offset, length, len(r.data), elferr.ErrOutOfRange)
	}
	return chunk.New(r.data[offset : offset+length]), nil
}

// Append grows the region by appending data at its end and returns the new
// length.
func (r *Region) Append(data []byte) int {
	r.data = append(r.data, data...)
	return len(r.data)
}

// SpliceInsert inserts data at offset, shifting every byte at or past offset
// to the right. Bytes outside [offset, end) are preserved exactly. Returns
// the new region length. Any chunk vended before the splice that overlapped
// or followed offset is stale and must be re-fetched.
func (r *Region) SpliceInsert(offset uint64, data []byte) (int, error) {
	if offset > uint64(len(r.data)) {
		return 0, fmt.Errorf("region: insert offset %d out of bounds (len %d): %w",
			offset, len(r.data), elferr.ErrOutOfRange)
	}
	grown := make([]byte, len(r.data)+len(data))
	copy(grown, r.data[:offset])
	copy(grown[offset:], data)
	copy(grown[offset+uint64(len(data)):], r.data[offset:])
	r.data = grown
	return len(r.data), nil
}

// SpliceRemove removes length bytes starting at offset, shifting trailing
// bytes left. Returns the new region length.
func (r *Region) SpliceRemove(offset, length uint64) (int, error) {
	if offset > uint64(len(r.data)) || length > uint64(len(r.data))-offset {
		return 0, fmt.Errorf("region: remove range [%d:%d+%d] out of bounds (len %d): %w",
			offset, offset, length, len(r.data), elferr.ErrOutOfRange)
	}
	r.data = append(r.data[:offset], r.data[offset+length:]...)
	return len(r.data), nil
}

// Save writes the region's current contents back to path, truncating any
// existing file of that name.
func (r *Region) Save(path string) error {
	if err := os.WriteFile(path, r.data, 0o755); err != nil {
		return fmt.Errorf("region: write %s: %w: %v", path, elferr.ErrIoError, err)
	}
	return nil
}
