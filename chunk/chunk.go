// Package chunk implements the bounded byte-range view used throughout the
// ELF object model. A Chunk never owns the bytes it exposes; it aliases into
// whatever backing buffer vended it (typically a region.Region).
package chunk

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/aeondave/elfchain/elferr"
)

// Chunk is a view over a contiguous byte range. The zero value is the empty
// chunk. Copying a Chunk copies only the slice header, never the bytes.
type Chunk struct {
	data []byte
}

// New wraps data as a Chunk without copying it.
func New(data []byte) Chunk {
	return Chunk{data: data}
}

// Empty returns the zero-length chunk.
func Empty() Chunk {
	return Chunk{}
}

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int {
	return len(c.data)
}

// Bytes returns the aliased byte slice. Callers must not retain it past the
// lifetime of the owning buffer.
func (c Chunk) Bytes() []byte {
	return c.data
}

// Slice returns a sub-chunk of length bytes starting at offset, aliasing the
// same backing array. It fails with ErrOutOfRange when the requested range
// exceeds the source chunk.
func (c Chunk) Slice(offset, length int) (Chunk, error) {
	if offset < 0 || length < 0 || offset+length > len(c.data) {
		return Chunk{}, fmt.Errorf("chunk: slice [%d:%d+%d] out of range (len %d): %w",
			offset, offset, length, len(c.data), elferr.ErrOutOfRange)
	}
	return Chunk{data: c.data[offset : offset+length]}, nil
}

// Equal reports whether two chunks have identical contents. Two empty chunks
// are always equal, regardless of their backing array.
func (c Chunk) Equal(other Chunk) bool {
	return bytes.Equal(c.data, other.data)
}

// Hex renders the chunk as a lowercase hex string.
func (c Chunk) Hex() string {
	return hex.EncodeToString(c.data)
}

// Concat returns a new, independently-owned Chunk holding the concatenation
// of chunks, in argument order. Unlike Slice, this allocates.
func Concat(chunks ...Chunk) Chunk {
	total := 0
	for _, c := range chunks {
		total += len(c.data)
	}
	buf := make([]byte, 0, total)
	for _, c := range chunks {
		buf = append(buf, c.data...)
	}
	return Chunk{data: buf}
}

// String implements fmt.Stringer for debugging; it never panics on large
// chunks, truncating the hex dump past 64 bytes.
func (c Chunk) String() string {
	if len(c.data) <= 64 {
		return fmt.Sprintf("chunk[%d]{%s}", len(c.data), c.Hex())
	}
	return fmt.Sprintf("chunk[%d]{%s...}", len(c.data), hex.EncodeToString(c.data[:64]))
}
