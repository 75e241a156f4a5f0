package elfmodel

import "github.com/aeondave/elfchain/chunk"

// Code is the polymorphic contract any executable-file model satisfies
// (spec.md §4.E). Elf is presently its sole implementor; other formats are
// expected to satisfy the same three operations rather than going through a
// shared base type.
type Code interface {
	// GetFunctionOffset resolves name to its entry virtual address. The
	// second return value is false when no such function is found — a
	// miss is never reported as an error (spec.md §7).
	GetFunctionOffset(name string) (uint64, bool)
	// GetFunctionChunk resolves name to the chunk of bytes backing it.
	GetFunctionChunk(name string) (chunk.Chunk, bool)
	// Destroy releases resources associated with the model.
	Destroy()
}

var _ Code = (*Elf)(nil)
