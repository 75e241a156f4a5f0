package elfmodel

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/aeondave/elfchain/chunk"
	"github.com/aeondave/elfchain/elferr"
)

// Section is a typed wrapper over one Elf64_Shdr record (spec.md §3/§4.C).
// It is value-like: no behavior beyond field access, (de)serialization and
// chunk vending, which always goes through the owning Elf rather than a
// back-pointer (spec.md §9 design notes).
type Section struct {
	NameIndex uint32
	Type      elf.SectionType
	Flags     elf.SectionFlag
	Addr      uint64
	Offset    uint64
	Size      uint64
	Link      uint32
	Info      uint32
	AddrAlign uint64
	EntSize   uint64
}

// NewSection builds a Section field-by-field.
func NewSection(nameIndex uint32, typ elf.SectionType, flags elf.SectionFlag, addr, offset, size uint64, link, info uint32, addralign, entsize uint64) *Section {
	return &Section{
		NameIndex: nameIndex,
		Type:      typ,
		Flags:     flags,
		Addr:      addr,
		Offset:    offset,
		Size:      size,
		Link:      link,
		Info:      info,
		AddrAlign: addralign,
		EntSize:   entsize,
	}
}

// SectionFromChunk parses a 64-byte Elf64_Shdr record in little-endian from
// the given chunk.
func SectionFromChunk(c chunk.Chunk) (*Section, error) {
	if c.Len() < shdrSize {
		return nil, fmt.Errorf("elfmodel: section header chunk too small (%d bytes): %w",
			c.Len(), elferr.ErrInvalidFormat)
	}
	b := c.Bytes()
	return &Section{
		NameIndex: binary.LittleEndian.Uint32(b[0:4]),
		Type:      elf.SectionType(binary.LittleEndian.Uint32(b[4:8])),
		Flags:     elf.SectionFlag(binary.LittleEndian.Uint64(b[8:16])),
		Addr:      binary.LittleEndian.Uint64(b[16:24]),
		Offset:    binary.LittleEndian.Uint64(b[24:32]),
		Size:      binary.LittleEndian.Uint64(b[32:40]),
		Link:      binary.LittleEndian.Uint32(b[40:44]),
		Info:      binary.LittleEndian.Uint32(b[44:48]),
		AddrAlign: binary.LittleEndian.Uint64(b[48:56]),
		EntSize:   binary.LittleEndian.Uint64(b[56:64]),
	}, nil
}

// Serialize writes the record back into a fixed 64-byte chunk.
func (s *Section) Serialize() chunk.Chunk {
	b := make([]byte, shdrSize)
	binary.LittleEndian.PutUint32(b[0:4], s.NameIndex)
	binary.LittleEndian.PutUint32(b[4:8], uint32(s.Type))
	binary.LittleEndian.PutUint64(b[8:16], uint64(s.Flags))
	binary.LittleEndian.PutUint64(b[16:24], s.Addr)
	binary.LittleEndian.PutUint64(b[24:32], s.Offset)
	binary.LittleEndian.PutUint64(b[32:40], s.Size)
	binary.LittleEndian.PutUint32(b[40:44], s.Link)
	binary.LittleEndian.PutUint32(b[44:48], s.Info)
	binary.LittleEndian.PutUint64(b[48:56], s.AddrAlign)
	binary.LittleEndian.PutUint64(b[56:64], s.EntSize)
	return chunk.New(b)
}

// Contains reports whether the virtual address vaddr falls within this
// section's mapped address range.
func (s *Section) Contains(vaddr uint64) bool {
	return s.Addr != 0 && vaddr >= s.Addr && vaddr < s.Addr+s.Size
}
