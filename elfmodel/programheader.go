package elfmodel

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/aeondave/elfchain/chunk"
	"github.com/aeondave/elfchain/elferr"
)

// ProgramHeader is a typed wrapper over one Elf64_Phdr record (spec.md
// §3/§4.D). Same lifecycle and value semantics as Section.
type ProgramHeader struct {
	Type   elf.ProgType
	Flags  elf.ProgFlag
	Offset uint64
	Vaddr  uint64
	Paddr  uint64
	Filesz uint64
	Memsz  uint64
	Align  uint64
}

// NewProgramHeader builds a ProgramHeader field-by-field.
func NewProgramHeader(typ elf.ProgType, flags elf.ProgFlag, offset, vaddr, paddr, filesz, memsz, align uint64) *ProgramHeader {
	return &ProgramHeader{
		Type: typ, Flags: flags, Offset: offset, Vaddr: vaddr, Paddr: paddr,
		Filesz: filesz, Memsz: memsz, Align: align,
	}
}

// ProgramHeaderFromChunk parses a 56-byte Elf64_Phdr record in little-endian.
func ProgramHeaderFromChunk(c chunk.Chunk) (*ProgramHeader, error) {
	if c.Len() < phdrSize {
		return nil, fmt.Errorf("elfmodel: program header chunk too small (%d bytes): %w",
			c.Len(), elferr.ErrInvalidFormat)
	}
	b := c.Bytes()
	return &ProgramHeader{
		Type:   elf.ProgType(binary.LittleEndian.Uint32(b[0:4])),
		Flags:  elf.ProgFlag(binary.LittleEndian.Uint32(b[4:8])),
		Offset: binary.LittleEndian.Uint64(b[8:16]),
		Vaddr:  binary.LittleEndian.Uint64(b[16:24]),
		Paddr:  binary.LittleEndian.Uint64(b[24:32]),
		Filesz: binary.LittleEndian.Uint64(b[32:40]),
		Memsz:  binary.LittleEndian.Uint64(b[40:48]),
		Align:  binary.LittleEndian.Uint64(b[48:56]),
	}, nil
}

// Serialize writes the record back into a fixed 56-byte chunk.
func (p *ProgramHeader) Serialize() chunk.Chunk {
	b := make([]byte, phdrSize)
	binary.LittleEndian.PutUint32(b[0:4], uint32(p.Type))
	binary.LittleEndian.PutUint32(b[4:8], uint32(p.Flags))
	binary.LittleEndian.PutUint64(b[8:16], p.Offset)
	binary.LittleEndian.PutUint64(b[16:24], p.Vaddr)
	binary.LittleEndian.PutUint64(b[24:32], p.Paddr)
	binary.LittleEndian.PutUint64(b[32:40], p.Filesz)
	binary.LittleEndian.PutUint64(b[40:48], p.Memsz)
	binary.LittleEndian.PutUint64(b[48:56], p.Align)
	return chunk.New(b)
}
