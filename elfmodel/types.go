// Package elfmodel implements the ELF object model from spec.md §3-4: a
// typed, mutable, round-trippable view of sections, program headers and the
// file header backing them, plus the Code contract that downstream analysis
// consumers program against.
package elfmodel

import (
	"debug/elf"
	"fmt"
)

// Record sizes per the System V gABI, 64-bit class only (spec.md §6).
const (
	ehdrSize = 64
	shdrSize = 64
	phdrSize = 56
	symSize  = 24
	relaSize = 24
)

// Ehdr mirrors Elf64_Ehdr. It is the in-memory counterpart of the file
// header read from offset 0 of a Region, in the same field-for-field style
// as the teacher's elfrw.Ehdr.
type Ehdr struct {
	Ident     [16]byte
	Type      elf.Type
	Machine   elf.Machine
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

func (h *Ehdr) String() string {
	return fmt.Sprintf("ELF Header: Type=%s Machine=%s Entry=0x%x Phoff=0x%x "+
		"Shoff=0x%x Phnum=%d Shnum=%d Shstrndx=%d",
		h.Type, h.Machine, h.Entry, h.Phoff, h.Shoff, h.Phnum, h.Shnum, h.Shstrndx)
}

// magic is the 4-byte ELF identification prefix (spec.md §4.F step 1).
var magic = [4]byte{0x7f, 'E', 'L', 'F'}
