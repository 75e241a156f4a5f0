package elfmodel

import (
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/yalue/elf_reader"

	"github.com/aeondave/elfchain/chunk"
	"github.com/aeondave/elfchain/elferr"
)

// sectionIndex returns s's position in e.sections, matching the order of
// the raw section header table. elf_reader re-parses the same raw bytes
// independently, so this index also identifies s within that parse.
func (e *Elf) sectionIndex(s *Section) (uint16, bool) {
	for i, cur := range e.sections {
		if cur == s {
			return uint16(i), true
		}
	}
	return 0, false
}

// reparse builds a fresh elf_reader view over the backing Region's current
// raw bytes. elf_reader.ELF64File has no mutation API (spec.md §4.F notes
// the decoder is read-only), so every symbol/relocation walk reparses from
// the Region, which Flush keeps in sync after each structural edit.
func (e *Elf) reparse() (elf_reader.ELFFile, error) {
	ef, err := elf_reader.ParseELFFile(e.region.Whole().Bytes())
	if err != nil {
		return nil, fmt.Errorf("elfmodel: reparsing for symbol walk: %w", elferr.ErrInvalidFormat)
	}
	return ef, nil
}

// GetFunctionOffset resolves name to its st_value in the first .symtab
// entry of type STT_FUNC carrying that name (spec.md §4.F). A miss, or the
// absence of a symbol table, is reported as (0, false) rather than an
// error.
func (e *Elf) GetFunctionOffset(name string) (uint64, bool) {
	symtab, ok := e.GetSectionByName(".symtab")
	if !ok {
		return 0, false
	}
	idx, ok := e.sectionIndex(symtab)
	if !ok {
		return 0, false
	}
	ef, err := e.reparse()
	if err != nil {
		return 0, false
	}
	syms, names, err := ef.GetSymbols(idx)
	if err != nil {
		return 0, false
	}
	for i, sym := range syms {
		if sym.GetInfo().SymbolType() != uint8(elf.STT_FUNC) {
			continue
		}
		if i < len(names) && names[i] == name {
			return sym.GetValue(), true
		}
	}
	return 0, false
}

// GetFunctionChunk resolves name to the chunk of bytes backing its
// definition: the containing section's data, sliced to the symbol's
// st_value/st_size (spec.md §4.F).
func (e *Elf) GetFunctionChunk(name string) (chunk.Chunk, bool) {
	symtab, ok := e.GetSectionByName(".symtab")
	if !ok {
		return chunk.Empty(), false
	}
	idx, ok := e.sectionIndex(symtab)
	if !ok {
		return chunk.Empty(), false
	}
	ef, err := e.reparse()
	if err != nil {
		return chunk.Empty(), false
	}
	syms, names, err := ef.GetSymbols(idx)
	if err != nil {
		return chunk.Empty(), false
	}
	for i, sym := range syms {
		if sym.GetInfo().SymbolType() != uint8(elf.STT_FUNC) {
			continue
		}
		if i >= len(names) || names[i] != name {
			continue
		}
		addr := sym.GetValue()
		size := sym.GetSize()
		for _, s := range e.sections {
			if !s.Contains(addr) {
				continue
			}
			data, err := e.GetSectionDataChunk(s)
			if err != nil {
				return chunk.Empty(), false
			}
			start := addr - s.Addr
			if start+size > uint64(data.Len()) {
				return chunk.Empty(), false
			}
			c, err := data.Slice(int(start), int(size))
			if err != nil {
				return chunk.Empty(), false
			}
			return c, true
		}
		return chunk.Empty(), false
	}
	return chunk.Empty(), false
}

// AddSection appends s to the section table and bumps e_shnum. Placement
// within the Region (sh_offset, and any data bytes) is the caller's
// responsibility (spec.md §9 open question); Flush must be called
// afterward to commit the new header count to the backing bytes.
func (e *Elf) AddSection(s *Section) {
	e.sections = append(e.sections, s)
	e.header.Shnum++
}

// RemoveSection deletes s from the section table and decrements e_shnum.
// sh_link/sh_info cross references into the removed index are not
// renumbered (spec.md §9, a documented limitation). Returns false if s is
// not present.
func (e *Elf) RemoveSection(s *Section) bool {
	for i, cur := range e.sections {
		if cur != s {
			continue
		}
		e.sections = append(e.sections[:i], e.sections[i+1:]...)
		e.header.Shnum--
		if e.shstrtab == s {
			e.shstrtab = nil
		}
		if e.strtab == s {
			e.strtab = nil
		}
		return true
	}
	return false
}

// AddProgramHeader appends p to the program-header table and bumps
// e_phnum.
func (e *Elf) AddProgramHeader(p *ProgramHeader) {
	e.programHeaders = append(e.programHeaders, p)
	e.header.Phnum++
}

// RemoveProgramHeader deletes p from the program-header table and
// decrements e_phnum. Returns false if p is not present.
func (e *Elf) RemoveProgramHeader(p *ProgramHeader) bool {
	for i, cur := range e.programHeaders {
		if cur != p {
			continue
		}
		e.programHeaders = append(e.programHeaders[:i], e.programHeaders[i+1:]...)
		e.header.Phnum--
		return true
	}
	return false
}

// UpdateSymbolsOffsets propagates a byte-offset shift applied to section
// into every symbol table entry whose st_shndx names it, and into every
// relocation entry (.rela.dyn/.rela.plt) whose r_offset falls within it
// (spec.md §4.F). elf_reader has no write path, so entries are located by
// re-parsing the Region and then patched directly in the raw bytes with
// encoding/binary, mirroring the teacher's elfrw manual-patch idiom.
func (e *Elf) UpdateSymbolsOffsets(section *Section, delta int64) error {
	secIdx, ok := e.sectionIndex(section)
	if !ok {
		return fmt.Errorf("elfmodel: section not present in this object: %w", elferr.ErrFailed)
	}

	if symtab, ok := e.GetSectionByName(".symtab"); ok {
		if err := e.patchSymtabOffsets(symtab, secIdx, delta); err != nil {
			return err
		}
	}
	for _, relaName := range []string{".rela.dyn", ".rela.plt"} {
		if rela, ok := e.GetSectionByName(relaName); ok {
			if err := e.patchRelaOffsets(rela, section, delta); err != nil {
				return err
			}
		}
	}
	return nil
}

// patchSymtabOffsets rewrites st_value for every symbol whose st_shndx
// equals secIdx. Matching entries are located with elf_reader's GetSymbols
// (the same read path GetFunctionOffset uses above), not a hand-rolled
// parallel walk; only the st_value write itself touches raw bytes directly,
// since elf_reader.ELFFile has no mutation API. Elf64_Sym layout: st_name(4)
// st_info(1) st_other(1) st_shndx(2) st_value(8) st_size(8).
func (e *Elf) patchSymtabOffsets(symtab *Section, secIdx uint16, delta int64) error {
	symtabIdx, ok := e.sectionIndex(symtab)
	if !ok {
		return fmt.Errorf("elfmodel: .symtab not present in this object: %w", elferr.ErrFailed)
	}
	ef, err := e.reparse()
	if err != nil {
		return err
	}
	syms, _, err := ef.GetSymbols(symtabIdx)
	if err != nil {
		return fmt.Errorf("elfmodel: reading .symtab via elf_reader: %w", err)
	}
	data, err := e.GetSectionDataChunk(symtab)
	if err != nil {
		return err
	}
	raw := data.Bytes()
	for i, sym := range syms {
		if sym.GetSectionIndex() != secIdx {
			continue
		}
		entry := raw[i*symSize : (i+1)*symSize]
		newValue := uint64(int64(sym.GetValue()) + delta)
		binary.LittleEndian.PutUint64(entry[8:16], newValue)
	}
	return nil
}

// patchRelaOffsets rewrites r_offset (and, for R_X86_64_RELATIVE entries,
// r_addend) for every relocation entry whose offset falls within section's
// original address range. Matching entries are located with elf_reader's
// GetRelocations, mirroring patchSymtabOffsets above; only the write goes
// through encoding/binary, since elf_reader has no mutation API. Elf64_Rela
// layout: r_offset(8) r_info(8) r_addend(8).
func (e *Elf) patchRelaOffsets(rela *Section, section *Section, delta int64) error {
	relaIdx, ok := e.sectionIndex(rela)
	if !ok {
		return fmt.Errorf("elfmodel: relocation section not present in this object: %w", elferr.ErrFailed)
	}
	ef, err := e.reparse()
	if err != nil {
		return err
	}
	relocs, err := ef.GetRelocations(relaIdx)
	if err != nil {
		return fmt.Errorf("elfmodel: reading %s via elf_reader: %w", relaSectionLabel(e, rela), err)
	}
	data, err := e.GetSectionDataChunk(rela)
	if err != nil {
		return err
	}
	raw := data.Bytes()
	for i, r := range relocs {
		if !section.Contains(r.Offset()) {
			continue
		}
		entry := raw[i*relaSize : (i+1)*relaSize]
		newOffset := uint64(int64(r.Offset()) + delta)
		binary.LittleEndian.PutUint64(entry[0:8], newOffset)

		if elf.R_X86_64(r.Type()) == elf.R_X86_64_RELATIVE {
			newAddend := uint64(r.Addend() + delta)
			binary.LittleEndian.PutUint64(entry[16:24], newAddend)
		}
	}
	return nil
}

// relaSectionLabel names rela for error messages without failing when its
// name can't be resolved.
func relaSectionLabel(e *Elf, rela *Section) string {
	if name, err := e.GetSectionName(rela); err == nil {
		return name
	}
	return "relocation section"
}
