package elfmodel

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"

	"github.com/aeondave/elfchain/chunk"
	"github.com/aeondave/elfchain/elferr"
	"github.com/aeondave/elfchain/region"
)

// Elf is the concrete Code implementation: it parses a Region, owns ordered
// section and program-header lists, and provides name resolution, symbol
// bookkeeping and layout mutation (spec.md §3/§4.F).
//
// Sections and program headers never hold a back-pointer to their owning
// Elf (spec.md §9 design notes); every chunk vend goes through Elf methods.
type Elf struct {
	region         *region.Region
	header         Ehdr
	sections       []*Section
	programHeaders []*ProgramHeader
	shstrtab       *Section
	strtab         *Section
}

// New parses region into an Elf object. Construction validates the ELF
// magic and header fields up front; a structural failure leaves no partial
// object observable (spec.md §7).
//
// Go's interface dispatch (Code) replaces the source's per-instance
// type-tag argument, so unlike create_elf(type_tag, region) in spec.md
// §4.F, New takes only the region — see DESIGN.md open question
// decision (a) on this signature.
func New(r *region.Region) (*Elf, error) {
	whole := r.Whole()
	if whole.Len() < ehdrSize {
		return nil, fmt.Errorf("elfmodel: file too small for an ELF header (%d bytes): %w",
			whole.Len(), elferr.ErrInvalidFormat)
	}
	b := whole.Bytes()
	if !bytes.Equal(b[0:4], magic[:]) {
		return nil, fmt.Errorf("elfmodel: bad magic %x: %w", b[0:4], elferr.ErrInvalidFormat)
	}

	hdr := parseEhdr(b)
	if hdr.Shnum > 0 && hdr.Shentsize != shdrSize {
		return nil, fmt.Errorf("elfmodel: unsupported section header entry size %d: %w",
			hdr.Shentsize, elferr.ErrInvalidFormat)
	}

	sections := make([]*Section, 0, hdr.Shnum)
	for i := uint16(0); i < hdr.Shnum; i++ {
		c, err := r.ChunkAt(hdr.Shoff+uint64(i)*uint64(hdr.Shentsize), uint64(hdr.Shentsize))
		if err != nil {
			return nil, fmt.Errorf("elfmodel: section header %d: %w", i, elferr.ErrInvalidFormat)
		}
		sec, err := SectionFromChunk(c)
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}

	programHeaders := make([]*ProgramHeader, 0, hdr.Phnum)
	for i := uint16(0); i < hdr.Phnum; i++ {
		c, err := r.ChunkAt(hdr.Phoff+uint64(i)*uint64(hdr.Phentsize), uint64(hdr.Phentsize))
		if err != nil {
			return nil, fmt.Errorf("elfmodel: program header %d: %w", i, elferr.ErrInvalidFormat)
		}
		ph, err := ProgramHeaderFromChunk(c)
		if err != nil {
			return nil, err
		}
		programHeaders = append(programHeaders, ph)
	}

	e := &Elf{region: r, header: hdr, sections: sections, programHeaders: programHeaders}

	if int(hdr.Shstrndx) >= len(sections) {
		return nil, fmt.Errorf("elfmodel: e_shstrndx %d out of range (%d sections): %w",
			hdr.Shstrndx, len(sections), elferr.ErrInvalidFormat)
	}
	e.shstrtab = sections[hdr.Shstrndx]
	if e.shstrtab.Type != elf.SHT_STRTAB {
		return nil, fmt.Errorf("elfmodel: e_shstrndx does not point to a SHT_STRTAB section: %w",
			elferr.ErrInvalidFormat)
	}

	for _, s := range sections {
		if s.Type != elf.SHT_STRTAB {
			continue
		}
		if name, err := e.GetSectionName(s); err == nil && name == ".strtab" {
			e.strtab = s
			break
		}
	}

	return e, nil
}

func parseEhdr(b []byte) Ehdr {
	var h Ehdr
	copy(h.Ident[:], b[0:16])
	h.Type = elf.Type(binary.LittleEndian.Uint16(b[16:18]))
	h.Machine = elf.Machine(binary.LittleEndian.Uint16(b[18:20]))
	h.Version = binary.LittleEndian.Uint32(b[20:24])
	h.Entry = binary.LittleEndian.Uint64(b[24:32])
	h.Phoff = binary.LittleEndian.Uint64(b[32:40])
	h.Shoff = binary.LittleEndian.Uint64(b[40:48])
	h.Flags = binary.LittleEndian.Uint32(b[48:52])
	h.Ehsize = binary.LittleEndian.Uint16(b[52:54])
	h.Phentsize = binary.LittleEndian.Uint16(b[54:56])
	h.Phnum = binary.LittleEndian.Uint16(b[56:58])
	h.Shentsize = binary.LittleEndian.Uint16(b[58:60])
	h.Shnum = binary.LittleEndian.Uint16(b[60:62])
	h.Shstrndx = binary.LittleEndian.Uint16(b[62:64])
	return h
}

func writeEhdr(b []byte, h Ehdr) {
	copy(b[0:16], h.Ident[:])
	binary.LittleEndian.PutUint16(b[16:18], uint16(h.Type))
	binary.LittleEndian.PutUint16(b[18:20], uint16(h.Machine))
	binary.LittleEndian.PutUint32(b[20:24], h.Version)
	binary.LittleEndian.PutUint64(b[24:32], h.Entry)
	binary.LittleEndian.PutUint64(b[32:40], h.Phoff)
	binary.LittleEndian.PutUint64(b[40:48], h.Shoff)
	binary.LittleEndian.PutUint32(b[48:52], h.Flags)
	binary.LittleEndian.PutUint16(b[52:54], h.Ehsize)
	binary.LittleEndian.PutUint16(b[54:56], h.Phentsize)
	binary.LittleEndian.PutUint16(b[56:58], h.Phnum)
	binary.LittleEndian.PutUint16(b[58:60], h.Shentsize)
	binary.LittleEndian.PutUint16(b[60:62], h.Shnum)
	binary.LittleEndian.PutUint16(b[62:64], h.Shstrndx)
}

// Header returns a copy of the cached ELF file header.
func (e *Elf) Header() Ehdr {
	return e.header
}

// Sections returns the ordered section list. Index-stable under append,
// non-stable under Remove (spec.md §3).
func (e *Elf) Sections() []*Section {
	return e.sections
}

// ProgramHeaders returns the ordered program-header list.
func (e *Elf) ProgramHeaders() []*ProgramHeader {
	return e.programHeaders
}

// GetSectionName reads the null-terminated name of s from the cached
// .shstrtab section's data chunk (spec.md §4.F).
func (e *Elf) GetSectionName(s *Section) (string, error) {
	if e.shstrtab == nil {
		return "", fmt.Errorf("elfmodel: no .shstrtab cached: %w", elferr.ErrInvalidFormat)
	}
	data, err := e.GetSectionDataChunk(e.shstrtab)
	if err != nil {
		return "", err
	}
	return readCString(data.Bytes(), s.NameIndex)
}

func readCString(table []byte, offset uint32) (string, error) {
	if uint64(offset) >= uint64(len(table)) {
		return "", fmt.Errorf("elfmodel: name offset %d past string table (len %d): %w",
			offset, len(table), elferr.ErrOutOfRange)
	}
	end := offset
	for end < uint32(len(table)) && table[end] != 0 {
		end++
	}
	return string(table[offset:end]), nil
}

// GetSectionByName scans sections in insertion order, skipping empty-name
// entries (the conventional index-0 null section); the first match wins.
func (e *Elf) GetSectionByName(name string) (*Section, bool) {
	for _, s := range e.sections {
		n, err := e.GetSectionName(s)
		if err != nil || n == "" {
			continue
		}
		if n == name {
			return s, true
		}
	}
	return nil, false
}

// GetSectionDataChunk vends the chunk of bytes backing s. SHT_NOBITS
// sections (e.g. .bss) occupy no file bytes and always yield an empty
// chunk.
func (e *Elf) GetSectionDataChunk(s *Section) (chunk.Chunk, error) {
	if s.Type == elf.SHT_NOBITS {
		return chunk.Empty(), nil
	}
	return e.region.ChunkAt(s.Offset, s.Size)
}

// GetProgramHeaderDataChunk vends the chunk of bytes backing p's file
// image (its in-memory image may be larger; Memsz is not used here).
func (e *Elf) GetProgramHeaderDataChunk(p *ProgramHeader) (chunk.Chunk, error) {
	return e.region.ChunkAt(p.Offset, p.Filesz)
}

// Destroy releases the Elf's resources. Sections, program headers and the
// backing Region are all exclusively owned (spec.md §3); nothing should
// reference e afterward.
func (e *Elf) Destroy() {
	e.sections = nil
	e.programHeaders = nil
	e.shstrtab = nil
	e.strtab = nil
	e.region = nil
}

// sectionTagTable maps conventional section names to their dynamic-table
// tag (spec.md §4.F).
var sectionTagTable = map[string]elf.DynTag{
	".init":          elf.DT_INIT,
	".fini":          elf.DT_FINI,
	".hash":          elf.DT_HASH,
	".strtab":        elf.DT_STRTAB,
	".symtab":        elf.DT_SYMTAB,
	".rela.dyn":      elf.DT_RELA,
	".rela.plt":      elf.DT_JMPREL,
	".init_array":    elf.DT_INIT_ARRAY,
	".fini_array":    elf.DT_FINI_ARRAY,
	".preinit_array": elf.DT_PREINIT_ARRAY,
	".dynstr":        elf.DT_STRTAB,
	".dynsym":        elf.DT_SYMTAB,
	".plt.got":       elf.DT_PLTGOT,
	".got.plt":       elf.DT_PLTGOT,
}

// GetSectionTag maps s's conventional name to its dynamic-table tag,
// returning 0 when no mapping exists.
func (e *Elf) GetSectionTag(s *Section) elf.DynTag {
	name, err := e.GetSectionName(s)
	if err != nil {
		return 0
	}
	return sectionTagTable[name]
}

// d_ptr tags per the System V gABI Elf64_Dyn.d_un partition: these
// interpret d_un as an address rather than a plain value.
var dPtrTags = map[elf.DynTag]bool{
	elf.DT_PLTGOT:        true,
	elf.DT_HASH:          true,
	elf.DT_STRTAB:        true,
	elf.DT_SYMTAB:        true,
	elf.DT_RELA:          true,
	elf.DT_INIT:          true,
	elf.DT_FINI:          true,
	elf.DT_REL:           true,
	elf.DT_DEBUG:         true,
	elf.DT_JMPREL:        true,
	elf.DT_SYMTAB_SHNDX:  true,
	elf.DT_INIT_ARRAY:    true,
	elf.DT_FINI_ARRAY:    true,
	elf.DT_PREINIT_ARRAY: true,
}

// IsSectionTagDPtr reports whether tag's .d_un is interpreted as an
// address.
func (e *Elf) IsSectionTagDPtr(tag elf.DynTag) bool {
	return dPtrTags[tag]
}

// Flush rewrites the ELF file header and every section/program-header
// record back into the backing Region at their current offsets, without
// moving section data. Called after any mutation; on a freshly parsed,
// unmutated Elf it reproduces the original bytes exactly (spec.md §8
// testable property 3).
func (e *Elf) Flush() error {
	hdrChunk, err := e.region.ChunkAt(0, ehdrSize)
	if err != nil {
		return err
	}
	writeEhdr(hdrChunk.Bytes(), e.header)

	for i, s := range e.sections {
		pos := e.header.Shoff + uint64(i)*uint64(e.header.Shentsize)
		c, err := e.region.ChunkAt(pos, shdrSize)
		if err != nil {
			return fmt.Errorf("elfmodel: flush section header %d: %w", i, err)
		}
		copy(c.Bytes(), s.Serialize().Bytes())
	}

	for i, p := range e.programHeaders {
		pos := e.header.Phoff + uint64(i)*uint64(e.header.Phentsize)
		c, err := e.region.ChunkAt(pos, phdrSize)
		if err != nil {
			return fmt.Errorf("elfmodel: flush program header %d: %w", i, err)
		}
		copy(c.Bytes(), p.Serialize().Bytes())
	}
	return nil
}
