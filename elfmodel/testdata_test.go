package elfmodel

import (
	"encoding/binary"
)

// buildMinimalELF assembles a synthetic little-endian ELF64 relocatable
// image in memory: a null section, .text, .symtab (one STT_FUNC symbol
// named "myfunc" at the start of .text), .strtab and .shstrtab. No program
// headers. Used by tests that need a parseable Elf without invoking a
// toolchain or shelling out to a compiler.
func buildMinimalELF(textBytes []byte) []byte {
	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	nameText := uint32(1)
	nameSymtab := uint32(7)
	nameStrtab := uint32(15)
	nameShstrtab := uint32(23)

	strtab := []byte("\x00myfunc\x00")
	const myfuncNameOff = 1

	const textAddr = uint64(0x401000)

	symtab := make([]byte, symSize*2) // null symbol + myfunc
	// symtab[0] stays the zero entry.
	sym := symtab[symSize:]
	binary.LittleEndian.PutUint32(sym[0:4], myfuncNameOff)
	sym[4] = (1 << 4) | 2 // STB_GLOBAL, STT_FUNC
	sym[5] = 0
	binary.LittleEndian.PutUint16(sym[6:8], 1) // st_shndx = .text's index
	binary.LittleEndian.PutUint64(sym[8:16], textAddr)
	binary.LittleEndian.PutUint64(sym[16:24], uint64(len(textBytes)))

	textOff := uint64(ehdrSize)
	symtabOff := textOff + uint64(len(textBytes))
	strtabOff := symtabOff + uint64(len(symtab))
	shstrtabOff := strtabOff + uint64(len(strtab))
	shOff := shstrtabOff + uint64(len(shstrtab))
	// Round shOff to an 8-byte boundary.
	if rem := shOff % 8; rem != 0 {
		shOff += 8 - rem
	}

	buf := make([]byte, shOff+shdrSize*5)

	copy(buf[textOff:], textBytes)
	copy(buf[symtabOff:], symtab)
	copy(buf[strtabOff:], strtab)
	copy(buf[shstrtabOff:], shstrtab)

	writeShdr := func(i int, nameIdx uint32, typ uint32, addr, offset, size uint64, link, info uint32, entsize uint64) {
		b := buf[shOff+uint64(i)*shdrSize : shOff+uint64(i+1)*shdrSize]
		binary.LittleEndian.PutUint32(b[0:4], nameIdx)
		binary.LittleEndian.PutUint32(b[4:8], typ)
		binary.LittleEndian.PutUint64(b[16:24], addr)
		binary.LittleEndian.PutUint64(b[24:32], offset)
		binary.LittleEndian.PutUint64(b[32:40], size)
		binary.LittleEndian.PutUint32(b[40:44], link)
		binary.LittleEndian.PutUint32(b[44:48], info)
		binary.LittleEndian.PutUint64(b[56:64], entsize)
	}

	const (
		shtNull   = 0
		shtProg   = 1
		shtSymtab = 2
		shtStrtab = 3
	)

	writeShdr(0, 0, shtNull, 0, 0, 0, 0, 0, 0)
	writeShdr(1, nameText, shtProg, textAddr, textOff, uint64(len(textBytes)), 0, 0, 0)
	writeShdr(2, nameSymtab, shtSymtab, 0, symtabOff, uint64(len(symtab)), 3, 1, symSize)
	writeShdr(3, nameStrtab, shtStrtab, 0, strtabOff, uint64(len(strtab)), 0, 0, 0)
	writeShdr(4, nameShstrtab, shtStrtab, 0, shstrtabOff, uint64(len(shstrtab)), 0, 0, 0)

	// e_ident
	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(buf[16:18], 1)  // e_type = ET_REL
	binary.LittleEndian.PutUint16(buf[18:20], 62) // e_machine = EM_X86_64
	binary.LittleEndian.PutUint32(buf[20:24], 1)  // e_version
	binary.LittleEndian.PutUint64(buf[32:40], 0)  // e_phoff
	binary.LittleEndian.PutUint64(buf[40:48], shOff)
	binary.LittleEndian.PutUint16(buf[52:54], ehdrSize)
	binary.LittleEndian.PutUint16(buf[54:56], phdrSize)
	binary.LittleEndian.PutUint16(buf[56:58], 0) // e_phnum
	binary.LittleEndian.PutUint16(buf[58:60], shdrSize)
	binary.LittleEndian.PutUint16(buf[60:62], 5) // e_shnum
	binary.LittleEndian.PutUint16(buf[62:64], 4) // e_shstrndx

	return buf
}

// buildELFWithRelaPlt assembles a synthetic ELF64 relocatable image for
// spec.md §8 scenario S5: a null section, .text (addr 0x401000, large enough
// to contain 0x401020), .rela.plt with one R_X86_64_RELATIVE entry at
// r_offset=0x401020/r_addend=0x100, and .shstrtab. No .symtab/.strtab — the
// relocation walk under test doesn't need them.
func buildELFWithRelaPlt() []byte {
	const textAddr = uint64(0x401000)
	const relaOffset = uint64(0x401020)
	const relaAddend = int64(0x100)
	const relX8664Relative = uint32(8) // elf.R_X86_64_RELATIVE

	textBytes := make([]byte, 0x30)
	for i := range textBytes {
		textBytes[i] = 0x90
	}

	shstrtab := []byte("\x00.text\x00.rela.plt\x00.shstrtab\x00")
	nameText := uint32(1)
	nameRelaPlt := uint32(7)
	nameShstrtab := uint32(17)

	rela := make([]byte, relaSize)
	binary.LittleEndian.PutUint64(rela[0:8], relaOffset)
	binary.LittleEndian.PutUint64(rela[8:16], uint64(relX8664Relative))
	binary.LittleEndian.PutUint64(rela[16:24], uint64(relaAddend))

	textOff := uint64(ehdrSize)
	relaOff := textOff + uint64(len(textBytes))
	shstrtabOff := relaOff + uint64(len(rela))
	shOff := shstrtabOff + uint64(len(shstrtab))
	if rem := shOff % 8; rem != 0 {
		shOff += 8 - rem
	}

	buf := make([]byte, shOff+shdrSize*4)

	copy(buf[textOff:], textBytes)
	copy(buf[relaOff:], rela)
	copy(buf[shstrtabOff:], shstrtab)

	writeShdr := func(i int, nameIdx uint32, typ uint32, addr, offset, size uint64, link, info uint32, entsize uint64) {
		b := buf[shOff+uint64(i)*shdrSize : shOff+uint64(i+1)*shdrSize]
		binary.LittleEndian.PutUint32(b[0:4], nameIdx)
		binary.LittleEndian.PutUint32(b[4:8], typ)
		binary.LittleEndian.PutUint64(b[16:24], addr)
		binary.LittleEndian.PutUint64(b[24:32], offset)
		binary.LittleEndian.PutUint64(b[32:40], size)
		binary.LittleEndian.PutUint32(b[40:44], link)
		binary.LittleEndian.PutUint32(b[44:48], info)
		binary.LittleEndian.PutUint64(b[56:64], entsize)
	}

	const (
		shtNull   = 0
		shtProg   = 1
		shtRela   = 4
		shtStrtab = 3
	)

	writeShdr(0, 0, shtNull, 0, 0, 0, 0, 0, 0)
	writeShdr(1, nameText, shtProg, textAddr, textOff, uint64(len(textBytes)), 0, 0, 0)
	writeShdr(2, nameRelaPlt, shtRela, 0, relaOff, uint64(len(rela)), 0, 0, relaSize)
	writeShdr(3, nameShstrtab, shtStrtab, 0, shstrtabOff, uint64(len(shstrtab)), 0, 0, 0)

	buf[0], buf[1], buf[2], buf[3] = 0x7f, 'E', 'L', 'F'
	buf[4] = 2
	buf[5] = 1
	buf[6] = 1
	binary.LittleEndian.PutUint16(buf[16:18], 1)
	binary.LittleEndian.PutUint16(buf[18:20], 62)
	binary.LittleEndian.PutUint32(buf[20:24], 1)
	binary.LittleEndian.PutUint64(buf[32:40], 0)
	binary.LittleEndian.PutUint64(buf[40:48], shOff)
	binary.LittleEndian.PutUint16(buf[52:54], ehdrSize)
	binary.LittleEndian.PutUint16(buf[54:56], phdrSize)
	binary.LittleEndian.PutUint16(buf[56:58], 0)
	binary.LittleEndian.PutUint16(buf[58:60], shdrSize)
	binary.LittleEndian.PutUint16(buf[60:62], 4) // e_shnum
	binary.LittleEndian.PutUint16(buf[62:64], 3) // e_shstrndx

	return buf
}
