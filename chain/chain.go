// Package chain implements the address-keyed instruction chain described
// in spec.md §4.G: a decoded run of instructions anchored at a virtual
// address, alongside the disassembly text and raw bytes that produced it.
//
// The instruction decoder itself is an external collaborator. Where the
// original chain_t left decoding to an injected XED handle, this package
// wires golang.org/x/arch/x86/x86asm as a concrete decoder so the type is
// exercisable and testable end to end.
package chain

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/aeondave/elfchain/chunk"
	"github.com/aeondave/elfchain/elferr"
)

// Instruction is one decoded instruction: its address, the bytes that
// encode it, and its disassembly text.
type Instruction struct {
	Addr uint64
	Text string
	Code chunk.Chunk
}

// Chain is a decoded instruction stream anchored at addr. Its Str, Chunk
// and Instructions views are always kept consistent with each other by
// the constructor that built them; callers using the Set* mutators are
// responsible for keeping them coherent (spec.md §4.G, mirroring the
// source's get/set pairs on chain_t).
type Chain struct {
	addr         uint64
	str          string
	raw          chunk.Chunk
	instructions []Instruction
	ctx          interface{}
}

// FromBytes decodes raw as a run of x86-64 instructions starting at addr,
// using x86asm.Decode in 64-bit mode. Decoding stops at the first byte
// that does not form a valid instruction; a completely empty or
// undecodable input is reported as ErrInvalidFormat. Grounded on the
// source's chain_create_from_string, which takes a raw byte chunk and
// produces a fully decoded chain.
func FromBytes(addr uint64, raw chunk.Chunk) (*Chain, error) {
	data := raw.Bytes()
	if len(data) == 0 {
		return nil, fmt.Errorf("chain: no bytes to decode at 0x%x: %w", addr, elferr.ErrInvalidFormat)
	}
	var instructions []Instruction
	var texts []string
	pos := 0
	for pos < len(data) {
		inst, err := x86asm.Decode(data[pos:], 64)
		if err != nil {
			if pos == 0 {
				return nil, fmt.Errorf("chain: decoding at 0x%x: %w", addr, elferr.ErrInvalidFormat)
			}
			break
		}
		text := x86asm.GNUSyntax(inst, addr+uint64(pos), nil)
		codeChunk, err := raw.Slice(pos, inst.Len)
		if err != nil {
			return nil, fmt.Errorf("chain: slicing decoded instruction: %w", err)
		}
		instructions = append(instructions, Instruction{
			Addr: addr + uint64(pos),
			Text: text,
			Code: codeChunk,
		})
		texts = append(texts, text)
		pos += inst.Len
	}

	consumed, err := raw.Slice(0, pos)
	if err != nil {
		return nil, err
	}
	return &Chain{
		addr:         addr,
		str:          strings.Join(texts, "\n"),
		raw:          consumed,
		instructions: instructions,
	}, nil
}

// FromInstructions builds a Chain from an already-decoded instruction
// list, deriving its disassembly text and raw chunk by concatenation.
// Grounded on the source's chain_create_from_insn.
func FromInstructions(addr uint64, instructions []Instruction) *Chain {
	texts := make([]string, len(instructions))
	chunks := make([]chunk.Chunk, len(instructions))
	for i, inst := range instructions {
		texts[i] = inst.Text
		chunks[i] = inst.Code
	}
	return &Chain{
		addr:         addr,
		str:          strings.Join(texts, "\n"),
		raw:          chunk.Concat(chunks...),
		instructions: instructions,
	}
}

// Create builds a Chain from fully precomputed fields with no validation
// or decoding, trusting the caller that str/raw/instructions are mutually
// consistent. Grounded on the source's chain_create.
func Create(addr uint64, str string, raw chunk.Chunk, instructions []Instruction) *Chain {
	return &Chain{addr: addr, str: str, raw: raw, instructions: instructions}
}

// Addr returns the chain's anchor address.
func (c *Chain) Addr() uint64 { return c.addr }

// SetAddr replaces the chain's anchor address without touching any other
// field (per-instruction addresses are not recomputed).
func (c *Chain) SetAddr(addr uint64) { c.addr = addr }

// Str returns the chain's full disassembly text.
func (c *Chain) Str() string { return c.str }

// SetStr replaces the chain's disassembly text.
func (c *Chain) SetStr(s string) { c.str = s }

// Chunk returns the raw bytes the chain was decoded from.
func (c *Chain) Chunk() chunk.Chunk { return c.raw }

// SetChunk replaces the chain's raw byte chunk.
func (c *Chain) SetChunk(raw chunk.Chunk) { c.raw = raw }

// Instructions returns the chain's decoded instruction list in address
// order.
func (c *Chain) Instructions() []Instruction { return c.instructions }

// SetInstructions replaces the chain's instruction list.
func (c *Chain) SetInstructions(instructions []Instruction) { c.instructions = instructions }

// SetContext attaches an opaque analysis-context handle (the source's
// Z3_context) to the chain. The context is never interpreted here; it is
// carried purely for an external consumer to retrieve later.
func (c *Chain) SetContext(ctx interface{}) { c.ctx = ctx }

// Context returns the previously attached analysis-context handle, or nil
// if none was set.
func (c *Chain) Context() interface{} { return c.ctx }

// Map returns the chain's instructions keyed by address.
func (c *Chain) Map() map[uint64]*Instruction {
	m := make(map[uint64]*Instruction, len(c.instructions))
	for i := range c.instructions {
		m[c.instructions[i].Addr] = &c.instructions[i]
	}
	return m
}

// MapPrefix returns the address-keyed map restricted to instructions
// whose encoded bytes begin with prefix. An empty prefix matches every
// instruction, equivalent to Map().
func (c *Chain) MapPrefix(prefix chunk.Chunk) map[uint64]*Instruction {
	p := prefix.Bytes()
	m := make(map[uint64]*Instruction)
	for i := range c.instructions {
		code := c.instructions[i].Code.Bytes()
		if len(code) < len(p) {
			continue
		}
		match := true
		for j := range p {
			if code[j] != p[j] {
				match = false
				break
			}
		}
		if match {
			m[c.instructions[i].Addr] = &c.instructions[i]
		}
	}
	return m
}

// Destroy releases the chain's resources.
func (c *Chain) Destroy() {
	c.instructions = nil
	c.raw = chunk.Empty()
	c.ctx = nil
}
