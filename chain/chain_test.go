package chain

import (
	"strings"
	"testing"

	"github.com/aeondave/elfchain/chunk"
)

// TestFromBytesNopNopRet decodes nop; nop; ret at 0x400000 and checks the
// three resulting instructions, their increasing addresses, and that the
// combined disassembly mentions each mnemonic the expected number of
// times.
func TestFromBytesNopNopRet(t *testing.T) {
	raw := chunk.New([]byte{0x90, 0x90, 0xc3})
	c, err := FromBytes(0x400000, raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	insns := c.Instructions()
	if len(insns) != 3 {
		t.Fatalf("expected 3 instructions, got %d", len(insns))
	}
	for i := 1; i < len(insns); i++ {
		if insns[i].Addr <= insns[i-1].Addr {
			t.Fatalf("instruction addresses not increasing: %x then %x",
				insns[i-1].Addr, insns[i].Addr)
		}
	}
	if insns[0].Addr != 0x400000 {
		t.Fatalf("first instruction address = 0x%x, want 0x400000", insns[0].Addr)
	}

	total := 0
	for _, insn := range insns {
		total += insn.Code.Len()
	}
	if total != 3 {
		t.Fatalf("concatenated instruction lengths = %d, want 3", total)
	}

	text := strings.ToLower(c.Str())
	if strings.Count(text, "nop") != 2 {
		t.Fatalf("expected 2 occurrences of nop in %q", text)
	}
	if strings.Count(text, "ret") != 1 {
		t.Fatalf("expected 1 occurrence of ret in %q", text)
	}
}

func TestFromBytesRejectsUndecodable(t *testing.T) {
	raw := chunk.New([]byte{0x0f, 0xff}) // not a valid opcode
	if _, err := FromBytes(0x1000, raw); err == nil {
		t.Fatal("expected error decoding invalid opcode stream")
	}
}

func TestMapKeyedByAddress(t *testing.T) {
	raw := chunk.New([]byte{0x90, 0x90, 0xc3})
	c, err := FromBytes(0x1000, raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	m := c.Map()
	if len(m) != 3 {
		t.Fatalf("expected 3 map entries, got %d", len(m))
	}
	if _, ok := m[0x1000]; !ok {
		t.Fatal("map missing entry at base address")
	}
}

func TestMapPrefixFiltersByByteSequence(t *testing.T) {
	raw := chunk.New([]byte{0x90, 0x90, 0xc3})
	c, err := FromBytes(0x2000, raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	nopPrefix := chunk.New([]byte{0x90})
	m := c.MapPrefix(nopPrefix)
	if len(m) != 2 {
		t.Fatalf("expected 2 nop instructions matching prefix, got %d", len(m))
	}
}

func TestFromInstructionsDerivesStrAndChunk(t *testing.T) {
	raw := chunk.New([]byte{0x90, 0xc3})
	decoded, err := FromBytes(0x3000, raw)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	rebuilt := FromInstructions(0x3000, decoded.Instructions())
	if rebuilt.Str() != decoded.Str() {
		t.Fatalf("rebuilt Str() = %q, want %q", rebuilt.Str(), decoded.Str())
	}
	if !rebuilt.Chunk().Equal(decoded.Chunk()) {
		t.Fatal("rebuilt chunk does not match original")
	}
}

func TestSetContextRoundTrip(t *testing.T) {
	c := Create(0x0, "", chunk.Empty(), nil)
	if c.Context() != nil {
		t.Fatal("expected nil context by default")
	}
	handle := struct{ id int }{id: 7}
	c.SetContext(handle)
	got, ok := c.Context().(struct{ id int })
	if !ok || got.id != 7 {
		t.Fatalf("Context() round-trip failed, got %#v", c.Context())
	}
}
