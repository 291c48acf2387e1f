package asm_test

import (
	"testing"

	"github.com/keurnel/m6809asm/internal/asm"
)

func TestOpcodeEntry_Form(t *testing.T) {
	direct := asm.AddressingFamily{Identifier: "direct"}
	extended := asm.AddressingFamily{Identifier: "extended"}

	entry := asm.NewOpcodeEntry("LDA",
		asm.OpcodeForm{Family: direct, Opcode: []byte{0x96}, OperandBytes: 1},
		asm.OpcodeForm{Family: extended, Opcode: []byte{0xB6}, OperandBytes: 2},
	)

	scenarios := []struct {
		name     string
		family   string
		wantLen  int
		wantOK   bool
		wantByte byte
	}{
		{"direct form", "direct", 2, true, 0x96},
		{"extended form", "extended", 3, true, 0xB6},
		{"unsupported family", "indexed", 0, false, 0},
	}

	for _, scenario := range scenarios {
		t.Run(scenario.name, func(t *testing.T) {
			form, ok := entry.Form(scenario.family)
			if ok != scenario.wantOK {
				t.Fatalf("Form(%q) ok = %v, want %v", scenario.family, ok, scenario.wantOK)
			}
			if !ok {
				return
			}
			if form.Len() != scenario.wantLen {
				t.Errorf("Form(%q).Len() = %d, want %d", scenario.family, form.Len(), scenario.wantLen)
			}
			if form.Opcode[0] != scenario.wantByte {
				t.Errorf("Form(%q) opcode = %#x, want %#x", scenario.family, form.Opcode[0], scenario.wantByte)
			}
		})
	}
}

func TestNewOpcodeEntry_DuplicateFamilyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate addressing family")
		}
	}()

	direct := asm.AddressingFamily{Identifier: "direct"}
	asm.NewOpcodeEntry("LDA",
		asm.OpcodeForm{Family: direct, Opcode: []byte{0x96}, OperandBytes: 1},
		asm.OpcodeForm{Family: direct, Opcode: []byte{0x97}, OperandBytes: 1},
	)
}
