package mc6809

import "github.com/keurnel/m6809asm/internal/asm"

// Addressing families as they appear in the opcode table. These are the
// lookup keys into an asm.OpcodeEntry, one step more specific than the
// AddressingModeKind tag: a two-operand instruction's Indexed family, for
// instance, is keyed the same regardless of which offset sub-form the
// operand turns out to use — the encoder resolves that at emission time.
var (
	famInherent    = asm.AddressingFamily{Identifier: "inherent"}
	famImmediate8  = asm.AddressingFamily{Identifier: "immediate8"}
	famImmediate16 = asm.AddressingFamily{Identifier: "immediate16"}
	famDirect      = asm.AddressingFamily{Identifier: "direct"}
	famExtended    = asm.AddressingFamily{Identifier: "extended"}
	// ExtendedIndirect and ProgramCounterRelative operands both encode
	// through the same opcode byte as Indexed (the 6809 has no separate
	// opcode space for them), so they look their form up under "indexed"
	// rather than getting their own family here.
	famIndexed    = asm.AddressingFamily{Identifier: "indexed"}
	famRegisters  = asm.AddressingFamily{Identifier: "registerList"}
	famRegPair    = asm.AddressingFamily{Identifier: "registerPair"}
	famRelative8  = asm.AddressingFamily{Identifier: "relative8"}
	famRelative16 = asm.AddressingFamily{Identifier: "relative16"}
)

// OpcodeTable maps an uppercased mnemonic to its legal addressing-mode
// forms. Built once at package init and never mutated afterward.
var OpcodeTable = buildOpcodeTable()

// Lookup returns the opcode entry for mnemonic (already uppercased), and
// whether it exists.
func Lookup(mnemonic string) (asm.OpcodeEntry, bool) {
	e, ok := OpcodeTable[mnemonic]
	return e, ok
}

func op1(b byte) []byte             { return []byte{b} }
func op2(page, b byte) []byte        { return []byte{page, b} }

// twoOperand8 builds the four-family shape shared by every 8-bit
// accumulator instruction (LDA/STA/ADDA/.../CMPA and their B counterparts):
// immediate, direct, indexed, extended.
func twoOperand8(mnemonic string, imm, direct, indexed, extended byte, hasImmediate bool) asm.OpcodeEntry {
	forms := []asm.OpcodeForm{
		{Family: famDirect, Opcode: op1(direct), OperandBytes: 1},
		{Family: famIndexed, Opcode: op1(indexed), SizeRule: asm.SizeVariable},
		{Family: famExtended, Opcode: op1(extended), OperandBytes: 2},
	}
	if hasImmediate {
		forms = append(forms, asm.OpcodeForm{Family: famImmediate8, Opcode: op1(imm), OperandBytes: 1})
	}
	return asm.NewOpcodeEntry(mnemonic, forms...)
}

// twoOperand16 is twoOperand8's counterpart for the 16-bit register
// instructions (LDD/LDX/LDY/LDU/LDS/CMPx/...), whose immediate operand is
// two bytes and whose opcodes are sometimes $10/$11 page-prefixed.
func twoOperand16(mnemonic string, imm, direct, indexed, extended []byte, hasImmediate bool) asm.OpcodeEntry {
	forms := []asm.OpcodeForm{
		{Family: famDirect, Opcode: direct, OperandBytes: 1},
		{Family: famIndexed, Opcode: indexed, SizeRule: asm.SizeVariable},
		{Family: famExtended, Opcode: extended, OperandBytes: 2},
	}
	if hasImmediate {
		forms = append(forms, asm.OpcodeForm{Family: famImmediate16, Opcode: imm, OperandBytes: 2})
	}
	return asm.NewOpcodeEntry(mnemonic, forms...)
}

// readModifyWrite builds the shape shared by single-operand R-M-W
// instructions: direct/indexed/extended always, plus optional inherent
// forms operating directly on A or B (not every R-M-W op has those — JMP
// has none, for instance).
func readModifyWrite(mnemonic string, direct, indexed, extended byte, inherentA, inherentB byte, hasInherent bool) asm.OpcodeEntry {
	forms := []asm.OpcodeForm{
		{Family: famDirect, Opcode: op1(direct), OperandBytes: 1},
		{Family: famIndexed, Opcode: op1(indexed), SizeRule: asm.SizeVariable},
		{Family: famExtended, Opcode: op1(extended), OperandBytes: 2},
	}
	if hasInherent {
		forms = append(forms,
			asm.OpcodeForm{Family: asm.AddressingFamily{Identifier: "inherentA"}, Opcode: op1(inherentA)},
			asm.OpcodeForm{Family: asm.AddressingFamily{Identifier: "inherentB"}, Opcode: op1(inherentB)},
		)
	}
	return asm.NewOpcodeEntry(mnemonic, forms...)
}

func shortBranch(mnemonic string, opcode byte) asm.OpcodeEntry {
	return asm.NewOpcodeEntry(mnemonic, asm.OpcodeForm{Family: famRelative8, Opcode: op1(opcode), OperandBytes: 1})
}

func longBranch(mnemonic string, opcode byte) asm.OpcodeEntry {
	return asm.NewOpcodeEntry(mnemonic, asm.OpcodeForm{Family: famRelative16, Opcode: op2(0x10, opcode), OperandBytes: 2})
}

func inherentOnly(mnemonic string, opcode byte) asm.OpcodeEntry {
	return asm.NewOpcodeEntry(mnemonic, asm.OpcodeForm{Family: famInherent, Opcode: op1(opcode)})
}

func inherentOnlyPrefixed(mnemonic string, page, opcode byte) asm.OpcodeEntry {
	return asm.NewOpcodeEntry(mnemonic, asm.OpcodeForm{Family: famInherent, Opcode: op2(page, opcode)})
}

// jumpLike builds the pointer-operand shape used for JMP: indexed and
// extended, plus direct when hasDirect; no inherent and no immediate.
// JSR and LEAx are built inline in buildOpcodeTable.
func jumpLike(mnemonic string, direct, indexed, extended byte, hasDirect bool) asm.OpcodeEntry {
	forms := []asm.OpcodeForm{
		{Family: famIndexed, Opcode: op1(indexed), SizeRule: asm.SizeVariable},
		{Family: famExtended, Opcode: op1(extended), OperandBytes: 2},
	}
	if hasDirect {
		forms = append(forms, asm.OpcodeForm{Family: famDirect, Opcode: op1(direct), OperandBytes: 1})
	}
	return asm.NewOpcodeEntry(mnemonic, forms...)
}

func buildOpcodeTable() map[string]asm.OpcodeEntry {
	t := make(map[string]asm.OpcodeEntry)
	add := func(e asm.OpcodeEntry) { t[e.Mnemonic] = e }

	// --- 8-bit accumulator loads/stores/arithmetic -----------------------
	add(twoOperand8("LDA", 0x86, 0x96, 0xA6, 0xB6, true))
	add(twoOperand8("LDB", 0xC6, 0xD6, 0xE6, 0xF6, true))
	add(twoOperand8("STA", 0, 0x97, 0xA7, 0xB7, false))
	add(twoOperand8("STB", 0, 0xD7, 0xE7, 0xF7, false))
	add(twoOperand8("ADDA", 0x8B, 0x9B, 0xAB, 0xBB, true))
	add(twoOperand8("ADDB", 0xCB, 0xDB, 0xEB, 0xFB, true))
	add(twoOperand8("ADCA", 0x89, 0x99, 0xA9, 0xB9, true))
	add(twoOperand8("ADCB", 0xC9, 0xD9, 0xE9, 0xF9, true))
	add(twoOperand8("SUBA", 0x80, 0x90, 0xA0, 0xB0, true))
	add(twoOperand8("SUBB", 0xC0, 0xD0, 0xE0, 0xF0, true))
	add(twoOperand8("SBCA", 0x82, 0x92, 0xA2, 0xB2, true))
	add(twoOperand8("SBCB", 0xC2, 0xD2, 0xE2, 0xF2, true))
	add(twoOperand8("CMPA", 0x81, 0x91, 0xA1, 0xB1, true))
	add(twoOperand8("CMPB", 0xC1, 0xD1, 0xE1, 0xF1, true))
	add(twoOperand8("ANDA", 0x84, 0x94, 0xA4, 0xB4, true))
	add(twoOperand8("ANDB", 0xC4, 0xD4, 0xE4, 0xF4, true))
	add(twoOperand8("ORA", 0x8A, 0x9A, 0xAA, 0xBA, true))
	add(twoOperand8("ORB", 0xCA, 0xDA, 0xEA, 0xFA, true))
	add(twoOperand8("EORA", 0x88, 0x98, 0xA8, 0xB8, true))
	add(twoOperand8("EORB", 0xC8, 0xD8, 0xE8, 0xF8, true))
	add(twoOperand8("BITA", 0x85, 0x95, 0xA5, 0xB5, true))
	add(twoOperand8("BITB", 0xC5, 0xD5, 0xE5, 0xF5, true))

	// Immediate-only 8-bit ops on CC.
	add(asm.NewOpcodeEntry("ANDCC", asm.OpcodeForm{Family: famImmediate8, Opcode: op1(0x1C), OperandBytes: 1}))
	add(asm.NewOpcodeEntry("ORCC", asm.OpcodeForm{Family: famImmediate8, Opcode: op1(0x1A), OperandBytes: 1}))

	// --- 16-bit register loads/stores/arithmetic -------------------------
	add(twoOperand16("LDD", []byte{0xCC}, []byte{0xDC}, []byte{0xEC}, []byte{0xFC}, true))
	add(twoOperand16("STD", nil, []byte{0xDD}, []byte{0xED}, []byte{0xFD}, false))
	add(twoOperand16("LDX", []byte{0x8E}, []byte{0x9E}, []byte{0xAE}, []byte{0xBE}, true))
	add(twoOperand16("STX", nil, []byte{0x9F}, []byte{0xAF}, []byte{0xBF}, false))
	add(twoOperand16("LDU", []byte{0xCE}, []byte{0xDE}, []byte{0xEE}, []byte{0xFE}, true))
	add(twoOperand16("STU", nil, []byte{0xDF}, []byte{0xEF}, []byte{0xFF}, false))
	add(twoOperand16("LDY", []byte{0x10, 0x8E}, []byte{0x10, 0x9E}, []byte{0x10, 0xAE}, []byte{0x10, 0xBE}, true))
	add(twoOperand16("STY", nil, []byte{0x10, 0x9F}, []byte{0x10, 0xAF}, []byte{0x10, 0xBF}, false))
	add(twoOperand16("LDS", []byte{0x10, 0xCE}, []byte{0x10, 0xDE}, []byte{0x10, 0xEE}, []byte{0x10, 0xFE}, true))
	add(twoOperand16("STS", nil, []byte{0x10, 0xDF}, []byte{0x10, 0xEF}, []byte{0x10, 0xFF}, false))
	add(twoOperand16("ADDD", []byte{0xC3}, []byte{0xD3}, []byte{0xE3}, []byte{0xF3}, true))
	add(twoOperand16("SUBD", []byte{0x83}, []byte{0x93}, []byte{0xA3}, []byte{0xB3}, true))
	add(twoOperand16("CMPD", []byte{0x10, 0x83}, []byte{0x10, 0x93}, []byte{0x10, 0xA3}, []byte{0x10, 0xB3}, true))
	add(twoOperand16("CMPX", []byte{0x8C}, []byte{0x9C}, []byte{0xAC}, []byte{0xBC}, true))
	add(twoOperand16("CMPY", []byte{0x10, 0x8C}, []byte{0x10, 0x9C}, []byte{0x10, 0xAC}, []byte{0x10, 0xBC}, true))
	add(twoOperand16("CMPU", []byte{0x11, 0x83}, []byte{0x11, 0x93}, []byte{0x11, 0xA3}, []byte{0x11, 0xB3}, true))
	add(twoOperand16("CMPS", []byte{0x11, 0x8C}, []byte{0x11, 0x9C}, []byte{0x11, 0xAC}, []byte{0x11, 0xBC}, true))

	// --- Single-operand read-modify-write ---------------------------------
	add(readModifyWrite("NEG", 0x00, 0x60, 0x70, 0x40, 0x50, true))
	add(readModifyWrite("COM", 0x03, 0x63, 0x73, 0x43, 0x53, true))
	add(readModifyWrite("LSR", 0x04, 0x64, 0x74, 0x44, 0x54, true))
	add(readModifyWrite("ROR", 0x06, 0x66, 0x76, 0x46, 0x56, true))
	add(readModifyWrite("ASR", 0x07, 0x67, 0x77, 0x47, 0x57, true))
	add(readModifyWrite("ASL", 0x08, 0x68, 0x78, 0x48, 0x58, true))
	add(readModifyWrite("ROL", 0x09, 0x69, 0x79, 0x49, 0x59, true))
	add(readModifyWrite("DEC", 0x0A, 0x6A, 0x7A, 0x4A, 0x5A, true))
	add(readModifyWrite("INC", 0x0C, 0x6C, 0x7C, 0x4C, 0x5C, true))
	add(readModifyWrite("TST", 0x0D, 0x6D, 0x7D, 0x4D, 0x5D, true))
	add(readModifyWrite("CLR", 0x0F, 0x6F, 0x7F, 0x4F, 0x5F, true))
	add(jumpLike("JMP", 0x0E, 0x6E, 0x7E, true))

	// --- Pointer / effective-address instructions --------------------------
	add(asm.NewOpcodeEntry("JSR", asm.OpcodeForm{Family: famDirect, Opcode: op1(0x9D), OperandBytes: 1},
		asm.OpcodeForm{Family: famIndexed, Opcode: op1(0xAD), SizeRule: asm.SizeVariable},
		asm.OpcodeForm{Family: famExtended, Opcode: op1(0xBD), OperandBytes: 2}))
	add(asm.NewOpcodeEntry("LEAX", asm.OpcodeForm{Family: famIndexed, Opcode: op1(0x30), SizeRule: asm.SizeVariable}))
	add(asm.NewOpcodeEntry("LEAY", asm.OpcodeForm{Family: famIndexed, Opcode: op1(0x31), SizeRule: asm.SizeVariable}))
	add(asm.NewOpcodeEntry("LEAU", asm.OpcodeForm{Family: famIndexed, Opcode: op1(0x32), SizeRule: asm.SizeVariable}))
	add(asm.NewOpcodeEntry("LEAS", asm.OpcodeForm{Family: famIndexed, Opcode: op1(0x33), SizeRule: asm.SizeVariable}))

	// --- Inherent-only --------------------------------------------------
	add(inherentOnly("NOP", 0x12))
	add(inherentOnly("SYNC", 0x13))
	add(inherentOnly("DAA", 0x19))
	add(inherentOnly("SEX", 0x1D))
	add(inherentOnly("RTS", 0x39))
	add(inherentOnly("ABX", 0x3A))
	add(inherentOnly("RTI", 0x3B))
	add(inherentOnly("MUL", 0x3D))
	add(inherentOnly("SWI", 0x3F))
	add(inherentOnlyPrefixed("SWI2", 0x10, 0x3F))
	add(inherentOnlyPrefixed("SWI3", 0x11, 0x3F))
	add(asm.NewOpcodeEntry("CWAI", asm.OpcodeForm{Family: famImmediate8, Opcode: op1(0x3C), OperandBytes: 1}))

	// --- Register-list / register-pair ------------------------------------
	add(asm.NewOpcodeEntry("PSHS", asm.OpcodeForm{Family: famRegisters, Opcode: op1(0x34), OperandBytes: 1}))
	add(asm.NewOpcodeEntry("PULS", asm.OpcodeForm{Family: famRegisters, Opcode: op1(0x35), OperandBytes: 1}))
	add(asm.NewOpcodeEntry("PSHU", asm.OpcodeForm{Family: famRegisters, Opcode: op1(0x36), OperandBytes: 1}))
	add(asm.NewOpcodeEntry("PULU", asm.OpcodeForm{Family: famRegisters, Opcode: op1(0x37), OperandBytes: 1}))
	add(asm.NewOpcodeEntry("TFR", asm.OpcodeForm{Family: famRegPair, Opcode: op1(0x1F), OperandBytes: 1}))
	add(asm.NewOpcodeEntry("EXG", asm.OpcodeForm{Family: famRegPair, Opcode: op1(0x1E), OperandBytes: 1}))

	// --- Short branches ----------------------------------------------------
	shortBranches := map[string]byte{
		"BRA": 0x20, "BRN": 0x21, "BHI": 0x22, "BLS": 0x23,
		"BHS": 0x24, "BCC": 0x24, "BLO": 0x25, "BCS": 0x25,
		"BNE": 0x26, "BEQ": 0x27, "BVC": 0x28, "BVS": 0x29,
		"BPL": 0x2A, "BMI": 0x2B, "BGE": 0x2C, "BLT": 0x2D,
		"BGT": 0x2E, "BLE": 0x2F,
	}
	for mnemonic, opcode := range shortBranches {
		add(shortBranch(mnemonic, opcode))
	}
	add(asm.NewOpcodeEntry("BSR", asm.OpcodeForm{Family: famRelative8, Opcode: op1(0x8D), OperandBytes: 1}))

	// --- Long branches -------------------------------------------------------
	longBranches := map[string]byte{
		"LBRA": 0x16, "LBRN": 0x21, "LBHI": 0x22, "LBLS": 0x23,
		"LBHS": 0x24, "LBCC": 0x24, "LBLO": 0x25, "LBCS": 0x25,
		"LBNE": 0x26, "LBEQ": 0x27, "LBVC": 0x28, "LBVS": 0x29,
		"LBPL": 0x2A, "LBMI": 0x2B, "LBGE": 0x2C, "LBLT": 0x2D,
		"LBGT": 0x2E, "LBLE": 0x2F,
	}
	// LBRA and LBSR are unprefixed 3-byte instructions, unlike the rest of
	// the long-branch family which is $10-page-prefixed.
	add(asm.NewOpcodeEntry("LBRA", asm.OpcodeForm{Family: famRelative16, Opcode: op1(0x16), OperandBytes: 2}))
	add(asm.NewOpcodeEntry("LBSR", asm.OpcodeForm{Family: famRelative16, Opcode: op1(0x17), OperandBytes: 2}))
	for mnemonic, opcode := range longBranches {
		if mnemonic == "LBRA" {
			continue
		}
		add(longBranch(mnemonic, opcode))
	}

	return t
}
