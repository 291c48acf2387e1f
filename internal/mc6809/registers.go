package mc6809

// Register identifies one of the 6809's named registers, used both in
// operands (TFR/EXG, indexed addressing, PSHS/PULS register lists) and
// internally while encoding them.
type Register int

const (
	RegNone Register = iota
	RegA
	RegB
	RegD
	RegX
	RegY
	RegU
	RegS
	RegPC
	RegDP
	RegCC
)

// registerNames maps an uppercase mnemonic operand token to its Register.
var registerNames = map[string]Register{
	"A":  RegA,
	"B":  RegB,
	"D":  RegD,
	"X":  RegX,
	"Y":  RegY,
	"U":  RegU,
	"S":  RegS,
	"PC": RegPC,
	"DP": RegDP,
	"CC": RegCC,
}

// LookupRegister resolves a register name (already uppercased) to its
// Register constant.
func LookupRegister(name string) (Register, bool) {
	r, ok := registerNames[name]
	return r, ok
}

// Is8Bit reports whether the register holds an 8-bit value.
func (r Register) Is8Bit() bool {
	switch r {
	case RegA, RegB, RegDP, RegCC:
		return true
	}
	return false
}

// Is16Bit reports whether the register holds a 16-bit value.
func (r Register) Is16Bit() bool {
	switch r {
	case RegD, RegX, RegY, RegU, RegS, RegPC:
		return true
	}
	return false
}

// String renders the register the way the source spells it.
func (r Register) String() string {
	for name, reg := range registerNames {
		if reg == r {
			return name
		}
	}
	return "?"
}

// tfrExgCodes is the 4-bit postbyte nibble used by TFR and EXG to name a
// register. A/B are only valid when the mnemonic treats the operand as an
// 8-bit pair (TFR/EXG both allow mixed 8/16-bit combinations on real
// hardware; invalid mixes are an encoder-level concern, not a table one).
var tfrExgCodes = map[Register]byte{
	RegD:  0x0,
	RegX:  0x1,
	RegY:  0x2,
	RegU:  0x3,
	RegS:  0x4,
	RegPC: 0x5,
	RegA:  0x8,
	RegB:  0x9,
	RegCC: 0xA,
	RegDP: 0xB,
}

// TfrExgCode returns the 4-bit nibble TFR/EXG use to name r.
func TfrExgCode(r Register) (byte, bool) {
	code, ok := tfrExgCodes[r]
	return code, ok
}

// pushPullBits is the bit assigned to each register in a PSHS/PULS/PSHU/PULU
// postbyte, per the 6809's fixed register-list encoding. The U/S bit is
// reused by both forms: bit 6 means "S" for PSHU/PULU and "U" for PSHS/PULS,
// since a register can never push/pull itself.
const (
	BitCC byte = 1 << 0
	BitA  byte = 1 << 1
	BitB  byte = 1 << 2
	BitDP byte = 1 << 3
	BitX  byte = 1 << 4
	BitY  byte = 1 << 5
	BitUS byte = 1 << 6
	BitPC byte = 1 << 7
)

// PushPullBit returns the postbyte bit for a register named in a
// PSHS/PULS/PSHU/PULU operand list. complementStack selects which of
// U or S the shared bit 6 represents: true for the PSHU/PULU forms
// (bit 6 means S), false for PSHS/PULS (bit 6 means U).
func PushPullBit(r Register, complementStack bool) (byte, bool) {
	switch r {
	case RegCC:
		return BitCC, true
	case RegA:
		return BitA, true
	case RegB:
		return BitB, true
	case RegDP:
		return BitDP, true
	case RegX:
		return BitX, true
	case RegY:
		return BitY, true
	case RegPC:
		return BitPC, true
	case RegU:
		if !complementStack {
			return BitUS, true
		}
		return 0, false
	case RegS:
		if complementStack {
			return BitUS, true
		}
		return 0, false
	}
	return 0, false
}

// indexedBaseCode is the 2-bit RR field of an indexed postbyte selecting
// the base register for offset forms (not valid for extended indirect or
// PCR forms, which hardwire RR to 0).
var indexedBaseCode = map[Register]byte{
	RegX: 0x0,
	RegY: 0x1,
	RegU: 0x2,
	RegS: 0x3,
}

// IndexedBaseCode returns the 2-bit RR field for a base register used in
// indexed addressing.
func IndexedBaseCode(r Register) (byte, bool) {
	code, ok := indexedBaseCode[r]
	return code, ok
}
