package mc6809

import "strings"

// branchMnemonics names every short-branch mnemonic; long branches are
// named separately since they never choose Relative8.
var branchMnemonics = map[string]bool{
	"BRA": true, "BRN": true, "BHI": true, "BLS": true,
	"BHS": true, "BCC": true, "BLO": true, "BCS": true,
	"BNE": true, "BEQ": true, "BVC": true, "BVS": true,
	"BPL": true, "BMI": true, "BGE": true, "BLT": true,
	"BGT": true, "BLE": true, "BSR": true,
}

var longBranchMnemonics = map[string]bool{
	"LBRA": true, "LBRN": true, "LBHI": true, "LBLS": true,
	"LBHS": true, "LBCC": true, "LBLO": true, "LBCS": true,
	"LBNE": true, "LBEQ": true, "LBVC": true, "LBVS": true,
	"LBPL": true, "LBMI": true, "LBGE": true, "LBLT": true,
	"LBGT": true, "LBLE": true, "LBSR": true,
}

// registerListMnemonics take a comma-separated register list operand.
var registerListMnemonics = map[string]bool{
	"PSHS": true, "PULS": true, "PSHU": true, "PULU": true,
}

// registerPairMnemonics take a two-register "src,dst" operand.
var registerPairMnemonics = map[string]bool{
	"TFR": true, "EXG": true,
}

// IsBranch reports whether mnemonic (already uppercased) is a short or
// long conditional/unconditional branch.
func IsBranch(mnemonic string) bool {
	return branchMnemonics[mnemonic] || longBranchMnemonics[mnemonic]
}

// IsLongBranch reports whether mnemonic is one of the LBxx/LBSR family.
func IsLongBranch(mnemonic string) bool {
	return longBranchMnemonics[mnemonic]
}

// ClassifyOperand parses the operand text of a statement into an
// AddressingMode, following an ordered classification table. It does
// not know the mnemonic's legal addressing families — that check belongs
// to the encoder — except for the branch-vs-expression and register-list
// special cases, which require the mnemonic to classify at all.
func ClassifyOperand(line int, mnemonic, operand string) (AddressingMode, error) {
	text := strings.TrimSpace(operand)

	if text == "" {
		return AddressingMode{Kind: Inherent}, nil
	}

	if registerListMnemonics[mnemonic] {
		regs, err := parseRegisterList(line, text)
		if err != nil {
			return AddressingMode{}, err
		}
		return AddressingMode{Kind: RegisterList, Registers: regs}, nil
	}

	if registerPairMnemonics[mnemonic] {
		src, dst, err := parseRegisterPair(line, text)
		if err != nil {
			return AddressingMode{}, err
		}
		return AddressingMode{Kind: RegisterPair, Source: src, Destination: dst}, nil
	}

	if text[0] == '#' {
		return parseImmediate(line, mnemonic, text[1:])
	}

	if bracketed, inner, ok := unwrapBrackets(text); ok {
		return classifyBracketed(line, bracketed, inner)
	}

	if form, base, ok := splitIndexedOperand(text); ok {
		mode, err := classifyIndexedOperand(line, form, base, false)
		if err != nil {
			return AddressingMode{}, err
		}
		return mode, nil
	}

	forcedDirect := text[0] == '<'
	forcedExtended := text[0] == '>'
	exprText := text
	if forcedDirect || forcedExtended {
		exprText = text[1:]
	}

	expr, err := ParseExpr(line, exprText)
	if err != nil {
		return AddressingMode{}, err
	}

	if branchMnemonics[mnemonic] {
		return AddressingMode{Kind: Relative8, Expr: expr}, nil
	}
	if longBranchMnemonics[mnemonic] {
		return AddressingMode{Kind: Relative16, Expr: expr}, nil
	}

	switch {
	case forcedDirect:
		return AddressingMode{Kind: Direct, Expr: expr, ForcedDirect: true}, nil
	case forcedExtended:
		return AddressingMode{Kind: Extended, Expr: expr, ForcedExtended: true}, nil
	default:
		// Direct-vs-Extended is a pass-dependent decision (it needs the
		// direct-page setting and, in pass 1, pessimism about unresolved
		// symbols); the encoder makes the final call. Extended here is a
		// placeholder the encoder is free to downgrade to Direct.
		return AddressingMode{Kind: Extended, Expr: expr}, nil
	}
}

func parseImmediate(line int, mnemonic, rest string) (AddressingMode, error) {
	expr, err := ParseExpr(line, rest)
	if err != nil {
		return AddressingMode{}, err
	}
	if is16BitImmediateMnemonic(mnemonic) {
		return AddressingMode{Kind: Immediate16, Expr: expr}, nil
	}
	return AddressingMode{Kind: Immediate8, Expr: expr}, nil
}

var wideImmediateMnemonics = map[string]bool{
	"LDD": true, "LDX": true, "LDY": true, "LDU": true, "LDS": true,
	"CMPD": true, "CMPX": true, "CMPY": true, "CMPU": true, "CMPS": true,
	"ADDD": true, "SUBD": true,
}

func is16BitImmediateMnemonic(mnemonic string) bool {
	return wideImmediateMnemonics[mnemonic]
}

// unwrapBrackets strips a single layer of [ ... ], reporting whether the
// text was bracketed at all.
func unwrapBrackets(text string) (full string, inner string, ok bool) {
	if len(text) < 2 || text[0] != '[' || text[len(text)-1] != ']' {
		return "", "", false
	}
	return text, strings.TrimSpace(text[1 : len(text)-1]), true
}

func classifyBracketed(line int, _ string, inner string) (AddressingMode, error) {
	if form, base, ok := splitIndexedOperand(inner); ok {
		return classifyIndexedOperand(line, form, base, true)
	}
	// No comma inside: extended indirect, [expr].
	expr, err := ParseExpr(line, inner)
	if err != nil {
		return AddressingMode{}, err
	}
	return AddressingMode{Kind: ExtendedIndirect, Expr: expr}, nil
}

// classifyIndexedOperand interprets "form,base" (the two halves split on
// the final comma of an indexed operand) where base may carry a
// post-increment (+, ++) or pre-decrement (-, --) marker attached to the
// register name itself, e.g. ",X+", ",--S", "5,X", "A,Y", "3,PCR".
func classifyIndexedOperand(line int, form, base string, indirect bool) (AddressingMode, error) {
	if strings.EqualFold(base, "PCR") {
		// No dedicated syntax distinguishes 8- from 16-bit PCR forms; per
		// the open question on '<'/'>' prefixes, treat a leading '>' here
		// as requesting the wide (16-bit) displacement form, matching its
		// meaning for Direct/Extended, and default to 8-bit otherwise.
		wide := strings.HasPrefix(form, ">")
		exprText := form
		if wide || strings.HasPrefix(form, "<") {
			exprText = form[1:]
		}
		expr, err := ParseExpr(line, exprText)
		if err != nil {
			return AddressingMode{}, err
		}
		return AddressingMode{Kind: ProgramCounterRelative, Expr: expr, PCRWide: wide, Indirect: indirect}, nil
	}

	regName := base
	autoForm := OffsetZero
	hasAuto := false
	switch {
	case strings.HasPrefix(base, "--"):
		regName, autoForm, hasAuto = base[2:], OffsetPreDec2, true
	case strings.HasPrefix(base, "-"):
		regName, autoForm, hasAuto = base[1:], OffsetPreDec1, true
	case strings.HasSuffix(base, "++"):
		regName, autoForm, hasAuto = base[:len(base)-2], OffsetPostInc2, true
	case strings.HasSuffix(base, "+"):
		regName, autoForm, hasAuto = base[:len(base)-1], OffsetPostInc1, true
	}

	reg, ok := LookupRegister(strings.ToUpper(regName))
	if !ok || (reg != RegX && reg != RegY && reg != RegU && reg != RegS) {
		return AddressingMode{}, NewError(SyntaxError, line, "unknown indexed base register %q", regName)
	}

	if hasAuto {
		if strings.TrimSpace(form) != "" {
			return AddressingMode{}, NewError(SyntaxError, line, "auto inc/dec indexed operand cannot carry an offset: %q", form)
		}
		if indirect && (autoForm == OffsetPostInc1 || autoForm == OffsetPreDec1) {
			return AddressingMode{}, NewError(IllegalIndexedCombination, line, "indirect auto inc/dec of 1 is illegal, use ++ or --")
		}
		return AddressingMode{Kind: Indexed, BaseRegister: reg, OffsetForm: autoForm, Indirect: indirect}, nil
	}

	return classifyIndexedForm(line, strings.TrimSpace(form), reg, indirect)
}

// splitIndexedOperand splits "form,REG" into its two halves on the last
// comma in the text, since a constant-offset form may itself contain
// arithmetic without commas. Returns ok=false if there is no comma.
func splitIndexedOperand(text string) (form, base string, ok bool) {
	idx := strings.LastIndexByte(text, ',')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(text[:idx]), strings.TrimSpace(text[idx+1:]), true
}

// classifyIndexedForm interprets the offset-form half of an indexed
// operand ("", "n", "A", "B", "D") given the already-identified base
// register; auto inc/dec forms are handled by classifyIndexedOperand.
func classifyIndexedForm(line int, form string, base Register, indirect bool) (AddressingMode, error) {
	if strings.HasPrefix(form, "<") || strings.HasPrefix(form, ">") {
		return AddressingMode{}, NewError(SyntaxError, line, "'<' and '>' prefixes are not allowed on indexed operands: %q", form)
	}
	switch {
	case form == "":
		return AddressingMode{Kind: Indexed, BaseRegister: base, OffsetForm: OffsetZero, Indirect: indirect}, nil
	case form == "A":
		return AddressingMode{Kind: Indexed, BaseRegister: base, OffsetForm: OffsetAccumulatorA, Indirect: indirect}, nil
	case form == "B":
		return AddressingMode{Kind: Indexed, BaseRegister: base, OffsetForm: OffsetAccumulatorB, Indirect: indirect}, nil
	case form == "D":
		return AddressingMode{Kind: Indexed, BaseRegister: base, OffsetForm: OffsetAccumulatorD, Indirect: indirect}, nil
	}

	expr, err := ParseExpr(line, form)
	if err != nil {
		return AddressingMode{}, err
	}
	return AddressingMode{Kind: Indexed, BaseRegister: base, OffsetForm: OffsetConst16, Indirect: indirect, Expr: expr}, nil
}

// parseRegisterList parses a comma-separated register list, e.g. "A,B,X".
func parseRegisterList(line int, text string) ([]Register, error) {
	parts := strings.Split(text, ",")
	regs := make([]Register, 0, len(parts))
	for _, p := range parts {
		name := strings.ToUpper(strings.TrimSpace(p))
		reg, ok := LookupRegister(name)
		if !ok {
			return nil, NewError(SyntaxError, line, "unknown register %q in register list", p)
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

// parseRegisterPair parses "SRC,DST" for TFR/EXG.
func parseRegisterPair(line int, text string) (src, dst Register, err error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return RegNone, RegNone, NewError(SyntaxError, line, "expected SRC,DST register pair, got %q", text)
	}
	srcName := strings.ToUpper(strings.TrimSpace(parts[0]))
	dstName := strings.ToUpper(strings.TrimSpace(parts[1]))
	src, ok := LookupRegister(srcName)
	if !ok {
		return RegNone, RegNone, NewError(SyntaxError, line, "unknown register %q", parts[0])
	}
	dst, ok = LookupRegister(dstName)
	if !ok {
		return RegNone, RegNone, NewError(SyntaxError, line, "unknown register %q", parts[1])
	}
	return src, dst, nil
}
