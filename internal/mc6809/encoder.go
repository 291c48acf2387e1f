package mc6809

import "github.com/keurnel/m6809asm/internal/asm"

// EncodeContext carries everything the encoder needs beyond the statement
// itself: the resolver to evaluate expressions against, the current
// direct-page setting, and the pass number (1 is pessimistic-sizing, 2 is
// fail-fast final emission).
type EncodeContext struct {
	Resolve    SymbolResolver
	DirectPage byte
	Pass       int
}

// Size computes the encoded length of stmt in isolation, without emitting
// bytes. Pass 1 calls this to assign addresses; pass 2 must reuse the same
// value (passed back in stmt.Size) rather than recomputing, so addresses
// never re-flow — Size also freezes any ambiguous sub-choice (Direct vs
// Extended, indexed offset width) onto stmt.Mode the first time it runs.
func Size(stmt *Statement, ctx EncodeContext) (int, error) {
	entry, ok := Lookup(stmt.Mnemonic)
	if !ok {
		return 0, NewError(SyntaxError, stmt.SourceLineNumber, "unknown mnemonic %q", stmt.Mnemonic)
	}

	switch stmt.Mode.Kind {
	case Inherent:
		if form, ok := entry.Form("inherent"); ok {
			return len(form.Opcode), nil
		}
		if form, ok := entry.Form("inherentA"); ok {
			return len(form.Opcode), nil
		}
		return 0, illegalMode(stmt, "Inherent")

	case Immediate8:
		form, ok := entry.Form("immediate8")
		if !ok {
			return 0, illegalMode(stmt, "Immediate")
		}
		return form.Len(), nil

	case Immediate16:
		form, ok := entry.Form("immediate16")
		if !ok {
			return 0, illegalMode(stmt, "Immediate")
		}
		return form.Len(), nil

	case Direct:
		form, ok := entry.Form("direct")
		if !ok {
			return 0, illegalMode(stmt, "Direct")
		}
		return form.Len(), nil

	case Extended:
		return sizeExtendedOrDirect(stmt, entry, ctx)

	case ExtendedIndirect:
		form, ok := entry.Form("indexed")
		if !ok {
			return 0, illegalMode(stmt, "ExtendedIndirect")
		}
		return len(form.Opcode) + 1 + 2, nil

	case Indexed:
		form, ok := entry.Form("indexed")
		if !ok {
			return 0, illegalMode(stmt, "Indexed")
		}
		extra, err := sizeIndexedExtra(stmt, ctx)
		if err != nil {
			return 0, err
		}
		return len(form.Opcode) + 1 + extra, nil

	case ProgramCounterRelative:
		form, ok := entry.Form("indexed")
		if !ok {
			return 0, illegalMode(stmt, "ProgramCounterRelative")
		}
		if stmt.Mode.PCRWide {
			return len(form.Opcode) + 1 + 2, nil
		}
		return len(form.Opcode) + 1 + 1, nil

	case RegisterList:
		form, ok := entry.Form("registerList")
		if !ok {
			return 0, illegalMode(stmt, "RegisterList")
		}
		return form.Len(), nil

	case RegisterPair:
		form, ok := entry.Form("registerPair")
		if !ok {
			return 0, illegalMode(stmt, "RegisterPair")
		}
		return form.Len(), nil

	case Relative8:
		form, ok := entry.Form("relative8")
		if !ok {
			return 0, illegalMode(stmt, "Relative8")
		}
		return form.Len(), nil

	case Relative16:
		form, ok := entry.Form("relative16")
		if !ok {
			return 0, illegalMode(stmt, "Relative16")
		}
		return form.Len(), nil
	}

	return 0, illegalMode(stmt, "unknown")
}

func illegalMode(stmt *Statement, mode string) *AssemblyError {
	return NewError(IllegalAddressingMode, stmt.SourceLineNumber, "%s addressing mode is not legal for %s", mode, stmt.Mnemonic)
}

// sizeExtendedOrDirect decides, and freezes onto stmt.Mode, whether an
// unforced plain-expression operand uses Direct or Extended form. Pass 1
// pessimism: if the expression can't yet be resolved, assume Extended (the
// larger form) so later resolution can never grow the instruction.
func sizeExtendedOrDirect(stmt *Statement, entry asm.OpcodeEntry, ctx EncodeContext) (int, error) {
	directForm, hasDirect := entry.Form("direct")
	extendedForm, hasExtended := entry.Form("extended")

	if stmt.Mode.ForcedDirect {
		if !hasDirect {
			return 0, illegalMode(stmt, "Direct")
		}
		return directForm.Len(), nil
	}
	if stmt.Mode.ForcedExtended {
		if !hasExtended {
			return 0, illegalMode(stmt, "Extended")
		}
		return extendedForm.Len(), nil
	}
	if !hasDirect {
		if !hasExtended {
			return 0, illegalMode(stmt, "Extended")
		}
		return extendedForm.Len(), nil
	}
	if !hasExtended {
		return directForm.Len(), nil
	}

	value, resolved := stmt.Mode.Expr.Eval(ctx.Resolve)
	if !resolved {
		stmt.Mode.Kind = Extended
		return extendedForm.Len(), nil
	}
	if byte(value>>8) == ctx.DirectPage {
		stmt.Mode.Kind = Direct
		return directForm.Len(), nil
	}
	stmt.Mode.Kind = Extended
	return extendedForm.Len(), nil
}

// sizeIndexedExtra computes the number of bytes following the indexed
// postbyte (0, 1, or 2), freezing the chosen offset form onto stmt.Mode.
func sizeIndexedExtra(stmt *Statement, ctx EncodeContext) (int, error) {
	mode := &stmt.Mode
	switch mode.OffsetForm {
	case OffsetZero, OffsetAccumulatorA, OffsetAccumulatorB, OffsetAccumulatorD,
		OffsetPostInc1, OffsetPostInc2, OffsetPreDec1, OffsetPreDec2:
		return 0, nil
	case OffsetConst5, OffsetConst8:
		return 1, nil
	case OffsetConst16:
		if mode.Expr == nil {
			return 0, NewError(SyntaxError, stmt.SourceLineNumber, "indexed operand missing offset expression")
		}
		value, resolved := mode.Expr.Eval(ctx.Resolve)
		if !resolved {
			return 2, nil
		}
		switch {
		case !mode.Indirect && value >= -16 && value <= 15:
			mode.OffsetForm = OffsetConst5
			return 1, nil
		case FitsWidth(value, 1):
			mode.OffsetForm = OffsetConst8
			return 1, nil
		default:
			mode.OffsetForm = OffsetConst16
			return 2, nil
		}
	}
	return 0, NewError(SyntaxError, stmt.SourceLineNumber, "unknown indexed offset form")
}

// Encode produces the final byte sequence for stmt, given the fully
// populated symbol table (pass 2). It must emit exactly stmt.Size bytes;
// any mismatch is a bug in Size, not a recoverable condition.
func Encode(stmt *Statement, ctx EncodeContext) ([]byte, error) {
	entry, ok := Lookup(stmt.Mnemonic)
	if !ok {
		return nil, NewError(SyntaxError, stmt.SourceLineNumber, "unknown mnemonic %q", stmt.Mnemonic)
	}

	switch stmt.Mode.Kind {
	case Inherent:
		if form, ok := entry.Form("inherent"); ok {
			return append([]byte{}, form.Opcode...), nil
		}
		if form, ok := entry.Form("inherentA"); ok {
			return append([]byte{}, form.Opcode...), nil
		}
		return nil, illegalMode(stmt, "Inherent")

	case Immediate8:
		form, _ := entry.Form("immediate8")
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		if !FitsWidth(v, 1) {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "immediate value %d does not fit in 8 bits", v)
		}
		return append(append([]byte{}, form.Opcode...), byte(TruncateWidth(v, 1))), nil

	case Immediate16:
		form, _ := entry.Form("immediate16")
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		if !FitsWidth(v, 2) {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "immediate value %d does not fit in 16 bits", v)
		}
		w := uint16(TruncateWidth(v, 2))
		return append(append([]byte{}, form.Opcode...), byte(w>>8), byte(w)), nil

	case Direct:
		form, _ := entry.Form("direct")
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		if stmt.Mode.ForcedDirect && byte(v>>8) != ctx.DirectPage {
			return nil, NewError(DirectPageMismatch, stmt.SourceLineNumber, "forced direct address $%04X does not match direct page $%02X", uint16(v), ctx.DirectPage)
		}
		return append(append([]byte{}, form.Opcode...), byte(v)), nil

	case Extended:
		form, _ := entry.Form("extended")
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		w := uint16(v)
		return append(append([]byte{}, form.Opcode...), byte(w>>8), byte(w)), nil

	case ExtendedIndirect:
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		form, ok := entry.Form("indexed")
		if !ok {
			return nil, illegalMode(stmt, "ExtendedIndirect")
		}
		w := uint16(v)
		return append(append([]byte{}, form.Opcode...), 0x9F, byte(w>>8), byte(w)), nil

	case Indexed:
		return encodeIndexed(stmt, entry, ctx)

	case ProgramCounterRelative:
		return encodePCR(stmt, entry, ctx)

	case RegisterList:
		form, ok := entry.Form("registerList")
		if !ok {
			return nil, illegalMode(stmt, "RegisterList")
		}
		complementStack := stmt.Mnemonic == "PSHU" || stmt.Mnemonic == "PULU"
		var postbyte byte
		for _, r := range stmt.Mode.Registers {
			bit, ok := PushPullBit(r, complementStack)
			if !ok {
				return nil, NewError(IllegalAddressingMode, stmt.SourceLineNumber, "register %s is not valid in a %s list", r, stmt.Mnemonic)
			}
			postbyte |= bit
		}
		return append(append([]byte{}, form.Opcode...), postbyte), nil

	case RegisterPair:
		form, ok := entry.Form("registerPair")
		if !ok {
			return nil, illegalMode(stmt, "RegisterPair")
		}
		if stmt.Mode.Source.Is8Bit() != stmt.Mode.Destination.Is8Bit() {
			return nil, NewError(IllegalAddressingMode, stmt.SourceLineNumber, "cannot mix 8- and 16-bit registers in %s", stmt.Mnemonic)
		}
		srcCode, ok := TfrExgCode(stmt.Mode.Source)
		if !ok {
			return nil, NewError(IllegalAddressingMode, stmt.SourceLineNumber, "register %s is not valid in %s", stmt.Mode.Source, stmt.Mnemonic)
		}
		dstCode, ok := TfrExgCode(stmt.Mode.Destination)
		if !ok {
			return nil, NewError(IllegalAddressingMode, stmt.SourceLineNumber, "register %s is not valid in %s", stmt.Mode.Destination, stmt.Mnemonic)
		}
		return append(append([]byte{}, form.Opcode...), srcCode<<4|dstCode), nil

	case Relative8:
		form, ok := entry.Form("relative8")
		if !ok {
			return nil, illegalMode(stmt, "Relative8")
		}
		target, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		disp := target - int64(stmt.Address) - int64(form.Len())
		if disp < -128 || disp > 127 {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "branch target out of 8-bit range (displacement %d), use a long branch", disp)
		}
		return append(append([]byte{}, form.Opcode...), byte(disp)), nil

	case Relative16:
		form, ok := entry.Form("relative16")
		if !ok {
			return nil, illegalMode(stmt, "Relative16")
		}
		target, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		disp := target - int64(stmt.Address) - int64(form.Len())
		if disp < -32768 || disp > 32767 {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "branch target out of 16-bit range (displacement %d)", disp)
		}
		return append(append([]byte{}, form.Opcode...), byte(uint16(disp)>>8), byte(uint16(disp))), nil
	}

	return nil, illegalMode(stmt, "unknown")
}

func resolveRequired(stmt *Statement, ctx EncodeContext) (int64, error) {
	v, ok := stmt.Mode.Expr.Eval(ctx.Resolve)
	if !ok {
		return 0, NewError(UnresolvedSymbol, stmt.SourceLineNumber, "unresolved symbol in operand of %s", stmt.Mnemonic)
	}
	return v, nil
}

// encodeIndexed builds the postbyte (and any extra bytes) for an Indexed
// addressing mode per the 6809's fixed bit layout: 5-bit constant forms
// are `0 RR nnnnn` (bit 7 clear); every other form is `1 RR i ffff` with
// bit 4 the indirect flag.
func encodeIndexed(stmt *Statement, entry asm.OpcodeEntry, ctx EncodeContext) ([]byte, error) {
	form, ok := entry.Form("indexed")
	if !ok {
		return nil, illegalMode(stmt, "Indexed")
	}
	mode := stmt.Mode
	rr, ok := IndexedBaseCode(mode.BaseRegister)
	if !ok {
		return nil, NewError(IllegalAddressingMode, stmt.SourceLineNumber, "register %s cannot be used as an indexed base", mode.BaseRegister)
	}

	out := append([]byte{}, form.Opcode...)

	switch mode.OffsetForm {
	case OffsetConst5:
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		if v < -16 || v > 15 {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "5-bit indexed offset %d out of range", v)
		}
		postbyte := (rr << 5) | (byte(v) & 0x1F)
		return append(out, postbyte), nil

	case OffsetZero:
		return append(out, indexedPostbyte(rr, 0x04, mode.Indirect)), nil
	case OffsetAccumulatorA:
		return append(out, indexedPostbyte(rr, 0x06, mode.Indirect)), nil
	case OffsetAccumulatorB:
		return append(out, indexedPostbyte(rr, 0x05, mode.Indirect)), nil
	case OffsetAccumulatorD:
		return append(out, indexedPostbyte(rr, 0x0B, mode.Indirect)), nil
	case OffsetPostInc1:
		return append(out, indexedPostbyte(rr, 0x00, false)), nil
	case OffsetPostInc2:
		return append(out, indexedPostbyte(rr, 0x01, mode.Indirect)), nil
	case OffsetPreDec1:
		return append(out, indexedPostbyte(rr, 0x02, false)), nil
	case OffsetPreDec2:
		return append(out, indexedPostbyte(rr, 0x03, mode.Indirect)), nil
	case OffsetConst8:
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		if !FitsWidth(v, 1) {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "8-bit indexed offset %d out of range", v)
		}
		postbyte := indexedPostbyte(rr, 0x08, mode.Indirect)
		return append(out, postbyte, byte(TruncateWidth(v, 1))), nil
	case OffsetConst16:
		v, err := resolveRequired(stmt, ctx)
		if err != nil {
			return nil, err
		}
		if !FitsWidth(v, 2) {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "16-bit indexed offset %d out of range", v)
		}
		postbyte := indexedPostbyte(rr, 0x09, mode.Indirect)
		w := uint16(TruncateWidth(v, 2))
		return append(out, postbyte, byte(w>>8), byte(w)), nil
	}

	return nil, NewError(SyntaxError, stmt.SourceLineNumber, "unknown indexed offset form")
}

// indexedPostbyte builds the `1 RR i ffff` shape shared by every indexed
// form except the 5-bit constant (which clears bit 7 entirely).
func indexedPostbyte(rr byte, submode byte, indirect bool) byte {
	postbyte := byte(0x80) | (rr << 5) | submode
	if indirect {
		postbyte |= 0x10
	}
	return postbyte
}

// encodePCR builds the LEAx/jump-family postbyte for `n,PCR` /
// `[n,PCR]`, always through the indexed family's opcode since PCR is one
// of its sub-forms (postbyte $8C for 8-bit, $8D for 16-bit, both with RR
// hardwired to 0 and bit 4 set when bracketed).
func encodePCR(stmt *Statement, entry asm.OpcodeEntry, ctx EncodeContext) ([]byte, error) {
	form, ok := entry.Form("indexed")
	if !ok {
		return nil, illegalMode(stmt, "ProgramCounterRelative")
	}
	target, err := resolveRequired(stmt, ctx)
	if err != nil {
		return nil, err
	}

	// The PCR base point is the address just past the postbyte (where the
	// first displacement byte sits), not the address after the trailing
	// displacement bytes: LEAX 5,PCR at $1000 with a
	// target of $1007 yields postbyte $8C and displacement $05, i.e.
	// $1007 - ($1000 + len(opcode) + 1).
	dispBase := int64(stmt.Address) + int64(len(form.Opcode)) + 1

	out := append([]byte{}, form.Opcode...)
	if !stmt.Mode.PCRWide {
		disp := target - dispBase
		if disp < -128 || disp > 127 {
			return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "8-bit PCR displacement %d out of range", disp)
		}
		postbyte := byte(0x8C)
		if stmt.Mode.Indirect {
			postbyte |= 0x10
		}
		return append(out, postbyte, byte(disp)), nil
	}

	disp := target - dispBase
	if disp < -32768 || disp > 32767 {
		return nil, NewError(ValueOutOfRange, stmt.SourceLineNumber, "16-bit PCR displacement %d out of range", disp)
	}
	postbyte := byte(0x8D)
	if stmt.Mode.Indirect {
		postbyte |= 0x10
	}
	w := uint16(disp)
	return append(out, postbyte, byte(w>>8), byte(w)), nil
}
