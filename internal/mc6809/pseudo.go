package mc6809

import "strings"

// PseudoResult carries what a pseudo-op did to assembler state, so the
// two-pass driver can apply the same side effects consistently across
// both passes without duplicating the dispatch switch.
type PseudoResult struct {
	// NewPC, when HasNewPC, replaces the program counter (ORG).
	HasNewPC bool
	NewPC    uint16

	// DefineLabel/LabelValue/LabelKind: EQU binds the statement's label to
	// a computed value instead of the current PC.
	DefineLabel bool
	LabelValue  uint16
	LabelKind   SymbolKind

	// SetDirectPage, when true, updates the assembler's direct-page setting.
	SetDirectPage bool
	DirectPage    byte

	// ProgramName is set by NAM.
	ProgramName string
	HasName     bool

	// Terminal marks END: the driver stops after this statement.
	Terminal         bool
	ExecutionAddress uint16
	HasExecAddress   bool

	// Size is the statement's byte count (pass 1) / EmittedBytes length
	// (pass 2 data pseudo-ops: FCB/FDB/FCC/RMB).
	Size int
}

// evalOperandList splits a comma-separated expression list (FCB/FDB
// operands), parsing each with ParseExpr.
func evalOperandList(line int, text string) ([]*Expr, error) {
	parts := splitTopLevelCommas(text)
	exprs := make([]*Expr, 0, len(parts))
	for _, p := range parts {
		e, err := ParseExpr(line, strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	return exprs, nil
}

// splitTopLevelCommas splits on commas that are not inside parentheses.
func splitTopLevelCommas(text string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, text[start:])
	return parts
}

// parseFCCString extracts the delimited string literal from an FCC
// operand: the first non-space character is the delimiter, and the string
// runs to its next occurrence (no escaping, per EDTASM+ convention).
func parseFCCString(line int, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", NewError(SyntaxError, line, "FCC requires a delimited string operand")
	}
	delim := trimmed[0]
	rest := trimmed[1:]
	end := strings.IndexByte(rest, delim)
	if end < 0 {
		return "", NewError(LexError, line, "unterminated FCC string, missing closing %q", string(delim))
	}
	return rest[:end], nil
}

// EvalPseudoOp computes a pseudo-op's effect on assembler state. resolve is
// used to evaluate ORG/EQU/SETDP/RMB expressions, which must resolve in
// pass 1 (no forward references); FCB/FDB operand
// expressions are allowed to stay unresolved until pass 2, matching the
// rest of the encoder's pessimistic-sizing discipline — EmitPseudoOp
// evaluates them in pass 2 and fails on any that are still unresolved.
// origin is the program's first ORG address, used as END's default
// execution address when it carries no operand.
func EvalPseudoOp(stmt *Statement, origin uint16, resolve SymbolResolver) (PseudoResult, error) {
	line := stmt.SourceLineNumber
	switch stmt.Mnemonic {
	case "ORG":
		v, ok := evalRequiredOperand(line, stmt.OperandText, resolve)
		if !ok {
			return PseudoResult{}, NewError(UnresolvedSymbol, line, "ORG operand must resolve in pass 1")
		}
		return PseudoResult{HasNewPC: true, NewPC: uint16(v)}, nil

	case "EQU":
		if stmt.Label == "" {
			return PseudoResult{}, NewError(SyntaxError, line, "EQU requires a label")
		}
		v, ok := evalRequiredOperand(line, stmt.OperandText, resolve)
		if !ok {
			return PseudoResult{}, NewError(UnresolvedSymbol, line, "EQU operand must resolve in pass 1 (no forward references)")
		}
		return PseudoResult{DefineLabel: true, LabelValue: uint16(v), LabelKind: SymbolEquate}, nil

	case "NAM":
		return PseudoResult{HasName: true, ProgramName: strings.TrimSpace(stmt.OperandText)}, nil

	case "END":
		result := PseudoResult{Terminal: true, ExecutionAddress: origin}
		if strings.TrimSpace(stmt.OperandText) != "" {
			v, ok := evalRequiredOperand(line, stmt.OperandText, resolve)
			if !ok {
				return PseudoResult{}, NewError(UnresolvedSymbol, line, "END operand must resolve")
			}
			result.ExecutionAddress = uint16(v)
		}
		result.HasExecAddress = true
		return result, nil

	case "SETDP":
		v, ok := evalRequiredOperand(line, stmt.OperandText, resolve)
		if !ok {
			return PseudoResult{}, NewError(UnresolvedSymbol, line, "SETDP operand must resolve in pass 1")
		}
		return PseudoResult{SetDirectPage: true, DirectPage: byte(v & 0xFF)}, nil

	case "FCB":
		exprs, err := evalOperandList(line, stmt.OperandText)
		if err != nil {
			return PseudoResult{}, err
		}
		return PseudoResult{Size: len(exprs)}, nil

	case "FDB":
		exprs, err := evalOperandList(line, stmt.OperandText)
		if err != nil {
			return PseudoResult{}, err
		}
		return PseudoResult{Size: 2 * len(exprs)}, nil

	case "FCC":
		s, err := parseFCCString(line, stmt.OperandText)
		if err != nil {
			return PseudoResult{}, err
		}
		return PseudoResult{Size: len(s)}, nil

	case "RMB":
		v, ok := evalRequiredOperand(line, stmt.OperandText, resolve)
		if !ok {
			return PseudoResult{}, NewError(UnresolvedSymbol, line, "RMB operand must resolve in pass 1")
		}
		return PseudoResult{Size: int(v)}, nil
	}

	return PseudoResult{}, NewError(SyntaxError, line, "unknown pseudo-op %q", stmt.Mnemonic)
}

// EmitPseudoOp produces the bytes a data pseudo-op contributes to the
// image in pass 2. ORG/EQU/NAM/END/SETDP never emit bytes.
func EmitPseudoOp(stmt *Statement, resolve SymbolResolver) ([]byte, error) {
	line := stmt.SourceLineNumber
	switch stmt.Mnemonic {
	case "FCB":
		exprs, err := evalOperandList(line, stmt.OperandText)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(exprs))
		for _, e := range exprs {
			v, ok := e.Eval(resolve)
			if !ok {
				return nil, NewError(UnresolvedSymbol, line, "unresolved symbol in FCB operand")
			}
			if !FitsWidth(v, 1) {
				return nil, NewError(ValueOutOfRange, line, "FCB value %d does not fit in a byte", v)
			}
			out = append(out, byte(TruncateWidth(v, 1)))
		}
		return out, nil

	case "FDB":
		exprs, err := evalOperandList(line, stmt.OperandText)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(exprs)*2)
		for _, e := range exprs {
			v, ok := e.Eval(resolve)
			if !ok {
				return nil, NewError(UnresolvedSymbol, line, "unresolved symbol in FDB operand")
			}
			if !FitsWidth(v, 2) {
				return nil, NewError(ValueOutOfRange, line, "FDB value %d does not fit in a word", v)
			}
			w := uint16(TruncateWidth(v, 2))
			out = append(out, byte(w>>8), byte(w))
		}
		return out, nil

	case "FCC":
		s, err := parseFCCString(line, stmt.OperandText)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil

	case "RMB":
		v, ok := evalRequiredOperand(line, stmt.OperandText, resolve)
		if !ok {
			return nil, NewError(UnresolvedSymbol, line, "RMB operand must resolve")
		}
		return make([]byte, v), nil
	}
	return nil, nil
}

func evalRequiredOperand(line int, text string, resolve SymbolResolver) (int64, bool) {
	expr, err := ParseExpr(line, text)
	if err != nil {
		return 0, false
	}
	return expr.Eval(resolve)
}
