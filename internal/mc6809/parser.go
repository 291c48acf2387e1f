package mc6809

import "strings"

// pseudoOpMnemonics names every pseudo-op recognized by ParseLine, so the
// driver can tell a real instruction from a directive without a second
// lookup against the opcode table.
var pseudoOpMnemonics = map[string]bool{
	"ORG": true, "EQU": true, "NAM": true, "END": true, "SETDP": true,
	"FCB": true, "FDB": true, "FCC": true, "RMB": true, "INCLUDE": true,
}

// IsPseudoOp reports whether mnemonic (already uppercased) is a pseudo-op.
func IsPseudoOp(mnemonic string) bool {
	return pseudoOpMnemonics[mnemonic]
}

// ParseLine splits one logical source line into its four columns — label,
// mnemonic, operand, comment — and classifies the operand's addressing
// mode. sourceLineNumber is the line's position in the expanded
// (post-INCLUDE) stream; the caller maps it back to the originating file
// and line via the matching ExpandedLine's SourceFile/SourceLine.
func ParseLine(sourceLineNumber int, rawText string) (*Statement, error) {
	stmt := &Statement{SourceLineNumber: sourceLineNumber, RawText: rawText}

	body, comment := splitComment(rawText)
	stmt.Comment = comment

	if strings.TrimSpace(body) == "" {
		return stmt, nil
	}

	labelStartsLine := body[0] != ' ' && body[0] != '\t'

	leadingWords := 1
	if labelStartsLine {
		leadingWords = 2
	}
	fields := splitFields(body, leadingWords)
	if len(fields) == 0 {
		return stmt, nil
	}

	idx := 0
	if labelStartsLine {
		stmt.Label = fields[0]
		idx = 1
	}
	if idx >= len(fields) {
		return stmt, nil
	}

	mnemonic := strings.ToUpper(fields[idx])
	stmt.Mnemonic = mnemonic
	stmt.IsPseudoOp = IsPseudoOp(mnemonic)
	idx++

	if idx < len(fields) {
		stmt.OperandText = fields[idx]
	}

	if mnemonic == "" {
		return stmt, nil
	}

	if stmt.IsPseudoOp {
		// Pseudo-op operand classification (expression lists, strings) is
		// the pseudo-op handler's job, not the addressing-mode classifier.
		return stmt, nil
	}

	mode, err := ClassifyOperand(sourceLineNumber, mnemonic, stmt.OperandText)
	if err != nil {
		return stmt, err
	}
	stmt.Mode = mode
	return stmt, nil
}

// splitComment finds the start of a trailing ';' comment, or a leading
// full-line '#' comment, and returns (code, comment) with the comment
// marker stripped.
func splitComment(line string) (code string, comment string) {
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return "", strings.TrimSpace(trimmed[1:])
	}
	// Only double quotes toggle a "don't split here" region: FCC delimits a
	// string with a matching punctuation pair, while a 'c character literal
	// is a single unpaired quote and must not suppress comment detection
	// for the rest of the line.
	inQuote := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return line[:i], strings.TrimSpace(line[i+1:])
			}
		}
	}
	return line, ""
}

// splitFields collects exactly leadingWords whitespace-delimited word
// tokens (the label and/or mnemonic columns), then treats everything past
// them as a single verbatim operand field — preserving embedded spaces in
// delimited strings (FCC "a b") and keeping the function ignorant of
// operand grammar entirely.
func splitFields(body string, leadingWords int) []string {
	var fields []string
	i := 0
	n := len(body)
	for i < n && len(fields) < leadingWords {
		for i < n && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && body[i] != ' ' && body[i] != '\t' {
			i++
		}
		fields = append(fields, body[start:i])
	}
	for i < n && (body[i] == ' ' || body[i] == '\t') {
		i++
	}
	if i < n {
		fields = append(fields, strings.TrimRight(body[i:], " \t"))
	}
	return fields
}
