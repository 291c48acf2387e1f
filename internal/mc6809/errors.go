package mc6809

import (
	"fmt"

	"github.com/keurnel/m6809asm/internal/debugcontext"
)

// ErrorKind classifies an AssemblyError per the assembler's error-handling
// design: each kind names a distinct failure family so callers (CLI, tests)
// can branch on it instead of string-matching messages.
type ErrorKind int

const (
	LexError ErrorKind = iota
	SyntaxError
	UnresolvedSymbol
	DuplicateSymbol
	ValueOutOfRange
	IllegalAddressingMode
	IllegalIndexedCombination
	DirectPageMismatch
	IncludeCycle
	IOError
	ContainerFull
)

func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case SyntaxError:
		return "SyntaxError"
	case UnresolvedSymbol:
		return "UnresolvedSymbol"
	case DuplicateSymbol:
		return "DuplicateSymbol"
	case ValueOutOfRange:
		return "ValueOutOfRange"
	case IllegalAddressingMode:
		return "IllegalAddressingMode"
	case IllegalIndexedCombination:
		return "IllegalIndexedCombination"
	case DirectPageMismatch:
		return "DirectPageMismatch"
	case IncludeCycle:
		return "IncludeCycle"
	case IOError:
		return "IO"
	case ContainerFull:
		return "ContainerFull"
	}
	return "UnknownError"
}

// AssemblyError is the single error type produced anywhere in the
// assembler pipeline. It always carries the source line it refers to, so
// diagnostics can be reported as "line N: message".
type AssemblyError struct {
	Kind ErrorKind
	Line int
	Msg  string
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Msg)
}

// NewError builds an AssemblyError.
func NewError(kind ErrorKind, line int, format string, args ...any) *AssemblyError {
	return &AssemblyError{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// record appends an AssemblyError to a debugcontext.DebugContext as an
// Error-severity entry, keyed to the given file path and line. The
// assembler core uses this everywhere it wants a diagnostic to show up in
// both the returned error value and the accumulated debug context (pass 1
// collects many before stopping; pass 2 is fail-fast).
//
// The entry carries err.Kind directly via WithKind rather than stringifying
// it into the message, so a renderer can branch on the ErrorKind instead of
// parsing it back out of text.
func record(dc *debugcontext.DebugContext, filePath string, err *AssemblyError) {
	if dc == nil || err == nil {
		return
	}
	dc.Error(dc.LocIn(filePath, err.Line, 0), err.Msg).WithKind(err.Kind)
}
