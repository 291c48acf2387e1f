package mc6809

import (
	"fmt"

	"github.com/keurnel/m6809asm/internal/debugcontext"
)

// Assembler is the two-pass driver: pass 1 assigns addresses and symbols
// pessimistically, pass 2 resolves and emits. State mirrors
// z80asm.Assembler's reset/performPass split, generalized to the 6809's
// direct-page concept instead of a segment/bank model.
type Assembler struct {
	pc         uint16
	origin     uint16
	originSet  bool
	directPage byte
	programName string
	execAddr   uint16

	symbols    *SymbolTable
	statements []*Statement

	Diagnostics *debugcontext.DebugContext
}

// NewAssembler returns an Assembler ready to run AssembleFile.
func NewAssembler() *Assembler {
	return &Assembler{
		symbols:     NewSymbolTable(),
		Diagnostics: debugcontext.NewDebugContext(""),
	}
}

// Result is everything an assembly run produces.
type Result struct {
	Image   Image
	Symbols *SymbolTable
	Listing []ListingRecord
	Runs    []Run
}

// AssembleFile expands INCLUDEs from path and assembles the result.
func (a *Assembler) AssembleFile(path string) (*Result, error) {
	lines, err := ExpandIncludes(path)
	if err != nil {
		return nil, err
	}
	return a.assembleLines(path, lines)
}

func (a *Assembler) assembleLines(rootPath string, lines []ExpandedLine) (*Result, error) {
	a.reset()

	statements := make([]*Statement, 0, len(lines))
	var parseErrors []error
	for i, line := range lines {
		stmt, err := ParseLine(i+1, line.Text)
		if err != nil {
			parseErrors = append(parseErrors, err)
			if ae, ok := err.(*AssemblyError); ok {
				ae.Line = line.SourceLine
				record(a.Diagnostics, line.SourceFile, ae)
			}
			continue
		}
		statements = append(statements, stmt)
	}
	if len(parseErrors) > 0 {
		return nil, fmt.Errorf("parse failed with %d error(s): %w", len(parseErrors), parseErrors[0])
	}
	a.statements = statements

	if err := a.runPass(1, lines); err != nil {
		return nil, fmt.Errorf("pass 1: %w", err)
	}

	image := Image{}
	a.pc = a.origin
	if err := a.runPass(2, lines); err != nil {
		return nil, fmt.Errorf("pass 2: %w", err)
	}

	runs := groupRuns(a.statements)
	if len(runs) > 0 {
		image.Origin = runs[0].Start
		for _, r := range runs {
			image.Bytes = append(image.Bytes, r.Bytes...)
		}
	}
	image.ExecutionAddress = a.execAddr

	return &Result{
		Image:   image,
		Symbols: a.symbols,
		Listing: BuildListing(a.statements),
		Runs:    runs,
	}, nil
}

func (a *Assembler) reset() {
	a.pc = 0
	a.origin = 0
	a.originSet = false
	a.directPage = 0
	a.programName = ""
	a.execAddr = 0
	a.symbols = NewSymbolTable()
}

func (a *Assembler) resolver() SymbolResolver {
	return a.symbols.Resolve
}

// runPass iterates every statement once, applying pass-1 address/symbol
// assignment or pass-2 fixup+emission. Pass 1 keeps going after a
// recoverable per-statement error so multiple problems surface at once;
// pass 2 is fail-fast.
func (a *Assembler) runPass(pass int, lines []ExpandedLine) error {
	var collected []error
	for i, stmt := range a.statements {
		terminal, err := a.stepStatement(pass, stmt)
		if err != nil {
			file := lines[i].SourceFile
			if ae, ok := err.(*AssemblyError); ok {
				ae.Line = lines[i].SourceLine
				record(a.Diagnostics, file, ae)
			}
			if pass == 2 {
				return err
			}
			collected = append(collected, err)
			continue
		}
		if terminal {
			break
		}
	}
	if len(collected) > 0 {
		return fmt.Errorf("%d error(s), first: %w", len(collected), collected[0])
	}
	return nil
}

// stepStatement applies one statement's effect for the given pass,
// returning terminal=true once END has been processed.
func (a *Assembler) stepStatement(pass int, stmt *Statement) (terminal bool, err error) {
	if stmt.Mnemonic == "" {
		return false, nil
	}

	if stmt.IsPseudoOp {
		return a.stepPseudoOp(pass, stmt)
	}

	if stmt.Label != "" {
		if pass == 1 {
			if err := a.symbols.Define(stmt.SourceLineNumber, stmt.Label, a.pc, SymbolAddress, 1); err != nil {
				return false, err
			}
		}
	}

	ctx := EncodeContext{Resolve: a.resolver(), DirectPage: a.directPage, Pass: pass}

	if pass == 1 {
		size, err := Size(stmt, ctx)
		if err != nil {
			return false, err
		}
		stmt.Address = a.pc
		stmt.Size = size
		a.pc += uint16(size)
		return false, nil
	}

	bytes, err := Encode(stmt, ctx)
	if err != nil {
		return false, err
	}
	if len(bytes) != stmt.Size {
		return false, NewError(SyntaxError, stmt.SourceLineNumber, "internal error: pass 1 size %d does not match pass 2 emission %d", stmt.Size, len(bytes))
	}
	stmt.EmittedBytes = bytes
	a.pc = stmt.Address + uint16(stmt.Size)
	return false, nil
}

func (a *Assembler) stepPseudoOp(pass int, stmt *Statement) (terminal bool, err error) {
	result, err := EvalPseudoOp(stmt, a.origin, a.resolver())
	if err != nil {
		return false, err
	}

	switch stmt.Mnemonic {
	case "ORG":
		a.pc = result.NewPC
		if !a.originSet {
			a.origin = result.NewPC
			a.originSet = true
		}
		stmt.Address = a.pc
		return false, nil

	case "EQU":
		if pass == 1 {
			if err := a.symbols.Define(stmt.SourceLineNumber, stmt.Label, result.LabelValue, result.LabelKind, 1); err != nil {
				return false, err
			}
		}
		stmt.Address = result.LabelValue
		return false, nil

	case "NAM":
		a.programName = result.ProgramName
		return false, nil

	case "SETDP":
		a.directPage = result.DirectPage
		return false, nil

	case "END":
		a.execAddr = result.ExecutionAddress
		return true, nil
	}

	// Data pseudo-ops (FCB/FDB/FCC/RMB): define the label at the current
	// PC like a real instruction, then advance.
	if stmt.Label != "" && pass == 1 {
		if err := a.symbols.Define(stmt.SourceLineNumber, stmt.Label, a.pc, SymbolAddress, 1); err != nil {
			return false, err
		}
	}

	stmt.Address = a.pc
	if pass == 1 {
		stmt.Size = result.Size
		a.pc += uint16(result.Size)
		return false, nil
	}

	bytes, err := EmitPseudoOp(stmt, a.resolver())
	if err != nil {
		return false, err
	}
	if len(bytes) != stmt.Size {
		return false, NewError(SyntaxError, stmt.SourceLineNumber, "internal error: pass 1 size %d does not match pass 2 emission %d for %s", stmt.Size, len(bytes), stmt.Mnemonic)
	}
	stmt.EmittedBytes = bytes
	a.pc = stmt.Address + uint16(stmt.Size)
	return false, nil
}

// groupRuns collects contiguous address spans from statements that
// actually emitted bytes, for the container writer.
func groupRuns(statements []*Statement) []Run {
	var runs []Run
	for _, stmt := range statements {
		if len(stmt.EmittedBytes) == 0 {
			continue
		}
		if len(runs) > 0 {
			last := &runs[len(runs)-1]
			expectedStart := last.Start + uint16(len(last.Bytes))
			if expectedStart == stmt.Address {
				last.Bytes = append(last.Bytes, stmt.EmittedBytes...)
				continue
			}
		}
		runs = append(runs, Run{Start: stmt.Address, Bytes: append([]byte{}, stmt.EmittedBytes...)})
	}
	return runs
}

// ProgramName returns the name recorded by NAM, if any.
func (a *Assembler) ProgramName() string { return a.programName }
