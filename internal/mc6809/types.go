// Package mc6809 implements the assembler core for the Motorola 6809:
// expression evaluation, statement parsing, addressing-mode encoding, and
// the two-pass driver that turns a source listing into a machine-code
// image, a symbol table, and listing records.
package mc6809

// SymbolKind distinguishes a label bound to an assembled address from a
// value bound by EQU.
type SymbolKind int

const (
	SymbolAddress SymbolKind = iota
	SymbolEquate
)

// Symbol is one entry in the flat, case-folded symbol table.
type Symbol struct {
	Name          string
	Value         uint16
	Kind          SymbolKind
	DefinedInPass int
}

// IndexedOffsetForm names the sub-form of an Indexed addressing mode.
type IndexedOffsetForm int

const (
	OffsetZero IndexedOffsetForm = iota
	OffsetConst5
	OffsetConst8
	OffsetConst16
	OffsetAccumulatorA
	OffsetAccumulatorB
	OffsetAccumulatorD
	OffsetPostInc1
	OffsetPostInc2
	OffsetPreDec1
	OffsetPreDec2
)

// AddressingModeKind is the tag of the AddressingMode sum type.
type AddressingModeKind int

const (
	Inherent AddressingModeKind = iota
	Immediate8
	Immediate16
	Direct
	Extended
	ExtendedIndirect
	Indexed
	ProgramCounterRelative
	RegisterList
	RegisterPair
	Relative8
	Relative16
)

// AddressingMode is the parsed shape of an operand, before the encoder has
// resolved any expression values. Fields outside the active Kind's concern
// are left zero.
type AddressingMode struct {
	Kind Kind

	// Immediate, Direct, Extended, ExtendedIndirect, Relative8/16,
	// ProgramCounterRelative: the operand expression.
	Expr *Expr

	// Indexed only, except Indirect, which also marks a bracketed
	// ProgramCounterRelative operand.
	BaseRegister Register
	OffsetForm   IndexedOffsetForm
	Indirect     bool

	// ProgramCounterRelative only: whether a 16-bit rather than an 8-bit
	// displacement was requested.
	PCRWide bool

	// RegisterList only (PSHS/PULS/PSHU/PULU): the registers named, in
	// source order.
	Registers []Register

	// RegisterPair only (TFR/EXG): source then destination.
	Source      Register
	Destination Register

	// ForcedDirect / ForcedExtended record an explicit '<' or '>' prefix
	// so the encoder can enforce or reject the Direct/Extended choice
	// instead of picking it from the resolved value.
	ForcedDirect   bool
	ForcedExtended bool
}

// Kind is an alias so callers can write mc6809.AddressingMode{Kind: mc6809.Direct, ...}.
type Kind = AddressingModeKind

// Statement is one parsed line of source, carrying everything the two
// passes need. SourceLineNumber refers to the expanded (post-INCLUDE) line
// stream; the assembler maps it back to the originating file and line via
// the corresponding ExpandedLine's SourceFile/SourceLine.
type Statement struct {
	SourceLineNumber int
	RawText          string

	Label       string
	Mnemonic    string
	OperandText string
	Comment     string

	IsPseudoOp bool

	Address uint16
	Size    int

	Mode          AddressingMode
	EmittedBytes  []byte
	ResolvedValue int64
	ValueResolved bool
}

// Image is the assembled machine-code output: an origin plus a dense run
// of bytes, and the execution address recorded by END.
type Image struct {
	Origin           uint16
	Bytes            []byte
	ExecutionAddress uint16
}

// Run is one contiguous span of emitted bytes at a fixed start address,
// as grouped from a list of statements by the assembler's groupRuns for
// the container writer.
type Run struct {
	Start uint16
	Bytes []byte
}
