package mc6809

import (
	"os"
	"path/filepath"
	"testing"
)

func assembleSource(t *testing.T, source string) *Result {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.asm")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	asm := NewAssembler()
	result, err := asm.AssembleFile(path)
	if err != nil {
		t.Fatalf("assembling %q: %v (diagnostics: %v)", source, err, asm.Diagnostics.Entries())
	}
	return result
}

func assembleSourceExpectError(t *testing.T, source string) error {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.asm")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("writing source: %v", err)
	}
	asm := NewAssembler()
	_, err := asm.AssembleFile(path)
	if err == nil {
		t.Fatalf("expected an assembly error for %q, got none", source)
	}
	return err
}

func TestLDXImmediateAndExtendedJMP(t *testing.T) {
	result := assembleSource(t, "\tORG $0E00\nSTART\tLDX #$1234\n\tJMP START\n\tEND START\n")

	want := []byte{0x8E, 0x12, 0x34, 0x7E, 0x0E, 0x00}
	if string(result.Image.Bytes) != string(want) {
		t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
	}
	if result.Image.Origin != 0x0E00 {
		t.Errorf("origin = %#04x, want $0E00", result.Image.Origin)
	}
	if result.Image.ExecutionAddress != 0x0E00 {
		t.Errorf("execution address = %#04x, want $0E00", result.Image.ExecutionAddress)
	}
	sym, ok := result.Symbols.Lookup("START")
	if !ok {
		t.Fatal("expected symbol START to be defined")
	}
	if sym.Value != 0x0E00 {
		t.Errorf("START = %#04x, want $0E00", sym.Value)
	}
}

func TestFCCEmitsStringBytes(t *testing.T) {
	result := assembleSource(t, "\tORG $100\n\tFCC \"AB\"\n")
	want := []byte{0x41, 0x42}
	if string(result.Image.Bytes) != string(want) {
		t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
	}
	if result.Image.Origin != 0x100 {
		t.Errorf("origin = %#04x, want $100", result.Image.Origin)
	}
}

func TestFDBEmitsBigEndianWords(t *testing.T) {
	result := assembleSource(t, "\tORG $100\n\tFDB $1234,$5678\n")
	want := []byte{0x12, 0x34, 0x56, 0x78}
	if string(result.Image.Bytes) != string(want) {
		t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
	}
}

func TestLDAAddressingModes(t *testing.T) {
	t.Run("immediate", func(t *testing.T) {
		result := assembleSource(t, "\tORG $100\n\tLDA #65\n")
		want := []byte{0x86, 0x41}
		if string(result.Image.Bytes) != string(want) {
			t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
		}
	})

	t.Run("direct", func(t *testing.T) {
		result := assembleSource(t, "\tORG $100\n\tLDA 65\n")
		want := []byte{0x96, 0x41}
		if string(result.Image.Bytes) != string(want) {
			t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
		}
	})

	t.Run("forced extended", func(t *testing.T) {
		result := assembleSource(t, "\tORG $100\n\tLDA >65\n")
		want := []byte{0xB6, 0x00, 0x41}
		if string(result.Image.Bytes) != string(want) {
			t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
		}
	})
}

func TestShortBranchOutOfRangeErrorsAndLongBranchReaches(t *testing.T) {
	// A label 200 bytes ahead of a BEQ is out of signed 8-bit range.
	var src string
	src = "\tORG $0000\n\tBEQ TARGET\n\tRMB 200\nTARGET\tNOP\n"
	assembleSourceExpectError(t, src)

	src = "\tORG $0000\n\tLBEQ TARGET\n\tRMB 198\nTARGET\tNOP\n"
	result := assembleSource(t, src)
	// LBEQ opcode is $10 $27, followed by a 2-byte displacement. pc_after
	// the LBEQ instruction is $0000 + 4 = $0004; TARGET is at $0004 + 198
	// = $00CA; displacement = $00CA - $0004 = $00C6.
	if len(result.Image.Bytes) < 4 {
		t.Fatalf("expected at least 4 bytes, got % X", result.Image.Bytes)
	}
	if result.Image.Bytes[0] != 0x10 || result.Image.Bytes[1] != 0x27 {
		t.Fatalf("expected LBEQ opcode $10 $27, got %02X %02X", result.Image.Bytes[0], result.Image.Bytes[1])
	}
	disp := int16(uint16(result.Image.Bytes[2])<<8 | uint16(result.Image.Bytes[3]))
	target := uint16(0x0004 + 198)
	pcAfter := uint16(0x0000 + 4)
	want := int16(target - pcAfter)
	if disp != want {
		t.Errorf("displacement = %d, want %d", disp, want)
	}
}

func TestLEAXProgramCounterRelative(t *testing.T) {
	// LEAX TARGET,PCR at $1000 with TARGET at $1007 must yield 30 8C 05:
	// the LEAX instruction occupies $1000-$1002 (opcode+postbyte+8-bit
	// disp), so its PCR base point (address of the postbyte plus one) is
	// $1002; RMB 4 advances the PC from $1003 to $1007, where TARGET is
	// defined; displacement = $1007 - $1002 = 5.
	result := assembleSource(t, "\tORG $1000\n\tLEAX TARGET,PCR\n\tRMB 4\nTARGET\tNOP\n")
	want := []byte{0x30, 0x8C, 0x05}
	if string(result.Image.Bytes[:3]) != string(want) {
		t.Errorf("bytes = % X, want % X", result.Image.Bytes[:3], want)
	}
}

func TestIdempotenceAcrossForwardAndBackwardReference(t *testing.T) {
	// Both sources put LDX at $0100 and TARGET at $0103; only the order of
	// the two statements differs, so the LDX encoding must be the same.
	forward := assembleSource(t, "\tORG $0100\n\tLDX #TARGET\nTARGET\tNOP\n")
	backward := assembleSource(t, "\tORG $0103\nTARGET\tNOP\n\tORG $0100\n\tLDX #TARGET\n")

	if forward.Image.Bytes[0] != 0x8E {
		t.Fatalf("expected LDX immediate opcode 8E, got %02X", forward.Image.Bytes[0])
	}
	want := []byte{0x8E, 0x01, 0x03}
	if string(forward.Runs[0].Bytes[:3]) != string(want) {
		t.Errorf("forward-reference LDX = % X, want % X", forward.Runs[0].Bytes[:3], want)
	}
	if len(backward.Runs) != 2 || string(backward.Runs[1].Bytes) != string(want) {
		t.Errorf("backward-reference runs = %+v, want LDX bytes % X in the second run", backward.Runs, want)
	}
}

func TestDuplicateSymbolIsAnError(t *testing.T) {
	assembleSourceExpectError(t, "\tORG $100\nFOO\tNOP\nFOO\tNOP\n")
}

func TestUnresolvedSymbolFailsPass2(t *testing.T) {
	assembleSourceExpectError(t, "\tORG $100\n\tLDX #NOPE\n")
}

func TestEquDoesNotAllowForwardReference(t *testing.T) {
	assembleSourceExpectError(t, "FOO\tEQU BAR\nBAR\tEQU 5\n")
}

func TestSETDPChangesDirectPageOptimization(t *testing.T) {
	result := assembleSource(t, "\tORG $100\n\tSETDP $20\n\tLDA $2042\n")
	want := []byte{0x96, 0x42}
	if string(result.Image.Bytes) != string(want) {
		t.Errorf("bytes = % X, want % X (direct form under DP=$20)", result.Image.Bytes, want)
	}
}

func TestBareENDDefaultsExecutionAddressToOrigin(t *testing.T) {
	result := assembleSource(t, "\tORG $0200\n\tNOP\n\tNOP\n\tEND\n")
	if result.Image.ExecutionAddress != 0x0200 {
		t.Errorf("execution address = %#04x, want origin $0200", result.Image.ExecutionAddress)
	}
}

func TestRMBEmitsZeroBytes(t *testing.T) {
	result := assembleSource(t, "\tORG $100\n\tRMB 3\n")
	want := []byte{0, 0, 0}
	if string(result.Image.Bytes) != string(want) {
		t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
	}
}

func TestIncludeExpansion(t *testing.T) {
	dir := t.TempDir()
	childPath := filepath.Join(dir, "child.asm")
	if err := os.WriteFile(childPath, []byte("\tFCB 1,2,3\n"), 0o644); err != nil {
		t.Fatalf("writing child: %v", err)
	}
	rootPath := filepath.Join(dir, "root.asm")
	root := "\tORG $100\n\tINCLUDE \"child.asm\"\n"
	if err := os.WriteFile(rootPath, []byte(root), 0o644); err != nil {
		t.Fatalf("writing root: %v", err)
	}

	asm := NewAssembler()
	result, err := asm.AssembleFile(rootPath)
	if err != nil {
		t.Fatalf("assembling with include: %v", err)
	}
	want := []byte{1, 2, 3}
	if string(result.Image.Bytes) != string(want) {
		t.Errorf("bytes = % X, want % X", result.Image.Bytes, want)
	}
}

func TestIncludeCycleIsAnError(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.asm")
	bPath := filepath.Join(dir, "b.asm")
	if err := os.WriteFile(aPath, []byte("\tINCLUDE \"b.asm\"\n"), 0o644); err != nil {
		t.Fatalf("writing a.asm: %v", err)
	}
	if err := os.WriteFile(bPath, []byte("\tINCLUDE \"a.asm\"\n"), 0o644); err != nil {
		t.Fatalf("writing b.asm: %v", err)
	}

	asm := NewAssembler()
	if _, err := asm.AssembleFile(aPath); err == nil {
		t.Fatal("expected an INCLUDE cycle error, got none")
	}
}
