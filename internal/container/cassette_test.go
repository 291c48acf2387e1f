package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeCassetteFileChecksumAndLength(t *testing.T) {
	f := CassetteFile{
		Name:     "hello",
		FileType: FileTypeObject,
		LoadAddr: 0x0E00,
		ExecAddr: 0x0E00,
		Data:     []byte{1, 2, 3, 4, 5},
	}
	buf := EncodeCassetteFile(f)

	blocks, err := parseBlocks(buf)
	if err != nil {
		t.Fatalf("parseBlocks: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks (Namefile, Data, EOF), got %d", len(blocks))
	}
	for _, b := range blocks {
		if len(b.payload) > 255 {
			t.Errorf("block type %#x payload is %d bytes, exceeds the 255-byte length field", b.blockType, len(b.payload))
		}
	}
}

func TestCassetteRoundTripSingleFile(t *testing.T) {
	f := CassetteFile{
		Name:     "PROG",
		FileType: FileTypeObject,
		LoadAddr: 0x2000,
		ExecAddr: 0x2010,
		Data:     bytesRange(300),
	}
	buf := EncodeCassetteFile(f)

	files, err := ParseCassette(buf)
	if err != nil {
		t.Fatalf("ParseCassette: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	got := files[0]
	if got.Name != "PROG" {
		t.Errorf("name = %q, want PROG", got.Name)
	}
	if got.LoadAddr != 0x2000 || got.ExecAddr != 0x2010 {
		t.Errorf("load/exec = %#04x/%#04x, want $2000/$2010", got.LoadAddr, got.ExecAddr)
	}
	if string(got.Data) != string(f.Data) {
		t.Errorf("data round-trip mismatch: got %d bytes, want %d", len(got.Data), len(f.Data))
	}
}

// TestCassetteTwoAppendedProgramsRoundTrip checks that a cassette
// containing two appended programs round-trips through parse-list-extract
// to yield both names and both payloads exactly.
func TestCassetteTwoAppendedProgramsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "two.cas")

	first := CassetteFile{Name: "FIRST", FileType: FileTypeObject, LoadAddr: 0x1000, ExecAddr: 0x1000, Data: []byte{0xAA, 0xBB}}
	second := CassetteFile{Name: "SECOND", FileType: FileTypeObject, LoadAddr: 0x2000, ExecAddr: 0x2000, Data: []byte{0xCC, 0xDD, 0xEE}}

	if err := WriteCassetteFile(path, first, false); err != nil {
		t.Fatalf("writing first file: %v", err)
	}
	if err := WriteCassetteFile(path, second, true); err != nil {
		t.Fatalf("appending second file: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading cassette image: %v", err)
	}
	files, err := ParseCassette(raw)
	if err != nil {
		t.Fatalf("ParseCassette: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}
	if files[0].Name != "FIRST" || string(files[0].Data) != string(first.Data) {
		t.Errorf("file 0 = %+v, want name FIRST and data %v", files[0], first.Data)
	}
	if files[1].Name != "SECOND" || string(files[1].Data) != string(second.Data) {
		t.Errorf("file 1 = %+v, want name SECOND and data %v", files[1], second.Data)
	}
}

func TestWriteCassetteFileRefusesExistingWithoutAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.cas")
	f := CassetteFile{Name: "A", Data: []byte{1}}
	if err := WriteCassetteFile(path, f, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteCassetteFile(path, f, false); err == nil {
		t.Fatal("expected an error writing to an existing path without --append")
	}
}

func TestCassetteChecksumMismatchIsRejected(t *testing.T) {
	f := CassetteFile{Name: "X", Data: []byte{9, 9}}
	buf := EncodeCassetteFile(f)
	// Corrupt the third byte of the first (Namefile) block's payload, which
	// lies well before the final checksum byte of the whole stream.
	buf[leaderLength+5] ^= 0xFF
	if _, err := ParseCassette(buf); err == nil {
		t.Fatal("expected a checksum mismatch error for corrupted cassette data")
	}
}

func bytesRange(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}
