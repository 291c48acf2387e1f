package container

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDiskImageSizeAndBlankState(t *testing.T) {
	img := NewDiskImage()
	if len(img.Data) != DiskImageSize {
		t.Fatalf("disk image is %d bytes, want %d", len(img.Data), DiskImageSize)
	}
	if len(img.Directory()) != 0 {
		t.Fatalf("a freshly created image should have no directory entries")
	}
}

func TestWriteFileThenReadFileRoundTrips(t *testing.T) {
	img := NewDiskImage()
	data := bytesRange(5000) // spans multiple granules
	if err := img.WriteFile("PROG", "BIN", DiskFileTypeML, 0, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := img.ReadFile("PROG", "BIN")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("round-tripped %d bytes, want %d matching bytes", len(got), len(data))
	}
}

func TestWriteFileSmallPayloadExactSectorBoundary(t *testing.T) {
	img := NewDiskImage()
	data := bytesRange(bytesPerSector) // exactly one sector, no remainder
	if err := img.WriteFile("EXACT", "BIN", DiskFileTypeML, 0, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := img.ReadFile("EXACT", "BIN")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != bytesPerSector {
		t.Fatalf("round-tripped %d bytes, want exactly %d", len(got), bytesPerSector)
	}
}

func TestDirectoryEntriesNeverShareAFirstGranule(t *testing.T) {
	img := NewDiskImage()
	for i, name := range []string{"ONE", "TWO", "THREE", "FOUR"} {
		if err := img.WriteFile(name, "BIN", DiskFileTypeML, 0, bytesRange(100+i*2000)); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
	}

	seen := make(map[byte]string)
	for _, e := range img.Directory() {
		if other, dup := seen[e.FirstGranule]; dup {
			t.Errorf("granule %d shared between %q and %q", e.FirstGranule, other, e.Name)
		}
		seen[e.FirstGranule] = e.Name
	}
}

func TestFATChainsTerminateWithAValidLastMarker(t *testing.T) {
	img := NewDiskImage()
	if err := img.WriteFile("CHAIN", "BIN", DiskFileTypeML, 0, bytesRange(granuleBytes*3+50)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries := img.Directory()
	if len(entries) != 1 {
		t.Fatalf("expected 1 directory entry, got %d", len(entries))
	}

	fat := img.fatBytes()
	g := int(entries[0].FirstGranule)
	steps := 0
	for {
		steps++
		if steps > totalGranules {
			t.Fatal("FAT chain did not terminate within totalGranules steps")
		}
		marker := fat[g]
		if marker >= granuleLastMarker && marker <= granuleLastMarker+sectorsPerGranule {
			return // terminator found
		}
		if marker == granuleFree {
			t.Fatalf("FAT chain ran into a free granule at index %d", g)
		}
		g = int(marker)
	}
}

func TestDiskImageWriteAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dsk")

	img := NewDiskImage()
	if err := img.WriteFile("ROUND", "BIN", DiskFileTypeML, 0, bytesRange(1234)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteDiskImage(path, img, false); err != nil {
		t.Fatalf("WriteDiskImage: %v", err)
	}

	loaded, err := LoadDiskImage(path)
	if err != nil {
		t.Fatalf("LoadDiskImage: %v", err)
	}
	got, err := loaded.ReadFile("ROUND", "BIN")
	if err != nil {
		t.Fatalf("ReadFile on reloaded image: %v", err)
	}
	if len(got) != 1234 {
		t.Fatalf("reloaded file is %d bytes, want 1234", len(got))
	}
}

func TestWriteDiskImageRefusesExistingWithoutAppend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dsk")
	img := NewDiskImage()
	if err := WriteDiskImage(path, img, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteDiskImage(path, img, false); err == nil {
		t.Fatal("expected an error writing to an existing path without --append")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the original image to remain: %v", err)
	}
}

func TestDiskFullErrorsWhenNoFreeGranulesRemain(t *testing.T) {
	img := NewDiskImage()
	var lastErr error
	for i := 0; i < totalGranules+1; i++ {
		lastErr = img.WriteFile("F", string(rune('A'+i%26)), DiskFileTypeML, 0, bytesRange(granuleBytes))
		if lastErr != nil {
			break
		}
	}
	if lastErr == nil {
		t.Fatal("expected a ContainerFull error once granules are exhausted")
	}
}
