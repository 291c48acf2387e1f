// Package container implements the two loadable-program byte layouts an
// assembled 6809 program can be packaged into: the sequential cassette
// image (.CAS) and the sectored disk image (.DSK). Both writers take an
// already-assembled image (origin + bytes + execution address) and
// package it; neither touches the assembler pipeline itself.
package container

import (
	"fmt"
	"os"
)

// Cassette block types.
const (
	BlockNamefile byte = 0x00
	BlockData     byte = 0x01
	BlockEOF      byte = 0xFF
)

// Cassette file types, recorded in the Namefile block's file_type byte.
const (
	FileTypeBASIC  byte = 0
	FileTypeData   byte = 1
	FileTypeObject byte = 2
)

// leaderLength is the number of 0x55 leader bytes written before a block's
// sync byte. EDTASM+ cassettes vary this in practice (longer leaders give
// a real cassette deck more time to stabilize); a reader only needs to
// skip a run of them to find the sync byte, so the exact count is a
// writer-side choice, not a wire-format invariant.
const leaderLength = 128

// maxDataPayload is the largest payload a single Data block can carry.
const maxDataPayload = 255

// CassetteFile is the logical content of one Namefile+Data+EOF triple.
type CassetteFile struct {
	Name       string // up to 8 characters; space-padded, upper-cased on write
	FileType   byte   // FileTypeBASIC / FileTypeData / FileTypeObject
	ASCIIFlag  byte
	GapFlag    byte
	LoadAddr   uint16
	ExecAddr   uint16
	Data       []byte
}

// checksum computes the `(type + length + Σ payload) mod 256` check byte
// every cassette block carries.
func checksum(blockType, length byte, payload []byte) byte {
	sum := int(blockType) + int(length)
	for _, b := range payload {
		sum += int(b)
	}
	return byte(sum % 256)
}

// writeBlock appends one leader+sync+type+length+payload+checksum block to
// buf and returns the extended slice.
func writeBlock(buf []byte, blockType byte, payload []byte) []byte {
	length := byte(len(payload))
	for i := 0; i < leaderLength; i++ {
		buf = append(buf, 0x55)
	}
	buf = append(buf, 0x3C, blockType, length)
	buf = append(buf, payload...)
	buf = append(buf, checksum(blockType, length, payload))
	return buf
}

// namefilePayload builds the 15-byte Namefile payload: 8-byte space-padded
// name, file type, ASCII flag, gap flag, exec address, load address. See
// DESIGN.md for why this is 15 bytes rather than 16.
func namefilePayload(f CassetteFile) []byte {
	name := make([]byte, 8)
	for i := range name {
		name[i] = ' '
	}
	upper := []byte(f.Name)
	for i := 0; i < len(upper) && i < 8; i++ {
		c := upper[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		name[i] = c
	}

	payload := make([]byte, 0, 15)
	payload = append(payload, name...)
	payload = append(payload, f.FileType, f.ASCIIFlag, f.GapFlag)
	payload = append(payload, byte(f.ExecAddr>>8), byte(f.ExecAddr))
	payload = append(payload, byte(f.LoadAddr>>8), byte(f.LoadAddr))
	return payload
}

// EncodeCassetteFile renders one CassetteFile as a Namefile block, one or
// more Data blocks (chunked to maxDataPayload bytes each), and an EOF
// block.
func EncodeCassetteFile(f CassetteFile) []byte {
	var buf []byte
	buf = writeBlock(buf, BlockNamefile, namefilePayload(f))

	data := f.Data
	if len(data) == 0 {
		buf = writeBlock(buf, BlockData, nil)
	}
	for len(data) > 0 {
		n := len(data)
		if n > maxDataPayload {
			n = maxDataPayload
		}
		buf = writeBlock(buf, BlockData, data[:n])
		data = data[n:]
	}

	buf = writeBlock(buf, BlockEOF, nil)
	return buf
}

// cassetteBlock is one parsed block, stripped of its leader.
type cassetteBlock struct {
	blockType byte
	payload   []byte
}

// parseBlocks scans buf for a sequence of leader-prefixed blocks, validating
// each checksum. It is tolerant of leader runs of any length (including
// zero, since two adjacent blocks with no intervening leader still parse
// correctly as long as the sync byte is present).
func parseBlocks(buf []byte) ([]cassetteBlock, error) {
	var blocks []cassetteBlock
	i := 0
	for i < len(buf) {
		for i < len(buf) && buf[i] == 0x55 {
			i++
		}
		if i >= len(buf) {
			break
		}
		if buf[i] != 0x3C {
			return nil, fmt.Errorf("container: expected cassette sync byte at offset %d, found %#x", i, buf[i])
		}
		i++
		if i+2 > len(buf) {
			return nil, fmt.Errorf("container: truncated cassette block header at offset %d", i)
		}
		blockType := buf[i]
		length := buf[i+1]
		i += 2
		if i+int(length)+1 > len(buf) {
			return nil, fmt.Errorf("container: truncated cassette block payload at offset %d", i)
		}
		payload := buf[i : i+int(length)]
		i += int(length)
		want := checksum(blockType, length, payload)
		got := buf[i]
		i++
		if got != want {
			return nil, fmt.Errorf("container: cassette checksum mismatch: block type %#x wants %#x, has %#x", blockType, want, got)
		}
		blocks = append(blocks, cassetteBlock{blockType: blockType, payload: append([]byte{}, payload...)})
	}
	return blocks, nil
}

// ParseCassette decodes every Namefile+Data+EOF triple in buf, in order,
// reconstructing each file's metadata and concatenated data payload.
func ParseCassette(buf []byte) ([]CassetteFile, error) {
	blocks, err := parseBlocks(buf)
	if err != nil {
		return nil, err
	}

	var files []CassetteFile
	i := 0
	for i < len(blocks) {
		if blocks[i].blockType != BlockNamefile {
			return nil, fmt.Errorf("container: expected Namefile block at position %d, found type %#x", i, blocks[i].blockType)
		}
		nf := blocks[i].payload
		if len(nf) != 15 {
			return nil, fmt.Errorf("container: Namefile payload is %d bytes, want 15", len(nf))
		}
		file := CassetteFile{
			Name:      trimTrailingSpaces(string(nf[0:8])),
			FileType:  nf[8],
			ASCIIFlag: nf[9],
			GapFlag:   nf[10],
			ExecAddr:  uint16(nf[11])<<8 | uint16(nf[12]),
			LoadAddr:  uint16(nf[13])<<8 | uint16(nf[14]),
		}
		i++

		for i < len(blocks) && blocks[i].blockType == BlockData {
			file.Data = append(file.Data, blocks[i].payload...)
			i++
		}

		if i >= len(blocks) || blocks[i].blockType != BlockEOF {
			return nil, fmt.Errorf("container: file %q is missing its EOF block", file.Name)
		}
		i++

		files = append(files, file)
	}
	return files, nil
}

func trimTrailingSpaces(s string) string {
	end := len(s)
	for end > 0 && s[end-1] == ' ' {
		end--
	}
	return s[:end]
}

// WriteCassetteFile writes f to path. A fresh write refuses an existing
// target unless append is true, in which case the new triple is
// concatenated after the existing bytes. Either way the result is
// assembled in memory and written via a temporary file renamed into
// place, so a failure never leaves a partially-written target.
func WriteCassetteFile(path string, f CassetteFile, appendMode bool) error {
	var out []byte

	if appendMode {
		existing, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("container: reading existing cassette %q: %w", path, err)
		}
		if err == nil {
			if _, perr := ParseCassette(existing); perr != nil {
				return fmt.Errorf("container: existing cassette %q is not a valid container: %w", path, perr)
			}
			out = append(out, existing...)
		}
	} else if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("container: %q already exists; pass --append to add to it", path)
	}

	out = append(out, EncodeCassetteFile(f)...)
	return writeFileAtomically(path, out)
}

// writeFileAtomically writes data to a temporary file in the same
// directory as path and renames it into place, so a crash mid-write never
// corrupts an existing container.
func writeFileAtomically(path string, data []byte) error {
	tmp, err := os.CreateTemp(dirOf(path), ".container-*.tmp")
	if err != nil {
		return fmt.Errorf("container: creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("container: writing temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("container: closing temporary file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("container: renaming temporary file into place: %w", err)
	}
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
