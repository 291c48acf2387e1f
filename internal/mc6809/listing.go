package mc6809

import (
	"fmt"
	"strings"
)

// ListingRecord is the per-statement record consumed by `--print`.
type ListingRecord struct {
	AddressHex string
	BytesHex   string // at most 10 characters: 5 bytes rendered as hex pairs
	Label      string
	Mnemonic   string
	OperandText string
	Comment     string
}

// BuildListing renders one ListingRecord per statement, in source order.
func BuildListing(statements []*Statement) []ListingRecord {
	records := make([]ListingRecord, 0, len(statements))
	for _, stmt := range statements {
		records = append(records, ListingRecord{
			AddressHex:  fmt.Sprintf("%04X", stmt.Address),
			BytesHex:    bytesHex(stmt.EmittedBytes),
			Label:       stmt.Label,
			Mnemonic:    stmt.Mnemonic,
			OperandText: stmt.OperandText,
			Comment:     stmt.Comment,
		})
	}
	return records
}

// bytesHex renders up to 5 bytes as upper-case hex pairs (≤10 characters);
// a statement emitting more (FCB/FDB/FCC lists, RMB runs) is truncated in
// the listing the way EDTASM+'s printed columns are — the image itself is
// unaffected, only the display.
func bytesHex(b []byte) string {
	if len(b) > 5 {
		b = b[:5]
	}
	var sb strings.Builder
	for _, by := range b {
		fmt.Fprintf(&sb, "%02X", by)
	}
	return sb.String()
}

// String renders a record the way a printed listing line looks:
// "AAAA  BBBBBBBBBB  LABEL     MNEMONIC OPERAND        ; comment".
func (r ListingRecord) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s  %-10s  %-8s  %-8s %-14s", r.AddressHex, r.BytesHex, r.Label, r.Mnemonic, r.OperandText)
	if r.Comment != "" {
		fmt.Fprintf(&sb, " ; %s", r.Comment)
	}
	return strings.TrimRight(sb.String(), " ")
}
