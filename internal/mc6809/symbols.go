package mc6809

import (
	"sort"
	"strings"
)

// SymbolTable is the flat, case-folded symbol table: no scopes, unique by
// uppercased name, immutable once defined.
type SymbolTable struct {
	entries map[string]*Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*Symbol)}
}

// Define binds name to value. It is an error to redefine an existing name,
// including one that differs only in case, since lookup is case-folded.
func (t *SymbolTable) Define(line int, name string, value uint16, kind SymbolKind, pass int) error {
	key := strings.ToUpper(name)
	if existing, ok := t.entries[key]; ok {
		return NewError(DuplicateSymbol, line, "symbol %q already defined (previous value $%04X)", name, existing.Value)
	}
	t.entries[key] = &Symbol{Name: name, Value: value, Kind: kind, DefinedInPass: pass}
	return nil
}

// Resolve looks up name, returning its value as a SymbolResolver would.
func (t *SymbolTable) Resolve(name string) (int64, bool) {
	sym, ok := t.entries[strings.ToUpper(name)]
	if !ok {
		return 0, false
	}
	return int64(sym.Value), true
}

// Lookup returns the full Symbol record for name, if defined.
func (t *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := t.entries[strings.ToUpper(name)]
	return sym, ok
}

// Names returns every defined symbol name, sorted uppercased-alphabetically,
// for deterministic `--symbols` listing output.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for _, sym := range t.entries {
		names = append(names, sym.Name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToUpper(names[i]) < strings.ToUpper(names[j])
	})
	return names
}

// All returns every defined symbol, in the same order as Names.
func (t *SymbolTable) All() []*Symbol {
	names := t.Names()
	out := make([]*Symbol, 0, len(names))
	for _, name := range names {
		sym := t.entries[strings.ToUpper(name)]
		out = append(out, sym)
	}
	return out
}
