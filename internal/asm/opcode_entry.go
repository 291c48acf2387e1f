package asm

// OpcodeEntry is a single opcode table row: a mnemonic and the addressing
// families it supports. Unlike a multi-register-width CISC table (where one
// operand type can match several competing forms), a mnemonic on the 6809
// accepts at most one form per family, so lookup is a direct map rather than
// a cached slice search.
type OpcodeEntry struct {
	Mnemonic string
	forms    map[string]OpcodeForm
}

// NewOpcodeEntry builds an entry from its forms. Two forms sharing a family
// identifier is a construction bug and panics immediately rather than
// silently keeping the first or last one.
func NewOpcodeEntry(mnemonic string, forms ...OpcodeForm) OpcodeEntry {
	byFamily := make(map[string]OpcodeForm, len(forms))
	for _, form := range forms {
		if _, exists := byFamily[form.Family.Identifier]; exists {
			panic("asm: duplicate addressing family " + form.Family.Identifier + " for mnemonic " + mnemonic)
		}
		byFamily[form.Family.Identifier] = form
	}
	return OpcodeEntry{Mnemonic: mnemonic, forms: byFamily}
}

// Form returns the form registered for the given family, and whether one
// exists. A missing form means the family is not legal for this mnemonic.
func (e OpcodeEntry) Form(family string) (OpcodeForm, bool) {
	form, ok := e.forms[family]
	return form, ok
}

// Families returns the addressing families this mnemonic supports, in no
// particular order — used only for diagnostics ("legal modes are: ...").
func (e OpcodeEntry) Families() []string {
	families := make([]string, 0, len(e.forms))
	for family := range e.forms {
		families = append(families, family)
	}
	return families
}
