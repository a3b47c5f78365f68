package object

import (
	"iter"
)

// SymbolKind is the visibility of a symbol.
type SymbolKind byte

const (
	KindLocal  = SymbolKind('l') // Visible only in the defining file.
	KindGlobal = SymbolKind('g') // Exported to other files.
	KindExtern = SymbolKind('e') // Defined by some other file.
)

func (kind SymbolKind) String() string {
	switch kind {
	case KindLocal:
		return "local"
	case KindGlobal:
		return "global"
	case KindExtern:
		return "extern"
	}
	return f("kind(%#02x)", byte(kind))
}

// Valid returns true for the three known kinds.
func (kind SymbolKind) Valid() bool {
	return kind == KindLocal || kind == KindGlobal || kind == KindExtern
}

const (
	SectionPending   = "TBD" // Referenced, but not yet defined.
	SectionExternal  = "EXT" // Declared with .extern.
	SectionUndefined = "UND" // Implicit section before the first .section.

	ValueUndefined = uint32(0xffff_ffff)
)

// Symbol is a single symbol table entry.
type Symbol struct {
	Section string     // Owning section name, or a Section* sentinel.
	Value   uint32     // Offset in the owning section, or an address once linked.
	Kind    SymbolKind // Visibility.
}

// Defined returns true if the symbol has a real owning section.
func (sym *Symbol) Defined() bool {
	return sym.Section != SectionPending && sym.Section != SectionExternal
}

// SymbolTable is a map of symbols that remembers definition order.
type SymbolTable struct {
	order  []string
	symbol map[string]*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		symbol: map[string]*Symbol{},
	}
}

// Len returns the number of symbols.
func (st *SymbolTable) Len() int {
	return len(st.order)
}

// Define adds a new symbol, or replaces an existing one in place.
// The returned symbol may be modified by the caller.
func (st *SymbolTable) Define(name string, sym Symbol) *Symbol {
	entry, ok := st.symbol[name]
	if ok {
		*entry = sym
		return entry
	}

	entry = &sym
	st.order = append(st.order, name)
	st.symbol[name] = entry

	return entry
}

// Lookup finds a symbol by name.
func (st *SymbolTable) Lookup(name string) (sym *Symbol, ok bool) {
	sym, ok = st.symbol[name]
	return
}

// All iterates over all symbols in definition order.
func (st *SymbolTable) All() iter.Seq2[string, *Symbol] {
	return func(yield func(string, *Symbol) bool) {
		for _, name := range st.order {
			if !yield(name, st.symbol[name]) {
				return
			}
		}
	}
}

// Globals iterates over the global symbols in definition order.
func (st *SymbolTable) Globals() iter.Seq2[string, *Symbol] {
	return func(yield func(string, *Symbol) bool) {
		for name, sym := range st.All() {
			if sym.Kind != KindGlobal {
				continue
			}
			if !yield(name, sym) {
				return
			}
		}
	}
}

// Validate checks that every non-extern symbol has an owning section.
// All offenders are reported in a single ErrUndefined.
func (st *SymbolTable) Validate() (err error) {
	var names []string
	for name, sym := range st.All() {
		if sym.Kind == KindExtern {
			continue
		}
		if sym.Section == SectionPending {
			names = append(names, name)
		}
	}

	if len(names) > 0 {
		err = ErrUndefined{Names: names}
	}

	return
}

// Relocate adds base to the value of every symbol owned by section.
func (st *SymbolTable) Relocate(section string, base uint32) {
	for _, sym := range st.All() {
		if sym.Section == section {
			sym.Value += base
		}
	}
}

// Clone makes a deep copy of the symbol table.
func (st *SymbolTable) Clone() *SymbolTable {
	dup := NewSymbolTable()
	for name, sym := range st.All() {
		dup.Define(name, *sym)
	}
	return dup
}
