package object

import (
	"iter"
	"slices"
)

// Relocation requests that the address of Symbol be written at Offset.
type Relocation struct {
	Symbol string
	Offset uint32
}

// RelocationTable is the ordered list of relocations of one section.
type RelocationTable []Relocation

// Add appends a relocation, ignoring exact duplicates.
func (rt *RelocationTable) Add(symbol string, offset uint32) {
	reloc := Relocation{Symbol: symbol, Offset: offset}
	if slices.Contains(*rt, reloc) {
		return
	}
	*rt = append(*rt, reloc)
}

// RelocationTables maps section names to their relocation tables, in
// definition order.
type RelocationTables struct {
	order []string
	table map[string]*RelocationTable
}

// NewRelocationTables creates an empty set of relocation tables.
func NewRelocationTables() *RelocationTables {
	return &RelocationTables{
		table: map[string]*RelocationTable{},
	}
}

// Len returns the number of tables.
func (rts *RelocationTables) Len() int {
	return len(rts.order)
}

// Table returns the table for section, creating it if needed.
func (rts *RelocationTables) Table(section string) *RelocationTable {
	rt, ok := rts.table[section]
	if !ok {
		rt = &RelocationTable{}
		rts.order = append(rts.order, section)
		rts.table[section] = rt
	}
	return rt
}

// Lookup finds the relocation table of a section.
func (rts *RelocationTables) Lookup(section string) (rt *RelocationTable, ok bool) {
	rt, ok = rts.table[section]
	return
}

// All iterates over the tables in definition order.
func (rts *RelocationTables) All() iter.Seq2[string, *RelocationTable] {
	return func(yield func(string, *RelocationTable) bool) {
		for _, name := range rts.order {
			if !yield(name, rts.table[name]) {
				return
			}
		}
	}
}
