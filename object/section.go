package object

import (
	"encoding/binary"
	"iter"
	"maps"
	"slices"
)

const (
	WORD_SIZE = 4 // Bytes per instruction and pool entry.
)

// poolEntry is a single literal or symbol slot in a section pool.
type poolEntry struct {
	Symbol  string // Symbol name, if IsSymbol.
	Literal int32  // Literal value, if not IsSymbol.
	Offset  uint32 // Byte offset in the section, assigned by Finalize.

	IsSymbol bool
}

// Section is a named, relocatable block of code and data.
//
// The pool keeps literals and symbols in the order of first use; Finalize
// lays them out right after the code.
type Section struct {
	Name    string // Section name.
	Base    uint32 // Base address, assigned by the linker.
	Content []byte // Code followed by pool slots.
	Length  uint32 // Length of the code, excluding the pool.
	File    int    // Originating file index, linker copies only.

	pool      []poolEntry
	literal   map[int32]int
	symbol    map[string]int
	finalized bool
}

// NewSection creates a new empty section.
func NewSection(name string) *Section {
	return &Section{
		Name:    name,
		literal: map[int32]int{},
		symbol:  map[string]int{},
	}
}

// Size is the total size in bytes, pool included.
func (sec *Section) Size() uint32 {
	return uint32(len(sec.Content))
}

// End is the first address past the section.
func (sec *Section) End() uint64 {
	return uint64(sec.Base) + uint64(sec.Size())
}

// AddLiteral adds a literal to the pool, if not already present.
func (sec *Section) AddLiteral(value int32) {
	if _, ok := sec.literal[value]; ok {
		return
	}
	sec.literal[value] = len(sec.pool)
	sec.pool = append(sec.pool, poolEntry{Literal: value})
	sec.finalized = false
}

// AddSymbol adds a symbol to the pool, if not already present.
func (sec *Section) AddSymbol(name string) {
	if _, ok := sec.symbol[name]; ok {
		return
	}
	sec.symbol[name] = len(sec.pool)
	sec.pool = append(sec.pool, poolEntry{Symbol: name, IsSymbol: true})
	sec.finalized = false
}

// LiteralOffset returns the pool offset of a literal.
func (sec *Section) LiteralOffset(value int32) (offset uint32, ok bool) {
	index, ok := sec.literal[value]
	if !ok || !sec.finalized {
		ok = false
		return
	}
	offset = sec.pool[index].Offset
	return
}

// SymbolOffset returns the pool offset of a symbol.
func (sec *Section) SymbolOffset(name string) (offset uint32, ok bool) {
	index, ok := sec.symbol[name]
	if !ok || !sec.finalized {
		ok = false
		return
	}
	offset = sec.pool[index].Offset
	return
}

// PoolSize is the number of pool entries.
func (sec *Section) PoolSize() int {
	return len(sec.pool)
}

// Literals iterates over the pooled literals and their offsets, in pool order.
func (sec *Section) Literals() iter.Seq2[int32, uint32] {
	return func(yield func(int32, uint32) bool) {
		for _, entry := range sec.pool {
			if entry.IsSymbol {
				continue
			}
			if !yield(entry.Literal, entry.Offset) {
				return
			}
		}
	}
}

// Symbols iterates over the pooled symbols and their offsets, in pool order.
func (sec *Section) Symbols() iter.Seq2[string, uint32] {
	return func(yield func(string, uint32) bool) {
		for _, entry := range sec.pool {
			if !entry.IsSymbol {
				continue
			}
			if !yield(entry.Symbol, entry.Offset) {
				return
			}
		}
	}
}

// Finalize assigns pool offsets after the code, sizes the content, and
// fills in the literal slots.
func (sec *Section) Finalize() {
	offset := sec.Length
	for n := range sec.pool {
		sec.pool[n].Offset = offset
		offset += WORD_SIZE
	}

	sec.Content = make([]byte, offset)
	for _, entry := range sec.pool {
		if !entry.IsSymbol {
			binary.LittleEndian.PutUint32(sec.Content[entry.Offset:], uint32(entry.Literal))
		}
	}

	sec.finalized = true
}

// PutWord stores a little-endian word at offset.
func (sec *Section) PutWord(offset uint32, value uint32) (err error) {
	if uint64(offset)+WORD_SIZE > uint64(len(sec.Content)) {
		err = ErrOffsetRange
		return
	}
	binary.LittleEndian.PutUint32(sec.Content[offset:], value)
	return
}

// Word loads the little-endian word at offset.
func (sec *Section) Word(offset uint32) (value uint32, err error) {
	if uint64(offset)+WORD_SIZE > uint64(len(sec.Content)) {
		err = ErrOffsetRange
		return
	}
	value = binary.LittleEndian.Uint32(sec.Content[offset:])
	return
}

// Clone makes a deep copy of the section.
func (sec *Section) Clone() *Section {
	dup := *sec
	dup.Content = slices.Clone(sec.Content)
	dup.pool = slices.Clone(sec.pool)
	dup.literal = maps.Clone(sec.literal)
	dup.symbol = maps.Clone(sec.symbol)
	return &dup
}

// SectionTable is an ordered set of sections, keyed by name.
type SectionTable struct {
	order   []*Section
	section map[string]*Section
}

// NewSectionTable creates an empty section table.
func NewSectionTable() *SectionTable {
	return &SectionTable{
		section: map[string]*Section{},
	}
}

// Len returns the number of sections.
func (st *SectionTable) Len() int {
	return len(st.order)
}

// Add appends a section. Section names must be unique.
func (st *SectionTable) Add(sec *Section) (err error) {
	if _, ok := st.section[sec.Name]; ok {
		err = ErrSectionExists
		return
	}
	st.order = append(st.order, sec)
	st.section[sec.Name] = sec
	return
}

// Lookup finds a section by name.
func (st *SectionTable) Lookup(name string) (sec *Section, ok bool) {
	sec, ok = st.section[name]
	return
}

// All iterates over the sections in definition order.
func (st *SectionTable) All() iter.Seq[*Section] {
	return slices.Values(st.order)
}
