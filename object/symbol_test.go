package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymbolTable(t *testing.T) {
	assert := assert.New(t)

	st := NewSymbolTable()
	assert.Equal(0, st.Len())

	st.Define("main", Symbol{Section: "text", Value: 8, Kind: KindGlobal})
	st.Define("later", Symbol{Section: SectionPending, Value: ValueUndefined, Kind: KindLocal})
	st.Define("printf", Symbol{Section: SectionExternal, Value: ValueUndefined, Kind: KindExtern})

	// Redefinition keeps the original position.
	sym := st.Define("main", Symbol{Section: "text", Value: 12, Kind: KindGlobal})
	assert.Equal(uint32(12), sym.Value)
	assert.Equal(3, st.Len())

	var names []string
	for name := range st.All() {
		names = append(names, name)
	}
	assert.Equal([]string{"main", "later", "printf"}, names)

	sym, ok := st.Lookup("later")
	assert.True(ok)
	assert.False(sym.Defined())
	sym.Section = "text"
	sym.Value = 4
	got, _ := st.Lookup("later")
	assert.True(got.Defined())

	_, ok = st.Lookup("missing")
	assert.False(ok)

	names = names[:0]
	for name := range st.Globals() {
		names = append(names, name)
	}
	assert.Equal([]string{"main"}, names)
}

func TestSymbolTableValidate(t *testing.T) {
	assert := assert.New(t)

	st := NewSymbolTable()
	st.Define("a", Symbol{Section: SectionPending, Value: ValueUndefined, Kind: KindLocal})
	st.Define("ok", Symbol{Section: "text", Value: 0, Kind: KindLocal})
	st.Define("b", Symbol{Section: SectionPending, Value: ValueUndefined, Kind: KindGlobal})
	st.Define("ext", Symbol{Section: SectionExternal, Value: ValueUndefined, Kind: KindExtern})

	err := st.Validate()
	var undefined ErrUndefined
	assert.ErrorAs(err, &undefined)
	assert.Equal([]string{"a", "b"}, undefined.Names)
	assert.Contains(err.Error(), "a, b")

	for _, name := range undefined.Names {
		sym, _ := st.Lookup(name)
		sym.Section = "text"
	}
	assert.NoError(st.Validate())
}

func TestSymbolTableRelocate(t *testing.T) {
	assert := assert.New(t)

	st := NewSymbolTable()
	st.Define("text", Symbol{Section: "text", Value: 0, Kind: KindLocal})
	st.Define("loop", Symbol{Section: "text", Value: 0x10, Kind: KindGlobal})
	st.Define("buf", Symbol{Section: "data", Value: 4, Kind: KindLocal})

	st.Relocate("text", 0x4000_0000)

	var values []uint32
	for _, sym := range st.All() {
		values = append(values, sym.Value)
	}
	assert.Equal([]uint32{0x4000_0000, 0x4000_0010, 4}, values)
	assert.False(SymbolKind('x').Valid())
	assert.Equal("extern", KindExtern.String())
}

func TestSymbolTableClone(t *testing.T) {
	assert := assert.New(t)

	st := NewSymbolTable()
	st.Define("a", Symbol{Section: "text", Value: 4, Kind: KindLocal})

	dup := st.Clone()
	assert.Equal(st, dup)

	dup.Relocate("text", 0x100)
	sym, _ := st.Lookup("a")
	assert.Equal(uint32(4), sym.Value)
	sym, _ = dup.Lookup("a")
	assert.Equal(uint32(0x104), sym.Value)
}
