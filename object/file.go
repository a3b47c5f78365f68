package object

import (
	"cmp"
	"errors"
	"io"
	"slices"
)

// File is a relocatable object file.
type File struct {
	Symbols     *SymbolTable
	Sections    *SectionTable
	Relocations *RelocationTables
}

// NewFile creates an empty object file.
func NewFile() *File {
	return &File{
		Symbols:     NewSymbolTable(),
		Sections:    NewSectionTable(),
		Relocations: NewRelocationTables(),
	}
}

// WriteTo writes the canonical encoding of the object file.
func (file *File) WriteTo(w io.Writer) (n int64, err error) {
	enc := &encoder{w: w}

	enc.uint32(uint32(file.Symbols.Len()))
	for name, sym := range file.Symbols.All() {
		enc.string(name)
		enc.string(sym.Section)
		enc.uint32(sym.Value)
		enc.write([]byte{byte(sym.Kind)})
	}

	enc.uint32(uint32(file.Sections.Len()))
	for sec := range file.Sections.All() {
		enc.string(sec.Name)
		sec.encode(enc)
	}

	enc.uint32(uint32(file.Relocations.Len()))
	for name, rt := range file.Relocations.All() {
		enc.string(name)
		enc.uint32(uint32(len(*rt)))
		for _, reloc := range *rt {
			enc.string(reloc.Symbol)
			enc.uint32(reloc.Offset)
		}
	}

	n, err = enc.n, enc.err
	return
}

// encode writes a section record.
func (sec *Section) encode(enc *encoder) {
	enc.string(sec.Name)
	enc.uint32(sec.Base)
	enc.bytes(sec.Content)
	enc.uint32(sec.Length)

	var literals, symbols int
	for _, entry := range sec.pool {
		if entry.IsSymbol {
			symbols++
		} else {
			literals++
		}
	}

	enc.uint32(uint32(literals))
	for value, offset := range sec.Literals() {
		enc.uint32(uint32(value))
		enc.uint32(offset)
	}

	enc.uint32(uint32(symbols))
	for name, offset := range sec.Symbols() {
		enc.string(name)
		enc.uint32(offset)
	}
}

// decodeSection reads a section record.
func decodeSection(dec *decoder) (sec *Section, err error) {
	sec = NewSection(dec.string())
	sec.Base = dec.uint32()
	sec.Content = dec.bytes()
	sec.Length = dec.uint32()

	var pool []poolEntry

	literals := dec.uint32()
	for range literals {
		if dec.err != nil {
			break
		}
		value := int32(dec.uint32())
		offset := dec.uint32()
		pool = append(pool, poolEntry{Literal: value, Offset: offset})
	}

	symbols := dec.uint32()
	for range symbols {
		if dec.err != nil {
			break
		}
		name := dec.string()
		offset := dec.uint32()
		pool = append(pool, poolEntry{Symbol: name, Offset: offset, IsSymbol: true})
	}

	if dec.err != nil {
		err = dec.err
		return
	}

	if sec.Length > sec.Size() {
		err = ErrOffsetRange
		return
	}

	// Pool offsets follow first use, so offset order restores the pool order.
	slices.SortStableFunc(pool, func(a, b poolEntry) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	for _, entry := range pool {
		if uint64(entry.Offset)+WORD_SIZE > uint64(sec.Size()) {
			err = ErrOffsetRange
			return
		}
		index := len(sec.pool)
		if entry.IsSymbol {
			if _, ok := sec.symbol[entry.Symbol]; ok {
				err = ErrPoolDuplicate
				return
			}
			sec.symbol[entry.Symbol] = index
		} else {
			if _, ok := sec.literal[entry.Literal]; ok {
				err = ErrPoolDuplicate
				return
			}
			sec.literal[entry.Literal] = index
		}
		sec.pool = append(sec.pool, entry)
	}
	sec.finalized = true

	return
}

// ReadFile decodes an object file.
func ReadFile(r io.Reader) (file *File, err error) {
	defer func() {
		if err != nil {
			file = nil
			err = errors.Join(ErrDecode, err)
		}
	}()

	dec := &decoder{r: r}
	file = NewFile()

	count := dec.uint32()
	for range count {
		name := dec.string()
		section := dec.string()
		value := dec.uint32()
		kind := SymbolKind(dec.byte())
		if dec.err != nil {
			err = dec.err
			return
		}
		if !kind.Valid() {
			err = ErrSymbolKind
			return
		}
		if _, ok := file.Symbols.Lookup(name); ok {
			err = ErrSymbolDuplicate(name)
			return
		}
		file.Symbols.Define(name, Symbol{Section: section, Value: value, Kind: kind})
	}

	count = dec.uint32()
	for range count {
		key := dec.string()
		var sec *Section
		sec, err = decodeSection(dec)
		if err != nil {
			return
		}
		if sec.Name != key {
			err = ErrSectionKey(key)
			return
		}
		err = file.Sections.Add(sec)
		if err != nil {
			return
		}
	}

	count = dec.uint32()
	for range count {
		name := dec.string()
		if _, ok := file.Relocations.Lookup(name); ok {
			err = ErrSectionExists
			return
		}
		rt := file.Relocations.Table(name)
		entries := dec.uint32()
		for range entries {
			symbol := dec.string()
			offset := dec.uint32()
			if dec.err != nil {
				break
			}
			*rt = append(*rt, Relocation{Symbol: symbol, Offset: offset})
		}
		if dec.err != nil {
			break
		}
	}

	err = dec.err
	return
}
