package link

import (
	"errors"
	"iter"
	"log"
	"slices"

	"github.com/ezrec/ss32/internal"
	"github.com/ezrec/ss32/object"
)

// Result of a successful link.
type Result struct {
	Symbols  *object.SymbolTable // Section names and exported symbols, with absolute values.
	Sections []*object.Section   // Patched sections, in address order.
	Image    *object.Image       // Coalesced memory image.
}

// Link resolves the symbols of every added file, patches the relocation
// slots and builds the memory image. Files cannot be added afterwards.
func (lnk *Linker) Link() (result *Result, err error) {
	if lnk.linked {
		err = ErrLinked
		return
	}
	lnk.linked = true

	symbols := object.NewSymbolTable()

	// Section names resolve to their lowest base.
	for _, sec := range lnk.placed {
		if _, ok := symbols.Lookup(sec.Name); !ok {
			symbols.Define(sec.Name, object.Symbol{
				Section: sec.Name,
				Value:   sec.Base,
				Kind:    object.KindLocal,
			})
		}
		lnk.files[sec.File].Symbols.Relocate(sec.Name, sec.Base)
	}

	err = lnk.export(symbols)
	if err != nil {
		return
	}

	for _, file := range lnk.files {
		for name, sym := range file.Symbols.All() {
			if sym.Kind != object.KindExtern {
				continue
			}
			if _, ok := symbols.Lookup(name); !ok {
				err = ErrExternUndefined(name)
				return
			}
		}
	}

	for _, sec := range lnk.placed {
		err = lnk.patch(sec, symbols)
		if err != nil {
			return
		}
	}

	image, err := coalesce(lnk.placed)
	if err != nil {
		return
	}

	result = &Result{
		Symbols:  symbols,
		Sections: slices.Clone(lnk.placed),
		Image:    image,
	}

	return
}

// export adds the global symbols of every file, in file order.
func (lnk *Linker) export(symbols *object.SymbolTable) (err error) {
	globals := make([]iter.Seq2[string, *object.Symbol], 0, len(lnk.files))
	for _, file := range lnk.files {
		globals = append(globals, file.Symbols.Globals())
	}

	for name, sym := range internal.IterSeq2Concat(globals...) {
		if _, ok := symbols.Lookup(name); ok {
			err = ErrGlobalDuplicate(name)
			return
		}
		if lnk.Verbose {
			log.Printf("link: export %v = 0x%08x", name, sym.Value)
		}
		symbols.Define(name, *sym)
	}

	return
}

// patch writes the final value of each relocated symbol into its slot.
func (lnk *Linker) patch(sec *object.Section, symbols *object.SymbolTable) (err error) {
	file := lnk.files[sec.File]

	rt, ok := file.Relocations.Lookup(sec.Name)
	if !ok {
		return
	}

	for _, reloc := range *rt {
		sym, ok := file.Symbols.Lookup(reloc.Symbol)
		if !ok || sym.Kind == object.KindExtern {
			sym, ok = symbols.Lookup(reloc.Symbol)
		}
		if !ok {
			err = ErrExternUndefined(reloc.Symbol)
			return
		}

		err = sec.PutWord(reloc.Offset, sym.Value)
		if err != nil {
			err = errors.Join(ErrRelocation{Section: sec.Name, Symbol: reloc.Symbol, Offset: reloc.Offset}, err)
			return
		}
	}

	return
}

// coalesce merges address-adjacent sections into blocks.
func coalesce(sections []*object.Section) (image *object.Image, err error) {
	if len(sections) == 0 {
		err = ErrNoSections
		return
	}

	image = &object.Image{}
	for _, sec := range sections {
		count := len(image.Blocks)
		if count > 0 && image.Blocks[count-1].End() == uint64(sec.Base) {
			last := &image.Blocks[count-1]
			last.Content = append(last.Content, sec.Content...)
			continue
		}
		image.Blocks = append(image.Blocks, object.Block{
			Address: sec.Base,
			Content: slices.Clone(sec.Content),
		})
	}

	return
}
