package link

import (
	"log"
	"maps"
	"slices"

	"github.com/ezrec/ss32/object"
)

const ADDRESS_SPACE = uint64(1) << 32

// Linker state.
type Linker struct {
	Verbose bool              // If set, enables verbose logging.
	Pins    map[string]uint32 // Requested section base addresses.

	files  []*object.File
	placed []*object.Section // Non-empty sections, ordered by base.
	hwm    uint64            // First free address above the placed sections.
	total  uint64            // Combined size of the placed sections.
	linked bool
}

// NewLinker creates a linker with no pins and no files.
func NewLinker() *Linker {
	return &Linker{
		Pins: map[string]uint32{},
	}
}

// Files returns the number of files added so far.
func (lnk *Linker) Files() int {
	return len(lnk.files)
}

func (lnk *Linker) maxPin() (highest uint32) {
	for _, addr := range lnk.Pins {
		highest = max(highest, addr)
	}
	return
}

func (lnk *Linker) pinned(name string) (address uint32, ok bool) {
	address, ok = lnk.Pins[name]
	return
}

// Add places every non-empty section of file. The file itself is not
// modified; the linker works on copies.
func (lnk *Linker) Add(file *object.File) (err error) {
	if lnk.linked {
		err = ErrLinked
		return
	}

	if len(lnk.files) == 0 {
		lnk.hwm = uint64(lnk.maxPin())
	}

	id := len(lnk.files)
	copied := &object.File{
		Symbols:     file.Symbols.Clone(),
		Sections:    object.NewSectionTable(),
		Relocations: file.Relocations,
	}

	for sec := range file.Sections.All() {
		dup := sec.Clone()
		dup.File = id
		err = copied.Sections.Add(dup)
		if err != nil {
			return
		}
	}

	lnk.files = append(lnk.files, copied)

	for sec := range copied.Sections.All() {
		err = lnk.place(sec)
		if err != nil {
			return
		}
	}

	return
}

// Sections returns the placed sections in address order.
func (lnk *Linker) Sections() []*object.Section {
	return slices.Clone(lnk.placed)
}

// lastNamed returns the index of the highest placed section called name.
func (lnk *Linker) lastNamed(name string) int {
	for n := len(lnk.placed) - 1; n >= 0; n-- {
		if lnk.placed[n].Name == name {
			return n
		}
	}
	return -1
}

// shift moves every placed section at or above address up by amount.
func (lnk *Linker) shift(address uint64, amount uint64) (err error) {
	if lnk.hwm+amount > ADDRESS_SPACE {
		err = ErrAddressSpace
		return
	}

	if lnk.Verbose {
		log.Printf("link: shift sections at 0x%x by 0x%x", address, amount)
	}

	for _, sec := range lnk.placed {
		if uint64(sec.Base) >= address {
			sec.Base += uint32(amount)
		}
	}

	lnk.hwm += amount

	return
}

func (lnk *Linker) insert(sec *object.Section, address uint64) {
	sec.Base = uint32(address)

	at := len(lnk.placed)
	for n, other := range lnk.placed {
		if other.Base > sec.Base {
			at = n
			break
		}
	}
	lnk.placed = slices.Insert(lnk.placed, at, sec)

	lnk.hwm = max(lnk.hwm, sec.End())

	if lnk.Verbose {
		log.Printf("link: place %v (file %d) at 0x%08x size 0x%x", sec.Name, sec.File, sec.Base, sec.Size())
	}
}

func (lnk *Linker) place(sec *object.Section) (err error) {
	size := uint64(sec.Size())
	if size == 0 {
		return
	}

	lnk.total += size
	if lnk.total > ADDRESS_SPACE {
		err = ErrAddressSpace
		return
	}

	pin, isPinned := lnk.pinned(sec.Name)
	if !isPinned {
		var address uint64
		n := lnk.lastNamed(sec.Name)
		if n < 0 {
			address = lnk.hwm
		} else {
			address = lnk.placed[n].End()
			if n != len(lnk.placed)-1 {
				err = lnk.shift(address, size)
				if err != nil {
					return
				}
			}
		}
		if address+size > ADDRESS_SPACE {
			err = ErrAddressSpace
			return
		}
		lnk.insert(sec, address)
		return
	}

	// Find the section just below the requested address, or the
	// last piece of a same named section.
	address := uint64(pin)
	below := -1
	for n := len(lnk.placed) - 1; n >= 0; n-- {
		other := lnk.placed[n]
		if other.Name == sec.Name {
			address = other.End()
			below = n
			break
		}
		if uint64(other.Base) <= address {
			below = n
			break
		}
	}

	if address+size > ADDRESS_SPACE {
		err = ErrAddressSpace
		return
	}

	for _, name := range slices.Sorted(maps.Keys(lnk.Pins)) {
		if name == sec.Name {
			continue
		}
		other := lnk.Pins[name]
		if other > pin && address+size > uint64(other) {
			err = ErrOverlap{Section: sec.Name, Other: name}
			return
		}
	}

	maxPin := lnk.maxPin()

	if below >= 0 && lnk.placed[below].End() > address {
		prev := lnk.placed[below]
		if _, ok := lnk.pinned(prev.Name); ok {
			err = ErrOverlap{Section: sec.Name, Other: prev.Name}
			return
		}
		err = lnk.shift(address, size)
	} else if below+1 < len(lnk.placed) {
		next := lnk.placed[below+1]
		if address+size > uint64(next.Base) {
			if pin != maxPin {
				err = ErrOverlap{Section: sec.Name, Other: next.Name}
				return
			}
			err = lnk.shift(address, size)
		}
	}
	if err != nil {
		return
	}

	lnk.insert(sec, address)

	return
}
