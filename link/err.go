package link

import (
	"errors"

	"github.com/ezrec/ss32/translate"
)

var f = translate.From

var (
	ErrAddressSpace = errors.New(f("sections exceed the 32-bit address space"))
	ErrPinSyntax    = errors.New(f("placement must be NAME@ADDRESS"))
	ErrNoSections   = errors.New(f("no sections to link"))
	ErrLinked       = errors.New(f("files already linked"))
)

type ErrGlobalDuplicate string

func (err ErrGlobalDuplicate) Error() string {
	return f("global symbol %v defined more than once", string(err))
}

type ErrPinDuplicate string

func (err ErrPinDuplicate) Error() string {
	return f("section %v placed more than once", string(err))
}

type ErrExternUndefined string

func (err ErrExternUndefined) Error() string {
	return f("extern symbol %v is not defined by any file", string(err))
}

// ErrOverlap reports a placed section that would overlap another.
type ErrOverlap struct {
	Section string
	Other   string
}

func (err ErrOverlap) Error() string {
	return f("section %v overlaps section %v", err.Section, err.Other)
}

// ErrRelocation reports a relocation slot outside of its section.
type ErrRelocation struct {
	Section string
	Symbol  string
	Offset  uint32
}

func (err ErrRelocation) Error() string {
	return f("section %v relocation of %v at 0x%x", err.Section, err.Symbol, err.Offset)
}
