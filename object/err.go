package object

import (
	"errors"
	"strings"

	"github.com/ezrec/ss32/translate"
)

var f = translate.From

var (
	ErrDecode          = errors.New(f("object decode"))
	ErrOffsetRange     = errors.New(f("offset out of section range"))
	ErrSectionExists   = errors.New(f("section already defined"))
	ErrSymbolKind      = errors.New(f("symbol kind invalid"))
	ErrPoolDuplicate   = errors.New(f("pool entry duplicated"))
	ErrPoolUnfinalized = errors.New(f("pool offsets not assigned"))
)

// ErrUndefined lists every symbol that never received an owning section.
type ErrUndefined struct {
	Names []string
}

func (err ErrUndefined) Error() string {
	return f("undefined symbols: %v", strings.Join(err.Names, ", "))
}

type ErrSymbolDuplicate string

func (err ErrSymbolDuplicate) Error() string {
	return f("symbol %v duplicated", string(err))
}

type ErrSectionKey string

func (err ErrSectionKey) Error() string {
	return f("section record does not match key %v", string(err))
}
