package link

import (
	"errors"
	"strconv"
	"strings"
)

// ParsePin parses a NAME@ADDRESS placement, where ADDRESS is hexadecimal
// with an optional 0x prefix.
func ParsePin(text string) (name string, address uint32, err error) {
	at := strings.LastIndexByte(text, '@')
	if at <= 0 {
		err = ErrPinSyntax
		return
	}

	name = text[:at]
	digits := text[at+1:]
	digits = strings.TrimPrefix(digits, "0x")
	digits = strings.TrimPrefix(digits, "0X")

	value, perr := strconv.ParseUint(digits, 16, 32)
	if perr != nil {
		name = ""
		err = errors.Join(ErrPinSyntax, perr)
		return
	}

	address = uint32(value)

	return
}

// Pin requests that the first section with this name is placed at address.
// Pins must be set before the first file is added.
func (lnk *Linker) Pin(name string, address uint32) (err error) {
	if lnk.Pins == nil {
		lnk.Pins = map[string]uint32{}
	}

	if _, ok := lnk.Pins[name]; ok {
		err = ErrPinDuplicate(name)
		return
	}

	lnk.Pins[name] = address

	return
}
