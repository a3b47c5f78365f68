package cpu

import (
	"errors"

	"github.com/ezrec/ss32/translate"
)

var f = translate.From

var (
	ErrOpcodeInvalid = errors.New(f("opcode invalid"))
	ErrDivideByZero  = errors.New(f("divide by zero"))
	ErrCsrInvalid    = errors.New(f("csr invalid"))
)

// ErrOpcode reports an instruction word that could not be executed.
type ErrOpcode Code

func (eo ErrOpcode) Error() string {
	return f("bad opcode %v", Code(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}
