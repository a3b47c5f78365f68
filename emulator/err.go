package emulator

import (
	"errors"

	"github.com/ezrec/ss32/translate"
)

var f = translate.From

var (
	ErrTickLimit = errors.New(f("tick limit reached"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc  uint32
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("pc 0x%08x %v", err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
