package asm

import (
	"errors"

	"github.com/ezrec/ss32/translate"
)

var f = translate.From

var (
	ErrOperandCount          = errors.New(f("operand count"))
	ErrOperandKind           = errors.New(f("operand kind"))
	ErrRegisterInvalid       = errors.New(f("register invalid"))
	ErrAddressingUnsupported = errors.New(f("addressing mode unsupported"))
	ErrLiteralRange          = errors.New(f("literal does not fit 12 bits"))
	ErrDisplacementRange     = errors.New(f("pool displacement does not fit 12 bits"))
	ErrDirectiveInvalid      = errors.New(f("directive invalid"))
	ErrInstructionInvalid    = errors.New(f("instruction invalid"))
)

type ErrLabelDuplicate string

func (err ErrLabelDuplicate) Error() string {
	return f("label %v duplicated", string(err))
}

type ErrSectionDuplicate string

func (err ErrSectionDuplicate) Error() string {
	return f("section %v duplicated", string(err))
}

// ErrSyntax locates an assembly error at a command.
type ErrSyntax struct {
	Index   int     // Index of the command in the input.
	Command Command // Failing command.
	Err     error
}

func (err ErrSyntax) Error() string {
	if err.Command.LineNo > 0 {
		return f("line %d '%v' %v", err.Command.LineNo, err.Command.String(), err.Err)
	}
	return f("command %d '%v' %v", err.Index, err.Command.String(), err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}
