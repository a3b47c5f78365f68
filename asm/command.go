package asm

import (
	"fmt"
	"strings"
)

// OperandKind is the addressing form of an operand.
type OperandKind int

const (
	OPERAND_REG         = OperandKind(iota) // %reg
	OPERAND_REG_IND                         // [%reg]
	OPERAND_REG_IND_LIT                     // [%reg + lit]
	OPERAND_REG_IND_SYM                     // [%reg + sym]
	OPERAND_IMM_LIT                         // $lit
	OPERAND_IMM_SYM                         // $sym
	OPERAND_LIT                             // lit
	OPERAND_SYM                             // sym
)

var operandKindName = [...]string{
	OPERAND_REG:         "%reg",
	OPERAND_REG_IND:     "[%reg]",
	OPERAND_REG_IND_LIT: "[%reg + lit]",
	OPERAND_REG_IND_SYM: "[%reg + sym]",
	OPERAND_IMM_LIT:     "$lit",
	OPERAND_IMM_SYM:     "$sym",
	OPERAND_LIT:         "lit",
	OPERAND_SYM:         "sym",
}

func (kind OperandKind) String() string {
	if kind < 0 || int(kind) >= len(operandKindName) {
		return fmt.Sprintf("OperandKind(%d)", int(kind))
	}
	return operandKindName[kind]
}

// HasSymbol is true for the kinds that reference a symbol.
func (kind OperandKind) HasSymbol() bool {
	return kind == OPERAND_REG_IND_SYM || kind == OPERAND_IMM_SYM || kind == OPERAND_SYM
}

// HasLiteral is true for the kinds that carry a literal.
func (kind OperandKind) HasLiteral() bool {
	return kind == OPERAND_REG_IND_LIT || kind == OPERAND_IMM_LIT || kind == OPERAND_LIT
}

// HasRegister is true for the kinds that name a register.
func (kind OperandKind) HasRegister() bool {
	return kind <= OPERAND_REG_IND_SYM
}

// Operand is a single instruction or directive operand. Only the fields
// used by Kind are meaningful.
type Operand struct {
	Kind     OperandKind
	Register string // Register name, without the '%'.
	Symbol   string
	Literal  int32
}

func Reg(reg string) Operand {
	return Operand{Kind: OPERAND_REG, Register: reg}
}

func RegInd(reg string) Operand {
	return Operand{Kind: OPERAND_REG_IND, Register: reg}
}

func RegIndLit(reg string, lit int32) Operand {
	return Operand{Kind: OPERAND_REG_IND_LIT, Register: reg, Literal: lit}
}

func RegIndSym(reg string, sym string) Operand {
	return Operand{Kind: OPERAND_REG_IND_SYM, Register: reg, Symbol: sym}
}

func ImmLit(lit int32) Operand {
	return Operand{Kind: OPERAND_IMM_LIT, Literal: lit}
}

func ImmSym(sym string) Operand {
	return Operand{Kind: OPERAND_IMM_SYM, Symbol: sym}
}

func Lit(lit int32) Operand {
	return Operand{Kind: OPERAND_LIT, Literal: lit}
}

func Sym(sym string) Operand {
	return Operand{Kind: OPERAND_SYM, Symbol: sym}
}

// String returns the assembly syntax of the operand.
func (op Operand) String() string {
	switch op.Kind {
	case OPERAND_REG:
		return "%" + op.Register
	case OPERAND_REG_IND:
		return "[%" + op.Register + "]"
	case OPERAND_REG_IND_LIT:
		return fmt.Sprintf("[%%%v + %#x]", op.Register, op.Literal)
	case OPERAND_REG_IND_SYM:
		return fmt.Sprintf("[%%%v + %v]", op.Register, op.Symbol)
	case OPERAND_IMM_LIT:
		return fmt.Sprintf("$%#x", op.Literal)
	case OPERAND_IMM_SYM:
		return "$" + op.Symbol
	case OPERAND_LIT:
		return fmt.Sprintf("%#x", op.Literal)
	case OPERAND_SYM:
		return op.Symbol
	}
	return op.Kind.String()
}

// Command is one directive or machine instruction, with its labels.
type Command struct {
	Directive bool      // Name is a directive, without the leading '.'.
	Labels    []string  // Labels bound to the command location.
	Name      string    // Directive or mnemonic.
	Operands  []Operand // Operands, in source order.
	LineNo    int       // Source line, or 0 if unknown.
}

// String returns the assembly syntax of the command.
func (cmd Command) String() string {
	var sb strings.Builder
	for _, label := range cmd.Labels {
		sb.WriteString(label)
		sb.WriteString(": ")
	}
	if cmd.Directive {
		sb.WriteByte('.')
	}
	sb.WriteString(cmd.Name)
	for n, op := range cmd.Operands {
		if n == 0 {
			sb.WriteByte(' ')
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(op.String())
	}
	return sb.String()
}
