// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package asm

import (
	"log"

	"github.com/ezrec/ss32/cpu"
	"github.com/ezrec/ss32/object"
)

// Directive names, without the leading '.'.
const (
	DIRECTIVE_GLOBAL  = "global"
	DIRECTIVE_EXTERN  = "extern"
	DIRECTIVE_SECTION = "section"
	DIRECTIVE_WORD    = "word"
	DIRECTIVE_SKIP    = "skip"
)

// Assembler is a two pass assembler for the SS32 instruction set.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.
}

// context is the state threaded through a single assembler pass.
type context struct {
	file    *object.File
	section *object.Section
	loc     uint32
	relocs  *object.RelocationTable
}

// emit stores an instruction word at the location counter, and advances it.
func (ctx *context) emit(code cpu.Code) (err error) {
	err = ctx.section.PutWord(ctx.loc, uint32(code))
	if err != nil {
		return
	}
	ctx.loc += 4
	return
}

// poolDisp converts a pool offset to a displacement from the next instruction.
func (ctx *context) poolDisp(offset uint32) (disp uint32, err error) {
	disp = offset - (ctx.loc + 4)
	if disp > cpu.DISP_MAX {
		err = ErrDisplacementRange
	}
	return
}

// literalDisp is the displacement to a pooled literal.
func (ctx *context) literalDisp(lit int32) (disp uint32, err error) {
	offset, ok := ctx.section.LiteralOffset(lit)
	if !ok {
		err = object.ErrPoolUnfinalized
		return
	}
	return ctx.poolDisp(offset)
}

// symbolDisp is the displacement to a pooled symbol. The pool slot is
// recorded for relocation.
func (ctx *context) symbolDisp(sym string) (disp uint32, err error) {
	offset, ok := ctx.section.SymbolOffset(sym)
	if !ok {
		err = object.ErrPoolUnfinalized
		return
	}
	ctx.relocs.Add(sym, offset)
	return ctx.poolDisp(offset)
}

// checkDirective validates the operands of a directive.
func checkDirective(cmd *Command) (err error) {
	ops := cmd.Operands

	only := func(kinds ...OperandKind) error {
		for _, op := range ops {
			ok := false
			for _, kind := range kinds {
				ok = ok || op.Kind == kind
			}
			if !ok {
				return ErrOperandKind
			}
		}
		return nil
	}

	switch cmd.Name {
	case DIRECTIVE_SECTION, DIRECTIVE_SKIP:
		if len(ops) != 1 {
			return ErrOperandCount
		}
		if cmd.Name == DIRECTIVE_SKIP {
			err = only(OPERAND_LIT)
			if err == nil && ops[0].Literal < 0 {
				err = ErrLiteralRange
			}
			return
		}
		return only(OPERAND_SYM)
	case DIRECTIVE_GLOBAL, DIRECTIVE_EXTERN:
		if len(ops) == 0 {
			return ErrOperandCount
		}
		return only(OPERAND_SYM)
	case DIRECTIVE_WORD:
		if len(ops) == 0 {
			return ErrOperandCount
		}
		return only(OPERAND_LIT, OPERAND_SYM)
	}

	return ErrDirectiveInvalid
}

// Assemble translates a list of commands into a relocatable object file.
func (asm *Assembler) Assemble(cmds []Command) (file *object.File, err error) {
	ctx := &context{
		file:    object.NewFile(),
		section: object.NewSection(object.SectionUndefined),
	}

	for n := range cmds {
		err = asm.pass1(ctx, &cmds[n])
		if err != nil {
			err = ErrSyntax{Index: n, Command: cmds[n], Err: err}
			return
		}
	}
	err = ctx.closeSection()
	if err != nil {
		return
	}

	err = ctx.file.Symbols.Validate()
	if err != nil {
		return
	}

	for sec := range ctx.file.Sections.All() {
		sec.Finalize()
		if asm.Verbose {
			log.Printf("asm: section %v: code %d, pool %d", sec.Name, sec.Length, sec.PoolSize())
		}
	}

	ctx.section, _ = ctx.file.Sections.Lookup(object.SectionUndefined)
	ctx.loc = 0
	ctx.relocs = ctx.file.Relocations.Table(object.SectionUndefined)

	for n := range cmds {
		err = asm.pass2(ctx, &cmds[n])
		if err != nil {
			err = ErrSyntax{Index: n, Command: cmds[n], Err: err}
			return
		}
	}

	file = ctx.file
	return
}

// closeSection records the length of the current section in the table.
func (ctx *context) closeSection() (err error) {
	ctx.section.Length = ctx.loc
	err = ctx.file.Sections.Add(ctx.section)
	if err != nil {
		err = ErrSectionDuplicate(ctx.section.Name)
	}
	return
}

// define binds name to the current location, resolving a forward
// reference in place.
func (ctx *context) define(name string, value uint32) (err error) {
	sym, ok := ctx.file.Symbols.Lookup(name)
	if !ok {
		ctx.file.Symbols.Define(name, object.Symbol{
			Section: ctx.section.Name,
			Value:   value,
			Kind:    object.KindLocal,
		})
		return
	}

	if sym.Value != object.ValueUndefined {
		err = ErrLabelDuplicate(name)
		return
	}

	sym.Section = ctx.section.Name
	sym.Value = value
	return
}

// pass1 lays out the symbols, sections and pools.
func (asm *Assembler) pass1(ctx *context, cmd *Command) (err error) {
	symbols := ctx.file.Symbols

	for _, label := range cmd.Labels {
		err = ctx.define(label, ctx.loc)
		if err != nil {
			return
		}
	}

	if cmd.Directive {
		err = checkDirective(cmd)
	} else if _, ok := instructionMap[cmd.Name]; !ok {
		err = ErrInstructionInvalid
	}
	if err != nil {
		return
	}

	for _, op := range cmd.Operands {
		switch {
		case op.Kind == OPERAND_REG_IND_SYM:
			err = ErrAddressingUnsupported
			return
		case op.Kind.HasSymbol():
			name := op.Symbol
			sym, ok := symbols.Lookup(name)
			switch {
			case cmd.Directive && cmd.Name == DIRECTIVE_SECTION:
				if name == ctx.section.Name {
					err = ErrSectionDuplicate(name)
					return
				}
				if _, ok := ctx.file.Sections.Lookup(name); ok {
					err = ErrSectionDuplicate(name)
					return
				}
				err = ctx.closeSection()
				if err != nil {
					return
				}
				ctx.section = object.NewSection(name)
				ctx.loc = 0
				err = ctx.define(name, 0)
				if err != nil {
					return
				}
			case cmd.Directive && cmd.Name == DIRECTIVE_GLOBAL:
				if ok {
					sym.Kind = object.KindGlobal
				} else {
					symbols.Define(name, object.Symbol{
						Section: object.SectionPending,
						Value:   object.ValueUndefined,
						Kind:    object.KindGlobal,
					})
				}
			case cmd.Directive && cmd.Name == DIRECTIVE_EXTERN:
				if ok {
					sym.Kind = object.KindExtern
				} else {
					symbols.Define(name, object.Symbol{
						Section: object.SectionExternal,
						Value:   object.ValueUndefined,
						Kind:    object.KindExtern,
					})
				}
			default:
				if !ok {
					symbols.Define(name, object.Symbol{
						Section: object.SectionPending,
						Value:   object.ValueUndefined,
						Kind:    object.KindLocal,
					})
				}
				if !cmd.Directive {
					ctx.section.AddSymbol(name)
				}
			}
		case op.Kind.HasLiteral():
			if cmd.Directive || fits(op.Literal) {
				continue
			}
			if op.Kind == OPERAND_REG_IND_LIT {
				err = ErrLiteralRange
				return
			}
			ctx.section.AddLiteral(op.Literal)
		}
	}

	if cmd.Directive {
		switch cmd.Name {
		case DIRECTIVE_SKIP:
			ctx.loc += uint32(cmd.Operands[0].Literal)
		case DIRECTIVE_WORD:
			ctx.loc += 4 * uint32(len(cmd.Operands))
		}
		return
	}

	ctx.loc += instructionSize(cmd)

	return
}

// pass2 encodes instructions and data into the finalized sections.
func (asm *Assembler) pass2(ctx *context, cmd *Command) (err error) {
	if asm.Verbose {
		log.Printf("asm: %v+%04x: %v", ctx.section.Name, ctx.loc, cmd)
	}

	if !cmd.Directive {
		encode, ok := instructionMap[cmd.Name]
		if !ok {
			err = ErrInstructionInvalid
			return
		}
		return encode(ctx, cmd.Operands)
	}

	err = checkDirective(cmd)
	if err != nil {
		return
	}

	switch cmd.Name {
	case DIRECTIVE_SKIP:
		ctx.loc += uint32(cmd.Operands[0].Literal)
	case DIRECTIVE_WORD:
		for _, op := range cmd.Operands {
			if op.Kind == OPERAND_SYM {
				ctx.relocs.Add(op.Symbol, ctx.loc)
				ctx.loc += 4
				continue
			}
			err = ctx.emit(cpu.Code(op.Literal))
			if err != nil {
				return
			}
		}
	case DIRECTIVE_SECTION:
		name := cmd.Operands[0].Symbol
		ctx.section, _ = ctx.file.Sections.Lookup(name)
		ctx.loc = 0
		ctx.relocs = ctx.file.Relocations.Table(name)
	}

	return
}
