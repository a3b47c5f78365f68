package asm

import (
	"fmt"

	"github.com/ezrec/ss32/cpu"
)

// gprMap maps general purpose register names to their index.
var gprMap = map[string]cpu.CodeReg{
	"sp": cpu.REG_SP,
	"pc": cpu.REG_PC,
}

func init() {
	for n := range cpu.GPR_COUNT {
		gprMap[fmt.Sprintf("r%d", n)] = cpu.CodeReg(n)
	}
}

// csrMap maps control register names to their index.
var csrMap = map[string]cpu.CodeReg{
	"status":  cpu.CSR_STATUS,
	"handler": cpu.CSR_HANDLER,
	"cause":   cpu.CSR_CAUSE,
}

// fits returns true if the literal can be used as a displacement.
func fits(lit int32) bool {
	return uint32(lit) <= cpu.DISP_MAX
}

// gpr decodes a %reg operand naming a general purpose register.
func gpr(op Operand) (reg cpu.CodeReg, err error) {
	if op.Kind != OPERAND_REG {
		err = ErrOperandKind
		return
	}
	reg, ok := gprMap[op.Register]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// csr decodes a %reg operand naming a control register.
func csr(op Operand) (reg cpu.CodeReg, err error) {
	if op.Kind != OPERAND_REG {
		err = ErrOperandKind
		return
	}
	reg, ok := csrMap[op.Register]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// base decodes the register of a memory operand.
func base(op Operand) (reg cpu.CodeReg, err error) {
	reg, ok := gprMap[op.Register]
	if !ok {
		err = ErrRegisterInvalid
	}
	return
}

// encoder emits the words of one instruction.
type encoder func(ctx *context, ops []Operand) (err error)

// instructionMap maps mnemonics to their encoders.
var instructionMap map[string]encoder

func init() {
	instructionMap = map[string]encoder{
		"halt": encodeFixed(cpu.CODE_HALT),
		"int":  encodeFixed(cpu.CODE_INT),
		"iret": encodeFixed(
			cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_CSR_MEM, cpu.CSR_STATUS, cpu.REG_SP, cpu.REG_R0, 4),
			cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_POP, cpu.REG_PC, cpu.REG_SP, cpu.REG_R0, 8),
		),
		"ret": encodeFixed(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_POP, cpu.REG_PC, cpu.REG_SP, cpu.REG_R0, 4)),

		"call": encodeTransfer(cpu.OP_CALL, cpu.MODE_CALL, cpu.MODE_CALL_MEM),
		"jmp":  encodeTransfer(cpu.OP_JMP, cpu.MODE_JMP, cpu.MODE_JMP_MEM),
		"beq":  encodeBranch(cpu.MODE_BEQ),
		"bne":  encodeBranch(cpu.MODE_BNE),
		"bgt":  encodeBranch(cpu.MODE_BGT),

		"push": encodePush,
		"pop":  encodePop,
		"xchg": encodeXchg,
		"not":  encodeNot,

		"add": encodeAlu(cpu.OP_ARITH, cpu.MODE_ADD),
		"sub": encodeAlu(cpu.OP_ARITH, cpu.MODE_SUB),
		"mul": encodeAlu(cpu.OP_ARITH, cpu.MODE_MUL),
		"div": encodeAlu(cpu.OP_ARITH, cpu.MODE_DIV),
		"and": encodeAlu(cpu.OP_LOGIC, cpu.MODE_AND),
		"or":  encodeAlu(cpu.OP_LOGIC, cpu.MODE_OR),
		"xor": encodeAlu(cpu.OP_LOGIC, cpu.MODE_XOR),
		"shl": encodeAlu(cpu.OP_SHIFT, cpu.MODE_SHL),
		"shr": encodeAlu(cpu.OP_SHIFT, cpu.MODE_SHR),

		"csrrd": encodeCsrrd,
		"csrwr": encodeCsrwr,
		"ld":    encodeLoad,
		"st":    encodeStore,
	}
}

// instructionSize is the number of bytes pass 2 emits for cmd.
func instructionSize(cmd *Command) uint32 {
	switch cmd.Name {
	case "iret":
		return 2 * 4
	case "ld":
		if len(cmd.Operands) > 0 {
			kind := cmd.Operands[0].Kind
			if kind == OPERAND_LIT || kind == OPERAND_SYM {
				return 2 * 4
			}
		}
	}
	return 4
}

func encodeFixed(codes ...cpu.Code) encoder {
	return func(ctx *context, ops []Operand) (err error) {
		if len(ops) != 0 {
			err = ErrOperandCount
			return
		}
		for _, code := range codes {
			err = ctx.emit(code)
			if err != nil {
				return
			}
		}
		return
	}
}

// target emits a control transfer to op. Register and small literal
// targets use the direct mode, everything else goes through memory.
func (ctx *context) target(op Operand, class cpu.CodeOp, direct, indirect cpu.CodeMode, b, c cpu.CodeReg) (err error) {
	var reg cpu.CodeReg
	var disp uint32

	switch op.Kind {
	case OPERAND_REG:
		reg, err = gpr(op)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(class, direct, reg, b, c, 0))
	case OPERAND_LIT:
		if fits(op.Literal) {
			return ctx.emit(cpu.MakeCode(class, direct, cpu.REG_R0, b, c, uint32(op.Literal)))
		}
		disp, err = ctx.literalDisp(op.Literal)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(class, indirect, cpu.REG_PC, b, c, disp))
	case OPERAND_SYM:
		disp, err = ctx.symbolDisp(op.Symbol)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(class, indirect, cpu.REG_PC, b, c, disp))
	case OPERAND_REG_IND:
		reg, err = base(op)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(class, indirect, reg, b, c, 0))
	case OPERAND_REG_IND_LIT:
		reg, err = base(op)
		if err != nil {
			return
		}
		if !fits(op.Literal) {
			err = ErrLiteralRange
			return
		}
		return ctx.emit(cpu.MakeCode(class, indirect, reg, b, c, uint32(op.Literal)))
	}

	err = ErrAddressingUnsupported
	return
}

// encodeTransfer handles call and jmp.
func encodeTransfer(class cpu.CodeOp, direct, indirect cpu.CodeMode) encoder {
	return func(ctx *context, ops []Operand) (err error) {
		if len(ops) != 1 {
			err = ErrOperandCount
			return
		}
		return ctx.target(ops[0], class, direct, indirect, cpu.REG_R0, cpu.REG_R0)
	}
}

// encodeBranch handles beq, bne and bgt.
func encodeBranch(mode cpu.CodeMode) encoder {
	return func(ctx *context, ops []Operand) (err error) {
		if len(ops) != 3 {
			err = ErrOperandCount
			return
		}
		b, err := gpr(ops[0])
		if err != nil {
			return
		}
		c, err := gpr(ops[1])
		if err != nil {
			return
		}
		return ctx.target(ops[2], cpu.OP_JMP, mode, mode|cpu.MODE_MEM, b, c)
	}
}

func encodePush(ctx *context, ops []Operand) (err error) {
	if len(ops) != 1 {
		err = ErrOperandCount
		return
	}
	reg, err := gpr(ops[0])
	if err != nil {
		return
	}
	// Displacement -4, truncated to 12 bits.
	return ctx.emit(cpu.MakeCode(cpu.OP_STORE, cpu.MODE_PUSH, cpu.REG_SP, cpu.REG_R0, reg, uint32(0xffc)))
}

func encodePop(ctx *context, ops []Operand) (err error) {
	if len(ops) != 1 {
		err = ErrOperandCount
		return
	}
	reg, err := gpr(ops[0])
	if err != nil {
		return
	}
	return ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_POP, reg, cpu.REG_SP, cpu.REG_R0, 4))
}

func encodeNot(ctx *context, ops []Operand) (err error) {
	if len(ops) != 1 {
		err = ErrOperandCount
		return
	}
	reg, err := gpr(ops[0])
	if err != nil {
		return
	}
	return ctx.emit(cpu.MakeCode(cpu.OP_LOGIC, cpu.MODE_NOT, reg, reg, cpu.REG_R0, 0))
}

// pair decodes a 'gpr, gpr' operand list.
func pair(ops []Operand) (src, dst cpu.CodeReg, err error) {
	if len(ops) != 2 {
		err = ErrOperandCount
		return
	}
	src, err = gpr(ops[0])
	if err != nil {
		return
	}
	dst, err = gpr(ops[1])
	return
}

func encodeXchg(ctx *context, ops []Operand) (err error) {
	src, dst, err := pair(ops)
	if err != nil {
		return
	}
	return ctx.emit(cpu.MakeCode(cpu.OP_XCHG, 0, cpu.REG_R0, dst, src, 0))
}

// encodeAlu handles the 'op %src, %dst' register operations, dst = dst op src.
func encodeAlu(class cpu.CodeOp, mode cpu.CodeMode) encoder {
	return func(ctx *context, ops []Operand) (err error) {
		src, dst, err := pair(ops)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(class, mode, dst, dst, src, 0))
	}
}

func encodeCsrrd(ctx *context, ops []Operand) (err error) {
	if len(ops) != 2 {
		err = ErrOperandCount
		return
	}
	c, err := csr(ops[0])
	if err != nil {
		return
	}
	g, err := gpr(ops[1])
	if err != nil {
		return
	}
	return ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_CSRRD, g, c, cpu.REG_R0, 0))
}

func encodeCsrwr(ctx *context, ops []Operand) (err error) {
	if len(ops) != 2 {
		err = ErrOperandCount
		return
	}
	g, err := gpr(ops[0])
	if err != nil {
		return
	}
	c, err := csr(ops[1])
	if err != nil {
		return
	}
	return ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_CSRWR, c, g, cpu.REG_R0, 0))
}

// encodeLoad handles 'ld op, %dst'. Loading a bare literal or symbol reads
// its value from the pool, then dereferences it with a second instruction.
func encodeLoad(ctx *context, ops []Operand) (err error) {
	if len(ops) != 2 {
		err = ErrOperandCount
		return
	}
	dst, err := gpr(ops[1])
	if err != nil {
		return
	}

	var reg cpu.CodeReg
	var disp uint32

	op := ops[0]
	switch op.Kind {
	case OPERAND_REG:
		reg, err = gpr(op)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_LD_REG, dst, reg, cpu.REG_R0, 0))
	case OPERAND_REG_IND, OPERAND_REG_IND_LIT:
		reg, err = base(op)
		if err != nil {
			return
		}
		if op.Kind == OPERAND_REG_IND_LIT {
			if !fits(op.Literal) {
				err = ErrLiteralRange
				return
			}
			disp = uint32(op.Literal)
		}
		return ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_LD_MEM, dst, reg, cpu.REG_R0, disp))
	case OPERAND_IMM_LIT, OPERAND_LIT:
		if fits(op.Literal) {
			err = ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_LD_REG, dst, cpu.REG_R0, cpu.REG_R0, uint32(op.Literal)))
		} else {
			disp, err = ctx.literalDisp(op.Literal)
			if err != nil {
				return
			}
			err = ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_LD_MEM, dst, cpu.REG_PC, cpu.REG_R0, disp))
		}
	case OPERAND_IMM_SYM, OPERAND_SYM:
		disp, err = ctx.symbolDisp(op.Symbol)
		if err != nil {
			return
		}
		err = ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_LD_MEM, dst, cpu.REG_PC, cpu.REG_R0, disp))
	default:
		err = ErrAddressingUnsupported
		return
	}
	if err != nil {
		return
	}

	if op.Kind == OPERAND_LIT || op.Kind == OPERAND_SYM {
		err = ctx.emit(cpu.MakeCode(cpu.OP_LOAD, cpu.MODE_LD_MEM, dst, dst, cpu.REG_R0, 0))
	}

	return
}

// encodeStore handles 'st %src, op'.
func encodeStore(ctx *context, ops []Operand) (err error) {
	if len(ops) != 2 {
		err = ErrOperandCount
		return
	}
	src, err := gpr(ops[0])
	if err != nil {
		return
	}

	var reg cpu.CodeReg
	var disp uint32

	op := ops[1]
	switch op.Kind {
	case OPERAND_REG_IND, OPERAND_REG_IND_LIT:
		reg, err = base(op)
		if err != nil {
			return
		}
		if op.Kind == OPERAND_REG_IND_LIT {
			if !fits(op.Literal) {
				err = ErrLiteralRange
				return
			}
			disp = uint32(op.Literal)
		}
		return ctx.emit(cpu.MakeCode(cpu.OP_STORE, cpu.MODE_ST, reg, cpu.REG_R0, src, disp))
	case OPERAND_LIT:
		if fits(op.Literal) {
			return ctx.emit(cpu.MakeCode(cpu.OP_STORE, cpu.MODE_ST, cpu.REG_R0, cpu.REG_R0, src, uint32(op.Literal)))
		}
		disp, err = ctx.literalDisp(op.Literal)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(cpu.OP_STORE, cpu.MODE_ST_MEM, cpu.REG_PC, cpu.REG_R0, src, disp))
	case OPERAND_SYM:
		disp, err = ctx.symbolDisp(op.Symbol)
		if err != nil {
			return
		}
		return ctx.emit(cpu.MakeCode(cpu.OP_STORE, cpu.MODE_ST_MEM, cpu.REG_PC, cpu.REG_R0, src, disp))
	}

	err = ErrAddressingUnsupported
	return
}
