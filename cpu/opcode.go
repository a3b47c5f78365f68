package cpu

import (
	"fmt"
)

// Code is a single 32-bit instruction word:
//
//	op:4 mode:4 a:4 b:4 c:4 disp:12
type Code uint32

const (
	CODE_HALT = Code(0x0000_0000) // Only halt encodes as all zeros.
	CODE_INT  = Code(0x1000_0000) // Software interrupt.

	DISP_MAX = 0xfff // Largest displacement.
)

// CodeOp is the operation class.
type CodeOp int

const (
	OP_HALT  = CodeOp(0x0) // halt
	OP_INT   = CodeOp(0x1) // int
	OP_CALL  = CodeOp(0x2) // call
	OP_JMP   = CodeOp(0x3) // jmp
	OP_XCHG  = CodeOp(0x4) // xchg
	OP_ARITH = CodeOp(0x5) // arith
	OP_LOGIC = CodeOp(0x6) // logic
	OP_SHIFT = CodeOp(0x7) // shift
	OP_STORE = CodeOp(0x8) // store
	OP_LOAD  = CodeOp(0x9) // load
)

var codeOpName = [...]string{"halt", "int", "call", "jmp", "xchg", "arith", "logic", "shift", "store", "load"}

func (op CodeOp) String() string {
	if op < 0 || int(op) >= len(codeOpName) {
		return fmt.Sprintf("op%x", int(op))
	}
	return codeOpName[op]
}

// CodeMode selects the variant of an operation class.
type CodeMode int

// OP_CALL modes
const (
	MODE_CALL     = CodeMode(0x0) // push pc; pc = a + b + disp
	MODE_CALL_MEM = CodeMode(0x1) // push pc; pc = mem[a + b + disp]
)

// OP_JMP modes. The _MEM variants load the target from memory.
const (
	MODE_JMP     = CodeMode(0x0)
	MODE_BEQ     = CodeMode(0x1)
	MODE_BNE     = CodeMode(0x2)
	MODE_BGT     = CodeMode(0x3)
	MODE_JMP_MEM = CodeMode(0x8)
	MODE_BEQ_MEM = CodeMode(0x9)
	MODE_BNE_MEM = CodeMode(0xa)
	MODE_BGT_MEM = CodeMode(0xb)

	MODE_MEM = CodeMode(0x8) // Memory target flag.
)

// OP_ARITH modes
const (
	MODE_ADD = CodeMode(0x0)
	MODE_SUB = CodeMode(0x1)
	MODE_MUL = CodeMode(0x2)
	MODE_DIV = CodeMode(0x3)
)

// OP_LOGIC modes
const (
	MODE_NOT = CodeMode(0x0)
	MODE_AND = CodeMode(0x1)
	MODE_OR  = CodeMode(0x2)
	MODE_XOR = CodeMode(0x3)
)

// OP_SHIFT modes
const (
	MODE_SHL = CodeMode(0x0)
	MODE_SHR = CodeMode(0x1)
)

// OP_STORE modes
const (
	MODE_ST     = CodeMode(0x0) // mem[a + b + disp] = c
	MODE_PUSH   = CodeMode(0x1) // sp -= 4; mem[sp] = c
	MODE_ST_MEM = CodeMode(0x2) // mem[mem[a + b + disp]] = c
)

// OP_LOAD modes
const (
	MODE_CSRRD   = CodeMode(0x0) // a = csr[b]
	MODE_LD_REG  = CodeMode(0x1) // a = b + disp
	MODE_LD_MEM  = CodeMode(0x2) // a = mem[b + c + disp]
	MODE_POP     = CodeMode(0x3) // a = mem[b]; b += disp
	MODE_CSRWR   = CodeMode(0x4) // csr[a] = b
	MODE_CSR_OR  = CodeMode(0x5) // csr[a] = csr[b] | disp
	MODE_CSR_MEM = CodeMode(0x6) // csr[a] = mem[b + c + disp]
	MODE_CSR_POP = CodeMode(0x7) // csr[a] = mem[b]; b += disp
)

// CodeReg is a register index in an instruction field.
type CodeReg int

const (
	REG_R0 = CodeReg(0)  // Always reads as zero after each instruction.
	REG_SP = CodeReg(14) // Stack pointer.
	REG_PC = CodeReg(15) // Program counter.

	GPR_COUNT = 16
)

// Control and status registers.
const (
	CSR_STATUS  = CodeReg(0)
	CSR_HANDLER = CodeReg(1)
	CSR_CAUSE   = CodeReg(2)

	CSR_COUNT = 3
)

// MakeCode assembles an instruction word.
func MakeCode(op CodeOp, mode CodeMode, a, b, c CodeReg, disp uint32) Code {
	return Code((uint32(op)&0xf)<<28 |
		(uint32(mode)&0xf)<<24 |
		(uint32(a)&0xf)<<20 |
		(uint32(b)&0xf)<<16 |
		(uint32(c)&0xf)<<12 |
		(disp & DISP_MAX))
}

// Decode splits an instruction word into its fields.
func (code Code) Decode() (op CodeOp, mode CodeMode, a, b, c CodeReg, disp uint32) {
	word := uint32(code)
	op = CodeOp(word >> 28)
	mode = CodeMode((word >> 24) & 0xf)
	a = CodeReg((word >> 20) & 0xf)
	b = CodeReg((word >> 16) & 0xf)
	c = CodeReg((word >> 12) & 0xf)
	disp = word & DISP_MAX
	return
}

// String returns the instruction word and its decoded fields.
func (code Code) String() string {
	op, mode, a, b, c, disp := code.Decode()
	return fmt.Sprintf("%08X %v.%x %d %d %d %#03x", uint32(code), op, int(mode), a, b, c, disp)
}
