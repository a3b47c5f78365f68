package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type regs map[CodeReg]uint32

func TestExecute(t *testing.T) {
	const pc = uint32(0x1000)

	table := []struct {
		name   string
		code   Code
		before regs
		after  regs
		err    error
	}{
		{"add", MakeCode(OP_ARITH, MODE_ADD, 1, 2, 3, 0), regs{2: 5, 3: 7}, regs{1: 12}, nil},
		{"sub", MakeCode(OP_ARITH, MODE_SUB, 1, 2, 3, 0), regs{2: 5, 3: 7}, regs{1: 0xffff_fffe}, nil},
		{"mul", MakeCode(OP_ARITH, MODE_MUL, 1, 2, 3, 0), regs{2: 0xffff_fffd, 3: 4}, regs{1: 0xffff_fff4}, nil},
		{"div", MakeCode(OP_ARITH, MODE_DIV, 1, 2, 3, 0), regs{2: 0xffff_fff9, 3: 2}, regs{1: 0xffff_fffd}, nil},
		{"div-zero", MakeCode(OP_ARITH, MODE_DIV, 1, 2, 3, 0), regs{2: 1}, nil, ErrDivideByZero},
		{"arith-mode", MakeCode(OP_ARITH, 4, 1, 2, 3, 0), nil, nil, ErrOpcodeInvalid},
		{"not", MakeCode(OP_LOGIC, MODE_NOT, 1, 2, 0, 0), regs{2: 0x0f0f_0f0f}, regs{1: 0xf0f0_f0f0}, nil},
		{"and", MakeCode(OP_LOGIC, MODE_AND, 1, 2, 3, 0), regs{2: 0xff00, 3: 0x0ff0}, regs{1: 0x0f00}, nil},
		{"or", MakeCode(OP_LOGIC, MODE_OR, 1, 2, 3, 0), regs{2: 0xff00, 3: 0x0ff0}, regs{1: 0xfff0}, nil},
		{"xor", MakeCode(OP_LOGIC, MODE_XOR, 1, 2, 3, 0), regs{2: 0xff00, 3: 0x0ff0}, regs{1: 0xf0f0}, nil},
		{"shl", MakeCode(OP_SHIFT, MODE_SHL, 1, 2, 3, 0), regs{2: 1, 3: 4}, regs{1: 16}, nil},
		{"shr", MakeCode(OP_SHIFT, MODE_SHR, 1, 2, 3, 0), regs{2: 0x8000_0000, 3: 4}, regs{1: 0xf800_0000}, nil},
		{"shift-mode", MakeCode(OP_SHIFT, 2, 1, 2, 3, 0), nil, nil, ErrOpcodeInvalid},
		{"xchg", MakeCode(OP_XCHG, 0, 0, 2, 3, 0), regs{2: 1, 3: 2}, regs{2: 2, 3: 1}, nil},
		{"xchg-mode", MakeCode(OP_XCHG, 1, 0, 2, 3, 0), nil, nil, ErrOpcodeInvalid},
		{"ld-reg", MakeCode(OP_LOAD, MODE_LD_REG, 1, 2, 0, 0x10), regs{2: 0x100}, regs{1: 0x110}, nil},
		{"r0-zero", MakeCode(OP_LOAD, MODE_LD_REG, 0, 0, 0, 5), nil, regs{0: 0}, nil},
		{"jmp", MakeCode(OP_JMP, MODE_JMP, 2, 0, 0, 4), regs{2: 0x3000}, regs{REG_PC: 0x3004}, nil},
		{"beq-taken", MakeCode(OP_JMP, MODE_BEQ, 0, 2, 3, 0x40), regs{2: 9, 3: 9}, regs{REG_PC: 0x40}, nil},
		{"beq-skip", MakeCode(OP_JMP, MODE_BEQ, 0, 2, 3, 0x40), regs{2: 9, 3: 8}, regs{REG_PC: pc}, nil},
		{"bne-taken", MakeCode(OP_JMP, MODE_BNE, 0, 2, 3, 0x40), regs{2: 9, 3: 8}, regs{REG_PC: 0x40}, nil},
		{"bgt-signed", MakeCode(OP_JMP, MODE_BGT, 0, 2, 3, 0x40), regs{2: 1, 3: 0xffff_ffff}, regs{REG_PC: 0x40}, nil},
		{"bgt-skip", MakeCode(OP_JMP, MODE_BGT, 0, 3, 2, 0x40), regs{2: 1, 3: 0xffff_ffff}, regs{REG_PC: pc}, nil},
		{"jmp-mode", MakeCode(OP_JMP, 4, 0, 0, 0, 0), nil, nil, ErrOpcodeInvalid},
		{"call-mode", MakeCode(OP_CALL, 2, 0, 0, 0, 0), nil, nil, ErrOpcodeInvalid},
		{"store-mode", MakeCode(OP_STORE, 3, 0, 0, 0, 0), nil, nil, ErrOpcodeInvalid},
		{"load-mode", MakeCode(OP_LOAD, 8, 0, 0, 0, 0), nil, nil, ErrOpcodeInvalid},
		{"halt-bits", Code(0x0000_0001), nil, nil, ErrOpcodeInvalid},
		{"int-bits", Code(0x1000_0001), nil, nil, ErrOpcodeInvalid},
		{"op-a", Code(0xa000_0000), nil, nil, ErrOpcodeInvalid},
		{"csrrd-invalid", MakeCode(OP_LOAD, MODE_CSRRD, 1, 3, 0, 0), nil, nil, ErrCsrInvalid},
		{"csrwr-invalid", MakeCode(OP_LOAD, MODE_CSRWR, 3, 1, 0, 0), nil, nil, ErrCsrInvalid},
	}

	assert := assert.New(t)

	for _, entry := range table {
		cpu := NewCpu()
		cpu.Gpr[REG_PC] = pc
		for reg, value := range entry.before {
			cpu.Gpr[reg] = value
		}

		halted, err := cpu.Execute(entry.code)
		assert.False(halted, entry.name)
		if entry.err != nil {
			assert.ErrorIs(err, entry.err, entry.name)
			assert.True(errors.Is(err, ErrOpcode(0)), entry.name)
			continue
		}
		assert.NoError(err, entry.name)

		for reg, value := range entry.after {
			assert.Equal(value, cpu.Gpr[reg], "%v r%d", entry.name, reg)
		}
	}
}

func TestExecuteCsr(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Gpr[1] = 0x10
	cpu.Gpr[2] = 0x2000
	cpu.Memory.Write32(0x2008, 0x77)
	cpu.Memory.Write32(0x2000, 0x99)

	_, err := cpu.Execute(MakeCode(OP_LOAD, MODE_CSRWR, CSR_HANDLER, 1, 0, 0))
	assert.NoError(err)
	assert.Equal(uint32(0x10), cpu.Csr[CSR_HANDLER])

	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_CSR_OR, CSR_STATUS, CSR_HANDLER, 0, 0x3))
	assert.NoError(err)
	assert.Equal(uint32(0x13), cpu.Csr[CSR_STATUS])

	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_CSRRD, 3, CSR_STATUS, 0, 0))
	assert.NoError(err)
	assert.Equal(uint32(0x13), cpu.Gpr[3])

	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_CSR_MEM, CSR_CAUSE, 2, 0, 8))
	assert.NoError(err)
	assert.Equal(uint32(0x77), cpu.Csr[CSR_CAUSE])

	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_CSR_POP, CSR_CAUSE, 2, 0, 4))
	assert.NoError(err)
	assert.Equal(uint32(0x99), cpu.Csr[CSR_CAUSE])
	assert.Equal(uint32(0x2004), cpu.Gpr[2])
}

func TestExecuteMemory(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Gpr[REG_SP] = 0x8000
	cpu.Gpr[1] = 0xdead_beef
	cpu.Gpr[2] = 0x100

	// st %r1, [%r2 + 8]
	_, err := cpu.Execute(MakeCode(OP_STORE, MODE_ST, 2, 0, 1, 8))
	assert.NoError(err)
	assert.Equal(uint32(0xdead_beef), cpu.Memory.Read32(0x108))

	// ld [%r2 + 8], %r3
	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_LD_MEM, 3, 2, 0, 8))
	assert.NoError(err)
	assert.Equal(uint32(0xdead_beef), cpu.Gpr[3])

	// st %r2, [[%r0 + 0x200]]
	cpu.Memory.Write32(0x200, 0x300)
	_, err = cpu.Execute(MakeCode(OP_STORE, MODE_ST_MEM, 0, 0, 2, 0x200))
	assert.NoError(err)
	assert.Equal(uint32(0x100), cpu.Memory.Read32(0x300))

	// push %r1, pop %r4
	_, err = cpu.Execute(MakeCode(OP_STORE, MODE_PUSH, REG_SP, 0, 1, 0xffc))
	assert.NoError(err)
	assert.Equal(uint32(0x7ffc), cpu.Gpr[REG_SP])
	assert.Equal(uint32(0xdead_beef), cpu.Memory.Read32(0x7ffc))

	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_POP, 4, REG_SP, 0, 4))
	assert.NoError(err)
	assert.Equal(uint32(0x8000), cpu.Gpr[REG_SP])
	assert.Equal(uint32(0xdead_beef), cpu.Gpr[4])
}

func TestExecuteTransfer(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Gpr[REG_SP] = 0x8000
	cpu.Gpr[REG_PC] = 0x1004
	cpu.Memory.Write32(0x1010, 0x5000)

	// call [pc + 12]
	_, err := cpu.Execute(MakeCode(OP_CALL, MODE_CALL_MEM, REG_PC, 0, 0, 12))
	assert.NoError(err)
	assert.Equal(uint32(0x5000), cpu.Gpr[REG_PC])
	assert.Equal(uint32(0x7ffc), cpu.Gpr[REG_SP])
	assert.Equal(uint32(0x1004), cpu.Memory.Read32(0x7ffc))

	// ret
	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_POP, REG_PC, REG_SP, 0, 4))
	assert.NoError(err)
	assert.Equal(uint32(0x1004), cpu.Gpr[REG_PC])
	assert.Equal(uint32(0x8000), cpu.Gpr[REG_SP])

	// int
	cpu.Csr[CSR_STATUS] = 0x3
	cpu.Csr[CSR_HANDLER] = 0x6000
	_, err = cpu.Execute(CODE_INT)
	assert.NoError(err)
	assert.Equal(uint32(0x6000), cpu.Gpr[REG_PC])
	assert.Equal(uint32(0x2), cpu.Csr[CSR_STATUS])
	assert.Equal(CAUSE_SOFTWARE, cpu.Csr[CSR_CAUSE])
	assert.Equal(uint32(0x7ff8), cpu.Gpr[REG_SP])
	assert.Equal(uint32(0x1004), cpu.Memory.Read32(0x7ff8))
	assert.Equal(uint32(0x3), cpu.Memory.Read32(0x7ffc))

	// iret
	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_CSR_MEM, CSR_STATUS, REG_SP, 0, 4))
	assert.NoError(err)
	_, err = cpu.Execute(MakeCode(OP_LOAD, MODE_POP, REG_PC, REG_SP, 0, 8))
	assert.NoError(err)
	assert.Equal(uint32(0x3), cpu.Csr[CSR_STATUS])
	assert.Equal(uint32(0x1004), cpu.Gpr[REG_PC])
	assert.Equal(uint32(0x8000), cpu.Gpr[REG_SP])
}

func TestTick(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	assert.Equal(ENTRY_ADDRESS, cpu.Gpr[REG_PC])

	cpu.Memory.Write32(ENTRY_ADDRESS, uint32(MakeCode(OP_LOAD, MODE_LD_REG, 1, 0, 0, 3)))
	cpu.Memory.Write32(ENTRY_ADDRESS+4, uint32(CODE_HALT))

	halted, err := cpu.Tick()
	assert.NoError(err)
	assert.False(halted)
	assert.Equal(uint32(3), cpu.Gpr[1])

	halted, err = cpu.Tick()
	assert.NoError(err)
	assert.True(halted)
	assert.Equal(ENTRY_ADDRESS+8, cpu.Gpr[REG_PC])
	assert.Equal(2, cpu.Ticks)
}

func TestCpuString(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Gpr[5] = 0xabc

	assert.Equal(""+
		" r0=0x00000000    r1=0x00000000    r2=0x00000000    r3=0x00000000   \n"+
		" r4=0x00000000    r5=0x00000ABC    r6=0x00000000    r7=0x00000000   \n"+
		" r8=0x00000000    r9=0x00000000   r10=0x00000000   r11=0x00000000   \n"+
		"r12=0x00000000   r13=0x00000000   r14=0x00000000   r15=0x40000000   \n",
		cpu.String())
}
