package emulator

import (
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/ss32/asm"
	"github.com/ezrec/ss32/cpu"
	"github.com/ezrec/ss32/link"
	"github.com/ezrec/ss32/source"
)

// build assembles and links programs, with the text section at the entry address.
func build(t *testing.T, programs ...string) *Emulator {
	require := require.New(t)

	lnk := link.NewLinker()
	require.NoError(lnk.Pin("text", cpu.ENTRY_ADDRESS))

	for _, program := range programs {
		cmds, err := (&source.Parser{}).Parse(strings.NewReader(program))
		require.NoError(err)
		file, err := (&asm.Assembler{}).Assemble(cmds)
		require.NoError(err)
		require.NoError(lnk.Add(file))
	}

	res, err := lnk.Link()
	require.NoError(err)

	emu := NewEmulator()
	emu.MaxTicks = 1000
	emu.Load(res.Image)

	return emu
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.Equal(cpu.ENTRY_ADDRESS, emu.Gpr[cpu.REG_PC])

	defines := maps.Collect(emu.Defines())
	assert.Equal("4", defines["WORD_SIZE"])
	assert.Equal("0x40000000", defines["ENTRY_ADDRESS"])
}

func TestEmulatorHalt(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, ".section text\nhalt\n")
	assert.NoError(emu.Run())
	assert.Equal(1, emu.Ticks)

	var out strings.Builder
	assert.NoError(emu.Dump(&out))
	assert.Equal(""+
		"-----------------------------------------------------------------\n"+
		"Emulated processor executed halt instruction\n"+
		"Emulated processor state:\n"+
		" r0=0x00000000    r1=0x00000000    r2=0x00000000    r3=0x00000000   \n"+
		" r4=0x00000000    r5=0x00000000    r6=0x00000000    r7=0x00000000   \n"+
		" r8=0x00000000    r9=0x00000000   r10=0x00000000   r11=0x00000000   \n"+
		"r12=0x00000000   r13=0x00000000   r14=0x00000000   r15=0x40000004   \n",
		out.String())
}

const arithmetic = `
	.section text
	ld $7, %r1
	ld $5, %r2
	add %r1, %r2        # r2 = 12
	ld $3, %r3
	mul %r2, %r3        # r3 = 36
	ld $100000, %r4
	sub %r3, %r4        # r4 = 99964
	ld $4, %r5
	div %r5, %r4        # r4 = 24991
	ld $1, %r6
	ld $4, %r7
	shl %r7, %r6        # r6 = 16
	not %r7
	ld $0xff0, %r8
	ld $0x0ff, %r9
	xor %r9, %r8        # r8 = 0xf0f
	and %r2, %r9        # r9 = 12
	halt
`

func TestEmulatorArithmetic(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, arithmetic)
	assert.NoError(emu.Run())

	assert.Equal([cpu.GPR_COUNT]uint32{
		0, 7, 12, 36,
		24991, 4, 16, 0xffff_fffb,
		0xf0f, 12, 0, 0,
		0, 0, 0, emu.Gpr[cpu.REG_PC],
	}, emu.Gpr)
}

func TestEmulatorDeterministic(t *testing.T) {
	assert := assert.New(t)

	var dumps []string
	for range 2 {
		emu := build(t, arithmetic)
		assert.NoError(emu.Run())

		var out strings.Builder
		assert.NoError(emu.Dump(&out))
		dumps = append(dumps, out.String())
	}

	assert.Equal(dumps[0], dumps[1])
}

func TestEmulatorBranches(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
	.section text
	ld $0, %r1          # sum
	ld $5, %r2          # counter
	ld $1, %r3
loop:
	add %r2, %r1
	sub %r3, %r2
	bne %r2, %r0, loop
	ld $-1, %r4
	bgt %r3, %r4, positive
	ld $99, %r5
positive:
	beq %r3, %r4, never
	ld $42, %r6
	halt
never:
	ld $99, %r6
	halt
	`)
	assert.NoError(emu.Run())

	assert.Equal(uint32(15), emu.Gpr[1])
	assert.Equal(uint32(0), emu.Gpr[2])
	assert.Equal(uint32(0xffff_ffff), emu.Gpr[4])
	assert.Equal(uint32(0), emu.Gpr[5])
	assert.Equal(uint32(42), emu.Gpr[6])
}

func TestEmulatorCall(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
	.section text
	.extern double
	ld $0x50000000, %sp
	ld $6, %r1
	call double
	call double
	halt
	`, `
	.section text
	.global double
double:
	push %r2
	ld %r1, %r2
	add %r2, %r1
	pop %r2
	ret
	`)
	emu.Gpr[2] = 0x1234
	assert.NoError(emu.Run())

	assert.Equal(uint32(24), emu.Gpr[1])
	assert.Equal(uint32(0x1234), emu.Gpr[2])
	assert.Equal(uint32(0x5000_0000), emu.Gpr[cpu.REG_SP])
}

func TestEmulatorInterrupt(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, `
	.section text
	ld $0x50000000, %sp
	ld $isr, %r1
	csrwr %r1, %handler
	ld $1, %r2
	csrwr %r2, %status
	int
	ld $5, %r4
	halt
isr:
	csrrd %cause, %r3
	csrrd %status, %r5
	iret
	`)
	assert.NoError(emu.Run())

	assert.Equal(uint32(4), emu.Gpr[3])
	assert.Equal(uint32(5), emu.Gpr[4])
	assert.Equal(uint32(0), emu.Gpr[5])
	assert.Equal(uint32(1), emu.Csr[cpu.CSR_STATUS])
	assert.Equal(uint32(0x5000_0000), emu.Gpr[cpu.REG_SP])
}

func TestEmulatorErrors(t *testing.T) {
	assert := assert.New(t)

	emu := build(t, ".section text\nld $0, %r1\ndiv %r1, %r2\nhalt\n")
	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrDivideByZero)
	var rt *ErrRuntime
	if assert.True(errors.As(err, &rt)) {
		assert.Equal(cpu.ENTRY_ADDRESS+4, rt.Pc)
	}

	emu = build(t, ".section text\nloop: jmp loop\n")
	emu.MaxTicks = 100
	err = emu.Run()
	assert.ErrorIs(err, ErrTickLimit)
	assert.Equal(100, emu.Ticks)

	emu = build(t, ".section text\n.word 0xa0000000\n")
	err = emu.Run()
	assert.True(errors.Is(err, cpu.ErrOpcode(0)))
}
