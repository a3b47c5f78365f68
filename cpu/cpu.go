package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"
)

const (
	ENTRY_ADDRESS = uint32(0x4000_0000) // Initial program counter.

	CAUSE_SOFTWARE = uint32(4) // Cause of a software interrupt.

	STATUS_INTERRUPT_MASK = uint32(1 << 0) // Cleared on interrupt entry.
)

var _cpu_defines = map[string]string{
	"ENTRY_ADDRESS":         fmt.Sprintf("0x%x", ENTRY_ADDRESS),
	"CAUSE_SOFTWARE":        fmt.Sprintf("%d", CAUSE_SOFTWARE),
	"STATUS_INTERRUPT_MASK": fmt.Sprintf("0x%x", STATUS_INTERRUPT_MASK),
}

// Cpu is the simulation context of an SS32 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Gpr    [GPR_COUNT]uint32 // General-purpose registers.
	Csr    [CSR_COUNT]uint32 // Control and status registers.
	Memory *Memory           // Flat memory.

	Ticks int // Instructions executed.
}

// NewCpu creates a CPU with empty memory, ready to run from ENTRY_ADDRESS.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: NewMemory(),
	}
	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset clears the registers. Memory is kept.
func (cpu *Cpu) Reset() {
	cpu.Gpr = [GPR_COUNT]uint32{}
	cpu.Csr = [CSR_COUNT]uint32{}
	cpu.Gpr[REG_PC] = ENTRY_ADDRESS
	cpu.Ticks = 0
}

// String returns the register file, four registers per line.
func (cpu *Cpu) String() string {
	var text strings.Builder
	for n, value := range cpu.Gpr {
		fmt.Fprintf(&text, "%3s=0x%08X   ", fmt.Sprintf("r%d", n), value)
		if (n+1)%4 == 0 {
			text.WriteString("\n")
		}
	}
	return text.String()
}

func (cpu *Cpu) push(value uint32) {
	cpu.Gpr[REG_SP] -= 4
	cpu.Memory.Write32(cpu.Gpr[REG_SP], value)
}

func (cpu *Cpu) csr(reg CodeReg) (value *uint32, err error) {
	if reg >= CSR_COUNT {
		err = ErrCsrInvalid
		return
	}
	value = &cpu.Csr[reg]
	return
}

// Tick fetches and executes a single instruction.
func (cpu *Cpu) Tick() (halted bool, err error) {
	pc := cpu.Gpr[REG_PC]
	code := Code(cpu.Memory.Read32(pc))
	if cpu.Verbose {
		log.Printf("%08x: %v", pc, code)
	}

	cpu.Gpr[REG_PC] += 4
	cpu.Ticks++

	return cpu.Execute(code)
}

// Execute runs a single instruction. The program counter must already
// point past it.
func (cpu *Cpu) Execute(code Code) (halted bool, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	defer func() {
		cpu.Gpr[REG_R0] = 0
	}()

	op, mode, a, b, c, disp := code.Decode()
	gpr := &cpu.Gpr

	switch op {
	case OP_HALT:
		if code != CODE_HALT {
			return false, ErrOpcodeInvalid
		}
		halted = true
	case OP_INT:
		if code != CODE_INT {
			return false, ErrOpcodeInvalid
		}
		cpu.push(cpu.Csr[CSR_STATUS])
		cpu.push(gpr[REG_PC])
		cpu.Csr[CSR_CAUSE] = CAUSE_SOFTWARE
		cpu.Csr[CSR_STATUS] &^= STATUS_INTERRUPT_MASK
		gpr[REG_PC] = cpu.Csr[CSR_HANDLER]
	case OP_CALL:
		target := gpr[a] + gpr[b] + disp
		switch mode {
		case MODE_CALL:
		case MODE_CALL_MEM:
			target = cpu.Memory.Read32(target)
		default:
			return false, ErrOpcodeInvalid
		}
		cpu.push(gpr[REG_PC])
		gpr[REG_PC] = target
	case OP_JMP:
		var taken bool
		switch mode &^ MODE_MEM {
		case MODE_JMP:
			taken = true
		case MODE_BEQ:
			taken = gpr[b] == gpr[c]
		case MODE_BNE:
			taken = gpr[b] != gpr[c]
		case MODE_BGT:
			taken = int32(gpr[b]) > int32(gpr[c])
		default:
			return false, ErrOpcodeInvalid
		}
		if taken {
			target := gpr[a] + disp
			if mode&MODE_MEM != 0 {
				target = cpu.Memory.Read32(target)
			}
			gpr[REG_PC] = target
		}
	case OP_XCHG:
		if mode != 0 {
			return false, ErrOpcodeInvalid
		}
		gpr[b], gpr[c] = gpr[c], gpr[b]
	case OP_ARITH:
		x, y := int32(gpr[b]), int32(gpr[c])
		switch mode {
		case MODE_ADD:
			gpr[a] = uint32(x + y)
		case MODE_SUB:
			gpr[a] = uint32(x - y)
		case MODE_MUL:
			gpr[a] = uint32(x * y)
		case MODE_DIV:
			if y == 0 {
				return false, ErrDivideByZero
			}
			gpr[a] = uint32(x / y)
		default:
			return false, ErrOpcodeInvalid
		}
	case OP_LOGIC:
		switch mode {
		case MODE_NOT:
			gpr[a] = ^gpr[b]
		case MODE_AND:
			gpr[a] = gpr[b] & gpr[c]
		case MODE_OR:
			gpr[a] = gpr[b] | gpr[c]
		case MODE_XOR:
			gpr[a] = gpr[b] ^ gpr[c]
		default:
			return false, ErrOpcodeInvalid
		}
	case OP_SHIFT:
		switch mode {
		case MODE_SHL:
			gpr[a] = gpr[b] << gpr[c]
		case MODE_SHR:
			gpr[a] = uint32(int32(gpr[b]) >> gpr[c])
		default:
			return false, ErrOpcodeInvalid
		}
	case OP_STORE:
		switch mode {
		case MODE_ST:
			cpu.Memory.Write32(gpr[a]+gpr[b]+disp, gpr[c])
		case MODE_PUSH:
			cpu.push(gpr[c])
		case MODE_ST_MEM:
			cpu.Memory.Write32(cpu.Memory.Read32(gpr[a]+gpr[b]+disp), gpr[c])
		default:
			return false, ErrOpcodeInvalid
		}
	case OP_LOAD:
		err = cpu.load(mode, a, b, c, disp)
		if err != nil {
			return
		}
	default:
		return false, ErrOpcodeInvalid
	}

	return
}

func (cpu *Cpu) load(mode CodeMode, a, b, c CodeReg, disp uint32) (err error) {
	gpr := &cpu.Gpr
	mem := cpu.Memory

	switch mode {
	case MODE_CSRRD:
		var src *uint32
		src, err = cpu.csr(b)
		if err != nil {
			return
		}
		gpr[a] = *src
	case MODE_LD_REG:
		gpr[a] = gpr[b] + disp
	case MODE_LD_MEM:
		gpr[a] = mem.Read32(gpr[b] + gpr[c] + disp)
	case MODE_POP:
		gpr[a] = mem.Read32(gpr[b])
		gpr[b] += disp
	case MODE_CSRWR, MODE_CSR_OR, MODE_CSR_MEM, MODE_CSR_POP:
		var dst *uint32
		dst, err = cpu.csr(a)
		if err != nil {
			return
		}
		switch mode {
		case MODE_CSRWR:
			*dst = gpr[b]
		case MODE_CSR_OR:
			var src *uint32
			src, err = cpu.csr(b)
			if err != nil {
				return
			}
			*dst = *src | disp
		case MODE_CSR_MEM:
			*dst = mem.Read32(gpr[b] + gpr[c] + disp)
		case MODE_CSR_POP:
			*dst = mem.Read32(gpr[b])
			gpr[b] += disp
		}
	default:
		err = ErrOpcodeInvalid
	}

	return
}
