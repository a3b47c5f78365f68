// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/ss32/cpu"
	"github.com/ezrec/ss32/internal"
	"github.com/ezrec/ss32/object"
)

var _emulator_defines = map[string]string{
	"WORD_SIZE": fmt.Sprintf("%d", object.WORD_SIZE),
}

// Emulator state. CPU + loaded memory image.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the CPU simulation.
	MaxTicks int  // If non-zero, Run stops with ErrTickLimit after this many instructions.
}

// NewEmulator creates a new emulator with empty memory.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Load replaces memory with the memory image, and resets the CPU.
func (emu *Emulator) Load(img *object.Image) {
	emu.Cpu.Memory = cpu.NewMemory()
	for _, blk := range img.Blocks {
		if emu.Verbose {
			log.Printf("emu: load 0x%08x size 0x%x", blk.Address, len(blk.Content))
		}
		emu.Cpu.Memory.Load(blk.Address, blk.Content)
	}

	emu.Cpu.Reset()
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Gpr[cpu.REG_PC]
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, Err: err}
		}
	}()

	done, err = emu.Cpu.Tick()

	return
}

// Run ticks the emulator until a halt instruction.
func (emu *Emulator) Run() (err error) {
	for {
		if emu.MaxTicks > 0 && emu.Cpu.Ticks >= emu.MaxTicks {
			err = &ErrRuntime{Pc: emu.Cpu.Gpr[cpu.REG_PC], Err: ErrTickLimit}
			return
		}

		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}

// Dump writes the processor state report.
func (emu *Emulator) Dump(w io.Writer) (err error) {
	var text strings.Builder

	text.WriteString(strings.Repeat("-", 65) + "\n")
	text.WriteString("Emulated processor executed halt instruction\n")
	text.WriteString("Emulated processor state:\n")
	text.WriteString(emu.Cpu.String())

	_, err = io.WriteString(w, text.String())

	return
}
