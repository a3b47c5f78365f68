package main

import (
	"bytes"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/ezrec/ss32/asm"
	"github.com/ezrec/ss32/emulator"
	"github.com/ezrec/ss32/source"
)

var asmOutput string
var asmDefines []string

var asmCmd = &cobra.Command{
	Use:   "asm [-o output.o] input.s",
	Short: f("Assemble a source file into an object file"),
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAsm(args[0], asmOutput)
	},
}

func init() {
	asmCmd.Flags().StringVarP(&asmOutput, "output", "o", "", f("object file to write (default: input with .o suffix)"))
	asmCmd.Flags().StringArrayVarP(&asmDefines, "define", "D", nil, f("predefine NAME=VALUE"))
	rootCmd.AddCommand(asmCmd)
}

func runAsm(input string, output string) {
	if len(output) == 0 {
		output = strings.TrimSuffix(input, ".s") + ".o"
	}

	inf, err := os.Open(input)
	if err != nil {
		glog.Exitf("%v", err)
	}
	defer inf.Close()

	p := &source.Parser{Verbose: verbose()}
	for equ, value := range emulator.NewEmulator().Defines() {
		p.Predefine(equ, value)
	}
	for _, define := range asmDefines {
		equ, value, ok := strings.Cut(define, "=")
		if !ok {
			value = "1"
		}
		p.Predefine(equ, value)
	}

	cmds, err := p.Parse(inf)
	if err != nil {
		glog.Exitf("%v: %v", input, err)
	}

	assembler := &asm.Assembler{Verbose: verbose()}
	file, err := assembler.Assemble(cmds)
	if err != nil {
		glog.Exitf("%v: %v", input, err)
	}

	var buff bytes.Buffer
	_, err = file.WriteTo(&buff)
	if err != nil {
		glog.Exitf("%v: %v", output, err)
	}

	err = os.WriteFile(output, buff.Bytes(), 0o644)
	if err != nil {
		glog.Exitf("%v", err)
	}

	glog.Infof("%v: %d bytes", output, buff.Len())
}
