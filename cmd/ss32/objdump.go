package main

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/ezrec/ss32/cpu"
	"github.com/ezrec/ss32/object"
)

var objdumpCmd = &cobra.Command{
	Use:   "objdump input.o",
	Short: f("Print the contents of an object file"),
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runObjdump(args[0])
	},
}

func init() {
	rootCmd.AddCommand(objdumpCmd)
}

type dumpSymbol struct {
	Name    string
	Section string
	Value   string
	Kind    string
}

type dumpSection struct {
	Name        string
	Length      uint32
	Size        uint32
	Code        []string
	Literals    []string
	Symbols     []string
	Relocations []string
}

type dumpFile struct {
	Symbols  []dumpSymbol
	Sections []dumpSection
}

func dumpObject(file *object.File) (dump dumpFile) {
	for name, sym := range file.Symbols.All() {
		dump.Symbols = append(dump.Symbols, dumpSymbol{
			Name:    name,
			Section: sym.Section,
			Value:   fmt.Sprintf("0x%08x", sym.Value),
			Kind:    sym.Kind.String(),
		})
	}

	for sec := range file.Sections.All() {
		ds := dumpSection{
			Name:   sec.Name,
			Length: sec.Length,
			Size:   sec.Size(),
		}
		for offset := uint32(0); offset+object.WORD_SIZE <= sec.Length; offset += object.WORD_SIZE {
			word, _ := sec.Word(offset)
			ds.Code = append(ds.Code, fmt.Sprintf("%04x: %v", offset, cpu.Code(word)))
		}
		for value, offset := range sec.Literals() {
			ds.Literals = append(ds.Literals, fmt.Sprintf("%04x: %d", offset, value))
		}
		for name, offset := range sec.Symbols() {
			ds.Symbols = append(ds.Symbols, fmt.Sprintf("%04x: %v", offset, name))
		}
		if rt, ok := file.Relocations.Lookup(sec.Name); ok {
			for _, reloc := range *rt {
				ds.Relocations = append(ds.Relocations, fmt.Sprintf("%04x: %v", reloc.Offset, reloc.Symbol))
			}
		}
		dump.Sections = append(dump.Sections, ds)
	}

	return
}

func runObjdump(input string) {
	file, err := readObject(input)
	if err != nil {
		glog.Exitf("%v: %v", input, err)
	}

	pp.Println(dumpObject(file))
}
