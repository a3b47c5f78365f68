// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ezrec/ss32/translate"
)

var f = translate.From

var rootCmd = &cobra.Command{
	Use:   "ss32",
	Short: f("SS32 assembler, linker and emulator"),
	Long: f(`ss32 is the toolchain for the SS32 32-bit processor.

Assemble each source file into an object file with 'ss32 asm', combine the
object files into a memory image with 'ss32 link', and run the image with
'ss32 emu'. Use '-v 1' to log what each stage is doing.`),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Flag values were already set through pflag.
		flag.CommandLine.Parse(nil)
	},
}

func init() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

// verbose returns true if library logging was requested with -v.
func verbose() bool {
	return bool(glog.V(1))
}

func main() {
	defer glog.Flush()

	err := rootCmd.Execute()
	if err != nil {
		glog.Exitf("%v", err)
	}
}
