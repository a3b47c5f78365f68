package main

import (
	"bufio"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/ezrec/ss32/emulator"
	"github.com/ezrec/ss32/object"
)

var emuMaxTicks int

var emuCmd = &cobra.Command{
	Use:   "emu [--max-ticks N] image.hex",
	Short: f("Run a memory image until it halts"),
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runEmu(args[0])
	},
}

func init() {
	emuCmd.Flags().IntVar(&emuMaxTicks, "max-ticks", 0, f("stop after this many instructions (0 is unlimited)"))
	rootCmd.AddCommand(emuCmd)
}

func runEmu(input string) {
	inf, err := os.Open(input)
	if err != nil {
		glog.Exitf("%v", err)
	}
	defer inf.Close()

	img, err := object.ReadImage(bufio.NewReader(inf))
	if err != nil {
		glog.Exitf("%v: %v", input, err)
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose()
	emu.MaxTicks = emuMaxTicks
	emu.Load(img)

	err = emu.Run()
	if err != nil {
		glog.Exitf("%v: %v", input, err)
	}

	err = emu.Dump(os.Stdout)
	if err != nil {
		glog.Exitf("%v", err)
	}
}
