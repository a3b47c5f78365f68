package main

import (
	"bufio"
	"bytes"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/ezrec/ss32/link"
	"github.com/ezrec/ss32/object"
)

var linkOutput string
var linkHex bool
var linkPlaces []string

var linkCmd = &cobra.Command{
	Use:   "link --hex [-o output.hex] [--place NAME@ADDRESS]... input.o...",
	Short: f("Link object files into a memory image"),
	Long: f(`Link places the sections of every input file, in command line order,
resolves their symbols and writes two files: the memory image (OUTPUT)
and its hexadecimal listing (OUTPUT.txt).`),
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runLink(args, linkOutput)
	},
}

func init() {
	linkCmd.Flags().StringVarP(&linkOutput, "output", "o", "a.hex", f("memory image to write"))
	linkCmd.Flags().BoolVar(&linkHex, "hex", false, f("write a memory image (required)"))
	linkCmd.Flags().StringArrayVar(&linkPlaces, "place", nil, f("place section NAME at hexadecimal ADDRESS"))
	rootCmd.AddCommand(linkCmd)
}

func readObject(input string) (file *object.File, err error) {
	inf, err := os.Open(input)
	if err != nil {
		return
	}
	defer inf.Close()

	file, err = object.ReadFile(bufio.NewReader(inf))

	return
}

func runLink(inputs []string, output string) {
	if !linkHex {
		glog.Exitf("%v", f("link: --hex is required"))
	}

	lnk := link.NewLinker()
	lnk.Verbose = verbose()

	for _, place := range linkPlaces {
		name, address, err := link.ParsePin(place)
		if err != nil {
			glog.Exitf("--place %v: %v", place, err)
		}
		err = lnk.Pin(name, address)
		if err != nil {
			glog.Exitf("--place %v: %v", place, err)
		}
	}

	for _, input := range inputs {
		file, err := readObject(input)
		if err != nil {
			glog.Exitf("%v: %v", input, err)
		}
		err = lnk.Add(file)
		if err != nil {
			glog.Exitf("%v: %v", input, err)
		}
	}

	res, err := lnk.Link()
	if err != nil {
		glog.Exitf("%v", err)
	}

	var image, listing bytes.Buffer
	_, err = res.Image.WriteTo(&image)
	if err != nil {
		glog.Exitf("%v: %v", output, err)
	}
	err = res.WriteHex(&listing)
	if err != nil {
		glog.Exitf("%v: %v", output, err)
	}

	err = os.WriteFile(output, image.Bytes(), 0o644)
	if err != nil {
		glog.Exitf("%v", err)
	}
	err = os.WriteFile(output+".txt", listing.Bytes(), 0o644)
	if err != nil {
		glog.Exitf("%v", err)
	}

	glog.Infof("%v: %d blocks, %d bytes", output, len(res.Image.Blocks), res.Image.Size())
}
