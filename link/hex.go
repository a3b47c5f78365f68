package link

import (
	"bufio"
	"fmt"
	"io"
)

const HEX_ROW = 8 // Bytes per hex listing row.

// WriteHex writes the human readable listing of the linked sections.
//
// Each row holds eight bytes starting at an 8-byte aligned address. Bytes
// not covered by any section inside a partially used row are shown as '--'.
func (res *Result) WriteHex(w io.Writer) (err error) {
	out := bufio.NewWriter(w)

	var row uint64 // Address of the current row.
	col := 0       // Bytes already printed in the current row.

	for _, sec := range res.Sections {
		base := uint64(sec.Base)
		if col != 0 && base < row+HEX_ROW {
			for ; uint64(col) < base%HEX_ROW; col++ {
				fmt.Fprint(out, "-- ")
			}
		} else {
			if col != 0 {
				fmt.Fprintln(out)
			}
			col = int(base % HEX_ROW)
			row = base - uint64(col)
			if col != 0 {
				fmt.Fprintf(out, "%04X: ", row)
				for n := 0; n < col; n++ {
					fmt.Fprint(out, "-- ")
				}
			}
		}

		for _, b := range sec.Content {
			if col == 0 {
				fmt.Fprintf(out, "%04X: ", row)
			}
			fmt.Fprintf(out, "%02X ", b)
			col++
			if col == HEX_ROW {
				col = 0
				row += HEX_ROW
				fmt.Fprintln(out)
			}
		}
	}

	if col != 0 {
		fmt.Fprintln(out)
	}

	err = out.Flush()

	return
}
