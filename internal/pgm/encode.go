package pgm

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// EncodeText writes img as a textual (P2) raster: the magic line, the
// dimension line, a max value line of 255, then one decimal sample per line
// in row-major order.
func EncodeText(w io.Writer, img *Raster) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, MagicText, img.dims); err != nil {
		return err
	}
	buf := make([]byte, 0, 4)
	for _, v := range img.pix {
		buf = strconv.AppendUint(buf[:0], uint64(v), 10)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return &IOError{Op: "write", Err: err}
		}
	}
	if err := bw.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// EncodeBinary writes img as a binary (P5) raster: the same header lines as
// EncodeText followed by one raw byte per sample, no delimiters.
func EncodeBinary(w io.Writer, img *Raster) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, MagicBinary, img.dims); err != nil {
		return err
	}
	if _, err := bw.Write(img.pix); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

func writeHeader(w io.Writer, magic string, d Dimensions) error {
	if _, err := fmt.Fprintf(w, "%s\n%d %d\n%d\n", magic, d.Width, d.Height, MaxValue); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}
