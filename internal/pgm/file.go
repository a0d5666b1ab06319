package pgm

import (
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// XZSuffix marks raster files stored xz-compressed.
const XZSuffix = ".xz"

// Open returns a reader over the raster bytes stored at path, decompressing
// files whose name ends in ".xz".
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	if !strings.HasSuffix(path, XZSuffix) {
		return f, nil
	}
	xr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	return xzReadCloser{Reader: xr, Closer: f}, nil
}

type xzReadCloser struct {
	io.Reader
	io.Closer
}

// ReadFile opens path and decodes it as either encoding.
func ReadFile(path string, want Dimensions) (*Raster, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, err := Decode(rc, want)
	if err != nil {
		return nil, withPath(err, path)
	}
	return img, nil
}

// WriteTextFile creates (or truncates) path and writes img as P2.
func WriteTextFile(path string, img *Raster) error {
	return writeFile(path, img, EncodeText)
}

// WriteBinaryFile creates (or truncates) path and writes img as P5.
func WriteBinaryFile(path string, img *Raster) error {
	return writeFile(path, img, EncodeBinary)
}

func writeFile(path string, img *Raster, encode func(io.Writer, *Raster) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Op: "close", Path: path, Err: cerr}
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if !strings.HasSuffix(path, XZSuffix) {
		return withPath(encode(f, img), path)
	}

	xw, err := xz.NewWriter(f)
	if err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := encode(xw, img); err != nil {
		return withPath(err, path)
	}
	if err := xw.Close(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func withPath(err error, path string) error {
	if ioErr, ok := err.(*IOError); ok && ioErr.Path == "" {
		ioErr.Path = path
	}
	return err
}
