package pgm

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error in this package matches exactly one of
// these through errors.Is.
var (
	// ErrIO indicates a stream could not be opened, read, or written.
	ErrIO = errors.New("io error")
	// ErrFormat indicates a structurally invalid raster encoding.
	ErrFormat = errors.New("format error")
	// ErrDimensionMismatch indicates two rasters (or a raster and a buffer)
	// disagree on size.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIndexOutOfRange is carried by the panic raised on out-of-range access.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Reasons reported by FormatError.
const (
	ReasonBadMagic      = "bad magic"
	ReasonBadDimensions = "bad dimensions"
	ReasonBadHeader     = "bad header"
	ReasonTruncated     = "truncated data"
	ReasonBadSample     = "bad sample"
)

// FormatError reports which structural check failed while decoding.
type FormatError struct {
	Reason string // One of the Reason* constants
	Detail string // Optional context such as the offending token
}

func (e *FormatError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("format error: %s: %s", e.Reason, e.Detail)
	}
	return fmt.Sprintf("format error: %s", e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func formatErrorf(reason, format string, args ...any) *FormatError {
	return &FormatError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IOError wraps a failure of the underlying file or stream.
type IOError struct {
	Op   string // "open", "create", "read", "write", "close"
	Path string // Empty for plain streams
	Err  error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// DimensionError reports a size disagreement between two rasters.
type DimensionError struct {
	Op   string
	Want Dimensions
	Got  Dimensions
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch: want %s, got %s", e.Op, e.Want, e.Got)
}

func (e *DimensionError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

// IndexError is the panic value for out-of-range sample access.
type IndexError struct {
	Row, Col int // -1 when the flat index form was used
	Index    int
	Dims     Dimensions
}

func (e *IndexError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("index out of range: (%d,%d) in %s raster", e.Row, e.Col, e.Dims)
	}
	return fmt.Sprintf("index out of range: %d in %s raster", e.Index, e.Dims)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
