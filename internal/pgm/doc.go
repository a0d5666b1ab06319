// Package pgm implements the 8-bit grayscale raster model and its textual
// (P2) and binary (P5) encodings.
//
// # Raster Model
//
// A Raster holds Width*Height samples in row-major order, so the sample at
// (row, col) lives at flat index row*Width+col. The maximum sample value is
// fixed at 255. Dimensions are immutable once a raster exists, and indexing
// outside the grid panics with *IndexError rather than returning an error.
//
// # Encodings
//
// Textual rasters look like:
//
//	P2
//	# optional comment lines
//	<width> <height>
//	255
//	<width*height whitespace-separated decimal samples>
//
// Binary rasters use the magic P5 and replace the decimal samples with
// exactly width*height raw bytes following a single whitespace byte after
// the max value.
//
// Decoders take the expected Dimensions from the caller. A non-zero value
// must match the header exactly; the zero value trusts the header.
//
// # Errors
//
//   - *FormatError (errors.Is ErrFormat): bad magic, bad dimensions,
//     bad header, truncated data, or bad sample
//   - *IOError (errors.Is ErrIO): open, create, read, write, or close failures
//   - *DimensionError (errors.Is ErrDimensionMismatch): size disagreement
//
// # Compression
//
// ReadFile and the Write*File helpers transparently handle paths ending in
// ".xz".
package pgm
