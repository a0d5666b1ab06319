// Package imaging provides inspection, measurement, and rendering helpers for
// grayscale rasters.
//
// This package sits beside the codec in package pgm and the transforms in
// package stego. It caches decoded rasters, reports file metadata and digests,
// measures distortion between rasters, renders previews and nibble planes,
// and imports ordinary image files as rasters.
//
// # Coordinate System
//
// Raster coordinates are (row, col) with (0,0) at the top-left, matching the
// row-major sample order. Preview regions use image-style X/Y instead, where
// X is the column and Y is the row:
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// The RasterCache type is safe for concurrent use. Rasters returned from the
// cache are shared and must not be mutated; Clone them first.
//
// # Distortion Metrics
//
// CompareRasters reports mean squared error, PSNR in decibels against a peak
// of 255, and absolute error statistics. Embedding replaces the cover's low
// nibble, so cover-to-composite error never exceeds 15 per sample, and
// extraction zero-fills the secret's low nibble, so secret-to-recovered error
// never exceeds 15 either.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Coordinates outside raster bounds
//   - Invalid region specifications (x1 >= x2 or y1 >= y2)
//   - Rasters of different sizes (errors.Is pgm.ErrDimensionMismatch)
//   - File I/O and decode errors, passed through from package pgm
package imaging
