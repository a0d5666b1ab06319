package stego

import (
	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// Nibble masks.
const (
	HighNibble uint8 = 0xF0
	LowNibble  uint8 = 0x0F
)

// EmbedSample keeps the high nibble of c and replaces its low nibble with
// the high nibble of s.
func EmbedSample(c, s uint8) uint8 {
	return (c & HighNibble) | ((s & HighNibble) >> 4)
}

// ExtractSample moves the low nibble of c into the high position and
// zero-fills the low nibble.
func ExtractSample(c uint8) uint8 {
	return (c & LowNibble) << 4
}

// Embed returns a new composite raster carrying the high nibble of every
// secret sample in the low nibble of the matching cover sample. Neither input
// is modified. The cover's own low nibble is lost in the composite.
//
// Cover and secret must have identical dimensions; otherwise Embed returns a
// *pgm.DimensionError and no composite.
func Embed(cover, secret *pgm.Raster) (*pgm.Raster, error) {
	if err := checkPair("stego.Embed", cover, secret); err != nil {
		return nil, err
	}
	composite := cover.Clone()
	embedInto(composite, secret)
	return composite, nil
}

// EmbedInPlace is Embed for callers that no longer need the original cover:
// it consumes cover, overwriting its low nibble, and returns it as the
// composite.
func EmbedInPlace(cover, secret *pgm.Raster) (*pgm.Raster, error) {
	if err := checkPair("stego.EmbedInPlace", cover, secret); err != nil {
		return nil, err
	}
	embedInto(cover, secret)
	return cover, nil
}

// Extract returns a new raster approximating the embedded secret at 16 gray
// levels: every sample is the secret's original high nibble times 16.
func Extract(composite *pgm.Raster) *pgm.Raster {
	recovered := composite.Clone()
	for i := 0; i < recovered.Len(); i++ {
		recovered.SetIndex(i, ExtractSample(recovered.Index(i)))
	}
	return recovered
}

func embedInto(dst, secret *pgm.Raster) {
	for i := 0; i < dst.Len(); i++ {
		dst.SetIndex(i, EmbedSample(dst.Index(i), secret.Index(i)))
	}
}

func checkPair(op string, cover, secret *pgm.Raster) error {
	if cover == nil || secret == nil {
		return &pgm.DimensionError{Op: op}
	}
	if !cover.SameSize(secret) {
		return &pgm.DimensionError{Op: op, Want: cover.Dimensions(), Got: secret.Dimensions()}
	}
	return nil
}
