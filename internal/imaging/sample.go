package imaging

import (
	"fmt"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// SampleResult describes one raster sample split into its nibbles.
//
// For a composite raster LowNibble is the embedded secret nibble and Recovered
// is the secret sample extraction would produce from it; for a cover or
// secret raster HighNibble is the part that survives embedding.
type SampleResult struct {
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Value      uint8  `json:"value"`
	Hex        string `json:"hex"`    // "0xB7"
	Binary     string `json:"binary"` // "10110111"
	HighNibble uint8  `json:"high_nibble"`
	LowNibble  uint8  `json:"low_nibble"`
	Recovered  uint8  `json:"recovered"`
}

// SampleNibbles reads the sample at (row, col).
//
// Unlike pgm.Raster.At, which panics on a bad coordinate, this returns an
// error: coordinates here usually come from user input.
func SampleNibbles(img *pgm.Raster, row, col int) (*SampleResult, error) {
	if row < 0 || row >= img.Height() || col < 0 || col >= img.Width() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside raster bounds %s", row, col, img.Dimensions())
	}

	v := img.At(row, col)
	return &SampleResult{
		Row:        row,
		Col:        col,
		Value:      v,
		Hex:        fmt.Sprintf("0x%02X", v),
		Binary:     fmt.Sprintf("%08b", v),
		HighNibble: v >> 4,
		LowNibble:  v & 0x0F,
		Recovered:  (v & 0x0F) << 4,
	}, nil
}

// LabeledPoint is a sample coordinate with an optional descriptive label.
type LabeledPoint struct {
	Row   int
	Col   int
	Label string
}

// LabeledSample pairs a sample with the label it was requested under.
type LabeledSample struct {
	Label  string       `json:"label,omitempty"`
	Sample SampleResult `json:"sample"`
}

// MultiSampleResult contains samples in the same order as the input points.
type MultiSampleResult struct {
	Samples []LabeledSample `json:"samples"`
}

// SampleMulti reads several coordinates in one call. Any out-of-range point
// fails the whole call with no partial results.
func SampleMulti(img *pgm.Raster, points []LabeledPoint) (*MultiSampleResult, error) {
	results := make([]LabeledSample, 0, len(points))

	for _, p := range points {
		s, err := SampleNibbles(img, p.Row, p.Col)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.Row, p.Col, err)
		}
		results = append(results, LabeledSample{Label: p.Label, Sample: *s})
	}

	return &MultiSampleResult{Samples: results}, nil
}
