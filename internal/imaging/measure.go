package imaging

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// DistortionResult contains the difference between two equally sized rasters
type DistortionResult struct {
	MSE              float64 `json:"mse"`
	PSNR             float64 `json:"psnr_db"` // +Inf when identical, encoded as null
	MaxAbsError      int     `json:"max_abs_error"`
	MeanAbsError     float64 `json:"mean_abs_error"`
	SamplesDifferent int     `json:"samples_different"`
	TotalSamples     int     `json:"total_samples"`
	Identical        bool    `json:"identical"`
}

// CompareRasters measures how far b is from a, sample by sample.
func CompareRasters(a, b *pgm.Raster) (*DistortionResult, error) {
	if !a.SameSize(b) {
		return nil, &pgm.DimensionError{Op: "imaging.CompareRasters", Want: a.Dimensions(), Got: b.Dimensions()}
	}

	var sumSq, sumAbs float64
	maxAbs, different := 0, 0
	for i := 0; i < a.Len(); i++ {
		d := absDiff(a.Index(i), b.Index(i))
		if d == 0 {
			continue
		}
		different++
		sumAbs += float64(d)
		sumSq += float64(d * d)
		if d > maxAbs {
			maxAbs = d
		}
	}

	n := float64(a.Len())
	mse := sumSq / n
	psnr := math.Inf(1)
	if mse > 0 {
		psnr = 10 * math.Log10(float64(pgm.MaxValue*pgm.MaxValue)/mse)
	}

	return &DistortionResult{
		MSE:              math.Round(mse*1000) / 1000,
		PSNR:             roundFinite(psnr, 100),
		MaxAbsError:      maxAbs,
		MeanAbsError:     math.Round(sumAbs/n*1000) / 1000,
		SamplesDifferent: different,
		TotalSamples:     a.Len(),
		Identical:        different == 0,
	}, nil
}

// MarshalJSON encodes an infinite PSNR as null.
func (d DistortionResult) MarshalJSON() ([]byte, error) {
	type plain DistortionResult
	out := struct {
		plain
		PSNR *float64 `json:"psnr_db"`
	}{plain: plain(d)}
	if !math.IsInf(d.PSNR, 0) {
		psnr := d.PSNR
		out.PSNR = &psnr
	}
	return json.Marshal(out)
}

// PSNRString formats PSNR for logs and terminals.
func (d DistortionResult) PSNRString() string {
	if math.IsInf(d.PSNR, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f dB", d.PSNR)
}

func roundFinite(v, scale float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	return math.Round(v*scale) / scale
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
