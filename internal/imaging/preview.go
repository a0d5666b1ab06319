package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// Region is a rectangle in raster coordinates: (X1,Y1) inclusive, (X2,Y2)
// exclusive, X along columns and Y along rows.
type Region struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// PreviewResult describes a rendered preview. Exactly one of Path and
// ImageBase64 is set.
type PreviewResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Path        string `json:"path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type,omitempty"`
}

// Plane selects a nibble for BitPlane.
type Plane string

const (
	PlaneHigh Plane = "high"
	PlaneLow  Plane = "low"
)

// Preview renders img for viewing, optionally cropped to region and scaled.
//
// Scaling uses nearest-neighbor resampling so individual samples stay
// distinguishable. When outPath is empty the result is returned as a base64
// PNG; otherwise the image is saved to outPath in the format implied by its
// extension (png, jpg, gif, tif, bmp).
func Preview(img image.Image, region *Region, scale float64, outPath string) (*PreviewResult, error) {
	out := img
	if region != nil {
		bounds := img.Bounds()
		if region.X1 < bounds.Min.X || region.Y1 < bounds.Min.Y || region.X2 > bounds.Max.X || region.Y2 > bounds.Max.Y {
			return nil, fmt.Errorf("preview region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
				region.X1, region.Y1, region.X2, region.Y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
		}
		if region.X1 >= region.X2 || region.Y1 >= region.Y2 {
			return nil, fmt.Errorf("invalid preview region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(img, image.Rect(region.X1, region.Y1, region.X2, region.Y2))
	}

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(out.Bounds().Dx()) * scale)
		newHeight := int(float64(out.Bounds().Dy()) * scale)
		if newWidth < 1 || newHeight < 1 {
			return nil, fmt.Errorf("scale %.3f collapses the preview to nothing", scale)
		}
		out = imaging.Resize(out, newWidth, newHeight, imaging.NearestNeighbor)
	}

	result := &PreviewResult{
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
	}

	if outPath != "" {
		if err := imaging.Save(out, outPath); err != nil {
			return nil, fmt.Errorf("failed to save preview: %w", err)
		}
		result.Path = outPath
		return result, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	result.ImageBase64 = base64.StdEncoding.EncodeToString(buf.Bytes())
	result.MimeType = "image/png"
	return result, nil
}

// BitPlane isolates one nibble of every sample and stretches it to the full
// 0-255 range (nibble n becomes n*17), making hidden content visible.
func BitPlane(img *pgm.Raster, plane Plane) (*image.Gray, error) {
	var shift uint
	switch plane {
	case PlaneHigh:
		shift = 4
	case PlaneLow:
		shift = 0
	default:
		return nil, fmt.Errorf("unknown plane: %s", plane)
	}

	out := image.NewGray(image.Rect(0, 0, img.Width(), img.Height()))
	for i := 0; i < img.Len(); i++ {
		out.Pix[i] = ((img.Index(i) >> shift) & 0x0F) * 17
	}
	return out, nil
}

// DistortionMap renders the per-sample absolute difference between a and b
// as a heat map blended in Lab space from dark blue (no change) to red (the
// largest difference present).
func DistortionMap(a, b *pgm.Raster) (*image.RGBA, error) {
	if !a.SameSize(b) {
		return nil, &pgm.DimensionError{Op: "imaging.DistortionMap", Want: a.Dimensions(), Got: b.Dimensions()}
	}

	maxDiff := 0
	for i := 0; i < a.Len(); i++ {
		if d := absDiff(a.Index(i), b.Index(i)); d > maxDiff {
			maxDiff = d
		}
	}

	cold := colorful.Color{R: 0.04, G: 0.08, B: 0.35}
	hot := colorful.Color{R: 0.95, G: 0.15, B: 0.10}
	palette := make([]color.RGBA, maxDiff+1)
	for d := range palette {
		t := 0.0
		if maxDiff > 0 {
			t = float64(d) / float64(maxDiff)
		}
		r, g, bl := cold.BlendLab(hot, t).Clamped().RGB255()
		palette[d] = color.RGBA{R: r, G: g, B: bl, A: 255}
	}

	out := image.NewRGBA(image.Rect(0, 0, a.Width(), a.Height()))
	for i := 0; i < a.Len(); i++ {
		c := palette[absDiff(a.Index(i), b.Index(i))]
		out.Pix[i*4] = c.R
		out.Pix[i*4+1] = c.G
		out.Pix[i*4+2] = c.B
		out.Pix[i*4+3] = c.A
	}
	return out, nil
}
