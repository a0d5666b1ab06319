package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

// ImportImage converts an ordinary image file (PNG, JPEG, GIF, TIFF, BMP)
// into a grayscale raster suitable as a cover or secret.
//
// When dims is non-zero the image is resized to exactly those dimensions
// with a Lanczos filter before conversion; the zero value keeps the source
// size. Luminance uses bild's grayscale weights.
func ImportImage(path string, dims pgm.Dimensions) (*pgm.Raster, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return FromImage(src, dims)
}

// FromImage is ImportImage for an already decoded image.
func FromImage(src image.Image, dims pgm.Dimensions) (*pgm.Raster, error) {
	if !dims.IsZero() {
		if !dims.Valid() {
			return nil, fmt.Errorf("invalid target dimensions %s", dims)
		}
		src = imaging.Resize(src, dims.Width, dims.Height, imaging.Lanczos)
	}

	var gray image.Image = effect.Grayscale(src)
	b := gray.Bounds()
	img, err := pgm.New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			img.Set(y, x, color.GrayModel.Convert(gray.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y)
		}
	}
	return img, nil
}
