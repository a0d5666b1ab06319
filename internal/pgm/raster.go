package pgm

import (
	"fmt"
	"image"
)

// MaxValue is the only maximum sample value this format variant accepts.
const MaxValue = 255

// MaxPixels bounds the sample count a header may declare before any
// allocation happens.
const MaxPixels = 1 << 28

// Dimensions is a raster size. The zero value means "unspecified" and tells
// the decoders to trust the header.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// IsZero reports whether neither width nor height is set.
func (d Dimensions) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

// Valid reports whether both sides are positive and the area fits MaxPixels.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0 && d.Width <= MaxPixels/d.Height
}

// Area returns Width*Height.
func (d Dimensions) Area() int {
	return d.Width * d.Height
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Raster is a fixed-size 8-bit grayscale sample grid stored row-major.
//
// The length of the sample buffer always equals Width*Height and the
// dimensions never change after construction. A Raster is not safe for
// concurrent mutation.
type Raster struct {
	dims Dimensions
	pix  []uint8
}

// New allocates a zero-filled raster.
func New(width, height int) (*Raster, error) {
	d := Dimensions{Width: width, Height: height}
	if !d.Valid() {
		return nil, formatErrorf(ReasonBadDimensions, "%s", d)
	}
	return &Raster{dims: d, pix: make([]uint8, d.Area())}, nil
}

// FromPixels builds a raster from a copy of pix, which must hold exactly
// width*height samples.
func FromPixels(width, height int, pix []uint8) (*Raster, error) {
	r, err := New(width, height)
	if err != nil {
		return nil, err
	}
	if len(pix) != len(r.pix) {
		return nil, &DimensionError{
			Op:   "pgm.FromPixels",
			Want: r.dims,
			Got:  Dimensions{Width: len(pix), Height: 1},
		}
	}
	copy(r.pix, pix)
	return r, nil
}

// Width returns the number of columns.
func (r *Raster) Width() int { return r.dims.Width }

// Height returns the number of rows.
func (r *Raster) Height() int { return r.dims.Height }

// MaxValue is always 255.
func (r *Raster) MaxValue() int { return MaxValue }

// Len returns Width*Height.
func (r *Raster) Len() int { return len(r.pix) }

// Dimensions returns the raster size.
func (r *Raster) Dimensions() Dimensions { return r.dims }

// At returns the sample at (row, col). It panics with *IndexError when the
// coordinate is outside the raster.
func (r *Raster) At(row, col int) uint8 {
	return r.pix[r.offset(row, col)]
}

// Set stores v at (row, col). It panics with *IndexError when the coordinate
// is outside the raster.
func (r *Raster) Set(row, col int, v uint8) {
	r.pix[r.offset(row, col)] = v
}

// Index returns the sample at flat row-major index i.
func (r *Raster) Index(i int) uint8 {
	r.checkIndex(i)
	return r.pix[i]
}

// SetIndex stores v at flat row-major index i.
func (r *Raster) SetIndex(i int, v uint8) {
	r.checkIndex(i)
	r.pix[i] = v
}

// Pixels returns a copy of the row-major sample buffer.
func (r *Raster) Pixels() []uint8 {
	out := make([]uint8, len(r.pix))
	copy(out, r.pix)
	return out
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	return &Raster{dims: r.dims, pix: r.Pixels()}
}

// SameSize reports whether o has identical dimensions.
func (r *Raster) SameSize(o *Raster) bool {
	return r.dims == o.dims
}

// Gray returns the raster as an *image.Gray sharing no memory with r.
func (r *Raster) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, r.dims.Width, r.dims.Height))
	copy(img.Pix, r.pix)
	return img
}

// FromGray converts an *image.Gray into a raster, honoring the image stride
// and bounds origin.
func FromGray(img *image.Gray) (*Raster, error) {
	b := img.Bounds()
	r, err := New(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.Dy(); y++ {
		start := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(r.pix[y*b.Dx():(y+1)*b.Dx()], img.Pix[start:start+b.Dx()])
	}
	return r, nil
}

func (r *Raster) offset(row, col int) int {
	if row < 0 || row >= r.dims.Height || col < 0 || col >= r.dims.Width {
		panic(&IndexError{Row: row, Col: col, Index: -1, Dims: r.dims})
	}
	return row*r.dims.Width + col
}

func (r *Raster) checkIndex(i int) {
	if i < 0 || i >= len(r.pix) {
		panic(&IndexError{Row: -1, Col: -1, Index: i, Dims: r.dims})
	}
}
