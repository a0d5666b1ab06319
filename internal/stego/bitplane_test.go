package stego

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ironsheep/pgm-stego/internal/pgm"
)

func mustRaster(t *testing.T, w, h int, pix []uint8) *pgm.Raster {
	t.Helper()
	r, err := pgm.FromPixels(w, h, pix)
	if err != nil {
		t.Fatalf("FromPixels: %v", err)
	}
	return r
}

func TestEmbedSample(t *testing.T) {
	tests := []struct {
		cover, secret, want uint8
	}{
		{0x3C, 0xB7, 0x3B},
		{0x00, 0xFF, 0x0F},
		{0xFF, 0x00, 0xF0},
		{0xA5, 0x5A, 0xA5},
		{0x12, 0x0F, 0x10},
	}

	for _, tt := range tests {
		if got := EmbedSample(tt.cover, tt.secret); got != tt.want {
			t.Errorf("EmbedSample(0x%02X, 0x%02X) = 0x%02X, want 0x%02X", tt.cover, tt.secret, got, tt.want)
		}
	}
}

func TestExtractSample(t *testing.T) {
	tests := []struct {
		in, want uint8
	}{
		{0x3B, 0xB0},
		{0x0F, 0xF0},
		{0xF0, 0x00},
		{0x00, 0x00},
	}

	for _, tt := range tests {
		if got := ExtractSample(tt.in); got != tt.want {
			t.Errorf("ExtractSample(0x%02X) = 0x%02X, want 0x%02X", tt.in, got, tt.want)
		}
	}
}

func TestSampleRoundTrip_AllPairs(t *testing.T) {
	for c := 0; c < 256; c++ {
		for s := 0; s < 256; s++ {
			composite := EmbedSample(uint8(c), uint8(s))
			if composite&HighNibble != uint8(c)&HighNibble {
				t.Fatalf("cover high nibble lost: c=0x%02X s=0x%02X composite=0x%02X", c, s, composite)
			}
			if got, want := ExtractSample(composite), uint8(s)&HighNibble; got != want {
				t.Fatalf("c=0x%02X s=0x%02X: recovered 0x%02X, want 0x%02X", c, s, got, want)
			}
		}
	}
}

func TestEmbed(t *testing.T) {
	cover := mustRaster(t, 2, 2, []uint8{0x3C, 0xFF, 0x00, 0x81})
	secret := mustRaster(t, 2, 2, []uint8{0xB7, 0x00, 0xFF, 0x42})
	coverBefore := cover.Pixels()
	secretBefore := secret.Pixels()

	composite, err := Embed(cover, secret)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if want := []uint8{0x3B, 0xF0, 0x0F, 0x84}; !bytes.Equal(composite.Pixels(), want) {
		t.Errorf("composite: got % X, want % X", composite.Pixels(), want)
	}
	if composite.Dimensions() != cover.Dimensions() {
		t.Errorf("composite dimensions: got %s", composite.Dimensions())
	}

	if !bytes.Equal(cover.Pixels(), coverBefore) {
		t.Error("Embed modified the cover")
	}
	if !bytes.Equal(secret.Pixels(), secretBefore) {
		t.Error("Embed modified the secret")
	}
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	cover, _ := pgm.New(4, 4)
	secret, _ := pgm.New(4, 5)

	composite, err := Embed(cover, secret)
	if !errors.Is(err, pgm.ErrDimensionMismatch) {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
	if composite != nil {
		t.Error("no composite should be produced on mismatch")
	}

	var dimErr *pgm.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("error is %T, want *pgm.DimensionError", err)
	}
	if dimErr.Want != cover.Dimensions() || dimErr.Got != secret.Dimensions() {
		t.Errorf("unexpected error detail: %+v", dimErr)
	}

	if _, err := Embed(nil, secret); !errors.Is(err, pgm.ErrDimensionMismatch) {
		t.Errorf("nil cover: got %v", err)
	}
	if _, err := EmbedInPlace(cover, secret); !errors.Is(err, pgm.ErrDimensionMismatch) {
		t.Errorf("EmbedInPlace: got %v", err)
	}
}

func TestEmbedInPlace(t *testing.T) {
	cover := mustRaster(t, 2, 1, []uint8{0x3C, 0xA0})
	secret := mustRaster(t, 2, 1, []uint8{0xB7, 0x5F})

	composite, err := EmbedInPlace(cover, secret)
	if err != nil {
		t.Fatalf("EmbedInPlace failed: %v", err)
	}
	if composite != cover {
		t.Error("EmbedInPlace should return the cover it consumed")
	}
	if want := []uint8{0x3B, 0xA5}; !bytes.Equal(cover.Pixels(), want) {
		t.Errorf("cover after embed: got % X, want % X", cover.Pixels(), want)
	}
}

func TestExtract(t *testing.T) {
	composite := mustRaster(t, 3, 1, []uint8{0x3B, 0xF0, 0x0F})
	before := composite.Pixels()

	recovered := Extract(composite)
	if want := []uint8{0xB0, 0x00, 0xF0}; !bytes.Equal(recovered.Pixels(), want) {
		t.Errorf("recovered: got % X, want % X", recovered.Pixels(), want)
	}
	if !bytes.Equal(composite.Pixels(), before) {
		t.Error("Extract modified the composite")
	}
	for i := 0; i < recovered.Len(); i++ {
		if recovered.Index(i)&LowNibble != 0 {
			t.Errorf("sample %d has a non-zero low nibble", i)
		}
	}
}

func TestEmbedExtract_RecoversSecretHighNibbles(t *testing.T) {
	const w, h = 16, 16
	cover, _ := pgm.New(w, h)
	secret, _ := pgm.New(w, h)
	for i := 0; i < w*h; i++ {
		cover.SetIndex(i, uint8(255-i))
		secret.SetIndex(i, uint8(i*13))
	}

	composite, err := Embed(cover, secret)
	if err != nil {
		t.Fatal(err)
	}
	recovered := Extract(composite)

	for i := 0; i < w*h; i++ {
		if got, want := recovered.Index(i), secret.Index(i)&HighNibble; got != want {
			t.Fatalf("sample %d: recovered 0x%02X, want 0x%02X", i, got, want)
		}
		if diff := int(cover.Index(i)) - int(composite.Index(i)); diff > 15 || diff < -15 {
			t.Fatalf("sample %d: cover changed by %d", i, diff)
		}
	}
}
