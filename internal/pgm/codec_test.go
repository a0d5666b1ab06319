package pgm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeText(t *testing.T) {
	src := "P2\n# created by test\n# second comment\n3 2\n255\n0 1 2\n253 254 255\n"

	r, err := DecodeText(strings.NewReader(src), Dimensions{Width: 3, Height: 2})
	if err != nil {
		t.Fatalf("DecodeText failed: %v", err)
	}
	want := []uint8{0, 1, 2, 253, 254, 255}
	if !bytes.Equal(r.Pixels(), want) {
		t.Errorf("samples: got %v, want %v", r.Pixels(), want)
	}
}

func TestDecodeText_AnyWhitespaceLayout(t *testing.T) {
	src := "P2\r\n2 2\r\n255   10\t\t20\n\n  30\v40"

	r, err := DecodeText(strings.NewReader(src), Dimensions{Width: 2, Height: 2})
	if err != nil {
		t.Fatalf("DecodeText failed: %v", err)
	}
	if !bytes.Equal(r.Pixels(), []uint8{10, 20, 30, 40}) {
		t.Errorf("samples: got %v", r.Pixels())
	}
}

func TestDecodeText_TrustHeader(t *testing.T) {
	src := "P2\n4 1\n255\n9 8 7 6\n"

	r, err := DecodeText(strings.NewReader(src), Dimensions{})
	if err != nil {
		t.Fatalf("DecodeText failed: %v", err)
	}
	if r.Dimensions() != (Dimensions{Width: 4, Height: 1}) {
		t.Errorf("dimensions: got %s, want 4x1", r.Dimensions())
	}
}

func TestDecodeText_Errors(t *testing.T) {
	want := Dimensions{Width: 2, Height: 2}

	tests := []struct {
		name       string
		src        string
		wantReason string
	}{
		{"empty input", "", ReasonBadMagic},
		{"binary magic", "P5\n2 2\n255\n\x00\x01\x02\x03", ReasonBadMagic},
		{"wrong magic", "P3\n2 2\n255\n1 2 3 4\n", ReasonBadMagic},
		{"lowercase magic", "p2\n2 2\n255\n1 2 3 4\n", ReasonBadMagic},
		// The magic must stand alone on its line, stricter than a prefix check
		{"data after magic", "P2 2 2\n255\n1 2 3 4\n", ReasonBadHeader},
		{"whole header on magic line", "P2 3 2\n255\n1 2 3 4 5 6\n", ReasonBadHeader},
		{"magic prefix only", "P2x\n2 2\n255\n1 2 3 4\n", ReasonBadMagic},
		{"missing dimensions", "P2\n# only comments\n", ReasonBadDimensions},
		{"unparsable dimensions", "P2\nwide tall\n255\n1 2 3 4\n", ReasonBadDimensions},
		{"single dimension", "P2\n2\n255\n1 2 3 4\n", ReasonBadDimensions},
		{"zero dimension", "P2\n0 2\n255\n", ReasonBadDimensions},
		{"missing max value", "P2\n2 2\n", ReasonBadHeader},
		{"max value 65535", "P2\n2 2\n65535\n1 2 3 4\n", ReasonBadHeader},
		{"max value 15", "P2\n2 2\n15\n1 2 3 4\n", ReasonBadHeader},
		{"width mismatch", "P2\n3 2\n255\n1 2 3 4 5 6\n", ReasonBadHeader},
		{"height mismatch", "P2\n2 3\n255\n1 2 3 4 5 6\n", ReasonBadHeader},
		{"truncated", "P2\n2 2\n255\n1 2 3\n", ReasonTruncated},
		{"no samples", "P2\n2 2\n255\n", ReasonTruncated},
		{"sample too large", "P2\n2 2\n255\n1 2 256 4\n", ReasonBadSample},
		{"negative sample", "P2\n2 2\n255\n1 -2 3 4\n", ReasonBadSample},
		{"non-numeric sample", "P2\n2 2\n255\n1 two 3 4\n", ReasonBadSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeText(strings.NewReader(tt.src), want)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrFormat) {
				t.Fatalf("got %v, want ErrFormat", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("got %T, want *FormatError", err)
			}
			if fe.Reason != tt.wantReason {
				t.Errorf("reason: got %q, want %q (%v)", fe.Reason, tt.wantReason, err)
			}
		})
	}
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestDecodeText_ReadError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := DecodeText(failingReader{err: boom}, Dimensions{})
	if !errors.Is(err, ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
	if !errors.Is(err, boom) {
		t.Error("IOError should unwrap to the underlying error")
	}
}

func TestEncodeText(t *testing.T) {
	r, _ := FromPixels(2, 2, []uint8{0, 9, 100, 255})

	var buf bytes.Buffer
	if err := EncodeText(&buf, r); err != nil {
		t.Fatalf("EncodeText failed: %v", err)
	}
	want := "P2\n2 2\n255\n0\n9\n100\n255\n"
	if buf.String() != want {
		t.Errorf("output:\ngot  %q\nwant %q", buf.String(), want)
	}
}

func TestEncodeBinary(t *testing.T) {
	r, _ := FromPixels(3, 1, []uint8{0x00, 0x0A, 0xFF})

	var buf bytes.Buffer
	if err := EncodeBinary(&buf, r); err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}
	want := append([]byte("P5\n3 1\n255\n"), 0x00, 0x0A, 0xFF)
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("output:\ngot  %q\nwant %q", buf.Bytes(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestEncode_WriteError(t *testing.T) {
	r := newPatternRaster(t, 64, 64)

	if err := EncodeText(failingWriter{}, r); !errors.Is(err, ErrIO) {
		t.Errorf("EncodeText: got %v, want ErrIO", err)
	}
	if err := EncodeBinary(failingWriter{}, r); !errors.Is(err, ErrIO) {
		t.Errorf("EncodeBinary: got %v, want ErrIO", err)
	}
}

func TestTextRoundTrip_Idempotent(t *testing.T) {
	// A hand-written file with comments and irregular spacing
	var sb strings.Builder
	sb.WriteString("P2\n# irregular\n16 8\n255\n")
	for i := 0; i < 16*8; i++ {
		fmt.Fprintf(&sb, "%d", (i*37)%256)
		if i%5 == 0 {
			sb.WriteString("\n")
		} else {
			sb.WriteString("  ")
		}
	}
	dims := Dimensions{Width: 16, Height: 8}

	first, err := DecodeText(strings.NewReader(sb.String()), dims)
	if err != nil {
		t.Fatalf("first decode failed: %v", err)
	}

	var buf bytes.Buffer
	if err := EncodeText(&buf, first); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	second, err := DecodeText(&buf, dims)
	if err != nil {
		t.Fatalf("second decode failed: %v", err)
	}
	if !bytes.Equal(first.Pixels(), second.Pixels()) {
		t.Error("decode -> encode -> decode changed the samples")
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	r := newPatternRaster(t, 32, 16)

	var buf bytes.Buffer
	if err := EncodeBinary(&buf, r); err != nil {
		t.Fatalf("EncodeBinary failed: %v", err)
	}
	back, err := DecodeBinary(&buf, r.Dimensions())
	if err != nil {
		t.Fatalf("DecodeBinary failed: %v", err)
	}
	if !bytes.Equal(back.Pixels(), r.Pixels()) {
		t.Error("binary round trip changed samples")
	}
}

func TestDecodeBinary_WhitespaceSampleAfterHeader(t *testing.T) {
	// The first sample is 0x0A ('\n'); only one delimiter byte may be skipped
	src := append([]byte("P5\n2 1\n255\n"), '\n', ' ')

	r, err := DecodeBinary(bytes.NewReader(src), Dimensions{Width: 2, Height: 1})
	if err != nil {
		t.Fatalf("DecodeBinary failed: %v", err)
	}
	if !bytes.Equal(r.Pixels(), []uint8{'\n', ' '}) {
		t.Errorf("samples: got %v", r.Pixels())
	}
}

func TestDecodeBinary_Errors(t *testing.T) {
	want := Dimensions{Width: 2, Height: 2}

	tests := []struct {
		name       string
		src        string
		wantReason string
	}{
		{"text magic", "P2\n2 2\n255\n1 2 3 4\n", ReasonBadMagic},
		{"data after magic", "P5 2 2\n255\n\x01\x02\x03\x04", ReasonBadHeader},
		{"truncated", "P5\n2 2\n255\n\x01\x02\x03", ReasonTruncated},
		{"max value", "P5\n2 2\n127\n\x01\x02\x03\x04", ReasonBadHeader},
		{"dimension mismatch", "P5\n4 1\n255\n\x01\x02\x03\x04", ReasonBadHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBinary(strings.NewReader(tt.src), want)
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("got %v, want *FormatError", err)
			}
			if fe.Reason != tt.wantReason {
				t.Errorf("reason: got %q, want %q", fe.Reason, tt.wantReason)
			}
		})
	}
}

func TestDecode_Sniffing(t *testing.T) {
	r := newPatternRaster(t, 4, 4)

	var text, bin bytes.Buffer
	if err := EncodeText(&text, r); err != nil {
		t.Fatal(err)
	}
	if err := EncodeBinary(&bin, r); err != nil {
		t.Fatal(err)
	}

	for name, buf := range map[string]*bytes.Buffer{"text": &text, "binary": &bin} {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(buf, r.Dimensions())
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if !bytes.Equal(got.Pixels(), r.Pixels()) {
				t.Error("samples differ")
			}
		})
	}

	_, err := Decode(strings.NewReader("GIF89a"), Dimensions{})
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Reason != ReasonBadMagic {
		t.Errorf("unknown magic: got %v, want bad magic", err)
	}

	_, err = Decode(strings.NewReader(""), Dimensions{})
	if !errors.As(err, &fe) || fe.Reason != ReasonBadMagic {
		t.Errorf("empty input: got %v, want bad magic", err)
	}
}

func TestFileHelpers(t *testing.T) {
	dir := t.TempDir()
	r := newPatternRaster(t, 20, 10)

	tests := []struct {
		name  string
		file  string
		write func(string, *Raster) error
	}{
		{"text", "plain.pgm", WriteTextFile},
		{"binary", "raw.pgm", WriteBinaryFile},
		{"text xz", "plain.pgm.xz", WriteTextFile},
		{"binary xz", "raw.pgm.xz", WriteBinaryFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := tt.write(path, r); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			back, err := ReadFile(path, r.Dimensions())
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if !bytes.Equal(back.Pixels(), r.Pixels()) {
				t.Error("file round trip changed samples")
			}
		})
	}
}

func TestFileHelpers_XZIsCompressed(t *testing.T) {
	dir := t.TempDir()
	r, _ := New(64, 64) // all zero, compresses well

	path := filepath.Join(dir, "zeros.pgm.xz")
	if err := WriteTextFile(path, r); err != nil {
		t.Fatalf("WriteTextFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.HasPrefix(data, []byte(MagicText)) {
		t.Error("xz file starts with plain magic")
	}
	if len(data) >= 64*64*2 {
		t.Errorf("xz output not compressed: %d bytes", len(data))
	}
}

func TestReadFile_Errors(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.pgm"), Dimensions{})
	if !errors.Is(err, ErrIO) {
		t.Errorf("missing file: got %v, want ErrIO", err)
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) && ioErr.Op != "open" {
		t.Errorf("Op: got %q, want open", ioErr.Op)
	}
}

func TestWriteFile_CreateError(t *testing.T) {
	r := newPatternRaster(t, 2, 2)
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "out.pgm")

	for name, write := range map[string]func(string, *Raster) error{
		"text":   WriteTextFile,
		"binary": WriteBinaryFile,
	} {
		t.Run(name, func(t *testing.T) {
			err := write(path, r)
			if !errors.Is(err, ErrIO) {
				t.Errorf("got %v, want ErrIO", err)
			}
		})
	}
}
