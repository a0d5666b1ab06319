package pgm

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Magic tokens of the two supported encodings.
const (
	MagicText   = "P2"
	MagicBinary = "P5"
)

// DecodeText reads a textual (P2) raster.
//
// When want is non-zero the header must declare exactly those dimensions;
// the zero Dimensions trusts the header. The maximum value must be 255 in
// either case. See FormatError for the reasons a decode can fail.
func DecodeText(r io.Reader, want Dimensions) (*Raster, error) {
	return decodeText(bufio.NewReader(r), want)
}

// DecodeBinary reads a binary (P5) raster under the same header rules as
// DecodeText, followed by exactly width*height raw sample bytes.
func DecodeBinary(r io.Reader, want Dimensions) (*Raster, error) {
	return decodeBinary(bufio.NewReader(r), want)
}

// Decode sniffs the magic token and dispatches to DecodeText or DecodeBinary.
func Decode(r io.Reader, want Dimensions) (*Raster, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Reason: ReasonBadMagic, Detail: "empty input"}
		}
		return nil, &IOError{Op: "read", Err: err}
	}
	switch string(magic) {
	case MagicText:
		return decodeText(br, want)
	case MagicBinary:
		return decodeBinary(br, want)
	default:
		return nil, formatErrorf(ReasonBadMagic, "got %q", magic)
	}
}

func decodeText(br *bufio.Reader, want Dimensions) (*Raster, error) {
	dims, err := readHeader(br, MagicText, want)
	if err != nil {
		return nil, err
	}

	img, err := New(dims.Width, dims.Height)
	if err != nil {
		return nil, err
	}
	for i := range img.pix {
		tok, err := readToken(br)
		if err == io.EOF {
			return nil, formatErrorf(ReasonTruncated, "got %d of %d samples", i, len(img.pix))
		}
		if err != nil {
			return nil, &IOError{Op: "read", Err: err}
		}
		v, convErr := strconv.Atoi(tok)
		if convErr != nil || v < 0 || v > MaxValue {
			return nil, formatErrorf(ReasonBadSample, "sample %d: %q", i, tok)
		}
		img.pix[i] = uint8(v)
	}
	return img, nil
}

func decodeBinary(br *bufio.Reader, want Dimensions) (*Raster, error) {
	dims, err := readHeader(br, MagicBinary, want)
	if err != nil {
		return nil, err
	}

	img, err := New(dims.Width, dims.Height)
	if err != nil {
		return nil, err
	}
	n, err := io.ReadFull(br, img.pix)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, formatErrorf(ReasonTruncated, "got %d of %d bytes", n, len(img.pix))
		}
		return nil, &IOError{Op: "read", Err: err}
	}
	return img, nil
}

// readHeader validates the magic line, skips comment lines, parses the
// dimension line and the max value token. On return br is positioned on the
// first sample; the single whitespace byte after the max value has been
// consumed.
func readHeader(br *bufio.Reader, magic string, want Dimensions) (Dimensions, error) {
	line, err := readLine(br)
	if err != nil && line == "" {
		if err == io.EOF {
			return Dimensions{}, &FormatError{Reason: ReasonBadMagic, Detail: "empty input"}
		}
		return Dimensions{}, &IOError{Op: "read", Err: err}
	}
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != magic {
		return Dimensions{}, formatErrorf(ReasonBadMagic, "want %s, got %q", magic, strings.TrimSpace(line))
	}
	if len(fields) > 1 {
		return Dimensions{}, formatErrorf(ReasonBadHeader, "unexpected %q after magic", fields[1])
	}

	for {
		line, err = readLine(br)
		if err != nil && line == "" {
			if err == io.EOF {
				return Dimensions{}, &FormatError{Reason: ReasonBadDimensions, Detail: "missing dimension line"}
			}
			return Dimensions{}, &IOError{Op: "read", Err: err}
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
	}

	dims, err := parseDimensions(line)
	if err != nil {
		return Dimensions{}, err
	}

	tok, err := readToken(br)
	if err == io.EOF {
		return Dimensions{}, &FormatError{Reason: ReasonBadHeader, Detail: "missing max value"}
	}
	if err != nil {
		return Dimensions{}, &IOError{Op: "read", Err: err}
	}
	if !want.IsZero() && dims != want {
		return Dimensions{}, formatErrorf(ReasonBadHeader, "declared %s, expected %s", dims, want)
	}
	maxVal, convErr := strconv.Atoi(tok)
	if convErr != nil || maxVal != MaxValue {
		return Dimensions{}, formatErrorf(ReasonBadHeader, "max value %q, want %d", tok, MaxValue)
	}
	return dims, nil
}

func parseDimensions(line string) (Dimensions, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Dimensions{}, formatErrorf(ReasonBadDimensions, "%q", strings.TrimSpace(line))
	}
	w, errW := strconv.Atoi(fields[0])
	h, errH := strconv.Atoi(fields[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Dimensions{}, formatErrorf(ReasonBadDimensions, "%q", strings.TrimSpace(line))
	}
	d := Dimensions{Width: w, Height: h}
	if !d.Valid() {
		return Dimensions{}, formatErrorf(ReasonBadHeader, "%s exceeds %d samples", d, MaxPixels)
	}
	return d, nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned together with io.EOF.
func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	return line, err
}

// readToken skips leading whitespace and returns the next run of
// non-whitespace bytes, consuming the single delimiter that ends it. It
// returns io.EOF only when no token byte was read.
func readToken(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		if isSpace(c) {
			if sb.Len() > 0 {
				return sb.String(), nil
			}
			continue
		}
		sb.WriteByte(c)
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
