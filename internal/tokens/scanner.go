// Package tokens classifies whitespace-separated tokens in a text stream as
// single-precision floating-point literals.
package tokens

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// MaxTokenLen is the longest token returned in one piece. Longer runs of
// non-whitespace are split into consecutive tokens of at most this length.
const MaxTokenLen = 255

// Token is one whitespace-delimited field of the input.
type Token struct {
	Text   string  `json:"text"`
	Offset int64   `json:"offset"` // byte offset of the first character
	Value  float64 `json:"value,omitempty"`
	Valid  bool    `json:"valid"`
}

// Scanner reads tokens from a stream. After every token, valid or not, it
// skips the entire following run of whitespace before the next one.
type Scanner struct {
	r   *bufio.Reader
	off int64
}

// NewScanner returns a scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Next returns the next token, or io.EOF when the input is exhausted.
// Other read errors are returned wrapped.
func (s *Scanner) Next() (Token, error) {
	if err := s.skipSpace(); err != nil {
		return Token{}, err
	}

	start := s.off
	buf := make([]byte, 0, 32)
	for len(buf) < MaxTokenLen {
		c, err := s.r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Token{}, fmt.Errorf("failed to read token: %w", err)
		}
		if isSpace(c) {
			if err := s.r.UnreadByte(); err != nil {
				return Token{}, fmt.Errorf("failed to read token: %w", err)
			}
			break
		}
		buf = append(buf, c)
		s.off++
	}

	tok := Token{Text: string(buf), Offset: start}
	tok.Value, tok.Valid = Classify(tok.Text)
	return tok, nil
}

// Classify reports whether text is, in its entirety, a float literal, and
// returns its value rounded to single precision. Out-of-range literals are
// valid and yield an infinity.
func Classify(text string) (float64, bool) {
	v, err := strconv.ParseFloat(text, 32)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}

// Format renders v the way C's "%f" does: six decimals, and inf/nan spelled
// in lower case.
func Format(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 6, 32)
}

func (s *Scanner) skipSpace() error {
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return fmt.Errorf("failed to read input: %w", err)
		}
		if !isSpace(c) {
			return s.r.UnreadByte()
		}
		s.off++
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
