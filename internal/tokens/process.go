package tokens

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Value is a valid literal held at single precision.
type Value float32

// MarshalJSON encodes finite values as the shortest number that round-trips
// through float32. NaN and the infinities, which JSON cannot carry, encode as
// their Format string.
func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(Format(f))
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 32)), nil
}

// Summary counts the tokens seen by Process.
type Summary struct {
	Values  []Value `json:"values"`
	Valid   int     `json:"valid"`
	Invalid int     `json:"invalid"`
	// InvalidTokens holds the rejected tokens in input order.
	InvalidTokens []Token `json:"invalid_tokens,omitempty"`
}

// Process scans r and writes every valid value to w, one per line, formatted
// by Format. Invalid tokens are counted and skipped.
func Process(r io.Reader, w io.Writer) (*Summary, error) {
	bw := bufio.NewWriter(w)
	sum := &Summary{Values: []Value{}}

	sc := NewScanner(r)
	for {
		tok, err := sc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, err
		}
		if !tok.Valid {
			sum.Invalid++
			sum.InvalidTokens = append(sum.InvalidTokens, tok)
			continue
		}
		sum.Valid++
		sum.Values = append(sum.Values, Value(tok.Value))
		if _, err := fmt.Fprintln(bw, Format(tok.Value)); err != nil {
			return sum, fmt.Errorf("failed to write value: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("failed to write value: %w", err)
	}
	return sum, nil
}
