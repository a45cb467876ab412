package weather

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// errUnexpectedShape marks well-formed JSON whose fields have the wrong type
var errUnexpectedShape = errors.New("unexpected payload shape")

// flexNumber holds a numeric field that the model may send as a number, a
// numeric string ("18", "18°C", "40%") or null. NaN and infinities count as absent.
type flexNumber struct {
	value float64
	set   bool
}

// UnmarshalJSON implements custom JSON unmarshaling for flexNumber
func (f *flexNumber) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = flexNumber{}
		return nil
	}

	// Try to unmarshal as a number first
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexNumber{value: num, set: true}
		return nil
	}

	// Then as a string holding a number; unparsable text counts as absent
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		str = strings.TrimRight(str, "%°CcFf ")
		if n, err := strconv.ParseFloat(str, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			*f = flexNumber{value: n, set: true}
		} else {
			*f = flexNumber{}
		}
		return nil
	}

	return fmt.Errorf("%w: cannot unmarshal %s into a number", errUnexpectedShape, data)
}

// or returns the value, or fallback when the field was absent
func (f flexNumber) or(fallback float64) float64 {
	if !f.set {
		return fallback
	}
	return f.value
}

// flexText holds a text field that the model may send as a string, a number or null
type flexText struct {
	value string
	set   bool
}

// UnmarshalJSON implements custom JSON unmarshaling for flexText
func (f *flexText) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = flexText{}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*f = flexText{value: str, set: true}
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexText{value: num.String(), set: true}
		return nil
	}

	return fmt.Errorf("%w: cannot unmarshal %s into text", errUnexpectedShape, data)
}

// or returns the value, or fallback when the field was absent or blank
func (f flexText) or(fallback string) string {
	if !f.set || strings.TrimSpace(f.value) == "" {
		return fallback
	}
	return f.value
}
