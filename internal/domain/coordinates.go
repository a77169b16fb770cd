package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrBadJSON is returned by ParseBody when the request body is not valid JSON.
var ErrBadJSON = errors.New("request body is not valid JSON")

// Accepted field names per axis, highest priority first.
var (
	LatitudeAliases  = []string{"lat", "latitude"}
	LongitudeAliases = []string{"lng", "lon", "longitude"}
)

// Body is a parsed check-in request body. Fields are kept raw so each alias
// can be coerced lazily.
type Body struct {
	fields map[string]json.RawMessage
}

// ParseBody parses a check-in request body. An empty body is treated as an
// empty object. Valid JSON that is not an object yields a Body with no fields.
func ParseBody(data []byte) (Body, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Body{}, nil
	}
	if !json.Valid(data) {
		return Body{}, ErrBadJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Valid JSON but not an object: string, number, array or null.
		return Body{}, nil
	}
	return Body{fields: fields}, nil
}

// Coordinate resolves latitude and longitude from the body. It reports false
// when either axis is missing or not a finite number.
func (b Body) Coordinate() (Coordinate, bool) {
	lat, ok := b.lookup(LatitudeAliases)
	if !ok {
		return Coordinate{}, false
	}
	lng, ok := b.lookup(LongitudeAliases)
	if !ok {
		return Coordinate{}, false
	}
	return Coordinate{Lat: lat, Lng: lng}, true
}

// lookup coerces the first present, non-null alias. A non-numeric winner does
// not fall through to later aliases.
func (b Body) lookup(aliases []string) (float64, bool) {
	for _, name := range aliases {
		raw, ok := b.fields[name]
		if !ok || isNull(raw) {
			continue
		}
		v, err := coerceNumber(raw)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// coerceNumber accepts a JSON number or a JSON string holding a decimal number.
func coerceNumber(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return finite(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("coordinate is neither number nor string: %s", raw)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse coordinate %q: %w", s, err)
	}
	return finite(n)
}

func finite(n float64) (float64, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("coordinate %v is not finite", n)
	}
	return n, nil
}
