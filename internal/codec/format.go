package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Format is the tag of a wire encoding.
type Format string

const (
	FormatJSON         Format = "json"
	FormatCSV          Format = "csv"
	FormatTSV          Format = "tsv"
	FormatColumnar     Format = "columnar"
	FormatHeaderArrays Format = "header_arrays"
)

// Formats lists every supported format in a stable order.
var Formats = []Format{FormatJSON, FormatCSV, FormatTSV, FormatColumnar, FormatHeaderArrays}

// ParseFormat resolves a case-insensitive format tag.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", &UnsupportedFormatError{Format: f}
	}
	return f, nil
}

// Valid reports whether f is a supported format tag.
func (f Format) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Payload is the tagged wire representation: {"format": ..., "data": ...}.
type Payload struct {
	Format Format          `json:"format"`
	Data   json.RawMessage `json:"data"`
}

// String returns the compact JSON form of the payload.
func (p *Payload) String() string {
	b, err := marshalCompact(p)
	if err != nil {
		return fmt.Sprintf(`{"format":%q}`, p.Format)
	}
	return string(b)
}

// UnsupportedFormatError is returned for an unknown format tag.
type UnsupportedFormatError struct {
	Format Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %q", string(e.Format))
}

// DecodeError reports a malformed payload for a known format.
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %s format: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Encode converts a result into the payload for the given format.
// A nil or column-less result yields the format's empty representation.
func Encode(format Format, r *Result) (*Payload, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatJSON:
		data, err = EncodeJSON(r)
	case FormatCSV:
		var s string
		if s, err = EncodeCSV(r); err == nil {
			data, err = marshalCompact(s)
		}
	case FormatTSV:
		var s string
		if s, err = EncodeTSV(r); err == nil {
			data, err = marshalCompact(s)
		}
	case FormatColumnar:
		data, err = EncodeColumnar(r)
	case FormatHeaderArrays:
		if r.IsEmpty() {
			data = []byte("[]")
			break
		}
		var s string
		if s, err = EncodeHeaderArrays(r); err == nil {
			data, err = marshalCompact(s)
		}
	default:
		return nil, &UnsupportedFormatError{Format: format}
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}

	return &Payload{Format: format, Data: data}, nil
}

// Decode converts a payload back into the canonical result. A payload with
// null data decodes to a nil result.
func Decode(p *Payload) (*Result, error) {
	if p == nil {
		return nil, nil
	}
	if !p.Format.Valid() {
		return nil, &UnsupportedFormatError{Format: p.Format}
	}

	data := bytes.TrimSpace(p.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var (
		result *Result
		err    error
	)
	switch p.Format {
	case FormatJSON:
		result, err = DecodeJSON(data)
	case FormatColumnar:
		result, err = DecodeColumnar(data)
	case FormatCSV, FormatTSV:
		var s string
		if err = json.Unmarshal(data, &s); err != nil {
			break
		}
		if p.Format == FormatCSV {
			result, err = DecodeCSV(s)
		} else {
			result, err = DecodeTSV(s)
		}
	case FormatHeaderArrays:
		if data[0] == '[' {
			var empty []json.RawMessage
			if err = json.Unmarshal(data, &empty); err == nil && len(empty) > 0 {
				err = fmt.Errorf("expected string data, got non-empty array")
			}
			result = &Result{}
			break
		}
		var s string
		if err = json.Unmarshal(data, &s); err != nil {
			break
		}
		result = DecodeHeaderArrays(s)
	}
	if err != nil {
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			return nil, decErr
		}
		return nil, &DecodeError{Format: p.Format, Err: err}
	}
	return result, nil
}

// Convert re-encodes a payload into another format.
func Convert(p *Payload, to Format) (*Payload, error) {
	result, err := Decode(p)
	if err != nil {
		return nil, err
	}
	return Encode(to, result)
}
