package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Result is the canonical, lossless form of a single result table.
// Column order is stable and drives the key order of every encoding.
type Result struct {
	Columns []string
	Rows    [][]any
}

// NewResult builds a Result from column names and positional rows.
func NewResult(columns []string, rows ...[]any) *Result {
	return &Result{Columns: columns, Rows: rows}
}

// IsEmpty reports whether the result carries no table at all.
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Columns) == 0
}

// Value returns the cell at row i for the named column, or nil.
func (r *Result) Value(i int, column string) any {
	if r == nil || i < 0 || i >= len(r.Rows) {
		return nil
	}
	for c, name := range r.Columns {
		if name == column {
			if c < len(r.Rows[i]) {
				return r.Rows[i][c]
			}
			return nil
		}
	}
	return nil
}

// Records returns the rows as column-name keyed maps.
func (r *Result) Records() []map[string]any {
	if r == nil {
		return nil
	}
	records := make([]map[string]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		record := make(map[string]any, len(r.Columns))
		for c, name := range r.Columns {
			if c < len(row) {
				record[name] = row[c]
			} else {
				record[name] = nil
			}
		}
		records = append(records, record)
	}
	return records
}

// MarshalJSON encodes the result as an array of objects whose keys follow
// column order.
func (r *Result) MarshalJSON() ([]byte, error) {
	return encodeRecords(r)
}

// UnmarshalJSON decodes an array of objects, keeping key order of first appearance.
func (r *Result) UnmarshalJSON(data []byte) error {
	decoded, err := decodeRecords(data)
	if err != nil {
		return err
	}
	*r = *decoded
	return nil
}

func encodeRecords(r *Result) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	if !r.IsEmpty() {
		for i, row := range r.Rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteByte('{')
			for c, name := range r.Columns {
				if c > 0 {
					buf.WriteByte(',')
				}
				if err := writeKeyValue(&buf, name, cell(row, c)); err != nil {
					return nil, err
				}
			}
			buf.WriteByte('}')
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func decodeRecords(data []byte) (*Result, error) {
	dec := newDecoder(data)
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	result := &Result{}
	index := map[string]int{}
	for dec.More() {
		keys, values, err := readOrderedObject(dec)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if _, ok := index[key]; !ok {
				index[key] = len(result.Columns)
				result.Columns = append(result.Columns, key)
			}
		}
		row := make([]any, len(result.Columns))
		for k, key := range keys {
			row[index[key]] = values[k]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}

	// Earlier rows are shorter when later objects introduced new keys.
	for i, row := range result.Rows {
		if len(row) < len(result.Columns) {
			padded := make([]any, len(result.Columns))
			copy(padded, row)
			result.Rows[i] = padded
		}
	}
	return result, nil
}

func cell(row []any, c int) any {
	if c < len(row) {
		return row[c]
	}
	return nil
}

// marshalCompact encodes v as compact JSON without HTML escaping.
func marshalCompact(v any) ([]byte, error) {
	if raw, ok := v.(json.RawMessage); ok {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeKeyValue(buf *bytes.Buffer, key string, value any) error {
	k, err := marshalCompact(key)
	if err != nil {
		return err
	}
	v, err := marshalCompact(value)
	if err != nil {
		return fmt.Errorf("column %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
