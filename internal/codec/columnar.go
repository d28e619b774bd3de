package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeColumnar encodes the result as an object mapping each column name to
// the array of its values, in column order.
func EncodeColumnar(r *Result) ([]byte, error) {
	if r.IsEmpty() {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for c, name := range r.Columns {
		if c > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalCompact(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":[")
		for i, row := range r.Rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			v, err := marshalCompact(cell(row, c))
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", name, err)
			}
			buf.Write(v)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeColumnar parses a column-keyed object. The row count is the length of
// the first column; shorter columns are padded with nil.
func DecodeColumnar(data []byte) (*Result, error) {
	dec := newDecoder(data)
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	result := &Result{}
	var columns [][]any
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected column name, got %v", tok)
		}
		values, err := readArray(dec)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		result.Columns = append(result.Columns, name)
		columns = append(columns, values)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return result, nil
	}

	rowCount := len(columns[0])
	result.Rows = make([][]any, rowCount)
	for i := range result.Rows {
		row := make([]any, len(columns))
		for c, values := range columns {
			if i < len(values) {
				row[c] = values[i]
			}
		}
		result.Rows[i] = row
	}
	return result, nil
}

func readArray(dec *json.Decoder) ([]any, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var values []any
	for dec.More() {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		v, err := rawToValue(raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return values, nil
}
