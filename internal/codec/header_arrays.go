package codec

import (
	"bytes"
	"fmt"
	"strings"
)

// EncodeHeaderArrays writes the column names as a compact JSON array on the
// first line and each row as a compact JSON array on its own line.
func EncodeHeaderArrays(r *Result) (string, error) {
	if r.IsEmpty() {
		return "", nil
	}

	lines := make([]string, 0, len(r.Rows)+1)
	header, err := marshalCompact(r.Columns)
	if err != nil {
		return "", err
	}
	lines = append(lines, string(header))

	for i, row := range r.Rows {
		var buf bytes.Buffer
		buf.WriteByte('[')
		for c := range r.Columns {
			if c > 0 {
				buf.WriteByte(',')
			}
			v, err := marshalCompact(cell(row, c))
			if err != nil {
				return "", fmt.Errorf("row %d: %w", i, err)
			}
			buf.Write(v)
		}
		buf.WriteByte(']')
		lines = append(lines, buf.String())
	}
	return strings.Join(lines, "\n"), nil
}

// DecodeHeaderArrays parses text produced by EncodeHeaderArrays. It never
// fails: an unparsable header yields an empty result and unparsable row lines
// are skipped.
func DecodeHeaderArrays(text string) *Result {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return &Result{}
	}

	headerValues, err := parseArrayLine(lines[0])
	if err != nil {
		return &Result{}
	}
	columns := make([]string, 0, len(headerValues))
	for _, v := range headerValues {
		name, ok := v.(string)
		if !ok {
			return &Result{}
		}
		columns = append(columns, name)
	}

	result := &Result{Columns: columns}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values, err := parseArrayLine(line)
		if err != nil {
			continue
		}
		row := make([]any, len(columns))
		copy(row, values)
		result.Rows = append(result.Rows, row)
	}
	return result
}

func parseArrayLine(line string) ([]any, error) {
	dec := newDecoder([]byte(line))
	values, err := readArray(dec)
	if err != nil {
		return nil, err
	}
	if err := expectEOF(dec); err != nil {
		return nil, err
	}
	return values, nil
}
