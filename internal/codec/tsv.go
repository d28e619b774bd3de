package codec

import (
	"fmt"
	"strings"
)

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)

func escapeTSV(s string) string {
	return tsvEscaper.Replace(s)
}

// unescapeTSV reverses escapeTSV in a single left-to-right pass so that an
// escaped backslash followed by 't' is not read as a tab.
func unescapeTSV(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch != '\\' {
			b.WriteByte(ch)
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape at offset %d", i)
		}
		i++
		switch s[i] {
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			return "", fmt.Errorf("unknown escape \\%c at offset %d", s[i], i-1)
		}
	}
	return b.String(), nil
}

// EncodeTSV writes tab-separated lines, header first, joined by "\n" without
// a trailing newline. Nil cells are written as empty fields.
func EncodeTSV(r *Result) (string, error) {
	if r.IsEmpty() {
		return "", nil
	}

	lines := make([]string, 0, len(r.Rows)+1)
	header := make([]string, len(r.Columns))
	for c, name := range r.Columns {
		header[c] = escapeTSV(name)
	}
	lines = append(lines, strings.Join(header, "\t"))

	for _, row := range r.Rows {
		fields := make([]string, len(r.Columns))
		for c := range r.Columns {
			s, _, err := formatScalar(cell(row, c))
			if err != nil {
				return "", err
			}
			fields[c] = escapeTSV(s)
		}
		lines = append(lines, strings.Join(fields, "\t"))
	}
	return strings.Join(lines, "\n"), nil
}

// DecodeTSV parses text produced by EncodeTSV. Every value decodes as a
// string and empty fields decode as nil. A trailing newline is ignored when
// the header has more than one column.
func DecodeTSV(text string) (*Result, error) {
	if text == "" {
		return &Result{}, nil
	}

	lines := strings.Split(text, "\n")
	header := strings.Split(lines[0], "\t")
	result := &Result{Columns: make([]string, len(header))}
	for c, name := range header {
		unescaped, err := unescapeTSV(name)
		if err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		result.Columns[c] = unescaped
	}

	// A single-column row holding nil encodes as an empty line, so only wider
	// tables can drop a trailing newline.
	if len(header) > 1 && len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	for n, line := range lines[1:] {
		fields := strings.Split(line, "\t")
		if len(fields) > len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", n+2, len(fields), len(header))
		}
		row := make([]any, len(header))
		for c, field := range fields {
			if field == "" {
				continue
			}
			unescaped, err := unescapeTSV(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+2, err)
			}
			row[c] = unescaped
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}
