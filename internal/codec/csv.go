package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
)

// EncodeCSV writes a header row followed by one record per row, using "\n"
// line endings. Nil cells are written as empty fields.
func EncodeCSV(r *Result) (string, error) {
	if r.IsEmpty() {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := writeCSVRecord(w, &buf, r.Columns); err != nil {
		return "", err
	}
	for _, row := range r.Rows {
		record := make([]string, len(r.Columns))
		for c := range r.Columns {
			s, _, err := formatScalar(cell(row, c))
			if err != nil {
				return "", err
			}
			record[c] = s
		}
		if err := writeCSVRecord(w, &buf, record); err != nil {
			return "", err
		}
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// writeCSVRecord writes one record. A lone empty field would otherwise be an
// empty line, which readers skip.
func writeCSVRecord(w *csv.Writer, buf *bytes.Buffer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		buf.WriteString("\"\"\n")
		return nil
	}
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// DecodeCSV parses CSV text whose first record is the header. Every value
// decodes as a string and empty fields decode as nil.
func DecodeCSV(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return &Result{}, nil
	}

	records, err := readCSVRecords(text)
	if err != nil {
		return nil, err
	}

	header := records[0]
	result := &Result{Columns: header}
	for _, record := range records[1:] {
		row := make([]any, len(header))
		for c := range header {
			if c < len(record) && record[c] != "" {
				row[c] = record[c]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

var (
	errCSVUnterminatedQuote = errors.New("unterminated quoted field")
	errCSVBareQuote         = errors.New("bare \" in unquoted field")
	errCSVAfterQuote        = errors.New("extraneous character after quoted field")
)

// readCSVRecords splits RFC 4180 text into records. Bytes inside quoted
// fields are kept verbatim, so a quoted "\r\n" stays "\r\n". Records end at
// "\n" or "\r\n" outside quotes and empty lines are skipped.
func readCSVRecords(text string) ([][]string, error) {
	var records [][]string
	i := 0
	for i < len(text) {
		if text[i] == '\n' {
			i++
			continue
		}
		if strings.HasPrefix(text[i:], "\r\n") {
			i += 2
			continue
		}
		record, next, err := readCSVRecord(text, i)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records)+1, err)
		}
		records = append(records, record)
		i = next
	}
	return records, nil
}

// readCSVRecord reads one record starting at text[i] and returns the offset
// just past its terminator.
func readCSVRecord(text string, i int) ([]string, int, error) {
	var record []string
	for {
		var field strings.Builder
		if i < len(text) && text[i] == '"' {
			i++
			for {
				if i >= len(text) {
					return nil, 0, errCSVUnterminatedQuote
				}
				if text[i] == '"' {
					if i+1 < len(text) && text[i+1] == '"' {
						field.WriteByte('"')
						i += 2
						continue
					}
					i++
					break
				}
				field.WriteByte(text[i])
				i++
			}
			if i < len(text) && !csvBoundary(text, i) {
				return nil, 0, errCSVAfterQuote
			}
		} else {
			for i < len(text) && !csvBoundary(text, i) {
				if text[i] == '"' {
					return nil, 0, errCSVBareQuote
				}
				field.WriteByte(text[i])
				i++
			}
		}
		record = append(record, field.String())

		switch {
		case i >= len(text):
			return record, i, nil
		case text[i] == ',':
			i++
		case text[i] == '\r':
			return record, i + 2, nil
		default:
			return record, i + 1, nil
		}
	}
}

// csvBoundary reports whether text[i] ends a field outside quotes.
func csvBoundary(text string, i int) bool {
	switch text[i] {
	case ',', '\n':
		return true
	case '\r':
		return strings.HasPrefix(text[i:], "\r\n")
	}
	return false
}
