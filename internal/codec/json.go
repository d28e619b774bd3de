package codec

// EncodeJSON encodes the result as a JSON array of objects.
func EncodeJSON(r *Result) ([]byte, error) {
	return encodeRecords(r)
}

// DecodeJSON parses a JSON array of objects. Columns are ordered by first
// appearance across all rows and missing keys decode as nil.
func DecodeJSON(data []byte) (*Result, error) {
	return decodeRecords(data)
}
