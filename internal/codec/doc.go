// Package codec converts Kusto query results between the canonical
// row-oriented form and the compact wire formats returned to MCP clients.
//
// The canonical form is Result: an ordered list of column names plus rows of
// scalar values. Every wire format round-trips through it:
//
//	payload, err := codec.Encode(codec.FormatCSV, result)
//	back, err := codec.Decode(payload)
//
// Supported formats and their empty and null encodings:
//
//	format         empty result   null value
//	json           []             null
//	csv            ""             empty cell
//	tsv            ""             empty field
//	columnar       {}             null
//	header_arrays  []             null
//
// CSV and TSV carry values as text, so decoding yields strings and an empty
// string cannot be told apart from null. Decoders fail the whole payload on
// malformed input, except header_arrays which skips bad row lines.
package codec
