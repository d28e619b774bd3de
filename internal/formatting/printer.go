package formatting

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"rtimcp/internal/codec"
	"rtimcp/internal/kusto"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// maxCellWidth truncates long cells in table output.
const maxCellWidth = 100

// ParseOutputFormat resolves a case-insensitive output format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// Printer writes values in one output format.
type Printer struct {
	format OutputFormat
	out    io.Writer
}

// NewPrinter creates a printer writing to out.
func NewPrinter(format OutputFormat, out io.Writer) *Printer {
	return &Printer{format: format, out: out}
}

// Services prints the known services allowlist.
func (p *Printer) Services(endpoints []kusto.Endpoint) error {
	if p.format != FormatTable {
		if endpoints == nil {
			endpoints = []kusto.Endpoint{}
		}
		return p.structured(endpoints)
	}
	if len(endpoints) == 0 {
		p.empty("No known services configured")
		return nil
	}

	t := p.createTable()
	t.AppendHeader(header("SERVICE URI", "DEFAULT DATABASE", "DESCRIPTION"))
	for _, ep := range endpoints {
		t.AppendRow(table.Row{ep.URI, ep.DefaultDatabase, ep.Description})
	}
	t.Render()
	p.total(len(endpoints), "services")
	return nil
}

// toolSummary is the structured form of a tool listing.
type toolSummary struct {
	Name        string `json:"name" yaml:"name"`
	ReadOnly    bool   `json:"readOnly" yaml:"readOnly"`
	Destructive bool   `json:"destructive" yaml:"destructive"`
	Description string `json:"description" yaml:"description"`
}

// Tools prints tool names with their annotations, sorted by name.
func (p *Printer) Tools(tools []mcp.Tool) error {
	summaries := make([]toolSummary, 0, len(tools))
	for _, tool := range tools {
		summaries = append(summaries, toolSummary{
			Name:        tool.Name,
			ReadOnly:    boolValue(tool.Annotations.ReadOnlyHint),
			Destructive: boolValue(tool.Annotations.DestructiveHint),
			Description: tool.Description,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })

	if p.format != FormatTable {
		return p.structured(summaries)
	}

	t := p.createTable()
	t.AppendHeader(header("TOOL", "READ ONLY", "DESTRUCTIVE", "DESCRIPTION"))
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Name, s.ReadOnly, s.Destructive, truncate(s.Description)})
	}
	t.Render()
	p.total(len(summaries), "tools")
	return nil
}

// Result prints a decoded result table.
func (p *Printer) Result(r *codec.Result) error {
	if p.format != FormatTable {
		if r.IsEmpty() {
			return p.structured([]map[string]any{})
		}
		return p.structured(r.Records())
	}
	if r.IsEmpty() {
		p.empty("Empty result")
		return nil
	}

	t := p.createTable()
	// Column names are data and keep their case.
	t.Style().Format.Header = text.FormatDefault
	row := make(table.Row, 0, len(r.Columns))
	for _, c := range r.Columns {
		row = append(row, text.FgHiCyan.Sprint(c))
	}
	t.AppendHeader(row)
	for _, values := range r.Rows {
		cells := make(table.Row, 0, len(r.Columns))
		for c := range r.Columns {
			var v any
			if c < len(values) {
				v = values[c]
			}
			cells = append(cells, cellString(v))
		}
		t.AppendRow(cells)
	}
	t.Render()
	p.total(len(r.Rows), "rows")
	return nil
}

func (p *Printer) structured(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", p.format)
	}
}

// createTable creates a new table with standard styling
func (p *Printer) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (p *Printer) empty(message string) {
	fmt.Fprintf(p.out, "%s %s\n", text.FgYellow.Sprint("📋"), text.FgYellow.Sprint(message))
}

func (p *Printer) total(n int, noun string) {
	fmt.Fprintf(p.out, "\n%s %s %s\n",
		text.FgHiBlue.Sprint("Total:"),
		text.FgHiWhite.Sprint(n),
		text.FgHiBlue.Sprint(noun))
}

func header(names ...string) table.Row {
	row := make(table.Row, 0, len(names))
	for _, name := range names {
		row = append(row, text.FgHiCyan.Sprint(name))
	}
	return row
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return truncate(fmt.Sprintf("%v", v))
}

func truncate(s string) string {
	if len(s) > maxCellWidth {
		return s[:maxCellWidth-3] + "..."
	}
	return s
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
