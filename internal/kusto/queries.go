package kusto

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var queryFuncs = func() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["kqlString"] = kqlString
	return funcs
}()

func mustQuery(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(queryFuncs).Parse(text))
}

var (
	describeDatabaseQuery = mustQuery("describe_database", `.show databases entities with (showObfuscatedStrings=true) `+
		`| where DatabaseName == {{ kqlString .Database }} `+
		`| project EntityName, EntityType, Folder, DocString, CslInputSchema, Content, CslOutputSchema`)

	graphSampleQuery = mustQuery("graph_sample", `
{{- $nodes := max 1 (div .SampleSize 2) -}}
let NodeSample = graph({{ kqlString .Graph }})
| graph-to-table nodes
| take {{ $nodes }}
| project PackedEntity=pack_all(), EntityType='Node';
let EdgeSample = graph({{ kqlString .Graph }})
| graph-to-table edges
| take {{ max 1 (sub .SampleSize $nodes) }}
| project PackedEntity=pack_all(), EntityType='Edge';
NodeSample
| union EdgeSample`)

	shotsQuery = mustQuery("shots", `let model_endpoint = {{ kqlString .Endpoint }};
let embedded_term = toscalar(evaluate ai_embeddings({{ kqlString .Prompt }}, model_endpoint));
{{ .Table }}
| extend similarity = series_cosine_similarity(embedded_term, EmbeddingVector)
| top {{ .SampleSize }} by similarity
| project similarity, EmbeddingText, AugmentedText`)

	diffPatternsQuery = mustQuery("diffpatterns", `{{ .Table }}
| where ({{ .First }}) or ({{ .Second }})
| extend AB = iff({{ .Second }}, 'Anomaly', 'Baseline')
{{- if .Columns }}
| project {{ join ", " .Columns }}, AB
{{- end }}
| evaluate diffpatterns(AB, 'Anomaly', 'Baseline', '~', {{ .Threshold }})`)
)

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render %s query: %w", t.Name(), err)
	}
	return strings.TrimSpace(b.String()), nil
}

// kqlString quotes s as a single-quoted KQL string literal.
func kqlString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

const (
	listDatabasesCommand         = ".show databases | project DatabaseName, DatabaseAccessMode, PrettyName, DatabaseId"
	listTablesCommand            = ".show tables | project-away DatabaseName"
	listMaterializedViewsCommand = ".show materialized-views"
	listFunctionsCommand         = ".show functions"
	listGraphModelsCommand       = ".show graph_models | project-away DatabaseName"
)

func listEntitiesCommand(t EntityType) string {
	switch t {
	case EntityDatabase:
		return listDatabasesCommand
	case EntityTable:
		return listTablesCommand
	case EntityMaterializedView:
		return listMaterializedViewsCommand
	case EntityFunction:
		return listFunctionsCommand
	case EntityGraph:
		return listGraphModelsCommand
	}
	return ""
}

func describeEntityCommand(t EntityType, name string) (string, error) {
	switch t {
	case EntityTable:
		return fmt.Sprintf(".show table %s cslschema", name), nil
	case EntityFunction:
		return fmt.Sprintf(".show function %s", name), nil
	case EntityMaterializedView:
		return fmt.Sprintf(".show materialized-view %s "+
			"| project Name, SourceTable, Query, LastRun, LastRunResult, IsHealthy, IsEnabled, DocString", name), nil
	case EntityGraph:
		return fmt.Sprintf(".show graph_model %s details | project Name, Model", name), nil
	}
	return "", fmt.Errorf("describing entity type '%s' is not supported", t)
}

func sampleEntityQuery(t EntityType, name string, size int) (string, error) {
	switch t {
	case EntityTable, EntityMaterializedView, EntityFunction:
		return fmt.Sprintf("%s | sample %d", name, size), nil
	case EntityGraph:
		return render(graphSampleQuery, struct {
			Graph      string
			SampleSize int
		}{name, size})
	}
	return "", fmt.Errorf("sampling not supported for entity type '%s'", t)
}

// diffPatternsThreshold turns "~" (the operator default) or a number in
// [0.015, 1.0] into a KQL argument.
func diffPatternsThreshold(threshold string) (string, error) {
	threshold = strings.TrimSpace(threshold)
	if threshold == "" || threshold == "~" {
		return "'~'", nil
	}
	v, err := strconv.ParseFloat(threshold, 64)
	if err != nil {
		return "", fmt.Errorf("threshold must be '~' or a number: %w", err)
	}
	if v < 0.015 || v > 1.0 {
		return "", fmt.Errorf("threshold %s is outside [0.015, 1.0]", threshold)
	}
	return threshold, nil
}
