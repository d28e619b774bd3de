package kusto

import "sort"

// Operation describes a tool-level Kusto operation.
type Operation struct {
	Name string

	// Destructive operations may modify cluster state and are sent without
	// request_readonly.
	Destructive bool

	// Hints advertised to MCP clients.
	ReadOnlyHint    bool
	DestructiveHint bool
}

// Operation names.
const (
	OpKnownServices       = "kusto_known_services"
	OpQuery               = "kusto_query"
	OpCommand             = "kusto_command"
	OpListEntities        = "kusto_list_entities"
	OpDescribeDatabase    = "kusto_describe_database"
	OpDescribeEntity      = "kusto_describe_database_entity"
	OpGraphQuery          = "kusto_graph_query"
	OpSampleEntity        = "kusto_sample_entity"
	OpIngestInline        = "kusto_ingest_inline_into_table"
	OpStreamIngestCSV     = "kusto_stream_ingest_csv"
	OpGetShots            = "kusto_get_shots"
	OpDiffPatternsAnomaly = "anomaly_diffpatterns_query"
)

var operations = map[string]Operation{
	OpKnownServices:       {Name: OpKnownServices, ReadOnlyHint: true},
	OpQuery:               {Name: OpQuery, ReadOnlyHint: true},
	OpCommand:             {Name: OpCommand, Destructive: true, DestructiveHint: true},
	OpListEntities:        {Name: OpListEntities, ReadOnlyHint: true},
	OpDescribeDatabase:    {Name: OpDescribeDatabase, ReadOnlyHint: true},
	OpDescribeEntity:      {Name: OpDescribeEntity, ReadOnlyHint: true},
	OpGraphQuery:          {Name: OpGraphQuery, ReadOnlyHint: true},
	OpSampleEntity:        {Name: OpSampleEntity, ReadOnlyHint: true},
	OpIngestInline:        {Name: OpIngestInline, Destructive: true},
	OpStreamIngestCSV:     {Name: OpStreamIngestCSV, Destructive: true},
	OpGetShots:            {Name: OpGetShots},
	OpDiffPatternsAnomaly: {Name: OpDiffPatternsAnomaly, ReadOnlyHint: true},
}

// LookupOperation returns the operation registered under name.
func LookupOperation(name string) (Operation, bool) {
	op, ok := operations[name]
	return op, ok
}

// Operations returns every operation sorted by name.
func Operations() []Operation {
	ops := make([]Operation, 0, len(operations))
	for _, op := range operations {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// isDestructive reports whether the named operation may modify state.
// Unknown names are treated as read-only.
func isDestructive(name string) bool {
	return operations[name].Destructive
}
