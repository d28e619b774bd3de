package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"rtimcp/internal/codec"
	"rtimcp/internal/kusto"
	"rtimcp/pkg/logging"
)

// Provider exposes a kusto.Service as MCP tools.
type Provider struct {
	service *kusto.Service
}

// NewProvider creates a provider backed by service.
func NewProvider(service *kusto.Service) *Provider {
	return &Provider{service: service}
}

// Register adds every tool to s.
func (p *Provider) Register(s *server.MCPServer) {
	s.AddTools(p.Tools()...)
}

// payloadFunc runs one operation against an already parsed target.
type payloadFunc func(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error)

// Tools returns the tool definitions with their handlers.
func (p *Provider) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: newTool(kusto.OpKnownServices,
				"Retrieves a list of all Kusto services known to the MCP. "+
					"Each entry has service_uri, default_database and description."),
			Handler: p.handleKnownServices,
		},
		{
			Tool: newTool(kusto.OpQuery,
				"Executes a KQL query on the specified database. If no database is provided, it will use the default database.",
				mcp.WithString("query", mcp.Required(), mcp.Description("The KQL query to execute.")),
			),
			Handler: p.bind(kusto.OpQuery, p.query),
		},
		{
			Tool: newTool(kusto.OpCommand,
				"Executes a kusto management command on the specified database. If no database is provided, it will use the default database.",
				mcp.WithString("command", mcp.Required(), mcp.Description("The kusto management command to execute.")),
			),
			Handler: p.bind(kusto.OpCommand, p.command),
		},
		{
			Tool: newTool(kusto.OpListEntities,
				"Retrieves a list of all entities (databases, tables, materialized views, functions, graphs) in the Kusto cluster. "+
					"A database is required for all types except databases.",
				mcp.WithString("entity_type", mcp.Required(),
					mcp.Description(`Type of entities to list: "databases", "tables", "materialized-views", "functions", "graphs".`)),
			),
			Handler: p.bind(kusto.OpListEntities, p.listEntities),
		},
		{
			Tool: newTool(kusto.OpDescribeDatabase,
				"Retrieves schema information for all entities (tables, materialized views, functions, graphs) in the specified database. "+
					"Schema alone may hide dynamic columns, so kusto_sample_entity is often useful next."),
			Handler: p.bind(kusto.OpDescribeDatabase, p.describeDatabase),
		},
		{
			Tool: newTool(kusto.OpDescribeEntity,
				"Retrieves the schema information for a specific entity (table, materialized view, function, graph) in the specified database.",
				mcp.WithString("entity_name", mcp.Required(), mcp.Description("Name of the entity to get schema for.")),
				mcp.WithString("entity_type", mcp.Required(), mcp.Description("Type of the entity (table, materialized view, function, graph).")),
			),
			Handler: p.bind(kusto.OpDescribeEntity, p.describeEntity),
		},
		{
			Tool: newTool(kusto.OpGraphQuery,
				"Executes a graph query against a persistent graph. The query is appended after graph('<graph_name>').",
				mcp.WithString("graph_name", mcp.Required(), mcp.Description("Name of the graph to query.")),
				mcp.WithString("query", mcp.Required(),
					mcp.Description("The KQL to run after the graph() function. graph-match queries must include a project clause.")),
			),
			Handler: p.bind(kusto.OpGraphQuery, p.graphQuery),
		},
		{
			Tool: newTool(kusto.OpSampleEntity,
				"Retrieves a data sample from the specified entity. If no database is provided, uses the default database.",
				mcp.WithString("entity_name", mcp.Required(), mcp.Description("Name of the entity to sample data from.")),
				mcp.WithString("entity_type", mcp.Required(), mcp.Description("Type of the entity (table, materialized-view, function, graph).")),
				mcp.WithNumber("sample_size", mcp.Description("Number of records to sample. Defaults to 10.")),
			),
			Handler: p.bind(kusto.OpSampleEntity, p.sampleEntity),
		},
		{
			Tool: newTool(kusto.OpIngestInline,
				"Ingests inline CSV data into a specified table. The data should be provided as a comma-separated string.",
				mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table to ingest data into.")),
				mcp.WithString("data_comma_separator", mcp.Required(), mcp.Description("Comma-separated data string to ingest.")),
			),
			Handler: p.bind(kusto.OpIngestInline, p.ingestInline),
		},
		{
			Tool: newTool(kusto.OpStreamIngestCSV,
				"Streams CSV rows into a table through the streaming ingestion endpoint. Suited to larger payloads than inline ingestion.",
				mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table to ingest data into.")),
				mcp.WithString("csv_data", mcp.Required(), mcp.Description("CSV rows to ingest, without a header line.")),
			),
			Handler: p.bind(kusto.OpStreamIngestCSV, p.streamIngestCSV),
		},
		{
			Tool: newTool(kusto.OpGetShots,
				"Retrieves the example shots most similar to the prompt from a shots table, using semantic similarity over embeddings.",
				mcp.WithString("prompt", mcp.Required(), mcp.Description("The user prompt to find similar shots for.")),
				mcp.WithString("shots_table_name", mcp.Required(), mcp.Description("Name of the table with EmbeddingText and AugmentedText columns.")),
				mcp.WithNumber("sample_size", mcp.Description("Number of shots to retrieve. Defaults to 3.")),
				mcp.WithString("embedding_endpoint", mcp.Description("Optional embedding model endpoint. Defaults to the configured endpoint.")),
			),
			Handler: p.bind(kusto.OpGetShots, p.getShots),
		},
		{
			Tool: newTool(kusto.OpDiffPatternsAnomaly,
				"Compares two sets of rows of a table with the diffpatterns plugin and returns the patterns that set them apart.",
				mcp.WithString("table_name", mcp.Required(), mcp.Description("Name of the table to analyze.")),
				mcp.WithString("first_set_condition", mcp.Required(), mcp.Description("KQL predicate selecting the baseline rows.")),
				mcp.WithString("second_set_condition", mcp.Required(), mcp.Description("KQL predicate selecting the anomalous rows.")),
				mcp.WithString("threshold",
					mcp.Description(`Minimum pattern weight difference between 0.015 and 1, or "~" for the plugin default.`)),
				mcp.WithArray("project_columns", mcp.WithStringItems(),
					mcp.Description("Optional columns to keep before comparing.")),
			),
			Handler: p.bind(kusto.OpDiffPatternsAnomaly, p.diffPatterns),
		},
	}
}

func newTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	op, _ := kusto.LookupOperation(name)
	all := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(op.ReadOnlyHint),
		mcp.WithDestructiveHintAnnotation(op.DestructiveHint),
	}
	all = append(all, opts...)
	if name != kusto.OpKnownServices {
		all = append(all, targetOptions()...)
	}
	return mcp.NewTool(name, all...)
}

// bind adapts a payloadFunc into an MCP handler. Errors become tool errors.
func (p *Provider) bind(name string, fn payloadFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.Debug("Tools", "Calling %s", name)

		target, err := targetFrom(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		payload, err := fn(ctx, request, target)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(payload.String()), nil
	}
}

func (p *Provider) handleKnownServices(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services := p.service.KnownServices()
	if services == nil {
		services = []kusto.Endpoint{}
	}
	data, err := json.Marshal(services)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format known services: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (p *Provider) query(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	query, err := requireString(request, "query")
	if err != nil {
		return nil, err
	}
	return p.service.Query(ctx, target, query)
}

func (p *Provider) command(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	command, err := requireString(request, "command")
	if err != nil {
		return nil, err
	}
	return p.service.Command(ctx, target, command)
}

func (p *Provider) listEntities(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	entityType, err := requireString(request, "entity_type")
	if err != nil {
		return nil, err
	}
	return p.service.ListEntities(ctx, target, entityType)
}

func (p *Provider) describeDatabase(ctx context.Context, _ mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	return p.service.DescribeDatabase(ctx, target)
}

func (p *Provider) describeEntity(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	name, err := requireString(request, "entity_name")
	if err != nil {
		return nil, err
	}
	entityType, err := requireString(request, "entity_type")
	if err != nil {
		return nil, err
	}
	return p.service.DescribeEntity(ctx, target, name, entityType)
}

func (p *Provider) graphQuery(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	graph, err := requireString(request, "graph_name")
	if err != nil {
		return nil, err
	}
	query, err := requireString(request, "query")
	if err != nil {
		return nil, err
	}
	return p.service.GraphQuery(ctx, target, graph, query)
}

func (p *Provider) sampleEntity(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	name, err := requireString(request, "entity_name")
	if err != nil {
		return nil, err
	}
	entityType, err := requireString(request, "entity_type")
	if err != nil {
		return nil, err
	}
	size := request.GetInt("sample_size", kusto.DefaultSampleSize)
	return p.service.SampleEntity(ctx, target, name, entityType, size)
}

func (p *Provider) ingestInline(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	table, err := requireString(request, "table_name")
	if err != nil {
		return nil, err
	}
	data, err := requireString(request, "data_comma_separator")
	if err != nil {
		return nil, err
	}
	return p.service.IngestInline(ctx, target, table, data)
}

func (p *Provider) streamIngestCSV(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	table, err := requireString(request, "table_name")
	if err != nil {
		return nil, err
	}
	data, err := requireString(request, "csv_data")
	if err != nil {
		return nil, err
	}
	return p.service.StreamIngestCSV(ctx, target, table, data)
}

func (p *Provider) getShots(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	prompt, err := requireString(request, "prompt")
	if err != nil {
		return nil, err
	}
	table, err := requireString(request, "shots_table_name")
	if err != nil {
		return nil, err
	}
	size := request.GetInt("sample_size", kusto.DefaultShotsSampleSize)
	endpoint := request.GetString("embedding_endpoint", "")
	return p.service.GetShots(ctx, target, prompt, table, size, endpoint)
}

func (p *Provider) diffPatterns(ctx context.Context, request mcp.CallToolRequest, target kusto.Target) (*codec.Payload, error) {
	table, err := requireString(request, "table_name")
	if err != nil {
		return nil, err
	}
	first, err := requireString(request, "first_set_condition")
	if err != nil {
		return nil, err
	}
	second, err := requireString(request, "second_set_condition")
	if err != nil {
		return nil, err
	}
	columns, err := stringSlice(request, "project_columns")
	if err != nil {
		return nil, err
	}
	return p.service.DiffPatterns(ctx, target, kusto.DiffPatternsRequest{
		Table:          table,
		FirstSet:       first,
		SecondSet:      second,
		Threshold:      request.GetString("threshold", "~"),
		ProjectColumns: columns,
	})
}
