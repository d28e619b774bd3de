package kusto

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rtimcp/internal/codec"
	"rtimcp/internal/metrics"
	"rtimcp/pkg/logging"
)

// DefaultSampleSize and DefaultShotsSampleSize are the tool defaults.
const (
	DefaultSampleSize      = 10
	DefaultShotsSampleSize = 3
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// Version is reported in the application request property.
	Version string

	// Timeout is sent as the servertimeout request property when positive.
	Timeout time.Duration

	// EmbeddingEndpoint is the default model endpoint for GetShots.
	EmbeddingEndpoint string

	// Format is the result encoding; defaults to columnar.
	Format codec.Format
}

// Target names the cluster and database an operation runs against, plus
// caller supplied request properties.
type Target struct {
	ClusterURI string
	Database   string
	Properties map[string]any
}

// Service implements the Kusto tool operations.
type Service struct {
	registry          *Registry
	version           string
	timeout           time.Duration
	embeddingEndpoint string
	format            codec.Format
}

func NewService(registry *Registry, opts ServiceOptions) *Service {
	format := opts.Format
	if format == "" {
		format = codec.FormatColumnar
	}
	return &Service{
		registry:          registry,
		version:           opts.Version,
		timeout:           opts.Timeout,
		embeddingEndpoint: opts.EmbeddingEndpoint,
		format:            format,
	}
}

// KnownServices lists the configured clusters.
func (s *Service) KnownServices() []Endpoint {
	return s.registry.KnownServices()
}

// Query runs a KQL query.
func (s *Service) Query(ctx context.Context, target Target, query string) (*codec.Payload, error) {
	return s.execute(ctx, OpQuery, target, query)
}

// Command runs a management command. Commands are sent without
// request_readonly.
func (s *Service) Command(ctx context.Context, target Target, command string) (*codec.Payload, error) {
	return s.execute(ctx, OpCommand, target, command)
}

// ListEntities lists entities of one type. Databases are listed cluster-wide.
func (s *Service) ListEntities(ctx context.Context, target Target, entityType string) (*codec.Payload, error) {
	t, err := ParseEntityType(entityType)
	if err != nil {
		return nil, err
	}
	if t == EntityDatabase {
		target.Database = DefaultDatabaseName
	}
	return s.execute(ctx, OpListEntities, target, listEntitiesCommand(t))
}

// DescribeDatabase returns the schema of every entity in the database.
func (s *Service) DescribeDatabase(ctx context.Context, target Target) (*codec.Payload, error) {
	database, err := s.resolveDatabase(target)
	if err != nil {
		return nil, err
	}
	target.Database = database

	command, err := render(describeDatabaseQuery, struct{ Database string }{database})
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, OpDescribeDatabase, target, command)
}

// DescribeEntity returns the schema of a single entity.
func (s *Service) DescribeEntity(ctx context.Context, target Target, entityName, entityType string) (*codec.Payload, error) {
	t, err := ParseEntityType(entityType)
	if err != nil {
		return nil, err
	}
	command, err := describeEntityCommand(t, strings.TrimSpace(entityName))
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, OpDescribeEntity, target, command)
}

// GraphQuery runs query against a persisted graph model.
func (s *Service) GraphQuery(ctx context.Context, target Target, graphName, query string) (*codec.Payload, error) {
	if strings.TrimSpace(graphName) == "" {
		return nil, errors.New("graph name is required")
	}
	text := fmt.Sprintf("graph(%s) %s", kqlString(strings.TrimSpace(graphName)), strings.TrimSpace(query))
	return s.execute(ctx, OpGraphQuery, target, text)
}

// SampleEntity returns up to sampleSize records. Graphs are sampled half
// nodes and half edges.
func (s *Service) SampleEntity(ctx context.Context, target Target, entityName, entityType string, sampleSize int) (*codec.Payload, error) {
	t, err := ParseEntityType(entityType)
	if err != nil {
		return nil, err
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	query, err := sampleEntityQuery(t, strings.TrimSpace(entityName), sampleSize)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, OpSampleEntity, target, query)
}

// IngestInline ingests comma separated rows with an inline ingestion command.
func (s *Service) IngestInline(ctx context.Context, target Target, tableName, data string) (*codec.Payload, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("table name is required")
	}
	command := fmt.Sprintf(".ingest inline into table %s <| %s", strings.TrimSpace(tableName), data)
	return s.execute(ctx, OpIngestInline, target, command)
}

// StreamIngestCSV streams CSV rows into a table through the ingestion client.
func (s *Service) StreamIngestCSV(ctx context.Context, target Target, tableName, data string) (*codec.Payload, error) {
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return nil, errors.New("table name is required")
	}

	start := time.Now()
	payload, err := s.streamIngest(ctx, target, tableName, data)
	metrics.ObserveKustoOperation(OpStreamIngestCSV, time.Since(start), err)
	if err != nil {
		logging.Error("Kusto", err, "%s into %s failed", OpStreamIngestCSV, tableName)
		return nil, &OperationError{Operation: OpStreamIngestCSV, Err: err}
	}
	return payload, nil
}

func (s *Service) streamIngest(ctx context.Context, target Target, tableName, data string) (*codec.Payload, error) {
	conn, err := s.registry.Get(target.ClusterURI)
	if err != nil {
		return nil, err
	}
	database := strings.TrimSpace(target.Database)
	if database == "" {
		database = conn.DefaultDatabase
	}
	if err := conn.Ingest.IngestCSV(ctx, database, tableName, strings.NewReader(data)); err != nil {
		return nil, err
	}
	result := codec.NewResult(
		[]string{"Database", "Table", "Status"},
		[]any{database, tableName, "Succeeded"},
	)
	return codec.Encode(s.format, result)
}

// GetShots returns the rows of a shots table most similar to prompt.
func (s *Service) GetShots(ctx context.Context, target Target, prompt, shotsTable string, sampleSize int, embeddingEndpoint string) (*codec.Payload, error) {
	endpoint := strings.TrimSpace(embeddingEndpoint)
	if endpoint == "" {
		endpoint = s.embeddingEndpoint
	}
	if endpoint == "" {
		return nil, errors.New("no embedding endpoint configured")
	}
	if strings.TrimSpace(shotsTable) == "" {
		return nil, errors.New("shots table name is required")
	}
	if sampleSize <= 0 {
		sampleSize = DefaultShotsSampleSize
	}

	query, err := render(shotsQuery, struct {
		Endpoint   string
		Prompt     string
		Table      string
		SampleSize int
	}{endpoint, prompt, strings.TrimSpace(shotsTable), sampleSize})
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, OpGetShots, target, query)
}

// DiffPatternsRequest describes an anomaly_diffpatterns_query call.
type DiffPatternsRequest struct {
	Table          string
	FirstSet       string
	SecondSet      string
	Threshold      string
	ProjectColumns []string
}

// DiffPatterns compares a baseline set of rows with an anomalous set using the
// diffpatterns plugin.
func (s *Service) DiffPatterns(ctx context.Context, target Target, req DiffPatternsRequest) (*codec.Payload, error) {
	if strings.TrimSpace(req.Table) == "" {
		return nil, errors.New("table name is required")
	}
	if strings.TrimSpace(req.FirstSet) == "" || strings.TrimSpace(req.SecondSet) == "" {
		return nil, errors.New("both set conditions are required")
	}
	threshold, err := diffPatternsThreshold(req.Threshold)
	if err != nil {
		return nil, err
	}

	query, err := render(diffPatternsQuery, struct {
		Table     string
		First     string
		Second    string
		Columns   []string
		Threshold string
	}{strings.TrimSpace(req.Table), req.FirstSet, req.SecondSet, req.ProjectColumns, threshold})
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, OpDiffPatternsAnomaly, target, query)
}

func (s *Service) resolveDatabase(target Target) (string, error) {
	if database := strings.TrimSpace(target.Database); database != "" {
		return database, nil
	}
	conn, err := s.registry.Get(target.ClusterURI)
	if err != nil {
		return "", err
	}
	return conn.DefaultDatabase, nil
}

// execute runs text under the request properties of operation and encodes the
// primary result.
func (s *Service) execute(ctx context.Context, operation string, target Target, text string) (*codec.Payload, error) {
	props := newProperties(operation, s.version, s.timeout, target.Properties)

	start := time.Now()
	payload, err := s.run(ctx, target, text, props)
	switch {
	case IsPolicyError(err):
		metrics.ObserveKustoRejection(operation)
		logging.Warn("Kusto", "%s rejected (correlation ID: %s): %v", operation, props.ClientRequestID, err)
		return nil, &OperationError{Operation: operation, CorrelationID: props.ClientRequestID, Err: err}
	case err != nil:
		metrics.ObserveKustoOperation(operation, time.Since(start), err)
		logging.Error("Kusto", err, "%s failed (correlation ID: %s)", operation, props.ClientRequestID)
		return nil, &OperationError{Operation: operation, CorrelationID: props.ClientRequestID, Err: err}
	}
	metrics.ObserveKustoOperation(operation, time.Since(start), nil)
	logging.Debug("Kusto", "%s succeeded (correlation ID: %s)", operation, props.ClientRequestID)
	return payload, nil
}

func (s *Service) run(ctx context.Context, target Target, text string, props Properties) (*codec.Payload, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("query text is required")
	}

	conn, err := s.registry.Get(target.ClusterURI)
	if err != nil {
		return nil, err
	}

	database := strings.TrimSpace(target.Database)
	if database == "" {
		database = conn.DefaultDatabase
	}

	result, err := conn.Query.Execute(ctx, database, text, props)
	if err != nil {
		return nil, err
	}
	return codec.Encode(s.format, result)
}
