package kusto

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/Azure/azure-kusto-go/azkustodata"
	"github.com/Azure/azure-kusto-go/azkustodata/kql"
	"github.com/Azure/azure-kusto-go/azkustodata/query"
	"github.com/Azure/azure-kusto-go/azkustoingest"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"rtimcp/internal/codec"
)

// NewSDKClients is the ClientFactory backed by the Azure Kusto SDK.
func NewSDKClients(uri, defaultDatabase string, cred azcore.TokenCredential) (QueryClient, IngestClient, error) {
	kcsb := azkustodata.NewConnectionStringBuilder(uri).WithTokenCredential(cred)

	queryClient, err := azkustodata.New(kcsb)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create query client for %s: %w", uri, err)
	}

	ingestClient, err := azkustoingest.NewStreaming(kcsb, azkustoingest.WithDefaultDatabase(defaultDatabase))
	if err != nil {
		_ = queryClient.Close()
		return nil, nil, fmt.Errorf("failed to create ingestion client for %s: %w", uri, err)
	}

	return &sdkQueryClient{client: queryClient}, &sdkIngestClient{client: ingestClient}, nil
}

type sdkQueryClient struct {
	client *azkustodata.Client
}

type tableSet interface {
	Tables() []query.Table
}

func (c *sdkQueryClient) Execute(ctx context.Context, database, text string, props Properties) (*codec.Result, error) {
	stmt := kql.New("").AddUnsafe(text)
	opts := queryOptions(props)

	var (
		dataset tableSet
		err     error
	)
	if isManagementCommand(text) {
		dataset, err = c.client.Mgmt(ctx, database, stmt, opts...)
	} else {
		dataset, err = c.client.Query(ctx, database, stmt, opts...)
	}
	if err != nil {
		return nil, err
	}
	return resultFromTables(dataset.Tables()), nil
}

func (c *sdkQueryClient) Close() error {
	return c.client.Close()
}

func queryOptions(props Properties) []azkustodata.QueryOption {
	opts := make([]azkustodata.QueryOption, 0, len(props.Options)+2)
	if props.Application != "" {
		opts = append(opts, azkustodata.Application(props.Application))
	}
	if props.ClientRequestID != "" {
		opts = append(opts, azkustodata.ClientRequestID(props.ClientRequestID))
	}
	for name, value := range props.Options {
		opts = append(opts, azkustodata.CustomQueryOption(name, value))
	}
	return opts
}

// resultFromTables converts the primary result table.
func resultFromTables(tables []query.Table) *codec.Result {
	if len(tables) == 0 {
		return &codec.Result{}
	}
	table := tables[0]
	for _, t := range tables {
		if t.IsPrimaryResult() {
			table = t
			break
		}
	}

	columns := table.Columns()
	result := &codec.Result{Columns: make([]string, len(columns))}
	for i, col := range columns {
		result.Columns[i] = col.Name()
	}
	for _, row := range table.Rows() {
		values := row.Values()
		cells := make([]any, len(columns))
		for i := range cells {
			if i < len(values) && values[i] != nil {
				cells[i] = plainValue(values[i].GetValue())
			}
		}
		result.Rows = append(result.Rows, cells)
	}
	return result
}

// plainValue dereferences the SDK's nullable pointers and keeps dynamic
// values as raw JSON.
func plainValue(v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		if json.Valid(b) {
			return json.RawMessage(b)
		}
		return string(b)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return plainValue(rv.Elem().Interface())
	}
	return v
}

func isManagementCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ".")
}

type sdkIngestClient struct {
	client *azkustoingest.Streaming
}

func (c *sdkIngestClient) IngestCSV(ctx context.Context, database, table string, data io.Reader) error {
	_, err := c.client.FromReader(ctx, data,
		azkustoingest.Database(database),
		azkustoingest.Table(table),
		azkustoingest.FileFormat(azkustoingest.CSV),
	)
	return err
}

func (c *sdkIngestClient) Close() error {
	return c.client.Close()
}
