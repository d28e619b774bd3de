package kusto

import (
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"rtimcp/internal/codec"
)

// Properties are the client request properties sent with a call.
type Properties struct {
	Application     string
	ClientRequestID string
	Options         map[string]any
}

// QueryClient executes queries and management commands. Text starting with
// a dot is a management command.
type QueryClient interface {
	Execute(ctx context.Context, database, text string, props Properties) (*codec.Result, error)
	Close() error
}

// IngestClient streams data into a table.
type IngestClient interface {
	IngestCSV(ctx context.Context, database, table string, data io.Reader) error
	Close() error
}

// ClientFactory builds the client pair for a cluster. The credential must be
// consulted on every request; it reads the caller from the request context.
type ClientFactory func(uri, defaultDatabase string, cred azcore.TokenCredential) (QueryClient, IngestClient, error)
