package kusto

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	"rtimcp/internal/codec"
)

type executedCall struct {
	Database string
	Text     string
	Props    Properties
	Token    string
}

type fakeQueryClient struct {
	mu     sync.Mutex
	cred   azcore.TokenCredential
	calls  []executedCall
	result *codec.Result
	err    error
	closed bool
}

func (f *fakeQueryClient) Execute(ctx context.Context, database, text string, props Properties) (*codec.Result, error) {
	// Resolve the credential the way the SDK does, once per request.
	var token string
	if f.cred != nil {
		tok, err := f.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{"https://kusto.kusto.windows.net/.default"}})
		if err != nil {
			return nil, err
		}
		token = tok.Token
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, executedCall{Database: database, Text: text, Props: props, Token: token})
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return codec.NewResult([]string{"Result"}, []any{"ok"}), nil
}

func (f *fakeQueryClient) lastCall() executedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return executedCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeQueryClient) Close() error {
	f.closed = true
	return nil
}

type fakeIngestClient struct {
	database string
	table    string
	data     string
	err      error
	closed   bool
}

func (f *fakeIngestClient) IngestCSV(_ context.Context, database, table string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.database, f.table, f.data = database, table, string(b)
	return f.err
}

func (f *fakeIngestClient) Close() error {
	f.closed = true
	return nil
}

// fakeFactory records every client pair it builds.
type fakeFactory struct {
	mu        sync.Mutex
	builds    int
	databases []string
	queries   map[string]*fakeQueryClient
	ingests   map[string]*fakeIngestClient
	err       error
	result    *codec.Result
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		queries: map[string]*fakeQueryClient{},
		ingests: map[string]*fakeIngestClient{},
	}
}

func (f *fakeFactory) build(uri, database string, cred azcore.TokenCredential) (QueryClient, IngestClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	f.builds++
	f.databases = append(f.databases, database)
	q := &fakeQueryClient{cred: cred, result: f.result}
	i := &fakeIngestClient{}
	f.queries[uri] = q
	f.ingests[uri] = i
	return q, i, nil
}

func (f *fakeFactory) buildCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds
}

type fakeAmbient struct {
	token string
	calls int
}

func (f *fakeAmbient) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.calls++
	return azcore.AccessToken{Token: f.token, ExpiresOn: time.Now().Add(time.Hour)}, nil
}
