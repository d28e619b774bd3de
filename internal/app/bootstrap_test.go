package app

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rtimcp/internal/config"
	"rtimcp/internal/kusto"
)

type countingFactory struct {
	calls atomic.Int32
}

func (f *countingFactory) build(_, _ string, _ azcore.TokenCredential) (kusto.QueryClient, kusto.IngestClient, error) {
	f.calls.Add(1)
	return nil, nil, nil
}

func testConfig(t *testing.T, mutate func(*config.Config)) (*Config, *countingFactory) {
	t.Helper()
	settings := config.Default()
	if mutate != nil {
		mutate(&settings)
	}
	factory := &countingFactory{}
	cfg := NewConfig(settings, "", "1.2.3")
	cfg.ClientFactory = factory.build
	return cfg, factory
}

func TestNewApplication_RegistersTools(t *testing.T) {
	cfg, factory := testConfig(t, nil)

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	services := application.Services()
	require.NotNil(t, services.MCPServer)
	assert.Len(t, services.Tools.Tools(), 12)
	assert.Zero(t, factory.calls.Load(), "no connection is opened at construction")

	resp := services.MCPServer.HandleMessage(context.Background(),
		json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), kusto.OpQuery)
	assert.Contains(t, string(body), kusto.OpKnownServices)
	assert.Contains(t, string(body), kusto.OpDiffPatternsAnomaly)
}

func TestNewApplication_InvalidResponseFormat(t *testing.T) {
	cfg, _ := testConfig(t, func(c *config.Config) {
		c.Kusto.ResponseFormat = "xml"
	})

	_, err := NewApplication(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid response format")
}

func TestNewApplication_KnownServices(t *testing.T) {
	cfg, _ := testConfig(t, func(c *config.Config) {
		c.Kusto.ServiceURI = "https://default.kusto.windows.net/"
		c.Kusto.DefaultDatabase = "Main"
		c.Kusto.KnownServices = []kusto.Endpoint{{URI: "https://help.kusto.windows.net", DefaultDatabase: "Samples"}}
	})

	application, err := NewApplication(cfg)
	require.NoError(t, err)

	known := application.Services().Registry.KnownServices()
	require.Len(t, known, 2)
	assert.Equal(t, "https://default.kusto.windows.net", known[0].URI)
	assert.Equal(t, "Main", known[0].DefaultDatabase)
	assert.Equal(t, "https://help.kusto.windows.net", known[1].URI)
}

func TestReloadKnownServices(t *testing.T) {
	cfg, _ := testConfig(t, func(c *config.Config) {
		c.Kusto.AllowUnknownServices = false
		c.Kusto.KnownServices = []kusto.Endpoint{{URI: "https://old.kusto.windows.net"}}
	})
	application, err := NewApplication(cfg)
	require.NoError(t, err)
	registry := application.Services().Registry

	_, err = registry.Get("https://new.kusto.windows.net")
	require.Error(t, err)

	reloaded := cfg.Settings
	reloaded.Kusto.KnownServices = []kusto.Endpoint{{URI: "https://new.kusto.windows.net"}}
	application.Services().reloadKnownServices(reloaded)

	known := registry.KnownServices()
	require.Len(t, known, 1)
	assert.Equal(t, "https://new.kusto.windows.net", known[0].URI)
	_, err = registry.Get("https://new.kusto.windows.net")
	assert.NoError(t, err)
}

func TestRun_HTTPEagerConnect(t *testing.T) {
	cfg, factory := testConfig(t, func(c *config.Config) {
		c.Server.Transport = config.TransportHTTP
		c.Server.Port = 0
		c.Kusto.EagerConnect = true
		c.Kusto.KnownServices = []kusto.Endpoint{
			{URI: "https://a.kusto.windows.net"},
			{URI: "https://b.kusto.windows.net"},
		}
	})
	application, err := NewApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	require.Eventually(t, func() bool {
		return factory.calls.Load() == 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, application.Services().Registry.Len(), "clients are closed on shutdown")
}
