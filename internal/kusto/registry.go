package kusto

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"golang.org/x/sync/errgroup"

	"rtimcp/internal/metrics"
	"rtimcp/pkg/logging"
)

// Connection is the client pair for one cluster. It is immutable once built
// and holds no caller credentials.
type Connection struct {
	URI             string
	DefaultDatabase string
	Query           QueryClient
	Ingest          IngestClient
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// KnownServices is the allowlist of clusters and their default databases.
	KnownServices []Endpoint

	// AllowUnknownServices permits clusters outside KnownServices.
	AllowUnknownServices bool

	// FallbackDatabase is used when a cluster has no default database.
	// Defaults to DefaultDatabaseName.
	FallbackDatabase string

	// InteractiveLogin appends a browser login to the ambient credential chain.
	InteractiveLogin bool

	// Factory builds clients; defaults to NewSDKClients.
	Factory ClientFactory

	// AmbientCredential overrides the ambient identity chain.
	AmbientCredential azcore.TokenCredential
}

// Registry caches connections by normalized cluster URI.
//
// Thread-safe: Yes. Connections are built while holding the lock, so two
// concurrent first calls for a cluster never build two client pairs.
type Registry struct {
	mu           sync.Mutex
	connections  map[string]*Connection
	known        map[string]Endpoint
	allowUnknown bool
	fallbackDB   string
	factory      ClientFactory
	credential   azcore.TokenCredential
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	fallback := strings.TrimSpace(opts.FallbackDatabase)
	if fallback == "" {
		fallback = DefaultDatabaseName
	}
	factory := opts.Factory
	if factory == nil {
		factory = NewSDKClients
	}

	ambient := sync.OnceValues(func() (azcore.TokenCredential, error) {
		if opts.AmbientCredential != nil {
			return opts.AmbientCredential, nil
		}
		return newAmbientCredential(opts.InteractiveLogin)
	})

	return &Registry{
		connections:  make(map[string]*Connection),
		known:        knownEndpoints(opts.KnownServices),
		allowUnknown: opts.AllowUnknownServices,
		fallbackDB:   fallback,
		factory:      factory,
		credential:   &contextCredential{ambient: ambient, now: time.Now},
	}
}

// Get returns the cached connection for clusterURI, creating it on first use.
// It returns a *PolicyError for unknown clusters when they are not allowed.
func (r *Registry) Get(clusterURI string) (*Connection, error) {
	uri := NormalizeURI(clusterURI)
	if uri == "" {
		return nil, errors.New("cluster URI is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if conn, ok := r.connections[uri]; ok {
		return conn, nil
	}

	database := r.fallbackDB
	if ep, ok := r.known[uri]; ok {
		if ep.DefaultDatabase != "" {
			database = ep.DefaultDatabase
		}
	} else if !r.allowUnknown {
		logging.Warn("Registry", "Rejected connection to unknown service %s", uri)
		return nil, &PolicyError{URI: uri}
	}

	queryClient, ingestClient, err := r.factory(uri, database, r.credential)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", uri, err)
	}

	conn := &Connection{
		URI:             uri,
		DefaultDatabase: database,
		Query:           queryClient,
		Ingest:          ingestClient,
	}
	r.connections[uri] = conn
	metrics.SetKustoConnections(len(r.connections))
	logging.Info("Registry", "Connected to %s (default database %s)", uri, database)
	return conn, nil
}

// KnownServices returns the allowlist sorted by URI.
func (r *Registry) KnownServices() []Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedEndpoints(r.known)
}

// UpdateKnownServices replaces the allowlist. Cached connections are kept.
func (r *Registry) UpdateKnownServices(endpoints []Endpoint, allowUnknown bool) {
	known := knownEndpoints(endpoints)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.known = known
	r.allowUnknown = allowUnknown
	logging.Info("Registry", "Known services updated (%d services, allow unknown: %t)", len(known), allowUnknown)
}

// ConnectAll creates connections for every known service up front.
func (r *Registry) ConnectAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, ep := range r.KnownServices() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := r.Get(ep.URI)
			return err
		})
	}
	return g.Wait()
}

// Len returns the number of cached connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}

// Close closes every cached client and empties the cache.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for uri, conn := range r.connections {
		if conn.Query != nil {
			if err := conn.Query.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close query client for %s: %w", uri, err))
			}
		}
		if conn.Ingest != nil {
			if err := conn.Ingest.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close ingestion client for %s: %w", uri, err))
			}
		}
	}
	r.connections = make(map[string]*Connection)
	metrics.SetKustoConnections(0)
	return errors.Join(errs...)
}
