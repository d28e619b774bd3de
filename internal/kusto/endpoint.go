package kusto

import (
	"sort"
	"strings"
)

// DefaultDatabaseName is the database used when neither the call nor the
// endpoint names one.
const DefaultDatabaseName = "NetDefaultDB"

// Endpoint is a known Kusto cluster.
type Endpoint struct {
	URI             string `json:"service_uri" yaml:"serviceUri"`
	DefaultDatabase string `json:"default_database,omitempty" yaml:"defaultDatabase,omitempty"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NormalizeURI trims whitespace and a single trailing slash.
func NormalizeURI(uri string) string {
	uri = strings.TrimSpace(uri)
	return strings.TrimSuffix(uri, "/")
}

// knownEndpoints indexes endpoints by normalized URI. Later entries win.
func knownEndpoints(endpoints []Endpoint) map[string]Endpoint {
	known := make(map[string]Endpoint, len(endpoints))
	for _, ep := range endpoints {
		uri := NormalizeURI(ep.URI)
		if uri == "" {
			continue
		}
		ep.URI = uri
		ep.DefaultDatabase = strings.TrimSpace(ep.DefaultDatabase)
		known[uri] = ep
	}
	return known
}

func sortedEndpoints(known map[string]Endpoint) []Endpoint {
	endpoints := make([]Endpoint, 0, len(known))
	for _, ep := range known {
		endpoints = append(endpoints, ep)
	}
	sort.Slice(endpoints, func(i, j int) bool {
		return endpoints[i].URI < endpoints[j].URI
	})
	return endpoints
}
