package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"rtimcp/internal/kusto"
)

const (
	argClusterURI = "cluster_uri"
	argDatabase   = "database"
	argProperties = "client_request_properties"
)

// targetOptions are the parameters shared by every cluster-bound tool.
func targetOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(argClusterURI,
			mcp.Required(),
			mcp.Description("The URI of the Kusto cluster."),
		),
		mcp.WithString(argDatabase,
			mcp.Description("Optional database name. If not provided, uses the default database."),
		),
		mcp.WithObject(argProperties,
			mcp.Description("Optional dictionary of additional client request properties."),
		),
	}
}

// targetFrom reads the shared parameters.
func targetFrom(request mcp.CallToolRequest) (kusto.Target, error) {
	clusterURI, err := request.RequireString(argClusterURI)
	if err != nil || strings.TrimSpace(clusterURI) == "" {
		return kusto.Target{}, fmt.Errorf("%s argument is required", argClusterURI)
	}

	target := kusto.Target{
		ClusterURI: clusterURI,
		Database:   request.GetString(argDatabase, ""),
	}

	if raw, ok := request.GetArguments()[argProperties]; ok && raw != nil {
		props, ok := raw.(map[string]any)
		if !ok {
			return kusto.Target{}, fmt.Errorf("%s must be a JSON object", argProperties)
		}
		target.Properties = props
	}
	return target, nil
}

func requireString(request mcp.CallToolRequest, name string) (string, error) {
	value, err := request.RequireString(name)
	if err != nil {
		return "", fmt.Errorf("%s argument is required", name)
	}
	return value, nil
}

// stringSlice reads an array of strings. A single string is split on commas.
func stringSlice(request mcp.CallToolRequest, name string) ([]string, error) {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be an array of strings", name)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}
}
