package kusto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	optionRequestReadonly = "request_readonly"
	optionServerTimeout   = "servertimeout"
)

// newProperties builds the request properties for one call. Caller supplied
// options are applied last and override the defaults.
func newProperties(operation, version string, timeout time.Duration, overrides map[string]any) Properties {
	props := Properties{
		Application:     fmt.Sprintf("fabric-rti-mcp{%s}", version),
		ClientRequestID: fmt.Sprintf("KFRTI_MCP.%s:%s", operation, uuid.NewString()),
		Options:         map[string]any{},
	}
	if !isDestructive(operation) {
		props.Options[optionRequestReadonly] = true
	}
	if timeout > 0 {
		props.Options[optionServerTimeout] = FormatTimespan(timeout)
	}
	for name, value := range overrides {
		props.Options[name] = value
	}
	return props
}

// FormatTimespan renders d as a Kusto timespan literal, HH:MM:SS.
// Sub-second precision is dropped.
func FormatTimespan(d time.Duration) string {
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
