package kusto

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewProperties(t *testing.T) {
	t.Run("read-only operation", func(t *testing.T) {
		props := newProperties(OpQuery, "1.2.3", 0, nil)

		assert.Equal(t, "fabric-rti-mcp{1.2.3}", props.Application)
		assert.True(t, strings.HasPrefix(props.ClientRequestID, "KFRTI_MCP.kusto_query:"))
		assert.Len(t, strings.TrimPrefix(props.ClientRequestID, "KFRTI_MCP.kusto_query:"), 36)
		assert.Equal(t, true, props.Options["request_readonly"])
		assert.NotContains(t, props.Options, "servertimeout")
	})

	t.Run("destructive operation", func(t *testing.T) {
		for _, op := range []string{OpCommand, OpIngestInline} {
			props := newProperties(op, "1.2.3", 0, nil)
			assert.NotContains(t, props.Options, "request_readonly", op)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		props := newProperties(OpQuery, "v", 3665*time.Second, nil)
		assert.Equal(t, "01:01:05", props.Options["servertimeout"])
	})

	t.Run("caller properties override", func(t *testing.T) {
		props := newProperties(OpQuery, "v", time.Minute, map[string]any{
			"request_readonly": false,
			"servertimeout":    "00:00:10",
			"query_language":   "kql",
		})
		assert.Equal(t, false, props.Options["request_readonly"])
		assert.Equal(t, "00:00:10", props.Options["servertimeout"])
		assert.Equal(t, "kql", props.Options["query_language"])
	})

	t.Run("unique correlation ids", func(t *testing.T) {
		a := newProperties(OpQuery, "v", 0, nil)
		b := newProperties(OpQuery, "v", 0, nil)
		assert.NotEqual(t, a.ClientRequestID, b.ClientRequestID)
	})
}

func TestFormatTimespan(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatTimespan(0))
	assert.Equal(t, "00:00:30", FormatTimespan(30*time.Second+500*time.Millisecond))
	assert.Equal(t, "00:10:00", FormatTimespan(10*time.Minute))
	assert.Equal(t, "26:00:00", FormatTimespan(26*time.Hour))
}

func TestOperations(t *testing.T) {
	ops := Operations()
	assert.Len(t, ops, 12)
	for i := 1; i < len(ops); i++ {
		assert.Less(t, ops[i-1].Name, ops[i].Name)
	}

	cmd, ok := LookupOperation(OpCommand)
	assert.True(t, ok)
	assert.True(t, cmd.Destructive)
	assert.True(t, cmd.DestructiveHint)
	assert.False(t, cmd.ReadOnlyHint)

	ingest, _ := LookupOperation(OpIngestInline)
	assert.True(t, ingest.Destructive)
	assert.False(t, ingest.DestructiveHint)
	assert.False(t, ingest.ReadOnlyHint)

	shots, _ := LookupOperation(OpGetShots)
	assert.False(t, shots.Destructive)
	assert.False(t, shots.ReadOnlyHint)

	_, ok = LookupOperation("nope")
	assert.False(t, ok)
	assert.False(t, isDestructive("nope"))
}
