package kusto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlainValue(t *testing.T) {
	n := int64(42)
	var nilInt *int64
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	str := "text"

	assert.Nil(t, plainValue(nil))
	assert.Nil(t, plainValue(nilInt))
	assert.Equal(t, int64(42), plainValue(&n))
	assert.Equal(t, ts, plainValue(&ts))
	assert.Equal(t, "text", plainValue(&str))
	assert.Equal(t, "plain", plainValue("plain"))
	assert.Equal(t, json.RawMessage(`{"a":1}`), plainValue([]byte(`{"a":1}`)))
	assert.Equal(t, "not json", plainValue([]byte("not json")))
}

func TestIsManagementCommand(t *testing.T) {
	assert.True(t, isManagementCommand(".show tables"))
	assert.True(t, isManagementCommand("  .drop table T"))
	assert.False(t, isManagementCommand("T | take 1"))
	assert.False(t, isManagementCommand("let x = 1; x"))
}
