package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoCF_JSONCarriesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure("info", "json")
	t.Cleanup(func() { Configure("info", "text") })

	InfoCF("mcp.client", "request sent", map[string]interface{}{"method": "tools/list", "id": 7})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "mcp.client", line["component"])
	assert.Equal(t, "tools/list", line["method"])
	assert.Equal(t, float64(7), line["id"])
	assert.Equal(t, "request sent", line["msg"])
}

func TestConfigure_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure("warn", "text")
	t.Cleanup(func() { Configure("info", "text") })

	DebugC("test", "hidden")
	InfoC("test", "hidden too")
	WarnC("test", "visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestConfigure_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	Configure("chatty", "text")

	DebugC("test", "debug line")
	InfoC("test", "info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}
