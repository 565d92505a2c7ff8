package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(&buf, "warn")
	require.NoError(t, err)

	log.Info("hidden %d", 1)
	log.Warn("visible %d", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden 1")
	assert.Contains(t, out, "visible 2")
	assert.Contains(t, out, `"level":"warn"`)
}

func TestParseLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "", "WARN", "error"} {
		_, err := parseLevel(lvl)
		assert.NoError(t, err, lvl)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}
