package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/platform/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json at info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, config.Log{Level: "info", Format: "json"})
		log.Debug("hidden")
		log.Info("case processed", "case_id", "case-1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "case processed", line["msg"])
		assert.Equal(t, "case-1", line["case_id"])
	})

	t.Run("text at debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, config.Log{Level: "debug", Format: "text"})
		log.Debug("step started", "step", "watchlist-screening")
		assert.Contains(t, buf.String(), "step=watchlist-screening")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
