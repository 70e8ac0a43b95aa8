package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitializeWritesJSONToFile(t *testing.T) {
	defer InitializeDefault()

	path := filepath.Join(t.TempDir(), "app.log")
	base := Config{Level: "debug", Format: "json", Output: path}
	require.NoError(t, Initialize(WithService(base, "green-roi-test")))
	assert.Nil(t, base.InitialFields)

	Named("engine").Debug("estimate resolved", zap.String("basis", "bill_band"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "estimate resolved", entry["msg"])
	assert.Equal(t, "engine", entry["logger"])
	assert.Equal(t, "bill_band", entry["basis"])
	assert.Equal(t, "green-roi-test", entry["service"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitializeFallsBackToInfo(t *testing.T) {
	defer InitializeDefault()

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Initialize(Config{Level: "loud", Format: "json", Output: path}))
	assert.False(t, Logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger.Core().Enabled(zapcore.InfoLevel))
}

func TestSetLoggerRoutesHelpers(t *testing.T) {
	defer InitializeDefault()

	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))

	With(zap.String("request_id", "r1")).Info("request")
	Warn("config file not found")
	Error("request failed")
	Sugar.Infow("sugared", "k", "v")

	require.Equal(t, 4, logs.Len())
	entries := logs.All()
	assert.Equal(t, "r1", entries[0].ContextMap()["request_id"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "v", entries[3].ContextMap()["k"])

	SetLogger(nil)
	Info("discarded")
}
