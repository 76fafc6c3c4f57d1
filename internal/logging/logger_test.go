package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersAreNoopsBeforeInit(t *testing.T) {
	Close()
	Info("dropped")
	Debug("dropped")
	Warn("dropped")
	Error("dropped")
	WithPrefix("search").Info("dropped")
}

func TestSetOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	defer Close()

	Info("hidden message")
	Warn("visible message", "query", "pasta")
	WithPrefix("search").Error("prefixed message")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "query=pasta")
	assert.Contains(t, out, "search")
	assert.Contains(t, out, "prefixed message")
}

func TestSetOutputUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "chatty")
	defer Close()

	Debug("debug message")
	Info("info message")

	assert.NotContains(t, buf.String(), "debug message")
	assert.Contains(t, buf.String(), "info message")
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(path, "debug"))

	Debug("engine ready", "screen", "home")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "recipeapp started")
	assert.Contains(t, string(data), "engine ready")
	assert.Contains(t, string(data), "recipeapp shutting down")
}
