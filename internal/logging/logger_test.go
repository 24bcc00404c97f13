package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogging_Disabled(t *testing.T) {
	Disable()

	// All calls are no-ops without initialization.
	l := Get(CategoryEngine)
	require.NotNil(t, l)
	l.Info("this goes nowhere")
	l.Error("so does this")
}

func TestLogging_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, "debug"))
	defer Disable()

	Get(CategoryBudget).Info("fit completed")
	Get(CategoryCache).Debug("sweep done")

	data, err := os.ReadFile(filepath.Join(dir, "budget.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] fit completed")

	data, err = os.ReadFile(filepath.Join(dir, "cache.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] sweep done")
}

func TestLogging_LevelFilter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, "warn"))
	defer Disable()

	l := Get(CategoryRender)
	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("visible")

	data, err := os.ReadFile(filepath.Join(dir, "render.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "[WARN] visible")
}

func TestRequestLogger_CarriesRequestID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Initialize(dir, "info"))
	defer Disable()

	WithRequest(CategoryEngine, "req-1234").Info("constructed")

	data, err := os.ReadFile(filepath.Join(dir, "engine.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[req:req-1234] constructed")
}

func TestTimer(t *testing.T) {
	Disable()

	timer := StartTimer(CategoryEngine, "op")
	time.Sleep(time.Millisecond)

	elapsed := timer.Stop()
	assert.Greater(t, elapsed, time.Duration(0))
}

func TestInitialize_RequiresDirectory(t *testing.T) {
	assert.Error(t, Initialize("", "info"))
}
