package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, "info", false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "visible"))
	assert.False(t, strings.Contains(string(data), "hidden"))
}

func TestDebugOverridesLevel(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, "error", true)
	require.NoError(t, err)

	logger.Debug("now visible")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "now visible")
}

func TestInvalidLevel(t *testing.T) {
	_, err := New(t.TempDir(), "loud", false)
	assert.Error(t, err)
}
