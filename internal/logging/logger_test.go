package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ca-srg/footprint/internal/types"
)

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil, Options{})
	require.Error(t, err)
}

func TestNewQuietWithoutFileIsNop(t *testing.T) {
	logger, err := New(&types.Config{LogLevel: "info", LogFormat: "console"}, Options{Quiet: true})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "footprint.log")
	cfg := &types.Config{LogLevel: "warn", LogFormat: "json", LogFile: path}

	logger, err := New(cfg, Options{Quiet: true})
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	logger.Warn("search failed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "search failed")
}

func TestNewVerboseForcesDebug(t *testing.T) {
	cfg := &types.Config{LogLevel: "error", LogFormat: "console", LogFile: filepath.Join(t.TempDir(), "x.log")}
	logger, err := New(cfg, Options{Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
