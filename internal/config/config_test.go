package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "https://stkl.vercel.app", cfg.SearchBaseURL)
	require.Equal(t, "https://stkl.vercel.app/api/search", cfg.SearchEndpoint())
	require.Equal(t, "https://stkl.vercel.app/api/health", cfg.HealthEndpoint())
	require.Equal(t, 60*time.Second, cfg.RequestTimeout)
	require.Equal(t, 1, cfg.RateBurst)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "console", cfg.LogFormat)
	require.Equal(t, 8081, cfg.WebUIPort)
	require.False(t, cfg.OTelEnabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Run("parses search overrides", func(t *testing.T) {
		t.Setenv("FOOTPRINT_SEARCH_BASE_URL", " http://localhost:8000 ")
		t.Setenv("FOOTPRINT_SEARCH_PATH", "/v2/search")
		t.Setenv("FOOTPRINT_REQUEST_TIMEOUT", "5s")
		t.Setenv("FOOTPRINT_RATE_BURST", "50")
		t.Setenv("LOG_LEVEL", "DEBUG")

		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, "http://localhost:8000/v2/search", cfg.SearchEndpoint())
		require.Equal(t, 5*time.Second, cfg.RequestTimeout)
		require.Equal(t, 10, cfg.RateBurst, "burst should be clamped")
		require.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("zero timeout disables the deadline", func(t *testing.T) {
		t.Setenv("FOOTPRINT_REQUEST_TIMEOUT", "0s")

		cfg, err := Load()
		require.NoError(t, err)
		require.Zero(t, cfg.RequestTimeout)
	})
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"relative base url":  {"FOOTPRINT_SEARCH_BASE_URL": "stkl.vercel.app"},
		"ftp base url":       {"FOOTPRINT_SEARCH_BASE_URL": "ftp://stkl.vercel.app"},
		"empty search path":  {"FOOTPRINT_SEARCH_PATH": " "},
		"negative timeout":   {"FOOTPRINT_REQUEST_TIMEOUT": "-1s"},
		"zero rate limit":    {"FOOTPRINT_RATE_LIMIT": "0"},
		"zero response cap":  {"FOOTPRINT_MAX_RESPONSE_BYTES": "0"},
		"port out of range":  {"WEBUI_PORT": "70000"},
		"unknown log level":  {"LOG_LEVEL": "verbose"},
		"unknown log format": {"LOG_FORMAT": "xml"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for key, value := range vars {
				t.Setenv(key, value)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FOOTPRINT_SEARCH_BASE_URL=http://127.0.0.1:9000\n"), 0o600))

	// godotenv.Load sets process env; register cleanup through t.Setenv first.
	t.Setenv("FOOTPRINT_SEARCH_BASE_URL", "")
	require.NoError(t, os.Unsetenv("FOOTPRINT_SEARCH_BASE_URL"))

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:9000", cfg.SearchBaseURL)
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WEBUI_PORT=9999\n"), 0o600))

	t.Setenv("WEBUI_PORT", "8082")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8082, cfg.WebUIPort)
}
