package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServeOptionsConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gather")
	t.Setenv("JWT_SECRET", "serve-test-secret")
	t.Setenv("SERVER_PORT", "")

	opts := &serveOptions{
		globalOptions: &globalOptions{logLevel: "debug", logFormat: "console"},
		host:          "127.0.0.1",
		port:          9090,
	}
	cfg, err := opts.config()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.Server.Addr())
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
}

func TestServeOptionsConfigFile(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gather")
	t.Setenv("JWT_SECRET", "serve-test-secret")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\nlogging:\n  level: warn\n"), 0o600))

	opts := &serveOptions{globalOptions: &globalOptions{configPath: path}}
	cfg, err := opts.config()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestServeOptionsMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	opts := &serveOptions{globalOptions: &globalOptions{}}
	_, err := opts.config()
	require.Error(t, err)
}
