package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	cfgPath := writeConfig(t, `
[server]
port = 8080

[ytdlp]
path = "/usr/local/bin/yt-dlp"
output_dir = "/media/videos"
merge_format = "mp4"
kill_timeout = "2s"

[events]
retention = "24h"
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.YtDlp.Path)
	assert.Equal(t, "/media/videos", cfg.YtDlp.OutputDir)
	assert.Equal(t, "mp4", cfg.YtDlp.MergeFormat)
	assert.Equal(t, 2*time.Second, cfg.YtDlp.KillTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Events.Retention)
}

func TestLoad_MissingEnvVar(t *testing.T) {
	os.Unsetenv("NZZEL_MISSING_BIN")
	cfgPath := writeConfig(t, `
[ytdlp]
path = "${NZZEL_MISSING_BIN}"
`)

	_, err := Load(cfgPath)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"NZZEL_MISSING_BIN"}, cfgErr.Missing)
	assert.Equal(t, cfgPath, cfgErr.Path)
}

func TestLoad_ValidationError(t *testing.T) {
	cfgPath := writeConfig(t, `
[server]
port = 99999
`)

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
	if !strings.Contains(err.Error(), "server.port") {
		t.Errorf("expected server.port in error, got %v", err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8484, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "./data/nzzel.db", cfg.Database.Path)
	assert.Equal(t, "yt-dlp", cfg.YtDlp.Path)
	assert.Empty(t, cfg.YtDlp.OutputDir)
	assert.Equal(t, "mkv", cfg.YtDlp.MergeFormat)
	assert.Equal(t, "mp3", cfg.YtDlp.AudioFormat)
	assert.Equal(t, 5*time.Second, cfg.YtDlp.KillTimeout)
	assert.Equal(t, 168*time.Hour, cfg.Events.Retention)
	assert.Equal(t, time.Hour, cfg.Events.PruneInterval)
	assert.Equal(t, "0.0.0.0:8484", cfg.Addr())
}

func TestLoad_FileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_BadTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nport = "))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoadWithoutValidation(t *testing.T) {
	cfgPath := writeConfig(t, `
[server]
port = 99999
`)

	cfg, err := LoadWithoutValidation(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, 99999, cfg.Server.Port)
}

func TestLoad_EnvVarDefault(t *testing.T) {
	os.Unsetenv("OPTIONAL_VAR")
	cfgPath := writeConfig(t, `
[server]
host = "${OPTIONAL_VAR:-localhost}"
`)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Empty(t, cfg.Validate())
	assert.Equal(t, "yt-dlp", cfg.YtDlp.Path)
}
