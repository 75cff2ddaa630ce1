package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Defaults(t *testing.T) {
	assert.Empty(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port too high", func(c *Config) { c.Server.Port = 99999 }, "server.port"},
		{"port negative", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"log level", func(c *Config) { c.Server.LogLevel = "verbose" }, "server.log_level"},
		{"database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"ytdlp path", func(c *Config) { c.YtDlp.Path = "" }, "ytdlp.path"},
		{"merge format", func(c *Config) { c.YtDlp.MergeFormat = "gif" }, "ytdlp.merge_format"},
		{"audio format", func(c *Config) { c.YtDlp.AudioFormat = "midi" }, "ytdlp.audio_format"},
		{"kill timeout", func(c *Config) { c.YtDlp.KillTimeout = -time.Second }, "ytdlp.kill_timeout"},
		{"retention", func(c *Config) { c.Events.Retention = -time.Hour }, "events.retention"},
		{"prune interval", func(c *Config) { c.Events.PruneInterval = -time.Hour }, "events.prune_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			assert.True(t, containsError(errs, tt.want), "expected %s error, got %v", tt.want, errs)
			assert.Len(t, errs, 1)
		})
	}
}

func TestValidate_AcceptsKnownFormats(t *testing.T) {
	for _, f := range validMergeFormats {
		cfg := Default()
		cfg.YtDlp.MergeFormat = f
		assert.Empty(t, cfg.Validate(), f)
	}
	for _, f := range validAudioFormats {
		cfg := Default()
		cfg.YtDlp.AudioFormat = f
		assert.Empty(t, cfg.Validate(), f)
	}
}
