package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

var validMergeFormats = []string{"mkv", "mp4", "webm", "mov", "avi", "flv"}

var validAudioFormats = []string{"mp3", "m4a", "opus", "aac", "flac", "wav", "vorbis"}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	// yt-dlp validation
	if c.YtDlp.Path == "" {
		errs = append(errs, "ytdlp.path: required")
	}
	if c.YtDlp.MergeFormat != "" && !contains(validMergeFormats, c.YtDlp.MergeFormat) {
		errs = append(errs, fmt.Sprintf("ytdlp.merge_format: must be one of %s; got %q",
			strings.Join(validMergeFormats, ", "), c.YtDlp.MergeFormat))
	}
	if c.YtDlp.AudioFormat != "" && !contains(validAudioFormats, c.YtDlp.AudioFormat) {
		errs = append(errs, fmt.Sprintf("ytdlp.audio_format: must be one of %s; got %q",
			strings.Join(validAudioFormats, ", "), c.YtDlp.AudioFormat))
	}
	if c.YtDlp.KillTimeout < 0 {
		errs = append(errs, fmt.Sprintf("ytdlp.kill_timeout: must not be negative, got %s", c.YtDlp.KillTimeout))
	}

	// Event log validation
	if c.Events.Retention < 0 {
		errs = append(errs, fmt.Sprintf("events.retention: must not be negative, got %s", c.Events.Retention))
	}
	if c.Events.PruneInterval < 0 {
		errs = append(errs, fmt.Sprintf("events.prune_interval: must not be negative, got %s", c.Events.PruneInterval))
	}

	return errs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
