// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	YtDlp    YtDlpConfig    `toml:"ytdlp"`
	Events   EventsConfig   `toml:"events"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// YtDlpConfig configures the external download tool.
type YtDlpConfig struct {
	Path        string        `toml:"path"`
	OutputDir   string        `toml:"output_dir"` // empty means ~/Downloads
	MergeFormat string        `toml:"merge_format"`
	AudioFormat string        `toml:"audio_format"`
	KillTimeout time.Duration `toml:"kill_timeout"`
}

// EventsConfig controls the event audit log.
type EventsConfig struct {
	Retention     time.Duration `toml:"retention"`
	PruneInterval time.Duration `toml:"prune_interval"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8484
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/nzzel.db"
	}
	if c.YtDlp.Path == "" {
		c.YtDlp.Path = "yt-dlp"
	}
	if c.YtDlp.MergeFormat == "" {
		c.YtDlp.MergeFormat = "mkv"
	}
	if c.YtDlp.AudioFormat == "" {
		c.YtDlp.AudioFormat = "mp3"
	}
	if c.YtDlp.KillTimeout == 0 {
		c.YtDlp.KillTimeout = 5 * time.Second
	}
	if c.Events.Retention == 0 {
		c.Events.Retention = 7 * 24 * time.Hour
	}
	if c.Events.PruneInterval == 0 {
		c.Events.PruneInterval = time.Hour
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Load reads, substitutes, decodes and validates the configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation is Load minus Validate. Unresolved environment
// variables are still an error.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:[-?])([^}]*))?\}`)

// substituteEnvVars replaces variable references with environment values.
// Unresolvable references are left in place and reported in missing.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	out := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := os.LookupEnv(name)

		switch op {
		case ":-":
			if value == "" {
				return arg
			}
			return value
		case ":?":
			if value == "" {
				missing = append(missing, name+": "+strings.TrimSpace(arg))
				return match
			}
			return value
		}

		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	return out, missing
}
