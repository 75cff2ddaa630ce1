package config

import (
	"errors"
	"strings"
)

// ErrInvalid matches every *ConfigError with errors.Is.
var ErrInvalid = errors.New("invalid config")

// ConfigError collects everything wrong with one config file so it can be
// reported in a single pass.
type ConfigError struct {
	Path    string   // Config file path
	Missing []string // Unresolved environment variables
	Errors  []string // Validation errors
}

func (e *ConfigError) Error() string {
	if !e.HasErrors() {
		return ""
	}

	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(":\n")
	}
	if len(e.Missing) > 0 {
		b.WriteString("missing environment variables: ")
		b.WriteString(strings.Join(e.Missing, ", "))
		b.WriteString("\n")
	}
	if len(e.Errors) > 0 {
		b.WriteString("validation failed:\n")
		for _, msg := range e.Errors {
			b.WriteString("  - ")
			b.WriteString(msg)
			b.WriteString("\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalid
}

// HasErrors returns true if there are any errors.
func (e *ConfigError) HasErrors() bool {
	return len(e.Missing) > 0 || len(e.Errors) > 0
}
