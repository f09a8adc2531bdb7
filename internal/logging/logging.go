// Package logging builds the hclog logger used by the CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/reoring/rdapschema/internal/config"
)

// New creates a logger writing to out. The RDAPSCHEMA_LOG_LEVEL
// environment variable wins over the configured level.
func New(cfg config.LoggerConfig, name string, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		Level:       Level(cfg),
		JSONFormat:  cfg.JSONFormat,
		DisableTime: cfg.DisableTime,
		Output:      out,
	})
}

// Level resolves the effective level, defaulting to Warn.
func Level(cfg config.LoggerConfig) hclog.Level {
	s := cfg.Level
	if env := os.Getenv(config.EnvLogLevel); env != "" {
		s = env
	}
	if s == "" {
		return hclog.Warn
	}
	lvl := hclog.LevelFromString(strings.ToLower(s))
	if lvl == hclog.NoLevel {
		return hclog.Warn
	}
	return lvl
}
