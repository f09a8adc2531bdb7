// Package config loads the CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvLogLevel   = "RDAPSCHEMA_LOG_LEVEL"
	EnvRuleSetDir = "RDAPSCHEMA_RULESET_DIR"
	EnvLanguage   = "RDAPSCHEMA_LANGUAGE"
	EnvMaxDepth   = "RDAPSCHEMA_MAX_DEPTH"
)

// Config is the CLI configuration.
type Config struct {
	Logger LoggerConfig `yaml:"logger"`
	// RuleSetDir replaces the embedded rule sets with a directory holding
	// an index.yaml.
	RuleSetDir string `yaml:"rulesetDir"`
	// Datasets lists YAML bundles overlaid on the built-in datasets, in
	// order.
	Datasets []string `yaml:"datasets"`
	// Language selects the message dictionary (BCP 47 tag).
	Language string `yaml:"language"`
	MaxDepth int    `yaml:"maxDepth"`
}

// LoggerConfig configures hclog output.
type LoggerConfig struct {
	Level      string `yaml:"level"`
	JSONFormat bool   `yaml:"jsonFormat"`
	// DisableTime drops timestamps, which keeps CLI output diffable.
	DisableTime bool `yaml:"disableTime"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logger:   LoggerConfig{Level: "WARN", DisableTime: true},
		Language: "en",
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logger.Level = v
	}
	if v := os.Getenv(EnvRuleSetDir); v != "" {
		c.RuleSetDir = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		c.Language = v
	}
	if v := os.Getenv(EnvMaxDepth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvMaxDepth, err)
		}
		c.MaxDepth = n
	}
	return nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToUpper(c.Logger.Level) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "OFF":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log level %q", c.Logger.Level))
	}
	if c.Language != "" {
		if _, err := language.Parse(c.Language); err != nil {
			errs = append(errs, fmt.Errorf("config: language %q: %w", c.Language, err))
		}
	}
	for i, d := range c.Datasets {
		if strings.TrimSpace(d) == "" {
			errs = append(errs, fmt.Errorf("config: datasets[%d] is empty", i))
		}
	}
	return errors.Join(errs...)
}

// Base returns the primary language subtag ("ja" for "ja-JP").
func (c *Config) Base() string {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return "en"
	}
	base, _ := tag.Base()
	return base.String()
}
