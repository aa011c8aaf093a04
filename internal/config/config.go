// Package config loads sfctl-ai settings from the YAML config file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	ShellPwsh = "pwsh"
	ShellBash = "bash"

	// ConfirmAuto lets the classifier decide which commands need approval.
	ConfirmAuto = "auto"
	// ConfirmAlways asks before every command, including reads.
	ConfirmAlways = "always"
)

const (
	EnvProvider = "SFCTL_AI_PROVIDER"
	EnvModel    = "SFCTL_AI_MODEL"
	EnvShell    = "SFCTL_AI_SHELL"
	EnvLogLevel = "SFCTL_AI_LOG_LEVEL"
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.0-flash",
	ProviderOpenAI: "gpt-4o-mini",
}

var defaultAPIKeyEnvs = map[string]string{
	ProviderGemini: "GEMINI_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
}

// ErrMissingAPIKey is returned when the credential variable is unset.
var ErrMissingAPIKey = errors.New("missing API key")

// Config holds all sfctl-ai settings. Empty Model and APIKeyEnv fall back to
// the provider's defaults.
type Config struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`

	Shell     string `yaml:"shell"`
	ShellPath string `yaml:"shell_path"`

	Confirm string `yaml:"confirm"`

	LogLevel string `yaml:"log_level"`
	History  bool   `yaml:"history"`

	// WrapWidth wraps model text at a fixed width; 0 follows the terminal.
	WrapWidth int `yaml:"wrap_width"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Provider: ProviderGemini,
		Shell:    ShellPwsh,
		Confirm:  ConfirmAuto,
		LogLevel: "info",
		History:  true,
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SFCTL_AI_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvShell); v != "" {
		c.Shell = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate rejects unknown enumerated values.
func (c *Config) Validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("unknown provider %q (expected %s or %s)", c.Provider, ProviderGemini, ProviderOpenAI)
	}
	switch c.Shell {
	case ShellPwsh, ShellBash:
	default:
		return fmt.Errorf("unknown shell %q (expected %s or %s)", c.Shell, ShellPwsh, ShellBash)
	}
	switch c.Confirm {
	case ConfirmAuto, ConfirmAlways:
	default:
		return fmt.Errorf("unknown confirm policy %q (expected %s or %s)", c.Confirm, ConfirmAuto, ConfirmAlways)
	}
	if _, err := c.ZapLevel(); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	if c.WrapWidth < 0 {
		return fmt.Errorf("wrap_width must not be negative")
	}
	return nil
}

// ModelName returns the configured model or the provider default.
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// APIKeyEnvName returns the variable the credential is read from.
func (c *Config) APIKeyEnvName() string {
	if c.APIKeyEnv != "" {
		return c.APIKeyEnv
	}
	return defaultAPIKeyEnvs[c.Provider]
}

// APIKey reads the credential from the environment.
func (c *Config) APIKey() (string, error) {
	name := c.APIKeyEnvName()
	key := os.Getenv(name)
	if key == "" {
		return "", fmt.Errorf("%w: set %s", ErrMissingAPIKey, name)
	}
	return key, nil
}

// AlwaysConfirm reports whether every command goes through the gate.
func (c *Config) AlwaysConfirm() bool {
	return c.Confirm == ConfirmAlways
}

// ZapLevel parses LogLevel.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}
