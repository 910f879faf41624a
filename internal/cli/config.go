// Package cli wires the xsh command-line interface: expression evaluation,
// template rendering, a REPL and configuration loading.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/xsh/internal/logging"
)

const maxConfigFileSize = 1024 * 1024

// Config is the CLI configuration.
type Config struct {
	Logging   logging.Config `koanf:"logging"`
	CacheSize int            `koanf:"cache_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Logging:   *logging.NewDefaultConfig(),
		CacheSize: 256,
	}
}

// LoadConfig loads configuration from a YAML file, then overrides with
// XSH_-prefixed environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (XSH_LOGGING_LEVEL, XSH_CACHE_SIZE, ...)
//  2. YAML config file (~/.config/xsh/config.yaml by default)
//  3. Hardcoded defaults
func LoadConfig(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "xsh", "config.yaml")
	}

	if info, err := os.Stat(configPath); err == nil {
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("XSH_", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}
	return cfg, nil
}

// envTransform maps XSH_LOGGING_LEVEL to logging.level. The last underscore
// groups stay joined so keys like cache_size resolve.
func envTransform(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, "XSH_"))
	for _, section := range []string{"logging"} {
		if strings.HasPrefix(s, section+"_") {
			return section + "." + strings.TrimPrefix(s, section+"_")
		}
	}
	return s
}
