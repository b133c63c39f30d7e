// Package config loads Readowl settings from built-in defaults, an optional YAML
// file, and READOWL_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "READOWL_"

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "READOWL_CONFIG"

// Config is the full application configuration.
type Config struct {
	Service ServiceConfig `koanf:"service"`
	Breaker BreakerConfig `koanf:"breaker"`
	LLM     LLMConfig     `koanf:"llm"`
	UI      UIConfig      `koanf:"ui"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServiceConfig locates the recommendation service.
type ServiceConfig struct {
	URL     string        `koanf:"url" validate:"required,url"`
	Path    string        `koanf:"path" validate:"required,startswith=/"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// BreakerConfig tunes the circuit breaker in front of the service.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
	OpenTimeout      time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

// LLMConfig selects the optional generative recommender.
type LLMConfig struct {
	Provider string `koanf:"provider" validate:"oneof=none gemini ollama openai"`
	Model    string `koanf:"model"`
	Endpoint string `koanf:"endpoint" validate:"omitempty,url"`
	APIKey   string `koanf:"api_key"`
}

type UIConfig struct {
	ShelfPreview int  `koanf:"shelf_preview" validate:"min=1,max=50"`
	AltScreen    bool `koanf:"alt_screen"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	File   string `koanf:"file"`
}

// LoadOptions controls where Load looks for a config file.
type LoadOptions struct {
	// ConfigFile is an explicit path. It must exist when set.
	ConfigFile string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:     "http://localhost:8000",
			Path:    "/api/get_books",
			Timeout: 20 * time.Second,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			OpenTimeout:      30 * time.Second,
		},
		LLM: LLMConfig{
			Provider: "none",
		},
		UI: UIConfig{
			ShelfPreview: 5,
			AltScreen:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   defaultLogFile(),
		},
	}
}

// Load layers defaults, the config file and the environment, then validates.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path, err := findConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every failing field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicit, nil
	}
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s: %w", ConfigPathEnvVar, err)
		}
		return envPath, nil
	}
	for _, path := range defaultConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func defaultConfigPaths() []string {
	paths := []string{"readowl.yaml", "readowl.yml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "readowl", "config.yaml"))
	}
	return paths
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "readowl", "readowl.log")
}

var envMappings = map[string]string{
	"service_url":               "service.url",
	"service_path":              "service.path",
	"service_timeout":           "service.timeout",
	"breaker_failure_threshold": "breaker.failure_threshold",
	"breaker_open_timeout":      "breaker.open_timeout",
	"llm_provider":              "llm.provider",
	"llm_model":                 "llm.model",
	"llm_endpoint":              "llm.endpoint",
	"llm_api_key":               "llm.api_key",
	"shelf_preview":             "ui.shelf_preview",
	"alt_screen":                "ui.alt_screen",
	"log_level":                 "logging.level",
	"log_format":                "logging.format",
	"log_file":                  "logging.file",
}

// envTransformFunc maps READOWL_SERVICE_URL to service.url. Unknown variables
// (including READOWL_CONFIG) are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return envMappings[key]
}
