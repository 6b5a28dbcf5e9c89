// Package config loads insightd configuration: built-in defaults, an
// optional YAML file merged on top, then environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Providers supported by the LLM configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"` // listen address, e.g. ":8080"
}

// StorageConfig holds blob store connection settings.
type StorageConfig struct {
	// ConnectionString is the compact single-variable form:
	// "Endpoint=...;AccessKey=...;SecretKey=...". Individual fields win
	// over the parsed connection string.
	ConnectionString string `yaml:"connection_string,omitempty"`
	Endpoint         string `yaml:"endpoint,omitempty"`
	AccessKey        string `yaml:"access_key,omitempty"`
	SecretKey        string `yaml:"secret_key,omitempty"`
	Bucket           string `yaml:"bucket,omitempty"`
	UseSSL           bool   `yaml:"use_ssl,omitempty"`
}

// AssistantConfig holds the assistant's identity settings.
type AssistantConfig struct {
	Name    string `yaml:"name,omitempty"`
	Persona string `yaml:"persona,omitempty"`
}

// LLMConfig holds model API settings.
type LLMConfig struct {
	Provider        string `yaml:"provider,omitempty"` // openai, azure, or anthropic
	Model           string `yaml:"model,omitempty"`
	APIKey          string `yaml:"api_key,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`    // Azure endpoint or OpenAI base URL
	APIVersion      string `yaml:"api_version,omitempty"` // Azure API version
	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`
}

// DispatchConfig holds retry settings for the dispatch loop.
type DispatchConfig struct {
	MaxRetries int           `yaml:"max_retries,omitempty"`
	RetryDelay time.Duration `yaml:"retry_delay,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Assistant AssistantConfig `yaml:"assistant,omitempty"`
	LLM       LLMConfig       `yaml:"llm,omitempty"`
	Dispatch  DispatchConfig  `yaml:"dispatch,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Assistant: AssistantConfig{
			Name:    "BusinessInsightBot",
			Persona: "a helpful business assistant",
		},
		LLM: LLMConfig{
			Provider: ProviderAzure,
			Model:    "gpt-4.1",
		},
		Dispatch: DispatchConfig{
			MaxRetries: 3,
			RetryDelay: 2 * time.Second,
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (if non-empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: user-specified config path is intentional
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, &fileCfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Storage.ConnectionString != "" {
		parsed, err := ParseConnectionString(cfg.Storage.ConnectionString)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.Endpoint == "" {
			cfg.Storage.Endpoint = parsed.Endpoint
		}
		if cfg.Storage.AccessKey == "" {
			cfg.Storage.AccessKey = parsed.AccessKey
		}
		if cfg.Storage.SecretKey == "" {
			cfg.Storage.SecretKey = parsed.SecretKey
		}
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Server.Addr, "INSIGHTD_ADDR")
	setString(&cfg.Storage.ConnectionString, "STORAGE_CONNECTION_STRING")
	setString(&cfg.Storage.Bucket, "STORAGE_BUCKET")
	setString(&cfg.Assistant.Name, "ASSISTANT_NAME")
	setString(&cfg.Assistant.Persona, "CHARACTERISTIC_DESCRIPTION")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "OPENAI_MODEL")
	setString(&cfg.LLM.APIKey, "AZURE_OPENAI_API_KEY")
	setString(&cfg.LLM.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setString(&cfg.LLM.APIVersion, "AZURE_OPENAI_API_VERSION")
	setString(&cfg.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")

	if v := os.Getenv("STORAGE_USE_SSL"); v != "" {
		cfg.Storage.UseSSL = v == "true" || v == "1"
	}
}

// ParseConnectionString parses the "Key=Value;Key=Value" storage connection
// form into its parts.
func ParseConnectionString(s string) (StorageConfig, error) {
	out := StorageConfig{}
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return StorageConfig{}, fmt.Errorf("invalid storage connection string segment %q", part)
		}
		switch strings.TrimSpace(key) {
		case "Endpoint":
			out.Endpoint = strings.TrimSpace(value)
		case "AccessKey":
			out.AccessKey = strings.TrimSpace(value)
		case "SecretKey":
			out.SecretKey = strings.TrimSpace(value)
		case "UseSSL":
			out.UseSSL = strings.TrimSpace(value) == "true"
		}
	}
	if out.Endpoint == "" {
		return StorageConfig{}, fmt.Errorf("storage connection string is missing an Endpoint segment")
	}
	return out, nil
}

// Validate fails fast on configuration the process cannot start without.
func (c *Config) Validate() error {
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint is required (set STORAGE_CONNECTION_STRING)")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required (set STORAGE_BUCKET)")
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api key is required for provider %q", c.LLM.Provider)
		}
	case ProviderAzure:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm api key is required for provider %q (set AZURE_OPENAI_API_KEY)", c.LLM.Provider)
		}
		if c.LLM.Endpoint == "" {
			return fmt.Errorf("llm endpoint is required for provider %q (set AZURE_OPENAI_ENDPOINT)", c.LLM.Provider)
		}
	case ProviderAnthropic:
		if c.LLM.AnthropicAPIKey == "" {
			return fmt.Errorf("anthropic api key is required for provider %q (set ANTHROPIC_API_KEY)", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}

	return nil
}
