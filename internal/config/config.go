// Package config loads the ingest core's YAML configuration surface:
// email domain substitutions, collaborator endpoints, rainbow-table seed
// material, working-copy placement, and the ambient logging/storage keys
// every deployment needs regardless of which core features are enabled.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface consumed by the ingest core.
type Config struct {
	EmailSuffixSubstitutions map[string][]string `yaml:"email_suffix_substitutions"`
	Services                 ServicesConfig      `yaml:"services"`
	APIKeys                  APIKeysConfig       `yaml:"api_keys"`
	CustomPasswords          []string            `yaml:"custom_passwords"`
	WorkingDirectory         WorkingDirConfig    `yaml:"working_directory"`
	Logging                  LoggingConfig       `yaml:"logging"`
	Database                 DatabaseConfig      `yaml:"database"`
	RainbowTable             RainbowTableConfig  `yaml:"rainbow_table"`
	Observability            ObservabilityConfig `yaml:"observability"`
}

// ServicesConfig configures the embedding collaborator.
type ServicesConfig struct {
	Ollama OllamaConfig `yaml:"ollama"`
}

// OllamaConfig is the embedding collaborator's endpoint.
type OllamaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Model   string `yaml:"model"`
}

// APIKeysConfig configures the breach collaborator.
type APIKeysConfig struct {
	HIBP HIBPConfig `yaml:"hibp"`
}

// HIBPConfig is the HaveIBeenPwned collaborator's credentials.
type HIBPConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// WorkingDirConfig places and guards the working-copy scratch directory.
type WorkingDirConfig struct {
	Path         string `yaml:"path"`
	VerifyNoexec bool   `yaml:"verify_noexec"`
}

// LoggingConfig controls internal/obs output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig points pkg/store at its backing file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RainbowTableConfig optionally preloads a newline-delimited file of
// plaintext weak passwords, which the rainbow table hashes on load.
type RainbowTableConfig struct {
	PreloadPath string `yaml:"preload_path"`
}

// ObservabilityConfig optionally points pkg/observability at an OTLP
// collector for trace/metric export. Disabled by default since most
// ingestctl runs are local smoke tests with nothing listening on 4317.
type ObservabilityConfig struct {
	Enabled      bool    `yaml:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Default returns a Config with conservative, fully-local defaults: no
// collaborators enabled, logging at info level, sqlite storage at
// ./ingest.db relative to the working directory.
func Default() *Config {
	return &Config{
		Services: ServicesConfig{
			Ollama: OllamaConfig{Host: "localhost", Port: 11434, Model: "nomic-embed-text"},
		},
		WorkingDirectory: WorkingDirConfig{Path: "./scratch", VerifyNoexec: true},
		Logging:          LoggingConfig{Level: "info", Format: "json"},
		Database:         DatabaseConfig{Path: "./ingest.db"},
	}
}

// Load reads and parses a YAML configuration file at path, layering its
// values over Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
