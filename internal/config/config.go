// Package config loads the explicit configuration object handed to every
// component constructor.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SPENDLENS_ORACLE_API_KEY.
const EnvPrefix = "SPENDLENS"

// Oracle providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

type Config struct {
	Oracle   OracleConfig   `mapstructure:"oracle" yaml:"oracle"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Ledger   LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	// path is where Save writes. It is the file Load read, or the default.
	path string
}

type OracleConfig struct {
	Provider          string        `mapstructure:"provider" yaml:"provider"`
	APIKey            string        `mapstructure:"api_key" yaml:"api_key"`
	Model             string        `mapstructure:"model" yaml:"model"`
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

// Configured reports whether oracle calls can be made.
func (o OracleConfig) Configured() bool {
	return o.APIKey != ""
}

// ModelName returns the configured model or the provider default.
func (o OracleConfig) ModelName() string {
	if o.Model != "" {
		return o.Model
	}
	if o.Provider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

type PipelineConfig struct {
	SpendingOnly   bool   `mapstructure:"spending_only" yaml:"spending_only"`
	Dedup          bool   `mapstructure:"dedup" yaml:"dedup"`
	Enrich         bool   `mapstructure:"enrich" yaml:"enrich"`
	Workers        int    `mapstructure:"workers" yaml:"workers"`
	MinLineLength  int    `mapstructure:"min_line_length" yaml:"min_line_length"`
	CategoriesFile string `mapstructure:"categories_file" yaml:"categories_file"`
}

type LedgerConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port" yaml:"port"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	NarrativeTTL time.Duration `mapstructure:"narrative_ttl" yaml:"narrative_ttl"`
}

type StorageConfig struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Dir is the per-user directory holding the default config file and ledger.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".spendlens"
	}
	return filepath.Join(base, "spendlens")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// NewViper returns a viper instance with defaults and environment overrides
// registered. Callers may bind command-line flags to it before Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("oracle.provider", ProviderGemini)
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.base_url", "")
	v.SetDefault("oracle.timeout", 30*time.Second)
	v.SetDefault("oracle.requests_per_second", 1.0)
	v.SetDefault("oracle.burst", 1)

	v.SetDefault("pipeline.spending_only", false)
	v.SetDefault("pipeline.dedup", true)
	v.SetDefault("pipeline.enrich", true)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.min_line_length", 8)
	v.SetDefault("pipeline.categories_file", "")

	v.SetDefault("ledger.path", filepath.Join(Dir(), "ledger.json"))

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.narrative_ttl", 10*time.Minute)

	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.credentials_file", "")

	v.SetDefault("log.level", "info")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("oracle.api_key", EnvPrefix+"_ORACLE_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")

	return v
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("LoadDotEnv: %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configFile (DefaultPath when empty) into v and decodes the
// result. A missing file is not an error: defaults, environment and bound
// flags still apply.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile == "" {
		configFile = DefaultPath()
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("Load: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("Load: decode: %w", err)
	}
	cfg.path = configFile

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	switch c.Oracle.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("invalid oracle provider %q (want %s or %s)", c.Oracle.Provider, ProviderGemini, ProviderOpenAI)
	}
	if c.Oracle.RequestsPerSecond < 0 {
		return fmt.Errorf("oracle requests_per_second must not be negative")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.MinLineLength < 0 {
		return fmt.Errorf("pipeline min_line_length must not be negative")
	}
	return nil
}

// Path returns the file Save writes to.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// SetPath changes the file Save writes to.
func (c *Config) SetPath(path string) {
	c.path = path
}

// Save writes the configuration as YAML. The file holds the API key, so it
// is created owner-readable only.
func (c *Config) Save() error {
	path := c.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("Save: create dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("Save: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("Save: write %s: %w", path, err)
	}
	return nil
}

// SetAPIKey stores key and saves.
func (c *Config) SetAPIKey(key string) error {
	c.Oracle.APIKey = strings.TrimSpace(key)
	return c.Save()
}

// ClearAPIKey removes the stored key and saves.
func (c *Config) ClearAPIKey() error {
	c.Oracle.APIKey = ""
	return c.Save()
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if k := c.Oracle.APIKey; k != "" {
		if len(k) > 4 {
			c.Oracle.APIKey = "****" + k[len(k)-4:]
		} else {
			c.Oracle.APIKey = "****"
		}
	}
	return c
}
