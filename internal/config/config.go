// Package config loads embedkit configuration from YAML and the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/shivavenkatesh/embedkit/internal/logging"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

const (
	// EnvPrefix marks environment variables that override file settings
	EnvPrefix = "EMBEDKIT_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Backends accepted by model.backend
const (
	BackendONNX      = "onnx"
	BackendFastEmbed = "fastembed"
)

// Config is the full embedkit configuration
type Config struct {
	Embedding EmbeddingConfig `koanf:"embedding"`
	Model     ModelConfig     `koanf:"model"`
	Log       logging.Config  `koanf:"log"`
}

// EmbeddingConfig controls the hash embedding path
type EmbeddingConfig struct {
	Dimension int `koanf:"dimension"`
	Workers   int `koanf:"workers"`
}

// ModelConfig controls the model embedding path
type ModelConfig struct {
	Backend           string `koanf:"backend"`
	Path              string `koanf:"path"`
	Dimension         int    `koanf:"dimension"` // 0 = model native width
	LibraryPath       string `koanf:"library_path"`
	CacheDir          string `koanf:"cache_dir"`
	MaxLength         int    `koanf:"max_length"`
	ResultCacheSize   int    `koanf:"result_cache_size"`
	DimensionMemoSize int    `koanf:"dimension_memo_size"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = int(types.DefaultDimension)
	}
	if cfg.Embedding.Workers == 0 {
		cfg.Embedding.Workers = 4
	}
	if cfg.Model.Backend == "" {
		cfg.Model.Backend = BackendONNX
	}
	if cfg.Model.MaxLength == 0 {
		cfg.Model.MaxLength = 512
	}
	if cfg.Model.ResultCacheSize == 0 {
		cfg.Model.ResultCacheSize = 1000
	}
	if cfg.Model.DimensionMemoSize == 0 {
		cfg.Model.DimensionMemoSize = 16
	}
	if cfg.Model.CacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Model.CacheDir = filepath.Join(home, ".cache", "embedkit", "models")
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// Validate checks the configuration for unsupported values
func (c *Config) Validate() error {
	if _, err := types.ParseDimension(c.Embedding.Dimension); err != nil {
		return fmt.Errorf("embedding.dimension: %w", err)
	}
	if c.Embedding.Workers < 1 {
		return fmt.Errorf("embedding.workers must be at least 1, got %d", c.Embedding.Workers)
	}
	switch c.Model.Backend {
	case BackendONNX, BackendFastEmbed:
	default:
		return fmt.Errorf("model.backend: unknown backend %q (want %s or %s)", c.Model.Backend, BackendONNX, BackendFastEmbed)
	}
	if c.Model.Dimension < 0 || c.Model.Dimension > types.MaxModelDimension {
		return fmt.Errorf("model.dimension must be between 0 and %d, got %d", types.MaxModelDimension, c.Model.Dimension)
	}
	if c.Model.MaxLength < 2 || c.Model.MaxLength > types.MaxTextLength {
		return fmt.Errorf("model.max_length must be between 2 and %d, got %d", types.MaxTextLength, c.Model.MaxLength)
	}
	if c.Model.ResultCacheSize < 0 {
		return fmt.Errorf("model.result_cache_size must not be negative")
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// DefaultPath returns ~/.config/embedkit/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "embedkit", "config.yaml"), nil
}

// Load reads configuration with the following precedence (highest first):
//  1. Environment variables (EMBEDKIT_MODEL_PATH, EMBEDKIT_LOG_LEVEL, ...)
//  2. YAML config file (configPath, or DefaultPath when empty)
//  3. Defaults
//
// A missing file at the default path is not an error; a missing file that
// was named explicitly is.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, err
	}

	// EMBEDKIT_MODEL_PATH -> model.path, EMBEDKIT_MODEL_LIBRARY_PATH -> model.library_path
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("config path %s is not a regular file", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// YAML renders the configuration in the same layout Load reads
func (c *Config) YAML() ([]byte, error) {
	return yaml.Parser().Marshal(map[string]interface{}{
		"embedding": map[string]interface{}{
			"dimension": c.Embedding.Dimension,
			"workers":   c.Embedding.Workers,
		},
		"model": map[string]interface{}{
			"backend":             c.Model.Backend,
			"path":                c.Model.Path,
			"dimension":           c.Model.Dimension,
			"library_path":        c.Model.LibraryPath,
			"cache_dir":           c.Model.CacheDir,
			"max_length":          c.Model.MaxLength,
			"result_cache_size":   c.Model.ResultCacheSize,
			"dimension_memo_size": c.Model.DimensionMemoSize,
		},
		"log": map[string]interface{}{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
	})
}
