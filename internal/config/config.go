// Package config loads matcher configuration from YAML with
// environment-variable overrides. There is no ambient global config;
// commands load a Config value and pass it down explicitly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete faqmatch configuration.
type Config struct {
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Matcher   MatcherConfig   `yaml:"matcher" json:"matcher"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	Tags      TagsConfig      `yaml:"tags" json:"tags"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// DatabaseConfig locates the SQLite database holding the corpus.
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// MatcherConfig tunes the ranking pipeline. Thresholds are knobs, not
// constants: the right values depend on the corpus and the variant.
type MatcherConfig struct {
	// Variant is one of lexical, bm25_tags, embedding_hybrid.
	Variant string `yaml:"variant" json:"variant"`

	// AcceptThreshold and AlternateThreshold override the variant
	// defaults when positive; zero means "use the variant default".
	AcceptThreshold    float64 `yaml:"accept_threshold" json:"accept_threshold"`
	AlternateThreshold float64 `yaml:"alternate_threshold" json:"alternate_threshold"`

	MaxAlternates int `yaml:"max_alternates" json:"max_alternates"`

	// StrongMatchOverride lets confident raw tag/BM25 evidence accept a
	// candidate whose fused score is below the threshold.
	StrongMatchOverride *bool `yaml:"strong_match_override" json:"strong_match_override"`
}

// EmbeddingConfig configures the external embedding provider.
type EmbeddingConfig struct {
	// URL of the embedding service; empty disables embedding mode.
	URL        string        `yaml:"url" json:"url"`
	Model      string        `yaml:"model" json:"model"`
	Dimensions int           `yaml:"dimensions" json:"dimensions"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	CacheSize  int           `yaml:"cache_size" json:"cache_size"`
}

// TagsConfig tunes index-time tag generation.
type TagsConfig struct {
	Limit     int      `yaml:"limit" json:"limit"`
	StopWords []string `yaml:"stop_words" json:"stop_words"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path: "faqmatch.db",
		},
		Matcher: MatcherConfig{
			Variant:       "bm25_tags",
			MaxAlternates: 3,
		},
		Embedding: EmbeddingConfig{
			Model:      "all-MiniLM-L6-v2",
			Dimensions: 384,
			Timeout:    5 * time.Second,
			CacheSize:  1000,
		},
		Tags: TagsConfig{
			Limit: 8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration with precedence: built-in defaults, then the
// YAML file at path (optional), then FAQMATCH_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays FAQMATCH_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("FAQMATCH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("FAQMATCH_VARIANT"); v != "" {
		cfg.Matcher.Variant = v
	}
	if v := os.Getenv("FAQMATCH_ACCEPT_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matcher.AcceptThreshold = f
		}
	}
	if v := os.Getenv("FAQMATCH_ALTERNATE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matcher.AlternateThreshold = f
		}
	}
	if v := os.Getenv("FAQMATCH_EMBEDDING_URL"); v != "" {
		cfg.Embedding.URL = v
	}
	if v := os.Getenv("FAQMATCH_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("FAQMATCH_EMBEDDING_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimensions = n
		}
	}
	if v := os.Getenv("FAQMATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FAQMATCH_LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
}

// Validate checks for configuration contract violations.
func (c Config) Validate() error {
	switch strings.ToLower(c.Matcher.Variant) {
	case "lexical", "bm25_tags", "embedding_hybrid":
	default:
		return fmt.Errorf("unknown matcher variant %q", c.Matcher.Variant)
	}

	if c.Matcher.Variant == "embedding_hybrid" && c.Embedding.URL == "" {
		return fmt.Errorf("embedding_hybrid variant requires embedding.url")
	}
	if c.Matcher.AcceptThreshold < 0 {
		return fmt.Errorf("accept_threshold must be non-negative, got %v", c.Matcher.AcceptThreshold)
	}
	if c.Matcher.AlternateThreshold < 0 {
		return fmt.Errorf("alternate_threshold must be non-negative, got %v", c.Matcher.AlternateThreshold)
	}
	if c.Matcher.MaxAlternates < 0 {
		return fmt.Errorf("max_alternates must be non-negative, got %d", c.Matcher.MaxAlternates)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.Timeout <= 0 {
		return fmt.Errorf("embedding timeout must be positive, got %v", c.Embedding.Timeout)
	}
	if c.Tags.Limit <= 0 {
		return fmt.Errorf("tags limit must be positive, got %d", c.Tags.Limit)
	}

	return nil
}
