package match

import (
	"fmt"
	"time"

	"github.com/acurlabs/faqmatch/pkg/rank"
)

// Default decision thresholds per variant. The values come from tuning
// against real query logs, not from a shared rationale; treat them as
// knobs, not constants.
const (
	DefaultLexicalAcceptThreshold    = 0.25
	DefaultLexicalAlternateThreshold = 0.2

	DefaultBM25AcceptThreshold    = 0.50
	DefaultBM25AlternateThreshold = 0.40

	DefaultEmbeddingAcceptThreshold    = 0.50
	DefaultEmbeddingAlternateThreshold = 0.40

	// DefaultStrongMatchThreshold gates the override that lets a
	// high-confidence raw signal bypass the accept threshold.
	DefaultStrongMatchThreshold = 0.5

	// DefaultMaxAlternates caps the suggestions returned with a result.
	DefaultMaxAlternates = 3

	// DefaultEmbeddingDimensions matches the all-MiniLM-L6-v2 family.
	DefaultEmbeddingDimensions = 384

	// DefaultProviderTimeout bounds the embedding call; past it the
	// pipeline answers from the lexical path instead of waiting.
	DefaultProviderTimeout = 5 * time.Second
)

// Config is the explicit configuration object for a pipeline. There is
// no ambient global state; construct one, validate it, pass it in.
type Config struct {
	Variant Variant

	// AcceptThreshold is inclusive: a best score exactly at the
	// threshold is accepted.
	AcceptThreshold    float64
	AlternateThreshold float64
	MaxAlternates      int

	// StrongMatchOverride lets a raw tag or BM25 signal above
	// StrongMatchThreshold accept a candidate whose fused score is
	// below AcceptThreshold. Tag-only evidence can be highly confident
	// while the diluted average looks weak.
	StrongMatchOverride  bool
	StrongMatchThreshold float64

	EmbeddingDimensions int
	ProviderTimeout     time.Duration

	Lexical rank.LexicalWeights
	BM25    rank.BM25Params
}

// DefaultConfig returns the tuned defaults for a variant.
func DefaultConfig(v Variant) Config {
	cfg := Config{
		Variant:              v,
		MaxAlternates:        DefaultMaxAlternates,
		StrongMatchThreshold: DefaultStrongMatchThreshold,
		EmbeddingDimensions:  DefaultEmbeddingDimensions,
		ProviderTimeout:      DefaultProviderTimeout,
		Lexical:              rank.DefaultLexicalWeights(),
		BM25:                 rank.DefaultBM25Params(),
	}

	switch v {
	case LexicalOnly:
		cfg.AcceptThreshold = DefaultLexicalAcceptThreshold
		cfg.AlternateThreshold = DefaultLexicalAlternateThreshold
		cfg.StrongMatchOverride = true
	case BM25Tags:
		cfg.AcceptThreshold = DefaultBM25AcceptThreshold
		cfg.AlternateThreshold = DefaultBM25AlternateThreshold
		cfg.StrongMatchOverride = true
	case EmbeddingHybrid:
		cfg.AcceptThreshold = DefaultEmbeddingAcceptThreshold
		cfg.AlternateThreshold = DefaultEmbeddingAlternateThreshold
		cfg.StrongMatchOverride = false
	}

	return cfg
}

// Validate checks the configuration for contract violations.
func (c Config) Validate() error {
	switch c.Variant {
	case LexicalOnly, BM25Tags, EmbeddingHybrid:
	default:
		return fmt.Errorf("unknown pipeline variant %q", c.Variant)
	}

	if c.AcceptThreshold < 0 {
		return fmt.Errorf("accept threshold must be non-negative, got %v", c.AcceptThreshold)
	}
	if c.AlternateThreshold < 0 {
		return fmt.Errorf("alternate threshold must be non-negative, got %v", c.AlternateThreshold)
	}
	if c.MaxAlternates < 0 {
		return fmt.Errorf("max alternates must be non-negative, got %d", c.MaxAlternates)
	}
	if c.Variant == EmbeddingHybrid && c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.EmbeddingDimensions)
	}
	if sum := c.Lexical.Jaccard + c.Lexical.Levenshtein; sum > 1.0 {
		return fmt.Errorf("lexical weights must sum to at most 1, got %v", sum)
	}

	return nil
}
