// Package cmd provides the CLI commands for faqmatch.
package cmd

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/acurlabs/faqmatch/internal/config"
	"github.com/acurlabs/faqmatch/internal/embed"
	"github.com/acurlabs/faqmatch/internal/logging"
	"github.com/acurlabs/faqmatch/internal/store"
	"github.com/acurlabs/faqmatch/internal/ui"
	"github.com/acurlabs/faqmatch/pkg/match"
	"github.com/acurlabs/faqmatch/pkg/version"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	noColor    bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the faqmatch CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "faqmatch",
		Short: "FAQ matching engine with lexical, BM25, and embedding ranking",
		Long: `faqmatch ranks a corpus of FAQ records against free-text questions
and answers, asks for clarification, or offers alternates.

Three ranking variants share one pipeline: lexical (Jaccard/Levenshtein
plus keywords), bm25_tags (BM25 with a tag boost), and embedding_hybrid
(cosine similarity over dense vectors, falling back to bm25_tags when
the embedding provider is unavailable).`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("faqmatch version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the FAQ database (overrides config)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(
		newConfigCmd(),
		newMatchCmd(),
		newTagsCmd(),
		newImportCmd(),
		newEmbedCorpusCmd(),
		newEvalCmd(),
		newFeedbackCmd(),
		newEscalateCmd(),
		newHealthCmd(),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.Logging.File
	if logLevel != "" {
		logCfg.Level = logLevel
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// loadConfig applies the persistent flag overrides on top of the file
// and environment configuration.
func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		// Pick up a faqmatch.yaml in the working directory, the file
		// `config init` writes.
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

func newPrinter(cmd *cobra.Command) *ui.Printer {
	return ui.NewPrinter(cmd.OutOrStdout(), noColor || !ui.ShouldColor())
}

func openStore(cfg config.Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return s, nil
}

// newEmbedder builds the configured embedding provider chain: HTTP
// provider, circuit breaker, LRU cache. Cache hits never touch the
// breaker, so a flapping provider does not cost cached queries.
func newEmbedder(cfg config.Config) embed.Embedder {
	provider := embed.NewHTTPEmbedder(cfg.Embedding.URL,
		embed.WithModel(cfg.Embedding.Model),
		embed.WithDimensions(cfg.Embedding.Dimensions),
		embed.WithTimeout(cfg.Embedding.Timeout),
	)
	breaker := embed.NewBreakerEmbedder(provider)
	return embed.NewCachedEmbedder(breaker, cfg.Embedding.CacheSize)
}

// newMatcher assembles the pipeline from configuration.
func newMatcher(cfg config.Config, corpus store.CorpusStore, variantOverride string, extra ...match.Option) (*match.Matcher, error) {
	variant := match.Variant(cfg.Matcher.Variant)
	if variantOverride != "" {
		variant = match.Variant(variantOverride)
	}

	mcfg := match.DefaultConfig(variant)
	if cfg.Matcher.AcceptThreshold > 0 {
		mcfg.AcceptThreshold = cfg.Matcher.AcceptThreshold
	}
	if cfg.Matcher.AlternateThreshold > 0 {
		mcfg.AlternateThreshold = cfg.Matcher.AlternateThreshold
	}
	if cfg.Matcher.MaxAlternates > 0 {
		mcfg.MaxAlternates = cfg.Matcher.MaxAlternates
	}
	if cfg.Matcher.StrongMatchOverride != nil {
		mcfg.StrongMatchOverride = *cfg.Matcher.StrongMatchOverride
	}
	mcfg.EmbeddingDimensions = cfg.Embedding.Dimensions
	mcfg.ProviderTimeout = cfg.Embedding.Timeout

	opts := []match.Option{
		match.WithConfig(mcfg),
		match.WithLogger(slog.Default()),
		match.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
	if variant == match.EmbeddingHybrid {
		opts = append(opts, match.WithEmbedder(newEmbedder(cfg)))
	}
	opts = append(opts, extra...)

	return match.NewMatcher(corpus, opts...)
}
