package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/acurlabs/faqmatch/internal/embed"
	"github.com/acurlabs/faqmatch/internal/store"
)

func newEmbedCorpusCmd() *cobra.Command {
	var (
		force     bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "embed-corpus",
		Short: "Compute and store embeddings for every FAQ record",
		Long: `Embed-corpus sends each FAQ record's question and answer text to
the configured embedding provider and stores the resulting vectors.
Records already embedded with the current model are skipped unless
--force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Embedding.URL == "" {
				return fmt.Errorf("embedding.url is not configured")
			}
			if batchSize <= 0 || batchSize > embed.MaxBatchSize {
				batchSize = embed.DefaultBatchSize
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			e := newEmbedder(cfg)
			defer e.Close()

			if !e.Available(cmd.Context()) {
				return fmt.Errorf("%w at %s", embed.ErrUnavailable, cfg.Embedding.URL)
			}

			faqs, err := s.ListFAQs(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing FAQ records: %w", err)
			}

			pending := faqs[:0:0]
			for _, f := range faqs {
				if !force && f.EmbeddingModel == e.ModelName() && len(f.Embedding) == e.Dimensions() {
					continue
				}
				pending = append(pending, f)
			}

			p := newPrinter(cmd)
			if len(pending) == 0 {
				p.Successf("All %d records already embedded with %s", len(faqs), e.ModelName())
				return nil
			}

			start := time.Now()
			embedded := 0
			for i := 0; i < len(pending); i += batchSize {
				end := min(i+batchSize, len(pending))
				batch := pending[i:end]

				texts := make([]string, len(batch))
				for j, f := range batch {
					texts[j] = embeddingText(f)
				}

				vectors, err := e.EmbedBatch(cmd.Context(), texts)
				if err != nil {
					return fmt.Errorf("embedding batch at record %d: %w", batch[0].ID, err)
				}

				for j, f := range batch {
					if err := s.UpdateEmbedding(cmd.Context(), f.ID, vectors[j], e.ModelName()); err != nil {
						return fmt.Errorf("storing embedding for record %d: %w", f.ID, err)
					}
					embedded++
				}
			}

			p.Progressf(time.Since(start), "Embedded %d of %d records with %s (%d up to date)",
				embedded, len(faqs), e.ModelName(), len(faqs)-len(pending))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-embed records even when the stored model matches")
	cmd.Flags().IntVar(&batchSize, "batch-size", embed.DefaultBatchSize, "Records per provider request")

	return cmd
}

// embeddingText is the canonical text a record is embedded from. It
// must stay stable across runs: changing it invalidates every stored
// vector without changing the recorded model name.
func embeddingText(f store.FAQ) string {
	return f.Question + "\n" + f.Answer
}
