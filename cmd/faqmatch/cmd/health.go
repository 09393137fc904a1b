package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database and embedding provider health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			p := newPrinter(cmd)
			healthy := true

			s, err := openStore(cfg)
			if err != nil {
				p.Errorf("database: %v", err)
				healthy = false
			} else {
				faqs, err := s.ListFAQs(cmd.Context())
				if err != nil {
					p.Errorf("database: %v", err)
					healthy = false
				} else {
					embedded := 0
					for _, f := range faqs {
						if len(f.Embedding) > 0 {
							embedded++
						}
					}
					p.Successf("database: %s (%d records, %d embedded)",
						cfg.Database.Path, len(faqs), embedded)
				}
				s.Close()
			}

			if cfg.Embedding.URL == "" {
				p.Successf("embedding: not configured (lexical and bm25_tags only)")
			} else {
				e := newEmbedder(cfg)
				defer e.Close()
				if e.Available(cmd.Context()) {
					p.Successf("embedding: %s (%s, %d dims)",
						cfg.Embedding.URL, e.ModelName(), e.Dimensions())
				} else {
					p.Errorf("embedding: provider at %s is unavailable", cfg.Embedding.URL)
					healthy = false
				}
			}

			if !healthy {
				return fmt.Errorf("health check failed")
			}
			return nil
		},
	}
}
