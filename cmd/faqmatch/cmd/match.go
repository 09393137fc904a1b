package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	var (
		variant    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "match <question>",
		Short: "Match a question against the FAQ corpus",
		Long: `Match runs a single question through the ranking pipeline and
prints either the accepted answer or a clarification prompt with
related questions.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			m, err := newMatcher(cfg, s, variant)
			if err != nil {
				return err
			}

			result, err := m.Match(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("matching query: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			newPrinter(cmd).MatchResult(query, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", "", "Ranking variant: lexical, bm25_tags, embedding_hybrid (overrides config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the result as JSON")

	return cmd
}
