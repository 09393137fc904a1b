package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acurlabs/faqmatch/internal/store"
	"github.com/acurlabs/faqmatch/pkg/rank"
	"github.com/acurlabs/faqmatch/pkg/tags"
)

func newTagsCmd() *cobra.Command {
	var (
		apply bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "tags [faq-id]",
		Short: "Suggest tags for FAQ records",
		Long: `Tags suggests keyword tags for a FAQ record (or every record
when no id is given) from its question and answer text, weighted by
term distinctiveness across the corpus. With --apply the suggestions
replace the stored tags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Tags.Limit
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			faqs, err := s.ListFAQs(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing FAQ records: %w", err)
			}
			if len(faqs) == 0 {
				return fmt.Errorf("no FAQ records in %s", cfg.Database.Path)
			}

			// Stats and known-tag vocabulary always come from the
			// full corpus, even when scoped to one record.
			all := faqs

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid faq id %q", args[0])
				}
				filtered := faqs[:0:0]
				for _, f := range faqs {
					if f.ID == id {
						filtered = append(filtered, f)
					}
				}
				if len(filtered) == 0 {
					return fmt.Errorf("no FAQ record with id %d", id)
				}
				faqs = filtered
			}

			gen := newTagGenerator(cfg.Tags.StopWords, limit, all)

			p := newPrinter(cmd)
			for _, f := range faqs {
				suggested := gen.Suggest(f.Question, f.Answer)

				if apply {
					if err := s.UpdateTags(cmd.Context(), f.ID, suggested); err != nil {
						return fmt.Errorf("updating tags for record %d: %w", f.ID, err)
					}
					p.Successf("#%d %s", f.ID, strings.Join(suggested, ", "))
					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n  current:   %s\n  suggested: %s\n",
					f.ID, f.Question,
					strings.Join(f.Tags, ", "),
					strings.Join(suggested, ", "))
			}

			if apply {
				p.Successf("Applied tags to %d records", len(faqs))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Write the suggested tags to the database")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum tags per record (default from config)")

	return cmd
}

// newTagGenerator seeds the generator with corpus stats and the tag
// vocabulary already present across the corpus, so suggestions converge
// on existing tags instead of inventing near-duplicates.
func newTagGenerator(stopWords []string, limit int, corpus []store.FAQ) *tags.Generator {
	docs := make([]rank.StatsDocument, 0, len(corpus))
	var known []string
	seen := make(map[string]struct{})
	for _, f := range corpus {
		docs = append(docs, rank.StatsDocument{ID: f.ID, Question: f.Question, Answer: f.Answer})
		for _, t := range f.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				known = append(known, t)
			}
		}
	}

	opts := []tags.Option{
		tags.WithLimit(limit),
		tags.WithKnownTags(known),
		tags.WithCorpusStats(rank.BuildCorpusStats(docs)),
	}
	if len(stopWords) > 0 {
		opts = append(opts, tags.WithStopWords(stopWords))
	}
	return tags.NewGenerator(opts...)
}
