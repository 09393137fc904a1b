package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acurlabs/faqmatch/internal/eval"
	"github.com/acurlabs/faqmatch/internal/store"
)

func newImportCmd() *cobra.Command {
	var truncateIDs bool

	cmd := &cobra.Command{
		Use:   "import <faqs.csv|faqs.yaml>",
		Short: "Import FAQ records from a CSV or YAML file",
		Long: `Import loads FAQ records into the database. CSV files need the
columns id, question, answer, tags (tags as a JSON array of strings);
YAML files a list of records with the same keys. Records with an id
replace any existing record with that id; records with id 0 are
assigned a fresh id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			faqs, err := loadFAQFile(args[0])
			if err != nil {
				return fmt.Errorf("loading %s: %w", args[0], err)
			}

			s, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			p := newPrinter(cmd)
			imported := 0
			for _, f := range faqs {
				if truncateIDs {
					f.ID = 0
				}
				if _, err := s.UpsertFAQ(cmd.Context(), f); err != nil {
					return fmt.Errorf("importing record %d: %w", f.ID, err)
				}
				imported++
			}

			p.Successf("Imported %d FAQ records into %s", imported, cfg.Database.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&truncateIDs, "fresh-ids", false, "Ignore file ids and assign fresh ones")

	return cmd
}

func loadFAQFile(path string) ([]store.FAQ, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return store.LoadFAQsYAML(path)
	default:
		return eval.LoadFAQsCSV(path)
	}
}
