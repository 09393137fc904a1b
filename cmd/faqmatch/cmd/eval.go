package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/acurlabs/faqmatch/internal/eval"
	"github.com/acurlabs/faqmatch/internal/store"
	"github.com/acurlabs/faqmatch/internal/telemetry"
	"github.com/acurlabs/faqmatch/pkg/match"
)

func newEvalCmd() *cobra.Command {
	var (
		faqsPath    string
		queriesPath string
		variant     string
		topK        int
		alpha       float64
		maxLatency  time.Duration
		resultsPath string
		metricsPath string
		showTelem   bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate matcher accuracy and latency against labeled queries",
		Long: `Eval runs a labeled query set through the matcher and reports
Hit@1 accuracy, MRR, latency percentiles, and a combined score that
trades accuracy against latency.

The corpus comes from --faqs when given, otherwise from the database.
Queries are a CSV with columns query, gold_id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var corpus store.CorpusStore
			if faqsPath != "" {
				faqs, err := eval.LoadFAQsCSV(faqsPath)
				if err != nil {
					return fmt.Errorf("loading corpus: %w", err)
				}
				mem, err := store.NewMemoryStore(faqs)
				if err != nil {
					return fmt.Errorf("loading corpus: %w", err)
				}
				corpus = mem
			} else {
				s, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer s.Close()
				corpus = s
			}

			queries, err := eval.LoadQueriesCSV(queriesPath)
			if err != nil {
				return fmt.Errorf("loading queries: %w", err)
			}

			recorder := telemetry.NewMatchMetrics()
			m, err := newMatcher(cfg, corpus, variant, match.WithRecorder(recorder))
			if err != nil {
				return err
			}

			opts := eval.DefaultOptions()
			if topK > 0 {
				opts.TopK = topK
			}
			if alpha >= 0 && alpha <= 1 {
				opts.Alpha = alpha
			}
			if maxLatency > 0 {
				opts.MaxLatency = maxLatency
			}

			report, err := eval.Run(cmd.Context(), m, queries, opts)
			if err != nil {
				return fmt.Errorf("running evaluation: %w", err)
			}

			if resultsPath != "" {
				f, err := os.Create(resultsPath)
				if err != nil {
					return fmt.Errorf("creating results file: %w", err)
				}
				defer f.Close()
				if err := report.WriteResultsCSV(f); err != nil {
					return fmt.Errorf("writing results: %w", err)
				}
			}

			if metricsPath != "" {
				f, err := os.Create(metricsPath)
				if err != nil {
					return fmt.Errorf("creating metrics file: %w", err)
				}
				defer f.Close()
				if err := report.WriteMetricsJSON(f); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
			}

			met := report.Metrics
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Samples:         %d\n", met.Samples)
			fmt.Fprintf(out, "Accuracy (Hit@1): %.4f\n", met.Accuracy)
			fmt.Fprintf(out, "MRR:             %.4f\n", met.MRR)
			fmt.Fprintf(out, "Avg latency:     %s\n", met.AvgLatency)
			fmt.Fprintf(out, "P95 latency:     %s\n", met.P95Latency)
			fmt.Fprintf(out, "Combined score:  %.4f (alpha=%.2f, max latency %s)\n",
				met.CombinedScore, met.Alpha, met.MaxLatency)

			if showTelem {
				newPrinter(cmd).Metrics(recorder.Snapshot())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&faqsPath, "faqs", "", "FAQ corpus CSV (id,question,answer,tags); defaults to the database")
	cmd.Flags().StringVar(&queriesPath, "queries", "", "Labeled queries CSV (query,gold_id)")
	cmd.Flags().StringVar(&variant, "variant", "", "Ranking variant to evaluate (overrides config)")
	cmd.Flags().IntVar(&topK, "topk", 0, "Ranking depth for MRR (default 3)")
	cmd.Flags().Float64Var(&alpha, "alpha", -1, "Accuracy weight in the combined score (default 0.7)")
	cmd.Flags().DurationVar(&maxLatency, "max-latency", 0, "Latency budget for the latency factor (default 2s)")
	cmd.Flags().StringVar(&resultsPath, "out", "", "Write per-query results CSV to this path")
	cmd.Flags().StringVar(&metricsPath, "metrics", "", "Write metrics JSON to this path")
	cmd.Flags().BoolVar(&showTelem, "telemetry", false, "Print the collected match telemetry after the run")

	_ = cmd.MarkFlagRequired("queries")

	return cmd
}
