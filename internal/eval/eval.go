// Package eval benchmarks a matcher configuration against a labeled
// query set: accuracy (Hit@1), mean reciprocal rank, latency, and a
// combined score trading accuracy against speed.
package eval

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/acurlabs/faqmatch/internal/store"
	"github.com/acurlabs/faqmatch/pkg/match"
)

// Options configures a run.
type Options struct {
	// TopK is the ranking depth counted for MRR (default 3).
	TopK int

	// Alpha weighs accuracy against the latency factor in the combined
	// score: combined = alpha*accuracy + (1-alpha)*latencyFactor.
	Alpha float64

	// MaxLatency is the latency budget; average latency at or beyond
	// it zeroes the latency factor (default 2s).
	MaxLatency time.Duration
}

// DefaultOptions returns the standard evaluation settings.
func DefaultOptions() Options {
	return Options{
		TopK:       3,
		Alpha:      0.7,
		MaxLatency: 2 * time.Second,
	}
}

// LabeledQuery pairs a query with the FAQ id it should match.
type LabeledQuery struct {
	Query  string
	GoldID int64
}

// RowResult is the per-query outcome.
type RowResult struct {
	Query     string
	GoldID    int64
	PredID    int64 // -1 when the matcher clarified
	PredScore float64
	Rank      int // 1-based rank of the gold id, 0 if absent from top-k
	Latency   time.Duration
}

// Metrics summarizes a run.
type Metrics struct {
	Samples       int           `json:"samples"`
	Accuracy      float64       `json:"accuracy_hit_at_1"`
	MRR           float64       `json:"mrr"`
	AvgLatency    time.Duration `json:"avg_latency"`
	P95Latency    time.Duration `json:"p95_latency"`
	CombinedScore float64       `json:"combined_score"`
	Alpha         float64       `json:"alpha_accuracy_weight"`
	MaxLatency    time.Duration `json:"max_acceptable_latency"`
}

// Report is the complete result of one evaluation run.
type Report struct {
	Metrics Metrics
	Rows    []RowResult
}

// Run evaluates the matcher against the labeled queries.
func Run(ctx context.Context, m *match.Matcher, queries []LabeledQuery, opts Options) (*Report, error) {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.MaxLatency <= 0 {
		opts.MaxLatency = 2 * time.Second
	}

	var (
		correct   int
		mrrSum    float64
		latencies []time.Duration
		rows      []RowResult
	)

	for _, lq := range queries {
		start := time.Now()
		result, err := m.Match(ctx, lq.Query)
		elapsed := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", lq.Query, err)
		}
		latencies = append(latencies, elapsed)

		row := RowResult{
			Query:   lq.Query,
			GoldID:  lq.GoldID,
			PredID:  -1,
			Latency: elapsed,
		}

		// Ranked list: accepted answer first, then alternates.
		ranked := make([]int64, 0, opts.TopK)
		if result.ID != nil {
			row.PredID = *result.ID
			row.PredScore = result.Score
			ranked = append(ranked, *result.ID)
		}
		for _, alt := range result.Alternates {
			if len(ranked) >= opts.TopK {
				break
			}
			ranked = append(ranked, alt.ID)
		}

		for i, id := range ranked {
			if id == lq.GoldID {
				row.Rank = i + 1
				break
			}
		}

		if lq.GoldID > 0 && row.PredID == lq.GoldID {
			correct++
		}
		if row.Rank > 0 {
			mrrSum += 1.0 / float64(row.Rank)
		}

		rows = append(rows, row)
	}

	n := len(queries)
	metrics := Metrics{
		Samples:    n,
		Alpha:      opts.Alpha,
		MaxLatency: opts.MaxLatency,
	}
	if n > 0 {
		metrics.Accuracy = float64(correct) / float64(n)
		metrics.MRR = mrrSum / float64(n)

		var total time.Duration
		for _, l := range latencies {
			total += l
		}
		metrics.AvgLatency = total / time.Duration(n)

		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		idx := int(math.Floor(0.95*float64(n))) - 1
		if idx < 0 {
			idx = 0
		}
		metrics.P95Latency = latencies[idx]
	}

	latencyFactor := 1.0 - math.Min(
		float64(metrics.AvgLatency)/float64(opts.MaxLatency), 1.0)
	metrics.CombinedScore = opts.Alpha*metrics.Accuracy + (1-opts.Alpha)*latencyFactor

	return &Report{Metrics: metrics, Rows: rows}, nil
}

// LoadFAQsCSV reads FAQ records from a CSV with header columns
// id, question, answer, tags (tags as a JSON array string).
func LoadFAQsCSV(path string) ([]store.FAQ, error) {
	records, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"id", "question", "answer", "tags"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("faqs csv missing column %q", col)
		}
	}

	faqs := make([]store.FAQ, 0, len(records))
	for i, rec := range records {
		id, err := strconv.ParseInt(rec[header["id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("faqs csv row %d: invalid id %q", i+2, rec[header["id"]])
		}
		faq := store.FAQ{
			ID:       id,
			Question: rec[header["question"]],
			Answer:   rec[header["answer"]],
			Tags:     store.ParseTags(rec[header["tags"]]),
		}
		if err := faq.Validate(); err != nil {
			return nil, fmt.Errorf("faqs csv row %d: %w", i+2, err)
		}
		faqs = append(faqs, faq)
	}
	return faqs, nil
}

// LoadQueriesCSV reads labeled queries from a CSV with header columns
// query, gold_id.
func LoadQueriesCSV(path string) ([]LabeledQuery, error) {
	records, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{"query", "gold_id"} {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("queries csv missing column %q", col)
		}
	}

	queries := make([]LabeledQuery, 0, len(records))
	for i, rec := range records {
		gold, err := strconv.ParseInt(rec[header["gold_id"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("queries csv row %d: invalid gold_id %q", i+2, rec[header["gold_id"]])
		}
		queries = append(queries, LabeledQuery{
			Query:  rec[header["query"]],
			GoldID: gold,
		})
	}
	return queries, nil
}

// WriteResultsCSV writes the per-query rows.
func (r *Report) WriteResultsCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query", "gold_id", "pred_id", "pred_score", "rank", "latency_ms"}); err != nil {
		return err
	}

	for _, row := range r.Rows {
		rank := ""
		if row.Rank > 0 {
			rank = strconv.Itoa(row.Rank)
		}
		record := []string{
			row.Query,
			strconv.FormatInt(row.GoldID, 10),
			strconv.FormatInt(row.PredID, 10),
			strconv.FormatFloat(row.PredScore, 'f', 6, 64),
			rank,
			strconv.FormatFloat(float64(row.Latency)/float64(time.Millisecond), 'f', 3, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteMetricsJSON writes the summary metrics.
func (r *Report) WriteMetricsJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Metrics)
}

func readCSV(path string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(all) < 2 {
		return nil, nil, fmt.Errorf("%s: no data rows", path)
	}

	header := make(map[string]int, len(all[0]))
	for i, col := range all[0] {
		header[col] = i
	}
	return all[1:], header, nil
}
