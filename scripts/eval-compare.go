//go:build ignore

// eval-compare compares two eval metrics JSON files and fails when the
// current run regresses against the baseline.
// Usage: go run scripts/eval-compare.go <current.json> <baseline.json>
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

var (
	// accuracyTolerance is the allowed absolute drop in accuracy or MRR.
	accuracyTolerance = flag.Float64("accuracy-tolerance", 0.02, "Allowed absolute accuracy/MRR drop")

	// latencyTolerance is the allowed relative increase in average latency.
	latencyTolerance = flag.Float64("latency-tolerance", 0.20, "Allowed relative avg latency increase")
)

type metrics struct {
	Samples    int           `json:"samples"`
	Accuracy   float64       `json:"accuracy_hit_at_1"`
	MRR        float64       `json:"mrr"`
	AvgLatency time.Duration `json:"avg_latency"`
	P95Latency time.Duration `json:"p95_latency"`
	Combined   float64       `json:"combined_score"`
}

func load(path string) (metrics, error) {
	var m metrics
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: eval-compare <current.json> <baseline.json>")
		os.Exit(2)
	}

	current, err := load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	baseline, err := load(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	fmt.Printf("%-14s %10s %10s\n", "metric", "current", "baseline")
	fmt.Printf("%-14s %10.4f %10.4f\n", "accuracy", current.Accuracy, baseline.Accuracy)
	fmt.Printf("%-14s %10.4f %10.4f\n", "mrr", current.MRR, baseline.MRR)
	fmt.Printf("%-14s %10s %10s\n", "avg latency", current.AvgLatency, baseline.AvgLatency)
	fmt.Printf("%-14s %10s %10s\n", "p95 latency", current.P95Latency, baseline.P95Latency)
	fmt.Printf("%-14s %10.4f %10.4f\n", "combined", current.Combined, baseline.Combined)

	failed := false

	if drop := baseline.Accuracy - current.Accuracy; drop > *accuracyTolerance {
		fmt.Printf("FAIL: accuracy dropped %.4f (tolerance %.4f)\n", drop, *accuracyTolerance)
		failed = true
	}
	if drop := baseline.MRR - current.MRR; drop > *accuracyTolerance {
		fmt.Printf("FAIL: MRR dropped %.4f (tolerance %.4f)\n", drop, *accuracyTolerance)
		failed = true
	}
	if baseline.AvgLatency > 0 {
		ratio := float64(current.AvgLatency-baseline.AvgLatency) / float64(baseline.AvgLatency)
		if ratio > *latencyTolerance {
			fmt.Printf("FAIL: avg latency up %.0f%% (tolerance %.0f%%)\n",
				ratio*100, *latencyTolerance*100)
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
	fmt.Println("OK: no regression against baseline")
}
