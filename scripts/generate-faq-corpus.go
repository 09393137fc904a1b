//go:build ignore

// generate-faq-corpus produces a synthetic FAQ corpus plus a labeled
// query set for evaluation runs.
// Usage: go run scripts/generate-faq-corpus.go -records 500 -output testdata/bench
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var (
	numRecords = flag.Int("records", 500, "Number of FAQ records to generate")
	perRecord  = flag.Int("queries", 2, "Labeled queries per record")
	outputDir  = flag.String("output", "testdata/bench", "Output directory")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var topics = []string{
	"password", "billing", "shipping", "refund", "subscription",
	"account", "invoice", "delivery", "warranty", "login",
	"payment", "cancellation", "upgrade", "trial", "privacy",
}

var actions = []string{
	"reset", "change", "cancel", "update", "track",
	"download", "verify", "renew", "transfer", "delete",
}

var questionShapes = []string{
	"How do I %s my %s?",
	"Where can I %s my %s?",
	"What is the process to %s a %s?",
	"Can I %s my %s online?",
	"Why can't I %s my %s?",
}

var queryShapes = []string{
	"%s %s",
	"need to %s %s",
	"how to %s the %s",
	"problem with %s %s",
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating %s: %v\n", *outputDir, err)
		os.Exit(1)
	}

	faqs, err := os.Create(filepath.Join(*outputDir, "faqs.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer faqs.Close()

	queries, err := os.Create(filepath.Join(*outputDir, "queries.csv"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer queries.Close()

	fw := csv.NewWriter(faqs)
	qw := csv.NewWriter(queries)
	defer fw.Flush()
	defer qw.Flush()

	_ = fw.Write([]string{"id", "question", "answer", "tags"})
	_ = qw.Write([]string{"query", "gold_id"})

	for i := 1; i <= *numRecords; i++ {
		topic := topics[rng.Intn(len(topics))]
		action := actions[rng.Intn(len(actions))]
		shape := questionShapes[rng.Intn(len(questionShapes))]

		question := fmt.Sprintf(shape, action, topic)
		answer := fmt.Sprintf("To %s your %s, open the %s section in your account settings and follow the instructions shown there.",
			action, topic, topic)
		tags := fmt.Sprintf(`["%s","%s"]`, topic, action)

		_ = fw.Write([]string{strconv.Itoa(i), question, answer, tags})

		for q := 0; q < *perRecord; q++ {
			qs := queryShapes[rng.Intn(len(queryShapes))]
			_ = qw.Write([]string{fmt.Sprintf(qs, action, topic), strconv.Itoa(i)})
		}
	}

	fmt.Printf("Wrote %d records and %d queries to %s\n",
		*numRecords, *numRecords**perRecord, *outputDir)
}
