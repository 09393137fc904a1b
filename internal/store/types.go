// Package store provides FAQ corpus storage and the feedback sinks.
//
// The matcher itself never talks to a database: it receives a
// materialized []FAQ snapshot from a CorpusStore. Two implementations
// ship here, an in-memory store for embedding the engine in a host
// application (or tests) and a SQLite store for the CLI.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FAQ is one question/answer record. Question and Answer are required;
// Tags and Embedding are optional enrichments produced at index time.
type FAQ struct {
	ID       int64
	Question string
	Answer   string
	Tags     []string
	// Embedding is the dense vector for the record, or nil when
	// embeddings have not been computed. Its length must equal the
	// deployment's configured dimension to participate in embedding
	// ranking.
	Embedding []float32
	// EmbeddingModel records which model produced Embedding, so stale
	// vectors can be detected after a model change.
	EmbeddingModel string
}

// Validate reports a contract violation for records missing required
// fields. A FAQ without question or answer indicates a broken writer,
// not bad user input, and fails loudly.
func (f FAQ) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return fmt.Errorf("faq %d: question is required", f.ID)
	}
	if strings.TrimSpace(f.Answer) == "" {
		return fmt.Errorf("faq %d: answer is required", f.ID)
	}
	return nil
}

// CorpusStore supplies FAQ snapshots for ranking.
type CorpusStore interface {
	// ListFAQs returns a stable, fully materialized snapshot. Rankers
	// iterate the slice directly; it must not change under them.
	ListFAQs(ctx context.Context) ([]FAQ, error)
}

// FeedbackStore records the signals the decision layer hands back after
// a match: per-answer helpfulness votes and explicit escalations.
type FeedbackStore interface {
	// RecordFeedback stores a helpfulness vote. faqID is nil when the
	// user rated a clarify response that matched no FAQ.
	RecordFeedback(ctx context.Context, sessionID string, faqID *int64, helpful bool) error

	// RecordEscalation stores a request for human follow-up.
	RecordEscalation(ctx context.Context, sessionID, query, contact string) error
}

// ParseTags decodes a stored tags payload (JSON array of strings).
// Anything unparseable is treated as "no tags": a corrupt tags column
// must not take a record out of ranking entirely.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil
	}

	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// EncodeTags serializes tags as the JSON array format ParseTags reads.
// Order is preserved; consumers compare tags case-insensitively.
func EncodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}

// encodeEmbedding serializes a vector as JSON for the embedding column.
func encodeEmbedding(v []float32) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding embedding: %w", err)
	}
	return string(b), nil
}

// decodeEmbedding parses the embedding column; empty or malformed
// payloads decode to nil (the record simply has no usable vector).
func decodeEmbedding(raw string) []float32 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	if len(v) == 0 {
		return nil
	}
	return v
}
