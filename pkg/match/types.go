package match

// Variant selects the ranking strategy for the pipeline.
type Variant string

const (
	// LexicalOnly combines Jaccard/Levenshtein similarity with keyword
	// matching against stored tags.
	LexicalOnly Variant = "lexical"

	// BM25Tags ranks with BM25 over question+answer terms plus a tag
	// overlap boost. The lexical fallback path for embedding mode.
	BM25Tags Variant = "bm25_tags"

	// EmbeddingHybrid ranks with cosine similarity over dense vectors
	// plus the same tag boost. The production default when an embedding
	// provider is configured.
	EmbeddingHybrid Variant = "embedding_hybrid"
)

// State is the decision reached for a query. Escalation is triggered by
// explicit user feedback outside the pipeline, never by scores.
type State string

const (
	StateAccept  State = "accept"
	StateClarify State = "clarify"
)

// ComponentScores carries per-signal diagnostics for a candidate.
// Which fields are populated depends on the pipeline variant.
type ComponentScores struct {
	QuestionSimilarity float64 `json:"question_similarity,omitempty"`
	AnswerSimilarity   float64 `json:"answer_similarity,omitempty"`
	KeywordMatch       float64 `json:"keyword_match,omitempty"`
	BM25               float64 `json:"bm25,omitempty"`
	Cosine             float64 `json:"cosine,omitempty"`
	TagBoost           float64 `json:"tag_boost,omitempty"`
}

// Candidate is one scored FAQ record.
type Candidate struct {
	FAQID      int64
	Question   string
	Answer     string
	Score      float64
	Components ComponentScores

	// strongSignal is the raw un-fused signal consulted by the
	// strong-match override (keyword score for lexical, BM25 otherwise).
	strongSignal float64
}

// Alternate is a runner-up suggestion offered alongside the answer.
type Alternate struct {
	ID       int64   `json:"id"`
	Question string  `json:"question"`
	Score    float64 `json:"score"`
}

// Result is the outcome of one Match call. It is always well-formed:
// expected conditions (empty query, empty corpus, no good match,
// provider outage) surface as CLARIFY results, never as errors.
type Result struct {
	State      State       `json:"state"`
	Answer     string      `json:"answer"`
	Score      float64     `json:"score"`
	ID         *int64      `json:"id"`
	Alternates []Alternate `json:"alternates"`

	// Degraded reports that the embedding provider was unavailable and
	// the result came from the lexical fallback path.
	Degraded bool `json:"degraded,omitempty"`
}
