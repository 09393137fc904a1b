// Package match implements the FAQ matching pipeline: one configurable
// ranking loop with three variants (lexical, BM25+tags, embedding
// hybrid) sharing the tokenizer, decision policy, and data model.
package match

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/acurlabs/faqmatch/internal/embed"
	"github.com/acurlabs/faqmatch/internal/store"
	"github.com/acurlabs/faqmatch/internal/telemetry"
	"github.com/acurlabs/faqmatch/internal/text"
	"github.com/acurlabs/faqmatch/pkg/rank"
)

// Sentinel errors for constructor contract violations.
var (
	ErrNilStore    = errors.New("corpus store is nil")
	ErrNilEmbedder = errors.New("embedding variant requires an embedder")
)

// LexicalOnly composite weights. Question similarity dominates; tags
// contribute enough to lift paraphrases that share no surface words.
const (
	questionWeight = 0.5
	answerWeight   = 0.2
	keywordWeight  = 0.3

	// A meaningful keyword component earns a multiplicative boost.
	keywordBoostFloor  = 0.15
	keywordBoostFactor = 1.2
)

// Matcher ranks a FAQ corpus against free-text queries. It is safe for
// concurrent use; per-call state lives on the stack and the memoized
// corpus statistics are swapped atomically, never mutated.
type Matcher struct {
	corpus   store.CorpusStore
	embedder embed.Embedder
	cfg      Config
	logger   *slog.Logger
	recorder telemetry.Recorder

	// stats memoizes the document-frequency table for collection-mode
	// scoring. Rebuilt whenever the corpus fingerprint changes.
	stats atomic.Pointer[rank.CorpusStats]

	// rngMu guards rng; rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Matcher) {
		m.cfg = cfg
	}
}

// WithEmbedder sets the embedding provider used by EmbeddingHybrid.
func WithEmbedder(e embed.Embedder) Option {
	return func(m *Matcher) {
		m.embedder = e
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

// WithRand injects the random source for fallback message selection,
// letting tests pin the choice.
func WithRand(rng *rand.Rand) Option {
	return func(m *Matcher) {
		m.rng = rng
	}
}

// WithRecorder sets the telemetry recorder. Nil disables recording.
func WithRecorder(r telemetry.Recorder) Option {
	return func(m *Matcher) {
		m.recorder = r
	}
}

// NewMatcher creates a pipeline over the given corpus store.
func NewMatcher(corpus store.CorpusStore, opts ...Option) (*Matcher, error) {
	if corpus == nil {
		return nil, ErrNilStore
	}

	m := &Matcher{
		corpus: corpus,
		cfg:    DefaultConfig(BM25Tags),
		logger: slog.Default(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	if m.cfg.Variant == EmbeddingHybrid && m.embedder == nil {
		return nil, ErrNilEmbedder
	}

	return m, nil
}

// Match ranks the corpus against query and applies the decision policy.
// Expected conditions never produce an error; only broken collaborators
// (store failures, invalid records) do.
func (m *Matcher) Match(ctx context.Context, query string) (*Result, error) {
	start := time.Now()

	query = strings.TrimSpace(query)
	if query == "" {
		return emptyQueryResult(), nil
	}

	// Materialized snapshot: a concurrent corpus edit is not observed
	// mid-computation.
	corpus, err := m.corpus.ListFAQs(ctx)
	if err != nil {
		return nil, err
	}
	if len(corpus) == 0 {
		return emptyCorpusResult(), nil
	}
	for i := range corpus {
		if err := corpus[i].Validate(); err != nil {
			return nil, err
		}
	}

	candidates, degraded := m.rank(ctx, query, corpus)
	sortCandidates(candidates)

	m.rngMu.Lock()
	result := decide(candidates, m.cfg, m.rng)
	m.rngMu.Unlock()
	result.Degraded = degraded

	if m.recorder != nil {
		m.recorder.Record(telemetry.MatchEvent{
			Query:      query,
			Variant:    string(m.cfg.Variant),
			Decision:   string(result.State),
			TopScore:   result.Score,
			CorpusSize: len(corpus),
			Degraded:   degraded,
			Latency:    time.Since(start),
			Timestamp:  start,
		})
	}

	return result, nil
}

// rank dispatches to the variant's scoring loop. The degraded flag
// reports an embedding-provider fallback.
func (m *Matcher) rank(ctx context.Context, query string, corpus []store.FAQ) ([]Candidate, bool) {
	switch m.cfg.Variant {
	case LexicalOnly:
		return m.rankLexical(query, corpus), false
	case EmbeddingHybrid:
		return m.rankEmbedding(ctx, query, corpus)
	default:
		return m.rankBM25Tags(query, corpus), false
	}
}

// rankLexical scores with the Jaccard/Levenshtein/keyword composite.
func (m *Matcher) rankLexical(query string, corpus []store.FAQ) []Candidate {
	candidates := make([]Candidate, 0, len(corpus))
	for _, faq := range corpus {
		simQ := rank.TextSimilarity(query, faq.Question, m.cfg.Lexical)
		simA := rank.TextSimilarity(query, faq.Answer, m.cfg.Lexical)
		keyword := rank.KeywordMatch(query, faq.Tags)

		score := questionWeight*simQ + answerWeight*simA + keywordWeight*keyword
		if keywordWeight*keyword > keywordBoostFloor {
			score = math.Min(score*keywordBoostFactor, 1.0)
		}

		candidates = append(candidates, Candidate{
			FAQID:    faq.ID,
			Question: faq.Question,
			Answer:   faq.Answer,
			Score:    score,
			Components: ComponentScores{
				QuestionSimilarity: simQ,
				AnswerSimilarity:   simA,
				KeywordMatch:       keyword,
			},
			strongSignal: keyword,
		})
	}
	return candidates
}

// rankBM25Tags scores with single-document BM25 plus the tag boost.
func (m *Matcher) rankBM25Tags(query string, corpus []store.FAQ) []Candidate {
	queryTerms := text.Tokenize(query)
	queryTags := rank.QueryTags(query)

	candidates := make([]Candidate, 0, len(corpus))
	for _, faq := range corpus {
		docTerms := rank.DocumentTerms(faq.Question, faq.Answer)
		bm25 := rank.BM25Score(queryTerms, docTerms, m.cfg.BM25, nil)
		boost := rank.TagBoost(queryTags, faq.Tags)

		candidates = append(candidates, Candidate{
			FAQID:    faq.ID,
			Question: faq.Question,
			Answer:   faq.Answer,
			Score:    bm25 + boost,
			Components: ComponentScores{
				BM25:     bm25,
				TagBoost: boost,
			},
			strongSignal: bm25,
		})
	}
	return candidates
}

// rankEmbedding runs the provider call and the lexical fallback in
// parallel. If the provider errors, times out, or no record carries a
// usable vector, the precomputed lexical candidates are returned and
// the request never fails.
func (m *Matcher) rankEmbedding(ctx context.Context, query string, corpus []store.FAQ) ([]Candidate, bool) {
	var (
		queryVec []float32
		embedErr error
		fallback []Candidate
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		embedCtx, cancel := context.WithTimeout(gctx, m.cfg.ProviderTimeout)
		defer cancel()
		queryVec, embedErr = m.embedder.Embed(embedCtx, query)
		return nil // degradation is handled below, not by the group
	})

	g.Go(func() error {
		fallback = m.rankBM25Tags(query, corpus)
		return nil
	})

	_ = g.Wait()

	if embedErr != nil {
		m.logger.Warn("embedding provider unavailable, using lexical ranking",
			"error", embedErr)
		return fallback, true
	}
	if len(queryVec) != m.cfg.EmbeddingDimensions {
		m.logger.Warn("query embedding has unexpected dimension, using lexical ranking",
			"got", len(queryVec), "want", m.cfg.EmbeddingDimensions)
		return fallback, true
	}

	queryTags := rank.QueryTags(query)
	candidates := make([]Candidate, 0, len(corpus))
	for _, faq := range corpus {
		if len(faq.Embedding) == 0 {
			continue
		}
		if len(faq.Embedding) != m.cfg.EmbeddingDimensions {
			// Data-integrity problem with one record, not the request.
			m.logger.Warn("skipping faq with mismatched embedding dimension",
				"faq_id", faq.ID, "got", len(faq.Embedding), "want", m.cfg.EmbeddingDimensions)
			continue
		}

		cosine := rank.Cosine(queryVec, faq.Embedding)
		boost := rank.TagBoost(queryTags, faq.Tags)

		candidates = append(candidates, Candidate{
			FAQID:    faq.ID,
			Question: faq.Question,
			Answer:   faq.Answer,
			Score:    cosine + boost,
			Components: ComponentScores{
				Cosine:   cosine,
				TagBoost: boost,
			},
			strongSignal: cosine,
		})
	}

	if len(candidates) == 0 {
		m.logger.Warn("no faq records carry usable embeddings, using lexical ranking")
		return fallback, true
	}

	return candidates, false
}

// CorpusStats returns the memoized collection statistics for the
// current corpus, rebuilding them when the corpus has changed. Used by
// the tag generator and batch re-ranking, not by live scoring.
func (m *Matcher) CorpusStats(ctx context.Context) (*rank.CorpusStats, error) {
	corpus, err := m.corpus.ListFAQs(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]rank.StatsDocument, len(corpus))
	for i, faq := range corpus {
		docs[i] = rank.StatsDocument{ID: faq.ID, Question: faq.Question, Answer: faq.Answer}
	}

	fingerprint := rank.CorpusFingerprint(docs)
	if cached := m.stats.Load(); cached != nil && cached.Fingerprint() == fingerprint {
		return cached, nil
	}

	// Build into a fresh table and swap; concurrent rebuilds race
	// benignly to install equivalent tables.
	fresh := rank.BuildCorpusStats(docs)
	m.stats.Store(fresh)
	return fresh, nil
}
