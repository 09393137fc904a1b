package match

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acurlabs/faqmatch/internal/embed"
	"github.com/acurlabs/faqmatch/internal/store"
)

// mockEmbedder implements embed.Embedder with function fields so
// individual tests can control behavior.
type mockEmbedder struct {
	embedFunc func(ctx context.Context, text string) ([]float32, error)
	dims      int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.embedFunc(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.embedFunc(ctx, t)
		if err != nil {
			return nil, err
		}
		results[i] = vec
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int                     { return m.dims }
func (m *mockEmbedder) ModelName() string                   { return "mock" }
func (m *mockEmbedder) Available(_ context.Context) bool    { return true }
func (m *mockEmbedder) Close() error                        { return nil }

var _ embed.Embedder = (*mockEmbedder)(nil)

func testCorpus(t *testing.T, faqs []store.FAQ) *store.MemoryStore {
	t.Helper()
	s, err := store.NewMemoryStore(faqs)
	require.NoError(t, err)
	return s
}

func newTestMatcher(t *testing.T, corpus store.CorpusStore, opts ...Option) *Matcher {
	t.Helper()
	opts = append([]Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithRand(rand.New(rand.NewSource(1))),
	}, opts...)
	m, err := NewMatcher(corpus, opts...)
	require.NoError(t, err)
	return m
}

func TestNewMatcher_NilStore(t *testing.T) {
	_, err := NewMatcher(nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestNewMatcher_EmbeddingVariantRequiresEmbedder(t *testing.T) {
	corpus := testCorpus(t, nil)

	_, err := NewMatcher(corpus, WithConfig(DefaultConfig(EmbeddingHybrid)))
	assert.ErrorIs(t, err, ErrNilEmbedder)
}

func TestMatch_EmptyQuery(t *testing.T) {
	m := newTestMatcher(t, testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary."},
	}))

	result, err := m.Match(context.Background(), "   ")
	require.NoError(t, err)

	assert.Equal(t, StateClarify, result.State)
	assert.Equal(t, "Please enter a question.", result.Answer)
	assert.Nil(t, result.ID)
	assert.Empty(t, result.Alternates)
}

func TestMatch_EmptyCorpus(t *testing.T) {
	m := newTestMatcher(t, testCorpus(t, nil))

	result, err := m.Match(context.Background(), "any question at all")
	require.NoError(t, err)

	assert.Equal(t, StateClarify, result.State)
	assert.Equal(t, "Sorry, no FAQ entries are available at the moment.", result.Answer)
	assert.Nil(t, result.ID)
}

func TestMatch_LexicalAcceptsParaphrase(t *testing.T) {
	// Given a single FAQ about abstracts
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary...",
			Tags: []string{"abstract", "summary"}},
	})
	m := newTestMatcher(t, corpus, WithConfig(DefaultConfig(LexicalOnly)))

	// When asking a close paraphrase
	result, err := m.Match(context.Background(), "what's an abstract")
	require.NoError(t, err)

	// Then the FAQ is accepted
	assert.Equal(t, StateAccept, result.State)
	require.NotNil(t, result.ID)
	assert.Equal(t, int64(1), *result.ID)
	assert.GreaterOrEqual(t, result.Score, DefaultLexicalAcceptThreshold)
	assert.Equal(t, "A short summary...", result.Answer)
}

func TestMatch_UnrelatedTopicStaysOut(t *testing.T) {
	corpus := testCorpus(t, []store.FAQ{
		{ID: 20, Question: "How much are the registration fees?",
			Answer: "Registration costs 50 dollars for students.",
			Tags:   []string{"fees", "registration", "cost"}},
		{ID: 21, Question: "How do I arrange travel to the venue?",
			Answer: "Shuttle buses run from the airport.",
			Tags:   []string{"travel", "venue"}},
	})
	m := newTestMatcher(t, corpus, WithConfig(DefaultConfig(BM25Tags)))

	result, err := m.Match(context.Background(), "how much does registration cost")
	require.NoError(t, err)

	require.NotNil(t, result.ID)
	assert.Equal(t, int64(20), *result.ID)
	for _, alt := range result.Alternates {
		assert.NotEqual(t, int64(21), alt.ID)
	}
}

func TestMatch_NonsenseQueryClarifies(t *testing.T) {
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary."},
		{ID: 2, Question: "How much are the fees?", Answer: "50 dollars."},
	})
	m := newTestMatcher(t, corpus, WithConfig(DefaultConfig(BM25Tags)))

	result, err := m.Match(context.Background(), "asdkjhasdkjh nonsense")
	require.NoError(t, err)

	assert.Equal(t, StateClarify, result.State)
	assert.Nil(t, result.ID)
	assert.NotEmpty(t, result.Answer)
	assert.Contains(t, fallbackMessages, result.Answer)
}

func TestMatch_TieBreakKeepsCorpusOrder(t *testing.T) {
	// Two FAQs with identical question text, corpus order [1, 2]
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "How do I reset my password?", Answer: "First answer."},
		{ID: 2, Question: "How do I reset my password?", Answer: "Second answer."},
	})
	m := newTestMatcher(t, corpus, WithConfig(DefaultConfig(BM25Tags)))

	result, err := m.Match(context.Background(), "how do I reset my password")
	require.NoError(t, err)

	require.NotNil(t, result.ID)
	assert.Equal(t, int64(1), *result.ID)
}

func TestMatch_Deterministic(t *testing.T) {
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary."},
		{ID: 2, Question: "How much are the fees?", Answer: "50 dollars."},
		{ID: 3, Question: "When is the deadline?", Answer: "March 1st."},
	})
	m := newTestMatcher(t, corpus, WithConfig(DefaultConfig(BM25Tags)))

	first, err := m.Match(context.Background(), "what are the fees")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := m.Match(context.Background(), "what are the fees")
		require.NoError(t, err)
		assert.Equal(t, first.ID, again.ID)
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Alternates, again.Alternates)
	}
}

func TestMatch_EmbeddingHybrid(t *testing.T) {
	dims := 4
	queryVec := []float32{1, 0, 0, 0}
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary.",
			Embedding: []float32{0.9, 0.1, 0, 0}},
		{ID: 2, Question: "How much are the fees?", Answer: "50 dollars.",
			Embedding: []float32{0, 1, 0, 0}},
	})

	cfg := DefaultConfig(EmbeddingHybrid)
	cfg.EmbeddingDimensions = dims
	m := newTestMatcher(t, corpus,
		WithConfig(cfg),
		WithEmbedder(&mockEmbedder{
			dims: dims,
			embedFunc: func(_ context.Context, _ string) ([]float32, error) {
				return queryVec, nil
			},
		}),
	)

	result, err := m.Match(context.Background(), "tell me about abstracts")
	require.NoError(t, err)

	require.NotNil(t, result.ID)
	assert.Equal(t, int64(1), *result.ID)
	assert.False(t, result.Degraded)
}

func TestMatch_EmbeddingDimensionMismatchSkipsRecord(t *testing.T) {
	// FAQ 2 has a 2-dim embedding in a 4-dim deployment
	dims := 4
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary.",
			Embedding: []float32{1, 0, 0, 0}},
		{ID: 2, Question: "How much are the fees?", Answer: "50 dollars.",
			Embedding: []float32{1, 0}},
	})

	cfg := DefaultConfig(EmbeddingHybrid)
	cfg.EmbeddingDimensions = dims
	m := newTestMatcher(t, corpus,
		WithConfig(cfg),
		WithEmbedder(&mockEmbedder{
			dims: dims,
			embedFunc: func(_ context.Context, _ string) ([]float32, error) {
				return []float32{0, 1, 0, 0}, nil
			},
		}),
	)

	result, err := m.Match(context.Background(), "fees please")
	require.NoError(t, err)

	// FAQ 2 never appears anywhere in the result
	if result.ID != nil {
		assert.NotEqual(t, int64(2), *result.ID)
	}
	for _, alt := range result.Alternates {
		assert.NotEqual(t, int64(2), alt.ID)
	}
}

func TestMatch_ProviderFailureFallsBackToLexical(t *testing.T) {
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "How much are the registration fees?",
			Answer: "Registration costs 50 dollars.",
			Tags:   []string{"fees", "registration"},
			Embedding: []float32{1, 0, 0, 0}},
	})

	cfg := DefaultConfig(EmbeddingHybrid)
	cfg.EmbeddingDimensions = 4
	m := newTestMatcher(t, corpus,
		WithConfig(cfg),
		WithEmbedder(&mockEmbedder{
			dims: 4,
			embedFunc: func(_ context.Context, _ string) ([]float32, error) {
				return nil, embed.ErrUnavailable
			},
		}),
	)

	result, err := m.Match(context.Background(), "how much are the registration fees")
	require.NoError(t, err)

	// Lexical fallback still answers
	assert.True(t, result.Degraded)
	require.NotNil(t, result.ID)
	assert.Equal(t, int64(1), *result.ID)
}

func TestMatch_ProviderTimeoutDoesNotHang(t *testing.T) {
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "How much are the registration fees?",
			Answer:    "Registration costs 50 dollars.",
			Embedding: []float32{1, 0, 0, 0}},
	})

	cfg := DefaultConfig(EmbeddingHybrid)
	cfg.EmbeddingDimensions = 4
	cfg.ProviderTimeout = 10 * time.Millisecond
	m := newTestMatcher(t, corpus,
		WithConfig(cfg),
		WithEmbedder(&mockEmbedder{
			dims: 4,
			embedFunc: func(ctx context.Context, _ string) ([]float32, error) {
				<-ctx.Done() // respects cancellation, never returns otherwise
				return nil, ctx.Err()
			},
		}),
	)

	done := make(chan struct{})
	var result *Result
	var err error
	go func() {
		result, err = m.Match(context.Background(), "registration fees")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("match call hung on a slow embedding provider")
	}

	require.NoError(t, err)
	assert.True(t, result.Degraded)
}

func TestMatch_NoUsableEmbeddingsFallsBack(t *testing.T) {
	// Corpus records carry no embeddings at all
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "How much are the fees?", Answer: "50 dollars."},
	})

	cfg := DefaultConfig(EmbeddingHybrid)
	cfg.EmbeddingDimensions = 4
	m := newTestMatcher(t, corpus,
		WithConfig(cfg),
		WithEmbedder(&mockEmbedder{
			dims: 4,
			embedFunc: func(_ context.Context, _ string) ([]float32, error) {
				return []float32{1, 0, 0, 0}, nil
			},
		}),
	)

	result, err := m.Match(context.Background(), "how much are the fees")
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	require.NotNil(t, result.ID)
	assert.Equal(t, int64(1), *result.ID)
}

func TestMatch_InvalidRecordFailsLoudly(t *testing.T) {
	// A record without an answer is a broken collaborator, not a user
	// condition; MemoryStore rejects it at construction.
	_, err := store.NewMemoryStore([]store.FAQ{{ID: 1, Question: "Q?"}})
	assert.Error(t, err)
}

func TestCorpusStats_RebuildOnChange(t *testing.T) {
	corpus := testCorpus(t, []store.FAQ{
		{ID: 1, Question: "What is an abstract?", Answer: "A short summary."},
	})
	m := newTestMatcher(t, corpus, WithConfig(DefaultConfig(BM25Tags)))
	ctx := context.Background()

	first, err := m.CorpusStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DocCount())

	// Same corpus: cached table is reused
	again, err := m.CorpusStats(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)

	// Corpus change: table is rebuilt
	require.NoError(t, corpus.Add(store.FAQ{ID: 2, Question: "Fees?", Answer: "50 dollars."}))
	rebuilt, err := m.CorpusStats(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, rebuilt)
	assert.Equal(t, 2, rebuilt.DocCount())
}
