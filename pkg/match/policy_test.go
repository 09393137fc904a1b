package match

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pinnedRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestDecide_ThresholdBoundaryIsInclusive(t *testing.T) {
	cfg := DefaultConfig(BM25Tags)
	cfg.StrongMatchOverride = false

	// Score exactly at the threshold is accepted
	at := []Candidate{{FAQID: 1, Answer: "yes", Score: cfg.AcceptThreshold}}
	result := decide(at, cfg, pinnedRand())
	assert.Equal(t, StateAccept, result.State)

	// One epsilon below is rejected into CLARIFY
	below := []Candidate{{FAQID: 1, Answer: "yes", Score: cfg.AcceptThreshold - 1e-9}}
	result = decide(below, cfg, pinnedRand())
	assert.Equal(t, StateClarify, result.State)
	assert.Nil(t, result.ID)
}

func TestDecide_StrongMatchOverride(t *testing.T) {
	cfg := DefaultConfig(BM25Tags)
	candidates := []Candidate{{
		FAQID:        7,
		Answer:       "strong evidence answer",
		Score:        0.1, // well below accept threshold
		strongSignal: 0.6, // but the raw signal is confident
	}}

	// Enabled: the override accepts
	result := decide(candidates, cfg, pinnedRand())
	require.Equal(t, StateAccept, result.State)
	assert.Equal(t, int64(7), *result.ID)

	// Disabled: the same candidate clarifies
	cfg.StrongMatchOverride = false
	result = decide(candidates, cfg, pinnedRand())
	assert.Equal(t, StateClarify, result.State)
}

func TestDecide_ClarifyReportsNearMissScore(t *testing.T) {
	cfg := DefaultConfig(BM25Tags)
	cfg.StrongMatchOverride = false
	candidates := []Candidate{{FAQID: 1, Answer: "x", Score: 0.3}}
	cfg.AcceptThreshold = 0.9

	result := decide(candidates, cfg, pinnedRand())

	require.Equal(t, StateClarify, result.State)
	assert.Nil(t, result.ID)
	// Near-miss score is preserved so callers can log it
	assert.InDelta(t, 0.3, result.Score, 1e-9)
}

func TestDecide_ClarifyAddsSuggestionLeadInForNearMiss(t *testing.T) {
	cfg := DefaultConfig(BM25Tags)
	cfg.StrongMatchOverride = false

	nearMiss := []Candidate{{FAQID: 1, Answer: "x", Score: 0.2}}
	result := decide(nearMiss, cfg, pinnedRand())
	parts := strings.SplitN(result.Answer, "\n\n", 2)
	require.Len(t, parts, 2)
	assert.Contains(t, fallbackMessages, parts[0])
	assert.Contains(t, suggestionLeadIns, parts[1])

	// Hopeless best score gets the plain fallback only
	hopeless := []Candidate{{FAQID: 1, Answer: "x", Score: 0.01}}
	result = decide(hopeless, cfg, pinnedRand())
	assert.Contains(t, fallbackMessages, result.Answer)
}

func TestDecide_PinnedRandIsDeterministic(t *testing.T) {
	cfg := DefaultConfig(BM25Tags)
	cfg.StrongMatchOverride = false
	candidates := []Candidate{{FAQID: 1, Answer: "x", Score: 0.05}}

	first := decide(candidates, cfg, pinnedRand())
	second := decide(candidates, cfg, pinnedRand())
	assert.Equal(t, first.Answer, second.Answer)
}

func TestDecide_ClarifyUsesHalvedAlternateFloor(t *testing.T) {
	cfg := DefaultConfig(BM25Tags)
	cfg.StrongMatchOverride = false
	cfg.AcceptThreshold = 0.9
	cfg.AlternateThreshold = 0.4

	candidates := []Candidate{
		{FAQID: 1, Question: "best", Answer: "a", Score: 0.35},
		{FAQID: 2, Question: "near", Answer: "b", Score: 0.25}, // below 0.4, above 0.2
		{FAQID: 3, Question: "far", Answer: "c", Score: 0.05},  // below halved floor too
	}

	result := decide(candidates, cfg, pinnedRand())

	require.Equal(t, StateClarify, result.State)
	require.Len(t, result.Alternates, 1)
	assert.Equal(t, int64(2), result.Alternates[0].ID)
}

func TestCollectAlternates_DedupAndCap(t *testing.T) {
	candidates := []Candidate{
		{FAQID: 1, Question: "top", Score: 0.9},
		{FAQID: 2, Question: "second", Score: 0.8},
		{FAQID: 2, Question: "second again", Score: 0.7}, // duplicate id
		{FAQID: 1, Question: "top again", Score: 0.65},   // top's id
		{FAQID: 3, Question: "third", Score: 0.6},
		{FAQID: 4, Question: "fourth", Score: 0.55},
		{FAQID: 5, Question: "fifth", Score: 0.5},
	}

	alternates := collectAlternates(candidates, 0.4, 3)

	require.Len(t, alternates, 3)
	assert.Equal(t, int64(2), alternates[0].ID)
	assert.Equal(t, int64(3), alternates[1].ID)
	assert.Equal(t, int64(4), alternates[2].ID)
}

func TestCollectAlternates_NeverContainsTopID(t *testing.T) {
	candidates := []Candidate{
		{FAQID: 9, Question: "top", Score: 0.9},
		{FAQID: 9, Question: "same record scored twice", Score: 0.85},
		{FAQID: 2, Question: "other", Score: 0.8},
	}

	alternates := collectAlternates(candidates, 0.1, 3)

	require.Len(t, alternates, 1)
	assert.Equal(t, int64(2), alternates[0].ID)
}

func TestSortCandidates_StableTieBreak(t *testing.T) {
	candidates := []Candidate{
		{FAQID: 1, Score: 0.5},
		{FAQID: 2, Score: 0.5},
		{FAQID: 3, Score: 0.9},
	}

	sortCandidates(candidates)

	assert.Equal(t, int64(3), candidates[0].FAQID)
	assert.Equal(t, int64(1), candidates[1].FAQID)
	assert.Equal(t, int64(2), candidates[2].FAQID)
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig(LexicalOnly)
	assert.NoError(t, valid.Validate())

	unknown := valid
	unknown.Variant = "mystery"
	assert.Error(t, unknown.Validate())

	negative := valid
	negative.AcceptThreshold = -0.1
	assert.Error(t, negative.Validate())

	badDims := DefaultConfig(EmbeddingHybrid)
	badDims.EmbeddingDimensions = 0
	assert.Error(t, badDims.Validate())

	heavy := valid
	heavy.Lexical.Jaccard = 0.8
	heavy.Lexical.Levenshtein = 0.4
	assert.Error(t, heavy.Validate())
}
