package rank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextSimilarity_SubstringShortcut(t *testing.T) {
	w := DefaultLexicalWeights()

	// Given: one normalized string contained in the other
	got := TextSimilarity("registration fee", "What is the registration fee for students?", w)

	// Then: exact-match shortcut
	assert.Equal(t, 1.0, got)
}

func TestTextSimilarity_EmptyInputs(t *testing.T) {
	w := DefaultLexicalWeights()

	assert.Zero(t, TextSimilarity("", "anything here", w))
	assert.Zero(t, TextSimilarity("anything here", "", w))
	assert.Zero(t, TextSimilarity("the a an", "of in on", w))
}

func TestTextSimilarity_OverlapScoresBetweenZeroAndOne(t *testing.T) {
	w := DefaultLexicalWeights()

	got := TextSimilarity("conference travel funding", "funding options during conference season", w)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestTextSimilarity_UnrelatedTextsScoreLow(t *testing.T) {
	w := DefaultLexicalWeights()

	related := TextSimilarity("how much does registration cost", "registration cost and payment deadlines", w)
	unrelated := TextSimilarity("how much does registration cost", "wheelchair access ramps available", w)

	assert.Greater(t, related, unrelated)
}

func TestTextSimilarity_LevenshteinSkippedForLongInputs(t *testing.T) {
	// Given: only the Levenshtein component carries weight
	w := LexicalWeights{Jaccard: 0.0, Levenshtein: 1.0}

	longA := strings.Repeat("different words entirely ", 10) // > 100 chars normalized
	longB := strings.Repeat("unrelated tokens saturate ", 10)

	// Then: with both inputs over the limit the component is skipped
	assert.Zero(t, TextSimilarity(longA, longB, w))
}

func TestLevenshtein_KnownDistances(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestLevenshteinRatio_Bounds(t *testing.T) {
	assert.Equal(t, 1.0, LevenshteinRatio("", ""))
	assert.Equal(t, 1.0, LevenshteinRatio("fees", "fees"))
	assert.Equal(t, 0.0, LevenshteinRatio("abcd", "wxyz"))
	assert.InDelta(t, 0.8, LevenshteinRatio("fees", "feesx"), 1e-9)
}

func TestKeywordMatch_NoTags(t *testing.T) {
	assert.Zero(t, KeywordMatch("any question", nil))
	assert.Zero(t, KeywordMatch("any question", []string{}))
}

func TestKeywordMatch_TagSubstringInQuery(t *testing.T) {
	got := KeywordMatch("is there wheelchair access at the venue", []string{"wheelchair access"})

	// Substring hit (0.7) plus keyword containment hits push past 0.7,
	// but the total stays capped.
	assert.Greater(t, got, 0.5)
	assert.LessOrEqual(t, got, 1.0)
}

func TestKeywordMatch_ExactKeywordEqualsTag(t *testing.T) {
	got := KeywordMatch("what about parking", []string{"parking"})
	assert.Greater(t, got, 0.5)
}

func TestKeywordMatch_FuzzyTagMatch(t *testing.T) {
	// "registration" vs "registrations": ratio > 0.8, both > 4 chars
	got := KeywordMatch("registrations deadline", []string{"registration"})
	assert.Greater(t, got, 0.0)
}

func TestKeywordMatch_CappedAtOne(t *testing.T) {
	query := "fees payment refund deadline registration"
	tags := []string{"fees", "payment", "refund", "deadline", "registration"}

	assert.Equal(t, 1.0, KeywordMatch(query, tags))
}
