// Package text provides query and FAQ text normalization.
//
// Every scorer in pkg/rank works on the output of this package, so the
// rules here are deliberately boring: lowercase, punctuation to spaces,
// stopword removal, short-token filtering. Two views are exposed because
// the scorers disagree on what they need: BM25 wants term multiplicities,
// Jaccard and tag matching want deduplicated keyword sets.
package text

import (
	"strings"
	"unicode"
)

// stopWords are filtered from every token stream. The list matches the
// corpus the engine was tuned on: articles, conjunctions, auxiliaries
// and pronouns.
var stopWords = buildStopWordMap([]string{
	"the", "a", "an", "and", "or", "but", "in", "on", "at", "to", "for",
	"of", "with", "by", "is", "are", "was", "were", "be", "been", "being",
	"will", "would", "could", "should", "can", "may", "might", "must",
	"this", "that", "these", "those", "i", "me", "my", "we", "us", "our",
})

// shortAllowList keeps short words that carry signal in FAQ queries
// ("do you offer", "any discounts", "get a refund").
var shortAllowList = buildStopWordMap([]string{
	"do", "you", "any", "get", "has", "had",
})

// Normalize lowercases text and replaces every rune that is not a letter,
// digit or whitespace with a space, then collapses runs of whitespace.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize splits text into filtered tokens, preserving multiplicities.
// Use this view for BM25 term frequencies.
func Tokenize(text string) []string {
	var tokens []string
	for _, w := range strings.Fields(Normalize(text)) {
		if keepToken(w) {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// Keywords returns the deduplicated token view, preserving first-seen
// order. Use this view for Jaccard overlap and tag matching.
func Keywords(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(text)) {
		if !keepToken(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// KeywordSet returns Keywords as a lookup set.
func KeywordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range Keywords(text) {
		set[w] = struct{}{}
	}
	return set
}

// keepToken applies the stopword and length filters. Tokens of length
// <= 2 survive only through the explicit allow-list.
func keepToken(w string) bool {
	if _, stop := stopWords[w]; stop {
		return false
	}
	if len(w) > 2 {
		return true
	}
	_, ok := shortAllowList[w]
	return ok
}

func buildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}
