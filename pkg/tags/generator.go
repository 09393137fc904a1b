// Package tags derives candidate tags from FAQ question/answer text.
// Generation runs at indexing time to enrich records for the keyword
// and tag-boost ranking paths; nothing here is on the query hot path.
package tags

import (
	"regexp"
	"sort"
	"strings"

	"github.com/acurlabs/faqmatch/pkg/rank"
)

// Scoring weights. Phrases beat unigrams because multi-word tags carry
// far more matching signal ("hearing loop" vs "loop").
const (
	phraseBonus         = 1.2
	knownTagBoost       = 2.0
	questionBonus       = 0.5
	containedDownweight = 0.9

	minTokenLen = 3

	// DefaultLimit caps the suggested tags per record.
	DefaultLimit = 8
)

// genericStopWords are dropped from candidate generation. Deployments
// add their own domain noise words via WithStopWords.
var genericStopWords = []string{
	"a", "an", "and", "the", "is", "are", "was", "were", "be", "been", "being",
	"to", "of", "in", "on", "for", "with", "by", "at", "from", "it", "that",
	"this", "these", "those", "as", "or", "if", "then", "but", "so", "than",
	"such", "may", "can", "could", "should", "would", "will", "about", "into",
	"within", "please", "thanks", "thank", "you", "we", "our", "your", "i",
	"me", "my", "us", "they", "them", "their", "what", "when", "where", "how",
	"why", "who", "which", "does", "do", "did", "have", "has", "had",
}

// tokenPattern keeps hyphenated terms intact ("covid-19", "check-in").
var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9\-]+`)

// Generator suggests tags for FAQ records.
type Generator struct {
	limit     int
	stopWords map[string]bool
	knownTags map[string]bool
	stats     *rank.CorpusStats
}

// Option configures a Generator.
type Option func(*Generator)

// WithLimit sets the maximum number of suggested tags.
func WithLimit(limit int) Option {
	return func(g *Generator) {
		if limit > 0 {
			g.limit = limit
		}
	}
}

// WithStopWords adds domain-specific noise words to the drop list.
func WithStopWords(words []string) Option {
	return func(g *Generator) {
		for _, w := range words {
			g.stopWords[strings.ToLower(strings.TrimSpace(w))] = true
		}
	}
}

// WithKnownTags boosts candidates already used as tags elsewhere in the
// corpus, pulling suggestions toward an established vocabulary.
func WithKnownTags(known []string) Option {
	return func(g *Generator) {
		for _, t := range known {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" {
				g.knownTags[t] = true
			}
		}
	}
}

// WithCorpusStats enables distinctiveness weighting: terms common
// across the whole corpus score lower than terms specific to this
// record. Without stats, raw frequency is used.
func WithCorpusStats(stats *rank.CorpusStats) Option {
	return func(g *Generator) {
		g.stats = stats
	}
}

// NewGenerator creates a tag generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		limit:     DefaultLimit,
		stopWords: make(map[string]bool, len(genericStopWords)),
		knownTags: make(map[string]bool),
	}
	for _, w := range genericStopWords {
		g.stopWords[w] = true
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Suggest returns up to the configured limit of candidate tags for a
// question/answer pair, phrases ranked before single words.
func (g *Generator) Suggest(question, answer string) []string {
	questionTokens := g.cleanTokens(question)
	answerTokens := g.cleanTokens(answer)

	inQuestion := make(map[string]bool, len(questionTokens))
	for _, t := range questionTokens {
		inQuestion[t] = true
	}

	tokens := append(append([]string{}, questionTokens...), answerTokens...)
	if len(tokens) == 0 {
		return []string{}
	}

	scores := make(map[string]float64)

	// Unigrams score by frequency, weighted by corpus distinctiveness.
	for _, w := range tokens {
		scores[w] += g.weight(w)
	}

	// Adjacent bigrams and trigrams capture phrases.
	for n := 2; n <= 3; n++ {
		for phrase, count := range g.ngrams(tokens, n) {
			scores[phrase] += phraseBonus * count * g.phraseWeight(phrase)
		}
	}

	// Pull toward the established tag vocabulary.
	for candidate := range scores {
		if g.knownTags[candidate] {
			scores[candidate] += knownTagBoost
		}
	}

	// Terms from the question name the topic better than answer prose.
	for candidate := range scores {
		if g.appearsInQuestion(candidate, inQuestion) {
			scores[candidate] += questionBonus
		}
	}

	// When a phrase made the list, its component words are partly
	// redundant; downweight them so the phrase wins.
	for candidate := range scores {
		if !strings.Contains(candidate, " ") {
			continue
		}
		for _, part := range strings.Fields(candidate) {
			if _, ok := scores[part]; ok {
				scores[part] *= containedDownweight
			}
		}
	}

	return g.pick(scores)
}

// cleanTokens tokenizes and drops short, numeric, and stopword tokens.
func (g *Generator) cleanTokens(s string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(s), -1)
	clean := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.Trim(w, "-")
		if len(w) < minTokenLen || isNumeric(w) || g.stopWords[w] {
			continue
		}
		clean = append(clean, w)
	}
	return clean
}

// ngrams counts adjacent n-grams with no repeated word.
func (g *Generator) ngrams(tokens []string, n int) map[string]float64 {
	grams := make(map[string]float64)
	for i := 0; i+n <= len(tokens); i++ {
		window := tokens[i : i+n]
		if hasRepeat(window) {
			continue
		}
		grams[strings.Join(window, " ")]++
	}
	return grams
}

// weight returns the distinctiveness weight for a single term.
func (g *Generator) weight(term string) float64 {
	if g.stats == nil {
		return 1.0
	}
	return g.stats.IDF(term)
}

// phraseWeight averages the component-word weights.
func (g *Generator) phraseWeight(phrase string) float64 {
	if g.stats == nil {
		return 1.0
	}
	parts := strings.Fields(phrase)
	var sum float64
	for _, p := range parts {
		sum += g.stats.IDF(p)
	}
	return sum / float64(len(parts))
}

// appearsInQuestion reports whether every word of the candidate occurs
// in the question.
func (g *Generator) appearsInQuestion(candidate string, inQuestion map[string]bool) bool {
	for _, part := range strings.Fields(candidate) {
		if !inQuestion[part] {
			return false
		}
	}
	return true
}

// pick ranks candidates and applies the output shape rules: dedup terms
// differing only by hyphen vs space, phrases first, cap at limit.
func (g *Generator) pick(scores map[string]float64) []string {
	ranked := make([]string, 0, len(scores))
	for candidate := range scores {
		ranked = append(ranked, candidate)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j] // deterministic order for equal scores
	})

	// Wider pool before the final trim so phrase preference has
	// something to reorder.
	pool := make([]string, 0, g.limit*2)
	seenNorm := make(map[string]bool)
	for _, term := range ranked {
		norm := strings.ReplaceAll(term, "-", " ")
		if seenNorm[norm] {
			continue
		}
		seenNorm[norm] = true
		pool = append(pool, term)
		if len(pool) >= g.limit*2 {
			break
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		pi := strings.Contains(pool[i], " ")
		pj := strings.Contains(pool[j], " ")
		if pi != pj {
			return pi // phrases first
		}
		return scores[pool[i]] > scores[pool[j]]
	})

	if len(pool) > g.limit {
		pool = pool[:g.limit]
	}
	return pool
}

func hasRepeat(window []string) bool {
	for i := 0; i < len(window); i++ {
		for j := i + 1; j < len(window); j++ {
			if window[i] == window[j] {
				return true
			}
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
