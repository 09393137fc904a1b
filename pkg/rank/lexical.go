package rank

import (
	"strings"

	"github.com/acurlabs/faqmatch/internal/text"
)

// shortTextLimit gates the Levenshtein component of TextSimilarity.
// Edit distance over long answers is both slow and meaningless, so it
// only contributes when both normalized inputs are shorter than this.
const shortTextLimit = 100

// LexicalWeights controls how Jaccard overlap and Levenshtein ratio are
// combined in TextSimilarity. The weights must sum to at most 1 so the
// result stays in [0,1].
type LexicalWeights struct {
	Jaccard     float64
	Levenshtein float64
}

// DefaultLexicalWeights returns the production weighting: word overlap
// dominates, edit distance catches near-verbatim phrasings.
func DefaultLexicalWeights() LexicalWeights {
	return LexicalWeights{Jaccard: 0.7, Levenshtein: 0.3}
}

// TextSimilarity scores two raw strings in [0,1].
//
// A non-empty substring relationship between the normalized strings is
// treated as an exact match. Otherwise the score is a weighted blend of
// Jaccard keyword overlap and (for short inputs) Levenshtein ratio.
func TextSimilarity(a, b string, w LexicalWeights) float64 {
	na := text.Normalize(a)
	nb := text.Normalize(b)

	if na != "" && nb != "" && (strings.Contains(nb, na) || strings.Contains(na, nb)) {
		return 1.0
	}

	ka := text.Keywords(na)
	kb := text.Keywords(nb)
	if len(ka) == 0 || len(kb) == 0 {
		return 0.0
	}

	jaccard := jaccardOverlap(ka, kb)

	lev := 0.0
	if len(na) < shortTextLimit && len(nb) < shortTextLimit {
		lev = LevenshteinRatio(na, nb)
	}

	return jaccard*w.Jaccard + lev*w.Levenshtein
}

// jaccardOverlap is intersection-over-union of two keyword slices.
func jaccardOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	sa := make(map[string]struct{}, len(a))
	for _, w := range a {
		sa[w] = struct{}{}
	}
	sb := make(map[string]struct{}, len(b))
	for _, w := range b {
		sb[w] = struct{}{}
	}

	inter := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union <= 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

// Keyword match scoring tiers. A tag found verbatim inside the query is
// the strongest signal; exact keyword equality and containment follow.
const (
	tagInQueryScore     = 0.7
	exactKeywordScore   = 0.6
	partialKeywordScore = 0.4
	fuzzyScoreWeight    = 0.5
	fuzzyRatioFloor     = 0.8
	fuzzyMinLen         = 5 // only words longer than 4 chars fuzzy-match
)

// KeywordMatch scores how well a FAQ's tags cover the user query, in [0,1].
//
// For each tag: a substring hit in the normalized query scores highest,
// then exact equality with a query keyword, then containment in either
// direction. Tags and keywords longer than 4 characters also fuzzy-match
// via Levenshtein ratio above 0.8. The total is capped at 1.
func KeywordMatch(query string, tags []string) float64 {
	if len(tags) == 0 {
		return 0.0
	}

	nq := text.Normalize(query)
	keywords := text.Keywords(nq)

	score := 0.0
	for _, tag := range tags {
		tag = text.Normalize(tag)
		if tag == "" {
			continue
		}

		if strings.Contains(nq, tag) {
			score += tagInQueryScore
		}

		for _, kw := range keywords {
			if kw == tag {
				score += exactKeywordScore
			} else if strings.Contains(kw, tag) || strings.Contains(tag, kw) {
				score += partialKeywordScore
			}
		}

		if len(tag) >= fuzzyMinLen {
			for _, kw := range keywords {
				if len(kw) < fuzzyMinLen {
					continue
				}
				if sim := LevenshteinRatio(tag, kw); sim > fuzzyRatioFloor {
					score += sim * fuzzyScoreWeight
				}
			}
		}
	}

	return min(score, 1.0)
}
