package rank

import (
	"strings"

	"github.com/acurlabs/faqmatch/internal/text"
)

// Tag boost tiers. Exact matches count double a substring hit; the cap
// keeps tag evidence from drowning the primary score.
const (
	ExactTagBoost     = 0.10
	SubstringTagBoost = 0.05
	MaxTagBoost       = 0.2
)

// QueryTags derives matchable tags from a user query: the deduplicated
// keywords plus adjacent-keyword bigrams ("wheelchair access").
func QueryTags(query string) []string {
	keywords := text.Keywords(query)
	tags := make([]string, 0, 2*len(keywords))
	tags = append(tags, keywords...)
	for i := 0; i+1 < len(keywords); i++ {
		tags = append(tags, keywords[i]+" "+keywords[i+1])
	}
	return tags
}

// TagBoost scores the overlap between query-derived tags and a FAQ's
// stored tags: +0.10 per exact match, +0.05 per substring match in
// either direction, capped at 0.2. Each query tag counts once, against
// its best-matching FAQ tag.
func TagBoost(queryTags, faqTags []string) float64 {
	if len(queryTags) == 0 || len(faqTags) == 0 {
		return 0.0
	}

	normalized := make([]string, 0, len(faqTags))
	for _, t := range faqTags {
		if n := text.Normalize(t); n != "" {
			normalized = append(normalized, n)
		}
	}

	boost := 0.0
	for _, qt := range queryTags {
		qt = text.Normalize(qt)
		if qt == "" {
			continue
		}
		for _, ft := range normalized {
			if qt == ft {
				boost += ExactTagBoost
				break
			}
			if strings.Contains(ft, qt) || strings.Contains(qt, ft) {
				boost += SubstringTagBoost
				break
			}
		}
	}

	return min(boost, MaxTagBoost)
}
