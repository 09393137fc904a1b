package rank

import (
	"hash/fnv"
	"math"
	"strconv"

	"github.com/acurlabs/faqmatch/internal/text"
)

// BM25Params holds the tunable BM25 constants.
//
// AvgDocLen is fixed rather than measured per query: FAQ documents are
// short and uniform, and a stable value keeps scoring deterministic when
// single records are scored outside a corpus context.
type BM25Params struct {
	K1        float64
	B         float64
	AvgDocLen float64
}

// DefaultBM25Params returns the parameters the engine was tuned with.
func DefaultBM25Params() BM25Params {
	return BM25Params{K1: 1.5, B: 0.75, AvgDocLen: 50}
}

// BM25Score scores query terms against document terms.
//
// stats selects the IDF mode: with nil stats every matched term gets
// idf=1 (single-document mode, used for live per-query scoring without
// corpus context); with stats the classic collection IDF
// ln((N-df+0.5)/(df+0.5)+1) is used.
//
// The sum is normalized by the query length so scores are comparable
// across queries of different lengths. Empty query or document scores 0.
func BM25Score(queryTerms, docTerms []string, p BM25Params, stats *CorpusStats) float64 {
	if len(queryTerms) == 0 || len(docTerms) == 0 {
		return 0.0
	}

	freq := make(map[string]int, len(docTerms))
	for _, t := range docTerms {
		freq[t]++
	}

	docLen := float64(len(docTerms))
	norm := p.K1 * (1 - p.B + p.B*docLen/p.AvgDocLen)

	score := 0.0
	for _, t := range queryTerms {
		f := float64(freq[t])
		if f == 0 {
			continue
		}
		idf := 1.0
		if stats != nil {
			idf = stats.IDF(t)
		}
		score += idf * (f * (p.K1 + 1)) / (f + norm)
	}

	return score / float64(len(queryTerms))
}

// DocumentTerms builds the BM25 term multiset for a FAQ: the question
// tokenized twice followed by the answer, weighting question terms 2x.
func DocumentTerms(question, answer string) []string {
	q := text.Tokenize(question)
	a := text.Tokenize(answer)
	terms := make([]string, 0, 2*len(q)+len(a))
	terms = append(terms, q...)
	terms = append(terms, q...)
	terms = append(terms, a...)
	return terms
}

// CorpusStats is an immutable document-frequency table over a corpus
// snapshot, used for collection-mode IDF. Build a new table when the
// corpus changes; never mutate one in place. Holders swap the pointer
// atomically (see match.Matcher).
type CorpusStats struct {
	docCount    int
	docFreq     map[string]int
	fingerprint uint64
}

// StatsDocument is one corpus document for stats building.
type StatsDocument struct {
	ID       int64
	Question string
	Answer   string
}

// BuildCorpusStats computes document frequencies over the corpus in one
// pass. The returned table is keyed by a fingerprint of the corpus
// content so callers can detect staleness cheaply.
func BuildCorpusStats(docs []StatsDocument) *CorpusStats {
	df := make(map[string]int)
	h := fnv.New64a()

	for _, d := range docs {
		_, _ = h.Write([]byte(strconv.FormatInt(d.ID, 10)))
		_, _ = h.Write([]byte(d.Question))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(d.Answer))
		_, _ = h.Write([]byte{0})

		seen := make(map[string]struct{})
		for _, t := range DocumentTerms(d.Question, d.Answer) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	return &CorpusStats{
		docCount:    len(docs),
		docFreq:     df,
		fingerprint: h.Sum64(),
	}
}

// CorpusFingerprint computes the fingerprint BuildCorpusStats would
// produce for docs, without building the frequency table.
func CorpusFingerprint(docs []StatsDocument) uint64 {
	h := fnv.New64a()
	for _, d := range docs {
		_, _ = h.Write([]byte(strconv.FormatInt(d.ID, 10)))
		_, _ = h.Write([]byte(d.Question))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(d.Answer))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

// IDF returns the collection-mode inverse document frequency for term.
func (s *CorpusStats) IDF(term string) float64 {
	n := float64(s.docCount)
	df := float64(s.docFreq[term])
	return math.Log((n-df+0.5)/(df+0.5) + 1)
}

// DocFreq returns how many documents contain term.
func (s *CorpusStats) DocFreq(term string) int {
	return s.docFreq[term]
}

// DocCount returns the corpus size the table was built over.
func (s *CorpusStats) DocCount() int {
	return s.docCount
}

// Fingerprint identifies the corpus snapshot this table was built from.
func (s *CorpusStats) Fingerprint() uint64 {
	return s.fingerprint
}
