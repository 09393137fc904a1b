package match

import (
	"math/rand"
	"sort"
)

// Fixed user-facing messages. Wording is part of the product surface;
// internal error detail never reaches these strings.
const (
	emptyQueryMessage  = "Please enter a question."
	emptyCorpusMessage = "Sorry, no FAQ entries are available at the moment."
)

// fallbackMessages is the pool a clarifying answer is drawn from.
// Rotating the phrasing avoids robotic repetition across a session.
var fallbackMessages = []string{
	"I'm not quite sure about that specific question. Could you try rephrasing it or asking in a different way?",
	"Hmm, I don't have a clear answer for that. Would you mind asking your question differently?",
	"That's a bit outside my knowledge base. Could you provide more details or try a different question?",
	"I want to make sure I give you the right information. Could you rephrase your question or be more specific?",
}

// suggestionLeadIns introduces alternates when a near-miss exists.
var suggestionLeadIns = []string{
	"Here are some topics I can definitely help with:",
	"Maybe one of these related questions might help:",
	"I found some potentially related information:",
}

// nearMissFloor is the best-score level above which a clarifying
// response still points at related questions.
const nearMissFloor = 0.1

// emptyQueryResult is the immediate CLARIFY for blank input.
func emptyQueryResult() *Result {
	return &Result{
		State:      StateClarify,
		Answer:     emptyQueryMessage,
		Alternates: []Alternate{},
	}
}

// emptyCorpusResult is the immediate CLARIFY when no FAQs exist. It is
// deliberately distinguishable from "no good match".
func emptyCorpusResult() *Result {
	return &Result{
		State:      StateClarify,
		Answer:     emptyCorpusMessage,
		Alternates: []Alternate{},
	}
}

// sortCandidates orders by score descending. The sort is stable so ties
// keep corpus order, making results deterministic for identical inputs.
func sortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}

// decide applies the threshold policy to sorted candidates.
// rng drives fallback message selection; injecting it keeps tests
// deterministic.
func decide(candidates []Candidate, cfg Config, rng *rand.Rand) *Result {
	if len(candidates) == 0 {
		return emptyCorpusResult()
	}

	best := candidates[0]

	strong := cfg.StrongMatchOverride && best.strongSignal > cfg.StrongMatchThreshold
	if best.Score >= cfg.AcceptThreshold || strong {
		id := best.FAQID
		return &Result{
			State:      StateAccept,
			Answer:     best.Answer,
			Score:      best.Score,
			ID:         &id,
			Alternates: collectAlternates(candidates, cfg.AlternateThreshold, cfg.MaxAlternates),
		}
	}

	answer := fallbackMessages[rng.Intn(len(fallbackMessages))]
	if best.Score > nearMissFloor {
		answer += "\n\n" + suggestionLeadIns[rng.Intn(len(suggestionLeadIns))]
	}

	// Suggestions come from a halved floor so a near-miss still offers
	// something to click on. Score is reported so callers can log it.
	return &Result{
		State:      StateClarify,
		Answer:     answer,
		Score:      best.Score,
		Alternates: collectAlternates(candidates, cfg.AlternateThreshold/2, cfg.MaxAlternates),
	}
}

// collectAlternates picks candidates ranked 2..k that clear floor,
// deduplicated by id and capped at max. The top candidate's id never
// appears.
func collectAlternates(candidates []Candidate, floor float64, max int) []Alternate {
	alternates := make([]Alternate, 0, max)
	if max == 0 || len(candidates) < 2 {
		return alternates
	}

	seen := map[int64]bool{candidates[0].FAQID: true}
	for _, c := range candidates[1:] {
		if len(alternates) >= max {
			break
		}
		if c.Score < floor || seen[c.FAQID] {
			continue
		}
		seen[c.FAQID] = true
		alternates = append(alternates, Alternate{
			ID:       c.FAQID,
			Question: c.Question,
			Score:    c.Score,
		})
	}

	return alternates
}
