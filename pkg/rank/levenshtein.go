package rank

// levenshteinMaxLen caps the input length for edit distance computation.
// Longer inputs are truncated before the DP runs. The expensive O(n*m)
// path is additionally gated by the caller (see TextSimilarity).
const levenshteinMaxLen = 255

// Levenshtein computes the edit distance between two strings over runes,
// using the two-row dynamic programming formulation.
func Levenshtein(a, b string) int {
	ra := truncateRunes(a, levenshteinMaxLen)
	rb := truncateRunes(b, levenshteinMaxLen)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// LevenshteinRatio returns 1 - distance/maxLen, a similarity in [0,1].
// Two empty strings are identical (ratio 1).
func LevenshteinRatio(a, b string) float64 {
	la := runeLen(a, levenshteinMaxLen)
	lb := runeLen(b, levenshteinMaxLen)
	maxLen := max(la, lb)
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(Levenshtein(a, b))/float64(maxLen)
}

func truncateRunes(s string, limit int) []rune {
	r := []rune(s)
	if len(r) > limit {
		r = r[:limit]
	}
	return r
}

func runeLen(s string, limit int) int {
	n := 0
	for range s {
		n++
		if n >= limit {
			return limit
		}
	}
	return n
}
