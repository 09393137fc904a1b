package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchMetrics_RecordAndSnapshot(t *testing.T) {
	m := NewMatchMetrics()

	m.Record(MatchEvent{
		Query:    "how do I reset my password",
		Variant:  "bm25_tags",
		Decision: DecisionAccept,
		TopScore: 0.8,
		Latency:  5 * time.Millisecond,
	})
	m.Record(MatchEvent{
		Query:    "completely unanswerable thing",
		Variant:  "bm25_tags",
		Decision: DecisionClarify,
		TopScore: 0.05,
		Latency:  75 * time.Millisecond,
		Degraded: true,
	})

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalMatches)
	assert.Equal(t, int64(1), snap.DecisionCounts[DecisionAccept])
	assert.Equal(t, int64(1), snap.DecisionCounts[DecisionClarify])
	assert.Equal(t, int64(2), snap.VariantCounts["bm25_tags"])
	assert.Equal(t, int64(1), snap.DegradedCount)
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP10])
	assert.Equal(t, int64(1), snap.LatencyDistribution[BucketP100])
	assert.Equal(t, []string{"completely unanswerable thing"}, snap.ClarifiedQueries)
	assert.InDelta(t, 50.0, snap.ClarifyPercentage(), 0.001)
}

func TestLatencyToBucket(t *testing.T) {
	assert.Equal(t, BucketP10, LatencyToBucket(3*time.Millisecond))
	assert.Equal(t, BucketP50, LatencyToBucket(20*time.Millisecond))
	assert.Equal(t, BucketP100, LatencyToBucket(60*time.Millisecond))
	assert.Equal(t, BucketP500, LatencyToBucket(200*time.Millisecond))
	assert.Equal(t, BucketP1000, LatencyToBucket(900*time.Millisecond))
}

func TestCircularBuffer_EvictsOldest(t *testing.T) {
	b := NewCircularBuffer[int](3)
	for i := 1; i <= 5; i++ {
		b.Add(i)
	}

	require.Equal(t, 3, b.Size())
	assert.Equal(t, []int{3, 4, 5}, b.Items())
}

func TestExtractTerms_FiltersShortWords(t *testing.T) {
	terms := ExtractTerms("How do I pay")
	assert.Equal(t, []string{"how", "pay"}, terms)

	assert.Nil(t, ExtractTerms("a b"))
	assert.Nil(t, ExtractTerms("   "))
}
