// Package telemetry collects match-quality telemetry for threshold tuning.
// All telemetry data is kept in process - no external reporting.
package telemetry

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Decision labels recorded per match.
const (
	DecisionAccept  = "accept"
	DecisionClarify = "clarify"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// MatchEvent captures one match invocation for telemetry recording.
type MatchEvent struct {
	Query      string
	Variant    string
	Decision   string
	TopScore   float64
	CorpusSize int
	Degraded   bool // embedding provider fell back to lexical ranking
	Latency    time.Duration
	Timestamp  time.Time
}

// Recorder is the capability the match pipeline uses to report telemetry.
// A nil Recorder is valid everywhere one is accepted.
type Recorder interface {
	Record(event MatchEvent)
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // Next write position
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity

	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in the buffer in FIFO order (oldest first).
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return []T{}
	}

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// MatchMetricsConfig configures the collector.
type MatchMetricsConfig struct {
	TopTermsCapacity         int // Max query terms to track (default: 100)
	ClarifiedQueriesCapacity int // Max clarified queries to keep (default: 100)
}

// DefaultMatchMetricsConfig returns sensible defaults.
func DefaultMatchMetricsConfig() MatchMetricsConfig {
	return MatchMetricsConfig{
		TopTermsCapacity:         100,
		ClarifiedQueriesCapacity: 100,
	}
}

// TermCount represents a term and its frequency count.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// MatchMetricsSnapshot is an immutable snapshot of match metrics.
type MatchMetricsSnapshot struct {
	DecisionCounts      map[string]int64        `json:"decision_counts"`
	VariantCounts       map[string]int64        `json:"variant_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	ClarifiedQueries    []string                `json:"clarified_queries"`
	TopTerms            []TermCount             `json:"top_terms"`
	TotalMatches        int64                   `json:"total_matches"`
	ClarifyCount        int64                   `json:"clarify_count"`
	DegradedCount       int64                   `json:"degraded_count"`
	Since               time.Time               `json:"since"`
}

// ClarifyPercentage returns the percentage of matches that ended in CLARIFY.
func (s *MatchMetricsSnapshot) ClarifyPercentage() float64 {
	if s.TotalMatches == 0 {
		return 0
	}
	return float64(s.ClarifyCount) / float64(s.TotalMatches) * 100
}

// MatchMetrics collects match telemetry. Thread-safe for concurrent access.
type MatchMetrics struct {
	mu sync.RWMutex

	decisions     map[string]int64
	variants      map[string]int64
	latencies     map[LatencyBucket]int64
	topTerms      *lru.Cache[string, int64]
	clarified     *CircularBuffer[string]
	totalMatches  int64
	clarifyCount  int64
	degradedCount int64
	startTime     time.Time
}

var _ Recorder = (*MatchMetrics)(nil)

// NewMatchMetrics creates a collector with default configuration.
func NewMatchMetrics() *MatchMetrics {
	return NewMatchMetricsWithConfig(DefaultMatchMetricsConfig())
}

// NewMatchMetricsWithConfig creates a collector with custom configuration.
func NewMatchMetricsWithConfig(cfg MatchMetricsConfig) *MatchMetrics {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ClarifiedQueriesCapacity <= 0 {
		cfg.ClarifiedQueriesCapacity = 100
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	return &MatchMetrics{
		decisions: make(map[string]int64),
		variants:  make(map[string]int64),
		latencies: make(map[LatencyBucket]int64),
		topTerms:  topTerms,
		clarified: NewCircularBuffer[string](cfg.ClarifiedQueriesCapacity),
		startTime: time.Now(),
	}
}

// Record captures metrics from one match invocation.
func (m *MatchMetrics) Record(event MatchEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decisions[event.Decision]++
	m.variants[event.Variant]++
	m.latencies[LatencyToBucket(event.Latency)]++
	m.totalMatches++

	if event.Degraded {
		m.degradedCount++
	}

	for _, term := range ExtractTerms(event.Query) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}

	// Clarified queries are the tuning signal: they show what the
	// corpus fails to answer.
	if event.Decision == DecisionClarify {
		m.clarified.Add(event.Query)
		m.clarifyCount++
	}
}

// ExtractTerms extracts trackable terms from a query string.
// Terms are lowercased and filtered to minimum length 3.
func ExtractTerms(query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var terms []string
	for _, w := range strings.Fields(query) {
		if len(w) >= 3 {
			terms = append(terms, w)
		}
	}

	if len(terms) == 0 {
		return nil
	}
	return terms
}

// Snapshot returns current metrics for reporting.
func (m *MatchMetrics) Snapshot() *MatchMetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	decisions := make(map[string]int64, len(m.decisions))
	for k, v := range m.decisions {
		decisions[k] = v
	}
	variants := make(map[string]int64, len(m.variants))
	for k, v := range m.variants {
		variants[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	var topTerms []TermCount
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			topTerms = append(topTerms, TermCount{Term: key, Count: count})
		}
	}
	for i := 0; i < len(topTerms); i++ {
		for j := i + 1; j < len(topTerms); j++ {
			if topTerms[j].Count > topTerms[i].Count {
				topTerms[i], topTerms[j] = topTerms[j], topTerms[i]
			}
		}
	}

	return &MatchMetricsSnapshot{
		DecisionCounts:      decisions,
		VariantCounts:       variants,
		LatencyDistribution: latencies,
		ClarifiedQueries:    m.clarified.Items(),
		TopTerms:            topTerms,
		TotalMatches:        m.totalMatches,
		ClarifyCount:        m.clarifyCount,
		DegradedCount:       m.degradedCount,
		Since:               m.startTime,
	}
}
