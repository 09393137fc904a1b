package embed

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// breakerState tracks whether the provider is being called or shed.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	// DefaultBreakerFailures is how many consecutive provider failures
	// open the circuit.
	DefaultBreakerFailures = 5

	// DefaultBreakerReset is how long an open circuit waits before
	// letting one probe request through.
	DefaultBreakerReset = 30 * time.Second
)

// BreakerEmbedder wraps a provider with a circuit breaker. Once the
// provider fails repeatedly, calls fail fast with ErrUnavailable
// instead of waiting out the request timeout on every query; the
// matcher then degrades to lexical ranking immediately. After the
// reset window a single probe request is allowed through, and a
// success closes the circuit again.
type BreakerEmbedder struct {
	inner Embedder

	maxFailures  int
	resetTimeout time.Duration

	mu          sync.Mutex
	state       breakerState
	failures    int
	lastFailure time.Time
}

// Verify interface implementation at compile time
var _ Embedder = (*BreakerEmbedder)(nil)

// BreakerOption configures a BreakerEmbedder.
type BreakerOption func(*BreakerEmbedder)

// WithBreakerFailures sets the consecutive failures that open the circuit.
func WithBreakerFailures(n int) BreakerOption {
	return func(b *BreakerEmbedder) {
		if n > 0 {
			b.maxFailures = n
		}
	}
}

// WithBreakerReset sets the wait before an open circuit probes again.
func WithBreakerReset(d time.Duration) BreakerOption {
	return func(b *BreakerEmbedder) {
		if d > 0 {
			b.resetTimeout = d
		}
	}
}

// NewBreakerEmbedder wraps inner with a circuit breaker.
func NewBreakerEmbedder(inner Embedder, opts ...BreakerOption) *BreakerEmbedder {
	b := &BreakerEmbedder{
		inner:        inner,
		maxFailures:  DefaultBreakerFailures,
		resetTimeout: DefaultBreakerReset,
		state:        breakerClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// allow reports whether a request may go to the provider, transitioning
// open to half-open after the reset window.
func (b *BreakerEmbedder) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen && time.Since(b.lastFailure) > b.resetTimeout {
		b.state = breakerHalfOpen
	}
	return b.state != breakerOpen
}

func (b *BreakerEmbedder) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = breakerClosed
}

func (b *BreakerEmbedder) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = time.Now()

	// A half-open probe failure reopens immediately.
	if b.state == breakerHalfOpen || b.failures >= b.maxFailures {
		b.state = breakerOpen
	}
}

// State returns the current circuit state as a string, for diagnostics.
func (b *BreakerEmbedder) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerOpen && time.Since(b.lastFailure) > b.resetTimeout {
		return breakerHalfOpen.String()
	}
	return b.state.String()
}

// Embed calls the provider unless the circuit is open.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !b.allow() {
		return nil, fmt.Errorf("%w: circuit open after %d consecutive failures", ErrUnavailable, b.maxFailures)
	}

	vec, err := b.inner.Embed(ctx, text)
	if err != nil {
		b.recordFailure()
		return nil, err
	}
	b.recordSuccess()
	return vec, nil
}

// EmbedBatch calls the provider unless the circuit is open.
func (b *BreakerEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !b.allow() {
		return nil, fmt.Errorf("%w: circuit open after %d consecutive failures", ErrUnavailable, b.maxFailures)
	}

	vecs, err := b.inner.EmbedBatch(ctx, texts)
	if err != nil {
		b.recordFailure()
		return nil, err
	}
	b.recordSuccess()
	return vecs, nil
}

// Dimensions returns the wrapped provider's dimension.
func (b *BreakerEmbedder) Dimensions() int {
	return b.inner.Dimensions()
}

// ModelName returns the wrapped provider's model identifier.
func (b *BreakerEmbedder) ModelName() string {
	return b.inner.ModelName()
}

// Available reports false without a provider round-trip while the
// circuit is open.
func (b *BreakerEmbedder) Available(ctx context.Context) bool {
	if !b.allow() {
		return false
	}
	return b.inner.Available(ctx)
}

// Close releases the wrapped provider.
func (b *BreakerEmbedder) Close() error {
	return b.inner.Close()
}
