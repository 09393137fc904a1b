package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyEmbedder fails until the failure budget runs out, then succeeds.
type flakyEmbedder struct {
	*StaticEmbedder
	failuresLeft atomic.Int32
	calls        atomic.Int32
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.failuresLeft.Add(-1) >= 0 {
		return nil, ErrUnavailable
	}
	return f.StaticEmbedder.Embed(ctx, text)
}

func newFlaky(failures int32) *flakyEmbedder {
	f := &flakyEmbedder{StaticEmbedder: NewStaticEmbedder()}
	f.failuresLeft.Store(failures)
	return f
}

func TestBreakerEmbedder_PassesThroughWhileClosed(t *testing.T) {
	b := NewBreakerEmbedder(newFlaky(0))
	ctx := context.Background()

	vec, err := b.Embed(ctx, "reset password")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultDimensions)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerEmbedder_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := newFlaky(100)
	b := NewBreakerEmbedder(inner, WithBreakerFailures(3))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := b.Embed(ctx, "anything")
		require.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, "open", b.State())

	// Open circuit sheds load: the provider is not called again.
	before := inner.calls.Load()
	_, err := b.Embed(ctx, "anything")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, before, inner.calls.Load())
}

func TestBreakerEmbedder_SuccessResetsFailureCount(t *testing.T) {
	b := NewBreakerEmbedder(newFlaky(2), WithBreakerFailures(3))
	ctx := context.Background()

	_, err := b.Embed(ctx, "a")
	require.Error(t, err)
	_, err = b.Embed(ctx, "b")
	require.Error(t, err)

	// Third call succeeds and closes the window before the breaker trips.
	_, err = b.Embed(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerEmbedder_HalfOpenProbeRecovers(t *testing.T) {
	b := NewBreakerEmbedder(newFlaky(2),
		WithBreakerFailures(2), WithBreakerReset(10*time.Millisecond))
	ctx := context.Background()

	_, _ = b.Embed(ctx, "a")
	_, _ = b.Embed(ctx, "b")
	require.Equal(t, "open", b.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "half-open", b.State())

	// The probe succeeds and the circuit closes again.
	_, err := b.Embed(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerEmbedder_HalfOpenProbeFailureReopens(t *testing.T) {
	b := NewBreakerEmbedder(newFlaky(100),
		WithBreakerFailures(2), WithBreakerReset(10*time.Millisecond))
	ctx := context.Background()

	_, _ = b.Embed(ctx, "a")
	_, _ = b.Embed(ctx, "b")
	require.Equal(t, "open", b.State())

	time.Sleep(20 * time.Millisecond)

	_, err := b.Embed(ctx, "probe")
	require.Error(t, err)
	assert.Equal(t, "open", b.State())
}

func TestBreakerEmbedder_OpenCircuitErrorIsUnavailable(t *testing.T) {
	b := NewBreakerEmbedder(newFlaky(100), WithBreakerFailures(1))
	ctx := context.Background()

	_, _ = b.Embed(ctx, "a")
	_, err := b.Embed(ctx, "b")

	// Callers only ever branch on ErrUnavailable.
	require.True(t, errors.Is(err, ErrUnavailable))
}

func TestBreakerEmbedder_AvailableFalseWhileOpen(t *testing.T) {
	b := NewBreakerEmbedder(newFlaky(100), WithBreakerFailures(1))
	ctx := context.Background()

	_, _ = b.Embed(ctx, "a")
	assert.False(t, b.Available(ctx))
}

func TestBreakerEmbedder_BatchCountsAsOneOutcome(t *testing.T) {
	inner := newFlaky(0)
	b := NewBreakerEmbedder(inner, WithBreakerFailures(1))
	ctx := context.Background()

	vecs, err := b.EmbedBatch(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)
	assert.Equal(t, "closed", b.State())
}
