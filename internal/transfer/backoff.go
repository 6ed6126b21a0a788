package transfer

// ChunkBackoff implements a descending power-of-two chunk-size strategy.
// Attempt 0 writes 2^startExponent bytes per chunk; each subsequent attempt
// halves the chunk, down to (and including) 2^minExponent.
type ChunkBackoff struct {
	// startExponent is the exponent for the first attempt (sender's
	// largest tried buffer).
	startExponent int

	// minExponent is the smallest exponent still attempted.
	minExponent int
}

// ChunkOption is a functional option for configuring ChunkBackoff.
type ChunkOption func(*ChunkBackoff)

// WithStartExponent sets the exponent used for the first attempt.
func WithStartExponent(p int) ChunkOption {
	return func(b *ChunkBackoff) {
		b.startExponent = p
	}
}

// WithMinExponent sets the smallest exponent still attempted.
func WithMinExponent(p int) ChunkOption {
	return func(b *ChunkBackoff) {
		b.minExponent = p
	}
}

// NewChunkBackoff creates a chunk-size strategy with sensible defaults:
// 16 MiB chunks (2^24) shrinking to 2 bytes (2^1).
//
// Example:
//
//	backoff := transfer.NewChunkBackoff(
//	    transfer.WithStartExponent(20),
//	)
func NewChunkBackoff(opts ...ChunkOption) *ChunkBackoff {
	b := &ChunkBackoff{
		startExponent: 24,
		minExponent:   1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.minExponent < 1 {
		b.minExponent = 1
	}
	if b.startExponent < b.minExponent {
		b.startExponent = b.minExponent
	}
	return b
}

// ChunkSize returns the byte count per write for the given zero-indexed
// attempt. ok is false once the exponent would drop below the minimum.
func (b *ChunkBackoff) ChunkSize(attempt int) (int64, bool) {
	p := b.startExponent - attempt
	if p < b.minExponent {
		return 0, false
	}
	return int64(1) << uint(p), true
}

// Exponent reports the power-of-two exponent for the given attempt.
func (b *ChunkBackoff) Exponent(attempt int) int {
	return b.startExponent - attempt
}

// StartExponent returns the first attempt's exponent for tests and
// debugging.
func (b *ChunkBackoff) StartExponent() int {
	return b.startExponent
}

// MinExponent returns the smallest attempted exponent for tests and
// debugging.
func (b *ChunkBackoff) MinExponent() int {
	return b.minExponent
}
