package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/Kevin-Prichard/csv2sql/internal/checksum"
	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// Session orchestrates transfer attempts with chunk-size backoff and
// transport-failure classification.
//
// Thread Safety:
// The Session itself is safe for concurrent use when calling Run().
// WithOnRetry() and WithProgress() return a NEW instance with the callback
// configured, so each goroutine can have its own configuration without
// shared state. The original Session remains unchanged.
type Session struct {
	classifier csv2sql.TransportClassifier
	strategy   csv2sql.ChunkStrategy
	logger     csv2sql.Logger
	onRetry    func(attempt, exponent int, err error)
	progress   csv2sql.ProgressFunc
}

// NewSession creates a new transfer session with the given configuration.
// Panics if classifier, strategy or logger is nil.
func NewSession(
	classifier csv2sql.TransportClassifier,
	strategy csv2sql.ChunkStrategy,
	logger csv2sql.Logger,
) *Session {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Session{
		classifier: classifier,
		strategy:   strategy,
		logger:     logger,
	}
}

// WithOnRetry returns a new Session invoking callback after every failed
// attempt, before the next one begins. The receiver is not modified.
func (s *Session) WithOnRetry(callback func(attempt, exponent int, err error)) *Session {
	clone := *s
	clone.onRetry = callback
	return &clone
}

// WithProgress returns a new Session reporting per-chunk progress through
// fn. The receiver is not modified.
func (s *Session) WithProgress(fn csv2sql.ProgressFunc) *Session {
	clone := *s
	clone.progress = fn
	return &clone
}

// Run pushes exactly src.Size() bytes into the channel. On transport
// failure it closes the writer, halves the chunk size and restarts from
// the source's beginning. Result is all-or-nothing: either every byte was
// delivered by one attempt, or an error wrapping ErrTransferExhausted (or
// a fatal error) is returned.
func (s *Session) Run(ctx context.Context, src csv2sql.ByteSource, ch csv2sql.Channel) (csv2sql.TransferStats, error) {
	total := src.Size()

	var lastErr error
	for attempt := 0; ; attempt++ {
		chunkSize, ok := s.strategy.ChunkSize(attempt)
		if !ok {
			return csv2sql.TransferStats{Attempts: attempt}, fmt.Errorf(
				"%s: no chunk size left after %d attempts (last error: %v): %w",
				src.Name(), attempt, lastErr, csv2sql.ErrTransferExhausted)
		}

		if err := ctx.Err(); err != nil {
			return csv2sql.TransferStats{Attempts: attempt}, err
		}

		exponent := s.strategy.Exponent(attempt)
		s.logger.Verbose("transfer %s: attempt %d, chunk 2^%d (%d bytes)",
			src.Name(), attempt+1, exponent, chunkSize)

		sum, err := s.attempt(ctx, src, ch, chunkSize, total)
		if err == nil {
			s.logger.Info("transfer %s: chunk exponent that worked: %d", src.Name(), exponent)
			return csv2sql.TransferStats{
				Attempts:      attempt + 1,
				ChunkExponent: exponent,
				Bytes:         total,
				Checksum:      sum,
			}, nil
		}

		if !s.classifier.IsTransportFailure(err) {
			return csv2sql.TransferStats{Attempts: attempt + 1}, err
		}

		// The loader has consumed an unknown prefix of this attempt; the
		// retry restarts the stream from zero and treats those bytes as
		// discarded.
		s.logger.Info("transfer %s: chunk exponent %d failed (%v); backing off by 1",
			src.Name(), exponent, err)
		lastErr = err
		if s.onRetry != nil {
			s.onRetry(attempt, exponent, err)
		}
	}
}

// attempt streams the whole source once at the given chunk size. The
// returned checksum covers exactly the delivered bytes.
func (s *Session) attempt(ctx context.Context, src csv2sql.ByteSource, ch csv2sql.Channel, chunkSize, total int64) (string, error) {
	// Blocks until the loader opens the read side.
	w, err := ch.OpenWriter(ctx)
	if err != nil {
		return "", err
	}
	closed := false
	defer func() {
		if !closed {
			w.Close()
		}
	}()

	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("failed to reopen source %s: %w", src.Name(), err)
	}
	defer rc.Close()

	digest := checksum.NewWriter()
	bw := bufio.NewWriterSize(io.MultiWriter(w, digest), int(chunkSize))
	buf := make([]byte, chunkSize)

	left := total
	for left > 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n := chunkSize
		if left < n {
			n = left
		}
		if _, err := io.ReadFull(rc, buf[:n]); err != nil {
			return "", fmt.Errorf("source %s shorter than declared length (%d bytes unread): %w",
				src.Name(), left, err)
		}
		if _, err := bw.Write(buf[:n]); err != nil {
			return "", err
		}
		if err := bw.Flush(); err != nil {
			return "", err
		}
		left -= n

		if s.progress != nil {
			s.progress(total-left, total)
		}
	}

	if err := bw.Flush(); err != nil {
		return "", err
	}
	closed = true
	if err := w.Close(); err != nil {
		return "", err
	}
	return digest.Sum(), nil
}
