package transfer

import (
	"errors"
	"io"
	"io/fs"
	"strings"
	"syscall"
)

// PipeClassifier implements csv2sql.TransportClassifier for named-pipe
// transports. A transport failure is the reader closing its end while the
// writer still has unsent bytes, surfaced to the writer as EPIPE (or a
// closed-pipe error from an in-process double).
type PipeClassifier struct{}

// NewPipeClassifier creates a new pipe transport classifier.
func NewPipeClassifier() *PipeClassifier {
	return &PipeClassifier{}
}

// IsTransportFailure determines if an error means the reader closed its
// end of the channel, making a retry at a smaller chunk size worthwhile.
func (c *PipeClassifier) IsTransportFailure(err error) bool {
	if err == nil {
		return false
	}

	// Writes to a FIFO whose reader has gone surface as EPIPE, usually
	// wrapped in an *fs.PathError by the os package.
	if errors.Is(err, syscall.EPIPE) {
		return true
	}

	// In-process pipes (io.Pipe, os.Pipe doubles in tests) report their
	// own sentinel when the read side is closed.
	if errors.Is(err, io.ErrClosedPipe) {
		return true
	}

	// ECONNRESET covers socket-backed channel stand-ins.
	if errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, syscall.EPIPE) {
			return true
		}
	}

	// Fall back to message matching for wrapped errors that lost their
	// syscall identity.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"broken pipe",
		"connection reset",
		"file already closed",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}
