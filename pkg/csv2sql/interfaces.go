package csv2sql

import (
	"context"
	"io"
)

// ByteSource is a re-openable byte stream of known length. Every Open call
// returns a fresh reader positioned at offset zero; this is the rewind
// primitive the transfer session relies on between attempts.
type ByteSource interface {
	// Open returns a reader over the full stream, starting at offset zero.
	Open() (io.ReadCloser, error)

	// Size returns the stream's total length in bytes.
	Size() int64

	// Name identifies the stream for logging (e.g. the archive member name).
	Name() string
}

// Channel is a named, single-use byte conduit two processes open by path.
type Channel interface {
	// Path is the filesystem-visible entry the loader opens for reading.
	Path() string

	// OpenWriter opens the write side. The call blocks until the reader
	// side is open, or the context is cancelled.
	OpenWriter(ctx context.Context) (io.WriteCloser, error)
}

// ChannelManager creates and destroys transient named channels, each inside
// an isolated temporary directory scoped to one import job.
type ChannelManager interface {
	// Open creates the channel entry for the named table. Fails with an
	// error wrapping ErrResource when the directory or entry cannot be
	// created.
	Open(table string) (Channel, error)

	// Close removes the channel entry and its directory. A missing entry
	// is reported but non-fatal; directory removal is still attempted.
	Close(ch Channel) error
}

// LoaderProcess is a handle to a started loader subprocess.
type LoaderProcess interface {
	// Terminate writes the quit command to the control connection, closes
	// it, and waits for process exit. Must be called before the channel is
	// removed: the loader does not reliably exit on channel EOF alone.
	Terminate() error
}

// LoaderController spawns and drives the external bulk-load subprocess.
type LoaderController interface {
	// RunOnce runs the loader synchronously with a single control command
	// (e.g. a CREATE TABLE statement) and waits for exit. A non-zero exit
	// is returned as an error wrapping ErrLoader carrying captured
	// diagnostics.
	RunOnce(ctx context.Context, database, command string) error

	// Start spawns the loader bound to the channel as its data source,
	// importing into the named table. The process blocks reading the
	// channel until a writer opens it.
	Start(ctx context.Context, database, channelPath, table string) (LoaderProcess, error)
}

// TransportClassifier decides whether a write failure is a transport
// failure (the reader closed its end) and therefore retryable at a smaller
// chunk size.
type TransportClassifier interface {
	IsTransportFailure(err error) bool
}

// ChunkStrategy yields the chunk size for each transfer attempt.
type ChunkStrategy interface {
	// ChunkSize returns the byte count per write for the given attempt.
	// attempt is zero-indexed. ok is false once the strategy is exhausted.
	ChunkSize(attempt int) (size int64, ok bool)

	// Exponent reports the power-of-two exponent for the given attempt,
	// for logging and results.
	Exponent(attempt int) int
}

// Transferrer pushes a full byte source into a channel, retrying per its
// chunk strategy. Exactly one successful attempt transfers live data.
type Transferrer interface {
	Run(ctx context.Context, src ByteSource, ch Channel) (TransferStats, error)
}

// TransferStats describes the outcome of a successful transfer session.
type TransferStats struct {
	Attempts      int
	ChunkExponent int
	Bytes         int64
	Checksum      string
}

// Approver handles user interaction for approval workflows, particularly
// overwriting an existing database file.
type Approver interface {
	// RequestApproval prompts for confirmation before deleting and
	// recreating the database file.
	//
	// Returns:
	//   - bool: true if approved, false if denied
	//   - error: Any error that occurred during the approval process
	RequestApproval(ctx context.Context, databasePath string) (bool, error)
}

// ProgressFunc receives scan/transfer progress: bytes consumed so far out
// of total. Implementations must tolerate being called frequently.
type ProgressFunc func(done, total int64)
