// Package fifo manages the transient named pipe connecting the importer to
// one loader process. Each import job gets a private temporary directory
// holding a single FIFO whose name combines the table name with a random
// suffix, so concurrent jobs can never collide.
package fifo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// Channel is a named pipe inside a private temporary directory.
// Exactly one writer and one reader per lifetime.
type Channel struct {
	path string
	dir  string
}

// Path returns the filesystem entry the loader opens for reading.
func (c *Channel) Path() string {
	return c.path
}

// Dir returns the private temporary directory holding the pipe.
func (c *Channel) Dir() string {
	return c.dir
}

// OpenWriter opens the write side of the pipe. The underlying open blocks
// until the reader side is open; cancelling the context abandons the wait.
func (c *Channel) OpenWriter(ctx context.Context) (io.WriteCloser, error) {
	type result struct {
		f   *os.File
		err error
	}
	done := make(chan result, 1)

	// open(2) on a FIFO write side blocks until a reader appears, so the
	// call runs in its own goroutine. On cancellation the goroutine closes
	// the file if the open eventually completes.
	go func() {
		f, err := os.OpenFile(c.path, os.O_WRONLY, 0)
		select {
		case done <- result{f, err}:
		default:
			if f != nil {
				f.Close()
			}
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("failed to open pipe for writing: %w", r.err)
		}
		return r.f, nil
	}
}

// Manager creates and destroys channels. Implements csv2sql.ChannelManager.
type Manager struct {
	logger csv2sql.Logger
}

// NewManager creates a channel manager. Panics if logger is nil.
func NewManager(logger csv2sql.Logger) *Manager {
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Manager{logger: logger}
}

// Open allocates a private temporary directory and creates the named pipe
// entry inside it. Failures wrap csv2sql.ErrResource.
func (m *Manager) Open(table string) (csv2sql.Channel, error) {
	dir, err := os.MkdirTemp("", "csv2sql-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %v: %w", err, csv2sql.ErrResource)
	}

	// uuid suffix keeps concurrent jobs for the same table apart.
	name := fmt.Sprintf("%s_%s", sanitize(table), uuid.NewString())
	path := filepath.Join(dir, name)
	if err := unix.Mkfifo(path, 0o600); err != nil {
		// Roll back the directory so a failed Open leaks nothing.
		if rmErr := os.Remove(dir); rmErr != nil {
			m.logger.Error("failed to remove temp directory %s after mkfifo failure: %v", dir, rmErr)
		}
		return nil, fmt.Errorf("mkfifo %s: %v: %w", path, err, csv2sql.ErrResource)
	}

	m.logger.Verbose("mkfifo %s", path)
	return &Channel{path: path, dir: dir}, nil
}

// Close removes the pipe entry then its directory. A missing entry is
// reported but non-fatal; the directory removal is still attempted.
// Both sides must have closed the pipe before Close is called.
func (m *Manager) Close(ch csv2sql.Channel) error {
	c, ok := ch.(*Channel)
	if !ok {
		return fmt.Errorf("channel was not created by this manager: %w", csv2sql.ErrResource)
	}

	var firstErr error
	if err := os.Remove(c.path); err != nil {
		if os.IsNotExist(err) {
			m.logger.Error("pipe %s already removed", c.path)
		} else {
			firstErr = fmt.Errorf("failed to remove pipe %s: %v: %w", c.path, err, csv2sql.ErrResource)
		}
	}

	if err := os.Remove(c.dir); err != nil && !os.IsNotExist(err) {
		if firstErr == nil {
			firstErr = fmt.Errorf("failed to remove temp directory %s: %v: %w", c.dir, err, csv2sql.ErrResource)
		} else {
			m.logger.Error("failed to remove temp directory %s: %v", c.dir, err)
		}
	}

	m.logger.Verbose("removed pipe %s", c.path)
	return firstErr
}

// sanitize keeps the pipe name safe as a single path element.
func sanitize(table string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, table)
}

var _ csv2sql.ChannelManager = (*Manager)(nil)
var _ csv2sql.Channel = (*Channel)(nil)
