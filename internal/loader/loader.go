// Package loader spawns and drives the external bulk-load tool (sqlite3)
// as a subprocess, owning its control input and diagnostic streams.
//
// The tool is driven through a line-oriented command protocol: dot-commands
// select the import format and source, and an explicit quit command ends a
// long-lived invocation. The quit is mandatory: sqlite3 does not reliably
// exit on pipe EOF alone, and a lingering instance holds the database lock
// and interferes with the next import against the same file.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// Controller creates loader invocations. Implements csv2sql.LoaderController.
type Controller struct {
	binary  string
	timeout time.Duration
	logger  csv2sql.Logger
}

// NewController resolves the loader binary and creates a controller.
// binary may be a bare name (resolved on PATH) or an absolute path.
// Panics if logger is nil.
func NewController(binary string, logger csv2sql.Logger) (*Controller, error) {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if binary == "" {
		binary = csv2sql.DefaultLoaderBinary
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("loader binary %q not found: %v: %w", binary, err, csv2sql.ErrLoader)
	}
	return &Controller{
		binary:  resolved,
		timeout: csv2sql.DefaultTerminateTimeout,
		logger:  logger,
	}, nil
}

// Binary returns the resolved loader path for logging and tests.
func (c *Controller) Binary() string {
	return c.binary
}

// RunOnce runs the loader synchronously with a single control command and
// waits for exit. A non-zero exit wraps csv2sql.ErrLoader with captured
// diagnostic output.
func (c *Controller) RunOnce(ctx context.Context, database, command string) error {
	cmd := exec.CommandContext(ctx, c.binary, "-cmd", command, database)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// No control input beyond the -cmd argument.
	cmd.Stdin = strings.NewReader("")

	c.logger.Verbose("loader run-once: %s -cmd %q %s", c.binary, command, database)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("loader exited with error: %v: %s: %w",
			err, diagnosticPreview(&stderr), csv2sql.ErrLoader)
	}
	return nil
}

// Start spawns the loader bound to the channel as its data source,
// importing CSV rows into the named table. The spawned process blocks
// opening the channel for read until a writer appears; that block is the
// synchronization point with the transfer session.
func (c *Controller) Start(ctx context.Context, database, channelPath, table string) (csv2sql.LoaderProcess, error) {
	cmd := exec.CommandContext(ctx, c.binary,
		"-cmd", ".mode csv",
		"-cmd", fmt.Sprintf(".import %q %s", channelPath, table),
		database,
	)

	proc := &Process{
		cmd:     cmd,
		timeout: c.timeout,
		logger:  c.logger,
		state:   StateNotStarted,
	}
	cmd.Stdout = &proc.stdout
	cmd.Stderr = &proc.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open loader control input: %v: %w", err, csv2sql.ErrLoader)
	}
	proc.stdin = stdin

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to start loader: %v: %w", err, csv2sql.ErrLoader)
	}
	proc.state = StateRunning

	c.logger.Verbose("loader started: pid %d, import %s -> table %s", cmd.Process.Pid, channelPath, table)
	return proc, nil
}

// Process is a handle to a started loader subprocess.
// Implements csv2sql.LoaderProcess.
type Process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	timeout time.Duration
	logger  csv2sql.Logger

	mu    sync.Mutex
	state State
}

// State returns the process's current lifecycle state.
func (p *Process) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Terminate writes the quit command to the control connection, closes it,
// and waits for the process to exit. Safe to call more than once; repeat
// calls after exit are no-ops. Failures wrap csv2sql.ErrLoaderTermination,
// but the process is always waited on (killed after a timeout) so the
// caller may release the channel afterwards either way.
func (p *Process) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateExited:
		return nil
	case StateNotStarted:
		return fmt.Errorf("terminate called before start: %w", csv2sql.ErrLoaderTermination)
	}
	p.state = StateTerminating

	var quitErr error
	if _, err := io.WriteString(p.stdin, ".quit\n"); err != nil {
		quitErr = fmt.Errorf("failed to write quit command: %v: %w", err, csv2sql.ErrLoaderTermination)
	}
	if err := p.stdin.Close(); err != nil && quitErr == nil {
		quitErr = fmt.Errorf("failed to close control input: %v: %w", err, csv2sql.ErrLoaderTermination)
	}

	waitErr := p.waitWithTimeout()
	p.state = StateExited

	if quitErr != nil {
		return quitErr
	}
	return waitErr
}

// waitWithTimeout waits for process exit, killing it if the quit command
// did not take effect within the timeout.
func (p *Process) waitWithTimeout() error {
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			p.logger.Verbose("loader exit: %v: %s", err, diagnosticPreview(&p.stderr))
			return fmt.Errorf("loader exit: %v: %w", err, csv2sql.ErrLoaderTermination)
		}
		return nil
	case <-time.After(p.timeout):
		p.logger.Error("loader did not exit within %s after quit; killing pid %d", p.timeout, p.cmd.Process.Pid)
		if err := p.cmd.Process.Kill(); err != nil {
			p.logger.Error("failed to kill loader: %v", err)
		}
		err := <-done
		return fmt.Errorf("loader killed after quit timeout (wait: %v): %w", err, csv2sql.ErrLoaderTermination)
	}
}

// Diagnostics returns the captured stderr output, for logging after an
// import completes or fails.
func (p *Process) Diagnostics() string {
	return p.stderr.String()
}

func diagnosticPreview(buf *bytes.Buffer) string {
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return "(no diagnostic output)"
	}
	if len(s) > csv2sql.MaxDiagnosticPreviewLength {
		s = s[:csv2sql.MaxDiagnosticPreviewLength] + "..."
	}
	return s
}

var _ csv2sql.LoaderController = (*Controller)(nil)
var _ csv2sql.LoaderProcess = (*Process)(nil)
