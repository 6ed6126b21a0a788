// Package importer composes the channel manager, loader controller and
// transfer session into one table-import operation with guaranteed
// resource release on every exit path.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// Job identifies one (source stream, target table, target database) triple.
type Job struct {
	// Source is the re-openable byte stream for the table's data.
	Source csv2sql.ByteSource

	// Schema is the scanner's result for the member, providing the table
	// name and the CREATE TABLE statement.
	Schema *csv2sql.TableSchema

	// Database is the target SQLite database file.
	Database string
}

// Service implements the import orchestration.
// Thread-Safety: NOT safe for concurrent ImportTable() calls on the same
// instance. Create separate instances for concurrent imports; every job
// owns its own channel and loader process, so instances share no state.
type Service struct {
	channels csv2sql.ChannelManager
	loader   csv2sql.LoaderController
	session  csv2sql.Transferrer
	logger   csv2sql.Logger
}

// NewService creates a new import service with all dependencies injected.
// Panics on nil dependencies: those are programmer errors that should fail
// loudly at startup, not surface as nil dereferences mid-import.
func NewService(
	channels csv2sql.ChannelManager,
	loader csv2sql.LoaderController,
	session csv2sql.Transferrer,
	logger csv2sql.Logger,
) *Service {
	if channels == nil {
		panic("channels cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if session == nil {
		panic("session cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Service{
		channels: channels,
		loader:   loader,
		session:  session,
		logger:   logger,
	}
}

// ImportTable creates the target table, streams the source through a fresh
// named channel into a loader process, and releases every resource
// regardless of outcome. Cleanup order is fixed: terminate the loader,
// remove the channel, release the source. Termination and removal failures
// are logged and never mask the transfer result.
func (s *Service) ImportTable(ctx context.Context, job Job) (csv2sql.ImportResult, error) {
	if err := validateJob(job); err != nil {
		return csv2sql.ImportResult{}, err
	}
	table := job.Schema.Table
	started := time.Now()

	// Source release happens last on every path.
	defer s.releaseSource(job.Source)

	// Table creation runs as its own short-lived loader invocation and
	// must exit successfully before the streaming loader starts.
	if err := s.loader.RunOnce(ctx, job.Database, job.Schema.CreateTableLine()); err != nil {
		return csv2sql.ImportResult{}, fmt.Errorf("create table %q: %v: %w", table, err, csv2sql.ErrSchema)
	}
	s.logger.Verbose("created table %q in %s", table, job.Database)

	ch, err := s.channels.Open(table)
	if err != nil {
		return csv2sql.ImportResult{}, err
	}
	defer func() {
		if closeErr := s.channels.Close(ch); closeErr != nil {
			s.logger.Error("channel cleanup for table %q: %v", table, closeErr)
		}
	}()

	proc, err := s.loader.Start(ctx, job.Database, ch.Path(), table)
	if err != nil {
		return csv2sql.ImportResult{}, err
	}
	// Registered after the channel-close defer so it runs first: the
	// loader must be terminated and waited on before the pipe is removed,
	// or the exiting process can race the removal while holding the pipe
	// open.
	defer func() {
		if termErr := proc.Terminate(); termErr != nil {
			s.logger.Error("loader termination for table %q: %v", table, termErr)
		}
	}()

	stats, err := s.session.Run(ctx, job.Source, ch)
	if err != nil {
		return csv2sql.ImportResult{}, fmt.Errorf("import %q: %w", table, err)
	}

	return csv2sql.ImportResult{
		Table:         table,
		Bytes:         stats.Bytes,
		Attempts:      stats.Attempts,
		ChunkExponent: stats.ChunkExponent,
		Checksum:      stats.Checksum,
		Duration:      time.Since(started),
	}, nil
}

func (s *Service) releaseSource(src csv2sql.ByteSource) {
	if closer, ok := src.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Error("source release: %v", err)
		}
	}
}

func validateJob(job Job) error {
	if job.Source == nil {
		return fmt.Errorf("job source is required: %w", csv2sql.ErrInvalidConfig)
	}
	if job.Schema == nil || job.Schema.Table == "" {
		return fmt.Errorf("job schema with table name is required: %w", csv2sql.ErrInvalidConfig)
	}
	if job.Database == "" {
		return fmt.Errorf("job database path is required: %w", csv2sql.ErrInvalidConfig)
	}
	return nil
}
