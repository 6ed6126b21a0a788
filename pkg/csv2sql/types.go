package csv2sql

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ImportConfig contains all parameters needed for one archive-import run.
type ImportConfig struct {
	// ArchivePath is the ZIP archive holding the CSV members
	ArchivePath string

	// DatabasePath is the target SQLite database file
	DatabasePath string

	// NameFilter is a case-insensitive regex applied to member names.
	// Empty means every .csv member is imported.
	NameFilter string

	// MaxSampleRows caps how many records the schema scanner reads per
	// member. Zero scans the whole member.
	MaxSampleRows int

	// LoaderBinary is the external bulk-load tool. Resolved on PATH when
	// not an absolute path.
	LoaderBinary string

	// ChunkExponent is the starting power-of-two transfer chunk size.
	ChunkExponent int

	// Overwrite deletes an existing database file before importing
	Overwrite bool

	// Force bypasses interactive approval when used with Overwrite
	Force bool

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the ImportConfig has all required fields and valid
// values. It returns a multi-error if multiple validation failures occur.
func (c *ImportConfig) Validate() error {
	var errs []error

	if c.ArchivePath == "" {
		errs = append(errs, fmt.Errorf("ArchivePath is required: %w", ErrInvalidConfig))
	}

	if c.DatabasePath == "" {
		errs = append(errs, fmt.Errorf("DatabasePath is required: %w", ErrInvalidConfig))
	}

	// Force requires Overwrite to be set
	if c.Force && !c.Overwrite {
		errs = append(errs, fmt.Errorf("force flag requires overwrite to be enabled: %w", ErrInvalidConfig))
	}

	if c.ChunkExponent < MinChunkExponent {
		errs = append(errs, fmt.Errorf("chunk exponent must be at least %d: %w", MinChunkExponent, ErrInvalidConfig))
	}

	if c.MaxSampleRows < 0 {
		errs = append(errs, fmt.Errorf("max sample rows cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ColumnType is the SQLite affinity assigned to a scanned CSV column.
type ColumnType int

const (
	// TypeUnknown means no non-empty value has been seen yet.
	TypeUnknown ColumnType = iota
	TypeInteger
	TypeReal
	TypeText
)

// String returns the SQLite type name used in CREATE TABLE statements.
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeText, TypeUnknown:
		// Columns with no observed values default to TEXT.
		return "TEXT"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Widen returns the narrowest type that accommodates both t and other.
// Widening is one-directional: INTEGER -> REAL -> TEXT.
func (t ColumnType) Widen(other ColumnType) ColumnType {
	if other > t {
		return other
	}
	return t
}

// Column is one scanned CSV column.
type Column struct {
	Name string
	Type ColumnType
}

// TableSchema is the scanner's result for one archive member: the derived
// table name and the classified columns, ready to render as DDL.
type TableSchema struct {
	Table   string
	Columns []Column

	// RowsScanned is how many data records informed the classification.
	RowsScanned int
}

// CreateTable renders a multi-line CREATE TABLE statement.
func (s *TableSchema) CreateTable() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %q (\n", s.Table)
	for i, col := range s.Columns {
		fmt.Fprintf(&b, "    %q %s", col.Name, col.Type)
		if i < len(s.Columns)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(");")
	return b.String()
}

// CreateTableLine renders the statement on a single line, the form the
// loader accepts as a command argument.
func (s *TableSchema) CreateTableLine() string {
	cols := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		cols = append(cols, fmt.Sprintf("%q %s", col.Name, col.Type))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s);", s.Table, strings.Join(cols, ", "))
}

// ImportResult summarizes one successfully completed table import.
type ImportResult struct {
	// Table is the target table name.
	Table string

	// Bytes is the member's total length, all of which was delivered by
	// the successful attempt.
	Bytes int64

	// Attempts is the total number of transfer attempts, including the
	// successful one.
	Attempts int

	// ChunkExponent is the power-of-two chunk size that worked.
	ChunkExponent int

	// Checksum is the hex SHA-256 of the bytes delivered by the
	// successful attempt.
	Checksum string

	// Duration covers table creation through loader termination.
	Duration time.Duration
}
