// Package schema samples CSV members and infers a SQLite table schema.
//
// Classification widens one-directionally per column as records are read:
// INTEGER -> REAL -> TEXT. Empty values carry no type information; a column
// with no non-empty value defaults to TEXT. Header names are normalized to
// safe identifiers, with duplicates disambiguated positionally.
package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// Scanner samples a byte source's CSV content and produces a TableSchema.
type Scanner struct {
	maxRows        int
	reportFraction float64
	progress       csv2sql.ProgressFunc
	logger         csv2sql.Logger
}

// Option is a functional option for configuring a Scanner.
type Option func(*Scanner)

// WithMaxRows caps how many data records are sampled. Zero samples the
// whole member.
func WithMaxRows(n int) Option {
	return func(s *Scanner) {
		s.maxRows = n
	}
}

// WithProgress sets a callback receiving (bytes consumed, total bytes).
func WithProgress(fn csv2sql.ProgressFunc) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

// WithReportFraction sets how often the progress callback fires, as a
// fraction of the member's total size.
func WithReportFraction(f float64) Option {
	return func(s *Scanner) {
		s.reportFraction = f
	}
}

// NewScanner creates a scanner. Panics if logger is nil.
func NewScanner(logger csv2sql.Logger, opts ...Option) *Scanner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	s := &Scanner{
		maxRows:        csv2sql.DefaultMaxSampleRows,
		reportFraction: csv2sql.DefaultReportFraction,
		logger:         logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reads the member once and classifies its columns. The source is
// reopened from offset zero, so a later transfer session sees the full
// stream regardless of how much the scan consumed.
func (s *Scanner) Scan(src csv2sql.ByteSource, table string) (*csv2sql.TableSchema, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for scanning: %w", src.Name(), err)
	}
	defer rc.Close()

	counter := &countingReader{r: rc}
	r := csv.NewReader(counter)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("member %s has no header row: %v: %w", src.Name(), err, csv2sql.ErrSchema)
	}

	columns := make([]csv2sql.Column, len(header))
	for i, name := range header {
		columns[i] = csv2sql.Column{Name: name, Type: csv2sql.TypeUnknown}
	}
	normalizeNames(columns)

	total := src.Size()
	reportEvery := int64(float64(total) * s.reportFraction)

	rows := 0
	var lastReport int64
	for {
		if s.maxRows > 0 && rows >= s.maxRows {
			break
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("member %s: bad CSV record after %d rows: %v: %w",
				src.Name(), rows, err, csv2sql.ErrSchema)
		}

		n := len(record)
		if n > len(columns) {
			n = len(columns)
		}
		for i := 0; i < n; i++ {
			columns[i].Type = columns[i].Type.Widen(classify(record[i]))
		}
		rows++

		if s.progress != nil && reportEvery > 0 && counter.n-lastReport >= reportEvery {
			lastReport = counter.n
			s.progress(counter.n, total)
		}
	}

	if s.progress != nil {
		s.progress(counter.n, total)
	}
	s.logger.Verbose("scanned %s: %d rows, %d columns", src.Name(), rows, len(columns))

	return &csv2sql.TableSchema{
		Table:       table,
		Columns:     columns,
		RowsScanned: rows,
	}, nil
}

// classify returns the narrowest SQLite affinity for one CSV value.
func classify(value string) csv2sql.ColumnType {
	v := strings.TrimSpace(value)
	if v == "" {
		return csv2sql.TypeUnknown
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return csv2sql.TypeInteger
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return csv2sql.TypeReal
	}
	return csv2sql.TypeText
}

// normalizeNames rewrites header cells into safe identifiers: lower-cased,
// non-alphanumerics collapsed to underscores, digit-leading names prefixed,
// blank or duplicate names disambiguated by position.
func normalizeNames(columns []csv2sql.Column) {
	seen := make(map[string]int, len(columns))
	for i := range columns {
		name := normalizeFieldName(columns[i].Name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		if _, dup := seen[name]; !dup {
			seen[name] = 1
		}
		columns[i].Name = name
	}
}

func normalizeFieldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	s := strings.TrimRight(b.String(), "_")
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "c_" + s
	}
	return s
}

// countingReader tracks bytes consumed for progress reporting.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
