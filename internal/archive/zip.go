// Package archive iterates the CSV members of a ZIP archive, applying the
// job's name filter and deriving a table name per member.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

var csvExtRx = regexp.MustCompile(`(?i)\.csv$`)

// Walker enumerates the importable members of one ZIP archive.
type Walker struct {
	path   string
	rc     *zip.ReadCloser
	filter *regexp.Regexp
}

// Open opens the archive and compiles the optional case-insensitive name
// filter. An empty filter matches every member.
func Open(archivePath, nameFilter string) (*Walker, error) {
	var filter *regexp.Regexp
	if nameFilter != "" {
		re, err := regexp.Compile("(?i)" + nameFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid name filter %q: %v: %w", nameFilter, err, csv2sql.ErrInvalidConfig)
		}
		filter = re
	}

	rc, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	return &Walker{path: archivePath, rc: rc, filter: filter}, nil
}

// Close releases the archive handle. Member sources obtained from this
// walker must not be opened afterwards.
func (w *Walker) Close() error {
	return w.rc.Close()
}

// Members returns the archive's CSV members passing the name filter, in
// archive order.
func (w *Walker) Members() []*Member {
	var members []*Member
	for _, f := range w.rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !csvExtRx.MatchString(f.Name) {
			continue
		}
		if w.filter != nil && !w.filter.MatchString(f.Name) {
			continue
		}
		members = append(members, &Member{file: f, table: TableName(f.Name)})
	}
	return members
}

// Member is one CSV entry in the archive. It implements csv2sql.ByteSource:
// every Open returns a fresh reader at offset zero, which is how the
// transfer session rewinds between attempts.
type Member struct {
	file  *zip.File
	table string
}

// Name returns the member's path inside the archive.
func (m *Member) Name() string {
	return m.file.Name
}

// TableName returns the table name derived from the member's basename.
func (m *Member) TableName() string {
	return m.table
}

// Size returns the member's uncompressed length.
func (m *Member) Size() int64 {
	return int64(m.file.UncompressedSize64)
}

// Open returns a reader over the member's full content.
func (m *Member) Open() (io.ReadCloser, error) {
	return m.file.Open()
}

// TableName derives a table name from a member path: the basename up to
// its first dot, e.g. "data/users.2024.csv" -> "users".
func TableName(memberPath string) string {
	base := path.Base(memberPath)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

var _ csv2sql.ByteSource = (*Member)(nil)
