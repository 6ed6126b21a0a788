package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

// writeArchive builds a ZIP file from name -> content pairs, preserving the
// given order.
func writeArchive(t *testing.T, entries [][2]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestOpen_MissingArchive(t *testing.T) {
	_, err := Open("/nonexistent/archive.zip", "")
	require.Error(t, err)
}

func TestOpen_InvalidFilterWrapsConfigError(t *testing.T) {
	path := writeArchive(t, [][2]string{{"a.csv", "x\n1\n"}})

	_, err := Open(path, "([unterminated")
	require.Error(t, err)
	assert.ErrorIs(t, err, csv2sql.ErrInvalidConfig)
}

func TestMembers_SelectsCSVEntriesOnly(t *testing.T) {
	path := writeArchive(t, [][2]string{
		{"users.csv", "id\n1\n"},
		{"readme.txt", "not data"},
		{"nested/orders.CSV", "id\n2\n"},
		{"nested/", ""},
		{"image.png", "\x89PNG"},
	})

	w, err := Open(path, "")
	require.NoError(t, err)
	defer w.Close()

	members := w.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "users.csv", members[0].Name())
	assert.Equal(t, "nested/orders.CSV", members[1].Name())
}

func TestMembers_AppliesCaseInsensitiveFilter(t *testing.T) {
	path := writeArchive(t, [][2]string{
		{"users.csv", "id\n1\n"},
		{"Orders-2024.csv", "id\n2\n"},
		{"audit.csv", "id\n3\n"},
	})

	w, err := Open(path, "orders")
	require.NoError(t, err)
	defer w.Close()

	members := w.Members()
	require.Len(t, members, 1)
	assert.Equal(t, "Orders-2024.csv", members[0].Name())
	assert.Equal(t, "Orders-2024", members[0].TableName())
}

func TestMember_SizeAndReopenFromZero(t *testing.T) {
	content := "id,name\n1,alpha\n2,beta\n"
	path := writeArchive(t, [][2]string{{"users.csv", content}})

	w, err := Open(path, "")
	require.NoError(t, err)
	defer w.Close()

	members := w.Members()
	require.Len(t, members, 1)
	m := members[0]

	assert.Equal(t, int64(len(content)), m.Size())

	// Each Open starts a fresh read at offset zero, even after the previous
	// reader consumed part of the member.
	rc, err := m.Open()
	require.NoError(t, err)
	partial := make([]byte, 5)
	_, err = io.ReadFull(rc, partial)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	rc, err = m.Open()
	require.NoError(t, err)
	full, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, content, string(full))
}

func TestTableName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"users.csv", "users"},
		{"data/users.csv", "users"},
		{"deep/nested/dir/orders.csv", "orders"},
		{"users.2024.csv", "users"},
		{"Orders-Q1.CSV", "Orders-Q1"},
		{".hidden.csv", ".hidden.csv"}, // leading dot is not an extension separator
		{"noext", "noext"},
	}

	for _, tt := range tests {
		if got := TableName(tt.path); got != tt.want {
			t.Errorf("TableName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
