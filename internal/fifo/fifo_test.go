package fifo

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Kevin-Prichard/csv2sql/internal/logging"
	"github.com/Kevin-Prichard/csv2sql/pkg/csv2sql"
)

func TestManager_OpenCreatesNamedPipe(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	ch, err := m.Open("users")
	require.NoError(t, err)
	defer m.Close(ch)

	c := ch.(*Channel)
	info, err := os.Stat(c.Path())
	require.NoError(t, err)
	assert.True(t, info.Mode()&os.ModeNamedPipe != 0, "expected a named pipe, got %v", info.Mode())

	// The pipe lives inside its own private directory, named after the table.
	assert.Equal(t, c.Dir(), filepath.Dir(c.Path()))
	assert.True(t, strings.HasPrefix(filepath.Base(c.Path()), "users_"))
}

func TestManager_OpenUniquePathsPerCall(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	a, err := m.Open("orders")
	require.NoError(t, err)
	defer m.Close(a)

	b, err := m.Open("orders")
	require.NoError(t, err)
	defer m.Close(b)

	assert.NotEqual(t, a.Path(), b.Path())
}

func TestManager_CloseRemovesPipeAndDirectory(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	ch, err := m.Open("users")
	require.NoError(t, err)
	c := ch.(*Channel)

	require.NoError(t, m.Close(ch))

	_, err = os.Stat(c.Path())
	assert.True(t, os.IsNotExist(err), "pipe entry should be gone")
	_, err = os.Stat(c.Dir())
	assert.True(t, os.IsNotExist(err), "temp directory should be gone")
}

func TestManager_CloseSurvivesMissingPipeEntry(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	ch, err := m.Open("users")
	require.NoError(t, err)
	c := ch.(*Channel)

	// Someone removed the entry behind our back; Close still reclaims the
	// directory without reporting an error.
	require.NoError(t, os.Remove(c.Path()))
	assert.NoError(t, m.Close(ch))

	_, err = os.Stat(c.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestManager_CloseRejectsForeignChannel(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	err := m.Close(foreignChannel{})
	require.Error(t, err)
	assert.ErrorIs(t, err, csv2sql.ErrResource)
}

type foreignChannel struct{}

func (foreignChannel) Path() string { return "/nonexistent" }
func (foreignChannel) OpenWriter(context.Context) (io.WriteCloser, error) {
	return nil, nil
}

func TestChannel_OpenWriterDeliversToReader(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	ch, err := m.Open("events")
	require.NoError(t, err)
	defer m.Close(ch)

	readerDone := make(chan []byte, 1)
	go func() {
		f, err := os.Open(ch.Path())
		if err != nil {
			readerDone <- nil
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		readerDone <- data
	}()

	w, err := ch.OpenWriter(context.Background())
	require.NoError(t, err)

	payload := []byte("id,name\n1,alpha\n")
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case got := <-readerDone:
		assert.Equal(t, payload, got)
	case <-time.After(5 * time.Second):
		t.Fatal("reader never finished")
	}
}

func TestChannel_OpenWriterHonorsCancellation(t *testing.T) {
	m := NewManager(logging.NewNullLogger())

	ch, err := m.Open("events")
	require.NoError(t, err)

	// No reader exists, so the open blocks until the context expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = ch.OpenWriter(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Release the goroutine still parked in open(2) before cleanup.
	f, err := os.OpenFile(ch.Path(), os.O_RDONLY|unix.O_NONBLOCK, 0)
	if err == nil {
		f.Close()
	}
	m.Close(ch)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", "users"},
		{"Users-2024", "Users-2024"},
		{"weird table/name!", "weird_table_name_"},
		{"../../etc", "______etc"},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
