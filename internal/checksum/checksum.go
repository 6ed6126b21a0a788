// Package checksum computes delivery checksums for streamed table data.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Writer is an io.Writer that accumulates a SHA-256 digest and a byte
// count of everything written through it. The transfer session tees each
// chunk into one Writer per attempt, so the digest reported for a
// successful attempt covers exactly the bytes the loader received.
//
// Not safe for concurrent use; each transfer attempt owns its own Writer.
type Writer struct {
	h hash.Hash
	n int64
}

// NewWriter creates a new SHA-256 checksum writer.
func NewWriter() *Writer {
	return &Writer{h: sha256.New()}
}

// Write adds p to the digest. It never fails.
func (w *Writer) Write(p []byte) (int, error) {
	w.h.Write(p)
	w.n += int64(len(p))
	return len(p), nil
}

// Sum returns the hex-encoded SHA-256 of all bytes written so far.
func (w *Writer) Sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

// Bytes returns how many bytes have been written through w.
func (w *Writer) Bytes() int64 {
	return w.n
}

// Sum256Hex computes the hex SHA-256 of a complete buffer.
func Sum256Hex(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
