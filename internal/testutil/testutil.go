// Package testutil provides shared fixtures for tokenizer tests.
//
// Typical usage:
//
//	func TestTrainFromFiles(t *testing.T) {
//	    path := testutil.WriteCorpus(t, "corpus.txt", "first line", "second line")
//	    ...
//	}
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteCorpus writes lines, newline-terminated, to name inside a fresh
// temporary directory and returns the file path.
func WriteCorpus(tb testing.TB, name string, lines ...string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	// #nosec G306 -- test fixtures are not secret.
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write corpus %q: %v", path, err)
	}

	return path
}

// MissingPath returns a path inside a temporary directory that does not exist.
func MissingPath(tb testing.TB, name string) string {
	tb.Helper()

	return filepath.Join(tb.TempDir(), "missing", name)
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
