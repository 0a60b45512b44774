// Package corpus reads training text from files.
//
// Files that cannot be opened are skipped with a warning and lines that are
// not valid UTF-8 are dropped individually, so a partially unreadable corpus
// still trains on whatever text is available.
package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/example/go-bpe/internal/counter"
	"github.com/example/go-bpe/internal/text"
	"golang.org/x/sync/errgroup"
)

// maxLineBytes bounds a single corpus line.
const maxLineBytes = 16 << 20

// Source is an ordered list of corpus files.
type Source struct {
	paths  []string
	logger *slog.Logger
}

// New returns a Source over paths. A nil logger uses slog.Default().
func New(paths []string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{paths: paths, logger: logger}
}

// Lines yields every valid line of every readable file, in path order.
func (s *Source) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, path := range s.paths {
			if !s.readFile(path, yield) {
				return
			}
		}
	}
}

// CountWords counts normalized words across all files, reading up to workers
// files concurrently. workers <= 0 reads every file at once. The only error
// returned is the context's.
func (s *Source) CountWords(ctx context.Context, workers int) (*counter.Counter[string], error) {
	perFile := make([]*counter.Counter[string], len(s.paths))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, path := range s.paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			freqs := counter.New[string]()
			s.readFile(path, func(line string) bool {
				for _, w := range text.Words(line) {
					freqs.Insert(w)
				}
				return ctx.Err() == nil
			})
			perFile[i] = freqs
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count corpus words: %w", err)
	}

	total := counter.New[string]()
	for _, freqs := range perFile {
		total.Merge(freqs)
	}
	return total, nil
}

// readFile feeds the lines of path to yield and reports whether yield asked to
// continue. Read failures are logged and end the file early.
func (s *Source) readFile(path string, yield func(string) bool) bool {
	// #nosec G304 -- corpus paths are supplied by the operator.
	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("skipping unreadable corpus file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return true
	}
	defer func() { _ = f.Close() }()

	return s.scan(path, f, yield)
}

func (s *Source) scan(path string, r io.Reader, yield func(string) bool) bool {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if !utf8.ValidString(line) {
			s.logger.Warn("ignoring corpus line that is not valid UTF-8",
				slog.String("path", path),
				slog.Int("line", lineNo),
			)
			continue
		}
		if !yield(line) {
			return false
		}
	}

	if err := sc.Err(); err != nil {
		s.logger.Warn("stopped reading corpus file",
			slog.String("path", path),
			slog.Int("line", lineNo),
			slog.String("error", err.Error()),
		)
	}
	return true
}
