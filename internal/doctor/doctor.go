// Package doctor provides environment preflight checks for bpetok.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ModelFunc loads the model at path and returns a one-line summary of it.
type ModelFunc func(path string) (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// CacheDir must exist and be writable for train to cache models.
	CacheDir string
	// ModelPath is the model file the other commands will open.
	ModelPath string
	// LoadModel decodes ModelPath. A missing file is reported but not a failure.
	LoadModel ModelFunc
	// CorpusFiles are checked for readability.
	CorpusFiles []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- cache directory --------------------------------------------------
	if err := checkWritableDir(cfg.CacheDir); err != nil {
		res.fail(fmt.Sprintf("cache dir %q: %v", cfg.CacheDir, err))
		fmt.Fprintf(w, "%s cache dir %s: %v\n", FailMark, cfg.CacheDir, err)
	} else {
		fmt.Fprintf(w, "%s cache dir: %s\n", PassMark, cfg.CacheDir)
	}

	// ---- model file -------------------------------------------------------
	switch {
	case cfg.LoadModel == nil:
		fmt.Fprintf(w, "%s model: skipped\n", PassMark)
	default:
		summary, err := cfg.LoadModel(cfg.ModelPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(w, "%s model %s: not trained yet\n", PassMark, cfg.ModelPath)
		case err != nil:
			res.fail(fmt.Sprintf("model %q: %v", cfg.ModelPath, err))
			fmt.Fprintf(w, "%s model %s: %v\n", FailMark, cfg.ModelPath, err)
		default:
			fmt.Fprintf(w, "%s model %s: %s\n", PassMark, cfg.ModelPath, summary)
		}
	}

	// ---- corpus files -----------------------------------------------------
	for _, path := range cfg.CorpusFiles {
		if err := checkReadable(path); err != nil {
			res.fail(fmt.Sprintf("corpus file %q: %v", path, err))
			fmt.Fprintf(w, "%s corpus file %s: not readable\n", FailMark, path)
		} else {
			fmt.Fprintf(w, "%s corpus file: %s\n", PassMark, path)
		}
	}

	return res
}

// checkWritableDir returns an error unless dir is a directory a file can be
// created in.
func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}

	f, err := os.CreateTemp(dir, ".bpetok-doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func checkReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- user-listed corpus file
	if err != nil {
		return err
	}
	return f.Close()
}
