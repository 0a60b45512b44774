package doctor_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-bpe/internal/doctor"
	"github.com/example/go-bpe/internal/testutil"
)

var errCorrupt = errors.New("corrupt model")

func loaded(string) (string, error) { return "Tokenizer with 6 tokens and 1 merges", nil }

// ---------------------------------------------------------------------------
// all-pass scenario
// ---------------------------------------------------------------------------

func TestRun_AllChecksPass(t *testing.T) {
	cfg := doctor.Config{
		CacheDir:    t.TempDir(),
		ModelPath:   "tokenizer-6.tokenizer",
		LoadModel:   loaded,
		CorpusFiles: []string{testutil.WriteCorpus(t, "corpus.txt", "hello")},
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if result.Failed() {
		t.Errorf("expected all checks to pass; failures: %v", result.Failures())
	}

	for _, want := range []string{"cache dir", "6 tokens", "corpus file"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output should mention %q:\n%s", want, out.String())
		}
	}

	if strings.Contains(out.String(), doctor.FailMark) {
		t.Errorf("output should not contain FailMark:\n%s", out.String())
	}
}

// ---------------------------------------------------------------------------
// cache directory
// ---------------------------------------------------------------------------

func TestRun_MissingCacheDirFails(t *testing.T) {
	cfg := doctor.Config{CacheDir: testutil.MissingPath(t, "cache")}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if !result.Failed() {
		t.Fatal("expected failure for a missing cache dir")
	}

	if !hasFailureContaining(result.Failures(), "cache dir") {
		t.Errorf("expected failure mentioning cache dir, got: %v", result.Failures())
	}
}

func TestRun_CacheDirIsFileFails(t *testing.T) {
	cfg := doctor.Config{CacheDir: testutil.WriteCorpus(t, "file", "x")}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if !hasFailureContaining(result.Failures(), "not a directory") {
		t.Errorf("expected not-a-directory failure, got: %v", result.Failures())
	}
}

// ---------------------------------------------------------------------------
// model file
// ---------------------------------------------------------------------------

func TestRun_UntrainedModelPasses(t *testing.T) {
	cfg := doctor.Config{
		CacheDir:  t.TempDir(),
		ModelPath: "absent.tokenizer",
		LoadModel: func(string) (string, error) {
			return "", fmt.Errorf("load: %w", fs.ErrNotExist)
		},
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if result.Failed() {
		t.Errorf("a missing model should not fail; failures: %v", result.Failures())
	}

	if !strings.Contains(out.String(), "not trained yet") {
		t.Errorf("output should say the model is not trained:\n%s", out.String())
	}
}

func TestRun_CorruptModelFails(t *testing.T) {
	cfg := doctor.Config{
		CacheDir:  t.TempDir(),
		ModelPath: "bad.tokenizer",
		LoadModel: func(string) (string, error) { return "", errCorrupt },
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	if !hasFailureContaining(result.Failures(), "corrupt model") {
		t.Errorf("expected corrupt-model failure, got: %v", result.Failures())
	}
}

func TestRun_NilLoaderSkipsModelCheck(t *testing.T) {
	var out strings.Builder
	doctor.Run(doctor.Config{CacheDir: t.TempDir()}, &out)

	if !strings.Contains(out.String(), "model: skipped") {
		t.Errorf("expected skipped model check:\n%s", out.String())
	}
}

// ---------------------------------------------------------------------------
// corpus files
// ---------------------------------------------------------------------------

func TestRun_UnreadableCorpusFails(t *testing.T) {
	missing := testutil.MissingPath(t, "corpus.txt")
	cfg := doctor.Config{
		CacheDir:    t.TempDir(),
		CorpusFiles: []string{testutil.WriteCorpus(t, "ok.txt", "a"), missing},
	}

	var out strings.Builder
	result := doctor.Run(cfg, &out)

	failures := result.Failures()
	if len(failures) != 1 || !strings.Contains(failures[0], filepath.Base(missing)) {
		t.Errorf("expected one failure for %s, got: %v", missing, failures)
	}
}

func TestResult_AddFailure(t *testing.T) {
	var r doctor.Result
	if r.Failed() {
		t.Fatal("zero Result should not be failed")
	}

	r.AddFailure("external check")

	if !r.Failed() || r.Failures()[0] != "external check" {
		t.Errorf("AddFailure not recorded: %v", r.Failures())
	}
}

func TestRun_LeavesCacheDirClean(t *testing.T) {
	dir := t.TempDir()

	var out strings.Builder
	doctor.Run(doctor.Config{CacheDir: dir}, &out)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("cache dir not clean after check: %v", entries)
	}
}

func hasFailureContaining(failures []string, sub string) bool {
	for _, f := range failures {
		if strings.Contains(f, sub) {
			return true
		}
	}

	return false
}
