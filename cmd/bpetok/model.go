package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

// loadModel opens the saved tokenizer the configuration points at.
func loadModel(cfg config.Config) (*tokenizer.Tokenizer, error) {
	path := cfg.ModelPath()
	if path == "" {
		return nil, fmt.Errorf("no model selected: pass --model-path or %w", config.ErrVocabSizeRequired)
	}

	tok, err := tokenizer.Load(path)
	if errors.Is(err, tokenizer.ErrNotFound) {
		return nil, fmt.Errorf("no tokenizer at %s (run `bpetok train` first): %w", path, err)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("tokenizer loaded", slog.String("path", path), slog.String("model", tok.String()))
	return tok, nil
}

// readInput returns text when set, otherwise everything on the command's stdin.
func readInput(cmd *cobra.Command, text string) (string, error) {
	if text != "" {
		return text, nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

// tokenizeDoc applies the configured sequential or parallel document path.
func tokenizeDoc(tok *tokenizer.Tokenizer, cfg config.Config, doc string) []tokenizer.TokenID {
	if cfg.Train.Parallel {
		return tok.TokenizeTextParallel(doc, cfg.Train.Workers)
	}
	return tok.TokenizeText(doc)
}

func formatIDs(ids []tokenizer.TokenID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " ")
}
