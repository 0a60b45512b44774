package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/example/go-bpe/internal/bench"
	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/corpus"
	"github.com/example/go-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

// progressEvery is how many merges pass between progress log lines.
const progressEvery = 100

func newTrainCmd() *cobra.Command {
	var (
		corpusPaths []string
		docPath     string
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a tokenizer on corpus files, or load it from the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			tok, err := loadOrTrain(cmd.Context(), cfg, corpusPaths)
			if err != nil {
				return err
			}

			slog.Info(tok.String(),
				slog.Int("vocab_size", tok.VocabSize()),
				slog.Int("merges", tok.NumMerges()),
			)

			if docPath == "" {
				return nil
			}
			return reportThroughput(tok, cfg, docPath)
		},
	}

	cmd.Flags().StringSliceVar(&corpusPaths, "corpus", nil, "Corpus text file (repeatable)")
	cmd.Flags().StringVar(&docPath, "tokenize-doc", "", "Tokenize this document after training and report throughput")

	return cmd
}

// loadOrTrain returns the cached model for the configured vocabulary size, or
// trains and caches a new one. An unreadable cache file is retrained.
func loadOrTrain(ctx context.Context, cfg config.Config, corpusPaths []string) (*tokenizer.Tokenizer, error) {
	if err := cfg.RequireVocabSize(); err != nil {
		return nil, err
	}
	path := cfg.ModelPath()

	if !cfg.Train.NoCache {
		tok, err := tokenizer.Load(path)
		switch {
		case err == nil:
			slog.Info("loaded cached tokenizer", slog.String("path", path))
			return tok, nil
		case errors.Is(err, tokenizer.ErrSerialization):
			slog.Warn("cached tokenizer unreadable, retraining",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		case !errors.Is(err, tokenizer.ErrNotFound):
			return nil, err
		}
	}

	if len(corpusPaths) == 0 {
		return nil, fmt.Errorf("--corpus is required when no cached tokenizer exists at %s", path)
	}

	tok, err := trainFromCorpus(ctx, cfg, corpusPaths)
	if err != nil {
		return nil, err
	}

	if err := tok.Save(path); err != nil {
		return nil, err
	}
	slog.Info("saved tokenizer", slog.String("path", path))

	return tok, nil
}

func trainFromCorpus(ctx context.Context, cfg config.Config, corpusPaths []string) (*tokenizer.Tokenizer, error) {
	logger := slog.Default()
	src := corpus.New(corpusPaths, logger)

	opts := []tokenizer.TrainOption{
		tokenizer.WithLogger(logger),
		tokenizer.WithProgress(func(p tokenizer.Progress) {
			if p.Merges%progressEvery == 0 {
				logger.Info("training progress",
					slog.Int("merges", p.Merges),
					slog.Int("vocab_size", p.VocabSize),
					slog.Int("target", cfg.Train.VocabSize),
				)
			}
		}),
	}

	if !cfg.Train.Parallel {
		return tokenizer.Train(src.Lines(), cfg.Train.VocabSize, opts...), nil
	}

	freqs, err := src.CountWords(ctx, cfg.Train.Workers)
	if err != nil {
		return nil, err
	}
	return tokenizer.TrainWordFreqs(freqs, cfg.Train.VocabSize, opts...), nil
}

func reportThroughput(tok *tokenizer.Tokenizer, cfg config.Config, docPath string) error {
	data, err := os.ReadFile(docPath) // #nosec G304 -- user-chosen input document
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	start := time.Now()
	ids := tokenizeDoc(tok, cfg, string(data))
	elapsed := time.Since(start)

	slog.Info("document tokenized",
		slog.String("path", docPath),
		slog.Bool("parallel", cfg.Train.Parallel),
		slog.Int("tokens", len(ids)),
		slog.Duration("elapsed", elapsed),
		slog.Float64("tokens_per_sec", bench.CalcThroughput(len(ids), elapsed)),
	)
	return nil
}
