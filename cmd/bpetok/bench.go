package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-bpe/internal/bench"
	"github.com/example/go-bpe/internal/bench/stageprof"
	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		text       string
		docPath    string
		runs       int
		format     string
		minTPS     float64
		cpuprofile string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark document tokenization latency and throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if docPath != "" {
				data, err := os.ReadFile(docPath) // #nosec G304 -- user-chosen input document
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}
				text = string(data)
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("--text or --file is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			format, err = config.NormalizeFormat(format, config.FormatTable, config.FormatTable, config.FormatJSON)
			if err != nil {
				return err
			}

			stop, err := stageprof.StartCPUProfile(cpuprofile)
			if err != nil {
				return err
			}

			timings := stageprof.New()
			results, err := runBench(cmd.Context(), timings, cfg, text, runs)

			if stopErr := stop(); stopErr != nil && err == nil {
				err = stopErr
			}
			if err != nil {
				return err
			}

			for _, s := range timings.Stages() {
				slog.Debug("bench stage",
					slog.String("stage", s.Name),
					slog.Int("runs", s.Runs),
					slog.Duration("mean", s.Mean()),
				)
			}

			stats := bench.ComputeStats(bench.Durations(results))
			out := cmd.OutOrStdout()

			switch format {
			case config.FormatJSON:
				if err := bench.FormatJSON(results, stats, out); err != nil {
					return err
				}
			default:
				bench.FormatTable(results, stats, out)
			}

			return bench.CheckThroughputThreshold(bench.MeanThroughput(results), minTPS)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to tokenize for each run")
	cmd.Flags().StringVar(&docPath, "file", "", "Read the benchmark document from a file")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of tokenization runs")
	cmd.Flags().StringVar(&format, "format", config.FormatTable, "Output format: table|json")
	cmd.Flags().Float64Var(&minTPS, "min-tokens-per-sec", 0, "Exit non-zero if mean throughput is below this value (0 = disabled)")
	cmd.Flags().StringVar(&cpuprofile, "cpuprofile", "", "Write a CPU profile labelled by stage")

	return cmd
}

func runBench(ctx context.Context, timings *stageprof.Timings, cfg config.Config, text string, runs int) ([]bench.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		tok     *tokenizer.Tokenizer
		loadErr error
	)
	timings.Do(ctx, "load", func(context.Context) {
		tok, loadErr = loadModel(cfg)
	})
	if loadErr != nil {
		return nil, loadErr
	}

	results := make([]bench.RunResult, 0, runs)
	for i := range runs {
		var ids []tokenizer.TokenID
		d := timings.Do(ctx, "tokenize", func(context.Context) {
			ids = tokenizeDoc(tok, cfg, text)
		})
		results = append(results, bench.NewRunResult(i, d, len(ids)))
	}

	return results, nil
}
