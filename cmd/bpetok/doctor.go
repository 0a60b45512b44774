package main

import (
	"errors"
	"fmt"

	"github.com/example/go-bpe/internal/doctor"
	"github.com/example/go-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var corpusPaths []string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the cache directory, saved model and corpus files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				CacheDir:    cfg.Model.CacheDir,
				ModelPath:   cfg.ModelPath(),
				CorpusFiles: corpusPaths,
			}
			// Without --model-path or --vocab-size there is no model to check.
			if dcfg.ModelPath != "" {
				dcfg.LoadModel = func(path string) (string, error) {
					tok, err := tokenizer.Load(path)
					if err != nil {
						return "", err
					}
					return tok.String(), nil
				}
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(dcfg, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, err = fmt.Fprintln(out, "doctor checks passed")
			return err
		},
	}

	cmd.Flags().StringSliceVar(&corpusPaths, "corpus", nil, "Corpus text file to check (repeatable)")

	return cmd
}
