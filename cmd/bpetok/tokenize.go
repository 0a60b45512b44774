package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

type tokenizeOutput struct {
	IDs    []tokenizer.TokenID `json:"ids"`
	Tokens []string            `json:"tokens"`
}

func newTokenizeCmd() *cobra.Command {
	var (
		text   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "tokenize",
		Short: "Print token ids for --text or stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			format, err = config.NormalizeFormat(format, config.FormatText, config.FormatText, config.FormatJSON)
			if err != nil {
				return err
			}

			doc, err := readInput(cmd, text)
			if err != nil {
				return err
			}

			tok, err := loadModel(cfg)
			if err != nil {
				return err
			}

			ids := tokenizeDoc(tok, cfg, doc)
			out := cmd.OutOrStdout()

			if format == config.FormatJSON {
				enc := json.NewEncoder(out)
				return enc.Encode(tokenizeOutput{
					IDs:    ids,
					Tokens: slices.Collect(tok.TokensAsStrings(ids)),
				})
			}

			_, err = fmt.Fprintln(out, formatIDs(ids))
			return err
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to tokenize (default: read stdin)")
	cmd.Flags().StringVar(&format, "format", config.FormatText, "Output format: text|json")

	return cmd
}
