package main

import (
	"fmt"
	"strconv"

	"github.com/example/go-bpe/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newDecodeCmd() *cobra.Command {
	var listTokens bool

	cmd := &cobra.Command{
		Use:   "decode ID...",
		Short: "Map token ids back to tokens and text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			tok, err := loadModel(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !listTokens {
				_, err = fmt.Fprintln(out, tok.Detokenize(ids))
				return err
			}

			for s := range tok.TokensAsStrings(ids) {
				if _, err := fmt.Fprintf(out, "%q\n", s); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&listTokens, "tokens", false, "Print one quoted token per line instead of the joined text")

	return cmd
}

func parseIDs(args []string) ([]tokenizer.TokenID, error) {
	ids := make([]tokenizer.TokenID, len(args))
	for i, a := range args {
		n, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", a, err)
		}
		ids[i] = tokenizer.TokenID(n)
	}
	return ids, nil
}
