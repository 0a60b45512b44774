package main

import (
	"fmt"
	"slices"

	"github.com/example/go-bpe/internal/config"
	"github.com/example/go-bpe/internal/render"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVisualizeCmd() *cobra.Command {
	var (
		text    string
		format  string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "visualize",
		Short: "Show how text is split into tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			format, err = config.NormalizeFormat(format, config.FormatText, config.FormatText, config.FormatHTML)
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

			tokens := slices.Collect(tok.TokensAsStrings(tokenizeDoc(tok, cfg, doc)))
			out := cmd.OutOrStdout()

			if format == config.FormatHTML {
				_, err = fmt.Fprint(out, render.HTML(tokens))
				return err
			}
			return render.Terminal(out, tokens, !noColor && !color.NoColor)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to visualize (default: read stdin)")
	cmd.Flags().StringVar(&format, "format", config.FormatText, "Output format: text|html")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Separate tokens with '|' instead of colours")

	return cmd
}
