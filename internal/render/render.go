// Package render draws a token segmentation so the boundaries between tokens
// are visible, either as coloured terminal output or as an HTML fragment.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/fatih/color"
)

// RGB is an 8-bit colour.
type RGB struct{ R, G, B uint8 }

// Pastel is the palette cycled over consecutive tokens in HTML output.
var Pastel = []RGB{
	{251, 180, 174},
	{179, 205, 227},
	{204, 235, 197},
	{222, 203, 228},
	{254, 217, 166},
	{255, 255, 204},
	{229, 216, 189},
	{253, 218, 236},
	{242, 242, 242},
}

var terminalPalette = []color.Attribute{
	color.BgRed,
	color.BgGreen,
	color.BgYellow,
	color.BgBlue,
	color.BgMagenta,
	color.BgCyan,
}

const htmlStyle = `<style>
    body { font-family: Roboto, sans-serif; }
    div.tok { padding: 2px; display: inline-block; margin-top: 5px; margin-right: 2px; white-space: pre; }
</style>
`

// HTML renders tokens as inline blocks with cycling background colours.
func HTML(tokens []string) string {
	var sb strings.Builder
	sb.WriteString(htmlStyle)
	for i, tok := range tokens {
		c := Pastel[i%len(Pastel)]
		fmt.Fprintf(&sb, "<div class=\"tok\" style=\"background-color: rgb(%d, %d, %d);\">%s</div>",
			c.R, c.G, c.B, html.EscapeString(tok))
	}
	sb.WriteString("\n")
	return sb.String()
}

// Terminal writes tokens to w with alternating background colours. When
// colour is false the tokens are separated by '|' instead.
func Terminal(w io.Writer, tokens []string, colour bool) error {
	if !colour {
		_, err := fmt.Fprintln(w, strings.Join(tokens, "|"))
		return err
	}

	for i, tok := range tokens {
		c := color.New(terminalPalette[i%len(terminalPalette)], color.FgBlack)
		c.EnableColor()
		if _, err := c.Fprint(w, tok); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
