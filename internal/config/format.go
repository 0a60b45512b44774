package config

import (
	"fmt"
	"slices"
	"strings"
)

const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
	FormatHTML  = "html"
)

// NormalizeFormat lower-cases and trims raw, substitutes fallback when it is
// empty, and checks the result against allowed.
func NormalizeFormat(raw, fallback string, allowed ...string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(raw))
	if format == "" {
		format = fallback
	}
	if slices.Contains(allowed, format) {
		return format, nil
	}
	return "", fmt.Errorf("invalid format %q (expected %s)", raw, strings.Join(allowed, "|"))
}
