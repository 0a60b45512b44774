package text

import "strings"

// Lines splits a multi-line document into lines. CRLF and bare CR line endings
// are treated as LF. A trailing line terminator does not produce an empty line.
func Lines(doc string) []string {
	if doc == "" {
		return nil
	}

	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	doc = strings.ReplaceAll(doc, "\r", "\n")
	doc = strings.TrimSuffix(doc, "\n")

	return strings.Split(doc, "\n")
}
