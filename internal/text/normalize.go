package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

var (
	// dropNonWord removes every rune that is neither alphanumeric nor whitespace.
	// Invalid UTF-8 surfaces as utf8.RuneError, which is dropped as well.
	dropNonWord = runes.Remove(runes.Predicate(func(r rune) bool {
		return !isWordRune(r)
	}))
	lower = runes.Map(unicode.ToLower)
)

// isWordRune reports whether r is alphanumeric or whitespace. Alphanumeric is
// the Unicode Alphabetic property plus numbers, so combining vowel signs
// (Other_Alphabetic) stay attached to their words.
func isWordRune(r rune) bool {
	return unicode.In(r, unicode.Letter, unicode.Number, unicode.Other_Alphabetic) || unicode.IsSpace(r)
}

// Normalize cleans one line of text for tokenization. Characters that are not
// alphanumeric or whitespace are discarded and letters are lower-cased.
// Normalize is idempotent.
func Normalize(line string) string {
	out, _, err := transform.String(transform.Chain(dropNonWord, lower), line)
	if err != nil {
		// Unreachable for the runes transformers; map rune by rune instead.
		return strings.Map(func(r rune) rune {
			if !isWordRune(r) {
				return -1
			}
			return unicode.ToLower(r)
		}, line)
	}
	return out
}

// SplitWords splits a normalized line on whitespace runs, discarding empty fragments.
func SplitWords(normalized string) []string {
	return strings.Fields(normalized)
}

// Words normalizes line and splits it into words.
func Words(line string) []string {
	return SplitWords(Normalize(line))
}
