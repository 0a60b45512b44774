package tokenizer

import (
	"iter"
	"strings"

	"github.com/example/go-bpe/internal/text"
	conciter "github.com/sourcegraph/conc/iter"
)

// Tokenize converts one line of text to token ids. The line is normalized and
// split into words exactly as during training, every merge rule is replayed in
// learning order, and the resulting tokens are looked up in the vocabulary.
// Tokens missing from the vocabulary map to UNK.
func (t *Tokenizer) Tokenize(line string) []TokenID {
	words := text.Words(line)
	if len(words) == 0 {
		return []TokenID{}
	}

	splits := make([][]string, len(words))
	n := 0
	for i, w := range words {
		splits[i] = initialSplit(w)
		n += len(splits[i])
	}

	for _, rule := range t.merges.rules {
		for i, split := range splits {
			splits[i] = applyMerge(split, rule.Pair, rule.Token)
		}
	}

	ids := make([]TokenID, 0, n)
	for _, split := range splits {
		for _, tok := range split {
			id, ok := t.vocab.ID(tok)
			if !ok {
				id = UNK
			}
			ids = append(ids, id)
		}
	}
	return ids
}

// TokenizeText tokenizes a multi-line document line by line and concatenates
// the results.
func (t *Tokenizer) TokenizeText(doc string) []TokenID {
	var ids []TokenID
	for _, line := range text.Lines(doc) {
		ids = append(ids, t.Tokenize(line)...)
	}
	if ids == nil {
		return []TokenID{}
	}
	return ids
}

// TokenizeTextParallel is TokenizeText with lines tokenized concurrently by at
// most workers goroutines. workers <= 0 uses GOMAXPROCS. The result is
// identical to TokenizeText.
func (t *Tokenizer) TokenizeTextParallel(doc string, workers int) []TokenID {
	if workers < 0 {
		workers = 0
	}
	lines := text.Lines(doc)
	mapper := conciter.Mapper[string, []TokenID]{MaxGoroutines: workers}
	perLine := mapper.Map(lines, func(line *string) []TokenID {
		return t.Tokenize(*line)
	})

	total := 0
	for _, ids := range perLine {
		total += len(ids)
	}
	out := make([]TokenID, 0, total)
	for _, ids := range perLine {
		out = append(out, ids...)
	}
	return out
}

// TokenString returns the token for id, or UNKString if id is not in the
// vocabulary.
func (t *Tokenizer) TokenString(id TokenID) string {
	tok, ok := t.vocab.Token(id)
	if !ok {
		return UNKString
	}
	return tok
}

// TokensAsStrings lazily maps ids to their tokens. Unknown ids, UNK included,
// yield UNKString.
func (t *Tokenizer) TokensAsStrings(ids []TokenID) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, id := range ids {
			if !yield(t.TokenString(id)) {
				return
			}
		}
	}
}

// Detokenize joins the tokens for ids into text. Boundary tokens end words, so
// the result holds the normalized words separated by single spaces.
func (t *Tokenizer) Detokenize(ids []TokenID) string {
	var sb strings.Builder
	for tok := range t.TokensAsStrings(ids) {
		sb.WriteString(tok)
	}
	return strings.TrimSuffix(sb.String(), Boundary)
}
