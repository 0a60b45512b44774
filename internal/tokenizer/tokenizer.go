// Package tokenizer learns a character-pair-encoding vocabulary from a corpus
// and uses it to convert text to token ids and back.
//
// A Tokenizer is the ordered list of learned merge rules plus the bijection
// between token strings and ids. It is immutable once built by Train or Load
// and safe for concurrent use.
package tokenizer

import (
	"fmt"
	"math"
)

// TokenID identifies a token of the learned vocabulary.
type TokenID uint32

const (
	// UNK is the id reported for tokens absent from the vocabulary. It is never
	// assigned to a vocabulary entry.
	UNK TokenID = math.MaxUint32

	// UNKString is the placeholder returned when decoding an unknown id.
	UNKString = "UNK"

	// Boundary is appended to every word before merging and marks the word end.
	Boundary = " "
)

// Tokenizer holds the learned merge rules and the token/id bijection.
type Tokenizer struct {
	merges *Merges
	vocab  *Vocab
}

// New assembles a Tokenizer from merge rules and a vocabulary. Both must not be
// modified afterwards.
func New(merges *Merges, vocab *Vocab) *Tokenizer {
	if merges == nil {
		merges = NewMerges()
	}
	if vocab == nil {
		vocab = &Vocab{ids: map[string]TokenID{}}
	}
	return &Tokenizer{merges: merges, vocab: vocab}
}

// Merges returns the learned merge rules in learning order.
func (t *Tokenizer) Merges() []Merge {
	return t.merges.Rules()
}

// Vocab returns the token/id bijection.
func (t *Tokenizer) Vocab() *Vocab {
	return t.vocab
}

// VocabSize returns the number of tokens in the vocabulary.
func (t *Tokenizer) VocabSize() int {
	return t.vocab.Len()
}

// NumMerges returns the number of learned merge rules.
func (t *Tokenizer) NumMerges() int {
	return t.merges.Len()
}

func (t *Tokenizer) String() string {
	return fmt.Sprintf("Tokenizer with %d tokens and %d merges", t.vocab.Len(), t.merges.Len())
}
