package tokenizer

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrInvalidVocab is returned when a vocabulary would not be a bijection over a
// dense id range.
var ErrInvalidVocab = errors.New("invalid vocabulary")

// VocabEntry is one id/token association.
type VocabEntry struct {
	ID    TokenID
	Token string
}

// Vocab is the bijection between token ids and token strings. Ids form the
// dense range [0, Len()).
type Vocab struct {
	tokens []string
	ids    map[string]TokenID
}

// BuildVocab sorts tokens lexicographically and assigns ids from 0 in that
// order. Duplicate tokens are rejected.
func BuildVocab(tokens []string) (*Vocab, error) {
	sorted := slices.Clone(tokens)
	slices.Sort(sorted)

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: duplicate token %q", ErrInvalidVocab, sorted[i])
		}
	}
	if uint64(len(sorted)) >= uint64(UNK) {
		return nil, fmt.Errorf("%w: %d tokens exceed the id space", ErrInvalidVocab, len(sorted))
	}

	return sortedVocab(sorted), nil
}

// NewVocab builds a vocabulary from explicit entries. Every id and every token
// must be unique and the ids must cover [0, len(entries)).
func NewVocab(entries []VocabEntry) (*Vocab, error) {
	v := &Vocab{
		tokens: make([]string, len(entries)),
		ids:    make(map[string]TokenID, len(entries)),
	}
	seen := make([]bool, len(entries))

	for _, e := range entries {
		if e.ID == UNK || uint64(e.ID) >= uint64(len(entries)) {
			return nil, fmt.Errorf("%w: id %d outside [0, %d)", ErrInvalidVocab, e.ID, len(entries))
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidVocab, e.ID)
		}
		if _, dup := v.ids[e.Token]; dup {
			return nil, fmt.Errorf("%w: duplicate token %q", ErrInvalidVocab, e.Token)
		}
		seen[e.ID] = true
		v.tokens[e.ID] = e.Token
		v.ids[e.Token] = e.ID
	}

	return v, nil
}

// sortedVocab enumerates already sorted, unique tokens.
func sortedVocab(sorted []string) *Vocab {
	v := &Vocab{
		tokens: sorted,
		ids:    make(map[string]TokenID, len(sorted)),
	}
	for i, tok := range sorted {
		v.ids[tok] = TokenID(i)
	}
	return v
}

// Len returns the number of tokens.
func (v *Vocab) Len() int {
	return len(v.tokens)
}

// Token returns the token for id.
func (v *Vocab) Token(id TokenID) (string, bool) {
	if uint64(id) >= uint64(len(v.tokens)) {
		return "", false
	}
	return v.tokens[id], true
}

// ID returns the id of token.
func (v *Vocab) ID(token string) (TokenID, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// All yields every entry in id order.
func (v *Vocab) All() iter.Seq2[TokenID, string] {
	return func(yield func(TokenID, string) bool) {
		for i, tok := range v.tokens {
			if !yield(TokenID(i), tok) {
				return
			}
		}
	}
}
