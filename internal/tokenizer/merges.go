package tokenizer

import (
	"iter"
	"strings"
)

// Pair is an ordered pair of adjacent tokens, the unit of merging.
type Pair struct {
	Left  string
	Right string
}

// Compare orders pairs by Left, then Right, comparing bytes.
func (p Pair) Compare(o Pair) int {
	if c := strings.Compare(p.Left, o.Left); c != 0 {
		return c
	}
	return strings.Compare(p.Right, o.Right)
}

// Joined returns the token produced by merging the pair.
func (p Pair) Joined() string {
	return p.Left + p.Right
}

// Merge is one learned rule: adjacent Pair becomes Token.
type Merge struct {
	Pair  Pair
	Token string
}

// Merges is an insertion-ordered list of merge rules. The order is the order
// the rules were learned and must be replayed in that order when encoding.
type Merges struct {
	rules []Merge
	index map[Pair]int
}

// NewMerges returns an empty rule list.
func NewMerges() *Merges {
	return &Merges{index: make(map[Pair]int)}
}

// Add appends the rule pair -> token. A pair that is already recorded keeps its
// original position and Add reports false.
func (m *Merges) Add(pair Pair, token string) bool {
	if i, ok := m.index[pair]; ok {
		m.rules[i].Token = token
		return false
	}
	m.index[pair] = len(m.rules)
	m.rules = append(m.rules, Merge{Pair: pair, Token: token})
	return true
}

// Lookup returns the token the pair merges into.
func (m *Merges) Lookup(pair Pair) (string, bool) {
	i, ok := m.index[pair]
	if !ok {
		return "", false
	}
	return m.rules[i].Token, true
}

// Len returns the number of rules.
func (m *Merges) Len() int {
	return len(m.rules)
}

// All yields the rules in learning order.
func (m *Merges) All() iter.Seq2[int, Merge] {
	return func(yield func(int, Merge) bool) {
		for i, r := range m.rules {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Rules returns a copy of the rules in learning order.
func (m *Merges) Rules() []Merge {
	out := make([]Merge, len(m.rules))
	copy(out, m.rules)
	return out
}

// applyMerge returns seq with every adjacent (pair.Left, pair.Right) replaced by
// merged, scanning left to right. seq is returned unchanged when the pair does
// not occur. merged is strictly longer than pair.Left, so the token emitted for
// a match can never start another match and the scan resumes after it.
func applyMerge(seq []string, pair Pair, merged string) []string {
	found := false
	for i := 0; i+1 < len(seq); i++ {
		if seq[i] == pair.Left && seq[i+1] == pair.Right {
			found = true
			break
		}
	}
	if !found {
		return seq
	}

	out := make([]string, 0, len(seq)-1)
	for i := 0; i < len(seq); {
		if i+1 < len(seq) && seq[i] == pair.Left && seq[i+1] == pair.Right {
			out = append(out, merged)
			i += 2
			continue
		}
		out = append(out, seq[i])
		i++
	}
	return out
}

// initialSplit returns the characters of word followed by the boundary token.
func initialSplit(word string) []string {
	split := make([]string, 0, len(word)+1)
	for _, r := range word {
		split = append(split, string(r))
	}
	return append(split, Boundary)
}
