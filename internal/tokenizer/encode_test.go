package tokenizer

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"testing"
)

func mustVocab(t *testing.T, tokens ...string) *Vocab {
	t.Helper()
	v, err := BuildVocab(tokens)
	if err != nil {
		t.Fatalf("BuildVocab: %v", err)
	}
	return v
}

func TestTokenize_CharactersPlusBoundaryBeforeMerges(t *testing.T) {
	tok := train(t, 1, "hello world")

	// vocab: " "=0 d=1 e=2 h=3 l=4 o=5 r=6 w=7
	got := tok.Tokenize("Hello, World!")
	want := []TokenID{3, 2, 4, 4, 5, 0, 7, 5, 6, 4, 1, 0}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestTokenize_AppliesLearnedMerges(t *testing.T) {
	tok := train(t, 6, "aaabdaaabac")

	// vocab: " "=0 a=1 aa=2 b=3 c=4 d=5
	tests := []struct {
		line string
		want []TokenID
	}{
		{"aaaa", []TokenID{2, 2, 0}},
		{"aaa", []TokenID{2, 1, 0}},
		{"abc", []TokenID{1, 3, 4, 0}},
		{"aa da", []TokenID{2, 0, 5, 1, 0}},
		{"", []TokenID{}},
		{"!!!", []TokenID{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := tok.Tokenize(tt.line)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestTokenize_UnknownTokensMapToUNK(t *testing.T) {
	tok := train(t, 100, "ab")

	// vocab: " "=0 "ab "=1
	if got := tok.Tokenize("ab ab"); !reflect.DeepEqual(got, []TokenID{1, 1}) {
		t.Errorf("Tokenize(ab ab) = %v", got)
	}

	got := tok.Tokenize("ba")
	want := []TokenID{UNK, UNK, 0}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(ba) = %v, want %v", got, want)
	}
}

func TestTokenize_ReplaysRulesInLearningOrder(t *testing.T) {
	vocab := mustVocab(t, " ", "a", "ab", "abc", "b", "c")
	abID, _ := vocab.ID("ab")
	abcID, _ := vocab.ID("abc")
	cID, _ := vocab.ID("c")
	spaceID, _ := vocab.ID(" ")

	ordered := NewMerges()
	ordered.Add(Pair{"a", "b"}, "ab")
	ordered.Add(Pair{"ab", "c"}, "abc")

	reversed := NewMerges()
	reversed.Add(Pair{"ab", "c"}, "abc")
	reversed.Add(Pair{"a", "b"}, "ab")

	got := New(ordered, vocab).Tokenize("abc")
	if want := []TokenID{abcID, spaceID}; !reflect.DeepEqual(got, want) {
		t.Errorf("ordered rules: Tokenize(abc) = %v, want %v", got, want)
	}

	got = New(reversed, vocab).Tokenize("abc")
	if want := []TokenID{abID, cID, spaceID}; !reflect.DeepEqual(got, want) {
		t.Errorf("reversed rules: Tokenize(abc) = %v, want %v", got, want)
	}
}

func TestTokenize_Pure(t *testing.T) {
	tok := train(t, 30, "the cat sat on the mat", "the hat")

	first := tok.Tokenize("The fat cat; the mat.")
	for range 20 {
		if got := tok.Tokenize("The fat cat; the mat."); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize not deterministic: %v vs %v", got, first)
		}
	}
}

func sampleDoc() string {
	var sb strings.Builder
	for i := range 200 {
		fmt.Fprintf(&sb, "Line %d: the quick brown fox, jumps over %d lazy dogs!\n", i, i*7)
		if i%17 == 0 {
			sb.WriteString("\r\n")
		}
	}
	return sb.String()
}

func TestTokenizeText_ConcatenatesLines(t *testing.T) {
	tok := train(t, 40, "the quick brown fox jumps over the lazy dog 0123456789")

	doc := "the fox\nthe dog\r\n\nlazy"
	var want []TokenID
	for _, line := range []string{"the fox", "the dog", "", "lazy"} {
		want = append(want, tok.Tokenize(line)...)
	}

	if got := tok.TokenizeText(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("TokenizeText = %v, want %v", got, want)
	}

	if got := tok.TokenizeText(""); len(got) != 0 {
		t.Errorf("TokenizeText(\"\") = %v, want empty", got)
	}
}

func TestTokenizeTextParallel_MatchesSequential(t *testing.T) {
	tok := train(t, 60, "the quick brown fox jumps over the lazy dog 0123456789", "line lines")
	doc := sampleDoc()
	want := tok.TokenizeText(doc)

	for _, workers := range []int{-1, 0, 1, 3, 16} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got := tok.TokenizeTextParallel(doc, workers)
			if !slices.Equal(got, want) {
				t.Errorf("parallel result differs: %d ids vs %d", len(got), len(want))
			}
		})
	}

	if got := tok.TokenizeTextParallel("", 4); len(got) != 0 {
		t.Errorf("TokenizeTextParallel(\"\") = %v, want empty", got)
	}
}

func TestTokensAsStrings(t *testing.T) {
	tok := train(t, 6, "aaabdaaabac")

	ids := []TokenID{2, 0, UNK, 999, 5}
	got := slices.Collect(tok.TokensAsStrings(ids))
	want := []string{"aa", " ", UNKString, UNKString, "d"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("TokensAsStrings = %q, want %q", got, want)
	}
}

func TestTokensAsStrings_StopsEarly(t *testing.T) {
	tok := train(t, 6, "aaabdaaabac")

	n := 0
	for range tok.TokensAsStrings([]TokenID{0, 1, 2, 3}) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("consumed %d tokens, want 2", n)
	}
}

func TestTokenString_UNK(t *testing.T) {
	tok := train(t, 1, "abc")

	if got := tok.TokenString(UNK); got != "UNK" {
		t.Errorf("TokenString(UNK) = %q, want %q", got, "UNK")
	}
}

func TestDetokenize(t *testing.T) {
	tok := train(t, 25, "hello world", "hello there", "world peace")

	got := tok.Detokenize(tok.Tokenize("Hello, World!"))
	if got != "hello world" {
		t.Errorf("Detokenize = %q, want %q", got, "hello world")
	}
}

func TestString(t *testing.T) {
	tok := train(t, 6, "aaabdaaabac")

	want := "Tokenizer with 6 tokens and 1 merges"
	if got := tok.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
