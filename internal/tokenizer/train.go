package tokenizer

import (
	"iter"
	"log/slog"
	"maps"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/example/go-bpe/internal/counter"
	"github.com/example/go-bpe/internal/text"
)

// Progress reports the state of the merge loop after each learned rule.
type Progress struct {
	Merges    int
	VocabSize int
}

type trainOptions struct {
	logger   *slog.Logger
	progress func(Progress)
}

func defaultTrainOptions() trainOptions {
	return trainOptions{
		logger:   slog.Default(),
		progress: func(Progress) {},
	}
}

// TrainOption configures Train, TrainWordFreqs and CountWords.
type TrainOption func(*trainOptions)

// WithLogger sets the logger used to report training.
func WithLogger(l *slog.Logger) TrainOption {
	return func(o *trainOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgress registers a callback invoked after every learned merge.
func WithProgress(fn func(Progress)) TrainOption {
	return func(o *trainOptions) {
		if fn != nil {
			o.progress = fn
		}
	}
}

// CountWords normalizes every line and counts word occurrences. Lines that are
// not valid UTF-8 are skipped with a warning on the configured logger.
func CountWords(lines iter.Seq[string], opts ...TrainOption) *counter.Counter[string] {
	o := defaultTrainOptions()
	for _, opt := range opts {
		opt(&o)
	}

	freqs := counter.New[string]()
	lineNo := 0
	for line := range lines {
		lineNo++
		if !utf8.ValidString(line) {
			o.logger.Warn("ignoring training line that is not valid UTF-8", slog.Int("line", lineNo))
			continue
		}
		for _, w := range text.Words(line) {
			freqs.Insert(w)
		}
	}
	return freqs
}

// Train learns a tokenizer with at most vocabSize tokens from corpus lines.
// See TrainWordFreqs.
func Train(lines iter.Seq[string], vocabSize int, opts ...TrainOption) *Tokenizer {
	return TrainWordFreqs(CountWords(lines, opts...), vocabSize, opts...)
}

// TrainWordFreqs learns merge rules from word frequencies until the vocabulary
// reaches vocabSize tokens or no word has two tokens left to merge.
//
// The vocabulary is recomputed exactly from the current word splits after every
// merge, plus the boundary token, so it grows by at most one token per merge
// and may shrink when a merge consumes the last occurrence of a token. If the
// initial character set already reaches vocabSize no merge is learned and the
// result may exceed vocabSize. Training never fails; an empty corpus yields a
// vocabulary holding only the boundary token.
//
// Among pairs of equal frequency the lexicographically smallest is merged, so
// training is reproducible.
func TrainWordFreqs(freqs *counter.Counter[string], vocabSize int, opts ...TrainOption) *Tokenizer {
	o := defaultTrainOptions()
	for _, fn := range opts {
		fn(&o)
	}

	start := time.Now()
	o.logger.Info("training tokenizer",
		slog.Int("distinct_words", freqs.Len()),
		slog.Int("target_vocab_size", vocabSize),
	)

	splits := make(map[string][]string, freqs.Len())
	for w := range freqs.Keys() {
		splits[w] = initialSplit(w)
	}

	vocab := vocabOf(splits)
	merges := NewMerges()
	performed := 0

	o.logger.Debug("initial vocabulary", slog.Int("size", len(vocab)))

	for len(vocab) < vocabSize {
		pair, ok := mostFrequentPair(splits, freqs)
		if !ok {
			break
		}
		merged := pair.Joined()
		o.logger.Debug("merging pair", slog.String("left", pair.Left), slog.String("right", pair.Right))

		for w, split := range splits {
			if len(split) < 2 {
				continue
			}
			splits[w] = applyMerge(split, pair, merged)
		}

		merges.Add(pair, merged)
		vocab = vocabOf(splits)
		performed++
		o.progress(Progress{Merges: performed, VocabSize: len(vocab)})
	}

	tokens := slices.Sorted(maps.Keys(vocab))
	t := New(merges, sortedVocab(tokens))

	o.logger.Info("done training tokenizer",
		slog.Int("iterations", performed),
		slog.Int("merges", merges.Len()),
		slog.Int("tokens", len(tokens)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return t
}

// mostFrequentPair counts adjacent token pairs across all splits, weighted by
// word frequency, and returns the most frequent one.
func mostFrequentPair(splits map[string][]string, freqs *counter.Counter[string]) (Pair, bool) {
	pairs := counter.New[Pair]()
	for w, freq := range freqs.All() {
		split := splits[w]
		if len(split) < 2 {
			continue
		}
		for i := 0; i+1 < len(split); i++ {
			pairs.Increment(Pair{Left: split[i], Right: split[i+1]}, freq)
		}
	}
	return pairs.MostCommonFunc(Pair.Compare)
}

// vocabOf returns the distinct tokens of all splits. The boundary token is
// always included: it can be merged away as the right side of a pair.
func vocabOf(splits map[string][]string) map[string]struct{} {
	vocab := map[string]struct{}{Boundary: {}}
	for _, split := range splits {
		for _, tok := range split {
			vocab[tok] = struct{}{}
		}
	}
	return vocab
}
