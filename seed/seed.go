// Package seed implements component C5: bootstrapping an initial piece set
// large enough for EM pruning to discover a good final vocabulary, via
// frequent-substring enumeration over an enhanced suffix array (spec §4.5).
package seed

import (
	"fmt"
	"math"
	"sort"
	"unicode"

	"github.com/ollama/unigram/errs"
	"github.com/ollama/unigram/internal/sautil"
	"github.com/ollama/unigram/normalizer"
	"github.com/ollama/unigram/piece"
)

// sentinel separates concatenated sentences in the suffix-array working set
// (spec §4.5 step 1, §3 "Seed-stage working set": "separated by a sentinel
// 0x0000").
const sentinel = rune(0)

// Sentence is one weighted, already-normalized training example (spec §3
// "Sentence").
type Sentence struct {
	Text   string
	Weight int64
}

// Config mirrors the subset of trainer_spec that shapes seed extraction
// (spec §4.5 "Validity predicate").
type Config struct {
	SeedPieceCount       int
	MaxPieceLength       int
	EscapeWhitespaces    bool
	SplitByUnicodeScript bool
	SplitByNumber        bool
	SplitByWhitespace    bool
}

// DefaultConfig mirrors upstream SentencePiece's trainer defaults.
func DefaultConfig() Config {
	return Config{
		SeedPieceCount:       1_000_000,
		MaxPieceLength:       16,
		EscapeWhitespaces:    true,
		SplitByUnicodeScript: true,
		SplitByNumber:        true,
		SplitByWhitespace:    true,
	}
}

type candidate struct {
	surface string
	score   float64
}

// Build runs the C5 algorithm over sentences and returns seed pieces as
// NORMAL Piece values with log-probability scores, ordered per spec §4.5
// step 4 (distinct single characters first, then substrings by score).
func Build(sentences []Sentence, cfg Config) ([]piece.Piece, error) {
	const op = "seed.Build"

	runes, boundaries := concatenate(sentences)
	if len(runes) == 0 {
		return nil, errs.New(errs.InvalidArgument, op, fmt.Errorf("empty corpus"))
	}

	allChars := weightedCharFreq(sentences)

	sa := sautil.Build(runes)
	lcp := sautil.LCP(runes, sa)
	intervals := sautil.Intervals(lcp)

	substrings := make([]candidate, 0, len(intervals))
	for _, iv := range intervals {
		if iv.D < 2 {
			continue
		}
		start := int(sa[iv.L])
		end := start + int(iv.D)
		if end > len(runes) {
			continue
		}
		sub := runes[start:end]
		if containsSentinel(sub) {
			continue
		}
		if crossesSentenceBoundary(start, end, boundaries) {
			continue
		}

		surface := string(sub)
		if !isValidSentencepiece(sub, cfg) {
			continue
		}

		freq := float64(iv.R - iv.L)
		length := float64(iv.D)
		substrings = append(substrings, candidate{surface: surface, score: freq * length})
	}

	// Sorted convention: score descending, ties by surface ascending.
	sort.Slice(substrings, func(i, j int) bool {
		if substrings[i].score != substrings[j].score {
			return substrings[i].score > substrings[j].score
		}
		return substrings[i].surface < substrings[j].surface
	})

	singles := make([]candidate, 0, len(allChars))
	for r, w := range allChars {
		if r == sentinel {
			continue
		}
		singles = append(singles, candidate{surface: string(r), score: w})
	}
	sort.Slice(singles, func(i, j int) bool {
		if singles[i].score != singles[j].score {
			return singles[i].score > singles[j].score
		}
		return singles[i].surface < singles[j].surface
	})

	result := append(singles, substrings...)
	if cfg.SeedPieceCount > 0 && len(result) > cfg.SeedPieceCount {
		result = result[:cfg.SeedPieceCount]
	}

	var sum float64
	for _, c := range result {
		sum += c.score
	}
	if sum <= 0 {
		return nil, errs.New(errs.Internal, op, fmt.Errorf("seed score mass is non-positive"))
	}
	logSum := math.Log(sum)

	pieces := make([]piece.Piece, len(result))
	for i, c := range result {
		pieces[i] = piece.Piece{
			Surface: c.surface,
			Score:   float32(math.Log(c.score) - logSum),
			Kind:    piece.Normal,
		}
	}
	return pieces, nil
}

// concatenate lays out every sentence's runes back-to-back separated by
// sentinel, and returns the rune offset each sentence starts/ends at so
// substrings can be rejected if they straddle a sentence boundary.
func concatenate(sentences []Sentence) (runes []int32, boundaries []int) {
	for i, s := range sentences {
		if i > 0 {
			runes = append(runes, int32(sentinel))
		}
		boundaries = append(boundaries, len(runes))
		for _, r := range s.Text {
			runes = append(runes, r)
		}
	}
	boundaries = append(boundaries, len(runes))
	return runes, boundaries
}

func containsSentinel(sub []int32) bool {
	for _, r := range sub {
		if r == int32(sentinel) {
			return true
		}
	}
	return false
}

// crossesSentenceBoundary reports whether [start,end) spans more than one
// boundary-delimited run; containsSentinel already rejects spans that
// literally include the separator rune, so this only guards the degenerate
// case of a zero-length gap (consecutive empty sentences).
func crossesSentenceBoundary(start, end int, boundaries []int) bool {
	for _, b := range boundaries {
		if b > start && b < end {
			return true
		}
	}
	return false
}

func weightedCharFreq(sentences []Sentence) map[rune]float64 {
	freq := make(map[rune]float64)
	for _, s := range sentences {
		w := float64(s.Weight)
		for _, r := range s.Text {
			freq[r] += w
		}
	}
	return freq
}

// isValidSentencepiece implements spec §4.5's validity predicate: non-empty,
// bounded length, no embedded meta-space except optionally as a prefix, and
// (when the corresponding split_by_* policy is enabled) no mixing of
// incompatible unicode scripts, digits, or whitespace within one piece.
func isValidSentencepiece(sub []int32, cfg Config) bool {
	if len(sub) == 0 || len(sub) > cfg.MaxPieceLength {
		return false
	}

	metaSpace := []rune(normalizer.MetaSpace)[0]

	var sawNonSpaceScript rune
	haveScript := false

	for i, r := range sub {
		rr := rune(r)

		if rr == metaSpace {
			if !cfg.EscapeWhitespaces || i != 0 {
				return false
			}
			continue
		}

		if cfg.SplitByWhitespace && unicode.IsSpace(rr) {
			return false
		}

		if cfg.SplitByNumber && i > 0 && unicode.IsDigit(rr) != unicode.IsDigit(rune(sub[i-1])) {
			return false
		}

		if cfg.SplitByUnicodeScript {
			s := scriptClassOf(rr)
			if s == 0 {
				continue // unclassified (punctuation, symbols): doesn't constrain
			}
			if !haveScript {
				sawNonSpaceScript = s
				haveScript = true
			} else if s != sawNonSpaceScript {
				return false
			}
		}
	}

	return true
}

// scriptClassOf buckets r into a coarse script class, returning 0 for
// scripts that don't constrain mixing (punctuation/symbols/common).
func scriptClassOf(r rune) rune {
	switch {
	case unicode.Is(unicode.Han, r):
		return 'H'
	case unicode.Is(unicode.Hiragana, r):
		return 'J'
	case unicode.Is(unicode.Katakana, r):
		return 'K'
	case unicode.Is(unicode.Hangul, r):
		return 'G'
	case unicode.Is(unicode.Latin, r):
		return 'L'
	case unicode.Is(unicode.Cyrillic, r):
		return 'C'
	default:
		return 0
	}
}
