// Package finalize implements component C7: merging required characters
// and meta symbols into the exact fixed-size output vocabulary (spec §4.7).
package finalize

import (
	"fmt"
	"sort"

	"github.com/ollama/unigram/errs"
	"github.com/ollama/unigram/piece"
)

// requiredCharEpsilon is the per-injection score penalty so required
// characters absent from the trained model don't collide on score, with
// more frequent characters penalized less (spec §4.7 step 2).
const requiredCharEpsilon = 1e-4

// RequiredChar is one Unicode scalar observed in the corpus, with its
// weighted frequency (spec §3 "required_chars").
type RequiredChar struct {
	Char rune
	Freq int64
}

// Config carries the pieces the finalizer must always keep a slot for
// (spec §4.7 step 1: "Reserve |meta_pieces| slots").
type Config struct {
	VocabSize     int
	MetaPieces    []piece.Piece
	RequiredChars []RequiredChar
}

// Build produces the exact VocabSize-length final vocabulary from trained
// (surface, score) pairs, per spec §4.7:
//  1. reserve meta piece slots;
//  2. inject every required character, scored from the model if present,
//     else min_score - k*epsilon for the k-th injected character (k from 1);
//  3. fill remaining slots with the highest-scoring non-required pieces;
//  4. sort the result: meta pieces first, in their Config order, then the
//     rest by score descending (ties by surface).
func Build(trained []piece.Piece, cfg Config) ([]piece.Piece, error) {
	const op = "finalize.Build"

	budget := cfg.VocabSize - len(cfg.MetaPieces)
	if budget <= 0 {
		return nil, errs.New(errs.InvalidArgument, op, fmt.Errorf("vocab_size %d too small for %d meta pieces", cfg.VocabSize, len(cfg.MetaPieces)))
	}

	byLine := make(map[string]piece.Piece, len(trained))
	for _, p := range trained {
		byLine[p.Surface] = p
	}

	minScore, _ := minMaxScore(trained)

	final := make(map[string]piece.Piece)

	sortedChars := append([]RequiredChar(nil), cfg.RequiredChars...)
	sort.Slice(sortedChars, func(i, j int) bool {
		if sortedChars[i].Freq != sortedChars[j].Freq {
			return sortedChars[i].Freq > sortedChars[j].Freq
		}
		return sortedChars[i].Char < sortedChars[j].Char
	})

	var penalty float32
	for _, rc := range sortedChars {
		s := string(rc.Char)
		if p, ok := byLine[s]; ok {
			final[s] = p
			continue
		}
		penalty += requiredCharEpsilon
		final[s] = piece.Piece{Surface: s, Score: minScore - penalty, Kind: piece.Normal}
	}

	sortedTrained := append([]piece.Piece(nil), trained...)
	sort.Slice(sortedTrained, func(i, j int) bool {
		if sortedTrained[i].Score != sortedTrained[j].Score {
			return sortedTrained[i].Score > sortedTrained[j].Score
		}
		return sortedTrained[i].Surface < sortedTrained[j].Surface
	})

	for _, p := range sortedTrained {
		if len(final) >= budget {
			break
		}
		if _, ok := final[p.Surface]; ok {
			continue
		}
		final[p.Surface] = p
	}

	out := make([]piece.Piece, 0, len(cfg.MetaPieces)+len(final))
	out = append(out, cfg.MetaPieces...)
	for _, p := range final {
		out = append(out, p)
	}

	isMeta := func(p piece.Piece) bool { return p.Kind == piece.Control || p.Kind == piece.Unknown }
	sort.SliceStable(out, func(i, j int) bool {
		if mi, mj := isMeta(out[i]), isMeta(out[j]); mi || mj {
			// Meta pieces (CONTROL/UNKNOWN) keep their reserved slots ahead
			// of NORMAL pieces regardless of score, matching an unambiguous
			// ids-by-position contract for readers of the serialized model.
			return mi && !mj
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Surface < out[j].Surface
	})

	return out, nil
}

func minMaxScore(pieces []piece.Piece) (min, max float32) {
	first := true
	for _, p := range pieces {
		if first {
			min, max = p.Score, p.Score
			first = false
			continue
		}
		if p.Score < min {
			min = p.Score
		}
		if p.Score > max {
			max = p.Score
		}
	}
	return min, max
}
