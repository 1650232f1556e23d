// Package train implements component C6: the EM outer loop that shrinks a
// seed vocabulary down to a target size via Bayesian-smoothed E/M steps and
// loss-based pruning (spec §4.6).
package train

import (
	"context"
	"fmt"
	"math"

	"github.com/ollama/unigram/errs"
	"github.com/ollama/unigram/logutil"
	"github.com/ollama/unigram/piece"
)

// Sentence is one weighted training example, already normalized (spec §3
// "Sentence").
type Sentence struct {
	Text   string
	Weight int64
}

// Config mirrors the subset of trainer_spec the EM loop itself consumes
// (spec §4.6 "Outer loop").
type Config struct {
	VocabSize        int
	NumSubIterations int
	ShrinkingFactor  float64
	NumThreads       int
}

// DefaultConfig mirrors upstream SentencePiece's trainer defaults.
func DefaultConfig() Config {
	return Config{
		VocabSize:        8000,
		NumSubIterations: 2,
		ShrinkingFactor:  0.75,
		NumThreads:       1,
	}
}

// Trainer runs the EM outer loop over an initial seed vocabulary.
type Trainer struct {
	cfg       Config
	sentences []Sentence
	pieces    []piece.Piece

	totalWeight float64
}

// New builds a Trainer seeded with pieces (typically seed.Build's output).
func New(sentences []Sentence, pieces []piece.Piece, cfg Config) *Trainer {
	var total float64
	for _, s := range sentences {
		total += float64(s.Weight)
	}
	return &Trainer{cfg: cfg, sentences: sentences, pieces: append([]piece.Piece(nil), pieces...), totalWeight: total}
}

// Run executes the outer loop until the model shrinks to at most
// ceil(1.1 * VocabSize), per spec §4.6:
//
//	for sub_iter in 0..num_sub_iterations:
//	    expected, objective, num_tokens = E_step(model)
//	    new_pieces = M_step(model, expected)
//	    model.set_pieces(new_pieces)
//	if |model.pieces| <= desired: break
//	model.set_pieces(prune(model))
func (t *Trainer) Run(ctx context.Context) ([]piece.Piece, error) {
	const op = "train.Trainer.Run"

	desired := int(math.Ceil(1.1 * float64(t.cfg.VocabSize)))

	for round := 0; ; round++ {
		for sub := 0; sub < t.cfg.NumSubIterations; sub++ {
			expected, objective, numTokens, err := t.eStep(ctx)
			if err != nil {
				return nil, errs.Wrap(errs.Internal, op, err)
			}
			logutil.TraceContext(ctx, "e_step", "round", round, "sub_iter", sub, "objective", objective, "num_tokens", numTokens, "vocab_size", len(t.pieces))

			t.pieces = mStep(t.pieces, expected)
			logutil.TraceContext(ctx, "m_step", "round", round, "sub_iter", sub, "vocab_size", len(t.pieces))
		}

		if len(t.pieces) <= desired {
			break
		}

		pruned, err := t.prune(ctx, desired)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, op, err)
		}
		logutil.TraceContext(ctx, "prune", "round", round, "before", len(t.pieces), "after", len(pruned))
		t.pieces = pruned
	}

	if len(t.pieces) == 0 {
		return nil, errs.New(errs.Internal, op, fmt.Errorf("training collapsed to an empty vocabulary"))
	}
	return t.pieces, nil
}
