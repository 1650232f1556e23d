package train

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ollama/unigram/piece"
	"github.com/ollama/unigram/unigram"
)

// errNaNLogZ is fatal per spec §4.6 "E-step": "Any NaN log Z is fatal."
var errNaNLogZ = fmt.Errorf("train: NaN log Z encountered during E-step")

// workingVocabulary wraps pieces with a synthetic UNKNOWN piece so the
// lattice populator always has a fallback id, mirroring upstream's
// train-time model which carries no meta pieces yet (those are injected at
// C7) but still needs UNK to guarantee lattice coverage (spec §4.4
// "Populate nodes").
func workingVocabulary(pieces []piece.Piece) (*piece.Vocabulary, error) {
	withUnk := make([]piece.Piece, len(pieces)+1)
	copy(withUnk, pieces)
	withUnk[len(pieces)] = piece.Piece{Surface: "<unk>", Kind: piece.Unknown}
	return piece.NewVocabulary(withUnk)
}

// eStepResult is one worker's private accumulator, reduced by summation in
// thread-id order once every worker completes (spec §5 "Ordering
// guarantees").
type eStepResult struct {
	expected  []float64
	objective float64
	numTokens int64
}

// eStep runs the E-step: build a lattice per sentence, populate it with the
// current model, accumulate expected counts via forward-backward marginals,
// and track the Viterbi token count and the corpus objective (spec §4.6
// "E-step").
func (t *Trainer) eStep(ctx context.Context) (expected []float64, objective float64, numTokens int64, err error) {
	vocab, err := workingVocabulary(t.pieces)
	if err != nil {
		return nil, 0, 0, err
	}
	idx, err := piece.NewIndex(vocab)
	if err != nil {
		return nil, 0, 0, err
	}

	numWorkers := t.cfg.NumThreads
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(t.sentences) && len(t.sentences) > 0 {
		numWorkers = len(t.sentences)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	results := make([]eStepResult, numWorkers)

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			m := unigram.New(idx)
			local := eStepResult{expected: make([]float64, len(t.pieces)+1)}

			for i := w; i < len(t.sentences); i += numWorkers {
				s := t.sentences[i]
				if s.Text == "" {
					continue
				}

				// Two lattice populations per sentence here: Encode's
				// Viterbi pass yields the token count the objective is
				// reported per, and PopulateMarginal's forward-backward
				// pass yields the soft expected counts the M-step needs.
				// They want different quantities off the same lattice, so
				// this isn't the single segmentation spec §4.6 describes
				// in prose.
				pieces, lerr := m.Encode(s.Text)
				if lerr != nil {
					return lerr
				}
				local.numTokens += int64(len(pieces))

				logZ := m.PopulateMarginal(s.Text, float64(s.Weight), local.expected)
				if isNaN(logZ) {
					return errNaNLogZ
				}
				if t.totalWeight > 0 {
					local.objective -= logZ / t.totalWeight
				}
			}

			results[w] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, 0, err
	}

	expected = make([]float64, len(t.pieces)+1)
	for _, r := range results {
		for i, v := range r.expected {
			expected[i] += v
		}
		objective += r.objective
		numTokens += r.numTokens
	}

	return expected[:len(t.pieces)], objective, numTokens, nil
}

func isNaN(f float64) bool { return f != f }
