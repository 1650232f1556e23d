package train

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ollama/unigram/piece"
	"github.com/ollama/unigram/unigram"
)

type pruneCandidate struct {
	idx  int
	loss float64
}

// prune shrinks t.pieces toward max(desired, floor(shrinkingFactor*|V|)), per
// spec §4.6 "Pruning". Grounded directly on the upstream trainer's
// PruneSentencePieces (unigram_model_trainer.cc): every piece is segmented
// against its own surface to find always-keep pieces and their
// second-best alternative, the whole corpus is re-segmented to gather
// Viterbi frequencies, and a loss-ordered candidate list fills the
// remaining budget. Pieces with zero Viterbi frequency or that are not
// always-keep are dropped outright, and always-keep pieces without an
// alternative are kept outright, so the result can be smaller or larger
// than that target.
func (t *Trainer) prune(ctx context.Context, desired int) ([]piece.Piece, error) {
	n := len(t.pieces)

	vocab, err := workingVocabulary(t.pieces)
	if err != nil {
		return nil, err
	}
	idx, err := piece.NewIndex(vocab)
	if err != nil {
		return nil, err
	}

	alwaysKeep := make([]bool, n)
	alternatives := make([][]int32, n)

	m := unigram.New(idx)
	for i, p := range t.pieces {
		results, _, err := m.NBestEncode(p.Surface, 2)
		if err != nil {
			return nil, err
		}

		switch {
		case len(results) <= 1:
			alwaysKeep[i] = true
		case len(results[0]) >= 2:
			alwaysKeep[i] = false
		default: // best segmentation is the piece itself, alone
			alwaysKeep[i] = true
			second := results[1]
			alternatives[i] = make([]int32, len(second))
			for j, pc := range second {
				alternatives[i][j] = pc.ID
			}
		}
	}

	freq, inverted, vsum, err := t.resegmentCorpus(ctx, idx, n)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, f := range freq {
		sum += f
	}
	logSum := math.Log(sum)

	var kept []piece.Piece
	var candidates []pruneCandidate

	for i, p := range t.pieces {
		if freq[i] == 0 || !alwaysKeep[i] {
			continue
		}
		if len(alternatives[i]) == 0 {
			kept = append(kept, p)
			continue
		}

		var F float64
		for _, s := range inverted[i] {
			F += float64(t.sentences[s].Weight)
		}
		if vsum > 0 {
			F /= vsum
		}

		logProbSP := math.Log(freq[i]) - logSum
		logSumAlt := math.Log(sum + freq[i]*float64(len(alternatives[i])-1))

		var logProbAlt float64
		for _, altID := range alternatives[i] {
			if altID < 0 || int(altID) >= n {
				continue // synthetic UNK id, never a real alternative piece
			}
			logProbAlt += math.Log(freq[altID]+freq[i]) - logSumAlt
		}

		loss := F * (logProbSP - logProbAlt)
		candidates = append(candidates, pruneCandidate{idx: i, loss: loss})
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].loss != candidates[b].loss {
			return candidates[a].loss > candidates[b].loss
		}
		return t.pieces[candidates[a].idx].Surface < t.pieces[candidates[b].idx].Surface
	})

	prunedSize := desired
	if shrunk := int(math.Floor(t.cfg.ShrinkingFactor * float64(n))); shrunk > prunedSize {
		prunedSize = shrunk
	}

	for _, c := range candidates {
		if len(kept) >= prunedSize {
			break
		}
		kept = append(kept, t.pieces[c.idx])
	}

	return kept, nil
}

// resegmentCorpus Viterbi-segments every sentence in parallel, gathering
// per-piece weighted frequency and the set of sentence indices each piece
// appears in (spec §4.6 "Re-segment the whole corpus").
func (t *Trainer) resegmentCorpus(ctx context.Context, idx *piece.Index, n int) (freq []float64, inverted [][]int, vsum float64, err error) {
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

	type workerResult struct {
		freq     []float64
		inverted [][]int
		vsum     float64
	}
	results := make([]workerResult, numWorkers)

	g, _ := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		w := w
		g.Go(func() error {
			m := unigram.New(idx)
			local := workerResult{freq: make([]float64, n), inverted: make([][]int, n)}

			for i := w; i < len(t.sentences); i += numWorkers {
				s := t.sentences[i]
				if s.Text == "" {
					continue
				}
				local.vsum += float64(s.Weight)

				pieces, err := m.Encode(s.Text)
				if err != nil {
					return err
				}
				for _, pc := range pieces {
					if pc.ID < 0 || int(pc.ID) >= n {
						continue
					}
					local.freq[pc.ID] += float64(s.Weight)
					local.inverted[pc.ID] = append(local.inverted[pc.ID], i)
				}
			}

			results[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, 0, err
	}

	freq = make([]float64, n)
	inverted = make([][]int, n)
	for _, r := range results {
		vsum += r.vsum
		for i := 0; i < n; i++ {
			freq[i] += r.freq[i]
			inverted[i] = append(inverted[i], r.inverted[i]...)
		}
	}
	return freq, inverted, vsum, nil
}
