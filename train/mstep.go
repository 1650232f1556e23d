package train

import (
	"gonum.org/v1/gonum/mathext"

	"github.com/ollama/unigram/piece"
)

// mStep drops pieces whose posterior mass falls below 0.5 and rescales
// survivors' scores via Bayesian/Dirichlet-process smoothing:
// new_log_score = Digamma(expected[i]) - Digamma(sum(expected)) (spec §4.6
// "M-step").
func mStep(pieces []piece.Piece, expected []float64) []piece.Piece {
	var sum float64
	survivors := make([]int, 0, len(pieces))
	for i, e := range expected {
		if e < 0.5 {
			continue
		}
		survivors = append(survivors, i)
		sum += e
	}

	if len(survivors) == 0 {
		return nil
	}

	logSum := mathext.Digamma(sum)

	out := make([]piece.Piece, len(survivors))
	for j, i := range survivors {
		out[j] = piece.Piece{
			Surface: pieces[i].Surface,
			Score:   float32(mathext.Digamma(expected[i]) - logSum),
			Kind:    piece.Normal,
		}
	}
	return out
}
