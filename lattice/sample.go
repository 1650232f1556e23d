package lattice

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
)

// alphaScaled computes the same forward table as forwardBackward, but with
// every node score scaled by theta, for ancestral Sampling (spec §4.3
// "Sampling": "Compute alpha with scores multiplied by theta").
func (l *Lattice) alphaScaled(theta float64) []float64 {
	n := len(l.chars)
	alpha := make([]float64, n)

	var terms []float64
	for pos := 1; pos < n; pos++ {
		terms = terms[:0]
		for _, pred := range l.endNodes[pos] {
			p := l.arena[pred]
			terms = append(terms, alpha[p.Pos]+theta*float64(p.Score))
		}
		alpha[pos] = floats.LogSumExp(terms)
	}
	return alpha
}

// Sample draws one segmentation from the unigram distribution scaled by
// theta, using rng as the source of randomness. Per spec §5 "Global state",
// callers inject their own *rand.Rand for reproducibility rather than this
// package touching any process-wide generator.
func (l *Lattice) Sample(theta float64, rng *rand.Rand) []NodeRef {
	alpha := l.alphaScaled(theta)

	var reversed []NodeRef
	cur := l.eos

	for {
		pos := int(l.arena[cur].Pos)
		preds := l.endNodes[pos]

		weights := make([]float64, len(preds))
		var total float64
		for i, pred := range preds {
			p := l.arena[pred]
			logw := alpha[p.Pos] + theta*float64(p.Score) - alpha[pos]
			w := math.Exp(logw)
			weights[i] = w
			total += w
		}

		choice := pickWeighted(weights, total, rng)
		next := preds[choice]

		if next == l.bos {
			break
		}
		reversed = append(reversed, next)
		cur = next
	}

	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	return reversed
}

func pickWeighted(weights []float64, total float64, rng *rand.Rand) int {
	if total <= 0 {
		return len(weights) - 1
	}
	r := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if r <= cum {
			return i
		}
	}
	return len(weights) - 1
}
