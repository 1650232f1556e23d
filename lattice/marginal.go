package lattice

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// alphaBetaPositional holds the forward/backward position-indexed DP
// tables. alpha[node] and beta[node] in spec §4.3 "Forward-backward
// marginals" turn out to depend only on a node's starting/ending character
// position (every node sharing a start position has identical predecessor
// sets, and likewise for end positions), so they are computed once per
// position rather than once per node.
type alphaBetaPositional struct {
	alpha []float64 // indexed by character position, len = numChars+1
	beta  []float64
}

func (l *Lattice) forwardBackward() alphaBetaPositional {
	n := len(l.chars) // numChars+1
	ab := alphaBetaPositional{
		alpha: make([]float64, n),
		beta:  make([]float64, n),
	}

	var terms []float64
	for pos := 1; pos < n; pos++ {
		terms = terms[:0]
		for _, pred := range l.endNodes[pos] {
			p := l.arena[pred]
			terms = append(terms, ab.alpha[p.Pos]+float64(p.Score))
		}
		ab.alpha[pos] = floats.LogSumExp(terms)
	}

	for pos := n - 2; pos >= 0; pos-- {
		terms = terms[:0]
		for _, succ := range l.beginNodes[pos] {
			s := l.arena[succ]
			end := s.Pos + s.Length
			terms = append(terms, ab.beta[end]+float64(s.Score))
		}
		ab.beta[pos] = floats.LogSumExp(terms)
	}

	return ab
}

// PopulateMarginal computes, for every non-sentinel node n reachable in the
// lattice, freq * exp(alpha(n) + n.score + beta(n) - Z) and adds it to
// expected[n.ID], where Z = alpha[EOS] is the total log-normalizer. It
// returns freq * Z (spec §4.3, §4.6 "E-step").
func (l *Lattice) PopulateMarginal(freq float64, expected []float64) float64 {
	ab := l.forwardBackward()
	numChars := len(l.chars) - 1
	z := ab.alpha[numChars]

	for pos := 0; pos < len(l.beginNodes); pos++ {
		for _, ref := range l.beginNodes[pos] {
			n := l.arena[ref]
			if n.ID < 0 {
				continue // BOS/EOS sentinel
			}
			end := n.Pos + n.Length
			logP := ab.alpha[n.Pos] + float64(n.Score) + ab.beta[end] - z
			expected[n.ID] += freq * math.Exp(logP)
		}
	}

	return freq * z
}

// Z returns the log-normalizer alpha[EOS] without accumulating expected
// counts, useful for computing a pure perplexity/objective term.
func (l *Lattice) Z() float64 {
	ab := l.forwardBackward()
	return ab.alpha[len(l.chars)-1]
}
