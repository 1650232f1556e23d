package lattice

import (
	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

// nbestAgendaLimit and nbestAgendaKeep bound the A* agenda's pathological
// growth (spec §4.3 "N-best (A*)"): once the queue exceeds the limit, it is
// trimmed down to keep.
const nbestAgendaLimit = 100_000

func nbestAgendaKeep(k int) int {
	keep := 10 * k
	if keep > 512 {
		keep = 512
	}
	return keep
}

// hypothesis is one partial path in the N-best agenda, built backward from
// EOS toward BOS. next chains hypotheses toward EOS, so a completed path
// (node == BOS) is read left-to-right by following next.
type hypothesis struct {
	node NodeRef
	next *hypothesis
	g    float32
}

// f is the g of the hypothesis h extends plus h.node's BacktraceScore. The
// BacktraceScore already includes the node's own score, so it is taken back
// out of h.g to avoid counting it twice.
func (l *Lattice) f(h *hypothesis) float32 {
	n := l.arena[h.node]
	return h.g - n.Score + n.BacktraceScore
}

// NBest returns up to k segmentations ordered by non-increasing score, each
// paired with its summed score. The first result equals the Viterbi path
// and its score (spec §8 "N-best monotonicity"). k is clamped to [1, 1024]
// (spec §4.4).
func (l *Lattice) NBest(k int) ([][]NodeRef, []float64, error) {
	if k < 1 {
		k = 1
	}
	if k > 1024 {
		k = 1024
	}

	if err := l.runForward(); err != nil {
		return nil, nil, err
	}

	agenda := heap.NewWith(func(a, b *hypothesis) int {
		// Inverted: binaryheap.Pop returns the comparator's minimum, so
		// negate to get a max-heap ordered by f-score.
		switch {
		case l.f(a) > l.f(b):
			return -1
		case l.f(a) < l.f(b):
			return 1
		default:
			return 0
		}
	})

	agenda.Push(&hypothesis{node: l.eos, g: 0})

	var results [][]NodeRef
	var scores []float64

	for !agenda.Empty() {
		top, _ := agenda.Pop()

		if top.node == l.bos {
			results = append(results, l.emit(top))
			scores = append(scores, float64(top.g))
			if len(results) >= k {
				break
			}
			continue
		}

		pos := l.arena[top.node].Pos
		for _, lnode := range l.endNodes[pos] {
			next := &hypothesis{
				node: lnode,
				next: top,
				g:    top.g + l.arena[lnode].Score,
			}
			agenda.Push(next)
		}

		if agenda.Size() > nbestAgendaLimit {
			keep := nbestAgendaKeep(k)
			kept := make([]*hypothesis, 0, keep)
			for i := 0; i < keep && !agenda.Empty(); i++ {
				h, _ := agenda.Pop()
				kept = append(kept, h)
			}
			agenda.Clear()
			for _, h := range kept {
				agenda.Push(h)
			}
		}
	}

	return results, scores, nil
}

// emit walks a completed (node == BOS) hypothesis chain. Following next from
// bosHyp visits BOS's immediate successor first and the rightmost
// (EOS-adjacent) piece last, so the collected refs are already in
// left-to-right order.
func (l *Lattice) emit(bosHyp *hypothesis) []NodeRef {
	var path []NodeRef
	for h := bosHyp.next; h != nil && h.node != l.eos; h = h.next {
		path = append(path, h.node)
	}
	return path
}
