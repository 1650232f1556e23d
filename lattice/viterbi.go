package lattice

// Viterbi runs the forward DP and returns the maximum-sum path's node
// references in left-to-right order, excluding the BOS/EOS sentinels
// (spec §4.3 "Viterbi").
//
// It also has the side effect of populating BacktraceScore on every node
// reachable from BOS, which NBest reuses as its admissible A* heuristic.
func (l *Lattice) Viterbi() ([]NodeRef, error) {
	if err := l.runForward(); err != nil {
		return nil, err
	}

	var path []NodeRef
	for ref := l.arena[l.eos].Prev; ref != l.bos && ref != NoNode; ref = l.arena[ref].Prev {
		path = append(path, ref)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path, nil
}

// runForward performs the left-to-right DP described in spec §4.3: for
// every rnode, pick the predecessor lnode maximizing
// lnode.BacktraceScore + rnode.Score, breaking ties by insertion order
// (strict '>' keeps the first-seen candidate on ties, for determinism).
func (l *Lattice) runForward() error {
	numPositions := len(l.beginNodes)
	for pos := 0; pos < numPositions; pos++ {
		for _, rnode := range l.beginNodes[pos] {
			preds := l.endNodes[pos]
			if len(preds) == 0 {
				return internalErr("lattice.Viterbi", "no predecessors bridging a reachable position: lattice is disconnected")
			}

			var best float32
			var bestPrev NodeRef = NoNode
			first := true
			rscore := l.arena[rnode].Score

			for _, lnode := range preds {
				cand := l.arena[lnode].BacktraceScore + rscore
				if first || cand > best {
					best = cand
					bestPrev = lnode
					first = false
				}
			}

			l.arena[rnode].BacktraceScore = best
			l.arena[rnode].Prev = bestPrev
		}
	}
	return nil
}
