package sautil

// Interval is one internal node of the lcp-interval tree over an LCP array:
// every suffix in [L, R) shares a common prefix of length D, and SA[L] is
// one occurrence's starting position (spec §4.5 "enhanced suffix array").
type Interval struct {
	D int32
	L int32
	R int32
}

// Intervals enumerates every lcp-interval via the bottom-up stack traversal
// of Abouelhoda, Kurtz & Ohlebusch's "Replacing suffix trees with enhanced
// suffix arrays" (2004) in O(n).
func Intervals(lcp []int32) []Interval {
	n := len(lcp)
	if n == 0 {
		return nil
	}

	type frame struct {
		d  int32
		lb int32
	}

	stack := []frame{{0, 0}}
	var out []Interval

	for i := 1; i <= n; i++ {
		var d int32
		if i < n {
			d = lcp[i]
		}
		lb := int32(i - 1)

		for stack[len(stack)-1].d > d {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			out = append(out, Interval{D: top.d, L: top.lb, R: int32(i)})
			lb = top.lb
			if stack[len(stack)-1].d == d {
				break // merges into the existing same-depth frame below
			}
		}

		if stack[len(stack)-1].d < d {
			stack = append(stack, frame{d, lb})
		}
	}

	return out
}
