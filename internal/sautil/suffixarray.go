// Package sautil builds the enhanced suffix array (SA, LCP, and the L/R/D
// lcp-interval decomposition) the seed builder walks to find frequent
// substrings (spec §4.5 "Build an enhanced suffix array"). No pack example
// carries a suffix-array library (the domain is rare outside text-indexing
// and compiler tooling), so this is the one core component built entirely
// on the standard library; see DESIGN.md.
package sautil

import "sort"

// Build constructs the suffix array of s (a sequence of code points, not
// bytes) via the classic O(n log^2 n) rank-doubling method.
func Build(s []int32) []int32 {
	n := len(s)
	sa := make([]int32, n)
	rank := make([]int32, n)
	tmp := make([]int32, n)
	for i := 0; i < n; i++ {
		sa[i] = int32(i)
		rank[i] = s[i]
	}

	rankAt := func(i int32) int32 {
		if int(i) >= n {
			return -1
		}
		return rank[i]
	}

	for k := 1; k < n; k *= 2 {
		kk := int32(k)
		less := func(a, b int32) bool {
			if rank[a] != rank[b] {
				return rank[a] < rank[b]
			}
			return rankAt(a+kk) < rankAt(b+kk)
		}

		sort.Slice(sa, func(i, j int) bool { return less(sa[i], sa[j]) })

		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			tmp[sa[i]] = tmp[sa[i-1]]
			if less(sa[i-1], sa[i]) {
				tmp[sa[i]]++
			}
		}
		copy(rank, tmp)

		if rank[sa[n-1]] == int32(n-1) {
			break
		}
	}

	return sa
}

// LCP computes the longest-common-prefix array for s and its suffix array
// sa via Kasai's algorithm: lcp[i] = LCP(suffix SA[i-1], suffix SA[i]),
// lcp[0] = 0.
func LCP(s []int32, sa []int32) []int32 {
	n := len(s)
	lcp := make([]int32, n)
	if n == 0 {
		return lcp
	}

	rank := make([]int32, n)
	for i, p := range sa {
		rank[p] = int32(i)
	}

	var h int32
	for i := 0; i < n; i++ {
		if rank[i] > 0 {
			j := int(sa[rank[i]-1])
			for i+int(h) < n && j+int(h) < n && s[i+int(h)] == s[j+int(h)] {
				h++
			}
			lcp[rank[i]] = h
			if h > 0 {
				h--
			}
		} else {
			h = 0
		}
	}
	return lcp
}
