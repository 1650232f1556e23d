package sautil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func toCodepoints(s string) []int32 {
	out := make([]int32, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int32(s[i])
	}
	return out
}

func TestBuildProducesSortedSuffixes(t *testing.T) {
	s := toCodepoints("banana")
	sa := Build(s)
	require.Len(t, sa, len(s))

	suffix := func(i int32) string {
		return string(runesOf(s[i:]))
	}
	for i := 1; i < len(sa); i++ {
		require.LessOrEqual(t, suffix(sa[i-1]), suffix(sa[i]))
	}
}

func runesOf(s []int32) []rune {
	out := make([]rune, len(s))
	for i, c := range s {
		out[i] = rune(c)
	}
	return out
}

func TestLCPMatchesNaiveComputation(t *testing.T) {
	s := toCodepoints("banana")
	sa := Build(s)
	lcp := LCP(s, sa)
	require.Len(t, lcp, len(s))
	require.Equal(t, int32(0), lcp[0])

	for i := 1; i < len(sa); i++ {
		a, b := s[sa[i-1]:], s[sa[i]:]
		var want int32
		for want < int32(len(a)) && want < int32(len(b)) && a[want] == b[want] {
			want++
		}
		require.Equal(t, want, lcp[i])
	}
}

func TestIntervalsCoverRepeatedSubstring(t *testing.T) {
	s := toCodepoints("banana")
	sa := Build(s)
	lcp := LCP(s, sa)
	intervals := Intervals(lcp)
	require.NotEmpty(t, intervals)

	// "ana" occurs twice in "banana"; some interval must have D >= 3 and
	// span at least two suffixes.
	var found bool
	for _, iv := range intervals {
		if iv.D >= 3 && iv.R-iv.L >= 2 {
			found = true
		}
	}
	require.True(t, found)
}
