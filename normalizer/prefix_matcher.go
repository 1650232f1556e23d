package normalizer

import "unicode/utf8"

// PrefixMatcher resolves user-defined piece surfaces ahead of normal
// normalization, so USER_DEFINED pieces always win segmentation
// (spec §4.1 "Prefix Matcher"). It is built once from the vocabulary's
// USER_DEFINED surfaces, independent of the charsmap trie.
type PrefixMatcher struct {
	t *trie
}

// NewPrefixMatcher builds a matcher over the given user-defined surfaces.
func NewPrefixMatcher(surfaces []string) *PrefixMatcher {
	t := newTrie()
	for i, s := range surfaces {
		t.insert(s, int32(i))
	}
	return &PrefixMatcher{t: t}
}

// Match returns the longest matching user-defined surface's UTF-8 byte
// length and found=true, or the length of one UTF-8 scalar with
// found=false if no user-defined surface matches.
func (m *PrefixMatcher) Match(text string) (matchLen int, found bool) {
	if text == "" {
		return 0, false
	}
	if n := m.t.longestPrefix(text); n > 0 {
		return n, true
	}
	_, size := utf8.DecodeRuneInString(text)
	return size, false
}

// GlobalReplace replaces every matched user-defined span in text with out,
// leaving unmatched runs untouched.
func (m *PrefixMatcher) GlobalReplace(text, out string) string {
	if text == "" {
		return text
	}

	var sb []byte
	for len(text) > 0 {
		n, found := m.Match(text)
		if found {
			sb = append(sb, out...)
		} else {
			sb = append(sb, text[:n]...)
		}
		text = text[n:]
	}
	return string(sb)
}
