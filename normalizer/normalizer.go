// Package normalizer implements component C1: deterministic text
// normalization driven by a precompiled longest-match trie (spec §4.1).
package normalizer

import (
	"unicode/utf8"
)

// MetaSpace is U+2581 ("▁"), the internal stand-in for a whitespace
// boundary (spec §6 "Meta space character").
const MetaSpace = "\xE2\x96\x81"

// replacementChar is U+FFFD, emitted in place of invalid UTF-8.
const replacementChar = "\xEF\xBF\xBD"

// Config mirrors spec §4.1's normalizer_spec options.
type Config struct {
	AddDummyPrefix          bool
	RemoveExtraWhitespaces  bool
	EscapeWhitespaces       bool
	TreatWhitespaceAsSuffix bool
	PrecompiledCharsmap     []byte
}

// DefaultConfig matches the upstream SentencePiece defaults.
func DefaultConfig() Config {
	return Config{
		AddDummyPrefix:         true,
		RemoveExtraWhitespaces: true,
		EscapeWhitespaces:      true,
	}
}

// Normalizer canonicalizes raw input via the charsmap trie.
type Normalizer struct {
	cfg         Config
	charsMap    *charsMap
	sep         string // meta-space if EscapeWhitespaces, else a literal space
	userDefined *PrefixMatcher
}

// SetUserDefinedMatcher installs the vocabulary's user-defined-piece
// matcher, consulted ahead of the charsmap at every position so
// USER_DEFINED surfaces pass through normalization untouched
// (spec §4.1 "Prefix Matcher").
func (n *Normalizer) SetUserDefinedMatcher(m *PrefixMatcher) {
	n.userDefined = m
}

// New builds a Normalizer from cfg. An empty PrecompiledCharsmap is valid
// and makes every position fall through to single-scalar pass-through.
func New(cfg Config) (*Normalizer, error) {
	cm := &charsMap{}
	if len(cfg.PrecompiledCharsmap) > 0 {
		var err error
		cm, err = parseCharsMap(cfg.PrecompiledCharsmap)
		if err != nil {
			return nil, err
		}
	}

	sep := " "
	if cfg.EscapeWhitespaces {
		sep = MetaSpace
	}

	return &Normalizer{cfg: cfg, charsMap: cm, sep: sep}, nil
}

// Normalize canonicalizes input, discarding the offset map.
func (n *Normalizer) Normalize(input []byte) ([]byte, error) {
	out, _, err := n.NormalizeWithOffsets(input)
	return out, err
}

// NormalizeWithOffsets canonicalizes input and returns n2o, where n2o[i] is
// the byte offset in input that produced normalized[i], and
// n2o[len(normalized)] == len(input) (spec §4.1 "Alignment").
func (n *Normalizer) NormalizeWithOffsets(input []byte) (normalized []byte, n2o []int, err error) {
	if len(input) == 0 {
		return nil, []int{0}, nil
	}

	s := string(input)

	var out []byte
	var origins []int

	write := func(b byte, origin int) {
		out = append(out, b)
		origins = append(origins, origin)
	}
	writeString := func(str string, origin int) {
		for i := 0; i < len(str); i++ {
			write(str[i], origin)
		}
	}

	var processingNonWs bool
	var sawNonWs bool // true once the first non-whitespace run has started

	shallPrependSep := n.cfg.AddDummyPrefix && !n.cfg.TreatWhitespaceAsSuffix
	shallAppendSep := n.cfg.AddDummyPrefix && n.cfg.TreatWhitespaceAsSuffix
	shallMergeSeps := n.cfg.RemoveExtraWhitespaces

	pos := 0
	for pos < len(s) {
		chunk, consumed, err := n.normalizePrefix(s[pos:])
		if err != nil {
			return nil, nil, err
		}
		origin := pos

		for i := 0; i < len(chunk); i++ {
			c := chunk[i]
			if c != ' ' {
				if !processingNonWs {
					processingNonWs = true
					switch {
					case !sawNonWs:
						// Start of the very first non-whitespace run: a
						// separator here is a dummy prefix, not a collapsed
						// whitespace run, so it's gated on AddDummyPrefix
						// alone (spec §4.1 steps 3 and 4 are distinct).
						if shallPrependSep {
							writeString(n.sep, origin)
						}
					case shallMergeSeps:
						writeString(n.sep, origin)
					}
					sawNonWs = true
				}
				write(c, origin)
			} else {
				processingNonWs = false
				if !shallMergeSeps {
					writeString(n.sep, origin)
				}
			}
		}

		pos += consumed
	}

	if shallAppendSep {
		writeString(n.sep, len(s))
	}

	origins = append(origins, len(s))

	return out, origins, nil
}

// normalizePrefix resolves the next chunk of input: a user-defined surface
// matched by the installed PrefixMatcher passes through unchanged;
// otherwise the charsmap longest match applies, with single-scalar fallback
// (spec §4.1 step 2).
func (n *Normalizer) normalizePrefix(input string) (replacement string, consumed int, err error) {
	if n.userDefined != nil {
		if matchLen, found := n.userDefined.Match(input); found {
			return input[:matchLen], matchLen, nil
		}
	}

	matchedLen, repl, ok, err := n.charsMap.longestMatch(input)
	if err != nil {
		return "", 0, err
	}
	if ok {
		return repl, matchedLen, nil
	}
	return n.fallbackScalar(input)
}

func (n *Normalizer) fallbackScalar(input string) (string, int, error) {
	r, size := utf8.DecodeRuneInString(input)
	if r == utf8.RuneError && size <= 1 {
		return replacementChar, 1, nil
	}
	return input[:size], size, nil
}
