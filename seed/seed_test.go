package seed

import (
	"testing"

	"github.com/ollama/unigram/piece"
	"github.com/stretchr/testify/require"
)

func TestBuildRejectsEmptyCorpus(t *testing.T) {
	_, err := Build(nil, DefaultConfig())
	require.Error(t, err)
}

func TestBuildProducesSingleCharactersAndSubstrings(t *testing.T) {
	sentences := []Sentence{
		{Text: "banana banana banana", Weight: 1},
	}
	cfg := DefaultConfig()
	cfg.SplitByWhitespace = false // keep "a" and " " in the same toy corpus simple

	pieces, err := Build(sentences, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, pieces)

	var sawA, sawAna bool
	for _, p := range pieces {
		require.Equal(t, piece.Normal, p.Kind)
		if p.Surface == "a" {
			sawA = true
		}
		if p.Surface == "ana" {
			sawAna = true
		}
	}
	require.True(t, sawA, "expected single character 'a' among seed pieces")
	require.True(t, sawAna, "expected repeated substring 'ana' among seed pieces")
}

func TestBuildScoresAreLogProbabilities(t *testing.T) {
	sentences := []Sentence{{Text: "aaaa bbbb", Weight: 1}}
	cfg := DefaultConfig()
	cfg.SplitByWhitespace = false

	pieces, err := Build(sentences, cfg)
	require.NoError(t, err)
	for _, p := range pieces {
		require.LessOrEqual(t, p.Score, float32(0))
	}
}

func TestIsValidSentencepieceRejectsOverlength(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPieceLength = 2
	sub := []int32{'a', 'b', 'c'}
	require.False(t, isValidSentencepiece(sub, cfg))
}

func TestIsValidSentencepieceAllowsLeadingMetaSpace(t *testing.T) {
	cfg := DefaultConfig()
	metaSpace := []rune("▁")[0]
	sub := []int32{int32(metaSpace), 'a', 'b'}
	require.True(t, isValidSentencepiece(sub, cfg))
}

func TestIsValidSentencepieceRejectsScriptMixing(t *testing.T) {
	cfg := DefaultConfig()
	sub := []int32{'a', 0x3042} // Latin 'a' + Hiragana U+3042
	require.False(t, isValidSentencepiece(sub, cfg))
}
