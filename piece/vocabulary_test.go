package piece

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testVocab(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := NewVocabulary([]Piece{
		{Surface: "<unk>", Kind: Unknown},
		{Surface: "<s>", Kind: Control},
		{Surface: "</s>", Kind: Control},
		{Surface: "▁", Kind: Normal, Score: -1.0},
		{Surface: "a", Kind: Normal, Score: -2.0},
		{Surface: "b", Kind: Normal, Score: -3.0},
		{Surface: "ab", Kind: Normal, Score: -0.5},
		{Surface: "ABC", Kind: UserDefined, Score: 0},
		{Surface: "zz", Kind: Unused, Score: -9},
	})
	require.NoError(t, err)
	return v
}

func TestNewVocabularyRejectsDuplicateSurface(t *testing.T) {
	_, err := NewVocabulary([]Piece{
		{Surface: "<unk>", Kind: Unknown},
		{Surface: "a", Kind: Normal},
		{Surface: "a", Kind: Normal},
	})
	require.Error(t, err)
}

func TestNewVocabularyRejectsMissingUnknown(t *testing.T) {
	_, err := NewVocabulary([]Piece{
		{Surface: "a", Kind: Normal},
	})
	require.Error(t, err)
}

func TestNewVocabularyRejectsDuplicateUnknown(t *testing.T) {
	_, err := NewVocabulary([]Piece{
		{Surface: "<unk>", Kind: Unknown},
		{Surface: "<unk2>", Kind: Unknown},
	})
	require.Error(t, err)
}

func TestMinMaxNormalScore(t *testing.T) {
	v := testVocab(t)
	min, max := v.MinMaxNormalScore()
	require.Equal(t, float32(-3.0), min)
	require.Equal(t, float32(-0.5), max)
}
