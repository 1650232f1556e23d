package finalize

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ollama/unigram/piece"
)

func TestBuildInjectsRequiredCharsAbsentFromModel(t *testing.T) {
	trained := []piece.Piece{
		{Surface: "a", Score: -1, Kind: piece.Normal},
		{Surface: "ab", Score: -0.5, Kind: piece.Normal},
	}
	cfg := Config{
		VocabSize: 6,
		MetaPieces: []piece.Piece{
			{Surface: "<unk>", Kind: piece.Unknown},
			{Surface: "<s>", Kind: piece.Control},
			{Surface: "</s>", Kind: piece.Control},
		},
		RequiredChars: []RequiredChar{
			{Char: 'a', Freq: 10},
			{Char: 'b', Freq: 2}, // not in trained set: must be injected
		},
	}

	out, err := Build(trained, cfg)
	require.NoError(t, err)

	var sawB bool
	for _, p := range out {
		if p.Surface == "b" {
			sawB = true
			require.Less(t, p.Score, float32(-1)) // below trained minimum, penalized
		}
	}
	require.True(t, sawB)
}

func TestBuildRejectsVocabSizeSmallerThanMetaPieces(t *testing.T) {
	cfg := Config{
		VocabSize:  1,
		MetaPieces: []piece.Piece{{Kind: piece.Unknown}, {Kind: piece.Control}},
	}
	_, err := Build(nil, cfg)
	require.Error(t, err)
}

func TestBuildOrdersMetaPiecesBeforeNormal(t *testing.T) {
	trained := []piece.Piece{{Surface: "a", Score: -1, Kind: piece.Normal}}
	cfg := Config{
		VocabSize:  3,
		MetaPieces: []piece.Piece{{Surface: "<unk>", Kind: piece.Unknown}},
	}

	out, err := Build(trained, cfg)
	require.NoError(t, err)
	require.Equal(t, piece.Unknown, out[0].Kind)
}
