package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ollama/unigram/piece"
)

func samplePieces() []piece.Piece {
	return []piece.Piece{
		{Surface: "<unk>", Kind: piece.Unknown},
		{Surface: "a", Score: -1, Kind: piece.Normal},
		{Surface: "ab", Score: -0.5, Kind: piece.Normal},
	}
}

func TestSaveLoadRoundTripsPieces(t *testing.T) {
	data, err := Save(samplePieces(), TrainerSpec{VocabSize: 3}, NormalizerSpec{})
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, loaded.Pieces, 3)
	require.Equal(t, "ab", loaded.Pieces[2].Surface)
}

func TestUnmarshalRejectsUnknownPieceKind(t *testing.T) {
	c := &Container{Pieces: []WirePiece{{Surface: "x", Kind: PieceKind(99)}}}
	data, err := Marshal(c)
	require.NoError(t, err)

	_, err = Unmarshal(data)
	require.Error(t, err)
}

func TestLoadAssemblesUsableModel(t *testing.T) {
	data, err := Save(samplePieces(), TrainerSpec{VocabSize: 3}, NormalizerSpec{})
	require.NoError(t, err)

	m, err := Load(data)
	require.NoError(t, err)
	require.NotNil(t, m.Normalizer)
	require.NotNil(t, m.Unigram)

	pieces, err := m.Unigram.Encode("ab")
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	require.Equal(t, "ab", pieces[0].Surface)
}

func TestVocabularyTSVSortsByScoreDescending(t *testing.T) {
	tsv := VocabularyTSV([]piece.Piece{
		{Surface: "a", Score: -1},
		{Surface: "ab", Score: -0.5},
	})
	require.Equal(t, "ab\t-0.5\na\t-1\n", tsv)
}
