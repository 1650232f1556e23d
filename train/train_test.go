package train

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ollama/unigram/piece"
)

func toyPieces() []piece.Piece {
	return []piece.Piece{
		{Surface: "a", Score: -1, Kind: piece.Normal},
		{Surface: "b", Score: -1, Kind: piece.Normal},
		{Surface: "ab", Score: -0.5, Kind: piece.Normal},
		{Surface: "c", Score: -1.2, Kind: piece.Normal},
	}
}

func toySentences() []Sentence {
	return []Sentence{
		{Text: "ab", Weight: 5},
		{Text: "ab", Weight: 3},
		{Text: "c", Weight: 1},
	}
}

func TestRunShrinksVocabularyToTarget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VocabSize = 2
	cfg.NumSubIterations = 1
	cfg.ShrinkingFactor = 0.5
	cfg.NumThreads = 2

	tr := New(toySentences(), toyPieces(), cfg)
	pieces, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, pieces)
	require.LessOrEqual(t, len(pieces), 3) // ceil(1.1 * VocabSize)
}

func TestEStepAccumulatesNonNegativeExpectedCounts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumThreads = 2
	tr := New(toySentences(), toyPieces(), cfg)

	expected, _, numTokens, err := tr.eStep(context.Background())
	require.NoError(t, err)
	require.Len(t, expected, len(toyPieces()))
	require.Greater(t, numTokens, int64(0))

	var total float64
	for _, e := range expected {
		require.GreaterOrEqual(t, e, 0.0)
		total += e
	}
	require.Greater(t, total, 0.0)
}

func TestMStepDropsLowPosteriorMassPieces(t *testing.T) {
	pieces := toyPieces()
	expected := []float64{10, 10, 0.1, 5}

	out := mStep(pieces, expected)
	require.Len(t, out, 3)
	for _, p := range out {
		require.NotEqual(t, "ab", p.Surface)
	}
}

func TestPruneRespectsShrinkingFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VocabSize = 1
	cfg.ShrinkingFactor = 0.5
	cfg.NumThreads = 1

	tr := New(toySentences(), toyPieces(), cfg)
	pruned, err := tr.prune(context.Background(), 1)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pruned), 2) // floor(0.5*4) == 2
}
