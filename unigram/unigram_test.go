package unigram

import (
	"testing"

	"github.com/ollama/unigram/piece"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// buildModel wires a tiny vocabulary matching lattice's buildSimple fixture:
// "a" and "b" individually, "ab" as a whole, plus the mandatory UNKNOWN.
func buildModel(t *testing.T) *Model {
	t.Helper()
	vocab, err := piece.NewVocabulary([]piece.Piece{
		{Surface: "<unk>", Kind: piece.Unknown},
		{Surface: "a", Score: -1, Kind: piece.Normal},
		{Surface: "b", Score: -1, Kind: piece.Normal},
		{Surface: "ab", Score: -0.5, Kind: piece.Normal},
	})
	require.NoError(t, err)

	idx, err := piece.NewIndex(vocab)
	require.NoError(t, err)

	return New(idx)
}

func TestEncodePrefersHigherScoringSegmentation(t *testing.T) {
	m := buildModel(t)
	pieces, err := m.Encode("ab")
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	require.Equal(t, "ab", pieces[0].Surface)
}

func TestEncodeEmptyInputReturnsEmpty(t *testing.T) {
	m := buildModel(t)
	pieces, err := m.Encode("")
	require.NoError(t, err)
	require.Empty(t, pieces)
}

func TestEncodeFallsBackToUnknownForUncoveredCharacters(t *testing.T) {
	m := buildModel(t)
	pieces, err := m.Encode("c")
	require.NoError(t, err)
	require.Len(t, pieces, 1)
	require.Equal(t, m.unkID, pieces[0].ID)
}

func TestNBestEncodeFirstMatchesEncode(t *testing.T) {
	m := buildModel(t)
	best, err := m.Encode("ab")
	require.NoError(t, err)

	results, scores, err := m.NBestEncode("ab", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, best[0].ID, results[0][0].ID)

	for i := 1; i < len(scores); i++ {
		require.LessOrEqual(t, scores[i], scores[i-1])
	}
}

func TestSampleEncodeProducesValidSegmentation(t *testing.T) {
	m := buildModel(t)
	rng := rand.New(rand.NewSource(7))

	pieces, err := m.SampleEncode("ab", 1.0, rng)
	require.NoError(t, err)
	require.NotEmpty(t, pieces)
}

func TestDecodeReassemblesMetaSpaceAsLiteralSpace(t *testing.T) {
	vocab, err := piece.NewVocabulary([]piece.Piece{
		{Surface: "<unk>", Kind: piece.Unknown},
		{Surface: "\xE2\x96\x81hello", Score: -1, Kind: piece.Normal},
	})
	require.NoError(t, err)
	idx, err := piece.NewIndex(vocab)
	require.NoError(t, err)
	m := New(idx)

	out := m.Decode([]int32{1}, false)
	require.Equal(t, " hello", out)
}

func TestDecodeShowsVisibleUnknownSubstitution(t *testing.T) {
	m := buildModel(t)
	out := m.Decode([]int32{m.unkID}, true)
	require.Equal(t, unkVisible, out)
}

func TestParseExtraOptionsRejectsUnknownToken(t *testing.T) {
	_, err := ParseExtraOptions("bos:nonsense")
	require.Error(t, err)
}

func TestApplyExtraOptionsReversesFinalSequence(t *testing.T) {
	m := buildModel(t)
	pieces, err := m.Encode("ab")
	require.NoError(t, err)

	opts, err := ParseExtraOptions("reverse")
	require.NoError(t, err)

	out := m.ApplyExtraOptions(pieces, opts, 0, 0)
	require.Equal(t, pieces[len(pieces)-1].ID, out[0].ID)
}
