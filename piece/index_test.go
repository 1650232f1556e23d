package piece

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexPieceToID(t *testing.T) {
	v := testVocab(t)
	idx, err := NewIndex(v)
	require.NoError(t, err)

	id := idx.PieceToID("ab")
	require.Equal(t, "ab", v.Pieces[id].Surface)

	// Unused pieces never resolve, even on an exact match.
	require.Equal(t, v.UnknownID(), idx.PieceToID("zz"))

	// Unknown surface falls back to UNK.
	require.Equal(t, v.UnknownID(), idx.PieceToID("nope"))

	// Reserved CONTROL surfaces resolve via the reserved map, not the trie.
	id = idx.PieceToID("<s>")
	require.Equal(t, "<s>", v.Pieces[id].Surface)
}

func TestIndexCommonPrefixSearch(t *testing.T) {
	v := testVocab(t)
	idx, err := NewIndex(v)
	require.NoError(t, err)

	matches := idx.CommonPrefixSearch("ab c", nil)
	require.Len(t, matches, 2) // "a" and "ab"
	require.Equal(t, 1, matches[0].ByteLen)
	require.Equal(t, 2, matches[1].ByteLen)
}

func TestIndexIDToPieceOutOfRange(t *testing.T) {
	v := testVocab(t)
	idx, err := NewIndex(v)
	require.NoError(t, err)

	_, err = idx.IDToPiece(int32(v.Len()))
	require.Error(t, err)
}

func TestIndexIsPredicates(t *testing.T) {
	v := testVocab(t)
	idx, err := NewIndex(v)
	require.NoError(t, err)

	require.True(t, idx.IsUnknown(v.UnknownID()))
	require.True(t, idx.IsControl(idx.PieceToID("<s>")))

	userDefinedID := idx.PieceToID("ABC")
	require.True(t, idx.IsUserDefined(userDefinedID))
}
