package piece

import (
	"fmt"

	"github.com/ollama/unigram/errs"
)

// Index resolves piece surfaces to ids and back, and answers the
// common-prefix queries the lattice populator needs (spec §4.2).
//
// Reserved (CONTROL/UNKNOWN) surfaces are kept in a plain map so they
// shadow any textual collision with a NORMAL/USER_DEFINED/UNUSED piece of
// the same bytes, per spec §4.2 "the reserved hash map is consulted before
// the trie".
type Index struct {
	vocab *Vocabulary

	reserved map[string]int32 // CONTROL / UNKNOWN surfaces
	trie     *trie            // NORMAL / USER_DEFINED / UNUSED surfaces

	// TrieResultsSize is the maximum number of common-prefix matches any
	// single vocabulary surface produces; callers size their reusable
	// result buffer to this (spec §3 "Piece Index").
	TrieResultsSize int
}

// NewIndex builds an Index over vocab. Returns an Internal error only for a
// piece of unknown Kind. It does not check for duplicate surfaces:
// NewVocabulary rejects duplicates among non-CONTROL pieces, and CONTROL
// pieces sharing a surface resolve to the highest such id.
func NewIndex(vocab *Vocabulary) (*Index, error) {
	const op = "piece.NewIndex"

	idx := &Index{
		vocab:    vocab,
		reserved: make(map[string]int32),
		trie:     newTrie(),
	}

	for id, p := range vocab.Pieces {
		switch p.Kind {
		case Control, Unknown:
			idx.reserved[p.Surface] = int32(id)
		case Normal, UserDefined, Unused:
			idx.trie.insert(p.Surface, int32(id))
		default:
			return nil, errs.New(errs.Internal, op, fmt.Errorf("piece %d has unknown kind %v", id, p.Kind))
		}
	}

	var buf []prefixMatch
	for _, p := range vocab.Pieces {
		if p.Kind == Control {
			continue
		}
		buf = idx.trie.commonPrefixSearch(p.Surface, buf[:0])
		if len(buf) > idx.TrieResultsSize {
			idx.TrieResultsSize = len(buf)
		}
	}

	return idx, nil
}

// PieceToID returns the id for surface, or the UNKNOWN id if surface is not
// a piece or resolves to an UNUSED piece.
func (idx *Index) PieceToID(surface string) int32 {
	if id, ok := idx.reserved[surface]; ok {
		return id
	}

	var buf [1]prefixMatch
	matches := idx.trie.commonPrefixSearch(surface, buf[:0])
	for _, m := range matches {
		if m.ByteLen == len(surface) {
			if idx.vocab.Pieces[m.ID].Kind == Unused {
				break
			}
			return m.ID
		}
	}
	return idx.vocab.UnknownID()
}

// IDToPiece returns the surface for id.
func (idx *Index) IDToPiece(id int32) (string, error) {
	if id < 0 || int(id) >= idx.vocab.Len() {
		return "", errs.New(errs.OutOfRange, "piece.Index.IDToPiece", fmt.Errorf("id %d out of range [0, %d)", id, idx.vocab.Len()))
	}
	return idx.vocab.Pieces[id].Surface, nil
}

// GetScore returns the log-probability score of id.
func (idx *Index) GetScore(id int32) float32 {
	return idx.vocab.Pieces[id].Score
}

func (idx *Index) IsControl(id int32) bool     { return idx.vocab.Pieces[id].Kind == Control }
func (idx *Index) IsUnknown(id int32) bool     { return idx.vocab.Pieces[id].Kind == Unknown }
func (idx *Index) IsUnused(id int32) bool      { return idx.vocab.Pieces[id].Kind == Unused }
func (idx *Index) IsUserDefined(id int32) bool { return idx.vocab.Pieces[id].Kind == UserDefined }

// CommonPrefixSearch enumerates every vocabulary surface (NORMAL,
// USER_DEFINED, or UNUSED) prefixing text, appending results to dst and
// returning the extended slice. Callers reuse dst across calls (spec §3
// "trie_results_size").
func (idx *Index) CommonPrefixSearch(text string, dst []prefixMatch) []prefixMatch {
	return idx.trie.commonPrefixSearch(text, dst)
}

// PrefixMatch exports the matched-prefix pair type for callers outside this
// package.
type PrefixMatch = prefixMatch

// Vocabulary returns the underlying vocabulary.
func (idx *Index) Vocabulary() *Vocabulary { return idx.vocab }
