// Package unigram implements component C4: the inference facade binding
// piece.Index and lattice.Lattice into Encode/NBestEncode/SampleEncode over
// already-normalized text (spec §4.4).
package unigram

import (
	"unicode/utf8"

	"github.com/ollama/unigram/errs"
	"github.com/ollama/unigram/lattice"
	"github.com/ollama/unigram/piece"
	"golang.org/x/exp/rand"
)

// unkPenalty is subtracted from the vocabulary's minimum NORMAL piece score
// to derive the synthetic UNK node's score (spec §4.4 "Populate nodes").
const unkPenalty = 10.0

// Model ties a piece index to the lattice populator. It owns one reusable
// Lattice and common-prefix-search buffer, so it is not safe for concurrent
// use from multiple goroutines without external synchronization — callers
// needing concurrency construct one Model per worker (spec §5 "Memory
// discipline").
type Model struct {
	index    *piece.Index
	unkID    int32
	unkScore float32
	maxScore float32

	l   *lattice.Lattice
	buf []piece.PrefixMatch
}

// New builds a Model over idx.
func New(idx *piece.Index) *Model {
	min, max := idx.Vocabulary().MinMaxNormalScore()
	return &Model{
		index:    idx,
		unkID:    idx.Vocabulary().UnknownID(),
		unkScore: min - unkPenalty,
		maxScore: max,
		l:        lattice.New(),
	}
}

// charLenAt counts the characters spanned by the first byteLen bytes of
// normalized.
func charLenAt(normalized string, byteLen int) int {
	n := 0
	for i := 0; i < byteLen; {
		_, size := utf8.DecodeRuneInString(normalized[i:])
		i += size
		n++
	}
	return n
}

// populateNodes fills l with every candidate piece over normalized, per spec
// §4.4 steps 1-3: a common-prefix search at each character position, skipping
// UNUSED pieces, plus a synthetic UNK fallback node wherever no length-1
// (single-character) candidate was found.
func (m *Model) populateNodes(normalized string) {
	m.l.SetSentence(normalized)
	numChars := m.l.NumChars()

	for charPos := 0; charPos < numChars; charPos++ {
		bpos, _ := m.l.ByteRange(uint32(charPos), 0)
		text := normalized[bpos:]

		m.buf = m.index.CommonPrefixSearch(text, m.buf[:0])

		sawLengthOne := false
		for _, hit := range m.buf {
			if m.index.IsUnused(hit.ID) {
				continue
			}

			length := charLenAt(text, hit.ByteLen)
			if length == 1 {
				sawLengthOne = true
			}

			var score float32
			if m.index.IsUserDefined(hit.ID) {
				score = float32(length)*m.maxScore + 1.0
			} else {
				score = m.index.GetScore(hit.ID)
			}

			ref := m.l.Insert(charPos, length)
			m.l.SetPiece(ref, hit.ID, score)
		}

		if !sawLengthOne {
			ref := m.l.Insert(charPos, 1)
			m.l.SetPiece(ref, m.unkID, m.unkScore)
		}
	}
}

// Piece is one emitted (surface, id) pair.
type Piece struct {
	Surface string
	ID      int32
}

// Encode segments normalized via Viterbi and returns the winning pieces in
// left-to-right order (spec §4.4 "Encode").
func (m *Model) Encode(normalized string) ([]Piece, error) {
	const op = "unigram.Model.Encode"
	if normalized == "" {
		return nil, nil
	}

	m.populateNodes(normalized)
	path, err := m.l.Viterbi()
	if err != nil {
		return nil, errs.Wrap(errs.Internal, op, err)
	}

	out := make([]Piece, 0, len(path))
	for _, ref := range path {
		n := m.l.Node(ref)
		out = append(out, Piece{Surface: m.l.Surface(ref), ID: n.ID})
	}
	return out, nil
}

// PopulateMarginal builds the lattice for normalized, populates it with the
// current model, and accumulates forward-backward expected counts into
// expected (sized at least vocabulary length), returning freq*log(Z) for
// the trainer's E-step (spec §4.6 "E-step").
func (m *Model) PopulateMarginal(normalized string, freq float64, expected []float64) float64 {
	m.populateNodes(normalized)
	return m.l.PopulateMarginal(freq, expected)
}

// NBestEncode returns up to k segmentations (each in left-to-right order)
// paired with their summed scores, k clamped to [1, 1024] (spec §4.4
// "NBestEncode").
func (m *Model) NBestEncode(normalized string, k int) ([][]Piece, []float64, error) {
	const op = "unigram.Model.NBestEncode"
	if normalized == "" {
		return nil, nil, nil
	}

	m.populateNodes(normalized)
	paths, scores, err := m.l.NBest(k)
	if err != nil {
		return nil, nil, errs.Wrap(errs.Internal, op, err)
	}

	results := make([][]Piece, len(paths))
	for i, path := range paths {
		pieces := make([]Piece, 0, len(path))
		for _, ref := range path {
			n := m.l.Node(ref)
			pieces = append(pieces, Piece{Surface: m.l.Surface(ref), ID: n.ID})
		}
		results[i] = pieces
	}
	return results, scores, nil
}

// SampleEncode draws one segmentation from the theta-scaled unigram
// distribution using rng (spec §4.4 "SampleEncode").
func (m *Model) SampleEncode(normalized string, theta float64, rng *rand.Rand) ([]Piece, error) {
	if normalized == "" {
		return nil, nil
	}

	m.populateNodes(normalized)
	path := m.l.Sample(theta, rng)

	out := make([]Piece, 0, len(path))
	for _, ref := range path {
		n := m.l.Node(ref)
		out = append(out, Piece{Surface: m.l.Surface(ref), ID: n.ID})
	}
	return out, nil
}

// IDToPiece and PieceToID expose the underlying index for callers that only
// need single-surface resolution without running the lattice.
func (m *Model) IDToPiece(id int32) (string, error) { return m.index.IDToPiece(id) }
func (m *Model) PieceToID(surface string) int32     { return m.index.PieceToID(surface) }
