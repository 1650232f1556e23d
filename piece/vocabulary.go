package piece

import (
	"fmt"

	"github.com/ollama/unigram/errs"
)

// Vocabulary is an ordered, immutable sequence of Pieces. A piece's
// position in the slice is its id (spec §3 "Vocabulary": ids dense in
// [0, |V|)).
type Vocabulary struct {
	Pieces []Piece

	unkID int32
}

// NewVocabulary validates pieces and wraps them as a Vocabulary. It enforces
// that surfaces of non-CONTROL pieces are unique and that exactly one piece
// is Unknown; CONTROL pieces may share a surface.
func NewVocabulary(pieces []Piece) (*Vocabulary, error) {
	const op = "piece.NewVocabulary"

	seen := make(map[string]int, len(pieces))
	unkID := int32(-1)
	for i, p := range pieces {
		if p.Kind != Control {
			if prev, ok := seen[p.Surface]; ok {
				return nil, errs.New(errs.Internal, op, fmt.Errorf("duplicate piece surface %q at ids %d and %d", p.Surface, prev, i))
			}
			seen[p.Surface] = i
		}
		if p.Kind == Unknown {
			if unkID >= 0 {
				return nil, errs.New(errs.Internal, op, fmt.Errorf("multiple UNKNOWN pieces: %d and %d", unkID, i))
			}
			unkID = int32(i)
		}
	}
	if unkID < 0 {
		return nil, errs.New(errs.Internal, op, fmt.Errorf("vocabulary has no UNKNOWN piece"))
	}

	return &Vocabulary{Pieces: pieces, unkID: unkID}, nil
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int { return len(v.Pieces) }

// UnknownID returns the id of the sole UNKNOWN piece.
func (v *Vocabulary) UnknownID() int32 { return v.unkID }

// MinMaxNormalScore returns the minimum and maximum Score across NORMAL
// pieces, used to derive the UNK fallback penalty (spec §4.4).
func (v *Vocabulary) MinMaxNormalScore() (min, max float32) {
	first := true
	for _, p := range v.Pieces {
		if p.Kind != Normal {
			continue
		}
		if first {
			min, max = p.Score, p.Score
			first = false
			continue
		}
		if p.Score < min {
			min = p.Score
		}
		if p.Score > max {
			max = p.Score
		}
	}
	return min, max
}
