// Package model defines the serialized model container consumed at load
// time and produced at save time (spec §6 "Serialized model container"),
// plus a Load facade that wires the normalizer, piece index, and unigram
// inference model together.
package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/ollama/unigram/errs"
	"github.com/ollama/unigram/normalizer"
	"github.com/ollama/unigram/piece"
	"github.com/ollama/unigram/unigram"
)

// PieceKind mirrors piece.Kind for the wire format, so a corrupt or
// forward-incompatible enum value fails decoding instead of silently
// aliasing to Normal (spec §6 "Readers must fail on unknown enum values").
type PieceKind uint8

const (
	KindNormal PieceKind = iota
	KindUnknown
	KindControl
	KindUserDefined
	KindUnused
)

func (k PieceKind) toPiece() (piece.Kind, error) {
	switch k {
	case KindNormal:
		return piece.Normal, nil
	case KindUnknown:
		return piece.Unknown, nil
	case KindControl:
		return piece.Control, nil
	case KindUserDefined:
		return piece.UserDefined, nil
	case KindUnused:
		return piece.Unused, nil
	default:
		return 0, fmt.Errorf("unknown piece kind %d in serialized model", k)
	}
}

func fromPiece(k piece.Kind) PieceKind {
	switch k {
	case piece.Unknown:
		return KindUnknown
	case piece.Control:
		return KindControl
	case piece.UserDefined:
		return KindUserDefined
	case piece.Unused:
		return KindUnused
	default:
		return KindNormal
	}
}

// TrainerSpec carries the hyperparameters a trained model was produced
// with (spec §6).
type TrainerSpec struct {
	ModelType              string  `cbor:"model_type"`
	VocabSize              int     `cbor:"vocab_size"`
	SeedSentencepieceSize  int     `cbor:"seed_sentencepiece_size"`
	NumSubIterations       int     `cbor:"num_sub_iterations"`
	ShrinkingFactor        float64 `cbor:"shrinking_factor"`
	NumThreads             int     `cbor:"num_threads"`
	MaxSentencepieceLength int     `cbor:"max_sentencepiece_length"`
	SplitByUnicodeScript   bool    `cbor:"split_by_unicode_script"`
	SplitByNumber          bool    `cbor:"split_by_number"`
	SplitByWhitespace      bool    `cbor:"split_by_whitespace"`
	UnkPiece               string  `cbor:"unk_piece"`
	BOSPiece               string  `cbor:"bos_piece"`
	EOSPiece               string  `cbor:"eos_piece"`
	PadPiece               string  `cbor:"pad_piece"`
	UnkSurface             string  `cbor:"unk_surface"`
}

// NormalizerSpec carries the precompiled normalization table (spec §6).
type NormalizerSpec struct {
	Name                    string `cbor:"name"`
	AddDummyPrefix          bool   `cbor:"add_dummy_prefix"`
	RemoveExtraWhitespaces  bool   `cbor:"remove_extra_whitespaces"`
	EscapeWhitespaces       bool   `cbor:"escape_whitespaces"`
	TreatWhitespaceAsSuffix bool   `cbor:"treat_whitespace_as_suffix"`
	PrecompiledCharsmap     []byte `cbor:"precompiled_charsmap"`
}

// WirePiece is one serialized (surface, score, kind) entry (spec §6).
type WirePiece struct {
	Surface string    `cbor:"surface"`
	Score   float32   `cbor:"score"`
	Kind    PieceKind `cbor:"kind"`
}

// Container is the self-describing binary blob exchanged with the
// surrounding system (spec §6 "Serialized model container").
type Container struct {
	TrainerSpec    TrainerSpec    `cbor:"trainer_spec"`
	NormalizerSpec NormalizerSpec `cbor:"normalizer_spec"`
	Pieces         []WirePiece    `cbor:"pieces"`
}

// Marshal encodes c as CBOR.
func Marshal(c *Container) ([]byte, error) {
	const op = "model.Marshal"
	b, err := cbor.Marshal(c)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, op, err)
	}
	return b, nil
}

// Unmarshal decodes a CBOR-encoded Container, failing on unknown piece
// kinds (spec §6 "Readers must fail on unknown enum values").
func Unmarshal(data []byte) (*Container, error) {
	const op = "model.Unmarshal"
	var c Container
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, errs.Wrap(errs.DataLoss, op, err)
	}
	for _, p := range c.Pieces {
		if _, err := p.Kind.toPiece(); err != nil {
			return nil, errs.Wrap(errs.DataLoss, op, err)
		}
	}
	return &c, nil
}

// Model ties a loaded Container's pieces and normalizer config into a ready
// inference facade, binding C1 (normalizer), C2 (piece index), and C4
// (unigram inference) per spec §2's data-flow diagram: "raw input → C1 →
// C4 (which uses C3 + C2)".
type Model struct {
	Normalizer *normalizer.Normalizer
	Index      *piece.Index
	Unigram    *unigram.Model
}

// Load decodes data and assembles a ready-to-use Model.
func Load(data []byte) (*Model, error) {
	const op = "model.Load"

	c, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}

	pieces := make([]piece.Piece, len(c.Pieces))
	var userDefinedSurfaces []string
	for i, wp := range c.Pieces {
		kind, err := wp.Kind.toPiece()
		if err != nil {
			return nil, errs.Wrap(errs.DataLoss, op, err)
		}
		pieces[i] = piece.Piece{Surface: wp.Surface, Score: wp.Score, Kind: kind}
		if kind == piece.UserDefined {
			userDefinedSurfaces = append(userDefinedSurfaces, wp.Surface)
		}
	}

	vocab, err := piece.NewVocabulary(pieces)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, op, err)
	}
	idx, err := piece.NewIndex(vocab)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, op, err)
	}

	norm, err := normalizer.New(normalizer.Config{
		AddDummyPrefix:          c.NormalizerSpec.AddDummyPrefix,
		RemoveExtraWhitespaces:  c.NormalizerSpec.RemoveExtraWhitespaces,
		EscapeWhitespaces:       c.NormalizerSpec.EscapeWhitespaces,
		TreatWhitespaceAsSuffix: c.NormalizerSpec.TreatWhitespaceAsSuffix,
		PrecompiledCharsmap:     c.NormalizerSpec.PrecompiledCharsmap,
	})
	if err != nil {
		return nil, errs.Wrap(errs.Internal, op, err)
	}
	if len(userDefinedSurfaces) > 0 {
		norm.SetUserDefinedMatcher(normalizer.NewPrefixMatcher(userDefinedSurfaces))
	}

	return &Model{
		Normalizer: norm,
		Index:      idx,
		Unigram:    unigram.New(idx),
	}, nil
}

// Save builds a Container from pieces and specs and encodes it as CBOR.
func Save(pieces []piece.Piece, trainerSpec TrainerSpec, normalizerSpec NormalizerSpec) ([]byte, error) {
	wire := make([]WirePiece, len(pieces))
	for i, p := range pieces {
		wire[i] = WirePiece{Surface: p.Surface, Score: p.Score, Kind: fromPiece(p.Kind)}
	}
	return Marshal(&Container{TrainerSpec: trainerSpec, NormalizerSpec: normalizerSpec, Pieces: wire})
}
