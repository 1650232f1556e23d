package unigram

import (
	"fmt"
	"strings"

	"github.com/ollama/unigram/errs"
	"github.com/ollama/unigram/logutil"
	"github.com/ollama/unigram/normalizer"
)

// unkVisible is substituted for every UNK piece when decoding with
// showUnknown (spec §6 "Meta piece surfaces").
const unkVisible = " ⁇ "

// ExtraOption is one colon-separated token accepted by the encode/decode
// extra-options facade (spec §6 "Encode/Decode extra options").
type ExtraOption int

const (
	OptReverse ExtraOption = iota // reverse piece order
	OptBOS                        // prepend BOS
	OptEOS                        // append EOS
)

// ParseExtraOptions splits a colon-separated option string into
// ExtraOptions, erroring on any unrecognized token.
func ParseExtraOptions(spec string) ([]ExtraOption, error) {
	const op = "unigram.ParseExtraOptions"
	if spec == "" {
		return nil, nil
	}

	var opts []ExtraOption
	for _, tok := range strings.Split(spec, ":") {
		switch tok {
		case "reverse":
			opts = append(opts, OptReverse)
		case "bos":
			opts = append(opts, OptBOS)
		case "eos":
			opts = append(opts, OptEOS)
		default:
			return nil, errs.New(errs.InvalidArgument, op, fmt.Errorf("unknown extra option %q", tok))
		}
	}
	return opts, nil
}

// ApplyExtraOptions mutates pieces per opts, prepending/appending BOS/EOS
// surfaces resolved from idx and reversing order if requested. BOS/EOS
// application happens before reverse, matching the upstream convention that
// "reverse" describes the final emitted sequence.
func (m *Model) ApplyExtraOptions(pieces []Piece, opts []ExtraOption, bosID, eosID int32) []Piece {
	out := pieces
	var reverse bool
	for _, opt := range opts {
		switch opt {
		case OptBOS:
			bosSurface, _ := m.index.IDToPiece(bosID)
			out = append([]Piece{{Surface: bosSurface, ID: bosID}}, out...)
		case OptEOS:
			eosSurface, _ := m.index.IDToPiece(eosID)
			out = append(out, Piece{Surface: eosSurface, ID: eosID})
		case OptReverse:
			reverse = true
		}
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Decode reassembles pieces into normalized text, replacing the meta-space
// marker with a literal space. Invalid ids are elided with a trace-level log
// rather than failing the whole decode (spec §7 "Inference is never fatal on
// input data"). If showUnknown is set, UNK pieces render as unkVisible
// instead of their (typically empty or placeholder) surface.
func (m *Model) Decode(ids []int32, showUnknown bool) string {
	var sb strings.Builder
	for _, id := range ids {
		surface, err := m.index.IDToPiece(id)
		if err != nil {
			logutil.Trace("unigram.Decode: eliding out-of-range id", "id", id, "error", err)
			continue
		}
		if showUnknown && id == m.unkID {
			sb.WriteString(unkVisible)
			continue
		}
		sb.WriteString(surface)
	}
	return strings.ReplaceAll(sb.String(), normalizer.MetaSpace, " ")
}
