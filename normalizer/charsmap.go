package normalizer

import (
	"encoding/binary"
	"fmt"

	"github.com/ollama/unigram/errs"
)

// charsMap is the parsed form of a precompiled charsmap blob (spec §6
// "Normalizer precompiled blob"): a double-array trie over source byte
// sequences, keyed to offsets into a "\0"-delimited buffer of replacement
// byte sequences.
//
// The wire layout and traversal (GetBase/GetLCheck/GetLeaf/GetValue) are
// grounded on the teacher's xcdaArrayView (ollama/tokenizer/unigram.go),
// which reads the same double-array-trie format SentencePiece emits. That
// version decodes the blob with unsafe.Slice for zero-copy access; this
// port uses encoding/binary instead, trading a copy for portability across
// platforms where the blob isn't 4-byte aligned in memory — the charsmap is
// built once per model load, not on the encode hot path, so the copy is not
// a relevant cost.
type charsMap struct {
	array        []uint32
	replacements []byte
}

const xcdaNodeSize = 4 // bytes per packed uint32 node

func parseCharsMap(blob []byte) (*charsMap, error) {
	const op = "normalizer.parseCharsMap"

	if len(blob) < 4 {
		return nil, errs.New(errs.DataLoss, op, fmt.Errorf("precompiled charsmap too short (%d bytes)", len(blob)))
	}

	trieSize := binary.LittleEndian.Uint32(blob[:4])
	offset := 4
	if int(trieSize)+offset > len(blob) {
		return nil, errs.New(errs.DataLoss, op, fmt.Errorf("trie size %d exceeds blob bounds", trieSize))
	}
	if trieSize%xcdaNodeSize != 0 {
		return nil, errs.New(errs.DataLoss, op, fmt.Errorf("trie size %d is not a multiple of %d", trieSize, xcdaNodeSize))
	}

	trieBytes := blob[offset : offset+int(trieSize)]
	array := make([]uint32, len(trieBytes)/xcdaNodeSize)
	for i := range array {
		array[i] = binary.LittleEndian.Uint32(trieBytes[i*xcdaNodeSize:])
	}

	return &charsMap{
		array:        array,
		replacements: blob[offset+int(trieSize):],
	}, nil
}

func (c *charsMap) node(index uint32) (uint32, error) {
	if int(index) >= len(c.array) {
		return 0, fmt.Errorf("charsmap node index %d out of bounds (len=%d)", index, len(c.array))
	}
	return c.array[index], nil
}

func (c *charsMap) base(index uint32) (uint32, error) {
	packed, err := c.node(index)
	if err != nil {
		return 0, err
	}
	shift := (packed & (1 << 9)) >> 6
	return (packed >> 10) << shift, nil
}

func (c *charsMap) lcheck(index uint32) (uint32, error) {
	packed, err := c.node(index)
	if err != nil {
		return 0, err
	}
	return packed & ((1 << 31) | 0xff), nil
}

func (c *charsMap) leaf(index uint32) (bool, error) {
	packed, err := c.node(index)
	if err != nil {
		return false, err
	}
	return (packed>>8)&1 == 1, nil
}

func (c *charsMap) value(index uint32) (uint32, error) {
	packed, err := c.node(index)
	if err != nil {
		return 0, err
	}
	return packed & ((1 << 31) - 1), nil
}

// replacementAt returns the "\0"-terminated replacement string stored at
// byte offset into the replacements buffer.
func (c *charsMap) replacementAt(offset uint32) (string, error) {
	if int(offset) >= len(c.replacements) {
		return "", fmt.Errorf("replacement offset %d out of bounds (len=%d)", offset, len(c.replacements))
	}
	rest := c.replacements[offset:]
	for i, b := range rest {
		if b == 0 {
			return string(rest[:i]), nil
		}
	}
	return "", fmt.Errorf("unterminated replacement string at offset %d", offset)
}

// longestMatch finds the longest prefix of input matched by the trie,
// returning the byte length consumed and its replacement. ok is false if no
// prefix matched.
func (c *charsMap) longestMatch(input string) (consumed int, replacement string, ok bool, err error) {
	if len(c.array) == 0 || input == "" {
		return 0, "", false, nil
	}

	nodeIndex, err := c.base(0)
	if err != nil {
		return 0, "", false, err
	}

	var matchedLen int
	var matchedValueIndex uint32

	for offset := 0; offset < len(input); offset++ {
		b := uint32(input[offset])
		if b == 0 {
			break
		}

		nodeIndex ^= b

		lc, err := c.lcheck(nodeIndex)
		if err != nil {
			return 0, "", false, err
		}
		if lc != b {
			break
		}

		isLeaf, err := c.leaf(nodeIndex)
		if err != nil {
			return 0, "", false, err
		}

		base, err := c.base(nodeIndex)
		if err != nil {
			return 0, "", false, err
		}
		nodeIndex ^= base

		if isLeaf {
			matchedLen = offset + 1
			matchedValueIndex, err = c.value(nodeIndex)
			if err != nil {
				return 0, "", false, err
			}
		}
	}

	if matchedLen == 0 {
		return 0, "", false, nil
	}

	replacement, err = c.replacementAt(matchedValueIndex)
	if err != nil {
		return 0, "", false, err
	}
	return matchedLen, replacement, true, nil
}
