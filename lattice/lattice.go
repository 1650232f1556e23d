// Package lattice implements component C3: the segmentation DAG over a
// normalized string, with Viterbi, N-best (A*), forward/backward marginals,
// and ancestral sampling (spec §4.3).
package lattice

import (
	"unicode/utf8"

	"github.com/ollama/unigram/errs"
)

// NodeRef is a handle into a Lattice's node arena. The zero value refers to
// the first arena node (BOS after SetSentence); use NoNode for "none".
type NodeRef int32

// NoNode is the sentinel "no predecessor" reference.
const NoNode NodeRef = -1

// Node is a candidate piece spanning [Pos, Pos+Length) characters.
// ID == -1 marks the synthetic BOS/EOS sentinels (spec §3 "Node").
type Node struct {
	Pos            uint32
	Length         uint32
	ID             int32
	Score          float32
	BacktraceScore float32
	Prev           NodeRef
}

// Lattice is a DAG of candidate pieces over one normalized sentence. It owns
// every Node in an arena reused across calls to Reset, per spec §5 "Memory
// discipline" — Reset drops the logical length without releasing the
// backing array, so repeated use within one worker goroutine amortizes
// allocation.
type Lattice struct {
	text  string
	chars []int // chars[i] = byte offset of the i-th character; len = numChars+1

	arena      []Node
	beginNodes [][]NodeRef // size numChars+1
	endNodes   [][]NodeRef // size numChars+1

	bos NodeRef
	eos NodeRef
}

// New returns an empty Lattice ready for SetSentence.
func New() *Lattice {
	return &Lattice{bos: NoNode, eos: NoNode}
}

// Reset clears the lattice's state for reuse without releasing the arena's
// backing storage.
func (l *Lattice) Reset() {
	l.text = ""
	l.chars = l.chars[:0]
	l.arena = l.arena[:0]
	l.beginNodes = l.beginNodes[:0]
	l.endNodes = l.endNodes[:0]
	l.bos = NoNode
	l.eos = NoNode
}

// NumChars returns the number of characters in the current sentence.
func (l *Lattice) NumChars() int {
	if len(l.chars) == 0 {
		return 0
	}
	return len(l.chars) - 1
}

// Text returns the normalized text the lattice was built over.
func (l *Lattice) Text() string { return l.text }

// ByteRange returns the [start, end) byte offsets of the character span
// [pos, pos+length).
func (l *Lattice) ByteRange(pos, length uint32) (start, end int) {
	return l.chars[pos], l.chars[pos+length]
}

// Surface returns the substring of the normalized text spanned by node.
func (l *Lattice) Surface(ref NodeRef) string {
	n := l.arena[ref]
	start, end := l.ByteRange(n.Pos, n.Length)
	return l.text[start:end]
}

// SetSentence resets the lattice and installs text as the sentence to
// segment, placing the BOS/EOS sentinels (spec §4.3 "set_sentence").
func (l *Lattice) SetSentence(text string) {
	l.Reset()
	l.text = text

	l.chars = append(l.chars, 0)
	for i := 0; i < len(text); {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
		l.chars = append(l.chars, i)
	}

	n := len(l.chars) // numChars+1
	l.beginNodes = make([][]NodeRef, n)
	l.endNodes = make([][]NodeRef, n)

	numChars := n - 1
	l.bos = l.newNode(0, 0, -1, 0)
	l.endNodes[0] = append(l.endNodes[0], l.bos)

	l.eos = l.newNode(uint32(numChars), 0, -1, 0)
	l.beginNodes[numChars] = append(l.beginNodes[numChars], l.eos)
}

func (l *Lattice) newNode(pos, length uint32, id int32, score float32) NodeRef {
	l.arena = append(l.arena, Node{Pos: pos, Length: length, ID: id, Score: score, Prev: NoNode})
	return NodeRef(len(l.arena) - 1)
}

// Insert attaches a candidate piece spanning characters [pos, pos+length)
// and returns its reference. The caller must set ID and Score afterward via
// SetPiece (spec §4.3 "insert").
func (l *Lattice) Insert(pos, length int) NodeRef {
	ref := l.newNode(uint32(pos), uint32(length), 0, 0)
	l.beginNodes[pos] = append(l.beginNodes[pos], ref)
	l.endNodes[pos+length] = append(l.endNodes[pos+length], ref)
	return ref
}

// SetPiece fills in the id/score of a node created by Insert.
func (l *Lattice) SetPiece(ref NodeRef, id int32, score float32) {
	l.arena[ref].ID = id
	l.arena[ref].Score = score
}

// Node returns a copy of the node at ref.
func (l *Lattice) Node(ref NodeRef) Node { return l.arena[ref] }

// BOS and EOS return the sentinel node references.
func (l *Lattice) BOS() NodeRef { return l.bos }
func (l *Lattice) EOS() NodeRef { return l.eos }

// BeginNodes returns the candidates starting at character position pos.
func (l *Lattice) BeginNodes(pos int) []NodeRef { return l.beginNodes[pos] }

// EndNodes returns the candidates ending at character position pos.
func (l *Lattice) EndNodes(pos int) []NodeRef { return l.endNodes[pos] }

func internalErr(op, msg string) error {
	return errs.New(errs.Internal, op, errInternal(msg))
}

type errInternal string

func (e errInternal) Error() string { return string(e) }
