package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ollama/unigram/piece"
)

// VocabularyTSV formats pieces for the vocabulary TSV auxiliary output:
// "surface\tscore\n" per line, sorted by score descending (spec §6
// "Persisted auxiliary outputs"). This is a pure in-memory formatter; the
// actual file write is a collaborator's concern, out of scope here.
func VocabularyTSV(pieces []piece.Piece) string {
	sorted := append([]piece.Piece(nil), pieces...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Surface < sorted[j].Surface
	})

	var sb strings.Builder
	for _, p := range sorted {
		fmt.Fprintf(&sb, "%s\t%g\n", p.Surface, p.Score)
	}
	return sb.String()
}
