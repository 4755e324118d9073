package text

import (
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/galiihajiip/tulis.in/types"
)

// Diff computes the edit script between two texts as an ordered token
// stream. The raw character-level diff is passed through semantic
// cleanup, which merges short choppy edit runs into larger coherent
// blocks for readability at the cost of edit-script minimality. The
// concatenation of equal+delete token text reconstructs text1 exactly
// and equal+insert reconstructs text2.
func Diff(text1, text2 string) []types.DiffToken {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(text1, text2, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	tokens := make([]types.DiffToken, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		tokens = append(tokens, types.DiffToken{
			Type: tokenType(d.Type),
			Text: d.Text,
		})
	}
	return tokens
}

func tokenType(op diffmatchpatch.Operation) types.DiffType {
	switch op {
	case diffmatchpatch.DiffInsert:
		return types.DiffInsert
	case diffmatchpatch.DiffDelete:
		return types.DiffDelete
	default:
		return types.DiffEqual
	}
}

// DiffCounts returns the total inserted and deleted rune counts of a
// token stream, for reporting how much a rewrite changed.
func DiffCounts(tokens []types.DiffToken) (insertions, deletions int) {
	for _, t := range tokens {
		switch t.Type {
		case types.DiffInsert:
			insertions += utf8.RuneCountInString(t.Text)
		case types.DiffDelete:
			deletions += utf8.RuneCountInString(t.Text)
		}
	}
	return insertions, deletions
}
