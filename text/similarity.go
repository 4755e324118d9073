package text

import (
	"math"
	"regexp"
	"strings"

	"github.com/galiihajiip/tulis.in/types"
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
)

// Score computes both similarity metrics between two texts. Both are
// symmetric, bounded in [0, 1], and independent of protected spans or
// rewrite parameters.
func Score(text1, text2 string) types.SimilarityMetrics {
	return types.SimilarityMetrics{
		TrigramJaccard: TrigramJaccard(text1, text2),
		TFIDFCosine:    TFIDFCosine(text1, text2),
	}
}

// TrigramJaccard returns the Jaccard index of the character-trigram
// sets of the two texts, lowercased with whitespace runs collapsed.
// If both trigram sets are empty the result is 0: a degenerate-input
// floor, not an equality signal.
func TrigramJaccard(text1, text2 string) float64 {
	t1 := trigrams(strings.ToLower(text1))
	t2 := trigrams(strings.ToLower(text2))

	intersection := 0
	for t := range t1 {
		if t2[t] {
			intersection++
		}
	}
	union := len(t1) + len(t2) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func trigrams(text string) map[string]bool {
	normalized := strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	runes := []rune(normalized)

	set := make(map[string]bool)
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = true
	}
	return set
}

// TFIDFCosine returns the cosine similarity of raw term-frequency
// vectors over the shared vocabulary of both texts. The name follows
// the wire field; no IDF weighting is applied. A zero-magnitude vector
// on either side yields 0.
func TFIDFCosine(text1, text2 string) float64 {
	words1 := tokenize(text1)
	words2 := tokenize(text2)

	counts1 := termCounts(words1)
	counts2 := termCounts(words2)

	vocab := make(map[string]bool, len(counts1)+len(counts2))
	for w := range counts1 {
		vocab[w] = true
	}
	for w := range counts2 {
		vocab[w] = true
	}

	var dot, mag1, mag2 float64
	for w := range vocab {
		f1 := float64(counts1[w])
		f2 := float64(counts2[w])
		dot += f1 * f2
		mag1 += f1 * f1
		mag2 += f2 * f2
	}

	magnitude := math.Sqrt(mag1) * math.Sqrt(mag2)
	if magnitude == 0 {
		return 0
	}
	// Proportional vectors can round to slightly above 1.
	return math.Min(1, dot/magnitude)
}

// tokenize lowercases, strips punctuation and splits on whitespace.
func tokenize(text string) []string {
	cleaned := punctuationRe.ReplaceAllString(strings.ToLower(text), "")
	return strings.Fields(cleaned)
}

func termCounts(words []string) map[string]int {
	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}
