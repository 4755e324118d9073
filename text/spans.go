package text

import (
	"regexp"
	"sort"
	"strings"

	"github.com/galiihajiip/tulis.in/types"
)

var (
	// Integers and decimals (comma or dot separator), optional trailing
	// percent, word-bounded.
	numberRe = regexp.MustCompile(`\b\d+([.,]\d+)?%?\b`)
	// D-M-Y or Y-M-D with either - or / as separator.
	dateRe = regexp.MustCompile(`\b\d{1,2}[-/]\d{1,2}[-/]\d{2,4}\b|\b\d{4}[-/]\d{1,2}[-/]\d{1,2}\b`)
	// Quoted runs, marks included in the span.
	quoteRe = regexp.MustCompile(`["']([^"']+)["']`)
	urlRe   = regexp.MustCompile(`https?://[^\s]+`)
	// Backtick-delimited code, backticks included in the span.
	codeRe = regexp.MustCompile("`([^`]+)`")
)

// detector finds all protected spans of one category in the text.
// Each category is scanned independently; overlaps are resolved in a
// shared merge pass so new categories can be added without touching
// existing ones. The "name" span type has no detector.
type detector func(text string) []types.ProtectedSpan

// ExtractSpans scans the normalized text and returns the protected
// spans: numbers, dates, quotes, URLs, code fragments and any glossary
// terms, sorted by start offset with overlaps merged. The result is
// pairwise non-overlapping and each span's Text equals the source text
// at its rune range.
func ExtractSpans(text string, glossary []string) []types.ProtectedSpan {
	if text == "" {
		return nil
	}

	detectors := []detector{
		regexDetector(numberRe, types.SpanNumber),
		regexDetector(dateRe, types.SpanDate),
		regexDetector(quoteRe, types.SpanQuote),
		regexDetector(urlRe, types.SpanURL),
		regexDetector(codeRe, types.SpanCode),
		glossaryDetector(glossary),
	}

	var pool []types.ProtectedSpan
	for _, detect := range detectors {
		pool = append(pool, detect(text)...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Start < pool[j].Start
	})

	return mergeSpans(pool)
}

// regexDetector builds a detector from a compiled pattern and the span
// type it produces.
func regexDetector(re *regexp.Regexp, typ types.SpanType) detector {
	return func(text string) []types.ProtectedSpan {
		return matchSpans(text, re, typ)
	}
}

// glossaryDetector matches each user-supplied term case-insensitively,
// word-bounded and literally. Terms are escaped so regex metacharacters
// in them have no effect.
func glossaryDetector(glossary []string) detector {
	return func(text string) []types.ProtectedSpan {
		var spans []types.ProtectedSpan
		for _, term := range glossary {
			if strings.TrimSpace(term) == "" {
				continue
			}
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
			if err != nil {
				continue
			}
			spans = append(spans, matchSpans(text, re, types.SpanGlossary)...)
		}
		return spans
	}
}

// matchSpans runs the pattern over the text and converts every match to
// a span with rune offsets.
func matchSpans(text string, re *regexp.Regexp, typ types.SpanType) []types.ProtectedSpan {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	toRune := runeOffsets(text)
	spans := make([]types.ProtectedSpan, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, types.ProtectedSpan{
			Start: toRune[m[0]],
			End:   toRune[m[1]],
			Text:  text[m[0]:m[1]],
			Type:  typ,
		})
	}
	return spans
}

// mergeSpans folds overlapping or touching spans (sorted by start) into
// single spans. A later span extends the accumulated one by the part of
// its text past the accumulated end, so the merged Text still equals the
// source at [Start:End]. The first-inserted span keeps its type.
func mergeSpans(spans []types.ProtectedSpan) []types.ProtectedSpan {
	if len(spans) == 0 {
		return nil
	}

	merged := []types.ProtectedSpan{spans[0]}
	for _, cur := range spans[1:] {
		last := &merged[len(merged)-1]
		if cur.Start > last.End {
			merged = append(merged, cur)
			continue
		}
		if cur.End > last.End {
			tail := []rune(cur.Text)[last.End-cur.Start:]
			last.Text += string(tail)
			last.End = cur.End
		}
	}
	return merged
}

// runeOffsets maps every byte offset at a rune boundary (including
// len(text)) to its rune offset.
func runeOffsets(text string) map[int]int {
	offsets := make(map[int]int, len(text)+1)
	runeIdx := 0
	for byteIdx := range text {
		offsets[byteIdx] = runeIdx
		runeIdx++
	}
	offsets[len(text)] = runeIdx
	return offsets
}
