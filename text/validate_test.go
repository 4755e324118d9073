package text

import (
	"strings"
	"testing"

	"github.com/galiihajiip/tulis.in/assert"
)

func TestValidateAlteredNumber(t *testing.T) {
	original := "The value is 42."
	spans := ExtractSpans(original, nil)

	result := ValidateSpans(original, "The value is 43.", spans)

	assert.False(t, result.Valid, "altered number invalid")
	assert.Equal(t, 1, len(result.Violations), "violation count")
	assert.True(t, strings.Contains(result.Violations[0], "42"), "violation names the span text")
	assert.True(t, strings.Contains(result.Violations[0], "number"), "violation names the span type")
}

func TestValidatePreservedSpansWithRewording(t *testing.T) {
	original := `The value is 42 and the quote is "test".`
	spans := ExtractSpans(original, nil)

	result := ValidateSpans(original, `The amount is 42 and the quote is "test".`, spans)

	assert.True(t, result.Valid, "preserved spans valid")
	assert.Equal(t, 0, len(result.Violations), "no violations")
}

func TestValidateSpanMayShiftPosition(t *testing.T) {
	original := "Visit https://example.com today."
	spans := ExtractSpans(original, nil)

	result := ValidateSpans(original, "Today you should visit https://example.com.", spans)

	assert.True(t, result.Valid, "shifted span still valid")
}

func TestValidateMultipleViolations(t *testing.T) {
	original := "Pay 100 by 12/31/2024 via https://pay.example.com now."
	spans := ExtractSpans(original, nil)

	result := ValidateSpans(original, "Pay soon via the usual channel.", spans)

	assert.False(t, result.Valid, "dropped spans invalid")
	assert.True(t, len(result.Violations) >= 2, "one violation per missing span")
}

func TestValidateNoSpans(t *testing.T) {
	result := ValidateSpans("plain words only", "different words entirely", nil)

	assert.True(t, result.Valid, "no spans means valid")
	assert.Equal(t, 0, len(result.Violations), "no violations without spans")
}
