package text

import (
	"fmt"
	"strings"

	"github.com/galiihajiip/tulis.in/types"
)

// Validation is the outcome of checking a candidate rewrite against the
// protected spans of its source.
type Validation struct {
	Valid      bool
	Violations []string
}

// ValidateSpans checks that every protected span's text survives in the
// rewritten output. Containment anywhere is enough: spans may shift
// position, and neither occurrence count nor relative order is checked.
// Each missing span yields one violation naming its type and text.
func ValidateSpans(original, rewritten string, spans []types.ProtectedSpan) Validation {
	var violations []string
	for _, span := range spans {
		if !strings.Contains(rewritten, span.Text) {
			violations = append(violations,
				fmt.Sprintf("protected %s %q was modified or removed", span.Type, span.Text))
		}
	}
	return Validation{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}
