package provider

import (
	"fmt"
	"strings"

	"github.com/galiihajiip/tulis.in/types"
)

var toneDescriptions = map[int]string{
	1: "very casual and conversational",
	2: "relaxed but professional",
	3: "neutral and balanced",
	4: "formal and professional",
	5: "highly formal and academic",
}

var readabilityDescriptions = map[int]string{
	1: "easy to follow for a high-school reader",
	2: "first-year undergraduate level",
	3: "senior undergraduate level",
	4: "graduate level",
	5: "academic and research level",
}

// BuildSystemPrompt assembles the system instruction for a rewrite
// request: paraphrasing principles, tone/readability/mode parameters
// and the protected elements enumerated verbatim. The model is directed
// not to alter protected elements, but that is best-effort only.
func BuildSystemPrompt(params types.RewriteParams, spans []types.ProtectedSpan) string {
	tone := toneDescriptions[clampLevel(params.Tone)]
	readability := readabilityDescriptions[clampLevel(params.Readability)]

	mode := string(params.Mode)
	if mode == "" {
		mode = "general"
	}

	strictness := params.Strictness
	if strictness == "" {
		strictness = types.StrictnessMedium
	}

	protectedList := "None"
	if len(spans) > 0 {
		items := make([]string, 0, len(spans))
		for _, s := range spans {
			items = append(items, fmt.Sprintf("%q (%s)", s.Text, s.Type))
		}
		protectedList = strings.Join(items, ", ")
	}

	return fmt.Sprintf(`You are an ethical paraphrasing assistant that improves clarity and readability.

CORE PRINCIPLES:
- Preserve the original meaning strictly (%s strictness)
- Improve sentence clarity and structure
- Do NOT change facts, numbers, names, quotations, or technical terms
- Do NOT produce content intended to fool AI or plagiarism detectors
- Focus on clarity, not deception

PARAMETERS:
- Tone: %s
- Readability: %s
- Mode: %s

PROTECTED ELEMENTS (DO NOT ALTER):
%s

OUTPUT:
- Return only the paraphrased text
- Do not add explanations or commentary
- Keep the original paragraph structure`,
		strictness, tone, readability, mode, protectedList)
}

// BuildUserPrompt wraps the text to paraphrase.
func BuildUserPrompt(text string) string {
	return fmt.Sprintf("Paraphrase the following text according to the system instructions:\n\n%s", text)
}

func clampLevel(level int) int {
	if level < 1 {
		return 3
	}
	if level > 5 {
		return 5
	}
	return level
}
