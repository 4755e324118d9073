package types

import "context"

// SpanType classifies a protected span.
type SpanType string

const (
	SpanNumber   SpanType = "number"
	SpanDate     SpanType = "date"
	SpanName     SpanType = "name" // reserved, no extractor rule populates it yet
	SpanQuote    SpanType = "quote"
	SpanURL      SpanType = "url"
	SpanCode     SpanType = "code"
	SpanGlossary SpanType = "glossary"
)

// ProtectedSpan is a substring of the normalized source text that must
// survive rewriting verbatim. Start/End are rune offsets, half-open
// [Start, End). Within one extraction result spans are sorted ascending
// by Start and pairwise non-overlapping, and Text equals the normalized
// source sliced at [Start:End].
type ProtectedSpan struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Text  string   `json:"text"`
	Type  SpanType `json:"type"`
}

// RewriteMode selects the overall rewriting style.
type RewriteMode string

const (
	ModeConcise      RewriteMode = "concise"
	ModeFormal       RewriteMode = "formal"
	ModeCasual       RewriteMode = "casual"
	ModeAcademic     RewriteMode = "academic"
	ModeStandardized RewriteMode = "standardized"
)

// Strictness controls how conservative the provider's sampling is.
type Strictness string

const (
	StrictnessLow    Strictness = "low"
	StrictnessMedium Strictness = "medium"
	StrictnessHigh   Strictness = "high"
)

// RewriteParams configures a single rewrite call.
// Tone and Readability run 1 (casual/basic) through 5 (formal/expert).
// An empty Mode means a general rewrite.
type RewriteParams struct {
	Mode        RewriteMode `json:"mode,omitempty"`
	Tone        int         `json:"tone"`
	Readability int         `json:"readability"`
	Strictness  Strictness  `json:"strictness"`
	Glossary    []string    `json:"glossary,omitempty"`
}

// SimilarityMetrics holds symmetric similarity scores in [0, 1] between
// two texts. SemanticSimilarity is reserved for callers that compute it
// out of band; the core never sets it.
type SimilarityMetrics struct {
	TrigramJaccard     float64  `json:"trigramJaccard"`
	TFIDFCosine        float64  `json:"tfidfCosine"`
	SemanticSimilarity *float64 `json:"semanticSimilarity,omitempty"`
}

// DiffType is the kind of a diff token.
type DiffType string

const (
	DiffEqual  DiffType = "equal"
	DiffInsert DiffType = "insert"
	DiffDelete DiffType = "delete"
)

// DiffToken is one run of a diff between two texts. Concatenating the
// Text of equal+delete tokens reconstructs the first input exactly;
// equal+insert reconstructs the second.
type DiffToken struct {
	Type DiffType `json:"type"`
	Text string   `json:"text"`
}

// RewriteMetadata carries per-call bookkeeping.
type RewriteMetadata struct {
	LatencyMs  int64 `json:"latencyMs"`
	TokenUsage *int  `json:"tokenUsage,omitempty"`
}

// RewriteResult is the engine's output for one rewrite call.
// When the candidate was rejected for altering protected content,
// Rewritten equals Original, Diff is empty and both similarity metrics
// are 1.0.
type RewriteResult struct {
	Original       string            `json:"original"`
	Rewritten      string            `json:"rewritten"`
	Diff           []DiffToken       `json:"diff"`
	Similarity     SimilarityMetrics `json:"similarity"`
	ProtectedSpans []ProtectedSpan   `json:"protectedSpans"`
	Metadata       RewriteMetadata   `json:"metadata"`
}

// Provider turns text plus rewrite parameters into a candidate rewrite.
// Implementations are network-bound, non-deterministic, may fail, and
// must be safe for concurrent use. The protected spans are passed so the
// provider can instruct the model to leave them untouched; that
// instruction is best-effort and enforcement happens after the fact in
// the engine.
type Provider interface {
	Rewrite(ctx context.Context, text string, params RewriteParams, spans []ProtectedSpan) (string, error)
}

// ProviderConfig holds configuration for rewrite providers. It is filled
// by the bootstrap layer; packages below it never read the environment.
type ProviderConfig struct {
	BaseURL     string  // e.g. "https://api.openai.com/v1"
	APIKey      string  // bearer token for authenticated requests
	Model       string  // model name
	MaxTokens   int     // max tokens to generate
	Temperature float64 // sampling temperature override (0 = derive from strictness)
	TimeoutMs   int     // HTTP client timeout in milliseconds (0 = no timeout)
}
