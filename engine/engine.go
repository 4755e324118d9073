// Package engine orchestrates the rewrite pipeline: normalize the
// input, extract protected spans, invoke the rewrite provider, verify
// the spans survived, then score and diff the result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/galiihajiip/tulis.in/logger"
	"github.com/galiihajiip/tulis.in/text"
	"github.com/galiihajiip/tulis.in/types"
)

// ErrNoProvider is returned by New when no provider is supplied.
var ErrNoProvider = errors.New("engine: no rewrite provider")

// Engine runs rewrite calls against an injected provider. It holds no
// per-call state: every Rewrite call is an independent unit of work and
// the engine is safe for concurrent use as long as its provider is.
type Engine struct {
	provider types.Provider
}

// New creates an engine around the given provider. The provider is
// opaque to the engine: it only has to produce a candidate text, may
// suspend, may fail, and is never assumed deterministic.
func New(provider types.Provider) (*Engine, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	return &Engine{provider: provider}, nil
}

// Rewrite runs the full pipeline for one text. It fails only when the
// provider fails; a candidate that alters protected content is not an
// error but a policy outcome, answered with an identity result (see
// identityResult). No retries happen here; retry policy belongs to the
// caller, as does cancellation via ctx.
func (e *Engine) Rewrite(ctx context.Context, input string, params types.RewriteParams) (*types.RewriteResult, error) {
	defer logger.Trace("engine rewrite")()
	start := time.Now()

	// 1. Normalize: all downstream offsets are relative to this text.
	normalized := text.Normalize(input)

	// 2. Extract protected spans, including the user glossary.
	spans := text.ExtractSpans(normalized, params.Glossary)

	// 3. Invoke the provider. The only suspension point in the
	// pipeline; a failure here is fatal for the call.
	candidate, err := e.provider.Rewrite(ctx, normalized, params, spans)
	if err != nil {
		return nil, fmt.Errorf("engine: provider: %w", err)
	}
	if strings.TrimSpace(candidate) == "" {
		// Treat a missing response as "no change" to keep the pipeline
		// total.
		candidate = normalized
	}

	// 4. Validate that every protected span survived.
	validation := text.ValidateSpans(normalized, candidate, spans)
	if !validation.Valid {
		logger.Warn("engine: rejecting rewrite, %d protected span violation(s): %s",
			len(validation.Violations), strings.Join(validation.Violations, "; "))
		return identityResult(normalized, spans, start), nil
	}

	// 5 + 6. Score similarity and compute the diff.
	similarity := text.Score(normalized, candidate)
	diff := text.Diff(normalized, candidate)

	return &types.RewriteResult{
		Original:       normalized,
		Rewritten:      candidate,
		Diff:           diff,
		Similarity:     similarity,
		ProtectedSpans: spans,
		Metadata: types.RewriteMetadata{
			LatencyMs: time.Since(start).Milliseconds(),
		},
	}, nil
}

// identityResult is the fallback returned when validation fails: both
// texts equal the normalized input, the diff is empty and similarity is
// exact identity. Callers cannot tell it apart from a genuine no-op
// without consulting the violation log; that is the accepted cost of
// guaranteeing protected content is never altered in anything returned.
func identityResult(normalized string, spans []types.ProtectedSpan, start time.Time) *types.RewriteResult {
	return &types.RewriteResult{
		Original:  normalized,
		Rewritten: normalized,
		Diff:      []types.DiffToken{},
		Similarity: types.SimilarityMetrics{
			TrigramJaccard: 1,
			TFIDFCosine:    1,
		},
		ProtectedSpans: spans,
		Metadata: types.RewriteMetadata{
			LatencyMs: time.Since(start).Milliseconds(),
		},
	}
}

// IsRejection reports whether a result has the shape of a rejected (or
// trivially unchanged) rewrite: identical texts and an empty diff.
func IsRejection(r *types.RewriteResult) bool {
	return r.Original == r.Rewritten && len(r.Diff) == 0
}
