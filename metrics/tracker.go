// Package metrics aggregates per-process rewrite statistics.
package metrics

import "sync"

// Snapshot is a point-in-time view of the tracker.
type Snapshot struct {
	TotalRewrites  int64   `json:"totalRewrites"`
	Accepted       int64   `json:"accepted"`
	Rejected       int64   `json:"rejected"`
	Failed         int64   `json:"failed"`
	AvgLatencyMs   float64 `json:"avgLatencyMs"`
	AvgSimilarity  float64 `json:"avgSimilarity"`
	TotalLatencyMs int64   `json:"totalLatencyMs"`
}

// Tracker counts rewrite outcomes. Safe for concurrent use.
type Tracker struct {
	mu              sync.Mutex
	total           int64
	accepted        int64
	rejected        int64
	failed          int64
	totalLatencyMs  int64
	totalSimilarity float64
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordRewrite records one completed rewrite call. rejected marks the
// fallback-to-identity outcome; similarity is the trigram Jaccard of
// the returned result.
func (t *Tracker) RecordRewrite(rejected bool, latencyMs int64, similarity float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if rejected {
		t.rejected++
	} else {
		t.accepted++
	}
	t.totalLatencyMs += latencyMs
	t.totalSimilarity += similarity
}

// RecordFailure records a rewrite call that failed at the provider.
func (t *Tracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failed++
}

// Snapshot returns the current aggregate view.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		TotalRewrites:  t.total,
		Accepted:       t.accepted,
		Rejected:       t.rejected,
		Failed:         t.failed,
		TotalLatencyMs: t.totalLatencyMs,
	}
	if t.total > 0 {
		snap.AvgLatencyMs = float64(t.totalLatencyMs) / float64(t.total)
		snap.AvgSimilarity = t.totalSimilarity / float64(t.total)
	}
	return snap
}
