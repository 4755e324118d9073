package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galiihajiip/tulis.in/engine"
	"github.com/galiihajiip/tulis.in/metrics"
	"github.com/galiihajiip/tulis.in/store"
	"github.com/galiihajiip/tulis.in/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	fn func(text string, params types.RewriteParams) (string, error)
}

func (p *stubProvider) Rewrite(_ context.Context, text string, params types.RewriteParams, _ []types.ProtectedSpan) (string, error) {
	return p.fn(text, params)
}

func newTestServer(t *testing.T, fn func(text string, params types.RewriteParams) (string, error)) (*Server, *store.Store) {
	t.Helper()
	if fn == nil {
		fn = func(text string, _ types.RewriteParams) (string, error) { return text, nil }
	}
	eng, err := engine.New(&stubProvider{fn: fn})
	require.NoError(t, err)
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(eng, st, metrics.NewTracker()), st
}

func doJSON(t *testing.T, s *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("x-user-id", user)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRewriteEndpoint(t *testing.T) {
	s, _ := newTestServer(t, func(text string, _ types.RewriteParams) (string, error) {
		return "Pendapatan mencapai 42 unit.", nil
	})

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", gin.H{
		"text":   "Pendapatan sebesar 42 unit.",
		"params": gin.H{"mode": "formal"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.RewriteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "Pendapatan mencapai 42 unit.", result.Rewritten)
	assert.NotEmpty(t, result.Diff)
	require.Len(t, result.ProtectedSpans, 1)
	assert.Equal(t, "42", result.ProtectedSpans[0].Text)
}

func TestRewriteRequiresUser(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "", gin.H{"text": "halo"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRewriteRequiresText(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", gin.H{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRewriteRateLimit(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := gin.H{"text": "halo dunia"}
	for i := 0; i < rewriteRatePerMinute; i++ {
		w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", body)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Limits are per user.
	w = doJSON(t, s, http.MethodPost, "/api/rewrite", "user-2", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRewritePersistsJobAndVersion(t *testing.T) {
	s, st := newTestServer(t, func(text string, _ types.RewriteParams) (string, error) {
		return "Teks hasil tulis ulang.", nil
	})

	doc, err := st.CreateDocument("user-1", "Doc", "Teks awal.", "")
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", gin.H{
		"text":       "Teks awal.",
		"documentId": doc.ID,
		"params":     gin.H{"mode": "concise"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	jobs, err := st.ListJobs(doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "completed", jobs[0].Status)

	versions, err := st.ListVersions(doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "Teks hasil tulis ulang.", versions[0].ContentRewritten)
}

func TestRewriteRejectionSkipsVersion(t *testing.T) {
	// Provider drops the protected number, so the candidate is rejected.
	s, st := newTestServer(t, func(_ string, _ types.RewriteParams) (string, error) {
		return "Pendapatan naik 43 persen.", nil
	})

	doc, err := st.CreateDocument("user-1", "Doc", "Pendapatan naik 42 persen.", "")
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", gin.H{
		"text":       "Pendapatan naik 42 persen.",
		"documentId": doc.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result types.RewriteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, result.Original, result.Rewritten)

	jobs, err := st.ListJobs(doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "rejected", jobs[0].Status)

	versions, err := st.ListVersions(doc.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, versions, "rejected rewrites must not create versions")
}

func TestRewriteUnknownDocument(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", gin.H{
		"text":       "halo",
		"documentId": "missing",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentEndpoints(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/documents", "user-1", gin.H{
		"title":   "Laporan",
		"content": "Isi laporan.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var doc store.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))

	w = doJSON(t, s, http.MethodGet, "/api/documents", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Documents []store.Document `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Documents, 1)

	w = doJSON(t, s, http.MethodGet, "/api/documents/"+doc.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Document store.Document  `json:"document"`
		Versions []store.Version `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Laporan", got.Document.Title)
	assert.Empty(t, got.Versions)

	w = doJSON(t, s, http.MethodPatch, "/api/documents/"+doc.ID, "user-1", gin.H{"title": "Laporan Q1"})
	require.Equal(t, http.StatusOK, w.Code)
	var updated store.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Laporan Q1", updated.Title)

	w = doJSON(t, s, http.MethodDelete, "/api/documents/"+doc.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/documents/"+doc.ID, "user-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentOwnershipEnforced(t *testing.T) {
	s, st := newTestServer(t, nil)

	doc, err := st.CreateDocument("user-1", "Private", "rahasia", "")
	require.NoError(t, err)

	w := doJSON(t, s, http.MethodGet, "/api/documents/"+doc.ID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/api/documents/"+doc.ID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := doJSON(t, s, http.MethodPost, "/api/rewrite", "user-1", gin.H{"text": "halo dunia"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s, http.MethodGet, "/api/stats", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.TotalRewrites)
}
