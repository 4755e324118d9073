package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galiihajiip/tulis.in/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocumentLifecycle(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.CreateDocument("user-1", "Laporan", "Pendapatan naik 42%.", "ws-1")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Laporan", doc.Title)

	got, err := s.GetDocument(doc.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Pendapatan naik 42%.", got.ContentOriginal)
	assert.Equal(t, "ws-1", got.WorkspaceID)

	newTitle := "Laporan Q1"
	require.NoError(t, s.UpdateDocument(doc.ID, "user-1", &newTitle, nil))
	got, err = s.GetDocument(doc.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Laporan Q1", got.Title)
	assert.Equal(t, "Pendapatan naik 42%.", got.ContentOriginal, "nil content must leave the original untouched")

	require.NoError(t, s.SoftDeleteDocument(doc.ID, "user-1"))
	_, err = s.GetDocument(doc.ID, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentOwnership(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.CreateDocument("user-1", "Private", "rahasia", "")
	require.NoError(t, err)

	_, err = s.GetDocument(doc.ID, "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	title := "hijacked"
	assert.ErrorIs(t, s.UpdateDocument(doc.ID, "user-2", &title, nil), ErrNotFound)
}

func TestCreateDocumentDefaultTitle(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.CreateDocument("user-1", "", "isi", "")
	require.NoError(t, err)
	assert.Equal(t, "Untitled Document", doc.Title)
}

func TestListDocumentsExcludesDeleted(t *testing.T) {
	s := openTestStore(t)

	kept, err := s.CreateDocument("user-1", "Kept", "a", "")
	require.NoError(t, err)
	gone, err := s.CreateDocument("user-1", "Gone", "b", "")
	require.NoError(t, err)
	_, err = s.CreateDocument("user-2", "Other", "c", "")
	require.NoError(t, err)

	require.NoError(t, s.SoftDeleteDocument(gone.ID, "user-1"))

	docs, err := s.ListDocuments("user-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, kept.ID, docs[0].ID)
}

func TestVersionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.CreateDocument("user-1", "Doc", "teks asli", "")
	require.NoError(t, err)

	params := types.RewriteParams{Mode: types.ModeFormal, Tone: 4, Readability: 3, Strictness: types.StrictnessHigh}
	content := "Teks yang telah ditulis ulang dengan “kutipan” dan emoji \U0001F600."
	v, err := s.SaveVersion(doc.ID, content, params, 0.82)
	require.NoError(t, err)
	assert.Equal(t, content, v.ContentRewritten)

	versions, err := s.ListVersions(doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, content, versions[0].ContentRewritten, "content must survive compression")
	assert.Equal(t, params, versions[0].Params)
	assert.InDelta(t, 0.82, versions[0].SimilarityScore, 1e-9)
}

func TestVersionRetentionEvictsOldest(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.CreateDocument("user-1", "Doc", "teks", "")
	require.NoError(t, err)

	params := types.RewriteParams{Mode: types.ModeConcise}
	for i := 0; i < MaxVersionsPerDocument+5; i++ {
		_, err := s.SaveVersion(doc.ID, fmt.Sprintf("versi %02d", i), params, 0.9)
		require.NoError(t, err)
	}

	count, err := s.CountVersions(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, MaxVersionsPerDocument, count)

	versions, err := s.ListVersions(doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, versions, MaxVersionsPerDocument)
	assert.Equal(t, "versi 24", versions[0].ContentRewritten, "newest first")
	assert.Equal(t, "versi 05", versions[len(versions)-1].ContentRewritten, "oldest five evicted")
}

func TestCreateJob(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.CreateDocument("user-1", "Doc", "teks", "")
	require.NoError(t, err)

	usage := 128
	params := types.RewriteParams{Mode: types.ModeAcademic, Strictness: types.StrictnessMedium}
	job, err := s.CreateJob(doc.ID, params, 0.75, 950, &usage, "completed")
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)

	_, err = s.CreateJob(doc.ID, params, 1.0, 12, nil, "rejected")
	require.NoError(t, err)

	jobs, err := s.ListJobs(doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "rejected", jobs[0].Status)
	assert.Nil(t, jobs[0].TokenUsage)
	assert.Equal(t, "completed", jobs[1].Status)
	require.NotNil(t, jobs[1].TokenUsage)
	assert.Equal(t, 128, *jobs[1].TokenUsage)
	assert.Equal(t, params, jobs[1].Params)
}

func TestSeedIdempotent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Seed())
	require.NoError(t, s.Seed())

	doc, err := s.GetDocument("demo", "demo-user")
	require.NoError(t, err)
	assert.Equal(t, "Demo Document", doc.Title)
}
