// Package store persists documents, rewrite jobs and document versions
// in SQLite. It is an external collaborator of the rewrite core: the
// engine never touches it.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/galiihajiip/tulis.in/types"
)

// ErrNotFound is returned when a document does not exist, is deleted,
// or belongs to another user.
var ErrNotFound = errors.New("store: not found")

// MaxVersionsPerDocument caps retained versions per document; the
// oldest version is evicted before a new one is inserted.
const MaxVersionsPerDocument = 20

// maxDocumentList caps the document listing.
const maxDocumentList = 50

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	content_original TEXT NOT NULL,
	user_id          TEXT NOT NULL,
	workspace_id     TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	deleted_at       INTEGER
);
CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id, updated_at);

CREATE TABLE IF NOT EXISTS document_versions (
	id                TEXT PRIMARY KEY,
	document_id       TEXT NOT NULL REFERENCES documents(id),
	content_rewritten BLOB NOT NULL,
	rewrite_params    TEXT NOT NULL,
	similarity_score  REAL NOT NULL,
	created_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_versions_document ON document_versions(document_id, created_at);

CREATE TABLE IF NOT EXISTS rewrite_jobs (
	id               TEXT PRIMARY KEY,
	document_id      TEXT NOT NULL REFERENCES documents(id),
	rewrite_params   TEXT NOT NULL,
	similarity_score REAL NOT NULL,
	latency_ms       INTEGER NOT NULL,
	token_usage      INTEGER,
	status           TEXT NOT NULL,
	created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_document ON rewrite_jobs(document_id, created_at);
`

// Document is a user text under rewriting.
type Document struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	ContentOriginal string     `json:"contentOriginal"`
	UserID          string     `json:"userId"`
	WorkspaceID     string     `json:"workspaceId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	DeletedAt       *time.Time `json:"deletedAt,omitempty"`
}

// Version is one retained rewrite of a document.
type Version struct {
	ID               string              `json:"id"`
	DocumentID       string              `json:"documentId"`
	ContentRewritten string              `json:"contentRewritten"`
	Params           types.RewriteParams `json:"rewriteParams"`
	SimilarityScore  float64             `json:"similarityScore"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// Job records one rewrite call made against a document. The similarity
// score is the trigram Jaccard of the returned result.
type Job struct {
	ID              string              `json:"id"`
	DocumentID      string              `json:"documentId"`
	Params          types.RewriteParams `json:"rewriteParams"`
	SimilarityScore float64             `json:"similarityScore"`
	LatencyMs       int64               `json:"latencyMs"`
	TokenUsage      *int                `json:"tokenUsage,omitempty"`
	Status          string              `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDocument inserts a new document and returns it.
func (s *Store) CreateDocument(userID, title, contentOriginal, workspaceID string) (*Document, error) {
	if title == "" {
		title = "Untitled Document"
	}
	now := time.Now().UTC()
	doc := &Document{
		ID:              uuid.NewString(),
		Title:           title,
		ContentOriginal: contentOriginal,
		UserID:          userID,
		WorkspaceID:     workspaceID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	_, err := s.db.Exec(
		`INSERT INTO documents (id, title, content_original, user_id, workspace_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.ContentOriginal, doc.UserID, doc.WorkspaceID,
		now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("store: create document: %w", err)
	}
	return doc, nil
}

// GetDocument returns the document with the given id owned by userID.
// Soft-deleted documents are not found.
func (s *Store) GetDocument(id, userID string) (*Document, error) {
	row := s.db.QueryRow(
		`SELECT id, title, content_original, user_id, workspace_id, created_at, updated_at
		 FROM documents WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		id, userID)
	return scanDocument(row)
}

// ListDocuments returns the user's documents, newest-updated first,
// capped at 50, excluding soft-deleted ones.
func (s *Store) ListDocuments(userID string) ([]Document, error) {
	rows, err := s.db.Query(
		`SELECT id, title, content_original, user_id, workspace_id, created_at, updated_at
		 FROM documents WHERE user_id = ? AND deleted_at IS NULL
		 ORDER BY updated_at DESC LIMIT ?`,
		userID, maxDocumentList)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// UpdateDocument updates title and/or original content. Nil fields are
// left unchanged. Returns ErrNotFound for missing, deleted or foreign
// documents.
func (s *Store) UpdateDocument(id, userID string, title, contentOriginal *string) error {
	doc, err := s.GetDocument(id, userID)
	if err != nil {
		return err
	}
	if title != nil {
		doc.Title = *title
	}
	if contentOriginal != nil {
		doc.ContentOriginal = *contentOriginal
	}
	res, err := s.db.Exec(
		`UPDATE documents SET title = ?, content_original = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		doc.Title, doc.ContentOriginal, time.Now().UTC().UnixMilli(), id, userID)
	if err != nil {
		return fmt.Errorf("store: update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDeleteDocument marks a document deleted; its versions and jobs
// remain.
func (s *Store) SoftDeleteDocument(id, userID string) error {
	_, err := s.db.Exec(
		`UPDATE documents SET deleted_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UTC().UnixMilli(), id, userID)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	return nil
}

// SaveVersion stores one rewrite result for a document, evicting the
// oldest versions so at most MaxVersionsPerDocument remain. Content is
// brotli-compressed at rest.
func (s *Store) SaveVersion(documentID, contentRewritten string, params types.RewriteParams, similarityScore float64) (*Version, error) {
	count, err := s.CountVersions(documentID)
	if err != nil {
		return nil, err
	}
	if excess := count - (MaxVersionsPerDocument - 1); excess > 0 {
		_, err := s.db.Exec(
			`DELETE FROM document_versions WHERE id IN (
				SELECT id FROM document_versions WHERE document_id = ?
				ORDER BY created_at ASC, rowid ASC LIMIT ?)`,
			documentID, excess)
		if err != nil {
			return nil, fmt.Errorf("store: evict versions: %w", err)
		}
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("store: marshal params: %w", err)
	}
	compressed, err := compress([]byte(contentRewritten))
	if err != nil {
		return nil, fmt.Errorf("store: compress version content: %w", err)
	}

	now := time.Now().UTC()
	v := &Version{
		ID:               uuid.NewString(),
		DocumentID:       documentID,
		ContentRewritten: contentRewritten,
		Params:           params,
		SimilarityScore:  similarityScore,
		CreatedAt:        now,
	}
	_, err = s.db.Exec(
		`INSERT INTO document_versions (id, document_id, content_rewritten, rewrite_params, similarity_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.DocumentID, compressed, string(paramsJSON), v.SimilarityScore, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("store: save version: %w", err)
	}
	return v, nil
}

// ListVersions returns up to limit versions of a document, newest
// first.
func (s *Store) ListVersions(documentID string, limit int) ([]Version, error) {
	if limit <= 0 || limit > MaxVersionsPerDocument {
		limit = MaxVersionsPerDocument
	}
	rows, err := s.db.Query(
		`SELECT id, document_id, content_rewritten, rewrite_params, similarity_score, created_at
		 FROM document_versions WHERE document_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		var compressed []byte
		var paramsJSON string
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.DocumentID, &compressed, &paramsJSON, &v.SimilarityScore, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan version: %w", err)
		}
		content, err := decompress(compressed)
		if err != nil {
			return nil, fmt.Errorf("store: decompress version content: %w", err)
		}
		v.ContentRewritten = string(content)
		if err := json.Unmarshal([]byte(paramsJSON), &v.Params); err != nil {
			return nil, fmt.Errorf("store: unmarshal params: %w", err)
		}
		v.CreatedAt = time.UnixMilli(createdAt).UTC()
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// CountVersions returns the number of retained versions for a document.
func (s *Store) CountVersions(documentID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM document_versions WHERE document_id = ?`, documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("store: count versions: %w", err)
	}
	return count, nil
}

// CreateJob records a completed rewrite call against a document.
func (s *Store) CreateJob(documentID string, params types.RewriteParams, similarityScore float64, latencyMs int64, tokenUsage *int, status string) (*Job, error) {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("store: marshal params: %w", err)
	}
	now := time.Now().UTC()
	job := &Job{
		ID:              uuid.NewString(),
		DocumentID:      documentID,
		Params:          params,
		SimilarityScore: similarityScore,
		LatencyMs:       latencyMs,
		TokenUsage:      tokenUsage,
		Status:          status,
		CreatedAt:       now,
	}
	var usage any
	if tokenUsage != nil {
		usage = *tokenUsage
	}
	_, err = s.db.Exec(
		`INSERT INTO rewrite_jobs (id, document_id, rewrite_params, similarity_score, latency_ms, token_usage, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.DocumentID, string(paramsJSON), job.SimilarityScore, job.LatencyMs, usage, job.Status, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("store: create job: %w", err)
	}
	return job, nil
}

// ListJobs returns up to limit jobs for a document, newest first.
func (s *Store) ListJobs(documentID string, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, document_id, rewrite_params, similarity_score, latency_ms, token_usage, status, created_at
		 FROM rewrite_jobs WHERE document_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var paramsJSON string
		var usage sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&j.ID, &j.DocumentID, &paramsJSON, &j.SimilarityScore, &j.LatencyMs, &usage, &j.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("store: scan job: %w", err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &j.Params); err != nil {
			return nil, fmt.Errorf("store: unmarshal params: %w", err)
		}
		if usage.Valid {
			u := int(usage.Int64)
			j.TokenUsage = &u
		}
		j.CreatedAt = time.UnixMilli(createdAt).UTC()
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Seed inserts the demo document used by local development, if absent.
func (s *Store) Seed() error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO documents (id, title, content_original, user_id, workspace_id, created_at, updated_at)
		 VALUES ('demo', 'Demo Document', 'Ini adalah contoh dokumen untuk mencoba fitur Tulis.in.',
		         'demo-user', 'demo-workspace', ?, ?)`,
		time.Now().UTC().UnixMilli(), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store: seed: %w", err)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var createdAt, updatedAt int64
	err := row.Scan(&doc.ID, &doc.Title, &doc.ContentOriginal, &doc.UserID, &doc.WorkspaceID, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan document: %w", err)
	}
	doc.CreatedAt = time.UnixMilli(createdAt).UTC()
	doc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &doc, nil
}
