// Package server exposes the rewrite engine and document store over
// HTTP. Authentication is a trusted x-user-id header; upstream proxies
// are expected to have verified the user.
package server

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/galiihajiip/tulis.in/engine"
	"github.com/galiihajiip/tulis.in/logger"
	"github.com/galiihajiip/tulis.in/metrics"
	"github.com/galiihajiip/tulis.in/store"
	"github.com/galiihajiip/tulis.in/types"
)

// rewriteRatePerMinute caps rewrite calls per user per minute.
const rewriteRatePerMinute = 10

// Server wires the engine, store and metrics tracker behind a gin
// router.
type Server struct {
	engine  *engine.Engine
	store   *store.Store
	tracker *metrics.Tracker
	router  *gin.Engine

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a Server. The store is required; callers that only need
// stateless rewrites should still pass an in-memory store.
func New(eng *engine.Engine, st *store.Store, tracker *metrics.Tracker) *Server {
	s := &Server{
		engine:   eng,
		store:    st,
		tracker:  tracker,
		limiters: make(map[string]*rate.Limiter),
	}

	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/rewrite", s.handleRewrite)
	api.GET("/documents", s.handleListDocuments)
	api.POST("/documents", s.handleCreateDocument)
	api.GET("/documents/:id", s.handleGetDocument)
	api.PATCH("/documents/:id", s.handleUpdateDocument)
	api.DELETE("/documents/:id", s.handleDeleteDocument)
	api.GET("/stats", s.handleStats)

	s.router = router
	return s
}

// Handler returns the HTTP handler for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(time.Minute/rewriteRatePerMinute), rewriteRatePerMinute)
		s.limiters[userID] = lim
	}
	return lim
}

func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("x-user-id")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing x-user-id header"})
		return "", false
	}
	return id, true
}

type rewriteRequest struct {
	Text       string              `json:"text"`
	Params     types.RewriteParams `json:"params"`
	DocumentID string              `json:"documentId"`
}

func (s *Server) handleRewrite(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req rewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	if !s.limiter(uid).Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later"})
		return
	}

	if req.DocumentID != "" {
		if _, err := s.store.GetDocument(req.DocumentID, uid); err != nil {
			s.documentError(c, err)
			return
		}
	}

	result, err := s.engine.Rewrite(c.Request.Context(), req.Text, req.Params)
	if err != nil {
		s.tracker.RecordFailure()
		logger.Error("rewrite failed for user %s: %v", uid, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "rewrite failed"})
		return
	}

	rejected := engine.IsRejection(result)
	s.tracker.RecordRewrite(rejected, result.Metadata.LatencyMs, result.Similarity.TrigramJaccard)

	if req.DocumentID != "" {
		status := "completed"
		if rejected {
			status = "rejected"
		}
		if _, err := s.store.CreateJob(req.DocumentID, req.Params, result.Similarity.TrigramJaccard,
			result.Metadata.LatencyMs, result.Metadata.TokenUsage, status); err != nil {
			logger.Error("record job: %v", err)
		}
		if !rejected {
			if _, err := s.store.SaveVersion(req.DocumentID, result.Rewritten, req.Params,
				result.Similarity.TrigramJaccard); err != nil {
				logger.Error("save version: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, result)
}

type createDocumentRequest struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	WorkspaceID string `json:"workspaceId"`
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	doc, err := s.store.CreateDocument(uid, req.Title, req.Content, req.WorkspaceID)
	if err != nil {
		logger.Error("create document: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create document"})
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	docs, err := s.store.ListDocuments(uid)
	if err != nil {
		logger.Error("list documents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list documents"})
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleGetDocument(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	doc, err := s.store.GetDocument(c.Param("id"), uid)
	if err != nil {
		s.documentError(c, err)
		return
	}
	versions, err := s.store.ListVersions(doc.ID, store.MaxVersionsPerDocument)
	if err != nil {
		logger.Error("list versions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load versions"})
		return
	}
	if versions == nil {
		versions = []store.Version{}
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "versions": versions})
}

type updateDocumentRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (s *Server) handleUpdateDocument(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.store.UpdateDocument(c.Param("id"), uid, req.Title, req.Content); err != nil {
		s.documentError(c, err)
		return
	}
	doc, err := s.store.GetDocument(c.Param("id"), uid)
	if err != nil {
		s.documentError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	if _, err := s.store.GetDocument(c.Param("id"), uid); err != nil {
		s.documentError(c, err)
		return
	}
	if err := s.store.SoftDeleteDocument(c.Param("id"), uid); err != nil {
		logger.Error("delete document: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.tracker.Snapshot())
}

func (s *Server) documentError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	logger.Error("document lookup: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
