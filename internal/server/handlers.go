package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.RetrieveQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.checkTopK(query.TopK); err != nil {
		s.respondMappedError(w, err, "search failed")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("top_k", query.TopK))
	start := time.Now()
	results, err := s.retriever.RetrieveQuery(r.Context(), &query)
	if err != nil {
		s.respondMappedError(w, err, "search failed")
		return
	}
	if results == nil {
		results = []*models.RetrievedChunk{}
	}
	s.respondJSON(w, http.StatusOK, &models.RetrieveResponse{
		Results:   results,
		Query:     query.Query,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		s.respondError(w, http.StatusNotImplemented, "answer generation not configured")
		return
	}
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.checkTopK(req.TopK); err != nil {
		s.respondMappedError(w, err, "ask failed")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question))
	resp, err := s.agent.Ask(r.Context(), &req)
	if err != nil {
		s.respondMappedError(w, err, "ask failed")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("index document request", zap.String("id", input.ID), zap.String("title", input.Title))
	if err := s.indexer.IndexDocument(r.Context(), &input); err != nil {
		s.respondMappedError(w, err, "indexing failed")
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": input.ID, "status": "indexed"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.storage.GetDocument(r.Context(), id)
	if err != nil {
		s.respondMappedError(w, err, "get document failed")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete document request", zap.String("id", id))
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		s.respondMappedError(w, err, "deletion failed")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.storage.CountDocuments(ctx)
	if err != nil {
		s.respondMappedError(w, err, "status failed")
		return
	}
	chunkCount, err := s.storage.CountChunks(ctx)
	if err != nil {
		s.respondMappedError(w, err, "status failed")
		return
	}
	manifest := s.index.Manifest()
	resp := map[string]interface{}{
		"documents":         docCount,
		"chunks":            chunkCount,
		"vector_index_size": s.index.Size(),
		"index": map[string]interface{}{
			"type":        s.index.Type(),
			"metric":      manifest.Metric,
			"dimension":   manifest.Dimension,
			"embedder_id": manifest.EmbedderID,
		},
		"config": map[string]interface{}{
			"embedding_method": s.config.Embedding.Method,
			"chunk_size":       s.config.Retrieval.ChunkSize,
			"chunk_overlap":    s.config.Retrieval.ChunkOverlap,
			"database_path":    s.config.Storage.DatabasePath,
			"index_path":       s.config.Storage.VectorIndexPath,
		},
		"disk_usage_bytes": storage.FileSizeBytes(s.config.Storage.DatabasePath) +
			storage.FileSizeBytes(s.config.Storage.VectorIndexPath),
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// checkTopK enforces the deployment's retrieval.max_top_k limit. The
// protocol ceiling is enforced separately by request validation.
func (s *Server) checkTopK(topK int) error {
	if max := s.config.Retrieval.MaxTopK; max > 0 && topK > max {
		return fmt.Errorf("%w: top_k must be at most %d, got %d", models.ErrConfig, max, topK)
	}
	return nil
}

// respondMappedError translates sentinel errors into HTTP statuses: invalid
// input is the caller's fault (400), a missing document is 404, and
// backend or index failures are 500 with a message that distinguishes an
// unusable index from an honest empty result.
func (s *Server) respondMappedError(w http.ResponseWriter, err error, logMsg string) {
	s.logger.Error(logMsg, zap.Error(err))
	switch {
	case errors.Is(err, models.ErrConfig),
		errors.Is(err, models.ErrEmptyInput),
		errors.Is(err, models.ErrDimensionMismatch):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrManifestMismatch),
		errors.Is(err, models.ErrCorruptIndex),
		errors.Is(err, models.ErrVersionMismatch):
		s.respondError(w, http.StatusInternalServerError, "index unusable: "+err.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
