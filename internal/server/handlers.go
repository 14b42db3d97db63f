package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/lookout/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.Query
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("index", query.Index))
	result := s.engine.Search(r.Context(), &query)
	if result.Error != "" {
		s.respondJSON(w, http.StatusBadRequest, result)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListIndexes(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"indexes": s.indexes.Names()})
}

func (s *Server) handleIndexNode(w http.ResponseWriter, r *http.Request) {
	var node models.Node
	if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if node.ID == "" {
		s.respondError(w, http.StatusBadRequest, "node id is required")
		return
	}
	if node.Type != "" && !node.Type.Known() {
		s.respondError(w, http.StatusBadRequest, "unknown node type")
		return
	}
	s.logger.Debug("index node request", zap.String("id", node.ID), zap.String("name", node.Name))
	if err := s.indexer.IndexNode(r.Context(), &node); err != nil {
		s.logger.Error("indexing failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"id": node.ID, "status": "indexed"})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	node, err := s.storage.GetNode(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "node not found")
		return
	}
	s.respondJSON(w, http.StatusOK, node)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete node request", zap.String("id", id))
	if err := s.indexer.DeleteNode(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	indexed, err := s.indexer.Rebuild(r.Context())
	if err != nil {
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"indexed": indexed})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	nodeCount, err := s.storage.CountNodes(r.Context())
	if err != nil {
		s.logger.Error("status: count nodes failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	docs := make(map[string]uint64)
	for _, name := range s.indexes.Names() {
		idx, err := s.indexes.Get(name)
		if err != nil {
			continue
		}
		if count, err := idx.DocCount(); err == nil {
			docs[name] = count
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"nodes":   nodeCount,
		"indexes": docs,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
