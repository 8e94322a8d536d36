package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/maxpert/pubcfg/db"
	"github.com/maxpert/pubcfg/model"
	"github.com/maxpert/pubcfg/telemetry"
)

const (
	defaultListPageSize  = 9
	defaultAuditPageSize = 20
	maxPageSize          = 100
)

// Handlers serves the publisher configuration REST API
type Handlers struct {
	publishers *db.PublisherStore
	audits     *db.AuditLogStore
}

// NewHandlers creates a Handlers instance over the two stores
func NewHandlers(publishers *db.PublisherStore, audits *db.AuditLogStore) *Handlers {
	return &Handlers{
		publishers: publishers,
		audits:     audits,
	}
}

// handleListPublishers serves GET /api/publishers
func (h *Handlers) handleListPublishers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	search := query.Get("search")

	var isActive *bool
	if raw := query.Get("isActive"); raw != "" {
		active := raw == "true"
		isActive = &active
	}

	page := parsePage(query.Get("page"))
	limit := parseLimit(query.Get("limit"), defaultListPageSize)

	result, err := h.publishers.FindAll(search, isActive, page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list publishers")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to read publishers data")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// handleGetPublisher serves GET /api/publishers/{publisherID}
func (h *Handlers) handleGetPublisher(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	publisher, err := h.publishers.FindByPublisherID(publisherID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Error().Err(err).Str("publisher_id", publisherID).Msg("Failed to fetch publisher")
		}
		writeErrorResponse(w, http.StatusNotFound, "Publisher config not found")
		return
	}
	writeJSONResponse(w, http.StatusOK, publisher)
}

// handleSavePublisher serves PUT /api/publishers/{publisherID}. It creates
// the publisher when absent and updates it when present.
func (h *Handlers) handleSavePublisher(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	var patch model.PublisherPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if patch.PublisherID != publisherID {
		writeErrorResponse(w, http.StatusBadRequest, "Publisher ID mismatch")
		return
	}

	_, err := h.publishers.FindByPublisherID(publisherID)
	switch {
	case err == nil:
		if _, err := h.publishers.Update(publisherID, patch); err != nil {
			log.Error().Err(err).Str("publisher_id", publisherID).Msg("Failed to update publisher")
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to save publisher config")
			return
		}
	case errors.Is(err, db.ErrNotFound):
		if _, err := h.publishers.Create(patch.ToPublisher()); err != nil {
			log.Error().Err(err).Str("publisher_id", publisherID).Msg("Failed to create publisher")
			writeErrorResponse(w, http.StatusInternalServerError, "Failed to save publisher config")
			return
		}
		telemetry.PublishersTotal.Inc()
	default:
		log.Error().Err(err).Str("publisher_id", publisherID).Msg("Failed to look up publisher")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to save publisher config")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// handleDeletePublisher serves DELETE /api/publishers/{publisherID}
func (h *Handlers) handleDeletePublisher(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	deleted, err := h.publishers.Delete(publisherID)
	if err != nil {
		log.Error().Err(err).Str("publisher_id", publisherID).Msg("Failed to delete publisher")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to delete publisher config")
		return
	}
	if !deleted {
		writeErrorResponse(w, http.StatusNotFound, "Publisher not found")
		return
	}
	telemetry.PublishersTotal.Dec()
	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// handlePublisherAuditLogs serves GET /api/publishers/{publisherID}/audit-logs
func (h *Handlers) handlePublisherAuditLogs(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	page := parsePage(r.URL.Query().Get("page"))
	limit := parseLimit(r.URL.Query().Get("limit"), defaultAuditPageSize)

	result, err := h.audits.FindByPublisherID(publisherID, page, limit)
	if err != nil {
		log.Error().Err(err).Str("publisher_id", publisherID).Msg("Failed to fetch audit logs")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch audit logs")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// handleAllAuditLogs serves GET /api/audit-logs, the global feed
func (h *Handlers) handleAllAuditLogs(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r.URL.Query().Get("page"))
	limit := parseLimit(r.URL.Query().Get("limit"), defaultAuditPageSize)

	result, err := h.audits.FindAll(page, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch audit logs")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch audit logs")
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

// handleHealth serves GET /api/health
func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.publishers.Ping(); err != nil {
		writeErrorResponse(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// parsePage parses the page query parameter, clamped to >= 1
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseLimit parses the limit query parameter, clamped to [1, 100]
func parseLimit(raw string, fallback int) int {
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if limit < 1 {
		return 1
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}
