package handlers

import (
	"net/http"
	"strconv"

	"djvu-viewer/internal/database"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// ListFiles returns one page of indexed files, optionally filtered by
// metadata status.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := database.ListOptions{Page: 1, PageSize: defaultPageSize}
	switch status := database.MetadataStatus(q.Get("status")); status {
	case "", database.MetadataPending, database.MetadataValid, database.MetadataFailed:
		opts.Status = status
	default:
		writeJSONError(w, "invalid status", http.StatusBadRequest)
		return
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeJSONError(w, "invalid page", http.StatusBadRequest)
			return
		}
		opts.Page = page
	}
	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			writeJSONError(w, "invalid pageSize", http.StatusBadRequest)
			return
		}
		opts.PageSize = min(size, maxPageSize)
	}

	list, err := h.library.ListFiles(r.Context(), opts)
	if err != nil {
		writeDocumentError(w, "file list", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, list)
}

// StatsResponse summarizes the library and the indexer.
type StatsResponse struct {
	TotalFiles      int    `json:"totalFiles"`
	ValidMetadata   int    `json:"validMetadata"`
	FailedMetadata  int    `json:"failedMetadata"`
	PendingMetadata int    `json:"pendingMetadata"`
	LastIndexed     string `json:"lastIndexed,omitempty"`
}

// GetStats returns library statistics.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.library.GetStats()
	resp := StatsResponse{
		TotalFiles:      stats.TotalFiles,
		ValidMetadata:   stats.ValidMetadata,
		FailedMetadata:  stats.FailedMetadata,
		PendingMetadata: stats.PendingMetadata,
	}
	if last := h.indexer.GetHealthStatus().LastIndexed; !last.IsZero() {
		resp.LastIndexed = last.Format("2006-01-02T15:04:05Z07:00")
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// TriggerReindex starts an index run unless one is already in progress.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if !h.indexer.Trigger() {
		writeJSONStatus(w, http.StatusConflict, "busy", "an index run is already pending")
		return
	}
	writeJSONStatus(w, http.StatusAccepted, "accepted", "index run scheduled")
}
