package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"djvu-viewer/internal/database"
	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/logging"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Encoding errors are logged since the status line is already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONResponse writes v with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, statusCode int, status, message string) {
	writeJSONResponse(w, statusCode, map[string]string{"status": status, "message": message})
}

// statusForError maps document errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, djvu.ErrCorruptMetadata):
		return http.StatusInternalServerError
	case errors.Is(err, djvu.ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, djvu.ErrMissingData), errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeDocumentError logs err and writes it with the status statusForError
// assigns. Server-side failures hide the error text.
func writeDocumentError(w http.ResponseWriter, path string, err error) {
	status := statusForError(err)
	switch {
	case status >= http.StatusInternalServerError:
		logging.Error("Request for %s failed: %v", path, err)
		writeJSONError(w, http.StatusText(status), status)
	default:
		logging.Debug("Request for %s: %v", path, err)
		writeJSONError(w, err.Error(), status)
	}
}
