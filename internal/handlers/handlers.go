package handlers

import (
	"context"
	"net/http"

	"djvu-viewer/internal/database"
	"djvu-viewer/internal/indexer"
	"djvu-viewer/internal/media"
	"djvu-viewer/internal/metrics"
	"djvu-viewer/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Library looks up indexed files.
type Library interface {
	ListFiles(ctx context.Context, opts database.ListOptions) (*database.FileList, error)
	GetFileByPath(ctx context.Context, path string) (*database.File, error)
	GetStats() metrics.Stats
}

// IndexController exposes indexer state and the manual re-index trigger.
type IndexController interface {
	IsReady() bool
	GetHealthStatus() indexer.HealthStatus
	Trigger() bool
}

// Handlers serves the DjVu metadata API.
type Handlers struct {
	library Library
	indexer IndexController
	docs    *media.Handler
	djvuDir string
}

// New creates the API handlers. djvuDir is the root that indexed paths are
// relative to.
func New(library Library, idx IndexController, docs *media.Handler, djvuDir string) *Handlers {
	return &Handlers{
		library: library,
		indexer: idx,
		docs:    docs,
		djvuDir: djvuDir,
	}
}

// RegisterRoutes adds every API and probe route to r. Document routes take
// the file path relative to the library root, slashes included.
func (h *Handlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("health")
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("healthz")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("livez")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet, http.MethodHead).Name("readyz")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	api.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet).Name("files")
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet).Name("stats")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods(http.MethodPost).Name("reindex")

	api.HandleFunc("/file/{path:.+}/info", h.GetInfo).Methods(http.MethodGet).Name("file-info")
	api.HandleFunc("/file/{path:.+}/page/{page:[0-9]+}/text", h.GetPageText).Methods(http.MethodGet).Name("page-text")
	api.HandleFunc("/file/{path:.+}/page/{page:[0-9]+}", h.GetPage).Methods(http.MethodGet).Name("page")
	api.HandleFunc("/file/{path:.+}/rendition/{param}", h.GetRendition).Methods(http.MethodGet).Name("rendition")
	api.HandleFunc("/file/{path:.+}/metadata", h.GetMetadata).Methods(http.MethodGet).Name("metadata")
	api.HandleFunc("/file/{path:.+}/reextract", h.Reextract).Methods(http.MethodPost).Name("reextract")
	api.HandleFunc("/file/{path:.+}/download", h.Download).Methods(http.MethodGet).Name("download")
}

// GetVersion reports build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, http.StatusOK, startup.GetBuildInfo())
}

// MetricsHandler serves the Prometheus registry. It is mounted on the
// metrics port, not on the API router.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
