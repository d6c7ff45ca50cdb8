package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"djvu-viewer/internal/metrics"

	"github.com/gorilla/mux"
)

// MetricsConfig holds configuration for the metrics middleware
type MetricsConfig struct {
	// SkipPaths are paths that should not be recorded
	SkipPaths []string
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SkipPaths: []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"},
	}
}

// Metrics returns a middleware that records Prometheus metrics
func Metrics(config MetricsConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			wrapped := wrapWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			path := routeLabel(r)
			status := strconv.Itoa(wrapped.status)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

// routeLabel prefers the matched mux template, which is already free of file
// names and page numbers. Requests that matched no route fall back to
// normalizePath.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return normalizePath(r.URL.Path)
}

// fileActions are the per-document endpoints that follow a file path.
var fileActions = []string{"/info", "/metadata", "/reextract", "/download"}

// normalizePath maps a request path to a low-cardinality label. File paths
// under /api/file/ collapse to {path} and page numbers to {page}; other paths
// keep at most four segments.
func normalizePath(path string) string {
	if rest, ok := strings.CutPrefix(path, "/api/file/"); ok {
		return "/api/file/{path}" + fileAction(rest)
	}

	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i > 3 {
			parts[i] = "{path}"
			return strings.Join(parts[:i+1], "/")
		}
	}
	return path
}

func fileAction(rest string) string {
	for _, action := range fileActions {
		if strings.HasSuffix(rest, action) {
			return action
		}
	}

	if idx := strings.LastIndex(rest, "/rendition/"); idx >= 0 && !strings.Contains(rest[idx+len("/rendition/"):], "/") {
		return "/rendition/{param}"
	}

	// .../page/{page} and .../page/{page}/text
	text := strings.HasSuffix(rest, "/text")
	trimmed := strings.TrimSuffix(rest, "/text")
	idx := strings.LastIndex(trimmed, "/page/")
	if idx < 0 {
		return ""
	}
	if _, err := strconv.Atoi(trimmed[idx+len("/page/"):]); err != nil {
		return ""
	}
	if text {
		return "/page/{page}/text"
	}
	return "/page/{page}"
}
