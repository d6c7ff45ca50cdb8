package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"djvu-viewer/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestStatusWriter(t *testing.T) {
	sw := wrapWriter(httptest.NewRecorder())
	if sw.status != http.StatusOK || sw.written != 0 || sw.wroteHeader {
		t.Fatalf("fresh writer = %+v", sw)
	}

	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusInternalServerError)
	if sw.status != http.StatusNotFound {
		t.Errorf("status = %d, want the first WriteHeader to win", sw.status)
	}

	data := []byte(`{"pageCount":2}`)
	n, err := sw.Write(data)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len(data) || sw.written != int64(len(data)) {
		t.Errorf("Write() = %d, written = %d, want %d", n, sw.written, len(data))
	}
}

func TestStatusWriterKeepsImplicitStatus(t *testing.T) {
	sw := wrapWriter(httptest.NewRecorder())

	sw.Write([]byte("body"))
	sw.WriteHeader(http.StatusTeapot)

	if sw.status != http.StatusOK {
		t.Errorf("status = %d, want 200 once the body was written", sw.status)
	}
}

func TestWrapWriterReusesOuterWrapper(t *testing.T) {
	outer := wrapWriter(httptest.NewRecorder())
	if inner := wrapWriter(outer); inner != outer {
		t.Error("wrapWriter should return an existing statusWriter unchanged")
	}
	if outer.Unwrap() == nil {
		t.Error("Unwrap() returned nil")
	}
}

func TestDefaultLoggingConfig(t *testing.T) {
	config := DefaultLoggingConfig()

	if len(config.SkipPaths) != 0 {
		t.Errorf("Expected empty SkipPaths, got %d items", len(config.SkipPaths))
	}
	if !config.LogHealthChecks {
		t.Error("Expected LogHealthChecks to be true by default")
	}
}

// captureLog redirects the standard logger for the duration of fn.
func captureLog(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	defer log.SetOutput(prev)
	fn()
	return buf.String()
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		config        LoggingConfig
		expectLogging bool
	}{
		{
			name:          "Logs regular requests",
			path:          "/api/files",
			config:        DefaultLoggingConfig(),
			expectLogging: true,
		},
		{
			name:          "Skips configured prefixes",
			path:          "/api/file/a.djvu/metadata",
			config:        LoggingConfig{SkipPaths: []string{"/api/file/"}, LogHealthChecks: true},
			expectLogging: false,
		},
		{
			name:          "Logs health checks when enabled",
			path:          "/health",
			config:        LoggingConfig{LogHealthChecks: true},
			expectLogging: true,
		},
		{
			name:          "Skips health checks when disabled",
			path:          "/readyz",
			config:        LoggingConfig{LogHealthChecks: false},
			expectLogging: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("{}"))
			})
			wrappedHandler := Logger(tt.config)(handler)

			req := httptest.NewRequest("GET", tt.path, http.NoBody)
			w := httptest.NewRecorder()

			out := captureLog(t, func() { wrappedHandler.ServeHTTP(w, req) })

			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}
			logged := strings.Contains(out, tt.path)
			if logged != tt.expectLogging {
				t.Errorf("logged = %v, want %v (output %q)", logged, tt.expectLogging, out)
			}
		})
	}
}

func TestFormatLine(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/file/book.djvu/page/2?x=1", http.NoBody)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("User-Agent", "curl/8.0 (linux)")

	sw := wrapWriter(httptest.NewRecorder())
	sw.Header().Set("Content-Type", "application/json")
	sw.WriteHeader(http.StatusNotFound)
	sw.Write([]byte("abc"))

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	line := NewW3CLogger(DefaultLoggingConfig(), "test").formatLine(now, req, sw, 42*time.Millisecond)

	want := `2026-03-04 05:06:07 10.0.0.1 GET /api/file/book.djvu/page/2 x=1 404 3 42 application/json "curl/8.0 (linux)" -`
	if line != want {
		t.Errorf("formatLine() =\n%s\nwant\n%s", line, want)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a\nb\rc", "a b c"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\tkept", "tab\tkept"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"forwarded single", map[string]string{"X-Forwarded-For": " 1.1.1.1 "}, "3.3.3.3:1", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "4.4.4.4"}, "3.3.3.3:1", "4.4.4.4"},
		{"remote addr", nil, "3.3.3.3:1234", "3.3.3.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", http.NoBody)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEscapeW3CField(t *testing.T) {
	if got := escapeW3CField("simple"); got != "simple" {
		t.Errorf("escapeW3CField(simple) = %q", got)
	}
	if got := escapeW3CField(`say "hi"`); got != `"say ""hi"""` {
		t.Errorf("escapeW3CField(quoted) = %q", got)
	}
}

func TestDefaultMetricsConfig(t *testing.T) {
	config := DefaultMetricsConfig()

	expectedPaths := []string{"/metrics", "/health", "/healthz", "/livez", "/readyz"}
	for _, path := range expectedPaths {
		found := false
		for _, skip := range config.SkipPaths {
			if skip == path {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected %q to be in default SkipPaths", path)
		}
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	wrappedHandler := Metrics(MetricsConfig{SkipPaths: []string{"/health"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))
	wrappedHandler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", http.NoBody))
	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200"))

	if after != before {
		t.Errorf("skipped path was recorded: %v -> %v", before, after)
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics(MetricsConfig{}))
	router.HandleFunc("/api/file/{path:.+}/page/{page:[0-9]+}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/file/{path:.+}/page/{page:[0-9]+}", "404")
	before := testutil.ToFloat64(counter)

	for _, p := range []string{"/api/file/a.djvu/page/1", "/api/file/dir/b.djvu/page/7"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", p, http.NoBody))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status %d, want 404", p, rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("route template counter increased by %v, want 2", got)
	}
}

func TestMetricsMiddlewareStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"200 OK", http.StatusOK},
		{"404 Not Found", http.StatusNotFound},
		{"422 Unprocessable Entity", http.StatusUnprocessableEntity},
		{"500 Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.statusCode)
			})
			wrappedHandler := Metrics(MetricsConfig{})(handler)

			req := httptest.NewRequest(http.MethodGet, "/api/files", http.NoBody)
			w := httptest.NewRecorder()

			counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/files", strconv.Itoa(tt.statusCode))
			before := testutil.ToFloat64(counter)

			wrappedHandler.ServeHTTP(w, req)

			if w.Code != tt.statusCode {
				t.Errorf("Expected status code %d, got %d", tt.statusCode, w.Code)
			}
			if got := testutil.ToFloat64(counter) - before; got != 1 {
				t.Errorf("counter increased by %v, want 1", got)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"file info", "/api/file/books/vol1.djvu/info", "/api/file/{path}/info"},
		{"file metadata", "/api/file/vol1.djvu/metadata", "/api/file/{path}/metadata"},
		{"file reextract", "/api/file/a/b/c.djvu/reextract", "/api/file/{path}/reextract"},
		{"page dimensions", "/api/file/scans/vol1.djvu/page/12", "/api/file/{path}/page/{page}"},
		{"page text", "/api/file/vol1.djvu/page/3/text", "/api/file/{path}/page/{page}/text"},
		{"rendition", "/api/file/scans/vol1.djvu/rendition/page2-800px", "/api/file/{path}/rendition/{param}"},
		{"download", "/api/file/scans/vol1.djvu/download", "/api/file/{path}/download"},
		{"non-numeric page", "/api/file/vol1.djvu/page/abc", "/api/file/{path}"},
		{"bare file", "/api/file/vol1.djvu", "/api/file/{path}"},
		{"file list", "/api/files", "/api/files"},
		{"reindex", "/api/reindex", "/api/reindex"},
		{"root", "/", "/"},
		{"deep unknown path", "/a/b/c/d/e/f/g/h", "/a/b/c/d/{path}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := normalizePath(tt.path); result != tt.expected {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func BenchmarkLoggingMiddleware(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	wrappedHandler := Logger(LoggingConfig{SkipPaths: []string{"/api"}})(handler)
	req := httptest.NewRequest(http.MethodGet, "/api/files", http.NoBody)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrappedHandler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func BenchmarkNormalizePath(b *testing.B) {
	paths := []string{
		"/api/file/deep/nested/path/to/file.djvu/page/4/text",
		"/api/file/book.djvu/info",
		"/api/files",
		"/",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, path := range paths {
			_ = normalizePath(path)
		}
	}
}
