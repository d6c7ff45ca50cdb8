package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/metrics"
)

var (
	// ErrWriteTimeout means a chunk could not be delivered within
	// Config.WriteTimeout, usually because the client stopped reading.
	ErrWriteTimeout = errors.New("streaming: write timeout exceeded")

	// ErrClientGone means the request context ended before the body was sent.
	ErrClientGone = errors.New("streaming: client disconnected")
)

// Config bounds how a response body is delivered.
type Config struct {
	// WriteTimeout is the longest a single chunk may take to reach the client.
	WriteTimeout time.Duration
	// ChunkSize splits large writes; zero writes as received.
	ChunkSize int
}

// DefaultConfig allows 30 seconds per 64 KiB chunk.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// Writer sends a response body in chunks, moving the connection's write
// deadline forward before each one. On writers without deadline support it
// only splits the body and watches the context.
type Writer struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	ctx     context.Context
	config  Config
	written int64

	deadlines bool
}

// NewWriter wraps w. ctx is normally the request context.
func NewWriter(ctx context.Context, w http.ResponseWriter, config Config) *Writer {
	return &Writer{
		w:         w,
		rc:        http.NewResponseController(w),
		ctx:       ctx,
		config:    config,
		deadlines: config.WriteTimeout > 0,
	}
}

// Write implements io.Writer.
func (sw *Writer) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		if sw.ctx.Err() != nil {
			return total, ErrClientGone
		}

		n := len(p)
		if sw.config.ChunkSize > 0 && n > sw.config.ChunkSize {
			n = sw.config.ChunkSize
		}

		sw.extendDeadline()
		m, err := sw.w.Write(p[:n])
		total += m
		sw.written += int64(m)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return total, ErrWriteTimeout
			}
			return total, err
		}
		p = p[n:]
	}
	return total, nil
}

func (sw *Writer) extendDeadline() {
	if !sw.deadlines {
		return
	}
	if err := sw.rc.SetWriteDeadline(time.Now().Add(sw.config.WriteTimeout)); err != nil {
		// http.ErrNotSupported; keep going without deadlines
		sw.deadlines = false
	}
}

// Written returns the number of body bytes sent so far.
func (sw *Writer) Written() int64 { return sw.written }

// Copy sends r to w through a Writer and records the outcome. The caller
// sets headers first.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, config Config) (int64, error) {
	start := time.Now()
	sw := NewWriter(ctx, w, config)

	_, err := io.Copy(sw, r)
	metrics.DownloadBytesTotal.Add(float64(sw.Written()))

	switch {
	case err == nil:
		metrics.DownloadsTotal.WithLabelValues("complete").Inc()
		logging.Debug("Sent %d bytes in %v", sw.Written(), time.Since(start))
	case errors.Is(err, ErrWriteTimeout):
		metrics.DownloadsTotal.WithLabelValues("timeout").Inc()
	case errors.Is(err, ErrClientGone):
		metrics.DownloadsTotal.WithLabelValues("client_gone").Inc()
	default:
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
	}
	return sw.Written(), err
}
