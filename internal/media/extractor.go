package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/metrics"
)

// Default per-tool run limit
const defaultShellTimeout = 60 * time.Second

// ExtractorConfig locates the DjVuLibre tools.
type ExtractorConfig struct {
	DjvudumpPath string // empty disables metadata extraction
	DjvutxtPath  string // empty skips the text layer
	Timeout      time.Duration
}

// Runner executes an external program and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor builds metadata blobs by running djvudump and djvutxt.
type Extractor struct {
	cfg ExtractorConfig
	run Runner
}

// NewExtractor returns an Extractor that runs the configured tools.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultShellTimeout
	}
	return &Extractor{cfg: cfg, run: execRunner}
}

// WithRunner replaces the process runner, for tests.
func (e *Extractor) WithRunner(run Runner) *Extractor {
	e.run = run
	return e
}

// Extract returns the metadata wrapper for the file at path. Tool failures
// become an error wrapper so they are stored and not retried; only a
// cancelled ctx is returned as an error, since that outcome says nothing
// about the file.
func (e *Extractor) Extract(ctx context.Context, path string) (djvu.Wrapper, error) {
	if e.cfg.DjvudumpPath == "" {
		return djvu.ErrorWrapper("djvudump is not configured"), nil
	}

	dump, err := e.runTool(ctx, "djvudump", e.cfg.DjvudumpPath, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return djvu.Wrapper{}, ctxErr
		}
		logging.Warn("djvudump failed for %s: %v", path, err)
		return djvu.ErrorWrapper(err.Error()), nil
	}

	meta, err := djvu.ConvertDump(string(dump))
	if err != nil {
		logging.Warn("Unusable djvudump output for %s: %v", path, err)
		return djvu.ErrorWrapper(err.Error()), nil
	}

	text := ""
	if e.cfg.DjvutxtPath != "" {
		txt, err := e.runTool(ctx, "djvutxt", e.cfg.DjvutxtPath, "--detail=page", path)
		switch {
		case err != nil && ctx.Err() != nil:
			return djvu.Wrapper{}, ctx.Err()
		case err != nil:
			// Text is optional; geometry alone is still useful.
			logging.Warn("djvutxt failed for %s: %v", path, err)
		case strings.TrimSpace(string(txt)) != "":
			text = djvu.ConvertText(string(txt))
		}
	}

	return djvu.XMLWrapper(djvu.CombineXML(meta, text)), nil
}

func (e *Extractor) runTool(ctx context.Context, tool, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	out, err := e.run(ctx, name, args...)
	metrics.ExtractionDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ExtractionsTotal.WithLabelValues(tool, status).Inc()
	logging.Debug("%s %s finished in %v (%s)", tool, strings.Join(args, " "), time.Since(start), status)
	return out, err
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
		}
		return nil, fmt.Errorf("%s error: %w - %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// LookupTool resolves a tool path, returning "" when it is not installed.
func LookupTool(path string) string {
	if path == "" {
		return ""
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return ""
	}
	return resolved
}
