package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"djvu-viewer/internal/database"
	"djvu-viewer/internal/filesystem"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/media"
	"djvu-viewer/internal/metrics"
	"djvu-viewer/internal/workers"
)

// Upper bound on concurrent hash and extraction jobs
const maxWorkers = 8

// ErrIndexRunning is returned by Index when another run is in progress.
var ErrIndexRunning = errors.New("indexer: index already in progress")

// FileStore records indexed files.
type FileStore interface {
	UpsertFile(ctx context.Context, file *database.File) (needsMetadata bool, err error)
	DeleteMissingFiles(ctx context.Context, cutoff time.Time) (int64, error)
}

// MetadataSource extracts and stores a file's metadata on first access.
type MetadataSource interface {
	Metadata(ctx context.Context, file *media.File) (string, error)
}

// Throttle delays work while the process is short of memory.
type Throttle interface {
	Wait(ctx context.Context) error
}

// Indexer keeps the database in step with the DjVu files under a directory.
type Indexer struct {
	store    FileStore
	metadata MetadataSource
	djvuDir  string
	interval time.Duration
	workers  int
	throttle Throttle

	ctx      context.Context
	cancel   context.CancelFunc
	trigger  chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	lastResult           Result
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	filesIndexed atomic.Int64

	onIndexComplete func(Result)
}

// Result summarizes one index run.
type Result struct {
	FilesFound     int           `json:"filesFound"`
	FilesExtracted int           `json:"filesExtracted"`
	FilesRemoved   int64         `json:"filesRemoved"`
	Errors         int           `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool      `json:"ready"`
	Indexing          bool      `json:"indexing"`
	StartTime         time.Time `json:"startTime"`
	Uptime            string    `json:"uptime"`
	LastIndexed       time.Time `json:"lastIndexed,omitempty"`
	LastResult        *Result   `json:"lastResult,omitempty"`
	InitialIndexError string    `json:"initialIndexError,omitempty"`
	FilesIndexed      int64     `json:"filesIndexed"`
}

// New creates an Indexer for djvuDir. An interval of zero disables
// periodic re-indexing.
func New(store FileStore, metadata MetadataSource, djvuDir string, interval time.Duration) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		store:     store,
		metadata:  metadata,
		djvuDir:   djvuDir,
		interval:  interval,
		workers:   workers.ForMixed(maxWorkers),
		ctx:       ctx,
		cancel:    cancel,
		trigger:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
}

// SetThrottle makes extraction wait on t before each file. Hashing and
// database updates are not throttled.
func (idx *Indexer) SetThrottle(t Throttle) {
	idx.throttle = t
}

// SetOnIndexComplete sets a callback invoked after every successful run.
func (idx *Indexer) SetOnIndexComplete(callback func(Result)) {
	idx.onIndexComplete = callback
}

// Start runs an initial index in the background, then re-indexes on the
// configured interval and whenever Trigger is called.
func (idx *Indexer) Start() {
	logging.Info("Starting indexer for %s (workers: %d, interval: %v)", idx.djvuDir, idx.workers, idx.interval)
	go idx.loop()
}

// Stop cancels any running index and waits for the background loop to exit.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		idx.cancel()
		<-idx.done
	})
}

// Trigger requests a re-index. It reports false when one is already queued.
func (idx *Indexer) Trigger() bool {
	select {
	case idx.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (idx *Indexer) loop() {
	defer close(idx.done)

	logging.Info("Starting initial index in background...")
	if _, err := idx.Index(idx.ctx); err != nil {
		logging.Error("Initial index error: %v", err)
		idx.indexMu.Lock()
		idx.initialIndexError = err
		idx.indexMu.Unlock()
	}

	var tick <-chan time.Time
	if idx.interval > 0 {
		ticker := time.NewTicker(idx.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
		case <-idx.trigger:
			logging.Info("Manual re-index requested")
		case <-idx.ctx.Done():
			logging.Info("Indexer stopped")
			return
		}
		if _, err := idx.Index(idx.ctx); err != nil && !errors.Is(err, ErrIndexRunning) {
			logging.Error("Re-index failed: %v", err)
		}
	}
}

// IsReady reports whether the initial index has finished.
func (idx *Indexer) IsReady() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	status := HealthStatus{
		Ready:        idx.initialIndexComplete,
		Indexing:     idx.isIndexing,
		StartTime:    idx.startTime,
		Uptime:       time.Since(idx.startTime).Round(time.Second).String(),
		LastIndexed:  idx.lastIndexTime,
		FilesIndexed: idx.filesIndexed.Load(),
	}
	if !idx.lastIndexTime.IsZero() {
		result := idx.lastResult
		status.LastResult = &result
	}
	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}
	return status
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

func (idx *Indexer) finishIndexing(result Result, err error) {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	idx.isIndexing = false
	if err != nil {
		return
	}
	idx.lastIndexTime = time.Now()
	idx.lastResult = result
	idx.initialIndexComplete = true
	idx.initialIndexError = nil
}

// Index walks the DjVu directory once: it hashes every DjVu file, records
// it, extracts metadata for new content and removes rows for files that
// disappeared. Files that fail individually are counted and skipped.
func (idx *Indexer) Index(ctx context.Context) (result Result, err error) {
	if !idx.tryStartIndexing() {
		return Result{}, ErrIndexRunning
	}
	defer func() {
		idx.finishIndexing(result, err)
		if err == nil && idx.onIndexComplete != nil {
			idx.onIndexComplete(result)
		}
	}()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	// updated_at has one second resolution
	startTime := time.Now().Truncate(time.Second)
	logging.Info("Starting file indexing...")
	idx.filesIndexed.Store(0)

	paths, err := idx.collect()
	if err != nil {
		metrics.IndexerErrors.Inc()
		return Result{}, err
	}
	result.FilesFound = len(paths)

	var extracted, failed atomic.Int64
	runErr := workers.Run(ctx, idx.workers, paths, func(ctx context.Context, path string) error {
		didExtract, err := idx.indexFile(ctx, path)
		if err != nil {
			failed.Add(1)
			metrics.IndexerErrors.Inc()
			logging.Warn("Failed to index %s: %v", path, err)
			return nil
		}
		if didExtract {
			extracted.Add(1)
		}
		idx.filesIndexed.Add(1)
		metrics.IndexerFilesProcessed.Inc()
		return nil
	})
	result.FilesExtracted = int(extracted.Load())
	result.Errors = int(failed.Load())
	if runErr != nil {
		return result, runErr
	}

	removed, err := idx.store.DeleteMissingFiles(ctx, startTime)
	if err != nil {
		logging.Error("Error cleaning up missing files: %v", err)
		metrics.IndexerErrors.Inc()
	}
	result.FilesRemoved = removed
	result.Duration = time.Since(startTime)

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(result.Duration.Seconds())

	logging.Info("Indexing complete: %d files, %d extracted, %d removed, %d errors in %v",
		result.FilesFound, result.FilesExtracted, result.FilesRemoved, result.Errors, result.Duration.Round(time.Millisecond))

	return result, nil
}

// collect returns the DjVu files under the directory, skipping hidden
// files and directories.
func (idx *Indexer) collect() ([]string, error) {
	if _, err := filesystem.StatWithRetry(idx.djvuDir, filesystem.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("cannot access DjVu directory: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(idx.djvuDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("Skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != idx.djvuDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && media.IsDjVu(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func (idx *Indexer) indexFile(ctx context.Context, path string) (extracted bool, err error) {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return false, err
	}
	sha, err := media.HashFile(path)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(idx.djvuDir, path)
	if err != nil {
		return false, err
	}

	needsMetadata, err := idx.store.UpsertFile(ctx, &database.File{
		Path:    filepath.ToSlash(rel),
		SHA:     sha,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	})
	if err != nil || !needsMetadata {
		return false, err
	}

	if idx.throttle != nil {
		if err := idx.throttle.Wait(ctx); err != nil {
			return false, err
		}
	}
	if _, err := idx.metadata.Metadata(ctx, media.NewFile(path, sha)); err != nil {
		return false, fmt.Errorf("extracting metadata: %w", err)
	}
	return true, nil
}
