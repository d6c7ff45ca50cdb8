package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"djvu-viewer/internal/database"
	"djvu-viewer/internal/media"
)

type fakeStore struct {
	mu       sync.Mutex
	files    map[string]*database.File
	known    map[string]bool // hashes with metadata
	cutoffs  []time.Time
	upsertFn func(*database.File) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: map[string]*database.File{}, known: map[string]bool{}}
}

func (s *fakeStore) UpsertFile(_ context.Context, f *database.File) (bool, error) {
	if s.upsertFn != nil {
		if err := s.upsertFn(f); err != nil {
			return false, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[f.Path] = f
	return !s.known[f.SHA], nil
}

func (s *fakeStore) DeleteMissingFiles(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoffs = append(s.cutoffs, cutoff)
	return 0, nil
}

func (s *fakeStore) paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

type fakeMetadata struct {
	mu    sync.Mutex
	store *fakeStore
	seen  []string
	err   error
}

func (m *fakeMetadata) Metadata(_ context.Context, f *media.File) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.seen = append(m.seen, filepath.Base(f.Path))
	m.store.mu.Lock()
	m.store.known[f.SHA()] = true
	m.store.mu.Unlock()
	return `{"xml":"<DjVuXML/>"}`, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestIndex(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.djvu":             "book a",
		"sub/b.DJV":          "book b",
		"sub/copy-of-a.djvu": "book a",
		"notes.txt":          "not a document",
		".hidden/c.djvu":     "hidden",
		".d.djvu":            "hidden file",
	})

	store := newFakeStore()
	meta := &fakeMetadata{store: store}
	idx := New(store, meta, root, 0)
	idx.workers = 1 // identical content is then extracted exactly once

	result, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}

	want := []string{"a.djvu", "sub/b.DJV", "sub/copy-of-a.djvu"}
	got := store.paths()
	if len(got) != len(want) {
		t.Fatalf("indexed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("indexed[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if result.FilesFound != 3 || result.FilesExtracted != 2 || result.Errors != 0 {
		t.Errorf("Index() result = %+v", result)
	}
	if len(store.cutoffs) != 1 {
		t.Errorf("DeleteMissingFiles called %d times, want 1", len(store.cutoffs))
	}

	a, b := store.files["a.djvu"], store.files["sub/copy-of-a.djvu"]
	if a.SHA != b.SHA {
		t.Error("identical files should share a hash")
	}
	if a.Size != int64(len("book a")) {
		t.Errorf("Size = %d", a.Size)
	}
}

func TestIndexSecondRunSkipsExtraction(t *testing.T) {
	root := writeTree(t, map[string]string{"a.djvu": "book a"})
	store := newFakeStore()
	meta := &fakeMetadata{store: store}
	idx := New(store, meta, root, 0)

	if _, err := idx.Index(context.Background()); err != nil {
		t.Fatal(err)
	}
	result, err := idx.Index(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesExtracted != 0 {
		t.Errorf("second run extracted %d files, want 0", result.FilesExtracted)
	}
}

func TestIndexCountsFileErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"a.djvu": "a", "b.djvu": "b"})
	store := newFakeStore()
	store.upsertFn = func(f *database.File) error {
		if f.Path == "b.djvu" {
			return errors.New("disk full")
		}
		return nil
	}
	idx := New(store, &fakeMetadata{store: store}, root, 0)

	result, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.Errors != 1 || result.FilesFound != 2 {
		t.Errorf("Index() result = %+v", result)
	}
	if status := idx.GetHealthStatus(); status.FilesIndexed != 1 {
		t.Errorf("FilesIndexed = %d, want 1", status.FilesIndexed)
	}
}

func TestIndexExtractionError(t *testing.T) {
	root := writeTree(t, map[string]string{"a.djvu": "a"})
	store := newFakeStore()
	idx := New(store, &fakeMetadata{store: store, err: errors.New("db locked")}, root, 0)

	result, err := idx.Index(context.Background())
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if result.Errors != 1 || result.FilesExtracted != 0 {
		t.Errorf("Index() result = %+v", result)
	}
}

type countingThrottle struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingThrottle) Wait(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func TestIndexWaitsOnThrottleBeforeExtraction(t *testing.T) {
	root := writeTree(t, map[string]string{"a.djvu": "a", "b.djvu": "b"})
	store := newFakeStore()
	meta := &fakeMetadata{store: store}
	throttle := &countingThrottle{}

	idx := New(store, meta, root, 0)
	idx.SetThrottle(throttle)

	if _, err := idx.Index(context.Background()); err != nil {
		t.Fatal(err)
	}
	if throttle.calls != 2 {
		t.Errorf("throttle waited %d times, want once per extraction", throttle.calls)
	}

	// Nothing left to extract on the second run.
	if _, err := idx.Index(context.Background()); err != nil {
		t.Fatal(err)
	}
	if throttle.calls != 2 {
		t.Errorf("throttle waited %d times after an unchanged run, want 2", throttle.calls)
	}
}

func TestIndexThrottleErrorSkipsExtraction(t *testing.T) {
	root := writeTree(t, map[string]string{"a.djvu": "a"})
	store := newFakeStore()
	meta := &fakeMetadata{store: store}

	idx := New(store, meta, root, 0)
	idx.SetThrottle(&countingThrottle{err: errors.New("paused")})

	result, err := idx.Index(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors != 1 || len(meta.seen) != 0 {
		t.Errorf("result = %+v, extracted %v", result, meta.seen)
	}
}

func TestIndexMissingDirectory(t *testing.T) {
	store := newFakeStore()
	idx := New(store, &fakeMetadata{store: store}, filepath.Join(t.TempDir(), "missing"), 0)

	if _, err := idx.Index(context.Background()); err == nil {
		t.Error("Index() should fail for a missing directory")
	}
	if idx.IsReady() {
		t.Error("indexer should not be ready after a failed run")
	}
	if len(store.cutoffs) != 0 {
		t.Error("missing directory must not delete indexed files")
	}
}

func TestIndexAlreadyRunning(t *testing.T) {
	store := newFakeStore()
	idx := New(store, &fakeMetadata{store: store}, t.TempDir(), 0)
	if !idx.tryStartIndexing() {
		t.Fatal("tryStartIndexing() = false")
	}
	if _, err := idx.Index(context.Background()); !errors.Is(err, ErrIndexRunning) {
		t.Errorf("Index() error = %v, want ErrIndexRunning", err)
	}
}

func TestStartTriggerStop(t *testing.T) {
	root := writeTree(t, map[string]string{"a.djvu": "a"})
	store := newFakeStore()
	idx := New(store, &fakeMetadata{store: store}, root, 0)

	runs := make(chan Result, 4)
	idx.SetOnIndexComplete(func(r Result) { runs <- r })
	idx.Start()
	defer idx.Stop()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("initial index did not complete")
	}
	if !idx.IsReady() {
		t.Error("indexer should be ready after the initial index")
	}

	if !idx.Trigger() {
		t.Error("Trigger() = false on an idle indexer")
	}
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("triggered index did not run")
	}

	status := idx.GetHealthStatus()
	if !status.Ready || status.LastResult == nil || status.LastIndexed.IsZero() {
		t.Errorf("GetHealthStatus() = %+v", status)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	store := newFakeStore()
	idx := New(store, &fakeMetadata{store: store}, t.TempDir(), time.Hour)
	idx.Start()
	idx.Stop()
	idx.Stop()
}
