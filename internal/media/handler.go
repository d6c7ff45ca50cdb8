package media

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"djvu-viewer/internal/cache"
	"djvu-viewer/internal/database"
	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/metrics"
)

// Store keeps one metadata blob per content hash. GetMetadata returns
// database.ErrNotFound when nothing is stored for the hash.
type Store interface {
	GetMetadata(ctx context.Context, sha string) (string, error)
	SetMetadata(ctx context.Context, sha, blob string) error
}

// MetadataExtractor produces the metadata wrapper of a file on disk.
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) (djvu.Wrapper, error)
}

// Parsed documents kept per process for text lookups
const maxDocuments = 64

// Handler answers page queries for DjVu files.
type Handler struct {
	store     Store
	extractor MetadataExtractor
	dims      *cache.Service

	docsMu sync.Mutex
	docs   map[string]*djvu.Document
}

// NewHandler returns a Handler. extractor may be nil, in which case only
// metadata already in store is used.
func NewHandler(store Store, extractor MetadataExtractor, shared cache.SharedCache, policy cache.Policy) *Handler {
	h := &Handler{
		store:     store,
		extractor: extractor,
		docs:      make(map[string]*djvu.Document),
	}
	h.dims = cache.NewService(shared, policy, h)
	return h
}

// Cache returns the dimension cache service.
func (h *Handler) Cache() *cache.Service { return h.dims }

// Metadata returns the stored metadata blob of file, extracting and storing
// it on first access.
func (h *Handler) Metadata(ctx context.Context, file *File) (string, error) {
	blob, err := h.store.GetMetadata(ctx, file.SHA())
	if err == nil {
		return blob, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return "", err
	}
	return h.extract(ctx, file)
}

// Reextract runs extraction again and drops every cached result derived
// from the previous blob.
func (h *Handler) Reextract(ctx context.Context, file *File) (string, error) {
	blob, err := h.extract(ctx, file)
	if err != nil {
		return "", err
	}

	h.docsMu.Lock()
	delete(h.docs, file.SHA())
	h.docsMu.Unlock()

	if err := h.dims.Invalidate(ctx, file); err != nil {
		logging.Warn("Failed to invalidate cached dimensions of %s: %v", file.Path, err)
	}
	return blob, nil
}

func (h *Handler) extract(ctx context.Context, file *File) (string, error) {
	if h.extractor == nil || file.Path == "" {
		return "", fmt.Errorf("%w: no metadata stored for %s", djvu.ErrMissingData, file.SHA())
	}

	w, err := h.extractor.Extract(ctx, file.Path)
	if err != nil {
		return "", err
	}
	blob, err := w.Encode()
	if err != nil {
		return "", err
	}

	if err := h.store.SetMetadata(ctx, file.SHA(), blob); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return "", fmt.Errorf("storing metadata for %s: %w", file.Path, err)
		}
		logging.Debug("Metadata for unindexed file %s not persisted", file.Path)
	}
	return blob, nil
}

// Document returns the parsed metadata of file. Parsed documents are
// memoized per content hash.
func (h *Handler) Document(ctx context.Context, file *File) (*djvu.Document, error) {
	h.docsMu.Lock()
	doc, ok := h.docs[file.SHA()]
	h.docsMu.Unlock()
	if ok {
		return doc, nil
	}

	doc, err := h.parse(ctx, file)
	if err != nil {
		return nil, err
	}

	h.docsMu.Lock()
	if len(h.docs) >= maxDocuments {
		clear(h.docs)
	}
	h.docs[file.SHA()] = doc
	h.docsMu.Unlock()
	return doc, nil
}

func (h *Handler) parse(ctx context.Context, file *File) (*djvu.Document, error) {
	blob, err := h.Metadata(ctx, file)
	if err != nil {
		return nil, err
	}

	doc, err := djvu.Parse(blob)
	switch {
	case err == nil:
		metrics.MetadataParseTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, djvu.ErrCorruptMetadata):
		metrics.MetadataParseTotal.WithLabelValues("corrupt").Inc()
	default:
		metrics.MetadataParseTotal.WithLabelValues("invalid").Inc()
	}
	return doc, err
}

// MetaTree implements cache.TreeLoader. It parses without memoizing, since
// the dimension cache already keeps the derived result.
func (h *Handler) MetaTree(ctx context.Context, f cache.File) (*djvu.Node, error) {
	file, ok := f.(*File)
	if !ok {
		file = NewFile("", f.SHA())
	}
	doc, err := h.parse(ctx, file)
	if err != nil {
		return nil, err
	}
	return doc.Meta, nil
}

// DimensionInfo returns the cached page geometry of file.
func (h *Handler) DimensionInfo(ctx context.Context, file *File) (*djvu.DimensionInfo, error) {
	return h.dims.DimensionInfo(ctx, file)
}

// PageCount returns the number of pages in file.
func (h *Handler) PageCount(ctx context.Context, file *File) (int, error) {
	info, err := h.DimensionInfo(ctx, file)
	if err != nil {
		return 0, err
	}
	return info.PageCount, nil
}

// PageDimensions returns the size of a 1-indexed page. Pages out of range
// or without geometry yield djvu.ErrMissingData.
func (h *Handler) PageDimensions(ctx context.Context, file *File, page int) (djvu.Dimensions, error) {
	info, err := h.DimensionInfo(ctx, file)
	if err != nil {
		return djvu.Dimensions{}, err
	}
	dims, ok := info.Page(page)
	if !ok {
		return djvu.Dimensions{}, fmt.Errorf("%w: page %d of %d", djvu.ErrMissingData, page, info.PageCount)
	}
	return dims, nil
}

// PageText returns the OCR text of a 1-indexed page.
func (h *Handler) PageText(ctx context.Context, file *File, page int) (string, error) {
	doc, err := h.Document(ctx, file)
	if err != nil {
		return "", err
	}
	return djvu.PageText(doc.Text, page)
}

// IsMultiPage reports that DjVu documents are paged even when they hold a
// single page.
func (h *Handler) IsMultiPage(*File) bool { return true }
