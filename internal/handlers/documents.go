package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"djvu-viewer/internal/database"
	"djvu-viewer/internal/djvu"
	"djvu-viewer/internal/media"

	"github.com/gorilla/mux"
)

var errBadPath = errors.New("invalid file path")

// FileInfo is the response of the info endpoint.
type FileInfo struct {
	Path      string `json:"path"`
	SHA       string `json:"sha"`
	MultiPage bool   `json:"multiPage"`
	*djvu.DimensionInfo
}

// PageInfo is the response of the page and rendition endpoints.
type PageInfo struct {
	Page       int    `json:"page"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Rendition  string `json:"rendition,omitempty"`
	PageWidth  int    `json:"pageWidth"`
	PageHeight int    `json:"pageHeight"`
}

// cleanRelPath validates a library-relative path taken from the URL.
func cleanRelPath(raw string) (string, error) {
	if raw == "" || strings.Contains(raw, "\x00") {
		return "", errBadPath
	}
	for _, seg := range strings.Split(raw, "/") {
		if seg == ".." {
			return "", errBadPath
		}
	}
	cleaned := path.Clean("/" + raw)[1:]
	if cleaned == "" || !media.IsDjVu(cleaned) {
		return "", errBadPath
	}
	return cleaned, nil
}

// resolveFile maps the {path} route variable to an indexed file.
func (h *Handlers) resolveFile(r *http.Request) (*media.File, string, error) {
	rel, err := cleanRelPath(mux.Vars(r)["path"])
	if err != nil {
		return nil, "", err
	}

	row, err := h.library.GetFileByPath(r.Context(), rel)
	if err != nil {
		return nil, rel, err
	}

	abs, err := libraryPath(h.djvuDir, rel)
	if err != nil {
		return nil, rel, err
	}
	return media.NewFile(abs, row.SHA), rel, nil
}

// libraryPath joins rel onto root and rejects results that leave root.
func libraryPath(root, rel string) (string, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	inside, err := filepath.Rel(filepath.Clean(root), abs)
	if err != nil || inside == "." || !filepath.IsLocal(inside) {
		return "", errBadPath
	}
	return abs, nil
}

// withFile resolves the request's file and passes it to fn, writing the
// error response when resolution fails.
func (h *Handlers) withFile(w http.ResponseWriter, r *http.Request, fn func(file *media.File, rel string)) {
	file, rel, err := h.resolveFile(r)
	switch {
	case errors.Is(err, errBadPath):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrNotFound):
		writeJSONError(w, "file not found", http.StatusNotFound)
	case err != nil:
		writeDocumentError(w, rel, err)
	default:
		fn(file, rel)
	}
}

func pageVar(r *http.Request) (int, bool) {
	page, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil || !media.ValidateParam("page", page) {
		return 0, false
	}
	return page, true
}

// GetInfo returns the page count and per-page dimensions of a file.
func (h *Handlers) GetInfo(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(file *media.File, rel string) {
		info, err := h.docs.DimensionInfo(r.Context(), file)
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, FileInfo{
			Path:          rel,
			SHA:           file.SHA(),
			MultiPage:     h.docs.IsMultiPage(file),
			DimensionInfo: info,
		})
	})
}

// GetPage returns the dimensions of one page. With a width query parameter
// the response also carries the scaled height and rendition name.
func (h *Handlers) GetPage(w http.ResponseWriter, r *http.Request) {
	page, ok := pageVar(r)
	if !ok {
		writeJSONError(w, "invalid page", http.StatusBadRequest)
		return
	}
	params := media.Params{Page: page}
	if raw := r.URL.Query().Get("width"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil || !media.ValidateParam("width", width) {
			writeJSONError(w, "invalid width", http.StatusBadRequest)
			return
		}
		params.Width = width
	}
	h.writePage(w, r, params)
}

// GetRendition is GetPage addressed by a rendition name such as page3-800px.
func (h *Handlers) GetRendition(w http.ResponseWriter, r *http.Request) {
	params, ok := media.ParseParamString(mux.Vars(r)["param"])
	if !ok {
		writeJSONError(w, "invalid rendition", http.StatusBadRequest)
		return
	}
	h.writePage(w, r, params)
}

func (h *Handlers) writePage(w http.ResponseWriter, r *http.Request, params media.Params) {
	h.withFile(w, r, func(file *media.File, rel string) {
		dims, err := h.docs.PageDimensions(r.Context(), file, params.Page)
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}
		writeJSONResponse(w, http.StatusOK, scalePage(params, dims))
	})
}

// scalePage fits dims to the requested width. Without a width the page is
// reported at its native size.
func scalePage(params media.Params, dims djvu.Dimensions) PageInfo {
	scaled := media.ScaleToWidth(dims, params.Width)
	info := PageInfo{
		Page:       params.Page,
		Width:      scaled.Width,
		Height:     scaled.Height,
		PageWidth:  dims.Width,
		PageHeight: dims.Height,
	}
	if params.Width > 0 && dims.Width > 0 {
		info.Rendition, _ = media.ParamString(params)
	}
	return info
}

// GetPageText returns the OCR text of one page as plain text.
func (h *Handlers) GetPageText(w http.ResponseWriter, r *http.Request) {
	page, ok := pageVar(r)
	if !ok {
		writeJSONError(w, "invalid page", http.StatusBadRequest)
		return
	}
	h.withFile(w, r, func(file *media.File, rel string) {
		text, err := h.docs.PageText(r.Context(), file, page)
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, text)
	})
}

// GetMetadata returns the stored metadata blob as-is.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(file *media.File, rel string) {
		blob, err := h.docs.Metadata(r.Context(), file)
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}
		writeBlob(w, blob)
	})
}

// Reextract runs the extraction tools again and returns the new blob.
func (h *Handlers) Reextract(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(file *media.File, rel string) {
		blob, err := h.docs.Reextract(r.Context(), file)
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}
		writeBlob(w, blob)
	})
}

func writeBlob(w http.ResponseWriter, blob string) {
	if strings.HasPrefix(strings.TrimSpace(blob), "<") {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, blob)
}
