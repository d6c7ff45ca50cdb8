package handlers

import (
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strconv"

	"djvu-viewer/internal/filesystem"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/media"
	"djvu-viewer/internal/streaming"
)

// Download sends the DjVu document itself.
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	h.withFile(w, r, func(file *media.File, rel string) {
		f, err := filesystem.OpenWithRetry(file.Path, filesystem.DefaultRetryConfig())
		if errors.Is(err, fs.ErrNotExist) {
			writeJSONError(w, "file not found", http.StatusNotFound)
			return
		}
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			writeDocumentError(w, rel, err)
			return
		}

		w.Header().Set("Content-Type", media.MimeType)
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": path.Base(rel)}))
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)

		if _, err := streaming.Copy(r.Context(), w, f, streaming.DefaultConfig()); err != nil && !errors.Is(err, streaming.ErrClientGone) {
			logging.Warn("Download of %s interrupted: %v", rel, err)
		}
	})
}
