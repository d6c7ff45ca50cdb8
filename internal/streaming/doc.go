/*
Package streaming sends document bodies to HTTP clients without letting a
stalled client hold the connection open.

A Writer splits the body into chunks and pushes the connection's write
deadline forward before each chunk through http.ResponseController. A client
that stops reading makes the next write fail with ErrWriteTimeout instead of
blocking the handler. Cancellation of the request context ends the copy with
ErrClientGone.

	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	w.Header().Set("Content-Type", media.MimeType)
	n, err := streaming.Copy(r.Context(), w, f, streaming.DefaultConfig())

Copy records outcomes in djvu_viewer_downloads_total and bytes sent in
djvu_viewer_download_bytes_total.

Response writers that do not support deadlines, such as
httptest.ResponseRecorder, still get chunking and context checks.
*/
package streaming
