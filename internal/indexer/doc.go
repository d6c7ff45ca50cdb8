// Package indexer keeps the file database in step with the DjVu directory.
//
// Each run walks the directory for .djvu and .djv files, hashes them with
// BLAKE2b-256 and upserts one row per path. Files whose content hash is new
// get their metadata extracted right away, on a bounded worker pool, so the
// first page request does not wait on djvudump. Rows for files that no
// longer exist are removed at the end of the run. Hidden files and
// directories (prefixed with '.') are excluded.
//
// The indexer runs:
//   - once on startup, in the background
//   - on a configurable interval
//   - on demand via Trigger (POST /api/reindex)
package indexer
