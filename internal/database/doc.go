// Package database provides SQLite storage for the djvu-viewer application.
//
// It holds:
//   - indexed DjVu files with their content hash and metadata blob
//   - the objectcache table backing the shared dimension cache
//
// Metadata blobs are keyed by content hash, so files with identical bytes
// share one extraction. Large blobs are stored LZMA-compressed.
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization.
package database
