// Package handlers provides the HTTP API of the DjVu viewer.
//
// It includes handlers for:
//   - Listing indexed files and library statistics
//   - Page counts, page dimensions and renditions
//   - OCR text per page
//   - Raw metadata and forced re-extraction
//   - Downloading the document itself
//   - Health checks and build information
//
// Document routes address files by their path relative to the library
// root, for example /api/file/scans/1901/vol1.djvu/page/3.
package handlers
