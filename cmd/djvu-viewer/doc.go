// Package main provides the entry point for the DjVu viewer service.
//
// The service indexes a directory of DjVu documents, extracts their
// structure with djvudump and djvutxt, and serves page counts, page
// dimensions and OCR text over a JSON API.
//
// # Application Lifecycle
//
//  1. Memory Configuration: sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: reads .env and the environment, validates directories
//  3. Tool Check: reports whether djvudump and djvutxt are on PATH
//  4. Database Initialization: opens the SQLite database in WAL mode
//  5. Component Initialization:
//     - Shared dimension cache (sqlite, badger or memory)
//     - Metadata extractor and document handler
//     - Memory monitor, used as indexer backpressure
//     - Indexer and metrics collector
//  6. HTTP Server Setup: routes, access logging and request metrics
//  7. Graceful Shutdown on SIGINT/SIGTERM
//
// # HTTP Servers
//
// The main server (PORT, default 8080) serves the API and health probes.
// When METRICS_ENABLED is true a second server on METRICS_PORT (default
// 9090) exposes /metrics for Prometheus.
//
// # Graceful Shutdown
//
//  1. Stop accepting new HTTP requests (30s timeout)
//  2. Stop the metrics collector
//  3. Stop the indexer; a running extraction is cancelled
//  4. Stop the memory monitor and the metrics server
//  5. Close the shared cache and the database
//
// # Build Requirements
//
// CGO is required for SQLite. djvudump and djvutxt from DjVuLibre must be
// installed for extraction; without them every file is recorded as failed.
//
//	go build -o djvu-viewer ./cmd/djvu-viewer
package main
