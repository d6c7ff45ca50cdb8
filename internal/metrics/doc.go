// Package metrics provides Prometheus instrumentation for the djvu-viewer application.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "djvu_viewer_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//   - DBMetadataBytes: Histogram of stored metadata blob sizes
//
// ## Cache Metrics
//
// The dimension cache has a process tier in front of a shared tier:
//   - CacheRequestsTotal: Counter by tier (process/shared) and result (hit/miss/failed)
//   - CacheWritesTotal: Counter of shared cache writes by backend and status
//   - CacheProcessEntries: Gauge of process-local entries
//
// ## Metadata Metrics
//
//   - MetadataParseTotal: Counter of parses by result (ok/invalid/corrupt)
//   - ExtractionsTotal: Counter of djvudump/djvutxt runs by status
//   - ExtractionDuration: Histogram of tool run time
//
// ## Indexer Metrics
//
//   - IndexerRunsTotal, IndexerLastRunTimestamp, IndexerLastRunDuration
//   - IndexerFilesProcessed, IndexerErrors, IndexerIsRunning
//
// ## Library Metrics
//
//   - LibraryFilesTotal: Gauge of indexed files by metadata state (valid/failed/pending)
//   - AppInfo: Gauge with version, commit, and Go version labels
//
// # Collector
//
// [Collector] periodically reads a [StatsProvider] and the database files on
// disk and updates the library and size gauges:
//
//	collector := metrics.NewCollector(db, dbPath, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Dimension cache hit rate of the shared tier:
//
//	sum(rate(djvu_viewer_cache_requests_total{tier="shared",result="hit"}[5m])) /
//	sum(rate(djvu_viewer_cache_requests_total{tier="shared"}[5m]))
//
// Corrupt metadata blobs seen:
//
//	increase(djvu_viewer_metadata_parse_total{result="corrupt"}[1h])
//
// P95 djvudump run time:
//
//	histogram_quantile(0.95, sum(rate(djvu_viewer_extraction_duration_seconds_bucket{tool="djvudump"}[5m])) by (le))
package metrics
