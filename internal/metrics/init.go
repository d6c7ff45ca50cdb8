package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, tier := range []string{"process", "shared"} {
		for _, result := range []string{"hit", "miss", "failed"} {
			CacheRequestsTotal.WithLabelValues(tier, result)
		}
	}

	for _, result := range []string{"ok", "invalid", "corrupt"} {
		MetadataParseTotal.WithLabelValues(result)
	}

	for _, tool := range []string{"djvudump", "djvutxt"} {
		ExtractionsTotal.WithLabelValues(tool, "success")
		ExtractionsTotal.WithLabelValues(tool, "error")
		ExtractionDuration.WithLabelValues(tool)
	}

	for _, state := range []string{"valid", "failed", "pending"} {
		LibraryFilesTotal.WithLabelValues(state)
	}

	for _, op := range []string{"stat", "open"} {
		for _, volume := range []string{"djvu", "cache", "database"} {
			FilesystemRetryDuration.WithLabelValues(op, volume)
			FilesystemStaleErrors.WithLabelValues(op, volume)
		}
	}

	for _, op := range []string{"initialize_schema", "upsert_file", "get_file", "set_metadata",
		"get_metadata", "list_files", "delete_missing_files", "cache_get", "cache_set", "cache_delete",
		"cache_purge", "stats", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, result := range []string{"complete", "timeout", "client_gone", "error"} {
		DownloadsTotal.WithLabelValues(result)
	}
}
