// Package startup loads configuration and writes the startup and shutdown
// log sections.
//
// # Configuration
//
// [LoadConfig] reads a .env file from the working directory when one exists
// (github.com/joho/godotenv), then the process environment, which wins over
// the file:
//
//   - DJVU_DIR: library root scanned by the indexer (default: /djvu)
//   - CACHE_DIR: working directory for the badger cache (default: /cache)
//   - DATABASE_DIR: SQLite directory (default: /database)
//   - PORT, METRICS_PORT: API and Prometheus ports (default: 8080, 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - INDEX_INTERVAL: time between library scans (default: 30m)
//   - CACHE_BACKEND: sqlite, badger or memory (default: sqlite)
//   - CACHE_KEY_PREFIX, CACHE_TTL: shared cache keys and lifetime (default: djvu, none)
//   - DJVUDUMP_PATH, DJVUTXT_PATH: DjVuLibre tools (default: looked up on PATH)
//   - SHELL_TIMEOUT: per-tool run limit (default: 60s)
//   - DJVU_WORKERS: indexer worker count override
//   - LOG_LEVEL: debug, info, warn or error (default: info)
//   - LOG_HEALTH_CHECKS: log probe requests (default: true)
//
// The database directory must be writable. A badger cache directory that
// cannot be created falls back to the sqlite backend.
//
// # Build Information
//
// Version, Commit and BuildTime are injected with -ldflags and exposed via
// [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.CheckTools(config)
//	startup.LogDatabaseInit(dbInitDuration)
//	startup.LogIndexerInit(config.IndexInterval)
package startup
