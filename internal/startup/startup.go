package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"djvu-viewer/internal/cache"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/media"
	"djvu-viewer/internal/workers"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	DjvuDir         string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool
	IndexInterval   time.Duration

	CacheBackend   string
	CacheKeyPrefix string
	CacheTTL       time.Duration

	DjvudumpPath string
	DjvutxtPath  string
	ShellTimeout time.Duration

	// Derived paths
	DatabasePath string
	BadgerDir    string
}

// CachePolicy returns the key and lifetime policy for the shared cache.
func (c *Config) CachePolicy() cache.Policy {
	return cache.Policy{KeyPrefix: c.CacheKeyPrefix, TTL: c.CacheTTL}
}

// ExtractorConfig returns the tool settings for the metadata extractor.
func (c *Config) ExtractorConfig() media.ExtractorConfig {
	return media.ExtractorConfig{
		DjvudumpPath: c.DjvudumpPath,
		DjvutxtPath:  c.DjvutxtPath,
		Timeout:      c.ShellTimeout,
	}
}

// LoadConfig loads and validates configuration from environment variables.
// A .env file in the working directory is read first when present; variables
// already set in the environment take precedence over it.
func LoadConfig() (*Config, error) {
	envFileErr := godotenv.Load()

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	switch {
	case envFileErr == nil:
		logging.Info("  Loaded variables from .env")
	case !errors.Is(envFileErr, fs.ErrNotExist):
		logging.Warn("  Ignoring unreadable .env file: %v", envFileErr)
	}

	cfg, err := configFromEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  DJVU_DIR:            %s", cfg.DjvuDir)
	logging.Info("  CACHE_DIR:           %s", cfg.CacheDir)
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  INDEX_INTERVAL:      %s", cfg.IndexInterval)
	logging.Info("  CACHE_BACKEND:       %s", cfg.CacheBackend)
	logging.Info("  CACHE_KEY_PREFIX:    %s", cfg.CacheKeyPrefix)
	logging.Info("  CACHE_TTL:           %s", ttlString(cfg.CacheTTL))
	logging.Info("  DJVUDUMP_PATH:       %s", cfg.DjvudumpPath)
	logging.Info("  DJVUTXT_PATH:        %s", cfg.DjvutxtPath)
	logging.Info("  SHELL_TIMEOUT:       %s", cfg.ShellTimeout)
	logging.Info("  DJVU_WORKERS:        %d", workers.ForMixed(8))
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")
	logging.Info("  DjVu directory (absolute):     %s", cfg.DjvuDir)
	logging.Info("  Cache directory (absolute):    %s", cfg.CacheDir)
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)

	// A missing library is not fatal; the indexer finds nothing until it appears.
	if err := ensureDirectory(cfg.DjvuDir, "djvu"); err != nil {
		logging.Warn("  DjVu directory issue: %v", err)
	}

	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if cfg.CacheBackend == "badger" && !setupOptionalDir(cfg.BadgerDir, "badger cache") {
		logging.Warn("  Falling back to the sqlite cache backend")
		cfg.CacheBackend = "sqlite"
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Cache:       %s", cfg.CacheBackend)
	logging.Info("    Metrics:     %s", enabledString(cfg.MetricsEnabled))

	return cfg, nil
}

// configFromEnv reads every setting from the environment and resolves paths.
// Unparseable durations fall back to their defaults with a warning; an
// unknown cache backend is an error.
func configFromEnv() (*Config, error) {
	backend, err := cache.ParseBackend(getEnv("CACHE_BACKEND", "sqlite"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DjvuDir:         getEnv("DJVU_DIR", "/djvu"),
		CacheDir:        getEnv("CACHE_DIR", "/cache"),
		DatabaseDir:     getEnv("DATABASE_DIR", "/database"),
		Port:            getEnv("PORT", "8080"),
		MetricsPort:     getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		LogHealthChecks: getEnvBool("LOG_HEALTH_CHECKS", true),
		IndexInterval:   getEnvDuration("INDEX_INTERVAL", 30*time.Minute),
		CacheBackend:    backend,
		CacheKeyPrefix:  getEnv("CACHE_KEY_PREFIX", cache.DefaultPolicy().KeyPrefix),
		CacheTTL:        getEnvDuration("CACHE_TTL", 0),
		DjvudumpPath:    getEnv("DJVUDUMP_PATH", "djvudump"),
		DjvutxtPath:     getEnv("DJVUTXT_PATH", "djvutxt"),
		ShellTimeout:    getEnvDuration("SHELL_TIMEOUT", 60*time.Second),
	}

	for _, dir := range []struct {
		name string
		path *string
	}{
		{"DjVu", &cfg.DjvuDir},
		{"cache", &cfg.CacheDir},
		{"database", &cfg.DatabaseDir},
	} {
		abs, err := filepath.Abs(*dir.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s directory path: %w", dir.name, err)
		}
		*dir.path = abs
	}

	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "djvu.db")
	cfg.BadgerDir = filepath.Join(cfg.CacheDir, "badger")
	return cfg, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func ttlString(ttl time.Duration) string {
	if ttl <= 0 {
		return "none (entries never expire)"
	}
	return ttl.String()
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogCacheInit logs which shared cache backend is in use.
func LogCacheInit(backend string, policy cache.Policy) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CACHE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Shared tier:  %s", backend)
	logging.Info("  Key prefix:   %s", policy.KeyPrefix)
	logging.Info("  Entry TTL:    %s", ttlString(policy.TTL))
}

// ToolStatus reports whether the DjVuLibre tools resolve on this host.
type ToolStatus struct {
	Djvudump string // resolved path, empty when missing
	Djvutxt  string
}

// CheckTools resolves the configured extraction tools and logs the result.
// Missing tools only disable extraction; stored metadata is still served.
func CheckTools(cfg *Config) ToolStatus {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("EXTRACTION TOOLS")
	logging.Info("------------------------------------------------------------")

	status := ToolStatus{
		Djvudump: media.LookupTool(cfg.DjvudumpPath),
		Djvutxt:  media.LookupTool(cfg.DjvutxtPath),
	}

	if status.Djvudump == "" {
		logging.Warn("  djvudump not found (%q)", cfg.DjvudumpPath)
		logging.Warn("  New files will be stored with an extraction error")
	} else {
		logging.Info("  [OK] djvudump: %s", status.Djvudump)
	}
	if status.Djvutxt == "" {
		logging.Warn("  djvutxt not found (%q), text layers will be skipped", cfg.DjvutxtPath)
	} else {
		logging.Info("  [OK] djvutxt:  %s", status.Djvutxt)
	}
	return status
}

// LogIndexerInit logs indexer initialization
func LogIndexerInit(interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("INDEXER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Index interval: %v", interval)
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted logs successful indexer start
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level, grouped by prefix.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
     ___  _       _   _    __     ___
    / _ \(_)_   _| | | |   \ \   / (_) _____      _____ _ __
   | | | | | | | | | | |    \ \ / /| |/ _ \ \ /\ / / _ \ '__|
   | |_| | | |_| | |_| |     \ V / | |  __/\ V  V /  __/ |
   |____// |\__,_|\___/       \_/  |_|\___| \_/\_/ \___|_|
       |__/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
