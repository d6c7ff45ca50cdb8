package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"djvu-viewer/internal/cache"
	"djvu-viewer/internal/database"
	"djvu-viewer/internal/filesystem"
	"djvu-viewer/internal/handlers"
	"djvu-viewer/internal/indexer"
	"djvu-viewer/internal/logging"
	"djvu-viewer/internal/media"
	"djvu-viewer/internal/memory"
	"djvu-viewer/internal/metrics"
	"djvu-viewer/internal/middleware"
	"djvu-viewer/internal/startup"

	"github.com/gorilla/mux"
)

const (
	metricsInterval   = time.Minute
	cachePurgeEvery   = time.Hour
	badgerGCEvery     = 10 * time.Minute
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// dbStatsAdapter lets the metrics collector read library statistics.
type dbStatsAdapter struct {
	db *database.Database
}

func (a *dbStatsAdapter) GetStats() metrics.Stats {
	return a.db.GetStats()
}

// sharedCache is the second cache tier plus its periodic upkeep.
type sharedCache struct {
	cache.SharedCache
	maintain func(ctx context.Context)
	close    func() error
}

// openSharedCache builds the configured shared cache backend. sqlite keeps
// entries in the application database; badger keeps them under BadgerDir.
func openSharedCache(config *startup.Config, db *database.Database) (*sharedCache, error) {
	switch config.CacheBackend {
	case "badger":
		bc, err := cache.OpenBadger(config.BadgerDir)
		if err != nil {
			return nil, err
		}
		return &sharedCache{
			SharedCache: bc,
			maintain: func(ctx context.Context) {
				runEvery(ctx, badgerGCEvery, func() {
					if err := bc.RunGC(); err != nil {
						logging.Warn("Badger value log GC failed: %v", err)
					}
				})
			},
			close: bc.Close,
		}, nil
	case "memory":
		return &sharedCache{SharedCache: cache.NewMemoryCache()}, nil
	default:
		return &sharedCache{
			SharedCache: cache.NewSQLiteCache(db),
			maintain: func(ctx context.Context) {
				runEvery(ctx, cachePurgeEvery, func() {
					if n, err := db.PurgeExpiredCache(ctx); err != nil {
						logging.Warn("Purging expired cache entries failed: %v", err)
					} else if n > 0 {
						logging.Debug("Purged %d expired cache entries", n)
					}
				})
			},
		}, nil
	}
}

func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	serveMux := http.NewServeMux()
	serveMux.Handle("/metrics", h.MetricsHandler())
	serveMux.HandleFunc("/health", h.LivenessCheck)
	return &http.Server{
		Addr:              ":" + port,
		Handler:           serveMux,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"djvu":     config.DjvuDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))
	startup.CheckTools(config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	shared, err := openSharedCache(config, db)
	if err != nil {
		startup.LogFatal("Failed to open %s cache: %v", config.CacheBackend, err)
	}
	if shared.maintain != nil {
		go shared.maintain(ctx)
	}
	startup.LogCacheInit(config.CacheBackend, config.CachePolicy())

	extractor := media.NewExtractor(config.ExtractorConfig())
	docs := media.NewHandler(db, extractor, shared, config.CachePolicy())

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	startup.LogIndexerInit(config.IndexInterval)
	idx := indexer.New(db, docs, config.DjvuDir, config.IndexInterval)
	idx.SetThrottle(memMonitor)
	idx.SetOnIndexComplete(func(indexer.Result) {
		db.UpdateDBMetrics()
	})
	idx.Start()
	startup.LogIndexerStarted()

	metrics.InitializeMetrics()
	build := startup.GetBuildInfo()
	metrics.AppInfo.WithLabelValues(build.Version, build.Commit, runtime.Version()).Set(1)
	collector := metrics.NewCollector(&dbStatsAdapter{db: db}, config.DatabasePath, metricsInterval)
	collector.Start()

	h := handlers.New(db, idx, docs, config.DjvuDir)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	router.Use(middleware.Logger(loggingConfig))
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      config.ShellTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, metricsSrv, idx, collector, memMonitor)
		cancel()
		if shared.close != nil {
			if err := shared.close(); err != nil {
				logging.Warn("Closing cache failed: %v", err)
			}
		}
		if err := db.Close(); err != nil {
			logging.Warn("Closing database failed: %v", err)
		}
		startup.LogShutdownComplete()
		close(done)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func handleShutdown(srv, metricsSrv *http.Server, idx *indexer.Indexer, collector *metrics.Collector, memMonitor *memory.Monitor) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	memMonitor.Stop()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}
}
