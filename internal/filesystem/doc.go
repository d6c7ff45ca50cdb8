// Package filesystem wraps os.Stat and os.Open with retries for stale NFS
// file handles (ESTALE), which show up when a network-mounted DjVu library
// changes under a running indexer. Other errors are returned at once.
//
// Retries back off exponentially up to RetryConfig.MaxBackoff. Every
// operation is timed into Prometheus, labelled with the volume the path
// belongs to:
//
//	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
//	    "djvu":     cfg.DjvuDir,
//	    "cache":    cfg.CacheDir,
//	    "database": cfg.DatabaseDir,
//	}))
//
//	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
package filesystem
