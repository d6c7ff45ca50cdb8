// Package memory sets the Go memory limit from container settings and holds
// back metadata extraction when the heap nears that limit.
//
// GOMAXPROCS follows cgroup CPU limits automatically but GOMEMLIMIT does not,
// so [ConfigureFromEnv] derives it from MEMORY_LIMIT (usually injected with
// the Kubernetes Downward API) and MEMORY_RATIO, unless GOMEMLIMIT is set
// explicitly. The default ratio leaves a fifth of the container for the
// DjVuLibre tools the extractor runs.
//
//	env:
//	  - name: MEMORY_LIMIT
//	    valueFrom:
//	      resourceFieldRef:
//	        resource: limits.memory
//
// A [Monitor] samples heap usage and implements the indexer's Throttle: above
// the critical mark extraction waits until usage drops below the high mark.
package memory
