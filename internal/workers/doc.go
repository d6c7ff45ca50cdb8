/*
Package workers sizes and runs bounded worker pools.

Worker counts come from GOMAXPROCS rather than runtime.NumCPU so that
container CPU limits are respected:

	// Kubernetes pod limited to 2 CPUs on a 64-core node
	runtime.NumCPU()      // 64
	runtime.GOMAXPROCS(0) // 2

# Sizing

	workers.ForCPU(8)    // 1 per CPU, at most 8
	workers.ForIO(16)    // 2 per CPU, at most 16
	workers.ForMixed(12) // 1.5 per CPU, at most 12
	workers.Count(3, 24) // custom multiplier

Every function honours the DJVU_WORKERS environment variable, still capped by
the limit argument:

	env:
	- name: DJVU_WORKERS
	  value: "4"

# Running

Run fans a slice of items out to a fixed number of goroutines and collects
their errors:

	err := workers.Run(ctx, workers.ForMixed(8), files, func(ctx context.Context, f string) error {
		return extract(ctx, f)
	})

Cancelling ctx stops new items from being started; items already running
finish.
*/
package workers
