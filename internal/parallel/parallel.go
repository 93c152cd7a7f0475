// Package parallel provides the worker pools used by the CTC kernels.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1, // Kernel jobs are whole sequences, never too small.
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || n < cfg.MinChunkSize || n < 2 || cfg.NumWorkers < 2 {
		// Sequential fallback.
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForGrid runs f(i, j) over an rows×cols grid, flattened row-major.
// The CTC kernels use it for the (batch element, direction) grid.
func ForGrid(rows, cols int, f func(i, j int), cfg Config) {
	For(rows*cols, func(k int) {
		f(k/cols, k%cols)
	}, cfg)
}

// Span returns the half-open range [start, end) of the w-th of parts
// near-equal slices of [0, n). Trailing workers may get an empty range.
func Span(n, parts, w int) (int, int) {
	chunk := (n + parts - 1) / parts
	start := min(w*chunk, n)
	end := min(start+chunk, n)
	return start, end
}
