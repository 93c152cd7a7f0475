package parallel

import (
	"sync/atomic"
	"testing"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != int64(n) {
		t.Errorf("Expected %d, got %d", n, counter)
	}
}

func TestForGrid(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	rows, cols := 5, 2
	results := make([][]bool, rows)
	for i := range results {
		results[i] = make([]bool, cols)
	}

	ForGrid(rows, cols, func(i, j int) {
		results[i][j] = true
	}, cfg)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if !results[i][j] {
				t.Errorf("Missing result at [%d][%d]", i, j)
			}
		}
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var counter int64
	For(100, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	if counter != 100 {
		t.Errorf("Expected 100, got %d", counter)
	}
}

func TestSpan(t *testing.T) {
	// 7 states over 3 workers: [0,3) [3,6) [6,7).
	want := [][2]int{{0, 3}, {3, 6}, {6, 7}}
	for w, exp := range want {
		s, e := Span(7, 3, w)
		if s != exp[0] || e != exp[1] {
			t.Errorf("Span(7, 3, %d) = [%d, %d), want [%d, %d)", w, s, e, exp[0], exp[1])
		}
	}

	// More workers than items leaves the tail empty.
	if s, e := Span(2, 4, 3); s != e {
		t.Errorf("Span(2, 4, 3) = [%d, %d), want empty", s, e)
	}
}

func TestGroupLockstep(t *testing.T) {
	const size, steps = 4, 50

	var arrived [steps]int64
	var bad atomic.Bool

	Group(size, func(_ int, b *Barrier) {
		for step := 0; step < steps; step++ {
			atomic.AddInt64(&arrived[step], 1)
			b.Wait()
			// After the barrier every worker has finished this step.
			if atomic.LoadInt64(&arrived[step]) != size {
				bad.Store(true)
			}
			b.Wait()
		}
	})

	if bad.Load() {
		t.Error("worker passed the barrier before the group caught up")
	}
}

func TestGroupSingleWorker(t *testing.T) {
	calls := 0
	Group(1, func(w int, b *Barrier) {
		if w != 0 {
			t.Errorf("worker index = %d, want 0", w)
		}
		b.Wait()
		calls++
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(j int) {
				atomic.AddInt64(&sum, int64(j))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		seq := Config{Enabled: false}
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(j int) {
				atomic.AddInt64(&sum, int64(j))
			}, seq)
		}
	})
}

func BenchmarkBarrier(b *testing.B) {
	Group(4, func(_ int, bar *Barrier) {
		for i := 0; i < b.N; i++ {
			bar.Wait()
		}
	})
}
