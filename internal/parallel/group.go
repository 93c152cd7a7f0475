package parallel

import "sync"

// Barrier is a reusable rendezvous point for a fixed number of goroutines.
// Every call to Wait blocks until all parties have called it, then the
// barrier resets for the next round.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	parties int
	waiting int
	round   uint64
}

// NewBarrier creates a barrier for parties goroutines.
func NewBarrier(parties int) *Barrier {
	if parties < 1 {
		panic("parallel: barrier needs at least one party")
	}
	b := &Barrier{parties: parties}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait blocks until all parties reach the barrier.
func (b *Barrier) Wait() {
	if b.parties == 1 {
		return
	}
	b.mu.Lock()
	round := b.round
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.round++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for round == b.round {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// Group runs size workers that run in lockstep, crossing a shared barrier.
//
// Each worker receives its index and the barrier. All workers must call
// Wait the same number of times or the group deadlocks; the kernels ensure
// this by looping over the full time axis in every worker.
func Group(size int, f func(w int, b *Barrier)) {
	if size <= 1 {
		f(0, NewBarrier(1))
		return
	}

	b := NewBarrier(size)
	var wg sync.WaitGroup
	wg.Add(size - 1)
	for w := 1; w < size; w++ {
		go func(w int) {
			defer wg.Done()
			f(w, b)
		}(w)
	}
	f(0, b)
	wg.Wait()
}
