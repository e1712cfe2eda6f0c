package policy

import (
	"sync"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
)

// RoundRobin dispatches runnable processes in arrival order, each for a
// fixed quantum. A process preempted at quantum expiry rejoins at the tail.
type RoundRobin struct {
	mu     sync.Mutex
	ring   *Ring
	queued map[*kernel.Proc]bool
}

// NewRoundRobin creates a round-robin policy
func NewRoundRobin(capacity, quantum int) *RoundRobin {
	return &RoundRobin{ring: NewRing(capacity, quantum), queued: map[*kernel.Proc]bool{}}
}

// Select returns the head of the ring that is still runnable
func (r *RoundRobin) Select(c *kernel.CPU, t *kernel.Table) *kernel.Proc {
	r.admit(c, t)
	for {
		r.mu.Lock()
		p := r.ring.Dequeue()
		delete(r.queued, p)
		r.mu.Unlock()
		if p == nil {
			return nil
		}
		p.Acquire(c)
		if p.State() == proc.StateRunnable {
			p.RemainingTime = r.ring.Quantum()
			return p
		}
		p.Release(c)
	}
}

// admit enqueues runnable slots that are not queued yet, in table order.
// Slot locks are taken before the ring mutex, never the other way round.
func (r *RoundRobin) admit(c *kernel.CPU, t *kernel.Table) {
	for i := 0; i < t.Len(); i++ {
		p := t.Slot(i)
		p.Acquire(c)
		if p.State() == proc.StateRunnable {
			r.mu.Lock()
			if !r.queued[p] && r.ring.Enqueue(p) {
				r.queued[p] = true
			}
			r.mu.Unlock()
		}
		p.Release(c)
	}
}

// Quantum returns the fixed time slice
func (r *RoundRobin) Quantum(*kernel.Proc) int { return r.ring.Quantum() }

// Expire requeues p at the tail
func (r *RoundRobin) Expire(p *kernel.Proc) {
	r.mu.Lock()
	if !r.queued[p] && r.ring.Enqueue(p) {
		r.queued[p] = true
	}
	r.mu.Unlock()
}
