package policy

import (
	"sync"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
)

// Feedback drives the dispatch loop with a three tier feedback queue.
// Processes are classified by name when first seen and demoted one tier
// after exhausting their quantum demote times in a row.
type Feedback struct {
	mu         sync.Mutex
	levels     *MultiLevel
	demote     int
	queued     map[*kernel.Proc]bool
	classified map[*kernel.Proc]int
	expiries   map[*kernel.Proc]int
	expired    map[*kernel.Proc]bool
}

// NewFeedback creates a feedback queue policy
func NewFeedback(capacity int, quantums [Levels]int, demote int) *Feedback {
	return &Feedback{
		levels:     NewMultiLevel(capacity, quantums),
		demote:     demote,
		queued:     map[*kernel.Proc]bool{},
		classified: map[*kernel.Proc]int{},
		expiries:   map[*kernel.Proc]int{},
		expired:    map[*kernel.Proc]bool{},
	}
}

// Select dispatches the head of the highest non-empty tier
func (f *Feedback) Select(c *kernel.CPU, t *kernel.Table) *kernel.Proc {
	f.admit(c, t)
	for {
		f.mu.Lock()
		p := f.levels.Next()
		delete(f.queued, p)
		f.mu.Unlock()
		if p == nil {
			return nil
		}
		p.Acquire(c)
		if p.State() == proc.StateRunnable {
			f.dispatch(p)
			p.RemainingTime = f.levels.Quantum(p.QueueLevel)
			return p
		}
		p.Release(c)
	}
}

func (f *Feedback) admit(c *kernel.CPU, t *kernel.Table) {
	for i := 0; i < t.Len(); i++ {
		p := t.Slot(i)
		p.Acquire(c)
		if p.State() == proc.StateRunnable {
			f.mu.Lock()
			// slots are reused, a new pid means a new process
			if f.classified[p] != p.PID() {
				Classify(p)
				f.classified[p] = p.PID()
				delete(f.expiries, p)
				delete(f.expired, p)
			}
			if !f.queued[p] && f.levels.Enqueue(p) {
				f.queued[p] = true
			}
			f.mu.Unlock()
		}
		p.Release(c)
	}
}

// dispatch restarts the expiry run of p unless its last slice ended by
// expiry. p is locked.
func (f *Feedback) dispatch(p *kernel.Proc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.expired[p] {
		f.expiries[p] = 0
	}
	delete(f.expired, p)
}

// Quantum returns the slice of p's tier
func (f *Feedback) Quantum(p *kernel.Proc) int {
	return f.levels.Quantum(p.QueueLevel)
}

// Expire counts the expiry and demotes p when it reached the threshold
func (f *Feedback) Expire(p *kernel.Proc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiries[p]++
	f.expired[p] = true
	if f.demote == 0 || f.expiries[p] < f.demote {
		return
	}
	f.expiries[p] = 0
	from := p.QueueLevel
	to := from + 1
	if to >= Levels {
		return
	}
	if !f.queued[p] && f.levels.Migrate(p, from, to) {
		f.queued[p] = true
	}
}
