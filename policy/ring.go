package policy

import "github.com/viant/kproc/runtime/kernel"

// Ring is a bounded circular FIFO of processes. It is not safe for
// concurrent use.
type Ring struct {
	items   []*kernel.Proc
	front   int
	rear    int
	quantum int
}

// NewRing creates a ring holding up to capacity processes, each granted
// quantum ticks per turn.
func NewRing(capacity, quantum int) *Ring {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring{items: make([]*kernel.Proc, capacity+1), quantum: quantum}
}

// Enqueue appends p at the tail. It returns false, dropping p, when the ring is full.
func (r *Ring) Enqueue(p *kernel.Proc) bool {
	next := (r.rear + 1) % len(r.items)
	if next == r.front {
		return false
	}
	r.items[r.rear] = p
	r.rear = next
	return true
}

// Dequeue removes the head, nil when empty
func (r *Ring) Dequeue() *kernel.Proc {
	if r.Empty() {
		return nil
	}
	p := r.items[r.front]
	r.items[r.front] = nil
	r.front = (r.front + 1) % len(r.items)
	return p
}

// Empty returns true if no process is queued
func (r *Ring) Empty() bool { return r.front == r.rear }

// Full returns true if Enqueue would drop
func (r *Ring) Full() bool { return (r.rear+1)%len(r.items) == r.front }

// Len returns number of queued processes
func (r *Ring) Len() int {
	return (r.rear - r.front + len(r.items)) % len(r.items)
}

// Cap returns ring capacity
func (r *Ring) Cap() int { return len(r.items) - 1 }

// Quantum returns the time slice
func (r *Ring) Quantum() int { return r.quantum }
