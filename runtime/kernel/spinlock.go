package kernel

import (
	"sync"
	"sync/atomic"
)

// Spinlock is a mutual exclusion lock owned by a CPU rather than a
// goroutine. Acquiring it disables interrupts on the owning CPU until the
// matching Release, so a lock may be taken by a process and released by the
// dispatch loop that resumes on the same core.
type Spinlock struct {
	name string
	mu   sync.Mutex
	cpu  atomic.Pointer[CPU]
}

// NewSpinlock creates a named lock
func NewSpinlock(name string) *Spinlock {
	return &Spinlock{name: name}
}

// Name returns lock name
func (l *Spinlock) Name() string { return l.name }

// Acquire takes the lock on behalf of c. Re-acquiring a lock already held
// by c is a fatal error.
func (l *Spinlock) Acquire(c *CPU) {
	c.PushOff()
	if l.Holding(c) {
		panic("acquire: " + l.name)
	}
	l.mu.Lock()
	l.cpu.Store(c)
}

// Release drops the lock held by c
func (l *Spinlock) Release(c *CPU) {
	if !l.Holding(c) {
		panic("release: " + l.name)
	}
	l.cpu.Store(nil)
	l.mu.Unlock()
	c.PopOff()
}

// Holding reports whether c holds the lock
func (l *Spinlock) Holding(c *CPU) bool {
	return c != nil && l.cpu.Load() == c
}
