package kernel

import (
	"fmt"
)

// Semaphore is a counting semaphore for processes, built on a spinlock and
// sleep/wakeup.
type Semaphore struct {
	kernel  *Kernel
	lock    Spinlock
	name    string
	value   int
	waits   uint64
	blocked uint64
	wakes   uint64
	signals uint64
}

// SemaphoreStats is a snapshot of semaphore counters
type SemaphoreStats struct {
	Name    string
	Value   int
	Waits   uint64
	Blocked uint64
	Wakes   uint64
	Signals uint64
}

// String returns status line
func (s SemaphoreStats) String() string {
	return fmt.Sprintf("semaphore %s: value=%d, waits=%d, blocked=%d, wakeups=%d, signals=%d",
		s.Name, s.Value, s.Waits, s.Blocked, s.Wakes, s.Signals)
}

// NewSemaphore creates a semaphore with initial value
func (k *Kernel) NewSemaphore(name string, value int) (*Semaphore, error) {
	if value < 0 {
		return nil, fmt.Errorf("semaphore %v value %d: %w", name, value, ErrInvalidArgument)
	}
	if name == "" {
		name = "(unnamed)"
	}
	return &Semaphore{kernel: k, lock: Spinlock{name: "sem " + name}, name: name, value: value}, nil
}

// Wait decrements the value, sleeping while it is not positive. A killed
// process stops waiting with ErrKilled.
func (s *Semaphore) Wait(p *Proc) error {
	s.lock.Acquire(p.cpu)
	s.waits++
	for s.value <= 0 {
		if s.kernel.Killed(p) {
			s.lock.Release(p.cpu)
			return fmt.Errorf("semaphore %v: %w", s.name, ErrKilled)
		}
		s.blocked++
		s.kernel.Sleep(p, s, &s.lock)
		s.wakes++
	}
	s.value--
	s.lock.Release(p.cpu)
	return nil
}

// Signal increments the value and wakes waiters
func (s *Semaphore) Signal(c *CPU) {
	s.lock.Acquire(c)
	s.signals++
	s.value++
	if s.blocked > s.wakes {
		s.kernel.Wakeup(c, s)
	}
	s.lock.Release(c)
}

// Stats returns a snapshot of the counters
func (s *Semaphore) Stats(c *CPU) SemaphoreStats {
	s.lock.Acquire(c)
	defer s.lock.Release(c)
	return SemaphoreStats{Name: s.name, Value: s.value, Waits: s.waits, Blocked: s.blocked, Wakes: s.wakes, Signals: s.signals}
}
