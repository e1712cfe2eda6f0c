package kernel

import (
	"sync/atomic"
)

// CPU holds the per-core state: the process running on it, the dispatch loop
// context, the interrupt enable flag and the push_off nesting depth.
type CPU struct {
	id      int
	proc    *Proc
	context *Context
	noff    int
	intena  bool
	intr    atomic.Bool
	ticks   atomic.Int64
	halt    atomic.Bool
	wake    chan struct{}
}

// NewCPU creates a core with interrupts disabled
func NewCPU(id int) *CPU {
	return &CPU{
		id:      id,
		context: NewContext(nil),
		wake:    make(chan struct{}, 1),
	}
}

// ID returns core number
func (c *CPU) ID() int { return c.id }

// Proc returns the process running on this core, nil when the dispatch loop runs.
func (c *CPU) Proc() *Proc { return c.proc }

// Depth returns the interrupt-disable nesting depth
func (c *CPU) Depth() int { return c.noff }

// IntrOn enables device interrupts
func (c *CPU) IntrOn() { c.intr.Store(true) }

// IntrOff disables device interrupts
func (c *CPU) IntrOff() { c.intr.Store(false) }

// IntrGet reports whether device interrupts are enabled
func (c *CPU) IntrGet() bool { return c.intr.Load() }

// PushOff disables interrupts and records the nesting level. The interrupt
// state seen by the outermost PushOff is restored by the matching PopOff.
func (c *CPU) PushOff() {
	old := c.IntrGet()
	c.IntrOff()
	if c.noff == 0 {
		c.intena = old
	}
	c.noff++
}

// PopOff undoes one PushOff
func (c *CPU) PopOff() {
	if c.IntrGet() {
		panic("pop_off: interruptible")
	}
	if c.noff < 1 {
		panic("pop_off: unbalanced")
	}
	c.noff--
	if c.noff == 0 && c.intena {
		c.IntrOn()
	}
}

// kick wakes the dispatch loop if it idles
func (c *CPU) kick() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
