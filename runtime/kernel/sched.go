package kernel

import (
	"context"
	"runtime"
	"time"

	"github.com/viant/kproc/model/proc"
)

// Scheduler runs the per-core dispatch loop until ctx is done. Each
// iteration enables interrupts, asks the policy for a runnable slot and
// switches to it. The process switches back with its slot lock held, which
// the loop releases. Cancellation is observed between dispatches only.
func (k *Kernel) Scheduler(ctx context.Context, c *CPU) {
	done := make(chan struct{})
	defer close(done)
	c.halt.Store(false)
	go func() {
		select {
		case <-ctx.Done():
			c.halt.Store(true)
			c.kick()
		case <-done:
		}
	}()

	c.proc = nil
	for {
		// The most recent process may have had interrupts turned off;
		// enable them to avoid a deadlock if all processes are waiting.
		c.IntrOn()
		if ctx.Err() != nil {
			return
		}
		p := k.policy.Select(c, k.table)
		if p == nil {
			k.idle(ctx, c)
			continue
		}
		p.state = proc.StateRunning
		p.cpu = c
		c.proc = p
		c.ticks.Store(0)
		Switch(c.context, p.context)

		// Process is done running for now.
		c.proc = nil
		p.lock.Release(c)
	}
}

func (k *Kernel) idle(ctx context.Context, c *CPU) {
	timer := time.NewTimer(k.config.IdlePoll)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-c.wake:
	case <-timer.C:
	}
}

// sched switches to the dispatch loop of the current core. The caller must
// hold only its slot lock and must already have changed its state.
func (k *Kernel) sched(p *Proc) {
	c := k.checkSched(p)
	intena := c.intena
	if k.switchHook != nil {
		k.switchHook(p)
	}
	Switch(p.context, c.context)
	p.cpu.intena = intena
}

// finalSched gives up the core for good; the calling thread terminates.
func (k *Kernel) finalSched(p *Proc) {
	c := k.checkSched(p)
	if k.switchHook != nil {
		k.switchHook(p)
	}
	resume(c.context)
	runtime.Goexit()
}

func (k *Kernel) checkSched(p *Proc) *CPU {
	c := p.cpu
	if !p.lock.Holding(c) {
		panic("sched: slot lock not held")
	}
	if c.noff != 1 {
		panic("sched: locks")
	}
	if p.state == proc.StateRunning {
		panic("sched: running")
	}
	if c.IntrGet() {
		panic("sched: interruptible")
	}
	return c
}

// Yield gives up the core for one scheduling round
func (k *Kernel) Yield(p *Proc) {
	p.lock.Acquire(p.cpu)
	p.state = proc.StateRunnable
	k.sched(p)
	p.lock.Release(p.cpu)
}

// forkret is where a new process starts on its first dispatch
func (k *Kernel) forkret(p *Proc) {
	// Still holding the slot lock from the dispatch loop.
	p.lock.Release(p.cpu)
	k.usertrapret(p)
}
