package kernel

import (
	"context"
	"time"

	"github.com/viant/kproc/model/proc"
)

// usertrapret enters user mode. A program that returns exits with status 0.
func (k *Kernel) usertrapret(p *Proc) {
	p.program(&User{kernel: k, proc: p})
	k.Exit(p, 0)
}

// usertrap handles a system call issued by p
func (k *Kernel) usertrap(p *Proc) {
	if k.Killed(p) {
		k.Exit(p, -1)
	}
	k.syscall(p)
	k.checkpoint(p)
}

// checkpoint runs on every return to user mode. Killed processes exit, and
// pending timer ticks are charged to the running process, which gives up
// the core when its quantum is used.
func (k *Kernel) checkpoint(p *Proc) {
	if k.Killed(p) {
		k.Exit(p, -1)
	}
	c := p.cpu
	if c.halt.Load() {
		k.Yield(p)
		return
	}
	pending := int(c.ticks.Swap(0))
	if pending == 0 {
		return
	}

	p.lock.Acquire(c)
	quantum := k.policy.Quantum(p)
	if quantum == 0 {
		if !k.config.PreemptOnTick {
			p.lock.Release(c)
			return
		}
		p.state = proc.StateRunnable
		k.sched(p)
		p.lock.Release(p.cpu)
		return
	}
	p.RemainingTime -= pending
	if p.RemainingTime > 0 {
		p.lock.Release(c)
		return
	}
	p.state = proc.StateRunnable
	k.policy.Expire(p)
	k.sched(p)
	p.lock.Release(p.cpu)
}

// Tick delivers one timer interrupt
func (k *Kernel) Tick() {
	k.Interrupt(k.clockintr)
}

func (k *Kernel) clockintr(c *CPU) {
	k.tickLock.Acquire(c)
	k.ticks++
	k.Wakeup(c, &k.ticks)
	k.tickLock.Release(c)
	for _, cpu := range k.cpus {
		cpu.ticks.Add(1)
	}
}

// StartClock delivers timer interrupts every interval until ctx is done
func (k *Kernel) StartClock(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				k.Tick()
			}
		}
	}()
}
