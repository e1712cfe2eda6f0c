package kernel

import "github.com/viant/kproc/model/proc"

// Sleep atomically releases lk and sleeps on ch; lk is reacquired on wakeup.
// The slot lock is taken before lk is released, so a Wakeup issued by a
// holder of lk cannot be lost. ch must be comparable, typically a pointer.
func (k *Kernel) Sleep(p *Proc, ch any, lk *Spinlock) {
	p.lock.Acquire(p.cpu)
	lk.Release(p.cpu)

	p.channel = ch
	p.state = proc.StateSleeping
	k.sched(p)

	p.channel = nil
	c := p.cpu
	p.lock.Release(c)
	lk.Acquire(c)
}

// Wakeup makes every process sleeping on ch runnable, except the one running
// on c. Must be called without any slot lock held.
func (k *Kernel) Wakeup(c *CPU, ch any) {
	self := c.proc
	woke := false
	for i := range k.table.procs {
		p := &k.table.procs[i]
		if p == self {
			continue
		}
		p.lock.Acquire(c)
		if p.state == proc.StateSleeping && p.channel == ch {
			p.state = proc.StateRunnable
			woke = true
		}
		p.lock.Release(c)
	}
	if woke {
		k.kick()
	}
}
