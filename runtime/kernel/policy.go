package kernel

import "github.com/viant/kproc/model/proc"

// Queue levels of the multi-level policy, highest priority first.
const (
	SystemLevel      = 0
	InteractiveLevel = 1
	BatchLevel       = 2
)

// Policy selects the next process for a core
type Policy interface {
	// Select returns a RUNNABLE slot with its lock held by c, or nil.
	Select(c *CPU, t *Table) *Proc
	// Quantum returns the number of ticks p may run before it is preempted,
	// 0 when the policy does not slice time. The caller holds p's lock.
	Quantum(p *Proc) int
	// Expire is called with p's lock held after p used up its quantum.
	Expire(p *Proc)
}

// StrictPriority picks the runnable slot with the lowest priority value;
// ties go to the first slot in table order.
type StrictPriority struct{}

// Select scans the whole table holding the lock of the best candidate so far
func (s *StrictPriority) Select(c *CPU, t *Table) *Proc {
	var selected *Proc
	for i := 0; i < t.Len(); i++ {
		p := t.Slot(i)
		p.lock.Acquire(c)
		if p.state == proc.StateRunnable && (selected == nil || p.priority < selected.priority) {
			if selected != nil {
				selected.lock.Release(c)
			}
			selected = p
			continue
		}
		p.lock.Release(c)
	}
	return selected
}

// Quantum returns 0, strict priority does not slice time
func (s *StrictPriority) Quantum(*Proc) int { return 0 }

// Expire is a no-op
func (s *StrictPriority) Expire(*Proc) {}
