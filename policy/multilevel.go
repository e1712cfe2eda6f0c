package policy

import (
	"strings"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
)

// Levels is the number of feedback queue tiers
const Levels = 3

// MultiLevel holds one ring per tier. Tier 0 always wins over tier 1, which
// wins over tier 2; lower tiers may starve under sustained load above them.
// It is not safe for concurrent use.
type MultiLevel struct {
	tiers [Levels]*Ring
}

// NewMultiLevel creates the tiers, each bounded by capacity
func NewMultiLevel(capacity int, quantums [Levels]int) *MultiLevel {
	m := &MultiLevel{}
	for i := range m.tiers {
		m.tiers[i] = NewRing(capacity, quantums[i])
	}
	return m
}

// Classify assigns p's workload class and starting tier from its name
func Classify(p *kernel.Proc) proc.Type {
	name := p.Name()
	switch {
	case strings.HasPrefix(name, "init"), strings.HasPrefix(name, "sh"):
		p.Type = proc.TypeSystem
	case strings.HasPrefix(name, "hello"), strings.HasPrefix(name, "echo"):
		p.Type = proc.TypeInteractive
	default:
		p.Type = proc.TypeBatch
	}
	p.QueueLevel = LevelOf(p.Type)
	return p.Type
}

// LevelOf returns the starting tier of a class
func LevelOf(t proc.Type) int {
	switch t {
	case proc.TypeSystem:
		return kernel.SystemLevel
	case proc.TypeInteractive:
		return kernel.InteractiveLevel
	}
	return kernel.BatchLevel
}

// EnqueueAt appends p to the tail of tier level; out of range levels go to
// the last tier.
func (m *MultiLevel) EnqueueAt(p *kernel.Proc, level int) bool {
	if level < 0 || level >= Levels {
		level = Levels - 1
	}
	p.QueueLevel = level
	return m.tiers[level].Enqueue(p)
}

// Enqueue appends p to the tail of its current tier
func (m *MultiLevel) Enqueue(p *kernel.Proc) bool {
	return m.EnqueueAt(p, p.QueueLevel)
}

// Next dequeues from the highest non-empty tier
func (m *MultiLevel) Next() *kernel.Proc {
	for _, tier := range m.tiers {
		if !tier.Empty() {
			return tier.Dequeue()
		}
	}
	return nil
}

// Migrate moves p, already dequeued from tier from, to the tail of tier to.
// It does nothing when the tiers are equal. Migrate never searches a tier
// for an entry still queued.
func (m *MultiLevel) Migrate(p *kernel.Proc, from, to int) bool {
	if from == to || to < 0 || to >= Levels {
		return false
	}
	return m.EnqueueAt(p, to)
}

// Quantum returns the time slice of tier level
func (m *MultiLevel) Quantum(level int) int {
	if level < 0 || level >= Levels {
		level = Levels - 1
	}
	return m.tiers[level].Quantum()
}

// Len returns number of processes queued at tier level
func (m *MultiLevel) Len(level int) int {
	return m.tiers[level].Len()
}

// Empty returns true when no tier holds a process
func (m *MultiLevel) Empty() bool {
	for _, tier := range m.tiers {
		if !tier.Empty() {
			return false
		}
	}
	return true
}
