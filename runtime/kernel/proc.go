package kernel

import (
	"context"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/tracing"
)

// Program is the user-mode body of a process. A forked child re-enters the
// same Program with the trapframe copied from its parent, so the program
// uses the trapframe's Epc to tell where to resume.
type Program func(u *User)

// Proc is a process table slot
type Proc struct {
	lock  Spinlock
	index int

	// lock must be held when using these
	state    proc.State
	channel  any
	killed   bool
	xstate   int
	pid      int
	priority int
	sz       uint64

	// Scheduling policy fields, guarded by the slot lock.
	RemainingTime int
	Type          proc.Type
	QueueLevel    int

	// wait lock must be held when using this
	parent *Proc

	// private to the process, so lock need not be held
	context *Context
	cpu     *CPU
	tf      *proc.Trapframe
	space   Space
	ofile   []File
	cwd     Inode
	name    string
	program Program
	ctx     context.Context
	span    *tracing.Span
}

// NewProc creates a detached runnable record, used by policy simulations
func NewProc(pid int, name string, priority int) *Proc {
	return &Proc{
		lock:       Spinlock{name: "proc"},
		index:      -1,
		state:      proc.StateRunnable,
		pid:        pid,
		name:       name,
		priority:   priority,
		Type:       proc.TypeBatch,
		QueueLevel: BatchLevel,
	}
}

// Acquire takes the slot lock on behalf of c
func (p *Proc) Acquire(c *CPU) { p.lock.Acquire(c) }

// Release drops the slot lock held by c
func (p *Proc) Release(c *CPU) { p.lock.Release(c) }

// Holding reports whether c holds the slot lock
func (p *Proc) Holding(c *CPU) bool { return p.lock.Holding(c) }

// PID returns process id; the caller holds the slot lock or is the process.
func (p *Proc) PID() int { return p.pid }

// State returns slot state; the caller holds the slot lock.
func (p *Proc) State() proc.State { return p.state }

// Priority returns scheduling priority; the caller holds the slot lock.
func (p *Proc) Priority() int { return p.priority }

// Name returns process name
func (p *Proc) Name() string { return p.name }

// Index returns the slot position in the table, -1 for detached records
func (p *Proc) Index() int { return p.index }

// Killed reports the kill flag; the caller holds the slot lock.
func (p *Proc) Killed() bool { return p.killed }

func truncateName(name string) string {
	if len(name) >= proc.NameSize {
		return name[:proc.NameSize-1]
	}
	return name
}
