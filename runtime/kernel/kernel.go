package kernel

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Kernel owns the process table, the cores and the locks that order them
type Kernel struct {
	config     Config
	table      *Table
	cpus       []*CPU
	irq        *CPU
	irqMu      sync.Mutex
	waitLock   Spinlock
	tickLock   Spinlock
	ticks      uint64
	initProc   atomic.Pointer[Proc]
	policy     Policy
	memory     Memory
	fs         FileSystem
	observer   Observer
	switchHook func(p *Proc)
	console    io.Writer
	consoleMu  sync.Mutex
	syscalls   map[int64]syscallHandler
	ctx        context.Context
}

// New creates a kernel
func New(options ...Option) (*Kernel, error) {
	k := &Kernel{
		config:   DefaultConfig(),
		waitLock: Spinlock{name: "wait_lock"},
		tickLock: Spinlock{name: "time"},
		ctx:      context.Background(),
		console:  io.Discard,
	}
	for _, opt := range options {
		opt(k)
	}
	if k.memory == nil {
		return nil, fmt.Errorf("memory is required")
	}
	if k.fs == nil {
		return nil, fmt.Errorf("file system is required")
	}
	if err := k.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernel config: %w", err)
	}
	if k.policy == nil {
		k.policy = &StrictPriority{}
	}
	k.table = NewTable(k.config.NProc, k.config.NOFile)
	for i := 0; i < k.config.NCPU; i++ {
		k.cpus = append(k.cpus, NewCPU(i))
	}
	k.irq = NewCPU(-1)
	k.syscalls = k.syscallTable()
	return k, nil
}

// Config returns kernel config
func (k *Kernel) Config() Config { return k.config }

// Table returns process table
func (k *Kernel) Table() *Table { return k.table }

// CPUs returns the cores
func (k *Kernel) CPUs() []*CPU { return k.cpus }

// Policy returns the active scheduling policy
func (k *Kernel) Policy() Policy { return k.policy }

// Interrupt runs fn in device interrupt context. Interrupt handlers are
// serialised and run on a dedicated pseudo core that never runs processes.
func (k *Kernel) Interrupt(fn func(c *CPU)) {
	k.irqMu.Lock()
	defer k.irqMu.Unlock()
	fn(k.irq)
}

// Printf writes to the console. Output of concurrent processes interleaves
// by whole calls.
func (k *Kernel) Printf(format string, args ...interface{}) {
	k.consoleMu.Lock()
	defer k.consoleMu.Unlock()
	fmt.Fprintf(k.console, format, args...)
}

// kick wakes idle cores after a slot became runnable
func (k *Kernel) kick() {
	for _, c := range k.cpus {
		c.kick()
	}
}
