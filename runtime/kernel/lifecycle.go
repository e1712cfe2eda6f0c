package kernel

import (
	"encoding/binary"
	"fmt"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/tracing"
)

// allocate finds an unused slot and prepares it to run in the kernel. On
// success the slot is returned in USED state with its lock held by c.
func (k *Kernel) allocate(c *CPU) (*Proc, error) {
	var p *Proc
	for i := range k.table.procs {
		candidate := &k.table.procs[i]
		candidate.lock.Acquire(c)
		if candidate.state == proc.StateUnused {
			p = candidate
			break
		}
		candidate.lock.Release(c)
	}
	if p == nil {
		return nil, fmt.Errorf("allocate process: %w", ErrResourceExhausted)
	}

	p.pid = k.table.allocPID(c)
	p.state = proc.StateUsed
	p.priority = k.config.DefaultPriority
	p.RemainingTime = 0
	p.Type = proc.TypeBatch
	p.QueueLevel = BatchLevel

	var err error
	if p.tf, err = k.memory.NewFrame(); err != nil {
		k.free(p)
		p.lock.Release(c)
		return nil, fmt.Errorf("allocate trapframe: %w: %w", ErrResourceExhausted, err)
	}
	if p.space, err = k.memory.Create(); err != nil {
		k.free(p)
		p.lock.Release(c)
		return nil, fmt.Errorf("allocate address space: %w: %w", ErrResourceExhausted, err)
	}
	p.context = NewContext(func() { k.forkret(p) })
	return p, nil
}

// free returns a slot to UNUSED, releasing whatever it still owns. The slot
// lock must be held. Partially initialised slots are fine.
func (k *Kernel) free(p *Proc) {
	if p.tf != nil {
		k.memory.FreeFrame(p.tf)
		p.tf = nil
	}
	if p.space != nil {
		k.memory.Free(p.space, p.sz)
		p.space = nil
	}
	if p.span != nil {
		p.span.End(nil)
		p.span = nil
	}
	p.sz = 0
	p.pid = 0
	p.parent = nil
	p.name = ""
	p.channel = nil
	p.killed = false
	p.xstate = 0
	p.priority = 0
	p.RemainingTime = 0
	p.Type = proc.TypeBatch
	p.QueueLevel = 0
	p.program = nil
	p.context = nil
	p.ctx = nil
	p.state = proc.StateUnused
}

func (k *Kernel) startSpan(p *Proc, parent *Proc) {
	ctx := k.ctx
	if parent != nil && parent.ctx != nil {
		ctx = parent.ctx
	}
	p.ctx, p.span = tracing.StartProcess(ctx, p.pid, p.name)
}

// Spawn creates a top-level process running program. The first spawned
// process becomes init, later ones are children of init.
func (k *Kernel) Spawn(name string, program Program) (pid int, err error) {
	k.Interrupt(func(c *CPU) {
		pid, err = k.spawn(c, name, program)
	})
	return pid, err
}

func (k *Kernel) spawn(c *CPU, name string, program Program) (int, error) {
	if program == nil {
		return -1, fmt.Errorf("spawn %v: program was nil: %w", name, ErrInvalidArgument)
	}
	cwd, err := k.fs.Namei(k.ctx, "/")
	if err != nil {
		return -1, fmt.Errorf("spawn %v: %w: %w", name, ErrNotFound, err)
	}
	p, err := k.allocate(c)
	if err != nil {
		k.fs.Iput(cwd)
		return -1, err
	}
	sz, err := k.memory.Grow(p.space, 0, k.config.InitSize)
	if err != nil {
		k.free(p)
		p.lock.Release(c)
		k.fs.Iput(cwd)
		return -1, fmt.Errorf("spawn %v: %w: %w", name, ErrResourceExhausted, err)
	}
	p.sz = sz
	p.tf.Epc = 0
	p.tf.Sp = sz
	p.name = truncateName(name)
	p.program = program
	p.cwd = cwd
	pid := p.pid
	k.startSpan(p, nil)
	p.lock.Release(c)

	ppid := 0
	k.waitLock.Acquire(c)
	if init := k.initProc.Load(); init == nil {
		k.initProc.Store(p)
	} else {
		p.parent = init
		ppid = init.pid
	}
	k.waitLock.Release(c)

	p.lock.Acquire(c)
	p.state = proc.StateRunnable
	p.lock.Release(c)
	k.kick()
	k.emit(&Event{Type: EventSpawn, PID: pid, PPID: ppid, Name: p.name})
	return pid, nil
}

// Fork creates a child that is a copy of p, returning the child pid. The
// child sees 0 as the result of the call.
func (k *Kernel) Fork(p *Proc) (int, error) {
	c := p.cpu
	np, err := k.allocate(c)
	if err != nil {
		return -1, err
	}
	if err = k.memory.Copy(p.space, np.space, p.sz); err != nil {
		k.free(np)
		np.lock.Release(c)
		return -1, fmt.Errorf("fork: %w: %w", ErrResourceExhausted, err)
	}
	np.sz = p.sz

	// copy saved user registers, fork returns 0 in the child.
	*np.tf = *p.tf
	np.tf.A0 = 0

	for i, f := range p.ofile {
		if f != nil {
			np.ofile[i] = k.fs.Dup(f)
		}
	}
	np.cwd = k.fs.Idup(p.cwd)
	np.name = p.name
	np.program = p.program
	pid := np.pid
	k.startSpan(np, p)
	np.lock.Release(c)

	k.waitLock.Acquire(c)
	np.parent = p
	k.waitLock.Release(c)

	np.lock.Acquire(c)
	np.state = proc.StateRunnable
	np.lock.Release(c)
	k.kick()
	k.emit(&Event{Type: EventFork, PID: pid, PPID: p.pid, Name: np.name})
	return pid, nil
}

// reparent passes p's abandoned children to init. Caller holds wait lock.
func (k *Kernel) reparent(c *CPU, p *Proc) {
	init := k.initProc.Load()
	for i := range k.table.procs {
		pp := &k.table.procs[i]
		if pp.parent == p {
			pp.parent = init
			k.Wakeup(c, init)
		}
	}
}

// Exit terminates p with status. The process stays a ZOMBIE until its parent
// calls Wait. Exit does not return.
func (k *Kernel) Exit(p *Proc, status int) {
	if p == k.initProc.Load() {
		panic("init exiting")
	}

	for i, f := range p.ofile {
		if f != nil {
			k.fs.Close(f)
			p.ofile[i] = nil
		}
	}
	if p.cwd != nil {
		k.fs.Iput(p.cwd)
		p.cwd = nil
	}

	c := p.cpu
	p.lock.Acquire(c)
	space, sz := p.space, p.sz
	p.space, p.sz = nil, 0
	p.lock.Release(c)
	if space != nil {
		k.memory.Free(space, sz)
	}
	k.emit(&Event{Type: EventExit, PID: p.pid, Name: p.name, Status: status})

	k.waitLock.Acquire(c)
	k.reparent(c, p)
	// Parent might be sleeping in Wait.
	k.Wakeup(c, p.parent)

	p.lock.Acquire(c)
	p.xstate = status
	p.state = proc.StateZombie
	k.waitLock.Release(c)

	k.finalSched(p)
	panic("zombie exit")
}

// Wait blocks until a child of p exits and returns its pid. When addr is
// non-zero the child's exit status is copied to it.
func (k *Kernel) Wait(p *Proc, addr uint64) (int, error) {
	k.waitLock.Acquire(p.cpu)
	for {
		haveKids := false
		for i := range k.table.procs {
			pp := &k.table.procs[i]
			if pp.parent != p {
				continue
			}
			c := p.cpu
			// make sure the child isn't still in Exit or switching away.
			pp.lock.Acquire(c)
			haveKids = true
			if pp.state == proc.StateZombie {
				pid, status, name := pp.pid, pp.xstate, pp.name
				if addr != 0 {
					if err := k.copyOutInt(p, addr, status); err != nil {
						pp.lock.Release(c)
						k.waitLock.Release(c)
						return -1, fmt.Errorf("wait: %w", err)
					}
				}
				k.free(pp)
				pp.lock.Release(c)
				k.waitLock.Release(c)
				k.emit(&Event{Type: EventReap, PID: pid, PPID: p.pid, Name: name, Status: status})
				return pid, nil
			}
			pp.lock.Release(c)
		}

		if !haveKids {
			k.waitLock.Release(p.cpu)
			return -1, fmt.Errorf("wait %d: %w", p.pid, ErrNoChildren)
		}
		if k.Killed(p) {
			k.waitLock.Release(p.cpu)
			return -1, fmt.Errorf("wait %d: %w: %w", p.pid, ErrKilled, ErrNotFound)
		}
		k.Sleep(p, p, &k.waitLock)
	}
}

// Kill marks the process with pid as killed. A sleeping target is made
// runnable so it notices at its next trap boundary.
func (k *Kernel) Kill(pid int) (err error) {
	k.Interrupt(func(c *CPU) {
		err = k.kill(c, pid)
	})
	return err
}

func (k *Kernel) kill(c *CPU, pid int) error {
	if pid <= 0 {
		return fmt.Errorf("kill %d: %w", pid, ErrInvalidArgument)
	}
	for i := range k.table.procs {
		p := &k.table.procs[i]
		p.lock.Acquire(c)
		if p.pid == pid {
			p.killed = true
			if p.state == proc.StateSleeping {
				// Wake process from sleep.
				p.state = proc.StateRunnable
				k.kick()
			}
			p.lock.Release(c)
			k.emit(&Event{Type: EventKill, PID: pid})
			return nil
		}
		p.lock.Release(c)
	}
	return fmt.Errorf("kill %d: no such process: %w", pid, ErrInvalidArgument)
}

// Killed reports whether p has been killed
func (k *Kernel) Killed(p *Proc) bool {
	p.lock.Acquire(p.cpu)
	killed := p.killed
	p.lock.Release(p.cpu)
	return killed
}

// SetPriority changes the scheduling priority of pid
func (k *Kernel) SetPriority(pid, priority int) (err error) {
	k.Interrupt(func(c *CPU) {
		err = k.setPriority(c, pid, priority)
	})
	return err
}

func (k *Kernel) setPriority(c *CPU, pid, priority int) error {
	if priority < k.config.MinPriority || priority > k.config.MaxPriority {
		return fmt.Errorf("set priority %d: %w", priority, ErrInvalidArgument)
	}
	if pid <= 0 {
		return fmt.Errorf("set priority of %d: no such process: %w", pid, ErrInvalidArgument)
	}
	for i := range k.table.procs {
		p := &k.table.procs[i]
		p.lock.Acquire(c)
		if p.pid == pid && p.state != proc.StateUnused {
			p.priority = priority
			p.lock.Release(c)
			k.emit(&Event{Type: EventPriority, PID: pid, Priority: priority})
			return nil
		}
		p.lock.Release(c)
	}
	return fmt.Errorf("set priority of %d: no such process: %w", pid, ErrInvalidArgument)
}

// ProcInfo returns the public record of pid
func (k *Kernel) ProcInfo(pid int) (info proc.Info, err error) {
	k.Interrupt(func(c *CPU) {
		info, err = k.procInfo(c, pid)
	})
	return info, err
}

func (k *Kernel) procInfo(c *CPU, pid int) (proc.Info, error) {
	k.waitLock.Acquire(c)
	defer k.waitLock.Release(c)
	for i := range k.table.procs {
		p := &k.table.procs[i]
		p.lock.Acquire(c)
		if p.pid == pid && p.state != proc.StateUnused {
			info := k.info(p)
			p.lock.Release(c)
			return info, nil
		}
		p.lock.Release(c)
	}
	return proc.Info{}, fmt.Errorf("proc info %d: %w", pid, ErrNotFound)
}

// info builds the record of p; wait lock and slot lock are held.
func (k *Kernel) info(p *Proc) proc.Info {
	info := proc.Info{
		PID:      p.pid,
		State:    p.state,
		Size:     p.sz,
		Name:     p.name,
		Priority: p.priority,
		Type:     p.Type,
	}
	if p.parent != nil {
		info.PPID = p.parent.pid
	}
	return info
}

// Processes returns records of every slot in use, in table order
func (k *Kernel) Processes() []proc.Info {
	var result []proc.Info
	k.Interrupt(func(c *CPU) {
		k.waitLock.Acquire(c)
		for i := range k.table.procs {
			p := &k.table.procs[i]
			p.lock.Acquire(c)
			if p.state != proc.StateUnused {
				result = append(result, k.info(p))
			}
			p.lock.Release(c)
		}
		k.waitLock.Release(c)
	})
	return result
}

// SystemTime returns ticks since boot and derived uptime in seconds
func (k *Kernel) SystemTime() proc.SysTime {
	var ticks uint64
	k.Interrupt(func(c *CPU) {
		ticks = k.readTicks(c)
	})
	return proc.SysTime{Ticks: ticks, Uptime: ticks / k.config.TicksPerSecond}
}

func (k *Kernel) readTicks(c *CPU) uint64 {
	k.tickLock.Acquire(c)
	ticks := k.ticks
	k.tickLock.Release(c)
	return ticks
}

// Grow changes p's user memory by n bytes and returns the previous size
func (k *Kernel) Grow(p *Proc, n int64) (uint64, error) {
	old := p.sz
	if n < 0 && uint64(-n) > old {
		return old, fmt.Errorf("grow by %d: %w", n, ErrInvalidArgument)
	}
	sz, err := k.memory.Grow(p.space, old, uint64(int64(old)+n))
	if err != nil {
		return old, fmt.Errorf("grow by %d: %w: %w", n, ErrResourceExhausted, err)
	}
	p.lock.Acquire(p.cpu)
	p.sz = sz
	p.lock.Release(p.cpu)
	return old, nil
}

func (k *Kernel) copyOut(p *Proc, addr uint64, data []byte) error {
	if err := k.memory.CopyOut(p.space, addr, data); err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFault, err)
	}
	return nil
}

func (k *Kernel) copyIn(p *Proc, addr uint64, data []byte) error {
	if err := k.memory.CopyIn(p.space, addr, data); err != nil {
		return fmt.Errorf("%w: %w", ErrCopyFault, err)
	}
	return nil
}

func (k *Kernel) copyOutInt(p *Proc, addr uint64, value int) error {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, uint32(int32(value)))
	return k.copyOut(p, addr, data)
}
