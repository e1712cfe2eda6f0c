package kernel

import (
	"errors"
	"fmt"
	"log"

	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/tracing"
)

// System call numbers
const (
	SysFork        = 1
	SysExit        = 2
	SysWait        = 3
	SysKill        = 6
	SysGetpid      = 11
	SysSbrk        = 12
	SysSleep       = 13
	SysUptime      = 14
	SysOpen        = 15
	SysClose       = 21
	SysSetPriority = 22
	SysGetProcInfo = 23
	SysGetSysTime  = 24
)

// MaxPath is the longest path accepted by open, including the terminator
const MaxPath = 128

type syscallHandler func(p *Proc) int64

func (k *Kernel) syscallTable() map[int64]syscallHandler {
	return map[int64]syscallHandler{
		SysFork:        k.sysFork,
		SysExit:        k.sysExit,
		SysWait:        k.sysWait,
		SysKill:        k.sysKill,
		SysGetpid:      k.sysGetpid,
		SysSbrk:        k.sysSbrk,
		SysSleep:       k.sysSleep,
		SysUptime:      k.sysUptime,
		SysOpen:        k.sysOpen,
		SysClose:       k.sysClose,
		SysSetPriority: k.sysSetPriority,
		SysGetProcInfo: k.sysGetProcInfo,
		SysGetSysTime:  k.sysGetSysTime,
	}
}

func (k *Kernel) syscall(p *Proc) {
	num := p.tf.A7
	handler, ok := k.syscalls[num]
	if !ok {
		log.Printf("%d %s: unknown sys call %d", p.pid, p.name, num)
		p.tf.A0 = -1
		return
	}
	p.tf.A0 = handler(p)
}

func (k *Kernel) sysFork(p *Proc) int64 {
	span := tracing.StartSyscall(p.ctx, p.pid, "fork")
	pid, err := k.Fork(p)
	span.End(err)
	if err != nil {
		return -1
	}
	return int64(pid)
}

func (k *Kernel) sysExit(p *Proc) int64 {
	status := int(int32(p.tf.Arg(0)))
	span := tracing.StartSyscall(p.ctx, p.pid, "exit")
	span.SetInt("exit.status", status)
	span.End(nil)
	k.Exit(p, status)
	return 0 // not reached
}

func (k *Kernel) sysWait(p *Proc) int64 {
	span := tracing.StartSyscall(p.ctx, p.pid, "wait")
	pid, err := k.Wait(p, uint64(p.tf.Arg(0)))
	if errors.Is(err, ErrNoChildren) {
		err = nil
	}
	span.End(err)
	if pid < 0 {
		return -1
	}
	return int64(pid)
}

func (k *Kernel) sysKill(p *Proc) int64 {
	span := tracing.StartSyscall(p.ctx, p.pid, "kill")
	err := k.kill(p.cpu, int(p.tf.Arg(0)))
	span.End(err)
	if err != nil {
		return -1
	}
	return 0
}

func (k *Kernel) sysGetpid(p *Proc) int64 {
	return int64(p.pid)
}

func (k *Kernel) sysSbrk(p *Proc) int64 {
	old, err := k.Grow(p, p.tf.Arg(0))
	if err != nil {
		return -1
	}
	return int64(old)
}

func (k *Kernel) sysSleep(p *Proc) int64 {
	n := p.tf.Arg(0)
	if n < 0 {
		n = 0
	}
	c := p.cpu
	k.tickLock.Acquire(c)
	start := k.ticks
	for k.ticks-start < uint64(n) {
		if k.Killed(p) {
			k.tickLock.Release(p.cpu)
			return -1
		}
		k.Sleep(p, &k.ticks, &k.tickLock)
	}
	k.tickLock.Release(p.cpu)
	return 0
}

func (k *Kernel) sysUptime(p *Proc) int64 {
	return int64(k.readTicks(p.cpu))
}

func (k *Kernel) sysOpen(p *Proc) int64 {
	path, err := k.copyInString(p, uint64(p.tf.Arg(0)), MaxPath)
	if err != nil {
		return -1
	}
	fd := -1
	for i, f := range p.ofile {
		if f == nil {
			fd = i
			break
		}
	}
	if fd < 0 {
		return -1
	}
	f, err := k.fs.Open(p.ctx, path)
	if err != nil {
		return -1
	}
	p.ofile[fd] = f
	return int64(fd)
}

func (k *Kernel) sysClose(p *Proc) int64 {
	fd := p.tf.Arg(0)
	if fd < 0 || fd >= int64(len(p.ofile)) || p.ofile[fd] == nil {
		return -1
	}
	f := p.ofile[fd]
	p.ofile[fd] = nil
	k.fs.Close(f)
	return 0
}

func (k *Kernel) sysSetPriority(p *Proc) int64 {
	if err := k.setPriority(p.cpu, int(p.tf.Arg(0)), int(p.tf.Arg(1))); err != nil {
		return -1
	}
	return 0
}

func (k *Kernel) sysGetProcInfo(p *Proc) int64 {
	info, err := k.procInfo(p.cpu, p.pid)
	if err != nil {
		return -1
	}
	data, _ := info.MarshalBinary()
	if err = k.copyOut(p, uint64(p.tf.Arg(0)), data); err != nil {
		return -1
	}
	return 0
}

func (k *Kernel) sysGetSysTime(p *Proc) int64 {
	ticks := k.readTicks(p.cpu)
	sysTime := proc.SysTime{Ticks: ticks, Uptime: ticks / k.config.TicksPerSecond}
	data, _ := sysTime.MarshalBinary()
	if err := k.copyOut(p, uint64(p.tf.Arg(0)), data); err != nil {
		return -1
	}
	return 0
}

func (k *Kernel) copyInString(p *Proc, addr uint64, max int) (string, error) {
	data := make([]byte, 0, max)
	one := make([]byte, 1)
	for i := 0; i < max; i++ {
		if err := k.copyIn(p, addr+uint64(i), one); err != nil {
			return "", err
		}
		if one[0] == 0 {
			return string(data), nil
		}
		data = append(data, one[0])
	}
	return "", fmt.Errorf("path too long: %w", ErrInvalidArgument)
}
