package kernel

import (
	"encoding/binary"

	"github.com/viant/kproc/model/proc"
)

// User is the user-mode view of a running process. Every call traps into
// the kernel through the trapframe: the call number goes in A7, arguments
// in A0..A5, and the result comes back in A0.
type User struct {
	kernel *Kernel
	proc   *Proc
}

// TF returns the process trapframe
func (u *User) TF() *proc.Trapframe { return u.proc.tf }

// Name returns the process name
func (u *User) Name() string { return u.proc.name }

func (u *User) call(num int64, args ...int64) int64 {
	tf := u.proc.tf
	tf.A7 = num
	for i, arg := range args {
		switch i {
		case 0:
			tf.A0 = arg
		case 1:
			tf.A1 = arg
		case 2:
			tf.A2 = arg
		}
	}
	u.kernel.usertrap(u.proc)
	return tf.A0
}

// Fork returns the child pid in the parent. The child re-enters the program
// with A0 set to 0.
func (u *User) Fork() int { return int(u.call(SysFork)) }

// Exit terminates the process, it does not return
func (u *User) Exit(status int) { u.call(SysExit, int64(status)) }

// Wait reaps an exited child, storing its status at addr when non-zero
func (u *User) Wait(addr uint64) int { return int(u.call(SysWait, int64(addr))) }

// Kill marks pid as killed
func (u *User) Kill(pid int) int { return int(u.call(SysKill, int64(pid))) }

// Getpid returns process id
func (u *User) Getpid() int { return int(u.call(SysGetpid)) }

// Sbrk grows user memory by n bytes, returning the previous size
func (u *User) Sbrk(n int64) int64 { return u.call(SysSbrk, n) }

// Sleep pauses for n ticks
func (u *User) Sleep(n int) int { return int(u.call(SysSleep, int64(n))) }

// Uptime returns ticks since boot
func (u *User) Uptime() int { return int(u.call(SysUptime)) }

// Open opens path, returning a descriptor
func (u *User) Open(path string) int {
	if len(path) >= MaxPath {
		return -1
	}
	addr := u.TF().Sp - MaxPath
	if err := u.Store(addr, append([]byte(path), 0)); err != nil {
		return -1
	}
	return int(u.call(SysOpen, int64(addr)))
}

// Close releases descriptor fd
func (u *User) Close(fd int) int { return int(u.call(SysClose, int64(fd))) }

// SetPriority changes scheduling priority of pid
func (u *User) SetPriority(pid, priority int) int {
	return int(u.call(SysSetPriority, int64(pid), int64(priority)))
}

// GetProcInfo stores the caller's info record at addr
func (u *User) GetProcInfo(addr uint64) int { return int(u.call(SysGetProcInfo, int64(addr))) }

// GetSysTime stores ticks and uptime at addr
func (u *User) GetSysTime(addr uint64) int { return int(u.call(SysGetSysTime, int64(addr))) }

// Printf writes to the console
func (u *User) Printf(format string, args ...interface{}) {
	u.kernel.Printf(format, args...)
}

// Yield gives up the core voluntarily
func (u *User) Yield() {
	u.kernel.Yield(u.proc)
	u.kernel.checkpoint(u.proc)
}

// Checkpoint marks a return to user mode after a timer interrupt
func (u *User) Checkpoint() { u.kernel.checkpoint(u.proc) }

// SemWait decrements s, blocking while it is zero
func (u *User) SemWait(s *Semaphore) int {
	if err := s.Wait(u.proc); err != nil {
		u.kernel.checkpoint(u.proc)
		return -1
	}
	return 0
}

// SemSignal increments s
func (u *User) SemSignal(s *Semaphore) {
	s.Signal(u.proc.cpu)
}

// SemStats returns the counters of s
func (u *User) SemStats(s *Semaphore) SemaphoreStats {
	return s.Stats(u.proc.cpu)
}

// Load reads n bytes of user memory at addr
func (u *User) Load(addr uint64, n int) ([]byte, error) {
	data := make([]byte, n)
	if err := u.kernel.copyIn(u.proc, addr, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Store writes data to user memory at addr
func (u *User) Store(addr uint64, data []byte) error {
	return u.kernel.copyOut(u.proc, addr, data)
}

// LoadInt reads a 32 bit little endian integer at addr
func (u *User) LoadInt(addr uint64) (int, error) {
	data, err := u.Load(addr, 4)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.LittleEndian.Uint32(data))), nil
}
