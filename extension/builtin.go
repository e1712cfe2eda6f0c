package extension

import (
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
)

var builtin = map[string]Factory{
	"init":           Init,
	"hello":          Hello,
	"priority_demo":  PriorityDemo,
	"test_syscalls":  TestSyscalls,
	"round_robin":    RoundRobin,
	"semaphore_test": SemaphoreTest,
}

// Init reaps orphans forever. It must be the first process.
func Init(*kernel.Kernel) kernel.Program {
	return func(u *kernel.User) {
		for {
			if u.Wait(0) < 0 {
				u.Sleep(10)
			}
		}
	}
}

// Hello greets and exits
func Hello(*kernel.Kernel) kernel.Program {
	return func(u *kernel.User) {
		u.Printf("Hello, kproc world! (pid %d)\n", u.Getpid())
	}
}

var demoPriorities = []int{proc.MaxPriority, proc.DefaultPriority, proc.MinPriority}

// PriorityDemo forks one child per priority level; each child announces five
// steps a tick apart.
func PriorityDemo(*kernel.Kernel) kernel.Program {
	return func(u *kernel.User) {
		tf := u.TF()
		if index := int(tf.Epc); index > 0 {
			priority := demoPriorities[index-1]
			pid := u.Getpid()
			u.SetPriority(pid, priority)
			u.Printf("Process%d (PID: %d, Priority: %d) starts execution\n", index, pid, priority)
			for step := 1; step <= 5; step++ {
				u.Printf("Process%d: step %d\n", index, step)
				u.Sleep(1)
			}
			u.Printf("Process%d execution completed\n", index)
			u.Exit(0)
		}

		u.Printf("=== Priority Scheduling Demo ===\n")
		for i := range demoPriorities {
			tf.Epc = uint64(i + 1)
			if u.Fork() < 0 {
				u.Printf("fork failed\n")
			}
		}
		tf.Epc = 0
		for range demoPriorities {
			u.Wait(0)
		}
		u.Printf("=== Priority Scheduling Demo Completed ===\n")
	}
}

// TestSyscalls exercises getprocinfo, getsystime and setpriority
func TestSyscalls(*kernel.Kernel) kernel.Program {
	return func(u *kernel.User) {
		const buffer = 0
		u.Printf("Starting system call tests...\n")

		u.Printf("Testing getprocinfo()...\n")
		info := proc.Info{}
		if u.GetProcInfo(buffer) == 0 {
			data, _ := u.Load(buffer, proc.InfoSize)
			_ = info.UnmarshalBinary(data)
			u.Printf("PID: %d, PPID: %d, State: %d\n", info.PID, info.PPID, info.State)
			u.Printf("Size: %d, Name: %s\n", info.Size, info.Name)
			u.Printf("getprocinfo() test PASSED\n")
		} else {
			u.Printf("getprocinfo() test FAILED\n")
		}

		u.Printf("Testing getsystime()...\n")
		sysTime := proc.SysTime{}
		if u.GetSysTime(buffer) == 0 {
			data, _ := u.Load(buffer, proc.SysTimeSize)
			_ = sysTime.UnmarshalBinary(data)
			u.Printf("Ticks: %d, Uptime: %d seconds\n", sysTime.Ticks, sysTime.Uptime)
			u.Printf("getsystime() test PASSED\n")
		} else {
			u.Printf("getsystime() test FAILED\n")
		}

		u.Printf("Testing setpriority()...\n")
		pid := u.Getpid()
		report(u, "Set priority to 5", u.SetPriority(pid, 5) == 0)
		report(u, "Invalid priority test", u.SetPriority(pid, -1) == -1)
		report(u, "Invalid PID test", u.SetPriority(99999, 5) == -1)
		u.Printf("All tests completed!\n")
	}
}

func report(u *kernel.User, name string, passed bool) {
	if passed {
		u.Printf("%s: PASSED\n", name)
		return
	}
	u.Printf("%s: FAILED\n", name)
}

const roundRobinChildren, roundRobinTicks = 3, 20

// RoundRobin forks CPU bound children that each burn a number of ticks and
// reports the order they finish in.
func RoundRobin(*kernel.Kernel) kernel.Program {
	return func(u *kernel.User) {
		tf := u.TF()
		if index := int(tf.Epc); index > 0 {
			start := u.Uptime()
			for u.Uptime()-start < roundRobinTicks {
			}
			u.Printf("worker %d (pid %d) finished at tick %d\n", index, u.Getpid(), u.Uptime())
			u.Exit(0)
		}
		u.Printf("=== CPU bound workers: %d x %d ticks ===\n", roundRobinChildren, roundRobinTicks)
		for i := 1; i <= roundRobinChildren; i++ {
			tf.Epc = uint64(i)
			u.Fork()
		}
		tf.Epc = 0
		for i := 0; i < roundRobinChildren; i++ {
			pid := u.Wait(0)
			u.Printf("reaped pid %d\n", pid)
		}
		u.Printf("=== all workers reaped ===\n")
	}
}

const semaphoreWorkers = 8

// SemaphoreTest lets workers take turns holding a binary semaphore, then
// prints its counters.
func SemaphoreTest(k *kernel.Kernel) kernel.Program {
	sem, _ := k.NewSemaphore("test", 1)
	return func(u *kernel.User) {
		tf := u.TF()
		if id := int(tf.Epc); id > 0 {
			u.Printf("[worker %d] waiting for semaphore\n", id)
			if u.SemWait(sem) < 0 {
				u.Exit(-1)
			}
			u.Printf("[worker %d] acquired semaphore\n", id)
			u.Sleep(1)
			u.Printf("[worker %d] releasing semaphore\n", id)
			u.SemSignal(sem)
			u.Exit(0)
		}
		for i := 1; i <= semaphoreWorkers; i++ {
			tf.Epc = uint64(i)
			u.Fork()
		}
		tf.Epc = 0
		for i := 0; i < semaphoreWorkers; i++ {
			u.Wait(0)
		}
		u.Printf("%v\n", u.SemStats(sem))
	}
}
