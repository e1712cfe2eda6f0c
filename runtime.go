package kproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/viant/kproc/extension"
	"github.com/viant/kproc/model/proc"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/processor"
	"github.com/viant/kproc/stats"
)

// InitProgram names the program booted as the first process
const InitProgram = "init"

// Runtime drives a booted kernel
type Runtime struct {
	kernel    *kernel.Kernel
	processor *processor.Service
	events    *event.Service
	stats     *stats.Stats
	programs  *extension.Programs
	handlers  []event.Handler[kernel.Event]
	mux       sync.Mutex
	initPID   int
}

// Kernel returns the process core
func (r *Runtime) Kernel() *kernel.Kernel { return r.kernel }

// BootID returns the id stamped on lifecycle events of this runtime
func (r *Runtime) BootID() string { return r.events.BootID() }

// Start starts the event listener, the cores and the clock
func (r *Runtime) Start(ctx context.Context) error {
	r.events.Listen(ctx, r.dispatch)
	return r.processor.Start(ctx)
}

// dispatch hands every event to all handlers. Queue consumers compete for
// messages, so a single listener fans out instead of one listener per handler.
func (r *Runtime) dispatch(e *event.Event[kernel.Event]) error {
	for _, handler := range r.handlers {
		if err := handler(e); err != nil {
			log.Printf("event %v: handler failed: %v", e.ID, err)
		}
	}
	return nil
}

// Shutdown halts the cores and drains lifecycle events
func (r *Runtime) Shutdown(ctx context.Context) error {
	err := r.processor.Shutdown()
	r.events.Close()
	return err
}

// Boot spawns the init program unless already running, then each named
// program, returning their pids.
func (r *Runtime) Boot(names ...string) ([]int, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.initPID == 0 {
		pid, err := r.spawn(InitProgram)
		if err != nil {
			return nil, fmt.Errorf("failed to boot: %w", err)
		}
		r.initPID = pid
	}
	var result []int
	for _, name := range names {
		pid, err := r.spawn(name)
		if err != nil {
			return result, err
		}
		result = append(result, pid)
	}
	return result, nil
}

func (r *Runtime) spawn(name string) (int, error) {
	program, err := r.programs.Build(r.kernel, name)
	if err != nil {
		return 0, err
	}
	return r.kernel.Spawn(name, program)
}

// Spawn creates a runnable process running program
func (r *Runtime) Spawn(name string, program kernel.Program) (int, error) {
	return r.kernel.Spawn(name, program)
}

// Kill marks the process killed
func (r *Runtime) Kill(pid int) error { return r.kernel.Kill(pid) }

// SetPriority changes the priority of a process
func (r *Runtime) SetPriority(pid, priority int) error {
	return r.kernel.SetPriority(pid, priority)
}

// Process returns a process record
func (r *Runtime) Process(pid int) (proc.Info, error) { return r.kernel.ProcInfo(pid) }

// Processes returns records of every slot in use
func (r *Runtime) Processes() []proc.Info { return r.kernel.Processes() }

// SystemTime returns ticks since boot
func (r *Runtime) SystemTime() proc.SysTime { return r.kernel.SystemTime() }

// Dump writes the process listing
func (r *Runtime) Dump(w io.Writer) { r.kernel.Dump(w) }

// Stats returns a snapshot of lifecycle counters
func (r *Runtime) Stats() stats.Stats { return r.stats.Snapshot() }

// Wait blocks until every pid has been reaped or timeout elapses
func (r *Runtime) Wait(ctx context.Context, timeout time.Duration, pids ...int) error {
	poll := r.kernel.Config().IdlePoll
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for _, pid := range pids {
		for {
			_, err := r.kernel.ProcInfo(pid)
			if errors.Is(err, kernel.ErrNotFound) {
				break
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("pid %d still running: %w", pid, ctx.Err())
			case <-time.After(poll):
			}
		}
	}
	return nil
}
