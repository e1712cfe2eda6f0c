package processor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/viant/kproc/runtime/kernel"
)

// Config represents processor configuration
type Config struct {
	// WorkerCount is the number of cores driven, 0 means every core.
	WorkerCount int `json:"workerCount,omitempty" yaml:"workerCount,omitempty"`
	// ClockInterval is the timer interrupt period.
	ClockInterval time.Duration `json:"clockInterval,omitempty" yaml:"clockInterval,omitempty"`
	// ShutdownTimeout bounds how long Shutdown waits for the cores to stop.
	ShutdownTimeout time.Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		ClockInterval:   10 * time.Millisecond,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Service runs the per-core dispatch loops and the clock
type Service struct {
	config Config
	kernel *kernel.Kernel

	mux      sync.Mutex
	workers  []*worker
	workerWg sync.WaitGroup
	cancelFn context.CancelFunc
}

type worker struct {
	id      int
	cpu     *kernel.CPU
	service *Service
	ctx     context.Context
}

// New creates a processor
func New(options ...Option) (*Service, error) {
	s := &Service{config: DefaultConfig()}
	for _, opt := range options {
		opt(s)
	}
	if s.kernel == nil {
		return nil, fmt.Errorf("kernel is required")
	}
	cpus := len(s.kernel.CPUs())
	if s.config.WorkerCount < 0 || s.config.WorkerCount > cpus {
		return nil, fmt.Errorf("invalid worker count %d, kernel has %d cpus", s.config.WorkerCount, cpus)
	}
	if s.config.WorkerCount == 0 {
		s.config.WorkerCount = cpus
	}
	return s, nil
}

// Start launches one worker per driven core and the clock
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.cancelFn != nil {
		return fmt.Errorf("processor already started")
	}
	ctx, s.cancelFn = context.WithCancel(ctx)
	cpus := s.kernel.CPUs()
	for i := 0; i < s.config.WorkerCount; i++ {
		w := &worker{id: i, cpu: cpus[i], service: s, ctx: ctx}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	if s.config.ClockInterval > 0 {
		s.kernel.StartClock(ctx, s.config.ClockInterval)
	}
	return nil
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	log.Printf("worker %d: dispatching on cpu %d", w.id, w.cpu.ID())
	w.service.kernel.Scheduler(w.ctx, w.cpu)
	log.Printf("worker %d: stopped", w.id)
}

// Workers returns the number of started workers
func (s *Service) Workers() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.workers)
}

// Shutdown stops the clock and the cores. Running processes are halted at
// their next trap boundary; a core whose process never reaches one is
// abandoned after the shutdown timeout.
func (s *Service) Shutdown() error {
	s.mux.Lock()
	cancel := s.cancelFn
	s.mux.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	done := make(chan struct{})
	go func() {
		s.workerWg.Wait()
		close(done)
	}()
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timed out after %v", timeout)
	}
}
