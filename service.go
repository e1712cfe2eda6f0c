package kproc

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/viant/afs"
	"github.com/viant/kproc/extension"
	"github.com/viant/kproc/policy"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/fs"
	"github.com/viant/kproc/service/processor"
	"github.com/viant/kproc/service/vm/memory"
	"github.com/viant/kproc/stats"
	"github.com/viant/kproc/tracing"
)

// Service wires the kernel with its collaborators
type Service struct {
	config   *Config
	runtime  *Runtime
	policy   kernel.Policy
	memory   kernel.Memory
	files    kernel.FileSystem
	storage  afs.Service
	console  io.Writer
	programs *extension.Programs
	handlers []event.Handler[kernel.Event]
	events   *event.Service
	stats    *stats.Stats
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	if err := tracing.Setup(s.config.Tracing); err != nil {
		log.Printf("tracing: %v", err)
	}
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	ctx := context.Background()
	k, err := kernel.New(
		kernel.WithConfig(s.config.Kernel),
		kernel.WithPolicy(s.policy),
		kernel.WithMemory(s.memory),
		kernel.WithFileSystem(s.files),
		kernel.WithConsole(s.console),
		kernel.WithContext(ctx),
		kernel.WithObserver(s.events.Observer(ctx)))
	if err != nil {
		return err
	}
	s.runtime.kernel = k
	s.runtime.programs = s.programs
	s.runtime.events = s.events
	s.runtime.stats = s.stats
	s.runtime.processor, err = processor.New(processor.WithKernel(k), processor.WithConfig(s.config.Processor))
	if err != nil {
		return err
	}
	s.runtime.handlers = append([]event.Handler[kernel.Event]{s.stats.Handle}, s.handlers...)
	return nil
}

func (s *Service) ensureBaseSetup() error {
	var err error
	if s.storage == nil {
		s.storage = afs.New()
	}
	if s.console == nil {
		s.console = os.Stdout
	}
	if s.programs == nil {
		s.programs = extension.NewPrograms()
	}
	if s.memory == nil {
		s.memory = memory.New(s.config.Memory)
	}
	if s.files == nil {
		if s.files, err = fs.New(context.Background(), s.storage, s.config.FS.Root); err != nil {
			return fmt.Errorf("failed to create file system: %w", err)
		}
	}
	if s.policy == nil {
		if s.policy, err = policy.New(&s.config.Policy, s.config.Kernel.NProc); err != nil {
			return err
		}
	}
	if s.events == nil {
		if s.events, err = event.NewWithConfig(s.config.Events, event.WithFileSystem(s.storage)); err != nil {
			return fmt.Errorf("failed to create event service: %w", err)
		}
	}
	if s.stats == nil {
		s.stats = stats.New(s.events.BootID(), nil)
	}
	return nil
}

// Config returns the effective configuration
func (s *Service) Config() *Config { return s.config }

// Runtime returns the runtime
func (s *Service) Runtime() *Runtime { return s.runtime }

// Programs returns the program registry
func (s *Service) Programs() *extension.Programs { return s.programs }

// New creates a service
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), runtime: &Runtime{}}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
