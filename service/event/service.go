package event

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/kproc/internal/idgen"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/messaging"
	"github.com/viant/kproc/service/messaging/fs"
	"github.com/viant/kproc/service/messaging/memory"
)

// Source names events produced by the kernel observer
const Source = "kernel"

// Config represents event queue configuration
type Config struct {
	Vendor messaging.Vendor `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	Memory memory.Config    `json:"memory,omitempty" yaml:"memory,omitempty"`
	Fs     fs.Config        `json:"fs,omitempty" yaml:"fs,omitempty"`
}

// DefaultConfig returns memory queue config
func DefaultConfig() Config {
	return Config{Vendor: messaging.VendorMemory, Memory: memory.DefaultConfig(), Fs: fs.DefaultConfig()}
}

// Service carries kernel lifecycle events from the cores to listeners
type Service struct {
	config    Config
	fs        afs.Service
	bootID    string
	queue     messaging.Queue[Event[kernel.Event]]
	closer    func()
	publisher *Publisher[kernel.Event]
	mux       sync.Mutex
	listeners []*Listener[kernel.Event]
}

// New creates an event service for the vendor
func New(vendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	ret.config.Vendor = vendor
	for _, opt := range opts {
		opt(ret)
	}
	if ret.bootID == "" {
		ret.bootID = idgen.New()
	}
	switch ret.config.Vendor {
	case messaging.VendorMemory, "":
		queue := memory.NewQueue[Event[kernel.Event]](ret.config.Memory)
		ret.queue, ret.closer = queue, queue.Close
	case messaging.VendorFs:
		queue, err := fs.NewQueue[Event[kernel.Event]](ret.fs, ret.config.Fs)
		if err != nil {
			return nil, err
		}
		ret.queue = queue
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", vendor)
	}
	ret.publisher = NewPublisher[kernel.Event](ret.queue)
	return ret, nil
}

// NewWithConfig creates an event service from config
func NewWithConfig(config Config, opts ...Option) (*Service, error) {
	opts = append([]Option{WithMemoryQueueConfig(config.Memory), WithFsQueueConfig(config.Fs)}, opts...)
	return New(config.Vendor, opts...)
}

// BootID returns the id stamped on events
func (s *Service) BootID() string { return s.bootID }

// Publish queues a kernel event
func (s *Service) Publish(ctx context.Context, data *kernel.Event) error {
	return s.publisher.Publish(ctx, NewEvent(&Context{BootID: s.bootID, Source: Source}, *data))
}

// Observer returns a kernel observer publishing every lifecycle event
func (s *Service) Observer(ctx context.Context) kernel.Observer {
	return func(data *kernel.Event) {
		if err := s.Publish(ctx, data); err != nil {
			log.Printf("event: failed to publish %v %d: %v", data.Type, data.PID, err)
		}
	}
}

// Listen starts a listener calling handler for every event
func (s *Service) Listen(ctx context.Context, handler Handler[kernel.Event]) *Listener[kernel.Event] {
	listener := NewListener[kernel.Event](s.publisher, handler)
	s.mux.Lock()
	s.listeners = append(s.listeners, listener)
	s.mux.Unlock()
	listener.Start(ctx)
	return listener
}

// Close stops the queue; memory queue listeners drain what was already
// published before they return.
func (s *Service) Close() {
	s.mux.Lock()
	listeners := s.listeners
	s.listeners = nil
	s.mux.Unlock()
	if s.closer != nil {
		s.closer()
		for _, listener := range listeners {
			listener.Wait()
		}
		return
	}
	for _, listener := range listeners {
		listener.Stop()
	}
}
