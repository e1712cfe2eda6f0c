package event

import (
	"github.com/viant/afs"
	"github.com/viant/kproc/service/messaging/fs"
	"github.com/viant/kproc/service/messaging/memory"
)

// Option customises the event service
type Option func(s *Service)

// WithMemoryQueueConfig sets the memory queue configuration
func WithMemoryQueueConfig(config memory.Config) Option {
	return func(s *Service) {
		s.config.Memory = config
	}
}

// WithFsQueueConfig sets the storage queue configuration
func WithFsQueueConfig(config fs.Config) Option {
	return func(s *Service) {
		s.config.Fs = config
	}
}

// WithFileSystem sets the storage used by the fs vendor
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithBootID sets the boot id stamped on every event
func WithBootID(bootID string) Option {
	return func(s *Service) {
		s.bootID = bootID
	}
}
