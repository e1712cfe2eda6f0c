package processor

import (
	"time"

	"github.com/viant/kproc/runtime/kernel"
)

// Option customises the processor
type Option func(*Service)

// WithKernel sets the kernel whose cores are driven
func WithKernel(k *kernel.Kernel) Option {
	return func(s *Service) {
		s.kernel = k
	}
}

// WithWorkers sets the number of cores driven, 0 drives all of them
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithClockInterval sets the timer interrupt period, 0 disables the clock
func WithClockInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.config.ClockInterval = interval
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
