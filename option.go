package kproc

import (
	"io"

	"github.com/viant/afs"
	"github.com/viant/kproc/extension"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option represents service option
type Option func(s *Service)

// WithConfig sets the configuration; nil keeps the defaults
func WithConfig(config *Config) Option {
	return func(s *Service) {
		if config != nil {
			s.config = config
		}
	}
}

// WithPolicy sets a scheduling policy, overriding the configured one
func WithPolicy(policy kernel.Policy) Option {
	return func(s *Service) {
		s.policy = policy
	}
}

// WithMemory sets the memory collaborator, overriding the paged memory
func WithMemory(memory kernel.Memory) Option {
	return func(s *Service) {
		s.memory = memory
	}
}

// WithFileSystem sets the file system collaborator
func WithFileSystem(fs kernel.FileSystem) Option {
	return func(s *Service) {
		s.files = fs
	}
}

// WithStorage sets the afs service backing files, config and the fs event queue
func WithStorage(fs afs.Service) Option {
	return func(s *Service) {
		s.storage = fs
	}
}

// WithConsole sets the writer receiving process output
func WithConsole(w io.Writer) Option {
	return func(s *Service) {
		s.console = w
	}
}

// WithPrograms sets the program registry
func WithPrograms(programs *extension.Programs) Option {
	return func(s *Service) {
		s.programs = programs
	}
}

// WithEventListener adds a handler receiving every lifecycle event
func WithEventListener(handler event.Handler[kernel.Event]) Option {
	return func(s *Service) {
		s.handlers = append(s.handlers, handler)
	}
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The first
// successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter, for
// example OTLP, Jaeger or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
