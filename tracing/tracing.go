package tracing

import (
	"context"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName identifies spans produced by this module
const TracerName = "github.com/viant/kproc"

// Config represents tracing configuration
type Config struct {
	Enabled bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	// Output is a file receiving spans, stdout when empty.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// Init configures OpenTelemetry with the stdout exporter writing to
// outputFile, or os.Stdout when outputFile is empty. The first successful
// initialisation wins until Shutdown.
func Init(serviceName, serviceVersion, outputFile string) error {
	mux.Lock()
	defer mux.Unlock()
	if provider != nil {
		return nil
	}
	var w io.Writer = os.Stdout
	var f *os.File
	if outputFile != "" {
		var err error
		if f, err = os.Create(outputFile); err != nil {
			return err
		}
		w = f
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err == nil {
		err = installProvider(serviceName, serviceVersion, exporter)
	}
	if err != nil {
		if f != nil {
			_ = f.Close()
		}
		return err
	}
	output = f
	return nil
}

// InitWithExporter configures OpenTelemetry using the supplied exporter
func InitWithExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	mux.Lock()
	defer mux.Unlock()
	if provider != nil || exporter == nil {
		return nil
	}
	return installProvider(serviceName, serviceVersion, exporter)
}

var (
	mux      sync.Mutex
	provider *sdktrace.TracerProvider
	output   *os.File
)

// installProvider expects mux to be held
func installProvider(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
		),
	)
	if err != nil {
		return err
	}
	provider = sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return nil
}

// Shutdown flushes and stops the installed provider and closes its output
// file; a later Init installs a new one.
func Shutdown(ctx context.Context) error {
	mux.Lock()
	defer mux.Unlock()
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	otel.SetTracerProvider(noop.NewTracerProvider())
	provider = nil
	if output != nil {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
		output = nil
	}
	return err
}

// Setup installs the stdout exporter described by config, nothing when
// tracing is disabled
func Setup(config Config) error {
	if !config.Enabled {
		return nil
	}
	service := config.Service
	if service == "" {
		service = "kproc"
	}
	return Init(service, config.Version, config.Output)
}

// Span wraps an OpenTelemetry span. A nil span is a valid no-op.
type Span struct {
	span trace.Span
}

// SetInt attaches an integer attribute
func (s *Span) SetInt(key string, value int) {
	if s == nil {
		return
	}
	s.span.SetAttributes(attribute.Int(key, value))
}

// AddEvent records a named point in time on the span, used for state changes
func (s *Span) AddEvent(name string) {
	if s == nil {
		return
	}
	s.span.AddEvent(name)
}

// End finalises the span, recording err as its status
func (s *Span) End(err error) {
	if s == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}

// StartProcess starts the lifetime span of a process. A forked process
// passes its parent's context so its span nests under the parent's.
func StartProcess(ctx context.Context, pid int, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := otel.Tracer(TracerName).Start(ctx, "process "+name,
		trace.WithAttributes(attribute.Int("process.pid", pid), attribute.String("process.name", name)))
	return ctx, &Span{span: span}
}

// StartSyscall starts a span for a system call issued by pid
func StartSyscall(ctx context.Context, pid int, name string) *Span {
	if ctx == nil {
		ctx = context.Background()
	}
	_, span := otel.Tracer(TracerName).Start(ctx, "syscall "+name,
		trace.WithAttributes(attribute.Int("process.pid", pid)))
	return &Span{span: span}
}
