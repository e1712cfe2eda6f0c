package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingFile(t *testing.T) {
	for i := 0; i < 2; i++ {
		fname := filepath.Join(t.TempDir(), "span_test.txt")
		require.NoError(t, Setup(Config{Enabled: true, Version: "0.0.1", Output: fname}))

		ctx, parent := StartProcess(context.Background(), 1, "init")
		parent.AddEvent("runnable")
		child := StartSyscall(ctx, 1, "fork")
		child.SetInt("fork.pid", 2)
		child.End(errors.New("no free slot"))
		parent.End(nil)
		require.NoError(t, Shutdown(context.Background()))

		data, err := os.ReadFile(fname)
		require.NoError(t, err)
		assert.Contains(t, string(data), "syscall fork")
		assert.Contains(t, string(data), "process init")
		assert.Contains(t, string(data), "no free slot")
		assert.Contains(t, string(data), "fork.pid")
	}
}

func TestInitWithExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("kproc", "0.0.1", exporter))
	t.Cleanup(func() { _ = Shutdown(context.Background()) })
	assert.NoError(t, InitWithExporter("kproc", "0.0.2", tracetest.NewInMemoryExporter()))

	ctx, parent := StartProcess(context.Background(), 3, "sh")
	StartSyscall(ctx, 3, "wait").End(nil)
	parent.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "syscall wait", spans[0].Name)
	assert.Equal(t, "process sh", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestSetup_Disabled(t *testing.T) {
	assert.NoError(t, Setup(Config{Output: filepath.Join(t.TempDir(), "missing", "spans.txt")}))
	assert.NoError(t, Shutdown(context.Background()))
}

func TestSpan_Nil(t *testing.T) {
	var span *Span
	span.SetInt("k", 1)
	span.AddEvent("noop")
	span.End(nil)
	assert.NotNil(t, StartSyscall(nil, 1, "wait"))
}
