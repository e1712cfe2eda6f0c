package kproc_test

import (
	"bytes"
	"context"
	"embed"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	_ "github.com/viant/afs/embed"
	"github.com/viant/kproc"
	"github.com/viant/kproc/policy"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/messaging"
)

//go:embed testdata/*
var embedFS embed.FS

type console struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

func (c *console) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func testConfig() *kproc.Config {
	config := kproc.DefaultConfig()
	config.Kernel.NProc = 16
	config.Kernel.IdlePoll = time.Millisecond
	config.Processor.ClockInterval = time.Millisecond
	config.FS.Root = "mem://localhost/kproc/service-test"
	return config
}

func TestLoadConfig(t *testing.T) {
	config, err := kproc.LoadConfig(context.Background(), afs.New(), "embed:///testdata/kproc.yaml", &embedFS)
	require.NoError(t, err)
	assert.Equal(t, 32, config.Kernel.NProc)
	assert.Equal(t, 1, config.Kernel.NCPU)
	assert.Equal(t, 2*time.Millisecond, config.Kernel.IdlePoll)
	assert.Equal(t, policy.ModeMultiLevel, config.Policy.Mode)
	assert.Equal(t, []int{1, 2, 4}, config.Policy.Quantums)
	assert.Equal(t, 3, config.Policy.Demote)
	assert.EqualValues(t, 256, config.Memory.MaxPages)
	assert.Equal(t, "mem://localhost/kproc/testdata", config.FS.Root)
	assert.Equal(t, messaging.VendorFs, config.Events.Vendor)
	assert.Equal(t, "mem://localhost/kproc/testdata/events", config.Events.Fs.BasePath)
	assert.Equal(t, time.Millisecond, config.Processor.ClockInterval)
	assert.Equal(t, kproc.DefaultConfig().Processor.ShutdownTimeout, config.Processor.ShutdownTimeout)

	_, err = kproc.LoadConfig(context.Background(), afs.New(), "embed:///testdata/missing.yaml", &embedFS)
	assert.Error(t, err)
}

func TestDecodeConfig(t *testing.T) {
	var testCases = []struct {
		description string
		data        string
		expectErr   bool
		expect      func(t *testing.T, config *kproc.Config)
	}{
		{
			description: "empty keeps defaults",
			data:        "",
			expect: func(t *testing.T, config *kproc.Config) {
				assert.Equal(t, kproc.DefaultConfig(), config)
			},
		},
		{
			description: "round robin",
			data:        "policy:\n  mode: roundrobin\n  quantum: 3\n",
			expect: func(t *testing.T, config *kproc.Config) {
				assert.Equal(t, policy.ModeRoundRobin, config.Policy.Mode)
				assert.Equal(t, 3, config.Policy.Quantum)
				assert.Equal(t, 64, config.Kernel.NProc)
			},
		},
		{description: "malformed", data: "kernel: [", expectErr: true},
		{description: "no cpus", data: "kernel:\n  ncpu: 0\n", expectErr: true},
		{description: "unknown policy", data: "policy:\n  mode: lottery\n", expectErr: true},
		{description: "unknown vendor", data: "events:\n  vendor: kafka\n", expectErr: true},
		{description: "too many workers", data: "processor:\n  workerCount: 3\n", expectErr: true},
		{description: "no root", data: "fs:\n  root: \"\"\n", expectErr: true},
		{description: "no pages", data: "memory:\n  maxPages: 0\n", expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config, err := kproc.DecodeConfig([]byte(testCase.data))
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			testCase.expect(t, config)
		})
	}
}

func TestNew(t *testing.T) {
	srv, err := kproc.New(kproc.WithConfig(testConfig()))
	require.NoError(t, err)
	assert.NotNil(t, srv.Runtime().Kernel())
	assert.IsType(t, &kernel.StrictPriority{}, srv.Runtime().Kernel().Policy())
	assert.NotEmpty(t, srv.Runtime().BootID())
	assert.Contains(t, srv.Programs().Names(), kproc.InitProgram)

	config := testConfig()
	config.Kernel.NCPU = 0
	_, err = kproc.New(kproc.WithConfig(config))
	assert.Error(t, err)

	custom := policy.NewRoundRobin(16, 2)
	srv, err = kproc.New(kproc.WithConfig(testConfig()), kproc.WithPolicy(custom))
	require.NoError(t, err)
	assert.Same(t, custom, srv.Runtime().Kernel().Policy())
}

func TestRuntime_Boot(t *testing.T) {
	var testCases = []struct {
		description string
		mode        string
	}{
		{description: "priority", mode: policy.ModePriority},
		{description: "round robin", mode: policy.ModeRoundRobin},
		{description: "multilevel", mode: policy.ModeMultiLevel},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := testConfig()
			config.Policy.Mode = testCase.mode
			output := &console{}
			var mux sync.Mutex
			var types []kernel.EventType
			srv, err := kproc.New(kproc.WithConfig(config), kproc.WithConsole(output),
				kproc.WithEventListener(func(e *event.Event[kernel.Event]) error {
					mux.Lock()
					defer mux.Unlock()
					types = append(types, e.Data.Type)
					return nil
				}))
			require.NoError(t, err)
			rt := srv.Runtime()
			ctx := context.Background()
			require.NoError(t, rt.Start(ctx))

			pids, err := rt.Boot("hello")
			require.NoError(t, err)
			assert.Equal(t, []int{2}, pids)
			require.NoError(t, rt.Wait(ctx, 5*time.Second, pids...))
			assert.Contains(t, output.String(), "Hello, kproc world! (pid 2)")

			info, err := rt.Process(1)
			require.NoError(t, err)
			assert.Equal(t, kproc.InitProgram, info.Name)
			require.NoError(t, rt.Shutdown(ctx))

			actual := rt.Stats()
			assert.Equal(t, rt.BootID(), actual.BootID)
			assert.Equal(t, 2, actual.Spawned)
			assert.Equal(t, 1, actual.Exited)
			assert.Equal(t, 1, actual.Reaped)
			assert.Equal(t, 1, actual.Live)
			mux.Lock()
			assert.ElementsMatch(t, []kernel.EventType{kernel.EventSpawn, kernel.EventSpawn, kernel.EventExit, kernel.EventReap}, types)
			mux.Unlock()
		})
	}
}

func TestRuntime_BootUnknown(t *testing.T) {
	srv, err := kproc.New(kproc.WithConfig(testConfig()))
	require.NoError(t, err)
	rt := srv.Runtime()
	pids, err := rt.Boot("missing")
	assert.Error(t, err)
	assert.Empty(t, pids)
	info, err := rt.Process(1)
	require.NoError(t, err)
	assert.Equal(t, kproc.InitProgram, info.Name)

	pids, err = rt.Boot("hello")
	require.NoError(t, err)
	assert.Equal(t, []int{2}, pids)
}

func TestRuntime_Control(t *testing.T) {
	srv, err := kproc.New(kproc.WithConfig(testConfig()))
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx := context.Background()
	require.NoError(t, rt.Start(ctx))
	defer rt.Shutdown(ctx)

	_, err = rt.Boot()
	require.NoError(t, err)
	pid, err := rt.Spawn("sleeper", func(u *kernel.User) {
		for {
			u.Sleep(1)
		}
	})
	require.NoError(t, err)
	require.NoError(t, rt.SetPriority(pid, 2))
	info, err := rt.Process(pid)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Priority)
	assert.Len(t, rt.Processes(), 2)

	require.NoError(t, rt.Kill(pid))
	require.NoError(t, rt.Wait(ctx, 5*time.Second, pid))
	assert.Len(t, rt.Processes(), 1)
	assert.Greater(t, rt.SystemTime().Ticks, uint64(0))

	dump := &bytes.Buffer{}
	rt.Dump(dump)
	assert.Contains(t, dump.String(), "1 ")
	assert.Contains(t, dump.String(), " init")
	assert.ErrorIs(t, rt.SetPriority(pid, 2), kernel.ErrInvalidArgument)
}
