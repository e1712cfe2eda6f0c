package extension

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/fs"
	"github.com/viant/kproc/service/vm/memory"
)

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

func TestPrograms_Registry(t *testing.T) {
	programs := NewPrograms()
	assert.Equal(t, []string{"hello", "init", "priority_demo", "round_robin", "semaphore_test", "test_syscalls"}, programs.Names())
	assert.Nil(t, programs.Lookup("missing"))

	_, err := programs.Build(nil, "missing")
	assert.Error(t, err)

	programs.Register("noop", func(*kernel.Kernel) kernel.Program {
		return func(*kernel.User) {}
	})
	assert.NotNil(t, programs.Lookup("noop"))
	assert.Contains(t, programs.Names(), "noop")
	assert.Nil(t, NewPrograms().Lookup("noop"))
}

func TestPrograms_Run(t *testing.T) {
	var testCases = []struct {
		description string
		program     string
		done        string
		expect      []string
	}{
		{
			description: "hello",
			program:     "hello",
			done:        "Hello",
			expect:      []string{"Hello, kproc world! (pid 2)"},
		},
		{
			description: "syscalls",
			program:     "test_syscalls",
			done:        "All tests completed!",
			expect: []string{
				"PID: 2, PPID: 1, State: 4",
				"Size: 4096, Name: test_syscalls",
				"getprocinfo() test PASSED",
				"getsystime() test PASSED",
				"Set priority to 5: PASSED",
				"Invalid priority test: PASSED",
				"Invalid PID test: PASSED",
			},
		},
		{
			description: "priority",
			program:     "priority_demo",
			done:        "=== Priority Scheduling Demo Completed ===",
			expect: []string{
				"Process1 (PID: 3, Priority: 10) starts execution",
				"Process3 (PID: 5, Priority: 0) starts execution",
				"Process2: step 5",
				"Process3 execution completed",
			},
		},
		{
			description: "round robin",
			program:     "round_robin",
			done:        "=== all workers reaped ===",
			expect:      []string{"worker 1 (pid 3) finished", "worker 3 (pid 5) finished"},
		},
		{
			description: "semaphore",
			program:     "semaphore_test",
			done:        "waits=",
			expect:      []string{"[worker 8] releasing semaphore", "value=1"},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			output := &console{}
			k := newKernel(t, output)
			programs := NewPrograms()
			for _, name := range []string{"init", testCase.program} {
				program, err := programs.Build(k, name)
				require.NoError(t, err)
				_, err = k.Spawn(name, program)
				require.NoError(t, err)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			for _, c := range k.CPUs() {
				go k.Scheduler(ctx, c)
			}
			k.StartClock(ctx, time.Millisecond)

			require.Eventually(t, func() bool {
				return strings.Contains(output.String(), testCase.done)
			}, 10*time.Second, 5*time.Millisecond, output.String())
			for _, expect := range testCase.expect {
				assert.Contains(t, output.String(), expect)
			}
		})
	}
}

func newKernel(t *testing.T, output *console) *kernel.Kernel {
	files, err := fs.New(context.Background(), afs.New(), "mem://localhost/kproc-extension")
	require.NoError(t, err)
	config := kernel.DefaultConfig()
	config.NProc = 16
	config.IdlePoll = time.Millisecond
	k, err := kernel.New(kernel.WithConfig(config), kernel.WithConsole(output),
		kernel.WithMemory(memory.New(memory.DefaultConfig())), kernel.WithFileSystem(files))
	require.NoError(t, err)
	return k
}
