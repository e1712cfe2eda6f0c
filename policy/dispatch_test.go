package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/fs"
	"github.com/viant/kproc/service/vm/memory"
)

func reap(u *kernel.User) {
	for {
		if u.Wait(0) < 0 {
			u.Sleep(1)
		}
	}
}

// TestPolicy_Dispatch runs a CPU bound process on a single core and checks
// that a time slicing policy still lets a later process of the same class run.
func TestPolicy_Dispatch(t *testing.T) {
	var testCases = []struct {
		description string
		policy      kernel.Policy
	}{
		{description: "round robin", policy: NewRoundRobin(8, 2)},
		{description: "feedback", policy: NewFeedback(8, [Levels]int{1, 2, 4}, 2)},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			files, err := fs.New(ctx, afs.New(), "mem://localhost/kproc-dispatch")
			require.NoError(t, err)
			config := kernel.DefaultConfig()
			config.NProc = 8
			config.NCPU = 1
			config.IdlePoll = time.Millisecond
			k, err := kernel.New(kernel.WithConfig(config), kernel.WithPolicy(testCase.policy),
				kernel.WithMemory(memory.New(memory.DefaultConfig())), kernel.WithFileSystem(files))
			require.NoError(t, err)

			started := make(chan struct{}, 1)
			ran := make(chan int, 1)
			_, err = k.Spawn("init", reap)
			require.NoError(t, err)
			_, err = k.Spawn("worker", func(u *kernel.User) {
				started <- struct{}{}
				for {
					u.Checkpoint()
				}
			})
			require.NoError(t, err)
			_, err = k.Spawn("batch", func(u *kernel.User) {
				ran <- u.Getpid()
				u.Exit(0)
			})
			require.NoError(t, err)
			for _, c := range k.CPUs() {
				go k.Scheduler(ctx, c)
			}
			k.StartClock(ctx, time.Millisecond)

			select {
			case <-started:
			case <-time.After(5 * time.Second):
				t.Fatal("worker never ran")
			}
			select {
			case pid := <-ran:
				assert.Equal(t, 3, pid)
			case <-time.After(5 * time.Second):
				t.Fatal("batch process starved behind worker")
			}
		})
	}
}
