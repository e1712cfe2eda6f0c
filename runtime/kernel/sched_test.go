package kernel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/kproc/model/proc"
)

func TestKernel_sched_Preconditions(t *testing.T) {
	k, _, _ := newTestKernel(t)
	var testCases = []struct {
		description string
		setup       func(p *Proc, c *CPU)
		expect      string
	}{
		{
			description: "slot lock not held",
			setup: func(p *Proc, c *CPU) {
				p.state = proc.StateRunnable
			},
			expect: "sched: slot lock not held",
		},
		{
			description: "extra lock held",
			setup: func(p *Proc, c *CPU) {
				NewSpinlock("other").Acquire(c)
				p.lock.Acquire(c)
				p.state = proc.StateRunnable
			},
			expect: "sched: locks",
		},
		{
			description: "still running",
			setup: func(p *Proc, c *CPU) {
				p.lock.Acquire(c)
				p.state = proc.StateRunning
			},
			expect: "sched: running",
		},
		{
			description: "interruptible",
			setup: func(p *Proc, c *CPU) {
				p.lock.Acquire(c)
				p.state = proc.StateSleeping
				c.IntrOn()
			},
			expect: "sched: interruptible",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			c := NewCPU(0)
			p := NewProc(1, "test", proc.DefaultPriority)
			p.cpu = c
			p.context = NewContext(nil)
			testCase.setup(p, c)
			assert.PanicsWithValue(t, testCase.expect, func() { k.sched(p) })
		})
	}
}

func TestStrictPriority_Select(t *testing.T) {
	var testCases = []struct {
		description string
		states      []proc.State
		priorities  []int
		expect      int
	}{
		{
			description: "lowest value wins",
			states:      []proc.State{proc.StateRunnable, proc.StateRunnable, proc.StateRunnable},
			priorities:  []int{5, 2, 7},
			expect:      1,
		},
		{
			description: "ties go to table order",
			states:      []proc.State{proc.StateRunnable, proc.StateRunnable, proc.StateRunnable},
			priorities:  []int{5, 2, 2},
			expect:      1,
		},
		{
			description: "only runnable slots compete",
			states:      []proc.State{proc.StateSleeping, proc.StateRunning, proc.StateRunnable, proc.StateZombie},
			priorities:  []int{0, 0, 9, 0},
			expect:      2,
		},
		{
			description: "nothing runnable",
			states:      []proc.State{proc.StateSleeping, proc.StateUnused},
			priorities:  []int{0, 0},
			expect:      -1,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			table := NewTable(len(testCase.states), 1)
			for i, state := range testCase.states {
				table.Slot(i).state = state
				table.Slot(i).priority = testCase.priorities[i]
				table.Slot(i).pid = i + 1
			}
			c := NewCPU(0)
			c.IntrOn()
			selected := (&StrictPriority{}).Select(c, table)
			if testCase.expect < 0 {
				assert.Nil(t, selected)
				assert.Equal(t, 0, c.Depth())
				return
			}
			require.NotNil(t, selected)
			assert.Equal(t, testCase.expect, selected.Index())
			assert.True(t, selected.Holding(c))
			assert.Equal(t, 1, c.Depth(), "only the selected slot stays locked")
			selected.Release(c)
		})
	}
}

func TestKernel_PriorityOrder(t *testing.T) {
	config := testConfig()
	config.NCPU = 1
	config.PreemptOnTick = false
	k, _, _ := newTestKernel(t, WithConfig(config))

	var mux sync.Mutex
	var order []string
	record := func(name string) Program {
		return func(u *User) {
			mux.Lock()
			order = append(order, name)
			mux.Unlock()
			for {
				u.Sleep(1 << 30)
			}
		}
	}
	_, err := k.Spawn("init", reaper(nil))
	require.NoError(t, err)
	low, err := k.Spawn("low", record("low"))
	require.NoError(t, err)
	high, err := k.Spawn("high", record("high"))
	require.NoError(t, err)
	require.NoError(t, k.SetPriority(low, 9))
	require.NoError(t, k.SetPriority(high, 1))
	assert.ErrorIs(t, k.SetPriority(high, 11), ErrInvalidArgument)
	assert.ErrorIs(t, k.SetPriority(999, 1), ErrInvalidArgument)

	boot(t, k)
	require.Eventually(t, func() bool {
		mux.Lock()
		defer mux.Unlock()
		return len(order) == 2
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestKernel_LostWakeup(t *testing.T) {
	cond := NewSpinlock("cond")
	ready := false
	atHandoff := make(chan struct{})
	var once sync.Once
	hook := func(p *Proc) {
		if p.name == "sleeper" && p.state == proc.StateSleeping {
			once.Do(func() {
				close(atHandoff)
				// widen the window between releasing cond and parking
				time.Sleep(20 * time.Millisecond)
			})
		}
	}
	k, _, _ := newTestKernel(t, WithSwitchHook(hook))
	woke := make(chan bool, 1)
	_, err := k.Spawn("init", reaper(nil))
	require.NoError(t, err)
	_, err = k.Spawn("sleeper", func(u *User) {
		p := u.proc
		cond.Acquire(p.cpu)
		for !ready {
			k.Sleep(p, &ready, cond)
		}
		cond.Release(p.cpu)
		woke <- true
		for {
			u.Sleep(1 << 30)
		}
	})
	require.NoError(t, err)
	boot(t, k)

	receive(t, atHandoff)
	k.Interrupt(func(c *CPU) {
		cond.Acquire(c)
		ready = true
		k.Wakeup(c, &ready)
		cond.Release(c)
	})
	assert.True(t, receive(t, woke))
}

func TestKernel_YieldTiesToTableOrder(t *testing.T) {
	config := testConfig()
	config.NCPU = 1
	config.PreemptOnTick = false
	k, _, _ := newTestKernel(t, WithConfig(config))
	var mux sync.Mutex
	var order []string
	turns := func(name string) Program {
		return func(u *User) {
			for i := 0; i < 3; i++ {
				mux.Lock()
				order = append(order, name)
				mux.Unlock()
				u.Yield()
			}
		}
	}
	reaped := make(chan [2]int, 2)
	_, err := k.Spawn("init", reaper(reaped))
	require.NoError(t, err)
	_, err = k.Spawn("a", turns("a"))
	require.NoError(t, err)
	_, err = k.Spawn("b", turns("b"))
	require.NoError(t, err)
	boot(t, k)
	receive(t, reaped)
	receive(t, reaped)
	// equal priorities never rotate, the first slot in table order keeps winning
	assert.Equal(t, []string{"a", "a", "a", "b", "b", "b"}, order)
}
