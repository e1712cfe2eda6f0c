package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/viant/kproc/internal/clock"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/event"
)

// Delta represents an incremental counter change. The fields are signed so
// a reap can decrement the live and zombie gauges.
type Delta struct {
	Spawned  int
	Forked   int
	Exited   int
	Failed   int
	Reaped   int
	Killed   int
	Priority int
	Live     int
	Zombies  int
}

// DeltaOf maps a lifecycle event to counter changes
func DeltaOf(e *kernel.Event) Delta {
	switch e.Type {
	case kernel.EventSpawn:
		return Delta{Spawned: 1, Live: 1}
	case kernel.EventFork:
		return Delta{Forked: 1, Live: 1}
	case kernel.EventExit:
		d := Delta{Exited: 1, Zombies: 1}
		if e.Status != 0 {
			d.Failed = 1
		}
		return d
	case kernel.EventReap:
		return Delta{Reaped: 1, Live: -1, Zombies: -1}
	case kernel.EventKill:
		return Delta{Killed: 1}
	case kernel.EventPriority:
		return Delta{Priority: 1}
	}
	return Delta{}
}

// Stats keeps lifecycle counters of one boot. It is safe for concurrent use.
type Stats struct {
	BootID    string
	StartedAt time.Time

	Spawned  int
	Forked   int
	Exited   int
	Failed   int
	Reaped   int
	Killed   int
	Priority int
	// Live counts processes created and not yet reaped.
	Live    int
	Zombies int

	sync.Mutex
	onChange func(Stats)
}

// New creates counters for bootID
func New(bootID string, onChange func(Stats)) *Stats {
	return &Stats{BootID: bootID, StartedAt: clock.Now(), onChange: onChange}
}

// Update applies the delta. The onChange callback gets a copy and runs
// outside the lock.
func (s *Stats) Update(d Delta) {
	if s == nil {
		return
	}
	s.Lock()
	s.Spawned += d.Spawned
	s.Forked += d.Forked
	s.Exited += d.Exited
	s.Failed += d.Failed
	s.Reaped += d.Reaped
	s.Killed += d.Killed
	s.Priority += d.Priority
	s.Live += d.Live
	s.Zombies += d.Zombies
	snapshot := s.copy()
	cb := s.onChange
	s.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Handle is an event listener handler
func (s *Stats) Handle(e *event.Event[kernel.Event]) error {
	if s.BootID != "" && e.Context != nil && e.Context.BootID != s.BootID {
		return nil
	}
	s.Update(DeltaOf(&e.Data))
	return nil
}

// Snapshot returns a copy suitable for read-only inspection
func (s *Stats) Snapshot() Stats {
	if s == nil {
		return Stats{}
	}
	s.Lock()
	defer s.Unlock()
	return s.copy()
}

func (s *Stats) copy() Stats {
	return Stats{
		BootID:    s.BootID,
		StartedAt: s.StartedAt,
		Spawned:   s.Spawned,
		Forked:    s.Forked,
		Exited:    s.Exited,
		Failed:    s.Failed,
		Reaped:    s.Reaped,
		Killed:    s.Killed,
		Priority:  s.Priority,
		Live:      s.Live,
		Zombies:   s.Zombies,
	}
}

// OnChange registers a callback invoked after every Update, nil disables it
func (s *Stats) OnChange(cb func(Stats)) {
	if s == nil {
		return
	}
	s.Lock()
	s.onChange = cb
	s.Unlock()
}

// String returns a one line summary
func (s *Stats) String() string {
	snapshot := s.Snapshot()
	return fmt.Sprintf("boot %s: live=%d zombies=%d spawned=%d forked=%d exited=%d failed=%d reaped=%d killed=%d",
		snapshot.BootID, snapshot.Live, snapshot.Zombies, snapshot.Spawned, snapshot.Forked,
		snapshot.Exited, snapshot.Failed, snapshot.Reaped, snapshot.Killed)
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates counters and embeds them in a derived context
func WithNewTracker(ctx context.Context, bootID string, onChange func(Stats)) (context.Context, *Stats) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := New(bootID, onChange)
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the counters from ctx
func FromContext(ctx context.Context) (*Stats, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Stats)
	return tr, ok
}

// UpdateCtx applies the delta to the counters carried by ctx, if any
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
