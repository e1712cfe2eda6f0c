package policy

import (
	"fmt"
	"io"
	"sort"

	"github.com/viant/kproc/runtime/kernel"
)

// Job is a synthetic workload: a process needing Burst ticks of CPU that
// becomes runnable at tick Arrival.
type Job struct {
	Proc    *kernel.Proc
	Burst   int
	Arrival int
}

// Slice is one uninterrupted run of a process
type Slice struct {
	PID      int    `json:"pid" yaml:"pid"`
	Name     string `json:"name" yaml:"name"`
	Level    int    `json:"level" yaml:"level"`
	Start    int    `json:"start" yaml:"start"`
	Duration int    `json:"duration" yaml:"duration"`
	Done     bool   `json:"done" yaml:"done"`
}

// Trace is an execution trace in time order
type Trace []Slice

// End returns the time the last slice finished
func (t Trace) End() int {
	if len(t) == 0 {
		return 0
	}
	last := t[len(t)-1]
	return last.Start + last.Duration
}

// Print writes one line per slice
func (t Trace) Print(w io.Writer) {
	for _, s := range t {
		state := "preempted"
		if s.Done {
			state = "done"
		}
		fmt.Fprintf(w, "time %3d: pid %d (%s, level %d) ran %d, %s\n", s.Start, s.PID, s.Name, s.Level, s.Duration, state)
	}
}

type discipline interface {
	admit(p *kernel.Proc)
	next() *kernel.Proc
	quantum(p *kernel.Proc) int
	expire(p *kernel.Proc)
}

// SimulateRoundRobin runs jobs through a single ring
func SimulateRoundRobin(jobs []Job, quantum int) Trace {
	return simulate(&ringDiscipline{ring: NewRing(len(jobs), quantum)}, jobs)
}

// SimulateMultiLevel runs jobs through the feedback queue
func SimulateMultiLevel(jobs []Job, quantums [Levels]int, demote int) Trace {
	return simulate(&levelDiscipline{levels: NewMultiLevel(len(jobs), quantums), demote: demote, expiries: map[*kernel.Proc]int{}}, jobs)
}

// simulate is non-preemptive within a quantum: arrivals join their queue
// when the running slice ends, ahead of the preempted process.
func simulate(d discipline, jobs []Job) Trace {
	pending := append([]Job(nil), jobs...)
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].Arrival < pending[j].Arrival })
	remaining := map[*kernel.Proc]int{}
	now := 0
	admit := func() {
		for len(pending) > 0 && pending[0].Arrival <= now {
			job := pending[0]
			pending = pending[1:]
			remaining[job.Proc] = job.Burst
			d.admit(job.Proc)
		}
	}

	var trace Trace
	for {
		admit()
		p := d.next()
		if p == nil {
			if len(pending) == 0 {
				return trace
			}
			now = pending[0].Arrival
			continue
		}
		quantum := d.quantum(p)
		run := quantum
		if remaining[p] < run {
			run = remaining[p]
		}
		if run < 0 {
			run = 0
		}
		slice := Slice{PID: p.PID(), Name: p.Name(), Level: p.QueueLevel, Start: now, Duration: run}
		now += run
		remaining[p] -= run
		p.RemainingTime = quantum - run
		admit()
		if remaining[p] <= 0 {
			slice.Done = true
		} else {
			d.expire(p)
		}
		trace = append(trace, slice)
	}
}

type ringDiscipline struct {
	ring *Ring
}

func (r *ringDiscipline) admit(p *kernel.Proc)     { r.ring.Enqueue(p) }
func (r *ringDiscipline) next() *kernel.Proc       { return r.ring.Dequeue() }
func (r *ringDiscipline) quantum(*kernel.Proc) int { return r.ring.Quantum() }
func (r *ringDiscipline) expire(p *kernel.Proc)    { r.ring.Enqueue(p) }

type levelDiscipline struct {
	levels   *MultiLevel
	demote   int
	expiries map[*kernel.Proc]int
}

func (l *levelDiscipline) admit(p *kernel.Proc) {
	Classify(p)
	l.levels.Enqueue(p)
}

func (l *levelDiscipline) next() *kernel.Proc { return l.levels.Next() }

func (l *levelDiscipline) quantum(p *kernel.Proc) int { return l.levels.Quantum(p.QueueLevel) }

func (l *levelDiscipline) expire(p *kernel.Proc) {
	l.expiries[p]++
	from := p.QueueLevel
	if l.demote > 0 && l.expiries[p] >= l.demote && from+1 < Levels {
		l.expiries[p] = 0
		l.levels.Migrate(p, from, from+1)
		return
	}
	l.levels.Enqueue(p)
}
