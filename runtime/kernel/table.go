package kernel

// Table is the fixed-size process table
type Table struct {
	procs   []Proc
	pidLock Spinlock
	nextPID int
}

// NewTable creates a table of n unused slots
func NewTable(n, nofile int) *Table {
	t := &Table{
		procs:   make([]Proc, n),
		pidLock: Spinlock{name: "nextpid"},
		nextPID: 1,
	}
	for i := range t.procs {
		p := &t.procs[i]
		p.lock.name = "proc"
		p.index = i
		p.ofile = make([]File, nofile)
	}
	return t
}

// Len returns number of slots
func (t *Table) Len() int { return len(t.procs) }

// Slot returns i-th slot
func (t *Table) Slot(i int) *Proc { return &t.procs[i] }

func (t *Table) allocPID(c *CPU) int {
	t.pidLock.Acquire(c)
	pid := t.nextPID
	t.nextPID++
	t.pidLock.Release(c)
	return pid
}
