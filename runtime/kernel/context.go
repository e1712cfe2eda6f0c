package kernel

// Context is the saved execution state of a kernel thread: either a CPU's
// dispatch loop or a process. A thread parked in Switch resumes when another
// thread switches to its context.
type Context struct {
	resume chan struct{}
	entry  func()
}

// NewContext creates a context. When entry is set the first switch into the
// context starts a new thread running entry instead of resuming a parked one.
func NewContext(entry func()) *Context {
	return &Context{resume: make(chan struct{}), entry: entry}
}

// Switch saves the running thread into old and resumes next. It returns once
// some thread switches back to old.
func Switch(old, next *Context) {
	resume(next)
	<-old.resume
}

func resume(next *Context) {
	if entry := next.entry; entry != nil {
		next.entry = nil
		go entry()
		return
	}
	next.resume <- struct{}{}
}
