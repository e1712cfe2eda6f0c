// Package kproc provides a process management and scheduling core modelled
// on a small teaching kernel.
//
// A fixed table of process slots is dispatched by per core scheduler loops
// under a pluggable policy (strict priority, round robin or multi level
// feedback). Processes are Go programs issuing system calls through a
// kernel.User handle; they fork, wait, sleep, exit and kill exactly the way
// the kernel they imitate does.
//
// The root package wires the kernel with its collaborators: a page charged
// memory, an afs backed file system, a lifecycle event queue and the
// processor driving the cores:
//
//	srv, _ := kproc.New(kproc.WithConsole(os.Stdout))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	_, _ = rt.Boot("hello")
//	defer rt.Shutdown(ctx)
//
// For more details see the individual sub-packages.
package kproc
