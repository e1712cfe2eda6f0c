package kernel

import (
	"context"
	"io"
)

// Option represents kernel option
type Option func(k *Kernel)

// WithConfig sets the kernel configuration
func WithConfig(config Config) Option {
	return func(k *Kernel) {
		k.config = config
	}
}

// WithPolicy sets the scheduling policy
func WithPolicy(policy Policy) Option {
	return func(k *Kernel) {
		k.policy = policy
	}
}

// WithMemory sets the address space manager
func WithMemory(memory Memory) Option {
	return func(k *Kernel) {
		k.memory = memory
	}
}

// WithFileSystem sets the file system
func WithFileSystem(fs FileSystem) Option {
	return func(k *Kernel) {
		k.fs = fs
	}
}

// WithObserver sets lifecycle event observer
func WithObserver(observer Observer) Option {
	return func(k *Kernel) {
		k.observer = observer
	}
}

// WithSwitchHook sets a function called right before a process gives up its
// core, with the slot lock held.
func WithSwitchHook(hook func(p *Proc)) Option {
	return func(k *Kernel) {
		k.switchHook = hook
	}
}

// WithContext sets the parent context of process spans
func WithContext(ctx context.Context) Option {
	return func(k *Kernel) {
		k.ctx = ctx
	}
}

// WithConsole sets the writer receiving process output
func WithConsole(w io.Writer) Option {
	return func(k *Kernel) {
		if w != nil {
			k.console = w
		}
	}
}
