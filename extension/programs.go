package extension

import (
	"fmt"
	"sort"
	"sync"

	"github.com/viant/kproc/runtime/kernel"
)

// Factory builds a program for a kernel, letting programs share kernel
// objects such as semaphores.
type Factory func(k *kernel.Kernel) kernel.Program

// Programs is a registry of program factories by name
type Programs struct {
	factories map[string]Factory
	mux       sync.RWMutex
}

// Register adds or replaces a program
func (p *Programs) Register(name string, factory Factory) {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.factories[name] = factory
}

// Lookup returns the factory registered under name, nil when missing
func (p *Programs) Lookup(name string) Factory {
	p.mux.RLock()
	defer p.mux.RUnlock()
	return p.factories[name]
}

// Build returns the program registered under name bound to k
func (p *Programs) Build(k *kernel.Kernel, name string) (kernel.Program, error) {
	factory := p.Lookup(name)
	if factory == nil {
		return nil, fmt.Errorf("unknown program: %v, available: %v", name, p.Names())
	}
	return factory(k), nil
}

// Names returns registered names in order
func (p *Programs) Names() []string {
	p.mux.RLock()
	defer p.mux.RUnlock()
	var result []string
	for name := range p.factories {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// NewPrograms creates a registry holding the bundled programs
func NewPrograms() *Programs {
	ret := &Programs{factories: map[string]Factory{}}
	for name, factory := range builtin {
		ret.factories[name] = factory
	}
	return ret
}
