package kproc

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/kproc/policy"
	"github.com/viant/kproc/runtime/kernel"
	"github.com/viant/kproc/service/event"
	"github.com/viant/kproc/service/messaging"
	"github.com/viant/kproc/service/processor"
	"github.com/viant/kproc/service/vm/memory"
	"github.com/viant/kproc/tracing"
	"gopkg.in/yaml.v3"
)

// DefaultRoot is where process paths resolve unless configured otherwise
const DefaultRoot = "mem://localhost/kproc/root"

// Config is a serialisable representation of the whole system configuration.
// Sections left out of a YAML document keep their package defaults.
type Config struct {
	Kernel    kernel.Config    `json:"kernel" yaml:"kernel"`
	Policy    policy.Config    `json:"policy" yaml:"policy"`
	Memory    memory.Config    `json:"memory" yaml:"memory"`
	FS        FSConfig         `json:"fs" yaml:"fs"`
	Events    event.Config     `json:"events" yaml:"events"`
	Processor processor.Config `json:"processor" yaml:"processor"`
	Tracing   tracing.Config   `json:"tracing" yaml:"tracing"`
}

// FSConfig represents file system configuration
type FSConfig struct {
	// Root is an afs URL process paths are resolved against.
	Root string `json:"root,omitempty" yaml:"root,omitempty"`
}

// DefaultConfig returns a Config populated with package defaults
func DefaultConfig() *Config {
	return &Config{
		Kernel:    kernel.DefaultConfig(),
		Policy:    policy.DefaultConfig(),
		Memory:    memory.DefaultConfig(),
		FS:        FSConfig{Root: DefaultRoot},
		Events:    event.DefaultConfig(),
		Processor: processor.DefaultConfig(),
	}
}

// Validate returns the first invalid setting or nil
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if err := c.Kernel.Validate(); err != nil {
		return fmt.Errorf("kernel: %w", err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if c.Memory.PageSize == 0 || c.Memory.MaxPages <= 0 {
		return fmt.Errorf("memory: pageSize and maxPages must be > 0")
	}
	if c.FS.Root == "" {
		return fmt.Errorf("fs: root is required")
	}
	switch c.Events.Vendor {
	case "", messaging.VendorMemory, messaging.VendorFs:
	default:
		return fmt.Errorf("events: unsupported vendor %q", c.Events.Vendor)
	}
	if c.Processor.WorkerCount < 0 || c.Processor.WorkerCount > c.Kernel.NCPU {
		return fmt.Errorf("processor: workerCount %d out of range [0, %d]", c.Processor.WorkerCount, c.Kernel.NCPU)
	}
	return nil
}

// DecodeConfig decodes a YAML document on top of the defaults
func DecodeConfig(data []byte) (*Config, error) {
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}

// LoadConfig loads a YAML config from any afs supported URL
func LoadConfig(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) (*Config, error) {
	if fs == nil {
		fs = afs.New()
	}
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return DecodeConfig(data)
}
