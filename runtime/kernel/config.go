package kernel

import (
	"fmt"
	"time"

	"github.com/viant/kproc/model/proc"
)

// Config represents process core configuration. Table size and core count
// are fixed once the kernel is created.
type Config struct {
	NProc           int           `json:"nproc" yaml:"nproc"`
	NCPU            int           `json:"ncpu" yaml:"ncpu"`
	NOFile          int           `json:"nofile" yaml:"nofile"`
	MinPriority     int           `json:"minPriority" yaml:"minPriority"`
	MaxPriority     int           `json:"maxPriority" yaml:"maxPriority"`
	DefaultPriority int           `json:"defaultPriority" yaml:"defaultPriority"`
	TicksPerSecond  uint64        `json:"ticksPerSecond" yaml:"ticksPerSecond"`
	PreemptOnTick   bool          `json:"preemptOnTick" yaml:"preemptOnTick"`
	InitSize        uint64        `json:"initSize" yaml:"initSize"`
	IdlePoll        time.Duration `json:"idlePoll" yaml:"idlePoll"`
}

// DefaultConfig returns the default process core configuration
func DefaultConfig() Config {
	return Config{
		NProc:           64,
		NCPU:            2,
		NOFile:          16,
		MinPriority:     proc.MinPriority,
		MaxPriority:     proc.MaxPriority,
		DefaultPriority: proc.DefaultPriority,
		TicksPerSecond:  100,
		PreemptOnTick:   true,
		InitSize:        4096,
		IdlePoll:        10 * time.Millisecond,
	}
}

// Validate checks config consistency
func (c *Config) Validate() error {
	switch {
	case c.NProc <= 0:
		return fmt.Errorf("nproc must be > 0")
	case c.NCPU <= 0:
		return fmt.Errorf("ncpu must be > 0")
	case c.NOFile <= 0:
		return fmt.Errorf("nofile must be > 0")
	case c.MinPriority > c.MaxPriority:
		return fmt.Errorf("minPriority %d exceeds maxPriority %d", c.MinPriority, c.MaxPriority)
	case c.DefaultPriority < c.MinPriority || c.DefaultPriority > c.MaxPriority:
		return fmt.Errorf("defaultPriority %d out of range [%d, %d]", c.DefaultPriority, c.MinPriority, c.MaxPriority)
	case c.TicksPerSecond == 0:
		return fmt.Errorf("ticksPerSecond must be > 0")
	case c.IdlePoll <= 0:
		return fmt.Errorf("idlePoll must be > 0")
	}
	return nil
}
