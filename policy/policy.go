package policy

import (
	"fmt"
	"strings"

	"github.com/viant/kproc/runtime/kernel"
)

// Policy names recognised by New.
const (
	ModePriority   = "priority"
	ModeRoundRobin = "roundrobin"
	ModeMultiLevel = "multilevel"
)

// Config represents the declarative, serialisable policy selection.
type Config struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`
	// Quantum is the round-robin time slice in ticks.
	Quantum int `json:"quantum,omitempty" yaml:"quantum,omitempty"`
	// Quantums are the feedback queue slices per tier, highest tier first.
	Quantums []int `json:"quantums,omitempty" yaml:"quantums,omitempty"`
	// Demote is the number of consecutive quantum expiries after which a
	// feedback queue process moves one tier down, 0 disables demotion.
	Demote int `json:"demote,omitempty" yaml:"demote,omitempty"`
}

// DefaultQuantums are the feedback queue slices of tiers 0, 1 and 2
var DefaultQuantums = [Levels]int{2, 4, 8}

// DefaultConfig returns the strict priority policy config
func DefaultConfig() Config {
	return Config{
		Mode:     ModePriority,
		Quantum:  4,
		Quantums: DefaultQuantums[:],
		Demote:   2,
	}
}

// Validate checks the config
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "", ModePriority:
	case ModeRoundRobin:
		if c.Quantum <= 0 {
			return fmt.Errorf("policy.quantum must be > 0")
		}
	case ModeMultiLevel:
		if len(c.Quantums) != 0 && len(c.Quantums) != Levels {
			return fmt.Errorf("policy.quantums must have %d entries", Levels)
		}
		for i, q := range c.Quantums {
			if q <= 0 {
				return fmt.Errorf("policy.quantums[%d] must be > 0", i)
			}
		}
		if c.Demote < 0 {
			return fmt.Errorf("policy.demote must be >= 0")
		}
	default:
		return fmt.Errorf("unsupported policy mode: %v", c.Mode)
	}
	return nil
}

// New creates the policy described by config; capacity bounds the queues
// and must be at least the process table size.
func New(config *Config, capacity int) (kernel.Policy, error) {
	if config == nil {
		return &kernel.StrictPriority{}, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(config.Mode) {
	case ModeRoundRobin:
		return NewRoundRobin(capacity, config.Quantum), nil
	case ModeMultiLevel:
		quantums := DefaultQuantums
		if len(config.Quantums) == Levels {
			copy(quantums[:], config.Quantums)
		}
		return NewFeedback(capacity, quantums, config.Demote), nil
	}
	return &kernel.StrictPriority{}, nil
}
