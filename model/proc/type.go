package proc

// Type is the workload class used by the multi-level policy
type Type int

const (
	TypeSystem Type = iota
	TypeInteractive
	TypeBatch
)

// String returns the class name
func (t Type) String() string {
	switch t {
	case TypeSystem:
		return "system"
	case TypeInteractive:
		return "interactive"
	case TypeBatch:
		return "batch"
	}
	return "unknown"
}

// Priority bounds used when none are configured. Lower values run first.
const (
	MinPriority     = 0
	MaxPriority     = 10
	DefaultPriority = 5
)
