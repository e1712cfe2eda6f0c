package kernel

// EventType identifies a lifecycle transition
type EventType string

const (
	EventSpawn    EventType = "spawn"
	EventFork     EventType = "fork"
	EventExit     EventType = "exit"
	EventReap     EventType = "reap"
	EventKill     EventType = "kill"
	EventPriority EventType = "priority"
)

// Event describes a process lifecycle transition. Events are emitted with no
// kernel lock held.
type Event struct {
	Type     EventType `json:"type"`
	PID      int       `json:"pid"`
	PPID     int       `json:"ppid,omitempty"`
	Name     string    `json:"name,omitempty"`
	Status   int       `json:"status,omitempty"`
	Priority int       `json:"priority,omitempty"`
}

// Observer receives lifecycle events
type Observer func(event *Event)

func (k *Kernel) emit(event *Event) {
	if k.observer != nil {
		k.observer(event)
	}
}
