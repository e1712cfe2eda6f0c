package proc

// State represents the lifecycle state of a process slot
type State int

const (
	StateUnused State = iota
	StateUsed
	StateSleeping
	StateRunnable
	StateRunning
	StateZombie
)

var stateNames = [...]string{
	StateUnused:   "unused",
	StateUsed:     "used",
	StateSleeping: "sleep",
	StateRunnable: "runble",
	StateRunning:  "run",
	StateZombie:   "zombie",
}

// String returns the dump label of the state
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "???"
	}
	return stateNames[s]
}

// IsLive returns true for states that own kernel resources
func (s State) IsLive() bool {
	return s != StateUnused && s != StateZombie
}
