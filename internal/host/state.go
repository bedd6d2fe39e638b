package host

// State is the lifecycle state of a Host.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateListening
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}
