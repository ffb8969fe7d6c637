package widget

type StateTransitionKind uint8

const (
	StateInitializing StateTransitionKind = iota
	StateUpdatedWidget
	StateDeactivating
	StateActivating
	StateDisposing
)

func (k StateTransitionKind) String() string {
	switch k {
	case StateInitializing:
		return "initializing"
	case StateUpdatedWidget:
		return "updated"
	case StateDeactivating:
		return "deactivating"
	case StateActivating:
		return "activating"
	case StateDisposing:
		return "disposing"
	default:
		return "invalid"
	}
}

type StateTransition[W any] struct {
	Kind StateTransitionKind

	// The old widget for Kind == StateUpdatedWidget
	OldWidget W
}

// State is the mutable half of a widget. The element that owns it drives it
// through its lifecycle by calling Transition; a state is never used again
// after StateDisposing.
type State[W any] interface {
	Transition(t StateTransition[W])
}

// Mount initializes s.
func Mount[W any](s State[W]) {
	s.Transition(StateTransition[W]{Kind: StateInitializing})
}

// Unmount deactivates and disposes s.
func Unmount[W any](s State[W]) {
	s.Transition(StateTransition[W]{Kind: StateDeactivating})
	s.Transition(StateTransition[W]{Kind: StateDisposing})
}
