package driver

// validTransitions is the transition table from spec.md §4.2. A move not
// listed here is invalid and forces the driver to StateError (see
// (*Driver).transitionTo).
var validTransitions = map[State]map[State]bool{
	StateInitializing: set(StateReady, StateError, StateDisconnected),
	StateReady: set(
		StateExecutingCommand, StateEnteringConfig, StateRollingBack,
		StateError, StateDisconnected,
	),
	StateExecutingCommand: set(StateReady, StateError, StateDisconnected),
	StateEnteringConfig:   set(StateConfigMode, StateError, StateDisconnected),
	StateConfigMode: set(
		StateApplyingConfig, StateAbortingConfig, StateCommitting,
		StateReady, StateError, StateDisconnected,
	),
	StateApplyingConfig: set(StateCommitting, StateError, StateDisconnected),
	StateCommitting:     set(StateReady, StateAbortingConfig, StateError, StateDisconnected),
	StateAbortingConfig:  set(StateReady, StateError, StateDisconnected),
	StateRollingBack:     set(StateReady, StateError, StateDisconnected),
	StateError:           set(StateReady, StateDisconnected),
	StateDisconnected:    set(StateInitializing),
}

func set(states ...State) map[State]bool {
	m := make(map[State]bool, len(states))
	for _, s := range states {
		m[s] = true
	}
	return m
}

// IsValidTransition reports whether s2 is an allowed successor of s1 per
// the table in spec.md §4.2.
func IsValidTransition(s1, s2 State) bool {
	next, ok := validTransitions[s1]
	if !ok {
		return false
	}
	return next[s2]
}

// ValidTransitions returns the allowed successor states of s, in State
// declaration order (useful for tests and diagnostics).
func ValidTransitions(s State) []State {
	next := validTransitions[s]
	out := make([]State, 0, len(next))
	for candidate := StateInitializing; candidate <= StateDisconnected; candidate++ {
		if next[candidate] {
			out = append(out, candidate)
		}
	}
	return out
}

// IsTerminal reports whether s is a terminal state for the session
// (spec.md §3: DISCONNECTED is the only per-session terminal state).
func IsTerminal(s State) bool { return s == StateDisconnected }
