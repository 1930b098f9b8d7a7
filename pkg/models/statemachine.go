package models

// ============================================================================
// State Machines
// ============================================================================

// StateTransition is one legal move between two declared states. Trigger
// is usually the action name that performs the transition.
type StateTransition struct {
	FromState string `json:"from_state"`
	ToState   string `json:"to_state"`
	Trigger   string `json:"trigger,omitempty"`
}

// StateMachine declares the legal lifecycle of an entity. At most one
// state machine may be registered per entity.
type StateMachine struct {
	Entity       string            `json:"entity"`
	States       []string          `json:"states"`
	Transitions  []StateTransition `json:"transitions"`
	InitialState string            `json:"initial_state,omitempty"`
}

// HasState reports whether the state is declared.
func (m *StateMachine) HasState(state string) bool {
	for _, s := range m.States {
		if s == state {
			return true
		}
	}
	return false
}

// CanTransition reports whether a transition with the given endpoints
// exists. When trigger is non-empty, a transition matching the trigger is
// preferred; any transition with matching endpoints suffices otherwise.
func (m *StateMachine) CanTransition(from, to, trigger string) bool {
	endpointsMatch := false
	for _, t := range m.Transitions {
		if t.FromState != from || t.ToState != to {
			continue
		}
		if trigger != "" && t.Trigger == trigger {
			return true
		}
		endpointsMatch = true
	}
	return endpointsMatch
}

// TransitionsFrom returns the target states reachable from the given state.
func (m *StateMachine) TransitionsFrom(from string) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, t := range m.Transitions {
		if t.FromState == from && !seen[t.ToState] {
			seen[t.ToState] = true
			targets = append(targets, t.ToState)
		}
	}
	return targets
}

// IsDeterministic reports whether at most one transition exists per
// (from_state, trigger) pair.
func (m *StateMachine) IsDeterministic() bool {
	seen := make(map[[2]string]bool)
	for _, t := range m.Transitions {
		key := [2]string{t.FromState, t.Trigger}
		if seen[key] {
			return false
		}
		seen[key] = true
	}
	return true
}

// Validate checks that every transition endpoint is a declared state and
// the machine is deterministic. Returns "" when valid, or a description
// of the first problem found.
func (m *StateMachine) Validate() string {
	for _, t := range m.Transitions {
		if !m.HasState(t.FromState) {
			return "transition references undeclared state: " + t.FromState
		}
		if !m.HasState(t.ToState) {
			return "transition references undeclared state: " + t.ToState
		}
	}
	if m.InitialState != "" && !m.HasState(m.InitialState) {
		return "initial state is not declared: " + m.InitialState
	}
	if !m.IsDeterministic() {
		return "multiple transitions share the same (from_state, trigger) pair"
	}
	return ""
}

// SameTopology reports whether two machines declare identical states and
// transitions in the same order.
func (m *StateMachine) SameTopology(other *StateMachine) bool {
	if other == nil || len(m.States) != len(other.States) || len(m.Transitions) != len(other.Transitions) {
		return false
	}
	for i := range m.States {
		if m.States[i] != other.States[i] {
			return false
		}
	}
	for i := range m.Transitions {
		if m.Transitions[i] != other.Transitions[i] {
			return false
		}
	}
	return m.InitialState == other.InitialState
}
