package orchestrator

import (
	"fmt"
	"sync"

	"github.com/lpbridge/middleware/internal/metrics"
)

// State is a stage of the transfer lifecycle.
type State string

const (
	StateIdle               State = "IDLE"
	StateValidating         State = "VALIDATING"
	StatePreDepositChecking State = "PRE_DEPOSIT_CHECKING"
	StateDepositing         State = "DEPOSITING"
	StateDepositConfirming  State = "DEPOSIT_CONFIRMING"
	StateExitWatching       State = "EXIT_WATCHING"
	StateExitConfirming     State = "EXIT_CONFIRMING"
	StateCompleted          State = "COMPLETED"
	StateErrored            State = "ERRORED"
)

// transitions is the full set of legal state changes. Every stage before
// the deposit broadcast can fall back to Idle; once the deposit is on the
// wire the only exits are forward progress or Errored.
var transitions = map[State][]State{
	StateIdle:               {StateValidating},
	StateValidating:         {StatePreDepositChecking, StateIdle, StateErrored},
	StatePreDepositChecking: {StateDepositing, StateIdle, StateErrored},
	StateDepositing:         {StateDepositConfirming, StateIdle, StateErrored},
	StateDepositConfirming:  {StateExitWatching, StateErrored},
	StateExitWatching:       {StateExitConfirming, StateErrored},
	StateExitConfirming:     {StateCompleted, StateErrored},
	StateCompleted:          {StateIdle},
	StateErrored:            {StateIdle},
}

// Dismissible reports whether the transfer view can be torn down in this
// state without abandoning an in-flight deposit.
func (s State) Dismissible() bool {
	switch s {
	case StateIdle, StatePreDepositChecking, StateErrored, StateCompleted:
		return true
	}
	return false
}

// Machine tracks the lifecycle state and rejects illegal transitions.
type Machine struct {
	mu           sync.Mutex
	current      State
	onTransition func(from, to State)
}

// NewMachine creates a machine in the Idle state. The hook, if non-nil,
// fires after every successful transition.
func NewMachine(onTransition func(from, to State)) *Machine {
	return &Machine{current: StateIdle, onTransition: onTransition}
}

// Current returns the machine's state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Transition moves the machine to the target state, or fails if the edge
// is not in the lifecycle graph.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	from := m.current
	if !legal(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("illegal transition %s -> %s", from, to)
	}
	m.current = to
	m.mu.Unlock()

	metrics.StageTransitions.WithLabelValues(string(from), string(to)).Inc()
	if m.onTransition != nil {
		m.onTransition(from, to)
	}
	return nil
}

func legal(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
