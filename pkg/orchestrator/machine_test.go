package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_ForwardPath(t *testing.T) {
	m := NewMachine(nil)
	path := []State{
		StateValidating,
		StatePreDepositChecking,
		StateDepositing,
		StateDepositConfirming,
		StateExitWatching,
		StateExitConfirming,
		StateCompleted,
	}
	for _, next := range path {
		require.NoError(t, m.Transition(next))
	}
	assert.Equal(t, StateCompleted, m.Current())
}

func TestMachine_IllegalJumps(t *testing.T) {
	cases := []struct {
		name string
		walk []State
		jump State
	}{
		{"idle to depositing", nil, StateDepositing},
		{"idle to completed", nil, StateCompleted},
		{"validating to exit watching", []State{StateValidating}, StateExitWatching},
		{"no exit watch without confirmed deposit", []State{StateValidating, StatePreDepositChecking, StateDepositing}, StateExitWatching},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMachine(nil)
			for _, s := range tc.walk {
				require.NoError(t, m.Transition(s))
			}
			assert.Error(t, m.Transition(tc.jump))
		})
	}
}

func TestMachine_UserRejectionEdge(t *testing.T) {
	m := NewMachine(nil)
	require.NoError(t, m.Transition(StateValidating))
	require.NoError(t, m.Transition(StatePreDepositChecking))
	require.NoError(t, m.Transition(StateDepositing))
	// declining the signing prompt falls back to Idle
	require.NoError(t, m.Transition(StateIdle))

	// but a confirming deposit cannot be abandoned
	m = NewMachine(nil)
	require.NoError(t, m.Transition(StateValidating))
	require.NoError(t, m.Transition(StatePreDepositChecking))
	require.NoError(t, m.Transition(StateDepositing))
	require.NoError(t, m.Transition(StateDepositConfirming))
	assert.Error(t, m.Transition(StateIdle))
}

func TestMachine_TransitionHook(t *testing.T) {
	var got []State
	m := NewMachine(func(from, to State) {
		got = append(got, to)
	})
	require.NoError(t, m.Transition(StateValidating))
	require.NoError(t, m.Transition(StateErrored))
	require.NoError(t, m.Transition(StateIdle))
	assert.Equal(t, []State{StateValidating, StateErrored, StateIdle}, got)
}

func TestState_Dismissible(t *testing.T) {
	dismissible := []State{StateIdle, StatePreDepositChecking, StateErrored, StateCompleted}
	for _, s := range dismissible {
		assert.True(t, s.Dismissible(), string(s))
	}
	held := []State{StateValidating, StateDepositing, StateDepositConfirming, StateExitWatching, StateExitConfirming}
	for _, s := range held {
		assert.False(t, s.Dismissible(), string(s))
	}
}
