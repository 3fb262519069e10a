package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidTransitionTable(t *testing.T) {
	cases := []struct {
		from, to State
		want     bool
	}{
		{StateInitializing, StateReady, true},
		{StateInitializing, StateExecutingCommand, false},
		{StateReady, StateExecutingCommand, true},
		{StateReady, StateCommitting, false},
		{StateCommitting, StateAbortingConfig, true},
		{StateCommitting, StateEnteringConfig, false},
		{StateError, StateReady, true},
		{StateError, StateExecutingCommand, false},
		{StateDisconnected, StateInitializing, true},
		{StateDisconnected, StateReady, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, IsValidTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestEveryStateHasAnErrorAndDisconnectedEscape(t *testing.T) {
	for s := StateInitializing; s <= StateRollingBack; s++ {
		assert.True(t, IsValidTransition(s, StateError), "%s should be able to reach error", s)
		assert.True(t, IsValidTransition(s, StateDisconnected), "%s should be able to reach disconnected", s)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StateDisconnected))
	assert.False(t, IsTerminal(StateError))
	assert.False(t, IsTerminal(StateReady))
}
