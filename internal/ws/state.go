package ws

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = fmt.Errorf("invalid state transition")
)

// ConnectionState is the lifecycle state of one live channel.
type ConnectionState string

const (
	StateDisconnected     ConnectionState = "disconnected"
	StateConnecting       ConnectionState = "connecting"
	StateHandshakePending ConnectionState = "handshake_pending"
	StateCatchingUp       ConnectionState = "catching_up"
	StateLive             ConnectionState = "live"
)

// Connected reports whether a transport is established in this state.
func (s ConnectionState) Connected() bool {
	return s == StateHandshakePending || s == StateCatchingUp || s == StateLive
}

// There is no terminal state: every state can fall back to Disconnected and
// Disconnected can always be reopened.
var transitions = map[ConnectionState]map[ConnectionState]struct{}{
	StateDisconnected: {
		StateConnecting: {},
	},
	StateConnecting: {
		StateHandshakePending: {},
		StateDisconnected:     {},
	},
	StateHandshakePending: {
		StateCatchingUp:   {},
		StateLive:         {},
		StateDisconnected: {},
	},
	StateCatchingUp: {
		StateLive:         {},
		StateDisconnected: {},
	},
	StateLive: {
		StateDisconnected: {},
	},
}

// StateMachine guards ConnectionState transitions.
type StateMachine struct {
	mu       sync.Mutex
	current  ConnectionState
	onChange func(from, to ConnectionState)
	logger   *zap.Logger
}

func NewStateMachine(logger *zap.Logger, onChange func(from, to ConnectionState)) *StateMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StateMachine{
		current:  StateDisconnected,
		onChange: onChange,
		logger:   logger,
	}
}

func (m *StateMachine) Current() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *StateMachine) CanTransition(to ConnectionState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return canTransition(m.current, to)
}

func canTransition(from, to ConnectionState) bool {
	_, ok := transitions[from][to]
	return ok
}

func (m *StateMachine) Transition(to ConnectionState) error {
	m.mu.Lock()
	from := m.current
	if !canTransition(from, to) {
		m.mu.Unlock()
		m.logger.Debug("invalid state transition",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.current = to
	m.mu.Unlock()

	m.logger.Debug("state transitioned",
		zap.String("state", string(to)),
		zap.String("from", string(from)),
	)
	if m.onChange != nil {
		m.onChange(from, to)
	}
	return nil
}

// Disconnect moves to Disconnected from any state. It reports false when the
// machine was already disconnected.
func (m *StateMachine) Disconnect() bool {
	if m.Current() == StateDisconnected {
		return false
	}
	return m.Transition(StateDisconnected) == nil
}
