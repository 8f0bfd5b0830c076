package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/opchat/opchat/internal/bus"
	"go.uber.org/zap"
)

// State represents a console session state.
type State string

const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Online       State = "ONLINE"
	Degraded     State = "DEGRADED"
	Error        State = "ERROR"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:      {AuthRequired, Online, Error},
	AuthRequired: {Online, Error},
	Online:       {Degraded, AuthRequired, Error},
	Degraded:     {Online, AuthRequired, Error},
	Error:        {Booting},
}

// SessionStore clears persisted credentials when a session dies.
// *store.DB satisfies it.
type SessionStore interface {
	ClearSession() error
}

// Machine tracks and enforces session state transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	bus      *bus.Bus
	sessions SessionStore
	logger   *zap.Logger
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus, sessions SessionStore, logger *zap.Logger) *Machine {
	return &Machine{
		current:  Booting,
		bus:      b,
		sessions: sessions,
		logger:   logger,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	m.setLocked(to)
	return nil
}

// Expire handles a dead session: the stored credentials are cleared and
// the machine moves to AuthRequired regardless of its current state.
// Any backend response with an authorization failure funnels here.
func (m *Machine) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sessions != nil {
		if err := m.sessions.ClearSession(); err != nil {
			m.logger.Error("failed to clear session", zap.Error(err))
		}
	}
	if m.current == AuthRequired {
		return
	}
	m.setLocked(AuthRequired)
}

func (m *Machine) setLocked(to State) {
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(bus.KindStatusChanged, StatusChange{From: from, To: to})
	}
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
