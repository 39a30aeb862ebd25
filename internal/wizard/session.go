package wizard

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one customer's working order. All mutation goes through
// Wizard methods; handlers read it via State.
type Session struct {
	mu           sync.Mutex
	step         Step
	customer     Customer
	hasCustomer  bool
	selection    Selection
	hasSelection bool
	confirmed    bool
	lastOrderID  string
}

// State is a read-only snapshot of a session for rendering.
type State struct {
	Step         Step
	Customer     Customer
	HasCustomer  bool
	Selection    Selection
	HasSelection bool
	Confirmed    bool
	LastOrderID  string
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Step:         s.step,
		Customer:     s.customer,
		HasCustomer:  s.hasCustomer,
		Selection:    s.selection,
		HasSelection: s.hasSelection,
		Confirmed:    s.confirmed,
		LastOrderID:  s.lastOrderID,
	}
}

// Sessions is the in-memory registry of live wizard sessions, keyed by
// the opaque ID issued in the session cookie.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*Session
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session)}
}

// New creates a fresh session at the Registration step.
func (r *Sessions) New() (string, *Session) {
	id := uuid.NewString()
	s := &Session{step: StepRegistration}

	r.mu.Lock()
	r.m[id] = s
	r.mu.Unlock()
	return id, s
}

// Get returns the session for an ID, or false for unknown/expired IDs.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.m[id]
	return s, ok
}
