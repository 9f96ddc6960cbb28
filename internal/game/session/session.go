// Package session tracks per-connection player state and the two pieces of
// process-wide state the matchmaking protocol needs: the registry of
// logged-in usernames and the FIFO queue of players waiting for a match.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the matchmaking state of a connection.
type Status int

const (
	// StatusIdle means the session is neither waiting nor playing.
	StatusIdle Status = iota
	// StatusQueued means the session is waiting in the matchmaking queue.
	StatusQueued
	// StatusInGame means the session is linked to an opponent.
	StatusInGame
)

// String returns the status name for log fields.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusQueued:
		return "queued"
	case StatusInGame:
		return "in_game"
	}
	return "unknown"
}

// Sink is the outbound channel of a session. Implementations must serialize
// concurrent calls so each WriteLine emits exactly one complete line
// (tcp.Conn satisfies this).
type Sink interface {
	WriteLine(text string) error
}

// Session is the server-side state for one live client connection.
//
// Invariants: the opponent pointer is non-nil only while status is
// StatusInGame (with one protocol-mandated exception: after the opponent's
// loss has been delivered the pointer is cleared but the session stays
// InGame until it reports its own result); the username is set at most once
// per connection lifetime.
//
// The session's own worker reads commands sequentially; state is mutated
// both by that worker and by the worker of a pairing or linked opponent,
// so all mutable fields are guarded by mu.
type Session struct {
	id   string
	sink Sink

	mu       sync.Mutex
	username string
	status   Status
	opponent *Session
}

// New creates an Idle, unauthenticated session writing to the given sink.
//
// Precondition: sink must be non-nil.
func New(sink Sink) *Session {
	return &Session{
		id:   uuid.NewString(),
		sink: sink,
	}
}

// ID returns the unique session identifier, used for log correlation.
func (s *Session) ID() string {
	return s.id
}

// Send writes one line to the session's client. Safe to call from any
// goroutine; the sink serializes concurrent writers.
func (s *Session) Send(line string) error {
	return s.sink.WriteLine(line)
}

// Username returns the authenticated username, or "" if not logged in.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Authenticate sets the session identity. Identity is set at most once;
// a second call is ignored and reports false.
//
// Precondition: username must be non-empty.
func (s *Session) Authenticate(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.username != "" {
		return false
	}
	s.username = username
	return true
}

// Status returns the current matchmaking status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Opponent returns the linked opponent, or nil.
func (s *Session) Opponent() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opponent
}

// markQueued transitions to StatusQueued. Called by Queue with its lock held.
func (s *Session) markQueued() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusQueued
}

// BeginMatch links the session to its opponent and marks it InGame.
// Called once per pairing on each side by the worker that completed the
// pairing; for the waiting side that is the opponent's worker.
//
// Precondition: opp must be non-nil and distinct from s.
func (s *Session) BeginMatch(opp *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusInGame
	s.opponent = opp
}

// FinishGame clears the opponent link, returns the session to Idle, and
// reports the former opponent (nil if there was none). The caller is
// responsible for notifying that opponent.
func (s *Session) FinishGame() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	opp := s.opponent
	s.opponent = nil
	s.status = StatusIdle
	return opp
}

// DropOpponent clears only the opponent pointer, leaving the status
// untouched. Used when the opponent has lost: the session stays InGame so
// its own WIN report remains accepted, but relay commands in the interim
// have nowhere to go.
func (s *Session) DropOpponent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opponent = nil
}
