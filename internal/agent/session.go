// internal/agent/session.go
package agent

import (
	"sync"

	"web-research-agent/internal/models"
)

// Session owns the conversation history for one caller. The agent reads and
// appends turns but never owns the session; callers create one per
// conversation and may share it across sequential queries.
type Session struct {
	mu     sync.Mutex
	window int
	turns  []models.Turn
}

// NewSession creates a session retaining at most window turns; older turns
// are evicted so prompt size stays bounded.
func NewSession(window int) *Session {
	if window < 1 {
		window = 1
	}
	return &Session{window: window}
}

func (s *Session) Append(turn models.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	if len(s.turns) > s.window {
		s.turns = s.turns[len(s.turns)-s.window:]
	}
}

// History returns a copy of the retained turns, oldest first.
func (s *Session) History() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}
