// Package conversation keeps bounded per-session turn history.
package conversation

import (
	"context"
	"sync"
)

// Role of a stored turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one stored message.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Store is per-session history. Session ids are opaque; the store never
// invents or infers them.
type Store interface {
	// History returns at most limit of the most recent turns, oldest first.
	// A non-positive limit returns everything kept.
	History(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	// Append adds turns in order and trims the session to its bound.
	Append(ctx context.Context, sessionID string, turns ...Turn) error
	// Clear forgets a session.
	Clear(ctx context.Context, sessionID string) error
}

// MemoryStore is the default volatile Store. Each session keeps at most maxTurns entries.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	maxTurns int
}

// NewMemoryStore keeps maxHistory exchanges, i.e. maxHistory*2 turns, per session.
func NewMemoryStore(maxHistory int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]Turn),
		maxTurns: maxHistory * 2,
	}
}

// History returns a copy of the newest turns.
func (s *MemoryStore) History(_ context.Context, sessionID string, limit int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// Append adds turns and drops the oldest beyond the bound.
func (s *MemoryStore) Append(_ context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := append(s.sessions[sessionID], turns...)
	if s.maxTurns > 0 && len(all) > s.maxTurns {
		all = append([]Turn(nil), all[len(all)-s.maxTurns:]...)
	}
	s.sessions[sessionID] = all
	return nil
}

// Clear forgets a session.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Sessions returns the number of sessions held.
func (s *MemoryStore) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
