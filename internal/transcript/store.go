// Package transcript keeps the per-session chat history. Sessions live in
// memory only and disappear when the process exits.
package transcript

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"kb-chat/internal/domain"
)

// ErrSessionNotFound is returned for operations on unknown session ids.
var ErrSessionNotFound = errors.New("transcript: session not found")

// Session is one chat session's state.
type Session struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"startedAt"`
	Turns     []domain.Turn `json:"turns"`

	// KBSessionID is the knowledge-base service's session id, replayed on
	// later in-domain queries of the same chat session.
	KBSessionID string `json:"-"`
}

// Store holds all live sessions. Appends within one session are
// sequential; the lock only guards concurrent sessions sharing the map.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a new session and returns a snapshot of it.
func (s *Store) Create() Session {
	sess := &Session{
		ID:        newUUID(),
		StartedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return snapshot(sess)
}

// Get returns a snapshot of the session, if it exists.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return snapshot(sess), true
}

// Append adds one turn to the session transcript.
func (s *Store) Append(id, role, text string) (domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return domain.Turn{}, ErrSessionNotFound
	}
	turn := domain.Turn{
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
	sess.Turns = append(sess.Turns, turn)
	return turn, nil
}

// SetKBSessionID records the knowledge-base session id for later turns.
func (s *Store) SetKBSessionID(id, kbSessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.KBSessionID = kbSessionID
	return nil
}

// Clear empties the session transcript and drops the knowledge-base
// session, keeping the session id valid.
func (s *Store) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.Turns = nil
	sess.KBSessionID = ""
	return nil
}

func snapshot(sess *Session) Session {
	out := *sess
	out.Turns = make([]domain.Turn, len(sess.Turns))
	copy(out.Turns, sess.Turns)
	return out
}

var newUUID = func() string {
	return uuid.NewString()
}
