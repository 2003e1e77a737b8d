package call

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is the in-process session store for local/dev use and
// tests. Ended sessions are retained so repeated hangups and stale turns
// can be told apart from unknown call ids.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Ended() {
		return nil, ErrEnded
	}
	return sess.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.sessions[sess.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Ended() {
		return ErrEnded
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *InMemoryStore) End(_ context.Context, id, note string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Ended() {
		return nil, ErrEnded
	}
	end(sess, note, time.Now().UTC())
	return sess.Clone(), nil
}

func (s *InMemoryStore) ExpireInactive(_ context.Context, cutoff time.Time) ([]*Session, error) {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*Session
	for _, sess := range s.sessions {
		if sess.Ended() || sess.LastActivityAt.After(cutoff) {
			continue
		}
		end(sess, "Call expired after inactivity.", now)
		expired = append(expired, sess.Clone())
	}
	return expired, nil
}

func (s *InMemoryStore) ActiveCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if !sess.Ended() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) EndedCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sess := range s.sessions {
		if sess.Ended() {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) Close() error { return nil }

func end(sess *Session, note string, at time.Time) {
	sess.Status = StatusEnded
	sess.EndedAt = at
	sess.LastActivityAt = at
	sess.InputBuffer = ""
	if note != "" {
		sess.Inputs = append(sess.Inputs, note)
	}
}
