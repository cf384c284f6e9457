// Package session holds transient onboarding state for phone numbers that are
// not yet registered users. Sessions are ephemeral and never written to the
// domain store.
package session

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Step identifies the current registration step for a phone number.
type Step int

const (
	// StepNone means registration has not started.
	StepNone Step = iota
	// StepName means the bot is waiting for the user's name.
	StepName
	// StepTopic means the bot is waiting for a topic selection.
	StepTopic
)

// Session is the onboarding state for one phone number. TopicIDs snapshots
// the exact topic list shown in the numbered prompt, so a later selection
// resolves against what the user actually saw.
type Session struct {
	PhoneNumber string
	Step        Step
	Name        string
	TopicIDs    []primitive.ObjectID
	UpdatedAt   time.Time
}

// Store is the narrow interface the registration state machine depends on.
type Store interface {
	Get(phoneNumber string) (*Session, bool)
	Put(session *Session)
	Clear(phoneNumber string)
}

// MemoryStore is an in-process Store with TTL eviction. Entries expire when
// untouched for the configured TTL; expired entries are dropped lazily on
// access and by the optional sweeper.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore with the given TTL. A zero TTL
// disables eviction.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the live session for a phone number, if any.
func (s *MemoryStore) Get(phoneNumber string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[phoneNumber]
	if !ok {
		return nil, false
	}
	if s.expired(sess) {
		delete(s.sessions, phoneNumber)
		return nil, false
	}
	return sess, true
}

// Put stores a session and refreshes its eviction deadline.
func (s *MemoryStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = s.now()
	s.sessions[sess.PhoneNumber] = sess
}

// Clear removes the session for a phone number.
func (s *MemoryStore) Clear(phoneNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, phoneNumber)
}

// Sweep drops all expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for phone, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, phone)
			removed++
		}
	}
	return removed
}

// StartSweeping runs Sweep on the given interval until ctx is cancelled.
func (s *MemoryStore) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *MemoryStore) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}
