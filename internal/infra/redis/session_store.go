package redis

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Controllers own goroutines and subscribers, so they stay in a local map.
//   - Redis marks session liveness under trivia:session:{id} so other
//     instances can tell which sessions are running somewhere. The marker's
//     TTL is renewed on every phase or question change, so it lapses only
//     once a session has sat idle for a full TTL.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Controller
	stops    map[string]func()
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Controller),
		stops:    make(map[string]func()),
	}
}

func (s *SessionStore) Put(session *app.Controller) {
	id := session.ID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.stops[id]; ok {
		stop()
	}
	s.sessions[id] = session
	// best-effort liveness marker
	if err := s.client.Set(context.Background(), s.key(id), session.TopicLabel(), s.ttl).Err(); err != nil {
		log.Printf("mark session %s live: %v", id, err)
	}

	updates, cancel := session.Subscribe()
	s.stops[id] = cancel
	go s.keepAlive(id, updates)
}

// keepAlive runs until the subscription is cancelled or the controller closes.
func (s *SessionStore) keepAlive(id string, updates <-chan domain.SessionSnapshot) {
	var last domain.SessionSnapshot
	seen := false
	for snap := range updates {
		if seen && snap.Phase == last.Phase && snap.Index == last.Index {
			continue
		}
		if seen {
			if err := s.client.Expire(context.Background(), s.key(id), s.ttl).Err(); err != nil {
				log.Printf("refresh session %s: %v", id, err)
			}
		}
		last, seen = snap, true
	}
}

func (s *SessionStore) Get(id string) (*app.Controller, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return
	}
	if stop, ok := s.stops[id]; ok {
		stop()
		delete(s.stops, id)
	}
	delete(s.sessions, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "trivia:session:" + id
}
