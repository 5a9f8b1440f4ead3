package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz/internal/domain"
)

const topicsKey = "topics"

// TopicLoader fetches the topic list from the question source.
type TopicLoader interface {
	LoadTopics(ctx context.Context) ([]domain.Topic, error)
}

// TopicRepository caches the topic list with a TTL so every setup screen
// does not hit the question source.
type TopicRepository struct {
	loader TopicLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	topics    []domain.Topic
	expiresAt time.Time
}

func NewTopicRepository(loader TopicLoader, ttl time.Duration) *TopicRepository {
	return NewTopicRepositoryWithClock(loader, ttl, time.Now)
}

// NewTopicRepositoryWithClock is test-only for deterministic expiry.
func NewTopicRepositoryWithClock(loader TopicLoader, ttl time.Duration, clock func() time.Time) *TopicRepository {
	return &TopicRepository{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *TopicRepository) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	if topics, ok := r.cached(); ok {
		return topics, nil
	}

	result, err, _ := r.sf.Do(topicsKey, func() (interface{}, error) {
		if topics, ok := r.cached(); ok {
			return topics, nil
		}

		topics, err := r.loader.LoadTopics(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.topics = topics
		r.expiresAt = r.clock().Add(r.ttlWithJitter())
		r.mu.Unlock()
		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Topic), nil
}

func (r *TopicRepository) cached() ([]domain.Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.topics != nil && r.expiresAt.After(r.clock()) {
		return r.topics, true
	}
	return nil, false
}

// StaticTopicLoader serves a fixed topic list (useful for tests/demos).
type StaticTopicLoader struct {
	topics []domain.Topic
}

func NewStaticTopicLoader(topics []domain.Topic) *StaticTopicLoader {
	return &StaticTopicLoader{topics: topics}
}

func (l *StaticTopicLoader) LoadTopics(context.Context) ([]domain.Topic, error) {
	return append([]domain.Topic(nil), l.topics...), nil
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
