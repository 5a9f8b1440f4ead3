package redis

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/infra/memory"
)

const topicsKey = "trivia:topics"

// TopicRepository caches the topic list in Redis and falls back to a loader on cache miss.
// Topics are stored as: HSET trivia:topics {topicID} {name}
type TopicRepository struct {
	client *redis.Client
	loader memory.TopicLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewTopicRepository(client *redis.Client, loader memory.TopicLoader, ttl time.Duration) *TopicRepository {
	return &TopicRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *TopicRepository) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	fields, err := r.client.HGetAll(ctx, topicsKey).Result()
	if err == nil && len(fields) > 0 {
		return topicsFromCache(fields), nil
	}

	result, err, _ := r.sf.Do(topicsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := r.client.HGetAll(ctx, topicsKey).Result()
		if err == nil && len(fields) > 0 {
			return topicsFromCache(fields), nil
		}

		topics, err := r.loader.LoadTopics(ctx)
		if err != nil {
			return nil, err
		}
		if len(topics) == 0 {
			return topics, nil
		}

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, topicsKey)
		for _, topic := range topics {
			pipe.HSet(ctx, topicsKey, strconv.Itoa(topic.ID), topic.Name)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, topicsKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return topics, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Topic), nil
}

// topicsFromCache rebuilds the list ordered by ID; hash fields carry no order.
func topicsFromCache(fields map[string]string) []domain.Topic {
	topics := make([]domain.Topic, 0, len(fields))
	for rawID, name := range fields {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			continue
		}
		topics = append(topics, domain.Topic{ID: id, Name: name})
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].ID < topics[j].ID })
	return topics
}

func (r *TopicRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
