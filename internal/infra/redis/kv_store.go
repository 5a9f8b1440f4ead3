package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/domain"
)

const kvPrefix = "trivia:kv:"

// KVStore keeps settings and history documents as plain Redis strings.
type KVStore struct {
	client *redis.Client
}

func NewKVStore(client *redis.Client) *KVStore {
	return &KVStore{client: client}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, kvPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, kvPrefix+key, value, 0).Err()
}
