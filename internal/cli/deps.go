package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/config"
	"trivia-quiz/internal/infra/memory"
	pgstore "trivia-quiz/internal/infra/postgres"
	infraredis "trivia-quiz/internal/infra/redis"
	"trivia-quiz/internal/infra/sqlite"
	"trivia-quiz/internal/opentdb"
)

// runtime is a wired QuizService plus the resources it holds open.
type runtime struct {
	service *app.QuizService
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime wires the service for the configured storage driver. Redis,
// when configured, also backs the topic cache and session registry.
func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{}

	client := opentdb.NewClientWithBaseURL(
		&http.Client{},
		cfg.OpenTDB.BaseURL,
		config.TTLDuration(cfg.OpenTDB.Timeout, opentdb.DefaultTimeout),
	)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	store, err := openStore(ctx, cfg, redisClient, rt)
	if err != nil {
		rt.Close()
		return nil, err
	}

	topicsTTL := config.TTLDuration(cfg.Topics.TTL, time.Hour)
	var topics app.TopicRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		topics = infraredis.NewTopicRepository(redisClient, client, topicsTTL)
		sessions = infraredis.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		topics = memory.NewTopicRepository(client, topicsTTL)
		sessions = memory.NewSessionStore()
	}

	policy, err := app.ParseDedupPolicy(cfg.History.Dedup)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.service = app.NewQuizService(ctx, app.Dependencies{
		Questions: client,
		Topics:    topics,
		Store:     store,
		Sessions:  sessions,
		History:   app.NewHistoryRecorder(store, policy),
		Decode:    opentdb.DecodeText,
		NewTicker: app.NewRealTicker,
	})
	rt.closers = append(rt.closers, rt.service.Abandon)
	return rt, nil
}

func openStore(ctx context.Context, cfg config.Config, redisClient *redis.Client, rt *runtime) (app.KeyValueStore, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return memory.NewKVStore(), nil
	case "", "sqlite":
		store, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		return store, nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("storage driver redis requires redis.addr")
		}
		return infraredis.NewKVStore(redisClient), nil
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		return pgstore.NewKVStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func loadRuntime(ctx context.Context, configPath string) (*runtime, config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, cfg, err
	}
	rt, err := buildRuntime(ctx, cfg)
	return rt, cfg, err
}
