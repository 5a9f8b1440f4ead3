package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"trivia-quiz/internal/domain"
)

const (
	settingsKey = "quizmaster_settings_v1"
	historyKey  = "quizmaster_history_v1"
)

// KeyValueStore persists small JSON documents (settings, history).
// Get returns domain.ErrKeyNotFound on a miss.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// loadJSON decodes key into dst and reports whether a stored value was used.
// Misses and failures leave dst untouched.
func loadJSON(ctx context.Context, store KeyValueStore, key string, dst any) bool {
	found, err := readJSON(ctx, store, key, dst)
	if err != nil {
		log.Printf("load %s: %v", key, err)
	}
	return found
}

// readJSON is loadJSON for callers that must tell a miss (false, nil) from
// a failed read or decode.
func readJSON(ctx context.Context, store KeyValueStore, key string, dst any) (bool, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode: %w", err)
	}
	return true, nil
}

// saveJSON is best-effort: failures are logged and swallowed.
func saveJSON(ctx context.Context, store KeyValueStore, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("encode %s: %v", key, err)
		return
	}
	if err := store.Put(ctx, key, raw); err != nil {
		log.Printf("save %s: %v", key, err)
	}
}
