package memory

import (
	"context"
	"errors"
	"testing"

	"trivia-quiz/internal/domain"
)

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewKVStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	value := []byte(`{"amount":5}`)
	if err := store.Put(ctx, "settings", value); err != nil {
		t.Fatalf("put: %v", err)
	}
	value[0] = 'x'

	got, err := store.Get(ctx, "settings")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"amount":5}` {
		t.Fatalf("stored value aliased caller buffer: %s", got)
	}
}
