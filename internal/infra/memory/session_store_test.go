package memory

import (
	"testing"

	"trivia-quiz/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	session := app.NewController(app.ControllerConfig{})

	store.Put(session)
	got, ok := store.Get(session.ID())
	if !ok || got != session {
		t.Fatalf("expected session present")
	}

	store.Delete(session.ID())
	if _, ok := store.Get(session.ID()); ok {
		t.Fatalf("expected session removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
