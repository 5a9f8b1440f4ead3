package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)
	session := app.NewController(app.ControllerConfig{
		TopicLabel: "Geography",
		NewID:      func() string { return "session-1" },
	})

	store.Put(session)
	if !mr.Exists("trivia:session:session-1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, ok := store.Get("session-1"); !ok || got != session {
		t.Fatalf("expected session available locally")
	}

	store.Delete("session-1")
	if mr.Exists("trivia:session:session-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("session-1"); ok {
		t.Fatalf("expected session removed locally")
	}
}

func TestSessionStoreLivenessExpiresWhenIdle(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	store.Put(app.NewController(app.ControllerConfig{NewID: func() string { return "session-2" }}))

	mr.FastForward(2 * time.Minute)
	if mr.Exists("trivia:session:session-2") {
		t.Fatalf("expected liveness marker to expire")
	}
}

func TestSessionStoreRenewsLivenessOnTransitions(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	session := app.NewController(app.ControllerConfig{NewID: func() string { return "session-3" }})
	defer session.Close()
	if err := session.Load([]domain.Question{
		{Type: "multiple", Prompt: "Capital of France?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Lyon", "Nice", "Lille"}},
		{Type: "boolean", Prompt: "The sky is blue.", CorrectAnswer: "True", IncorrectAnswers: []string{"False"}},
	}); err != nil {
		t.Fatalf("load: %v", err)
	}
	store.Put(session)

	const key = "trivia:session:session-3"
	mr.FastForward(50 * time.Second)
	session.SelectAnswer(0)
	waitForTTL(t, mr, key, 30*time.Second)

	mr.FastForward(50 * time.Second)
	session.Advance()
	waitForTTL(t, mr, key, 30*time.Second)

	store.Delete("session-3")
	session.Advance()
	if mr.Exists(key) {
		t.Fatalf("deleted session must not be marked live again")
	}
}

func waitForTTL(t *testing.T, mr *miniredis.Miniredis, key string, atLeast time.Duration) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mr.TTL(key) > atLeast {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ttl of %s not renewed, got %s", key, mr.TTL(key))
}
