package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"trivia-quiz/internal/domain"
)

func TestRouterSettingsRoundTrip(t *testing.T) {
	router := NewRouter(newTestService(t, sampleQuestions()), []string{"http://localhost:5173"})

	rec := httptest.NewRecorder()
	body := `{"category":22,"difficulty":"hard","amount":5,"timerEnabled":true,"timerSeconds":15}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	var got domain.SessionSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	want := domain.SessionSettings{TopicID: 22, Difficulty: domain.DifficultyHard, QuestionCount: 5, TimerEnabled: true, TimerSeconds: 15}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestRouterRejectsInvalidSettings(t *testing.T) {
	router := NewRouter(newTestService(t, sampleQuestions()), nil)

	for _, body := range []string{`{"amount":500}`, `{"difficulty":"brutal"}`, `not json`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestRouterTopicsAndSessions(t *testing.T) {
	router := NewRouter(newTestService(t, sampleQuestions()), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/topics", nil))
	var topics []domain.Topic
	if err := json.Unmarshal(rec.Body.Bytes(), &topics); err != nil || len(topics) != 1 || topics[0].Name != "Geography" {
		t.Fatalf("unexpected topics %s (%v)", rec.Body.String(), err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouterSessionSnapshot(t *testing.T) {
	service := newTestService(t, sampleQuestions())
	router := NewRouter(service, nil)

	ctrl, err := service.StartQuiz(t.Context(), domain.DefaultSettings())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+ctrl.ID(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &snapshot)
	if snapshot["phase"] != "active" || snapshot["sessionId"] != ctrl.ID() {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}
	for _, opt := range snapshot["options"].([]any) {
		if opt.(map[string]any)["isCorrect"] == true {
			t.Fatalf("active snapshot must not reveal the correct option")
		}
	}
}
