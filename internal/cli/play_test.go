package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
	"trivia-quiz/internal/infra/memory"
)

func TestPlayOneQuestionToResults(t *testing.T) {
	service := newPlayService()
	var out bytes.Buffer

	err := runPlay(context.Background(), service, oneQuestion(), strings.NewReader("Z\nA\n\nq\n"), &out)
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"Question 1/1",
		"What is the capital of France?",
		"Choose a letter between A and D.",
		"Press Enter to see your results.",
		"Your score: ",
		"[a] play again  [n] new quiz  [q] quit",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
	if !strings.Contains(text, "Excellent") && !strings.Contains(text, "Keep practicing") {
		t.Fatalf("expected a performance label:\n%s", text)
	}
	if got := len(service.History(context.Background())); got != 1 {
		t.Fatalf("expected one history entry, got %d", got)
	}
	if _, ok := service.Current(); ok {
		t.Fatalf("quitting should abandon the session")
	}
}

func TestPlayAgainReplaysSameQuestions(t *testing.T) {
	service := newPlayService()
	var out bytes.Buffer

	err := runPlay(context.Background(), service, oneQuestion(), strings.NewReader("A\n\na\nB\n\nq\n"), &out)
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := strings.Count(out.String(), "Quiz complete"); got != 2 {
		t.Fatalf("expected two result screens, got %d:\n%s", got, out.String())
	}
	if got := strings.Count(out.String(), "Loading questions..."); got != 1 {
		t.Fatalf("play again must not refetch, got %d loads", got)
	}
}

func TestPlayStopsAtEndOfInput(t *testing.T) {
	service := newPlayService()
	var out bytes.Buffer

	if err := runPlay(context.Background(), service, oneQuestion(), strings.NewReader(""), &out); err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(service.History(context.Background())) != 0 {
		t.Fatalf("abandoned quiz must not be recorded")
	}
}

func TestPlayReportsFetchErrors(t *testing.T) {
	service := app.NewQuizService(context.Background(), app.Dependencies{
		Questions: questionSource(nil),
		Topics:    memory.NewTopicRepository(memory.NewStaticTopicLoader(nil), time.Minute),
		Store:     memory.NewKVStore(),
		Sessions:  memory.NewSessionStore(),
	})
	var out bytes.Buffer

	err := runPlay(context.Background(), service, oneQuestion(), strings.NewReader(""), &out)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(out.String(), app.UserMessage(domain.ErrNoResults)) {
		t.Fatalf("expected user message, got %q", out.String())
	}
}

func TestParseChoice(t *testing.T) {
	cases := []struct {
		in    string
		index int
		ok    bool
	}{
		{"A", 0, true},
		{"d", 3, true},
		{" b ", 1, true},
		{"E", 0, false},
		{"", 0, false},
		{"AB", 0, false},
		{"1", 0, false},
	}
	for _, tc := range cases {
		index, ok := parseChoice(tc.in, 4)
		if ok != tc.ok || (ok && index != tc.index) {
			t.Fatalf("parseChoice(%q) = %d, %v", tc.in, index, ok)
		}
	}
}

func TestRenderHistory(t *testing.T) {
	var out bytes.Buffer
	if err := renderHistory(&out, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), "No quizzes played yet.") {
		t.Fatalf("unexpected empty output %q", out.String())
	}

	out.Reset()
	entries := []domain.HistoryEntry{{Date: "Oct 18, 2026", Topic: "Science", Difficulty: "medium", Score: 7, Total: 10, Percent: 70}}
	if err := renderHistory(&out, entries); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out.String(), "7/10 (70%)") || !strings.Contains(out.String(), "Science") {
		t.Fatalf("unexpected history output %q", out.String())
	}
}

func newPlayService() *app.QuizService {
	store := memory.NewKVStore()
	return app.NewQuizService(context.Background(), app.Dependencies{
		Questions: questionSource{{
			Category:         "Geography",
			Difficulty:       "easy",
			Prompt:           "What is the capital of France?",
			CorrectAnswer:    "Paris",
			IncorrectAnswers: []string{"Lyon", "Nice", "Lille"},
		}},
		Topics:   memory.NewTopicRepository(memory.NewStaticTopicLoader([]domain.Topic{{ID: 22, Name: "Geography"}}), time.Minute),
		Store:    store,
		Sessions: memory.NewSessionStore(),
		History:  app.NewHistoryRecorder(store, app.DedupSession),
	})
}

func oneQuestion() domain.SessionSettings {
	return domain.SessionSettings{TopicID: 22, Difficulty: domain.DifficultyEasy, QuestionCount: 1}
}

type questionSource []domain.Question

func (s questionSource) FetchQuestions(context.Context, domain.QuestionQuery) ([]domain.Question, error) {
	return s, nil
}
