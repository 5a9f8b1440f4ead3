package opentdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-quiz/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient(&http.Client{Transport: rt})
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestFetchQuestionsBuildsQuery(t *testing.T) {
	var seen *http.Request
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, `{"response_code":0,"results":[{"category":"Science","type":"multiple","difficulty":"easy","question":"Q &amp; A","correct_answer":"yes","incorrect_answers":["no","maybe","never"]}]}`), nil
	}))

	questions, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{
		Amount:     5,
		TopicID:    17,
		Difficulty: domain.DifficultyEasy,
	})
	if err != nil {
		t.Fatalf("FetchQuestions returned error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if questions[0].Prompt != "Q &amp; A" {
		t.Fatalf("question text must stay encoded, got %q", questions[0].Prompt)
	}
	if len(questions[0].IncorrectAnswers) != 3 {
		t.Fatalf("expected 3 incorrect answers, got %v", questions[0].IncorrectAnswers)
	}

	q := seen.URL.Query()
	if seen.URL.Path != "/api.php" {
		t.Fatalf("unexpected path %q", seen.URL.Path)
	}
	if q.Get("amount") != "5" || q.Get("type") != "multiple" || q.Get("category") != "17" || q.Get("difficulty") != "easy" {
		t.Fatalf("unexpected query %v", q)
	}
}

func TestFetchQuestionsOmitsOptionalFilters(t *testing.T) {
	var seenQuery map[string][]string
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seenQuery = r.URL.Query()
		return jsonResponse(http.StatusOK, `{"response_code":0,"results":[]}`), nil
	}))

	questions, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{})
	if err != nil {
		t.Fatalf("FetchQuestions returned error: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(questions))
	}
	if _, ok := seenQuery["category"]; ok {
		t.Fatalf("category must be omitted, got %v", seenQuery)
	}
	if _, ok := seenQuery["difficulty"]; ok {
		t.Fatalf("difficulty must be omitted, got %v", seenQuery)
	}
	if got := seenQuery["amount"]; len(got) != 1 || got[0] != "10" {
		t.Fatalf("expected default amount 10, got %v", got)
	}
}

func TestFetchQuestionsResponseCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{name: "no results", code: 1, want: domain.ErrNoResults},
		{name: "invalid parameter", code: 2, want: domain.ErrInvalidResponse},
		{name: "rate limited", code: 5, want: domain.ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
				encoded, err := json.Marshal(questionsResponse{
					ResponseCode: tt.code,
					Results:      []domain.Question{{Prompt: "ignored"}},
				})
				if err != nil {
					t.Fatalf("marshal payload: %v", err)
				}
				return jsonResponse(http.StatusOK, string(encoded)), nil
			}))

			_, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{Amount: 3})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestFetchQuestionsNonOKStatusIsFetchError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, ""), nil
	}))

	_, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{Amount: 5})
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestFetchQuestionsJSONDecodeError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, "not-json"), nil
	}))

	_, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{Amount: 3})
	if !errors.Is(err, domain.ErrInvalidResponse) {
		t.Fatalf("expected invalid response, got %v", err)
	}
}

func TestFetchQuestionsTransportErrorIsFetchError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))

	_, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{Amount: 3})
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("transport failure must not look like a timeout: %v", err)
	}
}

func TestFetchQuestionsTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClientWithBaseURL(server.Client(), server.URL, 50*time.Millisecond)
	_, err := client.FetchQuestions(context.Background(), domain.QuestionQuery{Amount: 3})
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestListTopics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_category.php" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":17,"name":"Science &amp; Nature"}]}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL(server.Client(), server.URL, time.Second)
	topics, err := client.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 2 || topics[1].ID != 17 {
		t.Fatalf("unexpected topics %+v", topics)
	}
}

func TestListTopicsNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, ""), nil
	}))
	if _, err := client.ListTopics(context.Background()); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestDecodeText(t *testing.T) {
	if got := DecodeText("Schr&ouml;dinger&#039;s &quot;cat&quot;"); got != `Schrödinger's "cat"` {
		t.Fatalf("unexpected decode %q", got)
	}
}
