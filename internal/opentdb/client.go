package opentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trivia-quiz/internal/domain"
)

const (
	DefaultBaseURL = "https://opentdb.com"
	DefaultTimeout = 12 * time.Second
	defaultAmount  = 10
)

// OpenTDB response_code values.
const (
	codeSuccess   = 0
	codeNoResults = 1
)

type questionsResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []domain.Question `json:"results"`
}

type categoriesResponse struct {
	TriviaCategories []domain.Topic `json:"trivia_categories"`
}

// Client talks to the Open Trivia DB HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient uses http.DefaultClient when httpClient is nil.
func NewClient(httpClient *http.Client) *Client {
	return NewClientWithBaseURL(httpClient, DefaultBaseURL, DefaultTimeout)
}

func NewClientWithBaseURL(httpClient *http.Client, baseURL string, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: timeout,
	}
}

// ListTopics returns the question categories.
func (c *Client) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	var payload categoriesResponse
	if err := c.getJSON(ctx, c.baseURL+"/api_category.php", &payload); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if payload.TriviaCategories == nil {
		return []domain.Topic{}, nil
	}
	return payload.TriviaCategories, nil
}

// LoadTopics satisfies the topic cache loaders.
func (c *Client) LoadTopics(ctx context.Context) ([]domain.Topic, error) {
	return c.ListTopics(ctx)
}

// FetchQuestions requests multiple-choice questions matching query.
func (c *Client) FetchQuestions(ctx context.Context, query domain.QuestionQuery) ([]domain.Question, error) {
	amount := query.Amount
	if amount <= 0 {
		amount = defaultAmount
	}

	params := url.Values{}
	params.Set("amount", strconv.Itoa(amount))
	params.Set("type", "multiple")
	if query.TopicID > 0 {
		params.Set("category", strconv.Itoa(query.TopicID))
	}
	if query.Difficulty != domain.DifficultyAny {
		params.Set("difficulty", string(query.Difficulty))
	}

	var payload questionsResponse
	if err := c.getJSON(ctx, c.baseURL+"/api.php?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	switch payload.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		return nil, domain.ErrNoResults
	default:
		return nil, fmt.Errorf("%w: response_code=%d", domain.ErrInvalidResponse, payload.ResponseCode)
	}
	if payload.Results == nil {
		return []domain.Question{}, nil
	}
	return payload.Results, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", domain.ErrFetch, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if ctx.Err() != nil {
			return classify(ctx, err)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	return nil
}

// classify separates the bounded-wait timeout from other transport failures.
// A caller cancellation is passed through unchanged.
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrFetch, err)
}

// DecodeText resolves the HTML entities OpenTDB embeds in question text.
func DecodeText(s string) string {
	return html.UnescapeString(s)
}
