package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"trivia-quiz/internal/domain"
)

// QuestionSource fetches question sets from the remote trivia bank.
type QuestionSource interface {
	FetchQuestions(ctx context.Context, query domain.QuestionQuery) ([]domain.Question, error)
}

// TopicRepository lists the available topics (usually through a cache).
type TopicRepository interface {
	ListTopics(ctx context.Context) ([]domain.Topic, error)
}

// SessionRepository keeps the live quiz sessions (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Controller)
	Get(id string) (*Controller, bool)
	Delete(id string)
}

// Dependencies wires a QuizService.
type Dependencies struct {
	Questions QuestionSource
	Topics    TopicRepository
	Store     KeyValueStore
	Sessions  SessionRepository
	History   *HistoryRecorder
	Decode    TextDecoder
	NewTicker TickerFactory
	Now       func() time.Time
}

// QuizService is the application state for one local profile: preferences,
// history and the current quiz session. Transports share it by pointer.
type QuizService struct {
	questions QuestionSource
	topics    TopicRepository
	store     KeyValueStore
	sessions  SessionRepository
	history   *HistoryRecorder
	decode    TextDecoder
	newTicker TickerFactory
	now       func() time.Time

	mu         sync.Mutex
	settings   domain.SessionSettings
	generation uint64
	current    *Controller
}

// NewQuizService loads persisted settings, falling back to defaults.
func NewQuizService(ctx context.Context, deps Dependencies) *QuizService {
	s := &QuizService{
		questions: deps.Questions,
		topics:    deps.Topics,
		store:     deps.Store,
		sessions:  deps.Sessions,
		history:   deps.History,
		decode:    deps.Decode,
		newTicker: deps.NewTicker,
		now:       deps.Now,
	}
	if s.history == nil {
		s.history = NewHistoryRecorder(s.store, DedupOutcome)
	}
	if s.now == nil {
		s.now = time.Now
	}

	settings := domain.DefaultSettings()
	if loadJSON(ctx, s.store, settingsKey, &settings) {
		settings = settings.Normalize()
		if err := settings.Validate(); err != nil {
			settings = domain.DefaultSettings()
		}
	}
	s.settings = settings
	return s
}

func (s *QuizService) Settings() domain.SessionSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings validates and persists new preferences. They apply to the
// next session; a running session keeps the settings it started with.
func (s *QuizService) UpdateSettings(ctx context.Context, settings domain.SessionSettings) (domain.SessionSettings, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return domain.SessionSettings{}, err
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	saveJSON(ctx, s.store, settingsKey, settings)
	return settings, nil
}

func (s *QuizService) Topics(ctx context.Context) ([]domain.Topic, error) {
	return s.topics.ListTopics(ctx)
}

// TopicLabel names a topic for summaries and history.
func (s *QuizService) TopicLabel(ctx context.Context, topicID int) string {
	if topicID == 0 {
		return "Any"
	}
	topics, err := s.topics.ListTopics(ctx)
	if err == nil {
		for _, topic := range topics {
			if topic.ID == topicID {
				return topic.Name
			}
		}
	}
	return "Selected Topic"
}

// StartQuiz fetches a question set and replaces the current session with
// a fresh one. On error the current session is left untouched. A fetch
// that resolves after a newer StartQuiz or an Abandon returns
// domain.ErrSuperseded.
func (s *QuizService) StartQuiz(ctx context.Context, settings domain.SessionSettings) (*Controller, error) {
	settings, err := s.UpdateSettings(ctx, settings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	label := s.TopicLabel(ctx, settings.TopicID)
	questions, err := s.questions.FetchQuestions(ctx, settings.Query())
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoResults
	}

	s.mu.Lock()
	if generation != s.generation {
		s.mu.Unlock()
		return nil, domain.ErrSuperseded
	}
	controller := NewController(ControllerConfig{
		Settings:   settings,
		TopicLabel: label,
		Decode:     s.decode,
		OnFinish:   s.recordResult,
		NewTicker:  s.newTicker,
		Now:        s.now,
	})
	if err := controller.Load(questions); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	previous := s.current
	s.current = controller
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
		s.sessions.Delete(previous.ID())
	}
	s.sessions.Put(controller)
	return controller, nil
}

// Current returns the active session, if any.
func (s *QuizService) Current() (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Session looks up a registered session by ID.
func (s *QuizService) Session(id string) (*Controller, error) {
	controller, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return controller, nil
}

// Abandon tears down the current session and invalidates in-flight starts.
func (s *QuizService) Abandon() {
	s.mu.Lock()
	s.generation++
	previous := s.current
	s.current = nil
	s.mu.Unlock()

	if previous != nil {
		previous.Close()
		s.sessions.Delete(previous.ID())
	}
}

func (s *QuizService) History(ctx context.Context) []domain.HistoryEntry {
	return s.history.History(ctx)
}

func (s *QuizService) recordResult(result domain.SessionResult) {
	s.history.Commit(context.Background(), result)
}

// UserMessage renders a setup error as a single line for the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrTimeout):
		return "Request timed out. Please check your connection and try again."
	case errors.Is(err, domain.ErrNoResults):
		return "No questions found for your selection. Try different settings."
	case errors.Is(err, domain.ErrInvalidResponse):
		return "The question service returned an invalid response. Try again."
	case errors.Is(err, domain.ErrFetch):
		return "Failed to fetch quiz data. Please try again."
	case errors.Is(err, domain.ErrInvalidSettings):
		return err.Error()
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "Failed to start quiz."
	}
}
