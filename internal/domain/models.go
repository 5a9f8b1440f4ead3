package domain

import (
	"fmt"
	"strings"
	"time"
)

// NoAnswer is recorded as the selection when a question times out.
const NoAnswer = "No answer"

const (
	DefaultQuestionCount = 10
	DefaultTimerSeconds  = 20
	MaxQuestionCount     = 50
)

// Difficulty filters questions; the empty value means any difficulty.
type Difficulty string

const (
	DifficultyAny    Difficulty = ""
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty accepts easy, medium, hard or an empty string (any).
func ParseDifficulty(raw string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(raw))); d {
	case DifficultyAny, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidSettings, raw)
	}
}

// Label is the display form used in summaries and history.
func (d Difficulty) Label() string {
	if d == DifficultyAny {
		return "any"
	}
	return string(d)
}

// Question is a multiple-choice question as served by the question source.
// Text fields keep their source encoding; decode them only for display.
type Question struct {
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Prompt           string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// AnswerOption is one selectable answer for the active question.
type AnswerOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Topic is a question category offered by the source.
type Topic struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// QuestionQuery carries the filters for a question fetch.
type QuestionQuery struct {
	Amount     int
	TopicID    int
	Difficulty Difficulty
}

// SessionSettings are the user's quiz preferences. They are fixed for the
// lifetime of one session and persisted between sessions.
type SessionSettings struct {
	TopicID       int        `json:"category,omitempty"` // 0 means any topic
	Difficulty    Difficulty `json:"difficulty"`
	QuestionCount int        `json:"amount"`
	TimerEnabled  bool       `json:"timerEnabled"`
	TimerSeconds  int        `json:"timerSeconds"`
}

// DefaultSettings mirrors the preferences of a fresh profile.
func DefaultSettings() SessionSettings {
	return SessionSettings{
		Difficulty:    DifficultyMedium,
		QuestionCount: DefaultQuestionCount,
		TimerSeconds:  DefaultTimerSeconds,
	}
}

// Normalize fills zero values with defaults.
func (s SessionSettings) Normalize() SessionSettings {
	if s.Difficulty == DifficultyAny {
		s.Difficulty = DifficultyMedium
	}
	if s.QuestionCount <= 0 {
		s.QuestionCount = DefaultQuestionCount
	}
	if s.TimerSeconds <= 0 {
		s.TimerSeconds = DefaultTimerSeconds
	}
	return s
}

// Validate reports settings the question source or timer cannot honour.
func (s SessionSettings) Validate() error {
	if _, err := ParseDifficulty(string(s.Difficulty)); err != nil {
		return err
	}
	if s.Difficulty == DifficultyAny {
		return fmt.Errorf("%w: difficulty is required", ErrInvalidSettings)
	}
	if s.QuestionCount < 1 || s.QuestionCount > MaxQuestionCount {
		return fmt.Errorf("%w: question count must be between 1 and %d", ErrInvalidSettings, MaxQuestionCount)
	}
	if s.TimerSeconds < 1 {
		return fmt.Errorf("%w: timer seconds must be positive", ErrInvalidSettings)
	}
	if s.TopicID < 0 {
		return fmt.Errorf("%w: topic id must not be negative", ErrInvalidSettings)
	}
	return nil
}

// Query converts the settings into a question fetch.
func (s SessionSettings) Query() QuestionQuery {
	return QuestionQuery{
		Amount:     s.QuestionCount,
		TopicID:    s.TopicID,
		Difficulty: s.Difficulty,
	}
}

// Phase is the state of a quiz session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseActive
	PhaseLocked
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseLocked:
		return "locked"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AnswerRecord is the review entry for one question. Texts are decoded.
type AnswerRecord struct {
	QuestionText      string `json:"question"`
	CorrectAnswerText string `json:"correct"`
	SelectedText      string `json:"selected"`
	WasCorrect        bool   `json:"isCorrect"`
}

// SessionSnapshot is a read-only view of a session for rendering.
type SessionSnapshot struct {
	SessionID    string         `json:"sessionId"`
	Phase        Phase          `json:"phase"`
	Index        int            `json:"index"`
	Total        int            `json:"total"`
	Score        int            `json:"score"`
	Prompt       string         `json:"prompt,omitempty"`
	Category     string         `json:"category,omitempty"`
	Difficulty   Difficulty     `json:"difficulty"`
	Options      []AnswerOption `json:"options,omitempty"`
	Selected     int            `json:"selected"` // -1 when nothing is selected
	CorrectText  string         `json:"correct,omitempty"`
	TimerEnabled bool           `json:"timerEnabled"`
	TimeLeft     int            `json:"timeLeft"`
	AnswerLog    []AnswerRecord `json:"answerLog"`
}

// IsLast reports whether the snapshot shows the final question.
func (s SessionSnapshot) IsLast() bool {
	return s.Total > 0 && s.Index+1 == s.Total
}

// SessionResult summarises a finished session.
type SessionResult struct {
	SessionID  string          `json:"sessionId"`
	Settings   SessionSettings `json:"settings"`
	TopicLabel string          `json:"topic"`
	Score      int             `json:"score"`
	Total      int             `json:"total"`
	Percent    int             `json:"percent"`
	AnswerLog  []AnswerRecord  `json:"answerLog"`
	FinishedAt time.Time       `json:"finishedAt"`
}

// PerformanceLabel grades a percentage for the results screen.
func PerformanceLabel(percent int) string {
	switch {
	case percent >= 80:
		return "Excellent"
	case percent >= 50:
		return "Good job"
	default:
		return "Keep practicing"
	}
}

// HistoryEntry is one persisted quiz result.
type HistoryEntry struct {
	SessionID  string    `json:"sessionId,omitempty"`
	RecordedAt time.Time `json:"recordedAt"`
	Date       string    `json:"date"`
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percent    int       `json:"percent"`
}
