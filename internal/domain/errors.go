package domain

import "errors"

var (
	// ErrFetch is returned when the question source cannot be reached or answers with a non-success status.
	ErrFetch = errors.New("failed to fetch from question source")
	// ErrTimeout indicates the question source did not answer within the bounded wait.
	ErrTimeout = errors.New("request timed out")
	// ErrNoResults is returned when a valid request yields no questions.
	ErrNoResults = errors.New("no questions found for the selected settings")
	// ErrInvalidResponse indicates the question source answered with an unexpected payload or status code.
	ErrInvalidResponse = errors.New("invalid response from question source")
	// ErrEmptyQuestionSet is returned when a session is loaded without questions.
	ErrEmptyQuestionSet = errors.New("empty question set")
	// ErrSuperseded indicates a fetch resolved after its session was replaced or abandoned.
	ErrSuperseded = errors.New("quiz start superseded")
	// ErrInvalidSettings is returned for out-of-range session settings.
	ErrInvalidSettings = errors.New("invalid session settings")
	// ErrKeyNotFound is returned by key-value stores on a miss.
	ErrKeyNotFound = errors.New("key not found")
	// ErrSessionNotFound is returned when a quiz session is not registered.
	ErrSessionNotFound = errors.New("quiz session not found")
)
