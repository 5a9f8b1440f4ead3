package app

import (
	"math/rand"
	"time"

	"trivia-quiz/internal/domain"
)

// BuildAnswerSet returns the correct answer and every distinct incorrect
// answer of q in uniformly random order. q is not modified.
func BuildAnswerSet(q domain.Question, rnd *rand.Rand) []domain.AnswerOption {
	options := make([]domain.AnswerOption, 0, len(q.IncorrectAnswers)+1)
	options = append(options, domain.AnswerOption{Text: q.CorrectAnswer, IsCorrect: true})

	seen := map[string]struct{}{q.CorrectAnswer: {}}
	for _, text := range q.IncorrectAnswers {
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		options = append(options, domain.AnswerOption{Text: text})
	}

	// Fisher-Yates
	for i := len(options) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		options[i], options[j] = options[j], options[i]
	}
	return options
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
