package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"trivia-quiz/internal/app"
	"trivia-quiz/internal/domain"
)

type playFlags struct {
	topic        int
	difficulty   string
	count        int
	timer        bool
	timerSeconds int
}

// NewPlayCmd runs an interactive quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var flags playFlags
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			rt, _, err := loadRuntime(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			settings, err := applyPlayFlags(cmd, rt.service.Settings(), flags)
			if err != nil {
				return err
			}
			return runPlay(ctx, rt.service, settings, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&flags.topic, "topic", 0, "topic ID (0 for any, see `trivia topics`)")
	cmd.Flags().StringVar(&flags.difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().IntVar(&flags.count, "count", 0, "number of questions (1-50)")
	cmd.Flags().BoolVar(&flags.timer, "timer", false, "enable the per-question countdown")
	cmd.Flags().IntVar(&flags.timerSeconds, "timer-seconds", 0, "seconds per question when the timer is on")
	return cmd
}

// applyPlayFlags overlays explicitly set flags on the saved preferences.
func applyPlayFlags(cmd *cobra.Command, settings domain.SessionSettings, flags playFlags) (domain.SessionSettings, error) {
	if cmd.Flags().Changed("topic") {
		settings.TopicID = flags.topic
	}
	if cmd.Flags().Changed("difficulty") {
		d, err := domain.ParseDifficulty(flags.difficulty)
		if err != nil {
			return settings, err
		}
		settings.Difficulty = d
	}
	if cmd.Flags().Changed("count") {
		settings.QuestionCount = flags.count
	}
	if cmd.Flags().Changed("timer") {
		settings.TimerEnabled = flags.timer
	}
	if cmd.Flags().Changed("timer-seconds") {
		settings.TimerSeconds = flags.timerSeconds
	}
	return settings, nil
}

type menuChoice int

const (
	choiceQuit menuChoice = iota
	choicePlayAgain
	choiceNewQuiz
)

type player struct {
	service *app.QuizService
	out     io.Writer
	lines   <-chan string

	shown    int
	timeLeft int
}

func runPlay(ctx context.Context, service *app.QuizService, settings domain.SessionSettings, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	p := &player{service: service, out: out, lines: lines}
	defer service.Abandon()

	ctrl, err := p.start(ctx, settings)
	if err != nil {
		return err
	}
	for {
		choice, err := p.playSession(ctx, ctrl)
		if err != nil || choice == choiceQuit {
			return err
		}
		switch choice {
		case choicePlayAgain:
			ctrl.Restart(true)
		case choiceNewQuiz:
			if ctrl, err = p.start(ctx, settings); err != nil {
				return err
			}
		}
	}
}

func (p *player) start(ctx context.Context, settings domain.SessionSettings) (*app.Controller, error) {
	fmt.Fprintln(p.out, "Loading questions...")
	ctrl, err := p.service.StartQuiz(ctx, settings)
	if err != nil {
		fmt.Fprintln(p.out, app.UserMessage(err))
		return nil, err
	}
	return ctrl, nil
}

// playSession runs one pass over the loaded questions and returns the
// choice made on the results screen.
func (p *player) playSession(ctx context.Context, ctrl *app.Controller) (menuChoice, error) {
	updates, cancel := ctrl.Subscribe()
	defer cancel()
	p.shown = -1
	p.show(ctrl, ctrl.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return choiceQuit, ctx.Err()
		case snapshot, ok := <-updates:
			if !ok {
				return choiceQuit, nil
			}
			p.show(ctrl, snapshot)
		case line, ok := <-p.lines:
			if !ok {
				return choiceQuit, nil
			}
			snapshot := ctrl.Snapshot()
			switch snapshot.Phase {
			case domain.PhaseActive:
				index, ok := parseChoice(line, len(snapshot.Options))
				if !ok {
					fmt.Fprintf(p.out, "Choose a letter between A and %c.\n", 'A'+rune(len(snapshot.Options)-1))
					continue
				}
				ctrl.SelectAnswer(index)
			case domain.PhaseLocked:
				ctrl.Advance()
			case domain.PhaseFinished:
				switch strings.ToLower(strings.TrimSpace(line)) {
				case "a":
					return choicePlayAgain, nil
				case "n":
					return choiceNewQuiz, nil
				case "q":
					return choiceQuit, nil
				default:
					fmt.Fprintln(p.out, "Type a (play again), n (new quiz) or q (quit).")
					continue
				}
			}
			p.show(ctrl, ctrl.Snapshot())
		}
	}
}

// show renders a snapshot once per question and phase. Snapshots can reach
// the player after a newer state was already drawn, so only forward
// progress is rendered; countdown ticks print the remaining seconds.
func (p *player) show(ctrl *app.Controller, s domain.SessionSnapshot) {
	step := progress(s)
	if step < p.shown {
		return
	}
	if step == p.shown {
		if s.Phase == domain.PhaseActive && s.TimerEnabled && s.TimeLeft != p.timeLeft {
			p.timeLeft = s.TimeLeft
			if s.TimeLeft <= 5 || s.TimeLeft%10 == 0 {
				fmt.Fprintf(p.out, "  %ds left\n", s.TimeLeft)
			}
		}
		return
	}
	p.shown = step
	p.timeLeft = s.TimeLeft

	switch s.Phase {
	case domain.PhaseActive:
		renderQuestion(p.out, s)
	case domain.PhaseLocked:
		renderFeedback(p.out, s)
	case domain.PhaseFinished:
		renderResults(p.out, ctrl.Result())
	}
}

// progress orders snapshots within one run.
func progress(s domain.SessionSnapshot) int {
	switch s.Phase {
	case domain.PhaseActive:
		return 2 * s.Index
	case domain.PhaseLocked:
		return 2*s.Index + 1
	case domain.PhaseFinished:
		return 2 * s.Total
	default:
		return -1
	}
}

func renderQuestion(w io.Writer, s domain.SessionSnapshot) {
	fmt.Fprintf(w, "\nQuestion %d/%d  Score: %d", s.Index+1, s.Total, s.Score)
	if s.TimerEnabled {
		fmt.Fprintf(w, "  Time: %ds", s.TimeLeft)
	}
	fmt.Fprintf(w, "\n[%s | %s]\n%s\n", s.Category, s.Difficulty.Label(), s.Prompt)
	for i, opt := range s.Options {
		fmt.Fprintf(w, "  %c) %s\n", 'A'+rune(i), opt.Text)
	}
}

func renderFeedback(w io.Writer, s domain.SessionSnapshot) {
	switch {
	case s.Selected < 0:
		fmt.Fprintf(w, "Time's up! The correct answer was: %s\n", s.CorrectText)
	case s.Options[s.Selected].IsCorrect:
		fmt.Fprintln(w, "Correct!")
	default:
		fmt.Fprintf(w, "Wrong. The correct answer was: %s\n", s.CorrectText)
	}
	if s.IsLast() {
		fmt.Fprintln(w, "Press Enter to see your results.")
	} else {
		fmt.Fprintln(w, "Press Enter for the next question.")
	}
}

func renderResults(w io.Writer, r domain.SessionResult) {
	fmt.Fprintf(w, "\nQuiz complete: %s (%s)\n", r.TopicLabel, r.Settings.Difficulty.Label())
	fmt.Fprintf(w, "Your score: %d/%d (%d%%) - %s\n\n", r.Score, r.Total, r.Percent, domain.PerformanceLabel(r.Percent))
	for i, rec := range r.AnswerLog {
		mark := "x"
		if rec.WasCorrect {
			mark = "+"
		}
		fmt.Fprintf(w, "%2d. [%s] %s\n", i+1, mark, rec.QuestionText)
		fmt.Fprintf(w, "    your answer: %s\n", rec.SelectedText)
		if !rec.WasCorrect {
			fmt.Fprintf(w, "    correct:     %s\n", rec.CorrectAnswerText)
		}
	}
	fmt.Fprintln(w, "\n[a] play again  [n] new quiz  [q] quit")
}

// parseChoice maps a letter (A, b, ...) to an option index.
func parseChoice(line string, options int) (int, bool) {
	line = strings.TrimSpace(line)
	if len(line) != 1 {
		return 0, false
	}
	index := int(strings.ToUpper(line)[0] - 'A')
	if index < 0 || index >= options {
		return 0, false
	}
	return index, true
}
