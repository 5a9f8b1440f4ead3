package app

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-quiz/internal/domain"
)

// TextDecoder turns source-encoded text into display text.
type TextDecoder func(string) string

// FinishFunc receives the result of a session run when it finishes.
type FinishFunc func(domain.SessionResult)

// ControllerConfig wires a Controller. Zero values get sensible defaults.
type ControllerConfig struct {
	Settings   domain.SessionSettings
	TopicLabel string
	Decode     TextDecoder
	OnFinish   FinishFunc
	// NewTicker drives the countdown of each question. When nil the
	// countdown only moves through explicit Tick calls.
	NewTicker TickerFactory
	Rand      *rand.Rand
	Now       func() time.Time
	NewID     func() string
}

// Controller is the quiz session state machine. It owns the session state
// for one quiz run: Idle -> Active -> Locked -> (Active | Finished).
// Calls that arrive in the wrong phase are ignored.
type Controller struct {
	id         string
	settings   domain.SessionSettings
	topicLabel string
	decode     TextDecoder
	onFinish   FinishFunc
	newTicker  TickerFactory
	rnd        *rand.Rand
	now        func() time.Time
	newID      func() string

	mu          sync.Mutex
	runID       string
	phase       domain.Phase
	questions   []domain.Question
	index       int
	options     []domain.AnswerOption
	selected    int
	score       int
	answerLog   []domain.AnswerRecord
	countdown   *Countdown
	generation  uint64
	stopTicker  func()
	finished    bool
	closed      bool
	subscribers map[chan domain.SessionSnapshot]struct{}
}

func NewController(cfg ControllerConfig) *Controller {
	settings := cfg.Settings.Normalize()
	c := &Controller{
		settings:    settings,
		topicLabel:  cfg.TopicLabel,
		decode:      cfg.Decode,
		onFinish:    cfg.OnFinish,
		newTicker:   cfg.NewTicker,
		rnd:         cfg.Rand,
		now:         cfg.Now,
		newID:       cfg.NewID,
		selected:    -1,
		countdown:   NewCountdown(settings.TimerSeconds),
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
	if c.decode == nil {
		c.decode = func(s string) string { return s }
	}
	if c.rnd == nil {
		c.rnd = newRand()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	c.id = c.newID()
	return c
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Settings() domain.SessionSettings {
	return c.settings
}

func (c *Controller) TopicLabel() string {
	return c.topicLabel
}

// RunID identifies the current run; it changes on every load and restart.
func (c *Controller) RunID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runID
}

func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Load starts a new run over questions, superseding any run in progress.
func (c *Controller) Load(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrSessionNotFound
	}

	c.cancelTimerLocked()
	c.questions = append([]domain.Question(nil), questions...)
	c.beginRunLocked()
	c.activateLocked(0)
	c.broadcastLocked()
	return nil
}

// SelectAnswer locks the active question with the option at index.
func (c *Controller) SelectAnswer(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseActive || index < 0 || index >= len(c.options) {
		return false
	}
	option := c.options[index]
	question := c.questions[c.index]

	c.selected = index
	if option.IsCorrect {
		c.score++
	}
	c.answerLog = append(c.answerLog, domain.AnswerRecord{
		QuestionText:      c.decode(question.Prompt),
		CorrectAnswerText: c.decode(question.CorrectAnswer),
		SelectedText:      c.decode(option.Text),
		WasCorrect:        option.IsCorrect,
	})
	c.lockLocked()
	c.broadcastLocked()
	return true
}

// TimeExpired locks the active question without an answer. It only
// applies when the timer is enabled.
func (c *Controller) TimeExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseActive || !c.settings.TimerEnabled {
		return false
	}
	c.expireLocked()
	c.broadcastLocked()
	return true
}

// Tick delivers one elapsed second to the active question's countdown and
// reports whether it expired the question.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickLocked(c.generation)
}

// Advance moves past a locked question, finishing the run after the last one.
func (c *Controller) Advance() bool {
	c.mu.Lock()

	if c.phase != domain.PhaseLocked {
		c.mu.Unlock()
		return false
	}
	c.selected = -1

	if c.index < len(c.questions)-1 {
		c.activateLocked(c.index + 1)
		c.broadcastLocked()
		c.mu.Unlock()
		return true
	}

	c.phase = domain.PhaseFinished
	result := c.resultLocked()
	notify := !c.finished && c.onFinish != nil
	c.finished = true
	c.broadcastLocked()
	c.mu.Unlock()

	if notify {
		c.onFinish(result)
	}
	return true
}

// Restart resets score, log and position. With sameQuestions the loaded
// questions are replayed from the start; otherwise the controller returns
// to Idle and waits for a fresh Load.
func (c *Controller) Restart(sameQuestions bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.cancelTimerLocked()
	if sameQuestions && len(c.questions) > 0 {
		c.beginRunLocked()
		c.activateLocked(0)
	} else {
		c.questions = nil
		c.options = nil
		c.index = 0
		c.selected = -1
		c.score = 0
		c.answerLog = nil
		c.runID = ""
		c.finished = false
		c.phase = domain.PhaseIdle
	}
	c.broadcastLocked()
}

// Close cancels the pending timer and releases subscribers. A closed
// controller ignores further loads and restarts.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancelTimerLocked()
	for ch := range c.subscribers {
		delete(c.subscribers, ch)
		close(ch)
	}
}

func (c *Controller) Snapshot() domain.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Result summarises the run so far; it is final once the phase is Finished.
func (c *Controller) Result() domain.SessionResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resultLocked()
}

// Subscribe returns a channel of snapshots sent after every transition and
// countdown tick. The caller must invoke the returned cancel function.
func (c *Controller) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	// The buffer is empty here, so the send cannot block. It happens under
	// the lock so Close cannot close ch first and no broadcast can overtake it.
	ch <- c.snapshotLocked()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) beginRunLocked() {
	c.runID = c.newID()
	c.score = 0
	c.answerLog = nil
	c.finished = false
}

// activateLocked makes question i active: fresh answer set, no selection,
// countdown rearmed.
func (c *Controller) activateLocked(i int) {
	c.cancelTimerLocked()
	c.index = i
	c.phase = domain.PhaseActive
	c.selected = -1
	c.options = BuildAnswerSet(c.questions[i], c.rnd)
	c.countdown.Reset()
	if c.settings.TimerEnabled {
		c.startTimerLocked()
	} else {
		c.countdown.Cancel()
	}
}

func (c *Controller) lockLocked() {
	c.phase = domain.PhaseLocked
	c.cancelTimerLocked()
}

func (c *Controller) expireLocked() {
	question := c.questions[c.index]
	c.selected = -1
	c.answerLog = append(c.answerLog, domain.AnswerRecord{
		QuestionText:      c.decode(question.Prompt),
		CorrectAnswerText: c.decode(question.CorrectAnswer),
		SelectedText:      domain.NoAnswer,
		WasCorrect:        false,
	})
	c.lockLocked()
}

func (c *Controller) tickLocked(generation uint64) bool {
	if generation != c.generation || c.phase != domain.PhaseActive || !c.settings.TimerEnabled {
		return false
	}
	if !c.countdown.Tick() {
		if c.countdown.Armed() {
			c.broadcastLocked()
		}
		return false
	}
	c.expireLocked()
	c.broadcastLocked()
	return true
}

func (c *Controller) startTimerLocked() {
	if c.newTicker == nil || c.closed {
		return
	}
	generation := c.generation
	ticker := c.newTicker(time.Second)
	done := make(chan struct{})
	c.stopTicker = func() {
		close(done)
		ticker.Stop()
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				c.mu.Lock()
				c.tickLocked(generation)
				c.mu.Unlock()
			}
		}
	}()
}

// cancelTimerLocked stops the running ticker. Bumping the generation makes
// any tick already in flight a no-op.
func (c *Controller) cancelTimerLocked() {
	c.generation++
	if c.stopTicker != nil {
		c.stopTicker()
		c.stopTicker = nil
	}
	c.countdown.Cancel()
}

func (c *Controller) broadcastLocked() {
	if len(c.subscribers) == 0 {
		return
	}
	snapshot := c.snapshotLocked()
	for ch := range c.subscribers {
		select {
		case ch <- snapshot:
		default:
			// drop the stale snapshot so slow readers always see the latest state
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (c *Controller) snapshotLocked() domain.SessionSnapshot {
	snapshot := domain.SessionSnapshot{
		SessionID:    c.id,
		Phase:        c.phase,
		Index:        c.index,
		Total:        len(c.questions),
		Score:        c.score,
		Difficulty:   c.settings.Difficulty,
		Selected:     c.selected,
		TimerEnabled: c.settings.TimerEnabled,
		AnswerLog:    append([]domain.AnswerRecord(nil), c.answerLog...),
	}
	if c.settings.TimerEnabled {
		snapshot.TimeLeft = c.countdown.Remaining()
	}
	if c.phase != domain.PhaseActive && c.phase != domain.PhaseLocked {
		return snapshot
	}

	question := c.questions[c.index]
	revealed := c.phase == domain.PhaseLocked
	snapshot.Prompt = c.decode(question.Prompt)
	snapshot.Category = c.decode(question.Category)
	snapshot.Options = make([]domain.AnswerOption, len(c.options))
	for i, option := range c.options {
		// correctness stays hidden until the question is locked
		snapshot.Options[i] = domain.AnswerOption{
			Text:      c.decode(option.Text),
			IsCorrect: revealed && option.IsCorrect,
		}
	}
	if revealed {
		snapshot.CorrectText = c.decode(question.CorrectAnswer)
	}
	return snapshot
}

func (c *Controller) resultLocked() domain.SessionResult {
	total := len(c.questions)
	return domain.SessionResult{
		SessionID:  c.runID,
		Settings:   c.settings,
		TopicLabel: c.topicLabel,
		Score:      c.score,
		Total:      total,
		Percent:    Percent(c.score, total),
		AnswerLog:  append([]domain.AnswerRecord(nil), c.answerLog...),
		FinishedAt: c.now(),
	}
}

// Percent rounds score/total to a whole percentage; an empty total is 0.
func Percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}
