package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"trivia-quiz/internal/domain"
)

// DedupPolicy decides when a finished session counts as already recorded.
type DedupPolicy string

const (
	// DedupOutcome treats equal (topic, difficulty, score, total) as the same result.
	DedupOutcome DedupPolicy = "outcome"
	// DedupSession additionally keys on the session run, so identical
	// outcomes from distinct runs are all kept.
	DedupSession DedupPolicy = "session"
)

const historyDateLayout = "Jan 02, 2006"

func ParseDedupPolicy(raw string) (DedupPolicy, error) {
	switch p := DedupPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return DedupOutcome, nil
	case DedupOutcome, DedupSession:
		return p, nil
	default:
		return "", fmt.Errorf("unknown history dedup policy %q", raw)
	}
}

// HistoryRecorder appends finished sessions to the persisted history,
// most recent first. Entries are never removed or rewritten.
type HistoryRecorder struct {
	store  KeyValueStore
	policy DedupPolicy
	now    func() time.Time

	mu        sync.Mutex
	committed map[string]struct{}
}

func NewHistoryRecorder(store KeyValueStore, policy DedupPolicy) *HistoryRecorder {
	return NewHistoryRecorderWithClock(store, policy, time.Now)
}

// NewHistoryRecorderWithClock is test-only for deterministic timestamps.
func NewHistoryRecorderWithClock(store KeyValueStore, policy DedupPolicy, now func() time.Time) *HistoryRecorder {
	if policy == "" {
		policy = DedupOutcome
	}
	return &HistoryRecorder{
		store:     store,
		policy:    policy,
		now:       now,
		committed: make(map[string]struct{}),
	}
}

func (r *HistoryRecorder) Policy() DedupPolicy {
	return r.policy
}

// History returns the persisted entries, most recent first.
func (r *HistoryRecorder) History(ctx context.Context) []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	history, err := r.loadLocked(ctx)
	if err != nil {
		log.Printf("load history: %v", err)
	}
	return history
}

// Commit records result once. It reports false when the run was already
// committed, when an equal entry exists under the dedup policy, when the
// session had no questions, or when the stored history could not be read.
// An unreadable history is never overwritten; the run stays uncommitted so
// a later Commit can retry.
func (r *HistoryRecorder) Commit(ctx context.Context, result domain.SessionResult) (domain.HistoryEntry, bool) {
	if result.Total <= 0 {
		return domain.HistoryEntry{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if result.SessionID != "" {
		if _, done := r.committed[result.SessionID]; done {
			return domain.HistoryEntry{}, false
		}
	}

	recordedAt := r.now()
	entry := domain.HistoryEntry{
		SessionID:  result.SessionID,
		RecordedAt: recordedAt,
		Date:       recordedAt.Format(historyDateLayout),
		Topic:      result.TopicLabel,
		Difficulty: string(result.Settings.Difficulty),
		Score:      result.Score,
		Total:      result.Total,
		Percent:    Percent(result.Score, result.Total),
	}

	history, err := r.loadLocked(ctx)
	if err != nil {
		log.Printf("skip history commit for %q: %v", result.SessionID, err)
		return domain.HistoryEntry{}, false
	}
	r.markLocked(result.SessionID)
	for _, existing := range history {
		if r.sameLocked(existing, entry) {
			return existing, false
		}
	}

	history = append([]domain.HistoryEntry{entry}, history...)
	saveJSON(ctx, r.store, historyKey, history)
	return entry, true
}

func (r *HistoryRecorder) sameLocked(a, b domain.HistoryEntry) bool {
	if a.Topic != b.Topic || a.Difficulty != b.Difficulty || a.Score != b.Score || a.Total != b.Total {
		return false
	}
	if r.policy == DedupSession {
		return a.SessionID == b.SessionID
	}
	return true
}

func (r *HistoryRecorder) markLocked(sessionID string) {
	if sessionID != "" {
		r.committed[sessionID] = struct{}{}
	}
}

// loadLocked treats only a missing key as empty history.
func (r *HistoryRecorder) loadLocked(ctx context.Context) ([]domain.HistoryEntry, error) {
	var history []domain.HistoryEntry
	found, err := readJSON(ctx, r.store, historyKey, &history)
	if err != nil {
		return []domain.HistoryEntry{}, err
	}
	if !found || history == nil {
		return []domain.HistoryEntry{}, nil
	}
	return history, nil
}
