package command

import (
	"context"
	"sync"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// In-memory repositories used by the handler tests. They mimic the
// persistence contracts, including version checks on streaks and ledgers.

type completionKey struct {
	userID    shared.UserID
	audibleID shared.AudibleID
}

type reviewKey struct {
	userID shared.UserID
	cardID shared.CardID
}

type fakeFactRepo struct {
	mu          sync.Mutex
	completions map[completionKey]*progress.CompletionRecord
	reviews     map[reviewKey]*progress.FlashcardReview
	quizScores  []*progress.QuizScore
}

func newFakeFactRepo() *fakeFactRepo {
	return &fakeFactRepo{
		completions: make(map[completionKey]*progress.CompletionRecord),
		reviews:     make(map[reviewKey]*progress.FlashcardReview),
	}
}

func (r *fakeFactRepo) UpsertCompletion(_ context.Context, rec *progress.CompletionRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := completionKey{rec.UserID, rec.AudibleID}
	prev, exists := r.completions[key]
	became := rec.IsCompleted && (!exists || !prev.IsCompleted)
	cp := *rec
	r.completions[key] = &cp
	return became, nil
}

func (r *fakeFactRepo) UpsertReview(_ context.Context, review *progress.FlashcardReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *review
	r.reviews[reviewKey{review.UserID, review.CardID}] = &cp
	return nil
}

func (r *fakeFactRepo) AppendQuizScore(_ context.Context, score *progress.QuizScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *score
	cp.ID = int64(len(r.quizScores) + 1)
	r.quizScores = append(r.quizScores, &cp)
	return nil
}

func (r *fakeFactRepo) CountCompleted(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, rec := range r.completions {
		if key.userID == userID && rec.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeFactRepo) CountCompletedInTopic(_ context.Context, userID shared.UserID, topicID shared.TopicID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, rec := range r.completions {
		if key.userID == userID && rec.TopicID == topicID && rec.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeFactRepo) CountReviews(_ context.Context, userID shared.UserID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key := range r.reviews {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFactRepo) QuizStats(_ context.Context, userID shared.UserID) (int, shared.Percentage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	best := shared.Percentage(0)
	for _, s := range r.quizScores {
		if s.UserID != userID {
			continue
		}
		count++
		if p := s.Percent(); p > best {
			best = p
		}
	}
	return count, best, nil
}

func (r *fakeFactRepo) RecentQuizScores(_ context.Context, userID shared.UserID, limit int) ([]*progress.QuizScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		return nil, nil
	}
	var out []*progress.QuizScore
	for i := len(r.quizScores) - 1; i >= 0 && len(out) < limit; i-- {
		if r.quizScores[i].UserID == userID {
			cp := *r.quizScores[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeStreakRepo struct {
	mu      sync.Mutex
	streaks map[shared.UserID]*progress.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[shared.UserID]*progress.Streak)}
}

func (r *fakeStreakRepo) GetStreak(_ context.Context, userID shared.UserID) (*progress.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.streaks[userID]
	if !ok {
		return nil, shared.ErrStreakNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStreakRepo) CreateStreak(_ context.Context, streak *progress.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.streaks[streak.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *streak
	cp.Version = 1
	r.streaks[streak.UserID] = &cp
	streak.Version = 1
	return nil
}

func (r *fakeStreakRepo) UpdateStreak(_ context.Context, streak *progress.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.streaks[streak.UserID]
	if !ok || stored.Version != streak.Version {
		return shared.ErrStaleStreak
	}
	cp := *streak
	cp.Version++
	r.streaks[streak.UserID] = &cp
	streak.Version = cp.Version
	return nil
}

type fakeAchievementRepo struct {
	mu      sync.Mutex
	ledgers map[shared.UserID]*progress.Achievement
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{ledgers: make(map[shared.UserID]*progress.Achievement)}
}

func (r *fakeAchievementRepo) GetAchievement(_ context.Context, userID shared.UserID) (*progress.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.ledgers[userID]
	if !ok {
		return nil, shared.ErrAchievementNotFound
	}
	cp := *a
	cp.Badges = append([]string(nil), a.Badges...)
	return &cp, nil
}

func (r *fakeAchievementRepo) CreateAchievement(_ context.Context, a *progress.Achievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ledgers[a.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	cp := *a
	cp.Badges = append([]string(nil), a.Badges...)
	cp.Version = 1
	r.ledgers[a.UserID] = &cp
	a.Version = 1
	return nil
}

func (r *fakeAchievementRepo) UpdateAchievement(_ context.Context, a *progress.Achievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.ledgers[a.UserID]
	if !ok || stored.Version != a.Version {
		return shared.ErrStaleAchievement
	}
	cp := *a
	cp.Badges = append([]string(nil), a.Badges...)
	cp.Version++
	r.ledgers[a.UserID] = &cp
	a.Version = cp.Version
	return nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) byType(t shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == t {
			out = append(out, e)
		}
	}
	return out
}
