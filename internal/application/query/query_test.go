package query

import (
	"context"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// Стабы хранилищ для тестов читающих запросов.

type stubFactRepo struct {
	completed        int
	completedByTopic map[shared.TopicID]int
	reviews          int
	quizCount        int
	bestPercent      shared.Percentage
	recent           []*progress.QuizScore
	err              error
}

func (s *stubFactRepo) UpsertCompletion(context.Context, *progress.CompletionRecord) (bool, error) {
	panic("not used in queries")
}

func (s *stubFactRepo) UpsertReview(context.Context, *progress.FlashcardReview) error {
	panic("not used in queries")
}

func (s *stubFactRepo) AppendQuizScore(context.Context, *progress.QuizScore) error {
	panic("not used in queries")
}

func (s *stubFactRepo) CountCompleted(context.Context, shared.UserID) (int, error) {
	return s.completed, s.err
}

func (s *stubFactRepo) CountCompletedInTopic(_ context.Context, _ shared.UserID, topicID shared.TopicID) (int, error) {
	return s.completedByTopic[topicID], s.err
}

func (s *stubFactRepo) CountReviews(context.Context, shared.UserID) (int, error) {
	return s.reviews, s.err
}

func (s *stubFactRepo) QuizStats(context.Context, shared.UserID) (int, shared.Percentage, error) {
	return s.quizCount, s.bestPercent, s.err
}

func (s *stubFactRepo) RecentQuizScores(_ context.Context, _ shared.UserID, limit int) ([]*progress.QuizScore, error) {
	if limit < len(s.recent) {
		return s.recent[:limit], s.err
	}
	return s.recent, s.err
}

type stubStreakRepo struct {
	streak *progress.Streak
}

func (s *stubStreakRepo) GetStreak(context.Context, shared.UserID) (*progress.Streak, error) {
	if s.streak == nil {
		return nil, shared.ErrStreakNotFound
	}
	return s.streak, nil
}

func (s *stubStreakRepo) CreateStreak(context.Context, *progress.Streak) error {
	panic("not used in queries")
}

func (s *stubStreakRepo) UpdateStreak(context.Context, *progress.Streak) error {
	panic("not used in queries")
}

type stubAchievementRepo struct {
	ledger *progress.Achievement
}

func (s *stubAchievementRepo) GetAchievement(context.Context, shared.UserID) (*progress.Achievement, error) {
	if s.ledger == nil {
		return nil, shared.ErrAchievementNotFound
	}
	return s.ledger, nil
}

func (s *stubAchievementRepo) CreateAchievement(context.Context, *progress.Achievement) error {
	panic("not used in queries")
}

func (s *stubAchievementRepo) UpdateAchievement(context.Context, *progress.Achievement) error {
	panic("not used in queries")
}

type stubLeaderboardRepo struct {
	byXP     []leaderboard.Entry
	byStreak []leaderboard.Entry
	rank     leaderboard.RankInfo
	err      error
}

func (s *stubLeaderboardRepo) TopByExperience(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	return clip(s.byXP, limit), s.err
}

func (s *stubLeaderboardRepo) TopByStreak(_ context.Context, limit int) ([]leaderboard.Entry, error) {
	return clip(s.byStreak, limit), s.err
}

func (s *stubLeaderboardRepo) UserRank(context.Context, leaderboard.Board, shared.UserID) (leaderboard.RankInfo, error) {
	return s.rank, s.err
}

func clip(entries []leaderboard.Entry, limit int) []leaderboard.Entry {
	if limit < len(entries) {
		return entries[:limit]
	}
	return entries
}

type stubLeaderboardCache struct {
	entries []leaderboard.Entry
	rank    leaderboard.RankInfo
	err     error
}

func (s *stubLeaderboardCache) UpdateScore(context.Context, leaderboard.Board, shared.UserID, int) error {
	return s.err
}

func (s *stubLeaderboardCache) Top(_ context.Context, _ leaderboard.Board, limit int) ([]leaderboard.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return clip(s.entries, limit), nil
}

func (s *stubLeaderboardCache) Rank(context.Context, leaderboard.Board, shared.UserID) (leaderboard.RankInfo, error) {
	if s.err != nil {
		return leaderboard.RankInfo{}, s.err
	}
	return s.rank, nil
}

func (s *stubLeaderboardCache) Invalidate(context.Context, leaderboard.Board) error {
	return s.err
}

func quizAttempt(topicID int64, score, total int, takenAt time.Time) *progress.QuizScore {
	return &progress.QuizScore{
		UserID:  1,
		TopicID: shared.TopicID(topicID),
		Score:   score,
		Total:   total,
		TakenAt: takenAt,
	}
}
