package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

func TestGetUserStats_NewUserGetsZeroValues(t *testing.T) {
	handler := NewGetUserStatsHandler(&stubFactRepo{}, &stubStreakRepo{}, &stubAchievementRepo{})

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: 42})

	require.NoError(t, err)
	assert.Equal(t, int64(42), result.UserID)
	assert.Equal(t, 0, result.CompletedCount)
	assert.Equal(t, 0, result.ReviewedCount)
	assert.Equal(t, 0, result.QuizCount)
	assert.Equal(t, 0, result.BestQuizPercent)
	assert.Equal(t, 0, result.CurrentStreak)
	assert.Equal(t, 0, result.LongestStreak)
	assert.Equal(t, 0, result.TotalXP)
	assert.Equal(t, 1, result.Level)
	assert.Equal(t, shared.XPPerLevel, result.XPToNextLevel)
	assert.Equal(t, 0, result.LevelProgressPercent)
	assert.Equal(t, []string{}, result.Badges)
	assert.Empty(t, result.RecentQuizzes)
}

func TestGetUserStats_AggregatesAllSources(t *testing.T) {
	streak := progress.NewStreak(7)
	streak.CurrentStreak = 4
	streak.LongestStreak = 9

	ledger := progress.NewAchievement(7)
	ledger.TotalXP = 1250
	ledger.Level = ledger.TotalXP.Level()
	ledger.Badges = []string{progress.LevelBadge(2)}

	handler := NewGetUserStatsHandler(
		&stubFactRepo{completed: 12, reviews: 30, quizCount: 5, bestPercent: 80},
		&stubStreakRepo{streak: streak},
		&stubAchievementRepo{ledger: ledger},
	)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, 12, result.CompletedCount)
	assert.Equal(t, 30, result.ReviewedCount)
	assert.Equal(t, 5, result.QuizCount)
	assert.Equal(t, 80, result.BestQuizPercent)
	assert.Equal(t, 4, result.CurrentStreak)
	assert.Equal(t, 9, result.LongestStreak)
	assert.Equal(t, 1250, result.TotalXP)
	assert.Equal(t, 2, result.Level)
	assert.Equal(t, 750, result.XPToNextLevel)
	assert.Equal(t, 25, result.LevelProgressPercent)
	assert.Equal(t, []string{"reached level 2"}, result.Badges)
}

func TestGetUserStats_RecentQuizzes(t *testing.T) {
	taken := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	handler := NewGetUserStatsHandler(
		&stubFactRepo{
			quizCount:   2,
			bestPercent: 90,
			recent: []*progress.QuizScore{
				quizAttempt(10, 9, 10, taken),
				quizAttempt(10, 5, 10, taken.Add(-24*time.Hour)),
			},
		},
		&stubStreakRepo{},
		&stubAchievementRepo{},
	)

	result, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: 1, RecentQuizLimit: 5})

	require.NoError(t, err)
	require.Len(t, result.RecentQuizzes, 2)
	assert.Equal(t, 90, result.RecentQuizzes[0].Percent)
	assert.Equal(t, taken, result.RecentQuizzes[0].TakenAt)
	assert.Equal(t, 50, result.RecentQuizzes[1].Percent)
}

func TestGetUserStats_InvalidUser(t *testing.T) {
	handler := NewGetUserStatsHandler(&stubFactRepo{}, &stubStreakRepo{}, &stubAchievementRepo{})

	_, err := handler.Handle(context.Background(), GetUserStatsQuery{UserID: -1})
	assert.True(t, shared.IsValidation(err))
}
