package query

import (
	"context"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATS QUERY
// Сводка прогресса одного пользователя: счётчики фактов, серия, опыт,
// уровень и значки. Для нового пользователя без строк возвращаются
// нулевые значения - отсутствие строки не является ошибкой.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserStatsQuery содержит параметры запроса статистики.
type GetUserStatsQuery struct {
	// UserID - идентификатор пользователя.
	UserID int64

	// RecentQuizLimit - сколько последних попыток викторин вернуть
	// (0 - не возвращать).
	RecentQuizLimit int
}

// QuizAttemptDTO - одна попытка викторины.
type QuizAttemptDTO struct {
	// TopicID - тема викторины.
	TopicID int64 `json:"topic_id"`

	// Score - количество правильных ответов.
	Score int `json:"score"`

	// Total - общее количество вопросов.
	Total int `json:"total"`

	// Percent - результат в процентах.
	Percent int `json:"percent"`

	// TakenAt - время попытки.
	TakenAt time.Time `json:"taken_at"`
}

// GetUserStatsResult содержит сводку прогресса пользователя.
type GetUserStatsResult struct {
	// UserID - идентификатор пользователя.
	UserID int64 `json:"user_id"`

	// CompletedCount - завершённых аудио-уроков.
	CompletedCount int `json:"completed_count"`

	// ReviewedCount - повторённых карточек.
	ReviewedCount int `json:"reviewed_count"`

	// QuizCount - попыток викторин.
	QuizCount int `json:"quiz_count"`

	// BestQuizPercent - лучший результат викторины в процентах.
	BestQuizPercent int `json:"best_quiz_percent"`

	// CurrentStreak - текущая серия дней.
	CurrentStreak int `json:"current_streak"`

	// LongestStreak - лучшая серия дней.
	LongestStreak int `json:"longest_streak"`

	// TotalXP - суммарный опыт.
	TotalXP int `json:"total_xp"`

	// Level - текущий уровень.
	Level int `json:"level"`

	// XPToNextLevel - сколько опыта осталось до следующего уровня.
	XPToNextLevel int `json:"xp_to_next_level"`

	// LevelProgressPercent - прогресс внутри текущего уровня, 0-99.
	LevelProgressPercent int `json:"level_progress_percent"`

	// Badges - полученные значки в порядке получения.
	Badges []string `json:"badges"`

	// RecentQuizzes - последние попытки викторин, от новых к старым.
	RecentQuizzes []QuizAttemptDTO `json:"recent_quizzes,omitempty"`
}

// GetUserStatsHandler обрабатывает запросы статистики пользователя.
type GetUserStatsHandler struct {
	factRepo        progress.FactRepository
	streakRepo      progress.StreakRepository
	achievementRepo progress.AchievementRepository
}

// NewGetUserStatsHandler создаёт новый обработчик статистики.
func NewGetUserStatsHandler(
	factRepo progress.FactRepository,
	streakRepo progress.StreakRepository,
	achievementRepo progress.AchievementRepository,
) *GetUserStatsHandler {
	return &GetUserStatsHandler{
		factRepo:        factRepo,
		streakRepo:      streakRepo,
		achievementRepo: achievementRepo,
	}
}

// Handle выполняет запрос статистики.
func (h *GetUserStatsHandler) Handle(ctx context.Context, q GetUserStatsQuery) (*GetUserStatsResult, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}

	result := &GetUserStatsResult{
		UserID:        userID.Int64(),
		Level:         shared.MinLevel.Int(),
		XPToNextLevel: shared.XPPerLevel,
		Badges:        []string{},
	}

	result.CompletedCount, err = h.factRepo.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	result.ReviewedCount, err = h.factRepo.CountReviews(ctx, userID)
	if err != nil {
		return nil, err
	}

	quizCount, bestPercent, err := h.factRepo.QuizStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	result.QuizCount = quizCount
	result.BestQuizPercent = bestPercent.Int()

	streak, err := h.streakRepo.GetStreak(ctx, userID)
	switch {
	case err == nil:
		result.CurrentStreak = streak.CurrentStreak
		result.LongestStreak = streak.LongestStreak
	case !shared.IsNotFound(err):
		return nil, err
	}

	ledger, err := h.achievementRepo.GetAchievement(ctx, userID)
	switch {
	case err == nil:
		result.TotalXP = ledger.TotalXP.Int()
		result.Level = ledger.Level.Int()
		result.XPToNextLevel = ledger.TotalXP.XPToNextLevel()
		result.LevelProgressPercent = ledger.TotalXP.ProgressToNextLevel()
		if len(ledger.Badges) > 0 {
			result.Badges = ledger.Badges
		}
	case !shared.IsNotFound(err):
		return nil, err
	}

	if q.RecentQuizLimit > 0 {
		attempts, err := h.factRepo.RecentQuizScores(ctx, userID, q.RecentQuizLimit)
		if err != nil {
			return nil, err
		}
		result.RecentQuizzes = make([]QuizAttemptDTO, len(attempts))
		for i, a := range attempts {
			result.RecentQuizzes[i] = QuizAttemptDTO{
				TopicID: a.TopicID.Int64(),
				Score:   a.Score,
				Total:   a.Total,
				Percent: a.Percent().Int(),
				TakenAt: a.TakenAt,
			}
		}
	}

	return result, nil
}
