// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Получает топ-N пользователей по опыту или по серии активных дней.
// Чтение идёт из кеша, при его недоступности - из основного хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Board - вид рейтинга: "xp" или "streak".
	Board string

	// Limit - количество записей. Нулевое или отрицательное значение
	// даёт пустой список, не ошибку.
	Limit int
}

// LeaderboardEntryDTO - одна запись рейтинга для отдачи наружу.
type LeaderboardEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// UserID - идентификатор пользователя.
	UserID int64 `json:"user_id"`

	// Score - значение метрики (XP или длина серии).
	Score int `json:"score"`
}

// GetLeaderboardResult содержит результат запроса рейтинга.
type GetLeaderboardResult struct {
	// Board - вид рейтинга.
	Board string `json:"board"`

	// Entries - записи рейтинга по убыванию метрики.
	Entries []LeaderboardEntryDTO `json:"entries"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы рейтинга.
type GetLeaderboardHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
}

// NewGetLeaderboardHandler создаёт новый обработчик запроса рейтинга.
func NewGetLeaderboardHandler(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger) *GetLeaderboardHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetLeaderboardHandler{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("get_leaderboard")),
	}
}

// Handle выполняет запрос рейтинга.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, q GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	board, err := leaderboard.ParseBoard(q.Board)
	if err != nil {
		return nil, err
	}

	result := &GetLeaderboardResult{
		Board:       board.String(),
		Entries:     []LeaderboardEntryDTO{},
		GeneratedAt: time.Now().UTC(),
	}

	if q.Limit <= 0 {
		return result, nil
	}

	limit := q.Limit
	if limit > shared.MaxPageSize {
		limit = shared.MaxPageSize
	}

	entries, err := h.top(ctx, board, limit)
	if err != nil {
		return nil, err
	}

	result.Entries = make([]LeaderboardEntryDTO, len(entries))
	for i, e := range entries {
		result.Entries[i] = LeaderboardEntryDTO{
			Rank:   e.Rank.Int(),
			UserID: e.UserID.Int64(),
			Score:  e.Score,
		}
	}

	return result, nil
}

// top читает топ рейтинга из кеша или, при его недоступности,
// из основного хранилища.
func (h *GetLeaderboardHandler) top(ctx context.Context, board leaderboard.Board, limit int) ([]leaderboard.Entry, error) {
	if h.cache != nil {
		entries, err := h.cache.Top(ctx, board, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			h.log.Warn("leaderboard cache read failed, falling back to store",
				logger.String("board", board.String()),
				logger.Err(err),
			)
		}
	}

	switch board {
	case leaderboard.BoardStreak:
		return h.repo.TopByStreak(ctx, limit)
	default:
		return h.repo.TopByExperience(ctx, limit)
	}
}
