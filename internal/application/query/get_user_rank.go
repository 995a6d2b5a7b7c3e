package query

import (
	"context"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER RANK QUERY
// Позиция одного пользователя в рейтинге. Пользователь без строки
// в рейтинге получает Unranked, не ошибку.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserRankQuery содержит параметры запроса позиции.
type GetUserRankQuery struct {
	// UserID - идентификатор пользователя.
	UserID int64

	// Board - вид рейтинга: "xp" или "streak".
	Board string
}

// GetUserRankResult содержит позицию пользователя.
type GetUserRankResult struct {
	// UserID - идентификатор пользователя.
	UserID int64 `json:"user_id"`

	// Board - вид рейтинга.
	Board string `json:"board"`

	// Rank - позиция (0, если пользователь не рейтингован).
	Rank int `json:"rank"`

	// Score - значение метрики.
	Score int `json:"score"`

	// TotalUsers - всего пользователей в рейтинге.
	TotalUsers int `json:"total_users"`

	// Percentile - перцентиль позиции (100 - лучший).
	Percentile int `json:"percentile"`

	// TopTen - входит ли пользователь в первую десятку.
	TopTen bool `json:"top_ten"`
}

// GetUserRankHandler обрабатывает запросы позиции в рейтинге.
type GetUserRankHandler struct {
	repo  leaderboard.Repository
	cache leaderboard.Cache
	log   *logger.Logger
}

// NewGetUserRankHandler создаёт новый обработчик.
func NewGetUserRankHandler(repo leaderboard.Repository, cache leaderboard.Cache, log *logger.Logger) *GetUserRankHandler {
	if log == nil {
		log = logger.Default()
	}
	return &GetUserRankHandler{
		repo:  repo,
		cache: cache,
		log:   log.With(logger.Component("get_user_rank")),
	}
}

// Handle выполняет запрос позиции.
func (h *GetUserRankHandler) Handle(ctx context.Context, q GetUserRankQuery) (*GetUserRankResult, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}
	board, err := leaderboard.ParseBoard(q.Board)
	if err != nil {
		return nil, err
	}

	info, err := h.rank(ctx, board, userID)
	if err != nil {
		return nil, err
	}

	return &GetUserRankResult{
		UserID:     userID.Int64(),
		Board:      board.String(),
		Rank:       info.Rank.Int(),
		Score:      info.Score,
		TotalUsers: info.TotalUsers,
		Percentile: info.Percentile(),
		TopTen:     info.Rank.IsTop(10),
	}, nil
}

// rank читает позицию из кеша или, при его недоступности,
// из основного хранилища.
func (h *GetUserRankHandler) rank(ctx context.Context, board leaderboard.Board, userID shared.UserID) (leaderboard.RankInfo, error) {
	if h.cache != nil {
		info, err := h.cache.Rank(ctx, board, userID)
		if err == nil {
			return info, nil
		}
		h.log.Warn("leaderboard cache rank read failed, falling back to store",
			logger.String("board", board.String()),
			logger.Err(err),
		)
	}
	return h.repo.UserRank(ctx, board, userID)
}
