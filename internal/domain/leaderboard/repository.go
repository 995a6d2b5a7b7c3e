package leaderboard

import (
	"context"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет читающие операции над рейтингами.
// Рейтинги строятся из строк streaks и achievements; этот слой никогда
// не изменяет данные.
type Repository interface {
	// TopByExperience возвращает топ пользователей по суммарному опыту,
	// по убыванию. Равные значения упорядочены стабильно (кто раньше
	// достиг, тот выше). limit <= 0 даёт пустой список.
	TopByExperience(ctx context.Context, limit int) ([]Entry, error)

	// TopByStreak возвращает топ пользователей по текущей серии,
	// по убыванию, с тем же правилом для равных значений.
	TopByStreak(ctx context.Context, limit int) ([]Entry, error)

	// UserRank возвращает позицию пользователя в указанном рейтинге.
	// Для пользователя без строки возвращает Unranked, не ошибку.
	UserRank(ctx context.Context, board Board, userID shared.UserID) (RankInfo, error)
}

// Cache определяет кеш рейтингов поверх основного хранилища.
// Реализуется через Redis sorted sets; при недоступности кеша чтение
// выполняется из основного хранилища.
type Cache interface {
	// UpdateScore обновляет значение метрики пользователя в кеше.
	UpdateScore(ctx context.Context, board Board, userID shared.UserID, score int) error

	// Top возвращает топ рейтинга из кеша.
	Top(ctx context.Context, board Board, limit int) ([]Entry, error)

	// Rank возвращает позицию пользователя из кеша.
	Rank(ctx context.Context, board Board, userID shared.UserID) (RankInfo, error)

	// Invalidate очищает кеш указанного рейтинга.
	Invalidate(ctx context.Context, board Board) error
}
