// Package leaderboard содержит доменную модель рейтингов:
// упорядоченные списки пользователей по опыту и по серии активных дней.
package leaderboard

import (
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// Board определяет вид рейтинга.
type Board string

const (
	// BoardXP - рейтинг по суммарному опыту.
	BoardXP Board = "xp"

	// BoardStreak - рейтинг по текущей серии активных дней.
	BoardStreak Board = "streak"
)

// IsValid проверяет, известен ли вид рейтинга.
func (b Board) IsValid() bool {
	return b == BoardXP || b == BoardStreak
}

// String возвращает строковое представление.
func (b Board) String() string {
	return string(b)
}

// ParseBoard разбирает вид рейтинга из строки.
func ParseBoard(s string) (Board, error) {
	b := Board(s)
	if !b.IsValid() {
		return "", shared.ErrInvalidBoardKind
	}
	return b, nil
}

// Entry представляет одну позицию рейтинга.
type Entry struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// Score - значение метрики (XP или длина серии).
	Score int

	// Rank - позиция в рейтинге, начиная с 1.
	Rank shared.Rank
}

// RankInfo представляет позицию одного пользователя в рейтинге.
type RankInfo struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// Board - вид рейтинга.
	Board Board

	// Rank - позиция (Unranked, если пользователя нет в рейтинге).
	Rank shared.Rank

	// Score - значение метрики.
	Score int

	// TotalUsers - всего пользователей в рейтинге.
	TotalUsers int
}

// Percentile возвращает перцентиль позиции (100 - лучший результат).
// Для нерейтингованного пользователя возвращает 0.
func (r RankInfo) Percentile() int {
	if r.Rank.IsUnranked() || r.TotalUsers <= 0 {
		return 0
	}
	return (r.TotalUsers - r.Rank.Int() + 1) * 100 / r.TotalUsers
}
