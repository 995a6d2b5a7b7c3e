package progress

import (
	"fmt"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT LEDGER (Журнал опыта и значков)
// ══════════════════════════════════════════════════════════════════════════════

// Achievement представляет журнал опыта пользователя: суммарный XP,
// производный уровень и упорядоченный список полученных значков.
type Achievement struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// TotalXP - суммарный опыт (только растёт).
	TotalXP shared.XP

	// Level - текущий уровень. Всегда пересчитывается из TotalXP,
	// никогда не хранится независимо.
	Level shared.Level

	// Badges - полученные значки в порядке получения.
	Badges []string

	// Version - версия строки для оптимистичной блокировки.
	Version int
}

// NewAchievement создаёт пустой журнал опыта для пользователя.
func NewAchievement(userID shared.UserID) *Achievement {
	return &Achievement{
		UserID:  userID,
		TotalXP: 0,
		Level:   1,
		Badges:  nil,
	}
}

// LevelBadge возвращает имя значка за достижение уровня.
func LevelBadge(level shared.Level) string {
	return fmt.Sprintf("reached level %d", level.Int())
}

// HasBadge проверяет, получен ли уже значок.
func (a *Achievement) HasBadge(badge string) bool {
	for _, b := range a.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// AddExperience начисляет опыт и пересчитывает уровень. За каждый новый
// достигнутый уровень добавляется значок "reached level N", не более
// одного раза на уровень. Возвращает, поднялся ли уровень, и список
// добавленных значков.
func (a *Achievement) AddExperience(amount int) (leveledUp bool, newBadges []string, err error) {
	if amount < 0 {
		return false, nil, shared.ErrNegativeXP
	}
	if amount == 0 {
		return false, nil, nil
	}

	oldLevel := a.TotalXP.Level()
	a.TotalXP = a.TotalXP.Add(amount)
	a.Level = a.TotalXP.Level()

	if a.Level <= oldLevel {
		return false, nil, nil
	}

	// Начисление могло перепрыгнуть сразу несколько уровней.
	for lvl := oldLevel + 1; lvl <= a.Level; lvl++ {
		badge := LevelBadge(lvl)
		if a.HasBadge(badge) {
			continue
		}
		a.Badges = append(a.Badges, badge)
		newBadges = append(newBadges, badge)
	}

	return true, newBadges, nil
}
