package progress

import (
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK (Серия активных дней)
// ══════════════════════════════════════════════════════════════════════════════

// Streak представляет серию подряд идущих активных дней пользователя.
type Streak struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// CurrentStreak - текущая серия дней.
	CurrentStreak int

	// LongestStreak - лучшая серия дней за всё время.
	LongestStreak int

	// LastActivityDate - дата (без времени) последней активности.
	LastActivityDate time.Time

	// Version - версия строки для оптимистичной блокировки.
	Version int
}

// NewStreak создаёт пустой трекер серии для пользователя.
func NewStreak(userID shared.UserID) *Streak {
	return &Streak{
		UserID:           userID,
		CurrentStreak:    0,
		LongestStreak:    0,
		LastActivityDate: time.Time{},
	}
}

// StreakOutcome описывает результат применения активности к серии.
type StreakOutcome int

const (
	// StreakStarted - первая активность пользователя, серия начата.
	StreakStarted StreakOutcome = iota
	// StreakUnchanged - повторная активность в тот же день, без изменений.
	StreakUnchanged
	// StreakExtended - активность на следующий день, серия продолжена.
	StreakExtended
	// StreakReset - пропущен хотя бы один день, серия начата заново.
	StreakReset
	// StreakIgnored - событие датировано раньше последней активности, игнорируется.
	StreakIgnored
)

// String возвращает строковое представление результата.
func (o StreakOutcome) String() string {
	switch o {
	case StreakStarted:
		return "started"
	case StreakUnchanged:
		return "unchanged"
	case StreakExtended:
		return "extended"
	case StreakReset:
		return "reset"
	case StreakIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Mutated сообщает, требует ли результат записи в хранилище.
func (o StreakOutcome) Mutated() bool {
	return o == StreakStarted || o == StreakExtended || o == StreakReset
}

// NextStreak применяет активность за указанную дату к серии и возвращает
// новое состояние вместе с результатом перехода. Функция чистая: исходное
// значение не изменяется, время суток отбрасывается.
//
// Переходы:
//   - серия пуста               -> 1/1, дата активности записывается
//   - тот же день               -> без изменений
//   - следующий день            -> CurrentStreak+1
//   - пропущено больше дня      -> CurrentStreak=1
//   - дата раньше последней     -> игнорируется (защита от опоздавших событий)
//
// LongestStreak всегда подтягивается до max(LongestStreak, CurrentStreak).
func NextStreak(s Streak, activityDate time.Time) (Streak, StreakOutcome) {
	date := timeutil.DateOnly(activityDate)

	// Первая активность пользователя.
	if s.LastActivityDate.IsZero() {
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		s.LastActivityDate = date
		return s, StreakStarted
	}

	daysSince := timeutil.DaysBetween(s.LastActivityDate, date)

	switch {
	case daysSince < 0:
		return s, StreakIgnored
	case daysSince == 0:
		return s, StreakUnchanged
	case daysSince == 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		s.LastActivityDate = date
		return s, StreakExtended
	default:
		s.CurrentStreak = 1
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		s.LastActivityDate = date
		return s, StreakReset
	}
}

// IsBroken проверяет, сломана ли серия относительно указанного дня
// (пропущен ли вчерашний день).
func (s *Streak) IsBroken(today time.Time) bool {
	if s.LastActivityDate.IsZero() {
		return false
	}
	return timeutil.DaysBetween(s.LastActivityDate, timeutil.DateOnly(today)) > 1
}

// DaysUntilStreakBreaks возвращает количество дней до сброса серии
// относительно указанного дня. Возвращает 0, если серия уже сброшена,
// и 1, если нужно быть активным сегодня.
func (s *Streak) DaysUntilStreakBreaks(today time.Time) int {
	if s.LastActivityDate.IsZero() || s.CurrentStreak == 0 {
		return 0
	}

	daysSince := timeutil.DaysBetween(s.LastActivityDate, timeutil.DateOnly(today))

	switch daysSince {
	case 0:
		return 2 // Был активен сегодня, есть ещё весь завтрашний день
	case 1:
		return 1 // Нужно быть активным сегодня
	default:
		return 0 // Серия уже сброшена
	}
}
