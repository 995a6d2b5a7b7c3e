package progress

import (
	"context"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// FactRepository определяет операции над фактами активности:
// прослушиваниями, повторениями карточек и результатами викторин.
type FactRepository interface {
	// ─────────────────────────────────────────────────────────────────────────
	// Writes
	// ─────────────────────────────────────────────────────────────────────────

	// UpsertCompletion создаёт или обновляет запись о прослушивании по ключу
	// (пользователь, урок). Возвращает true, если запись впервые перешла
	// в состояние "завершено".
	UpsertCompletion(ctx context.Context, rec *CompletionRecord) (becameCompleted bool, err error)

	// UpsertReview создаёт или обновляет запись о повторении карточки
	// по ключу (пользователь, карточка).
	UpsertReview(ctx context.Context, review *FlashcardReview) error

	// AppendQuizScore добавляет новую попытку викторины. Каждая попытка -
	// отдельная строка, дубликаты допустимы намеренно.
	AppendQuizScore(ctx context.Context, score *QuizScore) error

	// ─────────────────────────────────────────────────────────────────────────
	// Reads
	// ─────────────────────────────────────────────────────────────────────────

	// CountCompleted возвращает количество завершённых уроков пользователя.
	CountCompleted(ctx context.Context, userID shared.UserID) (int, error)

	// CountCompletedInTopic возвращает количество завершённых уроков
	// пользователя в указанной теме.
	CountCompletedInTopic(ctx context.Context, userID shared.UserID, topicID shared.TopicID) (int, error)

	// CountReviews возвращает количество повторённых карточек пользователя.
	CountReviews(ctx context.Context, userID shared.UserID) (int, error)

	// QuizStats возвращает количество попыток викторин и лучший результат
	// в процентах. Для пользователя без попыток возвращает нули.
	QuizStats(ctx context.Context, userID shared.UserID) (count int, bestPercent shared.Percentage, err error)

	// RecentQuizScores возвращает последние попытки пользователя,
	// от новых к старым.
	RecentQuizScores(ctx context.Context, userID shared.UserID, limit int) ([]*QuizScore, error)
}

// StreakRepository определяет операции над сериями активных дней.
type StreakRepository interface {
	// GetStreak возвращает серию пользователя.
	// Возвращает ErrStreakNotFound, если строки ещё нет.
	GetStreak(ctx context.Context, userID shared.UserID) (*Streak, error)

	// CreateStreak создаёт новую строку серии.
	// Возвращает ErrAlreadyExists, если строка уже создана конкурентно.
	CreateStreak(ctx context.Context, streak *Streak) error

	// UpdateStreak обновляет серию с проверкой версии.
	// Возвращает ErrConcurrentModification при несовпадении версии.
	UpdateStreak(ctx context.Context, streak *Streak) error
}

// AchievementRepository определяет операции над журналом опыта.
type AchievementRepository interface {
	// GetAchievement возвращает журнал опыта пользователя.
	// Возвращает ErrAchievementNotFound, если строки ещё нет.
	GetAchievement(ctx context.Context, userID shared.UserID) (*Achievement, error)

	// CreateAchievement создаёт новую строку журнала.
	// Возвращает ErrAlreadyExists, если строка уже создана конкурентно.
	CreateAchievement(ctx context.Context, achievement *Achievement) error

	// UpdateAchievement обновляет журнал с проверкой версии.
	// Возвращает ErrConcurrentModification при несовпадении версии.
	UpdateAchievement(ctx context.Context, achievement *Achievement) error
}
