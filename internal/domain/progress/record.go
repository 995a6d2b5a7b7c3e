// Package progress содержит доменную модель прогресса обучения:
// факты активности (прослушивания, повторения карточек, результаты викторин),
// серии активных дней и журнал опыта.
package progress

import (
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY FACTS (Факты активности)
// ══════════════════════════════════════════════════════════════════════════════

// CompletionRecord представляет факт прослушивания аудио-урока.
// На пару (пользователь, урок) существует не более одной записи.
type CompletionRecord struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// AudibleID - идентификатор аудио-урока.
	AudibleID shared.AudibleID

	// TopicID - тема, к которой относится урок.
	TopicID shared.TopicID

	// IsCompleted - прослушан ли урок до конца.
	IsCompleted bool

	// CompletedAt - когда урок был прослушан (пусто, если не завершён).
	CompletedAt time.Time

	// UpdatedAt - время последнего изменения записи.
	UpdatedAt time.Time
}

// NewCompletionRecord создаёт запись о прослушивании с валидацией входа.
func NewCompletionRecord(userID, audibleID, topicID int64, completed bool, when time.Time) (*CompletionRecord, error) {
	uid, err := shared.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	aid, err := shared.NewAudibleID(audibleID)
	if err != nil {
		return nil, err
	}
	tid, err := shared.NewTopicID(topicID)
	if err != nil {
		return nil, err
	}

	rec := &CompletionRecord{
		UserID:      uid,
		AudibleID:   aid,
		TopicID:     tid,
		IsCompleted: completed,
		UpdatedAt:   when,
	}
	if completed {
		rec.CompletedAt = when
	}
	return rec, nil
}

// FlashcardReview представляет факт повторения карточки.
// На пару (пользователь, карточка) существует не более одной записи;
// повторное повторение обновляет ReviewedAt.
type FlashcardReview struct {
	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// CardID - идентификатор карточки.
	CardID shared.CardID

	// ReviewedAt - время последнего повторения.
	ReviewedAt time.Time
}

// NewFlashcardReview создаёт запись о повторении карточки с валидацией входа.
func NewFlashcardReview(userID, cardID int64, when time.Time) (*FlashcardReview, error) {
	uid, err := shared.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	cid, err := shared.NewCardID(cardID)
	if err != nil {
		return nil, err
	}

	return &FlashcardReview{
		UserID:     uid,
		CardID:     cid,
		ReviewedAt: when,
	}, nil
}

// QuizScore представляет одну попытку прохождения викторины.
// Записи только добавляются - каждая попытка сохраняется отдельной строкой.
type QuizScore struct {
	// ID - суррогатный ключ строки (присваивается хранилищем).
	ID int64

	// UserID - идентификатор пользователя.
	UserID shared.UserID

	// TopicID - тема викторины.
	TopicID shared.TopicID

	// Score - количество правильных ответов.
	Score int

	// Total - общее количество вопросов.
	Total int

	// TakenAt - время попытки.
	TakenAt time.Time
}

// NewQuizScore создаёт запись о попытке викторины с валидацией входа.
// Total должен быть положительным, Score - в пределах [0, Total].
func NewQuizScore(userID, topicID int64, score, total int, when time.Time) (*QuizScore, error) {
	uid, err := shared.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	tid, err := shared.NewTopicID(topicID)
	if err != nil {
		return nil, err
	}
	if total <= 0 {
		return nil, shared.ErrInvalidQuizScore
	}
	if score < 0 || score > total {
		return nil, shared.ErrInvalidQuizScore
	}

	return &QuizScore{
		UserID:  uid,
		TopicID: tid,
		Score:   score,
		Total:   total,
		TakenAt: when,
	}, nil
}

// Percent возвращает результат попытки в процентах (0-100).
func (q *QuizScore) Percent() shared.Percentage {
	return shared.NewPercentage(q.Score, q.Total)
}

// XPAwarded возвращает количество опыта за эту попытку.
func (q *QuizScore) XPAwarded() int {
	return shared.QuizXP(q.Score, q.Total)
}
