package query

import (
	"context"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMPLETION QUERY
// Процент прослушанного: общий и по темам. Знаменатели (сколько всего
// уроков существует) принадлежат контентной подсистеме и передаются
// вызывающей стороной; нулевой знаменатель даёт 0, а не деление на ноль.
// ══════════════════════════════════════════════════════════════════════════════

// TopicDenominator задаёт знаменатель для одной темы.
type TopicDenominator struct {
	// TopicID - идентификатор темы.
	TopicID int64

	// TotalAudibles - сколько всего уроков в теме.
	TotalAudibles int
}

// GetCompletionQuery содержит параметры запроса процента прослушанного.
type GetCompletionQuery struct {
	// UserID - идентификатор пользователя.
	UserID int64

	// TotalAudibles - сколько всего уроков существует.
	TotalAudibles int

	// Topics - темы, по которым нужен процент (может быть пустым).
	Topics []TopicDenominator
}

// TopicCompletionDTO - процент прослушанного по одной теме.
type TopicCompletionDTO struct {
	// TopicID - идентификатор темы.
	TopicID int64 `json:"topic_id"`

	// CompletedCount - завершено уроков в теме.
	CompletedCount int `json:"completed_count"`

	// TotalAudibles - всего уроков в теме.
	TotalAudibles int `json:"total_audibles"`

	// Percent - процент прослушанного (0-100).
	Percent int `json:"percent"`
}

// GetCompletionResult содержит проценты прослушанного.
type GetCompletionResult struct {
	// UserID - идентификатор пользователя.
	UserID int64 `json:"user_id"`

	// CompletedCount - всего завершено уроков.
	CompletedCount int `json:"completed_count"`

	// TotalAudibles - всего уроков существует.
	TotalAudibles int `json:"total_audibles"`

	// OverallPercent - общий процент прослушанного (0-100).
	OverallPercent int `json:"overall_percent"`

	// Topics - проценты по запрошенным темам.
	Topics []TopicCompletionDTO `json:"topics,omitempty"`
}

// GetCompletionHandler обрабатывает запросы процента прослушанного.
type GetCompletionHandler struct {
	factRepo progress.FactRepository
}

// NewGetCompletionHandler создаёт новый обработчик.
func NewGetCompletionHandler(factRepo progress.FactRepository) *GetCompletionHandler {
	return &GetCompletionHandler{factRepo: factRepo}
}

// Handle выполняет запрос процента прослушанного.
func (h *GetCompletionHandler) Handle(ctx context.Context, q GetCompletionQuery) (*GetCompletionResult, error) {
	userID, err := shared.NewUserID(q.UserID)
	if err != nil {
		return nil, err
	}
	if q.TotalAudibles < 0 {
		return nil, shared.NewDomainError("query", "GetCompletion", shared.ErrNegativeValue, "total audible count cannot be negative")
	}

	completed, err := h.factRepo.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &GetCompletionResult{
		UserID:         userID.Int64(),
		CompletedCount: completed,
		TotalAudibles:  q.TotalAudibles,
		OverallPercent: completionPercent(completed, q.TotalAudibles),
	}

	for _, topic := range q.Topics {
		topicID, err := shared.NewTopicID(topic.TopicID)
		if err != nil {
			return nil, err
		}
		if topic.TotalAudibles < 0 {
			return nil, shared.NewDomainError("query", "GetCompletion", shared.ErrNegativeValue, "topic audible count cannot be negative")
		}

		topicCompleted, err := h.factRepo.CountCompletedInTopic(ctx, userID, topicID)
		if err != nil {
			return nil, err
		}

		result.Topics = append(result.Topics, TopicCompletionDTO{
			TopicID:        topicID.Int64(),
			CompletedCount: topicCompleted,
			TotalAudibles:  topic.TotalAudibles,
			Percent:        completionPercent(topicCompleted, topic.TotalAudibles),
		})
	}

	return result, nil
}

// completionPercent возвращает процент с округлением до ближайшего целого.
func completionPercent(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (completed*100 + total/2) / total
}
