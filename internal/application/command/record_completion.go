package command

import (
	"context"
	"fmt"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD COMPLETION COMMAND
// Records the fact that a user finished (or unfinished) an audio lesson.
// Replaying the same completion is a no-op state-wise besides refreshing
// the timestamp; the streak only advances on a transition to completed.
// ══════════════════════════════════════════════════════════════════════════════

// RecordCompletionCommand contains the data to record an audible completion.
type RecordCompletionCommand struct {
	// UserID is the numeric user identifier.
	UserID int64

	// AudibleID is the audio lesson identifier.
	AudibleID int64

	// TopicID is the topic the lesson belongs to.
	TopicID int64

	// Completed marks whether the lesson was finished.
	Completed bool

	// Timestamp is when the event occurred (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordCompletionCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	if c.AudibleID <= 0 {
		return shared.ErrInvalidAudibleID
	}
	if c.TopicID <= 0 {
		return shared.ErrInvalidTopicID
	}
	return nil
}

// RecordCompletionResult contains the result of recording a completion.
type RecordCompletionResult struct {
	// Success indicates if the fact was recorded.
	Success bool

	// BecameCompleted is true when the record transitioned to completed
	// for the first time.
	BecameCompleted bool

	// CurrentStreak is the user's streak after this event.
	CurrentStreak int

	// StreakOutcome describes what the event did to the streak.
	StreakOutcome string

	// RecordedAt is when the fact was recorded.
	RecordedAt time.Time
}

// RecordCompletionHandler handles the RecordCompletionCommand.
type RecordCompletionHandler struct {
	factRepo   progress.FactRepository
	streakRepo progress.StreakRepository
	publisher  shared.EventPublisher
	log        *logger.Logger
}

// NewRecordCompletionHandler creates a new RecordCompletionHandler.
func NewRecordCompletionHandler(
	factRepo progress.FactRepository,
	streakRepo progress.StreakRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordCompletionHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordCompletionHandler{
		factRepo:   factRepo,
		streakRepo: streakRepo,
		publisher:  publisher,
		log:        log.With(logger.Component("record_completion")),
	}
}

// Handle executes the record completion command.
func (h *RecordCompletionHandler) Handle(ctx context.Context, cmd RecordCompletionCommand) (*RecordCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	rec, err := progress.NewCompletionRecord(cmd.UserID, cmd.AudibleID, cmd.TopicID, cmd.Completed, timestamp)
	if err != nil {
		return nil, err
	}

	becameCompleted, err := h.factRepo.UpsertCompletion(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("record_completion: failed to upsert: %w", err)
	}

	result := &RecordCompletionResult{
		Success:         true,
		BecameCompleted: becameCompleted,
		StreakOutcome:   progress.StreakUnchanged.String(),
		RecordedAt:      timestamp,
	}

	events := []shared.Event{
		shared.NewCompletionRecordedEvent(rec.UserID, rec.AudibleID, rec.TopicID, timestamp),
	}

	// Only a transition to completed counts as streak activity.
	if becameCompleted {
		streak, outcome, streakEvents, err := streakTouch(ctx, h.streakRepo, rec.UserID, timestamp)
		if err != nil {
			return nil, err
		}
		result.CurrentStreak = streak.CurrentStreak
		result.StreakOutcome = outcome.String()
		events = append(events, streakEvents...)
	}

	publishAll(h.publisher, events)

	h.log.Debug("completion recorded",
		logger.UserID(cmd.UserID),
		logger.AudibleID(cmd.AudibleID),
		logger.Bool("became_completed", becameCompleted),
	)

	return result, nil
}
