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
// RECORD FLASHCARD REVIEW COMMAND
// Records the fact that a user reviewed a flashcard. Re-reviewing the same
// card refreshes the timestamp instead of creating a duplicate. Every review
// counts as streak activity.
// ══════════════════════════════════════════════════════════════════════════════

// RecordFlashcardReviewCommand contains the data to record a flashcard review.
type RecordFlashcardReviewCommand struct {
	// UserID is the numeric user identifier.
	UserID int64

	// CardID is the flashcard identifier.
	CardID int64

	// Timestamp is when the review occurred (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordFlashcardReviewCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	if c.CardID <= 0 {
		return shared.ErrInvalidCardID
	}
	return nil
}

// RecordFlashcardReviewResult contains the result of recording a review.
type RecordFlashcardReviewResult struct {
	// Success indicates if the fact was recorded.
	Success bool

	// CurrentStreak is the user's streak after this event.
	CurrentStreak int

	// StreakOutcome describes what the event did to the streak.
	StreakOutcome string

	// RecordedAt is when the fact was recorded.
	RecordedAt time.Time
}

// RecordFlashcardReviewHandler handles the RecordFlashcardReviewCommand.
type RecordFlashcardReviewHandler struct {
	factRepo   progress.FactRepository
	streakRepo progress.StreakRepository
	publisher  shared.EventPublisher
	log        *logger.Logger
}

// NewRecordFlashcardReviewHandler creates a new RecordFlashcardReviewHandler.
func NewRecordFlashcardReviewHandler(
	factRepo progress.FactRepository,
	streakRepo progress.StreakRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordFlashcardReviewHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordFlashcardReviewHandler{
		factRepo:   factRepo,
		streakRepo: streakRepo,
		publisher:  publisher,
		log:        log.With(logger.Component("record_review")),
	}
}

// Handle executes the record flashcard review command.
func (h *RecordFlashcardReviewHandler) Handle(ctx context.Context, cmd RecordFlashcardReviewCommand) (*RecordFlashcardReviewResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	review, err := progress.NewFlashcardReview(cmd.UserID, cmd.CardID, timestamp)
	if err != nil {
		return nil, err
	}

	if err := h.factRepo.UpsertReview(ctx, review); err != nil {
		return nil, fmt.Errorf("record_review: failed to upsert: %w", err)
	}

	streak, outcome, streakEvents, err := streakTouch(ctx, h.streakRepo, review.UserID, timestamp)
	if err != nil {
		return nil, err
	}

	events := []shared.Event{
		shared.NewReviewRecordedEvent(review.UserID, review.CardID, timestamp),
	}
	events = append(events, streakEvents...)
	publishAll(h.publisher, events)

	h.log.Debug("flashcard review recorded",
		logger.UserID(cmd.UserID),
		logger.CardID(cmd.CardID),
		logger.StreakLength(streak.CurrentStreak),
	)

	return &RecordFlashcardReviewResult{
		Success:       true,
		CurrentStreak: streak.CurrentStreak,
		StreakOutcome: outcome.String(),
		RecordedAt:    timestamp,
	}, nil
}
