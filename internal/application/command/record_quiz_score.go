package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD QUIZ SCORE COMMAND
// Appends a quiz attempt (every attempt is a new row, retakes are expected),
// advances the streak, and credits the experience ledger. A perfect score is
// worth 100 XP; partial scores scale proportionally.
// ══════════════════════════════════════════════════════════════════════════════

// RecordQuizScoreCommand contains the data to record a quiz submission.
type RecordQuizScoreCommand struct {
	// UserID is the numeric user identifier.
	UserID int64

	// TopicID is the topic the quiz belongs to.
	TopicID int64

	// Score is the number of correct answers.
	Score int

	// Total is the number of questions. Must be positive.
	Total int

	// Timestamp is when the attempt occurred (defaults to now if zero).
	Timestamp time.Time

	// CorrelationID for tracing.
	CorrelationID string
}

// Validate validates the command.
func (c RecordQuizScoreCommand) Validate() error {
	if c.UserID <= 0 {
		return shared.ErrInvalidUserID
	}
	if c.TopicID <= 0 {
		return shared.ErrInvalidTopicID
	}
	if c.Total <= 0 {
		return shared.ErrInvalidQuizScore
	}
	if c.Score < 0 || c.Score > c.Total {
		return shared.ErrInvalidQuizScore
	}
	return nil
}

// RecordQuizScoreResult contains the result of recording a quiz submission.
type RecordQuizScoreResult struct {
	// Success indicates if the attempt was recorded.
	Success bool

	// AwardedXP is the XP credited for this attempt.
	AwardedXP int

	// TotalXP is the user's XP after crediting.
	TotalXP int

	// NewLevel is the user's level after crediting.
	NewLevel int

	// LeveledUp is true when the attempt pushed the user over a level boundary.
	LeveledUp bool

	// NewBadges lists badges granted by this attempt, in grant order.
	NewBadges []string

	// CurrentStreak is the user's streak after this event.
	CurrentStreak int

	// RecordedAt is when the attempt was recorded.
	RecordedAt time.Time
}

// RecordQuizScoreHandler handles the RecordQuizScoreCommand.
type RecordQuizScoreHandler struct {
	factRepo        progress.FactRepository
	streakRepo      progress.StreakRepository
	achievementRepo progress.AchievementRepository
	publisher       shared.EventPublisher
	log             *logger.Logger
}

// NewRecordQuizScoreHandler creates a new RecordQuizScoreHandler.
func NewRecordQuizScoreHandler(
	factRepo progress.FactRepository,
	streakRepo progress.StreakRepository,
	achievementRepo progress.AchievementRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordQuizScoreHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RecordQuizScoreHandler{
		factRepo:        factRepo,
		streakRepo:      streakRepo,
		achievementRepo: achievementRepo,
		publisher:       publisher,
		log:             log.With(logger.Component("record_quiz_score")),
	}
}

// Handle executes the record quiz score command.
func (h *RecordQuizScoreHandler) Handle(ctx context.Context, cmd RecordQuizScoreCommand) (*RecordQuizScoreResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	timestamp := cmd.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	attempt, err := progress.NewQuizScore(cmd.UserID, cmd.TopicID, cmd.Score, cmd.Total, timestamp)
	if err != nil {
		return nil, err
	}

	if err := h.factRepo.AppendQuizScore(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record_quiz_score: failed to append: %w", err)
	}

	awarded := attempt.XPAwarded()

	events := []shared.Event{
		shared.NewQuizSubmittedEvent(attempt.UserID, attempt.TopicID, cmd.Score, cmd.Total, awarded, timestamp),
	}

	streak, _, streakEvents, err := streakTouch(ctx, h.streakRepo, attempt.UserID, timestamp)
	if err != nil {
		return nil, err
	}
	events = append(events, streakEvents...)

	ledger, ledgerEvents, leveledUp, newBadges, err := h.credit(ctx, attempt.UserID, awarded)
	if err != nil {
		return nil, err
	}
	events = append(events, ledgerEvents...)

	publishAll(h.publisher, events)

	h.log.Info("quiz score recorded",
		logger.UserID(cmd.UserID),
		logger.Int("score", cmd.Score),
		logger.Int("total", cmd.Total),
		logger.XPAmount(awarded),
		logger.Bool("leveled_up", leveledUp),
	)

	return &RecordQuizScoreResult{
		Success:       true,
		AwardedXP:     awarded,
		TotalXP:       ledger.TotalXP.Int(),
		NewLevel:      ledger.Level.Int(),
		LeveledUp:     leveledUp,
		NewBadges:     newBadges,
		CurrentStreak: streak.CurrentStreak,
		RecordedAt:    timestamp,
	}, nil
}

// credit applies the awarded XP to the user's achievement ledger, creating
// the row lazily on first credit. The row version guards against concurrent
// writers; a conflict is surfaced for caller retry so XP is never counted
// twice.
func (h *RecordQuizScoreHandler) credit(
	ctx context.Context,
	userID shared.UserID,
	awarded int,
) (*progress.Achievement, []shared.Event, bool, []string, error) {
	ledger, err := h.achievementRepo.GetAchievement(ctx, userID)
	created := false
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, nil, false, nil, fmt.Errorf("record_quiz_score: failed to load ledger: %w", err)
		}
		ledger = progress.NewAchievement(userID)
		created = true
	}

	if awarded == 0 && !created {
		return ledger, nil, false, nil, nil
	}

	oldLevel := ledger.Level
	leveledUp, newBadges, err := ledger.AddExperience(awarded)
	if err != nil {
		return nil, nil, false, nil, err
	}

	if created {
		err = h.achievementRepo.CreateAchievement(ctx, ledger)
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the insert race: another submission created the row first.
			return nil, nil, false, nil, shared.ErrStaleAchievement
		}
	} else {
		err = h.achievementRepo.UpdateAchievement(ctx, ledger)
	}
	if err != nil {
		return nil, nil, false, nil, fmt.Errorf("record_quiz_score: failed to save ledger: %w", err)
	}

	events := make([]shared.Event, 0, 2+len(newBadges))
	if awarded > 0 {
		events = append(events, shared.NewXPGainedEvent(userID, awarded, ledger.TotalXP.Int(), "quiz"))
	}
	if leveledUp {
		events = append(events, shared.NewLevelUpEvent(userID, oldLevel, ledger.Level, ledger.TotalXP))
	}
	for _, badge := range newBadges {
		events = append(events, shared.NewBadgeGrantedEvent(userID, badge))
	}

	return ledger, events, leveledUp, newBadges, nil
}
