// Package eventhandler contains event subscribers that project domain
// events into secondary read models, such as the cached leaderboards.
package eventhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

// LeaderboardProjector keeps the cached leaderboards in sync with the
// gamification ledger by listening to XP and streak events. Cache writes
// are best-effort: a failed projection is logged and the next event for
// the same user repairs the score.
type LeaderboardProjector struct {
	cache     leaderboard.Cache
	publisher shared.EventPublisher
	timeout   time.Duration
	log       *logger.Logger
}

// NewLeaderboardProjector creates a new projector writing to the given cache.
// The publisher is optional; when set, a leaderboard.updated event is
// emitted after every successful projection.
func NewLeaderboardProjector(cache leaderboard.Cache, publisher shared.EventPublisher, log *logger.Logger) *LeaderboardProjector {
	if log == nil {
		log = logger.Default()
	}
	return &LeaderboardProjector{
		cache:     cache,
		publisher: publisher,
		timeout:   5 * time.Second,
		log:       log.With(logger.Component("leaderboard_projector")),
	}
}

// Register subscribes the projector to the events it cares about.
func (p *LeaderboardProjector) Register(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventXPGained, p.HandleXPGained); err != nil {
		return fmt.Errorf("subscribe xp gained: %w", err)
	}
	if err := bus.Subscribe(shared.EventStreakUpdated, p.HandleStreakUpdated); err != nil {
		return fmt.Errorf("subscribe streak updated: %w", err)
	}
	return nil
}

// HandleXPGained projects the new XP total onto the experience board.
func (p *LeaderboardProjector) HandleXPGained(event shared.Event) error {
	userID, score, err := extract(event, "new_total")
	if err != nil {
		return err
	}
	return p.project(leaderboard.BoardXP, userID, score)
}

// HandleStreakUpdated projects the current streak onto the streak board.
func (p *LeaderboardProjector) HandleStreakUpdated(event shared.Event) error {
	userID, score, err := extract(event, "current_streak")
	if err != nil {
		return err
	}
	return p.project(leaderboard.BoardStreak, userID, score)
}

func (p *LeaderboardProjector) project(board leaderboard.Board, userID shared.UserID, score int) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.cache.UpdateScore(ctx, board, userID, score); err != nil {
		p.log.Warn("leaderboard cache update failed",
			logger.String("board", board.String()),
			logger.UserID(userID.Int64()),
			logger.Err(err),
		)
		return fmt.Errorf("update %s board: %w", board, err)
	}

	if p.publisher != nil {
		updated := shared.NewLeaderboardUpdatedEvent(userID, board.String(), score)
		if err := p.publisher.Publish(updated); err != nil {
			p.log.Warn("failed to publish leaderboard update", logger.Err(err))
		}
	}

	return nil
}

// extract reads the user and the score field from an event. Events may
// arrive as concrete structs (local bus) or as payload maps (remote bus),
// so both the struct fields and the payload are consulted.
func extract(event shared.Event, scoreField string) (shared.UserID, int, error) {
	switch e := event.(type) {
	case shared.XPGainedEvent:
		return shared.UserID(e.UserID), e.NewTotal, nil
	case shared.StreakUpdatedEvent:
		return shared.UserID(e.UserID), e.CurrentStreak, nil
	}

	payload := event.Payload()
	userID, ok := toInt64(payload["user_id"])
	if !ok || userID <= 0 {
		return 0, 0, fmt.Errorf("event %s: missing user_id in payload", event.EventType())
	}
	score, ok := toInt64(payload[scoreField])
	if !ok {
		return 0, 0, fmt.Errorf("event %s: missing %s in payload", event.EventType(), scoreField)
	}
	return shared.UserID(userID), int(score), nil
}

// toInt64 converts payload values that may arrive as int, int64 or,
// after a JSON round trip, float64.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
