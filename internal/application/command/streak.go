// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK TOUCH
// Every qualifying activity (completion transition, review, quiz submission)
// advances the user's daily streak through this single code path.
// ══════════════════════════════════════════════════════════════════════════════

// streakTouch applies one qualifying activity to the user's streak row and
// returns the resulting state together with the domain events to publish.
// Lost updates are detected via the row version; the conflict is surfaced to
// the caller for retry, never retried here.
func streakTouch(
	ctx context.Context,
	repo progress.StreakRepository,
	userID shared.UserID,
	activityAt time.Time,
) (*progress.Streak, progress.StreakOutcome, []shared.Event, error) {
	current, err := repo.GetStreak(ctx, userID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, 0, nil, fmt.Errorf("touch_streak: failed to load streak: %w", err)
		}
		current = progress.NewStreak(userID)
	}

	previous := current.CurrentStreak
	next, outcome := progress.NextStreak(*current, activityAt)

	if !outcome.Mutated() {
		return current, outcome, nil, nil
	}

	if outcome == progress.StreakStarted && current.LastActivityDate.IsZero() && current.Version == 0 {
		err = repo.CreateStreak(ctx, &next)
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the insert race: another event created the row first.
			return nil, 0, nil, shared.ErrStaleStreak
		}
	} else {
		err = repo.UpdateStreak(ctx, &next)
	}
	if err != nil {
		return nil, 0, nil, fmt.Errorf("touch_streak: failed to save streak: %w", err)
	}

	events := make([]shared.Event, 0, 2)
	events = append(events, shared.NewStreakUpdatedEvent(
		userID,
		next.CurrentStreak,
		next.LongestStreak,
		timeutil.FormatDate(next.LastActivityDate),
	))

	if outcome == progress.StreakReset && previous > 1 {
		daysMissed := timeutil.DaysBetween(current.LastActivityDate, next.LastActivityDate) - 1
		events = append(events, shared.NewStreakBrokenEvent(userID, previous, daysMissed))
	}

	return &next, outcome, events, nil
}

// publishAll publishes events best-effort: a publishing failure must never
// fail the command that produced the events.
func publishAll(publisher shared.EventPublisher, events []shared.Event) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		_ = publisher.Publish(event)
	}
}
