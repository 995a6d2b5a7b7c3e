package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func newCompletionHandler() (*RecordCompletionHandler, *fakeFactRepo, *fakeStreakRepo, *capturePublisher) {
	facts := newFakeFactRepo()
	streaks := newFakeStreakRepo()
	pub := &capturePublisher{}
	return NewRecordCompletionHandler(facts, streaks, pub, nil), facts, streaks, pub
}

func TestRecordCompletion_FirstCompletionStartsStreak(t *testing.T) {
	h, _, streaks, pub := newCompletionHandler()

	res, err := h.Handle(context.Background(), RecordCompletionCommand{
		UserID:    1,
		AudibleID: 10,
		TopicID:   3,
		Completed: true,
		Timestamp: day(2024, 1, 1),
	})

	assert.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.BecameCompleted)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, "started", res.StreakOutcome)

	stored, err := streaks.GetStreak(context.Background(), shared.UserID(1))
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStreak)
	assert.Equal(t, 1, stored.LongestStreak)

	assert.Len(t, pub.byType(shared.EventCompletionRecorded), 1)
	assert.Len(t, pub.byType(shared.EventStreakUpdated), 1)
}

func TestRecordCompletion_ReplayIsIdempotent(t *testing.T) {
	h, facts, _, _ := newCompletionHandler()
	ctx := context.Background()

	cmd := RecordCompletionCommand{
		UserID:    1,
		AudibleID: 10,
		TopicID:   3,
		Completed: true,
		Timestamp: day(2024, 1, 1),
	}

	first, err := h.Handle(ctx, cmd)
	assert.NoError(t, err)
	assert.True(t, first.BecameCompleted)

	second, err := h.Handle(ctx, cmd)
	assert.NoError(t, err)
	assert.False(t, second.BecameCompleted)
	assert.Equal(t, "unchanged", second.StreakOutcome)

	count, err := facts.CountCompleted(ctx, shared.UserID(1))
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordCompletion_ConsecutiveDaysGrowStreak(t *testing.T) {
	h, _, streaks, _ := newCompletionHandler()
	ctx := context.Background()

	// Existing streak of 3 ending 2024-01-01.
	err := streaks.CreateStreak(ctx, &progress.Streak{
		UserID:           1,
		CurrentStreak:    3,
		LongestStreak:    3,
		LastActivityDate: day(2024, 1, 1).Truncate(24 * time.Hour),
	})
	assert.NoError(t, err)

	res, err := h.Handle(ctx, RecordCompletionCommand{
		UserID:    1,
		AudibleID: 20,
		TopicID:   3,
		Completed: true,
		Timestamp: day(2024, 1, 2),
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, res.CurrentStreak)
	assert.Equal(t, "extended", res.StreakOutcome)

	// A second audible later the same day leaves the streak alone.
	res, err = h.Handle(ctx, RecordCompletionCommand{
		UserID:    1,
		AudibleID: 21,
		TopicID:   3,
		Completed: true,
		Timestamp: day(2024, 1, 2).Add(5 * time.Hour),
	})
	assert.NoError(t, err)
	assert.Equal(t, "unchanged", res.StreakOutcome)

	stored, _ := streaks.GetStreak(ctx, shared.UserID(1))
	assert.Equal(t, 4, stored.CurrentStreak)

	// A three-day gap resets the current streak but keeps the longest.
	res, err = h.Handle(ctx, RecordCompletionCommand{
		UserID:    1,
		AudibleID: 22,
		TopicID:   3,
		Completed: true,
		Timestamp: day(2024, 1, 5),
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, res.CurrentStreak)
	assert.Equal(t, "reset", res.StreakOutcome)

	stored, _ = streaks.GetStreak(ctx, shared.UserID(1))
	assert.Equal(t, 1, stored.CurrentStreak)
	assert.Equal(t, 4, stored.LongestStreak)
}

func TestRecordCompletion_UncompletedDoesNotTouchStreak(t *testing.T) {
	h, _, streaks, _ := newCompletionHandler()

	res, err := h.Handle(context.Background(), RecordCompletionCommand{
		UserID:    1,
		AudibleID: 10,
		TopicID:   3,
		Completed: false,
		Timestamp: day(2024, 1, 1),
	})

	assert.NoError(t, err)
	assert.False(t, res.BecameCompleted)
	assert.Equal(t, 0, res.CurrentStreak)

	_, err = streaks.GetStreak(context.Background(), shared.UserID(1))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRecordCompletion_Validation(t *testing.T) {
	h, _, _, _ := newCompletionHandler()

	tests := []struct {
		name string
		cmd  RecordCompletionCommand
	}{
		{"zero user", RecordCompletionCommand{UserID: 0, AudibleID: 1, TopicID: 1}},
		{"negative audible", RecordCompletionCommand{UserID: 1, AudibleID: -4, TopicID: 1}},
		{"zero topic", RecordCompletionCommand{UserID: 1, AudibleID: 1, TopicID: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.cmd)
			assert.True(t, shared.IsValidation(err))
		})
	}
}
