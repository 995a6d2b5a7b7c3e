package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

func newReviewHandler() (*RecordFlashcardReviewHandler, *fakeFactRepo, *fakeStreakRepo, *capturePublisher) {
	facts := newFakeFactRepo()
	streaks := newFakeStreakRepo()
	pub := &capturePublisher{}
	return NewRecordFlashcardReviewHandler(facts, streaks, pub, nil), facts, streaks, pub
}

func TestRecordReview_FirstReviewStartsStreak(t *testing.T) {
	h, _, streaks, pub := newReviewHandler()

	res, err := h.Handle(context.Background(), RecordFlashcardReviewCommand{
		UserID:    1,
		CardID:    5,
		Timestamp: day(2024, 1, 1),
	})

	assert.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.CurrentStreak)

	stored, err := streaks.GetStreak(context.Background(), shared.UserID(1))
	assert.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentStreak)

	assert.Len(t, pub.byType(shared.EventReviewRecorded), 1)
}

func TestRecordReview_RereviewUpdatesInPlace(t *testing.T) {
	h, facts, _, _ := newReviewHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, RecordFlashcardReviewCommand{UserID: 1, CardID: 5, Timestamp: day(2024, 1, 1)})
	assert.NoError(t, err)
	_, err = h.Handle(ctx, RecordFlashcardReviewCommand{UserID: 1, CardID: 5, Timestamp: day(2024, 1, 2)})
	assert.NoError(t, err)

	count, err := facts.CountReviews(ctx, shared.UserID(1))
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	stored := facts.reviews[reviewKey{shared.UserID(1), shared.CardID(5)}]
	assert.Equal(t, day(2024, 1, 2), stored.ReviewedAt)
}

func TestRecordReview_EveryReviewTouchesStreak(t *testing.T) {
	h, _, streaks, _ := newReviewHandler()
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		_, err := h.Handle(ctx, RecordFlashcardReviewCommand{
			UserID:    1,
			CardID:    int64(d),
			Timestamp: day(2024, 1, d),
		})
		assert.NoError(t, err)
	}

	stored, _ := streaks.GetStreak(ctx, shared.UserID(1))
	assert.Equal(t, 3, stored.CurrentStreak)
	assert.Equal(t, 3, stored.LongestStreak)
}

func TestRecordReview_BackdatedEventIgnored(t *testing.T) {
	h, _, streaks, _ := newReviewHandler()
	ctx := context.Background()

	_, err := h.Handle(ctx, RecordFlashcardReviewCommand{UserID: 1, CardID: 1, Timestamp: day(2024, 1, 10)})
	assert.NoError(t, err)

	res, err := h.Handle(ctx, RecordFlashcardReviewCommand{UserID: 1, CardID: 2, Timestamp: day(2024, 1, 8)})
	assert.NoError(t, err)
	assert.Equal(t, "ignored", res.StreakOutcome)
	assert.Equal(t, 1, res.CurrentStreak)

	stored, _ := streaks.GetStreak(ctx, shared.UserID(1))
	assert.Equal(t, day(2024, 1, 10).Truncate(24*time.Hour), stored.LastActivityDate)
}

func TestRecordReview_Validation(t *testing.T) {
	h, _, _, _ := newReviewHandler()

	_, err := h.Handle(context.Background(), RecordFlashcardReviewCommand{UserID: 0, CardID: 5})
	assert.True(t, shared.IsValidation(err))

	_, err = h.Handle(context.Background(), RecordFlashcardReviewCommand{UserID: 1, CardID: 0})
	assert.True(t, shared.IsValidation(err))
}
