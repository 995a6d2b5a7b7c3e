package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

type cacheWrite struct {
	board  leaderboard.Board
	userID shared.UserID
	score  int
}

type fakeCache struct {
	writes []cacheWrite
	err    error
}

func (c *fakeCache) UpdateScore(_ context.Context, board leaderboard.Board, userID shared.UserID, score int) error {
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, cacheWrite{board: board, userID: userID, score: score})
	return nil
}

func (c *fakeCache) Top(context.Context, leaderboard.Board, int) ([]leaderboard.Entry, error) {
	return nil, nil
}

func (c *fakeCache) Rank(context.Context, leaderboard.Board, shared.UserID) (leaderboard.RankInfo, error) {
	return leaderboard.RankInfo{}, nil
}

func (c *fakeCache) Invalidate(context.Context, leaderboard.Board) error {
	return nil
}

type capturePublisher struct {
	events []shared.Event
}

func (p *capturePublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

// payloadEvent mimics an event that arrived over the wire: only the
// payload map is available, numbers decoded as float64.
type payloadEvent struct {
	eventType shared.EventType
	payload   map[string]interface{}
}

func (e payloadEvent) EventType() shared.EventType     { return e.eventType }
func (e payloadEvent) OccurredAt() time.Time           { return time.Now() }
func (e payloadEvent) AggregateID() string             { return "7" }
func (e payloadEvent) Payload() map[string]interface{} { return e.payload }

func TestLeaderboardProjector_XPGained(t *testing.T) {
	cache := &fakeCache{}
	pub := &capturePublisher{}
	projector := NewLeaderboardProjector(cache, pub, nil)

	err := projector.HandleXPGained(shared.NewXPGainedEvent(7, 100, 1050, "quiz"))

	require.NoError(t, err)
	require.Len(t, cache.writes, 1)
	assert.Equal(t, leaderboard.BoardXP, cache.writes[0].board)
	assert.Equal(t, shared.UserID(7), cache.writes[0].userID)
	assert.Equal(t, 1050, cache.writes[0].score)

	require.Len(t, pub.events, 1)
	assert.Equal(t, shared.EventLeaderboardUpdated, pub.events[0].EventType())
}

func TestLeaderboardProjector_StreakUpdated(t *testing.T) {
	cache := &fakeCache{}
	projector := NewLeaderboardProjector(cache, nil, nil)

	err := projector.HandleStreakUpdated(shared.NewStreakUpdatedEvent(7, 4, 9, "2024-03-01"))

	require.NoError(t, err)
	require.Len(t, cache.writes, 1)
	assert.Equal(t, leaderboard.BoardStreak, cache.writes[0].board)
	assert.Equal(t, 4, cache.writes[0].score)
}

func TestLeaderboardProjector_RemotePayloadEvent(t *testing.T) {
	cache := &fakeCache{}
	projector := NewLeaderboardProjector(cache, nil, nil)

	err := projector.HandleXPGained(payloadEvent{
		eventType: shared.EventXPGained,
		payload: map[string]interface{}{
			"user_id":   float64(7),
			"new_total": float64(1050),
		},
	})

	require.NoError(t, err)
	require.Len(t, cache.writes, 1)
	assert.Equal(t, 1050, cache.writes[0].score)
}

func TestLeaderboardProjector_MalformedPayload(t *testing.T) {
	cache := &fakeCache{}
	projector := NewLeaderboardProjector(cache, nil, nil)

	err := projector.HandleXPGained(payloadEvent{
		eventType: shared.EventXPGained,
		payload:   map[string]interface{}{"user_id": "seven"},
	})

	require.Error(t, err)
	assert.Empty(t, cache.writes)
}

func TestLeaderboardProjector_CacheFailureIsReturned(t *testing.T) {
	cache := &fakeCache{err: errors.New("connection refused")}
	projector := NewLeaderboardProjector(cache, nil, nil)

	err := projector.HandleXPGained(shared.NewXPGainedEvent(7, 100, 1050, "quiz"))
	assert.Error(t, err)
}

func TestLeaderboardProjector_Register(t *testing.T) {
	bus := &fakeSubscriber{}
	projector := NewLeaderboardProjector(&fakeCache{}, nil, nil)

	require.NoError(t, projector.Register(bus))
	assert.ElementsMatch(t,
		[]shared.EventType{shared.EventXPGained, shared.EventStreakUpdated},
		bus.types,
	)
}

type fakeSubscriber struct {
	types []shared.EventType
}

func (s *fakeSubscriber) Subscribe(eventType shared.EventType, _ shared.EventHandler) error {
	s.types = append(s.types, eventType)
	return nil
}

func (s *fakeSubscriber) SubscribeAll(shared.EventHandler) error {
	return nil
}
