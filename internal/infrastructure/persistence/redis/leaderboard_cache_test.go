package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

func TestSortBoardEntries_TiesOrderByUserID(t *testing.T) {
	// Reverse-lex ZSET order would put 19 before 12; the board order
	// must put the smaller user id first, same as the SQL path.
	entries := []leaderboard.Entry{
		{UserID: 19, Score: 500},
		{UserID: 3, Score: 800},
		{UserID: 12, Score: 500},
	}

	sortBoardEntries(entries)

	require.Len(t, entries, 3)
	assert.Equal(t, shared.UserID(3), entries[0].UserID)
	assert.Equal(t, shared.UserID(12), entries[1].UserID)
	assert.Equal(t, shared.UserID(19), entries[2].UserID)

	for i, e := range entries {
		assert.Equal(t, shared.Rank(i+1), e.Rank)
	}
}

func TestSortBoardEntries_AllTied(t *testing.T) {
	entries := []leaderboard.Entry{
		{UserID: 40, Score: 100},
		{UserID: 7, Score: 100},
		{UserID: 23, Score: 100},
	}

	sortBoardEntries(entries)

	assert.Equal(t, shared.UserID(7), entries[0].UserID)
	assert.Equal(t, shared.UserID(23), entries[1].UserID)
	assert.Equal(t, shared.UserID(40), entries[2].UserID)
}

func TestParseBoardMembers_SkipsGarbage(t *testing.T) {
	members := []redis.Z{
		{Member: "12", Score: 300},
		{Member: "not-a-number", Score: 200},
		{Member: "-5", Score: 100},
		{Member: "19", Score: 300},
	}

	entries := parseBoardMembers(members)

	require.Len(t, entries, 2)
	assert.Equal(t, shared.UserID(12), entries[0].UserID)
	assert.Equal(t, 300, entries[0].Score)
	assert.Equal(t, shared.UserID(19), entries[1].UserID)
}

func TestMergeBoardEntries_Dedupes(t *testing.T) {
	window := []leaderboard.Entry{
		{UserID: 3, Score: 800},
		{UserID: 19, Score: 500},
	}
	tiedGroup := []leaderboard.Entry{
		{UserID: 12, Score: 500},
		{UserID: 19, Score: 500},
	}

	merged := mergeBoardEntries(window, tiedGroup)

	require.Len(t, merged, 3)
	sortBoardEntries(merged)
	assert.Equal(t, shared.UserID(3), merged[0].UserID)
	assert.Equal(t, shared.UserID(12), merged[1].UserID)
	assert.Equal(t, shared.UserID(19), merged[2].UserID)
}

func TestTiedAhead(t *testing.T) {
	tied := []string{"19", "12", "7", "bogus"}

	assert.Equal(t, 0, tiedAhead(tied, 7))
	assert.Equal(t, 1, tiedAhead(tied, 12))
	assert.Equal(t, 2, tiedAhead(tied, 19))
	assert.Equal(t, 3, tiedAhead(tied, 40))
}
