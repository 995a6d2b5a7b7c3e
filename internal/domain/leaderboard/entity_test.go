package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

func TestParseBoard(t *testing.T) {
	b, err := ParseBoard("xp")
	assert.NoError(t, err)
	assert.Equal(t, BoardXP, b)

	b, err = ParseBoard("streak")
	assert.NoError(t, err)
	assert.Equal(t, BoardStreak, b)

	_, err = ParseBoard("karma")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRankInfo_Percentile(t *testing.T) {
	tests := []struct {
		name string
		info RankInfo
		want int
	}{
		{"first of hundred", RankInfo{Rank: 1, TotalUsers: 100}, 100},
		{"last of hundred", RankInfo{Rank: 100, TotalUsers: 100}, 1},
		{"middle", RankInfo{Rank: 50, TotalUsers: 100}, 51},
		{"unranked", RankInfo{Rank: shared.Unranked, TotalUsers: 100}, 0},
		{"empty board", RankInfo{Rank: 1, TotalUsers: 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.Percentile())
		})
	}
}
