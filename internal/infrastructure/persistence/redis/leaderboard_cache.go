package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache using Redis sorted sets.
// Each board lives in its own ZSET keyed by user id; scores are the
// board metric (total XP or current streak). The sets expire so a cold
// start or missed projection self-heals from PostgreSQL.
type LeaderboardCache struct {
	cache *Cache
}

// NewLeaderboardCache creates a new LeaderboardCache.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

// boardKey returns the ZSET key for a board, e.g. "lb:xp".
func boardKey(board leaderboard.Board) string {
	return PrefixLeaderboard + board.String()
}

// UpdateScore writes a user's score onto a board and refreshes the TTL.
func (c *LeaderboardCache) UpdateScore(ctx context.Context, board leaderboard.Board, userID shared.UserID, score int) error {
	key := boardKey(board)
	member := strconv.FormatInt(userID.Int64(), 10)

	pipe := c.cache.Client().Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(score),
		Member: member,
	})
	pipe.Expire(ctx, key, TTLLeaderboardCache)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update %s board: %w", board, err)
	}

	return nil
}

// Top returns the highest-scoring users on a board. An expired or
// never-populated board yields an empty slice, which callers treat as
// a miss.
//
// Redis orders equal scores by member string, which is not the board
// order (score desc, user id asc) the PostgreSQL path serves. Entries
// are re-sorted so both read paths yield one total order and ties do
// not shuffle when the cache expires.
func (c *LeaderboardCache) Top(ctx context.Context, board leaderboard.Board, limit int) ([]leaderboard.Entry, error) {
	if limit <= 0 {
		return []leaderboard.Entry{}, nil
	}

	client := c.cache.Client()
	key := boardKey(board)

	members, err := client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s board: %w", board, err)
	}

	entries := parseBoardMembers(members)

	// A tie group cut off at the window edge must be completed before
	// sorting, otherwise the wrong tied user survives the truncation.
	if len(members) == limit && len(entries) > 0 {
		edge := entries[len(entries)-1].Score
		scoreArg := strconv.FormatInt(int64(edge), 10)
		tied, err := client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{Min: scoreArg, Max: scoreArg}).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s board ties: %w", board, err)
		}
		entries = mergeBoardEntries(entries, parseBoardMembers(tied))
	}

	sortBoardEntries(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

// parseBoardMembers converts ZSET members into unranked board entries,
// skipping anything that is not a positive user id.
func parseBoardMembers(members []redis.Z) []leaderboard.Entry {
	entries := make([]leaderboard.Entry, 0, len(members))
	for _, m := range members {
		member, ok := m.Member.(string)
		if !ok {
			continue
		}
		userID, err := strconv.ParseInt(member, 10, 64)
		if err != nil || userID <= 0 {
			continue
		}
		entries = append(entries, leaderboard.Entry{
			UserID: shared.UserID(userID),
			Score:  int(m.Score),
		})
	}
	return entries
}

// mergeBoardEntries appends extras not already present.
func mergeBoardEntries(entries, extras []leaderboard.Entry) []leaderboard.Entry {
	seen := make(map[shared.UserID]struct{}, len(entries))
	for _, e := range entries {
		seen[e.UserID] = struct{}{}
	}
	for _, e := range extras {
		if _, ok := seen[e.UserID]; !ok {
			entries = append(entries, e)
		}
	}
	return entries
}

// sortBoardEntries establishes the board order shared with PostgreSQL:
// score descending, then user id ascending, and assigns ranks 1..n.
func sortBoardEntries(entries []leaderboard.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	for i := range entries {
		entries[i].Rank = shared.Rank(i + 1)
	}
}

// Rank returns one user's position on a board. A cold board returns
// ErrCacheMiss so the caller falls back to PostgreSQL; a warm board
// without the user returns Unranked.
func (c *LeaderboardCache) Rank(ctx context.Context, board leaderboard.Board, userID shared.UserID) (leaderboard.RankInfo, error) {
	key := boardKey(board)
	member := strconv.FormatInt(userID.Int64(), 10)
	client := c.cache.Client()

	total, err := client.ZCard(ctx, key).Result()
	if err != nil {
		return leaderboard.RankInfo{}, fmt.Errorf("failed to size %s board: %w", board, err)
	}
	if total == 0 {
		return leaderboard.RankInfo{}, ErrCacheMiss
	}

	info := leaderboard.RankInfo{
		UserID:     userID,
		Board:      board,
		Rank:       shared.Unranked,
		TotalUsers: int(total),
	}

	score, err := client.ZScore(ctx, key, member).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return info, nil
		}
		return leaderboard.RankInfo{}, fmt.Errorf("failed to read score on %s board: %w", board, err)
	}

	// ZREVRANK breaks ties by member string; the board order breaks
	// them by user id ascending, same as PostgreSQL. Count users with
	// a strictly higher score, then tied users ahead by id.
	scoreArg := strconv.FormatFloat(score, 'f', -1, 64)
	higher, err := client.ZCount(ctx, key, "("+scoreArg, "+inf").Result()
	if err != nil {
		return leaderboard.RankInfo{}, fmt.Errorf("failed to rank on %s board: %w", board, err)
	}

	tied, err := client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: scoreArg, Max: scoreArg}).Result()
	if err != nil {
		return leaderboard.RankInfo{}, fmt.Errorf("failed to read %s board ties: %w", board, err)
	}

	info.Rank = shared.Rank(higher + int64(tiedAhead(tied, userID.Int64())) + 1)
	info.Score = int(score)
	return info, nil
}

// tiedAhead counts tied members whose user id sorts before target.
func tiedAhead(members []string, target int64) int {
	ahead := 0
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		if id < target {
			ahead++
		}
	}
	return ahead
}

// Invalidate drops a board entirely. The next read repopulates it from
// PostgreSQL via the fallback path.
func (c *LeaderboardCache) Invalidate(ctx context.Context, board leaderboard.Board) error {
	return c.cache.Delete(ctx, boardKey(board))
}
