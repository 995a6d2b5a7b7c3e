package postgres

import (
	"context"
	"fmt"

	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
// It computes boards directly from the gamification tables; the Redis
// cache in front of it serves the hot path.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// TopByExperience returns the top users ordered by total XP.
// Ties are broken by user id so the ordering is stable.
func (r *LeaderboardRepository) TopByExperience(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	if limit <= 0 {
		return []leaderboard.Entry{}, nil
	}

	query := `
		SELECT user_id, total_xp,
			   ROW_NUMBER() OVER (ORDER BY total_xp DESC, user_id ASC)
		FROM achievements
		WHERE total_xp > 0
		ORDER BY total_xp DESC, user_id ASC
		LIMIT $1
	`

	return r.queryEntries(ctx, query, limit)
}

// TopByStreak returns the top users ordered by current streak length.
func (r *LeaderboardRepository) TopByStreak(ctx context.Context, limit int) ([]leaderboard.Entry, error) {
	if limit <= 0 {
		return []leaderboard.Entry{}, nil
	}

	query := `
		SELECT user_id, current_streak,
			   ROW_NUMBER() OVER (ORDER BY current_streak DESC, user_id ASC)
		FROM streaks
		WHERE current_streak > 0
		ORDER BY current_streak DESC, user_id ASC
		LIMIT $1
	`

	return r.queryEntries(ctx, query, limit)
}

// UserRank returns the position of one user on a board. Users without a
// row on the board come back Unranked rather than as an error.
func (r *LeaderboardRepository) UserRank(ctx context.Context, board leaderboard.Board, userID shared.UserID) (leaderboard.RankInfo, error) {
	var query string
	switch board {
	case leaderboard.BoardStreak:
		query = `
			WITH ranked AS (
				SELECT user_id, current_streak AS score,
					   ROW_NUMBER() OVER (ORDER BY current_streak DESC, user_id ASC) AS position,
					   COUNT(*) OVER () AS total
				FROM streaks
				WHERE current_streak > 0
			)
			SELECT score, position, total FROM ranked WHERE user_id = $1
		`
	default:
		query = `
			WITH ranked AS (
				SELECT user_id, total_xp AS score,
					   ROW_NUMBER() OVER (ORDER BY total_xp DESC, user_id ASC) AS position,
					   COUNT(*) OVER () AS total
				FROM achievements
				WHERE total_xp > 0
			)
			SELECT score, position, total FROM ranked WHERE user_id = $1
		`
	}

	info := leaderboard.RankInfo{
		UserID: userID,
		Board:  board,
		Rank:   shared.Unranked,
	}

	var (
		score    int
		position int64
		total    int64
	)
	err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&score, &position, &total)
	if err != nil {
		if IsNoRows(err) {
			total, countErr := r.boardSize(ctx, board)
			if countErr != nil {
				return leaderboard.RankInfo{}, countErr
			}
			info.TotalUsers = total
			return info, nil
		}
		return leaderboard.RankInfo{}, fmt.Errorf("failed to query user rank: %w", err)
	}

	info.Rank = shared.Rank(position)
	info.Score = score
	info.TotalUsers = int(total)
	return info, nil
}

// boardSize returns how many users are present on a board.
func (r *LeaderboardRepository) boardSize(ctx context.Context, board leaderboard.Board) (int, error) {
	var query string
	switch board {
	case leaderboard.BoardStreak:
		query = `SELECT COUNT(*) FROM streaks WHERE current_streak > 0`
	default:
		query = `SELECT COUNT(*) FROM achievements WHERE total_xp > 0`
	}

	var total int
	if err := r.conn.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count board users: %w", err)
	}

	return total, nil
}

// queryEntries runs a board query and scans the result rows.
func (r *LeaderboardRepository) queryEntries(ctx context.Context, query string, limit int) ([]leaderboard.Entry, error) {
	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]leaderboard.Entry, 0, limit)
	for rows.Next() {
		var (
			uid      int64
			score    int
			position int64
		)
		if err := rows.Scan(&uid, &score, &position); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, leaderboard.Entry{
			UserID: shared.UserID(uid),
			Score:  score,
			Rank:   shared.Rank(position),
		})
	}

	return entries, rows.Err()
}
