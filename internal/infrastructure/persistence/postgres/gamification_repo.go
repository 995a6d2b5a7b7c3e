package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements progress.StreakRepository for PostgreSQL.
// Updates are guarded by the version column: a version mismatch means a
// concurrent writer won, and the caller is expected to reload and retry.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

// GetStreak returns the streak row for a user.
func (r *StreakRepository) GetStreak(ctx context.Context, userID shared.UserID) (*progress.Streak, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, last_activity_date, version
		FROM streaks
		WHERE user_id = $1
	`

	var (
		uid              int64
		s                progress.Streak
		lastActivityDate *time.Time
	)
	err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(
		&uid,
		&s.CurrentStreak,
		&s.LongestStreak,
		&lastActivityDate,
		&s.Version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrStreakNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	s.UserID = shared.UserID(uid)
	if lastActivityDate != nil {
		s.LastActivityDate = lastActivityDate.UTC()
	}

	return &s, nil
}

// CreateStreak inserts a new streak row with version 1.
// Returns shared.ErrAlreadyExists when another writer inserted first.
func (r *StreakRepository) CreateStreak(ctx context.Context, s *progress.Streak) error {
	query := `
		INSERT INTO streaks (user_id, current_streak, longest_streak, last_activity_date, version)
		VALUES ($1, $2, $3, $4, 1)
	`

	_, err := r.conn.Exec(ctx, query,
		s.UserID.Int64(),
		s.CurrentStreak,
		s.LongestStreak,
		activityDate(s.LastActivityDate),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create streak: %w", err)
	}

	s.Version = 1
	return nil
}

// UpdateStreak writes the streak row if the version still matches.
// Returns shared.ErrStaleStreak when the row changed underneath us.
func (r *StreakRepository) UpdateStreak(ctx context.Context, s *progress.Streak) error {
	query := `
		UPDATE streaks
		SET current_streak = $3,
			longest_streak = $4,
			last_activity_date = $5,
			version = version + 1
		WHERE user_id = $1 AND version = $2
	`

	tag, err := r.conn.Exec(ctx, query,
		s.UserID.Int64(),
		s.Version,
		s.CurrentStreak,
		s.LongestStreak,
		activityDate(s.LastActivityDate),
	)
	if err != nil {
		return fmt.Errorf("failed to update streak: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStaleStreak
	}

	s.Version++
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepository implements progress.AchievementRepository for
// PostgreSQL, with the same optimistic locking scheme as streaks.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

// GetAchievement returns the gamification ledger row for a user.
func (r *AchievementRepository) GetAchievement(ctx context.Context, userID shared.UserID) (*progress.Achievement, error) {
	query := `
		SELECT user_id, total_xp, level, badges, version
		FROM achievements
		WHERE user_id = $1
	`

	var (
		uid        int64
		totalXP    int
		level      int
		badgesJSON []byte
		version    int
	)
	err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(
		&uid,
		&totalXP,
		&level,
		&badgesJSON,
		&version,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("failed to get achievement ledger: %w", err)
	}

	var badges []string
	if err := json.Unmarshal(badgesJSON, &badges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}

	return &progress.Achievement{
		UserID:  shared.UserID(uid),
		TotalXP: shared.XP(totalXP),
		Level:   shared.Level(level),
		Badges:  badges,
		Version: version,
	}, nil
}

// CreateAchievement inserts a new ledger row with version 1.
// Returns shared.ErrAlreadyExists when another writer inserted first.
func (r *AchievementRepository) CreateAchievement(ctx context.Context, a *progress.Achievement) error {
	badgesJSON, err := marshalBadges(a.Badges)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO achievements (user_id, total_xp, level, badges, version)
		VALUES ($1, $2, $3, $4, 1)
	`

	_, err = r.conn.Exec(ctx, query,
		a.UserID.Int64(),
		a.TotalXP.Int(),
		a.Level.Int(),
		badgesJSON,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create achievement ledger: %w", err)
	}

	a.Version = 1
	return nil
}

// UpdateAchievement writes the ledger row if the version still matches.
// Returns shared.ErrStaleAchievement when the row changed underneath us.
func (r *AchievementRepository) UpdateAchievement(ctx context.Context, a *progress.Achievement) error {
	badgesJSON, err := marshalBadges(a.Badges)
	if err != nil {
		return err
	}

	query := `
		UPDATE achievements
		SET total_xp = $3,
			level = $4,
			badges = $5,
			version = version + 1
		WHERE user_id = $1 AND version = $2
	`

	tag, err := r.conn.Exec(ctx, query,
		a.UserID.Int64(),
		a.Version,
		a.TotalXP.Int(),
		a.Level.Int(),
		badgesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to update achievement ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStaleAchievement
	}

	a.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// activityDate converts the domain's zero time into a SQL NULL.
func activityDate(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

// marshalBadges serializes badges as a JSON array, never as null.
func marshalBadges(badges []string) ([]byte, error) {
	if badges == nil {
		badges = []string{}
	}
	data, err := json.Marshal(badges)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal badges: %w", err)
	}
	return data, nil
}
