package postgres

import (
	"context"
	"fmt"

	"github.com/audira-hub/audira-progress-hub/internal/domain/progress"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FACT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// FactRepository implements progress.FactRepository for PostgreSQL.
type FactRepository struct {
	conn *Connection
}

// NewFactRepository creates a new FactRepository.
func NewFactRepository(conn *Connection) *FactRepository {
	return &FactRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// Writes
// ─────────────────────────────────────────────────────────────────────────────

// UpsertCompletion stores the completion state for (user, audible) and
// reports whether this write transitioned the record to completed.
// The prev CTE reads the pre-statement row, so the transition flag is
// computed atomically with the upsert.
func (r *FactRepository) UpsertCompletion(ctx context.Context, rec *progress.CompletionRecord) (bool, error) {
	query := `
		WITH prev AS (
			SELECT is_completed
			FROM completion_records
			WHERE user_id = $1 AND audible_id = $2
		), upserted AS (
			INSERT INTO completion_records (
				user_id, audible_id, topic_id, is_completed, completed_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, audible_id) DO UPDATE SET
				topic_id = EXCLUDED.topic_id,
				is_completed = EXCLUDED.is_completed,
				completed_at = EXCLUDED.completed_at,
				updated_at = EXCLUDED.updated_at
			RETURNING is_completed
		)
		SELECT upserted.is_completed AND NOT COALESCE((SELECT prev.is_completed FROM prev), FALSE)
		FROM upserted
	`

	var completedAt interface{}
	if !rec.CompletedAt.IsZero() {
		completedAt = rec.CompletedAt
	}

	var becameCompleted bool
	err := r.conn.QueryRow(ctx, query,
		rec.UserID.Int64(),
		rec.AudibleID.Int64(),
		rec.TopicID.Int64(),
		rec.IsCompleted,
		completedAt,
		rec.UpdatedAt,
	).Scan(&becameCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert completion record: %w", err)
	}

	return becameCompleted, nil
}

// UpsertReview stores the review state for (user, card). Repeat reviews
// refresh the timestamp in place.
func (r *FactRepository) UpsertReview(ctx context.Context, review *progress.FlashcardReview) error {
	query := `
		INSERT INTO flashcard_reviews (user_id, card_id, reviewed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, card_id) DO UPDATE SET
			reviewed_at = EXCLUDED.reviewed_at
	`

	_, err := r.conn.Exec(ctx, query,
		review.UserID.Int64(),
		review.CardID.Int64(),
		review.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert flashcard review: %w", err)
	}

	return nil
}

// AppendQuizScore records a quiz attempt. Attempts are append-only.
func (r *FactRepository) AppendQuizScore(ctx context.Context, score *progress.QuizScore) error {
	query := `
		INSERT INTO quiz_scores (user_id, topic_id, score, total, taken_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.conn.QueryRow(ctx, query,
		score.UserID.Int64(),
		score.TopicID.Int64(),
		score.Score,
		score.Total,
		score.TakenAt,
	).Scan(&score.ID)
	if err != nil {
		return fmt.Errorf("failed to append quiz score: %w", err)
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reads
// ─────────────────────────────────────────────────────────────────────────────

// CountCompleted returns how many audio lessons the user has completed.
func (r *FactRepository) CountCompleted(ctx context.Context, userID shared.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM completion_records
		WHERE user_id = $1 AND is_completed
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed audibles: %w", err)
	}

	return count, nil
}

// CountCompletedInTopic returns completed audio lessons within a topic.
func (r *FactRepository) CountCompletedInTopic(ctx context.Context, userID shared.UserID, topicID shared.TopicID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM completion_records
		WHERE user_id = $1 AND topic_id = $2 AND is_completed
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID.Int64(), topicID.Int64()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count completed audibles in topic: %w", err)
	}

	return count, nil
}

// CountReviews returns how many distinct flashcards the user has reviewed.
func (r *FactRepository) CountReviews(ctx context.Context, userID shared.UserID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM flashcard_reviews
		WHERE user_id = $1
	`

	var count int
	if err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count flashcard reviews: %w", err)
	}

	return count, nil
}

// QuizStats returns the number of quiz attempts and the best score in
// percent across all attempts.
func (r *FactRepository) QuizStats(ctx context.Context, userID shared.UserID) (int, shared.Percentage, error) {
	query := `
		SELECT COUNT(*),
			   COALESCE(MAX(score * 100 / total), 0)
		FROM quiz_scores
		WHERE user_id = $1
	`

	var count, best int
	if err := r.conn.QueryRow(ctx, query, userID.Int64()).Scan(&count, &best); err != nil {
		return 0, 0, fmt.Errorf("failed to read quiz stats: %w", err)
	}

	return count, shared.Percentage(best), nil
}

// RecentQuizScores returns the user's latest quiz attempts, newest first.
func (r *FactRepository) RecentQuizScores(ctx context.Context, userID shared.UserID, limit int) ([]*progress.QuizScore, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, topic_id, score, total, taken_at
		FROM quiz_scores
		WHERE user_id = $1
		ORDER BY taken_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID.Int64(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent quiz scores: %w", err)
	}
	defer rows.Close()

	var scores []*progress.QuizScore
	for rows.Next() {
		var s progress.QuizScore
		var uid, tid int64
		if err := rows.Scan(&s.ID, &uid, &tid, &s.Score, &s.Total, &s.TakenAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz score: %w", err)
		}
		s.UserID = shared.UserID(uid)
		s.TopicID = shared.TopicID(tid)
		scores = append(scores, &s)
	}

	return scores, rows.Err()
}
