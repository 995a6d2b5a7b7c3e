// Package postgres implements the PostgreSQL persistence layer for the
// Audira Progress Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNING FACTS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learning fact tables
-- Version: 001

-- Audio lesson completion state. One row per (user, audible); replayed
-- completions update the row in place instead of inserting a new one.
CREATE TABLE IF NOT EXISTS completion_records (
    user_id BIGINT NOT NULL,
    audible_id BIGINT NOT NULL,
    topic_id BIGINT NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, audible_id),

    CONSTRAINT valid_user CHECK (user_id > 0),
    CONSTRAINT valid_audible CHECK (audible_id > 0),
    CONSTRAINT valid_topic CHECK (topic_id > 0)
);

CREATE INDEX IF NOT EXISTS idx_completion_records_user_completed
    ON completion_records(user_id) WHERE is_completed;
CREATE INDEX IF NOT EXISTS idx_completion_records_user_topic
    ON completion_records(user_id, topic_id) WHERE is_completed;

-- Flashcard review state. One row per (user, card); repeat reviews
-- refresh the timestamp.
CREATE TABLE IF NOT EXISTS flashcard_reviews (
    user_id BIGINT NOT NULL,
    card_id BIGINT NOT NULL,
    reviewed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, card_id),

    CONSTRAINT valid_user CHECK (user_id > 0),
    CONSTRAINT valid_card CHECK (card_id > 0)
);

CREATE INDEX IF NOT EXISTS idx_flashcard_reviews_user
    ON flashcard_reviews(user_id);

-- Quiz attempts are append-only: every retake adds a row.
CREATE TABLE IF NOT EXISTS quiz_scores (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    topic_id BIGINT NOT NULL,
    score INTEGER NOT NULL,
    total INTEGER NOT NULL,
    taken_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_user CHECK (user_id > 0),
    CONSTRAINT valid_topic CHECK (topic_id > 0),
    CONSTRAINT valid_score CHECK (score >= 0 AND score <= total),
    CONSTRAINT valid_total CHECK (total > 0)
);

CREATE INDEX IF NOT EXISTS idx_quiz_scores_user_taken
    ON quiz_scores(user_id, taken_at DESC);
CREATE INDEX IF NOT EXISTS idx_quiz_scores_user_topic
    ON quiz_scores(user_id, topic_id);
`

const migration001Down = `
DROP TABLE IF EXISTS quiz_scores;
DROP TABLE IF EXISTS flashcard_reviews;
DROP TABLE IF EXISTS completion_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE GAMIFICATION LEDGER
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create streaks and achievements
-- Version: 002

-- Daily activity streaks. The version column guards concurrent updates:
-- writers update WHERE version matches and retry on a miss.
CREATE TABLE IF NOT EXISTS streaks (
    user_id BIGINT PRIMARY KEY,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_activity_date DATE,
    version BIGINT NOT NULL DEFAULT 1,

    CONSTRAINT valid_user CHECK (user_id > 0),
    CONSTRAINT valid_current_streak CHECK (current_streak >= 0),
    CONSTRAINT valid_longest_streak CHECK (longest_streak >= current_streak)
);

CREATE INDEX IF NOT EXISTS idx_streaks_current
    ON streaks(current_streak DESC) WHERE current_streak > 0;

-- Experience and badges per user, guarded the same way as streaks.
CREATE TABLE IF NOT EXISTS achievements (
    user_id BIGINT PRIMARY KEY,
    total_xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    badges JSONB NOT NULL DEFAULT '[]'::jsonb,
    version BIGINT NOT NULL DEFAULT 1,

    CONSTRAINT valid_user CHECK (user_id > 0),
    CONSTRAINT valid_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_level CHECK (level >= 1)
);

CREATE INDEX IF NOT EXISTS idx_achievements_total_xp
    ON achievements(total_xp DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS achievements;
DROP TABLE IF EXISTS streaks;
`

// GetMigrations returns all embedded migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_learning_facts",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_gamification_ledger",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}
