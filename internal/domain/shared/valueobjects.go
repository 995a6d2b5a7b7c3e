// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// UserID represents a unique user identifier.
type UserID int64

// IsValid checks if the user ID is valid (positive number).
func (u UserID) IsValid() bool {
	return u > 0
}

// Int64 returns the underlying int64 value.
func (u UserID) Int64() int64 {
	return int64(u)
}

// String returns the string representation.
func (u UserID) String() string {
	return fmt.Sprintf("%d", u)
}

// NewUserID creates a new UserID with validation.
func NewUserID(id int64) (UserID, error) {
	if id <= 0 {
		return 0, ErrInvalidUserID
	}
	return UserID(id), nil
}

// AudibleID represents a unique audio lesson identifier.
type AudibleID int64

// IsValid checks if the audible ID is valid.
func (a AudibleID) IsValid() bool {
	return a > 0
}

// Int64 returns the underlying int64 value.
func (a AudibleID) Int64() int64 {
	return int64(a)
}

// NewAudibleID creates a new AudibleID with validation.
func NewAudibleID(id int64) (AudibleID, error) {
	if id <= 0 {
		return 0, ErrInvalidAudibleID
	}
	return AudibleID(id), nil
}

// CardID represents a unique flashcard identifier.
type CardID int64

// IsValid checks if the card ID is valid.
func (c CardID) IsValid() bool {
	return c > 0
}

// Int64 returns the underlying int64 value.
func (c CardID) Int64() int64 {
	return int64(c)
}

// NewCardID creates a new CardID with validation.
func NewCardID(id int64) (CardID, error) {
	if id <= 0 {
		return 0, ErrInvalidCardID
	}
	return CardID(id), nil
}

// TopicID represents a unique topic (course section) identifier.
type TopicID int64

// IsValid checks if the topic ID is valid.
func (t TopicID) IsValid() bool {
	return t > 0
}

// Int64 returns the underlying int64 value.
func (t TopicID) Int64() int64 {
	return int64(t)
}

// NewTopicID creates a new TopicID with validation.
func NewTopicID(id int64) (TopicID, error) {
	if id <= 0 {
		return 0, ErrInvalidTopicID
	}
	return TopicID(id), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents accumulated experience points.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 100000000 // 100 million XP cap

	// XPPerLevel is the amount of XP needed to advance one level.
	XPPerLevel = 1000

	// MaxQuizXP is the maximum XP a single quiz submission can award.
	MaxQuizXP = 100
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	if result < MinXP {
		return MinXP
	}
	return result
}

// Level calculates the level based on accumulated XP.
// Levels are linear: every XPPerLevel XP advances one level, starting at 1.
func (x XP) Level() Level {
	if x <= 0 {
		return 1
	}
	return Level(1 + int(x)/XPPerLevel)
}

// ProgressToNextLevel returns percentage progress to the next level (0-100).
func (x XP) ProgressToNextLevel() int {
	if x < 0 {
		return 0
	}
	return (int(x) % XPPerLevel) * 100 / XPPerLevel
}

// XPToNextLevel returns how much XP remains until the next level.
func (x XP) XPToNextLevel() int {
	if x < 0 {
		return XPPerLevel
	}
	return XPPerLevel - int(x)%XPPerLevel
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	if amount > int(MaxXP) {
		return MaxXP, nil // Cap at max
	}
	return XP(amount), nil
}

// QuizXP computes the XP awarded for a quiz submission.
// A perfect score yields MaxQuizXP; partial scores scale proportionally
// and are rounded to the nearest whole point.
func QuizXP(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score >= total {
		return MaxQuizXP
	}
	return int(math.Round(float64(score) / float64(total) * MaxQuizXP))
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a user's level.
type Level int

const (
	MinLevel Level = 1
)

// IsValid checks if the level is valid.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a user's position in a leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the user is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Percentage Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Percentage represents a whole-number percentage (0-100).
type Percentage int

// IsValid checks if the percentage is within range.
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Int returns the underlying int value.
func (p Percentage) Int() int {
	return int(p)
}

// NewPercentage computes the percentage of part out of whole.
// A zero or negative whole yields 0, never a division error.
func NewPercentage(part, whole int) Percentage {
	if whole <= 0 || part <= 0 {
		return 0
	}
	p := Percentage(part * 100 / whole)
	if p > 100 {
		return 100
	}
	return p
}

// ═══════════════════════════════════════════════════════════════════════════
// Paging Limits
// ═══════════════════════════════════════════════════════════════════════════

// MaxPageSize caps how many rows any list read returns.
const MaxPageSize = 100
